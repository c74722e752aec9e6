package notify

import (
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strconv"
)

// ErrNotConfigured indicates the sender is missing credentials or
// recipients and delivery was skipped.
var ErrNotConfigured = errors.New("notify: email not configured")

// Config holds SMTP delivery settings. Password is normally supplied
// through the environment rather than the config file.
type Config struct {
	Host     string   `yaml:"host"`
	Port     int      `yaml:"port"`
	From     string   `yaml:"from"`
	Password string   `yaml:"-"`
	To       []string `yaml:"to"`
	CC       []string `yaml:"cc,omitempty"`
}

// Sender delivers report emails over SMTP. Port 465 uses implicit TLS,
// other ports upgrade with STARTTLS when the server offers it.
type Sender struct {
	config Config
	logger *slog.Logger
}

func NewSender(config Config, logger *slog.Logger) *Sender {
	return &Sender{config: config, logger: logger}
}

// Send builds and delivers one report email. It returns
// ErrNotConfigured when sender address, password or recipients are
// missing, so a monitor without email settings degrades to logging.
func (s *Sender) Send(subject, htmlBody string, images []InlineImage) error {
	if s.config.From == "" || s.config.Password == "" || len(s.config.To) == 0 {
		return ErrNotConfigured
	}

	msg, err := buildMessage(s.config.From, s.config.To, s.config.CC, subject, htmlBody, images)
	if err != nil {
		return fmt.Errorf("building message: %w", err)
	}

	addr := net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))
	auth := smtp.PlainAuth("", s.config.From, s.config.Password, s.config.Host)
	recipients := append(append([]string{}, s.config.To...), s.config.CC...)

	if s.config.Port == 465 {
		err = s.sendTLS(addr, auth, recipients, msg)
	} else {
		err = smtp.SendMail(addr, auth, s.config.From, recipients, msg)
	}
	if err != nil {
		return fmt.Errorf("sending via %s: %w", addr, err)
	}

	s.logger.Info("report email sent",
		"recipients", len(recipients),
		"subject", subject,
		"size", len(msg))
	return nil
}

// sendTLS delivers over an implicit TLS connection, which smtp.SendMail
// does not support.
func (s *Sender) sendTLS(addr string, auth smtp.Auth, recipients []string, msg []byte) (err error) {
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: s.config.Host})
	if err != nil {
		return fmt.Errorf("dialing: %w", err)
	}

	client, err := smtp.NewClient(conn, s.config.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("creating client: %w", err)
	}
	defer func() {
		if cerr := client.Quit(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if err = client.Auth(auth); err != nil {
		return fmt.Errorf("authenticating: %w", err)
	}
	if err = client.Mail(s.config.From); err != nil {
		return fmt.Errorf("setting sender: %w", err)
	}
	for _, rcpt := range recipients {
		if err = client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("adding recipient %s: %w", rcpt, err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("opening data: %w", err)
	}
	if _, err = w.Write(msg); err != nil {
		return fmt.Errorf("writing data: %w", err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("closing data: %w", err)
	}
	return nil
}
