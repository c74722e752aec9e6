package notify

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/textproto"
	"strings"
	"time"
)

// InlineImage is a PNG attached to the message body and referenced from
// the HTML by its Content-ID.
type InlineImage struct {
	CID  string
	Name string
	Data []byte
}

// buildMessage assembles a full RFC 5322 message. With inline images
// the body is multipart/related: the HTML part first, then each image
// with its Content-ID. Without images a plain HTML message is built.
func buildMessage(from string, to, cc []string, subject, htmlBody string, images []InlineImage) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", strings.Join(to, ", "))
	if len(cc) > 0 {
		fmt.Fprintf(&buf, "Cc: %s\r\n", strings.Join(cc, ", "))
	}
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	fmt.Fprintf(&buf, "Date: %s\r\n", time.Now().UTC().Format(time.RFC1123Z))
	buf.WriteString("MIME-Version: 1.0\r\n")

	if len(images) == 0 {
		buf.WriteString("Content-Type: text/html; charset=utf-8\r\n\r\n")
		buf.WriteString(htmlBody)
		return buf.Bytes(), nil
	}

	w := multipart.NewWriter(&buf)
	fmt.Fprintf(&buf, "Content-Type: multipart/related; boundary=%q\r\n\r\n", w.Boundary())

	htmlHeader := textproto.MIMEHeader{}
	htmlHeader.Set("Content-Type", "text/html; charset=utf-8")
	part, err := w.CreatePart(htmlHeader)
	if err != nil {
		return nil, fmt.Errorf("creating body part: %w", err)
	}
	if _, err := part.Write([]byte(htmlBody)); err != nil {
		return nil, fmt.Errorf("writing body part: %w", err)
	}

	for _, img := range images {
		header := textproto.MIMEHeader{}
		header.Set("Content-Type", "image/png")
		header.Set("Content-Transfer-Encoding", "base64")
		header.Set("Content-ID", fmt.Sprintf("<%s>", img.CID))
		header.Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", img.Name))

		part, err := w.CreatePart(header)
		if err != nil {
			return nil, fmt.Errorf("creating image part %s: %w", img.CID, err)
		}
		if err := writeBase64(part, img.Data); err != nil {
			return nil, fmt.Errorf("writing image part %s: %w", img.CID, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("closing multipart body: %w", err)
	}
	return buf.Bytes(), nil
}

// writeBase64 encodes data in 76 character lines per RFC 2045.
func writeBase64(w io.Writer, data []byte) error {
	encoded := base64.StdEncoding.EncodeToString(data)
	for len(encoded) > 0 {
		n := min(len(encoded), 76)
		if _, err := w.Write([]byte(encoded[:n])); err != nil {
			return err
		}
		if _, err := w.Write([]byte("\r\n")); err != nil {
			return err
		}
		encoded = encoded[n:]
	}
	return nil
}
