package app

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lorett/groundlink/internal/notify"
	"github.com/lorett/groundlink/internal/pass"
	"github.com/lorett/groundlink/internal/web"
)

const defaultSchedule = "0 6 * * *" // daily, 06:00 UTC

// Config represents the main application configuration
type Config struct {
	Settings Settings       `yaml:"settings"`
	Stations []string       `yaml:"stations"`
	Portal   PortalConfig   `yaml:"portal"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Storage  StorageConfig  `yaml:"storage"`
	Email    notify.Config  `yaml:"email"`
	Chart    ChartConfig    `yaml:"chart"`
	Server   web.Config     `yaml:"server"`
}

// Settings represents global application settings
type Settings struct {
	LogLevel string `yaml:"logLevel"`

	// Schedule is a cron expression evaluated in UTC. Each trigger
	// processes the previous UTC day.
	Schedule string `yaml:"schedule"`
}

// PortalConfig represents the log portal client settings
type PortalConfig struct {
	Pages       []string `yaml:"pages"`
	MaxRetries  int      `yaml:"maxRetries"`
	Concurrency int      `yaml:"concurrency"`
}

// AnalysisConfig represents pass segmentation and classification
// settings
type AnalysisConfig struct {
	MaxGap     string             `yaml:"maxGap"` // e.g. "2m", "90s"
	Thresholds map[string]float64 `yaml:"thresholds"`
	Commercial []string           `yaml:"commercial"`
}

// StorageConfig represents storage settings
type StorageConfig struct {
	DatabasePath string `yaml:"databasePath"`
}

// ChartConfig represents report chart settings
type ChartConfig struct {
	FontPath string `yaml:"fontPath"`
	Width    int    `yaml:"width"`
	Height   int    `yaml:"height"`
}

// LoadConfig reads and validates the YAML configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading configuration: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}
	if err := config.validate(); err != nil {
		return nil, err
	}
	config.applyDefaults()
	return &config, nil
}

func (c *Config) validate() error {
	if len(c.Stations) == 0 {
		return fmt.Errorf("no stations configured")
	}
	if len(c.Portal.Pages) == 0 {
		return fmt.Errorf("no portal pages configured")
	}
	if c.Storage.DatabasePath == "" {
		return fmt.Errorf("no database path configured")
	}
	for band := range c.Analysis.Thresholds {
		if _, err := pass.ParseBand(band); err != nil {
			return fmt.Errorf("invalid threshold band: %w", err)
		}
	}
	if c.Analysis.MaxGap != "" {
		gap, err := time.ParseDuration(c.Analysis.MaxGap)
		if err != nil {
			return fmt.Errorf("invalid max gap: %w", err)
		}
		if gap <= 0 {
			return fmt.Errorf("max gap must be positive, got %s", gap)
		}
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Settings.Schedule == "" {
		c.Settings.Schedule = defaultSchedule
	}
	if c.Analysis.MaxGap == "" {
		c.Analysis.MaxGap = "2m"
	}
}

// Level parses the configured level name, defaulting to info.
func (s Settings) Level() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// GapDuration returns the parsed sample gap limit. The value is
// validated at load time.
func (c *AnalysisConfig) GapDuration() time.Duration {
	gap, err := time.ParseDuration(c.MaxGap)
	if err != nil || gap <= 0 {
		return 2 * time.Minute
	}
	return gap
}

// BandThresholds builds the classifier threshold table, falling back to the
// defaults for bands the configuration does not name.
func (c *AnalysisConfig) BandThresholds() (pass.Thresholds, error) {
	thresholds := pass.DefaultThresholds()
	for name, value := range c.Thresholds {
		band, err := pass.ParseBand(name)
		if err != nil {
			return nil, err
		}
		thresholds[band] = value
	}
	return thresholds, nil
}
