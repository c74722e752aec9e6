package app

import (
	"errors"
	"flag"
	"fmt"
	"strings"
	"time"
)

const (
	ImagePNG  = "png"
	ImageJPEG = "jpeg"
)

const (
	// ChartProfile draws the peak SNR of one station's passes over a
	// single day.
	ChartProfile = "profile"

	// ChartEmptyRatio draws the share of empty passes per day over a
	// rolling window.
	ChartEmptyRatio = "empty-ratio"
)

type ImageFormat string

type Config struct {
	DBPath     string
	Chart      string
	Station    string
	Date       time.Time
	Days       int
	OutputFile string
	Format     ImageFormat
	FontPath   string
	Verbose    bool
}

var validImageFormats = map[ImageFormat]struct{}{
	ImagePNG:  {},
	ImageJPEG: {},
}

var validCharts = map[string]struct{}{
	ChartProfile:    {},
	ChartEmptyRatio: {},
}

func NewConfig() *Config {
	return &Config{
		Format: ImagePNG,
		Chart:  ChartEmptyRatio,
		Days:   7,
	}
}

func NewConfigFromCLI() (*Config, error) {
	c := NewConfig()

	var imageFormat, date string
	flag.StringVar(&c.DBPath, "db", "", "Path to the database file")
	flag.StringVar(&c.Chart, "chart", ChartEmptyRatio, "Chart type. [empty-ratio, profile]")
	flag.StringVar(&c.Station, "station", "", "Station name (required for profile, optional filter for empty-ratio)")
	flag.StringVar(&date, "date", "", "Report date (YYYY-MM-DD, default: previous UTC day)")
	flag.IntVar(&c.Days, "days", 7, "Window length in days for the empty-ratio chart")
	flag.StringVar(&c.OutputFile, "o", "", "Path to the output file, without extension")
	flag.StringVar(&imageFormat, "f", string(ImagePNG), "Output image format. [png, jpeg]")
	flag.StringVar(&c.FontPath, "font", "", "Path to a TTF font for labels")
	flag.BoolVar(&c.Verbose, "verbose", false, "Enable more verbose output")
	flag.Parse()

	imageFormat = strings.ToLower(imageFormat)

	var err error
	if c.DBPath == "" {
		err = errors.New("db path is required")
	} else if c.OutputFile == "" {
		err = errors.New("output file is required")
	} else if _, ok := validCharts[c.Chart]; !ok {
		err = fmt.Errorf("invalid chart type: %s", c.Chart)
	} else if c.Chart == ChartProfile && c.Station == "" {
		err = errors.New("station is required for the profile chart")
	} else if c.Days <= 0 {
		err = errors.New("days must be positive")
	} else if _, ok := validImageFormats[ImageFormat(imageFormat)]; !ok {
		err = fmt.Errorf("invalid image format: %s", imageFormat)
	}

	if err == nil {
		if date == "" {
			c.Date = time.Now().UTC().Truncate(24 * time.Hour).AddDate(0, 0, -1)
		} else if c.Date, err = time.ParseInLocation(time.DateOnly, date, time.UTC); err != nil {
			err = fmt.Errorf("invalid date %q, want YYYY-MM-DD", date)
		}
	}

	if err != nil {
		flag.Usage()
		return nil, err
	}

	c.Format = ImageFormat(imageFormat)
	c.OutputFile = fmt.Sprintf("%s.%s", c.OutputFile, c.Format)
	return c, nil
}
