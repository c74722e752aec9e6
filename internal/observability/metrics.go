// Package observability bundles the monitor's Prometheus metrics and
// the /metrics HTTP handler.
package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lorett/groundlink/internal/pass"
)

// Collector bundles the monitor's Prometheus metrics: report run
// outcomes, per-station pass counts, parser skips and portal download
// activity.
type Collector struct {
	gatherer prometheus.Gatherer

	RunsTotal   *prometheus.CounterVec
	RunDuration prometheus.Histogram

	PassesTotal *prometheus.CounterVec
	EmptyRatio  *prometheus.GaugeVec

	ParseSkips *prometheus.CounterVec

	DownloadsTotal *prometheus.CounterVec
	DownloadBytes  prometheus.Counter
}

// NewCollector registers the monitor metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "groundlink_runs_total",
		Help: "Total number of report runs, labeled by outcome.",
	}, []string{"outcome"})
	runs, err := registerCounterVec(reg, runs, "groundlink_runs_total")
	if err != nil {
		return nil, err
	}

	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "groundlink_run_duration_seconds",
		Help:    "Report run duration in seconds.",
		Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
	})
	duration, err = registerHistogram(reg, duration, "groundlink_run_duration_seconds")
	if err != nil {
		return nil, err
	}

	passes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "groundlink_passes_total",
		Help: "Total number of processed passes, labeled by station, band, and result.",
	}, []string{"station", "band", "result"})
	passes, err = registerCounterVec(reg, passes, "groundlink_passes_total")
	if err != nil {
		return nil, err
	}

	emptyRatio := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "groundlink_empty_ratio",
		Help: "Share of empty passes in the most recent report, per station.",
	}, []string{"station"})
	emptyRatio, err = registerGaugeVec(reg, emptyRatio, "groundlink_empty_ratio")
	if err != nil {
		return nil, err
	}

	skips := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "groundlink_parse_skips_total",
		Help: "Total number of skipped log lines, labeled by reason.",
	}, []string{"reason"})
	skips, err = registerCounterVec(reg, skips, "groundlink_parse_skips_total")
	if err != nil {
		return nil, err
	}

	downloads := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "groundlink_downloads_total",
		Help: "Total number of portal log downloads, labeled by outcome.",
	}, []string{"outcome"})
	downloads, err = registerCounterVec(reg, downloads, "groundlink_downloads_total")
	if err != nil {
		return nil, err
	}

	bytes := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "groundlink_download_bytes_total",
		Help: "Total bytes downloaded from log portals.",
	})
	bytes, err = registerCounter(reg, bytes, "groundlink_download_bytes_total")
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:       gatherer,
		RunsTotal:      runs,
		RunDuration:    duration,
		PassesTotal:    passes,
		EmptyRatio:     emptyRatio,
		ParseSkips:     skips,
		DownloadsTotal: downloads,
		DownloadBytes:  bytes,
	}, nil
}

// ObserveRun records one completed report run.
func (c *Collector) ObserveRun(outcome string, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.RunsTotal.WithLabelValues(outcome).Inc()
	c.RunDuration.Observe(elapsed.Seconds())
}

// ObserveReport records the per-station numbers of a finished report.
func (c *Collector) ObserveReport(report *pass.Report) {
	if c == nil || report == nil {
		return
	}
	for _, st := range report.Stations {
		if !st.OK() {
			continue
		}
		for _, p := range st.Day.Passes {
			result := "valid"
			if p.Empty {
				result = "empty"
			}
			c.PassesTotal.WithLabelValues(st.Station, string(p.Band), result).Inc()
		}
		for reason, count := range st.Skipped {
			c.ParseSkips.WithLabelValues(string(reason)).Add(float64(count))
		}
		c.EmptyRatio.WithLabelValues(st.Station).Set(st.Rollup.EmptyRatio)
	}
}

// ObserveDownload records one log download attempt and its size.
func (c *Collector) ObserveDownload(outcome string, bytes int) {
	if c == nil {
		return
	}
	c.DownloadsTotal.WithLabelValues(outcome).Inc()
	c.DownloadBytes.Add(float64(bytes))
}

// Handler exposes a ready-to-use /metrics handler.
func (c *Collector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGaugeVec(reg prometheus.Registerer, vec *prometheus.GaugeVec, name string) (*prometheus.GaugeVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.GaugeVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}
