package observability

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CatalogCollector exposes catalog-specific Prometheus metrics.
type CatalogCollector struct {
	gatherer prometheus.Gatherer

	Entries         prometheus.Gauge
	IngestDurations prometheus.Histogram
	TLEAccepted     prometheus.Counter
	TLESkipped      prometheus.Counter
}

// NewCatalogCollector registers catalog metrics against the provided registerer.
func NewCatalogCollector(reg prometheus.Registerer) (*CatalogCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	entries := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "catalog_entries",
		Help: "Satellites currently held in the catalog.",
	})
	entries, err := registerGauge(reg, entries, "catalog_entries")
	if err != nil {
		return nil, err
	}

	ingestHistogram := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "catalog_tle_ingest_duration_seconds",
		Help:    "Duration of TLE ingest passes.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	})
	ingestHistogram, err = registerHistogram(reg, ingestHistogram, "catalog_tle_ingest_duration_seconds")
	if err != nil {
		return nil, err
	}

	accepted := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "catalog_tle_accepted_total",
		Help: "Cumulative element sets accepted into the catalog.",
	})
	accepted, err = registerCounter(reg, accepted, "catalog_tle_accepted_total")
	if err != nil {
		return nil, err
	}

	skipped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "catalog_tle_skipped_total",
		Help: "Cumulative element sets rejected during ingest.",
	})
	skipped, err = registerCounter(reg, skipped, "catalog_tle_skipped_total")
	if err != nil {
		return nil, err
	}

	return &CatalogCollector{
		gatherer:        gatherer,
		Entries:         entries,
		IngestDurations: ingestHistogram,
		TLEAccepted:     accepted,
		TLESkipped:      skipped,
	}, nil
}

// Gatherer returns the Prometheus gatherer associated with the collector.
func (c *CatalogCollector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return nil
	}
	return c.gatherer
}

// SetEntries updates the catalog size gauge.
func (c *CatalogCollector) SetEntries(count int) {
	if c == nil || c.Entries == nil {
		return
	}
	c.Entries.Set(float64(count))
}

// ObserveIngest records the outcome of one TLE ingest pass.
func (c *CatalogCollector) ObserveIngest(added, skipped int, d time.Duration) {
	if c == nil {
		return
	}
	if c.IngestDurations != nil {
		c.IngestDurations.Observe(d.Seconds())
	}
	if c.TLEAccepted != nil && added > 0 {
		c.TLEAccepted.Add(float64(added))
	}
	if c.TLESkipped != nil && skipped > 0 {
		c.TLESkipped.Add(float64(skipped))
	}
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
