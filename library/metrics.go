package library

import (
	"fmt"
	"io"
	"sort"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the catalog and loan counters on a private registry.
type Metrics struct {
	registry        *prometheus.Registry
	mutations       *prometheus.CounterVec
	persistFailures prometheus.Counter
	loadFallbacks   prometheus.Counter
	loansSubmitted  prometheus.Counter
	books           prometheus.Gauge
}

// NewMetrics creates and registers the collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bookshelf_catalog_mutations_total",
			Help: "Committed catalog mutations by operation.",
		}, []string{"op"}),
		persistFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bookshelf_persist_failures_total",
			Help: "Snapshot writes that failed and were skipped.",
		}),
		loadFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bookshelf_load_fallbacks_total",
			Help: "Startups that fell back to the seed dataset.",
		}),
		loansSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bookshelf_loans_submitted_total",
			Help: "Accepted loan submissions.",
		}),
		books: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bookshelf_books",
			Help: "Books currently in the catalog.",
		}),
	}
	m.registry.MustRegister(m.mutations, m.persistFailures, m.loadFallbacks, m.loansSubmitted, m.books)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// WriteSummary prints every gathered sample as "name{labels} value", sorted by name.
func (m *Metrics) WriteSummary(w io.Writer) error {
	families, err := m.registry.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	sort.Slice(families, func(i, j int) bool { return families[i].GetName() < families[j].GetName() })

	for _, fam := range families {
		for _, metric := range fam.GetMetric() {
			labels := ""
			for _, lp := range metric.GetLabel() {
				if labels != "" {
					labels += ","
				}
				labels += fmt.Sprintf("%s=%q", lp.GetName(), lp.GetValue())
			}
			if labels != "" {
				labels = "{" + labels + "}"
			}

			var value float64
			switch {
			case metric.GetCounter() != nil:
				value = metric.GetCounter().GetValue()
			case metric.GetGauge() != nil:
				value = metric.GetGauge().GetValue()
			}
			if _, err := fmt.Fprintf(w, "%s%s %g\n", fam.GetName(), labels, value); err != nil {
				return err
			}
		}
	}
	return nil
}
