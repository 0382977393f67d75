package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// ExportsTotal counts bill export outcomes by format.
	ExportsTotal *prometheus.CounterVec
	// ExportPagesRendered records how many pages each export produced.
	ExportPagesRendered prometheus.Histogram
	// ExportRenderLatency records end-to-end render latency in milliseconds.
	ExportRenderLatency *prometheus.HistogramVec
	// TranslitLookupsTotal counts transliteration proxy outcomes.
	TranslitLookupsTotal *prometheus.CounterVec
	// InventorySearchTotal counts inventory search requests by cache outcome.
	InventorySearchTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		ExportsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bill_exports_total",
			Help:      "Count of bill export outcomes.",
		}, []string{"format", "result"})
		ExportPagesRendered = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "bill_export_pages",
			Help:      "Number of pages rendered per export.",
			Buckets:   []float64{1, 2, 3, 5, 8, 13, 21},
		})
		ExportRenderLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "bill_export_duration_ms",
			Help:      "End-to-end export render latency in milliseconds.",
			Buckets:   []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}, []string{"format"})
		TranslitLookupsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "translit_lookups_total",
			Help:      "Count of transliteration lookups by outcome.",
		}, []string{"result"})
		InventorySearchTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inventory_search_total",
			Help:      "Count of inventory search requests.",
		}, []string{"result"})

		reg.MustRegister(ExportsTotal, ExportPagesRendered, ExportRenderLatency, TranslitLookupsTotal, InventorySearchTotal)
	})
}
