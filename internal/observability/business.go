package observability

import "github.com/prometheus/client_golang/prometheus"

// BusinessMetrics counts domain events. All methods are no-ops on a nil
// receiver so services can run without metrics in tests.
type BusinessMetrics struct {
	quotesCreated    prometheus.Counter
	numberConflicts  prometheus.Counter
	seriesGenerated  prometheus.Counter
	installments     prometheus.Counter
	seriesDeleted    prometheus.Counter
	dashboardLookups *prometheus.CounterVec
}

// NewBusinessMetrics registers the domain counters.
func NewBusinessMetrics(registerer prometheus.Registerer) *BusinessMetrics {
	m := &BusinessMetrics{
		quotesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bizdesk_quotes_created_total",
			Help: "Quotes persisted.",
		}),
		numberConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bizdesk_quote_number_conflicts_total",
			Help: "Quote inserts retried after a quote number collision.",
		}),
		seriesGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bizdesk_installment_series_generated_total",
			Help: "Installment series written to accounts payable.",
		}),
		installments: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bizdesk_installments_generated_total",
			Help: "Accounts payable rows created as members of a series.",
		}),
		seriesDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bizdesk_installment_series_deleted_total",
			Help: "Installment series removed.",
		}),
		dashboardLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bizdesk_dashboard_cache_lookups_total",
			Help: "Dashboard cache lookups by result.",
		}, []string{"result"}),
	}
	registerer.MustRegister(m.quotesCreated, m.numberConflicts, m.seriesGenerated, m.installments, m.seriesDeleted, m.dashboardLookups)
	return m
}

// QuoteCreated counts a persisted quote.
func (m *BusinessMetrics) QuoteCreated() {
	if m == nil {
		return
	}
	m.quotesCreated.Inc()
}

// QuoteNumberConflict counts a retried number collision.
func (m *BusinessMetrics) QuoteNumberConflict() {
	if m == nil {
		return
	}
	m.numberConflicts.Inc()
}

// SeriesGenerated counts a series and its members.
func (m *BusinessMetrics) SeriesGenerated(installments int) {
	if m == nil {
		return
	}
	m.seriesGenerated.Inc()
	m.installments.Add(float64(installments))
}

// SeriesDeleted counts a removed series.
func (m *BusinessMetrics) SeriesDeleted() {
	if m == nil {
		return
	}
	m.seriesDeleted.Inc()
}

// DashboardLookup counts a cache hit or miss.
func (m *BusinessMetrics) DashboardLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.dashboardLookups.WithLabelValues(result).Inc()
}
