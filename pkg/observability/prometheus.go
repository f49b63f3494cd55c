package observability

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prometheus implements every hook interface on top of Prometheus
// collectors.
type Prometheus struct {
	gatherer prometheus.Gatherer

	enumerations        *prometheus.CounterVec
	enumerationDuration *prometheus.HistogramVec
	enumeratedWords     *prometheus.GaugeVec
	lookups             *prometheus.CounterVec
	saveDuration        *prometheus.HistogramVec
	searches            *prometheus.CounterVec
	searchDuration      *prometheus.HistogramVec
}

// NewPrometheus registers the demazure collectors on reg. Pass a fresh
// prometheus.NewRegistry() per server to avoid duplicate registration.
func NewPrometheus(reg *prometheus.Registry) *Prometheus {
	f := promauto.With(reg)
	return &Prometheus{
		gatherer: reg,
		enumerations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "demazure_enumerations_total",
			Help: "Weak-order enumerations by n and outcome.",
		}, []string{"n", "status"}),
		enumerationDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "demazure_enumeration_duration_seconds",
			Help:    "Time spent enumerating the reduced words of S_n.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 4, 10),
		}, []string{"n"}),
		enumeratedWords: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "demazure_enumerated_words",
			Help: "Reduced words produced by the last enumeration of S_n.",
		}, []string{"n"}),
		lookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "demazure_store_lookups_total",
			Help: "Word-cache lookups by backend and result.",
		}, []string{"backend", "result"}),
		saveDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "demazure_store_save_duration_seconds",
			Help:    "Time spent persisting complete data for one n.",
			Buckets: prometheus.DefBuckets,
		}, []string{"backend", "status"}),
		searches: f.NewCounterVec(prometheus.CounterOpts{
			Name: "demazure_search_total",
			Help: "Subword searches by kind and outcome.",
		}, []string{"kind", "status"}),
		searchDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "demazure_search_duration_seconds",
			Help:    "Time spent in subword searches.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
		}, []string{"kind"}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.gatherer, promhttp.HandlerOpts{})
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (p *Prometheus) OnEnumerateStart(context.Context, int) {}

func (p *Prometheus) OnEnumerateComplete(_ context.Context, n, _, words int, d time.Duration, err error) {
	label := strconv.Itoa(n)
	p.enumerations.WithLabelValues(label, status(err)).Inc()
	p.enumerationDuration.WithLabelValues(label).Observe(d.Seconds())
	if err == nil {
		p.enumeratedWords.WithLabelValues(label).Set(float64(words))
	}
}

func (p *Prometheus) OnLookup(_ context.Context, backend string, _ int, result string) {
	p.lookups.WithLabelValues(backend, result).Inc()
}

func (p *Prometheus) OnSave(_ context.Context, backend string, _ int, d time.Duration, err error) {
	p.saveDuration.WithLabelValues(backend, status(err)).Observe(d.Seconds())
}

func (p *Prometheus) OnSearch(_ context.Context, kind string, _ int, d time.Duration, err error) {
	p.searches.WithLabelValues(kind, status(err)).Inc()
	p.searchDuration.WithLabelValues(kind).Observe(d.Seconds())
}

var (
	_ EnumerationHooks = (*Prometheus)(nil)
	_ StoreHooks       = (*Prometheus)(nil)
	_ SearchHooks      = (*Prometheus)(nil)
)
