package core

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is safe to use as a nil pointer, nothing is recorded then
type Metrics struct {
	registry    *prometheus.Registry
	projections *prometheus.CounterVec
	fits        *prometheus.CounterVec
	duration    *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		projections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "projecter_projections_total",
			Help: "Monte carlo projections and single path simulations by kind and status",
		}, []string{"kind", "status"}),
		fits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "projecter_fits_total",
			Help: "Distribution fits by family and status",
		}, []string{"family", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "projecter_operation_duration_seconds",
			Help:    "Duration of projection and fitting operations",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"operation"}),
	}

	m.registry.MustRegister(m.projections, m.fits, m.duration)
	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) observeProjection(kind string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.projections.WithLabelValues(kind, status(err)).Inc()
	m.duration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}

func (m *Metrics) observeFit(family string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.fits.WithLabelValues(family, status(err)).Inc()
	m.duration.WithLabelValues("fit").Observe(time.Since(start).Seconds())
}

func status(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
