// Package metrics exports scheduler events as Prometheus metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/flemzord/cronox/pkg/cron"
)

const namespace = "cronox"

// Observer implements cron.Observer on top of Prometheus collectors.
type Observer struct {
	dispatched *prometheus.CounterVec
	skipped    *prometheus.CounterVec
	finished   *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	running    *prometheus.GaugeVec
}

var _ cron.Observer = (*Observer)(nil)

// New creates an Observer and registers its collectors with reg.
func New(reg prometheus.Registerer) (*Observer, error) {
	o := &Observer{
		dispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_dispatched_total",
			Help:      "Executions started, by job and trigger.",
		}, []string{"job", "trigger"}),
		skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_skipped_total",
			Help:      "Due executions not started, by job and reason.",
		}, []string{"job", "reason"}),
		finished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_finished_total",
			Help:      "Executions finished, by job and result.",
		}, []string{"job", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      "Execution time. For commands this is the time to spawn.",
			Buckets:   []float64{.001, .01, .1, .5, 1, 5, 30, 60, 300, 900},
		}, []string{"job"}),
		running: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "job_running",
			Help:      "Executions currently in flight.",
		}, []string{"job"}),
	}

	for _, c := range []prometheus.Collector{o.dispatched, o.skipped, o.finished, o.duration, o.running} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// JobDispatched implements cron.Observer.
func (o *Observer) JobDispatched(job string, trigger cron.Trigger) {
	o.dispatched.WithLabelValues(job, string(trigger)).Inc()
	o.running.WithLabelValues(job).Inc()
}

// JobSkipped implements cron.Observer.
func (o *Observer) JobSkipped(job string, reason cron.SkipReason) {
	o.skipped.WithLabelValues(job, string(reason)).Inc()
}

// JobFinished implements cron.Observer.
func (o *Observer) JobFinished(job string, _ cron.Trigger, elapsed time.Duration, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	o.finished.WithLabelValues(job, result).Inc()
	o.duration.WithLabelValues(job).Observe(elapsed.Seconds())
	o.running.WithLabelValues(job).Dec()
}

// Multi fans events out to several observers.
type Multi []cron.Observer

var _ cron.Observer = Multi(nil)

func (m Multi) JobDispatched(job string, trigger cron.Trigger) {
	for _, o := range m {
		o.JobDispatched(job, trigger)
	}
}

func (m Multi) JobSkipped(job string, reason cron.SkipReason) {
	for _, o := range m {
		o.JobSkipped(job, reason)
	}
}

func (m Multi) JobFinished(job string, trigger cron.Trigger, elapsed time.Duration, err error) {
	for _, o := range m {
		o.JobFinished(job, trigger, elapsed, err)
	}
}
