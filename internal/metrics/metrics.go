// Package metrics records transfer counters and latencies in Prometheus.
package metrics

import (
	stderrors "errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Transfer directions used as the "direction" label.
const (
	DirectionUpload   = "upload"
	DirectionDownload = "download"
)

const (
	resultSuccess = "success"
	resultFailure = "failure"
)

// Collector holds the transfer metrics. A nil *Collector is valid and records nothing.
type Collector struct {
	objects    *prometheus.CounterVec
	bytes      *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	operations *prometheus.CounterVec
}

// NewCollector registers the transfer metrics with reg. It returns nil when reg
// is nil. Registering twice against the same registry reuses the existing metrics.
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		return nil
	}

	return &Collector{
		objects: register(reg, prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "s3transfer_objects_total",
				Help: "Total number of objects transferred",
			},
			[]string{"direction", "result"},
		)),
		bytes: register(reg, prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "s3transfer_bytes_total",
				Help: "Total number of bytes transferred",
			},
			[]string{"direction"},
		)),
		duration: register(reg, prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "s3transfer_duration_seconds",
				Help:    "Duration of single object transfers in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"direction"},
		)),
		operations: register(reg, prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "s3transfer_operations_total",
				Help: "Total number of transfer entry point calls",
			},
			[]string{"operation", "result"},
		)),
	}
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T) T {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if stderrors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

// ObserveTransfer records one object transfer.
func (c *Collector) ObserveTransfer(direction string, size int64, d time.Duration, err error) {
	if c == nil {
		return
	}
	if err != nil {
		c.objects.WithLabelValues(direction, resultFailure).Inc()
		return
	}
	c.objects.WithLabelValues(direction, resultSuccess).Inc()
	c.bytes.WithLabelValues(direction).Add(float64(size))
	c.duration.WithLabelValues(direction).Observe(d.Seconds())
}

// ObserveOperation records the outcome of an entry point call such as "upload_folder".
func (c *Collector) ObserveOperation(op string, err error) {
	if c == nil {
		return
	}
	result := resultSuccess
	if err != nil {
		result = resultFailure
	}
	c.operations.WithLabelValues(op, result).Inc()
}
