package alloc

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Instrumented records allocator activity as prometheus metrics.
type Instrumented struct {
	next Allocator

	allocs    prometheus.Counter
	frees     prometheus.Counter
	failures  prometheus.Counter
	bytes     prometheus.Counter
	liveBytes prometheus.Gauge
}

// NewInstrumented wraps next and registers its metrics on reg, labelled
// with name. A nil reg uses a private registry.
func NewInstrumented(next Allocator, reg prometheus.Registerer, name string) *Instrumented {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)
	labels := prometheus.Labels{"allocator": name}

	return &Instrumented{
		next: next,
		allocs: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   "dynstr",
			Subsystem:   "alloc",
			Name:        "allocs_total",
			Help:        "Total number of successful Alloc calls",
			ConstLabels: labels,
		}),
		frees: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   "dynstr",
			Subsystem:   "alloc",
			Name:        "frees_total",
			Help:        "Total number of Free calls",
			ConstLabels: labels,
		}),
		failures: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   "dynstr",
			Subsystem:   "alloc",
			Name:        "failures_total",
			Help:        "Total number of failed Alloc calls",
			ConstLabels: labels,
		}),
		bytes: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   "dynstr",
			Subsystem:   "alloc",
			Name:        "bytes_total",
			Help:        "Total number of bytes handed out",
			ConstLabels: labels,
		}),
		liveBytes: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   "dynstr",
			Subsystem:   "alloc",
			Name:        "live_bytes",
			Help:        "Bytes allocated and not yet freed",
			ConstLabels: labels,
		}),
	}
}

func (i *Instrumented) Alloc(size int) ([]byte, error) {
	buf, err := i.next.Alloc(size)
	if err != nil {
		i.failures.Inc()
		return nil, err
	}
	i.allocs.Inc()
	i.bytes.Add(float64(size))
	i.liveBytes.Add(float64(size))
	return buf, nil
}

func (i *Instrumented) Free(buf []byte) {
	if buf == nil {
		return
	}
	i.frees.Inc()
	i.liveBytes.Sub(float64(len(buf)))
	i.next.Free(buf)
}
