package eventsink

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts what the sinks did with the records handed to them.
// Every counter is labelled with the sink name ("console" or "file").
type Metrics struct {
	written     *prometheus.CounterVec
	dropped     *prometheus.CounterVec
	writeErrors *prometheus.CounterVec
	rotations   *prometheus.CounterVec
}

type sinkMetrics struct {
	written     prometheus.Counter
	dropped     prometheus.Counter
	writeErrors prometheus.Counter
	rotations   prometheus.Counter
}

// NewMetrics creates the sink counters and registers them on reg. A nil reg leaves
// them unregistered. Counters already registered on reg by another Logger are
// reused, so several loggers may share one registry.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		written: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eventsink_records_written_total",
				Help: "Total number of records written by the sink",
			},
			[]string{"sink"},
		),
		dropped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eventsink_records_dropped_total",
				Help: "Total number of records dropped because the write queue was full",
			},
			[]string{"sink"},
		),
		writeErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eventsink_write_errors_total",
				Help: "Total number of failed sink writes",
			},
			[]string{"sink"},
		),
		rotations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eventsink_rotations_total",
				Help: "Total number of completed log file rotations",
			},
			[]string{"sink"},
		),
	}
	if reg == nil {
		return m, nil
	}

	var err error
	if m.written, err = registerCounterVec(reg, m.written); err != nil {
		return nil, err
	}
	if m.dropped, err = registerCounterVec(reg, m.dropped); err != nil {
		return nil, err
	}
	if m.writeErrors, err = registerCounterVec(reg, m.writeErrors); err != nil {
		return nil, err
	}
	if m.rotations, err = registerCounterVec(reg, m.rotations); err != nil {
		return nil, err
	}
	return m, nil
}

func registerCounterVec(reg prometheus.Registerer, c *prometheus.CounterVec) (*prometheus.CounterVec, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
		}
		return nil, err
	}
	return c, nil
}

func (m *Metrics) forSink(name string) sinkMetrics {
	if m == nil {
		m, _ = NewMetrics(nil)
	}
	return sinkMetrics{
		written:     m.written.WithLabelValues(name),
		dropped:     m.dropped.WithLabelValues(name),
		writeErrors: m.writeErrors.WithLabelValues(name),
		rotations:   m.rotations.WithLabelValues(name),
	}
}
