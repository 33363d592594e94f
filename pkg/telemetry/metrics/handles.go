package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Counter is a monotonically increasing count.
type Counter interface {
	Inc()
	IncBy(amount int64)
}

// OperationTimer records operation durations.
type OperationTimer interface {
	// StartTimer begins timing an operation.
	StartTimer() TimingContext
	// Observe records an already measured duration.
	Observe(d time.Duration)
}

// TimingContext is an in-flight measurement started by an OperationTimer.
type TimingContext interface {
	// StopTimer records the elapsed time and returns it.
	StopTimer() time.Duration
}

// LabelledMetric hands out metric children by label values.
//
// A LabelledMetric is either active, backed by a registered Prometheus
// vector, or inert, returning a shared no-op child. Inert metrics are
// returned for disabled categories and still validate label arity.
type LabelledMetric[T any] struct {
	labelCount int
	child      func(labelValues ...string) (T, error)
	inert      T
}

func newActiveMetric[T any](labelCount int, child func(...string) (T, error)) *LabelledMetric[T] {
	return &LabelledMetric[T]{labelCount: labelCount, child: child}
}

func newInertMetric[T any](labelCount int, inert T) *LabelledMetric[T] {
	return &LabelledMetric[T]{labelCount: labelCount, inert: inert}
}

// GetMetricWithLabelValues returns the child for the given label values.
// The number of values must equal the number of label names the metric was
// created with, otherwise ErrLabelArity is returned.
func (m *LabelledMetric[T]) GetMetricWithLabelValues(labelValues ...string) (T, error) {
	if len(labelValues) != m.labelCount {
		var zero T
		return zero, fmt.Errorf("%w: expected %d label values, got %d",
			ErrLabelArity, m.labelCount, len(labelValues))
	}
	if m.child == nil {
		return m.inert, nil
	}
	return m.child(labelValues...)
}

// WithLabelValues works like GetMetricWithLabelValues but panics where
// GetMetricWithLabelValues would have returned an error.
func (m *LabelledMetric[T]) WithLabelValues(labelValues ...string) T {
	child, err := m.GetMetricWithLabelValues(labelValues...)
	if err != nil {
		panic(err)
	}
	return child
}

// Inert reports whether the metric discards everything it is given.
func (m *LabelledMetric[T]) Inert() bool { return m.child == nil }

// LabelCount returns the number of label values the metric expects.
func (m *LabelledMetric[T]) LabelCount() int { return m.labelCount }

type promCounter struct {
	c prometheus.Counter
}

func (p promCounter) Inc() { p.c.Inc() }

func (p promCounter) IncBy(amount int64) { p.c.Add(float64(amount)) }

func counterChildren(vec *prometheus.CounterVec) func(...string) (Counter, error) {
	return func(labelValues ...string) (Counter, error) {
		c, err := vec.GetMetricWithLabelValues(labelValues...)
		if err != nil {
			return nil, err
		}
		return promCounter{c: c}, nil
	}
}

// observerVec is implemented by both SummaryVec and HistogramVec.
type observerVec interface {
	GetMetricWithLabelValues(lvs ...string) (prometheus.Observer, error)
}

type promTimer struct {
	o prometheus.Observer
}

func (p promTimer) StartTimer() TimingContext {
	return promTiming{t: prometheus.NewTimer(p.o)}
}

func (p promTimer) Observe(d time.Duration) { p.o.Observe(d.Seconds()) }

type promTiming struct {
	t *prometheus.Timer
}

func (p promTiming) StopTimer() time.Duration { return p.t.ObserveDuration() }

func timerChildren(vec observerVec) func(...string) (OperationTimer, error) {
	return func(labelValues ...string) (OperationTimer, error) {
		o, err := vec.GetMetricWithLabelValues(labelValues...)
		if err != nil {
			return nil, err
		}
		return promTimer{o: o}, nil
	}
}

type noopCounter struct{}

func (noopCounter) Inc()        {}
func (noopCounter) IncBy(int64) {}

type noopTimer struct{}

func (noopTimer) StartTimer() TimingContext { return noopTiming{} }
func (noopTimer) Observe(time.Duration)     {}

type noopTiming struct{}

func (noopTiming) StopTimer() time.Duration { return 0 }

var (
	// NoopCounter discards all increments.
	NoopCounter Counter = noopCounter{}
	// NoopTimer discards all observations. Its timing contexts report zero.
	NoopTimer OperationTimer = noopTimer{}
)
