package metrics

import (
	"fmt"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// LabelledSuppliedMetric is a counter or gauge whose values are read from
// caller-supplied functions at collection time, one function per label
// combination.
type LabelledSuppliedMetric struct {
	labelCount int
	collector  *suppliedCollector
}

// Labels attaches supplier as the value source for labelValues.
//
// It returns ErrLabelArity when the number of values is wrong and
// ErrLabelsAlreadyRegistered when labelValues already has a source. On an
// inert metric only the arity is checked.
func (m *LabelledSuppliedMetric) Labels(supplier func() float64, labelValues ...string) error {
	if len(labelValues) != m.labelCount {
		return fmt.Errorf("%w: expected %d label values, got %d",
			ErrLabelArity, m.labelCount, len(labelValues))
	}
	if m.collector == nil {
		return nil
	}
	return m.collector.add(supplier, labelValues)
}

// Inert reports whether the metric discards every supplier.
func (m *LabelledSuppliedMetric) Inert() bool { return m.collector == nil }

type suppliedEntry struct {
	labelValues []string
	supplier    func() float64
}

type suppliedCollector struct {
	desc      *prometheus.Desc
	valueType prometheus.ValueType

	mu      sync.RWMutex
	entries []suppliedEntry
	keys    map[string]struct{}
}

func newSuppliedCollector(name, help string, valueType prometheus.ValueType, labelNames []string) *suppliedCollector {
	return &suppliedCollector{
		desc:      prometheus.NewDesc(name, help, labelNames, nil),
		valueType: valueType,
		keys:      make(map[string]struct{}),
	}
}

func (c *suppliedCollector) add(supplier func() float64, labelValues []string) error {
	key := strings.Join(labelValues, "\xff")

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.keys[key]; exists {
		return fmt.Errorf("%w: %v", ErrLabelsAlreadyRegistered, labelValues)
	}
	c.keys[key] = struct{}{}
	c.entries = append(c.entries, suppliedEntry{
		labelValues: append([]string(nil), labelValues...),
		supplier:    supplier,
	})
	return nil
}

// Describe implements prometheus.Collector.
func (c *suppliedCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.desc
}

// Collect implements prometheus.Collector.
func (c *suppliedCollector) Collect(ch chan<- prometheus.Metric) {
	c.mu.RLock()
	entries := c.entries
	c.mu.RUnlock()

	for _, e := range entries {
		m, err := prometheus.NewConstMetric(c.desc, c.valueType, e.supplier(), e.labelValues...)
		if err != nil {
			m = prometheus.NewInvalidMetric(c.desc, err)
		}
		ch <- m
	}
}

// ExternalSummary is a summary computed outside this process, such as the
// statistics an embedded storage engine keeps for itself.
type ExternalSummary struct {
	Count     uint64
	Sum       float64
	Quantiles []Quantile
}

// Quantile is one quantile of an ExternalSummary.
type Quantile struct {
	Quantile float64
	Value    float64
}

type externalSummaryCollector struct {
	desc     *prometheus.Desc
	supplier func() ExternalSummary
}

func newExternalSummaryCollector(name, help string, supplier func() ExternalSummary) *externalSummaryCollector {
	return &externalSummaryCollector{
		desc:     prometheus.NewDesc(name, help, nil, nil),
		supplier: supplier,
	}
}

// Describe implements prometheus.Collector.
func (c *externalSummaryCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.desc
}

// Collect implements prometheus.Collector.
func (c *externalSummaryCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.supplier()
	quantiles := make(map[float64]float64, len(s.Quantiles))
	for _, q := range s.Quantiles {
		quantiles[q.Quantile] = q.Value
	}

	m, err := prometheus.NewConstSummary(c.desc, s.Count, s.Sum, quantiles)
	if err != nil {
		m = prometheus.NewInvalidMetric(c.desc, err)
	}
	ch <- m
}
