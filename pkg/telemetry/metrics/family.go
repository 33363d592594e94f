package metrics

import (
	"slices"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// Type is the Prometheus type of a sample family.
type Type int

const (
	// TypeUntyped is a family with no declared type.
	TypeUntyped Type = iota
	// TypeCounter is a monotonically increasing value.
	TypeCounter
	// TypeGauge is a value that can go up and down.
	TypeGauge
	// TypeSummary carries quantiles, a count and a sum.
	TypeSummary
	// TypeHistogram carries cumulative buckets, a count and a sum.
	TypeHistogram
)

// String returns the lower-case Prometheus type name.
func (t Type) String() string {
	switch t {
	case TypeCounter:
		return "counter"
	case TypeGauge:
		return "gauge"
	case TypeSummary:
		return "summary"
	case TypeHistogram:
		return "histogram"
	default:
		return "untyped"
	}
}

// Sample is a single exposed value.
//
// LabelNames and LabelValues are parallel slices. Samples produced by the
// collectors in this package may share these slices with sibling samples and
// must be treated as read-only.
type Sample struct {
	Name        string
	LabelNames  []string
	LabelValues []string
	Value       float64
}

// SampleFamily is a named group of samples sharing a type.
type SampleFamily struct {
	Name    string
	Type    Type
	Help    string
	Samples []Sample
}

func (f *SampleFamily) add(name string, labelNames, labelValues []string, value float64) {
	f.Samples = append(f.Samples, Sample{
		Name:        name,
		LabelNames:  labelNames,
		LabelValues: labelValues,
		Value:       value,
	})
}

// familyNames returns the names of the given families.
func familyNames(families []SampleFamily) []string {
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.Name)
	}
	return names
}

// overlaps reports whether the two name sets share at least one name.
func overlaps(a, b []string) bool {
	for _, name := range a {
		if slices.Contains(b, name) {
			return true
		}
	}
	return false
}

func typeOf(t dto.MetricType) Type {
	switch t {
	case dto.MetricType_COUNTER:
		return TypeCounter
	case dto.MetricType_GAUGE:
		return TypeGauge
	case dto.MetricType_SUMMARY:
		return TypeSummary
	case dto.MetricType_HISTOGRAM, dto.MetricType_GAUGE_HISTOGRAM:
		return TypeHistogram
	default:
		return TypeUntyped
	}
}

// familyName returns the name a family is exposed under. Counter families
// drop their "_total" suffix; the suffix moves to the sample name.
func familyName(name string, typ Type) string {
	if typ == TypeCounter {
		return strings.TrimSuffix(name, totalSuffix)
	}
	return name
}

// decomposeFamily splits a gathered metric family into the flat sample
// layout of the OpenMetrics exposition format.
//
// Label pairs are reordered to follow declared, because the Prometheus client
// stores them sorted by name. Pairs not named in declared keep their order
// and follow the declared ones.
func decomposeFamily(mf *dto.MetricFamily, declared []string) SampleFamily {
	typ := typeOf(mf.GetType())
	name := familyName(mf.GetName(), typ)
	family := SampleFamily{Name: name, Type: typ, Help: mf.GetHelp()}

	for _, m := range mf.GetMetric() {
		names, values := orderLabels(m.GetLabel(), declared)

		switch typ {
		case TypeCounter:
			c := m.GetCounter()
			family.add(name+totalSuffix, names, values, c.GetValue())
			if ts := c.GetCreatedTimestamp(); ts != nil {
				family.add(name+createdSuffix, names, values, seconds(ts.GetSeconds(), ts.GetNanos()))
			}

		case TypeGauge:
			family.add(name, names, values, m.GetGauge().GetValue())

		case TypeSummary:
			s := m.GetSummary()
			for _, q := range s.GetQuantile() {
				family.add(name,
					slices.Concat(names, []string{"quantile"}),
					slices.Concat(values, []string{formatFloat(q.GetQuantile())}),
					q.GetValue())
			}
			family.add(name+countSuffix, names, values, float64(s.GetSampleCount()))
			family.add(name+sumSuffix, names, values, s.GetSampleSum())
			if ts := s.GetCreatedTimestamp(); ts != nil {
				family.add(name+createdSuffix, names, values, seconds(ts.GetSeconds(), ts.GetNanos()))
			}

		case TypeHistogram:
			h := m.GetHistogram()
			sawInf := false
			for _, b := range h.GetBucket() {
				bound := formatFloat(b.GetUpperBound())
				if bound == "+Inf" {
					sawInf = true
				}
				family.add(name+bucketSuffix,
					slices.Concat(names, []string{"le"}),
					slices.Concat(values, []string{bound}),
					float64(b.GetCumulativeCount()))
			}
			if !sawInf {
				family.add(name+bucketSuffix,
					slices.Concat(names, []string{"le"}),
					slices.Concat(values, []string{"+Inf"}),
					float64(h.GetSampleCount()))
			}
			family.add(name+countSuffix, names, values, float64(h.GetSampleCount()))
			family.add(name+sumSuffix, names, values, h.GetSampleSum())
			if ts := h.GetCreatedTimestamp(); ts != nil {
				family.add(name+createdSuffix, names, values, seconds(ts.GetSeconds(), ts.GetNanos()))
			}

		default:
			family.add(name, names, values, m.GetUntyped().GetValue())
		}
	}

	return family
}

func orderLabels(pairs []*dto.LabelPair, declared []string) (names, values []string) {
	names = make([]string, 0, len(pairs))
	values = make([]string, 0, len(pairs))
	used := make([]bool, len(pairs))

	for _, want := range declared {
		for i, p := range pairs {
			if !used[i] && p.GetName() == want {
				names = append(names, p.GetName())
				values = append(values, p.GetValue())
				used[i] = true
				break
			}
		}
	}
	for i, p := range pairs {
		if !used[i] {
			names = append(names, p.GetName())
			values = append(values, p.GetValue())
		}
	}
	return names, values
}

// formatFloat renders a quantile or bucket bound as a label value. Integral
// values keep a trailing ".0", so the one-second bucket reads "1.0".
func formatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'g', -1, 64)
	if strings.ContainsAny(s, ".eIN") {
		return s
	}
	return s + ".0"
}

func seconds(s int64, nanos int32) float64 {
	return float64(s) + float64(nanos)/1e9
}

// collector is a Prometheus collector as tracked by the registry manager.
//
// declared lists the families the collector is known to expose even while it
// has no children yet (an empty CounterVec gathers to nothing). described
// holds the names c reports through Describe, which covers foreign
// collectors that declare nothing. labelNames is the declared label order
// used when decomposing gathered families.
type collector struct {
	prometheus.Collector
	declared   []SampleFamily
	described  []string
	labelNames []string
}

// newCollector wraps c. Foreign collectors pass no declared families.
func newCollector(c prometheus.Collector, labelNames []string, declared ...SampleFamily) *collector {
	return &collector{
		Collector:  c,
		declared:   declared,
		described:  describedNames(c),
		labelNames: labelNames,
	}
}

// describedNames returns the fully-qualified names of the descriptors c
// describes. A name ending in "_total" is listed with and without the
// suffix, since counter families are exposed without it.
func describedNames(c prometheus.Collector) []string {
	ch := make(chan *prometheus.Desc, 16)
	go func() {
		c.Describe(ch)
		close(ch)
	}()

	var names []string
	for desc := range ch {
		name, ok := descName(desc)
		if !ok || slices.Contains(names, name) {
			continue
		}
		names = append(names, name)
		if trimmed, found := strings.CutSuffix(name, totalSuffix); found {
			names = append(names, trimmed)
		}
	}
	return names
}

// descName extracts the fully-qualified name from a descriptor. Desc keeps
// the name private; its String form starts with the quoted name.
func descName(desc *prometheus.Desc) (string, bool) {
	rest, ok := strings.CutPrefix(desc.String(), "Desc{fqName: ")
	if !ok {
		return "", false
	}
	quoted, err := strconv.QuotedPrefix(rest)
	if err != nil {
		return "", false
	}
	name, err := strconv.Unquote(quoted)
	if err != nil || name == "" {
		return "", false
	}
	return name, true
}

// declare builds the empty family a collector exposes under externalName.
func declare(externalName string, typ Type, help string) SampleFamily {
	return SampleFamily{Name: familyName(externalName, typ), Type: typ, Help: help}
}

// collect returns a point-in-time snapshot of the collector's families.
//
// Gathering goes through a private registry so nothing shared is touched. On
// a gather error the families that could be gathered are still returned.
func (c *collector) collect() ([]SampleFamily, error) {
	reg := prometheus.NewRegistry()
	if err := reg.Register(c.Collector); err != nil {
		return slices.Clone(c.declared), err
	}

	mfs, err := reg.Gather()
	families := make([]SampleFamily, 0, len(mfs)+len(c.declared))
	for _, mf := range mfs {
		families = append(families, decomposeFamily(mf, c.labelNames))
	}
	for _, d := range c.declared {
		if !slices.ContainsFunc(families, func(f SampleFamily) bool { return f.Name == d.Name }) {
			families = append(families, d)
		}
	}
	return families, err
}
