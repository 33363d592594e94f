package metrics

import (
	"math"
	"slices"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func ptr[T any](v T) *T { return &v }

func labelPair(name, value string) *dto.LabelPair {
	return &dto.LabelPair{Name: ptr(name), Value: ptr(value)}
}

func sampleNames(f SampleFamily) []string {
	names := make([]string, 0, len(f.Samples))
	for _, s := range f.Samples {
		names = append(names, s.Name)
	}
	return names
}

// TestDecomposeFamily_Counter tests counter family naming
func TestDecomposeFamily_Counter(t *testing.T) {
	mf := &dto.MetricFamily{
		Name: ptr("storage_writes_total"),
		Help: ptr("Writes"),
		Type: dto.MetricType_COUNTER.Enum(),
		Metric: []*dto.Metric{{
			Counter: &dto.Counter{Value: ptr(5.0)},
		}},
	}

	f := decomposeFamily(mf, nil)

	if f.Name != "storage_writes" {
		t.Errorf("family name = %q, want %q", f.Name, "storage_writes")
	}
	if f.Type != TypeCounter {
		t.Errorf("family type = %v, want counter", f.Type)
	}
	if got := sampleNames(f); !slices.Equal(got, []string{"storage_writes_total"}) {
		t.Errorf("samples = %v", got)
	}
	if f.Samples[0].Value != 5 {
		t.Errorf("value = %v, want 5", f.Samples[0].Value)
	}
}

// TestDecomposeFamily_HistogramAddsInfBucket tests the implicit +Inf bucket
// and declared label order
func TestDecomposeFamily_HistogramAddsInfBucket(t *testing.T) {
	mf := &dto.MetricFamily{
		Name: ptr("rpc_latency"),
		Type: dto.MetricType_HISTOGRAM.Enum(),
		Metric: []*dto.Metric{{
			Label: []*dto.LabelPair{labelPair("alpha", "a"), labelPair("zeta", "z")},
			Histogram: &dto.Histogram{
				SampleCount: ptr(uint64(3)),
				SampleSum:   ptr(4.5),
				Bucket: []*dto.Bucket{
					{UpperBound: ptr(1.0), CumulativeCount: ptr(uint64(2))},
				},
			},
		}},
	}

	f := decomposeFamily(mf, []string{"zeta", "alpha"})

	want := []string{"rpc_latency_bucket", "rpc_latency_bucket", "rpc_latency_count", "rpc_latency_sum"}
	if got := sampleNames(f); !slices.Equal(got, want) {
		t.Fatalf("samples = %v, want %v", got, want)
	}

	bucket := f.Samples[0]
	if !slices.Equal(bucket.LabelNames, []string{"zeta", "alpha", "le"}) {
		t.Errorf("bucket label names = %v", bucket.LabelNames)
	}
	if !slices.Equal(bucket.LabelValues, []string{"z", "a", "1.0"}) {
		t.Errorf("bucket label values = %v", bucket.LabelValues)
	}

	inf := f.Samples[1]
	if !slices.Equal(inf.LabelValues, []string{"z", "a", "+Inf"}) || inf.Value != 3 {
		t.Errorf("+Inf bucket = %v %v", inf.LabelValues, inf.Value)
	}

	if f.Samples[2].Value != 3 || f.Samples[3].Value != 4.5 {
		t.Errorf("count/sum = %v/%v", f.Samples[2].Value, f.Samples[3].Value)
	}
}

// TestDecomposeFamily_Summary tests quantile samples
func TestDecomposeFamily_Summary(t *testing.T) {
	mf := &dto.MetricFamily{
		Name: ptr("db_get"),
		Type: dto.MetricType_SUMMARY.Enum(),
		Metric: []*dto.Metric{{
			Summary: &dto.Summary{
				SampleCount: ptr(uint64(10)),
				SampleSum:   ptr(55.0),
				Quantile: []*dto.Quantile{
					{Quantile: ptr(0.5), Value: ptr(5.0)},
					{Quantile: ptr(0.99), Value: ptr(9.0)},
				},
			},
		}},
	}

	f := decomposeFamily(mf, nil)

	want := []string{"db_get", "db_get", "db_get_count", "db_get_sum"}
	if got := sampleNames(f); !slices.Equal(got, want) {
		t.Fatalf("samples = %v, want %v", got, want)
	}
	if !slices.Equal(f.Samples[1].LabelNames, []string{"quantile"}) ||
		!slices.Equal(f.Samples[1].LabelValues, []string{"0.99"}) {
		t.Errorf("quantile sample labels = %v=%v", f.Samples[1].LabelNames, f.Samples[1].LabelValues)
	}
}

// TestDecomposeFamily_UndeclaredLabelsFollow tests ordering of labels that
// were not declared
func TestDecomposeFamily_UndeclaredLabelsFollow(t *testing.T) {
	mf := &dto.MetricFamily{
		Name: ptr("queue_depth"),
		Type: dto.MetricType_GAUGE.Enum(),
		Metric: []*dto.Metric{{
			Label: []*dto.LabelPair{labelPair("a", "1"), labelPair("b", "2"), labelPair("c", "3")},
			Gauge: &dto.Gauge{Value: ptr(7.0)},
		}},
	}

	f := decomposeFamily(mf, []string{"c"})

	if !slices.Equal(f.Samples[0].LabelNames, []string{"c", "a", "b"}) {
		t.Errorf("label names = %v", f.Samples[0].LabelNames)
	}
}

// TestCollector_CollectEmptyVec tests that declared families are reported
// before any child exists
func TestCollector_CollectEmptyVec(t *testing.T) {
	vec := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storage_writes_total",
		Help: "Writes",
	}, []string{"table"})
	c := newCollector(vec, []string{"table"}, declare("storage_writes_total", TypeCounter, "Writes"))

	families, err := c.collect()
	if err != nil {
		t.Fatalf("collect() error = %v", err)
	}
	if len(families) != 1 {
		t.Fatalf("collect() returned %d families, want 1", len(families))
	}
	if families[0].Name != "storage_writes" || len(families[0].Samples) != 0 {
		t.Errorf("family = %+v", families[0])
	}

	vec.WithLabelValues("blocks").Inc()

	families, err = c.collect()
	if err != nil {
		t.Fatalf("collect() error = %v", err)
	}
	if len(families) != 1 {
		t.Fatalf("collect() returned %d families, want 1", len(families))
	}
	if families[0].Samples[0].Name != "storage_writes_total" || families[0].Samples[0].Value != 1 {
		t.Errorf("first sample = %+v", families[0].Samples[0])
	}
}

func TestFormatFloat(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{1, "1.0"},
		{10, "10.0"},
		{0.5, "0.5"},
		{0.005, "0.005"},
		{1e21, "1e+21"},
		{math.Inf(1), "+Inf"},
		{math.NaN(), "NaN"},
	}

	for _, tt := range tests {
		if got := formatFloat(tt.in); got != tt.want {
			t.Errorf("formatFloat(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// TestCollector_DescribedNames tests that names come from Describe when a
// foreign collector has nothing to gather
func TestCollector_DescribedNames(t *testing.T) {
	vec := prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: "pool_size", Help: "Size"}, []string{"pool"})
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "pool_resets_total", Help: "Resets"})

	c := newCollector(multiCollector{vec, counter}, nil)

	want := []string{"pool_size", "pool_resets_total", "pool_resets"}
	if !slices.Equal(c.described, want) {
		t.Errorf("described = %v, want %v", c.described, want)
	}
}
