package metrics

import "testing"

// TestNameCodec_RoundTrip tests that external names map back to the names
// they were built from
func TestNameCodec_RoundTrip(t *testing.T) {
	tests := []struct {
		name     string
		category Category
		metric   string
		external string
	}{
		{"plain category", NewCategory("", "storage"), "flush", "storage_flush"},
		{"application prefix", NewCategory("metricsys_", "snapshot"), "runs", "metricsys_snapshot_runs"},
		{"runtime category", CategoryRuntime, "goroutines", "go_goroutines"},
		{"name with underscores", NewCategory("", "rpc"), "in_flight_requests", "rpc_in_flight_requests"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nc := newNameCodec()

			got := nc.ToExternalName(tt.category, tt.metric)
			if got != tt.external {
				t.Errorf("ToExternalName() = %q, want %q", got, tt.external)
			}
			if back := nc.FromExternalName(tt.category, got); back != tt.metric {
				t.Errorf("FromExternalName() = %q, want %q", back, tt.metric)
			}
		})
	}
}

// TestNameCodec_FromExternalNameWithoutPrefix tests that foreign names pass
// through unchanged
func TestNameCodec_FromExternalNameWithoutPrefix(t *testing.T) {
	nc := newNameCodec()

	if got := nc.FromExternalName(NewCategory("", "storage"), "other_metric"); got != "other_metric" {
		t.Errorf("FromExternalName() = %q, want %q", got, "other_metric")
	}
}

// TestNameCodec_CounterTotalSuffix tests that a declared _total suffix
// survives the round trip through the exposed family name
func TestNameCodec_CounterTotalSuffix(t *testing.T) {
	category := NewCategory("", "storage")
	nc := newNameCodec()

	external := nc.ToExternalCounterName(category, "writes_total")
	if external != "storage_writes_total" {
		t.Fatalf("ToExternalCounterName() = %q", external)
	}

	// The exposed family name of a counter has no _total suffix.
	if got := nc.FromExternalCounterName(category, "storage_writes"); got != "writes_total" {
		t.Errorf("FromExternalCounterName() = %q, want %q", got, "writes_total")
	}

	nc.ToExternalCounterName(category, "reads")
	if got := nc.FromExternalCounterName(category, "storage_reads"); got != "reads" {
		t.Errorf("FromExternalCounterName() = %q, want %q", got, "reads")
	}
}

// TestNameCodec_Reset tests that reset forgets remembered counters
func TestNameCodec_Reset(t *testing.T) {
	category := NewCategory("", "storage")
	nc := newNameCodec()

	nc.ToExternalCounterName(category, "writes_total")
	nc.reset()

	if got := nc.FromExternalCounterName(category, "storage_writes"); got != "writes" {
		t.Errorf("FromExternalCounterName() after reset = %q, want %q", got, "writes")
	}
}
