package cli

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"mercator-hq/metricsys/pkg/snapshot"
)

// FormatValue renders a metric value. Non-finite values render as "NaN",
// "+Inf" and "-Inf".
func FormatValue(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// jsonValue keeps JSON output valid for non-finite values by encoding them
// as strings.
type jsonValue float64

func (v jsonValue) MarshalJSON() ([]byte, error) {
	f := float64(v)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return json.Marshal(FormatValue(f))
	}
	return json.Marshal(f)
}

type jsonRecord struct {
	Category string    `json:"category"`
	Name     string    `json:"name"`
	Value    jsonValue `json:"value"`
	Labels   []string  `json:"labels"`
}

func toJSONRecords(records []snapshot.Record) []jsonRecord {
	out := make([]jsonRecord, len(records))
	for i, r := range records {
		labels := r.Labels
		if labels == nil {
			labels = []string{}
		}
		out[i] = jsonRecord{Category: r.Category, Name: r.Name, Value: jsonValue(r.Value), Labels: labels}
	}
	return out
}

// ObservationTable lists observations one per row.
type ObservationTable []snapshot.Record

func (t ObservationTable) Header() []string {
	return []string{"CATEGORY", "NAME", "LABELS", "VALUE"}
}

func (t ObservationTable) Rows() [][]string {
	rows := make([][]string, len(t))
	for i, r := range t {
		rows[i] = []string{r.Category, r.Name, strings.Join(r.Labels, ","), FormatValue(r.Value)}
	}
	return rows
}

func (t ObservationTable) MarshalJSON() ([]byte, error) {
	return json.Marshal(toJSONRecords(t))
}

// SnapshotTable lists stored snapshots one per row.
type SnapshotTable []snapshot.Summary

func (t SnapshotTable) Header() []string {
	return []string{"ID", "TAKEN AT", "OBSERVATIONS"}
}

func (t SnapshotTable) Rows() [][]string {
	rows := make([][]string, len(t))
	for i, s := range t {
		rows[i] = []string{s.ID, s.TakenAt.Format(time.RFC3339), strconv.Itoa(s.ObservationCount)}
	}
	return rows
}

// SnapshotView presents one snapshot. As a table it lists the snapshot's
// observations.
type SnapshotView struct {
	*snapshot.Snapshot
}

func (v SnapshotView) Header() []string {
	return ObservationTable(nil).Header()
}

func (v SnapshotView) Rows() [][]string {
	return ObservationTable(v.Observations).Rows()
}

func (v SnapshotView) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID           string       `json:"id"`
		TakenAt      time.Time    `json:"taken_at"`
		Observations []jsonRecord `json:"observations"`
	}{v.ID, v.TakenAt, toJSONRecords(v.Observations)})
}
