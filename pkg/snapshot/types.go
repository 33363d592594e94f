package snapshot

import (
	"context"
	"errors"
	"time"

	"mercator-hq/metricsys/pkg/telemetry/metrics"
)

// ErrNotFound is returned by Store.Get when no snapshot has the given ID.
var ErrNotFound = errors.New("snapshot not found")

// Record is one observation as stored in a snapshot.
type Record struct {
	// Category is the category name, e.g. "process".
	Category string `json:"category"`

	// Name is the unprefixed metric name.
	Name string `json:"name"`

	// Value is the sampled value. May be NaN for empty summaries.
	Value float64 `json:"value"`

	// Labels are the label values, including any sample-kind token.
	Labels []string `json:"labels,omitempty"`
}

// RecordFrom converts an observation into its stored form.
func RecordFrom(o metrics.Observation) Record {
	var labels []string
	if len(o.Labels) > 0 {
		labels = append([]string(nil), o.Labels...)
	}
	return Record{
		Category: o.Category.Name,
		Name:     o.Name,
		Value:    o.Value,
		Labels:   labels,
	}
}

// Snapshot is the full set of observations read at one point in time.
type Snapshot struct {
	ID           string    `json:"id"`
	TakenAt      time.Time `json:"taken_at"`
	Observations []Record  `json:"observations"`
}

// Summary describes a stored snapshot without its observations.
type Summary struct {
	ID               string    `json:"id"`
	TakenAt          time.Time `json:"taken_at"`
	ObservationCount int       `json:"observation_count"`
}

// Query filters the snapshots returned by Store.List.
type Query struct {
	// Since keeps snapshots taken at or after this time. Zero means no bound.
	Since time.Time

	// Until keeps snapshots taken strictly before this time. Zero means no
	// bound.
	Until time.Time

	// Limit caps the number of results. Zero or negative means no limit.
	Limit int
}

// Matches reports whether a snapshot taken at t falls inside the query's
// time range.
func (q Query) Matches(t time.Time) bool {
	if !q.Since.IsZero() && t.Before(q.Since) {
		return false
	}
	if !q.Until.IsZero() && !t.Before(q.Until) {
		return false
	}
	return true
}

// Store persists snapshots.
//
// List returns summaries newest first. DeleteBefore removes every snapshot
// taken strictly before cutoff and returns how many were removed.
type Store interface {
	Save(ctx context.Context, snap *Snapshot) error
	Get(ctx context.Context, id string) (*Snapshot, error)
	List(ctx context.Context, query Query) ([]Summary, error)
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
	Close() error
}
