package metrics

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// collectorRegistry tracks the collectors registered per category and keeps
// them in step with a Prometheus registry.
//
// Registrations are serialized by regMu. The per-category slices are
// replaced, never mutated, so readers can iterate a snapshot without holding
// any lock. mu guards the map and the registry pointer.
type collectorRegistry struct {
	regMu sync.Mutex

	mu         sync.RWMutex
	collectors map[Category][]*collector
	order      []Category

	registry *prometheus.Registry
	logger   *slog.Logger
}

func newCollectorRegistry(logger *slog.Logger) *collectorRegistry {
	return &collectorRegistry{
		collectors: make(map[Category][]*collector),
		registry:   prometheus.NewRegistry(),
		logger:     logger,
	}
}

// register adds c to category. The first collector already in the category
// whose family names intersect those of c is dropped and replaced.
//
// Prometheus remembers the help and label names of every descriptor a
// registry has seen, even after Unregister. A replacement is therefore
// registered into a fresh registry holding every other tracked collector,
// and the fresh registry is swapped in only once it accepted them all. A
// rejected registration leaves everything as it was.
func (r *collectorRegistry) register(category Category, c *collector) error {
	r.regMu.Lock()
	defer r.regMu.Unlock()

	names := r.namesOf(category, c)

	current := r.snapshot(category)
	evictedAt := -1
	for i, existing := range current {
		if overlaps(r.namesOf(category, existing), names) {
			evictedAt = i
			break
		}
	}

	if evictedAt < 0 {
		if err := r.current().Register(c); err != nil {
			return fmt.Errorf("register collector in category %s: %w", category.Name, err)
		}
		r.commit(category, append(slices.Clone(current), c), nil)
		return nil
	}

	next := slices.Concat(current[:evictedAt], current[evictedAt+1:], []*collector{c})
	reg, err := r.rebuild(category, next)
	if err != nil {
		return fmt.Errorf("register collector in category %s: %w", category.Name, err)
	}

	r.logger.Warn("replacing collector",
		"category", category.Name,
		"families", names,
	)
	r.commit(category, next, reg)
	return nil
}

// namesOf returns every family name c gathers, declares or describes.
func (r *collectorRegistry) namesOf(category Category, c *collector) []string {
	families, err := c.collect()
	if err != nil {
		r.logger.Warn("partial collect of collector",
			"category", category.Name,
			"error", err,
		)
	}
	return append(familyNames(families), c.described...)
}

// rebuild returns a new Prometheus registry holding the tracked collectors,
// with the collectors of category replaced by next. Caller holds regMu.
func (r *collectorRegistry) rebuild(category Category, next []*collector) (*prometheus.Registry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reg := prometheus.NewRegistry()
	for _, cat := range r.order {
		set := r.collectors[cat]
		if cat == category {
			set = next
		}
		for _, c := range set {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}
	return reg, nil
}

// commit publishes the collectors of category and, when reg is non-nil, the
// registry they are registered in. Caller holds regMu.
func (r *collectorRegistry) commit(category Category, set []*collector, reg *prometheus.Registry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.collectors[category]; !ok {
		r.order = append(r.order, category)
	}
	r.collectors[category] = set
	if reg != nil {
		r.registry = reg
	}
}

// current returns the Prometheus registry in use.
func (r *collectorRegistry) current() *prometheus.Registry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.registry
}

// gatherer gathers from whichever registry is current at gather time.
func (r *collectorRegistry) gatherer() prometheus.Gatherer {
	return prometheus.GathererFunc(func() ([]*dto.MetricFamily, error) {
		return r.current().Gather()
	})
}

// snapshot returns the collectors registered in category. The returned slice
// must not be modified.
func (r *collectorRegistry) snapshot(category Category) []*collector {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.collectors[category]
}

// categories returns the categories with at least one registration, in the
// order they were first registered.
func (r *collectorRegistry) categories() []Category {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.order)
}

// reset forgets all categories and replaces the Prometheus registry with an
// empty one.
func (r *collectorRegistry) reset() {
	r.regMu.Lock()
	defer r.regMu.Unlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	r.collectors = make(map[Category][]*collector)
	r.order = nil
	r.registry = prometheus.NewRegistry()
}
