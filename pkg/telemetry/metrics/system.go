package metrics

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"mercator-hq/metricsys/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// timerObjectives are the quantiles tracked by summary-backed timers.
var timerObjectives = map[float64]float64{
	0.2:  0.02,
	0.5:  0.05,
	0.8:  0.02,
	0.95: 0.005,
	0.99: 0.001,
	1.0:  0,
}

// simpleTimerBuckets is the bucket layout of histogram-backed timers.
var simpleTimerBuckets = []float64{1}

// System is the process-wide metrics system. It creates metric handles,
// registers collectors per category, and reads current values back as
// observations.
//
// Handles for categories that are not enabled are inert: they accept
// updates and discard them, and are never registered.
//
// A System is safe for concurrent use. Shutdown must not run concurrently
// with metric creation.
type System struct {
	enabled       map[string]struct{}
	timersEnabled bool
	logger        *slog.Logger

	codec    *nameCodec
	registry *collectorRegistry

	counters *handleCache[Counter]
	timers   *handleCache[OperationTimer]

	cacheMu         sync.Mutex
	cacheCollectors map[Category]*cacheCollector
	cacheNames      map[string]struct{}
}

// NewSystem creates a metrics system.
//
// When cfg.Enabled is false every category is disabled. A nil logger falls
// back to slog.Default().
//
// Example:
//
//	cfg := &config.MetricsConfig{
//		Enabled:       true,
//		Categories:    []string{"process", "go"},
//		TimersEnabled: true,
//	}
//	system := metrics.NewSystem(cfg, nil)
//	if err := system.Init(); err != nil {
//		return err
//	}
func NewSystem(cfg *config.MetricsConfig, logger *slog.Logger) *System {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "metrics")

	enabled := make(map[string]struct{})
	if cfg.Enabled {
		for _, name := range cfg.Categories {
			enabled[name] = struct{}{}
		}
	}

	return &System{
		enabled:         enabled,
		timersEnabled:   cfg.TimersEnabled,
		logger:          logger,
		codec:           newNameCodec(),
		registry:        newCollectorRegistry(logger),
		counters:        newHandleCache[Counter](),
		timers:          newHandleCache[OperationTimer](),
		cacheCollectors: make(map[Category]*cacheCollector),
		cacheNames:      make(map[string]struct{}),
	}
}

// Init registers the standard collectors for the process and Go runtime
// categories, when enabled.
func (s *System) Init() error {
	if s.IsCategoryEnabled(CategoryProcess) {
		pc := collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})
		if err := s.RegisterCollector(CategoryProcess, pc); err != nil {
			return err
		}
	}
	if s.IsCategoryEnabled(CategoryRuntime) {
		if err := s.RegisterCollector(CategoryRuntime, collectors.NewGoCollector()); err != nil {
			return err
		}
	}
	return nil
}

// IsCategoryEnabled reports whether metrics in category are recorded.
func (s *System) IsCategoryEnabled(category Category) bool {
	_, ok := s.enabled[category.Name]
	return ok
}

// EnabledCategories returns the names of the enabled categories, sorted.
func (s *System) EnabledCategories() []string {
	names := make([]string, 0, len(s.enabled))
	for name := range s.enabled {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Gatherer exposes the registered collectors to an exposition layer. The
// returned Gatherer stays valid across collector replacement and Shutdown.
func (s *System) Gatherer() prometheus.Gatherer {
	return s.registry.gatherer()
}

// ToPrometheusName returns the exposed name of a metric.
func (s *System) ToPrometheusName(category Category, name string) string {
	return s.codec.ToExternalName(category, name)
}

// ToPrometheusCounterName returns the exposed name of a counter.
func (s *System) ToPrometheusCounterName(category Category, name string) string {
	return s.codec.ToExternalCounterName(category, name)
}

// RegisterCollector adds c to category, replacing any collector in the
// category that exposes a family of the same name. It is a no-op for
// disabled categories.
func (s *System) RegisterCollector(category Category, c prometheus.Collector) error {
	if !s.IsCategoryEnabled(category) {
		return nil
	}
	return s.registry.register(category, newCollector(c, nil))
}

// CreateLabelledCounter returns the counter named name in category, creating
// and registering it on first use. Later calls with the same name return
// the first handle, whatever help and label names they pass.
func (s *System) CreateLabelledCounter(category Category, name, help string, labelNames ...string) (*LabelledMetric[Counter], error) {
	externalName := s.codec.ToExternalCounterName(category, name)
	return s.counters.getOrCreate(externalName, func() (*LabelledMetric[Counter], error) {
		if !s.IsCategoryEnabled(category) {
			return newInertMetric(len(labelNames), NoopCounter), nil
		}

		vec := prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: externalName,
			Help: help,
		}, labelNames)

		c := newCollector(vec, labelNames, declare(externalName, TypeCounter, help))
		if err := s.registry.register(category, c); err != nil {
			return nil, err
		}
		return newActiveMetric(len(labelNames), counterChildren(vec)), nil
	})
}

// CreateCounter is CreateLabelledCounter without labels.
func (s *System) CreateCounter(category Category, name, help string) (Counter, error) {
	m, err := s.CreateLabelledCounter(category, name, help)
	if err != nil {
		return nil, err
	}
	return m.GetMetricWithLabelValues()
}

// CreateLabelledTimer returns a summary-backed timer tracking the 0.2, 0.5,
// 0.8, 0.95, 0.99 and 1.0 quantiles. Timers are inert when timers are
// disabled in configuration.
func (s *System) CreateLabelledTimer(category Category, name, help string, labelNames ...string) (*LabelledMetric[OperationTimer], error) {
	return s.createTimer(category, name, help, labelNames, func(externalName string) (prometheus.Collector, observerVec, Type) {
		vec := prometheus.NewSummaryVec(prometheus.SummaryOpts{
			Name:       externalName,
			Help:       help,
			Objectives: timerObjectives,
		}, labelNames)
		return vec, vec, TypeSummary
	})
}

// CreateTimer is CreateLabelledTimer without labels.
func (s *System) CreateTimer(category Category, name, help string) (OperationTimer, error) {
	m, err := s.CreateLabelledTimer(category, name, help)
	if err != nil {
		return nil, err
	}
	return m.GetMetricWithLabelValues()
}

// CreateSimpleLabelledTimer returns a histogram-backed timer with a single
// one-second bucket. It shares its cache with CreateLabelledTimer.
func (s *System) CreateSimpleLabelledTimer(category Category, name, help string, labelNames ...string) (*LabelledMetric[OperationTimer], error) {
	return s.createTimer(category, name, help, labelNames, func(externalName string) (prometheus.Collector, observerVec, Type) {
		vec := prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    externalName,
			Help:    help,
			Buckets: simpleTimerBuckets,
		}, labelNames)
		return vec, vec, TypeHistogram
	})
}

// CreateSimpleTimer is CreateSimpleLabelledTimer without labels.
func (s *System) CreateSimpleTimer(category Category, name, help string) (OperationTimer, error) {
	m, err := s.CreateSimpleLabelledTimer(category, name, help)
	if err != nil {
		return nil, err
	}
	return m.GetMetricWithLabelValues()
}

func (s *System) createTimer(
	category Category,
	name, help string,
	labelNames []string,
	build func(externalName string) (prometheus.Collector, observerVec, Type),
) (*LabelledMetric[OperationTimer], error) {
	externalName := s.codec.ToExternalName(category, name)
	return s.timers.getOrCreate(externalName, func() (*LabelledMetric[OperationTimer], error) {
		if !s.timersEnabled || !s.IsCategoryEnabled(category) {
			return newInertMetric(len(labelNames), NoopTimer), nil
		}

		vec, observers, typ := build(externalName)

		c := newCollector(vec, labelNames, declare(externalName, typ, help))
		if err := s.registry.register(category, c); err != nil {
			return nil, err
		}
		return newActiveMetric(len(labelNames), timerChildren(observers)), nil
	})
}

// CreateGauge registers a gauge whose value is read from supplier at
// collection time. Gauges are not cached; creating the same name again
// replaces the previous gauge.
func (s *System) CreateGauge(category Category, name, help string, supplier func() float64) error {
	if !s.IsCategoryEnabled(category) {
		return nil
	}

	externalName := s.codec.ToExternalName(category, name)
	gauge := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: externalName,
		Help: help,
	}, supplier)

	return s.registry.register(category, newCollector(gauge, nil, declare(externalName, TypeGauge, help)))
}

// CreateIntegerGauge is CreateGauge for integer-valued suppliers.
func (s *System) CreateIntegerGauge(category Category, name, help string, supplier func() int64) error {
	return s.CreateGauge(category, name, help, func() float64 {
		return float64(supplier())
	})
}

// CreateLabelledSuppliedCounter returns a counter whose values are read from
// per-label-combination suppliers.
func (s *System) CreateLabelledSuppliedCounter(category Category, name, help string, labelNames ...string) (*LabelledSuppliedMetric, error) {
	if !s.IsCategoryEnabled(category) {
		return &LabelledSuppliedMetric{labelCount: len(labelNames)}, nil
	}
	return s.createSupplied(category, s.codec.ToExternalCounterName(category, name), help, prometheus.CounterValue, TypeCounter, labelNames)
}

// CreateLabelledSuppliedGauge returns a gauge whose values are read from
// per-label-combination suppliers.
func (s *System) CreateLabelledSuppliedGauge(category Category, name, help string, labelNames ...string) (*LabelledSuppliedMetric, error) {
	if !s.IsCategoryEnabled(category) {
		return &LabelledSuppliedMetric{labelCount: len(labelNames)}, nil
	}
	return s.createSupplied(category, s.codec.ToExternalName(category, name), help, prometheus.GaugeValue, TypeGauge, labelNames)
}

func (s *System) createSupplied(category Category, externalName, help string, valueType prometheus.ValueType, typ Type, labelNames []string) (*LabelledSuppliedMetric, error) {
	sc := newSuppliedCollector(externalName, help, valueType, labelNames)
	c := newCollector(sc, labelNames, declare(externalName, typ, help))
	if err := s.registry.register(category, c); err != nil {
		return nil, err
	}
	return &LabelledSuppliedMetric{labelCount: len(labelNames), collector: sc}, nil
}

// TrackExternalSummary registers a summary whose count, sum and quantiles
// are computed elsewhere and read from supplier at collection time. An
// empty help defaults to "RocksDB histogram for <name>".
func (s *System) TrackExternalSummary(category Category, name, help string, supplier func() ExternalSummary) error {
	if !s.IsCategoryEnabled(category) {
		return nil
	}
	if help == "" {
		help = "RocksDB histogram for " + name
	}

	externalName := s.codec.ToExternalName(category, name)
	sc := newExternalSummaryCollector(externalName, help, supplier)
	return s.registry.register(category, newCollector(sc, nil, declare(externalName, TypeSummary, help)))
}

// CreateCacheCollector attaches cache to the cache collector of category
// under name. Cache names are unique across all categories; attaching a
// known name fails with ErrCacheAlreadyRegistered.
func (s *System) CreateCacheCollector(category Category, name string, cache CacheStatsProvider) error {
	if !s.IsCategoryEnabled(category) {
		return nil
	}

	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	if _, exists := s.cacheNames[name]; exists {
		return fmt.Errorf("%w: %s", ErrCacheAlreadyRegistered, name)
	}

	cc, ok := s.cacheCollectors[category]
	if !ok {
		cc = newCacheCollector(s.codec, category)
		if err := s.registry.register(category, cc.tracked()); err != nil {
			return err
		}
		s.cacheCollectors[category] = cc
	}

	s.cacheNames[name] = struct{}{}
	cc.addCache(name, cache)
	return nil
}

// Shutdown drops every handle, collector and remembered name, and starts
// over with an empty Prometheus registry. Handles obtained before Shutdown
// keep working but are no longer exposed.
func (s *System) Shutdown() {
	s.counters.reset()
	s.timers.reset()

	s.cacheMu.Lock()
	s.cacheCollectors = make(map[Category]*cacheCollector)
	s.cacheNames = make(map[string]struct{})
	s.cacheMu.Unlock()

	s.registry.reset()
	s.codec.reset()

	s.logger.Debug("metrics system shut down")
}

// handleCache creates each handle at most once per key.
type handleCache[T any] struct {
	mu      sync.Mutex
	handles map[string]*LabelledMetric[T]
}

func newHandleCache[T any]() *handleCache[T] {
	return &handleCache[T]{handles: make(map[string]*LabelledMetric[T])}
}

// getOrCreate returns the cached handle for key or builds one with create.
// create runs under the cache lock; a failed create caches nothing.
func (hc *handleCache[T]) getOrCreate(key string, create func() (*LabelledMetric[T], error)) (*LabelledMetric[T], error) {
	hc.mu.Lock()
	defer hc.mu.Unlock()

	if h, ok := hc.handles[key]; ok {
		return h, nil
	}
	h, err := create()
	if err != nil {
		return nil, err
	}
	hc.handles[key] = h
	return h, nil
}

func (hc *handleCache[T]) reset() {
	hc.mu.Lock()
	hc.handles = make(map[string]*LabelledMetric[T])
	hc.mu.Unlock()
}
