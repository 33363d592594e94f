package metrics

import (
	"strings"
	"sync"
)

const (
	totalSuffix   = "_total"
	createdSuffix = "_created"
	bucketSuffix  = "_bucket"
	sumSuffix     = "_sum"
	countSuffix   = "_count"
)

// nameCodec maps (category, logical name) pairs to Prometheus metric names
// and back.
//
// Prometheus exposes every counter with a "_total" suffix whether or not the
// declared name carried one. The codec remembers which counters were declared
// with the suffix so that FromExternalCounterName can restore it.
type nameCodec struct {
	mu            sync.RWMutex
	totalSuffixed map[string]struct{}
}

func newNameCodec() *nameCodec {
	return &nameCodec{totalSuffixed: make(map[string]struct{})}
}

// prefix returns the external prefix for a category.
func prefix(category Category) string {
	return category.ApplicationPrefix + category.Name + "_"
}

// ToExternalName converts a logical metric name to its Prometheus name.
func (nc *nameCodec) ToExternalName(category Category, name string) string {
	return prefix(category) + name
}

// ToExternalCounterName converts a counter name to its Prometheus name,
// remembering names that already end in "_total".
func (nc *nameCodec) ToExternalCounterName(category Category, name string) string {
	if strings.HasSuffix(name, totalSuffix) {
		nc.mu.Lock()
		nc.totalSuffixed[name] = struct{}{}
		nc.mu.Unlock()
	}
	return nc.ToExternalName(category, name)
}

// FromExternalName strips the category prefix. Names without the prefix are
// returned unchanged.
func (nc *nameCodec) FromExternalName(category Category, metricName string) string {
	return strings.TrimPrefix(metricName, prefix(category))
}

// FromExternalCounterName strips the category prefix and restores the
// "_total" suffix if the counter was declared with it.
func (nc *nameCodec) FromExternalCounterName(category Category, metricName string) string {
	unprefixed := nc.FromExternalName(category, metricName)

	nc.mu.RLock()
	_, suffixed := nc.totalSuffixed[unprefixed+totalSuffix]
	nc.mu.RUnlock()

	if suffixed {
		return unprefixed + totalSuffix
	}
	return unprefixed
}

// reset forgets every remembered counter name.
func (nc *nameCodec) reset() {
	nc.mu.Lock()
	nc.totalSuffixed = make(map[string]struct{})
	nc.mu.Unlock()
}
