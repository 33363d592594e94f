package metrics

import "errors"

var (
	// ErrCacheAlreadyRegistered is returned when a cache name is attached to
	// a cache collector a second time, in any category.
	ErrCacheAlreadyRegistered = errors.New("cache already registered")

	// ErrLabelArity is returned when the number of label values does not
	// match the number of label names a metric was created with.
	ErrLabelArity = errors.New("inconsistent label cardinality")

	// ErrLabelsAlreadyRegistered is returned when a supplied metric already
	// has a value source for the given label values.
	ErrLabelsAlreadyRegistered = errors.New("label values already registered")
)
