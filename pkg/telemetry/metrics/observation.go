package metrics

import (
	"iter"
	"slices"
	"strings"
)

// Observation is a single metric value in internal form: the category, the
// unprefixed metric name, and the label values with any sample-kind token
// ("bucket", "quantile", "sum", "count", "created") spliced in.
type Observation struct {
	Category Category
	Name     string
	Value    float64
	Labels   []string
}

// StreamObservations returns the current values of every metric registered
// in category.
//
// The set of collectors is captured when iteration starts. Each collector is
// collected lazily as the sequence reaches it, so values are not a
// consistent snapshot across collectors.
func (s *System) StreamObservations(category Category) iter.Seq[Observation] {
	return func(yield func(Observation) bool) {
		for _, c := range s.registry.snapshot(category) {
			families, err := c.collect()
			if err != nil {
				s.logger.Warn("partial collect while streaming observations",
					"category", category.Name,
					"error", err,
				)
			}
			for _, family := range families {
				for _, sample := range family.Samples {
					if !yield(s.codec.observation(category, family, sample)) {
						return
					}
				}
			}
		}
	}
}

// StreamAllObservations concatenates StreamObservations over every category
// with at least one registered collector.
func (s *System) StreamAllObservations() iter.Seq[Observation] {
	return func(yield func(Observation) bool) {
		for _, category := range s.registry.categories() {
			for o := range s.StreamObservations(category) {
				if !yield(o) {
					return
				}
			}
		}
	}
}

// observation converts one sample of family into internal form.
func (nc *nameCodec) observation(category Category, family SampleFamily, sample Sample) Observation {
	o := Observation{Category: category, Value: sample.Value}

	switch family.Type {
	case TypeHistogram:
		o.Name = nc.FromExternalName(category, family.Name)
		if strings.HasSuffix(sample.Name, bucketSuffix) {
			o.Labels = insertBeforeLast(sample.LabelValues, "bucket")
		} else {
			o.Labels = append(slices.Clone(sample.LabelValues), lastToken(sample.Name))
		}

	case TypeSummary:
		o.Name = nc.FromExternalName(category, family.Name)
		switch {
		case strings.HasSuffix(sample.Name, sumSuffix):
			o.Labels = append(slices.Clone(sample.LabelValues), "sum")
		case strings.HasSuffix(sample.Name, countSuffix):
			o.Labels = append(slices.Clone(sample.LabelValues), "count")
		case strings.HasSuffix(sample.Name, createdSuffix):
			o.Labels = append(slices.Clone(sample.LabelValues), "created")
		default:
			o.Labels = insertBeforeLast(sample.LabelValues, "quantile")
		}

	case TypeCounter:
		o.Name = nc.FromExternalCounterName(category, family.Name)
		o.Labels = slices.Clone(sample.LabelValues)
		if strings.HasSuffix(sample.Name, createdSuffix) {
			o.Labels = append(o.Labels, "created")
		}

	default:
		o.Name = nc.FromExternalName(category, sample.Name)
		o.Labels = slices.Clone(sample.LabelValues)
	}

	return o
}

// insertBeforeLast returns a copy of values with token inserted ahead of the
// final element.
func insertBeforeLast(values []string, token string) []string {
	at := max(len(values)-1, 0)
	return slices.Insert(slices.Clone(values), at, token)
}

// lastToken returns the part of name after its final underscore.
func lastToken(name string) string {
	return name[strings.LastIndex(name, "_")+1:]
}
