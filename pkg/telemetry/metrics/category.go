package metrics

// Category groups related metrics under a common naming prefix and a single
// enable/disable switch.
//
// Category is a comparable value and is used directly as a map key, so two
// categories are the same category when both fields match.
type Category struct {
	// Name is the category name, e.g. "process" or "rpc". It becomes part of
	// every external metric name in the category.
	Name string

	// ApplicationPrefix is an optional namespace placed in front of Name,
	// e.g. "metricsys_". It is expected to end with an underscore.
	ApplicationPrefix string
}

// Standard categories used by Init for the built-in Prometheus collectors.
var (
	// CategoryProcess holds process-level metrics (CPU, memory, file descriptors).
	CategoryProcess = Category{Name: "process"}

	// CategoryRuntime holds Go runtime metrics (goroutines, GC, memstats).
	CategoryRuntime = Category{Name: "go"}
)

// NewCategory returns an application category whose external names start with
// prefix followed by name.
func NewCategory(prefix, name string) Category {
	return Category{Name: name, ApplicationPrefix: prefix}
}

// String returns the category name.
func (c Category) String() string {
	return c.Name
}
