package expr

import (
	"strings"

	"github.com/joeblew999/plat-carto/internal/errdefs"
)

// ClassMethod is a classification method for bins styles.
type ClassMethod int

const (
	Quantiles ClassMethod = iota
	EqualIntervals
	StandardDev
)

var classMethods = []struct {
	name     string
	global   string
	viewport string
	palette  string
}{
	Quantiles:      {"quantiles", "globalQuantiles", "viewportQuantiles", "purpor"},
	EqualIntervals: {"equal", "globalEqIntervals", "viewportEqIntervals", "purpor"},
	StandardDev:    {"stdev", "globalStandardDev", "viewportStandardDev", "temps"},
}

// ClassMethodNames lists the accepted method names in order.
func ClassMethodNames() []string {
	names := make([]string, len(classMethods))
	for i, m := range classMethods {
		names[i] = m.name
	}
	return names
}

// ParseClassMethod resolves a method name. An empty name is the default
// (quantiles); any other unknown name is an error.
func ParseClassMethod(name string) (ClassMethod, error) {
	if name == "" {
		return Quantiles, nil
	}
	for i, m := range classMethods {
		if m.name == name {
			return ClassMethod(i), nil
		}
	}
	return 0, errdefs.Invalid("method", name, ClassMethodNames()...)
}

func (m ClassMethod) String() string { return classMethods[m].name }

// Func returns the classification function. Global functions classify over
// the whole dataset; viewport functions over the visible features, which is
// the only option for cluster aggregates.
func (m ClassMethod) Func(viewport bool) string {
	if viewport {
		return classMethods[m].viewport
	}
	return classMethods[m].global
}

// DefaultPalette is the palette of color-bins styles using m.
func (m ClassMethod) DefaultPalette() string { return classMethods[m].palette }

// BucketsFunc is the manual classification function used with explicit
// breaks or categories.
const BucketsFunc = "buckets"

// Aggregation is a cluster or formula operation.
type Aggregation int

const (
	Count Aggregation = iota
	Avg
	Min
	Max
	Sum
)

var aggregationNames = []string{"count", "avg", "min", "max", "sum"}

// AggregationNames lists the accepted operation names in order.
func AggregationNames() []string { return append([]string(nil), aggregationNames...) }

// ParseAggregation resolves an operation name. An empty name is count.
func ParseAggregation(name string) (Aggregation, error) {
	if name == "" {
		return Count, nil
	}
	for i, n := range aggregationNames {
		if n == name {
			return Aggregation(i), nil
		}
	}
	return 0, errdefs.Invalid("operation", name, aggregationNames...)
}

func (a Aggregation) String() string { return aggregationNames[a] }

func (a Aggregation) title() string {
	n := aggregationNames[a]
	return strings.ToUpper(n[:1]) + n[1:]
}

// Cluster renders the per-cell aggregate: clusterCount() or clusterAvg($p).
func (a Aggregation) Cluster(column string) string {
	if a == Count {
		return "clusterCount()"
	}
	return Call("cluster"+a.title(), Prop(column))
}

// Formula renders the viewport or global aggregate used by formula widgets.
func (a Aggregation) Formula(column string, global bool) string {
	scope := "viewport"
	if global {
		scope = "global"
	}
	if a == Count {
		return scope + "Count()"
	}
	return Call(scope+a.title(), Prop(column))
}
