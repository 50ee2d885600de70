// Package metrics shares its package and type names with its sibling under
// internal/east, so the two T types print identically as "metrics.T".
package metrics

type T struct {
	Label  string
	Weight float64
	Active bool
}
