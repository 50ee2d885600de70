// Package metrics shares its package and type names with its sibling under
// internal/west, so the two T types print identically as "metrics.T".
package metrics

type T struct {
	Count int
	Sum   float64
}
