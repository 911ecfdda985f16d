// Package attack implements evasion attacks against trained classifiers.
//
// The only attack currently shipped is FeatureAdversaries, which perturbs a
// source sample within a per-element budget until its internal
// representation matches that of a guide sample.
package attack

// Attack is an evasion attack over flat numeric samples. Generate perturbs
// the source samples x toward the attack goal; y carries the guide samples
// for attacks that are defined relative to a second input.
type Attack interface {
	Generate(x, y []float64) ([]float64, error)
	SetParams(params map[string]interface{}) error
}
