// Package classifier defines the model contract consumed by the attacks in
// this module, together with a small in-process feed-forward implementation
// used for experiments and tests.
package classifier

// Classifier is a trained model over flat numeric samples. InputShape
// describes the per-sample shape the model expects; a flat input of length
// k*prod(InputShape) is interpreted as k samples back to back.
type Classifier interface {
	InputShape() []int
	Predict(x []float64) ([]float64, error)
}

// ActivationExtractor is the introspection capability required by
// representation-space attacks: access to the intermediate output of a
// chosen internal layer. Implementations must be deterministic for fixed
// inputs and must reject layer indices they do not expose.
//
// batchSize controls how many samples are pushed through the model at once;
// it never changes the result, only the internal batching.
type ActivationExtractor interface {
	GetActivations(x []float64, layer, batchSize int) ([]float64, error)
}
