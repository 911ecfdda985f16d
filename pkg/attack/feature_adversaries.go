package attack

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"advkit/pkg/classifier"
	"advkit/pkg/optimize"
	"advkit/pkg/structlog"
)

const attackName = "feature_adversaries"

// Convergence is deliberately looser than typical optimizer defaults,
// trading precision for speed.
const (
	gradientStepSize = 1e-3
	funcTolerance    = 1e-2
)

// Prometheus metrics
var (
	generateTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "advkit", Subsystem: "attack", Name: "generate_total", Help: "Total Generate calls by attack and outcome."},
		[]string{"attack", "outcome"},
	)
	generateDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Namespace: "advkit", Subsystem: "attack", Name: "generate_duration_seconds", Help: "Wall time of Generate calls.", Buckets: prometheus.DefBuckets},
		[]string{"attack"},
	)
	objectiveEvaluations = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Namespace: "advkit", Subsystem: "attack", Name: "objective_evaluations", Help: "Objective evaluations per optimizer run.", Buckets: prometheus.ExponentialBuckets(4, 4, 8)},
		[]string{"attack"},
	)
)

func init() {
	_ = prometheus.Register(generateTotal)
	_ = prometheus.Register(generateDuration)
	_ = prometheus.Register(objectiveEvaluations)
}

// Config holds the attack hyperparameters.
type Config struct {
	// Delta is the maximum per-element deviation between the source and
	// the adversarial sample. Must be positive.
	Delta float64
	// Layer is the index of the representation layer whose activations
	// the attack matches. Must be understood by the classifier.
	Layer int
	// BatchSize is passed through to the classifier's activation
	// extraction. Must be positive.
	BatchSize int
}

// Option configures optional collaborators of a FeatureAdversaries.
type Option func(*FeatureAdversaries)

// WithLogger injects the structured logging sink. Without it the attack
// stays silent.
func WithLogger(l *structlog.Logger) Option {
	return func(fa *FeatureAdversaries) { fa.logger = l }
}

// WithMinimizer substitutes the bounded minimizer strategy. The default is
// optimize.NewBoundedLBFGS().
func WithMinimizer(m optimize.Minimizer) Option {
	return func(fa *FeatureAdversaries) { fa.minimizer = m }
}

// FeatureAdversaries perturbs a source sample, within an element-wise box
// of radius Delta clamped to [0,1], so that its activations at a chosen
// layer match those of a guide sample. The representation distance is
// minimized by a pluggable bounded quasi-Newton optimizer.
//
// Paper link: https://arxiv.org/abs/1511.05122
type FeatureAdversaries struct {
	mu        sync.RWMutex
	clf       classifier.Classifier
	extractor classifier.ActivationExtractor
	cfg       Config
	minimizer optimize.Minimizer
	logger    *structlog.Logger
}

var _ Attack = (*FeatureAdversaries)(nil)

// NewFeatureAdversaries validates the configuration and probes the
// classifier for the activation-extraction capability. A classifier
// without it is rejected with a CapabilityError.
func NewFeatureAdversaries(clf classifier.Classifier, cfg Config, opts ...Option) (*FeatureAdversaries, error) {
	if clf == nil {
		return nil, fmt.Errorf("classifier must not be nil")
	}
	extractor, ok := clf.(classifier.ActivationExtractor)
	if !ok {
		return nil, &CapabilityError{Capability: "activation extraction"}
	}
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	fa := &FeatureAdversaries{
		clf:       clf,
		extractor: extractor,
		cfg:       cfg,
		minimizer: optimize.NewBoundedLBFGS(),
		logger:    structlog.Nop(),
	}
	for _, opt := range opts {
		opt(fa)
	}
	return fa, nil
}

// Norm returns the perturbation norm of the attack as metadata. The bound
// computation is always an element-wise box, which is an L-infinity ball
// around the source by construction.
func (fa *FeatureAdversaries) Norm() float64 {
	return math.Inf(1)
}

// Params returns the current configuration.
func (fa *FeatureAdversaries) Params() Config {
	fa.mu.RLock()
	defer fa.mu.RUnlock()
	return fa.cfg
}

// SetParams applies a mapping of named parameters ("delta", "layer",
// "batch_size") after attack-specific checks. The whole update is rejected
// and the stored configuration left unchanged if any value is invalid.
func (fa *FeatureAdversaries) SetParams(params map[string]interface{}) error {
	fa.mu.Lock()
	defer fa.mu.Unlock()

	cfg := fa.cfg
	for key, value := range params {
		switch key {
		case "delta":
			v, ok := toFloat(value)
			if !ok {
				return &ConfigError{Param: "delta", Reason: "must be a number"}
			}
			cfg.Delta = v
		case "layer":
			v, ok := toInt(value)
			if !ok {
				return &ConfigError{Param: "layer", Reason: "must be an integer"}
			}
			cfg.Layer = v
		case "batch_size":
			v, ok := toInt(value)
			if !ok {
				return &ConfigError{Param: "batch_size", Reason: "must be an integer"}
			}
			cfg.BatchSize = v
		default:
			return &ConfigError{Param: key, Reason: "unknown parameter"}
		}
	}
	if err := validateConfig(cfg); err != nil {
		return err
	}
	fa.cfg = cfg
	return nil
}

// Generate returns the adversarial counterpart of the source samples x,
// guided by the samples y. Both arguments hold one or more samples
// flattened back to back; the result is flat in the same layout. Classifier
// and optimizer failures propagate to the caller unchanged.
func (fa *FeatureAdversaries) Generate(x, y []float64) ([]float64, error) {
	if len(x) == 0 {
		return nil, fmt.Errorf("source samples are required")
	}
	if len(y) == 0 {
		return nil, ErrMissingGuide
	}

	fa.mu.RLock()
	cfg := fa.cfg
	fa.mu.RUnlock()

	start := time.Now()
	log := fa.logger.WithFields(structlog.Fields{
		"attack": attackName,
		"run_id": uuid.New().String(),
	})

	lower := make([]float64, len(x))
	upper := make([]float64, len(x))
	for i, v := range x {
		lower[i] = math.Max(0, v-cfg.Delta)
		upper[i] = math.Min(1, v+cfg.Delta)
	}

	// The guide representation is the fixed target: computed exactly once
	// per call, not per optimizer iteration.
	guide, err := fa.extractor.GetActivations(y, cfg.Layer, cfg.BatchSize)
	if err != nil {
		generateTotal.WithLabelValues(attackName, "error").Inc()
		return nil, err
	}

	objective := func(candidate []float64) (float64, error) {
		rep, err := fa.extractor.GetActivations(candidate, cfg.Layer, cfg.BatchSize)
		if err != nil {
			return 0, err
		}
		if len(rep) != len(guide) {
			return 0, fmt.Errorf("activation length mismatch: source %d, guide %d", len(rep), len(guide))
		}
		// Squared L2 distance in representation space.
		sum := 0.0
		for i := range rep {
			d := rep[i] - guide[i]
			sum += d * d
		}
		return sum, nil
	}

	// Warm start at the unperturbed source.
	x0 := append([]float64(nil), x...)
	res, err := fa.minimizer.Minimize(objective, x0, optimize.Bounds{Lower: lower, Upper: upper}, optimize.Options{
		StepSize:      gradientStepSize,
		FuncTolerance: funcTolerance,
	})
	if err != nil {
		generateTotal.WithLabelValues(attackName, "error").Inc()
		return nil, err
	}

	generateTotal.WithLabelValues(attackName, "ok").Inc()
	generateDuration.WithLabelValues(attackName).Observe(time.Since(start).Seconds())
	objectiveEvaluations.WithLabelValues(attackName).Observe(float64(res.Evaluations))

	log.Info("optimizer finished", structlog.Fields{
		"objective":   res.Value,
		"iterations":  res.Iterations,
		"evaluations": res.Evaluations,
		"converged":   res.Converged,
		"status":      res.Message,
	})

	return res.X, nil
}

func validateConfig(cfg Config) error {
	if cfg.Delta <= 0 {
		return &ConfigError{Param: "delta", Reason: "must be positive"}
	}
	if cfg.Layer < 0 {
		return &ConfigError{Param: "layer", Reason: "must be a non-negative integer"}
	}
	if cfg.BatchSize <= 0 {
		return &ConfigError{Param: "batch_size", Reason: "must be positive"}
	}
	return nil
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func toInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	default:
		return 0, false
	}
}
