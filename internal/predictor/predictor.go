// Package predictor is the prediction engine: it hands a feature vector to
// the regression model and rounds the answer.
//
// The model itself sits behind the Model interface. Backends live in
// subpackages: linear (an in-process coefficient artifact) and docker (a
// containerized runtime). A backend is created once at start-up and shared
// by every request, so implementations must be safe for concurrent use.
package predictor

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/sakif/grade-predictor/internal/apperror"
	"github.com/sakif/grade-predictor/internal/feature"
	"github.com/sakif/grade-predictor/internal/metrics"
)

// Model produces one raw (unrounded) score for one feature vector.
type Model interface {
	Predict(ctx context.Context, v feature.Vector) (float64, error)
}

// Named is implemented by backends that want their name on logs and metrics.
type Named interface {
	Name() string
}

// Engine wraps a Model with rounding, error classification and
// instrumentation. It holds no mutable state.
type Engine struct {
	model   Model
	backend string
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewEngine creates an Engine. m may be nil.
func NewEngine(model Model, logger *slog.Logger, m *metrics.Metrics) *Engine {
	backend := "model"
	if n, ok := model.(Named); ok {
		backend = n.Name()
	}
	return &Engine{
		model:   model,
		backend: backend,
		logger:  logger,
		metrics: m,
	}
}

// Predict returns the model's score rounded to two decimals. Any model
// failure, including a non-finite result, is an apperror.ErrModelInvocation.
// Failures are never retried.
func (e *Engine) Predict(ctx context.Context, v feature.Vector) (float64, error) {
	start := time.Now()
	raw, err := e.model.Predict(ctx, v)
	if err == nil && (math.IsNaN(raw) || math.IsInf(raw, 0)) {
		err = fmt.Errorf("model returned non-finite value %v", raw)
	}
	elapsed := time.Since(start)
	e.metrics.ObservePrediction(e.backend, elapsed, err)

	if err != nil {
		e.logger.Error("model invocation failed",
			slog.String("backend", e.backend),
			slog.Duration("duration", elapsed),
			slog.String("error", err.Error()),
		)
		return 0, apperror.ModelInvocation(err)
	}

	e.logger.Debug("prediction computed",
		slog.String("backend", e.backend),
		slog.Float64("raw", raw),
		slog.Duration("duration", elapsed),
	)
	return Round2(raw), nil
}

// Round2 rounds half away from zero to two decimal places: 14.567 → 14.57,
// 14.564 → 14.56.
func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}
