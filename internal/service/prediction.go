package service

import (
	"context"
	"log/slog"

	"github.com/sakif/grade-predictor/internal/feature"
	"github.com/sakif/grade-predictor/internal/model"
	"github.com/sakif/grade-predictor/internal/predictor"
)

// PredictionService builds the feature vector and asks the engine for a
// score.
type PredictionService struct {
	engine *predictor.Engine
	logger *slog.Logger
}

// NewPredictionService creates a PredictionService.
func NewPredictionService(engine *predictor.Engine, logger *slog.Logger) *PredictionService {
	return &PredictionService{engine: engine, logger: logger}
}

// Predict returns the predicted final mark, rounded to two decimals.
func (s *PredictionService) Predict(ctx context.Context, rec model.InputRecord) (float64, error) {
	return s.engine.Predict(ctx, feature.Build(rec))
}
