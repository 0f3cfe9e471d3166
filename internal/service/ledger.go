package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/grade-predictor/internal/apperror"
	"github.com/sakif/grade-predictor/internal/model"
	"github.com/sakif/grade-predictor/internal/repository"
)

// LedgerService is the prediction ledger: an append-only history of saved
// predictions per user.
type LedgerService struct {
	repo     repository.PredictionRepository
	pageSize int
	logger   *slog.Logger
	now      func() time.Time
}

// NewLedgerService creates a LedgerService. pageSize caps ListByUser; zero
// selects repository.DefaultPageSize.
func NewLedgerService(repo repository.PredictionRepository, pageSize int, logger *slog.Logger) *LedgerService {
	if pageSize <= 0 {
		pageSize = repository.DefaultPageSize
	}
	return &LedgerService{
		repo:     repo,
		pageSize: pageSize,
		logger:   logger,
		now:      time.Now,
	}
}

// Save records a prediction under userID with a server-side timestamp and
// returns the new record's id. The user is not required to exist.
func (s *LedgerService) Save(ctx context.Context, userID string, form model.InputRecord, predictedMarks float64, status string) (string, error) {
	if strings.TrimSpace(userID) == "" {
		return "", apperror.ValidationFailed("user_id", "is required")
	}

	rec := &model.PredictionRecord{
		UserID:         userID,
		Date:           s.now().UTC(),
		PredictedMarks: predictedMarks,
		Status:         status,
		FormData:       form,
	}
	if err := s.repo.CreatePrediction(ctx, rec); err != nil {
		return "", fmt.Errorf("service/ledger: saving prediction: %w", err)
	}

	s.logger.Info("prediction saved",
		slog.String("userID", userID),
		slog.String("predictionID", rec.ID),
	)
	return rec.ID, nil
}

// ListByUser returns up to the configured page size of the user's records.
func (s *LedgerService) ListByUser(ctx context.Context, userID string) ([]model.PredictionRecord, error) {
	records, err := s.repo.ListPredictionsByUser(ctx, userID, repository.ListOptions{Limit: s.pageSize})
	if err != nil {
		return nil, fmt.Errorf("service/ledger: listing predictions: %w", err)
	}
	return records, nil
}
