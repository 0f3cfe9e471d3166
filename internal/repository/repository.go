// Package repository declares the storage contracts the service layer
// depends on. Implementations live in subpackages: sqlite (embedded),
// postgres (sqlx over lib/pq or pgx) and cache (a Redis decorator).
package repository

import (
	"context"

	"github.com/sakif/grade-predictor/internal/model"
)

// ListOptions bounds a list query.
type ListOptions struct {
	Limit  int
	Offset int
}

// DefaultPageSize is used when ListOptions.Limit is not positive.
const DefaultPageSize = 100

// Normalize fills in the default limit and clamps a negative offset.
func (o ListOptions) Normalize() ListOptions {
	if o.Limit <= 0 {
		o.Limit = DefaultPageSize
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
	return o
}

// UserRepository is the account directory's store.
type UserRepository interface {
	// CreateUser assigns ID and CreatedAt. A taken email yields
	// apperror.DuplicateEmail.
	CreateUser(ctx context.Context, user *model.User) error
	// GetUserByEmail returns apperror.ErrNotFound for an unknown email.
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	// MarkNotNew clears IsNewUser. It returns apperror.ErrNotFound only
	// when no user has the id; repeating it is not an error.
	MarkNotNew(ctx context.Context, id string) error
}

// PredictionRepository is the prediction ledger's store.
type PredictionRepository interface {
	// CreatePrediction assigns ID. Date is set by the caller.
	CreatePrediction(ctx context.Context, rec *model.PredictionRecord) error
	// ListPredictionsByUser returns at most opts.Limit records in insertion
	// order. An unknown user simply has no records.
	ListPredictionsByUser(ctx context.Context, userID string, opts ListOptions) ([]model.PredictionRecord, error)
}

// Store is a backend that serves both repositories.
type Store interface {
	UserRepository
	PredictionRepository
	Close() error
}
