package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/sakif/grade-predictor/internal/apperror"
	"github.com/sakif/grade-predictor/internal/model"
	"github.com/sakif/grade-predictor/internal/repository"
)

// =========================================================================
// HAND-WRITTEN FAKES
// =========================================================================

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// fakeUsers is an in-memory UserRepository.
type fakeUsers struct {
	mu      sync.Mutex
	byID    map[string]*model.User
	nextID  int
	lookups int
	// failWith, when set, is returned by every method.
	failWith error
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byID: make(map[string]*model.User)}
}

func (f *fakeUsers) CreateUser(_ context.Context, u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	for _, existing := range f.byID {
		if existing.Email == u.Email {
			return apperror.DuplicateEmail()
		}
	}
	f.nextID++
	u.ID = fmt.Sprintf("u%d", f.nextID)
	clone := *u
	f.byID[u.ID] = &clone
	return nil
}

func (f *fakeUsers) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups++
	if f.failWith != nil {
		return nil, f.failWith
	}
	for _, u := range f.byID {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, apperror.NotFound("user", email)
}

func (f *fakeUsers) GetUserByID(_ context.Context, id string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	u, ok := f.byID[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	clone := *u
	return &clone, nil
}

func (f *fakeUsers) MarkNotNew(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	u, ok := f.byID[id]
	if !ok {
		return apperror.NotFound("user", id)
	}
	u.IsNewUser = false
	return nil
}

// fakePredictions is an in-memory PredictionRepository that keeps
// insertion order.
type fakePredictions struct {
	mu       sync.Mutex
	records  []model.PredictionRecord
	lastOpts repository.ListOptions
	failWith error
}

func (f *fakePredictions) CreatePrediction(_ context.Context, rec *model.PredictionRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	rec.ID = fmt.Sprintf("p%d", len(f.records)+1)
	f.records = append(f.records, *rec)
	return nil
}

func (f *fakePredictions) ListPredictionsByUser(_ context.Context, userID string, opts repository.ListOptions) ([]model.PredictionRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastOpts = opts
	if f.failWith != nil {
		return nil, f.failWith
	}
	out := []model.PredictionRecord{}
	for _, r := range f.records {
		if r.UserID == userID && len(out) < opts.Limit {
			out = append(out, r)
		}
	}
	return out, nil
}

var errStoreDown = errors.New("store down")
