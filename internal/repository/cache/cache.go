// Package cache decorates a PredictionRepository with a Redis read-through
// cache for prediction history.
//
// Each user's pages live in one Redis hash, keyed by limit and offset, so a
// save invalidates every cached page of that user with a single DEL. A
// per-user generation counter, bumped on every save, is stamped into each
// cached page; a page whose stamp differs from the current generation is a
// miss, so a fill that raced a save can never be served. Redis problems are
// logged and never fail a request: the decorator falls back to the wrapped
// store.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sakif/grade-predictor/internal/metrics"
	"github.com/sakif/grade-predictor/internal/model"
	"github.com/sakif/grade-predictor/internal/repository"
)

const (
	keyPrefix = "grade-predictor:predictions:"
	genPrefix = "grade-predictor:predictions-gen:"
)

// Predictions is a caching repository.PredictionRepository.
type Predictions struct {
	next    repository.PredictionRepository
	client  redis.Cmdable
	ttl     time.Duration
	logger  *slog.Logger
	metrics *metrics.Metrics
}

var _ repository.PredictionRepository = (*Predictions)(nil)

// NewPredictions wraps next. With a nil client every call passes straight
// through.
func NewPredictions(next repository.PredictionRepository, client redis.Cmdable, ttl time.Duration, logger *slog.Logger, m *metrics.Metrics) *Predictions {
	return &Predictions{
		next:    next,
		client:  client,
		ttl:     ttl,
		logger:  logger,
		metrics: m,
	}
}

func userKey(userID string) string {
	return keyPrefix + userID
}

// genKey holds the user's history generation. It has no TTL: if it expired
// while old pages survived, the counter would restart and could match them.
func genKey(userID string) string {
	return genPrefix + userID
}

// page is the cached form of one history page.
type page struct {
	Gen     int64                    `json:"gen"`
	Records []model.PredictionRecord `json:"records"`
}

func pageField(opts repository.ListOptions) string {
	return fmt.Sprintf("%d:%d", opts.Limit, opts.Offset)
}

// CreatePrediction writes through to the store, bumps the user's generation
// and then drops the user's cached pages.
func (p *Predictions) CreatePrediction(ctx context.Context, rec *model.PredictionRecord) error {
	if err := p.next.CreatePrediction(ctx, rec); err != nil {
		return err
	}
	if p.client == nil {
		return nil
	}

	if err := p.client.Incr(ctx, genKey(rec.UserID)).Err(); err != nil {
		p.logger.Warn("history cache generation bump failed",
			slog.String("userID", rec.UserID),
			slog.String("error", err.Error()),
		)
	}
	if err := p.client.Del(ctx, userKey(rec.UserID)).Err(); err != nil {
		p.logger.Warn("history cache invalidation failed",
			slog.String("userID", rec.UserID),
			slog.String("error", err.Error()),
		)
	}
	return nil
}

// ListPredictionsByUser serves from Redis when possible and fills the cache
// on a miss.
func (p *Predictions) ListPredictionsByUser(ctx context.Context, userID string, opts repository.ListOptions) ([]model.PredictionRecord, error) {
	if p.client == nil {
		return p.next.ListPredictionsByUser(ctx, userID, opts)
	}

	opts = opts.Normalize()
	key, field := userKey(userID), pageField(opts)

	// Read the generation before the store so a save landing mid-fill
	// leaves this fill stamped with the old value.
	start := time.Now()
	gen, genOK := p.generation(ctx, userID)
	var (
		records []model.PredictionRecord
		hit     bool
	)
	if genOK {
		records, hit = p.lookup(ctx, key, field, gen)
	}
	p.metrics.RecordCacheLookup(hit, time.Since(start))
	if hit {
		return records, nil
	}

	records, err := p.next.ListPredictionsByUser(ctx, userID, opts)
	if err != nil {
		return nil, err
	}

	if genOK {
		p.store(ctx, key, field, page{Gen: gen, Records: records})
	}
	return records, nil
}

// generation returns the user's current generation; a missing counter is 0.
// ok is false when Redis could not answer.
func (p *Predictions) generation(ctx context.Context, userID string) (int64, bool) {
	gen, err := p.client.Get(ctx, genKey(userID)).Int64()
	switch {
	case err == nil:
		return gen, true
	case errors.Is(err, redis.Nil):
		return 0, true
	default:
		p.logger.Warn("history cache generation read failed", slog.String("userID", userID), slog.String("error", err.Error()))
		return 0, false
	}
}

func (p *Predictions) lookup(ctx context.Context, key, field string, gen int64) ([]model.PredictionRecord, bool) {
	raw, err := p.client.HGet(ctx, key, field).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			p.logger.Warn("history cache read failed", slog.String("key", key), slog.String("error", err.Error()))
		}
		return nil, false
	}

	var cached page
	if err := json.Unmarshal(raw, &cached); err != nil {
		p.logger.Warn("history cache entry corrupt", slog.String("key", key), slog.String("error", err.Error()))
		return nil, false
	}
	if cached.Gen != gen {
		return nil, false
	}
	return cached.Records, true
}

func (p *Predictions) store(ctx context.Context, key, field string, entry page) {
	payload, err := json.Marshal(entry)
	if err != nil {
		p.logger.Warn("history cache encode failed", slog.String("key", key), slog.String("error", err.Error()))
		return
	}

	if err := p.client.HSet(ctx, key, field, payload).Err(); err != nil {
		p.logger.Warn("history cache write failed", slog.String("key", key), slog.String("error", err.Error()))
		return
	}
	if p.ttl > 0 {
		if err := p.client.Expire(ctx, key, p.ttl).Err(); err != nil {
			p.logger.Warn("history cache expire failed", slog.String("key", key), slog.String("error", err.Error()))
		}
	}
}
