package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/grade-predictor/internal/model"
	"github.com/sakif/grade-predictor/internal/repository"
)

var _ repository.PredictionRepository = (*DB)(nil)

type predictionRow struct {
	ID             string    `db:"id"`
	UserID         string    `db:"user_id"`
	Date           time.Time `db:"date"`
	PredictedMarks float64   `db:"predicted_marks"`
	Status         string    `db:"status"`
	FormData       []byte    `db:"form_data"`
}

// CreatePrediction stores rec with a fresh ID; FormData goes into a JSONB
// column.
func (db *DB) CreatePrediction(ctx context.Context, rec *model.PredictionRecord) error {
	formData, err := json.Marshal(rec.FormData)
	if err != nil {
		return fmt.Errorf("postgres: encoding form data: %w", err)
	}

	rec.ID = xid.New().String()

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO predictions (id, user_id, date, predicted_marks, status, form_data)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		rec.ID, rec.UserID, rec.Date.UTC(), rec.PredictedMarks, rec.Status, formData,
	)
	if err != nil {
		return fmt.Errorf("postgres: inserting prediction: %w", err)
	}
	return nil
}

// ListPredictionsByUser returns the user's records in insertion order.
func (db *DB) ListPredictionsByUser(ctx context.Context, userID string, opts repository.ListOptions) ([]model.PredictionRecord, error) {
	opts = opts.Normalize()

	var rows []predictionRow
	err := db.conn.SelectContext(ctx, &rows,
		`SELECT id, user_id, date, predicted_marks, status, form_data
		 FROM predictions
		 WHERE user_id = $1
		 ORDER BY seq
		 LIMIT $2 OFFSET $3`,
		userID, opts.Limit, opts.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: listing predictions for %s: %w", userID, err)
	}

	records := make([]model.PredictionRecord, 0, len(rows))
	for _, r := range rows {
		rec := model.PredictionRecord{
			ID:             r.ID,
			UserID:         r.UserID,
			Date:           r.Date,
			PredictedMarks: r.PredictedMarks,
			Status:         r.Status,
		}
		if err := json.Unmarshal(r.FormData, &rec.FormData); err != nil {
			return nil, fmt.Errorf("postgres: decoding form data of %s: %w", r.ID, err)
		}
		records = append(records, rec)
	}
	return records, nil
}
