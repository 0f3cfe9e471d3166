package sqlite

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/xid"

	"github.com/sakif/grade-predictor/internal/model"
	"github.com/sakif/grade-predictor/internal/repository"
)

var _ repository.PredictionRepository = (*DB)(nil)

// CreatePrediction stores rec with a fresh ID. The form data is kept as a
// JSON document next to the scalar columns.
func (db *DB) CreatePrediction(ctx context.Context, rec *model.PredictionRecord) error {
	formData, err := json.Marshal(rec.FormData)
	if err != nil {
		return fmt.Errorf("sqlite: encoding form data: %w", err)
	}

	rec.ID = xid.New().String()

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO predictions (id, user_id, date, predicted_marks, status, form_data)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.UserID,
		rec.Date.UTC(),
		rec.PredictedMarks,
		rec.Status,
		string(formData),
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting prediction: %w", err)
	}

	return nil
}

// ListPredictionsByUser returns the user's records in insertion order.
func (db *DB) ListPredictionsByUser(ctx context.Context, userID string, opts repository.ListOptions) ([]model.PredictionRecord, error) {
	opts = opts.Normalize()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, user_id, date, predicted_marks, status, form_data
		 FROM predictions
		 WHERE user_id = ?
		 ORDER BY rowid
		 LIMIT ? OFFSET ?`,
		userID,
		opts.Limit,
		opts.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing predictions for %s: %w", userID, err)
	}
	defer rows.Close()

	records := make([]model.PredictionRecord, 0)
	for rows.Next() {
		var (
			rec      model.PredictionRecord
			formData string
		)
		if err := rows.Scan(
			&rec.ID, &rec.UserID, &rec.Date,
			&rec.PredictedMarks, &rec.Status, &formData,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning prediction row: %w", err)
		}
		if err := json.Unmarshal([]byte(formData), &rec.FormData); err != nil {
			return nil, fmt.Errorf("sqlite: decoding form data of %s: %w", rec.ID, err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating predictions: %w", err)
	}

	return records, nil
}
