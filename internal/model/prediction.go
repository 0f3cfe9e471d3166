package model

import "time"

// Status labels used by the web client. The server stores whatever label the
// client sends; these are only the known values.
const (
	StatusExcellent        = "Excellent"
	StatusAverage          = "Average"
	StatusNeedsImprovement = "Needs Improvement"
)

// PredictionRecord is one saved prediction. Records are immutable once
// created and are listed per user.
type PredictionRecord struct {
	ID             string      `json:"id"`
	UserID         string      `json:"user_id"`
	Date           time.Time   `json:"date"`
	PredictedMarks float64     `json:"predictedMarks"`
	Status         string      `json:"status"`
	FormData       InputRecord `json:"formData"`
}
