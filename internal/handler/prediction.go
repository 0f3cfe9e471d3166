package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/grade-predictor/internal/model"
	"github.com/sakif/grade-predictor/internal/validation"
)

// Predictor scores one validated input record.
type Predictor interface {
	Predict(ctx context.Context, rec model.InputRecord) (float64, error)
}

// Ledger stores and lists saved predictions.
type Ledger interface {
	Save(ctx context.Context, userID string, form model.InputRecord, predictedMarks float64, status string) (string, error)
	ListByUser(ctx context.Context, userID string) ([]model.PredictionRecord, error)
}

// PredictionHandler serves scoring and the per-user prediction history.
type PredictionHandler struct {
	validator *validation.Validator
	predictor Predictor
	ledger    Ledger
	logger    *slog.Logger
}

// NewPredictionHandler creates a PredictionHandler.
func NewPredictionHandler(v *validation.Validator, p Predictor, l Ledger, logger *slog.Logger) *PredictionHandler {
	return &PredictionHandler{
		validator: v,
		predictor: p,
		ledger:    l,
		logger:    logger,
	}
}

// PredictResponse is the body of a successful POST /predict.
type PredictResponse struct {
	PredictedMarks float64 `json:"predicted_marks"`
}

// SaveResponse is the body of a successful POST /save-prediction/{user_id}.
type SaveResponse struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

// HandlePredict scores an InputRecord.
//
// HTTP: POST /predict
func (h *PredictionHandler) HandlePredict(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	rec, err := h.validator.InputRecord(body)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	marks, err := h.predictor.Predict(r.Context(), rec)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, PredictResponse{PredictedMarks: marks})
}

// HandleSave appends a prediction to a user's history. The user does not
// have to exist.
//
// HTTP: POST /save-prediction/{user_id}
func (h *PredictionHandler) HandleSave(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "user_id")

	body, err := readBody(w, r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	req, err := h.validator.SaveRequest(body)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	id, err := h.ledger.Save(r.Context(), userID, req.FormData, req.PredictedMarks, req.Status)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, SaveResponse{ID: id, Message: "Prediction saved successfully"})
}

// HandleList returns a user's saved predictions, oldest first. Unknown
// users get an empty array.
//
// HTTP: GET /get-predictions/{user_id}
func (h *PredictionHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	records, err := h.ledger.ListByUser(r.Context(), chi.URLParam(r, "user_id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if records == nil {
		records = []model.PredictionRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}
