package validation

import (
	"strings"

	"github.com/sakif/grade-predictor/internal/model"
)

// SaveRequest is the body of POST /save-prediction/{user_id}.
type SaveRequest struct {
	FormData       model.InputRecord `json:"formData"`
	PredictedMarks float64           `json:"predictedMarks"`
	Status         string            `json:"status"`
}

// SignupRequest is the body of POST /signup.
type SignupRequest struct {
	Name     string `json:"name"     validate:"required,max=100"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"min=6,maxbytes=72"`
}

// LoginRequest is the body of POST /login. Only the shape is checked here;
// whether the credentials are any good is the account directory's business.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *SignupRequest) normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
}

func (r *LoginRequest) normalize() {
	r.Email = strings.TrimSpace(r.Email)
}
