package validation

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/grade-predictor/internal/apperror"
	"github.com/sakif/grade-predictor/internal/feature"
)

func validRecord() map[string]any {
	return map[string]any{
		"sex": "F", "age": 17, "address": "U", "famsize": "GT3", "pstatus": "T",
		"medu": 4, "fedu": 3, "mjob": "teacher", "fjob": "services",
		"reason": "course", "guardian": "mother", "traveltime": 1,
		"studytime": 2, "failures": 0, "schoolsup": "no", "famsup": "yes",
		"paid": "no", "activities": "yes", "nursery": "yes", "higher": "yes",
		"internet": "yes", "romantic": "no", "famrel": 4, "freetime": 3,
		"goout": 3, "dalc": 1, "walc": 1, "health": 5, "absences": 2,
		"G1": 14, "G2": 15,
	}
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

// violations extracts the field -> message map from a validation error.
func violations(t *testing.T, err error) map[string]string {
	t.Helper()
	require.Error(t, err)
	require.True(t, errors.Is(err, apperror.ErrValidation), "want ErrValidation, got %v", err)

	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr))

	out := make(map[string]string, len(appErr.Violations))
	for _, v := range appErr.Violations {
		out[v.Field] = v.Message
	}
	return out
}

func TestInputRecord_Valid(t *testing.T) {
	v := New()

	rec, err := v.InputRecord(mustJSON(t, validRecord()))

	require.NoError(t, err)
	assert.Equal(t, "F", rec.Sex)
	assert.Equal(t, 17, rec.Age)
	assert.Equal(t, "GT3", rec.Famsize)
	assert.Equal(t, 14, rec.G1)
	assert.Equal(t, 15, rec.G2)
}

func TestInputRecord_EachMissingFieldIsNamed(t *testing.T) {
	v := New()

	for _, col := range feature.Columns {
		t.Run(col, func(t *testing.T) {
			payload := validRecord()
			delete(payload, col)

			_, err := v.InputRecord(mustJSON(t, payload))

			got := violations(t, err)
			assert.Equal(t, "is required", got[col])
			assert.Len(t, got, 1)
		})
	}
}

func TestInputRecord_ReportsEveryViolation(t *testing.T) {
	v := New()
	payload := validRecord()
	delete(payload, "G1")
	payload["age"] = "seventeen"
	payload["sex"] = 1
	payload["health"] = nil
	payload["mjob"] = ""
	payload["absences"] = -1

	_, err := v.InputRecord(mustJSON(t, payload))

	got := violations(t, err)
	assert.Equal(t, map[string]string{
		"G1":       "is required",
		"age":      "must be an integer",
		"sex":      "must be a string",
		"health":   "must be an integer",
		"mjob":     "is required",
		"absences": "must be at least 0",
	}, got)
}

func TestInputRecord_Integers(t *testing.T) {
	v := New()

	tests := []struct {
		name  string
		value any
		ok    bool
	}{
		{"plain integer", 17, true},
		{"integral float", 17.0, true},
		{"fractional float", 17.5, false},
		{"numeric string", "17", false},
		{"boolean", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := validRecord()
			payload["age"] = tt.value

			rec, err := v.InputRecord(mustJSON(t, payload))

			if tt.ok {
				require.NoError(t, err)
				assert.Equal(t, 17, rec.Age)
				return
			}
			assert.Equal(t, "must be an integer", violations(t, err)["age"])
		})
	}
}

func TestInputRecord_Bounds(t *testing.T) {
	v := New()

	tests := []struct {
		name    string
		field   string
		value   any
		message string
	}{
		{"age below 1", "age", 0, "must be at least 1"},
		{"age above 120", "age", 121, "must be at most 120"},
		{"empty choice", "sex", "", "is required"},
		{"unanswered scale", "traveltime", 0, "must be at least 1"},
		{"negative count", "failures", -1, "must be at least 0"},
		{"G1 above 100", "G1", 101, "must be at most 100"},
		{"G2 below 0", "G2", -1, "must be at least 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := validRecord()
			payload[tt.field] = tt.value

			_, err := v.InputRecord(mustJSON(t, payload))

			assert.Equal(t, tt.message, violations(t, err)[tt.field])
		})
	}
}

// Values the web form accepts must never be rejected here.
func TestInputRecord_AcceptsWebFormRange(t *testing.T) {
	v := New()

	tests := []struct {
		name  string
		field string
		value any
	}{
		{"marks out of 100", "G1", 85},
		{"full marks", "G2", 100},
		{"zero marks", "G2", 0},
		{"adult age", "age", 25},
		{"youngest age", "age", 1},
		{"oldest age", "age", 120},
		{"many absences", "absences", 200},
		{"unlisted job", "mjob", "engineer"},
		{"long-form sex", "sex", "Female"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := validRecord()
			payload[tt.field] = tt.value

			_, err := v.InputRecord(mustJSON(t, payload))

			assert.NoError(t, err)
		})
	}
}

func TestInputRecord_IgnoresExtraFields(t *testing.T) {
	v := New()
	payload := validRecord()
	payload["school"] = "GP"

	_, err := v.InputRecord(mustJSON(t, payload))

	assert.NoError(t, err)
}

func TestInputRecord_MalformedBody(t *testing.T) {
	v := New()

	_, err := v.InputRecord([]byte(`{"sex":`))
	assert.Equal(t, "invalid JSON", violations(t, err)["body"])

	_, err = v.InputRecord([]byte(`[1,2,3]`))
	assert.Equal(t, "must be a JSON object", violations(t, err)["body"])
}

func TestSaveRequest(t *testing.T) {
	v := New()

	t.Run("valid", func(t *testing.T) {
		body := mustJSON(t, map[string]any{
			"formData":       validRecord(),
			"predictedMarks": 15.37,
			"status":         "Excellent",
		})

		req, err := v.SaveRequest(body)

		require.NoError(t, err)
		assert.Equal(t, 15.37, req.PredictedMarks)
		assert.Equal(t, "Excellent", req.Status)
		assert.Equal(t, 17, req.FormData.Age)
	})

	t.Run("integer marks accepted", func(t *testing.T) {
		body := mustJSON(t, map[string]any{
			"formData": validRecord(), "predictedMarks": 12, "status": "Average",
		})

		req, err := v.SaveRequest(body)

		require.NoError(t, err)
		assert.Equal(t, 12.0, req.PredictedMarks)
	})

	t.Run("nested field paths", func(t *testing.T) {
		form := validRecord()
		delete(form, "age")
		body := mustJSON(t, map[string]any{
			"formData": form, "predictedMarks": "high",
		})

		_, err := v.SaveRequest(body)

		assert.Equal(t, map[string]string{
			"formData.age":   "is required",
			"predictedMarks": "must be a number",
			"status":         "is required",
		}, violations(t, err))
	})

	t.Run("formData not an object", func(t *testing.T) {
		body := mustJSON(t, map[string]any{
			"formData": "nope", "predictedMarks": 10, "status": "Average",
		})

		_, err := v.SaveRequest(body)

		assert.Equal(t, map[string]string{
			"formData": "must be a JSON object",
		}, violations(t, err))
	})
}

func TestSignup(t *testing.T) {
	v := New()

	t.Run("valid", func(t *testing.T) {
		req, err := v.Signup([]byte(`{"name":" Ada ","email":"ada@example.com","password":"secret123"}`))

		require.NoError(t, err)
		assert.Equal(t, "Ada", req.Name)
		assert.Equal(t, "ada@example.com", req.Email)
	})

	t.Run("domain violations", func(t *testing.T) {
		body := mustJSON(t, map[string]any{
			"name":     "Ada",
			"email":    "not-an-email",
			"password": "123",
		})

		_, err := v.Signup(body)

		assert.Equal(t, map[string]string{
			"email":    "must be a valid email address",
			"password": "must be at least 6 characters",
		}, violations(t, err))
	})

	t.Run("blank name is trimmed before the required check", func(t *testing.T) {
		body := mustJSON(t, map[string]any{
			"name":     "   ",
			"email":    "  ada@example.com ",
			"password": "secret123",
		})

		_, err := v.Signup(body)

		assert.Equal(t, map[string]string{
			"name": "is required",
		}, violations(t, err))
	})

	t.Run("password longer than 72 bytes", func(t *testing.T) {
		body := mustJSON(t, map[string]any{
			"name":     "Ada",
			"email":    "ada@example.com",
			"password": strings.Repeat("é", 40),
		})

		_, err := v.Signup(body)

		assert.Equal(t, "must be at most 72 bytes", violations(t, err)["password"])
	})

	t.Run("missing and mistyped", func(t *testing.T) {
		_, err := v.Signup([]byte(`{"email":42,"password":"secret123"}`))

		assert.Equal(t, map[string]string{
			"name":  "is required",
			"email": "must be a string",
		}, violations(t, err))
	})
}

func TestLogin(t *testing.T) {
	v := New()

	req, err := v.Login([]byte(`{"email":"ada@example.com","password":"x"}`))
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", req.Email)
	assert.Equal(t, "x", req.Password)

	_, err = v.Login([]byte(`{"email":"ada@example.com"}`))
	assert.Equal(t, map[string]string{"password": "is required"}, violations(t, err))
}
