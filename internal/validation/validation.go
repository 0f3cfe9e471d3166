// Package validation turns raw request bodies into typed request values.
//
// Validation runs in two passes over the same body:
//
//  1. Shape: every field declared on the target struct must be present and
//     carry the right JSON primitive (string, integer, number, object).
//     Integral floats such as 17.0 are accepted as integers.
//  2. Domain: go-playground/validator checks the `validate` tags (required,
//     numeric bounds, email format).
//
// Both passes contribute to a single apperror.Invalid listing every offending
// field, so a client sees all of its mistakes at once. Nothing is returned to
// the caller unless both passes are clean. Unknown fields are ignored.
package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/sakif/grade-predictor/internal/apperror"
	"github.com/sakif/grade-predictor/internal/model"
)

// bodyField names violations that concern the payload as a whole.
const bodyField = "body"

// Validator is safe for concurrent use; build one at start-up and share it.
type Validator struct {
	validate *validator.Validate
}

// New creates a Validator that reports fields by their JSON names.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	// bcrypt ignores everything past 72 bytes, and validator's max counts runes.
	_ = v.RegisterValidation("maxbytes", func(fl validator.FieldLevel) bool {
		limit, err := strconv.Atoi(fl.Param())
		if err != nil {
			return false
		}
		return len(fl.Field().String()) <= limit
	})

	return &Validator{validate: v}
}

// InputRecord validates a prediction payload.
func (v *Validator) InputRecord(body []byte) (model.InputRecord, error) {
	var r model.InputRecord
	err := v.decode(body, &r)
	return r, err
}

// SaveRequest validates a save-prediction payload, including the nested
// formData record.
func (v *Validator) SaveRequest(body []byte) (SaveRequest, error) {
	var r SaveRequest
	err := v.decode(body, &r)
	return r, err
}

// Signup validates a signup payload.
func (v *Validator) Signup(body []byte) (SignupRequest, error) {
	var r SignupRequest
	err := v.decode(body, &r)
	return r, err
}

// Login validates a login payload.
func (v *Validator) Login(body []byte) (LoginRequest, error) {
	var r LoginRequest
	err := v.decode(body, &r)
	return r, err
}

// normalizer is implemented by request types that clean their values
// before validation.
type normalizer interface {
	normalize()
}

// decode runs both passes and fills dst only when the body is fully valid.
func (v *Validator) decode(body []byte, dst any) error {
	if !json.Valid(body) {
		return apperror.Invalid([]apperror.Violation{{Field: bodyField, Message: "invalid JSON"}})
	}

	t := reflect.TypeOf(dst).Elem()
	normalized, violations := checkShape(body, t, "")
	if normalized == nil {
		return apperror.Invalid(violations)
	}

	// Round-trip the normalized values so integral floats land in int fields.
	// Fields that failed the shape pass are absent and keep their zero value.
	buf, err := json.Marshal(normalized)
	if err != nil {
		return fmt.Errorf("validation: re-encoding body: %w", err)
	}
	candidate := reflect.New(t)
	if err := json.Unmarshal(buf, candidate.Interface()); err != nil {
		return fmt.Errorf("validation: decoding normalized body: %w", err)
	}

	// Trim before the rules run, so "   " cannot pass a required check.
	if n, ok := candidate.Interface().(normalizer); ok {
		n.normalize()
	}

	violations = append(violations, v.checkDomain(candidate.Interface(), violations)...)
	if len(violations) > 0 {
		return apperror.Invalid(violations)
	}

	reflect.ValueOf(dst).Elem().Set(candidate.Elem())
	return nil
}

// checkDomain runs the validate tags, skipping fields whose shape was already
// reported.
func (v *Validator) checkDomain(candidate any, shapeViolations []apperror.Violation) []apperror.Violation {
	err := v.validate.Struct(candidate)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []apperror.Violation{{Field: bodyField, Message: err.Error()}}
	}

	var out []apperror.Violation
	for _, fe := range fieldErrs {
		path := fieldPath(fe.Namespace())
		if alreadyReported(path, shapeViolations) {
			continue
		}
		out = append(out, apperror.Violation{Field: path, Message: describe(fe)})
	}
	return out
}

// fieldPath drops the leading struct type name from a validator namespace:
// "SaveRequest.formData.age" becomes "formData.age".
func fieldPath(namespace string) string {
	_, rest, found := strings.Cut(namespace, ".")
	if !found {
		return namespace
	}
	return rest
}

func alreadyReported(path string, violations []apperror.Violation) bool {
	for _, v := range violations {
		if v.Field == path || strings.HasPrefix(path, v.Field+".") {
			return true
		}
	}
	return false
}

func describe(fe validator.FieldError) string {
	isString := fe.Kind() == reflect.String
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if isString {
			return "must be at least " + fe.Param() + " characters"
		}
		return "must be at least " + fe.Param()
	case "max":
		if isString {
			return "must be at most " + fe.Param() + " characters"
		}
		return "must be at most " + fe.Param()
	case "maxbytes":
		return "must be at most " + fe.Param() + " bytes"
	case "email":
		return "must be a valid email address"
	default:
		return "failed " + fe.Tag() + " check"
	}
}

// checkShape walks the struct type t and checks raw against it. It returns
// the accepted values keyed by JSON name (nil when raw is not an object) and
// a violation for every missing or mistyped field.
func checkShape(raw []byte, t reflect.Type, prefix string) (map[string]any, []apperror.Violation) {
	where := strings.TrimSuffix(prefix, ".")
	if where == "" {
		where = bodyField
	}

	var fields map[string]json.RawMessage
	if firstByte(raw) != '{' || json.Unmarshal(raw, &fields) != nil {
		return nil, []apperror.Violation{{Field: where, Message: "must be a JSON object"}}
	}

	out := make(map[string]any, t.NumField())
	var violations []apperror.Violation

	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		name, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
		if !sf.IsExported() || name == "" || name == "-" {
			continue
		}
		path := prefix + name

		value, ok := fields[name]
		if !ok {
			violations = append(violations, apperror.Violation{Field: path, Message: "is required"})
			continue
		}

		switch sf.Type.Kind() {
		case reflect.String:
			s, ok := asString(value)
			if !ok {
				violations = append(violations, apperror.Violation{Field: path, Message: "must be a string"})
				continue
			}
			out[name] = s

		case reflect.Int, reflect.Int64:
			n, ok := asInteger(value)
			if !ok {
				violations = append(violations, apperror.Violation{Field: path, Message: "must be an integer"})
				continue
			}
			out[name] = n

		case reflect.Float64:
			f, ok := asNumber(value)
			if !ok {
				violations = append(violations, apperror.Violation{Field: path, Message: "must be a number"})
				continue
			}
			out[name] = f

		case reflect.Struct:
			nested, nestedViolations := checkShape(value, sf.Type, path+".")
			violations = append(violations, nestedViolations...)
			if nested != nil {
				out[name] = nested
			}
		}
	}

	return out, violations
}

func firstByte(raw []byte) byte {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return 0
	}
	return trimmed[0]
}

func asString(raw json.RawMessage) (string, bool) {
	if firstByte(raw) != '"' {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

func asNumber(raw json.RawMessage) (float64, bool) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return 0, false
	}
	n, ok := v.(json.Number)
	if !ok {
		return 0, false
	}
	f, err := n.Float64()
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

func asInteger(raw json.RawMessage) (int64, bool) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return 0, false
	}
	n, ok := v.(json.Number)
	if !ok {
		return 0, false
	}
	if i, err := n.Int64(); err == nil {
		return i, true
	}
	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) || math.Abs(f) > 1<<53 {
		return 0, false
	}
	return int64(f), true
}
