// Package linear is the in-process model backend: a linear regression stored
// as a JSON coefficient artifact.
//
// Numeric columns contribute coefficient × value. Categorical columns are
// one-hot encoded, so a level contributes its own coefficient and a level the
// artifact has never seen contributes nothing. The artifact is loaded once
// and never mutated, so a *Model is safe for concurrent use.
package linear

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"slices"

	"github.com/sakif/grade-predictor/internal/feature"
)

//go:embed default_model.json
var defaultArtifact []byte

// Artifact is the on-disk model format.
type Artifact struct {
	Name        string                        `json:"name"`
	Version     string                        `json:"version"`
	Intercept   float64                       `json:"intercept"`
	Columns     []string                      `json:"columns"`
	Numeric     map[string]float64            `json:"numeric"`
	Categorical map[string]map[string]float64 `json:"categorical"`
}

// Model is a loaded, validated artifact.
type Model struct {
	artifact Artifact
}

// Load reads the artifact at path, or the embedded default when path is
// empty.
func Load(path string) (*Model, error) {
	if path == "" {
		return Parse(defaultArtifact)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("linear: reading artifact %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates an artifact. The artifact's column list must
// equal feature.Columns, and every column needs exactly one coefficient
// entry, numeric or categorical.
func Parse(data []byte) (*Model, error) {
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("linear: decoding artifact: %w", err)
	}

	if !slices.Equal(a.Columns, feature.Columns) {
		return nil, fmt.Errorf("linear: artifact columns %v do not match feature order %v", a.Columns, feature.Columns)
	}

	for _, col := range a.Columns {
		_, isNum := a.Numeric[col]
		_, isCat := a.Categorical[col]
		switch {
		case isNum && isCat:
			return nil, fmt.Errorf("linear: column %q is both numeric and categorical", col)
		case !isNum && !isCat:
			return nil, fmt.Errorf("linear: column %q has no coefficients", col)
		}
	}

	return &Model{artifact: a}, nil
}

// Name identifies the backend on logs and metrics.
func (m *Model) Name() string { return "linear" }

// Version is the artifact's version string.
func (m *Model) Version() string { return m.artifact.Version }

// Predict scores one vector. The vector must match the artifact column for
// column, with the matching kind.
func (m *Model) Predict(_ context.Context, v feature.Vector) (float64, error) {
	cols := m.artifact.Columns
	if len(v) != len(cols) {
		return 0, fmt.Errorf("linear: vector has %d values, model expects %d", len(v), len(cols))
	}

	score := m.artifact.Intercept
	for i, val := range v {
		if val.Column != cols[i] {
			return 0, fmt.Errorf("linear: position %d holds %q, model expects %q", i, val.Column, cols[i])
		}

		if coef, ok := m.artifact.Numeric[val.Column]; ok {
			if val.Kind != feature.Numeric {
				return 0, fmt.Errorf("linear: column %q must be numeric, got %s", val.Column, val.Kind)
			}
			score += coef * val.Num
			continue
		}

		if val.Kind != feature.Categorical {
			return 0, fmt.Errorf("linear: column %q must be categorical, got %s", val.Column, val.Kind)
		}
		score += m.artifact.Categorical[val.Column][val.Cat]
	}

	return score, nil
}
