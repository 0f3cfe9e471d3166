// Package feature turns a validated InputRecord into the ordered vector the
// regression model was trained on.
//
// The column order is load-bearing: the model consumes values positionally,
// so Columns must match the training layout exactly. JSON key order of the
// incoming payload never matters because Build reads struct fields by name.
package feature

import (
	"fmt"

	"github.com/sakif/grade-predictor/internal/model"
)

// Columns is the canonical feature order.
var Columns = []string{
	"sex", "age", "address", "famsize", "pstatus", "medu", "fedu",
	"mjob", "fjob", "reason", "guardian", "traveltime", "studytime",
	"failures", "schoolsup", "famsup", "paid", "activities", "nursery",
	"higher", "internet", "romantic", "famrel", "freetime", "goout",
	"dalc", "walc", "health", "absences", "G1", "G2",
}

// Kind distinguishes categorical from numeric values.
type Kind int

const (
	Numeric Kind = iota
	Categorical
)

func (k Kind) String() string {
	if k == Categorical {
		return "categorical"
	}
	return "numeric"
}

// Value is one cell of a Vector. Exactly one of Num and Cat is meaningful,
// depending on Kind.
type Value struct {
	Column string
	Kind   Kind
	Num    float64
	Cat    string
}

func (v Value) String() string {
	if v.Kind == Categorical {
		return fmt.Sprintf("%s=%q", v.Column, v.Cat)
	}
	return fmt.Sprintf("%s=%g", v.Column, v.Num)
}

// Vector is a single row in Columns order.
type Vector []Value

// Map returns the vector keyed by column name, the shape external model
// runtimes expect as a one-row frame.
func (v Vector) Map() map[string]any {
	m := make(map[string]any, len(v))
	for _, val := range v {
		if val.Kind == Categorical {
			m[val.Column] = val.Cat
		} else {
			m[val.Column] = val.Num
		}
	}
	return m
}

func cat(col, s string) Value { return Value{Column: col, Kind: Categorical, Cat: s} }
func num(col string, n int) Value {
	return Value{Column: col, Kind: Numeric, Num: float64(n)}
}

// Build emits the record's values in Columns order. It is pure and never
// fails; the record is expected to have passed validation already.
func Build(r model.InputRecord) Vector {
	return Vector{
		cat("sex", r.Sex),
		num("age", r.Age),
		cat("address", r.Address),
		cat("famsize", r.Famsize),
		cat("pstatus", r.Pstatus),
		num("medu", r.Medu),
		num("fedu", r.Fedu),
		cat("mjob", r.Mjob),
		cat("fjob", r.Fjob),
		cat("reason", r.Reason),
		cat("guardian", r.Guardian),
		num("traveltime", r.Traveltime),
		num("studytime", r.Studytime),
		num("failures", r.Failures),
		cat("schoolsup", r.Schoolsup),
		cat("famsup", r.Famsup),
		cat("paid", r.Paid),
		cat("activities", r.Activities),
		cat("nursery", r.Nursery),
		cat("higher", r.Higher),
		cat("internet", r.Internet),
		cat("romantic", r.Romantic),
		num("famrel", r.Famrel),
		num("freetime", r.Freetime),
		num("goout", r.Goout),
		num("dalc", r.Dalc),
		num("walc", r.Walc),
		num("health", r.Health),
		num("absences", r.Absences),
		num("G1", r.G1),
		num("G2", r.G2),
	}
}
