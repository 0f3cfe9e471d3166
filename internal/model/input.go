// Package model defines the data structures used throughout the application.
package model

// InputRecord is one submitted set of student features.
//
// The JSON names are the wire contract shared with the web client and the
// persisted formData document. Field order here is irrelevant: the order the
// regression model needs is owned by package feature.
//
// The validate rules mirror the web client's form checks: choices must be
// made, age is 1-120, G1 and G2 are marks out of 100 and scale answers
// start at 0 or 1. Categorical values are not restricted to a fixed set;
// the model gives an unseen level no weight.
type InputRecord struct {
	Sex      string `json:"sex"      validate:"required"`
	Age      int    `json:"age"      validate:"min=1,max=120"`
	Address  string `json:"address"  validate:"required"`
	Famsize  string `json:"famsize"  validate:"required"`
	Pstatus  string `json:"pstatus"  validate:"required"`
	Medu     int    `json:"medu"     validate:"min=0"`
	Fedu     int    `json:"fedu"     validate:"min=0"`
	Mjob     string `json:"mjob"     validate:"required"`
	Fjob     string `json:"fjob"     validate:"required"`
	Reason   string `json:"reason"   validate:"required"`
	Guardian string `json:"guardian" validate:"required"`

	Traveltime int `json:"traveltime" validate:"min=1"`
	Studytime  int `json:"studytime"  validate:"min=1"`
	Failures   int `json:"failures"   validate:"min=0"`

	Schoolsup  string `json:"schoolsup"  validate:"required"`
	Famsup     string `json:"famsup"     validate:"required"`
	Paid       string `json:"paid"       validate:"required"`
	Activities string `json:"activities" validate:"required"`
	Nursery    string `json:"nursery"    validate:"required"`
	Higher     string `json:"higher"     validate:"required"`
	Internet   string `json:"internet"   validate:"required"`
	Romantic   string `json:"romantic"   validate:"required"`

	Famrel   int `json:"famrel"   validate:"min=1"`
	Freetime int `json:"freetime" validate:"min=0"`
	Goout    int `json:"goout"    validate:"min=1"`
	Dalc     int `json:"dalc"     validate:"min=0"`
	Walc     int `json:"walc"     validate:"min=0"`
	Health   int `json:"health"   validate:"min=0"`

	Absences int `json:"absences" validate:"min=0"`
	G1       int `json:"G1"       validate:"min=0,max=100"`
	G2       int `json:"G2"       validate:"min=0,max=100"`
}
