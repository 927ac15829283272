package calc

import (
	"encoding/json"
	"strconv"

	"github.com/majorhelp/majorhelp/core"
)

// Input is one calculator invocation: free-text university/major queries,
// the residency track and an optional aid descriptor (named or numeric).
type Input struct {
	University string
	Major      string
	OutOfState bool
	Aid        string
}

type (
	// Estimate echoes the resolved inputs alongside the two totals so clients
	// can display the breakdown without re-querying.
	Estimate struct {
		MinTuition int           `json:"minTui"`
		MaxTuition int           `json:"maxTui"`
		Uni        EstimateSide  `json:"uni"`
		Major      EstimateSide  `json:"major"`
		Aid        AidDescriptor `json:"aid"`
	}

	EstimateSide struct {
		Name           string `json:"name"`
		BaseMinTuition int    `json:"baseMinTui"`
		BaseMaxTuition int    `json:"baseMaxTui"`
		Fees           int    `json:"fees"`
	}

	AidDescriptor struct {
		Name   string `json:"name"`
		Amount int    `json:"amount"`
	}
)

// MarshalJSON renders a zero descriptor as an empty object: "no aid" is a
// defined case, not a null.
func (d AidDescriptor) MarshalJSON() ([]byte, error) {
	if d.Name == "" && d.Amount == 0 {
		return []byte("{}"), nil
	}
	type alias AidDescriptor
	return json.Marshal(alias(d))
}

// AidValue is a saved-calculator aid field: either a named aid (string) or a
// custom integer amount. It round-trips through JSON unchanged.
type AidValue struct {
	Str   string
	Num   int
	IsNum bool
}

func (v AidValue) MarshalJSON() ([]byte, error) {
	if v.IsNum {
		return json.Marshal(v.Num)
	}
	return json.Marshal(v.Str)
}

func (v *AidValue) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*v = AidValue{Str: s}
		return nil
	}
	var n int
	if err := json.Unmarshal(b, &n); err == nil {
		*v = AidValue{Num: n, IsNum: true}
		return nil
	}
	return errAidValueType
}

// String renders the value the way Input.Aid expects it.
func (v AidValue) String() string {
	if v.IsNum {
		return strconv.Itoa(v.Num)
	}
	return v.Str
}

// SavedCalc is one named snapshot of calculator inputs, owned by a user and
// keyed by the lowercased calculator name.
type SavedCalc struct {
	CalcName string   `json:"calcName"`
	Uni      string   `json:"uni"`
	OutState bool     `json:"outstate"`
	Dept     string   `json:"dept"`
	Major    string   `json:"major"`
	Aid      AidValue `json:"aid"`
}

var (
	savedCalcFields = []string{"calcName", "uni", "outstate", "dept", "major", "aid"}

	errAidValueType = jsonTypeError("must be a string or an integer")
)

type jsonTypeError string

func (e jsonTypeError) Error() string { return string(e) }

// ParseSavedCalc decodes and strictly validates a saved-calculator payload:
// exactly the known fields, outstate strictly boolean, aid string-or-integer,
// everything else a string. Violations name the offending field.
func ParseSavedCalc(raw json.RawMessage) (SavedCalc, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return SavedCalc{}, core.NewValidationError(jsonTypeError("invalid payload format, expected an object"))
	}

	for _, f := range savedCalcFields {
		if _, ok := fields[f]; !ok {
			return SavedCalc{}, core.NewValidationError(nil, core.FieldError{Field: f, Error: "this field is required"})
		}
	}
	for f := range fields {
		if !isSavedCalcField(f) {
			return SavedCalc{}, core.NewValidationError(nil, core.FieldError{Field: f, Error: "unknown field"})
		}
	}

	var sc SavedCalc
	for _, f := range []struct {
		name string
		dst  interface{}
		typ  string
	}{
		{"calcName", &sc.CalcName, "a string"},
		{"uni", &sc.Uni, "a string"},
		{"outstate", &sc.OutState, "a boolean"},
		{"dept", &sc.Dept, "a string"},
		{"major", &sc.Major, "a string"},
		{"aid", &sc.Aid, "a string or an integer"},
	} {
		if err := json.Unmarshal(fields[f.name], f.dst); err != nil {
			return SavedCalc{}, core.NewValidationError(nil, core.FieldError{Field: f.name, Error: "must be " + f.typ})
		}
	}
	return sc, nil
}

func isSavedCalcField(name string) bool {
	for _, f := range savedCalcFields {
		if f == name {
			return true
		}
	}
	return false
}
