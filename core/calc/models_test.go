package calc_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/majorhelp/majorhelp/core"
	"github.com/majorhelp/majorhelp/core/calc"
)

func TestParseSavedCalc(t *testing.T) {
	valid := `{
		"calcName": "My Plan",
		"uni": "University of South Carolina",
		"outstate": false,
		"dept": "Engineering and Technology",
		"major": "Computer Information Systems",
		"aid": "Palmetto Fellows"
	}`

	tests := []struct {
		name      string
		raw       string
		want      calc.SavedCalc
		wantField string // offending field of the expected validation error
		wantErr   bool
	}{
		{
			name: "valid with named aid",
			raw:  valid,
			want: calc.SavedCalc{
				CalcName: "My Plan",
				Uni:      "University of South Carolina",
				OutState: false,
				Dept:     "Engineering and Technology",
				Major:    "Computer Information Systems",
				Aid:      calc.AidValue{Str: "Palmetto Fellows"},
			},
		},
		{
			name: "valid with numeric aid",
			raw:  `{"calcName":"C","uni":"U","outstate":true,"dept":"D","major":"M","aid":1500}`,
			want: calc.SavedCalc{
				CalcName: "C", Uni: "U", OutState: true, Dept: "D", Major: "M",
				Aid: calc.AidValue{Num: 1500, IsNum: true},
			},
		},
		{name: "not an object", raw: `"lol"`, wantErr: true},
		{name: "missing field", raw: `{"calcName":"C","uni":"U","outstate":true,"dept":"D","major":"M"}`, wantField: "aid", wantErr: true},
		{name: "unknown field", raw: `{"calcName":"C","uni":"U","outstate":true,"dept":"D","major":"M","aid":"","extra":1}`, wantField: "extra", wantErr: true},
		{name: "outstate not boolean", raw: `{"calcName":"C","uni":"U","outstate":"yes","dept":"D","major":"M","aid":""}`, wantField: "outstate", wantErr: true},
		{name: "calcName not string", raw: `{"calcName":1,"uni":"U","outstate":true,"dept":"D","major":"M","aid":""}`, wantField: "calcName", wantErr: true},
		{name: "aid not string or int", raw: `{"calcName":"C","uni":"U","outstate":true,"dept":"D","major":"M","aid":true}`, wantField: "aid", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc, err := calc.ParseSavedCalc(json.RawMessage(tt.raw))
			if tt.wantErr {
				assert.Error(t, err)
				if tt.wantField != "" {
					vErr, ok := err.(*core.ValidationError)
					if assert.True(t, ok, "expected *core.ValidationError, got %T", err) {
						assert.Len(t, vErr.Fields, 1)
						assert.Equal(t, tt.wantField, vErr.Fields[0].Field)
					}
				}
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, sc)
		})
	}
}

func TestAidValue_JSON(t *testing.T) {
	// string form
	var v calc.AidValue
	assert.NoError(t, json.Unmarshal([]byte(`"Palmetto Fellows"`), &v))
	assert.Equal(t, calc.AidValue{Str: "Palmetto Fellows"}, v)
	assert.Equal(t, "Palmetto Fellows", v.String())

	b, err := json.Marshal(v)
	assert.NoError(t, err)
	assert.Equal(t, `"Palmetto Fellows"`, string(b))

	// numeric form
	assert.NoError(t, json.Unmarshal([]byte(`1500`), &v))
	assert.Equal(t, calc.AidValue{Num: 1500, IsNum: true}, v)
	assert.Equal(t, "1500", v.String())

	b, err = json.Marshal(v)
	assert.NoError(t, err)
	assert.Equal(t, `1500`, string(b))

	// anything else is rejected
	assert.Error(t, json.Unmarshal([]byte(`true`), &v))
}

func TestAidDescriptor_MarshalJSON(t *testing.T) {
	b, err := json.Marshal(calc.AidDescriptor{})
	assert.NoError(t, err)
	assert.Equal(t, `{}`, string(b))

	b, err = json.Marshal(calc.AidDescriptor{Name: "Palmetto Fellows", Amount: 7000})
	assert.NoError(t, err)
	assert.JSONEq(t, `{"name":"Palmetto Fellows","amount":7000}`, string(b))
}
