package scorecard

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/majorhelp/majorhelp/core"
)

type fakeUpstream struct {
	candidates []map[string]interface{}
	details    map[string]map[string]interface{}
	status     int
}

func (f *fakeUpstream) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if f.status != 0 {
			http.Error(w, "upstream exploded", f.status)
			return
		}
		var results []map[string]interface{}
		if id := r.URL.Query().Get("id"); id != "" {
			if d, ok := f.details[id]; ok {
				results = []map[string]interface{}{d}
			}
		} else {
			results = f.candidates
		}
		if results == nil {
			results = []map[string]interface{}{}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"results": results})
	}
}

func newTestClient(t *testing.T, up *fakeUpstream) *Client {
	t.Helper()
	ts := httptest.NewServer(up.handler())
	t.Cleanup(ts.Close)
	return NewClient(&core.Config{
		Scorecard: core.ScorecardConfig{BaseURL: ts.URL, ApiKey: "test-key"},
	})
}

func candidate(id int, name, city, state string) map[string]interface{} {
	return map[string]interface{}{
		"id":           id,
		"school.name":  name,
		"school.city":  city,
		"school.state": state,
	}
}

func TestClient_Lookup_exactMatch(t *testing.T) {
	up := &fakeUpstream{
		candidates: []map[string]interface{}{
			candidate(1, "Clemson University", "Clemson", "SC"),
			candidate(2, "University of South Carolina-Columbia", "Columbia", "SC"),
		},
		details: map[string]map[string]interface{}{
			"2": {
				"school.name":  "University of South Carolina-Columbia",
				"school.city":  "Columbia",
				"school.state": "SC",
				"school.zip":   "29208",
				"latest.student.size":                        34795,
				"latest.admissions.admission_rate.overall":   0.647,
				"latest.cost.tuition.in_state":               12688,
				"latest.cost.tuition.out_of_state":           34934,
				"latest.earnings.6_yrs_after_entry.mean_earnings": 41900,
				"latest.earnings.8_yrs_after_entry.median":        49600,
				"latest.earnings.10_yrs_after_entry.median":       55300,
				"latest.aid.pell_grant_rate":                      0.224,
			},
		},
	}
	c := newTestClient(t, up)

	school, err := c.Lookup(context.Background(), "university of south carolina-columbia")
	assert.NoError(t, err)
	assert.Equal(t, "University of South Carolina-Columbia", school.Name)
	assert.Equal(t, "Columbia", school.City)
	assert.Equal(t, "29208", school.ZipCode)
	if assert.NotNil(t, school.StudentSize) {
		assert.Equal(t, 34795, *school.StudentSize)
	}
	if assert.NotNil(t, school.AdmissionRate) {
		assert.Equal(t, 0.647, *school.AdmissionRate)
	}
	if assert.NotNil(t, school.AdmissionRatePct) {
		assert.Equal(t, 65, *school.AdmissionRatePct)
	}
	if assert.NotNil(t, school.MeanEarnings6Yr) {
		assert.Equal(t, 41900, *school.MeanEarnings6Yr)
	}
	if assert.NotNil(t, school.MedianEarnings10Yr) {
		assert.Equal(t, 55300, *school.MedianEarnings10Yr)
	}
	if assert.NotNil(t, school.PellGrantRatePct) {
		assert.Equal(t, 22, *school.PellGrantRatePct)
	}
	assert.Nil(t, school.SatAverage)
	assert.Nil(t, school.CompletionRatePct)
}

func TestClient_Lookup_fuzzyMatch(t *testing.T) {
	up := &fakeUpstream{
		candidates: []map[string]interface{}{
			candidate(7, "Clemson University", "Clemson", "SC"),
		},
		details: map[string]map[string]interface{}{
			"7": {
				"school.name":  "Clemson University",
				"school.city":  "Clemson",
				"school.state": "SC",
			},
		},
	}
	c := newTestClient(t, up)

	// close enough to clear the similarity threshold
	school, err := c.Lookup(context.Background(), "Clemson Univ")
	assert.NoError(t, err)
	assert.Equal(t, "Clemson University", school.Name)
}

func TestClient_Lookup_noMatchSuggestions(t *testing.T) {
	var cands []map[string]interface{}
	for i := 1; i <= 8; i++ {
		cands = append(cands, candidate(i, fmt.Sprintf("Totally Unrelated School %d", i), "Elsewhere", "ZZ"))
	}
	c := newTestClient(t, &fakeUpstream{candidates: cands})

	_, err := c.Lookup(context.Background(), "xq")
	noMatch, ok := err.(*NoMatchError)
	if assert.True(t, ok, "expected *NoMatchError, got %v", err) {
		assert.Equal(t, "xq", noMatch.Query)
		assert.Len(t, noMatch.Suggestions, 5)
		assert.Equal(t, "Totally Unrelated School 1", noMatch.Suggestions[0].Name)
		assert.Equal(t, "ZZ", noMatch.Suggestions[0].State)
	}
}

func TestClient_Lookup_noCandidates(t *testing.T) {
	c := newTestClient(t, &fakeUpstream{})

	_, err := c.Lookup(context.Background(), "ghost college")
	noMatch, ok := err.(*NoMatchError)
	if assert.True(t, ok, "expected *NoMatchError, got %v", err) {
		assert.Empty(t, noMatch.Suggestions)
	}
}

func TestClient_Lookup_upstreamError(t *testing.T) {
	c := newTestClient(t, &fakeUpstream{status: http.StatusInternalServerError})

	_, err := c.Lookup(context.Background(), "Clemson University")
	upstream, ok := err.(*UpstreamError)
	if assert.True(t, ok, "expected *UpstreamError, got %v", err) {
		assert.Contains(t, upstream.Error(), "500")
	}
}

func TestClient_Lookup_noAPIKey(t *testing.T) {
	c := NewClient(&core.Config{Scorecard: core.ScorecardConfig{BaseURL: "http://localhost"}})

	_, err := c.Lookup(context.Background(), "Clemson University")
	assert.Equal(t, ErrNoAPIKey, err)
}

func Test_bestMatch(t *testing.T) {
	cands := []Candidate{
		{ID: 1, Name: "Clemson University"},
		{ID: 2, Name: "University of South Carolina-Columbia"},
	}

	tests := []struct {
		name   string
		query  string
		wantID int
		wantOK bool
	}{
		{"exact case-insensitive", "CLEMSON UNIVERSITY", 1, true},
		{"fuzzy above threshold", "clemson univresity", 1, true},
		{"below threshold", "zzz", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := bestMatch(tt.query, cands)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantID, got.ID)
			}
		})
	}
}

func Test_pct(t *testing.T) {
	assert.Nil(t, pct(nil))

	v := 0.647
	if got := pct(&v); assert.NotNil(t, got) {
		assert.Equal(t, 65, *got)
	}
	v = 0.995
	if got := pct(&v); assert.NotNil(t, got) {
		assert.Equal(t, 100, *got)
	}
}
