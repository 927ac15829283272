package scorecard

import (
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/majorhelp/majorhelp/core"
)

const (
	// minSimilarity is the lowest Ratcliff/Obershelp ratio accepted as a match.
	minSimilarity  = 0.6
	maxSuggestions = 5
	searchPageSize = 20
)

var (
	// ErrNoAPIKey means the server is misconfigured, not that the request is bad.
	ErrNoAPIKey = errors.New("College Scorecard API key not set")
)

var searchFields = strings.Join([]string{
	"id",
	"school.name",
	"school.city",
	"school.state",
}, ",")

var detailFields = strings.Join([]string{
	"id",
	"school.name",
	"school.city",
	"school.state",
	"school.zip",
	"school.school_url",
	"latest.student.size",
	"latest.admissions.admission_rate.overall",
	"latest.admissions.sat_scores.average.overall",
	"latest.admissions.act_scores.midpoint.cumulative",
	"latest.cost.tuition.in_state",
	"latest.cost.tuition.out_of_state",
	"latest.completion.completion_rate_4yr_150nt",
	"latest.earnings.6_yrs_after_entry.mean_earnings",
	"latest.earnings.8_yrs_after_entry.median",
	"latest.earnings.10_yrs_after_entry.median",
	"latest.aid.median_debt.completers.overall",
	"latest.aid.median_debt.noncompleters",
	"latest.repayment.3_yr_repayment.repayment_rate",
	"latest.aid.pell_grant_rate",
	"latest.student.demographics.first_generation",
}, ",")

type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewClient(conf *core.Config) *Client {
	return &Client{
		baseURL: conf.Scorecard.BaseURL,
		apiKey:  conf.Scorecard.ApiKey,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// Lookup finds one school for a free-text name and returns its normalized
// record. Two sequential upstream calls, single attempt each: a slow or failed
// upstream propagates as one UpstreamError.
func (c *Client) Lookup(ctx context.Context, schoolName string) (School, error) {
	if c.apiKey == "" {
		return School{}, ErrNoAPIKey
	}
	schoolName = core.CleanString(schoolName)

	candidates, err := c.search(ctx, schoolName)
	if err != nil {
		return School{}, err
	}

	match, ok := bestMatch(schoolName, candidates)
	if !ok {
		return School{}, &NoMatchError{Query: schoolName, Suggestions: suggestions(candidates)}
	}

	return c.fetch(ctx, match.ID)
}

// search queries the upstream search endpoint for candidate schools.
func (c *Client) search(ctx context.Context, schoolName string) ([]Candidate, error) {
	q := make(url.Values)
	q.Set("school.name", schoolName)
	q.Set("fields", searchFields)
	q.Set("_per_page", strconv.Itoa(searchPageSize))

	var res struct {
		Results []Candidate `json:"results"`
	}
	if err := c.get(ctx, q, &res); err != nil {
		return nil, err
	}
	return res.Results, nil
}

// fetch retrieves the detail record by upstream id and flattens it.
func (c *Client) fetch(ctx context.Context, id int) (School, error) {
	q := make(url.Values)
	q.Set("id", strconv.Itoa(id))
	q.Set("fields", detailFields)
	q.Set("_per_page", "1")

	var res struct {
		Results []school `json:"results"`
	}
	if err := c.get(ctx, q, &res); err != nil {
		return School{}, err
	}
	if len(res.Results) == 0 {
		return School{}, &UpstreamError{msg: fmt.Sprintf("school id %d vanished upstream", id)}
	}
	return normalize(res.Results[0]), nil
}

func (c *Client) get(ctx context.Context, q url.Values, dst interface{}) error {
	q.Set("api_key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return errors.Wrap(err, "building scorecard request")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return &UpstreamError{msg: fmt.Sprintf("scorecard API request failed: %v", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return &UpstreamError{msg: fmt.Sprintf("reading scorecard API response: %v", err)}
	}
	if resp.StatusCode != http.StatusOK {
		return &UpstreamError{msg: fmt.Sprintf("scorecard API returned %d: %s", resp.StatusCode, body)}
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return &UpstreamError{msg: fmt.Sprintf("decoding scorecard API response: %v", err)}
	}
	return nil
}

// bestMatch picks an exact case-insensitive name match when present, else the
// candidate with the highest Ratcliff/Obershelp similarity, accepted only at
// minSimilarity or better.
func bestMatch(query string, candidates []Candidate) (Candidate, bool) {
	lowQuery := strings.ToLower(query)
	for _, cand := range candidates {
		if strings.ToLower(cand.Name) == lowQuery {
			return cand, true
		}
	}

	var best Candidate
	var bestRatio float64
	for _, cand := range candidates {
		if r := similarity(lowQuery, strings.ToLower(cand.Name)); r > bestRatio {
			best, bestRatio = cand, r
		}
	}
	if bestRatio >= minSimilarity {
		return best, true
	}
	return Candidate{}, false
}

func similarity(a, b string) float64 {
	return difflib.NewMatcher(strings.Split(a, ""), strings.Split(b, "")).Ratio()
}

func suggestions(candidates []Candidate) []Suggestion {
	n := len(candidates)
	if n > maxSuggestions {
		n = maxSuggestions
	}
	out := make([]Suggestion, 0, n)
	for _, cand := range candidates[:n] {
		out = append(out, Suggestion{Name: cand.Name, City: cand.City, State: cand.State})
	}
	return out
}

// normalize flattens the upstream record and adds the rounded x100 twins for
// percentage-like decimals.
func normalize(s school) School {
	return School{
		Name:                    s.Name,
		City:                    s.City,
		State:                   s.State,
		ZipCode:                 s.Zip,
		SchoolURL:               s.URL,
		StudentSize:             s.StudentSize,
		AdmissionRate:           s.AdmissionRate,
		AdmissionRatePct:        pct(s.AdmissionRate),
		SatAverage:              s.SatAverage,
		ActMidpoint:             s.ActMidpoint,
		TuitionInState:          s.TuitionInState,
		TuitionOutState:         s.TuitionOutState,
		CompletionRate:          s.CompletionRate,
		CompletionRatePct:       pct(s.CompletionRate),
		MeanEarnings6Yr:         s.MeanEarnings6Yr,
		MedianEarnings8Yr:       s.MedianEarnings8Yr,
		MedianEarnings10Yr:      s.MedianEarnings10Yr,
		MedianDebtCompleters:    s.MedianDebtCompleters,
		MedianDebtNoncompleters: s.MedianDebtNoncompleters,
		RepaymentRate3Yr:        s.RepaymentRate3Yr,
		RepaymentRate3YrPct:     pct(s.RepaymentRate3Yr),
		PellGrantRate:           s.PellGrantRate,
		PellGrantRatePct:        pct(s.PellGrantRate),
		FirstGeneration:         s.FirstGeneration,
		FirstGenerationPct:      pct(s.FirstGeneration),
	}
}

func pct(v *float64) *int {
	if v == nil {
		return nil
	}
	p := int(math.Round(*v * 100))
	return &p
}
