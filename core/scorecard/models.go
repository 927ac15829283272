package scorecard

import "fmt"

// Candidate is one school returned by the upstream search endpoint.
type Candidate struct {
	ID    int    `json:"id"`
	Name  string `json:"school.name"`
	City  string `json:"school.city"`
	State string `json:"school.state"`
}

// Suggestion is the client-facing shape of a near-miss candidate.
type Suggestion struct {
	Name  string `json:"name"`
	City  string `json:"city"`
	State string `json:"state"`
}

// school is the upstream detail record. The government API is inconsistent
// about earnings field names: the 6-year figure is ".mean_earnings" while the
// 8 and 10-year figures are ".median".
type school struct {
	Name                    string   `json:"school.name"`
	City                    string   `json:"school.city"`
	State                   string   `json:"school.state"`
	Zip                     string   `json:"school.zip"`
	URL                     string   `json:"school.school_url"`
	StudentSize             *int     `json:"latest.student.size"`
	AdmissionRate           *float64 `json:"latest.admissions.admission_rate.overall"`
	SatAverage              *float64 `json:"latest.admissions.sat_scores.average.overall"`
	ActMidpoint             *float64 `json:"latest.admissions.act_scores.midpoint.cumulative"`
	TuitionInState          *int     `json:"latest.cost.tuition.in_state"`
	TuitionOutState         *int     `json:"latest.cost.tuition.out_of_state"`
	CompletionRate          *float64 `json:"latest.completion.completion_rate_4yr_150nt"`
	MeanEarnings6Yr         *int     `json:"latest.earnings.6_yrs_after_entry.mean_earnings"`
	MedianEarnings8Yr       *int     `json:"latest.earnings.8_yrs_after_entry.median"`
	MedianEarnings10Yr      *int     `json:"latest.earnings.10_yrs_after_entry.median"`
	MedianDebtCompleters    *float64 `json:"latest.aid.median_debt.completers.overall"`
	MedianDebtNoncompleters *float64 `json:"latest.aid.median_debt.noncompleters"`
	RepaymentRate3Yr        *float64 `json:"latest.repayment.3_yr_repayment.repayment_rate"`
	PellGrantRate           *float64 `json:"latest.aid.pell_grant_rate"`
	FirstGeneration         *float64 `json:"latest.student.demographics.first_generation"`
}

// School is the flat, consistently named shape this API exposes. Percentage-like
// decimals carry a rounded x100 twin for display.
type School struct {
	Name                    string   `json:"school_name"`
	City                    string   `json:"city"`
	State                   string   `json:"state"`
	ZipCode                 string   `json:"zip_code"`
	SchoolURL               string   `json:"school_url"`
	StudentSize             *int     `json:"student_size"`
	AdmissionRate           *float64 `json:"admission_rate"`
	AdmissionRatePct        *int     `json:"admission_rate_pct"`
	SatAverage              *float64 `json:"sat_average"`
	ActMidpoint             *float64 `json:"act_midpoint"`
	TuitionInState          *int     `json:"tuition_in_state"`
	TuitionOutState         *int     `json:"tuition_out_of_state"`
	CompletionRate          *float64 `json:"completion_rate"`
	CompletionRatePct       *int     `json:"completion_rate_pct"`
	MeanEarnings6Yr         *int     `json:"mean_earnings_6yr"`
	MedianEarnings8Yr       *int     `json:"median_earnings_8yr"`
	MedianEarnings10Yr      *int     `json:"median_earnings_10yr"`
	MedianDebtCompleters    *float64 `json:"median_debt_completers"`
	MedianDebtNoncompleters *float64 `json:"median_debt_noncompleters"`
	RepaymentRate3Yr        *float64 `json:"repayment_rate_3yr"`
	RepaymentRate3YrPct     *int     `json:"repayment_rate_3yr_pct"`
	PellGrantRate           *float64 `json:"pell_grant_rate"`
	PellGrantRatePct        *int     `json:"pell_grant_rate_pct"`
	FirstGeneration         *float64 `json:"first_generation_students"`
	FirstGenerationPct      *int     `json:"first_generation_students_pct"`
}

// NoMatchError reports that no candidate cleared the similarity threshold,
// carrying up to 5 suggestions for the client to offer.
type NoMatchError struct {
	Query       string
	Suggestions []Suggestion
}

func (e *NoMatchError) Error() string {
	return fmt.Sprintf("no school matching %q", e.Query)
}

// UpstreamError wraps an upstream API failure; its text is surfaced to the
// caller for diagnosis.
type UpstreamError struct {
	msg string
}

func (e *UpstreamError) Error() string { return e.msg }
