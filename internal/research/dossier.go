package research

import "fmt"

// Investment is one known deal attributed to the candidate.
type Investment struct {
	Company string `json:"company"`
	Sector  string `json:"sector,omitempty"`
	Stage   string `json:"stage,omitempty"`
	Year    int    `json:"year,omitempty"`
}

// InvestorDossier is the research result for one candidate. It is immutable
// once attached to a pipeline record; re-running research produces a new
// revision instead of editing in place.
type InvestorDossier struct {
	CandidateID  string       `json:"candidate_id"`
	IsInvestor   bool         `json:"is_investor"`
	Confidence   float64      `json:"confidence"`
	InvestorType string       `json:"investor_type,omitempty"`
	FundName     string       `json:"fund_name,omitempty"`
	Investments  []Investment `json:"investments,omitempty"`
	FocusSectors []string     `json:"focus_sectors,omitempty"`
	FocusStages  []string     `json:"focus_stages,omitempty"`
	Summary      string       `json:"summary,omitempty"`
	// SourceCalls counts external call attempts made for cost accounting.
	SourceCalls int `json:"source_calls"`
	Revision    int `json:"revision"`
	// Degraded marks a best-effort dossier produced after the retry budget
	// was exhausted; the candidate still proceeds to scoring.
	Degraded bool `json:"degraded,omitempty"`
}

// EnrichmentError is fatal to the whole run: continuing after a revoked
// credential or exhausted quota would burn budget for no result.
type EnrichmentError struct {
	Reason string // auth | quota-exhausted
	Err    error
}

func (e *EnrichmentError) Error() string {
	return fmt.Sprintf("enrichment failed (%s): %v", e.Reason, e.Err)
}

func (e *EnrichmentError) Unwrap() error { return e.Err }
