package pipeline

import (
	"fmt"
	"time"

	"github.com/spigell/seed-pitcher/internal/drafting"
	"github.com/spigell/seed-pitcher/internal/linkedin"
	"github.com/spigell/seed-pitcher/internal/research"
	"github.com/spigell/seed-pitcher/internal/scoring"
)

// Stage is a pipeline position. Records only ever move forward through the
// fixed ordering, or sideways into a terminal disposition.
type Stage string

const (
	StageQueued         Stage = "queued"
	StageExtracting     Stage = "extracting"
	StageEnriching      Stage = "enriching"
	StageScoring        Stage = "scoring"
	StageDrafting       Stage = "drafting"
	StageAwaitingReview Stage = "awaiting-review"
)

var stageOrder = map[Stage]int{
	StageQueued:         0,
	StageExtracting:     1,
	StageEnriching:      2,
	StageScoring:        3,
	StageDrafting:       4,
	StageAwaitingReview: 5,
}

// Disposition is the review outcome of a record.
type Disposition string

const (
	DispositionPending  Disposition = "pending"
	DispositionSkipped  Disposition = "skipped"
	DispositionRejected Disposition = "rejected"
	DispositionApproved Disposition = "approved"
	DispositionFailed   Disposition = "failed"
)

// Decision is one operator action on a draft under review.
type Decision struct {
	Action     Action `json:"action"`
	EditedBody string `json:"edited_body,omitempty"`
}

// Action enumerates the Human Gate choices.
type Action string

const (
	ActionApprove Action = "approve"
	ActionEdit    Action = "edit"
	ActionReject  Action = "reject"
	ActionSkip    Action = "skip"
)

// Record is the per-candidate unit of pipeline state and persistence. Only
// the Controller mutates it, and it persists the record after every change.
type Record struct {
	CandidateID string              `json:"candidate_id"`
	Candidate   *linkedin.Candidate `json:"candidate"`
	Stage       Stage               `json:"stage"`
	Disposition Disposition         `json:"disposition"`
	// Dossiers holds every research revision produced for this candidate,
	// oldest first. Revisions are immutable once appended.
	Dossiers []*research.InvestorDossier `json:"dossiers,omitempty"`
	Score    *scoring.FitScore           `json:"score,omitempty"`
	// Drafts holds every message revision, oldest first.
	Drafts    []*drafting.DraftMessage `json:"drafts,omitempty"`
	Attempts  int                      `json:"attempts"`
	LastError string                   `json:"last_error,omitempty"`
	// Decided records the explicit operator action that produced a review
	// disposition. A record can never be approved without it.
	Decided   *Decision  `json:"decided,omitempty"`
	DecidedAt *time.Time `json:"decided_at,omitempty"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func newRecord(candidate *linkedin.Candidate) *Record {
	return &Record{
		CandidateID: candidate.ID,
		Candidate:   candidate,
		Stage:       StageQueued,
		Disposition: DispositionPending,
		UpdatedAt:   time.Now().UTC(),
	}
}

// Dossier returns the latest research revision, or nil.
func (r *Record) Dossier() *research.InvestorDossier {
	if len(r.Dossiers) == 0 {
		return nil
	}
	return r.Dossiers[len(r.Dossiers)-1]
}

// Draft returns the latest message revision, or nil.
func (r *Record) Draft() *drafting.DraftMessage {
	if len(r.Drafts) == 0 {
		return nil
	}
	return r.Drafts[len(r.Drafts)-1]
}

// Terminal reports whether the record can no longer change.
func (r *Record) Terminal() bool {
	return r.Disposition != DispositionPending
}

// AdvanceTo moves the record forward one or more stages. Regressions and
// mutations of terminal records are programming errors and are rejected.
func (r *Record) AdvanceTo(next Stage) error {
	if r.Terminal() {
		return fmt.Errorf("record %s is terminal (%s), cannot advance to %s", r.CandidateID, r.Disposition, next)
	}

	current, ok := stageOrder[r.Stage]
	if !ok {
		return fmt.Errorf("record %s has unknown stage %q", r.CandidateID, r.Stage)
	}
	target, ok := stageOrder[next]
	if !ok {
		return fmt.Errorf("unknown stage %q", next)
	}
	if target <= current {
		return fmt.Errorf("record %s cannot regress from %s to %s", r.CandidateID, r.Stage, next)
	}

	r.Stage = next
	r.UpdatedAt = time.Now().UTC()
	return nil
}

// fail parks the record in the failed disposition with the triggering error.
func (r *Record) fail(err error) {
	r.Disposition = DispositionFailed
	r.LastError = fmt.Sprintf("%s: %v", r.Stage, err)
	r.UpdatedAt = time.Now().UTC()
}

// decide applies a terminal review disposition with its operator decision.
func (r *Record) decide(disposition Disposition, decision Decision) {
	now := time.Now().UTC()
	r.Disposition = disposition
	r.Decided = &decision
	r.DecidedAt = &now
	r.UpdatedAt = now
}

// skip marks the record skipped without an operator decision (threshold
// short-circuit).
func (r *Record) skip(reason string) {
	r.Disposition = DispositionSkipped
	r.LastError = ""
	if reason != "" {
		r.LastError = reason
	}
	r.UpdatedAt = time.Now().UTC()
}
