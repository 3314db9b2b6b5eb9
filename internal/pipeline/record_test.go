package pipeline

import (
	"errors"
	"testing"

	"github.com/spigell/seed-pitcher/internal/linkedin"
)

func testCandidate(slug string) *linkedin.Candidate {
	return &linkedin.Candidate{
		ID:   "https://www.linkedin.com/in/" + slug,
		Name: slug,
	}
}

func TestAdvanceToMovesForwardOnly(t *testing.T) {
	t.Parallel()

	record := newRecord(testCandidate("jane-doe"))
	if record.Stage != StageQueued || record.Disposition != DispositionPending {
		t.Fatalf("unexpected initial state: %+v", record)
	}

	order := []Stage{StageExtracting, StageEnriching, StageScoring, StageDrafting, StageAwaitingReview}
	for _, stage := range order {
		if err := record.AdvanceTo(stage); err != nil {
			t.Fatalf("advancing to %s: %v", stage, err)
		}
	}

	if err := record.AdvanceTo(StageScoring); err == nil {
		t.Fatalf("expected a regression to be rejected")
	}
	if err := record.AdvanceTo(StageAwaitingReview); err == nil {
		t.Fatalf("expected a same-stage advance to be rejected")
	}
}

func TestAdvanceToCanSkipStages(t *testing.T) {
	t.Parallel()

	record := newRecord(testCandidate("jane-doe"))
	if err := record.AdvanceTo(StageScoring); err != nil {
		t.Fatalf("forward jumps are legal: %v", err)
	}
}

func TestTerminalRecordIsFrozen(t *testing.T) {
	t.Parallel()

	record := newRecord(testCandidate("jane-doe"))
	record.fail(errors.New("boom"))

	if !record.Terminal() {
		t.Fatalf("a failed record must be terminal")
	}
	if record.Disposition != DispositionFailed {
		t.Fatalf("unexpected disposition: %s", record.Disposition)
	}
	if err := record.AdvanceTo(StageExtracting); err == nil {
		t.Fatalf("expected advancing a terminal record to fail")
	}
}

func TestDecideRecordsTheOperatorAction(t *testing.T) {
	t.Parallel()

	record := newRecord(testCandidate("jane-doe"))
	record.decide(DispositionApproved, Decision{Action: ActionApprove})

	if record.Disposition != DispositionApproved {
		t.Fatalf("unexpected disposition: %s", record.Disposition)
	}
	if record.Decided == nil || record.Decided.Action != ActionApprove {
		t.Fatalf("expected the decision to be recorded")
	}
	if record.DecidedAt == nil {
		t.Fatalf("expected the decision time to be recorded")
	}
}

func TestLatestAccessors(t *testing.T) {
	t.Parallel()

	record := newRecord(testCandidate("jane-doe"))
	if record.Dossier() != nil || record.Draft() != nil {
		t.Fatalf("empty record must return nil revisions")
	}
}
