package drafting

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/spigell/seed-pitcher/internal/founder"
	"github.com/spigell/seed-pitcher/internal/linkedin"
	"github.com/spigell/seed-pitcher/internal/research"
	"github.com/spigell/seed-pitcher/internal/scoring"
)

type scriptedCompleter struct {
	responses []string
	err       error
	calls     int
	prompts   []string
}

func (s *scriptedCompleter) Complete(_ context.Context, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	defer func() { s.calls++ }()
	if s.err != nil {
		return "", s.err
	}
	if s.calls < len(s.responses) {
		return s.responses[s.calls], nil
	}
	return "", errors.New("no scripted response left")
}

func (s *scriptedCompleter) Model() string { return "stub-model" }

func fixtures() (*founder.Profile, *linkedin.Candidate, *research.InvestorDossier, scoring.FitScore) {
	profile := &founder.Profile{
		Name:          "Jane Doe",
		Company:       "PayStack",
		ElevatorPitch: "Payments infrastructure for emerging markets.",
		Sectors:       []string{"fintech"},
		RaiseAmount:   "$2M",
		Highlights:    []string{"Processing $1M/month in fintech volume", "Team of ex-Stripe engineers"},
	}
	candidate := &linkedin.Candidate{
		ID:       "https://www.linkedin.com/in/john-smith",
		Name:     "John Smith",
		Headline: "Partner at Acme Ventures",
	}
	dossier := &research.InvestorDossier{
		CandidateID:  candidate.ID,
		IsInvestor:   true,
		FundName:     "Acme Ventures",
		FocusSectors: []string{"fintech"},
		Investments: []research.Investment{
			{Company: "PayCo", Sector: "fintech", Stage: "seed"},
		},
	}
	score := scoring.FitScore{Total: 0.9, SectorMatch: 1, MeetsThreshold: true}
	return profile, candidate, dossier, score
}

func TestDraftCitesDossierFact(t *testing.T) {
	t.Parallel()

	completer := &scriptedCompleter{responses: []string{
		"Hi John, I noticed your investment in PayCo and thought PayStack would interest you.",
	}}
	profile, candidate, dossier, score := fixtures()

	draft, err := NewDrafter(completer, nil).Draft(context.Background(), profile, candidate, dossier, score)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if draft.Revision != 1 {
		t.Fatalf("expected revision 1, got %d", draft.Revision)
	}
	if len(draft.CitedFacts) != 1 || draft.CitedFacts[0] != "PayCo" {
		t.Fatalf("unexpected cited facts: %v", draft.CitedFacts)
	}
	if !strings.Contains(completer.prompts[0], "John Smith") {
		t.Fatalf("expected the investor name in the prompt")
	}
	if !strings.Contains(completer.prompts[0], "Processing $1M/month in fintech volume") {
		t.Fatalf("expected the sector-relevant highlight in the prompt")
	}
}

func TestDraftRegeneratesWhenNothingCited(t *testing.T) {
	t.Parallel()

	completer := &scriptedCompleter{responses: []string{
		"Hi, I run a startup and would love to chat.",
		"Hi John, congratulations on backing PayCo through Acme Ventures.",
	}}
	profile, candidate, dossier, score := fixtures()

	draft, err := NewDrafter(completer, nil).Draft(context.Background(), profile, candidate, dossier, score)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if completer.calls != 2 {
		t.Fatalf("expected a corrective regeneration, got %d calls", completer.calls)
	}
	if !strings.Contains(completer.prompts[1], "MUST reference at least one") {
		t.Fatalf("expected the citation reminder in the second prompt")
	}
	if len(draft.CitedFacts) != 2 {
		t.Fatalf("expected both facts cited, got %v", draft.CitedFacts)
	}
}

func TestDraftFailsAfterTwoUncitedAttempts(t *testing.T) {
	t.Parallel()

	completer := &scriptedCompleter{responses: []string{
		"Generic message one.",
		"Generic message two.",
	}}
	profile, candidate, dossier, score := fixtures()

	_, err := NewDrafter(completer, nil).Draft(context.Background(), profile, candidate, dossier, score)

	var draftErr *DraftError
	if !errors.As(err, &draftErr) || draftErr.Reason != "generation-failed" {
		t.Fatalf("expected a generation-failed DraftError, got %v", err)
	}
	if completer.calls != 2 {
		t.Fatalf("expected exactly 2 attempts, got %d", completer.calls)
	}
}

func TestDraftRequiresCitableFacts(t *testing.T) {
	t.Parallel()

	profile, candidate, _, score := fixtures()
	emptyDossier := &research.InvestorDossier{CandidateID: candidate.ID, IsInvestor: true}

	_, err := NewDrafter(&scriptedCompleter{}, nil).Draft(context.Background(), profile, candidate, emptyDossier, score)

	var draftErr *DraftError
	if !errors.As(err, &draftErr) {
		t.Fatalf("expected a DraftError for a factless dossier, got %v", err)
	}
}

func TestDraftPropagatesCompleterFailure(t *testing.T) {
	t.Parallel()

	completer := &scriptedCompleter{err: errors.New("model offline")}
	profile, candidate, dossier, score := fixtures()

	_, err := NewDrafter(completer, nil).Draft(context.Background(), profile, candidate, dossier, score)

	var draftErr *DraftError
	if !errors.As(err, &draftErr) {
		t.Fatalf("expected a DraftError, got %v", err)
	}
	if completer.calls != 1 {
		t.Fatalf("expected no blind retries on hard failure, got %d calls", completer.calls)
	}
}
