package scoring

import (
	"math"
	"strings"
	"testing"

	"github.com/spigell/seed-pitcher/internal/founder"
	"github.com/spigell/seed-pitcher/internal/research"
)

func fintechSeedFounder() *founder.Profile {
	return &founder.Profile{
		Name:    "Jane Doe",
		Company: "PayStack",
		Sectors: []string{"fintech"},
		Stages:  []founder.Stage{founder.StageSeed},
	}
}

func mustScorer(t *testing.T, threshold float64) *Scorer {
	t.Helper()
	scorer, err := NewScorer(DefaultWeights, threshold)
	if err != nil {
		t.Fatalf("building scorer: %v", err)
	}
	return scorer
}

func TestScorePerfectFit(t *testing.T) {
	t.Parallel()

	dossier := &research.InvestorDossier{
		IsInvestor:   true,
		FocusSectors: []string{"Fintech"},
		FocusStages:  []string{"seed"},
		Investments: []research.Investment{
			{Company: "PayCo", Sector: "fintech", Stage: "seed"},
			{Company: "LendIt", Sector: "fintech", Stage: "seed"},
		},
	}

	score := mustScorer(t, 0.5).Score(fintechSeedFounder(), dossier)

	if math.Abs(score.Total-1.0) > 1e-9 {
		t.Fatalf("expected a perfect total, got %v", score.Total)
	}
	if score.SectorMatch != 1 || score.StageMatch != 1 || score.TrackRecord != 1 {
		t.Fatalf("unexpected sub-scores: %+v", score)
	}
	if !score.MeetsThreshold {
		t.Fatalf("a perfect fit must meet the threshold")
	}
}

func TestScoreUnknownDimensionsAreNeutral(t *testing.T) {
	t.Parallel()

	dossier := &research.InvestorDossier{IsInvestor: true}
	score := mustScorer(t, 0.5).Score(fintechSeedFounder(), dossier)

	if score.SectorMatch != 0.5 || score.StageMatch != 0.5 || score.TrackRecord != 0.5 {
		t.Fatalf("expected neutral sub-scores for an empty dossier, got %+v", score)
	}
	if math.Abs(score.Total-0.5) > 1e-9 {
		t.Fatalf("expected total 0.5, got %v", score.Total)
	}
	if !score.MeetsThreshold {
		t.Fatalf("a fully neutral score equals the default threshold and must pass")
	}
}

func TestScoreMismatchBelowThreshold(t *testing.T) {
	t.Parallel()

	dossier := &research.InvestorDossier{
		IsInvestor:   true,
		FocusSectors: []string{"biotech"},
		FocusStages:  []string{"growth"},
		Investments: []research.Investment{
			{Company: "GeneCo", Sector: "biotech", Stage: "growth"},
		},
	}

	score := mustScorer(t, 0.5).Score(fintechSeedFounder(), dossier)

	if score.Total != 0 {
		t.Fatalf("expected zero total for a full mismatch, got %v", score.Total)
	}
	if score.MeetsThreshold {
		t.Fatalf("a full mismatch must not meet the threshold")
	}
}

func TestScoreNonInvestorNotedInRationale(t *testing.T) {
	t.Parallel()

	dossier := &research.InvestorDossier{IsInvestor: false, Confidence: 0.8}
	score := mustScorer(t, 0.5).Score(fintechSeedFounder(), dossier)

	if !strings.Contains(score.Rationale, "did not identify this person as an investor") {
		t.Fatalf("expected the non-investor note in the rationale, got %q", score.Rationale)
	}
}

func TestScoreDegradedNotedInRationale(t *testing.T) {
	t.Parallel()

	dossier := &research.InvestorDossier{IsInvestor: true, Degraded: true}
	score := mustScorer(t, 0.5).Score(fintechSeedFounder(), dossier)

	if !strings.Contains(score.Rationale, "degraded") {
		t.Fatalf("expected the degraded note in the rationale, got %q", score.Rationale)
	}
}

func TestScoreIsDeterministic(t *testing.T) {
	t.Parallel()

	dossier := &research.InvestorDossier{
		IsInvestor:   true,
		FocusSectors: []string{"fintech", "insurtech"},
		FocusStages:  []string{"seed", "series-a"},
		Investments: []research.Investment{
			{Company: "PayCo", Sector: "fintech", Stage: "series-a"},
		},
	}

	scorer := mustScorer(t, 0.5)
	first := scorer.Score(fintechSeedFounder(), dossier)
	for i := 0; i < 5; i++ {
		if got := scorer.Score(fintechSeedFounder(), dossier); got != first {
			t.Fatalf("score changed between identical calls: %+v vs %+v", first, got)
		}
	}
}

func TestWeightsValidate(t *testing.T) {
	t.Parallel()

	if err := DefaultWeights.Validate(); err != nil {
		t.Fatalf("default weights must validate: %v", err)
	}
	if err := (Weights{Sector: 0.5, Stage: 0.5, TrackRecord: 0.5}).Validate(); err == nil {
		t.Fatalf("expected an error for weights summing to 1.5")
	}
	if err := (Weights{Sector: 1.2, Stage: -0.1, TrackRecord: -0.1}).Validate(); err == nil {
		t.Fatalf("expected an error for negative weights")
	}
}

func TestNewScorerRejectsBadThreshold(t *testing.T) {
	t.Parallel()

	if _, err := NewScorer(DefaultWeights, 1.5); err == nil {
		t.Fatalf("expected an error for a threshold above 1")
	}
	if _, err := NewScorer(DefaultWeights, -0.1); err == nil {
		t.Fatalf("expected an error for a negative threshold")
	}
}
