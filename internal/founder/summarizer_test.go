package founder

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type stubCompleter struct {
	response   string
	err        error
	lastPrompt string
}

func (s *stubCompleter) Complete(_ context.Context, prompt string) (string, error) {
	s.lastPrompt = prompt
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func (s *stubCompleter) Model() string { return "stub-model" }

func TestSummarizeBuildsProfileFromDeck(t *testing.T) {
	t.Parallel()

	stub := &stubCompleter{response: `{
		"company": "Acme Robotics",
		"sectors": ["robotics", "logistics"],
		"stages": ["seed"],
		"raise_amount": "$2M",
		"highlights": ["40% MoM growth", "ex-Boston Dynamics team"]
	}`}

	hints := Minimal("Jane Doe", "", "We automate warehouses.", "", nil, nil)
	profile, err := NewSummarizer(stub, nil).Summarize(context.Background(), "deck text here", hints)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if profile.Name != "Jane Doe" {
		t.Fatalf("expected the founder name to come from hints, got %q", profile.Name)
	}
	if profile.Company != "Acme Robotics" {
		t.Fatalf("unexpected company: %q", profile.Company)
	}
	if len(profile.Stages) != 1 || profile.Stages[0] != StageSeed {
		t.Fatalf("unexpected stages: %v", profile.Stages)
	}
	if len(profile.Highlights) != 2 {
		t.Fatalf("expected 2 highlights, got %v", profile.Highlights)
	}
	if !strings.Contains(stub.lastPrompt, "deck text here") {
		t.Fatalf("expected the deck text in the prompt")
	}
}

func TestSummarizeFallsBackToHints(t *testing.T) {
	t.Parallel()

	stub := &stubCompleter{response: `{"company": "", "sectors": [], "stages": [], "raise_amount": "", "highlights": []}`}

	hints := Minimal("Jane Doe", "Acme", "pitch", "$1M", []string{"fintech"}, []Stage{StageSeed})
	profile, err := NewSummarizer(stub, nil).Summarize(context.Background(), "unhelpful deck", hints)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if profile.Company != "Acme" || profile.RaiseAmount != "$1M" {
		t.Fatalf("expected hint fallbacks, got %+v", profile)
	}
	if len(profile.Sectors) != 1 || profile.Sectors[0] != "fintech" {
		t.Fatalf("expected hint sectors, got %v", profile.Sectors)
	}
	if len(profile.Stages) != 1 || profile.Stages[0] != StageSeed {
		t.Fatalf("expected hint stages, got %v", profile.Stages)
	}
}

func TestSummarizeEmptyDeck(t *testing.T) {
	t.Parallel()

	_, err := NewSummarizer(&stubCompleter{}, nil).Summarize(context.Background(), "   ", &Profile{})

	var summaryErr *SummaryError
	if !errors.As(err, &summaryErr) || summaryErr.Reason != "empty" {
		t.Fatalf("expected an empty-deck SummaryError, got %v", err)
	}
}

func TestSummarizeUnparsableResponse(t *testing.T) {
	t.Parallel()

	stub := &stubCompleter{response: "I cannot help with that."}
	_, err := NewSummarizer(stub, nil).Summarize(context.Background(), "deck", &Profile{})

	var summaryErr *SummaryError
	if !errors.As(err, &summaryErr) || summaryErr.Reason != "unreadable" {
		t.Fatalf("expected an unreadable SummaryError, got %v", err)
	}
}
