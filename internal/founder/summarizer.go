package founder

import (
	"context"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spigell/seed-pitcher/internal/ai"
	"github.com/spigell/seed-pitcher/internal/logger"
)

// maxDeckRunes limits the amount of deck text pushed into one prompt.
const maxDeckRunes = 8000

// SummaryError reports why a pitch deck could not be summarized.
type SummaryError struct {
	Reason string // unreadable | empty
	Err    error
}

func (e *SummaryError) Error() string {
	return fmt.Sprintf("deck summary failed (%s): %v", e.Reason, e.Err)
}

func (e *SummaryError) Unwrap() error { return e.Err }

// DeckParser is the document collaborator: it turns a pitch artifact into
// plain text. PDF and slide parsing live behind this interface.
type DeckParser interface {
	Parse(ctx context.Context, path string) (string, error)
}

// TextDeckParser reads pre-extracted plain-text decks from disk.
type TextDeckParser struct{}

func (TextDeckParser) Parse(_ context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", &SummaryError{Reason: "unreadable", Err: err}
	}
	return string(data), nil
}

// Summarizer extracts a founder fact sheet from pitch deck text with one LLM
// call at run start.
type Summarizer struct {
	completer ai.Completer
	logger    *zap.Logger
}

func NewSummarizer(completer ai.Completer, log *zap.Logger) *Summarizer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Summarizer{completer: completer, logger: log}
}

const summaryPrompt = `You are an expert in analyzing startup pitch decks. I will provide you with
the text extracted from a pitch deck, and I need a structured fact sheet about
the startup.

Extracted pitch deck text:
%s

Respond with a JSON object containing the following fields:
- company: the startup name
- sectors: list of sectors/industries the startup operates in
- stages: list of funding stages being raised (e.g. "pre-seed", "seed", "series-a")
- raise_amount: the amount being raised, if mentioned
- highlights: list of up to 5 specific, compelling points (traction, team,
  market, competitive advantages) that would convince an investor to take a
  meeting. Avoid generic statements.

If the information isn't available in the text, use empty lists or empty strings.`

// Summarize builds a Profile from deck text, falling back to the hints profile
// for any field the model left empty. The hints profile is never mutated.
func (s *Summarizer) Summarize(ctx context.Context, deckText string, hints *Profile) (*Profile, error) {
	deckText = strings.TrimSpace(deckText)
	if deckText == "" {
		return nil, &SummaryError{Reason: "empty", Err: fmt.Errorf("deck text is empty")}
	}

	if utf8.RuneCountInString(deckText) > maxDeckRunes {
		deckText = string([]rune(deckText)[:maxDeckRunes])
	}

	raw, err := s.completer.Complete(ctx, fmt.Sprintf(summaryPrompt, deckText))
	if err != nil {
		return nil, &SummaryError{Reason: "unreadable", Err: err}
	}

	data, err := ai.DecodeObject(raw)
	if err != nil {
		s.logger.Warn("deck summary returned unparsable JSON",
			zap.String("response_preview", logger.TruncateForLog(raw, 200)),
			zap.Error(err),
		)
		return nil, &SummaryError{Reason: "unreadable", Err: err}
	}

	profile := &Profile{
		Name:          hints.Name,
		Company:       ai.CoerceString(data["company"]),
		ElevatorPitch: hints.ElevatorPitch,
		Sectors:       ai.CoerceStringSlice(data["sectors"]),
		RaiseAmount:   ai.CoerceString(data["raise_amount"]),
		Highlights:    ai.CoerceStringSlice(data["highlights"]),
	}

	for _, name := range ai.CoerceStringSlice(data["stages"]) {
		stage, err := ParseStage(name)
		if err != nil {
			s.logger.Debug("dropping unknown stage from deck summary", zap.String("stage", name))
			continue
		}
		profile.Stages = append(profile.Stages, stage)
	}

	if profile.Company == "" {
		profile.Company = hints.Company
	}
	if len(profile.Sectors) == 0 {
		profile.Sectors = hints.Sectors
	}
	if len(profile.Stages) == 0 {
		profile.Stages = hints.Stages
	}
	if profile.RaiseAmount == "" {
		profile.RaiseAmount = hints.RaiseAmount
	}

	s.logger.Info("pitch deck summarized",
		zap.String("company", profile.Company),
		zap.Strings("sectors", profile.Sectors),
		zap.Int("highlights", len(profile.Highlights)),
	)

	return profile, nil
}
