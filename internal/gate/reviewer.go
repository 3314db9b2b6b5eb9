package gate

import (
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"
	"go.uber.org/zap"

	"github.com/spigell/seed-pitcher/internal/pipeline"
)

const (
	PromptApprove = "Approve"
	PromptEdit    = "Edit"
	PromptReject  = "Reject"
	PromptSkip    = "Skip"

	// previewRunes bounds how much of a previous message is shown.
	previewRunes = 120
)

// Reviewer is the interactive Human Gate. It renders one draft with its
// supporting evidence and collects an explicit operator decision.
type Reviewer struct {
	logger *zap.Logger
}

func NewReviewer(logger *zap.Logger) *Reviewer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reviewer{logger: logger}
}

// Decide shows the review and blocks until the operator picks an action.
func (r *Reviewer) Decide(review *pipeline.Review) (pipeline.Decision, error) {
	r.render(review)

	prompt := promptui.Select{
		Label: fmt.Sprintf("Draft for %s", review.Record.Candidate.Name),
		Items: []string{PromptApprove, PromptEdit, PromptReject, PromptSkip},
	}

	_, action, err := prompt.Run()
	if err != nil {
		return pipeline.Decision{}, fmt.Errorf("review prompt: %w", err)
	}

	switch action {
	case PromptApprove:
		return pipeline.Decision{Action: pipeline.ActionApprove}, nil
	case PromptReject:
		return pipeline.Decision{Action: pipeline.ActionReject}, nil
	case PromptSkip:
		return pipeline.Decision{Action: pipeline.ActionSkip}, nil
	case PromptEdit:
		body, err := r.edit(review.Record.Draft().Body)
		if err != nil {
			return pipeline.Decision{}, err
		}
		return pipeline.Decision{Action: pipeline.ActionEdit, EditedBody: body}, nil
	default:
		return pipeline.Decision{}, fmt.Errorf("invalid action: %s", action)
	}
}

func (r *Reviewer) edit(body string) (string, error) {
	prompt := promptui.Prompt{
		Label:     "Edit the draft and press ENTER",
		Default:   body,
		AllowEdit: true,
		Validate: func(input string) error {
			if strings.TrimSpace(input) == "" {
				return fmt.Errorf("draft cannot be empty")
			}
			return nil
		},
	}

	edited, err := prompt.Run()
	if err != nil {
		return "", fmt.Errorf("edit prompt: %w", err)
	}
	return strings.TrimSpace(edited), nil
}

// render prints the draft and the evidence behind it. Output goes straight to
// stdout like the prompts themselves; this is the interactive surface, not a
// log stream.
func (r *Reviewer) render(review *pipeline.Review) {
	record := review.Record
	dossier := record.Dossier()
	draft := record.Draft()

	fmt.Println()
	fmt.Println(strings.Repeat("=", 72))
	fmt.Printf("Candidate: %s\n", record.Candidate.Name)
	fmt.Printf("Profile:   %s\n", record.CandidateID)
	if record.Candidate.Headline != "" {
		fmt.Printf("Headline:  %s\n", record.Candidate.Headline)
	}

	if dossier != nil {
		fmt.Printf("Investor:  %s (confidence %.2f)\n", dossier.InvestorType, dossier.Confidence)
		if dossier.FundName != "" {
			fmt.Printf("Fund:      %s\n", dossier.FundName)
		}
		if len(dossier.FocusSectors) > 0 {
			fmt.Printf("Focus:     %s\n", strings.Join(dossier.FocusSectors, ", "))
		}
		for _, investment := range dossier.Investments {
			fmt.Printf("  - %s", investment.Company)
			if investment.Sector != "" {
				fmt.Printf(" (%s", investment.Sector)
				if investment.Stage != "" {
					fmt.Printf(", %s", investment.Stage)
				}
				fmt.Print(")")
			}
			fmt.Println()
		}
		if dossier.Degraded {
			fmt.Println("NOTE: research was incomplete, dossier fields are best-effort")
		}
	}

	if record.Score != nil {
		fmt.Printf("Score:     %.2f (%s)\n", record.Score.Total, record.Score.Rationale)
	}

	if len(review.PreviousContact) > 0 {
		fmt.Printf("WARNING: %d previous message(s) with this person:\n", len(review.PreviousContact))
		for _, message := range review.PreviousContact {
			fmt.Printf("  > %s\n", truncate(message, previewRunes))
		}
	}

	fmt.Println(strings.Repeat("-", 72))
	fmt.Printf("Draft (revision %d, cites: %s):\n\n", draft.Revision, strings.Join(draft.CitedFacts, ", "))
	fmt.Println(draft.Body)
	fmt.Println(strings.Repeat("=", 72))
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
