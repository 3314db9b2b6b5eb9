package drafting

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/seed-pitcher/internal/ai"
	"github.com/spigell/seed-pitcher/internal/founder"
	"github.com/spigell/seed-pitcher/internal/linkedin"
	"github.com/spigell/seed-pitcher/internal/research"
	"github.com/spigell/seed-pitcher/internal/scoring"
)

// DraftMessage is outreach text awaiting operator review. It is never sent by
// this system; delivery is a manual step outside of it.
type DraftMessage struct {
	Body string `json:"body"`
	// CitedFacts lists the dossier facts the body references, proving the
	// draft is personalized rather than generic.
	CitedFacts []string `json:"cited_facts"`
	// Revision starts at 1 and increments on every operator edit.
	Revision int `json:"revision"`
}

// DraftError reports that no acceptable draft could be produced.
type DraftError struct {
	Reason string // generation-failed
	Err    error
}

func (e *DraftError) Error() string {
	return fmt.Sprintf("draft failed (%s): %v", e.Reason, e.Err)
}

func (e *DraftError) Unwrap() error { return e.Err }

// Drafter writes a personalized outreach message per candidate.
type Drafter struct {
	completer ai.Completer
	logger    *zap.Logger
}

func NewDrafter(completer ai.Completer, logger *zap.Logger) *Drafter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Drafter{completer: completer, logger: logger}
}

const draftPrompt = `You are an expert in crafting effective fundraising messages for startups to
send to potential investors. Draft a personalized LinkedIn message from a
startup founder to a potential investor.

### Investor Information:
- Name: %s
- Current position: %s
- Fund/Company: %s
- Investment focus: %s
- Recent investments: %s

### Startup Information:
- Founder: %s
- Company: %s
- Elevator pitch: %s
- Key highlight: %s
- Raising: %s

Draft a personalized, concise LinkedIn message (max 300 words) that:
1. Establishes a personal connection if possible
2. Briefly introduces the startup and its value proposition
3. Explains why this specific investor would be interested, naming at least one
   of their investments or their fund by name
4. Mentions the highlight above
5. Requests a brief call to discuss further
6. Maintains a professional but conversational tone

IMPORTANT GUIDELINES:
- Keep it brief and to the point
- Don't oversell or use hyperbole
- Don't attach any files or suggest sharing documents yet
- Respond with the message text only, no preamble or subject line

The message should feel like it was written specifically for this investor, not
a template.%s`

const citationReminder = `

Your previous attempt did not name any of the investor's known investments or
their fund. You MUST reference at least one of them by name.`

// Draft produces a message citing at least one concrete dossier fact. A draft
// with no citation gets one corrective regeneration before failing.
func (d *Drafter) Draft(ctx context.Context, profile *founder.Profile, candidate *linkedin.Candidate, dossier *research.InvestorDossier, score scoring.FitScore) (*DraftMessage, error) {
	facts := dossierFacts(dossier)
	if len(facts) == 0 {
		return nil, &DraftError{
			Reason: "generation-failed",
			Err:    fmt.Errorf("dossier for %s holds no citable facts", dossier.CandidateID),
		}
	}

	prompt := d.buildPrompt(profile, candidate, dossier, score, "")

	for attempt := 1; attempt <= 2; attempt++ {
		body, err := d.completer.Complete(ctx, prompt)
		if err != nil {
			return nil, &DraftError{Reason: "generation-failed", Err: err}
		}

		body = strings.TrimSpace(body)
		cited := citedFacts(body, facts)
		if len(cited) > 0 {
			d.logger.Debug("draft accepted",
				zap.String("candidate_id", dossier.CandidateID),
				zap.Int("attempt", attempt),
				zap.Strings("cited_facts", cited),
			)
			return &DraftMessage{Body: body, CitedFacts: cited, Revision: 1}, nil
		}

		d.logger.Warn("draft cited no dossier facts, regenerating",
			zap.String("candidate_id", dossier.CandidateID),
			zap.Int("attempt", attempt),
		)
		prompt = d.buildPrompt(profile, candidate, dossier, score, citationReminder)
	}

	return nil, &DraftError{
		Reason: "generation-failed",
		Err:    fmt.Errorf("draft for %s cited no dossier facts after regeneration", dossier.CandidateID),
	}
}

func (d *Drafter) buildPrompt(profile *founder.Profile, candidate *linkedin.Candidate, dossier *research.InvestorDossier, score scoring.FitScore, extra string) string {
	investments := make([]string, 0, 3)
	for i, investment := range dossier.Investments {
		if i == 3 {
			break
		}
		investments = append(investments, investment.Company)
	}

	return fmt.Sprintf(draftPrompt,
		candidate.Name,
		candidate.Headline,
		dossier.FundName,
		strings.Join(dossier.FocusSectors, ", "),
		strings.Join(investments, ", "),
		profile.Name,
		profile.Company,
		profile.ElevatorPitch,
		relevantHighlight(profile, score),
		profile.RaiseAmount,
		extra,
	)
}

// relevantHighlight picks the founder highlight closest to the matched
// sectors, falling back to the first one.
func relevantHighlight(profile *founder.Profile, score scoring.FitScore) string {
	if len(profile.Highlights) == 0 {
		return profile.ElevatorPitch
	}

	if score.SectorMatch > 0 {
		for _, highlight := range profile.Highlights {
			lower := strings.ToLower(highlight)
			for _, sector := range profile.Sectors {
				if strings.Contains(lower, strings.ToLower(sector)) {
					return highlight
				}
			}
		}
	}

	return profile.Highlights[0]
}

func dossierFacts(dossier *research.InvestorDossier) []string {
	facts := make([]string, 0, len(dossier.Investments)+1)
	if dossier.FundName != "" {
		facts = append(facts, dossier.FundName)
	}
	for _, investment := range dossier.Investments {
		if investment.Company != "" {
			facts = append(facts, investment.Company)
		}
	}
	return facts
}

func citedFacts(body string, facts []string) []string {
	lower := strings.ToLower(body)

	var cited []string
	for _, fact := range facts {
		if strings.Contains(lower, strings.ToLower(fact)) {
			cited = append(cited, fact)
		}
	}
	return cited
}
