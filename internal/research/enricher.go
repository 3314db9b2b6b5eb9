package research

import (
	"context"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spigell/seed-pitcher/internal/ai"
	"github.com/spigell/seed-pitcher/internal/linkedin"
	"github.com/spigell/seed-pitcher/internal/retry"
)

// maxCorpusRunes limits the search corpus pushed into the extraction prompt.
const maxCorpusRunes = 10000

// Enricher gathers public information about a candidate and condenses it into
// an InvestorDossier. It is the most failure-prone stage: every external call
// is retried with backoff, and an exhausted budget yields a degraded dossier
// instead of failing the candidate.
type Enricher struct {
	completer ai.Completer
	searcher  Searcher
	policy    retry.Policy
	logger    *zap.Logger
}

func NewEnricher(completer ai.Completer, searcher Searcher, policy retry.Policy, logger *zap.Logger) *Enricher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Enricher{
		completer: completer,
		searcher:  searcher,
		policy:    policy,
		logger:    logger,
	}
}

const analysisPrompt = `You are an expert in analyzing LinkedIn profiles to identify investors.

Please analyze the following LinkedIn profile information and determine if this
person is likely an investor (e.g. venture capitalist, angel investor,
investment manager, etc.).

Profile data:
%s

Respond with a JSON object containing the following fields:
- is_investor: boolean indicating if this person is likely an investor
- investor_type: string (e.g. "VC", "Angel", "LP", etc.) if is_investor is true
- confidence: number between 0 and 1 indicating your confidence
- fund_name: string with the fund name if available
- investment_focus: list of strings representing investment focus areas
- reasoning: string explaining your analysis`

const extractionPrompt = `You are an expert in analyzing information about investors. I will provide you
with text from web search results about an investor, and I need you to extract
key information about them.

Investor name: %s
Company/Fund: %s

Web search results:
%s

Based on these search results, extract the following information in JSON format:
- recent_investments: a list of objects {company, sector, stage, year} for the
  investor's most recent investments, ordered most recent first
- investment_stages: a list of stages they focus on (e.g. "seed", "series-a")
- investment_sectors: a list of sectors/industries they invest in
- summary: a short free-text summary of their investing behavior

If the information isn't available in the search results, use empty lists or
empty strings.`

// Enrich produces a dossier revision for the candidate. A fatal credential or
// quota failure returns *EnrichmentError; any other failure mode resolves to a
// degraded-but-present dossier so one flaky lookup never blocks the queue.
func (e *Enricher) Enrich(ctx context.Context, candidate *linkedin.Candidate, revision int) (*InvestorDossier, error) {
	dossier := &InvestorDossier{
		CandidateID: candidate.ID,
		Revision:    revision,
	}

	analysis, err := e.analyzeProfile(ctx, candidate, dossier)
	if err != nil {
		if fatal := asFatal(err); fatal != nil {
			return nil, fatal
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		e.logger.Warn("profile analysis exhausted retries, producing degraded dossier",
			zap.String("candidate_id", candidate.ID),
			zap.Error(err),
		)
		dossier.Degraded = true
		dossier.Confidence = 0
		return dossier, nil
	}

	dossier.IsInvestor = ai.CoerceBool(analysis["is_investor"])
	dossier.InvestorType = ai.CoerceString(analysis["investor_type"])
	dossier.FundName = ai.CoerceString(analysis["fund_name"])
	dossier.FocusSectors = ai.CoerceStringSlice(analysis["investment_focus"])
	dossier.Summary = ai.CoerceString(analysis["reasoning"])

	if confidence := ai.CoerceFloat(analysis["confidence"]); !math.IsNaN(confidence) {
		dossier.Confidence = math.Min(math.Max(confidence, 0), 1)
	}

	if !dossier.IsInvestor {
		e.logger.Info("candidate analyzed as non-investor",
			zap.String("candidate_id", candidate.ID),
			zap.Float64("confidence", dossier.Confidence),
		)
		return dossier, nil
	}

	corpus, err := e.searchCorpus(ctx, candidate, dossier)
	if err != nil {
		if fatal := asFatal(err); fatal != nil {
			return nil, fatal
		}
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	if corpus == "" {
		dossier.Degraded = true
		return dossier, nil
	}

	if err := e.extractFromCorpus(ctx, candidate, dossier, corpus); err != nil {
		if fatal := asFatal(err); fatal != nil {
			return nil, fatal
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		e.logger.Warn("corpus extraction exhausted retries, keeping analysis-only dossier",
			zap.String("candidate_id", candidate.ID),
			zap.Error(err),
		)
		dossier.Degraded = true
	}

	return dossier, nil
}

func (e *Enricher) analyzeProfile(ctx context.Context, candidate *linkedin.Candidate, dossier *InvestorDossier) (map[string]any, error) {
	prompt := fmt.Sprintf(analysisPrompt, candidate.RawProfile)

	var analysis map[string]any
	err := retry.Do(ctx, e.policy, e.logger, "profile analysis", func(ctx context.Context) error {
		dossier.SourceCalls++

		raw, err := e.completer.Complete(ctx, prompt)
		if err != nil {
			return markFatal(err)
		}

		analysis, err = ai.DecodeObject(raw)
		return err
	})
	if err != nil {
		return nil, err
	}

	return analysis, nil
}

// searchCorpus runs the three standard queries and joins whatever succeeded.
// Individual query failures are tolerated; a fully empty corpus degrades the
// dossier at the call site. Auth/quota failures and cancellation abort.
func (e *Enricher) searchCorpus(ctx context.Context, candidate *linkedin.Candidate, dossier *InvestorDossier) (string, error) {
	firm := dossier.FundName
	if firm == "" {
		firm = candidate.Company
	}

	queries := []string{
		fmt.Sprintf("%s %s recent investments", candidate.Name, firm),
		fmt.Sprintf("%s portfolio companies", firm),
		fmt.Sprintf("%s investor profile angel vc", candidate.Name),
	}

	var corpus strings.Builder
	for _, query := range queries {
		if strings.TrimSpace(query) == "" {
			continue
		}

		var results []SearchResult
		err := retry.Do(ctx, e.policy, e.logger, "investor search", func(ctx context.Context) error {
			dossier.SourceCalls++

			var err error
			results, err = e.searcher.Search(ctx, query)
			return markFatal(err)
		})
		if err != nil {
			if asFatal(err) != nil {
				return "", err
			}
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			e.logger.Warn("investor search exhausted retries",
				zap.String("candidate_id", candidate.ID),
				zap.String("query", query),
				zap.Error(err),
			)
			continue
		}

		for _, result := range results {
			if result.Content == "" {
				continue
			}
			corpus.WriteString(result.Content)
			corpus.WriteString("\n")
		}
	}

	text := corpus.String()
	if utf8.RuneCountInString(text) > maxCorpusRunes {
		text = string([]rune(text)[:maxCorpusRunes])
	}

	return strings.TrimSpace(text), nil
}

func (e *Enricher) extractFromCorpus(ctx context.Context, candidate *linkedin.Candidate, dossier *InvestorDossier, corpus string) error {
	firm := dossier.FundName
	if firm == "" {
		firm = candidate.Company
	}
	prompt := fmt.Sprintf(extractionPrompt, candidate.Name, firm, corpus)

	var extracted map[string]any
	err := retry.Do(ctx, e.policy, e.logger, "corpus extraction", func(ctx context.Context) error {
		dossier.SourceCalls++

		raw, err := e.completer.Complete(ctx, prompt)
		if err != nil {
			return markFatal(err)
		}

		extracted, err = ai.DecodeObject(raw)
		return err
	})
	if err != nil {
		return err
	}

	if items, ok := extracted["recent_investments"].([]any); ok {
		for _, item := range items {
			entry, ok := item.(map[string]any)
			if !ok {
				continue
			}

			investment := Investment{
				Company: ai.CoerceString(entry["company"]),
				Sector:  ai.CoerceString(entry["sector"]),
				Stage:   ai.CoerceString(entry["stage"]),
				Year:    ai.CoerceInt(entry["year"]),
			}
			if investment.Company == "" {
				continue
			}
			dossier.Investments = append(dossier.Investments, investment)
		}
	}

	dossier.FocusStages = ai.CoerceStringSlice(extracted["investment_stages"])

	if sectors := ai.CoerceStringSlice(extracted["investment_sectors"]); len(sectors) > 0 {
		dossier.FocusSectors = mergeUnique(dossier.FocusSectors, sectors)
	}

	if summary := ai.CoerceString(extracted["summary"]); summary != "" {
		dossier.Summary = summary
	}

	e.logger.Info("dossier assembled",
		zap.String("candidate_id", candidate.ID),
		zap.Int("investments", len(dossier.Investments)),
		zap.Int("source_calls", dossier.SourceCalls),
	)

	return nil
}

// markFatal promotes auth/quota failures to permanent so the retry helper
// stops burning the attempt budget on them.
func markFatal(err error) error {
	if err == nil {
		return nil
	}
	if ai.IsFatal(err) {
		return retry.Permanent(err)
	}
	return err
}

func asFatal(err error) *EnrichmentError {
	if err == nil || !ai.IsFatal(err) {
		return nil
	}

	reason := "auth"
	if ai.KindOf(err) == ai.KindQuota {
		reason = "quota-exhausted"
	}

	return &EnrichmentError{Reason: reason, Err: err}
}

func mergeUnique(existing, extra []string) []string {
	seen := make(map[string]struct{}, len(existing))
	for _, s := range existing {
		seen[strings.ToLower(s)] = struct{}{}
	}

	merged := existing
	for _, s := range extra {
		if _, ok := seen[strings.ToLower(s)]; ok {
			continue
		}
		seen[strings.ToLower(s)] = struct{}{}
		merged = append(merged, s)
	}
	return merged
}
