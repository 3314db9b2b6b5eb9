package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/seed-pitcher/internal/drafting"
	"github.com/spigell/seed-pitcher/internal/founder"
	"github.com/spigell/seed-pitcher/internal/linkedin"
	"github.com/spigell/seed-pitcher/internal/logger"
	"github.com/spigell/seed-pitcher/internal/research"
	"github.com/spigell/seed-pitcher/internal/scoring"
)

// Extractor fills a bare candidate with its full profile snapshot.
type Extractor interface {
	FromURL(ctx context.Context, rawURL string) (*linkedin.Candidate, error)
}

// Enricher produces a dossier revision for an extracted candidate.
type Enricher interface {
	Enrich(ctx context.Context, candidate *linkedin.Candidate, revision int) (*research.InvestorDossier, error)
}

// Scorer computes the deterministic fit score and carries the skip threshold.
type Scorer interface {
	Score(profile *founder.Profile, dossier *research.InvestorDossier) scoring.FitScore
	Threshold() float64
}

// Drafter writes the outreach message for a candidate above threshold.
type Drafter interface {
	Draft(ctx context.Context, profile *founder.Profile, candidate *linkedin.Candidate, dossier *research.InvestorDossier, score scoring.FitScore) (*drafting.DraftMessage, error)
}

// ConversationSource fetches previous messages with a profile so the review
// surface can warn about prior contact. Optional.
type ConversationSource interface {
	Conversation(ctx context.Context, profileURL string) ([]string, error)
}

// Store persists run state. Every record mutation is written through before
// the controller moves on, so a crash at any point resumes cleanly.
type Store interface {
	CreateRun(ctx context.Context, run *RunState) error
	SaveRecord(ctx context.Context, runID string, cursor int, record *Record) error
	SaveCursor(ctx context.Context, runID string, cursor int) error
	LoadRun(ctx context.Context, runID string) (*RunState, error)
}

// RunState is everything the controller needs to pick a run back up.
type RunState struct {
	RunID   string           `json:"run_id"`
	Founder *founder.Profile `json:"founder"`
	// Queue holds candidate IDs in discovery order. Processing is strictly
	// FIFO; Cursor points at the first record that may still need work.
	Queue     []string           `json:"queue"`
	Cursor    int                `json:"cursor"`
	Records   map[string]*Record `json:"records"`
	StartedAt time.Time          `json:"started_at"`
}

// Review is one draft presented to the operator for a decision.
type Review struct {
	Record *Record
	// PreviousContact holds earlier message bodies with this candidate, if
	// the browsing session could fetch them.
	PreviousContact []string
}

// ErrNoRun is returned by operations that need an active run.
var ErrNoRun = errors.New("no active run")

// Controller drives candidates through the stage machine one at a time and
// stops at every draft for an operator decision. It is not safe for
// concurrent use; the browsing session underneath is a single tab anyway.
type Controller struct {
	store         Store
	extractor     Extractor
	enricher      Enricher
	scorer        Scorer
	drafter       Drafter
	conversations ConversationSource
	logger        *zap.Logger

	run *RunState
}

// Deps collects the controller's collaborators. Conversations may be nil.
type Deps struct {
	Store         Store
	Extractor     Extractor
	Enricher      Enricher
	Scorer        Scorer
	Drafter       Drafter
	Conversations ConversationSource
	Logger        *zap.Logger
}

func New(deps Deps) (*Controller, error) {
	if deps.Store == nil || deps.Extractor == nil || deps.Enricher == nil || deps.Scorer == nil || deps.Drafter == nil {
		return nil, errors.New("store, extractor, enricher, scorer and drafter are all required")
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	return &Controller{
		store:         deps.Store,
		extractor:     deps.Extractor,
		enricher:      deps.Enricher,
		scorer:        deps.Scorer,
		drafter:       deps.Drafter,
		conversations: deps.Conversations,
		logger:        deps.Logger,
	}, nil
}

// StartRun seeds a new run from the discovered candidates. Duplicate
// canonical IDs collapse into one record; order of first discovery wins.
func (c *Controller) StartRun(ctx context.Context, profile *founder.Profile, candidates []*linkedin.Candidate) (string, error) {
	if profile == nil {
		return "", errors.New("founder profile is required")
	}
	if len(candidates) == 0 {
		return "", errors.New("no candidates to process")
	}

	run := &RunState{
		RunID:     uuid.NewString(),
		Founder:   profile,
		Records:   make(map[string]*Record, len(candidates)),
		StartedAt: time.Now().UTC(),
	}

	for _, candidate := range candidates {
		if candidate == nil || candidate.ID == "" {
			continue
		}
		if _, dup := run.Records[candidate.ID]; dup {
			c.logger.Debug("duplicate candidate collapsed", logger.Candidate(candidate.ID))
			continue
		}
		run.Queue = append(run.Queue, candidate.ID)
		run.Records[candidate.ID] = newRecord(candidate)
	}

	if len(run.Queue) == 0 {
		return "", errors.New("no usable candidates to process")
	}

	if err := c.store.CreateRun(ctx, run); err != nil {
		return "", fmt.Errorf("persist new run: %w", err)
	}

	c.run = run
	c.logger.Info("run started",
		logger.Run(run.RunID),
		zap.Int("candidates", len(run.Queue)),
	)
	return run.RunID, nil
}

// Resume loads a persisted run and continues from its cursor. Records caught
// mid-stage by a crash simply redo that stage; every stage is idempotent from
// the record's point of view.
func (c *Controller) Resume(ctx context.Context, runID string) error {
	run, err := c.store.LoadRun(ctx, runID)
	if err != nil {
		return fmt.Errorf("load run %s: %w", runID, err)
	}

	c.run = run
	c.logger.Info("run resumed",
		logger.Run(run.RunID),
		zap.Int("cursor", run.Cursor),
		zap.Int("candidates", len(run.Queue)),
	)
	return nil
}

// RunID returns the active run's ID, or "".
func (c *Controller) RunID() string {
	if c.run == nil {
		return ""
	}
	return c.run.RunID
}

// Next advances the queue until a draft is ready for review or the queue is
// drained. A drained queue returns (nil, nil). Fatal enrichment failures
// (credentials, exhausted quota) abort the run with untouched records still
// queued for a later resume.
func (c *Controller) Next(ctx context.Context) (*Review, error) {
	if c.run == nil {
		return nil, ErrNoRun
	}

	for c.run.Cursor < len(c.run.Queue) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		record := c.run.Records[c.run.Queue[c.run.Cursor]]
		if record == nil {
			return nil, fmt.Errorf("run %s: no record for queued candidate %s", c.run.RunID, c.run.Queue[c.run.Cursor])
		}

		if record.Terminal() {
			c.run.Cursor++
			if err := c.store.SaveCursor(ctx, c.run.RunID, c.run.Cursor); err != nil {
				return nil, fmt.Errorf("persist cursor: %w", err)
			}
			continue
		}

		if record.Stage == StageAwaitingReview {
			return c.buildReview(ctx, record), nil
		}

		c.logger.Debug("processing",
			logger.Run(c.run.RunID),
			logger.Candidate(record.CandidateID),
			logger.Stage(string(record.Stage)),
		)

		review, err := c.step(ctx, record)
		if err != nil {
			return nil, err
		}
		if review != nil {
			return review, nil
		}
	}

	return nil, nil
}

// step performs exactly one stage transition for the record and persists the
// result. It returns a non-nil review once the record reaches the gate.
func (c *Controller) step(ctx context.Context, record *Record) (*Review, error) {
	switch record.Stage {
	case StageQueued:
		if err := record.AdvanceTo(StageExtracting); err != nil {
			return nil, err
		}
		return nil, c.persist(ctx, record)

	case StageExtracting:
		return nil, c.extract(ctx, record)

	case StageEnriching:
		return nil, c.enrich(ctx, record)

	case StageScoring:
		return nil, c.score(ctx, record)

	case StageDrafting:
		return c.draft(ctx, record)

	default:
		return nil, fmt.Errorf("record %s in unexpected stage %s", record.CandidateID, record.Stage)
	}
}

func (c *Controller) extract(ctx context.Context, record *Record) error {
	if !record.Candidate.Extracted() {
		record.Attempts++
		candidate, err := c.extractor.FromURL(ctx, record.CandidateID)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Warn("extraction failed",
				logger.Run(c.run.RunID),
				logger.Candidate(record.CandidateID),
				zap.Error(err),
			)
			record.fail(err)
			return c.persist(ctx, record)
		}
		record.Candidate = candidate
	}

	if err := record.AdvanceTo(StageEnriching); err != nil {
		return err
	}
	return c.persist(ctx, record)
}

func (c *Controller) enrich(ctx context.Context, record *Record) error {
	record.Attempts++
	dossier, err := c.enricher.Enrich(ctx, record.Candidate, len(record.Dossiers)+1)
	if err != nil {
		var fatal *research.EnrichmentError
		if errors.As(err, &fatal) {
			// Credentials or quota are gone; nothing downstream can work.
			// The record stays where it is so a resume retries it.
			c.logger.Error("enrichment hit a fatal provider failure, halting run",
				logger.Run(c.run.RunID),
				logger.Candidate(record.CandidateID),
				zap.String("reason", fatal.Reason),
			)
			if perr := c.persist(ctx, record); perr != nil {
				return perr
			}
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		c.logger.Warn("enrichment failed",
			logger.Run(c.run.RunID),
			logger.Candidate(record.CandidateID),
			zap.Error(err),
		)
		record.fail(err)
		return c.persist(ctx, record)
	}

	record.Dossiers = append(record.Dossiers, dossier)
	if err := record.AdvanceTo(StageScoring); err != nil {
		return err
	}
	return c.persist(ctx, record)
}

func (c *Controller) score(ctx context.Context, record *Record) error {
	score := c.scorer.Score(c.run.Founder, record.Dossier())
	record.Score = &score

	if !score.MeetsThreshold {
		c.logger.Info("candidate below threshold, skipped",
			logger.Run(c.run.RunID),
			logger.Candidate(record.CandidateID),
			zap.Float64("score", score.Total),
			zap.Float64("threshold", c.scorer.Threshold()),
		)
		record.skip(fmt.Sprintf("score %.2f below threshold %.2f", score.Total, c.scorer.Threshold()))
		return c.persist(ctx, record)
	}

	if err := record.AdvanceTo(StageDrafting); err != nil {
		return err
	}
	return c.persist(ctx, record)
}

func (c *Controller) draft(ctx context.Context, record *Record) (*Review, error) {
	record.Attempts++
	draft, err := c.drafter.Draft(ctx, c.run.Founder, record.Candidate, record.Dossier(), *record.Score)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.logger.Warn("drafting failed",
			logger.Run(c.run.RunID),
			logger.Candidate(record.CandidateID),
			zap.Error(err),
		)
		record.fail(err)
		return nil, c.persist(ctx, record)
	}

	record.Drafts = append(record.Drafts, draft)
	if err := record.AdvanceTo(StageAwaitingReview); err != nil {
		return nil, err
	}
	if err := c.persist(ctx, record); err != nil {
		return nil, err
	}

	return c.buildReview(ctx, record), nil
}

// SubmitDecision applies the operator's decision to the record under review.
// Edit keeps the record at the gate with a new draft revision and returns the
// updated review; terminal decisions return nil.
func (c *Controller) SubmitDecision(ctx context.Context, candidateID string, decision Decision) (*Review, error) {
	if c.run == nil {
		return nil, ErrNoRun
	}

	record, ok := c.run.Records[candidateID]
	if !ok {
		return nil, fmt.Errorf("run %s has no record for %s", c.run.RunID, candidateID)
	}
	if record.Stage != StageAwaitingReview || record.Terminal() {
		return nil, fmt.Errorf("record %s is not awaiting review (stage %s, disposition %s)",
			candidateID, record.Stage, record.Disposition)
	}

	switch decision.Action {
	case ActionApprove:
		record.decide(DispositionApproved, decision)

	case ActionReject:
		record.decide(DispositionRejected, decision)

	case ActionSkip:
		record.decide(DispositionSkipped, decision)

	case ActionEdit:
		body := strings.TrimSpace(decision.EditedBody)
		if body == "" {
			return nil, errors.New("edited draft body is empty")
		}
		previous := record.Draft()
		record.Drafts = append(record.Drafts, &drafting.DraftMessage{
			Body:       body,
			CitedFacts: previous.CitedFacts,
			Revision:   previous.Revision + 1,
		})
		record.UpdatedAt = time.Now().UTC()

	default:
		return nil, fmt.Errorf("unknown review action %q", decision.Action)
	}

	if err := c.persist(ctx, record); err != nil {
		return nil, err
	}

	c.logger.Info("review decision recorded",
		logger.Run(c.run.RunID),
		logger.Candidate(candidateID),
		zap.String("action", string(decision.Action)),
	)

	if decision.Action == ActionEdit {
		return c.buildReview(ctx, record), nil
	}
	return nil, nil
}

// Summary counts records per disposition, with in-flight pending records
// broken out by stage.
func (c *Controller) Summary() (map[Disposition]int, map[Stage]int, error) {
	if c.run == nil {
		return nil, nil, ErrNoRun
	}

	dispositions := make(map[Disposition]int)
	stages := make(map[Stage]int)
	for _, record := range c.run.Records {
		dispositions[record.Disposition]++
		if !record.Terminal() {
			stages[record.Stage]++
		}
	}
	return dispositions, stages, nil
}

// Records returns the run's records in queue order.
func (c *Controller) Records() []*Record {
	if c.run == nil {
		return nil
	}
	records := make([]*Record, 0, len(c.run.Queue))
	for _, id := range c.run.Queue {
		records = append(records, c.run.Records[id])
	}
	return records
}

func (c *Controller) buildReview(ctx context.Context, record *Record) *Review {
	review := &Review{Record: record}

	if c.conversations != nil {
		previous, err := c.conversations.Conversation(ctx, record.CandidateID)
		if err != nil {
			c.logger.Debug("previous conversation lookup failed",
				logger.Candidate(record.CandidateID),
				zap.Error(err),
			)
		} else {
			review.PreviousContact = previous
		}
	}

	return review
}

func (c *Controller) persist(ctx context.Context, record *Record) error {
	if err := c.store.SaveRecord(ctx, c.run.RunID, c.run.Cursor, record); err != nil {
		return fmt.Errorf("persist record %s: %w", record.CandidateID, err)
	}
	return nil
}
