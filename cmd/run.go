package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/seed-pitcher/internal/ai"
	"github.com/spigell/seed-pitcher/internal/ai/gemini"
	"github.com/spigell/seed-pitcher/internal/drafting"
	"github.com/spigell/seed-pitcher/internal/founder"
	"github.com/spigell/seed-pitcher/internal/gate"
	"github.com/spigell/seed-pitcher/internal/linkedin"
	"github.com/spigell/seed-pitcher/internal/logger"
	"github.com/spigell/seed-pitcher/internal/pipeline"
	"github.com/spigell/seed-pitcher/internal/research"
	"github.com/spigell/seed-pitcher/internal/retry"
	"github.com/spigell/seed-pitcher/internal/scoring"
	"github.com/spigell/seed-pitcher/internal/secrets"
	"github.com/spigell/seed-pitcher/internal/store"
)

const stateDBFile = "seed-pitcher.db"

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the seed-pitcher main command",
	Run: func(cmd *cobra.Command, _ []string) {
		run(cmd)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().IntP("max-pages", "p", 0, "maximum connection pages to enumerate")
	runCmd.Flags().StringP("state-dir", "s", "", "directory for the run state database. Default is the current directory.")

	viper.BindPFlag("browser.max-pages", runCmd.Flags().Lookup("max-pages"))
	viper.BindPFlag("state-dir", runCmd.Flags().Lookup("state-dir"))
}

// run is the main command for the cli.
func run(_ *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the seed-pitcher", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	if config == nil {
		logger.Fatal("config is required")
	}
	if config.Founder == nil || config.Founder.Name == "" {
		logger.Fatal("founder name is required under the founder section")
	}

	deps, cleanup := buildDeps(ctx, config, logger)
	defer cleanup()

	profile := buildFounderProfile(ctx, config, deps.completer, logger)

	candidates := discoverCandidates(ctx, config, deps.extractor, logger)
	if len(candidates) == 0 {
		logger.Info("exiting", zap.String("reason", "no candidates found"))
		return
	}

	controller, err := pipeline.New(pipeline.Deps{
		Store:         deps.store,
		Extractor:     deps.extractor,
		Enricher:      deps.enricher,
		Scorer:        deps.scorer,
		Drafter:       deps.drafter,
		Conversations: deps.browser,
		Logger:        logger,
	})
	if err != nil {
		logger.Fatal("building the pipeline", zap.Error(err))
	}

	runID, err := controller.StartRun(ctx, profile, candidates)
	if err != nil {
		logger.Fatal("starting the run", zap.Error(err))
	}

	logger.Info("run can be resumed later", zap.String("hint", fmt.Sprintf("%s resume %s", app, runID)))

	if err := reviewLoop(ctx, controller, gate.NewReviewer(logger), logger); err != nil {
		logger.Fatal("run aborted", zap.Error(err))
	}

	finish(controller, logger)
}

// runtimeDeps bundles everything the pipeline needs, built once per command.
type runtimeDeps struct {
	completer ai.Completer
	browser   *linkedin.Client
	extractor *linkedin.Extractor
	enricher  *research.Enricher
	scorer    *scoring.Scorer
	drafter   *drafting.Drafter
	store     *store.SQLiteStore
}

func buildDeps(ctx context.Context, config *Config, logger *zap.Logger) (*runtimeDeps, func()) {
	completer, err := newCompleter(ctx, config.AI, logger)
	if err != nil {
		logger.Fatal("building the ai client", zap.Error(err))
	}

	browserURL := ""
	maxRetries := 0
	if config.Browser != nil {
		browserURL = config.Browser.URL
	}
	if config.Research != nil {
		maxRetries = config.Research.MaxRetries
	}

	browser := linkedin.NewClient(logger, browserURL)
	if err := browser.Health(ctx); err != nil {
		logger.Fatal("checking the browser server",
			zap.Error(err),
			zap.String("hint", "start the browser automation server and log in to LinkedIn first"),
		)
	}

	searcher, err := newSearcher(config.Research, logger)
	if err != nil {
		logger.Fatal("building the search client",
			zap.Error(err),
			zap.String("hint", "set research.tavily-api-key-file or TAVILY_API_KEY_FILE"),
		)
	}

	policy := retry.Policy{MaxAttempts: maxRetries}

	weights := scoring.DefaultWeights
	threshold := 0.5
	if config.Scoring != nil {
		if config.Scoring.Weights != nil {
			weights = scoring.Weights{
				Sector:      config.Scoring.Weights.Sector,
				Stage:       config.Scoring.Weights.Stage,
				TrackRecord: config.Scoring.Weights.TrackRecord,
			}
		}
		if config.Scoring.Threshold > 0 {
			threshold = config.Scoring.Threshold
		}
	}

	scorer, err := scoring.NewScorer(weights, threshold)
	if err != nil {
		logger.Fatal("building the scorer", zap.Error(err))
	}

	stateDir := config.StateDir
	if stateDir == "" {
		stateDir = "."
	}
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		logger.Fatal("creating the state directory", zap.Error(err))
	}

	db, err := store.NewSQLiteStore(filepath.Join(stateDir, stateDBFile))
	if err != nil {
		logger.Fatal("opening the state database", zap.Error(err))
	}

	deps := &runtimeDeps{
		completer: completer,
		browser:   browser,
		extractor: linkedin.NewExtractor(browser, logger),
		enricher:  research.NewEnricher(completer, searcher, policy, logger),
		scorer:    scorer,
		drafter:   drafting.NewDrafter(completer, logger),
		store:     db,
	}

	return deps, func() {
		if err := db.Close(); err != nil {
			logger.Warn("closing the state database", zap.Error(err))
		}
	}
}

func newCompleter(ctx context.Context, cfg *AIConfig, logger *zap.Logger) (ai.Completer, error) {
	if cfg == nil || cfg.Gemini == nil {
		return nil, errors.New("ai.gemini configuration is required")
	}

	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != "gemini" {
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name: "gemini api key",
		File: cfg.Gemini.APIKeyFile,
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY_FILE)", err)
	}

	generator, err := gemini.New(ctx, apiKey, cfg.Gemini.Model)
	if err != nil {
		return nil, err
	}

	logger.Info("ai client ready",
		zap.String("provider", "gemini"),
		zap.String("model", generator.Model()),
	)
	return generator, nil
}

func newSearcher(cfg *ResearchConfig, logger *zap.Logger) (research.Searcher, error) {
	if cfg == nil {
		return nil, errors.New("research configuration is required")
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name: "tavily api key",
		File: cfg.TavilyAPIKeyFile,
	})
	if err != nil {
		return nil, err
	}

	return research.NewTavilyClient(apiKey, logger)
}

// buildFounderProfile assembles the fact sheet once at run start: config hints
// first, optionally enriched from the pitch deck.
func buildFounderProfile(ctx context.Context, config *Config, completer ai.Completer, logger *zap.Logger) *founder.Profile {
	stages, err := founder.ParseStages(config.Founder.Stages)
	if err != nil {
		logger.Fatal("parsing founder stages", zap.Error(err))
	}

	hints := founder.Minimal(
		config.Founder.Name,
		config.Founder.Company,
		config.Founder.ElevatorPitch,
		config.Founder.RaiseAmount,
		config.Founder.Sectors,
		stages,
	)
	hints.Highlights = config.Founder.Highlights

	if config.PitchDeck == "" {
		return hints
	}

	deck, err := founder.TextDeckParser{}.Parse(ctx, config.PitchDeck)
	if err != nil {
		logger.Warn("pitch deck is unreadable, using configured founder hints", zap.Error(err))
		return hints
	}

	profile, err := founder.NewSummarizer(completer, logger).Summarize(ctx, deck, hints)
	if err != nil {
		logger.Warn("pitch deck summary failed, using configured founder hints", zap.Error(err))
		return hints
	}

	return profile
}

// discoverCandidates prefers explicitly configured profile URLs over
// connection-page enumeration.
func discoverCandidates(ctx context.Context, config *Config, extractor *linkedin.Extractor, logger *zap.Logger) []*linkedin.Candidate {
	if len(config.ProfileURLs) > 0 {
		candidates := make([]*linkedin.Candidate, 0, len(config.ProfileURLs))
		for _, rawURL := range config.ProfileURLs {
			canonical, err := linkedin.CanonicalProfileURL(rawURL)
			if err != nil {
				logger.Warn("skipping invalid profile url", zap.String("url", rawURL), zap.Error(err))
				continue
			}
			candidates = append(candidates, &linkedin.Candidate{ID: canonical})
		}

		logger.Info("using configured profile urls", zap.Int("count", len(candidates)))
		return candidates
	}

	maxPages := 0
	if config.Browser != nil {
		maxPages = config.Browser.MaxPages
	}

	candidates, err := extractor.Connections(ctx, maxPages)
	if err != nil {
		logger.Fatal("enumerating connections", zap.Error(err))
	}
	return candidates
}

// reviewLoop drives the pipeline and the human gate until the queue drains.
func reviewLoop(ctx context.Context, controller *pipeline.Controller, reviewer *gate.Reviewer, logger *zap.Logger) error {
	for {
		review, err := controller.Next(ctx)
		if err != nil {
			var fatal *research.EnrichmentError
			if errors.As(err, &fatal) {
				logger.Error("run halted, fix the provider and resume",
					zap.String("reason", fatal.Reason),
					zap.String("hint", fmt.Sprintf("%s resume %s", app, controller.RunID())),
				)
			}
			return err
		}
		if review == nil {
			return nil
		}

		for review != nil {
			decision, err := reviewer.Decide(review)
			if err != nil {
				return err
			}

			review, err = controller.SubmitDecision(ctx, review.Record.CandidateID, decision)
			if err != nil {
				return err
			}
		}
	}
}

// finish prints the per-disposition summary and every approved draft so the
// operator can send them manually. Nothing is ever sent by the tool itself.
func finish(controller *pipeline.Controller, logger *zap.Logger) {
	dispositions, _, err := controller.Summary()
	if err != nil {
		logger.Fatal("summarizing the run", zap.Error(err))
	}

	logger.Info("run finished",
		zap.Int("approved", dispositions[pipeline.DispositionApproved]),
		zap.Int("rejected", dispositions[pipeline.DispositionRejected]),
		zap.Int("skipped", dispositions[pipeline.DispositionSkipped]),
		zap.Int("failed", dispositions[pipeline.DispositionFailed]),
	)

	approved := make([]*pipeline.Record, 0)
	for _, record := range controller.Records() {
		if record.Disposition == pipeline.DispositionApproved {
			approved = append(approved, record)
		}
	}

	if len(approved) == 0 {
		return
	}

	fmt.Println("\nApproved messages, ready to send:")
	for _, record := range approved {
		fmt.Printf("\n--- %s (%s) ---\n%s\n", record.Candidate.Name, record.CandidateID, record.Draft().Body)
	}
}
