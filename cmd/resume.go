package cmd

import (
	"context"
	"errors"
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/seed-pitcher/internal/gate"
	"github.com/spigell/seed-pitcher/internal/logger"
	"github.com/spigell/seed-pitcher/internal/pipeline"
	"github.com/spigell/seed-pitcher/internal/store"
)

var resumeCmd = &cobra.Command{
	Use:   "resume [run-id]",
	Short: "Resume an interrupted run from its persisted state",
	Args:  cobra.MaximumNArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		resume(args)
	},
}

func init() {
	rootCmd.AddCommand(resumeCmd)
}

func resume(args []string) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}
	if config == nil || config.Founder == nil {
		logger.Fatal("config with a founder section is required")
	}

	deps, cleanup := buildDeps(ctx, config, logger)
	defer cleanup()

	runID := ""
	if len(args) > 0 {
		runID = args[0]
	} else {
		runID, err = deps.store.LatestRunID(ctx)
		if errors.Is(err, store.ErrRunNotFound) {
			logger.Info("exiting", zap.String("reason", "no runs to resume"))
			return
		}
		if err != nil {
			logger.Fatal("finding the latest run", zap.Error(err))
		}
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

	if err := controller.Resume(ctx, runID); err != nil {
		logger.Fatal("resuming the run", zap.Error(err))
	}

	if err := reviewLoop(ctx, controller, gate.NewReviewer(logger), logger); err != nil {
		logger.Fatal("run aborted", zap.Error(err))
	}

	finish(controller, logger)
}
