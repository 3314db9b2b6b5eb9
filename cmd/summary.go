package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/seed-pitcher/internal/logger"
	"github.com/spigell/seed-pitcher/internal/pipeline"
	"github.com/spigell/seed-pitcher/internal/store"
)

var summaryCmd = &cobra.Command{
	Use:   "summary [run-id]",
	Short: "Print the state of a run without advancing it",
	Args:  cobra.MaximumNArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		summary(args)
	},
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

func summary(args []string) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	stateDir := "."
	if config != nil && config.StateDir != "" {
		stateDir = config.StateDir
	}

	db, err := store.NewSQLiteStore(filepath.Join(stateDir, stateDBFile))
	if err != nil {
		logger.Fatal("opening the state database", zap.Error(err))
	}
	defer db.Close()

	runID := ""
	if len(args) > 0 {
		runID = args[0]
	} else {
		runID, err = db.LatestRunID(ctx)
		if errors.Is(err, store.ErrRunNotFound) {
			logger.Info("exiting", zap.String("reason", "no runs recorded"))
			return
		}
		if err != nil {
			logger.Fatal("finding the latest run", zap.Error(err))
		}
	}

	run, err := db.LoadRun(ctx, runID)
	if err != nil {
		logger.Fatal("loading the run", zap.Error(err))
	}

	logger.Info("run summary",
		zap.String("run_id", run.RunID),
		zap.Int("candidates", len(run.Queue)),
		zap.Int("cursor", run.Cursor),
	)

	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(table.Row{"Candidate", "Name", "Stage", "Disposition", "Score"})
	for _, id := range run.Queue {
		record := run.Records[id]
		if record == nil {
			continue
		}

		name, score := "", ""
		if record.Candidate != nil {
			name = record.Candidate.Name
		}
		if record.Score != nil {
			score = fmt.Sprintf("%.2f", record.Score.Total)
		}
		tw.AppendRow(table.Row{record.CandidateID, name, record.Stage, record.Disposition, score})
	}
	tw.Render()

	counts := make(map[pipeline.Disposition]int)
	for _, record := range run.Records {
		counts[record.Disposition]++
	}

	logger.Info("dispositions",
		zap.Int("pending", counts[pipeline.DispositionPending]),
		zap.Int("approved", counts[pipeline.DispositionApproved]),
		zap.Int("rejected", counts[pipeline.DispositionRejected]),
		zap.Int("skipped", counts[pipeline.DispositionSkipped]),
		zap.Int("failed", counts[pipeline.DispositionFailed]),
	)
}
