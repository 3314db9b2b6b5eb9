package logger

import "go.uber.org/zap"

const (
	// FieldRun is the structured log field key for the run identifier.
	FieldRun = "run_id"
	// FieldCandidate is the structured log field key for the canonical candidate identifier.
	FieldCandidate = "candidate_id"
	// FieldStage is the structured log field key for the pipeline stage.
	FieldStage = "stage"
)

// Run returns the run identifier field.
func Run(id string) zap.Field { return zap.String(FieldRun, id) }

// Candidate returns the candidate identifier field.
func Candidate(id string) zap.Field { return zap.String(FieldCandidate, id) }

// Stage returns the pipeline stage field.
func Stage(stage string) zap.Field { return zap.String(FieldStage, stage) }
