package founder

import (
	"fmt"
	"strings"
)

// Stage is a funding round the founder targets.
type Stage string

const (
	StagePreSeed Stage = "pre-seed"
	StageSeed    Stage = "seed"
	StageSeriesA Stage = "series-a"
	StageSeriesB Stage = "series-b"
	StageGrowth  Stage = "growth"
)

// ParseStage normalizes free-form stage names into the fixed enum.
func ParseStage(s string) (Stage, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	normalized = strings.ReplaceAll(normalized, " ", "-")
	normalized = strings.ReplaceAll(normalized, "_", "-")

	switch normalized {
	case "pre-seed", "preseed":
		return StagePreSeed, nil
	case "seed":
		return StageSeed, nil
	case "series-a", "seriesa", "a":
		return StageSeriesA, nil
	case "series-b", "seriesb", "b":
		return StageSeriesB, nil
	case "growth", "late":
		return StageGrowth, nil
	default:
		return "", fmt.Errorf("unknown funding stage: %q", s)
	}
}

// ParseStages converts a list of stage names, rejecting the whole list on the
// first unknown entry so a config typo is caught at run start.
func ParseStages(names []string) ([]Stage, error) {
	stages := make([]Stage, 0, len(names))
	for _, name := range names {
		stage, err := ParseStage(name)
		if err != nil {
			return nil, err
		}
		stages = append(stages, stage)
	}
	return stages, nil
}

// Profile is the founder's fact sheet shared read-only with every candidate.
// It is built once at run start and never mutated afterwards.
type Profile struct {
	Name          string   `json:"name"`
	Company       string   `json:"company"`
	ElevatorPitch string   `json:"elevator_pitch"`
	Sectors       []string `json:"sectors"`
	Stages        []Stage  `json:"stages"`
	RaiseAmount   string   `json:"raise_amount"`
	Highlights    []string `json:"highlights"`
}

// Minimal builds the fallback profile from operator-supplied hints. It is used
// when no pitch deck is provided or the summarizer cannot read it.
func Minimal(name, company, pitch, raise string, sectors []string, stages []Stage) *Profile {
	return &Profile{
		Name:          strings.TrimSpace(name),
		Company:       strings.TrimSpace(company),
		ElevatorPitch: strings.TrimSpace(pitch),
		RaiseAmount:   strings.TrimSpace(raise),
		Sectors:       sectors,
		Stages:        stages,
	}
}
