package scoring

import (
	"fmt"
	"math"
	"strings"

	"github.com/spigell/seed-pitcher/internal/founder"
	"github.com/spigell/seed-pitcher/internal/research"
)

const (
	// neutral is the sub-score used when a dimension is unknown on either side.
	neutral = 0.5
	// trackRecordSaturation caps the track-record contribution once this many
	// matching investments are known.
	trackRecordSaturation = 3
)

// Weights distributes the total score across the three sub-scores.
type Weights struct {
	Sector      float64 `json:"sector"`
	Stage       float64 `json:"stage"`
	TrackRecord float64 `json:"track_record"`
}

// DefaultWeights matches the documented 0.4/0.3/0.3 split.
var DefaultWeights = Weights{Sector: 0.4, Stage: 0.3, TrackRecord: 0.3}

// Validate rejects weights that are negative or do not sum to 1.
func (w Weights) Validate() error {
	if w.Sector < 0 || w.Stage < 0 || w.TrackRecord < 0 {
		return fmt.Errorf("weights must be non-negative: %+v", w)
	}
	if sum := w.Sector + w.Stage + w.TrackRecord; math.Abs(sum-1) > 1e-9 {
		return fmt.Errorf("weights must sum to 1, got %.4f", sum)
	}
	return nil
}

// FitScore is the weighted match between the founder's raise and a candidate's
// inferred investing focus.
type FitScore struct {
	Total          float64 `json:"total"`
	SectorMatch    float64 `json:"sector_match"`
	StageMatch     float64 `json:"stage_match"`
	TrackRecord    float64 `json:"track_record"`
	Rationale      string  `json:"rationale"`
	MeetsThreshold bool    `json:"meets_threshold"`
}

// Scorer is a pure, deterministic function of its inputs.
type Scorer struct {
	weights   Weights
	threshold float64
}

func NewScorer(weights Weights, threshold float64) (*Scorer, error) {
	if err := weights.Validate(); err != nil {
		return nil, err
	}
	if threshold < 0 || threshold > 1 {
		return nil, fmt.Errorf("threshold must be in [0,1], got %.4f", threshold)
	}
	return &Scorer{weights: weights, threshold: threshold}, nil
}

// Threshold returns the configured skip threshold.
func (s *Scorer) Threshold() float64 { return s.threshold }

// Score computes the fit between the founder profile and a dossier. Unknown
// dimensions score neutral; an explicit non-investor verdict is still scored
// from whatever facts exist and only noted in the rationale.
func (s *Scorer) Score(profile *founder.Profile, dossier *research.InvestorDossier) FitScore {
	var rationale []string

	sector, note := sectorOverlap(profile, dossier)
	rationale = append(rationale, note)

	stage, note := stageOverlap(profile, dossier)
	rationale = append(rationale, note)

	track, note := trackRecord(profile, dossier)
	rationale = append(rationale, note)

	if !dossier.IsInvestor {
		rationale = append(rationale, fmt.Sprintf(
			"research did not identify this person as an investor (confidence %.2f)", dossier.Confidence))
	}
	if dossier.Degraded {
		rationale = append(rationale, "dossier is degraded: research calls failed and fields are best-effort")
	}

	total := s.weights.Sector*sector + s.weights.Stage*stage + s.weights.TrackRecord*track

	return FitScore{
		Total:          total,
		SectorMatch:    sector,
		StageMatch:     stage,
		TrackRecord:    track,
		Rationale:      strings.Join(rationale, "; "),
		MeetsThreshold: total >= s.threshold,
	}
}

func sectorOverlap(profile *founder.Profile, dossier *research.InvestorDossier) (float64, string) {
	if len(profile.Sectors) == 0 {
		return neutral, "founder sectors unknown, neutral sector score"
	}
	if len(dossier.FocusSectors) == 0 {
		return neutral, "investor focus sectors unknown, neutral sector score"
	}

	focus := toLowerSet(dossier.FocusSectors)
	matched := make([]string, 0, len(profile.Sectors))
	for _, sector := range profile.Sectors {
		if _, ok := focus[strings.ToLower(sector)]; ok {
			matched = append(matched, sector)
		}
	}

	score := float64(len(matched)) / float64(len(profile.Sectors))
	if len(matched) == 0 {
		return score, "no sector overlap"
	}
	return score, fmt.Sprintf("sector overlap on %s", strings.Join(matched, ", "))
}

func stageOverlap(profile *founder.Profile, dossier *research.InvestorDossier) (float64, string) {
	if len(dossier.FocusStages) == 0 {
		return neutral, "investor stage focus unknown, neutral stage score"
	}

	focus := toLowerSet(dossier.FocusStages)
	for _, stage := range profile.Stages {
		if _, ok := focus[strings.ToLower(string(stage))]; ok {
			return 1, fmt.Sprintf("invests at the %s stage", stage)
		}
	}

	return 0, "no overlap with target stages"
}

func trackRecord(profile *founder.Profile, dossier *research.InvestorDossier) (float64, string) {
	if len(dossier.Investments) == 0 {
		return neutral, "no visible investment history, neutral track record"
	}

	sectors := toLowerSet(profile.Sectors)
	stages := make(map[string]struct{}, len(profile.Stages))
	for _, stage := range profile.Stages {
		stages[strings.ToLower(string(stage))] = struct{}{}
	}

	// An investment matching both sector and stage counts double, so a couple
	// of on-target deals saturate the sub-score.
	matches, points := 0, 0
	for _, investment := range dossier.Investments {
		_, sectorMatch := sectors[strings.ToLower(investment.Sector)]
		_, stageMatch := stages[strings.ToLower(investment.Stage)]
		switch {
		case sectorMatch && stageMatch:
			matches++
			points += 2
		case sectorMatch || stageMatch:
			matches++
			points++
		}
	}

	score := math.Min(float64(points), trackRecordSaturation) / trackRecordSaturation
	if matches == 0 {
		return 0, fmt.Sprintf("%d known investments, none in matching sectors or stages", len(dossier.Investments))
	}
	return score, fmt.Sprintf("%d of %d known investments match the raise", matches, len(dossier.Investments))
}

func toLowerSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		set[strings.ToLower(item)] = struct{}{}
	}
	return set
}
