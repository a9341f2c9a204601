package scoring

import "fmt"

// Level classifies how far a review sits from the target's summary.
type Level string

const (
	LevelConsistent Level = "consistent"
	LevelNotable    Level = "notable"
	LevelDivergent  Level = "divergent"
	LevelAnomalous  Level = "anomalous"
)

var levelRank = map[Level]int{
	LevelConsistent: 0,
	LevelNotable:    1,
	LevelDivergent:  2,
	LevelAnomalous:  3,
}

func (l Level) Valid() bool {
	_, ok := levelRank[l]
	return ok
}

// AtLeast reports whether l is as severe as other or more.
func (l Level) AtLeast(other Level) bool {
	return levelRank[l] >= levelRank[other]
}

// Thresholds are the lower bounds of each non-consistent level.
type Thresholds struct {
	Notable   float64
	Divergent float64
	Anomalous float64
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		Notable:   0.25,
		Divergent: 0.5,
		Anomalous: 0.8,
	}
}

// Validate checks that thresholds are non-negative and strictly increasing.
func (t Thresholds) Validate() error {
	if t.Notable < 0 {
		return fmt.Errorf("negative notable threshold: %f", t.Notable)
	}
	if t.Divergent <= t.Notable {
		return fmt.Errorf("divergent threshold %.4f must exceed notable %.4f", t.Divergent, t.Notable)
	}
	if t.Anomalous <= t.Divergent {
		return fmt.Errorf("anomalous threshold %.4f must exceed divergent %.4f", t.Anomalous, t.Divergent)
	}
	return nil
}

// Level maps a difference onto its band.
//
//	[0, notable) consistent, [notable, divergent) notable,
//	[divergent, anomalous) divergent, [anomalous, inf) anomalous
func (t Thresholds) Level(difference float64) Level {
	switch {
	case difference < t.Notable:
		return LevelConsistent
	case difference < t.Divergent:
		return LevelNotable
	case difference < t.Anomalous:
		return LevelDivergent
	default:
		return LevelAnomalous
	}
}
