package hermes

import (
	"time"

	"github.com/google/uuid"
)

type ReviewRecordedEvent struct {
	RecordID     uuid.UUID `json:"record_id"`
	Target       string    `json:"target"`
	Reviewer     string    `json:"reviewer,omitempty"`
	Kind         string    `json:"kind"`
	Score        float64   `json:"score"`
	SummaryScore float64   `json:"summary_score"`
	Difference   float64   `json:"difference"`
	Level        string    `json:"level"`
	Timestamp    time.Time `json:"timestamp"`
}

type AnomalyDetectedEvent struct {
	RecordID   uuid.UUID `json:"record_id"`
	Target     string    `json:"target"`
	Reviewer   string    `json:"reviewer,omitempty"`
	Kind       string    `json:"kind"`
	Difference float64   `json:"difference"`
	Level      string    `json:"level"`
	Samples    int       `json:"samples"`
	Timestamp  time.Time `json:"timestamp"`
}
