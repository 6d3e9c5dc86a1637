package history

import "time"

// Outcome classifies a recorded comparison.
type Outcome string

const (
	OutcomeSame      Outcome = "same"
	OutcomeDifferent Outcome = "different"
	OutcomeFailed    Outcome = "failed"
)

// ParseOutcome validates a user-supplied outcome filter.
func ParseOutcome(value string) (Outcome, bool) {
	switch Outcome(value) {
	case OutcomeSame, OutcomeDifferent, OutcomeFailed:
		return Outcome(value), true
	}
	return "", false
}

// Input describes one side of a comparison.
type Input struct {
	Name            string
	Bytes           int64
	DurationSeconds float64
}

// Record is a persisted comparison.
type Record struct {
	ID          string
	CreatedAt   time.Time
	First       Input
	Second      Input
	Similarity  float64
	SameSpeaker bool
	Threshold   float64
	Backend     string
	Outcome     Outcome
	Error       string
	ElapsedMs   int64
}

// Filter narrows List results. A zero Limit returns every record.
type Filter struct {
	Limit   int
	Outcome Outcome
}

// Stats aggregates records by outcome.
type Stats struct {
	Total     int `json:"total"`
	Same      int `json:"same"`
	Different int `json:"different"`
	Failed    int `json:"failed"`
}
