package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// CompareResponse is the /compare success body.
type CompareResponse struct {
	Similarity float64 `json:"similarity"`
}

// CompareVoicesResponse is the /compare_voices/ success body.
type CompareVoicesResponse struct {
	SimilarityScore float64 `json:"similarity_score"`
	SameSpeaker     bool    `json:"same_speaker"`
}

// DetailError is the /compare error body.
type DetailError struct {
	Detail string `json:"detail"`
}

// Error is the error body for /compare_voices/ and the /api endpoints.
type Error struct {
	Error string `json:"error"`
}

// InputSummary describes one compared recording.
type InputSummary struct {
	Name            string  `json:"name"`
	Bytes           int64   `json:"bytes"`
	DurationSeconds float64 `json:"durationSeconds"`
}

// ComparisonDetail is the full representation of a comparison.
type ComparisonDetail struct {
	ID          string       `json:"id"`
	CreatedAt   string       `json:"createdAt,omitempty"`
	Outcome     string       `json:"outcome"`
	Similarity  float64      `json:"similarity"`
	Score       float64      `json:"score"`
	SameSpeaker bool         `json:"sameSpeaker"`
	Threshold   float64      `json:"threshold"`
	Backend     string       `json:"backend"`
	First       InputSummary `json:"first"`
	Second      InputSummary `json:"second"`
	ElapsedMs   int64        `json:"elapsedMs"`
	Error       string       `json:"error,omitempty"`
}

// HistoryListResponse wraps a collection of history records.
type HistoryListResponse struct {
	Items []ComparisonDetail `json:"items"`
}

// HistoryItemResponse wraps a single history record.
type HistoryItemResponse struct {
	Item ComparisonDetail `json:"item"`
}

// DependencyStatus captures availability of an external dependency.
type DependencyStatus struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Detail      string `json:"detail,omitempty"`
}

// HistoryStats summarizes stored comparisons.
type HistoryStats struct {
	Enabled   bool `json:"enabled"`
	Total     int  `json:"total"`
	Same      int  `json:"same"`
	Different int  `json:"different"`
	Failed    int  `json:"failed"`
}

// StatusResponse aggregates server runtime information.
type StatusResponse struct {
	Version       string             `json:"version"`
	PID           int                `json:"pid"`
	StartedAt     string             `json:"startedAt"`
	Uptime        string             `json:"uptime"`
	UptimeSeconds int64              `json:"uptimeSeconds"`
	Backend       string             `json:"backend"`
	Threshold     float64            `json:"threshold"`
	InFlight      int64              `json:"inFlight"`
	Dependencies  []DependencyStatus `json:"dependencies"`
	Stats         HistoryStats       `json:"stats"`
}
