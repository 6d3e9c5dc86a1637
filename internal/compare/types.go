package compare

import (
	"io"
	"time"
)

// Input is one uploaded recording. Size is the client-declared length or -1
// when unknown.
type Input struct {
	Name   string
	Reader io.Reader
	Size   int64
}

// Request pairs the two recordings to compare.
type Request struct {
	First  Input
	Second Input
}

// InputSummary describes a processed input.
type InputSummary struct {
	Name            string
	Bytes           int64
	DurationSeconds float64
}

// Result is the outcome of a successful comparison. Similarity is the raw
// cosine value; Score is the same value rounded to score_precision.
type Result struct {
	ID          string
	Similarity  float64
	Score       float64
	SameSpeaker bool
	Threshold   float64
	Backend     string
	First       InputSummary
	Second      InputSummary
	Elapsed     time.Duration
}
