package api

import (
	"time"

	"voicematch/internal/compare"
	"voicematch/internal/deps"
	"voicematch/internal/history"
	"voicematch/internal/voiceprint"
)

// FromResult converts a compare result to its API representation. precision
// controls the rounded score.
func FromResult(result compare.Result, precision int) ComparisonDetail {
	outcome := history.OutcomeDifferent
	if result.SameSpeaker {
		outcome = history.OutcomeSame
	}
	return ComparisonDetail{
		ID:          result.ID,
		Outcome:     string(outcome),
		Similarity:  result.Similarity,
		Score:       voiceprint.Round(result.Similarity, precision),
		SameSpeaker: result.SameSpeaker,
		Threshold:   result.Threshold,
		Backend:     result.Backend,
		First:       InputSummary(result.First),
		Second:      InputSummary(result.Second),
		ElapsedMs:   result.Elapsed.Milliseconds(),
	}
}

// FromRecord converts a history record to its API representation.
func FromRecord(rec *history.Record, precision int) ComparisonDetail {
	if rec == nil {
		return ComparisonDetail{}
	}
	dto := ComparisonDetail{
		ID:          rec.ID,
		Outcome:     string(rec.Outcome),
		Similarity:  rec.Similarity,
		SameSpeaker: rec.SameSpeaker,
		Threshold:   rec.Threshold,
		Backend:     rec.Backend,
		First:       InputSummary(rec.First),
		Second:      InputSummary(rec.Second),
		ElapsedMs:   rec.ElapsedMs,
		Error:       rec.Error,
	}
	if rec.Outcome != history.OutcomeFailed {
		dto.Score = voiceprint.Round(rec.Similarity, precision)
	}
	if !rec.CreatedAt.IsZero() {
		dto.CreatedAt = FormatTime(rec.CreatedAt)
	}
	return dto
}

// FromRecords converts a slice of history records into API DTOs. The result
// is never nil so it encodes as an empty JSON array.
func FromRecords(records []*history.Record, precision int) []ComparisonDetail {
	out := make([]ComparisonDetail, 0, len(records))
	for _, rec := range records {
		out = append(out, FromRecord(rec, precision))
	}
	return out
}

// FromStats converts history counts.
func FromStats(stats history.Stats, enabled bool) HistoryStats {
	return HistoryStats{
		Enabled:   enabled,
		Total:     stats.Total,
		Same:      stats.Same,
		Different: stats.Different,
		Failed:    stats.Failed,
	}
}

// FromDependencies converts dependency probe results.
func FromDependencies(statuses []deps.Status) []DependencyStatus {
	out := make([]DependencyStatus, 0, len(statuses))
	for _, status := range statuses {
		out = append(out, DependencyStatus{
			Name:        status.Name,
			Command:     status.Command,
			Description: status.Description,
			Optional:    status.Optional,
			Available:   status.Available,
			Detail:      status.Detail,
		})
	}
	return out
}

// FormatTime renders a timestamp in the API format.
func FormatTime(t time.Time) string {
	return t.UTC().Format(dateTimeFormat)
}
