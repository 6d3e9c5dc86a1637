package history

import (
	"database/sql"
	"errors"
	"time"
)

const recordColumns = "id, created_at, first_name, first_bytes, first_duration, second_name, second_bytes, second_duration, similarity, same_speaker, threshold, backend, outcome, error_message, elapsed_ms"

func scanRecord(scanner interface{ Scan(dest ...any) error }) (*Record, error) {
	var (
		rec         Record
		createdRaw  string
		firstName   sql.NullString
		secondName  sql.NullString
		similarity  sql.NullFloat64
		sameSpeaker int64
		outcome     string
		errMessage  sql.NullString
	)
	if err := scanner.Scan(
		&rec.ID,
		&createdRaw,
		&firstName,
		&rec.First.Bytes,
		&rec.First.DurationSeconds,
		&secondName,
		&rec.Second.Bytes,
		&rec.Second.DurationSeconds,
		&similarity,
		&sameSpeaker,
		&rec.Threshold,
		&rec.Backend,
		&outcome,
		&errMessage,
		&rec.ElapsedMs,
	); err != nil {
		return nil, err
	}
	rec.First.Name = firstName.String
	rec.Second.Name = secondName.String
	rec.Similarity = similarity.Float64
	rec.SameSpeaker = sameSpeaker != 0
	rec.Outcome = Outcome(outcome)
	rec.Error = errMessage.String
	if created, err := parseTimeString(createdRaw); err == nil {
		rec.CreatedAt = created
	}
	return &rec, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

// timestampLayout is fixed width so stored timestamps sort lexically.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}
