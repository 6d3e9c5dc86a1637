package compare

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"voicematch/internal/config"
	"voicematch/internal/history"
	"voicematch/internal/logging"
	"voicematch/internal/media/convert"
	"voicematch/internal/services"
	"voicematch/internal/voiceprint"
	"voicematch/internal/workspace"
)

// StaleWorkAge is how old an orphaned scratch directory must be before Sweep
// removes it.
const StaleWorkAge = time.Hour

// Recorder persists comparison outcomes.
type Recorder interface {
	Record(ctx context.Context, rec history.Record) error
}

// Service runs comparisons.
type Service struct {
	cfg       *config.Config
	embedder  voiceprint.Embedder
	converter convert.Converter
	recorder  Recorder
	logger    *slog.Logger
	slots     *semaphore.Weighted
	now       func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithRecorder attaches a history recorder. A nil recorder disables history.
func WithRecorder(recorder Recorder) Option {
	return func(s *Service) {
		s.recorder = recorder
	}
}

// WithEmbedder replaces the configured embedding backend.
func WithEmbedder(embedder voiceprint.Embedder) Option {
	return func(s *Service) {
		if embedder != nil {
			s.embedder = embedder
		}
	}
}

// WithClock overrides the time source used for history timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService builds a Service from configuration.
func NewService(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Service, error) {
	if cfg == nil {
		return nil, errors.New("compare: config is nil")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	embedder, err := voiceprint.New(cfg)
	if err != nil {
		return nil, err
	}
	slots := cfg.Matching.MaxConcurrent
	if slots <= 0 {
		slots = 1
	}
	svc := &Service{
		cfg:      cfg,
		embedder: embedder,
		converter: convert.Converter{
			Binary:     cfg.Audio.FFmpegBinary,
			SampleRate: cfg.Audio.SampleRate,
			Timeout:    cfg.ConversionTimeout(),
		},
		logger: logging.NewComponentLogger(logger, "compare"),
		slots:  semaphore.NewWeighted(int64(slots)),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Backend reports the active embedding backend name.
func (s *Service) Backend() string {
	return s.embedder.Name()
}

// Threshold reports the same-speaker threshold.
func (s *Service) Threshold() float64 {
	return s.cfg.Matching.SameSpeakerThreshold
}

// Compare runs both inputs through the pipeline and scores them.
func (s *Service) Compare(ctx context.Context, req Request) (Result, error) {
	start := time.Now()
	id := uuid.NewString()
	ctx = services.WithComparisonID(ctx, id)
	logger := logging.WithContext(ctx, s.logger)

	result := Result{
		ID:        id,
		Threshold: s.cfg.Matching.SameSpeakerThreshold,
		Backend:   s.embedder.Name(),
		First:     InputSummary{Name: req.First.Name},
		Second:    InputSummary{Name: req.Second.Name},
	}

	if err := s.slots.Acquire(ctx, 1); err != nil {
		err = services.Wrap(services.ErrBusy, "admission", "acquire slot", "Server is busy", err)
		logging.WarnWithContext(logger, "comparison rejected", "compare_busy",
			logging.String(logging.FieldErrorHint, "raise matching.max_concurrent or retry later"),
			logging.Error(err),
		)
		return result, err
	}
	defer s.slots.Release(1)

	result, err := s.run(ctx, logger, req, result)
	result.Elapsed = time.Since(start)
	s.record(ctx, logger, result, err)

	if err != nil {
		logger.Info("comparison failed",
			logging.EventType("compare_failed"),
			logging.String("reason", services.Message(err)),
			logging.Duration("elapsed", result.Elapsed),
		)
		return result, err
	}
	logger.Info("comparison complete",
		logging.EventType("compare_complete"),
		logging.Float64("similarity", result.Similarity),
		logging.Bool("same_speaker", result.SameSpeaker),
		logging.Float64("threshold", result.Threshold),
		logging.String("backend", result.Backend),
		logging.Duration("elapsed", result.Elapsed),
	)
	return result, nil
}

func (s *Service) run(ctx context.Context, logger *slog.Logger, req Request, result Result) (Result, error) {
	dir, err := workspace.Create(s.cfg.Paths.WorkDir, result.ID)
	if err != nil {
		return result, services.Wrap(services.ErrTransient, "stage", "create workspace", "Could not prepare workspace", err)
	}
	defer func() {
		if rmErr := os.RemoveAll(dir); rmErr != nil {
			logging.WarnWithContext(logger, "workspace cleanup failed", "workspace_cleanup_failed",
				logging.String("work_dir", dir),
				logging.Error(rmErr),
			)
		}
	}()

	inputs := []Input{req.First, req.Second}
	processed := make([]processedInput, len(inputs))
	group, groupCtx := errgroup.WithContext(ctx)
	for i, input := range inputs {
		label := fmt.Sprintf("file%d", i+1)
		group.Go(func() error {
			out, err := s.process(groupCtx, dir, label, input)
			processed[i] = out
			return err
		})
	}
	err = group.Wait()
	result.First = processed[0].summary
	result.Second = processed[1].summary
	if err != nil {
		return result, err
	}

	similarity := voiceprint.CosineSimilarity(processed[0].embedding, processed[1].embedding)
	result.Similarity = similarity
	result.Score = voiceprint.Round(similarity, s.cfg.Matching.ScorePrecision)
	result.SameSpeaker = voiceprint.SameSpeaker(similarity, result.Threshold)
	return result, nil
}

func (s *Service) record(ctx context.Context, logger *slog.Logger, result Result, compareErr error) {
	if s.recorder == nil || !s.cfg.History.Enabled {
		return
	}
	rec := history.Record{
		ID:          result.ID,
		CreatedAt:   s.now(),
		First:       history.Input(result.First),
		Second:      history.Input(result.Second),
		Similarity:  result.Similarity,
		SameSpeaker: result.SameSpeaker,
		Threshold:   result.Threshold,
		Backend:     result.Backend,
		ElapsedMs:   result.Elapsed.Milliseconds(),
	}
	switch {
	case compareErr != nil:
		rec.Outcome = history.OutcomeFailed
		rec.Error = services.Message(compareErr)
	case result.SameSpeaker:
		rec.Outcome = history.OutcomeSame
	default:
		rec.Outcome = history.OutcomeDifferent
	}
	// The request context may already be cancelled; the record still lands.
	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.recorder.Record(recordCtx, rec); err != nil {
		logging.WarnWithContext(logger, "history record failed", "history_write_failed",
			logging.String(logging.FieldErrorHint, "check data_dir permissions and disk space"),
			logging.Error(err),
		)
	}
}

// Sweep removes scratch directories left behind by crashed comparisons.
func (s *Service) Sweep(ctx context.Context) workspace.CleanStaleResult {
	return workspace.CleanStale(ctx, s.cfg.Paths.WorkDir, StaleWorkAge, s.logger)
}
