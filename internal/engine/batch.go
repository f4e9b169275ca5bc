package engine

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jaa/songmeta/internal/audio"
	"github.com/jaa/songmeta/internal/config"
	"github.com/jaa/songmeta/internal/metadata"
	"github.com/jaa/songmeta/internal/output"
	"github.com/jaa/songmeta/internal/prompt"
	"github.com/jaa/songmeta/internal/provider"
)

var (
	ErrInterrupted  = errors.New("batch interrupted")
	ErrBatchStarted = errors.New("batch already started")
)

// AbortError ends a batch before every file was attempted.
type AbortError struct {
	Kind ErrorKind
	Err  error
}

func (e *AbortError) Error() string {
	return fmt.Sprintf("batch aborted after %s error: %v", e.Kind, e.Err)
}

func (e *AbortError) Unwrap() error {
	return e.Err
}

// Batch tags every audio file below Config.InputDir into Config.OutputDir.
// A Batch runs once.
type Batch struct {
	Config  config.Config
	Reader  TagReader
	Writer  TagWriter
	Client  provider.Client
	Emitter output.EventEmitter
	Now     func() time.Time
	RunID   string

	state State
}

func New(cfg config.Config, client provider.Client, emitter output.EventEmitter) *Batch {
	if emitter == nil {
		emitter = noOpEmitter{}
	}
	return &Batch{
		Config:  cfg,
		Reader:  audio.NewReader(),
		Writer:  audio.NewWriter(),
		Client:  client,
		Emitter: emitter,
		Now:     time.Now,
		RunID:   uuid.NewString(),
	}
}

type noOpEmitter struct{}

func (noOpEmitter) Emit(event output.Event) error {
	return nil
}

func (b *Batch) State() State {
	return b.state
}

// Run processes the input tree sequentially. Every discovered file gets
// exactly one outcome, including files left over after an abort or an
// interrupt. The returned error is ErrInterrupted, an *AbortError, or a
// setup failure that prevented the batch from starting.
func (b *Batch) Run(ctx context.Context, opts Options) (Summary, error) {
	if b.state != StatePending {
		return Summary{}, ErrBatchStarted
	}
	b.state = StateRunning
	defer func() { b.state = StateCompleted }()

	if b.Now == nil {
		b.Now = time.Now
	}
	if b.Emitter == nil {
		b.Emitter = noOpEmitter{}
	}
	started := b.Now()
	summary := Summary{RunID: b.RunID}

	files, err := discover(b.Config.InputDir)
	if err != nil {
		return summary, err
	}
	summary.Total = len(files)

	b.emit(output.Event{
		Level:   output.LevelInfo,
		Event:   output.EventRunStarted,
		Message: fmt.Sprintf("run started (%d file(s) in %s)", summary.Total, b.Config.InputDir),
		Details: map[string]any{
			"total":      summary.Total,
			"input_dir":  b.Config.InputDir,
			"output_dir": b.Config.OutputDir,
			"dry_run":    opts.DryRun,
		},
	})

	var (
		stop      ErrorKind
		runErr    error
		fatalRun  int
		interval  = b.Config.Batch.ProgressInterval
		processed int
	)
	for _, file := range files {
		if stop == KindNone && ctx.Err() != nil {
			stop = KindInterrupted
			runErr = ErrInterrupted
		}
		if stop != KindNone {
			b.record(&summary, Outcome{
				SourcePath: file.Path,
				RelPath:    file.Rel,
				Status:     StatusSkipped,
				Kind:       stop,
				Error:      fmt.Sprintf("not attempted: batch %s", stopVerb(stop)),
			})
			continue
		}

		outcome := b.process(ctx, file, opts)
		b.record(&summary, outcome)
		processed++

		switch {
		case outcome.Kind == KindInterrupted:
			stop = KindInterrupted
			runErr = ErrInterrupted
		case outcome.Kind == KindQuota:
			stop = KindAborted
			runErr = &AbortError{Kind: outcome.Kind, Err: outcome.Err}
		case outcome.Kind.fatal():
			fatalRun++
			if limit := b.Config.Batch.AbortAfterFatal; limit > 0 && fatalRun >= limit {
				stop = KindAborted
				runErr = &AbortError{Kind: outcome.Kind, Err: outcome.Err}
			}
		case outcome.Status != StatusSkipped:
			fatalRun = 0
		}

		if stop == KindNone && interval > 0 && (processed%interval == 0 || processed == len(files)) {
			b.emit(output.Event{
				Level:   output.LevelInfo,
				Event:   output.EventProgress,
				Message: fmt.Sprintf("progress: %d/%d file(s)", processed, summary.Total),
				Details: map[string]any{
					"done":      processed,
					"total":     summary.Total,
					"succeeded": summary.Succeeded,
					"skipped":   summary.Skipped,
					"failed":    summary.Failed,
				},
			})
		}
	}

	summary.Aborted = stop == KindAborted
	summary.Interrupted = stop == KindInterrupted
	summary.Duration = b.Now().Sub(started)

	if summary.Aborted {
		b.emit(output.Event{
			Level:   output.LevelError,
			Event:   output.EventRunAborted,
			Message: runErr.Error(),
			Details: map[string]any{
				"remaining": summary.Total - processed,
			},
		})
	}

	level := output.LevelInfo
	if summary.Failed > 0 || summary.Aborted || summary.Interrupted {
		level = output.LevelWarn
	}
	b.emit(output.Event{
		Level: level,
		Event: output.EventRunFinished,
		Message: fmt.Sprintf("run finished: total=%d processed=%d succeeded=%d skipped=%d failed=%d",
			summary.Total, summary.Processed(), summary.Succeeded, summary.Skipped, summary.Failed),
		Details: map[string]any{
			"total":       summary.Total,
			"processed":   summary.Processed(),
			"succeeded":   summary.Succeeded,
			"skipped":     summary.Skipped,
			"failed":      summary.Failed,
			"aborted":     summary.Aborted,
			"interrupted": summary.Interrupted,
			"duration_ms": summary.Duration.Milliseconds(),
		},
	})

	return summary, runErr
}

// process runs one file through read, prompt, query, parse and write. It
// never panics; a panic in any stage becomes an internal failure.
func (b *Batch) process(ctx context.Context, file inputFile, opts Options) (outcome Outcome) {
	started := b.Now()
	outcome = Outcome{SourcePath: file.Path, RelPath: file.Rel}
	defer func() {
		if r := recover(); r != nil {
			outcome = failOutcome(outcome, KindInternal, fmt.Errorf("panic: %v", r))
		}
		outcome.Duration = b.Now().Sub(started)
	}()

	if file.Err != nil {
		return failOutcome(outcome, KindUnreadable, &audio.UnreadableFileError{Path: file.Path, Err: file.Err})
	}
	if _, ok := audio.FormatFromPath(file.Path); !ok {
		return skipOutcome(outcome, KindFormat, &audio.UnsupportedFormatError{Path: file.Path, Extension: filepath.Ext(file.Path)})
	}

	rec, err := b.Reader.Read(file.Path)
	if err != nil {
		return failOutcome(outcome, classify(ctx, err), err)
	}
	if !b.Config.Tags.OverwriteExisting && rec.HasIdentity() {
		return skipOutcome(outcome, KindExistingTags, errors.New("file already has title or artist tags"))
	}

	query := prompt.Build(rec)
	if opts.DryRun {
		return skipOutcome(outcome, KindDryRun, errors.New("dry run: model not queried"))
	}

	trace := &provider.Trace{}
	reply, err := b.Client.Query(provider.WithTrace(ctx, trace), query)
	outcome.Attempts = max(trace.Attempts, 1)
	outcome.Provider = trace.Provider
	if err != nil {
		return failOutcome(outcome, classify(ctx, err), fmt.Errorf("query model: %w", err))
	}

	result, err := metadata.Parse(reply)
	if err != nil {
		return failOutcome(outcome, KindParse, err)
	}
	outcome.Confidence = result.Confidence

	dst := filepath.Join(b.Config.OutputDir, file.Rel)
	update := result.Merge(rec.Tags(), b.Config.Tags.Policy)
	if err := b.Writer.Write(ctx, rec, dst, update); err != nil {
		return failOutcome(outcome, classify(ctx, err), err)
	}

	outcome.Status = StatusSuccess
	outcome.OutputPath = dst
	return outcome
}

func (b *Batch) record(summary *Summary, outcome Outcome) {
	summary.add(outcome)

	level := output.LevelInfo
	message := fmt.Sprintf("%s: %s", outcome.RelPath, outcome.Status)
	switch outcome.Status {
	case StatusFailed:
		level = output.LevelError
		message = fmt.Sprintf("%s: %s (%s): %s", outcome.RelPath, outcome.Status, outcome.Kind, outcome.Error)
	case StatusSkipped:
		message = fmt.Sprintf("%s: %s (%s)", outcome.RelPath, outcome.Status, outcome.Kind)
	}
	if outcome.Confidence == metadata.ConfidenceLow {
		message += " [low confidence]"
	}

	details := map[string]any{
		"status":      string(outcome.Status),
		"attempts":    outcome.Attempts,
		"duration_ms": outcome.Duration.Milliseconds(),
	}
	if outcome.Kind != KindNone {
		details["error_kind"] = string(outcome.Kind)
	}
	if outcome.Error != "" {
		details["error"] = outcome.Error
	}
	if outcome.OutputPath != "" {
		details["output"] = outcome.OutputPath
	}
	if outcome.Provider != "" {
		details["provider"] = outcome.Provider
	}
	if outcome.Confidence != "" {
		details["confidence"] = outcome.Confidence
	}

	b.emit(output.Event{
		Level:   level,
		Event:   output.EventFileProcessed,
		Path:    outcome.SourcePath,
		Message: message,
		Details: details,
	})
}

func (b *Batch) emit(event output.Event) {
	event.Timestamp = b.Now()
	event.RunID = b.RunID
	_ = b.Emitter.Emit(event)
}

func failOutcome(outcome Outcome, kind ErrorKind, err error) Outcome {
	outcome.Status = StatusFailed
	outcome.Kind = kind
	outcome.Err = err
	outcome.Error = err.Error()
	return outcome
}

func skipOutcome(outcome Outcome, kind ErrorKind, err error) Outcome {
	outcome = failOutcome(outcome, kind, err)
	outcome.Status = StatusSkipped
	return outcome
}

func stopVerb(kind ErrorKind) string {
	if kind == KindInterrupted {
		return "interrupted"
	}
	return "aborted"
}

// classify maps a stage error to its kind. Cancellation wins over whatever
// wrapped it so an interrupted write is not reported as a write failure.
func classify(ctx context.Context, err error) ErrorKind {
	if ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		return KindInterrupted
	}

	var (
		quota       *provider.QuotaExceededError
		auth        *provider.AuthenticationError
		unavailable *provider.ServerUnavailableError
		notFound    *provider.ModelNotFoundError
		rateLimit   *provider.RateLimitError
		transport   *provider.TransportError
		parse       *metadata.ParseFailure
		format      *audio.UnsupportedFormatError
		unreadable  *audio.UnreadableFileError
		permission  *audio.WritePermissionError
		field       *audio.UnsupportedFieldError
		write       *audio.WriteError
	)
	switch {
	case errors.As(err, &quota):
		return KindQuota
	case errors.As(err, &auth):
		return KindAuth
	case errors.As(err, &unavailable):
		return KindServerUnavailable
	case errors.As(err, &notFound):
		return KindModelNotFound
	case errors.As(err, &rateLimit):
		return KindRateLimit
	case errors.As(err, &transport):
		return KindTransport
	case errors.As(err, &parse):
		return KindParse
	case errors.As(err, &format):
		return KindFormat
	case errors.As(err, &unreadable):
		return KindUnreadable
	case errors.As(err, &permission):
		return KindWritePermission
	case errors.As(err, &field):
		return KindUnsupportedField
	case errors.As(err, &write):
		return KindWrite
	default:
		return KindInternal
	}
}
