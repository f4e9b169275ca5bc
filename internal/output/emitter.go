package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"sync"

	"go.uber.org/zap"
)

type EventEmitter interface {
	Emit(event Event) error
}

type JSONEmitter struct {
	enc *json.Encoder
	mu  sync.Mutex
}

func NewJSONEmitter(w io.Writer) *JSONEmitter {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &JSONEmitter{enc: enc}
}

func (e *JSONEmitter) Emit(event Event) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.enc.Encode(event)
}

// HumanEmitter prints one line per event. Per-file successes and retries
// only show up in verbose mode; quiet mode keeps errors and the summary.
type HumanEmitter struct {
	stdout  io.Writer
	stderr  io.Writer
	quiet   bool
	verbose bool
}

func NewHumanEmitter(stdout, stderr io.Writer, quiet, verbose bool) *HumanEmitter {
	return &HumanEmitter{stdout: stdout, stderr: stderr, quiet: quiet, verbose: verbose}
}

func (e *HumanEmitter) Emit(event Event) error {
	line := event.Message
	if line == "" {
		line = string(event.Event)
	}

	switch event.Level {
	case LevelError:
		_, err := fmt.Fprintln(e.stderr, "ERROR:", line)
		return err
	case LevelWarn:
		if e.quiet {
			return nil
		}
		_, err := fmt.Fprintln(e.stderr, "WARN:", line)
		return err
	case LevelDebug:
		if !e.verbose || e.quiet {
			return nil
		}
		_, err := fmt.Fprintln(e.stdout, line)
		return err
	default:
		if e.quiet && event.Event != EventRunFinished {
			return nil
		}
		if !e.verbose && (event.Event == EventFileProcessed || event.Event == EventRetryScheduled) {
			return nil
		}
		_, err := fmt.Fprintln(e.stdout, line)
		return err
	}
}

type MultiEmitter struct {
	emitters []EventEmitter
}

func NewMultiEmitter(emitters ...EventEmitter) *MultiEmitter {
	return &MultiEmitter{emitters: emitters}
}

// Emit delivers the event to every emitter, even after one fails, and
// returns the joined errors.
func (e *MultiEmitter) Emit(event Event) error {
	var errs []error
	for _, emitter := range e.emitters {
		if err := emitter.Emit(event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LogEmitter mirrors events into the run log. Details become top-level
// fields so each entry can be filtered with standard JSON tooling.
type LogEmitter struct {
	logger *zap.Logger
}

func NewLogEmitter(logger *zap.Logger) *LogEmitter {
	return &LogEmitter{logger: logger}
}

func (e *LogEmitter) Emit(event Event) error {
	fields := make([]zap.Field, 0, len(event.Details)+2)
	fields = append(fields, zap.String("event", string(event.Event)))
	if event.Path != "" {
		fields = append(fields, zap.String("path", event.Path))
	}
	keys := make([]string, 0, len(event.Details))
	for key := range event.Details {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	for _, key := range keys {
		fields = append(fields, zap.Any(key, event.Details[key]))
	}

	msg := event.Message
	if msg == "" {
		msg = string(event.Event)
	}
	switch event.Level {
	case LevelDebug:
		e.logger.Debug(msg, fields...)
	case LevelWarn:
		e.logger.Warn(msg, fields...)
	case LevelError:
		e.logger.Error(msg, fields...)
	default:
		e.logger.Info(msg, fields...)
	}
	return nil
}
