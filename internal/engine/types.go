package engine

import (
	"context"
	"time"

	"github.com/jaa/songmeta/internal/audio"
)

type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusSkipped Status = "SKIPPED"
	StatusFailed  Status = "FAILED"
)

// ErrorKind classifies why a file was skipped or failed.
type ErrorKind string

const (
	KindNone              ErrorKind = ""
	KindFormat            ErrorKind = "format"
	KindUnreadable        ErrorKind = "unreadable"
	KindAuth              ErrorKind = "auth"
	KindRateLimit         ErrorKind = "rate_limit"
	KindTransport         ErrorKind = "transport"
	KindQuota             ErrorKind = "quota"
	KindServerUnavailable ErrorKind = "server_unavailable"
	KindModelNotFound     ErrorKind = "model_not_found"
	KindParse             ErrorKind = "parse"
	KindWrite             ErrorKind = "write"
	KindWritePermission   ErrorKind = "write_permission"
	KindUnsupportedField  ErrorKind = "unsupported_field"
	KindExistingTags      ErrorKind = "existing_tags"
	KindAborted           ErrorKind = "aborted"
	KindInterrupted       ErrorKind = "interrupted"
	KindDryRun            ErrorKind = "dry_run"
	KindInternal          ErrorKind = "internal"
)

// fatal kinds count toward abort_after_fatal.
func (k ErrorKind) fatal() bool {
	return k == KindAuth || k == KindServerUnavailable || k == KindModelNotFound
}

// Outcome is the result of processing one input file.
type Outcome struct {
	SourcePath string        `json:"source_path"`
	RelPath    string        `json:"rel_path"`
	Status     Status        `json:"status"`
	Kind       ErrorKind     `json:"error_kind,omitempty"`
	Err        error         `json:"-"`
	Error      string        `json:"error,omitempty"`
	OutputPath string        `json:"output_path,omitempty"`
	Attempts   int           `json:"attempts,omitempty"`
	Provider   string        `json:"provider,omitempty"`
	Confidence string        `json:"confidence,omitempty"`
	Duration   time.Duration `json:"duration"`
}

type Summary struct {
	RunID       string        `json:"run_id"`
	Total       int           `json:"total"`
	Succeeded   int           `json:"succeeded"`
	Skipped     int           `json:"skipped"`
	Failed      int           `json:"failed"`
	Aborted     bool          `json:"aborted"`
	Interrupted bool          `json:"interrupted"`
	Outcomes    []Outcome     `json:"outcomes"`
	Duration    time.Duration `json:"duration"`
}

// Processed counts files that reached the model, successfully or not.
func (s Summary) Processed() int {
	return s.Succeeded + s.Failed
}

func (s *Summary) add(outcome Outcome) {
	s.Outcomes = append(s.Outcomes, outcome)
	switch outcome.Status {
	case StatusSuccess:
		s.Succeeded++
	case StatusSkipped:
		s.Skipped++
	default:
		s.Failed++
	}
}

type Options struct {
	// DryRun reads files and builds prompts without querying the model or
	// writing output.
	DryRun bool
}

type TagReader interface {
	Read(path string) (audio.Record, error)
}

type TagWriter interface {
	Write(ctx context.Context, rec audio.Record, dst string, u audio.Update) error
}

type State int

const (
	StatePending State = iota
	StateRunning
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "PENDING"
	case StateRunning:
		return "RUNNING"
	default:
		return "COMPLETED"
	}
}
