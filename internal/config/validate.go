package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	if len(e.Problems) == 0 {
		return "invalid config"
	}
	return fmt.Sprintf("invalid config: %s", strings.Join(e.Problems, "; "))
}

func Validate(cfg Config) error {
	problems := []string{}

	if cfg.Version != 1 {
		problems = append(problems, "version must be 1")
	}

	if strings.TrimSpace(cfg.InputDir) == "" {
		problems = append(problems, "input_dir must be set")
	}
	if strings.TrimSpace(cfg.OutputDir) == "" {
		problems = append(problems, "output_dir must be set")
	}
	if cfg.InputDir != "" && cfg.OutputDir != "" {
		in := filepath.Clean(cfg.InputDir)
		out := filepath.Clean(cfg.OutputDir)
		if in == out {
			problems = append(problems, "output_dir must differ from input_dir")
		} else if rel, err := filepath.Rel(in, out); err == nil && !strings.HasPrefix(rel, "..") {
			problems = append(problems, "output_dir must not be inside input_dir")
		}
	}

	problems = append(problems, validateProvider("provider", cfg.Provider)...)
	for i, fb := range cfg.Fallback {
		problems = append(problems, validateProvider(fmt.Sprintf("fallback[%d]", i), fb)...)
	}

	if cfg.Batch.ProgressInterval <= 0 {
		problems = append(problems, "batch.progress_interval must be > 0")
	}
	if cfg.Batch.RequestDelaySeconds < 0 {
		problems = append(problems, "batch.request_delay_seconds must be >= 0")
	}
	if cfg.Batch.MaxAttempts <= 0 {
		problems = append(problems, "batch.max_attempts must be > 0")
	}
	if cfg.Batch.RetryBaseSeconds < 0 {
		problems = append(problems, "batch.retry_base_seconds must be >= 0")
	}
	if cfg.Batch.RetryExponent < 1 {
		problems = append(problems, "batch.retry_exponent must be >= 1")
	}
	if cfg.Batch.RetryMaxSeconds < cfg.Batch.RetryBaseSeconds {
		problems = append(problems, "batch.retry_max_seconds must be >= batch.retry_base_seconds")
	}
	if cfg.Batch.AbortAfterFatal < 0 {
		problems = append(problems, "batch.abort_after_fatal must be >= 0")
	}

	switch cfg.Tags.Policy {
	case TagPolicyMerge, TagPolicyKeepExisting, TagPolicyOverwrite:
	default:
		problems = append(problems, fmt.Sprintf("tags.policy %q is unsupported (expected: merge, keep-existing, overwrite)", cfg.Tags.Policy))
	}

	switch cfg.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("log.level %q is unsupported", cfg.Log.Level))
	}
	if cfg.Log.File != "" && cfg.Log.MaxSizeMB <= 0 {
		problems = append(problems, "log.max_size_mb must be > 0")
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// ValidateCredentials reports providers that need an API key but have none.
// It is kept apart from Validate so that `validate` and `init` work without
// secrets present in the environment.
func ValidateCredentials(cfg Config) error {
	problems := []string{}
	check := func(label string, p Provider) {
		if p.RequiresAPIKey() && strings.TrimSpace(p.APIKey) == "" {
			problems = append(problems, fmt.Sprintf("%s %s requires an API key in $%s", label, p.Kind, p.APIKeyEnv))
		}
	}
	check("provider", cfg.Provider)
	for i, fb := range cfg.Fallback {
		check(fmt.Sprintf("fallback[%d]", i), fb)
	}
	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

func validateProvider(label string, p Provider) []string {
	problems := []string{}
	switch p.Kind {
	case ProviderOpenAI, ProviderGemini, ProviderOllama:
	case "":
		problems = append(problems, fmt.Sprintf("%s.kind must be set", label))
	default:
		problems = append(problems, fmt.Sprintf("%s.kind %q is unsupported (expected: openai, gemini, ollama)", label, p.Kind))
	}
	if strings.TrimSpace(p.Model) == "" {
		problems = append(problems, fmt.Sprintf("%s.model must be set", label))
	}
	if p.TimeoutSeconds <= 0 {
		problems = append(problems, fmt.Sprintf("%s.timeout_seconds must be > 0", label))
	}
	if p.Endpoint != "" {
		if err := validateURL(p.Endpoint); err != nil {
			problems = append(problems, fmt.Sprintf("%s has invalid endpoint: %v", label, err))
		}
	}
	if p.Kind == ProviderOllama && p.Endpoint == "" {
		problems = append(problems, fmt.Sprintf("%s.endpoint is required for ollama", label))
	}
	return problems
}

func validateURL(raw string) error {
	parsed, err := url.ParseRequestURI(raw)
	if err != nil {
		return err
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https")
	}
	if strings.TrimSpace(parsed.Host) == "" {
		return fmt.Errorf("host is required")
	}
	return nil
}
