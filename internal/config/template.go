package config

import "fmt"

func DefaultTemplate() string {
	return Template(ProviderGemini)
}

// Template renders a starter config whose primary provider is kind.
func Template(kind ProviderKind) string {
	d := DefaultConfig()
	d.Provider = DefaultProvider(kind)

	access := fmt.Sprintf("api_key_env: %q", d.Provider.APIKeyEnv)
	if !d.Provider.RequiresAPIKey() {
		access = fmt.Sprintf("endpoint: %q", d.Provider.Endpoint)
	}

	return fmt.Sprintf(`version: 1
input_dir: %q
output_dir: %q

# kind: openai | gemini | ollama
provider:
  kind: %q
  model: %q
  %s
  timeout_seconds: %d

# Providers tried in order once the active one fails for good
# (bad credentials, exhausted quota, local server down).
# fallback:
#   - kind: "ollama"
#     model: "llama3.1"
#     endpoint: "http://localhost:11434"

batch:
  progress_interval: %d
  request_delay_seconds: %.1f
  max_attempts: %d
  retry_base_seconds: %.1f
  retry_exponent: %.1f
  retry_max_seconds: %.0f
  abort_after_fatal: %d

tags:
  overwrite_existing: %t
  # policy: merge | keep-existing | overwrite
  policy: %q

log:
  file: %q
  level: %q
  max_size_mb: %d
  max_backups: %d
`,
		d.InputDir, d.OutputDir,
		d.Provider.Kind, d.Provider.Model, access, d.Provider.TimeoutSeconds,
		d.Batch.ProgressInterval, d.Batch.RequestDelaySeconds, d.Batch.MaxAttempts,
		d.Batch.RetryBaseSeconds, d.Batch.RetryExponent, d.Batch.RetryMaxSeconds, d.Batch.AbortAfterFatal,
		d.Tags.OverwriteExisting, d.Tags.Policy,
		d.Log.File, d.Log.Level, d.Log.MaxSizeMB, d.Log.MaxBackups,
	)
}
