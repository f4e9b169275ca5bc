package config

type ProviderKind string

const (
	ProviderOpenAI ProviderKind = "openai"
	ProviderGemini ProviderKind = "gemini"
	ProviderOllama ProviderKind = "ollama"
)

// TagPolicy decides how inferred values combine with tags already present in a file.
type TagPolicy string

const (
	// TagPolicyMerge writes every inferred field and keeps existing values for
	// fields the model left empty.
	TagPolicyMerge TagPolicy = "merge"
	// TagPolicyKeepExisting only fills fields that are empty in the file.
	TagPolicyKeepExisting TagPolicy = "keep-existing"
	// TagPolicyOverwrite writes inferred fields and clears the ones the model
	// left empty.
	TagPolicyOverwrite TagPolicy = "overwrite"
)

type Config struct {
	Version   int        `yaml:"version"`
	InputDir  string     `yaml:"input_dir"`
	OutputDir string     `yaml:"output_dir"`
	Provider  Provider   `yaml:"provider"`
	Fallback  []Provider `yaml:"fallback,omitempty"`
	Batch     Batch      `yaml:"batch"`
	Tags      Tags       `yaml:"tags"`
	Log       Log        `yaml:"log"`
}

type Provider struct {
	Kind           ProviderKind `yaml:"kind"`
	Model          string       `yaml:"model"`
	Endpoint       string       `yaml:"endpoint,omitempty"`
	APIKeyEnv      string       `yaml:"api_key_env,omitempty"`
	APIKey         string       `yaml:"-"`
	TimeoutSeconds int          `yaml:"timeout_seconds"`
}

type Batch struct {
	ProgressInterval    int     `yaml:"progress_interval"`
	RequestDelaySeconds float64 `yaml:"request_delay_seconds"`
	MaxAttempts         int     `yaml:"max_attempts"`
	RetryBaseSeconds    float64 `yaml:"retry_base_seconds"`
	RetryExponent       float64 `yaml:"retry_exponent"`
	RetryMaxSeconds     float64 `yaml:"retry_max_seconds"`
	AbortAfterFatal     int     `yaml:"abort_after_fatal"`
}

type Tags struct {
	OverwriteExisting bool      `yaml:"overwrite_existing"`
	Policy            TagPolicy `yaml:"policy"`
}

type Log struct {
	File       string `yaml:"file"`
	Level      string `yaml:"level"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

func DefaultConfig() Config {
	return Config{
		Version:   1,
		InputDir:  "input",
		OutputDir: "output",
		Provider:  DefaultProvider(ProviderGemini),
		Batch: Batch{
			ProgressInterval:    10,
			RequestDelaySeconds: 1.0,
			MaxAttempts:         3,
			RetryBaseSeconds:    1.0,
			RetryExponent:       2.0,
			RetryMaxSeconds:     30,
			AbortAfterFatal:     3,
		},
		Tags: Tags{
			OverwriteExisting: true,
			Policy:            TagPolicyMerge,
		},
		Log: Log{
			File:       "metadata_updater.log",
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// DefaultProvider returns the stock settings for a provider kind.
func DefaultProvider(kind ProviderKind) Provider {
	p := Provider{Kind: kind, TimeoutSeconds: 60}
	switch kind {
	case ProviderOpenAI:
		p.Model = "gpt-4o-mini"
		p.APIKeyEnv = "OPENAI_API_KEY"
	case ProviderGemini:
		p.Model = "gemini-1.5-flash"
		p.APIKeyEnv = "GEMINI_API_KEY"
	case ProviderOllama:
		p.Model = "llama3.1"
		p.Endpoint = "http://localhost:11434"
		p.TimeoutSeconds = 300
	}
	return p
}

// RequiresAPIKey reports whether the provider kind authenticates with a key.
func (p Provider) RequiresAPIKey() bool {
	return p.Kind == ProviderOpenAI || p.Kind == ProviderGemini
}
