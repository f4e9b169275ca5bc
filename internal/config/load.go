package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type LoadOptions struct {
	ExplicitPath string
	WorkingDir   string
	Env          map[string]string
}

type fileConfig struct {
	Version   *int            `yaml:"version"`
	InputDir  *string         `yaml:"input_dir"`
	OutputDir *string         `yaml:"output_dir"`
	Provider  *fileProvider   `yaml:"provider"`
	Fallback  *[]fileProvider `yaml:"fallback"`
	Batch     fileBatch       `yaml:"batch"`
	Tags      fileTags        `yaml:"tags"`
	Log       fileLog         `yaml:"log"`
}

type fileProvider struct {
	Kind           string  `yaml:"kind"`
	Model          *string `yaml:"model"`
	Endpoint       *string `yaml:"endpoint"`
	APIKeyEnv      *string `yaml:"api_key_env"`
	TimeoutSeconds *int    `yaml:"timeout_seconds"`
}

type fileBatch struct {
	ProgressInterval    *int     `yaml:"progress_interval"`
	RequestDelaySeconds *float64 `yaml:"request_delay_seconds"`
	MaxAttempts         *int     `yaml:"max_attempts"`
	RetryBaseSeconds    *float64 `yaml:"retry_base_seconds"`
	RetryExponent       *float64 `yaml:"retry_exponent"`
	RetryMaxSeconds     *float64 `yaml:"retry_max_seconds"`
	AbortAfterFatal     *int     `yaml:"abort_after_fatal"`
}

type fileTags struct {
	OverwriteExisting *bool   `yaml:"overwrite_existing"`
	Policy            *string `yaml:"policy"`
}

type fileLog struct {
	File       *string `yaml:"file"`
	Level      *string `yaml:"level"`
	MaxSizeMB  *int    `yaml:"max_size_mb"`
	MaxBackups *int    `yaml:"max_backups"`
}

func Load(opts LoadOptions) (Config, error) {
	cfg := DefaultConfig()

	cwd := opts.WorkingDir
	if strings.TrimSpace(cwd) == "" {
		wd, err := os.Getwd()
		if err != nil {
			return Config{}, fmt.Errorf("resolve working directory: %w", err)
		}
		cwd = wd
	}

	env := opts.Env
	if env == nil {
		env = osEnvMap()
	}

	if explicit := strings.TrimSpace(opts.ExplicitPath); explicit != "" {
		if err := mergeFile(&cfg, explicit, true); err != nil {
			return Config{}, err
		}
	} else {
		userPath, err := UserConfigPath()
		if err != nil {
			return Config{}, err
		}
		if err := mergeFile(&cfg, userPath, false); err != nil {
			return Config{}, err
		}

		if err := mergeFile(&cfg, ProjectConfigPath(cwd), false); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnvOverrides(&cfg, env); err != nil {
		return Config{}, err
	}

	normalize(&cfg, cwd, env)
	return cfg, nil
}

func mergeFile(cfg *Config, path string, required bool) error {
	payload, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return nil
		}
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("config file does not exist: %s", path)
		}
		return fmt.Errorf("read config file %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(payload, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	if fc.Version != nil {
		cfg.Version = *fc.Version
	}
	if fc.InputDir != nil {
		cfg.InputDir = strings.TrimSpace(*fc.InputDir)
	}
	if fc.OutputDir != nil {
		cfg.OutputDir = strings.TrimSpace(*fc.OutputDir)
	}
	if fc.Provider != nil {
		cfg.Provider = mergeProvider(cfg.Provider, *fc.Provider)
	}
	if fc.Fallback != nil {
		cfg.Fallback = make([]Provider, 0, len(*fc.Fallback))
		for _, fp := range *fc.Fallback {
			cfg.Fallback = append(cfg.Fallback, mergeProvider(Provider{}, fp))
		}
	}

	if fc.Batch.ProgressInterval != nil {
		cfg.Batch.ProgressInterval = *fc.Batch.ProgressInterval
	}
	if fc.Batch.RequestDelaySeconds != nil {
		cfg.Batch.RequestDelaySeconds = *fc.Batch.RequestDelaySeconds
	}
	if fc.Batch.MaxAttempts != nil {
		cfg.Batch.MaxAttempts = *fc.Batch.MaxAttempts
	}
	if fc.Batch.RetryBaseSeconds != nil {
		cfg.Batch.RetryBaseSeconds = *fc.Batch.RetryBaseSeconds
	}
	if fc.Batch.RetryExponent != nil {
		cfg.Batch.RetryExponent = *fc.Batch.RetryExponent
	}
	if fc.Batch.RetryMaxSeconds != nil {
		cfg.Batch.RetryMaxSeconds = *fc.Batch.RetryMaxSeconds
	}
	if fc.Batch.AbortAfterFatal != nil {
		cfg.Batch.AbortAfterFatal = *fc.Batch.AbortAfterFatal
	}

	if fc.Tags.OverwriteExisting != nil {
		cfg.Tags.OverwriteExisting = *fc.Tags.OverwriteExisting
	}
	if fc.Tags.Policy != nil {
		cfg.Tags.Policy = TagPolicy(strings.ToLower(strings.TrimSpace(*fc.Tags.Policy)))
	}

	if fc.Log.File != nil {
		cfg.Log.File = strings.TrimSpace(*fc.Log.File)
	}
	if fc.Log.Level != nil {
		cfg.Log.Level = strings.ToLower(strings.TrimSpace(*fc.Log.Level))
	}
	if fc.Log.MaxSizeMB != nil {
		cfg.Log.MaxSizeMB = *fc.Log.MaxSizeMB
	}
	if fc.Log.MaxBackups != nil {
		cfg.Log.MaxBackups = *fc.Log.MaxBackups
	}

	return nil
}

// mergeProvider layers a file provider block over base. A kind change resets
// the block to that kind's defaults first so stale model names do not leak.
func mergeProvider(base Provider, fp fileProvider) Provider {
	kind := ProviderKind(strings.ToLower(strings.TrimSpace(fp.Kind)))
	if kind != "" && kind != base.Kind {
		base = DefaultProvider(kind)
	}
	if fp.Model != nil {
		base.Model = strings.TrimSpace(*fp.Model)
	}
	if fp.Endpoint != nil {
		base.Endpoint = strings.TrimSpace(*fp.Endpoint)
	}
	if fp.APIKeyEnv != nil {
		base.APIKeyEnv = strings.TrimSpace(*fp.APIKeyEnv)
	}
	if fp.TimeoutSeconds != nil {
		base.TimeoutSeconds = *fp.TimeoutSeconds
	}
	return base
}

func applyEnvOverrides(cfg *Config, env map[string]string) error {
	if value := strings.TrimSpace(env["SONGMETA_INPUT_DIR"]); value != "" {
		cfg.InputDir = value
	}
	if value := strings.TrimSpace(env["SONGMETA_OUTPUT_DIR"]); value != "" {
		cfg.OutputDir = value
	}
	if value := strings.TrimSpace(env["SONGMETA_PROVIDER"]); value != "" {
		kind := ProviderKind(strings.ToLower(value))
		if kind != cfg.Provider.Kind {
			cfg.Provider = DefaultProvider(kind)
		}
	}
	if value := strings.TrimSpace(env["SONGMETA_MODEL"]); value != "" {
		cfg.Provider.Model = value
	}
	if value := strings.TrimSpace(env["SONGMETA_ENDPOINT"]); value != "" {
		cfg.Provider.Endpoint = value
	}
	if value := strings.TrimSpace(env["SONGMETA_REQUEST_DELAY"]); value != "" {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid SONGMETA_REQUEST_DELAY value %q: %w", value, err)
		}
		cfg.Batch.RequestDelaySeconds = parsed
	}
	if value := strings.TrimSpace(env["SONGMETA_PROGRESS_INTERVAL"]); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid SONGMETA_PROGRESS_INTERVAL value %q: %w", value, err)
		}
		cfg.Batch.ProgressInterval = parsed
	}
	if value := strings.TrimSpace(env["SONGMETA_OVERWRITE"]); value != "" {
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid SONGMETA_OVERWRITE value %q: %w", value, err)
		}
		cfg.Tags.OverwriteExisting = parsed
	}
	if value := strings.TrimSpace(env["SONGMETA_TAG_POLICY"]); value != "" {
		cfg.Tags.Policy = TagPolicy(strings.ToLower(value))
	}
	if value := strings.TrimSpace(env["SONGMETA_LOG_FILE"]); value != "" {
		cfg.Log.File = value
	}
	return nil
}

func normalize(cfg *Config, cwd string, env map[string]string) {
	cfg.InputDir = resolveDir(cwd, cfg.InputDir)
	cfg.OutputDir = resolveDir(cwd, cfg.OutputDir)
	if cfg.Log.File != "" {
		cfg.Log.File = resolveDir(cwd, cfg.Log.File)
	}
	if cfg.Tags.Policy == "" {
		cfg.Tags.Policy = TagPolicyMerge
	}

	cfg.Provider = normalizeProvider(cfg.Provider, env)
	for i := range cfg.Fallback {
		cfg.Fallback[i] = normalizeProvider(cfg.Fallback[i], env)
	}
}

func normalizeProvider(p Provider, env map[string]string) Provider {
	defaults := DefaultProvider(p.Kind)
	if p.Model == "" {
		p.Model = defaults.Model
	}
	if p.Endpoint == "" {
		p.Endpoint = defaults.Endpoint
	}
	if p.APIKeyEnv == "" {
		p.APIKeyEnv = defaults.APIKeyEnv
	}
	if p.TimeoutSeconds == 0 {
		p.TimeoutSeconds = defaults.TimeoutSeconds
	}
	if p.APIKeyEnv != "" {
		p.APIKey = strings.TrimSpace(env[p.APIKeyEnv])
	}
	return p
}

func resolveDir(cwd string, raw string) string {
	expanded, err := ExpandPath(raw)
	if err != nil || expanded == "" {
		return raw
	}
	if filepath.IsAbs(expanded) {
		return expanded
	}
	return filepath.Join(cwd, expanded)
}

func osEnvMap() map[string]string {
	result := map[string]string{}
	for _, pair := range os.Environ() {
		pieces := strings.SplitN(pair, "=", 2)
		if len(pieces) == 2 {
			result[pieces[0]] = pieces[1]
		}
	}
	return result
}

func EnsureConfigDir(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config directory %s: %w", dir, err)
	}
	return nil
}
