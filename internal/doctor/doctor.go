package doctor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jaa/songmeta/internal/audio"
	"github.com/jaa/songmeta/internal/config"
	"github.com/jaa/songmeta/internal/fileops"
	"github.com/jaa/songmeta/internal/provider/ollama"
)

type Severity string

const (
	SeverityInfo  Severity = "info"
	SeverityWarn  Severity = "warn"
	SeverityError Severity = "error"
)

type Check struct {
	Severity Severity `json:"severity"`
	Name     string   `json:"name"`
	Message  string   `json:"message"`
}

type Report struct {
	Checks []Check `json:"checks"`
}

func (r Report) HasErrors() bool {
	for _, check := range r.Checks {
		if check.Severity == SeverityError {
			return true
		}
	}
	return false
}

func (r Report) ErrorCount() int {
	count := 0
	for _, check := range r.Checks {
		if check.Severity == SeverityError {
			count++
		}
	}
	return count
}

func (r *Report) add(severity Severity, name string, format string, args ...any) {
	r.Checks = append(r.Checks, Check{Severity: severity, Name: name, Message: fmt.Sprintf(format, args...)})
}

type Checker struct {
	Stat          func(string) (os.FileInfo, error)
	CheckWritable func(string) error
	// ListModels returns the models installed on a local inference server.
	ListModels func(context.Context, config.Provider) ([]string, error)
}

func NewChecker() *Checker {
	return &Checker{
		Stat:          os.Stat,
		CheckWritable: checkDirWritable,
		ListModels: func(ctx context.Context, p config.Provider) ([]string, error) {
			return ollama.NewClient(p).ListModels(ctx)
		},
	}
}

// Check inspects the environment a run would need without touching any
// audio file or spending provider quota.
func (c *Checker) Check(ctx context.Context, cfg config.Config) Report {
	report := Report{Checks: []Check{}}

	if err := config.Validate(cfg); err != nil {
		var validationErr *config.ValidationError
		if errors.As(err, &validationErr) {
			for _, problem := range validationErr.Problems {
				report.add(SeverityError, "config", "%s", problem)
			}
		} else {
			report.add(SeverityError, "config", "%v", err)
		}
	} else {
		report.add(SeverityInfo, "config", "configuration is valid")
	}

	c.checkInputDir(&report, cfg.InputDir)
	c.checkOutputDir(&report, cfg.OutputDir)

	c.checkProvider(ctx, &report, "provider", cfg.Provider)
	for i, fb := range cfg.Fallback {
		c.checkProvider(ctx, &report, fmt.Sprintf("fallback[%d]", i), fb)
	}

	report.add(SeverityInfo, "formats", "supported extensions: %s", strings.Join(audio.SupportedExtensions(), ", "))
	return report
}

func (c *Checker) checkInputDir(report *Report, dir string) {
	info, err := c.Stat(dir)
	switch {
	case err != nil:
		report.add(SeverityError, "filesystem", "input_dir %s is not readable: %v", dir, err)
	case !info.IsDir():
		report.add(SeverityError, "filesystem", "input_dir %s is not a directory", dir)
	default:
		report.add(SeverityInfo, "filesystem", "input_dir %s exists", dir)
	}
}

// checkOutputDir accepts a missing output directory as long as its closest
// existing ancestor is writable, since runs create it on demand.
func (c *Checker) checkOutputDir(report *Report, dir string) {
	target := dir
	for {
		if _, err := c.Stat(target); err == nil {
			break
		}
		parent := filepath.Dir(target)
		if parent == target {
			break
		}
		target = parent
	}
	if err := c.CheckWritable(target); err != nil {
		report.add(SeverityError, "filesystem", "output_dir %s is not writable: %v", dir, err)
		return
	}
	report.add(SeverityInfo, "filesystem", "output_dir %s is writable", dir)
}

func (c *Checker) checkProvider(ctx context.Context, report *Report, label string, p config.Provider) {
	if p.RequiresAPIKey() {
		if strings.TrimSpace(p.APIKey) == "" {
			report.add(SeverityError, "auth", "%s %s needs an API key in $%s", label, p.Kind, p.APIKeyEnv)
		} else {
			report.add(SeverityInfo, "auth", "%s %s API key is present ($%s)", label, p.Kind, p.APIKeyEnv)
		}
		return
	}
	if p.Kind != config.ProviderOllama {
		return
	}

	models, err := c.ListModels(ctx, p)
	if err != nil {
		report.add(SeverityError, "provider", "%s ollama server at %s is not reachable: %v", label, p.Endpoint, err)
		return
	}
	if !ollama.HasModel(models, p.Model) {
		report.add(SeverityError, "provider", "%s model %s is not installed (run: ollama pull %s)", label, p.Model, p.Model)
		return
	}
	report.add(SeverityInfo, "provider", "%s ollama model %s is available at %s", label, p.Model, p.Endpoint)
}

func checkDirWritable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", path)
	}

	file, err := os.CreateTemp(path, fileops.TempPrefix+"write-check-*")
	if err != nil {
		return err
	}
	name := file.Name()
	_ = file.Close()
	_ = os.Remove(name)
	return nil
}
