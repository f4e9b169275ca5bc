package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jaa/songmeta/internal/config"
	"github.com/jaa/songmeta/internal/exitcode"
	"github.com/spf13/cobra"
)

type validateProvider struct {
	Name      string `json:"name"`
	Endpoint  string `json:"endpoint,omitempty"`
	APIKeyEnv string `json:"api_key_env,omitempty"`
	KeySet    bool   `json:"key_set"`
}

type validateReport struct {
	Valid              bool               `json:"valid"`
	InputDir           string             `json:"input_dir"`
	OutputDir          string             `json:"output_dir"`
	Providers          []validateProvider `json:"providers"`
	TagPolicy          string             `json:"tag_policy"`
	OverwriteExisting  bool               `json:"overwrite_existing"`
	LogFile            string             `json:"log_file,omitempty"`
	MissingCredentials []string           `json:"missing_credentials,omitempty"`
}

func newValidateCommand(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the config and show the resolved provider chain",
		Long: "Loads the config with environment overrides applied and checks it. Missing API keys are\n" +
			"reported as warnings here; `run` refuses to start without them.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(app)
			if err != nil {
				return withExitCode(exitcode.InvalidConfig, err)
			}

			if err := config.Validate(cfg); err != nil {
				return withExitCode(exitcode.InvalidConfig, err)
			}

			report := buildValidateReport(cfg)
			if app.Opts.JSON {
				encoded, _ := json.Marshal(report)
				fmt.Fprintln(app.IO.Out, string(encoded))
				return nil
			}

			fmt.Fprintln(app.IO.Out, "Config is valid.")
			fmt.Fprintf(app.IO.Out, "  input:  %s\n", report.InputDir)
			fmt.Fprintf(app.IO.Out, "  output: %s\n", report.OutputDir)
			names := make([]string, 0, len(report.Providers))
			for _, p := range report.Providers {
				names = append(names, p.Name)
			}
			fmt.Fprintf(app.IO.Out, "  providers: %s\n", strings.Join(names, " -> "))
			fmt.Fprintf(app.IO.Out, "  tags: policy=%s overwrite_existing=%t\n", report.TagPolicy, report.OverwriteExisting)
			for _, problem := range report.MissingCredentials {
				fmt.Fprintf(app.IO.ErrOut, "warning: %s\n", problem)
			}
			return nil
		},
	}
}

func buildValidateReport(cfg config.Config) validateReport {
	report := validateReport{
		Valid:             true,
		InputDir:          cfg.InputDir,
		OutputDir:         cfg.OutputDir,
		TagPolicy:         string(cfg.Tags.Policy),
		OverwriteExisting: cfg.Tags.OverwriteExisting,
		LogFile:           cfg.Log.File,
	}
	for _, p := range providerChain(cfg) {
		entry := validateProvider{Name: providerLabel(p), KeySet: strings.TrimSpace(p.APIKey) != ""}
		if p.RequiresAPIKey() {
			entry.APIKeyEnv = p.APIKeyEnv
		} else {
			entry.Endpoint = p.Endpoint
		}
		report.Providers = append(report.Providers, entry)
	}

	var verr *config.ValidationError
	if err := config.ValidateCredentials(cfg); errors.As(err, &verr) {
		report.MissingCredentials = verr.Problems
	}
	return report
}
