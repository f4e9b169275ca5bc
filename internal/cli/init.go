package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/jaa/songmeta/internal/config"
	"github.com/jaa/songmeta/internal/exitcode"
	"github.com/spf13/cobra"
)

func newInitCommand(app *AppContext) *cobra.Command {
	force := false
	providerKind := string(config.ProviderGemini)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a starter config file for one model provider",
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := config.ProviderKind(strings.ToLower(strings.TrimSpace(providerKind)))
			switch kind {
			case config.ProviderOpenAI, config.ProviderGemini, config.ProviderOllama:
			default:
				return withExitCode(exitcode.InvalidUsage, fmt.Errorf("unsupported --provider %q (expected: openai, gemini, ollama)", providerKind))
			}

			path := strings.TrimSpace(app.Opts.ConfigPath)
			if path == "" {
				userPath, err := config.UserConfigPath()
				if err != nil {
					return withExitCode(exitcode.RuntimeFailure, err)
				}
				path = userPath
			}

			if err := config.EnsureConfigDir(path); err != nil {
				return withExitCode(exitcode.RuntimeFailure, err)
			}

			if _, err := os.Stat(path); err == nil && !force {
				if app.Opts.NoInput || !isTTY(os.Stdin) {
					return withExitCode(exitcode.RuntimeFailure, fmt.Errorf("config already exists at %s (rerun with --force)", path))
				}
				confirmed, confirmErr := promptYesNo(app, fmt.Sprintf("Config already exists at %s. Overwrite?", path))
				if confirmErr != nil {
					return withExitCode(exitcode.RuntimeFailure, confirmErr)
				}
				if !confirmed {
					fmt.Fprintln(app.IO.Out, "Initialization canceled.")
					return nil
				}
			}

			if err := os.WriteFile(path, []byte(config.Template(kind)), 0o644); err != nil {
				return withExitCode(exitcode.RuntimeFailure, fmt.Errorf("write config file: %w", err))
			}

			fmt.Fprintf(app.IO.Out, "Wrote config: %s\n", path)
			defaults := config.DefaultProvider(kind)
			if defaults.RequiresAPIKey() {
				fmt.Fprintf(app.IO.Out, "Export %s, then run: songmeta doctor\n", defaults.APIKeyEnv)
			} else {
				fmt.Fprintf(app.IO.Out, "Start ollama and pull the model (ollama pull %s), then run: songmeta doctor\n", defaults.Model)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing config file")
	cmd.Flags().StringVar(&providerKind, "provider", providerKind, "Primary provider for the starter config: openai, gemini or ollama")
	return cmd
}

func promptYesNo(app *AppContext, prompt string) (bool, error) {
	fmt.Fprintf(app.IO.Out, "%s [y/N]: ", prompt)
	reader := bufio.NewReader(app.IO.In)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false, err
	}
	response := strings.ToLower(strings.TrimSpace(line))
	return response == "y" || response == "yes", nil
}
