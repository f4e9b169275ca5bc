package cli

import (
	"errors"
	"fmt"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jaa/songmeta/internal/config"
	"github.com/jaa/songmeta/internal/engine"
	"github.com/jaa/songmeta/internal/exitcode"
	"github.com/jaa/songmeta/internal/logging"
	"github.com/jaa/songmeta/internal/output"
	"github.com/jaa/songmeta/internal/provider"
	"github.com/jaa/songmeta/internal/provider/gemini"
	"github.com/jaa/songmeta/internal/provider/ollama"
	"github.com/jaa/songmeta/internal/provider/openai"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func defaultRegistry() provider.Registry {
	return provider.Registry{
		config.ProviderOpenAI: openai.New,
		config.ProviderGemini: gemini.New,
		config.ProviderOllama: ollama.New,
	}
}

func newRunCommand(app *AppContext) *cobra.Command {
	var inputDir string
	var outputDir string

	cmd := &cobra.Command{
		Use:     "run",
		Aliases: []string{"process"},
		Short:   "Tag every audio file in the input directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(app)
			if err != nil {
				return withExitCode(exitcode.InvalidConfig, err)
			}
			if err := applyDirFlags(&cfg, inputDir, outputDir); err != nil {
				return withExitCode(exitcode.InvalidUsage, err)
			}
			if err := config.Validate(cfg); err != nil {
				return withExitCode(exitcode.InvalidConfig, err)
			}
			if !app.Opts.DryRun {
				if err := config.ValidateCredentials(cfg); err != nil {
					return withExitCode(exitcode.InvalidConfig, err)
				}
			}

			runID := uuid.NewString()
			logger, closeLog, err := logging.New(cfg.Log, runID)
			if err != nil {
				return withExitCode(exitcode.RuntimeFailure, fmt.Errorf("open run log: %w", err))
			}
			defer func() { _ = closeLog() }()

			emitter := buildEmitter(app, logger)
			emit := func(event output.Event) {
				event.Timestamp = time.Now()
				event.RunID = runID
				_ = emitter.Emit(event)
			}

			var client provider.Client
			if !app.Opts.DryRun {
				client, err = buildClient(cfg, defaultRegistry(), emit)
				if err != nil {
					return withExitCode(exitcode.InvalidConfig, err)
				}
			}

			batch := engine.New(cfg, client, emitter)
			batch.RunID = runID

			ctx, stop := signal.NotifyContext(cmd.Context(), interruptSignals()...)
			defer stop()

			summary, runErr := batch.Run(ctx, engine.Options{DryRun: app.Opts.DryRun})
			return runResultError(summary, runErr)
		},
	}

	cmd.Flags().StringVarP(&inputDir, "input", "i", "", "Override input_dir")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Override output_dir")
	return cmd
}

func applyDirFlags(cfg *config.Config, inputDir string, outputDir string) error {
	set := func(target *string, raw string) error {
		if strings.TrimSpace(raw) == "" {
			return nil
		}
		expanded, err := config.ExpandPath(raw)
		if err != nil {
			return err
		}
		abs, err := filepath.Abs(expanded)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", raw, err)
		}
		*target = abs
		return nil
	}
	if err := set(&cfg.InputDir, inputDir); err != nil {
		return err
	}
	return set(&cfg.OutputDir, outputDir)
}

func buildEmitter(app *AppContext, logger *zap.Logger) output.EventEmitter {
	emitters := []output.EventEmitter{}
	if app.Opts.JSON {
		emitters = append(emitters, output.NewJSONEmitter(app.IO.Out))
	} else {
		emitters = append(emitters, output.NewHumanEmitter(app.IO.Out, app.IO.ErrOut, app.Opts.Quiet, app.Opts.Verbose))
		if !app.Opts.Quiet && !app.Opts.Verbose && !app.Opts.NoColor && output.SupportsInPlaceUpdates(app.IO.ErrOut) {
			emitters = append(emitters, output.NewProgressEmitter(app.IO.ErrOut))
		}
	}
	emitters = append(emitters, output.NewLogEmitter(logger))
	return output.NewMultiEmitter(emitters...)
}

// buildClient chains the configured providers: each is throttled, cloud
// providers get the retry budget, and the chain falls back on fatal errors.
func buildClient(cfg config.Config, registry provider.Registry, emit func(output.Event)) (provider.Client, error) {
	delay := time.Duration(cfg.Batch.RequestDelaySeconds * float64(time.Second))
	policy := provider.PolicyFromConfig(cfg.Batch)

	blocks := providerChain(cfg)
	chain := make([]provider.Named, 0, len(blocks))
	for _, block := range blocks {
		base, err := registry.New(block)
		if err != nil {
			return nil, err
		}
		name := providerLabel(block)

		var client provider.Client = provider.Throttle(base, delay)
		if block.Kind != config.ProviderOllama {
			client = provider.Retry(client, policy, provider.OnRetry(func(ev provider.RetryEvent) {
				emit(output.Event{
					Level:   output.LevelWarn,
					Event:   output.EventRetryScheduled,
					Message: fmt.Sprintf("%s attempt %d failed, retrying in %s: %v", name, ev.Attempt, ev.Delay, ev.Err),
					Details: map[string]any{
						"provider": name,
						"attempt":  ev.Attempt,
						"delay_ms": ev.Delay.Milliseconds(),
						"error":    ev.Err.Error(),
					},
				})
			}))
		}
		chain = append(chain, provider.Named{Name: name, Client: client})
	}

	return provider.Fallback(chain, provider.OnSwitch(func(ev provider.SwitchEvent) {
		emit(output.Event{
			Level:   output.LevelWarn,
			Event:   output.EventProviderSwitched,
			Message: fmt.Sprintf("switching model provider from %s to %s: %v", ev.From, ev.To, ev.Err),
			Details: map[string]any{
				"from":  ev.From,
				"to":    ev.To,
				"error": ev.Err.Error(),
			},
		})
	})), nil
}

func runResultError(summary engine.Summary, runErr error) error {
	var abortErr *engine.AbortError
	switch {
	case errors.Is(runErr, engine.ErrInterrupted):
		return withExitCode(exitcode.Interrupted, runErr)
	case errors.As(runErr, &abortErr):
		return withExitCode(exitcode.Aborted, runErr)
	case runErr != nil:
		return withExitCode(exitcode.RuntimeFailure, runErr)
	case summary.Failed > 0:
		return withExitCode(exitcode.PartialSuccess, fmt.Errorf("run finished with %d failed file(s) out of %d", summary.Failed, summary.Total))
	}
	return nil
}
