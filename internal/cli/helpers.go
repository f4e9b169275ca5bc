package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/jaa/songmeta/internal/config"
)

func loadConfig(app *AppContext) (config.Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return config.Config{}, fmt.Errorf("resolve working directory: %w", err)
	}

	cfg, err := config.Load(config.LoadOptions{
		ExplicitPath: strings.TrimSpace(app.Opts.ConfigPath),
		WorkingDir:   wd,
	})
	if err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// providerLabel names a provider block the way events and logs refer to it.
func providerLabel(p config.Provider) string {
	return fmt.Sprintf("%s/%s", p.Kind, p.Model)
}

// providerChain lists the primary provider followed by its fallbacks.
func providerChain(cfg config.Config) []config.Provider {
	chain := make([]config.Provider, 0, 1+len(cfg.Fallback))
	chain = append(chain, cfg.Provider)
	return append(chain, cfg.Fallback...)
}

func isTTY(file *os.File) bool {
	stat, err := file.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) != 0
}
