package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// loadDotEnvFiles applies .env then .env.local from cwd. Values from the
// later file win, and variables already set in the process are never
// replaced.
func loadDotEnvFiles(cwd string, environ []string, setenv func(string, string) error) error {
	if strings.TrimSpace(cwd) == "" {
		return nil
	}
	if setenv == nil {
		return fmt.Errorf("setenv is required")
	}

	protected := map[string]struct{}{}
	for _, pair := range environ {
		key, _, ok := strings.Cut(pair, "=")
		if ok {
			protected[key] = struct{}{}
		}
	}

	files := []string{}
	for _, name := range []string{".env", ".env.local"} {
		path := filepath.Join(cwd, name)
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("stat %s: %w", path, err)
		}
		files = append(files, path)
	}
	if len(files) == 0 {
		return nil
	}

	values, err := godotenv.Read(files...)
	if err != nil {
		return fmt.Errorf("read env files: %w", err)
	}
	for key, value := range values {
		if _, exists := protected[key]; exists {
			continue
		}
		if err := setenv(key, value); err != nil {
			return fmt.Errorf("set %s from env file: %w", key, err)
		}
	}
	return nil
}
