package cli

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDotEnvFilesLoadsEnvAndLocalOverrides(t *testing.T) {
	tmp := t.TempDir()
	envPath := filepath.Join(tmp, ".env")
	localPath := filepath.Join(tmp, ".env.local")

	if err := os.WriteFile(envPath, []byte("GEMINI_API_KEY=from-env\nSONGMETA_MODEL=gemini-1.5-pro\n"), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	if err := os.WriteFile(localPath, []byte("GEMINI_API_KEY=from-local\n"), 0o644); err != nil {
		t.Fatalf("write .env.local: %v", err)
	}

	values := map[string]string{}
	setenv := func(k, v string) error {
		values[k] = v
		return nil
	}

	if err := loadDotEnvFiles(tmp, nil, setenv); err != nil {
		t.Fatalf("load dotenv files: %v", err)
	}
	if values["GEMINI_API_KEY"] != "from-local" {
		t.Fatalf("expected .env.local to override .env, got %q", values["GEMINI_API_KEY"])
	}
	if values["SONGMETA_MODEL"] != "gemini-1.5-pro" {
		t.Fatalf("expected SONGMETA_MODEL from .env, got %q", values["SONGMETA_MODEL"])
	}
}

func TestLoadDotEnvFilesDoesNotOverrideProcessEnv(t *testing.T) {
	tmp := t.TempDir()
	envPath := filepath.Join(tmp, ".env")
	if err := os.WriteFile(envPath, []byte("OPENAI_API_KEY=from-file\n"), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}

	values := map[string]string{}
	setenv := func(k, v string) error {
		values[k] = v
		return nil
	}

	if err := loadDotEnvFiles(tmp, []string{"OPENAI_API_KEY=already-set"}, setenv); err != nil {
		t.Fatalf("load dotenv files: %v", err)
	}
	if _, exists := values["OPENAI_API_KEY"]; exists {
		t.Fatalf("expected existing process env to be protected")
	}
}

func TestLoadDotEnvFilesSupportsExportAndQuotedValues(t *testing.T) {
	tmp := t.TempDir()
	payload := "# keys\nexport SONGMETA_INPUT_DIR=\"/music/in box\"\nSONGMETA_TAG_POLICY='overwrite'\n"
	if err := os.WriteFile(filepath.Join(tmp, ".env"), []byte(payload), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}

	values := map[string]string{}
	if err := loadDotEnvFiles(tmp, nil, func(k, v string) error {
		values[k] = v
		return nil
	}); err != nil {
		t.Fatalf("load dotenv files: %v", err)
	}
	if values["SONGMETA_INPUT_DIR"] != "/music/in box" {
		t.Fatalf("unexpected double-quoted value %q", values["SONGMETA_INPUT_DIR"])
	}
	if values["SONGMETA_TAG_POLICY"] != "overwrite" {
		t.Fatalf("unexpected single-quoted value %q", values["SONGMETA_TAG_POLICY"])
	}
}

func TestLoadDotEnvFilesWithoutFiles(t *testing.T) {
	called := false
	if err := loadDotEnvFiles(t.TempDir(), nil, func(string, string) error {
		called = true
		return nil
	}); err != nil {
		t.Fatalf("load dotenv files: %v", err)
	}
	if called {
		t.Fatalf("expected no variables to be set")
	}
}
