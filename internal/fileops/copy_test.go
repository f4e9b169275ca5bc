package fileops

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestCopyToTempDuplicatesBytesAndTimes(t *testing.T) {
	tmp := t.TempDir()
	src := filepath.Join(tmp, "in", "01 - song.mp3")
	if err := os.MkdirAll(filepath.Dir(src), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(src, []byte("audio-bytes"), 0o444); err != nil {
		t.Fatalf("write src: %v", err)
	}
	mtime := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	if err := os.Chtimes(src, mtime, mtime); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	outDir := filepath.Join(tmp, "out", "nested")
	tempPath, err := CopyToTemp(src, outDir)
	if err != nil {
		t.Fatalf("copy to temp: %v", err)
	}

	if filepath.Dir(tempPath) != outDir {
		t.Fatalf("expected temp inside %s, got %s", outDir, tempPath)
	}
	if !strings.HasPrefix(filepath.Base(tempPath), TempPrefix) || filepath.Ext(tempPath) != ".mp3" {
		t.Fatalf("unexpected temp name %s", tempPath)
	}
	payload, err := os.ReadFile(tempPath)
	if err != nil {
		t.Fatalf("read temp: %v", err)
	}
	if string(payload) != "audio-bytes" {
		t.Fatalf("unexpected copy payload %q", string(payload))
	}
	info, err := os.Stat(tempPath)
	if err != nil {
		t.Fatalf("stat temp: %v", err)
	}
	if !info.ModTime().Equal(mtime) {
		t.Fatalf("expected mtime %v, got %v", mtime, info.ModTime())
	}
	if info.Mode().Perm()&0o200 == 0 {
		t.Fatalf("expected writable copy, got %v", info.Mode())
	}
}

func TestCopyToTempMissingSource(t *testing.T) {
	tmp := t.TempDir()
	if _, err := CopyToTemp(filepath.Join(tmp, "missing.mp3"), tmp); err == nil {
		t.Fatalf("expected error for missing source")
	}
	entries, err := os.ReadDir(tmp)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no leftovers, got %d entries", len(entries))
	}
}

func TestRemoveIfExistsIgnoresMissing(t *testing.T) {
	if err := RemoveIfExists(filepath.Join(t.TempDir(), "nope")); err != nil {
		t.Fatalf("expected nil for missing file, got %v", err)
	}
}
