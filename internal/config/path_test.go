package config

import (
	"path/filepath"
	"testing"
)

func TestExpandPathHomePrefix(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := ExpandPath("~/Music/in")
	if err != nil {
		t.Fatalf("expand path: %v", err)
	}
	want := filepath.Join(home, "Music", "in")
	if got != want {
		t.Fatalf("unexpected expanded path. got=%q want=%q", got, want)
	}
}

func TestExpandPathEnvVariable(t *testing.T) {
	t.Setenv("SONGMETA_TEST_ROOT", "/srv/audio")

	got, err := ExpandPath("$SONGMETA_TEST_ROOT/out/")
	if err != nil {
		t.Fatalf("expand path: %v", err)
	}
	if got != filepath.Clean("/srv/audio/out") {
		t.Fatalf("unexpected expanded path %q", got)
	}
}

func TestUserConfigPathHonorsXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")

	got, err := UserConfigPath()
	if err != nil {
		t.Fatalf("user config path: %v", err)
	}
	if got != filepath.Join("/tmp/xdg", "songmeta", "config.yaml") {
		t.Fatalf("unexpected user config path %q", got)
	}
}
