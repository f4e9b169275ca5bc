package fileops

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// TempPrefix marks in-progress output files so interrupted runs can be told
// apart from finished copies.
const TempPrefix = ".songmeta-"

// CopyToTemp duplicates src into a new temp file inside dstDir and returns its
// path. The source is opened read-only. The copy keeps the source permission
// bits and modification time. On failure nothing is left behind.
func CopyToTemp(src string, dstDir string) (path string, err error) {
	in, err := os.Open(src)
	if err != nil {
		return "", fmt.Errorf("open source %q: %w", src, err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return "", fmt.Errorf("stat source %q: %w", src, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("source is a directory: %s", src)
	}

	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory %s: %w", dstDir, err)
	}

	ext := filepath.Ext(src)
	base := strings.TrimSuffix(filepath.Base(src), ext)
	out, err := os.CreateTemp(dstDir, TempPrefix+base+"-*"+ext)
	if err != nil {
		return "", fmt.Errorf("create temp copy in %s: %w", dstDir, err)
	}
	tempPath := out.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tempPath)
		}
	}()

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return "", fmt.Errorf("copy %q: %w", src, err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("close temp copy %q: %w", tempPath, err)
	}
	if err := os.Chmod(tempPath, info.Mode().Perm()|0o200); err != nil {
		return "", fmt.Errorf("chmod temp copy %q: %w", tempPath, err)
	}
	if err := os.Chtimes(tempPath, info.ModTime(), info.ModTime()); err != nil {
		return "", fmt.Errorf("preserve times on %q: %w", tempPath, err)
	}
	return tempPath, nil
}

// RemoveIfExists deletes path, ignoring a missing file.
func RemoveIfExists(path string) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
