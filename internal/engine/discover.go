package engine

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

type inputFile struct {
	Path string
	Rel  string
	// Err is set when the walk could not read this entry.
	Err error
}

// discover lists every non-hidden regular file below root, sorted by
// relative path. Unreadable subdirectories are reported as entries so they
// still produce an outcome.
func discover(root string) ([]inputFile, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("input directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("input directory %s is not a directory", root)
	}

	files := []inputFile{}
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if path == root {
			return walkErr
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		if strings.HasPrefix(filepath.Base(path), ".") {
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if walkErr != nil {
			files = append(files, inputFile{Path: path, Rel: rel, Err: walkErr})
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !d.Type().IsRegular() {
			target, statErr := os.Stat(path)
			if statErr != nil || !target.Mode().IsRegular() {
				return nil
			}
		}
		files = append(files, inputFile{Path: path, Rel: rel})
		return nil
	})
	if err != nil && !errors.Is(err, filepath.SkipDir) {
		return nil, fmt.Errorf("walk input directory: %w", err)
	}

	slices.SortFunc(files, func(a, b inputFile) int {
		return strings.Compare(a.Rel, b.Rel)
	})
	return files, nil
}
