package fileops

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

var (
	statFile   = os.Stat
	renameFile = os.Rename
	removeFile = os.Remove
)

// BackupSuffix is appended to a destination while it is being replaced.
const BackupSuffix = ".songmeta.bak"

// ReplaceFileSafely moves tempPath over targetPath. An existing target is kept
// as a backup until the rename succeeds and restored if it does not. The temp
// file never survives a failed replacement.
func ReplaceFileSafely(tempPath string, targetPath string) (err error) {
	temp := strings.TrimSpace(tempPath)
	target := strings.TrimSpace(targetPath)
	if temp == "" {
		return fmt.Errorf("replacement temp path is empty")
	}
	if target == "" {
		return fmt.Errorf("replacement target path is empty")
	}
	if temp == target {
		return fmt.Errorf("replacement temp and target paths must differ")
	}

	tempInfo, err := statFile(temp)
	if err != nil {
		return fmt.Errorf("stat replacement temp %q: %w", temp, err)
	}
	if tempInfo.IsDir() {
		return fmt.Errorf("replacement temp path is a directory: %s", temp)
	}
	defer func() {
		if err != nil {
			_ = removeFile(temp)
		}
	}()

	backup := target + BackupSuffix
	if _, statErr := statFile(backup); statErr == nil {
		if removeErr := removeFile(backup); removeErr != nil {
			return fmt.Errorf("remove stale replacement backup %q: %w", backup, removeErr)
		}
	} else if !errors.Is(statErr, os.ErrNotExist) {
		return fmt.Errorf("stat replacement backup %q: %w", backup, statErr)
	}

	hadTarget := false
	if _, statErr := statFile(target); statErr == nil {
		hadTarget = true
		if renameErr := renameFile(target, backup); renameErr != nil {
			return fmt.Errorf("move existing target to backup: %w", renameErr)
		}
	} else if !errors.Is(statErr, os.ErrNotExist) {
		return fmt.Errorf("stat replacement target %q: %w", target, statErr)
	}

	if renameErr := renameFile(temp, target); renameErr != nil {
		if hadTarget {
			if rollbackErr := renameFile(backup, target); rollbackErr != nil {
				return fmt.Errorf("replace failed (%v) and rollback failed (%w)", renameErr, rollbackErr)
			}
		}
		return fmt.Errorf("replace target with temp: %w", renameErr)
	}

	if hadTarget {
		// The new file is already in place; a stale backup is only noise.
		_ = removeFile(backup)
	}
	return nil
}
