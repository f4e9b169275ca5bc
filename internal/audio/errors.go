package audio

import (
	"errors"
	"fmt"
	"os"
)

type UnsupportedFormatError struct {
	Path      string
	Extension string
}

func (e *UnsupportedFormatError) Error() string {
	if e.Extension == "" {
		return fmt.Sprintf("unsupported format: %s has no extension", e.Path)
	}
	return fmt.Sprintf("unsupported format %q: %s", e.Extension, e.Path)
}

type UnreadableFileError struct {
	Path string
	Err  error
}

func (e *UnreadableFileError) Error() string {
	return fmt.Sprintf("unreadable audio file %s: %v", e.Path, e.Err)
}

func (e *UnreadableFileError) Unwrap() error {
	return e.Err
}

type WritePermissionError struct {
	Path string
	Err  error
}

func (e *WritePermissionError) Error() string {
	return fmt.Sprintf("permission denied writing %s: %v", e.Path, e.Err)
}

func (e *WritePermissionError) Unwrap() error {
	return e.Err
}

// UnsupportedFieldError reports a value the target container cannot hold.
type UnsupportedFieldError struct {
	Format Format
	Field  Field
	Value  string
}

func (e *UnsupportedFieldError) Error() string {
	return fmt.Sprintf("%s tags cannot represent %s=%q", e.Format, e.Field, e.Value)
}

type WriteError struct {
	Path   string
	Format Format
	Err    error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write %s tags to %s: %v", e.Format, e.Path, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// wrapWriteErr classifies a failure from a tag library or the filesystem.
func wrapWriteErr(path string, format Format, err error) error {
	if err == nil {
		return nil
	}
	var permErr *WritePermissionError
	var fieldErr *UnsupportedFieldError
	if errors.As(err, &permErr) || errors.As(err, &fieldErr) {
		return err
	}
	if errors.Is(err, os.ErrPermission) {
		return &WritePermissionError{Path: path, Err: err}
	}
	return &WriteError{Path: path, Format: format, Err: err}
}
