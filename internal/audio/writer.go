package audio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/jaa/songmeta/internal/fileops"
)

// Update is the resolved change set for one file: fields to set and fields
// to clear. A field never appears in both.
type Update struct {
	Set   map[Field]string
	Clear []Field
}

func (u Update) Empty() bool {
	return len(u.Set) == 0 && len(u.Clear) == 0
}

type tagFunc func(path string, u Update) error

// Writer publishes a tagged copy of a source file. The source is only ever
// opened read-only.
type Writer struct {
	copyToTemp func(src string, dstDir string) (string, error)
	replace    func(tempPath string, targetPath string) error
	taggers    map[Format]tagFunc
}

func NewWriter() *Writer {
	return &Writer{
		copyToTemp: fileops.CopyToTemp,
		replace:    fileops.ReplaceFileSafely,
		taggers: map[Format]tagFunc{
			FormatMP3:  writeID3,
			FormatFLAC: writeFLAC,
			FormatM4A:  writeMP4,
			FormatMP4:  writeMP4,
			FormatOGG:  writeVorbis,
			FormatOPUS: writeVorbis,
		},
	}
}

// Write copies rec's file to dst and applies u to the copy. On failure no
// temp file or partial destination is left behind.
func (w *Writer) Write(ctx context.Context, rec Record, dst string, u Update) (err error) {
	tagger, ok := w.taggers[rec.Format]
	if !ok {
		return &UnsupportedFormatError{Path: rec.SourcePath, Extension: filepath.Ext(rec.SourcePath)}
	}
	if err := validateUpdate(rec.Format, u); err != nil {
		return wrapWriteErr(dst, rec.Format, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	_, statErr := os.Stat(dst)
	existedBefore := statErr == nil

	temp, err := w.copyToTemp(rec.SourcePath, filepath.Dir(dst))
	if err != nil {
		return wrapWriteErr(dst, rec.Format, fmt.Errorf("copy source: %w", err))
	}
	defer func() {
		if err == nil {
			return
		}
		_ = fileops.RemoveIfExists(temp)
		if !existedBefore {
			_ = fileops.RemoveIfExists(dst)
		}
	}()

	if err := tagger(temp, u); err != nil {
		return wrapWriteErr(dst, rec.Format, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := w.replace(temp, dst); err != nil {
		return wrapWriteErr(dst, rec.Format, err)
	}
	return nil
}

func validateUpdate(format Format, u Update) error {
	for field, value := range u.Set {
		if slices.Contains(u.Clear, field) {
			return fmt.Errorf("field %s both set and cleared", field)
		}
		if !slices.Contains(WritableFields, field) {
			return &UnsupportedFieldError{Format: format, Field: field, Value: value}
		}
		if field == FieldYear {
			year, err := strconv.Atoi(value)
			if err != nil || year < 1 || year > 9999 {
				return &UnsupportedFieldError{Format: format, Field: field, Value: value}
			}
		}
	}
	for _, field := range u.Clear {
		if !slices.Contains(WritableFields, field) {
			return &UnsupportedFieldError{Format: format, Field: field}
		}
	}
	return nil
}

// sortedSet iterates u.Set in WritableFields order.
func (u Update) sortedSet(fn func(Field, string)) {
	for _, field := range WritableFields {
		if value, ok := u.Set[field]; ok {
			fn(field, value)
		}
	}
}
