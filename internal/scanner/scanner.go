// Package scanner enumerates audio files under a directory. Scanning is
// read-only and idempotent, re-scanning an unchanged directory yields the
// same paths in the same order.
package scanner

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/aveslab/perchview/internal/errors"
)

// audio file extensions accepted for analysis, matched case-insensitively
var audioExtensions = map[string]bool{
	".wav":  true,
	".flac": true,
}

// IsAudioFile reports whether path has a supported audio extension.
func IsAudioFile(path string) bool {
	return audioExtensions[strings.ToLower(filepath.Ext(path))]
}

// Scan returns the audio files under dir in lexical order. When recursive is
// false only the top level of the directory is listed. A missing path or a
// path that is not a directory yields a not-found categorized error.
func Scan(dir string, recursive bool) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, errors.Newf("input path not found: %s", dir).
			Component("scanner").
			Category(errors.CategoryNotFound).
			Context("path", dir).
			Build()
	}
	if !info.IsDir() {
		return nil, errors.Newf("input path is not a directory: %s", dir).
			Component("scanner").
			Category(errors.CategoryNotFound).
			Context("path", dir).
			Build()
	}

	var files []string
	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if !recursive && path != dir {
				return filepath.SkipDir
			}
			return nil
		}
		if IsAudioFile(path) {
			files = append(files, path)
		}
		return nil
	})
	if walkErr != nil {
		return nil, errors.New(walkErr).
			Component("scanner").
			Category(errors.CategoryFileIO).
			Context("path", dir).
			Build()
	}

	return files, nil
}
