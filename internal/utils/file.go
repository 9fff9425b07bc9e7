// Package utils holds small path and file predicates shared by the CLI and
// the file processor.
package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// passageExtensions are the file extensions a passages document may carry.
var passageExtensions = map[string]bool{
	".json": true,
	".txt":  true,
	".md":   true,
}

// ValidateInputFile checks that the path names an existing, readable,
// regular file.
func ValidateInputFile(filename string) error {
	if filename == "" {
		return fmt.Errorf("filename cannot be empty")
	}

	info, err := os.Stat(filename)
	switch {
	case os.IsNotExist(err):
		return fmt.Errorf("file does not exist: %s", filename)
	case err != nil:
		return fmt.Errorf("cannot access file %s: %w", filename, err)
	case info.IsDir():
		return fmt.Errorf("path is a directory, not a file: %s", filename)
	}

	f, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("cannot read file %s: %w", filename, err)
	}
	return f.Close()
}

// ValidateOutputFile ensures the output path's directory exists, creating
// it when needed. An empty path means stdout and is always valid.
func ValidateOutputFile(filename string) error {
	if filename == "" {
		return nil
	}

	dir := filepath.Dir(filename)
	if dir == "." {
		return nil
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("cannot create directory %s: %w", dir, err)
		}
	}
	return nil
}

// GetFileExtension returns the lowercased extension including the dot.
func GetFileExtension(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}

// IsPassagesFile reports whether the extension looks like a passages
// document.
func IsPassagesFile(filename string) bool {
	return passageExtensions[GetFileExtension(filename)]
}
