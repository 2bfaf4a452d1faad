// Package utils provides small helpers shared by the server and the render
// engines.
//
// Functions:
//   - SanitizeFilename: maps a quote label onto a header-safe file name.
//   - GenerateUUID: returns a new random UUID string.
//   - CleanDir: removes the regular files left in a work directory.
package utils

import (
	"os"
	"path/filepath"
	"regexp"

	"github.com/google/uuid"
)

const maxFilenameLen = 100

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// SanitizeFilename replaces every byte outside [a-zA-Z0-9._-] with "_" and
// caps the result at 100 bytes. Path separators are replaced too, so the
// whole name survives.
func SanitizeFilename(name string) string {
	safe := unsafeFilenameChars.ReplaceAllString(name, "_")
	if len(safe) > maxFilenameLen {
		safe = safe[:maxFilenameLen]
	}
	return safe
}

func GenerateUUID() string {
	return uuid.New().String()
}

// CleanDir removes the regular files directly under dir. A missing dir is
// not an error.
func CleanDir(dir string) (removed int, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(dir, entry.Name())); err == nil {
			removed++
		}
	}
	return removed, nil
}
