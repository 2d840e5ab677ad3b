// Package fsutil provides small file system helpers used when exporting
// cover art to disk.
package fsutil

import (
	"os"
	"regexp"
	"strings"
)

// SanitizeFileName removes or replaces characters that are invalid in
// file names, so exported art files named after artist and album titles
// stay valid across operating systems.
//
// The following transformations are applied:
//   - Invalid characters (<>:"/\|?* and control chars 0x00-0x1f) → underscore
//   - Trailing dots → removed (Windows limitation)
//   - Multiple whitespace → single space
//   - Trailing whitespace → removed
func SanitizeFileName(name string) string {
	invalidChars := regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)
	name = invalidChars.ReplaceAllString(name, "_")

	name = regexp.MustCompile(`\.+$`).ReplaceAllString(name, "")

	name = regexp.MustCompile(`\s+`).ReplaceAllString(name, " ")

	return strings.TrimRight(name, " ")
}

// EnsureDir creates a directory and all parents if they don't exist.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}

// WriteFile writes data to a file with mode 0644, truncating any
// existing content.
func WriteFile(path string, data []byte) error {
	return os.WriteFile(path, data, 0644)
}
