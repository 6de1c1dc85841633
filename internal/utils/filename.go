package utils

import (
	"path/filepath"
	"regexp"
	"strings"
)

var (
	// Characters invalid in filenames on most filesystems
	invalidFilenameChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)
	// Multiple spaces to collapse
	multipleSpaces = regexp.MustCompile(`\s+`)
)

// DefaultFilename is used when a filename sanitizes down to nothing.
const DefaultFilename = "download.csv"

// SanitizeFilename makes a caller-supplied download name safe to create on
// disk. Directory components are dropped, characters invalid on common
// filesystems are removed and the result is length-limited with its
// extension kept.
func SanitizeFilename(filename string) string {
	// Keep only the last path element, on either separator style
	filename = strings.ReplaceAll(filename, `\`, "/")
	filename = filepath.Base("/" + filename)
	if filename == "/" || filename == "." || filename == ".." {
		filename = ""
	}

	filename = invalidFilenameChars.ReplaceAllString(filename, " ")
	filename = multipleSpaces.ReplaceAllString(filename, " ")
	filename = strings.TrimSpace(filename)
	filename = strings.TrimLeft(filename, ".")

	// Limit length (most filesystems support 255)
	if len(filename) > 200 {
		ext := filepath.Ext(filename)
		if len(ext) > 16 {
			ext = ""
		}
		filename = strings.TrimSpace(filename[:200-len(ext)]) + ext
	}

	if filename == "" || filename == filepath.Ext(filename) {
		filename = DefaultFilename
	}

	return filename
}

// EnsureExtension appends ext when filename does not already end with it.
func EnsureExtension(filename, ext string) string {
	if strings.EqualFold(filepath.Ext(filename), ext) {
		return filename
	}
	return filename + ext
}
