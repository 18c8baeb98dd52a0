package archive

import (
	"regexp"
	"strings"
)

// whitespaceRegex matches one or more whitespace characters
var whitespaceRegex = regexp.MustCompile(`\s+`)

// filenameUnsafe matches every character not allowed in export filenames.
var filenameUnsafe = regexp.MustCompile(`[^a-zA-Z0-9_.-]`)

// MaxFilenameNameLen bounds the sanitized batch-name portion of an export
// filename so pathological names cannot blow past filesystem limits.
const MaxFilenameNameLen = 48

// NormalizeName normalizes a batch name for uniqueness checks:
// 1. Trim leading/trailing whitespace
// 2. Lowercase
// 3. Collapse internal whitespace to single spaces
func NormalizeName(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	s = whitespaceRegex.ReplaceAllString(s, " ")
	return s
}

// SanitizeForFilename rewrites a string for safe use inside a filename.
// Characters outside [a-zA-Z0-9_.-] become underscores, ".." sequences are
// collapsed, and the result is truncated to MaxFilenameNameLen.
func SanitizeForFilename(s string) string {
	s = filenameUnsafe.ReplaceAllString(s, "_")
	for strings.Contains(s, "..") {
		s = strings.ReplaceAll(s, "..", "_")
	}
	if len(s) > MaxFilenameNameLen {
		s = s[:MaxFilenameNameLen]
	}
	if s == "" {
		s = "batch"
	}
	return s
}
