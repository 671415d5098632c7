package errors

import (
	"strings"
	"unicode"
)

// ValidateProjectName validates a project name used in output file paths.
// It rejects names that could be used for path traversal or injection.
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - No control characters
//   - No path traversal sequences (.., //, etc.)
//   - No null bytes
//   - Maximum length of 256 characters
func ValidateProjectName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "project name cannot be empty")
	}

	if len(name) > 256 {
		return New(ErrCodeInvalidInput, "project name too long (max 256 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "project name contains invalid control characters")
		}
	}

	dangerousPatterns := []string{
		"..",   // Parent directory
		"//",   // Double slash
		"\x00", // Null byte
		"\\",   // Backslash (Windows path)
		"/",    // Path separator
	}

	for _, pattern := range dangerousPatterns {
		if strings.Contains(name, pattern) {
			return New(ErrCodeInvalidInput, "project name contains invalid characters: %q", pattern)
		}
	}

	return nil
}

// ValidateGlobPattern validates an include/exclude glob pattern.
// Patterns use fnmatch-style matching ('*' spans path separators, '?'
// matches one character), which accepts nearly any text, so validation
// only rejects input that can never be a deliberate pattern.
func ValidateGlobPattern(pattern string) error {
	if pattern == "" {
		return New(ErrCodeInvalidInput, "glob pattern cannot be empty")
	}
	if strings.ContainsRune(pattern, '\x00') {
		return New(ErrCodeInvalidInput, "glob pattern contains null byte")
	}
	for _, r := range pattern {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "glob pattern contains control characters")
		}
	}
	return nil
}
