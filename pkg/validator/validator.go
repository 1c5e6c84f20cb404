package validator

import (
	"strings"
	"unicode"
)

// ValidateVideoID checks that a video identifier is safe to embed in
// filenames and subprocess arguments
func ValidateVideoID(id string) bool {
	if len(id) == 0 || len(id) > 64 {
		return false
	}
	for _, r := range id {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-' && r != '_' {
			return false
		}
	}
	return true
}

// ValidateCollectionName rejects names that would escape the library root
// or collide with reserved entries
func ValidateCollectionName(name string) bool {
	if name == "" || len(name) > 128 {
		return false
	}
	if name == "." || name == ".." {
		return false
	}
	if strings.HasPrefix(name, ".") {
		return false
	}
	return !strings.ContainsAny(name, "/\\\x00")
}

// ValidateFilename rejects path traversal in user-supplied filenames
func ValidateFilename(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, "/\\\x00")
}

// SlugifyTitle converts a display title into a filename-safe slug:
// lowercased, runs of non-alphanumeric characters collapsed to single
// underscores, trimmed at the edges
func SlugifyTitle(title string) string {
	var b strings.Builder
	b.Grow(len(title))

	lastUnderscore := true // suppress a leading underscore
	for _, r := range strings.ToLower(title) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			lastUnderscore = false
			continue
		}
		if !lastUnderscore {
			b.WriteByte('_')
			lastUnderscore = true
		}
	}

	return strings.TrimSuffix(b.String(), "_")
}

// TruncateFilename truncates filename to max length while preserving extension
// Uses rune-level truncation to properly handle UTF-8 multi-byte characters
func TruncateFilename(filename string, maxLen int) string {
	runes := []rune(filename)
	if len(runes) <= maxLen {
		return filename
	}

	lastDot := strings.LastIndex(filename, ".")
	if lastDot == -1 {
		return string(runes[:maxLen])
	}

	ext := filename[lastDot:]
	extRunes := []rune(ext)

	availableLen := maxLen - len(extRunes)
	if availableLen <= 0 {
		return string(runes[:maxLen])
	}

	baseName := string(runes[:availableLen])
	return baseName + ext
}
