package render

import (
	"regexp"
	"strings"
)

var (
	disallowedNameChars = regexp.MustCompile(`[^\p{L}\p{N} _-]`)
	whitespaceRun       = regexp.MustCompile(`\s+`)
)

// SanitizeName keeps letters, digits, spaces, hyphens and underscores and
// turns whitespace runs into single underscores.
func SanitizeName(fullName string) string {
	cleaned := strings.TrimSpace(disallowedNameChars.ReplaceAllString(fullName, ""))
	cleaned = whitespaceRun.ReplaceAllString(cleaned, "_")
	if cleaned == "" {
		return "candidate"
	}
	return cleaned
}

// FileName builds "CV[_ATS]_<name>.<ext>".
func FileName(fullName string, variant Variant, ext string) string {
	return variant.Prefix() + SanitizeName(fullName) + "." + strings.TrimPrefix(ext, ".")
}
