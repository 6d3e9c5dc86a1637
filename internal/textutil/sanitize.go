package textutil

import (
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// fileNameReplacer replaces filesystem-unsafe characters with safe alternatives.
var fileNameReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

const maxFileNameLength = 128

// SanitizeFileName normalizes name to NFC and replaces filesystem-unsafe
// characters. Slashes, backslashes, colons, and asterisks become dashes;
// other unsafe characters and control runes are removed. Leading dots are
// trimmed so the result never names a hidden file.
func SanitizeFileName(name string) string {
	name = norm.NFC.String(strings.TrimSpace(name))
	if name == "" {
		return ""
	}
	name = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, name)
	name = strings.TrimSpace(fileNameReplacer.Replace(name))
	name = strings.TrimLeft(name, ".")
	if len(name) > maxFileNameLength {
		runes := []rune(name)
		for len(string(runes)) > maxFileNameLength {
			runes = runes[:len(runes)-1]
		}
		name = string(runes)
	}
	return name
}

// UploadExtension returns the lowercase extension of a sanitized upload name,
// or fallback when the name carries none or an implausible one.
func UploadExtension(name, fallback string) string {
	ext := strings.ToLower(filepath.Ext(SanitizeFileName(name)))
	if len(ext) < 2 || len(ext) > 8 {
		return fallback
	}
	for _, r := range ext[1:] {
		if !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9') {
			return fallback
		}
	}
	return ext
}
