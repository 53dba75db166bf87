package bio

import (
	"path/filepath"
	"strings"
	"unicode"
)

// Sanitize removes control characters and stray NULs from metadata strings
// decoded out of binary headers, and trims surrounding white space.
func Sanitize(s string) string {
	if i := strings.IndexByte(s, 0); i >= 0 {
		s = s[:i]
	}
	s = strings.Map(func(r rune) rune {
		switch {
		case r == '\t' || r == '\n':
			return ' '
		case r == unicode.ReplacementChar, !unicode.IsPrint(r):
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}

// ConvertToAbsolute returns an absolute path for p, interpreting relative paths as
// relative to dir.
func ConvertToAbsolute(p string, dir string) (string, error) {
	if filepath.IsAbs(p) {
		return p, nil
	}
	return filepath.Abs(filepath.Join(dir, p))
}
