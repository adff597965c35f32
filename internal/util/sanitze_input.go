package util

import (
	"strings"
	"unicode/utf8"
)

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#039;",
)

// EscapeHTML escapes the five markup-significant characters.
func EscapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}

// NewlinesToBreaks turns CRLF, CR and LF into <br>. Callers escape first.
func NewlinesToBreaks(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.ReplaceAll(s, "\n", "<br>")
}

// ContainsLineBreak reports whether s carries CR or LF, the characters used
// to smuggle extra headers into naively built mail.
func ContainsLineBreak(s string) bool {
	return strings.ContainsAny(s, "\r\n")
}

// CharCount counts code points, not bytes.
func CharCount(s string) int {
	return utf8.RuneCountInString(s)
}

// Truncate cuts s to at most max code points.
func Truncate(s string, max int) string {
	if max < 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}
