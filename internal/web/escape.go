package web

import (
	"fmt"
	"html"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/uggedal/gitoff/internal/git"
)

// Ellipsis marks a truncated string.
const Ellipsis = "..."

// Escape replaces &, <, >, " and ' with HTML entities.
func Escape(s string) string {
	return html.EscapeString(s)
}

const upperHex = "0123456789ABCDEF"

// EscapePath percent-encodes s for use in a URL path. Slashes are kept so
// that a slash separated path stays one. Control bytes, non-ASCII bytes,
// space and <>"%{}|\^` are encoded, as are # and ?, which would otherwise
// end the path.
func EscapePath(s string) string {
	n := 0
	for i := 0; i < len(s); i++ {
		if shouldEscape(s[i]) {
			n++
		}
	}
	if n == 0 {
		return s
	}

	var b strings.Builder
	b.Grow(len(s) + 2*n)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if shouldEscape(c) {
			b.WriteByte('%')
			b.WriteByte(upperHex[c>>4])
			b.WriteByte(upperHex[c&15])
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

func shouldEscape(c byte) bool {
	return c <= 0x1F || c >= 0x7F || strings.IndexByte(" <>\"%{}|\\^`#?", c) >= 0
}

// Abbrev shortens s to at most n characters, replacing the tail with an
// ellipsis when it has to cut.
func Abbrev(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}

	keep := n - len(Ellipsis)
	if keep < 0 {
		keep = 0
	}

	i := 0
	for pos := range s {
		if i == keep {
			return s[:pos] + Ellipsis
		}
		i++
	}
	return s + Ellipsis
}

// ShortID abbreviates an object id.
func ShortID(id string) string {
	if len(id) <= git.AbbrevLength {
		return id
	}
	return id[:git.AbbrevLength]
}

// FormatTime renders t in UTC as an HTML fragment.
func FormatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02") + "&nbsp;" + t.UTC().Format("15:04")
}

// FormatOffset renders a UTC offset in minutes as +hhmm or -hhmm.
func FormatOffset(minutes int) string {
	sign := '+'
	if minutes < 0 {
		sign = '-'
		minutes = -minutes
	}
	return fmt.Sprintf("%c%02d%02d", sign, minutes/60, minutes%60)
}

// FormatSignatureTime renders a signature time in the signer's own zone,
// followed by the zone's UTC offset.
func FormatSignatureTime(t time.Time) string {
	_, offset := t.Zone()
	return t.Format("2006-01-02") + "&nbsp;" + t.Format("15:04") + " " + FormatOffset(offset/60)
}
