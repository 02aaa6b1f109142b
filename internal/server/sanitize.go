package server

import (
	"strings"
	"unicode"

	"github.com/mattn/go-runewidth"
	"golang.org/x/text/unicode/norm"
)

const (
	defaultRoomID = "lobby"
	maxRoomIDLen  = 64
)

// sanitizeText normalizes to NFC, drops control and format characters and
// collapses runs of whitespace.
func sanitizeText(s string) string {
	s = norm.NFC.String(s)
	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			space = true
			continue
		case unicode.IsControl(r), unicode.Is(unicode.Cf, r), r == unicode.ReplacementChar:
			continue
		}
		if space && b.Len() > 0 {
			b.WriteByte(' ')
		}
		space = false
		b.WriteRune(r)
	}
	return b.String()
}

// sanitizeName cleans a display name and caps it to width terminal cells.
func sanitizeName(s string, width int) string {
	return runewidth.Truncate(sanitizeText(s), width, "")
}

// sanitizeChat cleans a chat line and caps it to limit runes.
func sanitizeChat(s string, limit int) string {
	s = sanitizeText(s)
	if r := []rune(s); len(r) > limit {
		s = string(r[:limit])
	}
	return s
}

// sanitizeRoomID keeps [A-Za-z0-9_-], capped, defaulting to the lobby.
func sanitizeRoomID(s string) string {
	var b strings.Builder
	for _, r := range s {
		if b.Len() == maxRoomIDLen {
			break
		}
		if r < unicode.MaxASCII && (r == '-' || r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return defaultRoomID
	}
	return b.String()
}
