package markdown

import (
	"strings"
	"unicode/utf16"
)

// ReservedChars are the characters MarkdownV2 requires to be escaped in
// plain text. Backticks are left alone so inline code from the backend
// still renders.
const ReservedChars = "_*[]()~>#+-=|{}.!"

var escaper = newEscaper()

func newEscaper() *strings.Replacer {
	pairs := make([]string, 0, len(ReservedChars)*2)
	for _, r := range ReservedChars {
		pairs = append(pairs, string(r), `\`+string(r))
	}
	return strings.NewReplacer(pairs...)
}

// Escape prefixes every reserved character with a backslash. It is not
// idempotent and must be applied exactly once.
func Escape(text string) string {
	return escaper.Replace(text)
}

func IsReserved(r rune) bool {
	return strings.ContainsRune(ReservedChars, r)
}

// Split cuts escaped text into parts of at most limit UTF-16 code units,
// the unit Telegram measures message length in. Cuts prefer a line break in
// the second half of a part, never separate an escape from its character and
// move before a code span or block the cut would leave open. A span longer
// than limit is still cut.
func Split(text string, limit int) []string {
	runes := []rune(text)
	if limit <= 0 || len(runes) == 0 {
		return []string{text}
	}

	var parts []string
	for len(runes) > 0 {
		units, cut := 0, 0
		for cut < len(runes) {
			n := utf16.RuneLen(runes[cut])
			if n < 0 {
				n = 1
			}
			if units+n > limit {
				break
			}
			units += n
			cut++
		}
		if cut == len(runes) {
			parts = append(parts, string(runes))
			break
		}
		if cut == 0 {
			cut = 1
		}

		if nl := lastIndex(runes[:cut], '\n'); nl >= cut/2 {
			cut = nl + 1
		}
		if start := openCode(runes[:cut]); start > 0 {
			cut = start
		}
		if cut > 1 && trailingBackslashes(runes[:cut])%2 == 1 {
			cut--
		}

		parts = append(parts, string(runes[:cut]))
		runes = runes[cut:]
	}
	return parts
}

func lastIndex(runes []rune, r rune) int {
	for i := len(runes) - 1; i >= 0; i-- {
		if runes[i] == r {
			return i
		}
	}
	return -1
}

func trailingBackslashes(runes []rune) int {
	n := 0
	for i := len(runes) - 1; i >= 0 && runes[i] == '\\'; i-- {
		n++
	}
	return n
}

// openCode returns the index of the backtick run opening a code span or block
// that runes leaves unclosed, or -1.
func openCode(runes []rune) int {
	open, fence := -1, 0
	for i := 0; i < len(runes); i++ {
		switch runes[i] {
		case '\\':
			i++
		case '`':
			n := 1
			for i+n < len(runes) && runes[i+n] == '`' {
				n++
			}
			switch {
			case open < 0:
				open, fence = i, n
			case n == fence:
				open, fence = -1, 0
			}
			i += n - 1
		}
	}
	return open
}
