package filter

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Token is a candidate word inside cleaned subtitle text.
type Token struct {
	Text          string
	Offset        int // byte offset in the cleaned text
	SentenceStart bool
}

var (
	markupTags = regexp.MustCompile(`<[^>]*>|\{\\[^}]*\}`)
	spaceRuns  = regexp.MustCompile(`[ \t]+`)
)

// CleanText strips inline formatting tags so tokens and offsets refer to
// what the viewer actually reads.
func CleanText(text string) string {
	text = markupTags.ReplaceAllString(text, "")
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(spaceRuns.ReplaceAllString(line, " "))
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r)
}

func isJoiner(r rune) bool {
	switch r {
	case '-', '\'', '’', '‐':
		return true
	}
	return false
}

func isNumberJoiner(r rune) bool {
	return r == '.' || r == ','
}

func isSentenceEnd(r rune) bool {
	switch r {
	case '.', '!', '?', '…', '¿', '¡', ':':
		return true
	}
	return false
}

// Tokenize splits cleaned text into words. Punctuation is dropped while
// hyphenated compounds, elisions and decimal numbers stay single tokens.
func Tokenize(text string) []Token {
	var tokens []Token
	sentenceStart := true
	i := 0

	for i < len(text) {
		r, size := utf8.DecodeRuneInString(text[i:])
		if !isWordRune(r) {
			if isSentenceEnd(r) {
				sentenceStart = true
			}
			i += size
			continue
		}

		start := i
		end := i + size
		for end < len(text) {
			next, nextSize := utf8.DecodeRuneInString(text[end:])
			if isWordRune(next) {
				end += nextSize
				continue
			}
			// A joiner only binds when a word character follows it.
			if isJoiner(next) || isNumberJoiner(next) {
				after, afterSize := utf8.DecodeRuneInString(text[end+nextSize:])
				if afterSize > 0 && isWordRune(after) {
					prev, _ := utf8.DecodeLastRuneInString(text[start:end])
					if isJoiner(next) || (unicode.IsDigit(prev) && unicode.IsDigit(after)) {
						end += nextSize + afterSize
						continue
					}
				}
			}
			break
		}

		tokens = append(tokens, Token{
			Text:          text[start:end],
			Offset:        start,
			SentenceStart: sentenceStart,
		})
		sentenceStart = false
		i = end
	}
	return tokens
}
