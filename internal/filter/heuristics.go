package filter

import (
	"regexp"
	"strings"
	"unicode"
)

var interjections = map[string]map[string]bool{
	"de": set("ah", "äh", "ähm", "aha", "ach", "au", "aua", "eh", "hä", "hey", "hm", "hmm", "huch",
		"mhm", "na", "naja", "nö", "oh", "oje", "pst", "tja", "uff", "uh", "wow", "ui"),
	"en": set("ah", "aha", "aw", "eh", "er", "erm", "hey", "hm", "hmm", "huh", "mhm", "oh", "ooh",
		"oops", "ouch", "uh", "ugh", "um", "umm", "wow", "whoa", "yeah", "yay"),
	"es": set("ah", "ay", "bah", "eh", "ejem", "hala", "hm", "oh", "ojalá", "olé", "puf", "uf", "uy", "vaya"),
	"fr": set("ah", "aïe", "bah", "bof", "euh", "hein", "hm", "hé", "oh", "ouf", "oups", "pff", "zut"),
}

// Stretched hesitations such as "ähhh" or "hmmm".
var hesitation = regexp.MustCompile(`^(a+h+|ä+h+m*|o+h+|e+h+|u+h+m*|h+m+|m+h+m+|u+m+|e+r+m+|p+s+t+)$`)

func set(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

func isInterjection(folded, language string) bool {
	if interjections[baseLanguage(language)][folded] {
		return true
	}
	return hasRepeatedRune(folded) && hesitation.MatchString(folded)
}

func hasRepeatedRune(s string) bool {
	var prev rune
	for i, r := range s {
		if i > 0 && r == prev {
			return true
		}
		prev = r
	}
	return false
}

// isNumeral reports digits with optional decimal or thousands separators.
func isNumeral(token string) bool {
	digits := 0
	for _, r := range token {
		switch {
		case unicode.IsDigit(r):
			digits++
		case r == '.' || r == ',':
		default:
			return false
		}
	}
	return digits > 0
}

// isProperNoun guesses names: capitalized mid-sentence and absent from the
// catalog. A lone "I" in English is a pronoun. Where every noun is
// capitalized, as in German, case carries no name signal.
func isProperNoun(tok Token, folded, language string, catalogued bool) bool {
	if tok.SentenceStart || catalogued || !startsUpper(tok.Text) {
		return false
	}
	if capitalizesNouns(language) {
		return false
	}
	if baseLanguage(language) == "en" && folded == "i" {
		return false
	}
	// All-caps shouting is not a name signal.
	if len([]rune(tok.Text)) > 1 && strings.ToUpper(tok.Text) == tok.Text {
		return false
	}
	return true
}
