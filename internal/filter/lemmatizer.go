package filter

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// ErrLemmatizationDegraded means no lemma could be derived and callers
// should match on the raw token instead.
var ErrLemmatizationDegraded = errors.New("lemmatization degraded")

// Lemmatizer maps a surface token to its dictionary form.
type Lemmatizer interface {
	Lemmatize(token, language string) (string, error)
}

type suffixRule struct {
	suffix      string
	replacement string
	minStem     int
	// undouble turns "runn" back into "run"
	undouble bool
}

type languageRules struct {
	irregular map[string]string
	// rules are tried in order; the first matching suffix wins
	rules []suffixRule
	// nouns are capitalized in German and keep their surface form
	keepCapitalized bool
}

// RuleLemmatizer is a dictionary-free lemmatizer built from irregular-form
// tables and ordered suffix rules.
type RuleLemmatizer struct {
	languages map[string]languageRules
}

// NewRuleLemmatizer returns a lemmatizer for de, en, es and fr.
func NewRuleLemmatizer() *RuleLemmatizer {
	return &RuleLemmatizer{languages: ruleSets}
}

var ruleSets = map[string]languageRules{
	"de": germanRules,
	"en": englishRules,
	"es": spanishRules,
	"fr": frenchRules,
}

// capitalizesNouns reports languages where every noun starts upper case.
func capitalizesNouns(language string) bool {
	return ruleSets[baseLanguage(language)].keepCapitalized
}

// Supports reports whether the language has a rule set.
func (l *RuleLemmatizer) Supports(language string) bool {
	_, ok := l.languages[baseLanguage(language)]
	return ok
}

// Lemmatize returns the lemma of token. Unsupported languages and tokens
// without letters fail with ErrLemmatizationDegraded.
func (l *RuleLemmatizer) Lemmatize(token, language string) (string, error) {
	rules, ok := l.languages[baseLanguage(language)]
	if !ok {
		return "", fmt.Errorf("%w: unsupported language %q", ErrLemmatizationDegraded, language)
	}
	if !hasLetter(token) {
		return "", fmt.Errorf("%w: no letters in %q", ErrLemmatizationDegraded, token)
	}

	lower := strings.ToLower(token)
	if lemma, ok := rules.irregular[lower]; ok {
		return lemma, nil
	}
	if rules.keepCapitalized && startsUpper(token) {
		return lower, nil
	}
	// Compounds are looked up whole.
	if strings.ContainsAny(lower, "-'’") {
		return lower, nil
	}

	runes := []rune(lower)
	for _, rule := range rules.rules {
		if !strings.HasSuffix(lower, rule.suffix) {
			continue
		}
		stem := runes[:len(runes)-len([]rune(rule.suffix))]
		if len(stem) < rule.minStem {
			continue
		}
		if rule.undouble {
			stem = undoubleFinal(stem)
		}
		return string(stem) + rule.replacement, nil
	}
	return lower, nil
}

func undoubleFinal(stem []rune) []rune {
	n := len(stem)
	if n < 3 || stem[n-1] != stem[n-2] {
		return stem
	}
	switch stem[n-1] {
	case 'l', 's', 'f', 'z', 'e', 'o':
		return stem
	}
	return stem[:n-1]
}

func baseLanguage(language string) string {
	language = strings.ToLower(strings.TrimSpace(language))
	if i := strings.IndexAny(language, "-_"); i > 0 {
		language = language[:i]
	}
	return language
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

func startsUpper(s string) bool {
	for _, r := range s {
		return unicode.IsUpper(r)
	}
	return false
}

var germanRules = languageRules{
	keepCapitalized: true,
	irregular: map[string]string{
		"bin": "sein", "bist": "sein", "ist": "sein", "sind": "sein", "seid": "sein",
		"war": "sein", "warst": "sein", "waren": "sein", "wart": "sein", "gewesen": "sein",
		"habe": "haben", "hast": "haben", "hat": "haben", "habt": "haben", "hatte": "haben",
		"hattest": "haben", "hatten": "haben", "gehabt": "haben",
		"werde": "werden", "wirst": "werden", "wird": "werden", "werdet": "werden",
		"wurde": "werden", "wurden": "werden", "geworden": "werden",
		"kann": "können", "kannst": "können", "könnt": "können", "konnte": "können", "konnten": "können",
		"will": "wollen", "willst": "wollen", "wollt": "wollen", "wollte": "wollen", "wollten": "wollen",
		"muss": "müssen", "musst": "müssen", "müsst": "müssen", "musste": "müssen", "mussten": "müssen",
		"darf": "dürfen", "darfst": "dürfen", "durfte": "dürfen",
		"mag": "mögen", "magst": "mögen", "möchte": "mögen", "möchtest": "mögen", "möchten": "mögen",
		"weiß": "wissen", "weißt": "wissen", "wusste": "wissen", "gewusst": "wissen",
		"ging": "gehen", "gingen": "gehen", "gegangen": "gehen",
		"gibt": "geben", "gibst": "geben", "gab": "geben", "gegeben": "geben",
		"sieht": "sehen", "siehst": "sehen", "sah": "sehen", "gesehen": "sehen",
		"nimmt": "nehmen", "nimmst": "nehmen", "nahm": "nehmen", "genommen": "nehmen",
		"isst": "essen", "aß": "essen", "gegessen": "essen",
		"liest": "lesen", "las": "lesen", "gelesen": "lesen",
		"spricht": "sprechen", "sprichst": "sprechen", "sprach": "sprechen", "gesprochen": "sprechen",
		"fährt": "fahren", "fährst": "fahren", "fuhr": "fahren", "gefahren": "fahren",
		"läuft": "laufen", "läufst": "laufen", "lief": "laufen", "gelaufen": "laufen",
		"kam": "kommen", "kamen": "kommen", "gekommen": "kommen",
		"tat": "tun", "getan": "tun", "tut": "tun",
		"dachte": "denken", "gedacht": "denken",
		"brachte": "bringen", "gebracht": "bringen",
		"stand": "stehen", "gestanden": "stehen",
		"hieß": "heißen", "heißt": "heißen",
		"den": "der", "dem": "der", "des": "der", "die": "der", "das": "der",
		"einen": "ein", "einem": "ein", "einer": "ein", "eines": "ein", "eine": "ein",
		"mich": "ich", "mir": "ich", "dich": "du", "dir": "du", "ihn": "er", "ihm": "er",
		"uns": "wir", "euch": "ihr",
		// frequent words that the verb rules below would mangle
		"nicht": "nicht", "jetzt": "jetzt", "gut": "gut", "gute": "gut", "guten": "gut",
		"heute": "heute", "leute": "leute", "bitte": "bitte", "mit": "mit", "seit": "seit",
		"zeit": "zeit", "welt": "welt", "recht": "recht", "schlecht": "schlecht",
		"nacht": "nacht", "licht": "licht", "acht": "acht", "selbst": "selbst",
		"erst": "erst", "fast": "fast", "sonst": "sonst", "meist": "meist", "weit": "weit",
		"bereit": "bereit", "breit": "breit", "angst": "angst", "kunst": "kunst", "geschichte": "geschichte",
	},
	rules: []suffixRule{
		{suffix: "est", replacement: "en", minStem: 4},
		{suffix: "et", replacement: "en", minStem: 4},
		{suffix: "st", replacement: "en", minStem: 3},
		{suffix: "te", replacement: "en", minStem: 3},
		{suffix: "t", replacement: "en", minStem: 3},
	},
}

var englishRules = languageRules{
	irregular: map[string]string{
		"am": "be", "is": "be", "are": "be", "was": "be", "were": "be", "been": "be", "being": "be",
		"has": "have", "had": "have", "having": "have",
		"does": "do", "did": "do", "done": "do", "doing": "do",
		"went": "go", "gone": "go", "goes": "go",
		"got": "get", "gotten": "get",
		"said": "say", "says": "say",
		"made": "make", "came": "come", "saw": "see", "seen": "see",
		"took": "take", "taken": "take", "knew": "know", "known": "know",
		"thought": "think", "told": "tell", "found": "find", "gave": "give", "given": "give",
		"felt": "feel", "left": "leave", "kept": "keep", "began": "begin", "begun": "begin",
		"brought": "bring", "bought": "buy", "ran": "run", "wrote": "write", "written": "write",
		"children": "child", "men": "man", "women": "woman", "people": "person",
		"feet": "foot", "teeth": "tooth", "mice": "mouse",
		"better": "good", "best": "good", "worse": "bad", "worst": "bad",
		"this": "this", "his": "his", "yes": "yes", "thus": "thus",
		"bus": "bus", "us": "us", "its": "its", "news": "news", "always": "always",
	},
	rules: []suffixRule{
		{suffix: "sses", replacement: "ss", minStem: 1},
		{suffix: "ies", replacement: "y", minStem: 2},
		{suffix: "ing", replacement: "", minStem: 3, undouble: true},
		{suffix: "ied", replacement: "y", minStem: 2},
		{suffix: "ed", replacement: "", minStem: 3, undouble: true},
		{suffix: "ss", replacement: "ss", minStem: 1},
		{suffix: "us", replacement: "us", minStem: 1},
		{suffix: "is", replacement: "is", minStem: 1},
		{suffix: "s", replacement: "", minStem: 3},
	},
}

var spanishRules = languageRules{
	irregular: map[string]string{
		"soy": "ser", "eres": "ser", "es": "ser", "somos": "ser", "son": "ser", "era": "ser", "fue": "ser",
		"estoy": "estar", "estás": "estar", "está": "estar", "estamos": "estar", "están": "estar",
		"tengo": "tener", "tienes": "tener", "tiene": "tener", "tenemos": "tener", "tienen": "tener",
		"voy": "ir", "vas": "ir", "va": "ir", "vamos": "ir", "van": "ir",
		"hay": "haber", "he": "haber", "has": "haber", "ha": "haber", "han": "haber",
		"los": "el", "las": "el", "la": "el",
	},
	rules: []suffixRule{
		{suffix: "ces", replacement: "z", minStem: 2},
		{suffix: "es", replacement: "", minStem: 3},
		{suffix: "s", replacement: "", minStem: 3},
	},
}

var frenchRules = languageRules{
	irregular: map[string]string{
		"suis": "être", "es": "être", "est": "être", "sommes": "être", "êtes": "être", "sont": "être",
		"ai": "avoir", "as": "avoir", "a": "avoir", "avons": "avoir", "avez": "avoir", "ont": "avoir",
		"vais": "aller", "vas": "aller", "va": "aller", "allons": "aller", "allez": "aller", "vont": "aller",
		"les": "le", "la": "le", "des": "un", "une": "un",
	},
	rules: []suffixRule{
		{suffix: "eaux", replacement: "eau", minStem: 1},
		{suffix: "aux", replacement: "al", minStem: 2},
		{suffix: "s", replacement: "", minStem: 3},
		{suffix: "x", replacement: "", minStem: 4},
	},
}
