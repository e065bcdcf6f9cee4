// Package filter classifies subtitle words against a learner's vocabulary
// and sorts segments into learning, blocker and empty buckets.
package filter

import (
	"errors"
	"sort"
	"strings"

	"sublearn/internal/domain"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultBlockerThreshold is the ACTIVE-word ratio above which a segment is
// considered too hard to show untranslated.
const DefaultBlockerThreshold = 0.5

const (
	confidenceLemmatized = 1.0
	confidenceDegraded   = 0.5
)

// Profile is a snapshot of what one learner knows in one language.
type Profile struct {
	Language string
	Level    domain.CEFRLevel
	// Known holds lemmas the learner marked as known.
	Known map[string]struct{}
	// Catalog maps catalogued lemmas to their CEFR level.
	Catalog map[string]domain.CEFRLevel
}

// Stats aggregates a filter run.
type Stats struct {
	TotalSegments int      `json:"total_segments"`
	LearningCount int      `json:"learning_count"`
	BlockerCount  int      `json:"blocker_count"`
	EmptyCount    int      `json:"empty_count"`
	ActiveWords   int      `json:"active_words"`
	KnownWords    int      `json:"known_words"`
	BlockedWords  int      `json:"blocked_words"`
	DegradedWords int      `json:"degraded_words"`
	UniqueUnknown int      `json:"unique_unknown"`
	UnknownLemmas []string `json:"unknown_lemmas"`
}

// Result holds every filtered segment in input order plus the three
// disjoint buckets.
type Result struct {
	Subtitles []domain.FilteredSubtitle `json:"subtitles"`
	Learning  []domain.FilteredSubtitle `json:"learning_subtitles"`
	Blockers  []domain.FilteredSubtitle `json:"blocker_words"`
	Empty     []domain.FilteredSubtitle `json:"empty_subtitles"`
	Stats     Stats                     `json:"stats"`
}

// Engine runs the vocabulary filter.
type Engine struct {
	lemmatizer Lemmatizer
	threshold  float64
	logger     *zap.Logger
}

// NewEngine creates a filter engine. A non-positive threshold selects
// DefaultBlockerThreshold.
func NewEngine(lemmatizer Lemmatizer, threshold float64, logger *zap.Logger) *Engine {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultBlockerThreshold
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		lemmatizer: lemmatizer,
		threshold:  threshold,
		logger:     logger,
	}
}

// Threshold returns the configured blocker ratio.
func (e *Engine) Threshold() float64 {
	return e.threshold
}

// Filter classifies every word of every segment for the given profile.
func (e *Engine) Filter(segments []domain.Segment, profile Profile) Result {
	folder := newFolder(profile.Language)
	unknown := make(map[string]struct{})
	var result Result

	for _, seg := range segments {
		sub, degraded := e.filterSegment(seg, profile, folder)
		result.Stats.DegradedWords += degraded

		for _, w := range sub.Words {
			switch w.Status {
			case domain.WordActive:
				result.Stats.ActiveWords++
				unknown[w.Metadata["lemma"]] = struct{}{}
			case domain.WordKnown:
				result.Stats.KnownWords++
			case domain.WordBlocked:
				result.Stats.BlockedWords++
			}
		}

		switch sub.Bucket {
		case domain.BucketLearning:
			result.Learning = append(result.Learning, sub)
		case domain.BucketBlocker:
			result.Blockers = append(result.Blockers, sub)
		default:
			result.Empty = append(result.Empty, sub)
		}
		result.Subtitles = append(result.Subtitles, sub)
	}

	result.Stats.TotalSegments = len(result.Subtitles)
	result.Stats.LearningCount = len(result.Learning)
	result.Stats.BlockerCount = len(result.Blockers)
	result.Stats.EmptyCount = len(result.Empty)
	result.Stats.UniqueUnknown = len(unknown)
	result.Stats.UnknownLemmas = make([]string, 0, len(unknown))
	for lemma := range unknown {
		result.Stats.UnknownLemmas = append(result.Stats.UnknownLemmas, lemma)
	}
	sort.Strings(result.Stats.UnknownLemmas)

	if result.Stats.DegradedWords > 0 {
		e.logger.Debug("Lemmatization degraded to raw token matching",
			zap.String("language", profile.Language),
			zap.Int("degraded_words", result.Stats.DegradedWords),
		)
	}
	return result
}

func (e *Engine) filterSegment(seg domain.Segment, profile Profile, fold func(string) string) (domain.FilteredSubtitle, int) {
	cleaned := CleanText(seg.Text)
	tokens := Tokenize(cleaned)
	sub := domain.FilteredSubtitle{
		OriginalText: seg.Text,
		StartTime:    seg.StartTime,
		EndTime:      seg.EndTime,
		Words:        make([]domain.FilteredWord, 0, len(tokens)),
	}

	degraded := 0
	active := 0
	vocabulary := 0
	duration := seg.EndTime - seg.StartTime
	textLen := float64(len(cleaned))

	for _, tok := range tokens {
		word := e.classify(tok, profile, fold)
		if word.Metadata["lemmatization"] == "degraded" {
			degraded++
		}
		if textLen > 0 {
			word.StartTime = seg.StartTime + duration*float64(tok.Offset)/textLen
			word.EndTime = seg.StartTime + duration*float64(tok.Offset+len(tok.Text))/textLen
		} else {
			word.StartTime, word.EndTime = seg.StartTime, seg.EndTime
		}

		switch word.Status {
		case domain.WordActive:
			active++
			vocabulary++
		case domain.WordKnown:
			vocabulary++
		}
		sub.Words = append(sub.Words, word)
	}

	sub.Bucket = e.bucket(active, vocabulary)
	return sub, degraded
}

// bucket: nothing unknown is too easy; too many unknowns block reading.
// vocabulary counts ACTIVE and KNOWN words only, BLOCKED words are ignored.
func (e *Engine) bucket(active, vocabulary int) domain.Bucket {
	if active == 0 || vocabulary == 0 {
		return domain.BucketEmpty
	}
	if float64(active)/float64(vocabulary) > e.threshold {
		return domain.BucketBlocker
	}
	return domain.BucketLearning
}

func (e *Engine) classify(tok Token, profile Profile, fold func(string) string) domain.FilteredWord {
	surface := fold(tok.Text)
	word := domain.FilteredWord{
		Text:     tok.Text,
		Offset:   tok.Offset,
		Length:   len(tok.Text),
		Metadata: map[string]string{"surface": surface},
	}

	lemma, err := e.lemmatize(tok.Text, profile.Language)
	confidence := confidenceLemmatized
	if err != nil {
		lemma = surface
		confidence = confidenceDegraded
		word.Metadata["lemmatization"] = "degraded"
	} else {
		lemma = fold(lemma)
	}
	word.Confidence = &confidence
	word.Metadata["lemma"] = lemma

	level, catalogued := profile.Catalog[lemma]
	if !catalogued {
		level, catalogued = profile.Catalog[surface]
	}
	if catalogued {
		word.Metadata["cefr_level"] = string(level)
	}

	switch {
	case isNumeral(tok.Text):
		word.Status = domain.WordBlocked
		word.FilterReason = domain.ReasonNumeral
	case isInterjection(surface, profile.Language):
		word.Status = domain.WordBlocked
		word.FilterReason = domain.ReasonInterjection
	case isProperNoun(tok, surface, profile.Language, catalogued):
		word.Status = domain.WordBlocked
		word.FilterReason = domain.ReasonProperNoun
	case profile.knows(lemma) || profile.knows(surface):
		word.Status = domain.WordKnown
		word.FilterReason = domain.ReasonKnownLemma
	case catalogued && level.AtOrBelow(profile.Level):
		word.Status = domain.WordKnown
		word.FilterReason = domain.ReasonLevel
	default:
		word.Status = domain.WordActive
	}
	return word
}

func (e *Engine) lemmatize(token, lang string) (string, error) {
	if e.lemmatizer == nil {
		return "", ErrLemmatizationDegraded
	}
	lemma, err := e.lemmatizer.Lemmatize(token, lang)
	if err != nil {
		if !errors.Is(err, ErrLemmatizationDegraded) {
			e.logger.Debug("Lemmatizer failed", zap.String("token", token), zap.Error(err))
		}
		return "", err
	}
	if strings.TrimSpace(lemma) == "" {
		return "", ErrLemmatizationDegraded
	}
	return lemma, nil
}

func (p Profile) knows(lemma string) bool {
	if lemma == "" {
		return false
	}
	_, ok := p.Known[lemma]
	return ok
}

// newFolder returns a language-aware lower-casing function. A cases.Caser
// is stateful, so each Filter call gets its own.
func newFolder(lang string) func(string) string {
	tag, err := language.Parse(lang)
	if err != nil {
		tag = language.Und
	}
	caser := cases.Lower(tag)
	return func(s string) string {
		return caser.String(s)
	}
}
