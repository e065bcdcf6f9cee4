package domain

import (
	"fmt"
	"strings"
	"time"
)

// CEFRLevel is a Common European Framework proficiency band
type CEFRLevel string

const (
	LevelA1 CEFRLevel = "A1"
	LevelA2 CEFRLevel = "A2"
	LevelB1 CEFRLevel = "B1"
	LevelB2 CEFRLevel = "B2"
	LevelC1 CEFRLevel = "C1"
	LevelC2 CEFRLevel = "C2"
)

var levelRanks = map[CEFRLevel]int{
	LevelA1: 1,
	LevelA2: 2,
	LevelB1: 3,
	LevelB2: 4,
	LevelC1: 5,
	LevelC2: 6,
}

// ParseCEFRLevel parses a level such as "b1" or " B1 "
func ParseCEFRLevel(s string) (CEFRLevel, error) {
	level := CEFRLevel(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := levelRanks[level]; !ok {
		return "", fmt.Errorf("unknown CEFR level %q", s)
	}
	return level, nil
}

// Rank returns the ordinal of the level, 0 for an unknown level
func (l CEFRLevel) Rank() int {
	return levelRanks[l]
}

// Valid reports whether l is one of the known bands
func (l CEFRLevel) Valid() bool {
	return l.Rank() > 0
}

// AtOrBelow reports whether l is not harder than other.
// Unknown levels are never at or below anything.
func (l CEFRLevel) AtOrBelow(other CEFRLevel) bool {
	if !l.Valid() || !other.Valid() {
		return false
	}
	return l.Rank() <= other.Rank()
}

// VocabularyConcept is a catalogued lemma with its difficulty
type VocabularyConcept struct {
	ID           int64     `db:"id"`
	Lemma        string    `db:"lemma"`
	Language     string    `db:"language"`
	Level        CEFRLevel `db:"cefr_level"`
	Translations string    `db:"translations"`
}

// UserVocabularyProgress is unique per (UserID, Lemma, Language)
type UserVocabularyProgress struct {
	ID              int64
	UserID          int64
	Lemma           string
	Language        string
	ConceptID       *int64
	IsKnown         bool
	ConfidenceLevel int
	ReviewCount     int
	UpdatedAt       time.Time
}

// MaxConfidenceLevel caps UserVocabularyProgress.ConfidenceLevel
const MaxConfidenceLevel = 5
