package domain

// Segment is one timed subtitle line. Times are in seconds.
type Segment struct {
	Index     int     `json:"index"`
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
	Text      string  `json:"text"`
}

// Overlaps reports whether the segment intersects [start, end).
// Segments straddling a chunk boundary belong to both neighbouring chunks.
func (s Segment) Overlaps(start, end float64) bool {
	return s.StartTime < end && s.EndTime > start
}

// WordStatus classifies a token for the learner
type WordStatus string

const (
	WordActive  WordStatus = "ACTIVE"
	WordKnown   WordStatus = "KNOWN"
	WordBlocked WordStatus = "BLOCKED"
)

// Filter reasons recorded on FilteredWord.FilterReason
const (
	ReasonKnownLemma   = "known_lemma"
	ReasonLevel        = "at_or_below_level"
	ReasonInterjection = "interjection"
	ReasonProperNoun   = "proper_noun"
	ReasonNumeral      = "numeral"
)

// FilteredWord is a classified token of a segment
type FilteredWord struct {
	Text         string            `json:"text"`
	StartTime    float64           `json:"start_time"`
	EndTime      float64           `json:"end_time"`
	Status       WordStatus        `json:"status"`
	FilterReason string            `json:"filter_reason,omitempty"`
	Confidence   *float64          `json:"confidence,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`

	// byte span of the token inside the cleaned segment text
	Offset int `json:"-"`
	Length int `json:"-"`
}

// Bucket is the learner-facing category of a segment
type Bucket string

const (
	BucketLearning Bucket = "learning"
	BucketBlocker  Bucket = "blocker"
	BucketEmpty    Bucket = "empty"
)

// FilteredSubtitle is a segment with its classified words
type FilteredSubtitle struct {
	OriginalText string         `json:"original_text"`
	StartTime    float64        `json:"start_time"`
	EndTime      float64        `json:"end_time"`
	Words        []FilteredWord `json:"words"`
	Bucket       Bucket         `json:"bucket"`
}

// ActiveWords returns the words still unknown to the learner
func (f FilteredSubtitle) ActiveWords() []FilteredWord {
	var active []FilteredWord
	for _, w := range f.Words {
		if w.Status == WordActive {
			active = append(active, w)
		}
	}
	return active
}
