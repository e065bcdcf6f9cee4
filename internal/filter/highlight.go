package filter

import (
	"sort"
	"strings"

	"sublearn/internal/domain"
)

// Inline SubRip markup wrapped around words the learner does not know yet.
const (
	HighlightOpen  = `<font color="#FFD700">`
	HighlightClose = `</font>`
)

// Highlight renders the cleaned subtitle text with every ACTIVE word
// wrapped in highlight markup.
func Highlight(sub domain.FilteredSubtitle) string {
	cleaned := CleanText(sub.OriginalText)
	active := sub.ActiveWords()
	if len(active) == 0 {
		return cleaned
	}
	sort.Slice(active, func(i, j int) bool { return active[i].Offset < active[j].Offset })

	var b strings.Builder
	b.Grow(len(cleaned) + len(active)*(len(HighlightOpen)+len(HighlightClose)))
	pos := 0
	for _, w := range active {
		end := w.Offset + w.Length
		if w.Offset < pos || end > len(cleaned) || cleaned[w.Offset:end] != w.Text {
			continue
		}
		b.WriteString(cleaned[pos:w.Offset])
		b.WriteString(HighlightOpen)
		b.WriteString(w.Text)
		b.WriteString(HighlightClose)
		pos = end
	}
	b.WriteString(cleaned[pos:])
	return b.String()
}

// LearnerSegments converts the learning and blocker buckets into
// highlighted segments in time order. Empty segments are hidden.
func LearnerSegments(result Result) []domain.Segment {
	var segments []domain.Segment
	for _, sub := range result.Subtitles {
		if sub.Bucket == domain.BucketEmpty {
			continue
		}
		segments = append(segments, domain.Segment{
			StartTime: sub.StartTime,
			EndTime:   sub.EndTime,
			Text:      Highlight(sub),
		})
	}
	return segments
}
