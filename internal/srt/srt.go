// Package srt reads and writes SubRip subtitle text.
package srt

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"sublearn/internal/domain"
)

// ErrParse marks subtitle content that yielded no usable cue at all.
var ErrParse = errors.New("srt parse error")

// ParseError is returned when every block of a non-empty file is malformed.
type ParseError struct {
	Blocks int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("srt: no parsable cue in %d block(s)", e.Blocks)
}

func (e *ParseError) Unwrap() error {
	return ErrParse
}

var blockSeparator = regexp.MustCompile(`\n[ \t]*\n`)

// Parse decodes SubRip content into segments ordered as they appear.
// Malformed blocks are skipped and counted; the error is non-nil only when
// the content is non-empty and not a single block could be decoded.
func Parse(data []byte) ([]domain.Segment, int, error) {
	content := normalize(data)
	if content == "" {
		return nil, 0, nil
	}

	blocks := blockSeparator.Split(content, -1)
	var segments []domain.Segment
	skipped := 0
	total := 0

	for _, block := range blocks {
		block = strings.Trim(block, "\n")
		if strings.TrimSpace(block) == "" {
			continue
		}
		total++

		seg, ok := parseBlock(block)
		if !ok {
			skipped++
			continue
		}
		segments = append(segments, seg)
	}

	if len(segments) == 0 {
		return nil, skipped, &ParseError{Blocks: total}
	}
	return segments, skipped, nil
}

// ParseFile reads and parses an SRT file.
func ParseFile(path string) ([]domain.Segment, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("read srt: %w", err)
	}
	return Parse(data)
}

func normalize(data []byte) string {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	content := strings.ReplaceAll(string(data), "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	return strings.TrimSpace(content)
}

func parseBlock(block string) (domain.Segment, bool) {
	lines := strings.Split(block, "\n")

	// Index line is optional in the wild; the timing line is not.
	index := 0
	if !strings.Contains(lines[0], "-->") {
		n, err := strconv.Atoi(strings.TrimSpace(lines[0]))
		if err != nil {
			return domain.Segment{}, false
		}
		index = n
		lines = lines[1:]
	}
	if len(lines) < 2 {
		return domain.Segment{}, false
	}

	parts := strings.Split(lines[0], "-->")
	if len(parts) != 2 {
		return domain.Segment{}, false
	}
	start, err := ParseTimestamp(parts[0])
	if err != nil {
		return domain.Segment{}, false
	}
	// Position hints such as "X1:100 X2:200" may trail the end time.
	endFields := strings.Fields(parts[1])
	if len(endFields) == 0 {
		return domain.Segment{}, false
	}
	end, err := ParseTimestamp(endFields[0])
	if err != nil || end < start {
		return domain.Segment{}, false
	}

	text := strings.TrimSpace(strings.Join(lines[1:], "\n"))
	if text == "" {
		return domain.Segment{}, false
	}

	return domain.Segment{
		Index:     index,
		StartTime: start,
		EndTime:   end,
		Text:      text,
	}, true
}

// ParseTimestamp converts "HH:MM:SS,mmm" (or with a period) to seconds.
func ParseTimestamp(value string) (float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("empty timestamp")
	}
	value = strings.ReplaceAll(value, ".", ",")
	timeParts := strings.Split(value, ",")
	if len(timeParts) != 2 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hms := strings.Split(timeParts[0], ":")
	if len(hms) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hours, errH := strconv.Atoi(hms[0])
	minutes, errM := strconv.Atoi(hms[1])
	seconds, errS := strconv.Atoi(hms[2])
	millis, errMS := strconv.Atoi(timeParts[1])
	if errH != nil || errM != nil || errS != nil || errMS != nil {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	if hours < 0 || minutes < 0 || minutes > 59 || seconds < 0 || seconds > 59 || millis < 0 || millis > 999 {
		return 0, fmt.Errorf("timestamp out of range %q", value)
	}
	return float64(hours*3600+minutes*60+seconds) + float64(millis)/1000, nil
}

// FormatTimestamp renders seconds as "HH:MM:SS,mmm". Negative values clamp to zero.
func FormatTimestamp(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	total := int64(math.Round(seconds * 1000))
	ms := total % 1000
	total /= 1000
	s := total % 60
	total /= 60
	m := total % 60
	h := total / 60
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}

// Write serializes segments, renumbering them 1..N.
func Write(w io.Writer, segments []domain.Segment) error {
	for i, seg := range segments {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		text := cueText(seg.Text)
		if _, err := fmt.Fprintf(w, "%d\n%s --> %s\n%s\n",
			i+1,
			FormatTimestamp(seg.StartTime),
			FormatTimestamp(seg.EndTime),
			text,
		); err != nil {
			return err
		}
	}
	return nil
}

// cueText drops blank lines, which would otherwise end the cue early.
func cueText(text string) string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			kept = append(kept, strings.TrimRight(line, " \t"))
		}
	}
	return strings.Join(kept, "\n")
}

// Format returns the SubRip encoding of segments.
func Format(segments []domain.Segment) []byte {
	var buf bytes.Buffer
	_ = Write(&buf, segments)
	return buf.Bytes()
}

// WriteFile writes segments to path through a temporary file so readers
// never observe a partially written artifact.
func WriteFile(path string, segments []domain.Segment) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure srt dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".srt-*")
	if err != nil {
		return fmt.Errorf("create temp srt: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := Write(tmp, segments); err != nil {
		tmp.Close()
		return fmt.Errorf("write srt: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync srt: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close srt: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename srt: %w", err)
	}
	return nil
}
