package srt

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"sublearn/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name            string
		input           string
		expectedTexts   []string
		expectedSkipped int
		expectedError   bool
	}{
		{
			name: "well formed",
			input: "1\n00:00:01,000 --> 00:00:02,500\nHallo Welt\n\n" +
				"2\n00:00:03,000 --> 00:00:04,000\nWie geht's?\n",
			expectedTexts: []string{"Hallo Welt", "Wie geht's?"},
		},
		{
			name: "crlf and bom",
			input: "\xef\xbb\xbf1\r\n00:00:01,000 --> 00:00:02,000\r\nErste\r\n\r\n" +
				"2\r\n00:00:02,000 --> 00:00:03,000\r\nZweite\r\n",
			expectedTexts: []string{"Erste", "Zweite"},
		},
		{
			name: "malformed block skipped",
			input: "1\n00:00:01,000 --> 00:00:02,000\nGut\n\n" +
				"2\nkaputt --> 00:00:03,000\nSchlecht\n\n" +
				"3\n00:00:04,000 --> 00:00:05,000\nAuch gut\n",
			expectedTexts:   []string{"Gut", "Auch gut"},
			expectedSkipped: 1,
		},
		{
			name:          "missing index line",
			input:         "00:00:01,000 --> 00:00:02,000\nOhne Nummer\n",
			expectedTexts: []string{"Ohne Nummer"},
		},
		{
			name:          "multi line text",
			input:         "1\n00:00:01,000 --> 00:00:02,000\nZeile eins\nZeile zwei\n",
			expectedTexts: []string{"Zeile eins\nZeile zwei"},
		},
		{
			name:  "empty input",
			input: "   \n\n",
		},
		{
			name:          "wholly unparsable",
			input:         "not a subtitle\n\nstill not\n",
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			segments, skipped, err := Parse([]byte(tt.input))

			if tt.expectedError {
				assert.Error(t, err)
				assert.True(t, errors.Is(err, ErrParse))
				var parseErr *ParseError
				assert.True(t, errors.As(err, &parseErr))
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tt.expectedSkipped, skipped)
			texts := make([]string, 0, len(segments))
			for _, seg := range segments {
				texts = append(texts, seg.Text)
			}
			if len(tt.expectedTexts) == 0 {
				assert.Empty(t, texts)
			} else {
				assert.Equal(t, tt.expectedTexts, texts)
			}
		})
	}
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		name          string
		input         string
		expected      float64
		expectedError bool
	}{
		{name: "comma", input: "01:02:03,456", expected: 3723.456},
		{name: "period", input: "00:00:10.500", expected: 10.5},
		{name: "surrounding spaces", input: " 00:10:00,000 ", expected: 600},
		{name: "missing millis", input: "00:00:10", expectedError: true},
		{name: "minutes out of range", input: "00:61:00,000", expectedError: true},
		{name: "garbage", input: "aa:bb:cc,ddd", expectedError: true},
		{name: "empty", input: "", expectedError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ParseTimestamp(tt.input)

			if tt.expectedError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.InDelta(t, tt.expected, result, 0.0001)
			}
		})
	}
}

func TestFormatTimestamp(t *testing.T) {
	assert.Equal(t, "00:00:00,000", FormatTimestamp(0))
	assert.Equal(t, "01:02:03,456", FormatTimestamp(3723.456))
	assert.Equal(t, "00:10:00,000", FormatTimestamp(600))
	assert.Equal(t, "00:00:00,000", FormatTimestamp(-4))
	assert.Equal(t, "100:00:00,001", FormatTimestamp(360000.001))
}

func TestWrite_RenumbersSegments(t *testing.T) {
	segments := []domain.Segment{
		{Index: 7, StartTime: 1, EndTime: 2, Text: "Eins"},
		{Index: 9, StartTime: 3, EndTime: 4.25, Text: "Zwei\n\nDrei"},
	}

	out := string(Format(segments))

	expected := "1\n00:00:01,000 --> 00:00:02,000\nEins\n\n" +
		"2\n00:00:03,000 --> 00:00:04,250\nZwei\nDrei\n"
	assert.Equal(t, expected, out)
}

func TestRoundTrip(t *testing.T) {
	segments := []domain.Segment{
		{StartTime: 0.5, EndTime: 2.75, Text: "Guten Morgen!"},
		{StartTime: 3, EndTime: 5.125, Text: "Wir treffen uns\num acht Uhr."},
		{StartTime: 3599.999, EndTime: 3601, Text: "<i>Über die Stunde</i>"},
	}

	parsed, skipped, err := Parse(Format(segments))
	require.NoError(t, err)
	assert.Equal(t, 0, skipped)
	require.Len(t, parsed, len(segments))

	for i, seg := range parsed {
		assert.Equal(t, i+1, seg.Index)
		assert.InDelta(t, segments[i].StartTime, seg.StartTime, 0.0005)
		assert.InDelta(t, segments[i].EndTime, seg.EndTime, 0.0005)
		assert.Equal(t, segments[i].Text, seg.Text)
	}
}

func TestWriteFile_ParseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "out.srt")
	segments := []domain.Segment{{StartTime: 1, EndTime: 2, Text: "Hallo"}}

	require.NoError(t, WriteFile(path, segments))

	parsed, _, err := ParseFile(path)
	require.NoError(t, err)
	require.Len(t, parsed, 1)
	assert.Equal(t, "Hallo", parsed[0].Text)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file must not be left behind")
}

func TestParseFile_Missing(t *testing.T) {
	_, _, err := ParseFile(filepath.Join(t.TempDir(), "missing.srt"))
	assert.Error(t, err)
}
