package pipeline

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// ChunkBaseName returns "{stem}_chunk_{start}_{end}" with times in seconds
// and no trailing zeros.
func ChunkBaseName(stem string, start, end float64) string {
	return stem + "_chunk_" + formatSeconds(start) + "_" + formatSeconds(end)
}

// ChunkFileName returns the raw transcript artifact name of a chunk.
func ChunkFileName(stem string, start, end float64) string {
	return ChunkBaseName(stem, start, end) + ".srt"
}

// TaskArtifactName returns the name of a personalized artifact such as
// "{stem}_chunk_{start}_{end}_{taskID}_filtered.srt". The raw transcript is
// shared by every task of a chunk; filtered and translated files belong to
// one task.
func TaskArtifactName(stem string, start, end float64, taskID, kind string) string {
	return ChunkBaseName(stem, start, end) + "_" + taskID + "_" + kind + ".srt"
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// VideoStem returns the file name of path without directory and extension.
func VideoStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// SelectSubtitle picks the candidate whose stem equals videoStem exactly.
// Partial matches such as "film.en.srt" or chunk artifacts never qualify.
func SelectSubtitle(videoStem string, candidates []string) (string, bool) {
	sorted := append([]string(nil), candidates...)
	sort.Strings(sorted)

	for _, c := range sorted {
		if strings.EqualFold(filepath.Ext(c), ".srt") && VideoStem(c) == videoStem {
			return c, true
		}
	}
	return "", false
}

// FindSubtitle looks for a sidecar SRT next to the video.
func FindSubtitle(videoPath string) (string, bool) {
	dir := filepath.Dir(videoPath)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}
	candidates := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		candidates = append(candidates, filepath.Join(dir, e.Name()))
	}
	return SelectSubtitle(VideoStem(videoPath), candidates)
}
