package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"sublearn/internal/domain"
	"sublearn/internal/pipeline"
	"sublearn/internal/srt"
	"sublearn/internal/tasks"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

const chunkUsage = "Формат: /chunk <видео> <начало> <конец>\nНапример: /chunk film.mp4 0 30 или /chunk film.mp4 00:01:00 00:01:30"

// handleChunk handles /chunk <video> <start> <end>
func (h *Handler) handleChunk(c tele.Context) error {
	userID := c.Sender().ID

	video, start, end, err := parseChunkArgs(c.Data())
	if err != nil {
		return c.Send(err.Error() + "\n\n" + chunkUsage)
	}

	taskID, err := h.chunks.Start(context.Background(), pipeline.ChunkRequest{
		VideoPath: video,
		Start:     start,
		End:       end,
		UserID:    userID,
		Language:  h.language,
	})
	if err != nil {
		if errors.Is(err, pipeline.ErrValidation) {
			return c.Send("❌ " + err.Error())
		}
		h.logger.Error("Failed to start chunk", zap.Int64("user_id", userID), zap.Error(err))
		return c.Send(msgInternalError)
	}

	state := h.GetState(userID)
	state.LastTaskID = taskID
	h.SetState(userID, state)

	return c.Send(fmt.Sprintf("🎬 Задача запущена\nID: %s\n\nПрогресс: /progress %s", taskID, taskID),
		progressMarkup(taskID))
}

// handleProgress handles /progress [task_id]
func (h *Handler) handleProgress(c tele.Context) error {
	taskID := strings.TrimSpace(c.Data())
	if taskID == "" {
		taskID = h.GetState(c.Sender().ID).LastTaskID
	}
	if taskID == "" {
		return c.Send("Укажи ID задачи: /progress <id>")
	}

	task, err := h.registry.Get(taskID)
	if err != nil {
		if errors.Is(err, tasks.ErrNotFound) {
			return c.Send("Задача не найдена")
		}
		return c.Send(msgInternalError)
	}

	if task.Terminal() {
		return c.Send(formatProgress(task))
	}
	return c.Send(formatProgress(task), progressMarkup(taskID))
}

// parseChunkArgs splits "<video> <start> <end>". The video path may contain spaces.
func parseChunkArgs(payload string) (string, float64, float64, error) {
	fields := strings.Fields(payload)
	if len(fields) < 3 {
		return "", 0, 0, fmt.Errorf("Не хватает аргументов")
	}

	n := len(fields)
	start, err := parseOffset(fields[n-2])
	if err != nil {
		return "", 0, 0, fmt.Errorf("Неверное начало %q", fields[n-2])
	}
	end, err := parseOffset(fields[n-1])
	if err != nil {
		return "", 0, 0, fmt.Errorf("Неверный конец %q", fields[n-1])
	}
	return strings.Join(fields[:n-2], " "), start, end, nil
}

// parseOffset accepts seconds ("90", "12.5"), "MM:SS", "HH:MM:SS" and SRT timestamps
func parseOffset(value string) (float64, error) {
	if !strings.Contains(value, ":") {
		return strconv.ParseFloat(strings.ReplaceAll(value, ",", "."), 64)
	}

	if parts := strings.Split(value, ":"); len(parts) == 2 {
		value = "00:" + value
	}
	clock, frac, _ := strings.Cut(strings.ReplaceAll(value, ".", ","), ",")
	frac = (frac + "000")[:3]
	return srt.ParseTimestamp(clock + "," + frac)
}

var stageTitles = map[domain.Stage]string{
	domain.StagePending:      "в очереди",
	domain.StageTranscribing: "распознавание речи",
	domain.StageFiltering:    "фильтрация слов",
	domain.StageTranslating:  "перевод",
	domain.StageCompleted:    "готово",
	domain.StageError:        "ошибка",
}

func formatProgress(task domain.ProcessingTask) string {
	var b strings.Builder

	icon := "⏳"
	switch task.Status {
	case domain.TaskCompleted:
		icon = "✅"
	case domain.TaskError:
		icon = "❌"
	}

	title, ok := stageTitles[task.CurrentStep]
	if !ok {
		title = string(task.CurrentStep)
	}

	fmt.Fprintf(&b, "%s Задача %s\n", icon, task.TaskID)
	fmt.Fprintf(&b, "Этап: %s\n", title)
	fmt.Fprintf(&b, "Прогресс: %s %.0f%%\n", progressBar(task.Progress), task.Progress)
	if task.Message != "" {
		fmt.Fprintf(&b, "\n%s\n", task.Message)
	}
	if task.SubtitlePath != "" {
		fmt.Fprintf(&b, "\nСубтитры: %s", task.SubtitlePath)
	}
	if task.TranslationPath != "" {
		fmt.Fprintf(&b, "\nПеревод: %s", task.TranslationPath)
	}
	return strings.TrimRight(b.String(), "\n")
}

func progressBar(progress float64) string {
	const width = 10
	filled := int(progress / 100 * width)
	if filled < 0 {
		filled = 0
	}
	if filled > width {
		filled = width
	}
	return strings.Repeat("▰", filled) + strings.Repeat("▱", width-filled)
}
