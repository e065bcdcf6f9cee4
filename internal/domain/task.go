package domain

import "time"

// TaskStatus is the externally visible state of a chunk job
type TaskStatus string

const (
	TaskProcessing TaskStatus = "processing"
	TaskCompleted  TaskStatus = "completed"
	TaskError      TaskStatus = "error"
)

// Stage is the chunk pipeline step a task is in
type Stage string

const (
	StagePending      Stage = "pending"
	StageTranscribing Stage = "transcribing"
	StageFiltering    Stage = "filtering"
	StageTranslating  Stage = "translating"
	StageCompleted    Stage = "completed"
	StageError        Stage = "error"
)

// ProcessingTask tracks one chunk job
type ProcessingTask struct {
	TaskID          string     `json:"task_id"`
	Status          TaskStatus `json:"status"`
	Progress        float64    `json:"progress"`
	CurrentStep     Stage      `json:"current_step"`
	Message         string     `json:"message"`
	SubtitlePath    string     `json:"subtitle_path,omitempty"`
	TranslationPath string     `json:"translation_path,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Terminal reports whether the task finished, successfully or not
func (t ProcessingTask) Terminal() bool {
	return t.Status == TaskCompleted || t.Status == TaskError
}
