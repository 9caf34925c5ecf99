// internal/task/task.go

// Package task implements the in-process background task manager: the single
// authority over scrape task lifecycle. Tasks live for the life of the
// process; there is no persistence and no automatic deletion.
package task

import (
	"errors"
	"time"

	"github.com/scrapeflow/scrapeflow/internal/export"
)

// Status is the lifecycle state of a task. Transitions are
// queued -> running -> (completed | failed); terminal states never change.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

var (
	// ErrTaskNotFound is returned for unknown task identifiers.
	ErrTaskNotFound = errors.New("task not found")
	// ErrTaskNotReady is returned when results are requested before the
	// task has completed.
	ErrTaskNotReady = errors.New("task not completed yet")
)

// Snapshot is a read-only copy of a task's externally visible state.
type Snapshot struct {
	ID           string     `json:"task_id"`
	URL          string     `json:"url"`
	Status       Status     `json:"status"`
	Progress     int        `json:"progress"`
	CreatedAt    time.Time  `json:"created_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	TotalItems   int        `json:"total_items,omitempty"`
	OutputFile   string     `json:"output_file,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
}

// Stats summarizes the task table for reporting.
type Stats struct {
	TotalTasks          int      `json:"total_tasks"`
	CompletedTasks      int      `json:"completed_tasks"`
	FailedTasks         int      `json:"failed_tasks"`
	TotalItemsScraped   int      `json:"total_items_scraped"`
	MostCommonDomains   []string `json:"most_common_domains"`
	AverageItemsPerTask float64  `json:"average_items_per_task"`
}

// entry is the manager-owned mutable task record. Only the manager touches
// it, always under the table lock.
type entry struct {
	id          string
	url         string
	status      Status
	progress    int
	createdAt   time.Time
	completedAt *time.Time
	records     []export.Record
	errMsg      string
	outputPath  string
	totalItems  int
}

func (e *entry) snapshot() Snapshot {
	return Snapshot{
		ID:           e.id,
		URL:          e.url,
		Status:       e.status,
		Progress:     e.progress,
		CreatedAt:    e.createdAt,
		CompletedAt:  e.completedAt,
		TotalItems:   e.totalItems,
		OutputFile:   e.outputPath,
		ErrorMessage: e.errMsg,
	}
}

func (e *entry) terminal() bool {
	return e.status == StatusCompleted || e.status == StatusFailed
}
