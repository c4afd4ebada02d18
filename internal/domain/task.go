package domain

import "time"

// TaskStatus is the lifecycle state of a conversion task. Transitions are
// monotonic: PENDING -> PROCESSING -> {COMPLETED, FAILED}, with CANCELLED
// reachable from PROCESSING. No backward transition is permitted.
type TaskStatus string

const (
	TaskPending    TaskStatus = "PENDING"
	TaskProcessing TaskStatus = "PROCESSING"
	TaskCompleted  TaskStatus = "COMPLETED"
	TaskFailed     TaskStatus = "FAILED"
	TaskCancelled  TaskStatus = "CANCELLED"
)

// CanTransition reports whether moving from one status to another respects
// the monotonic state machine. Same-status updates are allowed so progress
// can be recorded while PROCESSING.
func (s TaskStatus) CanTransition(to TaskStatus) bool {
	if s == to {
		return true
	}
	switch s {
	case TaskPending:
		return to == TaskProcessing || to == TaskFailed
	case TaskProcessing:
		return to == TaskCompleted || to == TaskFailed || to == TaskCancelled
	default:
		return false
	}
}

// IsTerminal reports whether no further transitions are possible.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskCompleted || s == TaskFailed || s == TaskCancelled
}

// StepMetric is one persisted per-step measurement on a task record.
type StepMetric struct {
	Step       string `json:"step"`
	Success    bool   `json:"success"`
	DurationMS int64  `json:"duration_ms"`
}

// TaskRecord is the externally persisted view of one conversion task.
type TaskRecord struct {
	ID            string       `json:"id"`
	Filename      string       `json:"filename"`
	Status        TaskStatus   `json:"status"`
	Progress      int          `json:"progress"` // percent
	Message       string       `json:"message,omitempty"`
	Steps         []StepMetric `json:"steps,omitempty"`
	OutputPath    string       `json:"output_path,omitempty"`
	ThumbnailPath string       `json:"thumbnail_path,omitempty"`
	Error         string       `json:"error,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// TaskUpdate is a partial update applied to a task record. Nil fields are
// left untouched so concurrent per-task updates stay cheap.
type TaskUpdate struct {
	Status        *TaskStatus
	Progress      *int
	Message       *string
	Steps         []StepMetric
	OutputPath    *string
	ThumbnailPath *string
	Error         *string
}
