package repository

import (
	"sort"
	"sync"
	"time"

	"pdf-epub-converter/internal/domain"
)

// MemoryTaskRepository keeps task records in process memory. It is the
// default store when no Supabase credentials are configured, and the store
// used throughout the tests. Updates are serialized under one mutex; the
// orchestrator only ever writes one task per call, so contention stays low.
type MemoryTaskRepository struct {
	mu     sync.Mutex
	tasks  map[string]*domain.TaskRecord
	logger domain.Logger
}

// NewMemoryTaskRepository creates an in-memory task repository
func NewMemoryTaskRepository(logger domain.Logger) domain.TaskRepository {
	return &MemoryTaskRepository{
		tasks:  make(map[string]*domain.TaskRecord),
		logger: logger,
	}
}

// Create registers a new task in PENDING state.
func (r *MemoryTaskRepository) Create(taskID, filename string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	r.tasks[taskID] = &domain.TaskRecord{
		ID:        taskID,
		Filename:  filename,
		Status:    domain.TaskPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return nil
}

// Update applies a partial update. Status changes that would move the task
// backward are rejected with ErrInvalidTransition.
func (r *MemoryTaskRepository) Update(taskID string, update domain.TaskUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.tasks[taskID]
	if !ok {
		return domain.ErrTaskNotFound
	}

	if update.Status != nil {
		if !record.Status.CanTransition(*update.Status) {
			r.logger.Warn("Rejected task status transition",
				"task_id", taskID, "from", record.Status, "to", *update.Status)
			return domain.ErrInvalidTransition
		}
		record.Status = *update.Status
	}
	if update.Progress != nil {
		record.Progress = *update.Progress
	}
	if update.Message != nil {
		record.Message = *update.Message
	}
	if update.Steps != nil {
		record.Steps = update.Steps
	}
	if update.OutputPath != nil {
		record.OutputPath = *update.OutputPath
	}
	if update.ThumbnailPath != nil {
		record.ThumbnailPath = *update.ThumbnailPath
	}
	if update.Error != nil {
		record.Error = *update.Error
	}
	record.UpdatedAt = time.Now().UTC()
	return nil
}

// Get returns a copy of the task record.
func (r *MemoryTaskRepository) Get(taskID string) (*domain.TaskRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.tasks[taskID]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	copied := *record
	copied.Steps = append([]domain.StepMetric(nil), record.Steps...)
	return &copied, nil
}

// List returns the most recently created tasks, newest first.
func (r *MemoryTaskRepository) List(limit int) ([]*domain.TaskRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	records := make([]*domain.TaskRecord, 0, len(r.tasks))
	for _, record := range r.tasks {
		copied := *record
		copied.Steps = append([]domain.StepMetric(nil), record.Steps...)
		records = append(records, &copied)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}
