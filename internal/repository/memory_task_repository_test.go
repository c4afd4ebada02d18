package repository

import (
	"sync"
	"testing"

	"pdf-epub-converter/internal/domain"
)

type mockLogger struct{}

func (l *mockLogger) Info(msg string, fields ...interface{})             {}
func (l *mockLogger) Error(msg string, err error, fields ...interface{}) {}
func (l *mockLogger) Debug(msg string, fields ...interface{})            {}
func (l *mockLogger) Warn(msg string, fields ...interface{})             {}

func statusUpdate(s domain.TaskStatus) domain.TaskUpdate {
	return domain.TaskUpdate{Status: &s}
}

func TestMemoryRepository_CreateAndGet(t *testing.T) {
	repo := NewMemoryTaskRepository(&mockLogger{})

	if err := repo.Create("task-1", "book.pdf"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	record, err := repo.Get("task-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if record.Status != domain.TaskPending {
		t.Errorf("expected PENDING, got %s", record.Status)
	}
	if record.Filename != "book.pdf" {
		t.Errorf("expected filename book.pdf, got %s", record.Filename)
	}
	if record.CreatedAt.IsZero() {
		t.Error("expected created_at to be set")
	}
}

func TestMemoryRepository_GetUnknownTask(t *testing.T) {
	repo := NewMemoryTaskRepository(&mockLogger{})

	if _, err := repo.Get("missing"); err != domain.ErrTaskNotFound {
		t.Errorf("expected ErrTaskNotFound, got %v", err)
	}
}

func TestMemoryRepository_StatusTransitionsAreMonotonic(t *testing.T) {
	repo := NewMemoryTaskRepository(&mockLogger{})
	repo.Create("task-1", "book.pdf")

	if err := repo.Update("task-1", statusUpdate(domain.TaskProcessing)); err != nil {
		t.Fatalf("PENDING -> PROCESSING rejected: %v", err)
	}
	if err := repo.Update("task-1", statusUpdate(domain.TaskCompleted)); err != nil {
		t.Fatalf("PROCESSING -> COMPLETED rejected: %v", err)
	}
	if err := repo.Update("task-1", statusUpdate(domain.TaskProcessing)); err != domain.ErrInvalidTransition {
		t.Errorf("expected ErrInvalidTransition for COMPLETED -> PROCESSING, got %v", err)
	}

	record, _ := repo.Get("task-1")
	if record.Status != domain.TaskCompleted {
		t.Errorf("status changed despite rejected transition: %s", record.Status)
	}
}

func TestMemoryRepository_PendingCannotComplete(t *testing.T) {
	repo := NewMemoryTaskRepository(&mockLogger{})
	repo.Create("task-1", "book.pdf")

	if err := repo.Update("task-1", statusUpdate(domain.TaskCompleted)); err != domain.ErrInvalidTransition {
		t.Errorf("expected ErrInvalidTransition for PENDING -> COMPLETED, got %v", err)
	}
}

func TestMemoryRepository_PartialUpdate(t *testing.T) {
	repo := NewMemoryTaskRepository(&mockLogger{})
	repo.Create("task-1", "book.pdf")

	progress := 50
	message := "halfway"
	if err := repo.Update("task-1", domain.TaskUpdate{Progress: &progress, Message: &message}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	record, _ := repo.Get("task-1")
	if record.Progress != 50 || record.Message != "halfway" {
		t.Errorf("partial update not applied: %+v", record)
	}
	if record.Status != domain.TaskPending {
		t.Errorf("status changed by a non-status update: %s", record.Status)
	}
}

func TestMemoryRepository_GetReturnsCopy(t *testing.T) {
	repo := NewMemoryTaskRepository(&mockLogger{})
	repo.Create("task-1", "book.pdf")
	repo.Update("task-1", domain.TaskUpdate{Steps: []domain.StepMetric{{Step: "analyze", Success: true}}})

	record, _ := repo.Get("task-1")
	record.Message = "mutated"
	record.Steps[0].Step = "mutated"

	fresh, _ := repo.Get("task-1")
	if fresh.Message == "mutated" || fresh.Steps[0].Step == "mutated" {
		t.Error("Get leaked internal state")
	}
}

func TestMemoryRepository_ListNewestFirst(t *testing.T) {
	repo := NewMemoryTaskRepository(&mockLogger{})
	repo.Create("task-1", "a.pdf")
	repo.Create("task-2", "b.pdf")
	repo.Create("task-3", "c.pdf")

	records, err := repo.List(2)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
}

func TestMemoryRepository_ConcurrentUpdatesOnDistinctTasks(t *testing.T) {
	repo := NewMemoryTaskRepository(&mockLogger{})
	repo.Create("task-1", "a.pdf")
	repo.Create("task-2", "b.pdf")

	var wg sync.WaitGroup
	for _, id := range []string{"task-1", "task-2"} {
		wg.Add(1)
		go func(taskID string) {
			defer wg.Done()
			repo.Update(taskID, statusUpdate(domain.TaskProcessing))
			for p := 0; p <= 100; p += 10 {
				progress := p
				repo.Update(taskID, domain.TaskUpdate{Progress: &progress})
			}
			repo.Update(taskID, statusUpdate(domain.TaskCompleted))
		}(id)
	}
	wg.Wait()

	for _, id := range []string{"task-1", "task-2"} {
		record, err := repo.Get(id)
		if err != nil {
			t.Fatalf("Get %s failed: %v", id, err)
		}
		if record.Status != domain.TaskCompleted || record.Progress != 100 {
			t.Errorf("%s: unexpected final state %s/%d", id, record.Status, record.Progress)
		}
	}
}
