package repository

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/supabase-community/postgrest-go"

	"pdf-epub-converter/internal/domain"
)

const tasksTable = "conversion_tasks"

// SupabaseTaskRepository persists task records in the conversion_tasks
// table. The monotonic status check happens here too: the current row is
// read before a status change is written.
type SupabaseTaskRepository struct {
	supabaseClient *SupabaseClient
	logger         domain.Logger
}

// NewSupabaseTaskRepository creates a new Supabase task repository
func NewSupabaseTaskRepository(supabaseClient *SupabaseClient, logger domain.Logger) domain.TaskRepository {
	return &SupabaseTaskRepository{
		supabaseClient: supabaseClient,
		logger:         logger,
	}
}

// Create inserts a new PENDING task row.
func (r *SupabaseTaskRepository) Create(taskID, filename string) error {
	client := r.supabaseClient.GetSupabaseClient()
	if client == nil {
		return fmt.Errorf("supabase client not initialized")
	}

	now := time.Now().UTC().Format(time.RFC3339)
	data := map[string]interface{}{
		"id":         taskID,
		"filename":   filename,
		"status":     string(domain.TaskPending),
		"progress":   0,
		"created_at": now,
		"updated_at": now,
	}

	_, _, err := client.From(tasksTable).Insert(data, false, "", "", "").Execute()
	if err != nil {
		r.logger.Error("Failed to insert task in Supabase", err, "task_id", taskID)
		return fmt.Errorf("failed to create task: %w", err)
	}

	r.logger.Info("Task created", "task_id", taskID, "filename", filename)
	return nil
}

// Update applies a partial update to a task row.
func (r *SupabaseTaskRepository) Update(taskID string, update domain.TaskUpdate) error {
	client := r.supabaseClient.GetSupabaseClient()
	if client == nil {
		return fmt.Errorf("supabase client not initialized")
	}

	if update.Status != nil {
		current, err := r.Get(taskID)
		if err != nil {
			return err
		}
		if !current.Status.CanTransition(*update.Status) {
			r.logger.Warn("Rejected task status transition",
				"task_id", taskID, "from", current.Status, "to", *update.Status)
			return domain.ErrInvalidTransition
		}
	}

	data := map[string]interface{}{
		"updated_at": time.Now().UTC().Format(time.RFC3339),
	}
	if update.Status != nil {
		data["status"] = string(*update.Status)
	}
	if update.Progress != nil {
		data["progress"] = *update.Progress
	}
	if update.Message != nil {
		data["message"] = *update.Message
	}
	if update.Steps != nil {
		stepsJSON, err := json.Marshal(update.Steps)
		if err != nil {
			r.logger.Warn("Failed to marshal step metrics", "error", err)
		} else {
			var stepsData interface{}
			if err := json.Unmarshal(stepsJSON, &stepsData); err == nil {
				data["steps"] = stepsData
			}
		}
	}
	if update.OutputPath != nil {
		data["output_path"] = *update.OutputPath
	}
	if update.ThumbnailPath != nil {
		data["thumbnail_path"] = *update.ThumbnailPath
	}
	if update.Error != nil {
		data["error"] = *update.Error
	}

	_, _, err := client.From(tasksTable).
		Update(data, "", "").
		Eq("id", taskID).
		Execute()
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	return nil
}

// Get retrieves a task row by ID.
func (r *SupabaseTaskRepository) Get(taskID string) (*domain.TaskRecord, error) {
	client := r.supabaseClient.GetSupabaseClient()
	if client == nil {
		return nil, fmt.Errorf("supabase client not initialized")
	}

	data, _, err := client.From(tasksTable).
		Select("*", "", false).
		Eq("id", taskID).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	var rows []map[string]interface{}
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if len(rows) == 0 {
		return nil, domain.ErrTaskNotFound
	}
	return r.mapToRecord(rows[0]), nil
}

// List retrieves the most recent task rows.
func (r *SupabaseTaskRepository) List(limit int) ([]*domain.TaskRecord, error) {
	client := r.supabaseClient.GetSupabaseClient()
	if client == nil {
		return nil, fmt.Errorf("supabase client not initialized")
	}

	query := client.From(tasksTable).
		Select("*", "", false).
		Order("created_at", &postgrest.OrderOpts{Ascending: false})
	if limit > 0 {
		query = query.Limit(limit, "")
	}
	data, _, err := query.Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	var rows []map[string]interface{}
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	records := make([]*domain.TaskRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, r.mapToRecord(row))
	}
	return records, nil
}

// mapToRecord converts a row map to a TaskRecord.
func (r *SupabaseTaskRepository) mapToRecord(data map[string]interface{}) *domain.TaskRecord {
	record := &domain.TaskRecord{
		ID:            getString(data, "id"),
		Filename:      getString(data, "filename"),
		Status:        domain.TaskStatus(getString(data, "status")),
		Progress:      getInt(data, "progress"),
		Message:       getString(data, "message"),
		OutputPath:    getString(data, "output_path"),
		ThumbnailPath: getString(data, "thumbnail_path"),
		Error:         getString(data, "error"),
	}

	if ts, err := time.Parse(time.RFC3339, getString(data, "created_at")); err == nil {
		record.CreatedAt = ts
	}
	if ts, err := time.Parse(time.RFC3339, getString(data, "updated_at")); err == nil {
		record.UpdatedAt = ts
	}

	if stepsVal, ok := data["steps"]; ok && stepsVal != nil {
		stepsJSON, err := json.Marshal(stepsVal)
		if err == nil {
			var steps []domain.StepMetric
			if err := json.Unmarshal(stepsJSON, &steps); err == nil {
				record.Steps = steps
			}
		}
	}

	return record
}

// Helper functions for type conversion
func getString(data map[string]interface{}, key string) string {
	if val, ok := data[key]; ok && val != nil {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return ""
}

func getInt(data map[string]interface{}, key string) int {
	if val, ok := data[key]; ok && val != nil {
		switch v := val.(type) {
		case int:
			return v
		case int64:
			return int(v)
		case float64:
			return int(v)
		case string:
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
	}
	return 0
}
