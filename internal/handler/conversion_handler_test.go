package handler

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"

	"pdf-epub-converter/internal/domain"
	"pdf-epub-converter/internal/repository"
	"pdf-epub-converter/internal/service"
)

func newTestHandler(t *testing.T) (*ConversionHandler, domain.TaskRepository) {
	t.Helper()
	logger := NewMockHandlerLogger()
	tasks := repository.NewMemoryTaskRepository(logger)
	validator := service.NewFileValidator(1<<20, logger)
	// Analyze/convert paths are exercised elsewhere; status and history only
	// need the repository and validator.
	svc := service.NewConversionService(nil, nil, nil, tasks, validator, logger, t.TempDir(), 2)
	return NewConversionHandler(svc, logger, 1<<20), tasks
}

func statusRequest(taskID string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/status/"+taskID, nil)
	return mux.SetURLVars(req, map[string]string{"id": taskID})
}

func TestConversionHandler_Status_OK(t *testing.T) {
	handler, tasks := newTestHandler(t)
	tasks.Create("task-1", "book.pdf")

	rr := httptest.NewRecorder()
	handler.Status(rr, statusRequest("task-1"))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}

	var record domain.TaskRecord
	if err := json.Unmarshal(rr.Body.Bytes(), &record); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if record.ID != "task-1" || record.Status != domain.TaskPending {
		t.Fatalf("unexpected record: %+v", record)
	}
}

func TestConversionHandler_Status_NotFound(t *testing.T) {
	handler, _ := newTestHandler(t)

	rr := httptest.NewRecorder()
	handler.Status(rr, statusRequest("missing"))

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, rr.Code)
	}
}

func TestConversionHandler_History_OK(t *testing.T) {
	handler, tasks := newTestHandler(t)
	tasks.Create("task-1", "a.pdf")
	tasks.Create("task-2", "b.pdf")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/history?limit=1", nil)
	rr := httptest.NewRecorder()
	handler.History(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}

	var records []*domain.TaskRecord
	if err := json.Unmarshal(rr.Body.Bytes(), &records); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
}

func TestConversionHandler_History_EmptyIsArray(t *testing.T) {
	handler, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/history", nil)
	rr := httptest.NewRecorder()
	handler.History(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	if body := bytes.TrimSpace(rr.Body.Bytes()); string(body) != "[]" {
		t.Fatalf("expected empty JSON array, got %s", body)
	}
}

func TestConversionHandler_Convert_MissingFileField(t *testing.T) {
	handler, _ := newTestHandler(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("title", "no file attached")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/convert", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := httptest.NewRecorder()
	handler.Convert(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, rr.Code)
	}
}

func TestConversionHandler_Convert_RejectsNonPDF(t *testing.T) {
	handler, _ := newTestHandler(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "notes.txt")
	if err != nil {
		t.Fatalf("failed to build form: %v", err)
	}
	fw.Write([]byte("plain text"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/convert", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := httptest.NewRecorder()
	handler.Convert(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, rr.Code)
	}
}

func TestConversionHandler_Download_NotCompleted(t *testing.T) {
	handler, tasks := newTestHandler(t)
	tasks.Create("task-1", "book.pdf")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/download/task-1", nil)
	req = mux.SetURLVars(req, map[string]string{"id": "task-1"})
	rr := httptest.NewRecorder()
	handler.Download(rr, req)

	if rr.Code != http.StatusConflict {
		t.Fatalf("expected status %d, got %d", http.StatusConflict, rr.Code)
	}
}
