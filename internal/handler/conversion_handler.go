// Package handler provides HTTP handlers for the API.
package handler

import (
	"net/http"
	"os"
	"strconv"

	"github.com/gorilla/mux"

	"pdf-epub-converter/internal/domain"
	"pdf-epub-converter/internal/service"
)

const defaultHistoryLimit = 20

// ConversionHandler handles conversion-related HTTP requests
type ConversionHandler struct {
	conversionService *service.ConversionService
	logger            domain.Logger
	maxUploadBytes    int64
}

// NewConversionHandler creates a new conversion handler
func NewConversionHandler(conversionService *service.ConversionService, logger domain.Logger, maxUploadBytes int64) *ConversionHandler {
	return &ConversionHandler{
		conversionService: conversionService,
		logger:            logger,
		maxUploadBytes:    maxUploadBytes,
	}
}

// Analyze accepts a PDF upload and returns the document analysis with all
// ranked pipeline plans. The uploaded file is discarded afterwards.
func (h *ConversionHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	path, _, ok := h.saveUpload(w, r)
	if !ok {
		return
	}
	defer os.Remove(path)

	report := h.conversionService.Analyze(path)
	writeJSON(w, http.StatusOK, report)
}

// Convert accepts a PDF upload, registers a conversion task and returns the
// task ID immediately. The conversion runs in the background.
func (h *ConversionHandler) Convert(w http.ResponseWriter, r *http.Request) {
	path, filename, ok := h.saveUpload(w, r)
	if !ok {
		return
	}

	// An empty title or author is completed downstream from the PDF's own
	// metadata, falling back to the filename.
	meta := domain.Metadata{
		Title:    r.FormValue("title"),
		Author:   r.FormValue("author"),
		Language: r.FormValue("language"),
	}
	if workers := r.FormValue("max_workers"); workers != "" {
		if n, err := strconv.Atoi(workers); err == nil && n > 0 {
			meta.MaxWorkers = n
		}
	}

	taskID, err := h.conversionService.StartConversion(path, filename, meta)
	if err != nil {
		h.logger.Error("Failed to start conversion", err, "filename", filename)
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"task_id": taskID})
}

// Status returns the current record for a task.
func (h *ConversionHandler) Status(w http.ResponseWriter, r *http.Request) {
	taskID := mux.Vars(r)["id"]
	if taskID == "" {
		writeError(w, http.StatusBadRequest, "Task ID is required")
		return
	}

	record, err := h.conversionService.GetStatus(taskID)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// History returns the most recent tasks.
func (h *ConversionHandler) History(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	records, err := h.conversionService.History(limit)
	if err != nil {
		writeAppError(w, err)
		return
	}
	if records == nil {
		records = make([]*domain.TaskRecord, 0)
	}
	writeJSON(w, http.StatusOK, records)
}

// Download streams the finished EPUB for a completed task.
func (h *ConversionHandler) Download(w http.ResponseWriter, r *http.Request) {
	taskID := mux.Vars(r)["id"]
	if taskID == "" {
		writeError(w, http.StatusBadRequest, "Task ID is required")
		return
	}

	record, err := h.conversionService.GetStatus(taskID)
	if err != nil {
		writeAppError(w, err)
		return
	}
	if record.Status != domain.TaskCompleted || record.OutputPath == "" {
		writeError(w, http.StatusConflict, "Task is not completed")
		return
	}

	w.Header().Set("Content-Type", "application/epub+zip")
	w.Header().Set("Content-Disposition", `attachment; filename="`+record.Filename+`.epub"`)
	http.ServeFile(w, r, record.OutputPath)
}

// saveUpload reads the multipart "file" field and stores it via the
// service. It writes the error response itself when something goes wrong.
func (h *ConversionHandler) saveUpload(w http.ResponseWriter, r *http.Request) (path, filename string, ok bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid multipart request")
		return "", "", false
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Missing file field")
		return "", "", false
	}
	defer file.Close()

	path, err = h.conversionService.SaveUpload(header.Filename, file)
	if err != nil {
		h.logger.Warn("Upload rejected", "filename", header.Filename, "error", err)
		writeAppError(w, err)
		return "", "", false
	}
	return path, header.Filename, true
}
