package service

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"pdf-epub-converter/internal/domain"
	"pdf-epub-converter/internal/orchestrator"
	apperrors "pdf-epub-converter/pkg/errors"
)

// AnalysisReport is what the analyze endpoint returns: the analysis itself
// plus every candidate plan, best first.
type AnalysisReport struct {
	Analysis *domain.DocumentAnalysis `json:"analysis"`
	Plans    []domain.PipelinePlan    `json:"plans"`
}

// ConversionService implements the conversion business logic behind the
// HTTP edge: upload handling, analysis, task submission and status lookups.
type ConversionService struct {
	analyzer     domain.Analyzer
	planner      domain.Planner
	orchestrator *orchestrator.TaskOrchestrator
	tasks        domain.TaskRepository
	validator    *FileValidator
	logger       domain.Logger
	uploadDir    string
	maxWorkers   int
}

// NewConversionService creates a new conversion service instance
func NewConversionService(
	analyzer domain.Analyzer,
	planner domain.Planner,
	orch *orchestrator.TaskOrchestrator,
	tasks domain.TaskRepository,
	validator *FileValidator,
	logger domain.Logger,
	uploadDir string,
	maxWorkers int,
) *ConversionService {
	return &ConversionService{
		analyzer:     analyzer,
		planner:      planner,
		orchestrator: orch,
		tasks:        tasks,
		validator:    validator,
		logger:       logger,
		uploadDir:    uploadDir,
		maxWorkers:   maxWorkers,
	}
}

// SaveUpload stores an uploaded file under a fresh name in the upload
// directory and validates it. The stored file is removed again when
// validation fails.
func (s *ConversionService) SaveUpload(filename string, r io.Reader) (string, error) {
	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return "", apperrors.NewInternalError("failed to prepare upload directory", err)
	}

	path := filepath.Join(s.uploadDir, uuid.NewString()+filepath.Ext(filename))
	f, err := os.Create(path)
	if err != nil {
		return "", apperrors.NewInternalError("failed to store upload", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return "", apperrors.NewInternalError("failed to store upload", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", apperrors.NewInternalError("failed to store upload", err)
	}

	if err := s.validator.Validate(path); err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}

// Analyze inspects a stored PDF and returns the analysis with all ranked
// pipeline plans.
func (s *ConversionService) Analyze(path string) *AnalysisReport {
	analysis := s.analyzer.Analyze(path)
	return &AnalysisReport{
		Analysis: analysis,
		Plans:    s.planner.Rank(analysis),
	}
}

// StartConversion registers a task for a stored PDF and runs the pipeline in
// the background. It returns the task ID immediately.
func (s *ConversionService) StartConversion(path, filename string, meta domain.Metadata) (string, error) {
	if meta.MaxWorkers <= 0 {
		meta.MaxWorkers = s.maxWorkers
	}

	taskID := uuid.NewString()
	if err := s.tasks.Create(taskID, filename); err != nil {
		return "", apperrors.NewOrchestrationError("failed to register task", err)
	}

	s.logger.Info("Conversion task submitted", "task_id", taskID, "filename", filename)

	go func() {
		if err := s.orchestrator.Run(context.Background(), taskID, path, meta); err != nil {
			s.logger.Error("Conversion task failed", err, "task_id", taskID)
		}
	}()

	return taskID, nil
}

// GetStatus returns the current record for a task.
func (s *ConversionService) GetStatus(taskID string) (*domain.TaskRecord, error) {
	record, err := s.tasks.Get(taskID)
	if err != nil {
		if err == domain.ErrTaskNotFound {
			return nil, apperrors.NewNotFoundError("task not found")
		}
		return nil, apperrors.NewInternalError("failed to load task", err)
	}
	return record, nil
}

// History returns the most recent tasks.
func (s *ConversionService) History(limit int) ([]*domain.TaskRecord, error) {
	records, err := s.tasks.List(limit)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list tasks", err)
	}
	return records, nil
}
