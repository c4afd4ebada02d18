// Package orchestrator drives a conversion task through its pipeline plan:
// analyze, convert, enrich, persist. Steps run strictly in order and every
// state change is written to the task repository before the next step starts.
package orchestrator

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"pdf-epub-converter/internal/analyzer"
	"pdf-epub-converter/internal/domain"
	"pdf-epub-converter/internal/epub"
	apperrors "pdf-epub-converter/pkg/errors"
)

// Converter dispatches a conversion to the engine registered for a strategy.
type Converter interface {
	Convert(ctx context.Context, strategy domain.Strategy, inputPath, outputPath string, analysis *domain.DocumentAnalysis, meta domain.Metadata) domain.ConversionResult
}

// TaskOrchestrator executes one task at a time per call. Calls for different
// tasks may run concurrently; all shared state lives in the repository and
// the cache.
type TaskOrchestrator struct {
	analyzer  domain.Analyzer
	planner   domain.Planner
	converter Converter
	cache     domain.Cache
	tables    domain.TableExtractor
	opener    domain.DocumentOpener
	tasks     domain.TaskRepository
	logger    domain.Logger

	resultsDir string
	maxRetries int

	// backoff computes the wait before retry attempt n (1-based). Replaced
	// in tests to avoid real sleeps.
	backoff func(attempt int) time.Duration
}

// New creates the task orchestrator
func New(
	analyzer domain.Analyzer,
	planner domain.Planner,
	converter Converter,
	cache domain.Cache,
	tables domain.TableExtractor,
	opener domain.DocumentOpener,
	tasks domain.TaskRepository,
	logger domain.Logger,
	resultsDir string,
	maxRetries int,
) *TaskOrchestrator {
	o := &TaskOrchestrator{
		analyzer:   analyzer,
		planner:    planner,
		converter:  converter,
		cache:      cache,
		tables:     tables,
		opener:     opener,
		tasks:      tasks,
		logger:     logger,
		resultsDir: resultsDir,
		maxRetries: maxRetries,
	}
	o.backoff = defaultBackoff
	return o
}

// OutputPath returns where the finished EPUB for a task is written.
func (o *TaskOrchestrator) OutputPath(taskID string) string {
	return filepath.Join(o.resultsDir, taskID+".epub")
}

func (o *TaskOrchestrator) thumbnailPath(taskID string) string {
	return filepath.Join(o.resultsDir, taskID+"_thumb.png")
}

// Run executes the full pipeline for a task. Re-running a completed task
// whose artifact still exists is a no-op, so retried submissions cannot redo
// work or corrupt state.
func (o *TaskOrchestrator) Run(ctx context.Context, taskID, inputPath string, meta domain.Metadata) error {
	outputPath := o.OutputPath(taskID)

	if record, err := o.tasks.Get(taskID); err == nil && record.Status == domain.TaskCompleted {
		if _, statErr := os.Stat(record.OutputPath); statErr == nil {
			o.logger.Info("Task already completed, skipping", "task_id", taskID)
			return nil
		}
	}

	o.update(taskID, domain.TaskUpdate{
		Status:   statusPtr(domain.TaskProcessing),
		Progress: intPtr(0),
		Message:  strPtr("Starting conversion"),
	})

	analysisStart := time.Now()
	analysis := o.analyzer.Analyze(inputPath)
	plan := o.planner.Plan(analysis)
	total := len(plan.Steps)

	if meta.Language == "" && analysis.Language != "" {
		meta.Language = analysis.Language
	}
	if meta.OCRLanguages == "" {
		meta.OCRLanguages = analyzer.OCRLanguages(analysis.Language)
	}
	meta = o.fillMetadata(taskID, inputPath, meta)

	steps := []domain.StepMetric{{
		Step:       domain.StepAnalyze,
		Success:    true,
		DurationMS: time.Since(analysisStart).Milliseconds(),
	}}
	o.update(taskID, domain.TaskUpdate{
		Progress: intPtr(progressFor(1, total)),
		Message:  strPtr("Analysis complete"),
		Steps:    steps,
	})
	o.logger.Info("Pipeline planned", "task_id", taskID, "strategy", plan.Strategy, "steps", total)

	for _, step := range plan.Steps[1:] {
		if err := ctx.Err(); err != nil {
			o.update(taskID, domain.TaskUpdate{
				Status:  statusPtr(domain.TaskCancelled),
				Message: strPtr("Conversion cancelled"),
			})
			return err
		}

		res := o.executeStep(ctx, step, inputPath, outputPath, analysis, meta)
		steps = append(steps, domain.StepMetric{
			Step:       res.Step,
			Success:    res.Success,
			DurationMS: res.Duration.Milliseconds(),
		})

		if !res.Success {
			o.update(taskID, domain.TaskUpdate{
				Status:  statusPtr(domain.TaskFailed),
				Message: strPtr(fmt.Sprintf("Step %s failed", step)),
				Steps:   steps,
				Error:   strPtr(res.Error),
			})
			return apperrors.NewOrchestrationError(fmt.Sprintf("step %s failed: %s", step, res.Error), nil)
		}

		o.update(taskID, domain.TaskUpdate{
			Progress: intPtr(progressFor(len(steps), total)),
			Message:  strPtr(fmt.Sprintf("Step %s complete", step)),
			Steps:    steps,
		})
	}

	thumbPath := o.writeThumbnail(taskID, inputPath)

	o.update(taskID, domain.TaskUpdate{
		Status:        statusPtr(domain.TaskCompleted),
		Progress:      intPtr(100),
		Message:       strPtr("Conversion completed"),
		Steps:         steps,
		OutputPath:    strPtr(outputPath),
		ThumbnailPath: strPtr(thumbPath),
	})
	o.logger.Info("Task completed", "task_id", taskID, "output", outputPath)
	return nil
}

// executeStep runs one convert step: cache first, then the engine with
// retry, then table injection on the produced EPUB.
func (o *TaskOrchestrator) executeStep(ctx context.Context, step, inputPath, outputPath string, analysis *domain.DocumentAnalysis, meta domain.Metadata) domain.StepResult {
	start := time.Now()

	strategy, ok := domain.StrategyForStep(step)
	if !ok {
		return domain.StepResult{
			Step:     step,
			Duration: time.Since(start),
			Error:    "unknown pipeline step: " + step,
		}
	}

	if cached, hit := o.cache.Get(inputPath, step); hit {
		if err := copyFile(cached, outputPath); err != nil {
			o.logger.Warn("Failed to restore cached artifact, converting", "error", err)
		} else {
			o.logger.Info("Cache hit", "step", step, "artifact", cached)
			return domain.StepResult{
				Step:     step,
				Success:  true,
				Duration: time.Since(start),
				Output:   outputPath,
			}
		}
	}

	result := o.convertWithRetry(ctx, strategy, inputPath, outputPath, analysis, meta)
	if !result.Success {
		return domain.StepResult{
			Step:      step,
			Duration:  time.Since(start),
			Error:     result.Message,
			Transient: result.Transient,
		}
	}

	o.injectTables(inputPath, outputPath)

	if _, err := o.cache.Set(inputPath, step, outputPath); err != nil {
		o.logger.Warn("Failed to cache artifact", "step", step, "error", err)
	}

	return domain.StepResult{
		Step:     step,
		Success:  true,
		Duration: time.Since(start),
		Output:   outputPath,
	}
}

// convertWithRetry retries transient engine failures with exponential
// backoff. Permanent failures return immediately.
func (o *TaskOrchestrator) convertWithRetry(ctx context.Context, strategy domain.Strategy, inputPath, outputPath string, analysis *domain.DocumentAnalysis, meta domain.Metadata) domain.ConversionResult {
	var result domain.ConversionResult
	for attempt := 0; attempt <= o.maxRetries; attempt++ {
		if attempt > 0 {
			wait := o.backoff(attempt)
			o.logger.Warn("Retrying conversion", "strategy", strategy, "attempt", attempt, "wait", wait)
			select {
			case <-ctx.Done():
				return domain.FailedConversion("Conversion cancelled")
			case <-time.After(wait):
			}
		}
		result = o.converter.Convert(ctx, strategy, inputPath, outputPath, analysis, meta)
		if result.Success || !result.Transient {
			return result
		}
	}
	return result
}

// fillMetadata completes empty book metadata from the PDF's own metadata,
// with the uploaded filename as the final title fallback.
func (o *TaskOrchestrator) fillMetadata(taskID, inputPath string, meta domain.Metadata) domain.Metadata {
	if meta.Title == "" || meta.Author == "" {
		if doc, err := o.opener.Open(inputPath); err == nil {
			md := doc.Metadata()
			doc.Close()
			if meta.Title == "" {
				meta.Title = strings.TrimSpace(md["title"])
			}
			if meta.Author == "" {
				meta.Author = strings.TrimSpace(md["author"])
			}
		}
	}
	if meta.Title == "" {
		if record, err := o.tasks.Get(taskID); err == nil && record.Filename != "" {
			meta.Title = strings.TrimSuffix(record.Filename, filepath.Ext(record.Filename))
		}
	}
	return meta
}

// injectTables extracts table fragments and patches them into the written
// EPUB. Enrichment only: failures are logged and the plain EPUB stands.
func (o *TaskOrchestrator) injectTables(inputPath, outputPath string) {
	if o.tables == nil {
		return
	}
	fragments, err := o.tables.ExtractTables(inputPath)
	if err != nil {
		o.logger.Warn("Table extraction failed, skipping injection", "error", err)
		return
	}
	if len(fragments) == 0 {
		return
	}
	if err := epub.InjectFragments(outputPath, fragments); err != nil {
		o.logger.Warn("Table injection failed, keeping plain output", "error", err)
		return
	}
	o.logger.Info("Injected table fragments", "pages", len(fragments))
}

// writeThumbnail renders the first page as a PNG next to the output. Best
// effort: any failure leaves the task without a thumbnail.
func (o *TaskOrchestrator) writeThumbnail(taskID, inputPath string) string {
	doc, err := o.opener.Open(inputPath)
	if err != nil {
		o.logger.Warn("Thumbnail generation failed", "error", err)
		return ""
	}
	defer doc.Close()

	if doc.PageCount() == 0 {
		return ""
	}
	png, err := doc.RenderPNG(0, 0.5)
	if err != nil {
		o.logger.Warn("Thumbnail generation failed", "error", err)
		return ""
	}
	path := o.thumbnailPath(taskID)
	if err := os.WriteFile(path, png, 0o644); err != nil {
		o.logger.Warn("Thumbnail generation failed", "error", err)
		return ""
	}
	return path
}

func (o *TaskOrchestrator) update(taskID string, update domain.TaskUpdate) {
	if err := o.tasks.Update(taskID, update); err != nil {
		o.logger.Error("Failed to persist task update", err, "task_id", taskID)
	}
}

func progressFor(done, total int) int {
	if total == 0 {
		return 0
	}
	return done * 100 / total
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func statusPtr(s domain.TaskStatus) *domain.TaskStatus { return &s }
func intPtr(i int) *int                                { return &i }
func strPtr(s string) *string                          { return &s }
