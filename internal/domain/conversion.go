package domain

import "time"

// QualityMetrics summarizes how much of the source survived conversion.
type QualityMetrics struct {
	TextPreserved   int `json:"text_preserved"`   // percent
	ImagesPreserved int `json:"images_preserved"` // percent
	Overall         int `json:"overall"`          // 0-100
}

// ConversionResult is produced once per engine run. Engines capture every
// internal failure and report it here instead of returning an error.
type ConversionResult struct {
	Success     bool              `json:"success"`
	Message     string            `json:"message"`
	OutputPath  string            `json:"output_path,omitempty"`
	Metrics     QualityMetrics    `json:"quality_metrics"`
	EngineUsed  Strategy          `json:"engine_used,omitempty"`
	Analysis    *DocumentAnalysis `json:"analysis,omitempty"`
	Duration    time.Duration     `json:"duration,omitempty"`
	WorkersUsed int               `json:"workers_used,omitempty"`

	// Transient marks failures caused by external tools, which the
	// orchestrator may retry.
	Transient bool `json:"-"`
}

// FailedConversion builds the zeroed-metrics failure result every engine
// returns on error.
func FailedConversion(message string) ConversionResult {
	return ConversionResult{
		Success: false,
		Message: message,
		Metrics: QualityMetrics{},
	}
}

// Metadata carries book-level metadata and per-request tuning into an engine.
type Metadata struct {
	Title        string `json:"title"`
	Author       string `json:"author,omitempty"`
	Language     string `json:"language"`
	OCRLanguages string `json:"ocr_languages,omitempty"`
	MaxWorkers   int    `json:"max_workers,omitempty"`
}
