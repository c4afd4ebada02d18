package engine

import (
	"context"

	"pdf-epub-converter/internal/domain"
	"pdf-epub-converter/internal/epub"
)

// FastEngine is the cheapest strategy: per-page text only, one chapter per
// page, no image handling.
type FastEngine struct {
	opener domain.DocumentOpener
	logger domain.Logger
}

// NewFast creates the fast conversion engine
func NewFast(opener domain.DocumentOpener, logger domain.Logger) *FastEngine {
	return &FastEngine{opener: opener, logger: logger}
}

// Convert extracts per-page text and assembles a minimal EPUB.
func (e *FastEngine) Convert(ctx context.Context, inputPath, outputPath string, analysis *domain.DocumentAnalysis, meta domain.Metadata) domain.ConversionResult {
	doc, err := e.opener.Open(inputPath)
	if err != nil {
		e.logger.Error("Error in fast conversion", err)
		return domain.FailedConversion("Error during conversion: " + err.Error())
	}
	defer doc.Close()

	writer := epub.NewWriter(meta.Title, meta.Language)
	if meta.Author != "" {
		writer.SetAuthor(meta.Author)
	}

	for i := 0; i < doc.PageCount(); i++ {
		if err := ctx.Err(); err != nil {
			return domain.FailedConversion("Conversion cancelled")
		}
		text, err := doc.Text(i)
		if err != nil {
			e.logger.Warn("Failed to extract text from page", "page", i+1, "error", err)
			text = ""
		}
		writer.AddChapter(pageTitle(i+1), textDiv(text))
	}

	if err := writer.WriteFile(outputPath); err != nil {
		e.logger.Error("Error in fast conversion", err)
		return domain.FailedConversion("Error during conversion: " + err.Error())
	}

	return domain.ConversionResult{
		Success:    true,
		Message:    "Conversion completed successfully",
		OutputPath: outputPath,
		Metrics: domain.QualityMetrics{
			TextPreserved:   100,
			ImagesPreserved: 0,
			Overall:         70,
		},
	}
}
