package engine

import (
	"context"
	"strings"

	"pdf-epub-converter/internal/domain"
	"pdf-epub-converter/internal/epub"
	apperrors "pdf-epub-converter/pkg/errors"
)

// defaultOCRTriggerLength is the extracted-text length below which a page is
// rasterized and sent through OCR. Heuristic, tunable per engine instance.
const defaultOCRTriggerLength = 80

// ocrScale rasterizes pages at twice the native resolution before OCR.
const ocrScale = 2.0

// QualityEngine is the most careful strategy: it falls back to OCR on pages
// with too little extractable text, splits text into paragraphs and embeds
// compressed images.
type QualityEngine struct {
	opener domain.DocumentOpener
	images domain.ImageExtractor
	ocr    domain.OCREngine
	logger domain.Logger

	OCRTriggerLength int
}

// NewQuality creates the quality conversion engine
func NewQuality(opener domain.DocumentOpener, images domain.ImageExtractor, ocr domain.OCREngine, logger domain.Logger) *QualityEngine {
	return &QualityEngine{
		opener:           opener,
		images:           images,
		ocr:              ocr,
		logger:           logger,
		OCRTriggerLength: defaultOCRTriggerLength,
	}
}

// Convert builds the EPUB page by page, running OCR where extraction came
// up short.
func (e *QualityEngine) Convert(ctx context.Context, inputPath, outputPath string, analysis *domain.DocumentAnalysis, meta domain.Metadata) domain.ConversionResult {
	doc, err := e.opener.Open(inputPath)
	if err != nil {
		e.logger.Error("Error in quality conversion", err)
		return domain.FailedConversion("Error during conversion: " + err.Error())
	}
	defer doc.Close()

	imagesByPage := map[int][]domain.EmbeddedImage{}
	if e.images != nil {
		imagesByPage, err = e.images.ExtractImages(inputPath)
		if err != nil {
			e.logger.Warn("Image extraction failed, converting text only", "error", err)
			imagesByPage = map[int][]domain.EmbeddedImage{}
		}
	}

	writer := epub.NewWriter(meta.Title, meta.Language)
	if meta.Author != "" {
		writer.SetAuthor(meta.Author)
	}

	anyText := false
	anyImages := false

	for i := 0; i < doc.PageCount(); i++ {
		if err := ctx.Err(); err != nil {
			return domain.FailedConversion("Conversion cancelled")
		}

		text, err := doc.Text(i)
		if err != nil {
			e.logger.Warn("Failed to extract text from page", "page", i+1, "error", err)
			text = ""
		}

		if len(strings.TrimSpace(text)) < e.OCRTriggerLength {
			ocrText, err := e.runOCR(ctx, doc, i, meta.OCRLanguages)
			if err != nil {
				e.logger.Error("OCR failed", err, "page", i+1)
				result := domain.FailedConversion("Error during conversion: " + err.Error())
				result.Transient = apperrors.IsTransient(err)
				return result
			}
			text = ocrText
		}
		if strings.TrimSpace(text) != "" {
			anyText = true
		}

		var body strings.Builder
		body.WriteString(paragraphsHTML(text))

		for _, img := range imagesByPage[i+1] {
			anyImages = true
			compressed := compressImage(img)
			name := imageName(i+1, img.Index, compressed.Ext)
			writer.AddImage(name, mediaType(compressed.Ext), compressed.Data)
			body.WriteString(imageContainer("images/" + name))
		}

		writer.AddChapter(pageTitle(i+1), body.String())
	}

	if err := writer.WriteFile(outputPath); err != nil {
		e.logger.Error("Error in quality conversion", err)
		return domain.FailedConversion("Error during conversion: " + err.Error())
	}

	boolPercent := func(b bool) int {
		if b {
			return 100
		}
		return 0
	}

	return domain.ConversionResult{
		Success:    true,
		Message:    "High quality conversion completed successfully",
		OutputPath: outputPath,
		Metrics: domain.QualityMetrics{
			TextPreserved:   boolPercent(anyText),
			ImagesPreserved: boolPercent(anyImages),
			Overall:         95,
		},
	}
}

// runOCR rasterizes a page at 2x and feeds it to the OCR backend.
func (e *QualityEngine) runOCR(ctx context.Context, doc domain.DocumentSource, page int, lang string) (string, error) {
	image, err := doc.RenderPNG(page, ocrScale)
	if err != nil {
		return "", apperrors.NewEngineError("failed to rasterize page for OCR", err)
	}
	return e.ocr.Recognize(ctx, image, lang)
}
