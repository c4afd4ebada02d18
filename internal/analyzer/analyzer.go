package analyzer

import (
	"os"
	"strings"

	"pdf-epub-converter/internal/domain"
)

// Heuristic thresholds. These have no empirical backing; they are exposed as
// fields on the analyzer so deployments can tune them.
const (
	defaultImageHeavyRatio   = 1.5
	defaultImageDenseRatio   = 0.8
	defaultTableDensityMax   = 0.1
	defaultFormulaDensityMax = 1.0
	defaultFormulaPagesMax   = 0.1
	defaultLongDocumentPages = 20
	sampledPages             = 5
)

var (
	tableKeywords   = []string{"table", "tabla", "tabella", "tabelle", "tableau"}
	formulaKeywords = []string{"equation", "formula", "theorem", "proof"}
	mathSymbols     = []string{"∑", "∫", "√", "∞", "≈", "≠", "≤", "≥", "÷", "×", "π", "±"}
	academicMarkers = []string{"abstract", "keywords", "references", "bibliography", "doi"}
	manualMarkers   = []string{"figure", "table", "diagram", "appendix", "specification"}
)

// DocumentAnalyzer inspects a PDF and classifies its content, estimates
// conversion difficulty and recommends a strategy. Analyze never fails: any
// internal error yields a safe default that routes the document to the
// quality engine.
type DocumentAnalyzer struct {
	opener domain.DocumentOpener
	images domain.ImageExtractor
	logger domain.Logger

	ImageHeavyRatio   float64
	ImageDenseRatio   float64
	TableDensityMax   float64
	FormulaDensityMax float64
	FormulaPagesMax   float64
	LongDocumentPages int
}

// New creates a new document analyzer
func New(opener domain.DocumentOpener, images domain.ImageExtractor, logger domain.Logger) *DocumentAnalyzer {
	return &DocumentAnalyzer{
		opener:            opener,
		images:            images,
		logger:            logger,
		ImageHeavyRatio:   defaultImageHeavyRatio,
		ImageDenseRatio:   defaultImageDenseRatio,
		TableDensityMax:   defaultTableDensityMax,
		FormulaDensityMax: defaultFormulaDensityMax,
		FormulaPagesMax:   defaultFormulaPagesMax,
		LongDocumentPages: defaultLongDocumentPages,
	}
}

// Analyze inspects the PDF at path and returns metrics and recommendations.
func (a *DocumentAnalyzer) Analyze(path string) *domain.DocumentAnalysis {
	var fileSize int64
	if info, err := os.Stat(path); err == nil {
		fileSize = info.Size()
	}

	doc, err := a.opener.Open(path)
	if err != nil {
		a.logger.Error("Error analyzing PDF", err, "path", path)
		return a.safeDefault(fileSize)
	}
	defer doc.Close()

	pageCount := doc.PageCount()

	var totalTextLength int
	pageTexts := make([]string, pageCount)
	for i := 0; i < pageCount; i++ {
		text, err := doc.Text(i)
		if err != nil {
			a.logger.Warn("Failed to extract text from page", "page", i+1, "error", err)
			continue
		}
		pageTexts[i] = text
		totalTextLength += len(text)
	}
	textExtractable := totalTextLength > 0

	imageCount := 0
	if a.images != nil {
		imagesByPage, err := a.images.ExtractImages(path)
		if err != nil {
			a.logger.Warn("Image inventory failed, counting zero images", "error", err)
		} else {
			for _, imgs := range imagesByPage {
				imageCount += len(imgs)
			}
		}
	}

	contentType := classify(textExtractable, imageCount, pageCount, a.ImageHeavyRatio)

	var language string
	if textExtractable {
		var sample strings.Builder
		for i := 0; i < pageCount && i < sampledPages; i++ {
			sample.WriteString(pageTexts[i])
		}
		sampleText := sample.String()

		if strings.TrimSpace(sampleText) != "" {
			language = detectLanguage(sampleText)
		}

		lowerSample := strings.ToLower(sampleText)
		if containsAny(lowerSample, academicMarkers) {
			contentType = domain.ContentAcademicPaper
		}
		if containsAny(lowerSample, manualMarkers) {
			contentType = domain.ContentTechnicalManual
		}
	}

	var issues []string
	if !textExtractable {
		issues = append(issues, "No text extractable, OCR required")
	}
	if imageCount == 0 && pageCount > 0 {
		issues = append(issues, "No images detected")
	}

	tableHits := 0
	formulaPages := 0
	formulaSymbols := 0
	for _, text := range pageTexts {
		lower := strings.ToLower(text)
		if containsAny(lower, tableKeywords) {
			tableHits++
		}
		pageSymbols := 0
		for _, sym := range mathSymbols {
			pageSymbols += strings.Count(text, sym)
		}
		if containsAny(lower, formulaKeywords) || pageSymbols > 0 {
			formulaPages++
		}
		formulaSymbols += pageSymbols
	}

	var tableDensity, formulaDensity, formulaPageRatio float64
	if pageCount > 0 {
		tableDensity = float64(tableHits) / float64(pageCount)
		formulaDensity = float64(formulaSymbols) / float64(pageCount)
		formulaPageRatio = float64(formulaPages) / float64(pageCount)
	}

	hasTables := tableHits >= 2
	denseTables := tableDensity > a.TableDensityMax
	denseFormulas := formulaDensity > a.FormulaDensityMax || formulaPageRatio > a.FormulaPagesMax

	if denseTables {
		issues = append(issues, "Tables detected, may require special handling")
	}
	if denseFormulas {
		issues = append(issues, "Formulas detected, may require special handling")
	}

	score := 1
	if !textExtractable {
		score += 2
	}
	if float64(imageCount) >= float64(pageCount)*a.ImageDenseRatio {
		score++
	}
	if hasTables {
		score++
	}
	if pageCount >= a.LongDocumentPages {
		score++
	}
	if denseTables || denseFormulas {
		score++
		if score < 4 {
			score = 4
		}
	}
	score = domain.ClampComplexity(score)

	return &domain.DocumentAnalysis{
		PageCount:           pageCount,
		FileSize:            fileSize,
		TextExtractable:     textExtractable,
		ImageCount:          imageCount,
		ContentType:         contentType,
		Issues:              issues,
		ComplexityScore:     score,
		RecommendedStrategy: domain.StrategyForComplexity(score),
		Language:            language,
	}
}

// safeDefault is returned whenever the document cannot be inspected. It
// routes the file to the most careful strategy.
func (a *DocumentAnalyzer) safeDefault(fileSize int64) *domain.DocumentAnalysis {
	return &domain.DocumentAnalysis{
		PageCount:           0,
		FileSize:            fileSize,
		TextExtractable:     false,
		ImageCount:          0,
		ContentType:         domain.ContentScannedDocument,
		Issues:              []string{"Error analyzing PDF"},
		ComplexityScore:     5,
		RecommendedStrategy: domain.StrategyQuality,
	}
}

func classify(textExtractable bool, imageCount, pageCount int, heavyRatio float64) domain.ContentType {
	switch {
	case !textExtractable && imageCount > 0:
		return domain.ContentScannedDocument
	case float64(imageCount) > float64(pageCount)*heavyRatio:
		return domain.ContentImageHeavy
	case imageCount > 0:
		return domain.ContentTextWithImages
	default:
		return domain.ContentTextOnly
	}
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
