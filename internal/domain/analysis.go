package domain

// ContentType classifies what a PDF mostly contains.
type ContentType string

const (
	ContentTextOnly        ContentType = "text_only"
	ContentTextWithImages  ContentType = "text_with_images"
	ContentImageHeavy      ContentType = "image_heavy"
	ContentScannedDocument ContentType = "scanned_document"
	ContentTechnicalManual ContentType = "technical_manual"
	ContentAcademicPaper   ContentType = "academic_paper"
)

// Strategy identifies one of the interchangeable conversion engines.
type Strategy string

const (
	StrategyFast     Strategy = "fast"
	StrategyBalanced Strategy = "balanced"
	StrategyQuality  Strategy = "quality"
)

// StrategyForComplexity maps a complexity score to the recommended strategy.
// The thresholds are fixed: <=1 fast, <=3 balanced, otherwise quality.
func StrategyForComplexity(score int) Strategy {
	switch {
	case score <= 1:
		return StrategyFast
	case score <= 3:
		return StrategyBalanced
	default:
		return StrategyQuality
	}
}

// ClampComplexity forces a complexity score into the valid [1,5] range.
func ClampComplexity(score int) int {
	if score < 1 {
		return 1
	}
	if score > 5 {
		return 5
	}
	return score
}

// DocumentAnalysis is the result of inspecting a source PDF. It is created
// once per conversion request and immutable after creation.
type DocumentAnalysis struct {
	PageCount           int         `json:"page_count"`
	FileSize            int64       `json:"file_size"`
	TextExtractable     bool        `json:"text_extractable"`
	ImageCount          int         `json:"image_count"`
	ContentType         ContentType `json:"content_type"`
	Issues              []string    `json:"issues"`
	ComplexityScore     int         `json:"complexity_score"`
	RecommendedStrategy Strategy    `json:"recommended_strategy"`
	Language            string      `json:"language,omitempty"`
}
