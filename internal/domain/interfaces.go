package domain

import "context"

// Analyzer inspects a source PDF. It never fails: on internal error it
// returns a safe default analysis that routes the document to the most
// careful strategy.
type Analyzer interface {
	Analyze(path string) *DocumentAnalysis
}

// Planner maps an analysis to an executable pipeline plan, and can rank all
// candidate plans so callers may offer alternatives.
type Planner interface {
	Plan(analysis *DocumentAnalysis) PipelinePlan
	Rank(analysis *DocumentAnalysis) []PipelinePlan
}

// Engine is the common contract of the conversion strategies. Convert never
// propagates an error; failures come back inside the result.
type Engine interface {
	Convert(ctx context.Context, inputPath, outputPath string, analysis *DocumentAnalysis, meta Metadata) ConversionResult
}

// EmbeddedImage is one image resource extracted from a PDF page.
type EmbeddedImage struct {
	Index int
	Ext   string // "png", "jpeg", ...
	Data  []byte
}

// DocumentSource is an open handle on a source document. Implementations are
// not safe for concurrent use; workers open their own handle via the opener.
type DocumentSource interface {
	PageCount() int
	Text(page int) (string, error)
	RenderPNG(page int, scale float64) ([]byte, error)
	Metadata() map[string]string
	Close() error
}

// DocumentOpener opens a document handle for a filesystem path.
type DocumentOpener interface {
	Open(path string) (DocumentSource, error)
}

// ImageExtractor pulls embedded image resources out of a whole document,
// keyed by 1-indexed page number.
type ImageExtractor interface {
	ExtractImages(path string) (map[int][]EmbeddedImage, error)
}

// OCREngine recognizes text in a rasterized page image. The context bounds
// the external tool invocation.
type OCREngine interface {
	Recognize(ctx context.Context, image []byte, lang string) (string, error)
}

// TableExtractor produces per-page HTML table fragments for a document,
// keyed by 1-indexed page number.
type TableExtractor interface {
	ExtractTables(path string) (map[int][]string, error)
}

// Cache is the content-addressed artifact store shared by pipeline steps.
type Cache interface {
	Get(inputPath, step string) (string, bool)
	Set(inputPath, step, artifactPath string) (string, error)
}

// TaskRepository is the external task record store. Updates are keyed per
// task and must tolerate concurrent writers for different tasks.
type TaskRepository interface {
	Create(taskID, filename string) error
	Update(taskID string, update TaskUpdate) error
	Get(taskID string) (*TaskRecord, error)
	List(limit int) ([]*TaskRecord, error)
}

// Logger defines the interface for logging operations
type Logger interface {
	Info(msg string, fields ...interface{})
	Error(msg string, err error, fields ...interface{})
	Debug(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
}

// Config defines the interface for configuration management
type Config interface {
	GetServerPort() string
	GetUploadPath() string
	GetResultsPath() string
	GetCacheDir() string
	GetCacheTTLSeconds() int
	GetMaxFileSize() int64
	GetLogLevel() string
	GetSupabaseURL() string
	GetSupabaseKey() string
	GetOCRBinary() string
	GetOCRTimeoutSeconds() int
	GetMaxWorkers() int
	GetMaxRetries() int
}
