package config

import (
	"os"
	"runtime"
	"strconv"

	"pdf-epub-converter/internal/domain"
)

// AppConfig implements the domain.Config interface
type AppConfig struct {
	ServerPort        string
	UploadPath        string
	ResultsPath       string
	CacheDir          string
	CacheTTLSeconds   int
	MaxFileSize       int64
	LogLevel          string
	SupabaseURL       string
	SupabaseKey       string
	OCRBinary         string
	OCRTimeoutSeconds int
	MaxWorkers        int
	MaxRetries        int
}

// NewConfig creates a new configuration instance with default values
func NewConfig() domain.Config {
	return &AppConfig{
		// Cloud Run (and many PaaS) provide the listening port via PORT.
		// Keep SERVER_PORT for local/dev compatibility.
		ServerPort:        getEnvOrDefault("PORT", getEnvOrDefault("SERVER_PORT", "8080")),
		UploadPath:        getEnvOrDefault("UPLOAD_PATH", "./uploads"),
		ResultsPath:       getEnvOrDefault("RESULTS_PATH", "./results"),
		CacheDir:          getEnvOrDefault("CACHE_DIR", "./cache"),
		CacheTTLSeconds:   getEnvIntOrDefault("CACHE_TTL_SECONDS", 3600),
		MaxFileSize:       getEnvInt64OrDefault("MAX_FILE_SIZE", 50*1024*1024), // 50MB default
		LogLevel:          getEnvOrDefault("LOG_LEVEL", "info"),
		SupabaseURL:       getEnvOrDefault("SUPABASE_URL", ""),
		SupabaseKey:       getEnvOrDefault("SUPABASE_ANON_KEY", ""),
		OCRBinary:         getEnvOrDefault("OCR_BINARY", "tesseract"),
		OCRTimeoutSeconds: getEnvIntOrDefault("OCR_TIMEOUT_SECONDS", 120),
		MaxWorkers:        getEnvIntOrDefault("MAX_WORKERS", runtime.NumCPU()),
		MaxRetries:        getEnvIntOrDefault("MAX_RETRIES", 3),
	}
}

// GetServerPort returns the server port
func (c *AppConfig) GetServerPort() string {
	return c.ServerPort
}

// GetUploadPath returns the upload directory path
func (c *AppConfig) GetUploadPath() string {
	return c.UploadPath
}

// GetResultsPath returns the directory converted files are written to
func (c *AppConfig) GetResultsPath() string {
	return c.ResultsPath
}

// GetCacheDir returns the conversion cache directory
func (c *AppConfig) GetCacheDir() string {
	return c.CacheDir
}

// GetCacheTTLSeconds returns the cache entry expiry window
func (c *AppConfig) GetCacheTTLSeconds() int {
	return c.CacheTTLSeconds
}

// GetMaxFileSize returns the maximum allowed file size
func (c *AppConfig) GetMaxFileSize() int64 {
	return c.MaxFileSize
}

// GetLogLevel returns the logging level
func (c *AppConfig) GetLogLevel() string {
	return c.LogLevel
}

// GetSupabaseURL returns the Supabase URL
func (c *AppConfig) GetSupabaseURL() string {
	return c.SupabaseURL
}

// GetSupabaseKey returns the Supabase anon key
func (c *AppConfig) GetSupabaseKey() string {
	return c.SupabaseKey
}

// GetOCRBinary returns the OCR executable name or path
func (c *AppConfig) GetOCRBinary() string {
	return c.OCRBinary
}

// GetOCRTimeoutSeconds returns the per-invocation OCR timeout
func (c *AppConfig) GetOCRTimeoutSeconds() int {
	return c.OCRTimeoutSeconds
}

// GetMaxWorkers returns the balanced engine worker pool size
func (c *AppConfig) GetMaxWorkers() int {
	return c.MaxWorkers
}

// GetMaxRetries returns the orchestrator retry budget
func (c *AppConfig) GetMaxRetries() int {
	return c.MaxRetries
}

// Helper functions for environment variable handling
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64OrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}
