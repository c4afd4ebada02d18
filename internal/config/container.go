package config

import (
	"os"
	"time"

	"pdf-epub-converter/internal/analyzer"
	"pdf-epub-converter/internal/cache"
	"pdf-epub-converter/internal/domain"
	"pdf-epub-converter/internal/engine"
	"pdf-epub-converter/internal/ocr"
	"pdf-epub-converter/internal/orchestrator"
	"pdf-epub-converter/internal/pdf"
	"pdf-epub-converter/internal/planner"
	"pdf-epub-converter/internal/repository"
	"pdf-epub-converter/internal/service"
	"pdf-epub-converter/internal/tables"
	"pdf-epub-converter/pkg/logger"
)

// Container holds all application dependencies
type Container struct {
	Config            domain.Config
	Logger            domain.Logger
	TaskRepository    domain.TaskRepository
	Analyzer          domain.Analyzer
	Planner           domain.Planner
	Cache             domain.Cache
	Orchestrator      *orchestrator.TaskOrchestrator
	ConversionService *service.ConversionService
}

// NewContainer creates a new dependency injection container
func NewContainer() *Container {
	config := NewConfig()
	appLogger := logger.NewLogger(config.GetLogLevel())

	opener := pdf.NewOpener()
	images := pdf.NewExtractor()

	docAnalyzer := analyzer.New(opener, images, appLogger)
	strategyPlanner := planner.New()

	conversionCache, err := cache.New(
		config.GetCacheDir(),
		time.Duration(config.GetCacheTTLSeconds())*time.Second,
		appLogger,
	)
	if err != nil {
		appLogger.Error("Failed to initialize conversion cache", err, "dir", config.GetCacheDir())
		os.Exit(1)
	}

	ocrEngine := ocr.NewTesseract(
		config.GetOCRBinary(),
		time.Duration(config.GetOCRTimeoutSeconds())*time.Second,
		appLogger,
	)

	registry := engine.NewRegistry(
		engine.NewFast(opener, appLogger),
		engine.NewBalanced(opener, images, appLogger),
		engine.NewQuality(opener, images, ocrEngine, appLogger),
		appLogger,
	)

	tableExtractor := tables.New(opener, appLogger)

	// Supabase persistence is optional; without credentials the in-memory
	// store serves task records.
	taskRepo := newTaskRepository(config, appLogger)

	taskOrchestrator := orchestrator.New(
		docAnalyzer,
		strategyPlanner,
		registry,
		conversionCache,
		tableExtractor,
		opener,
		taskRepo,
		appLogger,
		config.GetResultsPath(),
		config.GetMaxRetries(),
	)

	validator := service.NewFileValidator(config.GetMaxFileSize(), appLogger)

	conversionService := service.NewConversionService(
		docAnalyzer,
		strategyPlanner,
		taskOrchestrator,
		taskRepo,
		validator,
		appLogger,
		config.GetUploadPath(),
		config.GetMaxWorkers(),
	)

	return &Container{
		Config:            config,
		Logger:            appLogger,
		TaskRepository:    taskRepo,
		Analyzer:          docAnalyzer,
		Planner:           strategyPlanner,
		Cache:             conversionCache,
		Orchestrator:      taskOrchestrator,
		ConversionService: conversionService,
	}
}

func newTaskRepository(config domain.Config, appLogger domain.Logger) domain.TaskRepository {
	if config.GetSupabaseURL() == "" || config.GetSupabaseKey() == "" {
		appLogger.Info("Supabase not configured, using in-memory task store")
		return repository.NewMemoryTaskRepository(appLogger)
	}

	client := repository.NewSupabaseClient(config, appLogger)
	if err := client.Initialize(); err != nil {
		appLogger.Error("Failed to initialize Supabase, using in-memory task store", err)
		return repository.NewMemoryTaskRepository(appLogger)
	}
	return repository.NewSupabaseTaskRepository(client, appLogger)
}

// GetConfig returns the configuration instance
func (c *Container) GetConfig() domain.Config {
	return c.Config
}

// GetLogger returns the logger instance
func (c *Container) GetLogger() domain.Logger {
	return c.Logger
}

// GetTaskRepository returns the task repository instance
func (c *Container) GetTaskRepository() domain.TaskRepository {
	return c.TaskRepository
}

// GetConversionService returns the conversion service instance
func (c *Container) GetConversionService() *service.ConversionService {
	return c.ConversionService
}
