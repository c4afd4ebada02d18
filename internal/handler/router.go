package handler

import (
	"net/http"

	"pdf-epub-converter/internal/config"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

// NewRouter creates a new HTTP router with all routes configured
func NewRouter(container *config.Container) http.Handler {
	router := mux.NewRouter()

	// API prefix
	api := router.PathPrefix("/api/v1").Subrouter()

	// Health check endpoint
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","service":"pdf-epub-converter"}`))
	}).Methods("GET")

	// Initialize handlers
	conversionHandler := NewConversionHandler(
		container.GetConversionService(),
		container.GetLogger(),
		container.GetConfig().GetMaxFileSize(),
	)

	api.Use(LoggingMiddleware(container.GetLogger()))

	// Conversion routes
	api.HandleFunc("/analyze", conversionHandler.Analyze).Methods("POST")
	api.HandleFunc("/convert", conversionHandler.Convert).Methods("POST")
	api.HandleFunc("/status/{id}", conversionHandler.Status).Methods("GET")
	api.HandleFunc("/history", conversionHandler.History).Methods("GET")
	api.HandleFunc("/download/{id}", conversionHandler.Download).Methods("GET")

	// Configure CORS
	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Accept",
			"Content-Type",
		},
		MaxAge: 300,
	})

	return c.Handler(router)
}
