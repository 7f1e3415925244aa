package api

import (
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRoutes configures all API routes
func SetupRoutes(handler *Handler) *mux.Router {
	r := mux.NewRouter()

	// Health check and metrics
	r.HandleFunc("/health", handler.HealthCheck).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// Portfolio routes
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(MetricsMiddleware)
	api.HandleFunc("/users/{user_id}/valuation", handler.GetValuation).Methods("GET")
	api.HandleFunc("/users/{user_id}/positions", handler.GetPositions).Methods("GET")
	api.HandleFunc("/users/{user_id}/networth/snapshot", handler.RecordSnapshot).Methods("POST")
	api.HandleFunc("/users/{user_id}/networth/history", handler.GetHistory).Methods("GET")

	return r
}
