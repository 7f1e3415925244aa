package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/vralytics/portfolio-service/internal/database"
	"github.com/vralytics/portfolio-service/internal/portfolio"
	"github.com/vralytics/portfolio-service/internal/redis"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	service *portfolio.Service
	db      *database.DB
	redis   *redis.Client
}

// NewHandler creates a new Handler
func NewHandler(service *portfolio.Service, db *database.DB, redisClient *redis.Client) *Handler {
	return &Handler{
		service: service,
		db:      db,
		redis:   redisClient,
	}
}

// GetValuation handles GET /api/v1/users/{user_id}/valuation
func (h *Handler) GetValuation(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	userID := vars["user_id"]

	snapshot, err := h.service.Valuation(r.Context(), userID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, snapshot)
}

// RecordSnapshot handles POST /api/v1/users/{user_id}/networth/snapshot
//
// The observation date is the server's local calendar date at the time of
// the call. Repeating the call on the same day overwrites that day's row.
func (h *Handler) RecordSnapshot(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	userID := vars["user_id"]

	obs, err := h.service.RecordSnapshot(r.Context(), userID, time.Now())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	snapshotsRecorded.Inc()
	respondJSON(w, http.StatusCreated, obs)
}

// GetHistory handles GET /api/v1/users/{user_id}/networth/history?days=N
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	userID := vars["user_id"]

	days := portfolio.DefaultHistoryDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			http.Error(w, "days must be a positive integer", http.StatusBadRequest)
			return
		}
		days = parsed
	}

	history := h.service.History(userID, days)
	respondJSON(w, http.StatusOK, history)
}

// GetPositions handles GET /api/v1/users/{user_id}/positions
func (h *Handler) GetPositions(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	userID := vars["user_id"]

	positions, err := h.service.Positions(userID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, positions)
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	health := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"services":  map[string]string{},
	}
	services := health["services"].(map[string]string)
	allHealthy := true

	// Check database
	if h.db != nil {
		if err := h.db.Ping(); err != nil {
			services["postgres"] = "unhealthy: " + err.Error()
			allHealthy = false
		} else {
			services["postgres"] = "healthy"
		}
	} else {
		services["postgres"] = "not configured"
		allHealthy = false
	}

	// Check Redis
	if h.redis != nil {
		if err := h.redis.Ping(ctx); err != nil {
			services["redis"] = "unhealthy: " + err.Error()
		} else {
			services["redis"] = "healthy"
		}
	} else {
		services["redis"] = "not configured"
	}

	if !allHealthy {
		health["status"] = "degraded"
	}

	respondJSON(w, http.StatusOK, health)
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
