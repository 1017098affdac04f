// Package api serves the town over HTTP.
// GET endpoints are public (read-only observation).
// Mutating endpoints that carry supervisor authority require a bearer token.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/talgya/guildgrid/internal/engine"
	"github.com/talgya/guildgrid/internal/insight"
)

// Server serves the town state and lifecycle operations.
type Server struct {
	Service *engine.Service
	Insight *insight.Client
	Port    int

	// AdminKey is the bearer token for supervisor endpoints. Empty disables
	// them.
	AdminKey string

	// CORSOrigins extends the allow-list beyond localhost dev servers.
	CORSOrigins []string
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	insightLimiter := NewRateLimiter(30, time.Hour)

	mux := http.NewServeMux()

	// Read side: anyone in the team can watch the town.
	mux.HandleFunc("GET /api/v1/town", s.handleTown)
	mux.HandleFunc("GET /api/v1/sprint", s.handleSprint)
	mux.HandleFunc("GET /api/v1/players", s.handlePlayers)
	mux.HandleFunc("GET /api/v1/players/{id}", s.handlePlayerStats)
	mux.HandleFunc("GET /api/v1/squads", s.handleSquads)
	mux.HandleFunc("GET /api/v1/squads/{id}", s.handleSquadStats)
	mux.HandleFunc("GET /api/v1/buildings/{id}/stats", s.handleBuildingStats)
	mux.HandleFunc("GET /api/v1/buildings/{id}/board", s.handleBoard)
	mux.HandleFunc("GET /api/v1/buildings/{bid}/tasks/{tid}", s.handleTaskDetail)
	mux.HandleFunc("GET /api/v1/market/items", s.handleMarketItems)
	mux.HandleFunc("GET /api/v1/market/purchases", s.handlePurchases)

	mux.HandleFunc("POST /api/v1/login", s.handleLogin)
	mux.HandleFunc("POST /api/v1/estimate", s.handleEstimate)

	// Town editing and the task lifecycle.
	mux.HandleFunc("POST /api/v1/buildings", s.handlePlaceBuilding)
	mux.HandleFunc("POST /api/v1/buildings/{id}/move", s.handleMoveBuilding)
	mux.HandleFunc("POST /api/v1/buildings/{id}/upgrade", s.handleUpgradeBuilding)
	mux.HandleFunc("DELETE /api/v1/buildings/{id}", s.adminOnly(s.handleDemolishBuilding))
	mux.HandleFunc("POST /api/v1/buildings/{id}/tasks", s.handleCreateTask)
	mux.HandleFunc("PATCH /api/v1/buildings/{bid}/tasks/{tid}", s.handleUpdateTask)
	mux.HandleFunc("POST /api/v1/buildings/{bid}/tasks/{tid}/move", s.handleMoveTask)
	mux.HandleFunc("DELETE /api/v1/buildings/{bid}/tasks/{tid}", s.adminOnly(s.handleDeleteTask))

	// Supervisor authority: grading, renewal, sprint, market validation.
	mux.HandleFunc("POST /api/v1/buildings/{bid}/tasks/{tid}/settle", s.adminOnly(s.handleSettle))
	mux.HandleFunc("POST /api/v1/buildings/{bid}/tasks/{tid}/renewal", s.adminOnly(s.handleRenewal))
	mux.HandleFunc("POST /api/v1/sprint/advance", s.adminOnly(s.handleAdvanceSprint))
	mux.HandleFunc("POST /api/v1/market/items", s.adminOnly(s.handleUpsertItem))
	mux.HandleFunc("POST /api/v1/market/purchase", s.handlePurchase)
	mux.HandleFunc("POST /api/v1/market/purchases/{id}/validate", s.adminOnly(s.handleValidatePurchase))
	mux.HandleFunc("POST /api/v1/market/purchases/{id}/cancel", s.adminOnly(s.handleCancelPurchase))

	// AI insight endpoints spend LLM budget; keep them rate limited.
	mux.HandleFunc("POST /api/v1/insight/daily", rateLimit(insightLimiter, s.handleInsightDaily))
	mux.HandleFunc("POST /api/v1/insight/feedback", rateLimit(insightLimiter, s.handleInsightFeedback))

	addr := fmt.Sprintf(":%d", s.Port)
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "")

	go func() {
		handler := s.corsMiddleware(mux)
		if err := http.ListenAndServe(addr, handler); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Localhost dev servers are always allowed.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:4173": true,
		"http://localhost:3000": true,
	}
	for _, origin := range s.CORSOrigins {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			allowedOrigins[origin] = true
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// checkBearerToken returns true if the request has a valid admin bearer token.
func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

// adminOnly wraps a handler to require bearer token auth.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.AdminKey == "" {
			http.Error(w, "supervisor endpoints disabled (no GUILDGRID_ADMIN_KEY set)", http.StatusForbidden)
			return
		}
		if !s.checkBearerToken(r) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}

func readJSON(w http.ResponseWriter, r *http.Request, dest any) bool {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return false
	}
	return true
}

// writeDomainError maps the engine's error taxonomy onto HTTP status codes.
func writeDomainError(w http.ResponseWriter, err error) {
	var (
		capErr   *engine.CapacityError
		stateErr *engine.StateError
		valErr   *engine.ValidationError
		nfErr    *engine.NotFoundError
	)
	switch {
	case errors.As(err, &nfErr):
		http.Error(w, nfErr.Error(), http.StatusNotFound)
	case errors.As(err, &capErr):
		http.Error(w, capErr.Error(), http.StatusConflict)
	case errors.As(err, &stateErr):
		http.Error(w, stateErr.Error(), http.StatusConflict)
	case errors.As(err, &valErr):
		http.Error(w, valErr.Error(), http.StatusBadRequest)
	default:
		slog.Error("request failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
