package api

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/talgya/guildgrid/internal/board"
	"github.com/talgya/guildgrid/internal/engine"
	"github.com/talgya/guildgrid/internal/insight"
	"github.com/talgya/guildgrid/internal/market"
	"github.com/talgya/guildgrid/internal/town"
)

func (s *Server) handleTown(w http.ResponseWriter, r *http.Request) {
	snap, err := s.Service.Snapshot(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, snap)
}

func (s *Server) handleSprint(w http.ResponseWriter, r *http.Request) {
	sprint, err := s.Service.CurrentSprint(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, sprint)
}

func (s *Server) handleAdvanceSprint(w http.ResponseWriter, r *http.Request) {
	sprint, err := s.Service.AdvanceSprint(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, sprint)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Document string `json:"document"`
	}
	if !readJSON(w, r, &req) {
		return
	}
	player, err := s.Service.Authenticate(r.Context(), req.Name, req.Document)
	if err != nil {
		var nf *engine.NotFoundError
		if errors.As(err, &nf) {
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
			return
		}
		writeDomainError(w, err)
		return
	}
	writeJSON(w, player)
}

func (s *Server) handlePlayers(w http.ResponseWriter, r *http.Request) {
	players, err := s.Service.Players(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, players)
}

func (s *Server) handlePlayerStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.Service.PlayerStats(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, stats)
}

func (s *Server) handleSquads(w http.ResponseWriter, r *http.Request) {
	squads, err := s.Service.Squads(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, squads)
}

func (s *Server) handleSquadStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.Service.SquadStats(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, stats)
}

func (s *Server) handleEstimate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Size           int     `json:"size"`
		Complexity     int     `json:"complexity"`
		RuleMultiplier float64 `json:"rule_multiplier"`
	}
	if !readJSON(w, r, &req) {
		return
	}
	if req.RuleMultiplier == 0 {
		req.RuleMultiplier = 1
	}
	est, err := engine.EstimatePoints(req.Size, req.Complexity, req.RuleMultiplier)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, est)
}

// ── Buildings ────────────────────────────────────────────────────────

func (s *Server) handlePlaceBuilding(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OwnerID string            `json:"owner_id"`
		SquadID string            `json:"squad_id"`
		Type    town.BuildingType `json:"type"`
		X       int               `json:"x"`
		Z       int               `json:"z"`
	}
	if !readJSON(w, r, &req) {
		return
	}
	b, err := s.Service.PlaceBuilding(r.Context(), req.OwnerID, req.SquadID, req.Type,
		town.Position{X: req.X, Z: req.Z})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, b)
}

func (s *Server) handleMoveBuilding(w http.ResponseWriter, r *http.Request) {
	var req struct {
		X int `json:"x"`
		Z int `json:"z"`
	}
	if !readJSON(w, r, &req) {
		return
	}
	b, err := s.Service.MoveBuilding(r.Context(), r.PathValue("id"), town.Position{X: req.X, Z: req.Z})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, b)
}

func (s *Server) handleUpgradeBuilding(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PayerID string `json:"payer_id"`
	}
	if !readJSON(w, r, &req) {
		return
	}
	b, err := s.Service.UpgradeBuilding(r.Context(), r.PathValue("id"), req.PayerID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, b)
}

func (s *Server) handleDemolishBuilding(w http.ResponseWriter, r *http.Request) {
	if err := s.Service.DemolishBuilding(r.Context(), r.PathValue("id")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleBuildingStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.Service.BuildingStats(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, stats)
}

func (s *Server) handleBoard(w http.ResponseWriter, r *http.Request) {
	columns, err := s.Service.Board(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, columns)
}

// ── Tasks ────────────────────────────────────────────────────────────

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var req engine.CreateTaskInput
	if !readJSON(w, r, &req) {
		return
	}
	req.BuildingID = r.PathValue("id")
	task, err := s.Service.CreateTask(r.Context(), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, task)
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	var req engine.UpdateTaskInput
	if !readJSON(w, r, &req) {
		return
	}
	task, err := s.Service.UpdateTask(r.Context(), r.PathValue("bid"), r.PathValue("tid"), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, task)
}

func (s *Server) handleMoveTask(w http.ResponseWriter, r *http.Request) {
	var req struct {
		To board.Status `json:"to"`
	}
	if !readJSON(w, r, &req) {
		return
	}
	task, err := s.Service.MoveTask(r.Context(), r.PathValue("bid"), r.PathValue("tid"), req.To)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, task)
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	if err := s.Service.DeleteTask(r.Context(), r.PathValue("bid"), r.PathValue("tid")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleTaskDetail(w http.ResponseWriter, r *http.Request) {
	task, err := s.Service.Task(r.Context(), r.PathValue("bid"), r.PathValue("tid"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, task)
}

func (s *Server) handleSettle(w http.ResponseWriter, r *http.Request) {
	var req engine.SettleInput
	if !readJSON(w, r, &req) {
		return
	}
	result, err := s.Service.Settle(r.Context(), r.PathValue("bid"), r.PathValue("tid"), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, result)
}

func (s *Server) handleRenewal(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Renew bool `json:"renew"`
	}
	if !readJSON(w, r, &req) {
		return
	}
	task, err := s.Service.ResolveRenewal(r.Context(), r.PathValue("bid"), r.PathValue("tid"), req.Renew)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, task)
}

// ── Market ───────────────────────────────────────────────────────────

func (s *Server) handleMarketItems(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("all") != "true"
	items, err := s.Service.MarketItems(r.Context(), activeOnly)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, items)
}

func (s *Server) handleUpsertItem(w http.ResponseWriter, r *http.Request) {
	var item market.Item
	if !readJSON(w, r, &item) {
		return
	}
	if item.Name == "" || item.Cost <= 0 {
		http.Error(w, "item needs a name and a positive cost", http.StatusBadRequest)
		return
	}
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if err := s.Service.UpsertMarketItem(r.Context(), &item); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, item)
}

func (s *Server) handlePurchase(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PlayerID string `json:"player_id"`
		ItemID   string `json:"item_id"`
	}
	if !readJSON(w, r, &req) {
		return
	}
	purchase, err := s.Service.PurchaseItem(r.Context(), req.PlayerID, req.ItemID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, purchase)
}

func (s *Server) handlePurchases(w http.ResponseWriter, r *http.Request) {
	purchases, err := s.Service.Purchases(r.Context(), r.URL.Query().Get("user"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, purchases)
}

func (s *Server) handleValidatePurchase(w http.ResponseWriter, r *http.Request) {
	purchase, err := s.Service.ValidatePurchase(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, purchase)
}

func (s *Server) handleCancelPurchase(w http.ResponseWriter, r *http.Request) {
	purchase, err := s.Service.CancelPurchase(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, purchase)
}

// ── Insight ──────────────────────────────────────────────────────────

func (s *Server) handleInsightDaily(w http.ResponseWriter, r *http.Request) {
	var entry insight.DailyEntry
	if !readJSON(w, r, &entry) {
		return
	}
	writeJSON(w, insight.AnalyzeDaily(s.Insight, entry))
}

func (s *Server) handleInsightFeedback(w http.ResponseWriter, r *http.Request) {
	var entry insight.FeedbackEntry
	if !readJSON(w, r, &entry) {
		return
	}
	writeJSON(w, insight.AnalyzeFeedback(s.Insight, entry))
}
