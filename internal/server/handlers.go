package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/amitpo23/medici-pricing/internal/domain"
	"github.com/amitpo23/medici-pricing/internal/opportunity"
	"github.com/amitpo23/medici-pricing/internal/rules"
)

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	cpuPct, memPct := s.hostStats()

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":           "healthy",
		"service":          "medici-pricing",
		"goroutines":       runtime.NumGoroutine(),
		"alloc_mb":         m.Alloc / 1024 / 1024,
		"cpu_percent":      cpuPct,
		"host_mem_percent": memPct,
	})
}

// hostStats samples host CPU and memory usage. A 100ms CPU window keeps
// the health endpoint responsive; probe failures read as zero.
func (s *Server) hostStats() (float64, float64) {
	cpuPct, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPct = []float64{0}
	}
	cpuAvg := 0.0
	if len(cpuPct) > 0 {
		cpuAvg = cpuPct[0]
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return cpuAvg, 0
	}
	return cpuAvg, memStat.UsedPercent
}

// priceRequest addresses an item either by id or inline
type priceRequest struct {
	ItemID      string    `json:"item_id"`
	SupplierRef string    `json:"supplier_ref"`
	CheckIn     time.Time `json:"check_in"`
	CheckOut    time.Time `json:"check_out"`
	BuyPrice    float64   `json:"buy_price"`
	SellPrice   float64   `json:"sell_price"`
	Strategy    string    `json:"strategy"`
}

func (s *Server) resolveItem(r *http.Request, req priceRequest) (*domain.InventoryItem, error) {
	if req.ItemID != "" {
		return s.inventory.Get(r.Context(), req.ItemID)
	}
	return &domain.InventoryItem{
		SupplierRef: req.SupplierRef,
		CheckIn:     req.CheckIn,
		CheckOut:    req.CheckOut,
		BuyPrice:    req.BuyPrice,
		SellPrice:   req.SellPrice,
	}, nil
}

// handleCalculatePrice computes one recommendation
func (s *Server) handleCalculatePrice(w http.ResponseWriter, r *http.Request) {
	var req priceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := s.resolveItem(r, req)
	if errors.Is(err, domain.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "item not found")
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	rec, err := s.pricer.Recommend(r.Context(), item, domain.ParseStrategy(req.Strategy))
	if err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, rec)
}

// handleCompareStrategies prices one item under every strategy
func (s *Server) handleCompareStrategies(w http.ResponseWriter, r *http.Request) {
	var req priceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := s.resolveItem(r, req)
	if errors.Is(err, domain.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "item not found")
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	recs, err := s.pricer.CompareStrategies(r.Context(), item)
	if err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{"recommendations": recs})
}

// opportunityBatchRequest carries raw candidates plus batch options
type opportunityBatchRequest struct {
	Candidates           []opportunity.Candidate `json:"candidates"`
	MaxCreate            int                     `json:"max_create"`
	ActivationConfidence float64                 `json:"activation_confidence"`
	Tolerance            string                  `json:"tolerance"`
}

// handleOpportunityBatch scores and creates a batch of candidates
func (s *Server) handleOpportunityBatch(w http.ResponseWriter, r *http.Request) {
	var req opportunityBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Candidates) == 0 {
		s.writeError(w, http.StatusBadRequest, "no candidates")
		return
	}

	result, err := s.scorer.CreateBatch(r.Context(), req.Candidates, opportunity.BatchOptions{
		MaxCreate:            req.MaxCreate,
		ActivationConfidence: req.ActivationConfidence,
		Tolerance:            domain.RiskTolerance(req.Tolerance),
	})
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

// handleListRules reports every rule with its toggle state
func (s *Server) handleListRules(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"rules": s.rules.Rules()})
}

// handleToggleRule enables or disables one rule
func (s *Server) handleToggleRule(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Enabled bool `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id := rules.RuleID(chi.URLParam(r, "ruleID"))
	if !s.rules.SetRuleEnabled(id, req.Enabled) {
		s.writeError(w, http.StatusNotFound, "unknown rule")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"rule":    id,
		"enabled": req.Enabled,
	})
}

// handleDecisionHistory returns recent rule decision outcomes
func (s *Server) handleDecisionHistory(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 100)
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"decisions": s.rules.History(limit),
	})
}

// handleProcessItem runs the rule set against one item
func (s *Server) handleProcessItem(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemID")

	outcomes, err := s.rules.ProcessItem(r.Context(), itemID)
	if errors.Is(err, domain.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "item not found")
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"item_id":  itemID,
		"outcomes": outcomes,
	})
}

// handleProcessBatch runs the rule set against many items
func (s *Server) handleProcessBatch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ItemIDs []string `json:"item_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.ItemIDs) == 0 {
		s.writeError(w, http.StatusBadRequest, "no item ids")
		return
	}

	summary, err := s.rules.ProcessBatch(r.Context(), req.ItemIDs)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, summary)
}

// handleOptimizeNow triggers an ad-hoc optimization pass
func (s *Server) handleOptimizeNow(w http.ResponseWriter, r *http.Request) {
	summary, err := s.worker.RunOnce(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, summary)
}

// handleGetItem returns one inventory item
func (s *Server) handleGetItem(w http.ResponseWriter, r *http.Request) {
	item, err := s.inventory.Get(r.Context(), chi.URLParam(r, "itemID"))
	if errors.Is(err, domain.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "item not found")
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, item)
}

// handleListAudit returns recent audit entries, optionally by kind
// (price_update, price_suggestion, decision, status_change)
func (s *Server) handleListAudit(w http.ResponseWriter, r *http.Request) {
	kind := r.URL.Query().Get("kind")
	limit := queryInt(r, "limit", 100)

	entries, err := s.inventory.ListAudit(r.Context(), kind, limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{"entries": entries})
}

func queryInt(r *http.Request, key string, fallback int) int {
	if raw := r.URL.Query().Get(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			return v
		}
	}
	return fallback
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError writes an error response
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{
		"error": message,
	})
}
