package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"telegram-shop-bot/internal/domain"
	"telegram-shop-bot/internal/domain/model"
	"telegram-shop-bot/internal/infra/logging"

	"github.com/go-chi/chi/v5"
)

type tokenRequest struct {
	APIKey string `json:"api_key"`
}

type tokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type broadcastRequest struct {
	ChatIDs []int64 `json:"chat_ids"`
	Text    string  `json:"text"`
}

type tierRequest struct {
	MinQuantity    int   `json:"min_quantity"`
	MaxQuantity    *int  `json:"max_quantity"`
	UnitPriceMinor int64 `json:"unit_price_minor"`
}

type commandRequest struct {
	Command  string `json:"command"`
	Response string `json:"response"`
}

type commandResponse struct {
	Slot     int    `json:"slot"`
	Command  string `json:"command"`
	Response string `json:"response"`
}

type tierResponse struct {
	ID             string    `json:"id"`
	ProductID      string    `json:"product_id"`
	MinQuantity    int       `json:"min_quantity"`
	MaxQuantity    *int      `json:"max_quantity"`
	UnitPriceMinor int64     `json:"unit_price_minor"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func toTierResponse(t *model.PricingTier) tierResponse {
	return tierResponse{
		ID:             t.ID,
		ProductID:      t.ProductID,
		MinQuantity:    t.MinQuantity,
		MaxQuantity:    t.MaxQuantity,
		UnitPriceMinor: t.UnitPriceMinor,
		UpdatedAt:      t.UpdatedAt,
	}
}

// handleToken exchanges the API key (X-API-Key header or JSON body) for a JWT.
func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	key := r.Header.Get("X-API-Key")
	if key == "" {
		var req tokenRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
			key = req.APIKey
		}
	}
	if !s.validAPIKey(key) {
		writeError(w, http.StatusUnauthorized, "invalid api key")
		return
	}
	tok, exp, err := s.auth.Mint()
	if err != nil {
		logging.With(r.Context(), s.log).Error().Err(err).Msg("failed to mint token")
		writeError(w, http.StatusInternalServerError, "failed to mint token")
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Token: tok, ExpiresAt: exp})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	ready := s.engine != nil && s.engine.Ready()
	engine := "detached"
	if s.engine != nil {
		engine = "attached"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"engine":  engine,
		"ready":   ready,
		"version": s.cfg.Version,
		"uptime":  time.Since(s.started).Round(time.Second).String(),
	})
}

func (s *Server) handleBroadcast(w http.ResponseWriter, r *http.Request) {
	var req broadcastRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	n, err := s.broadcast.BroadcastMessage(r.Context(), req.ChatIDs, req.Text)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]int{"queued": n})
}

func (s *Server) handleListTiers(w http.ResponseWriter, r *http.Request) {
	tiers, err := s.pricing.ListTiers(r.Context(), chi.URLParam(r, "id"))
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		s.writeDomainError(w, r, err)
		return
	}
	out := make([]tierResponse, 0, len(tiers))
	for _, t := range tiers {
		out = append(out, toTierResponse(t))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateTier(w http.ResponseWriter, r *http.Request) {
	var req tierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	t, err := s.pricing.CreateTier(r.Context(), chi.URLParam(r, "id"), req.MinQuantity, req.MaxQuantity, req.UnitPriceMinor)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTierResponse(t))
}

func (s *Server) handleUpdateTier(w http.ResponseWriter, r *http.Request) {
	var req tierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	t, err := s.pricing.UpdateTier(r.Context(), chi.URLParam(r, "id"), req.MinQuantity, req.MaxQuantity, req.UnitPriceMinor)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTierResponse(t))
}

func (s *Server) handleDeleteTier(w http.ResponseWriter, r *http.Request) {
	if err := s.pricing.DeleteTier(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSaveCommand configures one custom text command slot.
func (s *Server) handleSaveCommand(w http.ResponseWriter, r *http.Request) {
	slot, err := strconv.Atoi(chi.URLParam(r, "slot"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid slot")
		return
	}
	var req commandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	cmd := model.CustomCommand{Slot: slot, Command: strings.TrimSpace(req.Command), Response: req.Response}
	if err := s.settings.SaveCustomCommand(r.Context(), cmd); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, commandResponse{Slot: cmd.Slot, Command: cmd.Command, Response: cmd.Response})
}

func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrTierOverlap), errors.Is(err, domain.ErrAlreadyExists):
		writeError(w, http.StatusConflict, err.Error())
	default:
		logging.With(r.Context(), s.log).Error().Err(err).Str("path", r.URL.Path).Msg("admin request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": strings.TrimSpace(msg)})
}
