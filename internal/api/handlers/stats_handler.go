package handlers

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/avelez/shopadmin-be/internal/services"
)

// StatsHandler serves the aggregate dashboard statistics.
type StatsHandler struct {
	service services.ProductServiceProvider
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(service services.ProductServiceProvider) *StatsHandler {
	return &StatsHandler{service: service}
}

// Get returns catalog totals and the per-category breakdown.
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.GetStats()
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch statistics")
		respondError(w, http.StatusInternalServerError, "Failed to fetch statistics")
		return
	}
	respondData(w, http.StatusOK, stats)
}
