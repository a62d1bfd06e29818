package api

import (
	"net/http"

	"github.com/okian/pooldraft/internal/domain/types"
)

// StatsProvider reports the service's monitoring snapshot.
type StatsProvider interface {
	Stats() types.ServiceStats
}

// StatsHandler serves GET /stats.
type StatsHandler struct {
	provider StatsProvider
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(provider StatsProvider) *StatsHandler {
	return &StatsHandler{provider: provider}
}

// HandleStats writes the current snapshot.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.provider.Stats())
}
