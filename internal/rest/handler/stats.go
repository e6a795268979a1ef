package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/openkeyhub/governance/internal/database/types"
	"github.com/openkeyhub/governance/internal/governance"
	"github.com/openkeyhub/governance/internal/redis"
	"github.com/openkeyhub/governance/internal/rest/convert"
	"github.com/openkeyhub/governance/internal/rest/response"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

// StatsHandler handles statistics, token and config endpoints.
type StatsHandler struct {
	engine *governance.Engine
	cache  *redis.Cache
	ttl    time.Duration
	logger *zap.Logger
}

// NewStatsHandler creates a new stats handler. A nil cache disables caching.
func NewStatsHandler(engine *governance.Engine, cache *redis.Cache, ttl time.Duration, logger *zap.Logger) *StatsHandler {
	return &StatsHandler{
		engine: engine,
		cache:  cache,
		ttl:    ttl,
		logger: logger,
	}
}

// GetVotingStats handles GET /v1/stats.
func (h *StatsHandler) GetVotingStats(w http.ResponseWriter, req bunrouter.Request) error {
	var (
		stats *types.VotingStats
		err   error
	)

	if h.cache != nil {
		stats, err = redis.GetOrLoad(req.Context(), h.cache, redis.VotingStatsKey, h.ttl,
			func(ctx context.Context) (*types.VotingStats, error) {
				return h.engine.GetVotingStats(ctx)
			})
	} else {
		stats, err = h.engine.GetVotingStats(req.Context())
	}
	if err != nil {
		return response.Error(w, h.logger, err)
	}

	return response.JSON(w, http.StatusOK, stats)
}

// GetTokenInfo handles GET /v1/tokens/:principal.
func (h *StatsHandler) GetTokenInfo(w http.ResponseWriter, req bunrouter.Request) error {
	info, err := h.engine.GetTokenInfo(req.Context(), req.Param("principal"))
	if err != nil {
		return response.Error(w, h.logger, err)
	}
	return response.JSON(w, http.StatusOK, convert.TokenInfo(info))
}

// GetConfig handles GET /v1/config.
func (h *StatsHandler) GetConfig(w http.ResponseWriter, _ bunrouter.Request) error {
	return response.JSON(w, http.StatusOK, convert.GovernanceConfig(h.engine.Config()))
}
