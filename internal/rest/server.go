package rest

import (
	"context"
	"net/http"

	"github.com/klauspost/compress/gzhttp"
	"github.com/openkeyhub/governance/internal/governance"
	"github.com/openkeyhub/governance/internal/redis"
	"github.com/openkeyhub/governance/internal/rest/handler"
	"github.com/openkeyhub/governance/internal/rest/middleware/auth"
	"github.com/openkeyhub/governance/internal/rest/middleware/ratelimit"
	"github.com/openkeyhub/governance/internal/rest/middleware/requestlog"
	"github.com/openkeyhub/governance/internal/rest/response"
	"github.com/openkeyhub/governance/internal/setup/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

// Options holds the collaborators of the REST server.
type Options struct {
	Engine   *governance.Engine
	Cache    *redis.Cache                    // Optional stats cache
	Registry *prometheus.Registry            // Collects request metrics and backs /metrics
	Health   func(ctx context.Context) error // Optional dependency check for /healthz
	Config   *config.API
}

// Server implements the REST API service.
type Server struct {
	http.Handler

	proposalHandler   *handler.ProposalHandler
	delegationHandler *handler.DelegationHandler
	discussionHandler *handler.DiscussionHandler
	statsHandler      *handler.StatsHandler
	rateLimiter       *ratelimit.Middleware
	opts              Options
	logger            *zap.Logger
}

// NewServer creates the REST API server.
func NewServer(opts Options, logger *zap.Logger) (*Server, error) {
	logger = logger.Named("rest")

	authMiddleware, err := auth.New(opts.Config, logger)
	if err != nil {
		return nil, err
	}

	s := &Server{
		proposalHandler:   handler.NewProposalHandler(opts.Engine, opts.Config.MaxBodyBytes, logger),
		delegationHandler: handler.NewDelegationHandler(opts.Engine, opts.Config.MaxBodyBytes, logger),
		discussionHandler: handler.NewDiscussionHandler(opts.Engine, opts.Config.MaxBodyBytes, logger),
		statsHandler:      handler.NewStatsHandler(opts.Engine, opts.Cache, opts.Config.StatsCacheTTL, logger),
		rateLimiter:       ratelimit.New(opts.Config, logger),
		opts:              opts,
		logger:            logger,
	}

	requestLog := requestlog.New(opts.Registry, opts.Config.RequestTimeout, logger)

	router := bunrouter.New()

	router.GET("/healthz", s.health)
	router.GET("/metrics", bunrouter.HTTPHandler(promhttp.HandlerFor(opts.Registry, promhttp.HandlerOpts{})))

	router.Use(
		requestLog.AsRESTMiddleware,
		authMiddleware.Authenticate,
		s.rateLimiter.AsRESTMiddleware,
	).WithGroup("/v1", func(g *bunrouter.Group) {
		g.GET("/proposals", s.proposalHandler.ListProposals)
		g.GET("/proposals/:id", s.proposalHandler.GetProposal)
		g.GET("/proposals/:id/chart", s.proposalHandler.GetChart)
		g.GET("/proposals/:id/posts", s.discussionHandler.ListPosts)
		g.GET("/delegations", s.delegationHandler.ListDelegations)
		g.GET("/stats", s.statsHandler.GetVotingStats)
		g.GET("/tokens/:principal", s.statsHandler.GetTokenInfo)
		g.GET("/config", s.statsHandler.GetConfig)

		g.Use(authMiddleware.RequirePrincipal).WithGroup("", func(g *bunrouter.Group) {
			g.POST("/proposals", s.proposalHandler.CreateProposal)
			g.POST("/proposals/:id/votes", s.proposalHandler.CastVote)
			g.POST("/proposals/:id/execute", s.proposalHandler.ExecuteProposal)
			g.POST("/proposals/:id/cancel", s.proposalHandler.CancelProposal)
			g.POST("/proposals/:id/posts", s.discussionHandler.AddPost)
			g.POST("/proposals/:id/posts/:postID/reactions", s.discussionHandler.ToggleReaction)
			g.POST("/delegations", s.delegationHandler.DelegateVote)
			g.DELETE("/delegations/:scope", s.delegationHandler.RevokeDelegation)
		})
	})

	s.Handler = gzhttp.GzipHandler(router)
	return s, nil
}

// Close releases background resources held by the middlewares.
func (s *Server) Close() {
	s.rateLimiter.Close()
}

type healthResponse struct {
	Status        string `json:"status"`
	ConfigVersion int64  `json:"configVersion"`
}

func (s *Server) health(w http.ResponseWriter, req bunrouter.Request) error {
	if s.opts.Health != nil {
		if err := s.opts.Health(req.Context()); err != nil {
			s.logger.Warn("Health check failed", zap.Error(err))
			return response.Problem(w, http.StatusServiceUnavailable, "unavailable", "dependency check failed")
		}
	}

	return response.JSON(w, http.StatusOK, healthResponse{
		Status:        "ok",
		ConfigVersion: s.opts.Engine.Config().Version,
	})
}
