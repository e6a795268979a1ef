package handler

import (
	"net/http"

	"github.com/openkeyhub/governance/internal/governance"
	"github.com/openkeyhub/governance/internal/rest/convert"
	"github.com/openkeyhub/governance/internal/rest/middleware/auth"
	"github.com/openkeyhub/governance/internal/rest/response"
	restTypes "github.com/openkeyhub/governance/internal/rest/types"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

// DiscussionHandler handles discussion thread endpoints.
type DiscussionHandler struct {
	engine   *governance.Engine
	maxBytes int64
	logger   *zap.Logger
}

// NewDiscussionHandler creates a new discussion handler.
func NewDiscussionHandler(engine *governance.Engine, maxBytes int64, logger *zap.Logger) *DiscussionHandler {
	return &DiscussionHandler{
		engine:   engine,
		maxBytes: maxBytes,
		logger:   logger,
	}
}

// AddPost handles POST /v1/proposals/:id/posts.
func (h *DiscussionHandler) AddPost(w http.ResponseWriter, req bunrouter.Request) error {
	var body restTypes.CreatePostRequest
	if err := decodeBody(w, req, h.maxBytes, &body); err != nil {
		return response.Error(w, h.logger, err)
	}

	post, err := h.engine.AddDiscussionPost(
		req.Context(), req.Param("id"), auth.Principal(req.Context()), body.Content, body.ParentID)
	if err != nil {
		return response.Error(w, h.logger, err)
	}
	return response.JSON(w, http.StatusCreated, convert.DiscussionPost(post))
}

// ListPosts handles GET /v1/proposals/:id/posts.
func (h *DiscussionHandler) ListPosts(w http.ResponseWriter, req bunrouter.Request) error {
	posts, err := h.engine.ListDiscussion(req.Context(), req.Param("id"))
	if err != nil {
		return response.Error(w, h.logger, err)
	}
	return response.JSON(w, http.StatusOK, convert.DiscussionPosts(posts))
}

// ToggleReaction handles POST /v1/proposals/:id/posts/:postID/reactions.
func (h *DiscussionHandler) ToggleReaction(w http.ResponseWriter, req bunrouter.Request) error {
	var body restTypes.ReactionRequest
	if err := decodeBody(w, req, h.maxBytes, &body); err != nil {
		return response.Error(w, h.logger, err)
	}

	post, err := h.engine.ToggleReaction(
		req.Context(), req.Param("id"), req.Param("postID"), auth.Principal(req.Context()), body.Emoji)
	if err != nil {
		return response.Error(w, h.logger, err)
	}
	return response.JSON(w, http.StatusOK, convert.DiscussionPost(post))
}
