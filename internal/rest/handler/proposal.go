package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/openkeyhub/governance/internal/chart"
	"github.com/openkeyhub/governance/internal/database/types"
	"github.com/openkeyhub/governance/internal/database/types/enum"
	"github.com/openkeyhub/governance/internal/governance"
	"github.com/openkeyhub/governance/internal/rest/convert"
	"github.com/openkeyhub/governance/internal/rest/middleware/auth"
	"github.com/openkeyhub/governance/internal/rest/response"
	restTypes "github.com/openkeyhub/governance/internal/rest/types"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

// ProposalHandler handles proposal and voting endpoints.
type ProposalHandler struct {
	engine   *governance.Engine
	maxBytes int64
	logger   *zap.Logger
}

// NewProposalHandler creates a new proposal handler.
func NewProposalHandler(engine *governance.Engine, maxBytes int64, logger *zap.Logger) *ProposalHandler {
	return &ProposalHandler{
		engine:   engine,
		maxBytes: maxBytes,
		logger:   logger,
	}
}

// CreateProposal handles POST /v1/proposals.
func (h *ProposalHandler) CreateProposal(w http.ResponseWriter, req bunrouter.Request) error {
	var body restTypes.CreateProposalRequest
	if err := decodeBody(w, req, h.maxBytes, &body); err != nil {
		return response.Error(w, h.logger, err)
	}

	votingDuration, err := parseDuration("votingDuration", body.VotingDuration)
	if err != nil {
		return response.Error(w, h.logger, err)
	}

	request := governance.CreateProposalRequest{
		Proposer:       auth.Principal(req.Context()),
		Payload:        body.ProposalType.ProposalPayload,
		Title:          body.Title,
		Description:    body.Description,
		VotingDuration: votingDuration,
		StartsAt:       body.StartsAt,
	}

	if body.ExecutionDelay != nil {
		delay, err := parseDuration("executionDelay", *body.ExecutionDelay)
		if err != nil {
			return response.Error(w, h.logger, err)
		}
		request.ExecutionDelay = &delay
	}

	p, err := h.engine.CreateProposal(req.Context(), request)
	if err != nil {
		return response.Error(w, h.logger, err)
	}

	return response.JSON(w, http.StatusCreated, convert.Proposal(p))
}

// GetProposal handles GET /v1/proposals/:id.
func (h *ProposalHandler) GetProposal(w http.ResponseWriter, req bunrouter.Request) error {
	p, err := h.engine.GetProposal(req.Context(), req.Param("id"))
	if err != nil {
		return response.Error(w, h.logger, err)
	}
	return response.JSON(w, http.StatusOK, convert.Proposal(p))
}

// GetChart handles GET /v1/proposals/:id/chart.
// The image format comes from ?format=png|webp|svg, falling back to the Accept header.
func (h *ProposalHandler) GetChart(w http.ResponseWriter, req bunrouter.Request) error {
	format := chart.FormatPNG
	if name := req.URL.Query().Get("format"); name != "" {
		parsed, err := chart.ParseFormat(name)
		if err != nil {
			return response.Error(w, h.logger, fmt.Errorf("%w: %w", types.ErrInvalidInput, err))
		}
		format = parsed
	} else if strings.Contains(req.Header.Get("Accept"), "image/webp") {
		format = chart.FormatWebP
	}

	p, err := h.engine.GetProposal(req.Context(), req.Param("id"))
	if err != nil {
		return response.Error(w, h.logger, err)
	}

	buf, err := chart.RenderTally(p, format)
	if err != nil {
		return response.Error(w, h.logger, err)
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	_, err = buf.WriteTo(w)
	return err
}

// ListProposals handles GET /v1/proposals.
func (h *ProposalHandler) ListProposals(w http.ResponseWriter, req bunrouter.Request) error {
	filter, page, err := parseListQuery(req)
	if err != nil {
		return response.Error(w, h.logger, err)
	}

	result, err := h.engine.ListProposals(req.Context(), filter, page)
	if err != nil {
		return response.Error(w, h.logger, err)
	}
	return response.JSON(w, http.StatusOK, convert.ProposalPage(result))
}

func parseListQuery(req bunrouter.Request) (types.ProposalFilter, types.Pagination, error) {
	var (
		filter types.ProposalFilter
		page   types.Pagination
		err    error
	)
	query := req.URL.Query()

	if raw := query.Get("status"); raw != "" {
		status, err := enum.ProposalStatusString(raw)
		if err != nil {
			return filter, page, fmt.Errorf("%w: unknown status %q", types.ErrInvalidInput, raw)
		}
		filter.Status = &status
	}

	if raw := query.Get("type"); raw != "" {
		kind, err := enum.ProposalKindString(raw)
		if err != nil {
			return filter, page, fmt.Errorf("%w: unknown proposal type %q", types.ErrInvalidInput, raw)
		}
		filter.Kind = &kind
	}

	filter.Proposer = query.Get("proposer")
	filter.Search = query.Get("search")

	if page.Page, err = queryInt(req, "page"); err != nil {
		return filter, page, err
	}
	if page.Limit, err = queryInt(req, "limit"); err != nil {
		return filter, page, err
	}
	if page.Offset, err = queryInt(req, "offset"); err != nil {
		return filter, page, err
	}

	return filter, page, nil
}

// CastVote handles POST /v1/proposals/:id/votes.
func (h *ProposalHandler) CastVote(w http.ResponseWriter, req bunrouter.Request) error {
	var body restTypes.CastVoteRequest
	if err := decodeBody(w, req, h.maxBytes, &body); err != nil {
		return response.Error(w, h.logger, err)
	}

	choice, err := enum.VoteChoiceString(body.Vote)
	if err != nil {
		return response.Error(w, h.logger, fmt.Errorf("%w: unknown vote %q", types.ErrInvalidInput, body.Vote))
	}

	vote, err := h.engine.CastVote(req.Context(), req.Param("id"), auth.Principal(req.Context()), choice, body.Reason)
	if err != nil {
		return response.Error(w, h.logger, err)
	}
	return response.JSON(w, http.StatusCreated, convert.Vote(vote))
}

// ExecuteProposal handles POST /v1/proposals/:id/execute.
func (h *ProposalHandler) ExecuteProposal(w http.ResponseWriter, req bunrouter.Request) error {
	p, err := h.engine.ExecuteProposal(req.Context(), req.Param("id"), auth.Principal(req.Context()))
	if err != nil {
		return response.Error(w, h.logger, err)
	}
	return response.JSON(w, http.StatusOK, convert.Proposal(p))
}

// CancelProposal handles POST /v1/proposals/:id/cancel.
func (h *ProposalHandler) CancelProposal(w http.ResponseWriter, req bunrouter.Request) error {
	p, err := h.engine.CancelProposal(req.Context(), req.Param("id"), auth.Principal(req.Context()))
	if err != nil {
		return response.Error(w, h.logger, err)
	}
	return response.JSON(w, http.StatusOK, convert.Proposal(p))
}
