package handler

import (
	"fmt"
	"net/http"

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

// DelegationHandler handles delegation endpoints.
type DelegationHandler struct {
	engine   *governance.Engine
	maxBytes int64
	logger   *zap.Logger
}

// NewDelegationHandler creates a new delegation handler.
func NewDelegationHandler(engine *governance.Engine, maxBytes int64, logger *zap.Logger) *DelegationHandler {
	return &DelegationHandler{
		engine:   engine,
		maxBytes: maxBytes,
		logger:   logger,
	}
}

func parseScope(raw string) (enum.DelegationScope, error) {
	if raw == "" {
		return enum.DelegationScopeAll, nil
	}

	scope, err := enum.DelegationScopeString(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: unknown delegation scope %q", types.ErrInvalidInput, raw)
	}
	return scope, nil
}

// DelegateVote handles POST /v1/delegations.
func (h *DelegationHandler) DelegateVote(w http.ResponseWriter, req bunrouter.Request) error {
	var body restTypes.DelegateRequest
	if err := decodeBody(w, req, h.maxBytes, &body); err != nil {
		return response.Error(w, h.logger, err)
	}

	scope, err := parseScope(body.Scope)
	if err != nil {
		return response.Error(w, h.logger, err)
	}

	edge, err := h.engine.DelegateVote(req.Context(), auth.Principal(req.Context()), body.Delegate, scope, body.Target)
	if err != nil {
		return response.Error(w, h.logger, err)
	}
	return response.JSON(w, http.StatusCreated, convert.Delegation(edge))
}

// RevokeDelegation handles DELETE /v1/delegations/:scope. Narrow scopes take the target as a query parameter.
func (h *DelegationHandler) RevokeDelegation(w http.ResponseWriter, req bunrouter.Request) error {
	scope, err := parseScope(req.Param("scope"))
	if err != nil {
		return response.Error(w, h.logger, err)
	}

	principal := auth.Principal(req.Context())
	if err := h.engine.RevokeDelegation(req.Context(), principal, scope, req.URL.Query().Get("target")); err != nil {
		return response.Error(w, h.logger, err)
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}

// ListDelegations handles GET /v1/delegations. The principal query parameter defaults to the caller.
func (h *DelegationHandler) ListDelegations(w http.ResponseWriter, req bunrouter.Request) error {
	principal := req.URL.Query().Get("principal")
	if principal == "" {
		principal = auth.Principal(req.Context())
	}
	if principal == "" {
		return response.Error(w, h.logger, fmt.Errorf("%w: principal is required", types.ErrInvalidInput))
	}

	from, to, err := h.engine.ListDelegations(req.Context(), principal)
	if err != nil {
		return response.Error(w, h.logger, err)
	}

	return response.JSON(w, http.StatusOK, restTypes.DelegationsResponse{
		DelegatedTo:   convert.Delegations(from),
		DelegatedFrom: convert.Delegations(to),
	})
}
