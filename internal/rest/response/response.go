// Package response writes JSON bodies and maps governance errors to HTTP statuses.
package response

import (
	"context"
	"errors"
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/openkeyhub/governance/internal/database/types"
	"go.uber.org/zap"
)

// Machine readable error codes.
const (
	CodeNotFound                = "not_found"
	CodeInvalidInput            = "invalid_input"
	CodeInsufficientBalance     = "insufficient_balance"
	CodeInvalidConfig           = "invalid_config"
	CodeProposalLimitExceeded   = "proposal_limit_exceeded"
	CodeVotingClosed            = "voting_closed"
	CodeAlreadyVoted            = "already_voted"
	CodeInsufficientVotingPower = "insufficient_voting_power"
	CodeUnauthorized            = "unauthorized"
	CodeUnauthenticated         = "unauthenticated"
	CodeInvalidStateTransition  = "invalid_state_transition"
	CodeExecutionNotReady       = "execution_not_ready"
	CodeDelegationDisabled      = "delegation_disabled"
	CodeSelfDelegation          = "self_delegation"
	CodeCyclicDelegation        = "cyclic_delegation"
	CodeInvalidParent           = "invalid_parent"
	CodeRateLimited             = "rate_limited"
	CodeTimeout                 = "timeout"
	CodeInternal                = "internal"
)

// ErrorBody is the envelope of every error response.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes an error.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorMapping struct {
	target error
	status int
	code   string
}

// Order matters: wrapped variants come before the kinds they wrap.
var errorMappings = []errorMapping{
	{types.ErrNotFound, http.StatusNotFound, CodeNotFound},
	{types.ErrInsufficientBalance, http.StatusBadRequest, CodeInsufficientBalance},
	{types.ErrInvalidConfig, http.StatusBadRequest, CodeInvalidConfig},
	{types.ErrUnknownPayload, http.StatusBadRequest, CodeInvalidInput},
	{types.ErrInvalidInput, http.StatusBadRequest, CodeInvalidInput},
	{types.ErrProposalLimitExceeded, http.StatusConflict, CodeProposalLimitExceeded},
	{types.ErrVotingClosed, http.StatusConflict, CodeVotingClosed},
	{types.ErrAlreadyVoted, http.StatusConflict, CodeAlreadyVoted},
	{types.ErrInsufficientVotingPower, http.StatusForbidden, CodeInsufficientVotingPower},
	{types.ErrUnauthorized, http.StatusForbidden, CodeUnauthorized},
	{types.ErrInvalidStateTransition, http.StatusConflict, CodeInvalidStateTransition},
	{types.ErrExecutionNotReady, http.StatusConflict, CodeExecutionNotReady},
	{types.ErrDelegationDisabled, http.StatusForbidden, CodeDelegationDisabled},
	{types.ErrSelfDelegation, http.StatusBadRequest, CodeSelfDelegation},
	{types.ErrCyclicDelegation, http.StatusConflict, CodeCyclicDelegation},
	{types.ErrInvalidParent, http.StatusBadRequest, CodeInvalidParent},
	{context.DeadlineExceeded, http.StatusGatewayTimeout, CodeTimeout},
}

// Classify returns the HTTP status and error code for err.
func Classify(err error) (int, string) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return m.status, m.code
		}
	}
	return http.StatusInternalServerError, CodeInternal
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) error {
	data, err := sonic.Marshal(v)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, err = w.Write(append(data, '\n'))
	return err
}

// Problem writes an error envelope.
func Problem(w http.ResponseWriter, status int, code, message string) error {
	return JSON(w, status, ErrorBody{Error: ErrorDetail{Code: code, Message: message}})
}

// Error maps err to a status and writes it. Internal errors are logged and their
// details are withheld from the client.
func Error(w http.ResponseWriter, logger *zap.Logger, err error) error {
	status, code := Classify(err)

	message := err.Error()
	if status == http.StatusInternalServerError {
		logger.Error("Request failed", zap.Error(err))
		message = "Internal server error"
	}

	return Problem(w, status, code, message)
}
