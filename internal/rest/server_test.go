package rest_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/openkeyhub/governance/internal/database/types"
	"github.com/openkeyhub/governance/internal/governance"
	"github.com/openkeyhub/governance/internal/governance/memstore"
	"github.com/openkeyhub/governance/internal/rest"
	"github.com/openkeyhub/governance/internal/rest/middleware/auth"
	"github.com/openkeyhub/governance/internal/rest/response"
	restTypes "github.com/openkeyhub/governance/internal/rest/types"
	"github.com/openkeyhub/governance/internal/setup/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const createBody = `{
	"proposalType": {"type": "TreasurySpend", "data": {"amount": 5000, "recipient": "grants-multisig", "purpose": "Docs"}},
	"title": "Fund the documentation sprint",
	"description": "Allocate treasury funds to pay contributors for a two week documentation sprint on the core repositories."
}`

type fixture struct {
	server *rest.Server
	ledger *memstore.Ledger
	config *config.API
	health error
}

func setupTest(t *testing.T, mutate func(*config.API)) *fixture {
	t.Helper()

	ledger := memstore.NewLedger()
	engine, err := governance.New(t.Context(), memstore.NewStore(), ledger,
		types.DefaultGovernanceConfig(), zaptest.NewLogger(t))
	require.NoError(t, err)

	cfg := config.Default().API
	cfg.JWTSecret = "test-secret"
	cfg.RateLimit = 1000
	cfg.RateBurst = 1000
	if mutate != nil {
		mutate(&cfg)
	}

	f := &fixture{ledger: ledger, config: &cfg}
	f.server, err = rest.NewServer(rest.Options{
		Engine:   engine,
		Registry: prometheus.NewRegistry(),
		Health:   func(context.Context) error { return f.health },
		Config:   &cfg,
	}, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(f.server.Close)

	return f
}

func (f *fixture) do(t *testing.T, method, path, principal, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if principal != "" {
		token, err := auth.IssueToken(f.config, principal, time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[response.ErrorBody](t, rec).Error.Code
}

func TestProposalFlow(t *testing.T) {
	t.Parallel()
	f := setupTest(t, nil)
	f.ledger.SetAccount("alice", 1000, 500)
	f.ledger.SetAccount("bob", 300, 0)

	rec := f.do(t, http.MethodPost, "/v1/proposals", "alice", createBody)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[restTypes.Proposal](t, rec)
	assert.Equal(t, "alice", created.Proposer)
	assert.Equal(t, "Active", created.Status)
	assert.Equal(t, "Held", created.DepositStatus)
	assert.Equal(t, int64(2*24*time.Hour/time.Second), created.ExecutionDelaySeconds)

	rec = f.do(t, http.MethodPost, "/v1/proposals/"+created.ID+"/votes", "bob", `{"vote": "yes", "reason": "ship it"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	vote := decode[restTypes.Vote](t, rec)
	assert.Equal(t, "Yes", vote.Vote)
	assert.Equal(t, uint64(300), vote.VotingPower)

	rec = f.do(t, http.MethodPost, "/v1/proposals/"+created.ID+"/votes", "bob", `{"vote": "no"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, response.CodeAlreadyVoted, errorCode(t, rec))

	rec = f.do(t, http.MethodGet, "/v1/proposals/"+created.ID, "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[restTypes.Proposal](t, rec)
	assert.Equal(t, uint64(300), got.TotalYesVotes)
	assert.InDelta(t, 100.0, got.ApprovalRatio, 0.001)
	require.Len(t, got.Votes, 1)

	rec = f.do(t, http.MethodGet, "/v1/proposals?status=active&limit=1", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[restTypes.ProposalPage](t, rec)
	assert.Equal(t, 1, page.TotalCount)
	assert.False(t, page.HasMore)

	rec = f.do(t, http.MethodPost, "/v1/proposals/"+created.ID+"/execute", "alice", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, response.CodeInvalidStateTransition, errorCode(t, rec))

	rec = f.do(t, http.MethodPost, "/v1/proposals/"+created.ID+"/cancel", "bob", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, response.CodeUnauthorized, errorCode(t, rec))

	rec = f.do(t, http.MethodPost, "/v1/proposals/"+created.ID+"/cancel", "alice", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Cancelled", decode[restTypes.Proposal](t, rec).Status)
}

func TestErrorMapping(t *testing.T) {
	t.Parallel()
	f := setupTest(t, nil)
	f.ledger.SetAccount("alice", 1000, 0)

	tests := []struct {
		name      string
		method    string
		path      string
		principal string
		body      string
		status    int
		code      string
	}{
		{
			name:   "unknown proposal",
			method: http.MethodGet,
			path:   "/v1/proposals/missing",
			status: http.StatusNotFound,
			code:   response.CodeNotFound,
		},
		{
			name:   "write requires token",
			method: http.MethodPost,
			path:   "/v1/proposals",
			body:   createBody,
			status: http.StatusUnauthorized,
			code:   response.CodeUnauthenticated,
		},
		{
			name:      "malformed body",
			method:    http.MethodPost,
			path:      "/v1/proposals",
			principal: "alice",
			body:      `{"title":`,
			status:    http.StatusBadRequest,
			code:      response.CodeInvalidInput,
		},
		{
			name:      "unknown payload type",
			method:    http.MethodPost,
			path:      "/v1/proposals",
			principal: "alice",
			body:      `{"proposalType": {"type": "Bogus", "data": {}}, "title": "x"}`,
			status:    http.StatusBadRequest,
			code:      response.CodeInvalidInput,
		},
		{
			name:      "bad duration",
			method:    http.MethodPost,
			path:      "/v1/proposals",
			principal: "alice",
			body:      strings.Replace(createBody, `"title"`, `"votingDuration": "soon", "title"`, 1),
			status:    http.StatusBadRequest,
			code:      response.CodeInvalidInput,
		},
		{
			name:      "insufficient balance",
			method:    http.MethodPost,
			path:      "/v1/proposals",
			principal: "carol",
			body:      createBody,
			status:    http.StatusBadRequest,
			code:      response.CodeInsufficientBalance,
		},
		{
			name:      "self delegation",
			method:    http.MethodPost,
			path:      "/v1/delegations",
			principal: "alice",
			body:      `{"delegate": "alice"}`,
			status:    http.StatusBadRequest,
			code:      response.CodeSelfDelegation,
		},
		{
			name:      "unknown scope",
			method:    http.MethodPost,
			path:      "/v1/delegations",
			principal: "alice",
			body:      `{"delegate": "bob", "scope": "everything"}`,
			status:    http.StatusBadRequest,
			code:      response.CodeInvalidInput,
		},
		{
			name:   "unknown status filter",
			method: http.MethodGet,
			path:   "/v1/proposals?status=pending",
			status: http.StatusBadRequest,
			code:   response.CodeInvalidInput,
		},
		{
			name:   "negative page",
			method: http.MethodGet,
			path:   "/v1/proposals?page=-1",
			status: http.StatusBadRequest,
			code:   response.CodeInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := f.do(t, tt.method, tt.path, tt.principal, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Equal(t, tt.code, errorCode(t, rec))
		})
	}
}

func TestInvalidToken(t *testing.T) {
	t.Parallel()
	f := setupTest(t, nil)

	other := *f.config
	other.JWTSecret = "someone-else"
	token, err := auth.IssueToken(&other, "mallory", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/v1/stats", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, response.CodeUnauthenticated, errorCode(t, rec))
}

func TestDelegationAndDiscussion(t *testing.T) {
	t.Parallel()
	f := setupTest(t, nil)
	f.ledger.SetAccount("alice", 1000, 0)

	rec := f.do(t, http.MethodPost, "/v1/delegations", "bob", `{"delegate": "alice", "scope": "All"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = f.do(t, http.MethodGet, "/v1/delegations?principal=alice", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	delegations := decode[restTypes.DelegationsResponse](t, rec)
	require.Len(t, delegations.DelegatedFrom, 1)
	assert.Equal(t, "bob", delegations.DelegatedFrom[0].Delegator)
	assert.Empty(t, delegations.DelegatedTo)

	rec = f.do(t, http.MethodDelete, "/v1/delegations/All", "bob", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(t, http.MethodDelete, "/v1/delegations/All", "bob", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodPost, "/v1/proposals", "alice", createBody)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id := decode[restTypes.Proposal](t, rec).ID

	rec = f.do(t, http.MethodPost, "/v1/proposals/"+id+"/posts", "bob", `{"content": "<b>Looks good</b>"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	post := decode[restTypes.DiscussionPost](t, rec)
	assert.Equal(t, "Looks good", post.Content)

	rec = f.do(t, http.MethodPost, "/v1/proposals/"+id+"/posts", "bob", `{"content": "reply", "parentId": "nope"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, response.CodeInvalidParent, errorCode(t, rec))

	rec = f.do(t, http.MethodPost, "/v1/proposals/"+id+"/posts/"+post.ID+"/reactions", "alice", `{"emoji": "+1"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	reacted := decode[restTypes.DiscussionPost](t, rec)
	require.Len(t, reacted.Reactions, 1)
	assert.Equal(t, []string{"alice"}, reacted.Reactions[0].Users)

	rec = f.do(t, http.MethodGet, "/v1/proposals/"+id+"/posts", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]restTypes.DiscussionPost](t, rec), 1)
}

func TestReadEndpoints(t *testing.T) {
	t.Parallel()
	f := setupTest(t, nil)
	f.ledger.SetAccount("alice", 700, 300)

	rec := f.do(t, http.MethodGet, "/v1/tokens/alice", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	info := decode[restTypes.TokenInfo](t, rec)
	assert.Equal(t, uint64(700), info.Balance)
	assert.Equal(t, uint64(300), info.Staked)

	rec = f.do(t, http.MethodGet, "/v1/stats", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode[types.VotingStats](t, rec)
	assert.Equal(t, uint64(300), stats.TotalStaked)

	rec = f.do(t, http.MethodGet, "/v1/config", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	cfg := decode[restTypes.GovernanceConfig](t, rec)
	assert.Equal(t, int64(1), cfg.Version)
	assert.Equal(t, "168h0m0s", cfg.VotingPeriod)
	assert.Equal(t, "refund_unless_failed", cfg.RefundPolicy)

	rec = f.do(t, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "governance_http_requests_total")
}

func TestProposalChart(t *testing.T) {
	t.Parallel()
	f := setupTest(t, nil)
	f.ledger.SetAccount("alice", 1000, 0)

	rec := f.do(t, http.MethodPost, "/v1/proposals", "alice", createBody)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id := decode[restTypes.Proposal](t, rec).ID

	rec = f.do(t, http.MethodGet, "/v1/proposals/"+id+"/chart", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, "\x89PNG", rec.Body.String()[:4])

	rec = f.do(t, http.MethodGet, "/v1/proposals/"+id+"/chart?format=webp", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/webp", rec.Header().Get("Content-Type"))
	assert.Equal(t, "RIFF", rec.Body.String()[:4])

	rec = f.do(t, http.MethodGet, "/v1/proposals/"+id+"/chart?format=svg", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "<svg")

	req := httptest.NewRequest(http.MethodGet, "/v1/proposals/"+id+"/chart", nil)
	req.Header.Set("Accept", "image/webp,image/*")
	rec = httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/webp", rec.Header().Get("Content-Type"))

	rec = f.do(t, http.MethodGet, "/v1/proposals/"+id+"/chart?format=gif", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, response.CodeInvalidInput, errorCode(t, rec))

	rec = f.do(t, http.MethodGet, "/v1/proposals/missing/chart", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealth(t *testing.T) {
	t.Parallel()
	f := setupTest(t, nil)

	rec := f.do(t, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	f.health = errors.New("database unreachable")
	rec = f.do(t, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRateLimit(t *testing.T) {
	t.Parallel()
	f := setupTest(t, func(c *config.API) {
		c.RateLimit = 0.001
		c.RateBurst = 2
	})

	for range 2 {
		rec := f.do(t, http.MethodGet, "/v1/config", "alice", "")
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := f.do(t, http.MethodGet, "/v1/config", "alice", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, response.CodeRateLimited, errorCode(t, rec))
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	rec = f.do(t, http.MethodGet, "/v1/config", "bob", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMissingSecret(t *testing.T) {
	t.Parallel()

	engine, err := governance.New(t.Context(), memstore.NewStore(), memstore.NewLedger(),
		types.DefaultGovernanceConfig(), zaptest.NewLogger(t))
	require.NoError(t, err)

	cfg := config.Default().API
	_, err = rest.NewServer(rest.Options{
		Engine:   engine,
		Registry: prometheus.NewRegistry(),
		Config:   &cfg,
	}, zaptest.NewLogger(t))
	require.ErrorIs(t, err, auth.ErrMissingSecret)
}
