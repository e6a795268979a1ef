package types_test

import (
	"encoding/json"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/openkeyhub/governance/internal/database/types"
	"github.com/openkeyhub/governance/internal/database/types/enum"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayloadEnvelope(t *testing.T) {
	t.Parallel()

	original := types.NewPayload(types.TreasurySpend{Amount: 2500, Recipient: "grants", Purpose: "audit"})

	data, err := sonic.Marshal(original)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"TreasurySpend","data":{"amount":2500,"recipient":"grants","purpose":"audit"}}`, string(data))

	var decoded types.Payload
	require.NoError(t, sonic.Unmarshal(data, &decoded))

	spend, ok := decoded.ProposalPayload.(types.TreasurySpend)
	require.True(t, ok)
	assert.Equal(t, uint64(2500), spend.Amount)
	assert.Equal(t, enum.ProposalKindTreasurySpend, decoded.Kind())
}

func TestPayloadDecodesEveryKind(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"RepositoryUpdate":      `{"repositoryId":"repo-1","newSettings":{"visibility":"private"}}`,
		"PlatformUpgrade":       `{"version":"2.1.0","description":"upgrade"}`,
		"TreasurySpend":         `{"amount":1,"recipient":"r","purpose":"p"}`,
		"GovernanceConfig":      `{"newConfig":{"quorumPercentage":20}}`,
		"CollaboratorPromotion": `{"repositoryId":"repo-1","collaborator":"bob","newPermission":"Write"}`,
		"CustomProposal":        `{"executionData":{"call":"noop"}}`,
	}

	for kind, data := range tests {
		t.Run(kind, func(t *testing.T) {
			t.Parallel()

			var p types.Payload
			require.NoError(t, json.Unmarshal([]byte(`{"type":"`+kind+`","data":`+data+`}`), &p))
			assert.Equal(t, kind, p.Kind().String())
		})
	}
}

func TestPayloadRejectsUnknownType(t *testing.T) {
	t.Parallel()

	var p types.Payload
	err := sonic.Unmarshal([]byte(`{"type":"Airdrop","data":{}}`), &p)
	require.Error(t, err)
}

func TestPayloadValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		payload types.ProposalPayload
		wantErr bool
	}{
		{name: "repository update", payload: types.RepositoryUpdate{RepositoryID: "repo"}},
		{name: "repository update without repo", payload: types.RepositoryUpdate{}, wantErr: true},
		{name: "upgrade without description", payload: types.PlatformUpgrade{Version: "1.0"}, wantErr: true},
		{name: "zero spend", payload: types.TreasurySpend{Recipient: "r", Purpose: "p"}, wantErr: true},
		{name: "spend without purpose", payload: types.TreasurySpend{Amount: 5, Recipient: "r"}, wantErr: true},
		{name: "invalid config", payload: types.GovernanceConfigChange{}, wantErr: true},
		{
			name:    "valid config",
			payload: types.GovernanceConfigChange{NewConfig: types.DefaultGovernanceConfig()},
		},
		{
			name:    "unknown permission",
			payload: types.CollaboratorPromotion{RepositoryID: "r", Collaborator: "c", NewPermission: "Owner"},
			wantErr: true,
		},
		{
			name:    "promotion",
			payload: types.CollaboratorPromotion{RepositoryID: "r", Collaborator: "c", NewPermission: "Admin"},
		},
		{name: "custom with bad data", payload: types.CustomProposal{ExecutionData: []byte("{")}, wantErr: true},
		{name: "custom", payload: types.CustomProposal{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.payload.Validate()
			if tt.wantErr {
				require.ErrorIs(t, err, types.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestPayloadScan(t *testing.T) {
	t.Parallel()

	value, err := types.NewPayload(types.RepositoryUpdate{RepositoryID: "repo-9"}).Value()
	require.NoError(t, err)

	var p types.Payload
	require.NoError(t, p.Scan([]byte(value.(string))))
	assert.Equal(t, "repo-9", p.Repository())

	require.NoError(t, p.Scan(nil))
	assert.Nil(t, p.ProposalPayload)
}
