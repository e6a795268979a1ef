package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/openkeyhub/governance/internal/database/types"
	"github.com/openkeyhub/governance/internal/database/types/enum"
	"github.com/openkeyhub/governance/internal/setup/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.FileName), []byte(content), 0o600))
	return dir
}

func TestLoad(t *testing.T) {
	t.Parallel()

	dir := writeConfig(t, `
version = 1

[postgresql]
host = "db.internal"
db_name = "dao"

[api]
port = 9090
jwt_secret = "secret"
request_timeout = "5s"

[governance]
voting_period = "72h"
quorum_percentage = 20
allow_revote = true
refund_policy = "always_refund"
executors = ["treasury-bot"]

[sweep]
interval = "30s"
`)

	cfg, used, err := config.Load(t.TempDir(), dir)
	require.NoError(t, err)
	assert.Equal(t, dir, used)

	assert.Equal(t, "db.internal", cfg.PostgreSQL.Host)
	assert.Equal(t, "dao", cfg.PostgreSQL.DBName)
	assert.Equal(t, 5432, cfg.PostgreSQL.Port, "missing keys keep defaults")

	assert.Equal(t, 9090, cfg.API.Port)
	assert.Equal(t, "secret", cfg.API.JWTSecret)
	assert.Equal(t, 5*time.Second, cfg.API.RequestTimeout)
	assert.Equal(t, "0.0.0.0:9090", cfg.API.Address())

	defaults := types.DefaultGovernanceConfig()
	assert.Equal(t, 72*time.Hour, cfg.Governance.VotingPeriod)
	assert.InDelta(t, 20.0, cfg.Governance.QuorumPercentage, 0)
	assert.True(t, cfg.Governance.AllowRevote)
	assert.Equal(t, enum.RefundPolicyAlwaysRefund, cfg.Governance.RefundPolicy)
	assert.Equal(t, []string{"treasury-bot"}, cfg.Governance.Executors)
	assert.Equal(t, defaults.ExecutionDelay, cfg.Governance.ExecutionDelay)
	assert.InDelta(t, defaults.ApprovalThreshold, cfg.Governance.ApprovalThreshold, 0)

	assert.Equal(t, 30*time.Second, cfg.Sweep.Interval)
	assert.Equal(t, 4, cfg.Sweep.Concurrency)
}

func TestLoadErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{
			name:    "missing version",
			content: "[api]\nport = 8080\n",
			wantErr: config.ErrConfigVersionMissing,
		},
		{
			name:    "version mismatch",
			content: "version = 99\n",
			wantErr: config.ErrConfigVersionMismatch,
		},
		{
			name:    "invalid governance section",
			content: "version = 1\n[governance]\napproval_threshold = 150\n",
			wantErr: types.ErrInvalidConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, _, err := config.Load(writeConfig(t, tt.content))
			require.ErrorIs(t, err, tt.wantErr)
		})
	}

	t.Run("no config file", func(t *testing.T) {
		t.Parallel()

		_, _, err := config.Load(t.TempDir())
		require.ErrorIs(t, err, config.ErrConfigFileNotFound)
	})
}
