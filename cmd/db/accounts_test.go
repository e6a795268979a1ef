package main

import (
	"context"
	"math"
	"testing"

	"github.com/openkeyhub/governance/internal/database/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakeLedger struct {
	accounts map[string][2]uint64
}

func (l *fakeLedger) SetAccount(_ context.Context, principal string, balance, staked uint64) error {
	l.accounts[principal] = [2]uint64{balance, staked}
	return nil
}

func (l *fakeLedger) BalanceAndStake(_ context.Context, principal string) (uint64, uint64, error) {
	account := l.accounts[principal]
	return account[0], account[1], nil
}

func (l *fakeLedger) Supply(_ context.Context) (*types.TokenSupply, error) {
	supply := &types.TokenSupply{}
	for _, account := range l.accounts {
		supply.Circulating = types.SaturatingAdd(supply.Circulating, types.SaturatingAdd(account[0], account[1]))
		supply.Staked = types.SaturatingAdd(supply.Staked, account[1])
	}
	supply.Total = supply.Circulating
	return supply, nil
}

func runAccounts(t *testing.T, ledger *fakeLedger, args ...string) (*observer.ObservedLogs, error) {
	t.Helper()

	core, logs := observer.New(zapcore.InfoLevel)
	app := &cli.Command{
		Name:     "db",
		Commands: []*cli.Command{accountsCommand(ledger, zap.New(core))},
	}

	return logs, app.Run(t.Context(), append([]string{"db", "accounts"}, args...))
}

func TestAccountsCommand(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		args    []string
		seed    map[string][2]uint64
		wantErr error
		wantLog string
		fields  map[string]any
		want    map[string][2]uint64
	}{
		{
			name: "set",
			args: []string{"set", "--balance", "250", "--staked", "750", "alice"},
			seed: map[string][2]uint64{},
			want: map[string][2]uint64{"alice": {250, 750}},
		},
		{
			name:    "set without principal",
			args:    []string{"set", "--balance", "1"},
			seed:    map[string][2]uint64{},
			wantErr: ErrPrincipalRequired,
			want:    map[string][2]uint64{},
		},
		{
			name:    "show",
			args:    []string{"show", "bob"},
			seed:    map[string][2]uint64{"bob": {math.MaxUint64, 5}},
			wantLog: "Account",
			fields:  map[string]any{"principal": "bob", "staked": uint64(5), "ownPower": uint64(math.MaxUint64)},
		},
		{
			name:    "show without principal",
			args:    []string{"show"},
			seed:    map[string][2]uint64{},
			wantErr: ErrPrincipalRequired,
		},
		{
			name:    "supply",
			args:    []string{"supply"},
			seed:    map[string][2]uint64{"alice": {100, 900}, "bob": {0, 500}},
			wantLog: "Token supply",
			fields:  map[string]any{"circulating": uint64(1500), "staked": uint64(1400)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ledger := &fakeLedger{accounts: tt.seed}
			logs, err := runAccounts(t, ledger, tt.args...)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}

			if tt.want != nil {
				assert.Equal(t, tt.want, ledger.accounts)
			}

			if tt.wantLog != "" {
				entries := logs.FilterMessage(tt.wantLog).All()
				require.Len(t, entries, 1)
				fields := entries[0].ContextMap()
				for key, value := range tt.fields {
					assert.Equal(t, value, fields[key], key)
				}
			}
		})
	}
}
