package service

import (
	"context"
	"fmt"

	"github.com/openkeyhub/governance/internal/database/models"
	"github.com/openkeyhub/governance/internal/database/types"
	"github.com/openkeyhub/governance/internal/governance"
	"go.uber.org/zap"
)

var _ governance.TokenLedger = (*LedgerService)(nil)

// LedgerService is the Postgres-backed token ledger.
type LedgerService struct {
	model  *models.AccountModel
	logger *zap.Logger
}

// NewLedger creates a new ledger service.
func NewLedger(model *models.AccountModel, logger *zap.Logger) *LedgerService {
	return &LedgerService{
		model:  model,
		logger: logger.Named("ledger_service"),
	}
}

// SetAccount sets a principal's balance and stake.
func (s *LedgerService) SetAccount(ctx context.Context, principal string, balance, staked uint64) error {
	if principal == "" {
		return fmt.Errorf("%w: principal is required", types.ErrInvalidInput)
	}

	err := s.model.UpsertAccount(ctx, &types.Account{
		Principal: principal,
		Balance:   balance,
		Staked:    staked,
	})
	if err != nil {
		return err
	}

	s.logger.Info("Updated account",
		zap.String("principal", principal),
		zap.Uint64("balance", balance),
		zap.Uint64("staked", staked))

	return nil
}

// BalanceAndStake returns a principal's balance and stake.
func (s *LedgerService) BalanceAndStake(ctx context.Context, principal string) (uint64, uint64, error) {
	return s.model.BalanceAndStake(ctx, principal)
}

// Supply returns the token supply.
func (s *LedgerService) Supply(ctx context.Context) (*types.TokenSupply, error) {
	return s.model.Supply(ctx)
}

// LockDeposit moves amount from the principal's balance into escrow for the proposal.
func (s *LedgerService) LockDeposit(ctx context.Context, principal, proposalID string, amount uint64) error {
	return s.model.LockDeposit(ctx, principal, proposalID, amount)
}

// ReleaseDeposit refunds or forfeits the escrowed deposit.
func (s *LedgerService) ReleaseDeposit(ctx context.Context, proposalID string, refund bool) error {
	if err := s.model.ReleaseDeposit(ctx, proposalID, refund); err != nil {
		return err
	}

	s.logger.Info("Released deposit",
		zap.String("proposalID", proposalID),
		zap.Bool("refund", refund))

	return nil
}
