package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/openkeyhub/governance/internal/database/dbretry"
	"github.com/openkeyhub/governance/internal/database/types"
	"github.com/openkeyhub/governance/internal/database/types/enum"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// AccountModel handles database operations for token accounts and proposal deposits.
type AccountModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewAccount creates a new account model.
func NewAccount(db *bun.DB, logger *zap.Logger) *AccountModel {
	return &AccountModel{
		db:     db,
		logger: logger.Named("db_account"),
	}
}

// GetAccount retrieves a principal's account.
func (r *AccountModel) GetAccount(ctx context.Context, principal string) (*types.Account, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (*types.Account, error) {
		account := new(types.Account)
		err := r.db.NewSelect().
			Model(account).
			Where("principal = ?", principal).
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, types.ErrAccountNotFound
			}
			return nil, fmt.Errorf("failed to get account: %w", err)
		}
		return account, nil
	})
}

// UpsertAccount sets a principal's balance and stake.
func (r *AccountModel) UpsertAccount(ctx context.Context, account *types.Account) error {
	account.UpdatedAt = time.Now()

	return dbretry.NoResult(ctx, func(ctx context.Context) error {
		_, err := r.db.NewInsert().
			Model(account).
			On("CONFLICT (principal) DO UPDATE").
			Set("balance = EXCLUDED.balance").
			Set("staked = EXCLUDED.staked").
			Set("updated_at = EXCLUDED.updated_at").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to upsert account: %w", err)
		}
		return nil
	})
}

// BalanceAndStake returns a principal's balance and stake. Unknown principals hold nothing.
func (r *AccountModel) BalanceAndStake(ctx context.Context, principal string) (uint64, uint64, error) {
	account, err := r.GetAccount(ctx, principal)
	if err != nil {
		if errors.Is(err, types.ErrAccountNotFound) {
			return 0, 0, nil
		}
		return 0, 0, err
	}
	return account.Balance, account.Staked, nil
}

// Supply returns the token supply. Held and forfeited deposits count towards the total
// but not towards the circulating supply.
func (r *AccountModel) Supply(ctx context.Context) (*types.TokenSupply, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (*types.TokenSupply, error) {
		supply := new(types.TokenSupply)
		err := r.db.NewSelect().
			Model((*types.Account)(nil)).
			ColumnExpr("COALESCE(SUM(balance + staked), 0)::bigint AS circulating").
			ColumnExpr("COALESCE(SUM(staked), 0)::bigint AS staked").
			Scan(ctx, &supply.Circulating, &supply.Staked)
		if err != nil {
			return nil, fmt.Errorf("failed to sum accounts: %w", err)
		}

		var escrowed uint64
		err = r.db.NewSelect().
			Model((*types.Deposit)(nil)).
			ColumnExpr("COALESCE(SUM(amount), 0)::bigint").
			Where("status IN (?)", bun.In([]enum.DepositStatus{enum.DepositStatusHeld, enum.DepositStatusForfeited})).
			Scan(ctx, &escrowed)
		if err != nil {
			return nil, fmt.Errorf("failed to sum deposits: %w", err)
		}

		supply.Total = supply.Circulating + escrowed
		return supply, nil
	})
}

// LockDeposit moves amount from the principal's balance into escrow for the proposal.
func (r *AccountModel) LockDeposit(ctx context.Context, principal, proposalID string, amount uint64) error {
	err := dbretry.Transaction(ctx, r.db, func(ctx context.Context, tx bun.Tx) error {
		now := time.Now()

		// Debit only when the balance covers the deposit
		result, err := tx.NewUpdate().
			Model((*types.Account)(nil)).
			Set("balance = balance - ?", amount).
			Set("updated_at = ?", now).
			Where("principal = ?", principal).
			Where("balance >= ?", amount).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to debit account: %w", err)
		}
		if affected, err := result.RowsAffected(); err != nil {
			return fmt.Errorf("failed to get affected rows: %w", err)
		} else if affected == 0 {
			return fmt.Errorf("%w: deposit of %d required", types.ErrInsufficientBalance, amount)
		}

		result, err = tx.NewInsert().
			Model(&types.Deposit{
				ProposalID: proposalID,
				Principal:  principal,
				Amount:     amount,
				Status:     enum.DepositStatusHeld,
				CreatedAt:  now,
			}).
			On("CONFLICT (proposal_id) DO NOTHING").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to insert deposit: %w", err)
		}
		if affected, err := result.RowsAffected(); err != nil {
			return fmt.Errorf("failed to get affected rows: %w", err)
		} else if affected == 0 {
			return fmt.Errorf("%w: deposit for %s already locked", types.ErrInvalidInput, proposalID)
		}

		return nil
	})
	if err != nil {
		return err
	}

	r.logger.Debug("Locked deposit",
		zap.String("principal", principal),
		zap.String("proposalID", proposalID),
		zap.Uint64("amount", amount))

	return nil
}

// ReleaseDeposit refunds or forfeits the escrowed deposit. Releasing a settled deposit is a no-op.
func (r *AccountModel) ReleaseDeposit(ctx context.Context, proposalID string, refund bool) error {
	return dbretry.Transaction(ctx, r.db, func(ctx context.Context, tx bun.Tx) error {
		deposit := new(types.Deposit)
		err := tx.NewSelect().
			Model(deposit).
			Where("proposal_id = ?", proposalID).
			For("UPDATE").
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("%w: %s", types.ErrDepositNotFound, proposalID)
			}
			return fmt.Errorf("failed to get deposit: %w", err)
		}

		if deposit.Status != enum.DepositStatusHeld {
			return nil
		}

		now := time.Now()
		deposit.SettledAt = &now
		deposit.Status = enum.DepositStatusForfeited
		if refund {
			deposit.Status = enum.DepositStatusRefunded
		}

		_, err = tx.NewUpdate().
			Model(deposit).
			Column("status", "settled_at").
			WherePK().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to update deposit: %w", err)
		}

		if !refund {
			return nil
		}

		// Credit the proposer, creating the account if it was removed meanwhile
		_, err = tx.NewInsert().
			Model(&types.Account{
				Principal: deposit.Principal,
				Balance:   deposit.Amount,
				UpdatedAt: now,
			}).
			On("CONFLICT (principal) DO UPDATE").
			Set("balance = account.balance + EXCLUDED.balance").
			Set("updated_at = EXCLUDED.updated_at").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to refund deposit: %w", err)
		}

		return nil
	})
}
