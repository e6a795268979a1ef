package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/openkeyhub/governance/internal/database/dbretry"
	"github.com/openkeyhub/governance/internal/database/types"
	"github.com/openkeyhub/governance/internal/database/types/enum"
	"github.com/openkeyhub/governance/internal/governance"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// delegationLockKey is the advisory lock that serializes delegation changes.
const delegationLockKey int64 = 0x64656c65

// DelegationModel handles database operations for delegation edges.
type DelegationModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewDelegation creates a new delegation model.
func NewDelegation(db *bun.DB, logger *zap.Logger) *DelegationModel {
	return &DelegationModel{
		db:     db,
		logger: logger.Named("db_delegation"),
	}
}

// txDelegationView reads edges inside the transaction that holds the delegation lock.
type txDelegationView struct {
	tx bun.Tx
}

// DelegateOf returns the delegate of the edge, or an empty string if there is none.
func (v txDelegationView) DelegateOf(
	ctx context.Context, delegator string, scope enum.DelegationScope, target string,
) (string, error) {
	return delegateOf(ctx, v.tx, delegator, scope, target)
}

// SaveDelegation creates or replaces the edge keyed by delegator, scope and target.
// The check runs after the delegation lock is taken and before the write.
func (r *DelegationModel) SaveDelegation(
	ctx context.Context, edge *types.DelegationEdge,
	check func(ctx context.Context, view governance.DelegationView) error,
) error {
	err := dbretry.Transaction(ctx, r.db, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewRaw("SELECT pg_advisory_xact_lock(?)", delegationLockKey).Exec(ctx); err != nil {
			return fmt.Errorf("failed to lock delegations: %w", err)
		}

		if check != nil {
			if err := check(ctx, txDelegationView{tx: tx}); err != nil {
				return err
			}
		}

		_, err := tx.NewInsert().
			Model(edge).
			On("CONFLICT (delegator, scope, target) DO UPDATE").
			Set("delegate = EXCLUDED.delegate").
			Set("created_at = EXCLUDED.created_at").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to save delegation: %w", err)
		}

		return nil
	})
	if err != nil {
		return err
	}

	r.logger.Debug("Saved delegation",
		zap.String("delegator", edge.Delegator),
		zap.String("delegate", edge.Delegate),
		zap.String("scope", edge.Scope.String()))

	return nil
}

// DeleteDelegation removes the edge keyed by delegator, scope and target.
func (r *DelegationModel) DeleteDelegation(
	ctx context.Context, delegator string, scope enum.DelegationScope, target string,
) error {
	return dbretry.NoResult(ctx, func(ctx context.Context) error {
		result, err := r.db.NewDelete().
			Model((*types.DelegationEdge)(nil)).
			Where("delegator = ?", delegator).
			Where("scope = ?", scope).
			Where("target = ?", target).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to delete delegation: %w", err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get affected rows: %w", err)
		}
		if affected == 0 {
			return types.ErrDelegationNotFound
		}

		return nil
	})
}

// ListDelegationsFrom returns the edges created by a delegator.
func (r *DelegationModel) ListDelegationsFrom(ctx context.Context, delegator string) ([]*types.DelegationEdge, error) {
	return r.listDelegations(ctx, "delegator = ?", delegator)
}

// ListDelegationsTo returns the edges pointing at a delegate.
func (r *DelegationModel) ListDelegationsTo(ctx context.Context, delegate string) ([]*types.DelegationEdge, error) {
	return r.listDelegations(ctx, "delegate = ?", delegate)
}

func (r *DelegationModel) listDelegations(
	ctx context.Context, where string, principal string,
) ([]*types.DelegationEdge, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) ([]*types.DelegationEdge, error) {
		edges := make([]*types.DelegationEdge, 0)
		err := r.db.NewSelect().
			Model(&edges).
			Where(where, principal).
			Order("created_at ASC", "delegator ASC", "scope ASC", "target ASC").
			Scan(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list delegations: %w", err)
		}
		return edges, nil
	})
}

func delegateOf(
	ctx context.Context, db bun.IDB, delegator string, scope enum.DelegationScope, target string,
) (string, error) {
	var delegate string
	err := db.NewSelect().
		Model((*types.DelegationEdge)(nil)).
		Column("delegate").
		Where("delegator = ?", delegator).
		Where("scope = ?", scope).
		Where("target = ?", target).
		Scan(ctx, &delegate)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("failed to get delegate: %w", err)
	}
	return delegate, nil
}
