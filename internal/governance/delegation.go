package governance

import (
	"context"
	"fmt"
	"strings"

	"github.com/openkeyhub/governance/internal/database/types"
	"github.com/openkeyhub/governance/internal/database/types/enum"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// maxDelegationHops bounds the cycle check walk.
const maxDelegationHops = 64

// DelegateVote creates or replaces the delegator's edge for the scope and target.
// Delegation is single hop: power received by a delegate is never passed on.
func (e *Engine) DelegateVote(
	ctx context.Context, delegator, delegate string, scope enum.DelegationScope, target string,
) (edge *types.DelegationEdge, err error) {
	ctx, span := e.startSpan(ctx, "DelegateVote",
		attribute.String("governance.delegator", delegator),
		attribute.String("governance.delegate", delegate),
		attribute.String("governance.scope", scope.String()))
	defer func() { endSpan(span, err) }()

	if !e.Config().Config.AllowDelegation {
		return nil, types.ErrDelegationDisabled
	}
	if delegator == "" || delegate == "" {
		return nil, fmt.Errorf("%w: delegator and delegate are required", types.ErrInvalidInput)
	}
	if delegator == delegate {
		return nil, types.ErrSelfDelegation
	}

	target, err = normalizeTarget(scope, target)
	if err != nil {
		return nil, err
	}

	edge = &types.DelegationEdge{
		Delegator: delegator,
		Scope:     scope,
		Target:    target,
		Delegate:  delegate,
		CreatedAt: e.clock.Now(),
	}

	err = e.store.SaveDelegation(ctx, edge, func(ctx context.Context, view DelegationView) error {
		return checkCycle(ctx, view, edge)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save delegation: %w", err)
	}

	e.logger.Info("Saved delegation",
		zap.String("delegator", delegator),
		zap.String("delegate", delegate),
		zap.String("scope", scope.String()),
		zap.String("target", target))

	return edge, nil
}

// checkCycle walks the delegate chain for the edge's scope and target and fails
// if it leads back to the delegator.
func checkCycle(ctx context.Context, view DelegationView, edge *types.DelegationEdge) error {
	current := edge.Delegate
	for range maxDelegationHops {
		next, err := view.DelegateOf(ctx, current, edge.Scope, edge.Target)
		if err != nil {
			return err
		}
		if next == "" {
			return nil
		}
		if next == edge.Delegator {
			return fmt.Errorf("%w: %s already delegates to %s through %s",
				types.ErrCyclicDelegation, edge.Delegate, edge.Delegator, current)
		}
		current = next
	}
	return fmt.Errorf("%w: chain exceeds %d hops", types.ErrCyclicDelegation, maxDelegationHops)
}

// RevokeDelegation removes the delegator's edge for the scope and target.
// Votes already cast with the delegated power are not changed.
func (e *Engine) RevokeDelegation(ctx context.Context, delegator string, scope enum.DelegationScope, target string) error {
	target, err := normalizeTarget(scope, target)
	if err != nil {
		return err
	}

	if err := e.store.DeleteDelegation(ctx, delegator, scope, target); err != nil {
		return fmt.Errorf("failed to revoke delegation: %w", err)
	}

	e.logger.Info("Revoked delegation",
		zap.String("delegator", delegator),
		zap.String("scope", scope.String()),
		zap.String("target", target))

	return nil
}

// EffectivePower returns the power the principal holds for exactly this scope and target:
// their own power unless they delegated it away for the same scope and target, plus the
// power of every principal delegating to them with that scope and target.
func (e *Engine) EffectivePower(ctx context.Context, principal string, scope enum.DelegationScope, target string) (uint64, error) {
	target, err := normalizeTarget(scope, target)
	if err != nil {
		return 0, err
	}

	power, err := e.ownPower(ctx, principal)
	if err != nil {
		return 0, err
	}

	if !e.Config().Config.AllowDelegation {
		return power, nil
	}

	outgoing, err := e.store.ListDelegationsFrom(ctx, principal)
	if err != nil {
		return 0, fmt.Errorf("failed to list delegations: %w", err)
	}
	for _, edge := range outgoing {
		if edge.Scope == scope && edge.Target == target {
			power = 0
			break
		}
	}

	incoming, err := e.store.ListDelegationsTo(ctx, principal)
	if err != nil {
		return 0, fmt.Errorf("failed to list delegations: %w", err)
	}

	for _, edge := range incoming {
		if edge.Scope != scope || edge.Target != target {
			continue
		}
		delegated, err := e.ownPower(ctx, edge.Delegator)
		if err != nil {
			return 0, err
		}
		power = types.SaturatingAdd(power, delegated)
	}

	return power, nil
}

// ListDelegations returns the edges a principal has granted and received.
func (e *Engine) ListDelegations(ctx context.Context, principal string) (from, to []*types.DelegationEdge, err error) {
	from, err = e.store.ListDelegationsFrom(ctx, principal)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list delegations: %w", err)
	}

	to, err = e.store.ListDelegationsTo(ctx, principal)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list delegations: %w", err)
	}

	return from, to, nil
}

// normalizeTarget validates the target for the scope and returns its canonical form.
func normalizeTarget(scope enum.DelegationScope, target string) (string, error) {
	target = strings.TrimSpace(target)

	switch scope {
	case enum.DelegationScopeAll:
		if target != "" {
			return "", fmt.Errorf("%w: scope All takes no target", types.ErrInvalidInput)
		}
		return "", nil
	case enum.DelegationScopeRepository:
		if target == "" {
			return "", fmt.Errorf("%w: repository scope requires a repository ID", types.ErrInvalidInput)
		}
		return target, nil
	case enum.DelegationScopeProposalType:
		kind, err := enum.ProposalKindString(target)
		if err != nil {
			return "", fmt.Errorf("%w: unknown proposal type %q", types.ErrInvalidInput, target)
		}
		return kind.String(), nil
	}
	return "", fmt.Errorf("%w: unknown delegation scope", types.ErrInvalidInput)
}
