package governance

import (
	"context"
	"fmt"
	"math"

	"github.com/openkeyhub/governance/internal/database/types"
	"github.com/openkeyhub/governance/internal/database/types/enum"
)

// GetVotingStats reports token supply and governance participation.
func (e *Engine) GetVotingStats(ctx context.Context) (*types.VotingStats, error) {
	if _, err := e.advanceDue(ctx); err != nil {
		return nil, err
	}

	supply, err := e.ledger.Supply(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get token supply: %w", err)
	}

	voters, err := e.store.CountDistinctVoters(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count voters: %w", err)
	}

	turnouts, err := e.store.ListTurnouts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list turnouts: %w", err)
	}

	return &types.VotingStats{
		TotalSupply:       supply.Total,
		CirculatingSupply: supply.Circulating,
		TotalStaked:       supply.Staked,
		ActiveVoters:      voters,
		ParticipationRate: ParticipationRate(turnouts),
	}, nil
}

// ParticipationRate is the mean percentage of staked supply that voted across
// finalized proposals. Each proposal's turnout is capped at 100.
func ParticipationRate(turnouts []types.Turnout) float64 {
	var (
		sum   float64
		count int
	)

	for _, t := range turnouts {
		if t.Staked == 0 {
			continue
		}
		sum += math.Min(float64(t.Cast)/float64(t.Staked)*100, 100)
		count++
	}

	if count == 0 {
		return 0
	}
	return roundPercent(sum / float64(count))
}

// GetTokenInfo returns a principal's holdings, delegations and governance standing.
func (e *Engine) GetTokenInfo(ctx context.Context, principal string) (*types.TokenInfo, error) {
	if principal == "" {
		return nil, fmt.Errorf("%w: principal is required", types.ErrInvalidInput)
	}

	balance, staked, err := e.ledger.BalanceAndStake(ctx, principal)
	if err != nil {
		return nil, fmt.Errorf("failed to get balance: %w", err)
	}

	power, err := e.EffectivePower(ctx, principal, enum.DelegationScopeAll, "")
	if err != nil {
		return nil, err
	}

	from, to, err := e.ListDelegations(ctx, principal)
	if err != nil {
		return nil, err
	}

	history, err := e.store.VoterHistory(ctx, principal)
	if err != nil {
		return nil, fmt.Errorf("failed to get voter history: %w", err)
	}

	return &types.TokenInfo{
		Principal:       principal,
		Balance:         balance,
		Staked:          staked,
		VotingPower:     power,
		DelegatedTo:     from,
		DelegatedFrom:   to,
		LastActivityAt:  history.LastActivityAt,
		ReputationScore: ReputationScore(history.Outcomes),
	}, nil
}

// ReputationScore is the percentage of a principal's yes and no votes on decided
// proposals that agreed with the outcome. Abstentions and undecided proposals are ignored.
func ReputationScore(outcomes []types.VoterOutcome) float64 {
	var decided, agreed int

	for _, o := range outcomes {
		if o.Choice == enum.VoteChoiceAbstain || !o.Status.IsFinalized() {
			continue
		}
		decided++

		approved := o.Status.Approved()
		if (o.Choice == enum.VoteChoiceYes) == approved {
			agreed++
		}
	}

	if decided == 0 {
		return 0
	}
	return roundPercent(float64(agreed) / float64(decided) * 100)
}

func roundPercent(v float64) float64 {
	return math.Round(v*100) / 100
}
