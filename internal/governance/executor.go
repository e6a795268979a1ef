package governance

import (
	"context"
	"fmt"

	"github.com/openkeyhub/governance/internal/database/types"
	"go.uber.org/zap"
)

// LogExecutor records the effect of each payload without touching external systems.
// Deployments that act on repositories or the treasury supply their own Executor.
type LogExecutor struct {
	logger *zap.Logger
}

// NewLogExecutor creates a new log executor.
func NewLogExecutor(logger *zap.Logger) *LogExecutor {
	return &LogExecutor{
		logger: logger.Named("executor"),
	}
}

// Execute implements Executor.
func (x *LogExecutor) Execute(_ context.Context, p *types.Proposal) (string, error) {
	var summary string

	switch payload := p.Payload.ProposalPayload.(type) {
	case types.RepositoryUpdate:
		summary = fmt.Sprintf("repository %s settings updated (%d keys)", payload.RepositoryID, len(payload.NewSettings))
	case types.PlatformUpgrade:
		summary = fmt.Sprintf("platform upgrade to %s scheduled", payload.Version)
	case types.TreasurySpend:
		summary = fmt.Sprintf("treasury spend of %d to %s approved", payload.Amount, payload.Recipient)
	case types.GovernanceConfigChange:
		summary = "governance config change recorded"
	case types.CollaboratorPromotion:
		summary = fmt.Sprintf("%s granted %s on %s", payload.Collaborator, payload.NewPermission, payload.RepositoryID)
	case types.CustomProposal:
		summary = fmt.Sprintf("custom proposal recorded (%d bytes of execution data)", len(payload.ExecutionData))
	default:
		return "", fmt.Errorf("%w: %T", types.ErrUnknownPayload, payload)
	}

	x.logger.Info("Executed proposal",
		zap.String("proposalID", p.ID),
		zap.String("kind", p.Kind.String()),
		zap.String("summary", summary))

	return summary, nil
}
