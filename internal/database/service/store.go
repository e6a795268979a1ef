package service

import (
	"github.com/openkeyhub/governance/internal/database/models"
	"github.com/openkeyhub/governance/internal/governance"
	"go.uber.org/zap"
)

var _ governance.Store = (*StoreService)(nil)

// StoreService is the Postgres-backed governance store. It combines the
// proposal, delegation, discussion, config and history models.
type StoreService struct {
	*models.ProposalModel
	*models.DelegationModel
	*models.DiscussionModel
	*models.ConfigModel
	*models.HistoryModel

	logger *zap.Logger
}

// NewStore creates a new store service.
func NewStore(
	proposal *models.ProposalModel,
	delegation *models.DelegationModel,
	discussion *models.DiscussionModel,
	config *models.ConfigModel,
	history *models.HistoryModel,
	logger *zap.Logger,
) *StoreService {
	return &StoreService{
		ProposalModel:   proposal,
		DelegationModel: delegation,
		DiscussionModel: discussion,
		ConfigModel:     config,
		HistoryModel:    history,
		logger:          logger.Named("store_service"),
	}
}
