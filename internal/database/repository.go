package database

import (
	"github.com/openkeyhub/governance/internal/database/models"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// Repository provides access to all database models.
type Repository struct {
	proposal   *models.ProposalModel
	delegation *models.DelegationModel
	discussion *models.DiscussionModel
	config     *models.ConfigModel
	history    *models.HistoryModel
	account    *models.AccountModel
}

// NewRepository creates a new repository instance with all models.
func NewRepository(db *bun.DB, logger *zap.Logger) *Repository {
	return &Repository{
		proposal:   models.NewProposal(db, logger),
		delegation: models.NewDelegation(db, logger),
		discussion: models.NewDiscussion(db, logger),
		config:     models.NewConfig(db, logger),
		history:    models.NewHistory(db, logger),
		account:    models.NewAccount(db, logger),
	}
}

// Proposal returns the proposal model repository.
func (r *Repository) Proposal() *models.ProposalModel {
	return r.proposal
}

// Delegation returns the delegation model repository.
func (r *Repository) Delegation() *models.DelegationModel {
	return r.delegation
}

// Discussion returns the discussion model repository.
func (r *Repository) Discussion() *models.DiscussionModel {
	return r.discussion
}

// Config returns the config model repository.
func (r *Repository) Config() *models.ConfigModel {
	return r.config
}

// History returns the history model repository.
func (r *Repository) History() *models.HistoryModel {
	return r.history
}

// Account returns the account model repository.
func (r *Repository) Account() *models.AccountModel {
	return r.account
}
