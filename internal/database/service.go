package database

import (
	"github.com/openkeyhub/governance/internal/database/service"
	"go.uber.org/zap"
)

// Service exposes the Postgres implementations of the engine's store and ledger.
type Service struct {
	store  *service.StoreService
	ledger *service.LedgerService
}

// NewService wires the services over the repository models.
func NewService(repository *Repository, logger *zap.Logger) *Service {
	return &Service{
		store: service.NewStore(
			repository.Proposal(),
			repository.Delegation(),
			repository.Discussion(),
			repository.Config(),
			repository.History(),
			logger,
		),
		ledger: service.NewLedger(repository.Account(), logger),
	}
}

// Store returns the governance store service.
func (s *Service) Store() *service.StoreService {
	return s.store
}

// Ledger returns the token ledger service.
func (s *Service) Ledger() *service.LedgerService {
	return s.ledger
}
