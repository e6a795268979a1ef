package types

import (
	"time"

	"github.com/openkeyhub/governance/internal/database/types/enum"
)

// Account holds a principal's token balance and stake.
type Account struct {
	Principal string    `bun:",pk"      json:"principal"`
	Balance   uint64    `bun:",notnull" json:"balance"`
	Staked    uint64    `bun:",notnull" json:"staked"`
	UpdatedAt time.Time `bun:",notnull" json:"updatedAt"`
}

// Deposit is the amount locked for a proposal.
type Deposit struct {
	ProposalID string             `bun:",pk"       json:"proposalId"`
	Principal  string             `bun:",notnull"  json:"principal"`
	Amount     uint64             `bun:",notnull"  json:"amount"`
	Status     enum.DepositStatus `bun:",notnull"  json:"status"`
	CreatedAt  time.Time          `bun:",notnull"  json:"createdAt"`
	SettledAt  *time.Time         `bun:",nullzero" json:"settledAt,omitempty"`
}
