package memstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/openkeyhub/governance/internal/database/types"
	"github.com/openkeyhub/governance/internal/database/types/enum"
	"github.com/openkeyhub/governance/internal/governance"
)

var _ governance.TokenLedger = (*Ledger)(nil)

// Ledger is an in-memory token ledger. Unknown principals hold nothing.
type Ledger struct {
	mu       sync.Mutex
	accounts map[string]*types.Account
	deposits map[string]*types.Deposit
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		accounts: make(map[string]*types.Account),
		deposits: make(map[string]*types.Deposit),
	}
}

// SetAccount sets a principal's balance and stake.
func (l *Ledger) SetAccount(principal string, balance, staked uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.accounts[principal] = &types.Account{
		Principal: principal,
		Balance:   balance,
		Staked:    staked,
		UpdatedAt: time.Now(),
	}
}

// Deposit returns the escrow record for a proposal.
func (l *Ledger) Deposit(proposalID string) (types.Deposit, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	d, ok := l.deposits[proposalID]
	if !ok {
		return types.Deposit{}, false
	}
	return *d, true
}

// BalanceAndStake implements governance.TokenLedger.
func (l *Ledger) BalanceAndStake(_ context.Context, principal string) (uint64, uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	account, ok := l.accounts[principal]
	if !ok {
		return 0, 0, nil
	}
	return account.Balance, account.Staked, nil
}

// Supply implements governance.TokenLedger.
func (l *Ledger) Supply(_ context.Context) (*types.TokenSupply, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	supply := &types.TokenSupply{}
	for _, account := range l.accounts {
		supply.Circulating = types.SaturatingAdd(supply.Circulating, types.SaturatingAdd(account.Balance, account.Staked))
		supply.Staked = types.SaturatingAdd(supply.Staked, account.Staked)
	}

	supply.Total = supply.Circulating
	for _, d := range l.deposits {
		if d.Status == enum.DepositStatusHeld || d.Status == enum.DepositStatusForfeited {
			supply.Total = types.SaturatingAdd(supply.Total, d.Amount)
		}
	}
	return supply, nil
}

// LockDeposit implements governance.TokenLedger.
func (l *Ledger) LockDeposit(_ context.Context, principal, proposalID string, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.deposits[proposalID]; ok {
		return fmt.Errorf("%w: deposit for %s already locked", types.ErrInvalidInput, proposalID)
	}

	account, ok := l.accounts[principal]
	if !ok || account.Balance < amount {
		return fmt.Errorf("%w: deposit of %d required", types.ErrInsufficientBalance, amount)
	}

	account.Balance -= amount
	account.UpdatedAt = time.Now()
	l.deposits[proposalID] = &types.Deposit{
		ProposalID: proposalID,
		Principal:  principal,
		Amount:     amount,
		Status:     enum.DepositStatusHeld,
		CreatedAt:  time.Now(),
	}
	return nil
}

// ReleaseDeposit implements governance.TokenLedger.
func (l *Ledger) ReleaseDeposit(_ context.Context, proposalID string, refund bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	d, ok := l.deposits[proposalID]
	if !ok {
		return fmt.Errorf("%w: %s", types.ErrDepositNotFound, proposalID)
	}
	if d.Status != enum.DepositStatusHeld {
		return nil
	}

	now := time.Now()
	d.SettledAt = &now
	d.Status = enum.DepositStatusForfeited

	if refund {
		d.Status = enum.DepositStatusRefunded
		account, ok := l.accounts[d.Principal]
		if !ok {
			account = &types.Account{Principal: d.Principal}
			l.accounts[d.Principal] = account
		}
		account.Balance += d.Amount
		account.UpdatedAt = now
	}
	return nil
}
