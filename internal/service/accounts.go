package service

import (
	"context"
	"strings"

	"teller/internal/ledger"
)

// Ledger is the slice of the ledger client the services consume.
type Ledger interface {
	Accounts(ctx context.Context, username string) ([]ledger.Account, error)
	CreateAccount(ctx context.Context, name string) error
	DeleteAccount(ctx context.Context, id string) error
	Transactions(ctx context.Context, accountID string) ([]ledger.Transaction, error)
	Deposit(ctx context.Context, accountID string, cents int64) error
	Withdraw(ctx context.Context, accountID string, cents int64) error
}

// AccountService orchestrates account listing, creation and deletion.
type AccountService struct {
	Ledger Ledger
}

// List fetches the accounts owned by username, in service order.
func (s *AccountService) List(ctx context.Context, username string) ([]ledger.Account, error) {
	return s.Ledger.Accounts(ctx, username)
}

// Create requests a new account. The name must be non-empty after trimming;
// the caller refetches the list afterwards rather than inserting a local
// placeholder with a made-up id.
func (s *AccountService) Create(ctx context.Context, name string) error {
	if strings.TrimSpace(name) == "" {
		return &ValidationError{Reason: "account name must not be empty"}
	}
	return s.Ledger.CreateAccount(ctx, strings.TrimSpace(name))
}

// Delete requests deletion of an account. The last known balance must be
// exactly zero or the request is never sent; the service stays authoritative
// and its own rejection, if any, is surfaced to the caller.
func (s *AccountService) Delete(ctx context.Context, acct ledger.Account) error {
	if acct.Balance != 0 {
		return &ValidationError{Reason: "account balance must be zero before deletion"}
	}
	return s.Ledger.DeleteAccount(ctx, acct.ID)
}
