package service

import (
	"context"

	"teller/internal/ledger"
)

// PostingResult reports a service-confirmed deposit or withdrawal. NewBalance
// is the old cached balance adjusted by the confirmed amount; it carries the
// account id so a caller can discard results for accounts it no longer shows.
type PostingResult struct {
	AccountID  string
	NewBalance int64
}

// TransactionService orchestrates deposits and withdrawals. Balance updates
// are optimistic-on-confirmation: the new balance is computed only after the
// service accepts the posting, never before, and never rolled back.
type TransactionService struct {
	Ledger   Ledger
	Currency string
}

// Deposit validates amountText, posts the deposit, and on acceptance returns
// the adjusted balance. Unparsable or non-positive amounts fail locally
// without touching the network.
func (s *TransactionService) Deposit(ctx context.Context, acct ledger.Account, amountText string) (PostingResult, error) {
	cents, err := parsePositive(amountText)
	if err != nil {
		return PostingResult{}, err
	}
	if err := s.Ledger.Deposit(ctx, acct.ID, cents); err != nil {
		return PostingResult{}, err
	}
	return PostingResult{AccountID: acct.ID, NewBalance: acct.Balance + cents}, nil
}

// Withdraw is Deposit's mirror with one extra local precondition: the amount
// must not exceed the last known balance. A stale local view can still pass
// here; the service's own rejection is returned untouched in that case.
func (s *TransactionService) Withdraw(ctx context.Context, acct ledger.Account, amountText string) (PostingResult, error) {
	cents, err := parsePositive(amountText)
	if err != nil {
		return PostingResult{}, err
	}
	if cents > acct.Balance {
		return PostingResult{}, &InsufficientFundsError{Balance: ledger.FormatMoney(s.Currency, acct.Balance)}
	}
	if err := s.Ledger.Withdraw(ctx, acct.ID, cents); err != nil {
		return PostingResult{}, err
	}
	return PostingResult{AccountID: acct.ID, NewBalance: acct.Balance - cents}, nil
}

// History fetches the transaction ledger for an account. Callers invoke it
// after a successful posting so the new entry appears.
func (s *TransactionService) History(ctx context.Context, accountID string) ([]ledger.Transaction, error) {
	return s.Ledger.Transactions(ctx, accountID)
}

func parsePositive(amountText string) (int64, error) {
	cents, err := ledger.ParseCents(amountText)
	if err != nil || cents <= 0 {
		return 0, &ValidationError{Reason: "amount must be greater than zero"}
	}
	return cents, nil
}
