package ledger

import (
	"encoding/json"
	"time"
)

// Account is the client's view of an account row on the ledger service.
// Balance is held in cents; the wire carries a two-decimal number.
type Account struct {
	ID       string
	Name     string
	Username string
	Balance  int64
}

// Transaction types as recorded by the ledger service.
const (
	TypeDeposit  = "DEPOSIT"
	TypeWithdraw = "WITHDRAW"
)

// Transaction is an immutable posting on an account. Date is nil for rows
// created before the service recorded timestamps.
type Transaction struct {
	ID        string
	AccountID string
	Amount    int64
	Type      string
	Date      *time.Time
}

// accountWire matches the service's account JSON. Older service builds embed
// the owner as a user object, newer ones flatten it to a username field; the
// client accepts both.
type accountWire struct {
	ID      string      `json:"id"`
	Name    string      `json:"name"`
	Balance json.Number `json:"balance"`
	User    *struct {
		Username string `json:"username"`
	} `json:"user"`
	Username string `json:"username"`
}

func (w accountWire) toAccount() Account {
	a := Account{
		ID:      w.ID,
		Name:    w.Name,
		Balance: CentsFromNumber(w.Balance),
	}
	if w.User != nil && w.User.Username != "" {
		a.Username = w.User.Username
	} else {
		a.Username = w.Username
	}
	return a
}

type transactionWire struct {
	ID        string      `json:"id"`
	AccountID string      `json:"accountId"`
	Amount    json.Number `json:"amount"`
	Type      string      `json:"type"`
	Date      *time.Time  `json:"date"`
}

func (w transactionWire) toTransaction(accountID string) Transaction {
	t := Transaction{
		ID:        w.ID,
		AccountID: w.AccountID,
		Amount:    CentsFromNumber(w.Amount),
		Type:      w.Type,
		Date:      w.Date,
	}
	if t.AccountID == "" {
		t.AccountID = accountID
	}
	return t
}
