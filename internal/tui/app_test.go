package tui

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"teller/internal/config"
	"teller/internal/ledger"
	"teller/internal/service"
	"teller/internal/session"
)

// recordingLedger satisfies service.Ledger without any network.
type recordingLedger struct {
	calls   []string
	history []ledger.Transaction
	err     error
}

func (f *recordingLedger) Accounts(ctx context.Context, username string) ([]ledger.Account, error) {
	f.calls = append(f.calls, "accounts")
	return nil, f.err
}

func (f *recordingLedger) CreateAccount(ctx context.Context, name string) error {
	f.calls = append(f.calls, "create")
	return f.err
}

func (f *recordingLedger) DeleteAccount(ctx context.Context, id string) error {
	f.calls = append(f.calls, "delete:"+id)
	return f.err
}

func (f *recordingLedger) Transactions(ctx context.Context, accountID string) ([]ledger.Transaction, error) {
	f.calls = append(f.calls, "transactions:"+accountID)
	return f.history, f.err
}

func (f *recordingLedger) Deposit(ctx context.Context, accountID string, cents int64) error {
	f.calls = append(f.calls, "deposit:"+accountID+":"+ledger.FormatCents(cents))
	return f.err
}

func (f *recordingLedger) Withdraw(ctx context.Context, accountID string, cents int64) error {
	f.calls = append(f.calls, "withdraw:"+accountID+":"+ledger.FormatCents(cents))
	return f.err
}

func newTestApp(t *testing.T, authenticated bool) (*App, *recordingLedger, *session.Manager) {
	t.Helper()
	store := &session.FileStore{Dir: t.TempDir()}
	if authenticated {
		require.NoError(t, store.Save("t1", "alice"))
	}
	mgr := &session.Manager{Store: store}
	require.NoError(t, mgr.Restore())

	fake := &recordingLedger{}
	cfg := config.Config{UI: config.UIConfig{CurrencySymbol: "€", DateFormat: "02/01/2006 15:04"}}
	app := New(context.Background(), cfg, mgr,
		&service.AccountService{Ledger: fake},
		&service.TransactionService{Ledger: fake, Currency: "€"})
	return app, fake, mgr
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func update(t *testing.T, app *App, msg tea.Msg) (*App, tea.Cmd) {
	t.Helper()
	model, cmd := app.Update(msg)
	a, ok := model.(*App)
	require.True(t, ok)
	return a, cmd
}

func TestStartsOnDashboardWithPersistedToken(t *testing.T) {
	t.Parallel()

	app, _, _ := newTestApp(t, true)
	require.Equal(t, viewDashboard, app.state)
	require.NotNil(t, app.Init(), "startup must kick off an account load")

	unauth, _, _ := newTestApp(t, false)
	require.Equal(t, viewAuth, unauth.state)
}

func TestRegisterSuccessReturnsToLoginMode(t *testing.T) {
	t.Parallel()

	app, _, _ := newTestApp(t, false)
	app.mode = modeRegister

	app, cmd := update(t, app, authDoneMsg{mode: modeRegister})
	require.Nil(t, cmd, "register success must not start a session or load accounts")
	require.Equal(t, modeLogin, app.mode)
	require.Equal(t, viewAuth, app.state)
	require.Contains(t, app.status, "sign in")
}

func TestAuthFailureShowsMessageAndStays(t *testing.T) {
	t.Parallel()

	app, _, _ := newTestApp(t, false)
	app, _ = update(t, app, authDoneMsg{mode: modeLogin, err: &session.AuthError{Message: "invalid credentials"}})
	require.Equal(t, viewAuth, app.state)
	require.Equal(t, "invalid credentials", app.status)
	require.False(t, app.authBusy)
}

func TestOptimisticBalanceAppliedAndHistoryRefetched(t *testing.T) {
	t.Parallel()

	app, _, _ := newTestApp(t, true)
	app, _ = update(t, app, accountsMsg{{ID: "a1", Name: "Checking", Balance: 10000}})
	app.selectedID = "a1"
	app.modal = modalTransactions

	app, cmd := update(t, app, postingDoneMsg{res: service.PostingResult{AccountID: "a1", NewBalance: 15000}})
	require.Equal(t, int64(15000), app.accts[0].Balance)
	require.NotNil(t, cmd, "a successful posting must refresh the transaction list")
	msg := cmd()
	history, ok := msg.(historyMsg)
	require.True(t, ok)
	require.Equal(t, "a1", history.accountID)
}

func TestStalePostingResponseDiscarded(t *testing.T) {
	t.Parallel()

	app, _, _ := newTestApp(t, true)
	app, _ = update(t, app, accountsMsg{{ID: "a2", Name: "Savings", Balance: 500}})

	// Response for an account no longer shown: no crash, no state change.
	app, cmd := update(t, app, postingDoneMsg{res: service.PostingResult{AccountID: "a1", NewBalance: 99999}})
	require.Nil(t, cmd)
	require.Equal(t, int64(500), app.accts[0].Balance)

	// History for a non-selected account is dropped too.
	app.selectedID = "a2"
	app, _ = update(t, app, historyMsg{accountID: "a1", items: []ledger.Transaction{{ID: "tx"}}})
	require.Empty(t, app.history)
}

func TestDepositDoubleSubmitIgnoredWhileInFlight(t *testing.T) {
	t.Parallel()

	app, fake, _ := newTestApp(t, true)
	app, _ = update(t, app, accountsMsg{{ID: "a1", Name: "Checking", Balance: 10000}})
	app.selectedID = "a1"
	app.modal = modalTransactions
	app.amountBuffer = "50"

	app, cmd := update(t, app, key("d"))
	require.NotNil(t, cmd)

	app, second := update(t, app, key("d"))
	require.Nil(t, second, "second press while in flight must be inert")
	app, third := update(t, app, key("w"))
	require.Nil(t, third)

	require.NotNil(t, cmd())
	require.Equal(t, []string{"deposit:a1:50.00"}, fake.calls)
}

func TestDeleteControlInertForNonzeroBalance(t *testing.T) {
	t.Parallel()

	app, fake, _ := newTestApp(t, true)
	app, _ = update(t, app, accountsMsg{{ID: "a1", Name: "Checking", Balance: 15000}})

	app, cmd := update(t, app, key("x"))
	require.Nil(t, cmd)
	require.False(t, app.confirm.visible(), "delete must be unreachable while balance is non-zero")
	require.Contains(t, app.status, "€150.00")
	require.Empty(t, fake.calls)
}

func TestConfirmedDeleteFiresOnce(t *testing.T) {
	t.Parallel()

	app, fake, _ := newTestApp(t, true)
	app, _ = update(t, app, accountsMsg{{ID: "a1", Name: "Old", Balance: 0}})

	app, _ = update(t, app, key("x"))
	require.True(t, app.confirm.visible())

	app, cmd := update(t, app, key("y"))
	require.NotNil(t, cmd)
	app, repeat := update(t, app, key("y"))
	require.Nil(t, repeat, "confirm must fire at most once per request")

	msg := cmd()
	require.Equal(t, []string{"delete:a1"}, fake.calls)

	app, refresh := update(t, app, msg)
	require.False(t, app.confirm.visible())
	require.Empty(t, app.accts, "account leaves the local collection after a confirmed delete")
	require.NotNil(t, refresh)
}

func TestDeleteRejectionBecomesDismissOnlyError(t *testing.T) {
	t.Parallel()

	app, fake, _ := newTestApp(t, true)
	fake.err = &ledger.APIError{Status: 400, Message: "Account has pending holds"}
	app, _ = update(t, app, accountsMsg{{ID: "a1", Name: "Old", Balance: 0}})

	app, _ = update(t, app, key("x"))
	app, cmd := update(t, app, key("y"))
	app, _ = update(t, app, cmd())

	require.Equal(t, confirmFailed, app.confirm.kind)
	require.Equal(t, "Account has pending holds", app.confirm.message)
	require.Len(t, app.accts, 1, "rejected delete must leave the account in place")

	app, _ = update(t, app, key("esc"))
	require.False(t, app.confirm.visible())
}

func TestUnauthorizedResponseForcesLogout(t *testing.T) {
	t.Parallel()

	app, _, mgr := newTestApp(t, true)
	app, _ = update(t, app, accountsMsg{{ID: "a1", Name: "Checking", Balance: 100}})

	app, _ = update(t, app, errMsg{&ledger.APIError{Status: 401}})
	require.Equal(t, viewAuth, app.state)
	require.False(t, mgr.Authenticated())
	require.Empty(t, app.accts)

	// Repeated triggers are harmless.
	app, _ = update(t, app, errMsg{&ledger.APIError{Status: 403}})
	require.Equal(t, viewAuth, app.state)

	// The durable store was cleared as well.
	require.NoError(t, mgr.Restore())
	require.False(t, mgr.Authenticated())
}

func TestValidationFailuresLandOnStatusLine(t *testing.T) {
	t.Parallel()

	app, fake, _ := newTestApp(t, true)
	app, _ = update(t, app, accountsMsg{{ID: "a1", Name: "Checking", Balance: 15000}})
	app.selectedID = "a1"
	app.modal = modalTransactions
	app.amountBuffer = "500"

	// Locally known insufficient funds: rejected before the network.
	app, cmd := update(t, app, key("w"))
	require.NotNil(t, cmd)
	app, _ = update(t, app, cmd())
	require.Contains(t, app.status, "€150.00")
	require.Empty(t, fake.calls, "insufficient funds must not reach the service")
	require.False(t, app.posting)

	// Non-positive amount: same treatment.
	app.amountBuffer = "0"
	app, cmd = update(t, app, key("d"))
	app, _ = update(t, app, cmd())
	require.Equal(t, "amount must be greater than zero", app.status)
	require.Empty(t, fake.calls)
}

func TestLogoutKeyClearsSession(t *testing.T) {
	t.Parallel()

	app, _, mgr := newTestApp(t, true)
	app, _ = update(t, app, accountsMsg{{ID: "a1", Name: "Checking", Balance: 100}})

	app, _ = update(t, app, key("L"))
	require.Equal(t, viewAuth, app.state)
	require.False(t, mgr.Authenticated())
	require.Equal(t, "signed out", app.status)
}
