package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"teller/internal/config"
	"teller/internal/ledger"
	"teller/internal/service"
	"teller/internal/session"
)

// App ties together views.
type App struct {
	ctx      context.Context
	cfg      config.Config
	session  *session.Manager
	accounts *service.AccountService
	postings *service.TransactionService

	state viewState
	mode  authMode

	userInput textinput.Model
	passInput textinput.Model
	focusPass bool
	authBusy  bool

	accts  []ledger.Account
	cursor int

	modal        modalState
	nameBuffer   string
	creating     bool
	selectedID   string
	history      []ledger.Transaction
	amountBuffer string
	posting      bool

	confirm confirmState

	status   string
	currency string
}

type viewState string

const (
	viewAuth      viewState = "auth"
	viewDashboard viewState = "dashboard"
)

type authMode string

const (
	modeLogin    authMode = "login"
	modeRegister authMode = "register"
)

type modalState string

const (
	modalNone         modalState = ""
	modalNewAccount   modalState = "newAccount"
	modalTransactions modalState = "transactions"
)

func New(ctx context.Context, cfg config.Config, sess *session.Manager, accounts *service.AccountService, postings *service.TransactionService) *App {
	user := textinput.New()
	user.Placeholder = "username"
	user.Focus()
	pass := textinput.New()
	pass.Placeholder = "password"
	pass.EchoMode = textinput.EchoPassword
	pass.EchoCharacter = '•'

	state := viewAuth
	if sess.Authenticated() {
		// A persisted token is trusted until a protected call says otherwise.
		state = viewDashboard
	}
	return &App{
		ctx:       ctx,
		cfg:       cfg,
		session:   sess,
		accounts:  accounts,
		postings:  postings,
		state:     state,
		mode:      modeLogin,
		userInput: user,
		passInput: pass,
		currency:  cfg.UI.CurrencySymbol,
	}
}

func (a *App) Init() tea.Cmd {
	if a.state == viewDashboard {
		return tea.Batch(textinput.Blink, a.loadAccountsCmd())
	}
	return textinput.Blink
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m := msg.(type) {
	case tea.KeyMsg:
		if a.confirm.visible() {
			return a.handleConfirmKey(m)
		}
		if a.modal != modalNone {
			return a.handleModalKey(m)
		}
		if a.state == viewAuth {
			return a.handleAuthKey(m)
		}
		return a.handleDashboardKey(m)

	case accountsMsg:
		a.accts = []ledger.Account(m)
		if a.cursor >= len(a.accts) {
			a.cursor = 0
		}
		if a.selectedID != "" && a.accountByID(a.selectedID) == nil {
			a.closeTransactions()
		}

	case historyMsg:
		// Drop ledgers for accounts the user has already navigated away from.
		if m.accountID == a.selectedID {
			a.history = m.items
		}

	case authDoneMsg:
		a.authBusy = false
		if m.err != nil {
			a.status = m.err.Error()
			return a, nil
		}
		if m.mode == modeRegister {
			a.mode = modeLogin
			a.passInput.SetValue("")
			a.status = "user created, sign in to continue"
			return a, nil
		}
		a.state = viewDashboard
		a.status = ""
		a.passInput.SetValue("")
		return a, a.loadAccountsCmd()

	case createDoneMsg:
		a.creating = false
		if m.err != nil {
			return a, a.applyFailure(m.err)
		}
		a.modal = modalNone
		a.nameBuffer = ""
		a.status = "account created"
		return a, a.loadAccountsCmd()

	case deleteDoneMsg:
		if m.err != nil {
			d := ledger.Classify(m.err)
			if d.Kind == ledger.DecisionLogout {
				a.confirm.resolve()
				a.forceLogout()
				return a, nil
			}
			a.confirm.fail(d.Text())
			return a, nil
		}
		a.confirm.resolve()
		a.removeAccount(m.accountID)
		a.status = "account deleted"
		return a, a.loadAccountsCmd()

	case postingDoneMsg:
		a.posting = false
		if m.err != nil {
			return a, a.applyFailure(m.err)
		}
		// Apply the confirmed balance only if the account is still shown;
		// a late response for a superseded target is discarded.
		if acct := a.accountByID(m.res.AccountID); acct != nil {
			acct.Balance = m.res.NewBalance
		}
		a.amountBuffer = ""
		a.status = ""
		if m.res.AccountID == a.selectedID {
			return a, a.loadHistoryCmd(m.res.AccountID)
		}
		return a, nil

	case errMsg:
		return a, a.applyFailure(m.error)
	}
	return a, nil
}

// commands

func (a *App) loadAccountsCmd() tea.Cmd {
	username := a.session.Username()
	return func() tea.Msg {
		accts, err := a.accounts.List(a.ctx, username)
		if err != nil {
			return errMsg{err}
		}
		return accountsMsg(accts)
	}
}

func (a *App) loadHistoryCmd(accountID string) tea.Cmd {
	return func() tea.Msg {
		items, err := a.postings.History(a.ctx, accountID)
		if err != nil {
			return errMsg{err}
		}
		return historyMsg{accountID: accountID, items: items}
	}
}

func (a *App) loginCmd(username, password string) tea.Cmd {
	return func() tea.Msg {
		return authDoneMsg{mode: modeLogin, err: a.session.Login(a.ctx, username, password)}
	}
}

func (a *App) registerCmd(username, password string) tea.Cmd {
	return func() tea.Msg {
		return authDoneMsg{mode: modeRegister, err: a.session.Register(a.ctx, username, password)}
	}
}

func (a *App) createAccountCmd(name string) tea.Cmd {
	return func() tea.Msg {
		return createDoneMsg{err: a.accounts.Create(a.ctx, name)}
	}
}

func (a *App) deleteAccountCmd(acct ledger.Account) tea.Cmd {
	return func() tea.Msg {
		return deleteDoneMsg{accountID: acct.ID, err: a.accounts.Delete(a.ctx, acct)}
	}
}

func (a *App) depositCmd(acct ledger.Account, amountText string) tea.Cmd {
	return func() tea.Msg {
		res, err := a.postings.Deposit(a.ctx, acct, amountText)
		return postingDoneMsg{res: res, err: err}
	}
}

func (a *App) withdrawCmd(acct ledger.Account, amountText string) tea.Cmd {
	return func() tea.Msg {
		res, err := a.postings.Withdraw(a.ctx, acct, amountText)
		return postingDoneMsg{res: res, err: err}
	}
}

// key handlers

func (a *App) handleAuthKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.String() {
	case "ctrl+c":
		return a, tea.Quit
	case "ctrl+r":
		if a.mode == modeLogin {
			a.mode = modeRegister
			a.status = "registering a new user"
		} else {
			a.mode = modeLogin
			a.status = ""
		}
		return a, nil
	case "tab", "shift+tab", "up", "down":
		a.focusPass = !a.focusPass
		if a.focusPass {
			a.userInput.Blur()
			return a, a.passInput.Focus()
		}
		a.passInput.Blur()
		return a, a.userInput.Focus()
	case "enter":
		if a.authBusy {
			return a, nil
		}
		username := strings.TrimSpace(a.userInput.Value())
		password := a.passInput.Value()
		a.authBusy = true
		if a.mode == modeRegister {
			a.status = "registering..."
			return a, a.registerCmd(username, password)
		}
		a.status = "signing in..."
		return a, a.loginCmd(username, password)
	}

	var cmd tea.Cmd
	if a.focusPass {
		a.passInput, cmd = a.passInput.Update(m)
	} else {
		a.userInput, cmd = a.userInput.Update(m)
	}
	return a, cmd
}

func (a *App) handleDashboardKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.String() {
	case "q", "ctrl+c":
		return a, tea.Quit
	case "up", "k":
		if a.cursor > 0 {
			a.cursor--
		}
	case "down", "j":
		if a.cursor < len(a.accts)-1 {
			a.cursor++
		}
	case "n":
		a.modal = modalNewAccount
		a.nameBuffer = ""
		a.status = ""
	case "enter", "t":
		if len(a.accts) == 0 {
			a.status = "no accounts yet"
			return a, nil
		}
		acct := a.accts[a.cursor]
		a.selectedID = acct.ID
		a.modal = modalTransactions
		a.amountBuffer = ""
		a.history = nil
		return a, a.loadHistoryCmd(acct.ID)
	case "x", "backspace", "delete":
		if len(a.accts) == 0 {
			return a, nil
		}
		acct := a.accts[a.cursor]
		if acct.Balance != 0 {
			a.status = fmt.Sprintf("cannot delete %q: balance is %s, withdraw it first", acct.Name, ledger.FormatMoney(a.currency, acct.Balance))
			return a, nil
		}
		a.confirm.request(acct.ID, fmt.Sprintf("Delete account %q? This cannot be undone.", acct.Name))
	case "R":
		a.status = "refreshing..."
		return a, a.loadAccountsCmd()
	case "L":
		a.session.Logout()
		a.toAuthView("signed out")
	}
	return a, nil
}

func (a *App) handleModalKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch a.modal {
	case modalNewAccount:
		switch m.Type {
		case tea.KeyEsc:
			a.modal = modalNone
			a.nameBuffer = ""
		case tea.KeyEnter:
			if a.creating {
				return a, nil
			}
			if strings.TrimSpace(a.nameBuffer) == "" {
				a.status = "enter an account name"
				return a, nil
			}
			a.creating = true
			return a, a.createAccountCmd(a.nameBuffer)
		case tea.KeyBackspace, tea.KeyCtrlH:
			if len(a.nameBuffer) > 0 {
				a.nameBuffer = a.nameBuffer[:len(a.nameBuffer)-1]
			}
		case tea.KeySpace:
			a.nameBuffer += " "
		case tea.KeyRunes:
			a.nameBuffer += string(m.Runes)
		}
	case modalTransactions:
		switch m.Type {
		case tea.KeyEsc:
			a.closeTransactions()
		case tea.KeyBackspace, tea.KeyCtrlH:
			if len(a.amountBuffer) > 0 {
				a.amountBuffer = a.amountBuffer[:len(a.amountBuffer)-1]
			}
		case tea.KeyRunes:
			for _, r := range m.Runes {
				switch {
				case r >= '0' && r <= '9', r == '.':
					a.amountBuffer += string(r)
				case r == 'd':
					return a.submitPosting(ledger.TypeDeposit)
				case r == 'w':
					return a.submitPosting(ledger.TypeWithdraw)
				case r == 'q':
					return a, tea.Quit
				}
			}
		}
	}
	return a, nil
}

// submitPosting fires a deposit or withdrawal for the open account. The
// posting flag keeps both controls inert while one request is in flight.
func (a *App) submitPosting(kind string) (tea.Model, tea.Cmd) {
	if a.posting {
		return a, nil
	}
	acct := a.accountByID(a.selectedID)
	if acct == nil {
		return a, nil
	}
	a.posting = true
	a.status = "posting..."
	if kind == ledger.TypeWithdraw {
		return a, a.withdrawCmd(*acct, a.amountBuffer)
	}
	return a, a.depositCmd(*acct, a.amountBuffer)
}

func (a *App) handleConfirmKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.confirm.kind == confirmFailed {
		switch m.String() {
		case "esc", "enter":
			a.confirm.cancel()
		}
		return a, nil
	}
	switch m.String() {
	case "y", "Y", "enter":
		id, ok := a.confirm.begin()
		if !ok {
			return a, nil
		}
		acct := a.accountByID(id)
		if acct == nil {
			a.confirm.resolve()
			return a, nil
		}
		return a, a.deleteAccountCmd(*acct)
	case "n", "N", "esc":
		a.confirm.cancel()
	}
	return a, nil
}

// helpers

// applyFailure routes an operation failure: local validation errors and
// classified service errors land on the status line, authorization failures
// tear the session down.
func (a *App) applyFailure(err error) tea.Cmd {
	var v *service.ValidationError
	if errors.As(err, &v) {
		a.status = v.Reason
		return nil
	}
	var insufficient *service.InsufficientFundsError
	if errors.As(err, &insufficient) {
		a.status = insufficient.Error()
		return nil
	}
	d := ledger.Classify(err)
	if d.Kind == ledger.DecisionLogout {
		a.forceLogout()
		return nil
	}
	a.status = d.Text()
	return nil
}

func (a *App) forceLogout() {
	a.session.Logout()
	a.toAuthView("session expired, please sign in again")
}

func (a *App) toAuthView(status string) {
	a.state = viewAuth
	a.mode = modeLogin
	a.accts = nil
	a.cursor = 0
	a.modal = modalNone
	a.confirm = confirmState{}
	a.closeTransactions()
	a.posting = false
	a.creating = false
	a.passInput.SetValue("")
	a.status = status
}

func (a *App) closeTransactions() {
	if a.modal == modalTransactions {
		a.modal = modalNone
	}
	a.selectedID = ""
	a.history = nil
	a.amountBuffer = ""
}

func (a *App) accountByID(id string) *ledger.Account {
	for i := range a.accts {
		if a.accts[i].ID == id {
			return &a.accts[i]
		}
	}
	return nil
}

func (a *App) removeAccount(id string) {
	for i := range a.accts {
		if a.accts[i].ID == id {
			a.accts = append(a.accts[:i], a.accts[i+1:]...)
			break
		}
	}
	if a.cursor >= len(a.accts) && a.cursor > 0 {
		a.cursor--
	}
}

// messages

type accountsMsg []ledger.Account

type historyMsg struct {
	accountID string
	items     []ledger.Transaction
}

type authDoneMsg struct {
	mode authMode
	err  error
}

type createDoneMsg struct{ err error }

type deleteDoneMsg struct {
	accountID string
	err       error
}

type postingDoneMsg struct {
	res service.PostingResult
	err error
}

type errMsg struct{ error }
