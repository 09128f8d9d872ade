package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"teller/internal/ledger"
)

// styles
var (
	titleStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

func (a *App) View() string {
	var body string
	switch a.state {
	case viewDashboard:
		body = a.renderDashboard()
	default:
		body = a.renderAuth()
	}
	if a.modal != modalNone {
		body += "\n\n" + a.renderModal()
	}
	if a.confirm.visible() {
		body += "\n\n" + a.renderConfirm()
	}
	return body
}

func (a *App) renderAuth() string {
	title := "Teller — Sign in"
	action := "Sign in"
	toggle := "register instead"
	if a.mode == modeRegister {
		title = "Teller — New user"
		action = "Register"
		toggle = "back to sign in"
	}
	out := titleStyle.Render(title) + "\n"
	out += "Username: " + a.userInput.View() + "\n"
	out += "Password: " + a.passInput.View() + "\n"
	out += dimStyle.Render(fmt.Sprintf("[tab] Switch field  [enter] %s  [ctrl+r] %s  [ctrl+c] Quit", action, toggle))
	if a.status != "" {
		out += "\n" + a.status
	}
	return out
}

func (a *App) renderDashboard() string {
	out := titleStyle.Render("Accounts — "+a.session.Username()) + "\n"
	if len(a.accts) == 0 {
		out += "(no accounts yet, press n to create one)\n"
	}
	for i, acct := range a.accts {
		marker := " "
		if i == a.cursor {
			marker = "▶"
		}
		out += fmt.Sprintf("%s %-8s  %-24s  %10s\n", marker, shortID(acct.ID), acct.Name, ledger.FormatMoney(a.currency, acct.Balance))
	}
	out += dimStyle.Render("[enter] Transactions  [n] New account  [x] Delete  [R] Refresh  [L] Log out  [q] Quit")
	if a.status != "" {
		out += "\n" + a.status
	}
	return out
}

func (a *App) renderModal() string {
	switch a.modal {
	case modalNewAccount:
		return titleStyle.Render("New account") + fmt.Sprintf("\n%s\n", a.nameBuffer) + dimStyle.Render("[enter] Create  [esc] Cancel")
	case modalTransactions:
		return a.renderTransactions()
	default:
		return ""
	}
}

func (a *App) renderTransactions() string {
	acct := a.accountByID(a.selectedID)
	if acct == nil {
		return ""
	}
	out := titleStyle.Render(fmt.Sprintf("%s — %s", acct.Name, ledger.FormatMoney(a.currency, acct.Balance))) + "\n"
	if len(a.history) == 0 {
		out += "(no transactions)\n"
	}
	for _, t := range a.history {
		date := "-"
		if t.Date != nil {
			date = t.Date.Format(a.cfg.UI.DateFormat)
		}
		out += fmt.Sprintf("%-8s  %10s  %s\n", t.Type, ledger.FormatMoney(a.currency, t.Amount), date)
	}
	out += "Amount: " + a.amountBuffer + "\n"
	hints := "[d] Deposit  [w] Withdraw  [esc] Close"
	if a.posting {
		hints = "posting in flight..."
	}
	out += dimStyle.Render(hints)
	return out
}

func (a *App) renderConfirm() string {
	if a.confirm.kind == confirmFailed {
		return titleStyle.Render("Delete failed") + "\n" + a.confirm.message + "\n" + dimStyle.Render("[esc] Dismiss")
	}
	out := titleStyle.Render("Confirm") + "\n" + a.confirm.message + "\n"
	if a.confirm.inFlight {
		out += dimStyle.Render("deleting...")
	} else {
		out += dimStyle.Render("[y] Yes  [n] No")
	}
	return out
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
