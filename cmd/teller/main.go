package main

import (
	"context"
	"fmt"
	"log"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"teller/internal/config"
	"teller/internal/ledger"
	"teller/internal/service"
	"teller/internal/session"
	"teller/internal/tui"
)

func main() {
	ctx := context.Background()

	// Optional .env for local development; absence is not an error.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	store := &session.FileStore{}
	mgr := &session.Manager{Store: store}
	if err := mgr.Restore(); err != nil {
		log.Fatalf("restore session: %v", err)
	}

	client := ledger.New(cfg.Server.URL, cfg.Server.Timeout(), mgr.Token)
	mgr.API = client

	accounts := &service.AccountService{Ledger: client}
	postings := &service.TransactionService{Ledger: client, Currency: cfg.UI.CurrencySymbol}

	p := tea.NewProgram(tui.New(ctx, cfg, mgr, accounts, postings), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("error: %v\n", err)
	}
}
