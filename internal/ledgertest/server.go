// Package ledgertest is an in-memory stand-in for the remote ledger service.
// It backs the integration tests and the ledgerstub development binary; the
// client itself never imports it outside of tests.
package ledgertest

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"golang.org/x/crypto/bcrypt"

	"teller/internal/ledger"
)

// Server holds users, accounts and postings in memory and implements the
// ledger's HTTP surface.
type Server struct {
	mu       sync.Mutex
	secret   []byte
	handler  http.Handler
	users    map[string][]byte            // username -> bcrypt hash
	accounts map[string]*account          // id -> account
	order    []string                     // account ids in creation order
	postings map[string][]ledger.Transaction
	tokenTTL time.Duration
}

type account struct {
	ID       string
	Name     string
	Username string
	Balance  int64
}

type claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// New builds a server signing tokens with secret.
func New(secret string) *Server {
	s := &Server{
		secret:   []byte(secret),
		users:    map[string][]byte{},
		accounts: map[string]*account{},
		postings: map[string][]ledger.Transaction{},
		tokenTTL: 24 * time.Hour,
	}

	r := mux.NewRouter()
	r.HandleFunc("/api/auth/register", s.handleRegister).Methods("POST")
	r.HandleFunc("/api/auth/login", s.handleLogin).Methods("POST")

	protected := r.PathPrefix("/api").Subrouter()
	protected.Use(s.authMiddleware)
	protected.HandleFunc("/accounts/list", s.handleListAccounts).Methods("POST")
	protected.HandleFunc("/accounts/create", s.handleCreateAccount).Methods("POST")
	protected.HandleFunc("/accounts/{accountId}", s.handleDeleteAccount).Methods("DELETE")
	protected.HandleFunc("/transactions/{accountId}", s.handleListTransactions).Methods("GET")
	protected.HandleFunc("/transactions/deposit", s.handleDeposit).Methods("POST")
	protected.HandleFunc("/transactions/withdraw", s.handleWithdraw).Methods("POST")

	s.handler = cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}).Handler(r)

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

type ctxKey int

const userKey ctxKey = 0

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			writeMessage(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		raw := strings.TrimPrefix(auth, "Bearer ")
		var c claims
		token, err := jwt.ParseWithClaims(raw, &c, func(t *jwt.Token) (any, error) {
			return s.secret, nil
		})
		if err != nil || !token.Valid || c.Username == "" {
			writeMessage(w, http.StatusUnauthorized, "invalid token")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey, c.Username)))
	})
}

func requestUser(r *http.Request) string {
	u, _ := r.Context().Value(userKey).(string)
	return u
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "malformed request body")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		writeMessage(w, http.StatusBadRequest, "username and password are required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[req.Username]; exists {
		writeMessage(w, http.StatusBadRequest, "username already taken")
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "hash password")
		return
	}
	s.users[req.Username] = hash
	writeJSON(w, http.StatusOK, map[string]string{"username": req.Username})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "malformed request body")
		return
	}

	s.mu.Lock()
	hash, ok := s.users[strings.TrimSpace(req.Username)]
	s.mu.Unlock()
	if !ok || bcrypt.CompareHashAndPassword(hash, []byte(req.Password)) != nil {
		writeMessage(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := s.issueToken(strings.TrimSpace(req.Username))
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "sign token")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (s *Server) issueToken(username string) (string, error) {
	now := time.Now()
	c := claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "malformed request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	out := []map[string]any{}
	for _, id := range s.order {
		a := s.accounts[id]
		if a == nil || a.Username != req.Username {
			continue
		}
		out = append(out, accountJSON(a))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AccountName string `json:"accountName"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "malformed request body")
		return
	}
	name := strings.TrimSpace(req.AccountName)
	if name == "" {
		writeMessage(w, http.StatusBadRequest, "account name is required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	a := &account{ID: uuid.NewString(), Name: name, Username: requestUser(r)}
	s.accounts[a.ID] = a
	s.order = append(s.order, a.ID)
	writeJSON(w, http.StatusOK, accountJSON(a))
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["accountId"]

	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		writeMessage(w, http.StatusNotFound, "account not found")
		return
	}
	if a.Username != requestUser(r) {
		writeMessage(w, http.StatusForbidden, "account belongs to another user")
		return
	}
	if a.Balance != 0 {
		writeMessage(w, http.StatusBadRequest, "cannot delete account with non-zero balance")
		return
	}
	delete(s.accounts, id)
	for i, o := range s.order {
		if o == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	delete(s.postings, id)
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["accountId"]

	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		writeMessage(w, http.StatusNotFound, "account not found")
		return
	}
	if a.Username != requestUser(r) {
		writeMessage(w, http.StatusForbidden, "account belongs to another user")
		return
	}
	out := []map[string]any{}
	for _, t := range s.postings[id] {
		out = append(out, map[string]any{
			"id":     t.ID,
			"amount": ledger.NumberFromCents(t.Amount),
			"type":   t.Type,
			"date":   t.Date,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

type postingRequest struct {
	AccountID string      `json:"accountId"`
	Amount    json.Number `json:"amount"`
}

func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request) {
	s.handlePosting(w, r, ledger.TypeDeposit)
}

func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	s.handlePosting(w, r, ledger.TypeWithdraw)
}

func (s *Server) handlePosting(w http.ResponseWriter, r *http.Request, kind string) {
	var req postingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "malformed request body")
		return
	}
	cents := ledger.CentsFromNumber(req.Amount)
	if cents <= 0 {
		writeMessage(w, http.StatusBadRequest, "amount must be positive")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[req.AccountID]
	if !ok {
		writeMessage(w, http.StatusNotFound, "account not found")
		return
	}
	if a.Username != requestUser(r) {
		writeMessage(w, http.StatusForbidden, "account belongs to another user")
		return
	}
	if kind == ledger.TypeWithdraw {
		if a.Balance < cents {
			writeMessage(w, http.StatusBadRequest, "insufficient funds")
			return
		}
		a.Balance -= cents
	} else {
		a.Balance += cents
	}
	now := time.Now().UTC()
	s.postings[a.ID] = append(s.postings[a.ID], ledger.Transaction{
		ID:        uuid.NewString(),
		AccountID: a.ID,
		Amount:    cents,
		Type:      kind,
		Date:      &now,
	})
	w.WriteHeader(http.StatusOK)
}

func accountJSON(a *account) map[string]any {
	return map[string]any{
		"id":       a.ID,
		"name":     a.Name,
		"username": a.Username,
		"balance":  ledger.NumberFromCents(a.Balance),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

// Seed registers a user directly, bypassing the HTTP surface. Test helper.
func (s *Server) Seed(username, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[username] = hash
	return nil
}

// SeedAccount creates an account with a starting balance and returns its id.
// Test helper.
func (s *Server) SeedAccount(username, name string, balance int64) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := &account{ID: uuid.NewString(), Name: name, Username: username, Balance: balance}
	s.accounts[a.ID] = a
	s.order = append(s.order, a.ID)
	return a.ID
}

// Balance reports an account's current balance, or 0 if it does not exist.
// Test helper.
func (s *Server) Balance(accountID string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.accounts[accountID]; ok {
		return a.Balance
	}
	return 0
}

// Token issues a valid bearer token for username without going through login.
// Test helper.
func (s *Server) Token(username string) (string, error) {
	return s.issueToken(username)
}
