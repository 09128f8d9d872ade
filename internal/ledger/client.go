package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client talks to the remote ledger service. It holds no account state of its
// own; the bearer token is sourced from the session on every request so a
// logout takes effect immediately.
type Client struct {
	base  string
	httpc *http.Client
	token func() string
}

// New builds a client for the service at baseURL. token supplies the current
// bearer credential; it may return "" while unauthenticated.
func New(baseURL string, timeout time.Duration, token func() string) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		base:  strings.TrimRight(baseURL, "/"),
		httpc: &http.Client{Timeout: timeout},
		token: token,
	}
}

type credentialsBody struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	var out struct {
		Token string `json:"token"`
	}
	err := c.do(ctx, http.MethodPost, "/api/auth/login", credentialsBody{username, password}, &out)
	if err != nil {
		return "", err
	}
	if out.Token == "" {
		return "", &APIError{Status: http.StatusOK, Message: "login response carried no token"}
	}
	return out.Token, nil
}

// Register creates a user. It does not log the user in; the service expects a
// separate login afterwards.
func (c *Client) Register(ctx context.Context, username, password string) error {
	return c.do(ctx, http.MethodPost, "/api/auth/register", credentialsBody{username, password}, nil)
}

// Accounts lists the accounts owned by username, in service order. A 2xx
// response whose body is not an account array is treated as an empty list.
func (c *Client) Accounts(ctx context.Context, username string) ([]Account, error) {
	body := struct {
		Username string `json:"username"`
	}{username}
	raw, err := c.doRaw(ctx, http.MethodPost, "/api/accounts/list", body)
	if err != nil {
		return nil, err
	}
	var wires []accountWire
	if err := json.Unmarshal(raw, &wires); err != nil {
		return nil, nil
	}
	out := make([]Account, 0, len(wires))
	for _, w := range wires {
		out = append(out, w.toAccount())
	}
	return out, nil
}

// CreateAccount asks the service to create an account with the given display
// name. The caller is expected to refetch the list for the canonical state.
func (c *Client) CreateAccount(ctx context.Context, name string) error {
	body := struct {
		AccountName string `json:"accountName"`
	}{name}
	return c.do(ctx, http.MethodPost, "/api/accounts/create", body, nil)
}

// DeleteAccount deletes an account by id.
func (c *Client) DeleteAccount(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/accounts/"+id, nil, nil)
}

// Transactions lists the postings for an account, in service order. As with
// Accounts, a malformed 2xx body degrades to an empty list.
func (c *Client) Transactions(ctx context.Context, accountID string) ([]Transaction, error) {
	raw, err := c.doRaw(ctx, http.MethodGet, "/api/transactions/"+accountID, nil)
	if err != nil {
		return nil, err
	}
	var wires []transactionWire
	if err := json.Unmarshal(raw, &wires); err != nil {
		return nil, nil
	}
	out := make([]Transaction, 0, len(wires))
	for _, w := range wires {
		out = append(out, w.toTransaction(accountID))
	}
	return out, nil
}

type postingBody struct {
	AccountID string      `json:"accountId"`
	Amount    json.Number `json:"amount"`
}

// Deposit posts a deposit of the given cents to an account.
func (c *Client) Deposit(ctx context.Context, accountID string, cents int64) error {
	return c.do(ctx, http.MethodPost, "/api/transactions/deposit", postingBody{accountID, NumberFromCents(cents)}, nil)
}

// Withdraw posts a withdrawal of the given cents from an account.
func (c *Client) Withdraw(ctx context.Context, accountID string, cents int64) error {
	return c.do(ctx, http.MethodPost, "/api/transactions/withdraw", postingBody{accountID, NumberFromCents(cents)}, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	raw, err := c.doRaw(ctx, method, path, body)
	if err != nil {
		return err
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func (c *Client) doRaw(ctx context.Context, method, path string, body any) ([]byte, error) {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != nil {
		if t := c.token(); t != "" {
			req.Header.Set("Authorization", "Bearer "+t)
		}
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s %s: %w", method, path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{Status: resp.StatusCode, Message: errorMessage(raw)}
	}
	return raw, nil
}

// errorMessage pulls the service's message out of an error body. The service
// writes {"message": ...}; older builds used {"error": ...}.
func errorMessage(raw []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	if body.Message != "" {
		return body.Message
	}
	return body.Error
}
