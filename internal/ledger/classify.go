package ledger

import (
	"errors"
	"net/http"
	"strconv"
)

// DecisionKind says what the caller should do with a failed protected call.
type DecisionKind int

const (
	// DecisionLogout: the session is no longer valid. Tear it down and return
	// to the sign-in view. Wins over every other classification.
	DecisionLogout DecisionKind = iota
	// DecisionMessage: the service rejected the request and said why. Show
	// its message verbatim.
	DecisionMessage
	// DecisionGeneric: transport failure or an unexplained status.
	DecisionGeneric
)

// Decision is the outcome of classifying a failed operation.
type Decision struct {
	Kind    DecisionKind
	Message string
	Status  int
}

// Text renders the user-facing line for a decision.
func (d Decision) Text() string {
	switch d.Kind {
	case DecisionLogout:
		return "session expired, please sign in again"
	case DecisionMessage:
		return d.Message
	default:
		if d.Status == 0 {
			return "request failed (unknown)"
		}
		return "request failed (status " + strconv.Itoa(d.Status) + ")"
	}
}

// Classify maps a failed protected call to exactly one decision. It is total:
// any non-nil error yields a decision, and non-API errors (network, context)
// classify as generic with status 0.
func Classify(err error) Decision {
	var api *APIError
	if !errors.As(err, &api) {
		return Decision{Kind: DecisionGeneric}
	}
	switch {
	case api.Status == http.StatusUnauthorized || api.Status == http.StatusForbidden:
		return Decision{Kind: DecisionLogout, Status: api.Status}
	case api.Status >= 400 && api.Status < 500 && api.Message != "":
		return Decision{Kind: DecisionMessage, Message: api.Message, Status: api.Status}
	default:
		return Decision{Kind: DecisionGeneric, Status: api.Status}
	}
}
