package service

// ValidationError is a client-side rejection. The request never reached the
// service and no state changed.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// InsufficientFundsError rejects a withdrawal that exceeds the last known
// balance. Balance is pre-formatted with the currency symbol so the message
// quotes exactly what the user sees. The service re-validates independently;
// this check only saves the round trip.
type InsufficientFundsError struct {
	Balance string
}

func (e *InsufficientFundsError) Error() string {
	return "insufficient funds: balance is " + e.Balance
}
