package ledger

import "errors"

// Every failure path of the transfer engine maps to exactly one of these.
// Handlers match with errors.Is; none of them are ever silently merged.
var (
	// ErrInvalidAmount: amount absent, zero, negative, or not a whole
	// number of minor units.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInvalidDestination: destination missing, malformed, or the same
	// as the source account.
	ErrInvalidDestination = errors.New("invalid destination")

	// ErrSourceAccountNotFound: the authenticated caller has no account.
	// Should never happen for a provisioned user; treated as an integrity
	// fault upstream.
	ErrSourceAccountNotFound = errors.New("source account not found")

	// ErrDestinationAccountNotFound: destination does not resolve to an
	// existing account.
	ErrDestinationAccountNotFound = errors.New("destination account not found")

	// ErrInsufficientFunds: source balance below the requested amount at
	// evaluation time.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrStoreFailure: the atomic unit of work could not complete within
	// the store's retry policy. Transient; the caller may retry the whole
	// transfer.
	ErrStoreFailure = errors.New("store failure")

	// ErrAccountNotFound: generic read miss for balance queries and
	// identity resolution.
	ErrAccountNotFound = errors.New("account not found")
)
