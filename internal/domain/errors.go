// Package domain defines the core data structures and error taxonomy shared
// by the orchestration services.
package domain

import "errors"

// Sentinel errors for every failure class a caller may need to branch on.
// Services wrap these with context via pkg/errors so errors.Is keeps working.
var (
	// ErrWalletUnavailable means no wallet capability is reachable in the
	// hosting environment.
	ErrWalletUnavailable = errors.New("wallet unavailable")

	// ErrUserRejected means the wallet owner denied the access or signing
	// request. Never retried automatically.
	ErrUserRejected = errors.New("request rejected by user")

	// ErrBinding means a contract binding was requested without a valid
	// wallet session, or with a revoked one.
	ErrBinding = errors.New("contract binding unavailable")

	// ErrInvalidAmount means a user-entered amount could not be converted
	// into the ledger's base units.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrRemoteCallRejected means the ledger contract refused the call
	// (insufficient funds, contract-level validation, revert).
	ErrRemoteCallRejected = errors.New("remote call rejected")

	// ErrNetwork means connectivity to the ledger network was lost.
	// Retryable by re-invoking the same operation.
	ErrNetwork = errors.New("ledger network unreachable")

	// ErrConfirmationTimeout means a submitted transaction was not
	// confirmed within the configured deadline.
	ErrConfirmationTimeout = errors.New("confirmation timed out")

	// ErrOperationInProgress means an operation of the same kind is still
	// awaiting confirmation.
	ErrOperationInProgress = errors.New("operation already in progress")

	// ErrPriceFetchFailed means the quote endpoint could not be reached or
	// returned garbage. Non-fatal, the previous quote stays visible.
	ErrPriceFetchFailed = errors.New("price fetch failed")

	// ErrDecode means a contract response did not match the expected shape.
	ErrDecode = errors.New("malformed contract response")
)

// Retryable reports whether the failure is network-class and may be retried
// by re-invoking the same operation. User-denied and validation failures are
// never retryable.
func Retryable(err error) bool {
	return errors.Is(err, ErrNetwork) || errors.Is(err, ErrConfirmationTimeout)
}
