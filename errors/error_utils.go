package errors

import (
	"context"
)

// IsRetryableError determines if an error is transient and the operation
// might succeed if retried: only an ERR_STORAGE_UNAVAILABLE error counts as
// retryable. Nothing in the write path is retried locally (§7 of the design:
// the follower decides).
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	if Is(err, context.Canceled) || Is(err, context.DeadlineExceeded) {
		return false
	}

	var tErr *Error
	if As(err, &tErr) {
		switch tErr.Code() {
		case ERR_STORAGE_UNAVAILABLE:
			return true
		}
	}

	return false
}

// IsContextError reports whether err stems from context cancellation or a
// deadline, so callers can distinguish caller-abandonment from real failure.
func IsContextError(err error) bool {
	if err == nil {
		return false
	}

	if err == context.Canceled || err == context.DeadlineExceeded {
		return true
	}

	var tErr *Error
	if As(err, &tErr) && tErr.Code() == ERR_CONTEXT_CANCELED {
		return true
	}

	return Is(err, context.Canceled) || Is(err, context.DeadlineExceeded)
}

// IsUtxoStateError reports whether err originated from the in-memory UtxoIndex
// (§4.2), as opposed to a database failure.
func IsUtxoStateError(err error) bool {
	var tErr *Error
	if !As(err, &tErr) {
		return false
	}

	switch tErr.Code() {
	case ERR_INSERT_UTXO_NO_TIP, ERR_DUPLICATE_BLOCK, ERR_TIP_MISMATCH, ERR_OLD_POINT_NOT_FOUND:
		return true
	}

	return false
}
