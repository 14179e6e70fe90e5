package errors

// ERR is a stable error code. New codes must be appended, never renumbered,
// since callers match on Code() rather than message text.
type ERR int32

const (
	ERR_UNKNOWN ERR = iota
	ERR_INVALID_ARGUMENT
	ERR_CONFIGURATION
	ERR_CONTEXT_CANCELED
	ERR_NOT_FOUND
	ERR_STORAGE_ERROR
	ERR_STORAGE_UNAVAILABLE

	// UtxoIndex (C3) errors, wrapped into InsertionFailed / RollbackFailed by
	// the control handler.
	ERR_INSERT_UTXO_NO_TIP
	ERR_DUPLICATE_BLOCK
	ERR_TIP_MISMATCH
	ERR_OLD_POINT_NOT_FOUND

	// Control handler (C5) errors.
	ERR_INSERTION_FAILED
	ERR_ROLLBACK_FAILED

	// Query handler (C6) errors.
	ERR_QUERY_FAILED_NO_TIP
)

var errName = map[ERR]string{
	ERR_UNKNOWN:             "ERR_UNKNOWN",
	ERR_INVALID_ARGUMENT:    "ERR_INVALID_ARGUMENT",
	ERR_CONFIGURATION:       "ERR_CONFIGURATION",
	ERR_CONTEXT_CANCELED:    "ERR_CONTEXT_CANCELED",
	ERR_NOT_FOUND:           "ERR_NOT_FOUND",
	ERR_STORAGE_ERROR:       "ERR_STORAGE_ERROR",
	ERR_STORAGE_UNAVAILABLE: "ERR_STORAGE_UNAVAILABLE",
	ERR_INSERT_UTXO_NO_TIP:  "ERR_INSERT_UTXO_NO_TIP",
	ERR_DUPLICATE_BLOCK:     "ERR_DUPLICATE_BLOCK",
	ERR_TIP_MISMATCH:        "ERR_TIP_MISMATCH",
	ERR_OLD_POINT_NOT_FOUND: "ERR_OLD_POINT_NOT_FOUND",
	ERR_INSERTION_FAILED:    "ERR_INSERTION_FAILED",
	ERR_ROLLBACK_FAILED:     "ERR_ROLLBACK_FAILED",
	ERR_QUERY_FAILED_NO_TIP: "ERR_QUERY_FAILED_NO_TIP",
}

func (c ERR) String() string {
	if name, ok := errName[c]; ok {
		return name
	}
	return "ERR_UNKNOWN"
}

// Sentinel errors for errors.Is comparisons against a bare code.
var (
	ErrUnknown            = New(ERR_UNKNOWN, "unknown error")
	ErrInvalidArgument    = New(ERR_INVALID_ARGUMENT, "invalid argument")
	ErrConfiguration      = New(ERR_CONFIGURATION, "configuration error")
	ErrContextCanceled    = New(ERR_CONTEXT_CANCELED, "context canceled")
	ErrNotFound           = New(ERR_NOT_FOUND, "not found")
	ErrStorageError       = New(ERR_STORAGE_ERROR, "storage error")
	ErrStorageUnavailable = New(ERR_STORAGE_UNAVAILABLE, "storage unavailable")
	ErrInsertUtxoNoTip    = New(ERR_INSERT_UTXO_NO_TIP, "cannot insert a delta with a genesis tip")
	ErrDuplicateBlock     = New(ERR_DUPLICATE_BLOCK, "block slot is not after the current tip")
	ErrTipMismatch        = New(ERR_TIP_MISMATCH, "tip hash mismatch at slot")
	ErrOldPointNotFound   = New(ERR_OLD_POINT_NOT_FOUND, "rollback point is older than the retained window")
	ErrInsertionFailed    = New(ERR_INSERTION_FAILED, "append block failed")
	ErrRollbackFailed     = New(ERR_ROLLBACK_FAILED, "rollback failed")
	ErrQueryFailedNoTip   = New(ERR_QUERY_FAILED_NO_TIP, "query requires a tip but the index is at genesis")
)

func NewInvalidArgumentError(message string, params ...interface{}) error {
	return New(ERR_INVALID_ARGUMENT, message, params...)
}

func NewConfigurationError(message string, params ...interface{}) error {
	return New(ERR_CONFIGURATION, message, params...)
}

func NewNotFoundError(message string, params ...interface{}) error {
	return New(ERR_NOT_FOUND, message, params...)
}

func NewStorageError(message string, params ...interface{}) error {
	return New(ERR_STORAGE_ERROR, message, params...)
}

func NewInsertionFailedError(message string, params ...interface{}) error {
	return New(ERR_INSERTION_FAILED, message, params...)
}

func NewRollbackFailedError(message string, params ...interface{}) error {
	return New(ERR_ROLLBACK_FAILED, message, params...)
}
