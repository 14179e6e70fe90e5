package errors

import (
	"encoding/json"
	"fmt"
)

// TipMismatchErrData carries the conflicting tip hashes for an ERR_TIP_MISMATCH
// error, so a caller can log or display the fork point without re-parsing the
// error message.
type TipMismatchErrData struct {
	Slot         uint64
	ExpectedHash string
	ActualHash   string
}

func (e *TipMismatchErrData) Error() string {
	return fmt.Sprintf("tip mismatch at slot %d: expected %s, got %s", e.Slot, e.ExpectedHash, e.ActualHash)
}

// GetData retrieves the value associated with a field name in the error data.
func (e *TipMismatchErrData) GetData(key string) interface{} {
	switch key {
	case "Slot":
		return e.Slot
	case "ExpectedHash":
		return e.ExpectedHash
	case "ActualHash":
		return e.ActualHash
	default:
		return nil
	}
}

// SetData sets a field of the error data by name.
func (e *TipMismatchErrData) SetData(key string, value interface{}) {
	switch key {
	case "Slot":
		if v, ok := value.(uint64); ok {
			e.Slot = v
		}
	case "ExpectedHash":
		if v, ok := value.(string); ok {
			e.ExpectedHash = v
		}
	case "ActualHash":
		if v, ok := value.(string); ok {
			e.ActualHash = v
		}
	}
}

// EncodeErrorData encodes the error data to a byte slice using JSON encoding.
func (e *TipMismatchErrData) EncodeErrorData() []byte {
	data, err := json.Marshal(e)
	if err != nil {
		return []byte{}
	}

	return data
}

// NewTipMismatchError builds an ERR_TIP_MISMATCH error carrying the conflicting hashes.
func NewTipMismatchError(slot uint64, expectedHash, actualHash string) error {
	data := &TipMismatchErrData{Slot: slot, ExpectedHash: expectedHash, ActualHash: actualHash}
	e := New(ERR_TIP_MISMATCH, data.Error())
	e.data = data

	return e
}
