package model

import (
	"github.com/fxamacker/cbor/v2"
)

// Value is the decoded shape of a TxOutput's ValueCbor: an ada quantity plus
// a nested map of native tokens, mirroring Cardano's ledger encoding
// (policy id -> asset name -> quantity).
type Value struct {
	Lovelace uint64                      `cbor:"0,keyasint"`
	Assets   map[[28]byte]map[string]uint64 `cbor:"1,keyasint,omitempty"`
}

// DecodeValue parses a TxOutput's opaque ValueCbor into a Value. Callers that
// only need liveness or the raw bytes (the query handler's TxOutFromRef, the
// projection's write path) never need to call this; it exists for consumers
// that want the ada/asset breakdown.
func DecodeValue(raw []byte) (Value, error) {
	var v Value
	if err := cbor.Unmarshal(raw, &v); err != nil {
		return Value{}, err
	}
	return v, nil
}

// EncodeValue produces the canonical CBOR encoding of v.
func EncodeValue(v Value) ([]byte, error) {
	opts := cbor.CanonicalEncOptions()
	mode, err := opts.EncMode()
	if err != nil {
		return nil, err
	}
	return mode.Marshal(v)
}

// ValidCbor reports whether raw is well-formed CBOR, without decoding it into
// any particular shape. The projection write path (projectTxs) uses this to
// reject a malformed output ValueCbor before it reaches the database; datum,
// script and redeemer payloads are not checked.
func ValidCbor(raw []byte) bool {
	return cbor.Valid(raw) == nil
}
