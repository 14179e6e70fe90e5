// Package model defines the value types the chain index operates over: slots,
// block identities, tips, points, output references, credentials, asset
// classes, and the per-block balance delta. These are plain value types with
// no storage or indexing behaviour of their own.
package model

import (
	"bytes"
	"encoding/hex"
	"fmt"
)

// Slot is a monotonically increasing position in the chain's time axis.
type Slot uint64

// BlockNo is a block height.
type BlockNo uint64

// BlockId is a 32-byte block hash.
type BlockId [32]byte

func (b BlockId) String() string {
	return hex.EncodeToString(b[:])
}

// IsZero reports whether b is the zero hash.
func (b BlockId) IsZero() bool {
	return b == BlockId{}
}

// Tip is either Genesis or a concrete (slot, blockId, blockNo) triple.
type Tip struct {
	genesis bool
	Slot    Slot
	BlockId BlockId
	BlockNo BlockNo
}

// TipGenesis is the tip of an empty chain index.
var TipGenesis = Tip{genesis: true}

// NewTip builds a concrete, non-genesis tip.
func NewTip(slot Slot, blockId BlockId, blockNo BlockNo) Tip {
	return Tip{Slot: slot, BlockId: blockId, BlockNo: blockNo}
}

// IsGenesis reports whether t represents the empty chain.
func (t Tip) IsGenesis() bool {
	return t.genesis
}

// Point drops the block number from a Tip; it is either Genesis or (slot, blockId).
func (t Tip) Point() Point {
	if t.genesis {
		return PointGenesis
	}
	return Point{Slot: t.Slot, BlockId: t.BlockId}
}

func (t Tip) String() string {
	if t.genesis {
		return "Genesis"
	}
	return fmt.Sprintf("Tip(%d, %s, %d)", t.Slot, t.BlockId, t.BlockNo)
}

// Point is either Genesis or a concrete (slot, blockId) pair.
type Point struct {
	genesis bool
	Slot    Slot
	BlockId BlockId
}

// PointGenesis is the point before any block has been applied.
var PointGenesis = Point{genesis: true}

// NewPoint builds a concrete, non-genesis point.
func NewPoint(slot Slot, blockId BlockId) Point {
	return Point{Slot: slot, BlockId: blockId}
}

// IsGenesis reports whether p represents the start of the chain.
func (p Point) IsGenesis() bool {
	return p.genesis
}

func (p Point) String() string {
	if p.genesis {
		return "Genesis"
	}
	return fmt.Sprintf("Point(%d, %s)", p.Slot, p.BlockId)
}

// TxOutRef identifies a transaction output by the id of the transaction that
// created it and the index of the output within that transaction.
type TxOutRef struct {
	TxId        [32]byte
	OutputIndex uint32
}

func (r TxOutRef) String() string {
	return fmt.Sprintf("%s#%d", hex.EncodeToString(r.TxId[:]), r.OutputIndex)
}

// Bytes returns the 36-byte lexicographically-ordered encoding used for
// pagination cursors and table keys: the 32-byte tx id followed by the
// big-endian output index.
func (r TxOutRef) Bytes() []byte {
	buf := make([]byte, 36)
	copy(buf, r.TxId[:])
	buf[32] = byte(r.OutputIndex >> 24)
	buf[33] = byte(r.OutputIndex >> 16)
	buf[34] = byte(r.OutputIndex >> 8)
	buf[35] = byte(r.OutputIndex)
	return buf
}

// CompareTxOutRef orders two refs by their lexicographic byte encoding, the
// ordering the query handler's pagination contract is defined over.
func CompareTxOutRef(a, b TxOutRef) int {
	return bytes.Compare(a.Bytes(), b.Bytes())
}

// Credential is the payment or stake credential carried by an address.
type Credential struct {
	Bytes []byte
}

func (c Credential) String() string {
	return hex.EncodeToString(c.Bytes)
}

// AssetClass identifies a native token, excluding the ada/lovelace pair.
type AssetClass struct {
	CurrencySymbol [28]byte
	TokenName      []byte
}

func (a AssetClass) String() string {
	return fmt.Sprintf("%s.%s", hex.EncodeToString(a.CurrencySymbol[:]), hex.EncodeToString(a.TokenName))
}

// TxOutput is the body of an output: its value-bearing address, datum hash (if
// any), and raw encoded value. The chain index treats the value as opaque bytes.
type TxOutput struct {
	Address        []byte
	DatumHash      []byte
	ValueCbor      []byte
	Credential     Credential
	AssetClasses   []AssetClass
}

// Tx is a decoded transaction as handed to the chain index by the follower.
// StoreTx controls whether this tx's auxiliary rows (datums/scripts/redeemers
// /addresses/asset classes) are indexed; the balance is always applied.
type Tx struct {
	Id       [32]byte
	Inputs   []TxOutRef
	Outputs  map[TxOutRef]TxOutput
	Datums   map[[32]byte][]byte
	Scripts  map[[32]byte][]byte
	Redeemers map[[32]byte][]byte
	StoreTx  bool
}

// ChainSyncBlock is the unit handed to AppendBlock by the upstream follower.
type ChainSyncBlock struct {
	Tip          Tip
	Transactions []Tx
}
