package sql

import (
	"github.com/cardano-tools/chainindex/model"
)

// encodeAssetClass packs an AssetClass into the byte form stored in
// asset_classes.asset_class: the 28-byte currency symbol followed by the
// token name, lexicographically comparable and unambiguous since the
// currency symbol has a fixed width.
func encodeAssetClass(ac model.AssetClass) []byte {
	buf := make([]byte, 28+len(ac.TokenName))
	copy(buf, ac.CurrencySymbol[:])
	copy(buf[28:], ac.TokenName)
	return buf
}
