package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeValueRoundTrip(t *testing.T) {
	var policy [28]byte
	policy[0] = 0xAB

	v := Value{
		Lovelace: 1_500_000,
		Assets: map[[28]byte]map[string]uint64{
			policy: {"token": 42},
		},
	}

	raw, err := EncodeValue(v)
	require.NoError(t, err)
	require.True(t, ValidCbor(raw))

	decoded, err := DecodeValue(raw)
	require.NoError(t, err)
	require.Equal(t, v.Lovelace, decoded.Lovelace)
	require.Equal(t, v.Assets[policy]["token"], decoded.Assets[policy]["token"])
}

func TestEncodeValueIsCanonical(t *testing.T) {
	v := Value{Lovelace: 2_000_000}

	first, err := EncodeValue(v)
	require.NoError(t, err)

	second, err := EncodeValue(v)
	require.NoError(t, err)

	require.Equal(t, first, second, "canonical encoding must be deterministic across calls")
}

func TestValidCborRejectsTruncatedInput(t *testing.T) {
	// 0xa1 announces a 1-pair map but no bytes follow; a truncated item must
	// never be reported valid.
	require.False(t, ValidCbor([]byte{0xa1}))
}

func TestDecodeValueRejectsTruncatedInput(t *testing.T) {
	_, err := DecodeValue([]byte{0xa1})
	require.Error(t, err)
}
