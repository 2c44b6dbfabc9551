package address_test

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"
	"testing"

	"github.com/Cogwheel-Validator/spectra-explorer/explorer/address"
	"github.com/zeebo/assert"
)

func TestEVMToBech32_RoundTrip(t *testing.T) {
	for i := 0; i < 64; i++ {
		payload := make([]byte, address.AddressLength)
		_, err := rand.Read(payload)
		assert.NoError(t, err)

		hexAddr := "0x" + hex.EncodeToString(payload)
		if i%2 == 0 {
			hexAddr = "0x" + strings.ToUpper(hex.EncodeToString(payload))
		}

		bech, err := address.EVMToBech32(hexAddr, "kii")
		assert.NoError(t, err)
		assert.True(t, strings.HasPrefix(bech, "kii1"))

		hrp, decoded, err := address.Bech32ToBytes(bech)
		assert.NoError(t, err)
		assert.Equal(t, hrp, "kii")
		if !bytes.Equal(decoded, payload) {
			t.Fatalf("round trip mismatch for %s: got %x want %x", hexAddr, decoded, payload)
		}
	}
}

func TestEVMToBech32_Example(t *testing.T) {
	bech, err := address.EVMToBech32("0x1111111111111111111111111111111111111111", "kii")
	assert.NoError(t, err)
	assert.Equal(t, bech, "kii1zyg3zyg3zyg3zyg3zyg3zyg3zyg3zyg3ckdgys")

	back, err := address.Bech32ToEVM(bech)
	assert.NoError(t, err)
	assert.Equal(t, strings.ToLower(back), "0x1111111111111111111111111111111111111111")
}

func TestEVMToBech32_InvalidFormat(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "empty", input: ""},
		{name: "missing prefix", input: "1111111111111111111111111111111111111111"},
		{name: "upper case prefix", input: "0X1111111111111111111111111111111111111111"},
		{name: "too short", input: "0x11111111111111111111111111111111111111"},
		{name: "too long", input: "0x111111111111111111111111111111111111111111"},
		{name: "non hex", input: "0x111111111111111111111111111111111111111g"},
		{name: "bech32 input", input: "kii1zyg3zyg3zyg3zyg3zyg3zyg3zyg3zyg3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := address.EVMToBech32(tt.input, "kii")
			if !errors.Is(err, address.ErrInvalidAddressFormat) {
				t.Fatalf("EVMToBech32(%q) error = %v, want ErrInvalidAddressFormat", tt.input, err)
			}
			assert.Equal(t, out, "")
		})
	}
}

func TestClassify(t *testing.T) {
	bech, err := address.EVMToBech32("0x00000000000000000000000000000000000000ff", "kii")
	assert.NoError(t, err)

	assert.Equal(t, address.Classify("0x00000000000000000000000000000000000000ff"), address.KindEVM)
	assert.Equal(t, address.Classify(bech), address.KindBech32)
	assert.Equal(t, address.Classify("not-an-address"), address.KindInvalid)
	assert.Equal(t, address.Classify("0x00ff"), address.KindInvalid)
}

func TestConvertPrefix(t *testing.T) {
	acc, err := address.EVMToBech32("0xabcdefabcdefabcdefabcdefabcdefabcdefabcd", "kii")
	assert.NoError(t, err)

	valoper, err := address.ConvertPrefix(acc, "kiivaloper")
	assert.NoError(t, err)
	assert.True(t, address.HasPrefix(valoper, "kiivaloper"))
	assert.True(t, !address.HasPrefix(valoper, "kii"))

	back, err := address.ConvertPrefix(valoper, "kii")
	assert.NoError(t, err)
	assert.Equal(t, back, acc)
}

func TestConsensusAddress(t *testing.T) {
	// 32 zero bytes, base64 encoded
	cons, err := address.ConsensusAddress("AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA=", "kiivalcons")
	assert.NoError(t, err)
	assert.True(t, address.HasPrefix(cons, "kiivalcons"))

	_, payload, err := address.Bech32ToBytes(cons)
	assert.NoError(t, err)
	assert.Equal(t, len(payload), address.AddressLength)

	_, err = address.ConsensusAddress("%%%", "kiivalcons")
	assert.Error(t, err)
}
