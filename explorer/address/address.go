// Package address converts between the EVM hex and Cosmos bech32 forms of an
// account on a dual-stack chain.
package address

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/btcutil/bech32"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ErrInvalidAddressFormat is returned for any input that is neither a
// well-formed 0x-prefixed 20 byte hex address nor a decodable bech32 address.
var ErrInvalidAddressFormat = errors.New("invalid address format")

// AddressLength is the payload size of both address forms.
const AddressLength = 20

// Kind tells which encoding an address string uses.
type Kind int

const (
	KindInvalid Kind = iota
	KindEVM
	KindBech32
)

func (k Kind) String() string {
	switch k {
	case KindEVM:
		return "evm"
	case KindBech32:
		return "bech32"
	default:
		return "invalid"
	}
}

// Classify reports the encoding of s without checking the bech32 prefix.
func Classify(s string) Kind {
	if _, err := evmBytes(s); err == nil {
		return KindEVM
	}
	if _, _, err := Bech32ToBytes(s); err == nil {
		return KindBech32
	}
	return KindInvalid
}

// evmBytes enforces ^0x[0-9a-fA-F]{40}$ and returns the 20 byte payload.
func evmBytes(s string) ([]byte, error) {
	if len(s) != 2+2*AddressLength || !strings.HasPrefix(s, "0x") {
		return nil, fmt.Errorf("%w: %q is not a 0x-prefixed 40 character hex string", ErrInvalidAddressFormat, s)
	}
	payload, err := hexutil.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAddressFormat, err)
	}
	if len(payload) != AddressLength {
		return nil, fmt.Errorf("%w: decoded %d bytes, want %d", ErrInvalidAddressFormat, len(payload), AddressLength)
	}
	return payload, nil
}

// EVMToBech32 maps an EVM hex address onto its canonical bech32 account
// address. The mapping is local and deterministic.
func EVMToBech32(hexAddr, prefix string) (string, error) {
	payload, err := evmBytes(hexAddr)
	if err != nil {
		return "", err
	}
	return BytesToBech32(payload, prefix)
}

// BytesToBech32 encodes a raw payload under the given human readable prefix.
func BytesToBech32(payload []byte, prefix string) (string, error) {
	if prefix == "" {
		return "", errors.New("bech32 prefix is required")
	}
	data, err := bech32.ConvertBits(payload, 8, 5, true)
	if err != nil {
		return "", fmt.Errorf("failed to regroup address bits: %w", err)
	}
	encoded, err := bech32.Encode(prefix, data)
	if err != nil {
		return "", fmt.Errorf("failed to encode address: %w", err)
	}
	return encoded, nil
}

// Bech32ToBytes decodes a bech32 address and returns its prefix and payload.
func Bech32ToBytes(addr string) (string, []byte, error) {
	hrp, data, err := bech32.Decode(addr)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrInvalidAddressFormat, err)
	}
	payload, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrInvalidAddressFormat, err)
	}
	return hrp, payload, nil
}

// Bech32ToEVM returns the EIP-55 checksummed hex form of a 20 byte bech32
// address. Whether the chain actually associates the two is a separate,
// on-chain question.
func Bech32ToEVM(addr string) (string, error) {
	_, payload, err := Bech32ToBytes(addr)
	if err != nil {
		return "", err
	}
	if len(payload) != AddressLength {
		return "", fmt.Errorf("%w: payload is %d bytes, want %d", ErrInvalidAddressFormat, len(payload), AddressLength)
	}
	return common.BytesToAddress(payload).Hex(), nil
}

// ConvertPrefix re-encodes a bech32 address under another prefix, e.g.
// kii1... to kiivaloper1...
func ConvertPrefix(addr, prefix string) (string, error) {
	_, payload, err := Bech32ToBytes(addr)
	if err != nil {
		return "", err
	}
	return BytesToBech32(payload, prefix)
}

// HasPrefix reports whether addr decodes as bech32 with exactly this prefix.
func HasPrefix(addr, prefix string) bool {
	hrp, _, err := Bech32ToBytes(addr)
	return err == nil && hrp == prefix
}

// ConsensusAddress derives the valcons address of an ed25519 consensus key as
// the first 20 bytes of its sha256 digest.
func ConsensusAddress(pubKeyBase64, prefix string) (string, error) {
	key, err := base64.StdEncoding.DecodeString(pubKeyBase64)
	if err != nil {
		return "", fmt.Errorf("failed to decode consensus pubkey: %w", err)
	}
	sum := sha256.Sum256(key)
	return BytesToBech32(sum[:AddressLength], prefix)
}
