package account

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Cogwheel-Validator/spectra-explorer/explorer/address"
	"github.com/Cogwheel-Validator/spectra-explorer/explorer/lcd"
)

// maxAccountLength is the largest account payload the SDK accepts.
const maxAccountLength = 255

// Resolution is the canonical form of a user supplied address.
type Resolution struct {
	Input     string `json:"input"`
	Kind      string `json:"kind"`
	Canonical string `json:"canonical"`
	EVM       string `json:"evm"`
	// Associated is true when the chain itself reported the mapping of an
	// EVM address to Canonical.
	Associated bool `json:"associated"`
}

// Resolver turns EVM or bech32 input into the canonical bech32 account.
type Resolver struct {
	lcd   LCD
	chain Chain
}

func NewResolver(client LCD, chain Chain) *Resolver {
	return &Resolver{lcd: client, chain: chain}
}

// Resolve normalizes input. Hex input is first looked up through the chain's
// association route; an absent association is not an error and the local
// bech32 encoding is used instead.
func (r *Resolver) Resolve(ctx context.Context, input string) (Resolution, error) {
	input = strings.TrimSpace(input)
	res := Resolution{Input: input}

	switch address.Classify(input) {
	case address.KindBech32:
		if !address.HasPrefix(input, r.chain.Bech32Prefix) {
			return res, fmt.Errorf("%w: expected prefix %q", address.ErrInvalidAddressFormat, r.chain.Bech32Prefix)
		}
		_, payload, err := address.Bech32ToBytes(input)
		if err != nil {
			return res, err
		}
		if len(payload) == 0 || len(payload) > maxAccountLength {
			return res, fmt.Errorf("%w: payload is %d bytes", address.ErrInvalidAddressFormat, len(payload))
		}
		res.Kind = address.KindBech32.String()
		res.Canonical = input
		// module and interchain accounts are 32 bytes and have no EVM form
		if len(payload) == address.AddressLength {
			res.EVM, _ = address.Bech32ToEVM(input)
		}
		return res, nil

	case address.KindEVM:
		local, err := address.EVMToBech32(input, r.chain.Bech32Prefix)
		if err != nil {
			return res, err
		}
		evm, _ := address.Bech32ToEVM(local)
		res.Kind = address.KindEVM.String()
		res.EVM = evm
		res.Canonical = local

		associated, err := r.lcd.CosmosAccount(ctx, r.chain.AssociationPath, input)
		switch {
		case err == nil && address.HasPrefix(associated, r.chain.Bech32Prefix):
			res.Canonical = associated
			res.Associated = true
		case err == nil && associated != "":
			log.Warn().Str("address", input).Str("associated", associated).Msg("Association lookup returned a foreign address, using local encoding")
		case err == nil, errors.Is(err, lcd.ErrNotFound):
			// no association
		default:
			log.Warn().Err(err).Str("address", input).Msg("Association lookup failed, using local encoding")
		}
		return res, nil

	default:
		// EVMToBech32 carries the precise reason
		_, err := address.EVMToBech32(input, r.chain.Bech32Prefix)
		return res, err
	}
}
