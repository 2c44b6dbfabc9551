package evm

import (
	"context"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/Cogwheel-Validator/spectra-explorer/explorer/address"
	"github.com/Cogwheel-Validator/spectra-explorer/explorer/amount"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// Kind is a heuristic contract category.
type Kind string

const (
	KindAccount          Kind = "account"
	KindERC20            Kind = "erc20"
	KindERC721           Kind = "erc721"
	KindERC1155          Kind = "erc1155"
	KindMinimalProxy     Kind = "minimal_proxy"
	KindUpgradeableProxy Kind = "upgradeable_proxy"
	KindUnknown          Kind = "unknown_contract"
)

// HeuristicNotice accompanies every classification.
const HeuristicNotice = "Heuristic classification based on bytecode patterns. Not a verified decompilation; results may be wrong."

// NativeDecimals is the scale of EVM native balances.
const NativeDecimals = 18

type pattern struct {
	kind    Kind
	anyOf   []string
	matches string
}

// Checked in order; a contract can match several.
var patterns = []pattern{
	{kind: KindMinimalProxy, anyOf: []string{"363d3d373d3d3d363d73"}, matches: "EIP-1167 clone prefix"},
	{kind: KindUpgradeableProxy, anyOf: []string{"360894a1", "5c60da1b"}, matches: "EIP-1967 slot or implementation()"},
	{kind: KindERC20, anyOf: []string{"a9059cbb", "70a08231", "18160ddd"}, matches: "transfer/balanceOf/totalSupply selectors"},
	{kind: KindERC721, anyOf: []string{"80ac58cd", "6352211e"}, matches: "ERC-721 interface id or ownerOf()"},
	{kind: KindERC1155, anyOf: []string{"d9b67a26"}, matches: "ERC-1155 interface id"},
}

// ClassifyBytecode returns every kind whose markers occur in code. Empty code
// is an externally owned account.
func ClassifyBytecode(code []byte) []Kind {
	if len(code) == 0 {
		return []Kind{KindAccount}
	}
	h := hex.EncodeToString(code)

	var kinds []Kind
	for _, p := range patterns {
		for _, marker := range p.anyOf {
			if strings.Contains(h, marker) {
				kinds = append(kinds, p.kind)
				break
			}
		}
	}
	if len(kinds) == 0 {
		return []Kind{KindUnknown}
	}
	return kinds
}

// Classification is the answer of the contract classification route.
type Classification struct {
	Address        string   `json:"address"`
	IsContract     bool     `json:"is_contract"`
	CodeSize       int      `json:"code_size"`
	Kinds          []Kind   `json:"kinds"`
	Primary        Kind     `json:"primary"`
	Balance        string   `json:"balance"`
	BalanceDisplay string   `json:"balance_display"`
	Verified       bool     `json:"verified"`
	Notice         string   `json:"notice"`
	Markers        []string `json:"markers,omitempty"`
}

// Prober fetches code and native balance of an address.
type Prober interface {
	Probe(ctx context.Context, addr common.Address) ([]byte, *big.Int, error)
}

var _ Prober = (*Client)(nil)

// Classifier labels addresses by their deployed bytecode.
type Classifier struct {
	prober Prober
}

func NewClassifier(p Prober) *Classifier {
	return &Classifier{prober: p}
}

// Classify accepts a 0x address or a bech32 account address.
func (c *Classifier) Classify(ctx context.Context, input string) (*Classification, error) {
	var hexAddr string
	switch address.Classify(input) {
	case address.KindEVM:
		hexAddr = input
	case address.KindBech32:
		h, err := address.Bech32ToEVM(input)
		if err != nil {
			return nil, err
		}
		hexAddr = h
	default:
		return nil, fmt.Errorf("%w: %q", address.ErrInvalidAddressFormat, input)
	}
	addr := common.HexToAddress(hexAddr)

	code, balance, err := c.prober.Probe(ctx, addr)
	if err != nil {
		return nil, fmt.Errorf("failed to probe %s: %w", addr.Hex(), err)
	}

	kinds := ClassifyBytecode(code)
	bal := decimal.NewFromBigInt(balance, 0)
	out := &Classification{
		Address:        addr.Hex(),
		IsContract:     len(code) > 0,
		CodeSize:       len(code),
		Kinds:          kinds,
		Primary:        kinds[0],
		Balance:        bal.String(),
		BalanceDisplay: amount.Display(bal, NativeDecimals),
		Verified:       false,
		Notice:         HeuristicNotice,
	}
	for _, k := range kinds {
		for _, p := range patterns {
			if p.kind == k {
				out.Markers = append(out.Markers, p.matches)
			}
		}
	}
	return out, nil
}
