// Package keplr builds the chain suggestion payload for the Keplr wallet.
package keplr

import (
	"fmt"

	"github.com/Cogwheel-Validator/spectra-explorer/explorer/config"
)

// Features Keplr needs for ethermint style key derivation.
const (
	FeatureEthAddressGen = "eth-address-gen"
	FeatureEthKeySign    = "eth-key-sign"
)

// SuggestChain builds the payload of experimentalSuggestChain for p. evmRPC
// is announced to Keplr when the chain has an EVM.
func SuggestChain(p config.ChainProfile, evmRPC string) (*ChainInfo, error) {
	if p.ChainID == "" || p.Bech32Prefix == "" || p.BaseDenom == "" {
		return nil, fmt.Errorf("chain profile is incomplete")
	}

	native := Currency{
		CoinDenom:        p.DisplayDenom,
		CoinMinimalDenom: p.BaseDenom,
		CoinDecimals:     int(p.Decimals),
		CoinImageURL:     p.ImageURL,
		CoinGeckoID:      p.CoinGeckoID,
	}
	prefix := p.Bech32Prefix

	info := &ChainInfo{
		RPC:                 p.RPC,
		Rest:                p.Rest,
		ChainID:             p.ChainID,
		ChainName:           p.ChainName,
		ChainSymbolImageURL: p.ImageURL,
		Bip44:               Bip44{CoinType: p.CoinType},
		WalletURLForStaking: p.WalletURLForStaking,
		Bech32Config: Bech32Config{
			Bech32PrefixAccAddr:  prefix,
			Bech32PrefixAccPub:   prefix + "pub",
			Bech32PrefixValAddr:  prefix + "valoper",
			Bech32PrefixValPub:   prefix + "valoperpub",
			Bech32PrefixConsAddr: prefix + "valcons",
			Bech32PrefixConsPub:  prefix + "valconspub",
		},
		Currencies: []Currency{native},
		FeeCurrencies: []FeeCurrency{{
			Currency: native,
			GasPriceStep: GasPriceStep{
				Low:     p.GasPrice.Low,
				Average: p.GasPrice.Average,
				High:    p.GasPrice.High,
			},
		}},
		StakeCurrency: native,
		Features:      []string{},
	}

	if p.EVMEnabled() {
		info.Features = append(info.Features, FeatureEthAddressGen, FeatureEthKeySign)
		if evmRPC != "" {
			info.EVM = &EVMInfo{ChainID: p.EVMChainID, RPC: evmRPC}
		}
	}
	return info, nil
}
