package keplr

// ChainInfo is the argument of window.keplr.experimentalSuggestChain.
type ChainInfo struct {
	RPC                 string        `json:"rpc"`
	Rest                string        `json:"rest"`
	ChainID             string        `json:"chainId"`
	ChainName           string        `json:"chainName"`
	ChainSymbolImageURL string        `json:"chainSymbolImageUrl,omitempty"`
	Bip44               Bip44         `json:"bip44"`
	WalletURLForStaking string        `json:"walletUrlForStaking,omitempty"`
	Bech32Config        Bech32Config  `json:"bech32Config"`
	Currencies          []Currency    `json:"currencies"`
	FeeCurrencies       []FeeCurrency `json:"feeCurrencies"`
	StakeCurrency       Currency      `json:"stakeCurrency"`
	EVM                 *EVMInfo      `json:"evm,omitempty"`
	Features            []string      `json:"features"`
}

type Bip44 struct {
	CoinType int `json:"coinType"`
}

type Bech32Config struct {
	Bech32PrefixAccAddr  string `json:"bech32PrefixAccAddr"`
	Bech32PrefixAccPub   string `json:"bech32PrefixAccPub"`
	Bech32PrefixValAddr  string `json:"bech32PrefixValAddr"`
	Bech32PrefixValPub   string `json:"bech32PrefixValPub"`
	Bech32PrefixConsAddr string `json:"bech32PrefixConsAddr"`
	Bech32PrefixConsPub  string `json:"bech32PrefixConsPub"`
}

type Currency struct {
	CoinDenom        string `json:"coinDenom"`
	CoinMinimalDenom string `json:"coinMinimalDenom"`
	CoinDecimals     int    `json:"coinDecimals"`
	CoinImageURL     string `json:"coinImageUrl,omitempty"`
	CoinGeckoID      string `json:"coinGeckoId,omitempty"`
}

type FeeCurrency struct {
	Currency
	GasPriceStep GasPriceStep `json:"gasPriceStep"`
}

type GasPriceStep struct {
	Low     float64 `json:"low"`
	Average float64 `json:"average"`
	High    float64 `json:"high"`
}

// EVMInfo lets Keplr talk to the EVM side of the chain.
type EVMInfo struct {
	ChainID int64  `json:"chainId"`
	RPC     string `json:"rpc"`
}
