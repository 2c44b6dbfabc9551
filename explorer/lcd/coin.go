package lcd

// Coin is an integer amount in the smallest unit of a denom.
type Coin struct {
	Denom  string `json:"denom"`
	Amount string `json:"amount"`
}

// DecCoin is a coin with a fixed point decimal amount, as used for rewards.
type DecCoin struct {
	Denom  string `json:"denom"`
	Amount string `json:"amount"`
}
