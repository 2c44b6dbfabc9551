// Package models holds the JSON documents served by the explorer API.
package models

import (
	"time"

	"github.com/Cogwheel-Validator/spectra-explorer/explorer/account"
	"github.com/Cogwheel-Validator/spectra-explorer/explorer/governance"
	"github.com/Cogwheel-Validator/spectra-explorer/explorer/lcd"
	"github.com/shopspring/decimal"
)

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Error string `json:"error"`
}

// AccountResponse joins the resolved address with its aggregated view.
type AccountResponse struct {
	Resolution account.Resolution   `json:"resolution"`
	Account    *account.AccountView `json:"account"`
}

type StakingResponse struct {
	Resolution account.Resolution   `json:"resolution"`
	Staking    *account.StakingView `json:"staking"`
}

type TxSummary struct {
	Hash      string `json:"hash"`
	Height    int64  `json:"height"`
	Success   bool   `json:"success"`
	Code      uint32 `json:"code"`
	GasWanted string `json:"gas_wanted"`
	GasUsed   string `json:"gas_used"`
	Timestamp string `json:"timestamp"`
	// message type urls taken from "message.action" events
	Messages []string `json:"messages"`
}

type TxDetail struct {
	TxSummary
	Codespace string      `json:"codespace,omitempty"`
	RawLog    string      `json:"raw_log,omitempty"`
	Events    []lcd.Event `json:"events"`
	Tx        any         `json:"tx,omitempty"`
}

type TxPage struct {
	Address string      `json:"address"`
	Page    int         `json:"page"`
	Limit   int         `json:"limit"`
	Total   int64       `json:"total"`
	Txs     []TxSummary `json:"txs"`
}

type BlockSummary struct {
	ChainID         string    `json:"chain_id"`
	Height          int64     `json:"height"`
	Hash            string    `json:"hash"`
	Time            time.Time `json:"time"`
	Proposer        string    `json:"proposer"`
	ProposerMoniker string    `json:"proposer_moniker,omitempty"`
	TxCount         int       `json:"tx_count"`
	Signatures      int       `json:"signatures"`
}

type ValidatorSummary struct {
	Operator    string          `json:"operator"`
	Moniker     string          `json:"moniker"`
	Status      string          `json:"status"`
	Jailed      bool            `json:"jailed"`
	Tokens      account.Amount  `json:"tokens"`
	VotingPower decimal.Decimal `json:"voting_power"`
	Commission  decimal.Decimal `json:"commission"`
	Website     string          `json:"website,omitempty"`
}

type ValidatorDetail struct {
	ValidatorSummary
	ConsensusAddress   string           `json:"consensus_address,omitempty"`
	Identity           string           `json:"identity,omitempty"`
	Details            string           `json:"details,omitempty"`
	MaxCommission      decimal.Decimal  `json:"max_commission"`
	MinSelfDelegation  string           `json:"min_self_delegation"`
	Uptime             *decimal.Decimal `json:"uptime"`
	MissedBlocks       *int64           `json:"missed_blocks"`
	SignedBlocksWindow *int64           `json:"signed_blocks_window"`
	Tombstoned         bool             `json:"tombstoned"`
	Degraded           []string         `json:"degraded"`
}

type ProposalSummary struct {
	ID            uint64                  `json:"id"`
	Title         string                  `json:"title"`
	Summary       string                  `json:"summary"`
	Status        string                  `json:"status"`
	Proposer      string                  `json:"proposer"`
	Expedited     bool                    `json:"expedited"`
	SubmitTime    *time.Time              `json:"submit_time"`
	VotingEndTime *time.Time              `json:"voting_end_time"`
	FinalTally    governance.TallyPercent `json:"final_tally"`
}

type ProposalDetail struct {
	ProposalSummary
	Metadata        string     `json:"metadata"`
	MessageTypes    []string   `json:"message_types"`
	TotalDeposit    []lcd.Coin `json:"total_deposit"`
	DepositEndTime  *time.Time `json:"deposit_end_time"`
	VotingStartTime *time.Time `json:"voting_start_time"`
}

type ProposalPage struct {
	Proposals []ProposalSummary `json:"proposals"`
	NextKey   string            `json:"next_key"`
}

type TallyResponse struct {
	ProposalID uint64           `json:"proposal_id"`
	Tally      governance.Tally `json:"tally"`
	Degraded   []string         `json:"degraded"`
}

type ChainStatus struct {
	ChainID          string    `json:"chain_id"`
	Moniker          string    `json:"moniker"`
	AppVersion       string    `json:"app_version"`
	CosmosSDKVersion string    `json:"cosmos_sdk_version"`
	LatestHeight     int64     `json:"latest_height"`
	LatestBlockTime  time.Time `json:"latest_block_time"`
	EVMChainID       string    `json:"evm_chain_id,omitempty"`
	Degraded         []string  `json:"degraded"`
}

type SupplyResponse struct {
	Denom        string         `json:"denom"`
	DisplayDenom string         `json:"display_denom"`
	Supply       account.Amount `json:"supply"`
}

type StakingPoolResponse struct {
	Bonded      account.Amount   `json:"bonded"`
	NotBonded   account.Amount   `json:"not_bonded"`
	BondedRatio *decimal.Decimal `json:"bonded_ratio"`
	Degraded    []string         `json:"degraded"`
}
