package lcd

import (
	"encoding/json"
	"errors"
	"time"
)

// Pagination is the page cursor returned by list endpoints.
type Pagination struct {
	NextKey string `json:"next_key"`
	Total   string `json:"total"`
}

// NodeInfoResponse is the answer of /cosmos/base/tendermint/v1beta1/node_info
type NodeInfoResponse struct {
	DefaultNodeInfo    DefaultNodeInfo    `json:"default_node_info"`
	ApplicationVersion ApplicationVersion `json:"application_version"`
}

func (r *NodeInfoResponse) validate() error {
	if r.DefaultNodeInfo.Network == "" {
		return errors.New("missing default_node_info.network")
	}
	return nil
}

type DefaultNodeInfo struct {
	Network string        `json:"network"`
	Version string        `json:"version"`
	Moniker string        `json:"moniker"`
	Other   NodeInfoOther `json:"other"`
}

type NodeInfoOther struct {
	TxIndex    string `json:"tx_index"`
	RPCAddress string `json:"rpc_address"`
}

type ApplicationVersion struct {
	Name             string `json:"name"`
	AppName          string `json:"app_name"`
	Version          string `json:"version"`
	GitCommit        string `json:"git_commit"`
	CosmosSdkVersion string `json:"cosmos_sdk_version"`
}

// BlockResponse is the answer of the tendermint blocks endpoints. Only the
// header and tx list are kept.
type BlockResponse struct {
	BlockID BlockID `json:"block_id"`
	Block   struct {
		Header BlockHeader `json:"header"`
		Data   struct {
			Txs []string `json:"txs"`
		} `json:"data"`
		LastCommit struct {
			Height     string `json:"height"`
			Round      int    `json:"round"`
			Signatures []struct {
				BlockIDFlag      string    `json:"block_id_flag"`
				ValidatorAddress string    `json:"validator_address"`
				Timestamp        time.Time `json:"timestamp"`
			} `json:"signatures"`
		} `json:"last_commit"`
	} `json:"block"`
}

func (r *BlockResponse) validate() error {
	if r.Block.Header.Height == "" {
		return errors.New("missing block.header.height")
	}
	return nil
}

type BlockID struct {
	Hash string `json:"hash"`
}

type BlockHeader struct {
	ChainID         string    `json:"chain_id"`
	Height          string    `json:"height"`
	Time            time.Time `json:"time"`
	DataHash        string    `json:"data_hash"`
	ValidatorsHash  string    `json:"validators_hash"`
	AppHash         string    `json:"app_hash"`
	ProposerAddress string    `json:"proposer_address"`
}

// TxResponse is the indexed result of a transaction.
type TxResponse struct {
	Height    string          `json:"height"`
	TxHash    string          `json:"txhash"`
	Codespace string          `json:"codespace"`
	Code      uint32          `json:"code"`
	RawLog    string          `json:"raw_log"`
	GasWanted string          `json:"gas_wanted"`
	GasUsed   string          `json:"gas_used"`
	Tx        json.RawMessage `json:"tx"`
	Timestamp string          `json:"timestamp"`
	Events    []Event         `json:"events"`
}

// Event is an ABCI event emitted by a transaction.
type Event struct {
	Type       string           `json:"type"`
	Attributes []EventAttribute `json:"attributes"`
}

type EventAttribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Attr returns the value of the first attribute named key.
func (e Event) Attr(key string) (string, bool) {
	for _, a := range e.Attributes {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}

// GetTxResponse is the answer of /cosmos/tx/v1beta1/txs/{hash}
type GetTxResponse struct {
	TxResponse TxResponse `json:"tx_response"`
}

func (r *GetTxResponse) validate() error {
	if r.TxResponse.TxHash == "" {
		return errors.New("missing tx_response.txhash")
	}
	return nil
}

// TxSearchResponse is the answer of /cosmos/tx/v1beta1/txs
type TxSearchResponse struct {
	TxResponses []TxResponse `json:"tx_responses"`
	Pagination  *Pagination  `json:"pagination"`
	Total       string       `json:"total"`
}

type balancesResponse struct {
	Balances   []Coin     `json:"balances"`
	Pagination Pagination `json:"pagination"`
}

type supplyOfResponse struct {
	Amount Coin `json:"amount"`
}

// Pool holds the bonded and unbonded token totals of the staking module.
type Pool struct {
	NotBondedTokens string `json:"not_bonded_tokens"`
	BondedTokens    string `json:"bonded_tokens"`
}

type poolResponse struct {
	Pool Pool `json:"pool"`
}

// Validator is a staking module validator.
type Validator struct {
	OperatorAddress string `json:"operator_address"`
	ConsensusPubkey struct {
		Type string `json:"@type"`
		Key  string `json:"key"`
	} `json:"consensus_pubkey"`
	Jailed          bool   `json:"jailed"`
	Status          string `json:"status"`
	Tokens          string `json:"tokens"`
	DelegatorShares string `json:"delegator_shares"`
	Description     struct {
		Moniker         string `json:"moniker"`
		Identity        string `json:"identity"`
		Website         string `json:"website"`
		SecurityContact string `json:"security_contact"`
		Details         string `json:"details"`
	} `json:"description"`
	UnbondingHeight string `json:"unbonding_height"`
	Commission      struct {
		CommissionRates struct {
			Rate          string `json:"rate"`
			MaxRate       string `json:"max_rate"`
			MaxChangeRate string `json:"max_change_rate"`
		} `json:"commission_rates"`
		UpdateTime time.Time `json:"update_time"`
	} `json:"commission"`
	MinSelfDelegation string `json:"min_self_delegation"`
}

// Validator status values as returned by the LCD.
const (
	StatusBonded    = "BOND_STATUS_BONDED"
	StatusUnbonding = "BOND_STATUS_UNBONDING"
	StatusUnbonded  = "BOND_STATUS_UNBONDED"
)

type validatorsResponse struct {
	Validators []Validator `json:"validators"`
	Pagination Pagination  `json:"pagination"`
}

type validatorResponse struct {
	Validator Validator `json:"validator"`
}

func (r *validatorResponse) validate() error {
	if r.Validator.OperatorAddress == "" {
		return errors.New("missing validator.operator_address")
	}
	return nil
}

// DelegationResponse is a delegation together with its token balance.
type DelegationResponse struct {
	Delegation struct {
		DelegatorAddress string `json:"delegator_address"`
		ValidatorAddress string `json:"validator_address"`
		Shares           string `json:"shares"`
	} `json:"delegation"`
	Balance Coin `json:"balance"`
}

type delegationsResponse struct {
	DelegationResponses []DelegationResponse `json:"delegation_responses"`
	Pagination          Pagination           `json:"pagination"`
}

// UnbondingDelegation lists the pending unbonding entries towards one validator.
type UnbondingDelegation struct {
	DelegatorAddress string           `json:"delegator_address"`
	ValidatorAddress string           `json:"validator_address"`
	Entries          []UnbondingEntry `json:"entries"`
}

type UnbondingEntry struct {
	CreationHeight string    `json:"creation_height"`
	CompletionTime time.Time `json:"completion_time"`
	InitialBalance string    `json:"initial_balance"`
	Balance        string    `json:"balance"`
}

type unbondingResponse struct {
	UnbondingResponses []UnbondingDelegation `json:"unbonding_responses"`
	Pagination         Pagination            `json:"pagination"`
}

// RedelegationResponse is a redelegation between two validators.
type RedelegationResponse struct {
	Redelegation struct {
		DelegatorAddress    string `json:"delegator_address"`
		ValidatorSrcAddress string `json:"validator_src_address"`
		ValidatorDstAddress string `json:"validator_dst_address"`
	} `json:"redelegation"`
	Entries []RedelegationEntryResponse `json:"entries"`
}

type RedelegationEntryResponse struct {
	RedelegationEntry RedelegationEntry `json:"redelegation_entry"`
	Balance           string            `json:"balance"`
}

type RedelegationEntry struct {
	CreationHeight string    `json:"creation_height"`
	CompletionTime time.Time `json:"completion_time"`
	InitialBalance string    `json:"initial_balance"`
	SharesDst      string    `json:"shares_dst"`
}

type redelegationsResponse struct {
	RedelegationResponses []RedelegationResponse `json:"redelegation_responses"`
	Pagination            Pagination             `json:"pagination"`
}

// RewardsResponse is the answer of the delegator rewards endpoint.
type RewardsResponse struct {
	Rewards []struct {
		ValidatorAddress string    `json:"validator_address"`
		Reward           []DecCoin `json:"reward"`
	} `json:"rewards"`
	Total []DecCoin `json:"total"`
}

type withdrawAddressResponse struct {
	WithdrawAddress string `json:"withdraw_address"`
}

// TallyResult holds raw vote counts of a proposal.
type TallyResult struct {
	YesCount        string `json:"yes_count"`
	AbstainCount    string `json:"abstain_count"`
	NoCount         string `json:"no_count"`
	NoWithVetoCount string `json:"no_with_veto_count"`
}

// Proposal is a gov v1 proposal.
type Proposal struct {
	ID               string            `json:"id"`
	Messages         []json.RawMessage `json:"messages"`
	Status           string            `json:"status"`
	FinalTallyResult TallyResult       `json:"final_tally_result"`
	SubmitTime       *time.Time        `json:"submit_time"`
	DepositEndTime   *time.Time        `json:"deposit_end_time"`
	TotalDeposit     []Coin            `json:"total_deposit"`
	VotingStartTime  *time.Time        `json:"voting_start_time"`
	VotingEndTime    *time.Time        `json:"voting_end_time"`
	Metadata         string            `json:"metadata"`
	Title            string            `json:"title"`
	Summary          string            `json:"summary"`
	Proposer         string            `json:"proposer"`
	Expedited        bool              `json:"expedited"`
}

// ProposalsResponse is one page of proposals.
type ProposalsResponse struct {
	Proposals  []Proposal `json:"proposals"`
	Pagination Pagination `json:"pagination"`
}

type proposalResponse struct {
	Proposal Proposal `json:"proposal"`
}

func (r *proposalResponse) validate() error {
	if r.Proposal.ID == "" {
		return errors.New("missing proposal.id")
	}
	return nil
}

type tallyResponse struct {
	Tally TallyResult `json:"tally"`
}

// SlashingParams are the liveness parameters of the slashing module.
type SlashingParams struct {
	SignedBlocksWindow   string `json:"signed_blocks_window"`
	MinSignedPerWindow   string `json:"min_signed_per_window"`
	DowntimeJailDuration string `json:"downtime_jail_duration"`
}

type slashingParamsResponse struct {
	Params SlashingParams `json:"params"`
}

// SigningInfo is the liveness record of a consensus address.
type SigningInfo struct {
	Address             string    `json:"address"`
	StartHeight         string    `json:"start_height"`
	IndexOffset         string    `json:"index_offset"`
	JailedUntil         time.Time `json:"jailed_until"`
	Tombstoned          bool      `json:"tombstoned"`
	MissedBlocksCounter string    `json:"missed_blocks_counter"`
}

type signingInfoResponse struct {
	ValSigningInfo SigningInfo `json:"val_signing_info"`
}

// DenomTrace is the IBC origin of a voucher denom.
type DenomTrace struct {
	Path      string `json:"path"`
	BaseDenom string `json:"base_denom"`
}

type denomTraceResponse struct {
	DenomTrace DenomTrace `json:"denom_trace"`
}

func (r *denomTraceResponse) validate() error {
	if r.DenomTrace.BaseDenom == "" {
		return errors.New("missing denom_trace.base_denom")
	}
	return nil
}

// ibc-go v8+ replaced denom traces with denoms carrying hop lists
type denomResponse struct {
	Denom struct {
		Base  string `json:"base"`
		Trace []struct {
			PortID    string `json:"port_id"`
			ChannelID string `json:"channel_id"`
		} `json:"trace"`
	} `json:"denom"`
}

func (r *denomResponse) validate() error {
	if r.Denom.Base == "" {
		return errors.New("missing denom.base")
	}
	return nil
}

type cosmosAccountResponse struct {
	CosmosAddress string `json:"cosmos_address"`
	Sequence      string `json:"sequence"`
	AccountNumber string `json:"account_number"`
}
