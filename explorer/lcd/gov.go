package lcd

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

const (
	proposalsPath = "/cosmos/gov/v1/proposals"
	proposalPath  = "/cosmos/gov/v1/proposals/%d"
	tallyPath     = "/cosmos/gov/v1/proposals/%d/tally"
)

// Proposal status filters accepted by the gov module.
const (
	ProposalStatusDepositPeriod = "PROPOSAL_STATUS_DEPOSIT_PERIOD"
	ProposalStatusVotingPeriod  = "PROPOSAL_STATUS_VOTING_PERIOD"
	ProposalStatusPassed        = "PROPOSAL_STATUS_PASSED"
	ProposalStatusRejected      = "PROPOSAL_STATUS_REJECTED"
	ProposalStatusFailed        = "PROPOSAL_STATUS_FAILED"
)

// ProposalQuery selects one page of proposals.
type ProposalQuery struct {
	Status  string
	PageKey string
	Limit   int
	Reverse bool
}

// Proposals returns a single page; callers follow Pagination.NextKey.
func (c *Client) Proposals(ctx context.Context, pq ProposalQuery) (*ProposalsResponse, error) {
	q := url.Values{}
	if pq.Status != "" {
		q.Set("proposal_status", pq.Status)
	}
	if pq.PageKey != "" {
		q.Set("pagination.key", pq.PageKey)
	}
	if pq.Limit > 0 {
		q.Set("pagination.limit", strconv.Itoa(pq.Limit))
	}
	if pq.Reverse {
		q.Set("pagination.reverse", "true")
	}

	path := proposalsPath
	if enc := q.Encode(); enc != "" {
		path += "?" + enc
	}
	var out ProposalsResponse
	if err := c.getJSON(ctx, path, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Proposal(ctx context.Context, id uint64) (*Proposal, error) {
	var out proposalResponse
	if err := c.getJSON(ctx, fmt.Sprintf(proposalPath, id), &out); err != nil {
		return nil, err
	}
	return &out.Proposal, nil
}

// Tally returns the live tally of a proposal in voting period. Finished
// proposals carry FinalTallyResult instead.
func (c *Client) Tally(ctx context.Context, id uint64) (*TallyResult, error) {
	var out tallyResponse
	if err := c.getJSON(ctx, fmt.Sprintf(tallyPath, id), &out); err != nil {
		return nil, err
	}
	return &out.Tally, nil
}
