package lcd

import (
	"context"
	"fmt"
	"net/url"
)

const (
	validatorsPath      = "/cosmos/staking/v1beta1/validators"
	validatorPath       = "/cosmos/staking/v1beta1/validators/%s"
	delegationsPath     = "/cosmos/staking/v1beta1/delegations/%s"
	unbondingPath       = "/cosmos/staking/v1beta1/delegators/%s/unbonding_delegations"
	redelegationsPath   = "/cosmos/staking/v1beta1/delegators/%s/redelegations"
	poolPath            = "/cosmos/staking/v1beta1/pool"
	rewardsPath         = "/cosmos/distribution/v1beta1/delegators/%s/rewards"
	withdrawAddressPath = "/cosmos/distribution/v1beta1/delegators/%s/withdraw_address"
	slashingParamsPath  = "/cosmos/slashing/v1beta1/params"
	signingInfoPath     = "/cosmos/slashing/v1beta1/signing_infos/%s"
)

// Validators returns the full validator set, optionally filtered by one of the
// Status constants.
func (c *Client) Validators(ctx context.Context, status string) ([]Validator, error) {
	q := url.Values{}
	if status != "" {
		q.Set("status", status)
	}
	return listAll(ctx, c, validatorsPath, q,
		func(r *validatorsResponse) ([]Validator, string) { return r.Validators, r.Pagination.NextKey })
}

// Validator returns one validator by operator address.
func (c *Client) Validator(ctx context.Context, operator string) (*Validator, error) {
	var out validatorResponse
	if err := c.getJSON(ctx, fmt.Sprintf(validatorPath, url.PathEscape(operator)), &out); err != nil {
		return nil, err
	}
	return &out.Validator, nil
}

func (c *Client) Delegations(ctx context.Context, delegator string) ([]DelegationResponse, error) {
	return listAll(ctx, c, fmt.Sprintf(delegationsPath, url.PathEscape(delegator)), nil,
		func(r *delegationsResponse) ([]DelegationResponse, string) {
			return r.DelegationResponses, r.Pagination.NextKey
		})
}

func (c *Client) UnbondingDelegations(ctx context.Context, delegator string) ([]UnbondingDelegation, error) {
	return listAll(ctx, c, fmt.Sprintf(unbondingPath, url.PathEscape(delegator)), nil,
		func(r *unbondingResponse) ([]UnbondingDelegation, string) {
			return r.UnbondingResponses, r.Pagination.NextKey
		})
}

func (c *Client) Redelegations(ctx context.Context, delegator string) ([]RedelegationResponse, error) {
	return listAll(ctx, c, fmt.Sprintf(redelegationsPath, url.PathEscape(delegator)), nil,
		func(r *redelegationsResponse) ([]RedelegationResponse, string) {
			return r.RedelegationResponses, r.Pagination.NextKey
		})
}

// StakingPool returns bonded and not bonded totals.
func (c *Client) StakingPool(ctx context.Context) (*Pool, error) {
	var out poolResponse
	if err := c.getJSON(ctx, poolPath, &out); err != nil {
		return nil, err
	}
	return &out.Pool, nil
}

// Rewards returns pending rewards per validator plus their total.
func (c *Client) Rewards(ctx context.Context, delegator string) (*RewardsResponse, error) {
	var out RewardsResponse
	if err := c.getJSON(ctx, fmt.Sprintf(rewardsPath, url.PathEscape(delegator)), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) WithdrawAddress(ctx context.Context, delegator string) (string, error) {
	var out withdrawAddressResponse
	if err := c.getJSON(ctx, fmt.Sprintf(withdrawAddressPath, url.PathEscape(delegator)), &out); err != nil {
		return "", err
	}
	return out.WithdrawAddress, nil
}

func (c *Client) SlashingParams(ctx context.Context) (*SlashingParams, error) {
	var out slashingParamsResponse
	if err := c.getJSON(ctx, slashingParamsPath, &out); err != nil {
		return nil, err
	}
	return &out.Params, nil
}

// SigningInfo returns the liveness record of a valcons address.
func (c *Client) SigningInfo(ctx context.Context, consAddress string) (*SigningInfo, error) {
	var out signingInfoResponse
	if err := c.getJSON(ctx, fmt.Sprintf(signingInfoPath, url.PathEscape(consAddress)), &out); err != nil {
		return nil, err
	}
	return &out.ValSigningInfo, nil
}
