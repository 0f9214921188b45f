package staking

import (
	"errors"
	"fmt"
)

var (
	ErrNilState           = errors.New("staking engine: state not configured")
	ErrNilTerms           = errors.New("staking engine: terms not configured")
	ErrNilAssetLedger     = errors.New("staking engine: asset ledger not configured")
	ErrNilClaimLedger     = errors.New("staking engine: claim ledger not configured")
	ErrNilWhitelist       = errors.New("staking engine: whitelist not configured")
	ErrNotInitialized     = errors.New("staking engine: pool not initialized")
	ErrAlreadyInitialized = errors.New("staking engine: may only be initialized once")
	ErrInvalidAmount      = errors.New("staking engine: amount must be positive")
	ErrAmountOverflow     = errors.New("staking engine: amount exceeds 256-bit range")
	ErrSelfReferral       = errors.New("staking engine: referer or influencer address equals to staker address")
	ErrNotWhitelisted     = errors.New("staking engine: influencer is not in whitelist")
	ErrStakeNotFound      = errors.New("staking engine: stake does not exist")
	ErrStakeInactive      = errors.New("staking engine: stake is not active")
	ErrNotStaker          = errors.New("staking engine: caller is not staker")
	ErrPoolUnderfunded    = errors.New("staking engine: pool balance below payout")

	// ErrZeroAddress is wrapped with the contract and function name plus the
	// failing parameter so operators can pinpoint misconfigured deployments.
	ErrZeroAddress = errors.New("address is 0")
)

// ZeroAddressError builds the canonical zero-address failure for a given call
// site, e.g. "StakingPool::initialize: address is 0: owner".
func ZeroAddressError(contract, function, param string) error {
	return fmt.Errorf("%s::%s: %w: %s", contract, function, ErrZeroAddress, param)
}
