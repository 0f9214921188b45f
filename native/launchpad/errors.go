package launchpad

import "errors"

var (
	ErrNilState           = errors.New("launchpad engine: state not configured")
	ErrNilAssetLedger     = errors.New("launchpad engine: asset ledger not configured")
	ErrNotInitialized     = errors.New("launchpad engine: pool not initialized")
	ErrAlreadyInitialized = errors.New("launchpad engine: may only be initialized once")
	ErrInvalidAmount      = errors.New("launchpad engine: amount must be positive")
	ErrBelowMinStake      = errors.New("launchpad engine: stake amount must be more than min stake amount")
	ErrAboveMaxStake      = errors.New("launchpad engine: stake amount must be less than max stake amount")
	ErrAboveTotalCap      = errors.New("launchpad engine: total stake amount must be less than max total stake amount")
	ErrStakePaused        = errors.New("launchpad engine: stake is paused")
	ErrAmountExceedsStake = errors.New("launchpad engine: amount more than stake amount")
	ErrBadTiming          = errors.New("launchpad engine: bad timing for request")
	ErrMaxBelowMin        = errors.New("launchpad engine: max amount must be more than min amount")
	ErrUnauthorized       = errors.New("launchpad engine: caller is not the owner")
	ErrEntryNotFound      = errors.New("launchpad engine: entry does not exist")
)
