package events

import (
	"math/big"

	"stakehouse/core/types"
)

const (
	// TypeStake is emitted once per credited party during a stake operation,
	// in order staker, referer, influencer, developer.
	TypeStake = "staking.stake"
	// TypeUnstake is emitted when a stake record is withdrawn.
	TypeUnstake = "staking.unstake"
)

// Stake captures a claim-token credit produced by a stake operation. Index is
// the 0-based position of the new record within the account's stake list;
// consumers resolve "which stake" via the (account, index) pair.
type Stake struct {
	Pool     [20]byte
	Account  [20]byte
	Index    uint64
	Amount   *big.Int
	HoldTime uint64
}

// EventType satisfies the Event interface.
func (Stake) EventType() string { return TypeStake }

// Event converts the structured payload into a broadcastable event.
func (e Stake) Event() *types.Event {
	return &types.Event{
		Type: TypeStake,
		Attributes: map[string]string{
			"pool":     poolString(e.Pool),
			"account":  accountString(e.Account),
			"index":    uintToString(e.Index),
			"amount":   formatAmount(e.Amount),
			"holdTime": uintToString(e.HoldTime),
		},
	}
}

// Unstake captures the payout realised when a stake record is withdrawn.
// Amount is the fee-adjusted payout, not the recorded claim amount.
type Unstake struct {
	Pool    [20]byte
	Account [20]byte
	Index   uint64
	Amount  *big.Int
}

// EventType satisfies the Event interface.
func (Unstake) EventType() string { return TypeUnstake }

// Event converts the structured payload into a broadcastable event.
func (e Unstake) Event() *types.Event {
	return &types.Event{
		Type: TypeUnstake,
		Attributes: map[string]string{
			"pool":    poolString(e.Pool),
			"account": accountString(e.Account),
			"index":   uintToString(e.Index),
			"amount":  formatAmount(e.Amount),
		},
	}
}
