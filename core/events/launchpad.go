package events

import (
	"math/big"

	"stakehouse/core/types"
)

const (
	// TypeLaunchpadStake is emitted when a capped-sale deposit is accepted.
	TypeLaunchpadStake = "launchpad.stake"
	// TypeLaunchpadUnstake is emitted when a capped-sale balance is withdrawn.
	TypeLaunchpadUnstake = "launchpad.unstake"
)

// LaunchpadStake records an accepted capped-sale deposit. Index is the
// position of the new entry within the pool's flat entry list.
type LaunchpadStake struct {
	Pool      [20]byte
	Account   [20]byte
	Index     uint64
	Amount    *big.Int
	Timestamp uint64
}

// EventType satisfies the Event interface.
func (LaunchpadStake) EventType() string { return TypeLaunchpadStake }

// Event converts the structured payload into a broadcastable event.
func (e LaunchpadStake) Event() *types.Event {
	return &types.Event{
		Type: TypeLaunchpadStake,
		Attributes: map[string]string{
			"pool":      poolString(e.Pool),
			"account":   accountString(e.Account),
			"index":     uintToString(e.Index),
			"amount":    formatAmount(e.Amount),
			"timestamp": uintToString(e.Timestamp),
		},
	}
}

// LaunchpadUnstake records a capped-sale withdrawal after the owner has armed
// the unlock switch.
type LaunchpadUnstake struct {
	Pool    [20]byte
	Account [20]byte
	Amount  *big.Int
}

// EventType satisfies the Event interface.
func (LaunchpadUnstake) EventType() string { return TypeLaunchpadUnstake }

// Event converts the structured payload into a broadcastable event.
func (e LaunchpadUnstake) Event() *types.Event {
	return &types.Event{
		Type: TypeLaunchpadUnstake,
		Attributes: map[string]string{
			"pool":    poolString(e.Pool),
			"account": accountString(e.Account),
			"amount":  formatAmount(e.Amount),
		},
	}
}
