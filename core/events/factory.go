package events

import "stakehouse/core/types"

// TypePoolCreated is emitted by the factory for every new pool instance.
const TypePoolCreated = "factory.poolCreated"

// PoolCreated announces a freshly initialized pool instance.
type PoolCreated struct {
	Pool       [20]byte
	Owner      [20]byte
	StakeAsset [20]byte
}

// EventType satisfies the Event interface.
func (PoolCreated) EventType() string { return TypePoolCreated }

// Event converts the structured payload into a broadcastable event.
func (e PoolCreated) Event() *types.Event {
	attrs := map[string]string{
		"pool": poolString(e.Pool),
	}
	if !zeroAddress(e.Owner) {
		attrs["owner"] = accountString(e.Owner)
	}
	if !zeroAddress(e.StakeAsset) {
		attrs["stakeAsset"] = poolString(e.StakeAsset)
	}
	return &types.Event{Type: TypePoolCreated, Attributes: attrs}
}
