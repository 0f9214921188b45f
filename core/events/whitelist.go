package events

import "stakehouse/core/types"

const (
	// TypeWhitelistAdded is emitted when an account gains influencer status.
	TypeWhitelistAdded = "whitelist.added"
	// TypeWhitelistRemoved is emitted when an account loses influencer status.
	TypeWhitelistRemoved = "whitelist.removed"
)

// WhitelistAdded records an owner adding an account to the membership set.
type WhitelistAdded struct {
	Account [20]byte
}

// EventType satisfies the Event interface.
func (WhitelistAdded) EventType() string { return TypeWhitelistAdded }

// Event converts the structured payload into a broadcastable event.
func (e WhitelistAdded) Event() *types.Event {
	return &types.Event{
		Type: TypeWhitelistAdded,
		Attributes: map[string]string{
			"account": accountString(e.Account),
		},
	}
}

// WhitelistRemoved records an owner removing an account from the membership set.
type WhitelistRemoved struct {
	Account [20]byte
}

// EventType satisfies the Event interface.
func (WhitelistRemoved) EventType() string { return TypeWhitelistRemoved }

// Event converts the structured payload into a broadcastable event.
func (e WhitelistRemoved) Event() *types.Event {
	return &types.Event{
		Type: TypeWhitelistRemoved,
		Attributes: map[string]string{
			"account": accountString(e.Account),
		},
	}
}
