package whitelist

import (
	"errors"

	"stakehouse/core/events"
	"stakehouse/core/types"
)

var (
	ErrNilState           = errors.New("whitelist: state not configured")
	ErrAlreadyInitialized = errors.New("whitelist: may only be initialized once")
	ErrNotInitialized     = errors.New("whitelist: not initialized")
	ErrUnauthorized       = errors.New("whitelist: caller is not the owner")
)

// State abstracts the persistence required by the membership registry.
type State interface {
	WhitelistOwnerGet() ([20]byte, bool, error)
	WhitelistOwnerPut(owner [20]byte) error
	WhitelistMemberGet(account [20]byte) (bool, error)
	WhitelistMemberPut(account [20]byte, member bool) error
}

type whitelistEvent struct {
	evt *types.Event
}

func (e whitelistEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e whitelistEvent) Event() *types.Event { return e.evt }

// Whitelist is the membership oracle consulted by pool engines when a stake
// names an influencer. Mutation is restricted to the owner set at
// initialization.
type Whitelist struct {
	state   State
	emitter events.Emitter
}

// New constructs a whitelist with a no-op emitter.
func New() *Whitelist {
	return &Whitelist{emitter: events.NoopEmitter{}}
}

// SetState configures the state backend used by the whitelist.
func (w *Whitelist) SetState(state State) { w.state = state }

// SetEmitter configures the event emitter. Passing nil resets it to a no-op
// implementation.
func (w *Whitelist) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		w.emitter = events.NoopEmitter{}
		return
	}
	w.emitter = emitter
}

func (w *Whitelist) emit(evt *types.Event) {
	if w == nil || evt == nil || w.emitter == nil {
		return
	}
	w.emitter.Emit(whitelistEvent{evt: evt})
}

// Initialize records the owner allowed to mutate the membership set. A second
// call fails.
func (w *Whitelist) Initialize(owner [20]byte) error {
	if w == nil || w.state == nil {
		return ErrNilState
	}
	if _, ok, err := w.state.WhitelistOwnerGet(); err != nil {
		return err
	} else if ok {
		return ErrAlreadyInitialized
	}
	return w.state.WhitelistOwnerPut(owner)
}

func (w *Whitelist) requireOwner(caller [20]byte) error {
	owner, ok, err := w.state.WhitelistOwnerGet()
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotInitialized
	}
	if owner != caller {
		return ErrUnauthorized
	}
	return nil
}

// Add grants membership to an account. Owner only.
func (w *Whitelist) Add(caller, account [20]byte) error {
	if w == nil || w.state == nil {
		return ErrNilState
	}
	if err := w.requireOwner(caller); err != nil {
		return err
	}
	if err := w.state.WhitelistMemberPut(account, true); err != nil {
		return err
	}
	w.emit(events.WhitelistAdded{Account: account}.Event())
	return nil
}

// Remove revokes membership from an account. Owner only.
func (w *Whitelist) Remove(caller, account [20]byte) error {
	if w == nil || w.state == nil {
		return ErrNilState
	}
	if err := w.requireOwner(caller); err != nil {
		return err
	}
	if err := w.state.WhitelistMemberPut(account, false); err != nil {
		return err
	}
	w.emit(events.WhitelistRemoved{Account: account}.Event())
	return nil
}

// IsWhitelisted reports whether an account is currently a member.
func (w *Whitelist) IsWhitelisted(account [20]byte) (bool, error) {
	if w == nil || w.state == nil {
		return false, ErrNilState
	}
	return w.state.WhitelistMemberGet(account)
}
