package reservoir

import (
	"errors"
	"math/big"

	"stakehouse/native/staking"
)

var (
	// ErrNilState is returned when the reservoir is used before a state
	// backend has been configured.
	ErrNilState = errors.New("reservoir: state not configured")
	// ErrNilAssetLedger is returned when no token ledger has been configured.
	ErrNilAssetLedger = errors.New("reservoir: asset ledger not configured")
	// ErrNotInitialized is returned when the reservoir has not been set up.
	ErrNotInitialized = errors.New("reservoir: not initialized")
	// ErrAlreadyInitialized is returned by repeated initialize calls.
	ErrAlreadyInitialized = errors.New("reservoir: may only be initialized once")
	// ErrInvalidDripRate is returned when the drip rate is nil or not positive.
	ErrInvalidDripRate = errors.New("reservoir: drip rate must be positive")
	// ErrDrained is returned by Drip when the reservoir balance is zero.
	ErrDrained = errors.New("reservoir: empty")
)

// State captures the reservoir's persisted configuration.
type State struct {
	Initialized bool
	Token       [20]byte
	Target      [20]byte
	DripRate    *big.Int
}

// Clone returns a deep copy of the reservoir state.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	out := *s
	if s.DripRate != nil {
		out.DripRate = new(big.Int).Set(s.DripRate)
	}
	return &out
}

// engineState is the persistence surface of one reservoir instance.
type engineState interface {
	ReservoirStateGet(reservoir [20]byte) (*State, bool, error)
	ReservoirStatePut(reservoir [20]byte, st *State) error
}

// Reservoir holds a token buffer and drips it toward a target pool so the
// pool can cover bonus payouts that exceed raw deposits.
type Reservoir struct {
	address [20]byte
	state   engineState
	asset   staking.AssetLedger
}

// New constructs a reservoir at the given address.
func New(address [20]byte) *Reservoir {
	return &Reservoir{address: address}
}

// Address returns the reservoir's own address.
func (r *Reservoir) Address() [20]byte { return r.address }

// SetState configures the state backend.
func (r *Reservoir) SetState(state engineState) { r.state = state }

// SetAssetLedger configures the token ledger the reservoir drips from.
func (r *Reservoir) SetAssetLedger(asset staking.AssetLedger) { r.asset = asset }

// Initialize points the reservoir at a target and fixes the per-drip amount.
// A second call always fails.
func (r *Reservoir) Initialize(tokenAddr, target [20]byte, dripRate *big.Int) error {
	if r == nil || r.state == nil {
		return ErrNilState
	}
	if tokenAddr == ([20]byte{}) {
		return staking.ZeroAddressError("Reservoir", "initialize", "token")
	}
	if target == ([20]byte{}) {
		return staking.ZeroAddressError("Reservoir", "initialize", "target")
	}
	if dripRate == nil || dripRate.Sign() <= 0 {
		return ErrInvalidDripRate
	}
	if st, ok, err := r.state.ReservoirStateGet(r.address); err != nil {
		return err
	} else if ok && st != nil && st.Initialized {
		return ErrAlreadyInitialized
	}
	return r.state.ReservoirStatePut(r.address, &State{
		Initialized: true,
		Token:       tokenAddr,
		Target:      target,
		DripRate:    new(big.Int).Set(dripRate),
	})
}

func (r *Reservoir) loadState() (*State, error) {
	st, ok, err := r.state.ReservoirStateGet(r.address)
	if err != nil {
		return nil, err
	}
	if !ok || st == nil || !st.Initialized {
		return nil, ErrNotInitialized
	}
	return st, nil
}

// Info returns a copy of the reservoir configuration.
func (r *Reservoir) Info() (*State, error) {
	if r == nil || r.state == nil {
		return nil, ErrNilState
	}
	st, err := r.loadState()
	if err != nil {
		return nil, err
	}
	return st.Clone(), nil
}

// Balance returns the reservoir's remaining token balance.
func (r *Reservoir) Balance() (*big.Int, error) {
	if r == nil || r.state == nil {
		return nil, ErrNilState
	}
	if r.asset == nil {
		return nil, ErrNilAssetLedger
	}
	if _, err := r.loadState(); err != nil {
		return nil, err
	}
	return r.asset.BalanceOf(r.address)
}

// Drip transfers one drip-rate tranche to the target, clamped to the
// remaining balance. An empty reservoir fails with ErrDrained.
func (r *Reservoir) Drip() (*big.Int, error) {
	if r == nil || r.state == nil {
		return nil, ErrNilState
	}
	if r.asset == nil {
		return nil, ErrNilAssetLedger
	}
	st, err := r.loadState()
	if err != nil {
		return nil, err
	}
	balance, err := r.asset.BalanceOf(r.address)
	if err != nil {
		return nil, err
	}
	if balance.Sign() == 0 {
		return nil, ErrDrained
	}
	amount := new(big.Int).Set(st.DripRate)
	if amount.Cmp(balance) > 0 {
		amount.Set(balance)
	}
	if err := r.asset.Transfer(r.address, st.Target, amount); err != nil {
		return nil, err
	}
	return amount, nil
}
