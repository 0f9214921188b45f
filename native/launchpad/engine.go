package launchpad

import (
	"math/big"
	"time"

	"stakehouse/core/events"
	"stakehouse/core/types"
	"stakehouse/native/staking"
)

// engineState is the persistence surface of one capped-sale pool instance.
type engineState interface {
	LaunchpadStateGet(pool [20]byte) (*PoolState, bool, error)
	LaunchpadStatePut(pool [20]byte, st *PoolState) error
	LaunchpadUsersGet(pool [20]byte) ([][20]byte, error)
	LaunchpadUsersPut(pool [20]byte, users [][20]byte) error
	LaunchpadUserStakeGet(pool, account [20]byte) (*UserStake, bool, error)
	LaunchpadUserStakePut(pool, account [20]byte, stake *UserStake) error
}

type launchpadEvent struct {
	evt *types.Event
}

func (e launchpadEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e launchpadEvent) Event() *types.Event { return e.evt }

// Engine drives a fixed-window fundraising pool: globally capped deposits
// within per-stake bounds, no per-stake bonuses, and a single owner-armed
// unlock instead of per-record hold times.
type Engine struct {
	pool    [20]byte
	state   engineState
	asset   staking.AssetLedger
	emitter events.Emitter
	nowFn   func() int64
}

// NewEngine constructs a capped-sale engine for the given pool address.
func NewEngine(pool [20]byte) *Engine {
	return &Engine{
		pool:    pool,
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

// Address returns the pool instance address.
func (e *Engine) Address() [20]byte { return e.pool }

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetAssetLedger configures the stake-asset ledger.
func (e *Engine) SetAssetLedger(asset staking.AssetLedger) { e.asset = asset }

// SetEmitter configures the event emitter used by the engine. Passing nil
// resets the emitter to a no-op implementation.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc overrides the time source used for deterministic testing.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

func (e *Engine) now() uint64 {
	ts := e.nowFn()
	if ts < 0 {
		return 0
	}
	return uint64(ts)
}

func (e *Engine) emit(evt *types.Event) {
	if e == nil || evt == nil || e.emitter == nil {
		return
	}
	e.emitter.Emit(launchpadEvent{evt: evt})
}

// Initialize performs the one-time setup of the pool. Nil bounds fall back to
// the package defaults. A second call always fails.
func (e *Engine) Initialize(owner, stakeAsset [20]byte, minStake, maxStake, maxTotal *big.Int) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	if isZeroAddress(owner) {
		return staking.ZeroAddressError("LaunchPadPool", "initialize", "owner")
	}
	if isZeroAddress(stakeAsset) {
		return staking.ZeroAddressError("LaunchPadPool", "initialize", "stakeAsset")
	}
	if st, ok, err := e.state.LaunchpadStateGet(e.pool); err != nil {
		return err
	} else if ok && st != nil && st.Initialized {
		return ErrAlreadyInitialized
	}
	if minStake == nil {
		minStake = DefaultMinStakeAmount
	}
	if maxStake == nil {
		maxStake = DefaultMaxStakeAmount
	}
	if maxTotal == nil {
		maxTotal = DefaultMaxTotalStakeAmount
	}
	if maxStake.Cmp(minStake) < 0 {
		return ErrMaxBelowMin
	}
	return e.state.LaunchpadStatePut(e.pool, &PoolState{
		Initialized:         true,
		Owner:               owner,
		StakeAsset:          stakeAsset,
		MinStakeAmount:      copyBig(minStake),
		MaxStakeAmount:      copyBig(maxStake),
		MaxTotalStakeAmount: copyBig(maxTotal),
		TotalStakeAmount:    big.NewInt(0),
	})
}

func (e *Engine) poolState() (*PoolState, error) {
	st, ok, err := e.state.LaunchpadStateGet(e.pool)
	if err != nil {
		return nil, err
	}
	if !ok || st == nil || !st.Initialized {
		return nil, ErrNotInitialized
	}
	if st.TotalStakeAmount == nil {
		st.TotalStakeAmount = big.NewInt(0)
	}
	return st, nil
}

// PoolInfo returns a copy of the pool's bookkeeping state.
func (e *Engine) PoolInfo() (*PoolState, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	st, err := e.poolState()
	if err != nil {
		return nil, err
	}
	return st.Clone(), nil
}

// Stake deposits amount into the sale. The deposit must respect the per-stake
// bounds and the global cap, and staking must not be paused. The accepted
// entry is timestamped one second past the current time.
func (e *Engine) Stake(staker [20]byte, amount *big.Int) (uint64, error) {
	if e == nil || e.state == nil {
		return 0, ErrNilState
	}
	if e.asset == nil {
		return 0, ErrNilAssetLedger
	}
	st, err := e.poolState()
	if err != nil {
		return 0, err
	}
	if amount == nil || amount.Sign() <= 0 {
		return 0, ErrInvalidAmount
	}
	if st.PauseStake {
		return 0, ErrStakePaused
	}
	if amount.Cmp(st.MinStakeAmount) < 0 {
		return 0, ErrBelowMinStake
	}
	if amount.Cmp(st.MaxStakeAmount) > 0 {
		return 0, ErrAboveMaxStake
	}
	if new(big.Int).Add(st.TotalStakeAmount, amount).Cmp(st.MaxTotalStakeAmount) > 0 {
		return 0, ErrAboveTotalCap
	}
	if err := e.asset.TransferFrom(e.pool, staker, e.pool, amount); err != nil {
		return 0, err
	}

	timestamp := e.now() + 1
	users, err := e.state.LaunchpadUsersGet(e.pool)
	if err != nil {
		return 0, err
	}
	index := uint64(len(users))
	users = append(users, staker)
	if err := e.state.LaunchpadUsersPut(e.pool, users); err != nil {
		return 0, err
	}
	position, ok, err := e.state.LaunchpadUserStakeGet(e.pool, staker)
	if err != nil {
		return 0, err
	}
	if !ok || position == nil {
		position = &UserStake{Amount: big.NewInt(0)}
	}
	position.Amount = new(big.Int).Add(position.Amount, amount)
	position.Timestamp = timestamp
	if err := e.state.LaunchpadUserStakePut(e.pool, staker, position); err != nil {
		return 0, err
	}
	st.TotalStakeAmount = new(big.Int).Add(st.TotalStakeAmount, amount)
	if err := e.state.LaunchpadStatePut(e.pool, st); err != nil {
		return 0, err
	}
	e.emit(events.LaunchpadStake{
		Pool:      e.pool,
		Account:   staker,
		Index:     index,
		Amount:    amount,
		Timestamp: timestamp,
	}.Event())
	return index, nil
}

// Unstake withdraws up to the caller's recorded balance. Every attempt fails
// with a bad-timing error until the owner arms the unlock switch; afterwards
// withdrawals open once the armed timestamp passes. Balances only decrement
// and never go negative.
func (e *Engine) Unstake(staker [20]byte, amount *big.Int) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	if e.asset == nil {
		return ErrNilAssetLedger
	}
	st, err := e.poolState()
	if err != nil {
		return err
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	position, ok, err := e.state.LaunchpadUserStakeGet(e.pool, staker)
	if err != nil {
		return err
	}
	if !ok || position == nil || position.Amount.Cmp(amount) < 0 {
		return ErrAmountExceedsStake
	}
	if !st.UnstakeEnabled || e.now() < st.UnstakeTime {
		return ErrBadTiming
	}
	position.Amount = new(big.Int).Sub(position.Amount, amount)
	if err := e.state.LaunchpadUserStakePut(e.pool, staker, position); err != nil {
		return err
	}
	st.TotalStakeAmount = new(big.Int).Sub(st.TotalStakeAmount, amount)
	if err := e.state.LaunchpadStatePut(e.pool, st); err != nil {
		return err
	}
	if err := e.asset.Transfer(e.pool, staker, amount); err != nil {
		return err
	}
	e.emit(events.LaunchpadUnstake{Pool: e.pool, Account: staker, Amount: amount}.Event())
	return nil
}

func (e *Engine) requireOwner(st *PoolState, caller [20]byte) error {
	if st.Owner != caller {
		return ErrUnauthorized
	}
	return nil
}

// SetStakeAmounts updates the per-stake bounds. Owner only; the new maximum
// must not be below the new minimum.
func (e *Engine) SetStakeAmounts(caller [20]byte, minStake, maxStake *big.Int) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	st, err := e.poolState()
	if err != nil {
		return err
	}
	if err := e.requireOwner(st, caller); err != nil {
		return err
	}
	if minStake == nil || maxStake == nil || maxStake.Cmp(minStake) < 0 {
		return ErrMaxBelowMin
	}
	st.MinStakeAmount = copyBig(minStake)
	st.MaxStakeAmount = copyBig(maxStake)
	return e.state.LaunchpadStatePut(e.pool, st)
}

// SetMaxTotalStakeAmount updates the global cap. Owner only.
func (e *Engine) SetMaxTotalStakeAmount(caller [20]byte, maxTotal *big.Int) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	st, err := e.poolState()
	if err != nil {
		return err
	}
	if err := e.requireOwner(st, caller); err != nil {
		return err
	}
	if maxTotal == nil || maxTotal.Sign() < 0 {
		return ErrInvalidAmount
	}
	st.MaxTotalStakeAmount = copyBig(maxTotal)
	return e.state.LaunchpadStatePut(e.pool, st)
}

// SetPauseStake toggles the deposit gate. Owner only.
func (e *Engine) SetPauseStake(caller [20]byte, paused bool) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	st, err := e.poolState()
	if err != nil {
		return err
	}
	if err := e.requireOwner(st, caller); err != nil {
		return err
	}
	st.PauseStake = paused
	return e.state.LaunchpadStatePut(e.pool, st)
}

// SetUnstakeTime arms the unlock switch with the given timestamp. Owner only.
// Arming with a past timestamp (including zero) opens withdrawals immediately.
func (e *Engine) SetUnstakeTime(caller [20]byte, unlock uint64) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	st, err := e.poolState()
	if err != nil {
		return err
	}
	if err := e.requireOwner(st, caller); err != nil {
		return err
	}
	st.UnstakeEnabled = true
	st.UnstakeTime = unlock
	return e.state.LaunchpadStatePut(e.pool, st)
}

// TotalStakeAmount returns the running deposit sum.
func (e *Engine) TotalStakeAmount() (*big.Int, error) {
	st, err := e.PoolInfo()
	if err != nil {
		return nil, err
	}
	return st.TotalStakeAmount, nil
}

// UsersCount returns the number of accepted deposit entries.
func (e *Engine) UsersCount() (uint64, error) {
	if e == nil || e.state == nil {
		return 0, ErrNilState
	}
	users, err := e.state.LaunchpadUsersGet(e.pool)
	if err != nil {
		return 0, err
	}
	return uint64(len(users)), nil
}

// User returns the staker behind entry index.
func (e *Engine) User(index uint64) ([20]byte, error) {
	if e == nil || e.state == nil {
		return [20]byte{}, ErrNilState
	}
	users, err := e.state.LaunchpadUsersGet(e.pool)
	if err != nil {
		return [20]byte{}, err
	}
	if index >= uint64(len(users)) {
		return [20]byte{}, ErrEntryNotFound
	}
	return users[index], nil
}

// UserStakeOf returns the account's current position. Accounts that never
// staked report a zero position.
func (e *Engine) UserStakeOf(account [20]byte) (*UserStake, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	position, ok, err := e.state.LaunchpadUserStakeGet(e.pool, account)
	if err != nil {
		return nil, err
	}
	if !ok || position == nil {
		return &UserStake{Amount: big.NewInt(0)}, nil
	}
	return position.Clone(), nil
}

// UserStakeAt resolves entry index to its staker's current position.
func (e *Engine) UserStakeAt(index uint64) (*UserStake, error) {
	account, err := e.User(index)
	if err != nil {
		return nil, err
	}
	position, ok, err := e.state.LaunchpadUserStakeGet(e.pool, account)
	if err != nil {
		return nil, err
	}
	if !ok || position == nil {
		return &UserStake{Amount: big.NewInt(0)}, nil
	}
	return position.Clone(), nil
}
