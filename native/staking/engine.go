package staking

import (
	"math/big"
	"time"

	"stakehouse/core/events"
)

// engineState is the persistence surface one pool instance requires. Per-pool
// keys keep every instance's storage exclusively owned by that instance.
type engineState interface {
	PoolStateGet(pool [20]byte) (*PoolState, bool, error)
	PoolStatePut(pool [20]byte, st *PoolState) error
	StakesGet(pool, owner [20]byte) ([]StakeRecord, error)
	StakesPut(pool, owner [20]byte, records []StakeRecord) error
}

// AssetLedger is the engine's view of the fungible stake asset. Transfer
// failures (insufficient balance/allowance) propagate to the caller and abort
// the whole operation.
type AssetLedger interface {
	TransferFrom(spender, from, to [20]byte, amount *big.Int) error
	Transfer(from, to [20]byte, amount *big.Int) error
	BalanceOf(account [20]byte) (*big.Int, error)
}

// ClaimLedger mints and burns the pool's own claim-token balances.
type ClaimLedger interface {
	Mint(to [20]byte, amount *big.Int) error
	Burn(from [20]byte, amount *big.Int) error
	BalanceOf(account [20]byte) (*big.Int, error)
}

// MembershipOracle answers whether an account is authorized as an influencer.
type MembershipOracle interface {
	IsWhitelisted(account [20]byte) (bool, error)
}

// Engine orchestrates a single pool instance: it validates inputs, drives the
// asset and claim ledgers, keeps the stake ledger and emits domain events.
// Bonus arithmetic is delegated to the shared Terms logic module.
type Engine struct {
	pool      [20]byte
	state     engineState
	terms     *Terms
	asset     AssetLedger
	claim     ClaimLedger
	whitelist MembershipOracle
	emitter   events.Emitter
	nowFn     func() int64
	ledger    *Ledger
}

// NewEngine constructs a pool engine for the given instance address with a
// no-op emitter. Collaborators are wired through the setters before use.
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
func (e *Engine) SetState(state engineState) {
	e.state = state
	e.ledger = NewLedger(state, e.pool)
}

// SetTerms binds the shared logic module.
func (e *Engine) SetTerms(terms *Terms) { e.terms = terms }

// SetAssetLedger configures the stake-asset ledger.
func (e *Engine) SetAssetLedger(asset AssetLedger) { e.asset = asset }

// SetClaimLedger configures the claim-token ledger.
func (e *Engine) SetClaimLedger(claim ClaimLedger) { e.claim = claim }

// SetWhitelist configures the influencer membership oracle.
func (e *Engine) SetWhitelist(oracle MembershipOracle) { e.whitelist = oracle }

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
	if e == nil || e.nowFn == nil {
		return uint64(time.Now().Unix())
	}
	ts := e.nowFn()
	if ts < 0 {
		return 0
	}
	return uint64(ts)
}

// Ledger exposes the pool's stake ledger for read paths.
func (e *Engine) Ledger() *Ledger { return e.ledger }

func (e *Engine) requireDeps() error {
	switch {
	case e == nil || e.state == nil:
		return ErrNilState
	case e.terms == nil:
		return ErrNilTerms
	case e.asset == nil:
		return ErrNilAssetLedger
	case e.claim == nil:
		return ErrNilClaimLedger
	}
	return nil
}

func (e *Engine) poolState() (*PoolState, error) {
	st, ok, err := e.state.PoolStateGet(e.pool)
	if err != nil {
		return nil, err
	}
	if !ok || st == nil || !st.Initialized {
		return nil, ErrNotInitialized
	}
	if st.RetainedFees == nil {
		st.RetainedFees = big.NewInt(0)
	}
	return st, nil
}

// Initialize performs the one-time setup of the pool instance. A second call
// always fails and never changes state.
func (e *Engine) Initialize(owner, stakeAsset, claimToken [20]byte) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	if isZeroAddress(owner) {
		return ZeroAddressError("StakingPool", "initialize", "owner")
	}
	if isZeroAddress(stakeAsset) {
		return ZeroAddressError("StakingPool", "initialize", "stakeAsset")
	}
	if isZeroAddress(claimToken) {
		return ZeroAddressError("StakingPool", "initialize", "claimToken")
	}
	if st, ok, err := e.state.PoolStateGet(e.pool); err != nil {
		return err
	} else if ok && st != nil && st.Initialized {
		return ErrAlreadyInitialized
	}
	return e.state.PoolStatePut(e.pool, &PoolState{
		Initialized:  true,
		Owner:        owner,
		StakeAsset:   stakeAsset,
		ClaimToken:   claimToken,
		RetainedFees: big.NewInt(0),
	})
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

// party normalises an optional address: nil result means the party is absent.
func party(addr *[20]byte) *[20]byte {
	if addr == nil || isZeroAddress(*addr) {
		return nil
	}
	return addr
}

// Stake deposits amount of the stake asset and credits claim balances to the
// staker and every supplied secondary party. One stake event is emitted per
// credited party, staker first, then referer, influencer and developer.
func (e *Engine) Stake(staker [20]byte, amount *big.Int, opts StakeOptions) (*StakeResult, error) {
	if err := e.requireDeps(); err != nil {
		return nil, err
	}
	st, err := e.poolState()
	if err != nil {
		return nil, err
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}

	referer := party(opts.Referer)
	if referer != nil && *referer == staker {
		return nil, ErrSelfReferral
	}
	influencer := party(opts.Influencer)
	if influencer != nil {
		if *influencer == staker {
			return nil, ErrSelfReferral
		}
		if e.whitelist == nil {
			return nil, ErrNilWhitelist
		}
		ok, err := e.whitelist.IsWhitelisted(*influencer)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrNotWhitelisted
		}
	}

	amounts, err := e.terms.CalcAllLPAmountOut(amount, opts.HoldTime)
	if err != nil {
		return nil, err
	}
	if err := e.asset.TransferFrom(e.pool, staker, e.pool, amount); err != nil {
		return nil, err
	}

	now := e.now()
	index, err := e.credit(st, staker, amounts.Staker, now, opts.HoldTime)
	if err != nil {
		return nil, err
	}
	if referer != nil {
		if _, err := e.credit(st, *referer, amounts.Referer, now, 0); err != nil {
			return nil, err
		}
	}
	if influencer != nil {
		if _, err := e.credit(st, *influencer, amounts.Influencer, now, 0); err != nil {
			return nil, err
		}
	}
	if opts.DeveloperBonus && !isZeroAddress(e.terms.DeveloperAddress) {
		if _, err := e.credit(st, e.terms.DeveloperAddress, amounts.Developer, now, 0); err != nil {
			return nil, err
		}
	}
	if err := e.state.PoolStatePut(e.pool, st); err != nil {
		return nil, err
	}
	return &StakeResult{Index: index, Amounts: amounts}, nil
}

// credit mints one party's claim balance, appends its stake record and emits
// the corresponding stake event.
func (e *Engine) credit(st *PoolState, account [20]byte, amount *big.Int, now, holdTime uint64) (uint64, error) {
	if err := e.claim.Mint(account, amount); err != nil {
		return 0, err
	}
	index, err := e.ledger.RecordStake(account, amount, now, holdTime)
	if err != nil {
		return 0, err
	}
	st.StakeCounter++
	e.emitStake(account, index, amount, holdTime)
	return index, nil
}

// payout computes the fee-adjusted asset amount a record releases at time now.
func (e *Engine) payout(record *StakeRecord, now uint64) (*big.Int, error) {
	var elapsed uint64
	if now > record.Timestamp {
		elapsed = now - record.Timestamp
	}
	fee, err := e.terms.UnholdFee(record.Amount, record.HoldTime, elapsed)
	if err != nil {
		return nil, err
	}
	return new(big.Int).Sub(record.Amount, fee), nil
}

// Unstake withdraws the caller's record at index: the full recorded claim
// amount is burned while only the fee-adjusted payout of the stake asset is
// returned. The retained difference stays in the pool as revenue for the
// remaining participants.
func (e *Engine) Unstake(staker [20]byte, index uint64) (*big.Int, error) {
	if err := e.requireDeps(); err != nil {
		return nil, err
	}
	st, err := e.poolState()
	if err != nil {
		return nil, err
	}
	record, err := e.ledger.Record(staker, index)
	if err != nil {
		return nil, err
	}
	if !record.Active {
		return nil, ErrStakeInactive
	}
	payout, err := e.payout(record, e.now())
	if err != nil {
		return nil, err
	}
	poolBalance, err := e.asset.BalanceOf(e.pool)
	if err != nil {
		return nil, err
	}
	if poolBalance.Cmp(payout) < 0 {
		return nil, ErrPoolUnderfunded
	}
	amount, err := e.ledger.RecordWithdrawal(staker, index, staker)
	if err != nil {
		return nil, err
	}
	if err := e.claim.Burn(staker, amount); err != nil {
		return nil, err
	}
	if err := e.asset.Transfer(e.pool, staker, payout); err != nil {
		return nil, err
	}
	if fee := new(big.Int).Sub(amount, payout); fee.Sign() > 0 {
		st.RetainedFees = new(big.Int).Add(st.RetainedFees, fee)
	}
	if err := e.state.PoolStatePut(e.pool, st); err != nil {
		return nil, err
	}
	e.emitUnstake(staker, index, payout)
	return payout, nil
}

// AmountAfterUnstake quotes the payout withdrawal of one record would yield
// right now, without executing it. An already-withdrawn record quotes zero
// rather than failing.
func (e *Engine) AmountAfterUnstake(owner [20]byte, index uint64) (*big.Int, error) {
	if err := e.requireDeps(); err != nil {
		return nil, err
	}
	record, err := e.ledger.Record(owner, index)
	if err != nil {
		return nil, err
	}
	if !record.Active {
		return big.NewInt(0), nil
	}
	return e.payout(record, e.now())
}

// AmountAfterUnstakeAll aggregates AmountAfterUnstake across all of owner's
// active records.
func (e *Engine) AmountAfterUnstakeAll(owner [20]byte) (*big.Int, error) {
	if err := e.requireDeps(); err != nil {
		return nil, err
	}
	active, err := e.ledger.ActiveStakes(owner)
	if err != nil {
		return nil, err
	}
	now := e.now()
	total := big.NewInt(0)
	for _, record := range active {
		payout, err := e.payout(&record, now)
		if err != nil {
			return nil, err
		}
		total.Add(total, payout)
	}
	return total, nil
}

// GetUserStakes returns every record of owner, withdrawn ones included.
func (e *Engine) GetUserStakes(owner [20]byte) ([]StakeRecord, error) {
	if e == nil || e.ledger == nil {
		return nil, ErrNilState
	}
	return e.ledger.AllStakes(owner)
}
