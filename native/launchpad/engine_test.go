package launchpad

import (
	"errors"
	"math/big"
	"testing"

	"stakehouse/core/events"
	"stakehouse/core/types"
	"stakehouse/native/staking"
)

type mockState struct {
	pools  map[[20]byte]*PoolState
	users  map[[20]byte][][20]byte
	stakes map[string]*UserStake
}

func newMockState() *mockState {
	return &mockState{
		pools:  make(map[[20]byte]*PoolState),
		users:  make(map[[20]byte][][20]byte),
		stakes: make(map[string]*UserStake),
	}
}

func stakeKey(pool, account [20]byte) string {
	return string(append(append([]byte{}, pool[:]...), account[:]...))
}

func (m *mockState) LaunchpadStateGet(pool [20]byte) (*PoolState, bool, error) {
	st, ok := m.pools[pool]
	if !ok {
		return nil, false, nil
	}
	return st.Clone(), true, nil
}

func (m *mockState) LaunchpadStatePut(pool [20]byte, st *PoolState) error {
	m.pools[pool] = st.Clone()
	return nil
}

func (m *mockState) LaunchpadUsersGet(pool [20]byte) ([][20]byte, error) {
	users := m.users[pool]
	out := make([][20]byte, len(users))
	copy(out, users)
	return out, nil
}

func (m *mockState) LaunchpadUsersPut(pool [20]byte, users [][20]byte) error {
	out := make([][20]byte, len(users))
	copy(out, users)
	m.users[pool] = out
	return nil
}

func (m *mockState) LaunchpadUserStakeGet(pool, account [20]byte) (*UserStake, bool, error) {
	stake, ok := m.stakes[stakeKey(pool, account)]
	if !ok {
		return nil, false, nil
	}
	return stake.Clone(), true, nil
}

func (m *mockState) LaunchpadUserStakePut(pool, account [20]byte, stake *UserStake) error {
	m.stakes[stakeKey(pool, account)] = stake.Clone()
	return nil
}

type mockToken struct {
	balances map[[20]byte]*big.Int
}

func newMockToken() *mockToken {
	return &mockToken{balances: make(map[[20]byte]*big.Int)}
}

func (m *mockToken) bal(account [20]byte) *big.Int {
	if b, ok := m.balances[account]; ok {
		return b
	}
	return big.NewInt(0)
}

func (m *mockToken) credit(account [20]byte, amount int64) {
	m.balances[account] = new(big.Int).Add(m.bal(account), big.NewInt(amount))
}

func (m *mockToken) BalanceOf(account [20]byte) (*big.Int, error) {
	return new(big.Int).Set(m.bal(account)), nil
}

func (m *mockToken) Transfer(from, to [20]byte, amount *big.Int) error {
	fromBal := m.bal(from)
	if fromBal.Cmp(amount) < 0 {
		return errors.New("mock token: transfer amount exceeds balance")
	}
	m.balances[from] = new(big.Int).Sub(fromBal, amount)
	m.balances[to] = new(big.Int).Add(m.bal(to), amount)
	return nil
}

func (m *mockToken) TransferFrom(spender, from, to [20]byte, amount *big.Int) error {
	return m.Transfer(from, to, amount)
}

type captureEmitter struct {
	events []events.Event
}

func (c *captureEmitter) Emit(evt events.Event) {
	c.events = append(c.events, evt)
}

func (c *captureEmitter) payload(t *testing.T, i int) *types.Event {
	t.Helper()
	if i >= len(c.events) {
		t.Fatalf("expected event %d, have %d events", i, len(c.events))
	}
	carrier, ok := c.events[i].(interface{ Event() *types.Event })
	if !ok {
		t.Fatalf("event %d carries no payload", i)
	}
	return carrier.Event()
}

func addr(last byte) [20]byte {
	var out [20]byte
	out[19] = last
	return out
}

type testEnv struct {
	engine  *Engine
	state   *mockState
	asset   *mockToken
	emitter *captureEmitter
	owner   [20]byte
	now     int64
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		state:   newMockState(),
		asset:   newMockToken(),
		emitter: &captureEmitter{},
		owner:   addr(0x01),
		now:     1_700_000_000,
	}
	engine := NewEngine(addr(0xBB))
	engine.SetState(env.state)
	engine.SetAssetLedger(env.asset)
	engine.SetEmitter(env.emitter)
	engine.SetNowFunc(func() int64 { return env.now })
	env.engine = engine
	if err := engine.Initialize(env.owner, addr(0x02), big.NewInt(100), big.NewInt(1000), big.NewInt(2500)); err != nil {
		t.Fatalf("initialize failed: %v", err)
	}
	return env
}

func TestInitializeDefaults(t *testing.T) {
	engine := NewEngine(addr(0xBB))
	engine.SetState(newMockState())
	if err := engine.Initialize(addr(0x01), addr(0x02), nil, nil, nil); err != nil {
		t.Fatalf("initialize failed: %v", err)
	}
	info, err := engine.PoolInfo()
	if err != nil {
		t.Fatalf("pool info failed: %v", err)
	}
	if info.MinStakeAmount.Cmp(DefaultMinStakeAmount) != 0 {
		t.Fatalf("min = %s, want default", info.MinStakeAmount)
	}
	if info.MaxStakeAmount.Cmp(DefaultMaxStakeAmount) != 0 {
		t.Fatalf("max = %s, want default", info.MaxStakeAmount)
	}
	if info.MaxTotalStakeAmount.Cmp(DefaultMaxTotalStakeAmount) != 0 {
		t.Fatalf("cap = %s, want default", info.MaxTotalStakeAmount)
	}
}

func TestInitializeOnce(t *testing.T) {
	env := newTestEnv(t)
	err := env.engine.Initialize(env.owner, addr(0x02), nil, nil, nil)
	if !errors.Is(err, ErrAlreadyInitialized) {
		t.Fatalf("second initialize must fail, got %v", err)
	}
}

func TestInitializeRejectsZeroOwner(t *testing.T) {
	engine := NewEngine(addr(0xBB))
	engine.SetState(newMockState())
	if err := engine.Initialize([20]byte{}, addr(0x02), nil, nil, nil); !errors.Is(err, staking.ErrZeroAddress) {
		t.Fatalf("expected zero-address error, got %v", err)
	}
}

func TestStakeBounds(t *testing.T) {
	env := newTestEnv(t)
	staker := addr(0x10)
	env.asset.credit(staker, 10_000)

	if _, err := env.engine.Stake(staker, big.NewInt(99)); !errors.Is(err, ErrBelowMinStake) {
		t.Fatalf("below-minimum stake must fail, got %v", err)
	}
	if _, err := env.engine.Stake(staker, big.NewInt(1001)); !errors.Is(err, ErrAboveMaxStake) {
		t.Fatalf("above-maximum stake must fail, got %v", err)
	}
	if _, err := env.engine.Stake(staker, big.NewInt(100)); err != nil {
		t.Fatalf("minimum stake failed: %v", err)
	}
	if _, err := env.engine.Stake(staker, big.NewInt(1000)); err != nil {
		t.Fatalf("maximum stake failed: %v", err)
	}
}

func TestStakeGlobalCap(t *testing.T) {
	env := newTestEnv(t)
	a, b, c := addr(0x10), addr(0x11), addr(0x12)
	for _, account := range [][20]byte{a, b, c} {
		env.asset.credit(account, 1000)
	}

	if _, err := env.engine.Stake(a, big.NewInt(1000)); err != nil {
		t.Fatalf("stake failed: %v", err)
	}
	if _, err := env.engine.Stake(b, big.NewInt(1000)); err != nil {
		t.Fatalf("stake failed: %v", err)
	}
	// 2000 of 2500 consumed; 1000 more would breach the cap.
	if _, err := env.engine.Stake(c, big.NewInt(1000)); !errors.Is(err, ErrAboveTotalCap) {
		t.Fatalf("cap breach must fail, got %v", err)
	}
	if _, err := env.engine.Stake(c, big.NewInt(500)); err != nil {
		t.Fatalf("stake within cap failed: %v", err)
	}
	total, err := env.engine.TotalStakeAmount()
	if err != nil {
		t.Fatalf("total failed: %v", err)
	}
	if total.Cmp(big.NewInt(2500)) != 0 {
		t.Fatalf("total = %s, want 2500", total)
	}
}

func TestStakePauseGate(t *testing.T) {
	env := newTestEnv(t)
	staker := addr(0x10)
	env.asset.credit(staker, 1000)

	if err := env.engine.SetPauseStake(env.owner, true); err != nil {
		t.Fatalf("pause failed: %v", err)
	}
	if _, err := env.engine.Stake(staker, big.NewInt(100)); !errors.Is(err, ErrStakePaused) {
		t.Fatalf("paused stake must fail, got %v", err)
	}
	if err := env.engine.SetPauseStake(env.owner, false); err != nil {
		t.Fatalf("unpause failed: %v", err)
	}
	if _, err := env.engine.Stake(staker, big.NewInt(100)); err != nil {
		t.Fatalf("stake after unpause failed: %v", err)
	}
}

func TestStakeAccumulatesPerAccount(t *testing.T) {
	env := newTestEnv(t)
	staker := addr(0x10)
	env.asset.credit(staker, 2000)

	index, err := env.engine.Stake(staker, big.NewInt(400))
	if err != nil {
		t.Fatalf("stake failed: %v", err)
	}
	if index != 0 {
		t.Fatalf("first entry index = %d, want 0", index)
	}
	env.now += 10
	index, err = env.engine.Stake(staker, big.NewInt(600))
	if err != nil {
		t.Fatalf("second stake failed: %v", err)
	}
	if index != 1 {
		t.Fatalf("second entry index = %d, want 1", index)
	}

	// Both entries resolve to the same accumulated position.
	count, err := env.engine.UsersCount()
	if err != nil {
		t.Fatalf("users count failed: %v", err)
	}
	if count != 2 {
		t.Fatalf("users count = %d, want 2", count)
	}
	position, err := env.engine.UserStakeAt(0)
	if err != nil {
		t.Fatalf("entry lookup failed: %v", err)
	}
	if position.Amount.Cmp(big.NewInt(1000)) != 0 {
		t.Fatalf("position amount = %s, want 1000", position.Amount)
	}
	// Timestamp tracks the latest deposit, one second past now.
	if position.Timestamp != uint64(env.now)+1 {
		t.Fatalf("position timestamp = %d, want %d", position.Timestamp, env.now+1)
	}

	payload := env.emitter.payload(t, 1)
	if payload.Type != events.TypeLaunchpadStake {
		t.Fatalf("event type = %s, want %s", payload.Type, events.TypeLaunchpadStake)
	}
	if payload.Attributes["index"] != "1" {
		t.Fatalf("event index = %s, want 1", payload.Attributes["index"])
	}
}

func TestUnstakeChecksAmountBeforeTiming(t *testing.T) {
	env := newTestEnv(t)
	staker := addr(0x10)
	env.asset.credit(staker, 1000)

	if _, err := env.engine.Stake(staker, big.NewInt(500)); err != nil {
		t.Fatalf("stake failed: %v", err)
	}

	// Withdrawals are not armed yet; an oversized amount still reports the
	// balance problem first.
	if err := env.engine.Unstake(staker, big.NewInt(600)); !errors.Is(err, ErrAmountExceedsStake) {
		t.Fatalf("oversized unstake must report amount first, got %v", err)
	}
	if err := env.engine.Unstake(staker, big.NewInt(500)); !errors.Is(err, ErrBadTiming) {
		t.Fatalf("unarmed unstake must report timing, got %v", err)
	}
}

func TestUnstakeAfterUnlock(t *testing.T) {
	env := newTestEnv(t)
	staker := addr(0x10)
	env.asset.credit(staker, 1000)

	if _, err := env.engine.Stake(staker, big.NewInt(500)); err != nil {
		t.Fatalf("stake failed: %v", err)
	}
	unlock := uint64(env.now) + 100
	if err := env.engine.SetUnstakeTime(env.owner, unlock); err != nil {
		t.Fatalf("arming unlock failed: %v", err)
	}
	if err := env.engine.Unstake(staker, big.NewInt(500)); !errors.Is(err, ErrBadTiming) {
		t.Fatalf("unstake before unlock must fail, got %v", err)
	}
	env.now += 100

	if err := env.engine.Unstake(staker, big.NewInt(200)); err != nil {
		t.Fatalf("partial unstake failed: %v", err)
	}
	if got := env.asset.bal(staker); got.Cmp(big.NewInt(700)) != 0 {
		t.Fatalf("staker balance = %s, want 700", got)
	}
	position, err := env.engine.UserStakeOf(staker)
	if err != nil {
		t.Fatalf("position failed: %v", err)
	}
	if position.Amount.Cmp(big.NewInt(300)) != 0 {
		t.Fatalf("remaining position = %s, want 300", position.Amount)
	}
	total, err := env.engine.TotalStakeAmount()
	if err != nil {
		t.Fatalf("total failed: %v", err)
	}
	if total.Cmp(big.NewInt(300)) != 0 {
		t.Fatalf("total = %s, want 300", total)
	}
	if err := env.engine.Unstake(staker, big.NewInt(301)); !errors.Is(err, ErrAmountExceedsStake) {
		t.Fatalf("overdrawn unstake must fail, got %v", err)
	}
}

func TestOwnerSetters(t *testing.T) {
	env := newTestEnv(t)
	stranger := addr(0x66)

	if err := env.engine.SetStakeAmounts(stranger, big.NewInt(1), big.NewInt(2)); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("stranger setter must fail, got %v", err)
	}
	if err := env.engine.SetStakeAmounts(env.owner, big.NewInt(10), big.NewInt(5)); !errors.Is(err, ErrMaxBelowMin) {
		t.Fatalf("max below min must fail, got %v", err)
	}
	if err := env.engine.SetStakeAmounts(env.owner, big.NewInt(10), big.NewInt(20)); err != nil {
		t.Fatalf("setter failed: %v", err)
	}
	if err := env.engine.SetMaxTotalStakeAmount(env.owner, big.NewInt(50)); err != nil {
		t.Fatalf("cap setter failed: %v", err)
	}
	info, err := env.engine.PoolInfo()
	if err != nil {
		t.Fatalf("pool info failed: %v", err)
	}
	if info.MinStakeAmount.Cmp(big.NewInt(10)) != 0 || info.MaxStakeAmount.Cmp(big.NewInt(20)) != 0 {
		t.Fatalf("bounds not updated: [%s, %s]", info.MinStakeAmount, info.MaxStakeAmount)
	}
	if info.MaxTotalStakeAmount.Cmp(big.NewInt(50)) != 0 {
		t.Fatalf("cap not updated: %s", info.MaxTotalStakeAmount)
	}
}

func TestUserViews(t *testing.T) {
	env := newTestEnv(t)
	a, b := addr(0x10), addr(0x11)
	env.asset.credit(a, 1000)
	env.asset.credit(b, 1000)

	if _, err := env.engine.Stake(a, big.NewInt(100)); err != nil {
		t.Fatalf("stake failed: %v", err)
	}
	if _, err := env.engine.Stake(b, big.NewInt(200)); err != nil {
		t.Fatalf("stake failed: %v", err)
	}

	user, err := env.engine.User(1)
	if err != nil {
		t.Fatalf("user lookup failed: %v", err)
	}
	if user != b {
		t.Fatalf("user at entry 1 mismatch")
	}
	if _, err := env.engine.User(2); !errors.Is(err, ErrEntryNotFound) {
		t.Fatalf("out-of-range entry must fail, got %v", err)
	}
	position, err := env.engine.UserStakeAt(1)
	if err != nil {
		t.Fatalf("entry position failed: %v", err)
	}
	if position.Amount.Cmp(big.NewInt(200)) != 0 {
		t.Fatalf("entry position = %s, want 200", position.Amount)
	}
}
