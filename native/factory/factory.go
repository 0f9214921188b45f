package factory

import (
	"encoding/binary"
	"errors"
	"math/big"
	"time"

	gethcrypto "github.com/ethereum/go-ethereum/crypto"

	"stakehouse/core/events"
	"stakehouse/core/types"
	"stakehouse/native/launchpad"
	"stakehouse/native/registry"
	"stakehouse/native/staking"
	"stakehouse/native/token"
)

var (
	// ErrNilBackend is returned when the factory is used before a state
	// backend has been configured.
	ErrNilBackend = errors.New("factory: state backend not configured")
	// ErrNilLedger is returned when no token ledger has been configured.
	ErrNilLedger = errors.New("factory: token ledger not configured")
	// ErrNilTerms is returned when a pool is created without staking terms.
	ErrNilTerms = errors.New("factory: terms must not be nil")
)

// Backend aggregates the persistence surfaces of the factory and of the
// engines it instantiates. The state manager satisfies all of them.
type Backend interface {
	FactoryStateGet(factory [20]byte) (*FactoryState, bool, error)
	FactoryStatePut(factory [20]byte, st *FactoryState) error

	PoolStateGet(pool [20]byte) (*staking.PoolState, bool, error)
	PoolStatePut(pool [20]byte, st *staking.PoolState) error
	StakesGet(pool, owner [20]byte) ([]staking.StakeRecord, error)
	StakesPut(pool, owner [20]byte, records []staking.StakeRecord) error

	LaunchpadStateGet(pool [20]byte) (*launchpad.PoolState, bool, error)
	LaunchpadStatePut(pool [20]byte, st *launchpad.PoolState) error
	LaunchpadUsersGet(pool [20]byte) ([][20]byte, error)
	LaunchpadUsersPut(pool [20]byte, users [][20]byte) error
	LaunchpadUserStakeGet(pool, account [20]byte) (*launchpad.UserStake, bool, error)
	LaunchpadUserStakePut(pool, account [20]byte, stake *launchpad.UserStake) error
}

// FactoryState is the factory's persisted bookkeeping: a monotonically
// increasing nonce feeding address derivation and the list of created pools.
type FactoryState struct {
	Nonce uint64
	Pools [][20]byte
}

// Clone returns a deep copy of the factory state.
func (s *FactoryState) Clone() *FactoryState {
	if s == nil {
		return nil
	}
	pools := make([][20]byte, len(s.Pools))
	copy(pools, s.Pools)
	return &FactoryState{Nonce: s.Nonce, Pools: pools}
}

// ClaimTokenName derives the default claim-token name for a stake asset.
func ClaimTokenName(assetName string) string { return "Staking LP " + assetName }

// ClaimTokenSymbol derives the default claim-token symbol for a stake asset.
func ClaimTokenSymbol(assetSymbol string) string { return "StLP " + assetSymbol }

type factoryEvent struct {
	evt *types.Event
}

func (e factoryEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e factoryEvent) Event() *types.Event { return e.evt }

// Factory instantiates pool engines with deterministic addresses, initializes
// their claim tokens and records every created pool.
type Factory struct {
	address  [20]byte
	backend  Backend
	ledger   *token.Ledger
	registry *registry.Registry
	emitter  events.Emitter
	nowFn    func() int64
}

// New constructs a factory at the given address. Collaborators are wired
// through the setters before use.
func New(address [20]byte) *Factory {
	return &Factory{
		address: address,
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

// Address returns the factory's own address.
func (f *Factory) Address() [20]byte { return f.address }

// SetBackend configures the shared state backend.
func (f *Factory) SetBackend(backend Backend) { f.backend = backend }

// SetLedger configures the token ledger used for stake assets and for
// minting fresh claim tokens.
func (f *Factory) SetLedger(ledger *token.Ledger) { f.ledger = ledger }

// SetRegistry configures the pool registry. A nil registry disables
// registration.
func (f *Factory) SetRegistry(reg *registry.Registry) { f.registry = reg }

// SetEmitter configures the event emitter handed to created engines. Nil
// resets to a no-op emitter.
func (f *Factory) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		f.emitter = events.NoopEmitter{}
		return
	}
	f.emitter = emitter
}

// SetNowFunc overrides the time source used for deterministic testing.
func (f *Factory) SetNowFunc(now func() int64) {
	if now == nil {
		f.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	f.nowFn = now
}

func (f *Factory) now() uint64 {
	ts := f.nowFn()
	if ts < 0 {
		return 0
	}
	return uint64(ts)
}

func (f *Factory) emit(evt *types.Event) {
	if f == nil || evt == nil || f.emitter == nil {
		return
	}
	f.emitter.Emit(factoryEvent{evt: evt})
}

func isZeroAddress(addr [20]byte) bool { return addr == [20]byte{} }

// deriveAddress computes a deterministic child address from the factory
// address, a kind tag and the creation nonce.
func (f *Factory) deriveAddress(kind string, nonce uint64) [20]byte {
	var nonceBytes [8]byte
	binary.BigEndian.PutUint64(nonceBytes[:], nonce)
	hash := gethcrypto.Keccak256([]byte("stakehouse/"+kind), f.address[:], nonceBytes[:])
	var addr [20]byte
	copy(addr[:], hash[len(hash)-20:])
	return addr
}

func (f *Factory) loadState() (*FactoryState, error) {
	st, ok, err := f.backend.FactoryStateGet(f.address)
	if err != nil {
		return nil, err
	}
	if !ok || st == nil {
		st = &FactoryState{}
	}
	return st, nil
}

// CreatePool derives a fresh pool and claim-token address, initializes the
// claim token (falling back to the "Staking LP"/"StLP" naming convention when
// name or symbol is empty), wires a staking engine against the shared backend
// and registers the pool. The returned engine is initialized and ready.
func (f *Factory) CreatePool(owner [20]byte, terms *staking.Terms, oracle staking.MembershipOracle, stakeAsset [20]byte, claimName, claimSymbol string) (*staking.Engine, error) {
	if f == nil || f.backend == nil {
		return nil, ErrNilBackend
	}
	if f.ledger == nil {
		return nil, ErrNilLedger
	}
	if terms == nil {
		return nil, ErrNilTerms
	}
	if err := terms.Validate(); err != nil {
		return nil, err
	}
	if isZeroAddress(owner) {
		return nil, staking.ZeroAddressError("StakingPoolFactory", "createStakingPool", "owner")
	}
	if isZeroAddress(stakeAsset) {
		return nil, staking.ZeroAddressError("StakingPoolFactory", "createStakingPool", "stakeAsset")
	}
	if oracle == nil {
		return nil, staking.ZeroAddressError("StakingPoolFactory", "createStakingPool", "whitelist")
	}
	assetMeta, err := f.ledger.Metadata(stakeAsset)
	if err != nil {
		return nil, err
	}
	if claimName == "" {
		claimName = ClaimTokenName(assetMeta.Name)
	}
	if claimSymbol == "" {
		claimSymbol = ClaimTokenSymbol(assetMeta.Symbol)
	}

	st, err := f.loadState()
	if err != nil {
		return nil, err
	}
	pool := f.deriveAddress("pool", st.Nonce)
	claimToken := f.deriveAddress("claim", st.Nonce)
	if err := f.ledger.Init(claimToken, claimName, claimSymbol, assetMeta.Decimals); err != nil {
		return nil, err
	}

	engine := staking.NewEngine(pool)
	engine.SetState(f.backend)
	engine.SetTerms(terms)
	engine.SetAssetLedger(f.ledger.Bind(stakeAsset))
	engine.SetClaimLedger(f.ledger.Bind(claimToken))
	engine.SetWhitelist(oracle)
	engine.SetEmitter(f.emitter)
	if err := engine.Initialize(owner, stakeAsset, claimToken); err != nil {
		return nil, err
	}

	st.Nonce++
	st.Pools = append(st.Pools, pool)
	if err := f.backend.FactoryStatePut(f.address, st); err != nil {
		return nil, err
	}
	if f.registry != nil {
		record := registry.Record{
			Pool:       pool,
			Owner:      owner,
			StakeAsset: stakeAsset,
			ClaimToken: claimToken,
			Kind:       registry.KindStaking,
			CreatedAt:  f.now(),
		}
		if err := f.registry.RegisterPool(f.address, record); err != nil {
			return nil, err
		}
	}
	f.emit(events.PoolCreated{Pool: pool, Owner: owner, StakeAsset: stakeAsset}.Event())
	return engine, nil
}

// CreateLaunchpadPool derives a fresh pool address, wires a capped-sale
// engine against the shared backend and registers the pool. Nil bounds fall
// back to the launchpad defaults.
func (f *Factory) CreateLaunchpadPool(owner, stakeAsset [20]byte, minStake, maxStake, maxTotal *big.Int) (*launchpad.Engine, error) {
	if f == nil || f.backend == nil {
		return nil, ErrNilBackend
	}
	if f.ledger == nil {
		return nil, ErrNilLedger
	}
	if isZeroAddress(owner) {
		return nil, staking.ZeroAddressError("LaunchPadPoolFactory", "createLaunchPadPool", "owner")
	}
	if isZeroAddress(stakeAsset) {
		return nil, staking.ZeroAddressError("LaunchPadPoolFactory", "createLaunchPadPool", "stakeAsset")
	}
	if _, err := f.ledger.Metadata(stakeAsset); err != nil {
		return nil, err
	}

	st, err := f.loadState()
	if err != nil {
		return nil, err
	}
	pool := f.deriveAddress("launchpad", st.Nonce)

	engine := launchpad.NewEngine(pool)
	engine.SetState(f.backend)
	engine.SetAssetLedger(f.ledger.Bind(stakeAsset))
	engine.SetEmitter(f.emitter)
	if err := engine.Initialize(owner, stakeAsset, minStake, maxStake, maxTotal); err != nil {
		return nil, err
	}

	st.Nonce++
	st.Pools = append(st.Pools, pool)
	if err := f.backend.FactoryStatePut(f.address, st); err != nil {
		return nil, err
	}
	if f.registry != nil {
		record := registry.Record{
			Pool:       pool,
			Owner:      owner,
			StakeAsset: stakeAsset,
			Kind:       registry.KindLaunchpad,
			CreatedAt:  f.now(),
		}
		if err := f.registry.RegisterPool(f.address, record); err != nil {
			return nil, err
		}
	}
	f.emit(events.PoolCreated{Pool: pool, Owner: owner, StakeAsset: stakeAsset}.Event())
	return engine, nil
}

// Pools returns the addresses of every pool this factory created.
func (f *Factory) Pools() ([][20]byte, error) {
	if f == nil || f.backend == nil {
		return nil, ErrNilBackend
	}
	st, err := f.loadState()
	if err != nil {
		return nil, err
	}
	out := make([][20]byte, len(st.Pools))
	copy(out, st.Pools)
	return out, nil
}
