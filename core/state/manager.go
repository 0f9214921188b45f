package state

import (
	"errors"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/rlp"

	"stakehouse/native/factory"
	"stakehouse/native/launchpad"
	"stakehouse/native/registry"
	"stakehouse/native/reservoir"
	"stakehouse/native/staking"
	"stakehouse/native/token"
	"stakehouse/storage"
)

// Manager is the single state backend shared by every module. It maps each
// module's typed records onto RLP-encoded values in the underlying key-value
// store. All reads and writes are guarded by one lock; engine operations that
// span multiple keys are serialized by the service layer, the lock here only
// protects individual accesses against concurrent gateway reads.
type Manager struct {
	mu sync.RWMutex
	db storage.Database
}

// NewManager constructs a state manager over the supplied database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

func (m *Manager) get(key []byte, out any) (bool, error) {
	m.mu.RLock()
	raw, err := m.db.Get(key)
	m.mu.RUnlock()
	if errors.Is(err, storage.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := rlp.DecodeBytes(raw, out); err != nil {
		return false, err
	}
	return true, nil
}

func (m *Manager) put(key []byte, value any) error {
	raw, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.db.Put(key, raw)
}

func (m *Manager) getBig(key []byte) (*big.Int, error) {
	value := new(big.Int)
	ok, err := m.get(key, value)
	if err != nil {
		return nil, err
	}
	if !ok {
		return big.NewInt(0), nil
	}
	return value, nil
}

// --- token.LedgerState ---

func (m *Manager) TokenMetadataGet(tokenAddr [20]byte) (*token.Metadata, bool, error) {
	meta := new(token.Metadata)
	ok, err := m.get(key(prefixTokenMeta, tokenAddr), meta)
	if err != nil || !ok {
		return nil, false, err
	}
	return meta, true, nil
}

func (m *Manager) TokenMetadataPut(tokenAddr [20]byte, meta *token.Metadata) error {
	return m.put(key(prefixTokenMeta, tokenAddr), meta)
}

func (m *Manager) TokenBalanceGet(tokenAddr, account [20]byte) (*big.Int, error) {
	return m.getBig(key(prefixTokenBalance, tokenAddr, account))
}

func (m *Manager) TokenBalancePut(tokenAddr, account [20]byte, amount *big.Int) error {
	return m.put(key(prefixTokenBalance, tokenAddr, account), amount)
}

func (m *Manager) TokenAllowanceGet(tokenAddr, owner, spender [20]byte) (*big.Int, error) {
	return m.getBig(key(prefixTokenAllowance, tokenAddr, owner, spender))
}

func (m *Manager) TokenAllowancePut(tokenAddr, owner, spender [20]byte, amount *big.Int) error {
	return m.put(key(prefixTokenAllowance, tokenAddr, owner, spender), amount)
}

func (m *Manager) TokenSupplyGet(tokenAddr [20]byte) (*big.Int, error) {
	return m.getBig(key(prefixTokenSupply, tokenAddr))
}

func (m *Manager) TokenSupplyPut(tokenAddr [20]byte, amount *big.Int) error {
	return m.put(key(prefixTokenSupply, tokenAddr), amount)
}

// --- whitelist.State ---

func (m *Manager) WhitelistOwnerGet() ([20]byte, bool, error) {
	var owner [20]byte
	ok, err := m.get(prefixWhitelistOwner, &owner)
	if err != nil || !ok {
		return [20]byte{}, false, err
	}
	return owner, true, nil
}

func (m *Manager) WhitelistOwnerPut(owner [20]byte) error {
	return m.put(prefixWhitelistOwner, owner)
}

func (m *Manager) WhitelistMemberGet(account [20]byte) (bool, error) {
	var member bool
	ok, err := m.get(key(prefixWhitelistMember, account), &member)
	if err != nil || !ok {
		return false, err
	}
	return member, nil
}

func (m *Manager) WhitelistMemberPut(account [20]byte, member bool) error {
	return m.put(key(prefixWhitelistMember, account), member)
}

// --- staking engine state ---

func (m *Manager) PoolStateGet(pool [20]byte) (*staking.PoolState, bool, error) {
	st := new(staking.PoolState)
	ok, err := m.get(key(prefixStakingPool, pool), st)
	if err != nil || !ok {
		return nil, false, err
	}
	return st, true, nil
}

func (m *Manager) PoolStatePut(pool [20]byte, st *staking.PoolState) error {
	return m.put(key(prefixStakingPool, pool), st)
}

func (m *Manager) StakesGet(pool, owner [20]byte) ([]staking.StakeRecord, error) {
	var records []staking.StakeRecord
	if _, err := m.get(key(prefixStakingStakes, pool, owner), &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (m *Manager) StakesPut(pool, owner [20]byte, records []staking.StakeRecord) error {
	return m.put(key(prefixStakingStakes, pool, owner), records)
}

// --- launchpad engine state ---

func (m *Manager) LaunchpadStateGet(pool [20]byte) (*launchpad.PoolState, bool, error) {
	st := new(launchpad.PoolState)
	ok, err := m.get(key(prefixLaunchpadPool, pool), st)
	if err != nil || !ok {
		return nil, false, err
	}
	return st, true, nil
}

func (m *Manager) LaunchpadStatePut(pool [20]byte, st *launchpad.PoolState) error {
	return m.put(key(prefixLaunchpadPool, pool), st)
}

func (m *Manager) LaunchpadUsersGet(pool [20]byte) ([][20]byte, error) {
	var users [][20]byte
	if _, err := m.get(key(prefixLaunchpadUsers, pool), &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (m *Manager) LaunchpadUsersPut(pool [20]byte, users [][20]byte) error {
	return m.put(key(prefixLaunchpadUsers, pool), users)
}

func (m *Manager) LaunchpadUserStakeGet(pool, account [20]byte) (*launchpad.UserStake, bool, error) {
	stake := new(launchpad.UserStake)
	ok, err := m.get(key(prefixLaunchpadStake, pool, account), stake)
	if err != nil || !ok {
		return nil, false, err
	}
	return stake, true, nil
}

func (m *Manager) LaunchpadUserStakePut(pool, account [20]byte, stake *launchpad.UserStake) error {
	return m.put(key(prefixLaunchpadStake, pool, account), stake)
}

// --- factory state ---

func (m *Manager) FactoryStateGet(addr [20]byte) (*factory.FactoryState, bool, error) {
	st := new(factory.FactoryState)
	ok, err := m.get(key(prefixFactory, addr), st)
	if err != nil || !ok {
		return nil, false, err
	}
	return st, true, nil
}

func (m *Manager) FactoryStatePut(addr [20]byte, st *factory.FactoryState) error {
	return m.put(key(prefixFactory, addr), st)
}

// --- registry.State ---

func (m *Manager) RegistryOwnerGet() ([20]byte, bool, error) {
	var owner [20]byte
	ok, err := m.get(prefixRegistryOwner, &owner)
	if err != nil || !ok {
		return [20]byte{}, false, err
	}
	return owner, true, nil
}

func (m *Manager) RegistryOwnerPut(owner [20]byte) error {
	return m.put(prefixRegistryOwner, owner)
}

func (m *Manager) RegistryFactoryGet(addr [20]byte) (bool, error) {
	var allowed bool
	ok, err := m.get(key(prefixRegistryFactory, addr), &allowed)
	if err != nil || !ok {
		return false, err
	}
	return allowed, nil
}

func (m *Manager) RegistryFactoryPut(addr [20]byte, allowed bool) error {
	return m.put(key(prefixRegistryFactory, addr), allowed)
}

func (m *Manager) RegistryPoolsGet() ([]registry.Record, error) {
	var pools []registry.Record
	if _, err := m.get(prefixRegistryPools, &pools); err != nil {
		return nil, err
	}
	return pools, nil
}

func (m *Manager) RegistryPoolsPut(pools []registry.Record) error {
	return m.put(prefixRegistryPools, pools)
}

// --- reservoir state ---

func (m *Manager) ReservoirStateGet(addr [20]byte) (*reservoir.State, bool, error) {
	st := new(reservoir.State)
	ok, err := m.get(key(prefixReservoir, addr), st)
	if err != nil || !ok {
		return nil, false, err
	}
	return st, true, nil
}

func (m *Manager) ReservoirStatePut(addr [20]byte, st *reservoir.State) error {
	return m.put(key(prefixReservoir, addr), st)
}
