package registry

import "errors"

var (
	// ErrNilState is returned when the registry is used before a state
	// backend has been configured.
	ErrNilState = errors.New("registry: state not configured")
	// ErrNotInitialized is returned when the registry has no recorded owner.
	ErrNotInitialized = errors.New("registry: not initialized")
	// ErrAlreadyInitialized is returned by repeated initialize calls.
	ErrAlreadyInitialized = errors.New("registry: may only be initialized once")
	// ErrUnauthorized is returned when a caller other than the owner mutates
	// the factory allow-list.
	ErrUnauthorized = errors.New("registry: caller is not the owner")
	// ErrFactoryNotAllowed is returned when a pool registration arrives from
	// a factory outside the allow-list.
	ErrFactoryNotAllowed = errors.New("registry: factory is not allowed")
	// ErrPoolExists is returned when the same pool address is registered twice.
	ErrPoolExists = errors.New("registry: pool already registered")
	// ErrPoolNotFound is returned when an index or address lookup misses.
	ErrPoolNotFound = errors.New("registry: pool not found")
)

// Pool kinds recorded alongside each registration.
const (
	KindStaking   uint8 = 1
	KindLaunchpad uint8 = 2
)

// Record captures one registered pool instance.
type Record struct {
	Pool       [20]byte
	Owner      [20]byte
	StakeAsset [20]byte
	ClaimToken [20]byte
	Kind       uint8
	CreatedAt  uint64
}

// State is the persistence surface required by the registry.
type State interface {
	RegistryOwnerGet() ([20]byte, bool, error)
	RegistryOwnerPut(owner [20]byte) error
	RegistryFactoryGet(factory [20]byte) (bool, error)
	RegistryFactoryPut(factory [20]byte, allowed bool) error
	RegistryPoolsGet() ([]Record, error)
	RegistryPoolsPut(pools []Record) error
}

// Registry indexes every pool produced by the allow-listed factories so
// clients can discover instances without walking raw state.
type Registry struct {
	state State
}

// New constructs a registry without a state backend.
func New() *Registry {
	return &Registry{}
}

// SetState configures the state backend.
func (r *Registry) SetState(state State) { r.state = state }

// Initialize records the registry owner. A second call always fails.
func (r *Registry) Initialize(owner [20]byte) error {
	if r == nil || r.state == nil {
		return ErrNilState
	}
	if _, ok, err := r.state.RegistryOwnerGet(); err != nil {
		return err
	} else if ok {
		return ErrAlreadyInitialized
	}
	return r.state.RegistryOwnerPut(owner)
}

func (r *Registry) requireOwner(caller [20]byte) error {
	owner, ok, err := r.state.RegistryOwnerGet()
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

// AddFactory allow-lists a factory address. Owner only.
func (r *Registry) AddFactory(caller, factory [20]byte) error {
	if r == nil || r.state == nil {
		return ErrNilState
	}
	if err := r.requireOwner(caller); err != nil {
		return err
	}
	return r.state.RegistryFactoryPut(factory, true)
}

// RemoveFactory drops a factory from the allow-list. Owner only.
func (r *Registry) RemoveFactory(caller, factory [20]byte) error {
	if r == nil || r.state == nil {
		return ErrNilState
	}
	if err := r.requireOwner(caller); err != nil {
		return err
	}
	return r.state.RegistryFactoryPut(factory, false)
}

// IsFactory reports whether the address is on the factory allow-list.
func (r *Registry) IsFactory(factory [20]byte) (bool, error) {
	if r == nil || r.state == nil {
		return false, ErrNilState
	}
	return r.state.RegistryFactoryGet(factory)
}

// RegisterPool appends a pool record. Only allow-listed factories may call.
func (r *Registry) RegisterPool(factory [20]byte, record Record) error {
	if r == nil || r.state == nil {
		return ErrNilState
	}
	allowed, err := r.state.RegistryFactoryGet(factory)
	if err != nil {
		return err
	}
	if !allowed {
		return ErrFactoryNotAllowed
	}
	pools, err := r.state.RegistryPoolsGet()
	if err != nil {
		return err
	}
	for _, existing := range pools {
		if existing.Pool == record.Pool {
			return ErrPoolExists
		}
	}
	pools = append(pools, record)
	return r.state.RegistryPoolsPut(pools)
}

// Pools returns every registered pool in registration order.
func (r *Registry) Pools() ([]Record, error) {
	if r == nil || r.state == nil {
		return nil, ErrNilState
	}
	pools, err := r.state.RegistryPoolsGet()
	if err != nil {
		return nil, err
	}
	out := make([]Record, len(pools))
	copy(out, pools)
	return out, nil
}

// PoolsCount returns the number of registered pools.
func (r *Registry) PoolsCount() (uint64, error) {
	if r == nil || r.state == nil {
		return 0, ErrNilState
	}
	pools, err := r.state.RegistryPoolsGet()
	if err != nil {
		return 0, err
	}
	return uint64(len(pools)), nil
}

// PoolAt returns the record registered at index.
func (r *Registry) PoolAt(index uint64) (Record, error) {
	if r == nil || r.state == nil {
		return Record{}, ErrNilState
	}
	pools, err := r.state.RegistryPoolsGet()
	if err != nil {
		return Record{}, err
	}
	if index >= uint64(len(pools)) {
		return Record{}, ErrPoolNotFound
	}
	return pools[index], nil
}

// Lookup finds the record for a pool address.
func (r *Registry) Lookup(pool [20]byte) (Record, error) {
	if r == nil || r.state == nil {
		return Record{}, ErrNilState
	}
	pools, err := r.state.RegistryPoolsGet()
	if err != nil {
		return Record{}, err
	}
	for _, record := range pools {
		if record.Pool == pool {
			return record, nil
		}
	}
	return Record{}, ErrPoolNotFound
}
