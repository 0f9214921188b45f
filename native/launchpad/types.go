package launchpad

import "math/big"

// Default per-stake and global bounds applied when a pool is initialized
// without explicit limits.
var (
	DefaultMinStakeAmount      = mustBigInt("5000000000000000000000")      // 5,000e18
	DefaultMaxStakeAmount      = mustBigInt("10000000000000000000000")     // 10,000e18
	DefaultMaxTotalStakeAmount = mustBigInt("100000000000000000000000000") // 100,000,000e18
)

func mustBigInt(value string) *big.Int {
	v, ok := new(big.Int).SetString(value, 10)
	if !ok {
		panic("invalid big integer constant")
	}
	return v
}

// PoolState is the capped-sale pool's bookkeeping: per-stake bounds, the
// global cap with its running sum, the pause gate and the owner-armed unlock
// switch. Before UnstakeEnabled is set the pool is locked indefinitely.
type PoolState struct {
	Initialized         bool
	Owner               [20]byte
	StakeAsset          [20]byte
	MinStakeAmount      *big.Int
	MaxStakeAmount      *big.Int
	MaxTotalStakeAmount *big.Int
	TotalStakeAmount    *big.Int
	PauseStake          bool
	UnstakeEnabled      bool
	UnstakeTime         uint64
}

// Clone returns a deep copy of the pool state.
func (s *PoolState) Clone() *PoolState {
	if s == nil {
		return nil
	}
	clone := *s
	clone.MinStakeAmount = copyBig(s.MinStakeAmount)
	clone.MaxStakeAmount = copyBig(s.MaxStakeAmount)
	clone.MaxTotalStakeAmount = copyBig(s.MaxTotalStakeAmount)
	clone.TotalStakeAmount = copyBig(s.TotalStakeAmount)
	return &clone
}

// UserStake is the withdrawable position of one account: deposits accumulate
// into Amount, and Timestamp tracks the latest accepted deposit.
type UserStake struct {
	Amount    *big.Int
	Timestamp uint64
}

// Clone returns a deep copy of the position.
func (u *UserStake) Clone() *UserStake {
	if u == nil {
		return nil
	}
	return &UserStake{Amount: copyBig(u.Amount), Timestamp: u.Timestamp}
}

func copyBig(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}

func isZeroAddress(addr [20]byte) bool {
	var zero [20]byte
	return addr == zero
}
