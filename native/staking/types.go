package staking

import (
	"errors"
	"math/big"
)

// StakeRecord is one deposit's bookkeeping entry. Everything but Active is
// immutable after creation; Active flips to false exactly once on withdrawal.
type StakeRecord struct {
	Owner     [20]byte
	Amount    *big.Int
	Timestamp uint64
	HoldTime  uint64
	Active    bool
}

// Clone returns a deep copy so callers can safely mutate the copy without
// affecting the stored record.
func (r *StakeRecord) Clone() *StakeRecord {
	if r == nil {
		return nil
	}
	clone := *r
	if r.Amount != nil {
		clone.Amount = new(big.Int).Set(r.Amount)
	} else {
		clone.Amount = big.NewInt(0)
	}
	return &clone
}

// Terms is the shared, immutable logic module driving every pool instance:
// the bonus percentages, the time normalization window and the developer
// beneficiary. One Terms value is reused across pools so business rules are
// identical everywhere.
type Terms struct {
	TimeBonusPercent       uint64
	TimeNormalizer         uint64 // seconds of hold time granting 100% of the time-bonus rate
	UnholdFeePercent       uint64
	RefererBonusPercent    uint64
	InfluencerBonusPercent uint64
	DeveloperBonusPercent  uint64
	DeveloperAddress       [20]byte
}

// Validate checks the terms for internally consistent configuration.
func (t *Terms) Validate() error {
	if t == nil {
		return ErrNilTerms
	}
	if t.TimeNormalizer == 0 {
		return errors.New("staking terms: time normalizer must be positive")
	}
	if t.UnholdFeePercent > 100 {
		return errors.New("staking terms: unhold fee percent above 100")
	}
	for _, pct := range []uint64{t.RefererBonusPercent, t.InfluencerBonusPercent, t.DeveloperBonusPercent} {
		if pct > 100 {
			return errors.New("staking terms: bonus percent above 100")
		}
	}
	if t.DeveloperBonusPercent > 0 && isZeroAddress(t.DeveloperAddress) {
		return errors.New("staking terms: developer bonus configured without developer address")
	}
	return nil
}

// PoolState holds the mutable per-instance bookkeeping shared by all
// operations of one pool. Owner, StakeAsset and ClaimToken are set once at
// initialization.
type PoolState struct {
	Initialized  bool
	Owner        [20]byte
	StakeAsset   [20]byte
	ClaimToken   [20]byte
	StakeCounter uint64
	RetainedFees *big.Int
}

// Clone returns a deep copy of the pool state.
func (s *PoolState) Clone() *PoolState {
	if s == nil {
		return nil
	}
	clone := *s
	if s.RetainedFees != nil {
		clone.RetainedFees = new(big.Int).Set(s.RetainedFees)
	} else {
		clone.RetainedFees = big.NewInt(0)
	}
	return &clone
}

// StakeOptions carries the optional parties of a stake operation. A nil
// pointer (or the zero address) means the party is absent.
type StakeOptions struct {
	HoldTime       uint64
	Referer        *[20]byte
	Influencer     *[20]byte
	DeveloperBonus bool
}

// AmountsOut is the 4-tuple of claim amounts produced by one stake:
// the time-bonus-adjusted staker credit plus the three secondary bonuses
// computed off the pre-time-bonus principal.
type AmountsOut struct {
	Staker     *big.Int
	Referer    *big.Int
	Influencer *big.Int
	Developer  *big.Int
}

// StakeResult reports the outcome of a stake operation: the index of the
// staker's new record and the credited amounts.
type StakeResult struct {
	Index   uint64
	Amounts *AmountsOut
}

func isZeroAddress(addr [20]byte) bool {
	var zero [20]byte
	return addr == zero
}

func newBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}
