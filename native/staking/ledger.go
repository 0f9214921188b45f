package staking

import (
	"iter"
	"math/big"
)

// ledgerState is the subset of engine persistence owned by the stake ledger:
// the append-only per-owner record lists.
type ledgerState interface {
	StakesGet(pool, owner [20]byte) ([]StakeRecord, error)
	StakesPut(pool, owner [20]byte, records []StakeRecord) error
}

// Ledger owns the per-account stake records of one pool instance. Records are
// append-only: indices are 0-based, sequential per owner, and stay stable
// forever; withdrawal only flips the Active flag.
type Ledger struct {
	state ledgerState
	pool  [20]byte
}

// NewLedger constructs a stake ledger scoped to one pool instance.
func NewLedger(state ledgerState, pool [20]byte) *Ledger {
	return &Ledger{state: state, pool: pool}
}

// RecordStake appends a new active record for owner and returns its index.
// Storage append is the only side effect; token movement is the engine's
// responsibility.
func (l *Ledger) RecordStake(owner [20]byte, amount *big.Int, timestamp, holdTime uint64) (uint64, error) {
	if l == nil || l.state == nil {
		return 0, ErrNilState
	}
	records, err := l.state.StakesGet(l.pool, owner)
	if err != nil {
		return 0, err
	}
	index := uint64(len(records))
	records = append(records, StakeRecord{
		Owner:     owner,
		Amount:    newBigInt(amount),
		Timestamp: timestamp,
		HoldTime:  holdTime,
		Active:    true,
	})
	if err := l.state.StakesPut(l.pool, owner, records); err != nil {
		return 0, err
	}
	return index, nil
}

// Record returns a copy of one record without mutating it.
func (l *Ledger) Record(owner [20]byte, index uint64) (*StakeRecord, error) {
	if l == nil || l.state == nil {
		return nil, ErrNilState
	}
	records, err := l.state.StakesGet(l.pool, owner)
	if err != nil {
		return nil, err
	}
	if index >= uint64(len(records)) {
		return nil, ErrStakeNotFound
	}
	return records[index].Clone(), nil
}

// RecordWithdrawal validates that caller owns the live record at index, flips
// it inactive and returns the stored amount. The ledger never computes fees;
// the pro-rated penalty applies to the token transfer, not to the record.
func (l *Ledger) RecordWithdrawal(owner [20]byte, index uint64, caller [20]byte) (*big.Int, error) {
	if l == nil || l.state == nil {
		return nil, ErrNilState
	}
	records, err := l.state.StakesGet(l.pool, owner)
	if err != nil {
		return nil, err
	}
	if index >= uint64(len(records)) {
		return nil, ErrStakeNotFound
	}
	record := &records[index]
	if record.Owner != caller {
		return nil, ErrNotStaker
	}
	if !record.Active {
		return nil, ErrStakeInactive
	}
	record.Active = false
	if err := l.state.StakesPut(l.pool, owner, records); err != nil {
		return nil, err
	}
	return newBigInt(record.Amount), nil
}

// AllStakes returns every record of owner in insertion order, withdrawn ones
// included.
func (l *Ledger) AllStakes(owner [20]byte) ([]StakeRecord, error) {
	if l == nil || l.state == nil {
		return nil, ErrNilState
	}
	records, err := l.state.StakesGet(l.pool, owner)
	if err != nil {
		return nil, err
	}
	out := make([]StakeRecord, len(records))
	for i := range records {
		out[i] = *records[i].Clone()
	}
	return out, nil
}

// ActiveStakes returns a restartable view over owner's live records, keyed by
// their stable index, in insertion order.
func (l *Ledger) ActiveStakes(owner [20]byte) (iter.Seq2[uint64, StakeRecord], error) {
	records, err := l.AllStakes(owner)
	if err != nil {
		return nil, err
	}
	return func(yield func(uint64, StakeRecord) bool) {
		for i, record := range records {
			if !record.Active {
				continue
			}
			if !yield(uint64(i), record) {
				return
			}
		}
	}, nil
}
