package staking

import (
	"math/big"

	"github.com/holiman/uint256"
)

// The bonus arithmetic below multiplies before it divides so no precision is
// lost ahead of the final floor division. Intermediates are 256-bit unsigned;
// a product that would not fit 256 bits aborts with ErrAmountOverflow instead
// of silently wrapping.

func toWide(amount *big.Int) (*uint256.Int, error) {
	if amount == nil || amount.Sign() < 0 {
		return nil, ErrInvalidAmount
	}
	wide, overflow := uint256.FromBig(amount)
	if overflow {
		return nil, ErrAmountOverflow
	}
	return wide, nil
}

func mulChecked(x *uint256.Int, factors ...uint64) (*uint256.Int, error) {
	out := new(uint256.Int).Set(x)
	for _, f := range factors {
		if _, overflow := out.MulOverflow(out, uint256.NewInt(f)); overflow {
			return nil, ErrAmountOverflow
		}
	}
	return out, nil
}

// WithTimeBonus returns amount plus the time-weighted stake bonus:
// amount + floor(amount * holdTime * TimeBonusPercent / 100 / TimeNormalizer).
func (t *Terms) WithTimeBonus(amount *big.Int, holdTime uint64) (*big.Int, error) {
	if t == nil {
		return nil, ErrNilTerms
	}
	base, err := toWide(amount)
	if err != nil {
		return nil, err
	}
	bonus, err := mulChecked(base, holdTime, t.TimeBonusPercent)
	if err != nil {
		return nil, err
	}
	bonus.Div(bonus, uint256.NewInt(100))
	bonus.Div(bonus, uint256.NewInt(t.TimeNormalizer))
	out := new(uint256.Int)
	if _, overflow := out.AddOverflow(base, bonus); overflow {
		return nil, ErrAmountOverflow
	}
	return out.ToBig(), nil
}

// bonusOf computes floor(principal * pct / 100) off the pre-time-bonus
// principal. Secondary bonuses deliberately scale with deposited capital, not
// with the lock-time incentive.
func bonusOf(principal *big.Int, pct uint64) (*big.Int, error) {
	base, err := toWide(principal)
	if err != nil {
		return nil, err
	}
	out, err := mulChecked(base, pct)
	if err != nil {
		return nil, err
	}
	out.Div(out, uint256.NewInt(100))
	return out.ToBig(), nil
}

// CalcAllLPAmountOut quotes the claim amounts a stake of amount/holdTime would
// credit: (stakerAmount, refererBonus, influencerBonus, developerBonus). The
// mutating stake path uses these exact formulas, so the quote never drifts
// from an executed stake.
func (t *Terms) CalcAllLPAmountOut(amount *big.Int, holdTime uint64) (*AmountsOut, error) {
	if t == nil {
		return nil, ErrNilTerms
	}
	staker, err := t.WithTimeBonus(amount, holdTime)
	if err != nil {
		return nil, err
	}
	referer, err := bonusOf(amount, t.RefererBonusPercent)
	if err != nil {
		return nil, err
	}
	influencer, err := bonusOf(amount, t.InfluencerBonusPercent)
	if err != nil {
		return nil, err
	}
	developer, err := bonusOf(amount, t.DeveloperBonusPercent)
	if err != nil {
		return nil, err
	}
	return &AmountsOut{Staker: staker, Referer: referer, Influencer: influencer, Developer: developer}, nil
}

// UnholdFee returns the early-withdrawal fee for a record of the given amount
// and hold time at elapsed seconds since creation:
// floor(amount * UnholdFeePercent * (holdTime - elapsed) / holdTime / 100).
// The fee is linearly pro-rated by the remaining lock time and is zero once
// the lock is honored.
func (t *Terms) UnholdFee(amount *big.Int, holdTime, elapsed uint64) (*big.Int, error) {
	if t == nil {
		return nil, ErrNilTerms
	}
	if holdTime == 0 || elapsed >= holdTime {
		return big.NewInt(0), nil
	}
	base, err := toWide(amount)
	if err != nil {
		return nil, err
	}
	fee, err := mulChecked(base, t.UnholdFeePercent, holdTime-elapsed)
	if err != nil {
		return nil, err
	}
	fee.Div(fee, uint256.NewInt(holdTime))
	fee.Div(fee, uint256.NewInt(100))
	return fee.ToBig(), nil
}
