package staking

import (
	"math/big"

	"stakehouse/core/events"
	"stakehouse/core/types"
)

type stakingEvent struct {
	evt *types.Event
}

func (e stakingEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e stakingEvent) Event() *types.Event { return e.evt }

func (e *Engine) emit(evt *types.Event) {
	if e == nil || evt == nil || e.emitter == nil {
		return
	}
	e.emitter.Emit(stakingEvent{evt: evt})
}

func (e *Engine) emitStake(account [20]byte, index uint64, amount *big.Int, holdTime uint64) {
	e.emit(events.Stake{
		Pool:     e.pool,
		Account:  account,
		Index:    index,
		Amount:   amount,
		HoldTime: holdTime,
	}.Event())
}

func (e *Engine) emitUnstake(account [20]byte, index uint64, payout *big.Int) {
	e.emit(events.Unstake{
		Pool:    e.pool,
		Account: account,
		Index:   index,
		Amount:  payout,
	}.Event())
}
