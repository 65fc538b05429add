// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package brokerpool

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/incentives/builtin/events"
	"github.com/vechain/incentives/builtin/reverts"
	"github.com/vechain/incentives/builtin/solidity"
	"github.com/vechain/incentives/thor"
)

// QueuePayout escrows shares of delegator and queues them for payout, then pays out
// as much of the queue as the liquid balance allows.
func (p *Pool) QueuePayout(now uint64, delegator thor.Address, shares *big.Int, maxIterations int) error {
	return p.sctx.Atomic(func() error {
		if shares.Sign() <= 0 {
			return reverts.New(reverts.InvalidArgument, "amount_not_positive")
		}
		if delegator == p.Address() {
			return reverts.New(reverts.InvalidArgument, "pool_cannot_queue")
		}
		if err := p.moveShares(delegator, p.Address(), shares); err != nil {
			return err
		}
		tail, err := p.queueTail.Get()
		if err != nil {
			return err
		}
		if err := p.queue.Set(solidity.Index(tail), &QueueEntry{
			Delegator:   delegator,
			PoolShares:  new(big.Int).Set(shares),
			RequestedAt: now,
		}); err != nil {
			return err
		}
		if err := p.queueTail.Set(tail + 1); err != nil {
			return err
		}
		p.sctx.Emit(events.QueueEntryCreated, now, delegator, nil, shares)
		return p.drain(now, maxIterations, false)
	})
}

// PayOutQueue pays out as much of the queue as the liquid balance allows. Anyone may call it.
func (p *Pool) PayOutQueue(now uint64, maxIterations int) error {
	return p.sctx.Atomic(func() error {
		return p.drain(now, maxIterations, false)
	})
}

// QueueLength returns the number of pending entries.
func (p *Pool) QueueLength() (uint64, error) {
	head, err := p.queueHead.Get()
	if err != nil {
		return 0, err
	}
	tail, err := p.queueTail.Get()
	if err != nil {
		return 0, err
	}
	return tail - head, nil
}

// Queue returns the pending entries, head first.
func (p *Pool) Queue() ([]*QueueEntry, error) {
	head, err := p.queueHead.Get()
	if err != nil {
		return nil, err
	}
	tail, err := p.queueTail.Get()
	if err != nil {
		return nil, err
	}
	entries := make([]*QueueEntry, 0, tail-head)
	for i := head; i < tail; i++ {
		e, err := p.queue.Get(solidity.Index(i))
		if err != nil {
			return nil, errors.Wrap(err, "failed to get queue entry")
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (p *Pool) queueFront() (*QueueEntry, error) {
	head, err := p.queueHead.Get()
	if err != nil {
		return nil, err
	}
	tail, err := p.queueTail.Get()
	if err != nil {
		return nil, err
	}
	if head == tail {
		return &QueueEntry{}, nil
	}
	e, err := p.queue.Get(solidity.Index(head))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get queue entry")
	}
	return e, nil
}

// drain pays queue entries in order at the real rate, handling at most maxIterations of them.
// An entry that cannot be paid in full takes the whole liquid balance and stays at the head.
func (p *Pool) drain(now uint64, maxIterations int, forced bool) error {
	head, err := p.queueHead.Get()
	if err != nil {
		return err
	}
	tail, err := p.queueTail.Get()
	if err != nil {
		return err
	}
	if head == tail {
		return nil
	}
	liquid, err := p.Liquid()
	if err != nil {
		return err
	}
	if liquid.Sign() == 0 {
		return nil
	}
	liquid = new(big.Int).Set(liquid)
	value, err := p.RealValue(now)
	if err != nil {
		return err
	}
	supply, err := p.supply.Get()
	if err != nil {
		return err
	}

	name := events.QueueEntryFulfilled
	if forced {
		name = events.QueueEntryForceResolved
	}

	for i := 0; i < maxIterations && head < tail && liquid.Sign() > 0; i++ {
		e, err := p.queue.Get(solidity.Index(head))
		if err != nil {
			return errors.Wrap(err, "failed to get queue entry")
		}
		owed := shareValue(e.PoolShares, value, supply)

		paid, burned := owed, e.PoolShares
		if owed.Cmp(liquid) > 0 {
			paid = new(big.Int).Set(liquid)
			burned = ceilDiv(new(big.Int).Mul(liquid, supply), value)
		}
		if err := p.burn(p.Address(), burned); err != nil {
			return err
		}
		if err := p.ledger.Transfer(now, p.Address(), e.Delegator, paid); err != nil {
			return err
		}
		p.sctx.Emit(name, now, e.Delegator, paid, burned)
		logger.Debug("queue entry paid", "pool", p.Address(), "delegator", e.Delegator, "paid", paid, "shares", burned)

		value.Sub(value, paid)
		supply.Sub(supply, burned)
		liquid.Sub(liquid, paid)

		if burned.Cmp(e.PoolShares) < 0 {
			e.PoolShares = new(big.Int).Sub(e.PoolShares, burned)
			if err := p.queue.Set(solidity.Index(head), e); err != nil {
				return err
			}
			break
		}
		p.queue.Delete(solidity.Index(head))
		head++
	}
	return p.queueHead.Set(head)
}
