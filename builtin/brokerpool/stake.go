// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package brokerpool

import (
	"math/big"

	"github.com/vechain/incentives/builtin/reverts"
	"github.com/vechain/incentives/builtin/token"
	"github.com/vechain/incentives/thor"
)

func (p *Pool) requireOperator(caller thor.Address) error {
	if caller != p.cfg.Operator {
		return reverts.New(reverts.AccessDenied, "only_operator")
	}
	return nil
}

// Stake moves amount of the pool's liquid tokens into the sponsorship at addr.
func (p *Pool) Stake(now uint64, caller, addr thor.Address, amount *big.Int) error {
	return p.sctx.Atomic(func() error {
		if err := p.requireOperator(caller); err != nil {
			return err
		}
		if amount.Sign() <= 0 {
			return reverts.New(reverts.InvalidArgument, "amount_not_positive")
		}
		n, err := p.QueueLength()
		if err != nil {
			return err
		}
		if n > 0 {
			return reverts.New(reverts.PolicyRejection, "queue_not_empty")
		}
		if _, err := p.sponsorship(addr); err != nil {
			return err
		}
		ok, err := p.stakedInto.Contains(addr)
		if err != nil {
			return err
		}
		if !ok {
			count, err := p.stakedInto.Len()
			if err != nil {
				return err
			}
			if count >= p.cfg.MaxSponsorships {
				return reverts.New(reverts.PolicyRejection, "too_many_sponsorships")
			}
		}

		data := token.EncodePayload(token.ActionStakeFor, p.Address())
		if err := p.ledger.TransferAndNotify(now, p.Address(), addr, amount, data); err != nil {
			return err
		}
		if _, err := p.stakedInto.Add(addr); err != nil {
			return err
		}
		staked, err := p.StakedIn(addr)
		if err != nil {
			return err
		}
		if err := p.staked.Set(addr, staked.Add(staked, amount)); err != nil {
			return err
		}
		logger.Info("staked", "pool", p.Address(), "sponsorship", addr, "amount", amount)
		return p.refresh(now, addr)
	})
}

// Unstake leaves the sponsorship at addr, then pays out the queue.
func (p *Pool) Unstake(now uint64, caller, addr thor.Address, maxIterations int) error {
	return p.sctx.Atomic(func() error {
		if err := p.requireOperator(caller); err != nil {
			return err
		}
		if err := p.unstake(now, addr); err != nil {
			return err
		}
		return p.drain(now, maxIterations, false)
	})
}

// ForceUnstake lets anyone pull the pool out of addr once the head of the queue has waited
// longer than the configured maximum.
func (p *Pool) ForceUnstake(now uint64, caller, addr thor.Address, maxIterations int) error {
	return p.sctx.Atomic(func() error {
		head, err := p.queueFront()
		if err != nil {
			return err
		}
		if head.IsEmpty() || head.RequestedAt+p.cfg.MaxQueueSeconds > now {
			return reverts.New(reverts.PolicyRejection, "queue_not_overdue")
		}
		logger.Info("force unstake", "pool", p.Address(), "sponsorship", addr, "caller", caller)
		if err := p.unstake(now, addr); err != nil {
			return err
		}
		return p.drain(now, maxIterations, true)
	})
}

func (p *Pool) unstake(now uint64, addr thor.Address) error {
	if err := p.requireStakedInto(addr); err != nil {
		return err
	}
	sp, err := p.sponsorship(addr)
	if err != nil {
		return err
	}
	if err := p.refresh(now, addr); err != nil {
		return err
	}
	valueBefore, err := p.ApproximateValue()
	if err != nil {
		return err
	}
	staked, err := p.StakedIn(addr)
	if err != nil {
		return err
	}

	returned, earnings, err := sp.Leave(now, p.Address())
	if err != nil {
		return err
	}
	if err := p.forget(addr); err != nil {
		return err
	}
	logger.Info("unstaked", "pool", p.Address(), "sponsorship", addr, "returned", returned, "earnings", earnings)

	if penalty := new(big.Int).Sub(staked, returned); penalty.Sign() > 0 {
		if err := p.onLoss(now, penalty, valueBefore); err != nil {
			return err
		}
	}
	return p.onWinnings(now, earnings)
}

// forget drops every record of the stake in addr.
func (p *Pool) forget(addr thor.Address) error {
	if _, err := p.stakedInto.Remove(addr); err != nil {
		return err
	}
	p.staked.Delete(addr)
	p.cached.Delete(addr)
	return nil
}

// ReduceStake takes amount of the stake in addr back into the pool, then pays out the queue.
func (p *Pool) ReduceStake(now uint64, caller, addr thor.Address, amount *big.Int, maxIterations int) error {
	return p.sctx.Atomic(func() error {
		if err := p.requireOperator(caller); err != nil {
			return err
		}
		if err := p.requireStakedInto(addr); err != nil {
			return err
		}
		sp, err := p.sponsorship(addr)
		if err != nil {
			return err
		}
		if err := sp.ReduceStake(now, p.Address(), amount); err != nil {
			return err
		}
		staked, err := p.StakedIn(addr)
		if err != nil {
			return err
		}
		if err := p.staked.Set(addr, staked.Sub(staked, amount)); err != nil {
			return err
		}
		if err := p.refresh(now, addr); err != nil {
			return err
		}
		return p.drain(now, maxIterations, false)
	})
}

// WithdrawWinnings collects the earnings of the listed sponsorships, then pays out the queue.
// Anyone may call it. It returns the winnings collected.
func (p *Pool) WithdrawWinnings(now uint64, addrs []thor.Address, maxIterations int) (*big.Int, error) {
	total := new(big.Int)
	err := p.sctx.Atomic(func() error {
		for _, addr := range addrs {
			if err := p.requireStakedInto(addr); err != nil {
				return err
			}
			sp, err := p.sponsorship(addr)
			if err != nil {
				return err
			}
			got, err := sp.Withdraw(now, p.Address())
			if err != nil {
				return err
			}
			total.Add(total, got)
			if err := p.refresh(now, addr); err != nil {
				return err
			}
		}
		if err := p.onWinnings(now, total); err != nil {
			return err
		}
		return p.drain(now, maxIterations, false)
	})
	if err != nil {
		return nil, err
	}
	return total, nil
}

// OnSlash is called by a sponsorship that slashed the pool's stake. The operator absorbs
// the loss first.
func (p *Pool) OnSlash(now uint64, addr thor.Address, amount *big.Int) error {
	if err := p.requireStakedInto(addr); err != nil {
		return err
	}
	valueBefore, err := p.ApproximateValue()
	if err != nil {
		return err
	}
	if err := p.onLoss(now, amount, valueBefore); err != nil {
		return err
	}
	staked, err := p.StakedIn(addr)
	if err != nil {
		return err
	}
	if err := p.staked.Set(addr, staked.Sub(staked, amount)); err != nil {
		return err
	}
	cached, err := p.cached.Get(addr)
	if err != nil {
		return err
	}
	cached.Sub(cached, amount)
	if cached.Sign() < 0 {
		cached.SetInt64(0)
	}
	return p.cached.Set(addr, cached)
}

// OnKick is called by a sponsorship that removed the pool after paying back returned
// and earnings.
func (p *Pool) OnKick(now uint64, addr thor.Address, returned, earnings *big.Int) error {
	if err := p.requireStakedInto(addr); err != nil {
		return err
	}
	if err := p.forget(addr); err != nil {
		return err
	}
	logger.Warn("kicked from sponsorship", "pool", p.Address(), "sponsorship", addr, "returned", returned)
	if err := p.onWinnings(now, earnings); err != nil {
		return err
	}
	return p.drain(now, DefaultMaxIterations, false)
}
