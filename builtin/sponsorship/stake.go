// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package sponsorship

import (
	"math/big"

	"github.com/vechain/incentives/builtin/events"
	"github.com/vechain/incentives/builtin/policy"
	"github.com/vechain/incentives/builtin/reverts"
	"github.com/vechain/incentives/builtin/token"
	"github.com/vechain/incentives/thor"
)

//
// Setters - state change
//

// Sponsor pulls amount from sponsor into the balance.
func (s *Sponsorship) Sponsor(now uint64, sponsor thor.Address, amount *big.Int) error {
	return s.sctx.Atomic(func() error {
		if err := s.ledger.Transfer(now, sponsor, s.Address(), amount); err != nil {
			return err
		}
		return s.sponsor(now, sponsor, amount)
	})
}

// Stake pulls amount from staker and adds it to the staker's position, opening one if needed.
func (s *Sponsorship) Stake(now uint64, staker thor.Address, amount *big.Int) error {
	return s.sctx.Atomic(func() error {
		if err := s.ledger.Transfer(now, staker, s.Address(), amount); err != nil {
			return err
		}
		return s.stake(now, staker, amount)
	})
}

// OnTokenTransfer implements token.Receiver. Tokens without an action sponsor the pool.
func (s *Sponsorship) OnTokenTransfer(now uint64, from thor.Address, amount *big.Int, data []byte) error {
	p, err := token.DecodePayload(data)
	if err != nil {
		return err
	}
	return s.sctx.Atomic(func() error {
		switch p.Action {
		case token.ActionNone, token.ActionSponsor:
			return s.sponsor(now, from, amount)
		case token.ActionStakeFor:
			target := p.Target
			if target.IsZero() {
				target = from
			}
			return s.stake(now, target, amount)
		default:
			return reverts.Newf(reverts.InvalidArgument, "unsupported_action_%s", p.Action)
		}
	})
}

func (s *Sponsorship) sponsor(now uint64, sponsor thor.Address, amount *big.Int) error {
	if amount.Sign() <= 0 {
		return reverts.New(reverts.InvalidArgument, "non_positive_amount")
	}
	g, err := s.settle(now)
	if err != nil {
		return err
	}
	s.credit(g, now, amount)
	if err := s.globals.Set(g); err != nil {
		return err
	}
	if err := s.updateTotals(func(t *Totals) { t.Sponsored.Add(t.Sponsored, amount) }); err != nil {
		return err
	}
	s.sctx.Emit(events.Sponsored, now, sponsor, amount, g.Balance)
	logger.Debug("sponsored", "sponsorship", s.Address(), "sponsor", sponsor, "amount", amount)
	return nil
}

func (s *Sponsorship) stake(now uint64, staker thor.Address, amount *big.Int) error {
	if amount.Sign() <= 0 {
		return reverts.New(reverts.InvalidArgument, "non_positive_amount")
	}
	g, err := s.settle(now)
	if err != nil {
		return err
	}
	p, err := s.getPosition(staker)
	if err != nil {
		return err
	}

	joining := p.IsEmpty()
	if joining {
		req := &policy.JoinRequest{
			Staker:         staker,
			StakerCount:    g.StakerCount,
			IsOperatorPool: s.dir != nil && s.dir.IsOperatorPool(staker),
		}
		for _, j := range s.policies.Join {
			if err := j.OnJoin(req); err != nil {
				logger.Debug("join rejected", "sponsorship", s.Address(), "staker", staker, "error", err)
				return err
			}
		}
		if amount.Cmp(s.cfg.MinimumStake) < 0 {
			return reverts.New(reverts.PolicyRejection, "below_minimum_stake")
		}
		p = policy.NewPosition(now, g.Cumulative)
		if _, err := s.stakers.Add(staker); err != nil {
			return err
		}
		g.StakerCount++
	} else {
		s.policies.Allocation.SettlePosition(g, p)
	}

	p.Stake.Add(p.Stake, amount)
	g.TotalStaked.Add(g.TotalStaked, amount)

	if err := s.positions.Set(staker, p); err != nil {
		return err
	}
	if err := s.globals.Set(g); err != nil {
		return err
	}
	if err := s.updateTotals(func(t *Totals) { t.StakedIn.Add(t.StakedIn, amount) }); err != nil {
		return err
	}

	if joining {
		s.sctx.Emit(events.StakeJoined, now, staker, amount, nil)
		logger.Debug("staker joined", "sponsorship", s.Address(), "staker", staker, "amount", amount)
	} else {
		s.sctx.Emit(events.StakeIncreased, now, staker, amount, p.Stake)
	}
	return nil
}

// ReduceStake pays part of staker's stake back. The stake left must still meet the minimum stake.
// No penalty applies to reductions.
func (s *Sponsorship) ReduceStake(now uint64, staker thor.Address, amount *big.Int) error {
	return s.sctx.Atomic(func() error {
		if amount.Sign() <= 0 {
			return reverts.New(reverts.InvalidArgument, "non_positive_amount")
		}
		g, err := s.settle(now)
		if err != nil {
			return err
		}
		p, err := s.getPosition(staker)
		if err != nil {
			return err
		}
		if p.IsEmpty() {
			return reverts.New(reverts.InvalidArgument, "not_staked")
		}
		if err := s.requireNotFlagged(staker); err != nil {
			return err
		}
		left := new(big.Int).Sub(p.Stake, amount)
		if left.Sign() <= 0 || left.Cmp(s.cfg.MinimumStake) < 0 {
			return reverts.New(reverts.PolicyRejection, "below_minimum_stake")
		}

		s.policies.Allocation.SettlePosition(g, p)
		p.Stake = left
		g.TotalStaked.Sub(g.TotalStaked, amount)

		if err := s.positions.Set(staker, p); err != nil {
			return err
		}
		if err := s.globals.Set(g); err != nil {
			return err
		}
		if err := s.updateTotals(func(t *Totals) { t.Returned.Add(t.Returned, amount) }); err != nil {
			return err
		}
		if err := s.pay(now, staker, amount); err != nil {
			return err
		}
		s.sctx.Emit(events.StakeDecreased, now, staker, amount, left)
		return nil
	})
}

// Leave closes staker's position, paying back the stake left after the leave penalty plus all earnings.
func (s *Sponsorship) Leave(now uint64, staker thor.Address) (returned, earnings *big.Int, err error) {
	err = s.sctx.Atomic(func() error {
		g, err := s.settle(now)
		if err != nil {
			return err
		}
		p, err := s.getPosition(staker)
		if err != nil {
			return err
		}
		if p.IsEmpty() {
			return reverts.New(reverts.InvalidArgument, "not_staked")
		}
		if err := s.requireNotFlagged(staker); err != nil {
			return err
		}
		s.policies.Allocation.SettlePosition(g, p)

		penalty := new(big.Int)
		if s.policies.Leave != nil {
			penalty = s.policies.Leave.Penalty(p, now, g.IsRunning(s.cfg.MinOperatorCount))
		}
		returned = new(big.Int).Sub(p.Stake, penalty)
		earnings = new(big.Int).Set(p.Unpaid)

		if err := s.removeStaker(g, staker, p); err != nil {
			return err
		}
		s.credit(g, now, penalty)
		if err := s.globals.Set(g); err != nil {
			return err
		}
		if err := s.updateTotals(func(t *Totals) {
			t.Forfeited.Add(t.Forfeited, penalty)
			t.Returned.Add(t.Returned, returned)
			t.PaidOut.Add(t.PaidOut, earnings)
		}); err != nil {
			return err
		}
		if err := s.pay(now, staker, new(big.Int).Add(returned, earnings)); err != nil {
			return err
		}
		if earnings.Sign() > 0 {
			s.sctx.Emit(events.EarningsWithdrawn, now, staker, earnings, nil)
		}
		s.sctx.Emit(events.StakeLeft, now, staker, returned, penalty)
		logger.Debug("staker left", "sponsorship", s.Address(), "staker", staker, "returned", returned, "penalty", penalty, "earnings", earnings)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return returned, earnings, nil
}

// Withdraw pays staker's earnings, keeping the stake in place.
func (s *Sponsorship) Withdraw(now uint64, staker thor.Address) (earnings *big.Int, err error) {
	err = s.sctx.Atomic(func() error {
		g, err := s.settle(now)
		if err != nil {
			return err
		}
		p, err := s.getPosition(staker)
		if err != nil {
			return err
		}
		if p.IsEmpty() {
			return reverts.New(reverts.InvalidArgument, "not_staked")
		}
		s.policies.Allocation.SettlePosition(g, p)
		earnings = p.Unpaid
		p.Unpaid = new(big.Int)

		if err := s.positions.Set(staker, p); err != nil {
			return err
		}
		if err := s.globals.Set(g); err != nil {
			return err
		}
		if earnings.Sign() == 0 {
			return nil
		}
		if err := s.updateTotals(func(t *Totals) { t.PaidOut.Add(t.PaidOut, earnings) }); err != nil {
			return err
		}
		if err := s.pay(now, staker, earnings); err != nil {
			return err
		}
		s.sctx.Emit(events.EarningsWithdrawn, now, staker, earnings, nil)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return earnings, nil
}

// removeStaker drops a settled position from the books. Paying out is up to the caller.
func (s *Sponsorship) removeStaker(g *policy.Globals, staker thor.Address, p *policy.Position) error {
	g.TotalStaked.Sub(g.TotalStaked, p.Stake)
	g.StakerCount--
	s.positions.Delete(staker)
	_, err := s.stakers.Remove(staker)
	return err
}
