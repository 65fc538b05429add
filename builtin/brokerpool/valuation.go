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
	"github.com/vechain/incentives/thor"
)

// ApproximateValue is the liquid balance plus the cached value of every sponsorship stake.
func (p *Pool) ApproximateValue() (*big.Int, error) {
	v, err := p.Liquid()
	if err != nil {
		return nil, err
	}
	v = new(big.Int).Set(v)
	sps, err := p.stakedInto.All()
	if err != nil {
		return nil, err
	}
	for _, sp := range sps {
		c, err := p.cached.Get(sp)
		if err != nil {
			return nil, errors.Wrap(err, "failed to get cached value")
		}
		v.Add(v, c)
	}
	return v, nil
}

// RealValue is the liquid balance plus the live stake and allocation in every sponsorship.
func (p *Pool) RealValue(now uint64) (*big.Int, error) {
	v, err := p.Liquid()
	if err != nil {
		return nil, err
	}
	v = new(big.Int).Set(v)
	sps, err := p.stakedInto.All()
	if err != nil {
		return nil, err
	}
	for _, addr := range sps {
		live, err := p.liveValue(now, addr)
		if err != nil {
			return nil, err
		}
		v.Add(v, live)
	}
	return v, nil
}

func (p *Pool) sponsorship(addr thor.Address) (Sponsorship, error) {
	if p.sponsorships != nil {
		if sp, ok := p.sponsorships.Sponsorship(addr); ok {
			return sp, nil
		}
	}
	return nil, reverts.New(reverts.InvalidArgument, "unknown_sponsorship")
}

func (p *Pool) liveValue(now uint64, addr thor.Address) (*big.Int, error) {
	sp, err := p.sponsorship(addr)
	if err != nil {
		return nil, err
	}
	stake, err := sp.StakeOf(p.Address())
	if err != nil {
		return nil, err
	}
	alloc, err := sp.AllocationOf(now, p.Address())
	if err != nil {
		return nil, err
	}
	return stake.Add(stake, alloc), nil
}

// refresh replaces the cached value of a sponsorship stake with its live value.
func (p *Pool) refresh(now uint64, addr thor.Address) error {
	live, err := p.liveValue(now, addr)
	if err != nil {
		return err
	}
	return p.cached.Set(addr, live)
}

func (p *Pool) requireStakedInto(addr thor.Address) error {
	ok, err := p.stakedInto.Contains(addr)
	if err != nil {
		return err
	}
	if !ok {
		return reverts.New(reverts.InvalidArgument, "not_staked_into")
	}
	return nil
}

// UpdateApproximateValue refreshes the cached values of the listed sponsorships. When they
// had drifted past the staleness threshold, the operator pays caller a fee in pool-shares.
// It returns the shares paid.
func (p *Pool) UpdateApproximateValue(now uint64, caller thor.Address, sponsorships []thor.Address) (*big.Int, error) {
	paid := new(big.Int)
	err := p.sctx.Atomic(func() error {
		before, err := p.ApproximateValue()
		if err != nil {
			return err
		}
		for _, sp := range sponsorships {
			if err := p.requireStakedInto(sp); err != nil {
				return err
			}
			if err := p.refresh(now, sp); err != nil {
				return err
			}
		}
		after, err := p.ApproximateValue()
		if err != nil {
			return err
		}
		if caller == p.cfg.Operator || before.Sign() == 0 {
			return nil
		}

		divergence := new(big.Int).Sub(after, before)
		divergence.Abs(divergence)
		lhs := new(big.Int).Mul(divergence, big.NewInt(100))
		rhs := new(big.Int).Mul(before, new(big.Int).SetUint64(p.cfg.StalenessThresholdPercent))
		if lhs.Cmp(rhs) <= 0 {
			return nil
		}

		fee := new(big.Int).Mul(divergence, new(big.Int).SetUint64(p.cfg.StalenessFeePercent))
		fee.Quo(fee, big.NewInt(100))
		supply, err := p.supply.Get()
		if err != nil {
			return err
		}
		operatorShares, err := p.SharesOf(p.cfg.Operator)
		if err != nil {
			return err
		}
		if after.Sign() == 0 {
			return nil
		}
		shares := minInt(sharesFor(fee, after, supply), operatorShares)
		if shares.Sign() == 0 {
			return nil
		}
		if err := p.moveShares(p.cfg.Operator, caller, shares); err != nil {
			return err
		}
		paid.Set(shares)
		p.sctx.EmitWithParty(events.StalenessFee, now, p.cfg.Operator, caller, fee, shares)
		logger.Info("staleness fee paid", "pool", p.Address(), "caller", caller, "fee", fee, "shares", shares)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paid, nil
}

// onWinnings takes the operator fee out of winnings that already arrived in the pool,
// then diverts part of the rest to the operator while it is under its margin.
func (p *Pool) onWinnings(now uint64, winnings *big.Int) error {
	if winnings.Sign() <= 0 {
		return nil
	}
	value, err := p.ApproximateValue()
	if err != nil {
		return err
	}
	supply, err := p.supply.Get()
	if err != nil {
		return err
	}

	fee := percentOf(winnings, p.cfg.OperatorSharePercent)
	if fee.Sign() > 0 {
		minted := mintedFor(fee, value, supply)
		if err := p.mint(p.cfg.Operator, minted); err != nil {
			return err
		}
		supply.Add(supply, minted)
		p.sctx.Emit(events.OperatorFee, now, p.cfg.Operator, fee, minted)
	}

	operatorShares, err := p.SharesOf(p.cfg.Operator)
	if err != nil {
		return err
	}
	needed := marginShortfall(operatorShares, supply, p.cfg.MinOperatorStakePercent)
	if needed.Sign() == 0 {
		return nil
	}
	limit := percentOf(winnings, p.cfg.MaxDivertPercent)
	diverted := minInt(needed, mintedFor(limit, value, supply))
	if diverted.Sign() == 0 {
		return nil
	}
	if err := p.mint(p.cfg.Operator, diverted); err != nil {
		return err
	}
	supply.Add(supply, diverted)
	divertedValue := shareValue(diverted, value, supply)
	p.sctx.Emit(events.MarginDiversion, now, p.cfg.Operator, divertedValue, diverted)
	logger.Debug("winnings diverted to operator", "pool", p.Address(), "value", divertedValue, "shares", diverted)
	return nil
}

// onLoss burns operator shares worth the loss, measured at valueBefore. What the operator
// cannot cover is shared by everyone through the exchange rate.
func (p *Pool) onLoss(now uint64, loss, valueBefore *big.Int) error {
	if loss.Sign() <= 0 || valueBefore.Sign() == 0 {
		return nil
	}
	supply, err := p.supply.Get()
	if err != nil {
		return err
	}
	if supply.Sign() == 0 {
		return nil
	}
	operatorShares, err := p.SharesOf(p.cfg.Operator)
	if err != nil {
		return err
	}
	burned := minInt(ceilDiv(new(big.Int).Mul(loss, supply), valueBefore), operatorShares)
	if burned.Sign() == 0 {
		return nil
	}
	if err := p.burn(p.cfg.Operator, burned); err != nil {
		return err
	}
	p.sctx.Emit(events.LossAbsorbed, now, p.cfg.Operator, loss, burned)
	logger.Info("operator absorbed loss", "pool", p.Address(), "loss", loss, "burned", burned)
	return nil
}

func percentOf(x *big.Int, percent uint64) *big.Int {
	v := new(big.Int).Mul(x, new(big.Int).SetUint64(percent))
	return v.Quo(v, big.NewInt(100))
}

// mintedFor is the number of new shares worth exactly amount once minted, where value already
// includes amount: amount·supply/(value−amount).
func mintedFor(amount, value, supply *big.Int) *big.Int {
	rest := new(big.Int).Sub(value, amount)
	if supply.Sign() == 0 || rest.Sign() <= 0 {
		return new(big.Int).Set(amount)
	}
	m := new(big.Int).Mul(amount, supply)
	return m.Quo(m, rest)
}

// marginShortfall is the number of shares the operator must gain to hold percent of the supply.
func marginShortfall(operator, supply *big.Int, percent uint64) *big.Int {
	pct := new(big.Int).SetUint64(percent)
	want := new(big.Int).Mul(pct, supply)
	have := new(big.Int).Mul(operator, big.NewInt(100))
	if have.Cmp(want) >= 0 {
		return new(big.Int)
	}
	return ceilDiv(want.Sub(want, have), new(big.Int).Sub(big.NewInt(100), pct))
}
