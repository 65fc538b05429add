// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package policy

import (
	"math/big"
)

// Scale is the fixed point denominator of the per-stake accumulator.
var Scale = big.NewInt(1e18)

// Globals is the accrual state of a sponsorship.
type Globals struct {
	Balance        *big.Int // unallocated funds
	TotalStaked    *big.Int
	Cumulative     *big.Int // allocation per staked unit, scaled by Scale
	LastUpdate     uint64
	StakerCount    uint64
	Insolvent      bool
	InsolventSince uint64
}

func NewGlobals() *Globals {
	return &Globals{
		Balance:     new(big.Int),
		TotalStaked: new(big.Int),
		Cumulative:  new(big.Int),
	}
}

func (g *Globals) Copy() *Globals {
	cpy := *g
	cpy.Balance = new(big.Int).Set(g.Balance)
	cpy.TotalStaked = new(big.Int).Set(g.TotalStaked)
	cpy.Cumulative = new(big.Int).Set(g.Cumulative)
	return &cpy
}

// IsRunning reports whether the sponsorship is paying out.
func (g *Globals) IsRunning(minOperatorCount uint64) bool {
	return g.TotalStaked.Sign() > 0 &&
		g.StakerCount >= minOperatorCount &&
		g.Balance.Sign() > 0 &&
		!g.Insolvent
}

// Position is a single staker's state in a sponsorship.
type Position struct {
	Stake            *big.Int
	JoinedAt         uint64
	CumulativeAtJoin *big.Int
	Unpaid           *big.Int
}

func NewPosition(now uint64, cumulative *big.Int) *Position {
	return &Position{
		Stake:            new(big.Int),
		JoinedAt:         now,
		CumulativeAtJoin: new(big.Int).Set(cumulative),
		Unpaid:           new(big.Int),
	}
}

func (p *Position) IsEmpty() bool {
	return p.Stake == nil || p.Stake.Sign() == 0
}

func (p *Position) Copy() *Position {
	cpy := *p
	cpy.Stake = new(big.Int).Set(p.Stake)
	cpy.CumulativeAtJoin = new(big.Int).Set(p.CumulativeAtJoin)
	cpy.Unpaid = new(big.Int).Set(p.Unpaid)
	return &cpy
}

// Settlement reports what advancing the globals did.
type Settlement struct {
	Allocated         *big.Int
	InsolvencyStarted bool
}

// Allocation decides how the sponsorship balance flows to stakers over time.
type Allocation interface {
	// Rate is the amount allocated per second while running.
	Rate() *big.Int
	// Settle advances g to now. running must be evaluated at g's last update.
	Settle(g *Globals, now uint64, running bool) *Settlement
	// SettlePosition moves everything p earned since its last settlement into p.Unpaid.
	SettlePosition(g *Globals, p *Position)
	// Forfeited is the amount that was owed but not paid during the current insolvency.
	Forfeited(g *Globals, now uint64) *big.Int
}

type stakeWeighted struct {
	rate *big.Int
}

func (a *stakeWeighted) Rate() *big.Int {
	return new(big.Int).Set(a.rate)
}

func (a *stakeWeighted) Settle(g *Globals, now uint64, running bool) *Settlement {
	s := &Settlement{Allocated: new(big.Int)}
	if now <= g.LastUpdate {
		return s
	}
	elapsed := now - g.LastUpdate
	if running {
		owed := new(big.Int).Mul(a.rate, new(big.Int).SetUint64(elapsed))
		accruable := owed
		if owed.Cmp(g.Balance) >= 0 {
			accruable = new(big.Int).Set(g.Balance)
			runway := new(big.Int).Quo(g.Balance, a.rate)
			g.Insolvent = true
			g.InsolventSince = g.LastUpdate + runway.Uint64()
			s.InsolvencyStarted = true
		}
		delta := new(big.Int).Mul(accruable, Scale)
		delta.Quo(delta, g.TotalStaked)

		// round the allocated amount up so that positions, which round down, never claim more than was taken
		allocated := new(big.Int).Mul(delta, g.TotalStaked)
		allocated = ceilDiv(allocated, Scale)

		g.Cumulative.Add(g.Cumulative, delta)
		g.Balance.Sub(g.Balance, allocated)
		s.Allocated = allocated
	}
	g.LastUpdate = now
	return s
}

func (a *stakeWeighted) SettlePosition(g *Globals, p *Position) {
	earned := new(big.Int).Sub(g.Cumulative, p.CumulativeAtJoin)
	earned.Mul(earned, p.Stake)
	earned.Quo(earned, Scale)
	p.Unpaid.Add(p.Unpaid, earned)
	p.CumulativeAtJoin = new(big.Int).Set(g.Cumulative)
}

func (a *stakeWeighted) Forfeited(g *Globals, now uint64) *big.Int {
	if !g.Insolvent || now <= g.InsolventSince {
		return new(big.Int)
	}
	return new(big.Int).Mul(a.rate, new(big.Int).SetUint64(now-g.InsolventSince))
}

func ceilDiv(x, y *big.Int) *big.Int {
	q, m := new(big.Int).QuoRem(x, y, new(big.Int))
	if m.Sign() > 0 {
		q.Add(q, big.NewInt(1))
	}
	return q
}
