// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package policy

import "math/big"

// Leave decides the penalty a staker forfeits when leaving.
type Leave interface {
	// Penalty returns the part of p.Stake forfeited into the sponsorship balance.
	Penalty(p *Position, now uint64, running bool) *big.Int
	PenaltyPeriod() uint64
}

// defaultLeave forfeits the whole stake when leaving a running sponsorship too early.
type defaultLeave struct {
	penaltyPeriod uint64
}

func (l *defaultLeave) PenaltyPeriod() uint64 {
	return l.penaltyPeriod
}

func (l *defaultLeave) Penalty(p *Position, now uint64, running bool) *big.Int {
	if running && now < p.JoinedAt+l.penaltyPeriod {
		return new(big.Int).Set(p.Stake)
	}
	return new(big.Int)
}
