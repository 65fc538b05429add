// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package policy

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStakeWeighted(t *testing.T, rate int64) Allocation {
	a, err := NewAllocation(Config{Name: StakeWeighted, Param: big.NewInt(rate)})
	require.NoError(t, err)
	return a
}

func TestSettleSplitsByStake(t *testing.T) {
	a := newStakeWeighted(t, 10)
	g := NewGlobals()
	g.Balance = big.NewInt(10_000)
	g.TotalStaked = big.NewInt(300)
	g.StakerCount = 2
	g.LastUpdate = 100

	p1 := NewPosition(100, g.Cumulative)
	p1.Stake = big.NewInt(100)
	p2 := NewPosition(100, g.Cumulative)
	p2.Stake = big.NewInt(200)

	s := a.Settle(g, 130, g.IsRunning(1))
	assert.Equal(t, big.NewInt(300), s.Allocated)
	assert.False(t, s.InsolvencyStarted)
	assert.Equal(t, big.NewInt(9_700), g.Balance)
	assert.Equal(t, uint64(130), g.LastUpdate)

	a.SettlePosition(g, p1)
	a.SettlePosition(g, p2)
	assert.Equal(t, big.NewInt(100), p1.Unpaid)
	assert.Equal(t, big.NewInt(200), p2.Unpaid)

	// settling twice is a no-op
	a.SettlePosition(g, p1)
	assert.Equal(t, big.NewInt(100), p1.Unpaid)
}

func TestSettleNotRunningOnlyMovesClock(t *testing.T) {
	a := newStakeWeighted(t, 10)
	g := NewGlobals()
	g.Balance = big.NewInt(1000)
	g.TotalStaked = big.NewInt(100)
	g.StakerCount = 1
	g.LastUpdate = 5

	assert.False(t, g.IsRunning(2))
	s := a.Settle(g, 50, g.IsRunning(2))
	assert.Equal(t, 0, s.Allocated.Sign())
	assert.Equal(t, big.NewInt(1000), g.Balance)
	assert.Equal(t, uint64(50), g.LastUpdate)
	assert.Equal(t, 0, g.Cumulative.Sign())
}

func TestSettleInsolvency(t *testing.T) {
	a := newStakeWeighted(t, 10)
	g := NewGlobals()
	g.Balance = big.NewInt(250)
	g.TotalStaked = big.NewInt(100)
	g.StakerCount = 1
	g.LastUpdate = 1000

	s := a.Settle(g, 1100, g.IsRunning(1))
	assert.True(t, s.InsolvencyStarted)
	assert.Equal(t, big.NewInt(250), s.Allocated)
	assert.Equal(t, 0, g.Balance.Sign())
	assert.True(t, g.Insolvent)
	assert.Equal(t, uint64(1025), g.InsolventSince)
	assert.False(t, g.IsRunning(1))

	assert.Equal(t, big.NewInt(750), a.Forfeited(g, 1100))
}

func TestSettleNeverOverAllocates(t *testing.T) {
	a := newStakeWeighted(t, 7)
	g := NewGlobals()
	g.Balance = big.NewInt(1_000_000)
	g.TotalStaked = big.NewInt(3)
	g.StakerCount = 3
	g.LastUpdate = 0

	ps := make([]*Position, 3)
	for i := range ps {
		ps[i] = NewPosition(0, g.Cumulative)
		ps[i].Stake = big.NewInt(1)
	}

	taken := new(big.Int)
	for now := uint64(1); now <= 50; now++ {
		s := a.Settle(g, now, g.IsRunning(1))
		taken.Add(taken, s.Allocated)
	}
	claimed := new(big.Int)
	for _, p := range ps {
		a.SettlePosition(g, p)
		claimed.Add(claimed, p.Unpaid)
	}
	assert.True(t, claimed.Cmp(taken) <= 0, "claimed %v taken %v", claimed, taken)
	assert.Equal(t, new(big.Int).Sub(big.NewInt(1_000_000), taken), g.Balance)
}

func TestCopiesAreIndependent(t *testing.T) {
	g := NewGlobals()
	g.Balance = big.NewInt(1)
	cpy := g.Copy()
	cpy.Balance.SetInt64(2)
	assert.Equal(t, big.NewInt(1), g.Balance)

	p := NewPosition(0, big.NewInt(3))
	p.Stake = big.NewInt(4)
	pc := p.Copy()
	pc.Stake.SetInt64(5)
	assert.Equal(t, big.NewInt(4), p.Stake)
	assert.True(t, NewPosition(0, new(big.Int)).IsEmpty())
}
