// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package sponsorship

import (
	"math/big"
	"testing"

	fuzz "github.com/google/gofuzz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/incentives/builtin/policy"
	"github.com/vechain/incentives/builtin/reverts"
	"github.com/vechain/incentives/thor"
)

type step struct {
	Op      uint8
	Who     uint8
	Amount  uint16
	Elapsed uint8
}

// checkConservation asserts that no value was created: everything the sponsorship can still pay
// is covered by what came in, and its token balance covers every claim on it.
func checkConservation(t *testing.T, env *testEnv, now uint64, stakers []thor.Address) {
	g, err := env.sp.Globals(now)
	require.NoError(t, err)
	totals, err := env.sp.Totals()
	require.NoError(t, err)

	unpaid := new(big.Int)
	for _, s := range stakers {
		v, err := env.sp.AllocationOf(now, s)
		require.NoError(t, err)
		unpaid.Add(unpaid, v)
	}

	claims := new(big.Int).Add(g.Balance, unpaid)
	budget := new(big.Int).Add(totals.Sponsored, totals.Forfeited)
	budget.Sub(budget, totals.PaidOut)
	assert.True(t, claims.Cmp(budget) <= 0, "claims %v exceed budget %v", claims, budget)

	held, err := env.token.BalanceOf(sponsorshipAddr)
	require.NoError(t, err)
	expected := new(big.Int).Add(totals.Sponsored, totals.StakedIn)
	expected.Sub(expected, totals.Returned)
	expected.Sub(expected, totals.PaidOut)
	assert.Equal(t, expected, held)

	owed := new(big.Int).Add(claims, g.TotalStaked)
	assert.True(t, owed.Cmp(held) <= 0, "owed %v exceeds held %v", owed, held)
}

func TestConservationRandomized(t *testing.T) {
	for seed := int64(1); seed <= 20; seed++ {
		cfg := defaultConfig()
		cfg.MinOperatorCount = 2
		cfg.Policies.Allocation = policy.Config{Name: policy.StakeWeighted, Param: big.NewInt(7)}
		cfg.Policies.Leave = policy.Config{Name: policy.DefaultLeave, Param: big.NewInt(60)}
		env := newTestEnv(t, cfg)
		stakers := []thor.Address{alice, bob, carol, dave}

		f := fuzz.NewWithSeed(seed).NilChance(0)
		now := t0
		for i := 0; i < 200; i++ {
			var st step
			f.Fuzz(&st)
			now += uint64(st.Elapsed)
			who := stakers[int(st.Who)%len(stakers)]
			amount := big.NewInt(int64(st.Amount) + 1)

			var err error
			switch st.Op % 6 {
			case 0:
				err = env.sp.Sponsor(now, sponsor, amount)
			case 1, 2:
				err = env.sp.Stake(now, who, amount)
			case 3:
				err = env.sp.ReduceStake(now, who, amount)
			case 4:
				_, _, err = env.sp.Leave(now, who)
			case 5:
				_, err = env.sp.Withdraw(now, who)
			}
			if err != nil {
				require.True(t, reverts.IsRevertErr(err), "seed %d step %d: %v", seed, i, err)
			}
			checkConservation(t, env, now, stakers)
		}
	}
}
