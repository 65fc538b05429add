// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package sponsorship

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/incentives/builtin/events"
	"github.com/vechain/incentives/builtin/policy"
	"github.com/vechain/incentives/builtin/reverts"
	"github.com/vechain/incentives/builtin/token"
	"github.com/vechain/incentives/lvldb"
	"github.com/vechain/incentives/state"
	"github.com/vechain/incentives/thor"
)

func TestLeavePenaltyScenario(t *testing.T) {
	cfg := defaultConfig()
	cfg.MinOperatorCount = 2
	cfg.Policies.Leave = policy.Config{Name: policy.DefaultLeave, Param: big.NewInt(24 * 60 * 60)}
	env := newTestEnv(t, cfg)

	require.NoError(t, env.sp.Sponsor(t0, sponsor, big.NewInt(10_000)))
	require.NoError(t, env.sp.Stake(t0, alice, big.NewInt(1000)))

	running, err := env.sp.IsRunning()
	require.NoError(t, err)
	assert.False(t, running)

	require.NoError(t, env.sp.Stake(t0+100, bob, big.NewInt(1000)))
	running, _ = env.sp.IsRunning()
	assert.True(t, running)

	// the view matches what the leave settles
	assert.Equal(t, int64(100), env.allocationOf(t, t0+300, alice))

	returned, earnings, err := env.sp.Leave(t0+300, alice)
	require.NoError(t, err)
	assert.Equal(t, 0, returned.Sign())
	assert.Equal(t, big.NewInt(100), earnings)
	assert.Equal(t, int64(1_000_000-900), env.balance(t, alice))

	bal, err := env.sp.Balance(t0 + 300)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(10_000-200+1000), bal)

	// bob alone does not satisfy the operator count, so the pool stopped
	running, _ = env.sp.IsRunning()
	assert.False(t, running)
	assert.Equal(t, int64(100), env.allocationOf(t, t0+400, bob))

	returned, earnings, err = env.sp.Leave(t0+400, bob)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1000), returned)
	assert.Equal(t, big.NewInt(100), earnings)
	assert.Equal(t, int64(1_000_000+100), env.balance(t, bob))

	left := events.Filter(env.st.Events(), events.StakeLeft)
	require.Len(t, left, 2)
	assert.Equal(t, big.NewInt(1000), left[0].Extra)
	assert.Equal(t, 0, left[1].Extra.Sign())
}

func TestWithdrawMatchesView(t *testing.T) {
	env := newTestEnv(t, defaultConfig())
	require.NoError(t, env.sp.Sponsor(t0, sponsor, big.NewInt(1_000)))
	require.NoError(t, env.sp.Stake(t0, alice, big.NewInt(400)))
	require.NoError(t, env.sp.Stake(t0+10, bob, big.NewInt(100)))

	viewA := env.allocationOf(t, t0+50, alice)
	viewB := env.allocationOf(t, t0+50, bob)
	// alice alone for 10s, then 4/5 of 40s
	assert.Equal(t, int64(10+32), viewA)
	assert.Equal(t, int64(8), viewB)

	got, err := env.sp.Withdraw(t0+50, alice)
	require.NoError(t, err)
	assert.Equal(t, viewA, got.Int64())
	assert.Equal(t, viewB, env.allocationOf(t, t0+50, bob))
	assert.Equal(t, int64(0), env.allocationOf(t, t0+50, alice))

	stake, err := env.sp.StakeOf(alice)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(400), stake)
}

func TestIncreaseStakeSettlesFirst(t *testing.T) {
	env := newTestEnv(t, defaultConfig())
	require.NoError(t, env.sp.Sponsor(t0, sponsor, big.NewInt(1_000)))
	require.NoError(t, env.sp.Stake(t0, alice, big.NewInt(100)))
	require.NoError(t, env.sp.Stake(t0, bob, big.NewInt(100)))

	require.NoError(t, env.sp.Stake(t0+20, alice, big.NewInt(200)))
	// 10 each for the first 20s, then alice gets 3/4 of the next 20s
	assert.Equal(t, int64(10+15), env.allocationOf(t, t0+40, alice))
	assert.Equal(t, int64(10+5), env.allocationOf(t, t0+40, bob))

	assert.Len(t, events.Filter(env.st.Events(), events.StakeIncreased), 1)
}

func TestInsolvency(t *testing.T) {
	env := newTestEnv(t, defaultConfig())
	require.NoError(t, env.sp.Sponsor(t0, sponsor, big.NewInt(100)))
	require.NoError(t, env.sp.Stake(t0, alice, big.NewInt(1000)))

	assert.Equal(t, int64(100), env.allocationOf(t, t0+150, alice))
	got, err := env.sp.Withdraw(t0+150, alice)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(100), got)

	started := events.Filter(env.st.Events(), events.InsolvencyStarted)
	require.Len(t, started, 1)
	assert.Equal(t, new(big.Int).SetUint64(t0+100), started[0].Extra)

	g, err := env.sp.Globals(t0 + 150)
	require.NoError(t, err)
	assert.True(t, g.Insolvent)
	running, _ := env.sp.IsRunning()
	assert.False(t, running)

	require.NoError(t, env.sp.Sponsor(t0+200, sponsor, big.NewInt(50)))
	ended := events.Filter(env.st.Events(), events.InsolvencyEnded)
	require.Len(t, ended, 1)
	assert.Equal(t, big.NewInt(100), ended[0].Amount)

	assert.Equal(t, int64(30), env.allocationOf(t, t0+230, alice))
}

func TestReduceStake(t *testing.T) {
	env := newTestEnv(t, defaultConfig())
	require.NoError(t, env.sp.Stake(t0, alice, big.NewInt(100)))

	err := env.sp.ReduceStake(t0+1, alice, big.NewInt(95))
	assert.True(t, reverts.Is(err, reverts.PolicyRejection))
	err = env.sp.ReduceStake(t0+1, alice, big.NewInt(100))
	assert.True(t, reverts.Is(err, reverts.PolicyRejection))
	err = env.sp.ReduceStake(t0+1, bob, big.NewInt(1))
	assert.True(t, reverts.Is(err, reverts.InvalidArgument))

	require.NoError(t, env.sp.ReduceStake(t0+1, alice, big.NewInt(90)))
	stake, _ := env.sp.StakeOf(alice)
	assert.Equal(t, big.NewInt(10), stake)
	assert.Equal(t, int64(1_000_000-10), env.balance(t, alice))
}

func TestStakeBelowMinimum(t *testing.T) {
	env := newTestEnv(t, defaultConfig())
	err := env.sp.Stake(t0, alice, big.NewInt(9))
	assert.True(t, reverts.Is(err, reverts.PolicyRejection))
	assert.Equal(t, int64(1_000_000), env.balance(t, alice))
	assert.True(t, reverts.Is(env.sp.Stake(t0, alice, big.NewInt(0)), reverts.InvalidArgument))
}

func TestTimeInPast(t *testing.T) {
	env := newTestEnv(t, defaultConfig())
	require.NoError(t, env.sp.Stake(t0+10, alice, big.NewInt(100)))
	err := env.sp.Stake(t0+5, bob, big.NewInt(100))
	assert.True(t, reverts.Is(err, reverts.InvalidArgument))
}

func TestJoinPolicies(t *testing.T) {
	cfg := defaultConfig()
	cfg.Policies.Join = []policy.Config{{Name: policy.MaxOperatorsJoin, Param: big.NewInt(2)}}
	env := newTestEnv(t, cfg)

	require.NoError(t, env.sp.Stake(t0, alice, big.NewInt(100)))
	require.NoError(t, env.sp.Stake(t0, bob, big.NewInt(100)))
	err := env.sp.Stake(t0, carol, big.NewInt(100))
	assert.Equal(t, "max_operators_reached", reverts.Reason(err))
	assert.Equal(t, int64(1_000_000), env.balance(t, carol))

	// increasing an existing position is not a join
	require.NoError(t, env.sp.Stake(t0, bob, big.NewInt(100)))

	stakers, err := env.sp.Stakers()
	require.NoError(t, err)
	assert.ElementsMatch(t, []thor.Address{alice, bob}, stakers)
}

func TestOperatorPoolOnly(t *testing.T) {
	cfg := defaultConfig()
	cfg.Policies.Join = []policy.Config{{Name: policy.OperatorPoolOnly}}
	env := newTestEnv(t, cfg)
	env.dir.pools[dave] = &fakeListener{}

	err := env.sp.Stake(t0, alice, big.NewInt(100))
	assert.True(t, reverts.Is(err, reverts.PolicyRejection))
	require.NoError(t, env.sp.Stake(t0, dave, big.NewInt(100)))
}

func TestInvalidConfigCreatesNothing(t *testing.T) {
	st := state.NewMem()
	tk := newTestToken(t, st)
	cfg := defaultConfig()
	cfg.Policies.Leave = policy.Config{Name: policy.DefaultLeave, Param: big.NewInt(policy.MaxPenaltyPeriodSeconds + 1)}

	_, err := New(t0, sponsorshipAddr, st, tk, nil, cfg)
	assert.True(t, reverts.Is(err, reverts.Configuration))

	_, err = Load(sponsorshipAddr, st, tk, nil)
	assert.Error(t, err)
	assert.False(t, reverts.IsRevertErr(err))
}

func TestOnTokenTransfer(t *testing.T) {
	env := newTestEnv(t, defaultConfig())

	require.NoError(t, env.token.TransferAndNotify(t0, sponsor, sponsorshipAddr, big.NewInt(500), nil))
	bal, _ := env.sp.Balance(t0)
	assert.Equal(t, big.NewInt(500), bal)

	data := token.EncodePayload(token.ActionStakeFor, bob)
	require.NoError(t, env.token.TransferAndNotify(t0, alice, sponsorshipAddr, big.NewInt(100), data))
	stake, _ := env.sp.StakeOf(bob)
	assert.Equal(t, big.NewInt(100), stake)
	assert.Equal(t, int64(1_000_000-100), env.balance(t, alice))

	err := env.token.TransferAndNotify(t0, alice, sponsorshipAddr, big.NewInt(1), token.EncodePayload(token.ActionInvest, alice))
	assert.True(t, reverts.Is(err, reverts.InvalidArgument))
	assert.Equal(t, int64(1_000_000-100), env.balance(t, alice))
}

func TestLoadAfterCommit(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	defer db.Close()

	env := newTestEnv(t, defaultConfig())
	require.NoError(t, env.sp.Sponsor(t0, sponsor, big.NewInt(1000)))
	require.NoError(t, env.sp.Stake(t0, alice, big.NewInt(100)))
	require.NoError(t, env.st.Commit(db))

	st := state.New(db)
	tk := token.New(tokenAddr, st)
	sp, err := Load(sponsorshipAddr, st, tk, nil)
	require.NoError(t, err)

	stake, err := sp.StakeOf(alice)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(100), stake)
	assert.Equal(t, big.NewInt(10), sp.Config().Policies.Kick.Param)

	v, err := sp.AllocationOf(t0+7, alice)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(7), v)
}
