// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package sponsorship

import (
	"math/big"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/incentives/builtin/events"
	"github.com/vechain/incentives/builtin/policy"
	"github.com/vechain/incentives/builtin/reverts"
)

func TestAdminKick(t *testing.T) {
	env := newTestEnv(t, defaultConfig())
	pool := &fakeListener{}
	env.dir.pools[dave] = pool

	require.NoError(t, env.sp.Sponsor(t0, sponsor, big.NewInt(10_000)))
	require.NoError(t, env.sp.Stake(t0, dave, big.NewInt(1000)))

	_, err := env.sp.Flag(t0+50, alice, dave)
	assert.True(t, reverts.Is(err, reverts.AccessDenied))

	verdict, err := env.sp.Flag(t0+100, owner, dave)
	require.NoError(t, err)
	assert.Equal(t, policy.Kicked, verdict)

	// slash notice comes first, then the kick with what is left
	require.Len(t, pool.calls, 2)
	assert.Equal(t, "slash", pool.calls[0].name)
	assert.Equal(t, big.NewInt(100), pool.calls[0].amount)
	assert.Equal(t, "kick", pool.calls[1].name)
	assert.Equal(t, big.NewInt(900), pool.calls[1].amount)
	assert.Equal(t, big.NewInt(100), pool.calls[1].earnings)

	assert.Equal(t, int64(1_000_000), env.balance(t, dave))
	bal, _ := env.sp.Balance(t0 + 100)
	assert.Equal(t, big.NewInt(10_000), bal)

	stake, _ := env.sp.StakeOf(dave)
	assert.Equal(t, 0, stake.Sign())
	names := events.Names(env.st.Events())
	assert.Less(t, slices.Index(names, events.Flagged), slices.Index(names, events.Slashed))
	assert.Less(t, slices.Index(names, events.Slashed), slices.Index(names, events.Kicked))
}

func newVoteKickEnv(t *testing.T) *testEnv {
	cfg := defaultConfig()
	cfg.Policies.Kick = policy.Config{Name: policy.VoteKick, Param: big.NewInt(50)}
	env := newTestEnv(t, cfg)
	require.NoError(t, env.sp.Sponsor(t0, sponsor, big.NewInt(10_000)))
	require.NoError(t, env.sp.Stake(t0, alice, big.NewInt(100)))
	require.NoError(t, env.sp.Stake(t0, bob, big.NewInt(100)))
	require.NoError(t, env.sp.Stake(t0, carol, big.NewInt(100)))
	require.NoError(t, env.sp.Stake(t0, dave, big.NewInt(100)))
	return env
}

func TestVoteKick(t *testing.T) {
	env := newVoteKickEnv(t)

	verdict, err := env.sp.Flag(t0+10, alice, dave)
	require.NoError(t, err)
	assert.Equal(t, policy.Pending, verdict)

	f, err := env.sp.FlagOf(dave)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(200), f.EligibleStake)

	_, err = env.sp.Flag(t0+10, bob, dave)
	assert.Equal(t, "already_flagged", reverts.Reason(err))

	// the flagged staker cannot run away
	_, _, err = env.sp.Leave(t0+11, dave)
	assert.Equal(t, "flagged", reverts.Reason(err))

	_, err = env.sp.Vote(t0+12, alice, dave, true)
	assert.True(t, reverts.Is(err, reverts.AccessDenied))
	_, err = env.sp.Vote(t0+12, sponsor, dave, true)
	assert.True(t, reverts.Is(err, reverts.AccessDenied))

	verdict, err = env.sp.Vote(t0+12, bob, dave, true)
	require.NoError(t, err)
	assert.Equal(t, policy.Pending, verdict)
	_, err = env.sp.Vote(t0+13, bob, dave, true)
	assert.Equal(t, "already_voted", reverts.Reason(err))

	verdict, err = env.sp.Vote(t0+14, carol, dave, true)
	require.NoError(t, err)
	assert.Equal(t, policy.Kicked, verdict)

	slashed := events.Filter(env.st.Events(), events.Slashed)
	require.Len(t, slashed, 1)
	assert.Equal(t, big.NewInt(50), slashed[0].Amount)

	f, _ = env.sp.FlagOf(dave)
	assert.True(t, f.IsEmpty())
	stakers, _ := env.sp.Stakers()
	assert.Len(t, stakers, 3)
}

func TestVoteKickDismissed(t *testing.T) {
	env := newVoteKickEnv(t)

	_, err := env.sp.Flag(t0+10, alice, dave)
	require.NoError(t, err)
	verdict, err := env.sp.Vote(t0+11, bob, dave, true)
	require.NoError(t, err)
	assert.Equal(t, policy.Pending, verdict)
	verdict, err = env.sp.Vote(t0+12, carol, dave, false)
	require.NoError(t, err)
	assert.Equal(t, policy.Dismissed, verdict)

	assert.Len(t, events.Filter(env.st.Events(), events.FlagDismissed), 1)
	assert.Empty(t, events.Filter(env.st.Events(), events.Kicked))

	// once dismissed, the staker is free to go and may be flagged again
	_, err = env.sp.Flag(t0+13, bob, dave)
	require.NoError(t, err)
	_, err = env.sp.Vote(t0+14, carol, dave, true)
	require.NoError(t, err)
}

func TestKickingDisabled(t *testing.T) {
	cfg := defaultConfig()
	cfg.Policies.Kick = policy.Config{}
	env := newTestEnv(t, cfg)
	require.NoError(t, env.sp.Stake(t0, alice, big.NewInt(100)))

	_, err := env.sp.Flag(t0, owner, alice)
	assert.Equal(t, "kicking_disabled", reverts.Reason(err))
}
