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

	"github.com/vechain/incentives/builtin/reverts"
	"github.com/vechain/incentives/thor"
)

func TestBuild(t *testing.T) {
	set, err := Build(Configs{
		Allocation: Config{Name: StakeWeighted, Param: big.NewInt(5)},
		Leave:      Config{Name: DefaultLeave, Param: big.NewInt(3600)},
		Kick:       Config{Name: VoteKick, Param: big.NewInt(10)},
		Join: []Config{
			{Name: MaxOperatorsJoin, Param: big.NewInt(2)},
			{Name: OperatorPoolOnly},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(5), set.Allocation.Rate())
	assert.Equal(t, uint64(3600), set.Leave.PenaltyPeriod())
	assert.True(t, set.Kick.Voting())
	assert.Len(t, set.Join, 2)

	set, err = Build(Configs{Allocation: Config{Name: StakeWeighted, Param: big.NewInt(1)}})
	require.NoError(t, err)
	assert.Nil(t, set.Leave)
	assert.Nil(t, set.Kick)
}

func TestBuildRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name   string
		cfgs   Configs
		reason string
	}{
		{"missing allocation", Configs{}, "allocation_policy_required"},
		{"zero rate", Configs{Allocation: Config{Name: StakeWeighted, Param: big.NewInt(0)}}, "allocation_rate_not_positive"},
		{"nil rate", Configs{Allocation: Config{Name: StakeWeighted}}, "allocation_rate_not_positive"},
		{"long penalty", Configs{
			Allocation: Config{Name: StakeWeighted, Param: big.NewInt(1)},
			Leave:      Config{Name: DefaultLeave, Param: big.NewInt(MaxPenaltyPeriodSeconds + 1)},
		}, "penalty_period_too_long"},
		{"slash over 100", Configs{
			Allocation: Config{Name: StakeWeighted, Param: big.NewInt(1)},
			Kick:       Config{Name: AdminKick, Param: big.NewInt(101)},
		}, "slash_percent_out_of_range"},
		{"zero max operators", Configs{
			Allocation: Config{Name: StakeWeighted, Param: big.NewInt(1)},
			Join:       []Config{{Name: MaxOperatorsJoin, Param: big.NewInt(0)}},
		}, "max_operators_not_positive"},
		{"unknown join", Configs{
			Allocation: Config{Name: StakeWeighted, Param: big.NewInt(1)},
			Join:       []Config{{Name: "Nope"}},
		}, "unknown_join_policy_Nope"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(tt.cfgs)
			assert.True(t, reverts.Is(err, reverts.Configuration))
			assert.Equal(t, tt.reason, reverts.Reason(err))
		})
	}

	_, err := NewLeave(Config{Name: DefaultLeave, Param: big.NewInt(MaxPenaltyPeriodSeconds)})
	assert.NoError(t, err)
}

func TestDefaultLeavePenalty(t *testing.T) {
	l, err := NewLeave(Config{Name: DefaultLeave, Param: big.NewInt(100)})
	require.NoError(t, err)

	p := NewPosition(1000, new(big.Int))
	p.Stake = big.NewInt(500)

	assert.Equal(t, big.NewInt(500), l.Penalty(p, 1099, true))
	assert.Equal(t, 0, l.Penalty(p, 1100, true).Sign())
	assert.Equal(t, 0, l.Penalty(p, 1050, false).Sign())
}

func TestAdminKick(t *testing.T) {
	k, err := NewKick(Config{Name: AdminKick, Param: big.NewInt(25)})
	require.NoError(t, err)
	owner := thor.BytesToAddress([]byte("owner"))
	target := thor.BytesToAddress([]byte("target"))

	req := &FlagRequest{Flagger: owner, Target: target, Owner: owner, TargetStaked: true, EligibleStake: new(big.Int)}
	assert.NoError(t, k.AuthorizeFlag(req))
	req.Flagger = target
	assert.True(t, reverts.Is(k.AuthorizeFlag(req), reverts.AccessDenied))

	assert.False(t, k.Voting())
	assert.Equal(t, Kicked, k.Decide(nil))
	assert.Equal(t, big.NewInt(250), k.SlashAmount(big.NewInt(1000)))
}

func TestVoteKick(t *testing.T) {
	k, err := NewKick(Config{Name: VoteKick, Param: big.NewInt(10)})
	require.NoError(t, err)
	a := thor.BytesToAddress([]byte("a"))
	b := thor.BytesToAddress([]byte("b"))

	req := &FlagRequest{Flagger: a, Target: b, FlaggerStaked: true, TargetStaked: true, EligibleStake: big.NewInt(300)}
	assert.NoError(t, k.AuthorizeFlag(req))

	req.Target = a
	assert.True(t, reverts.Is(k.AuthorizeFlag(req), reverts.InvalidArgument))
	req.Target = b
	req.FlaggerStaked = false
	assert.True(t, reverts.Is(k.AuthorizeFlag(req), reverts.AccessDenied))
	req.FlaggerStaked = true
	req.EligibleStake = new(big.Int)
	assert.True(t, reverts.Is(k.AuthorizeFlag(req), reverts.PolicyRejection))

	tally := &Tally{VotesFor: big.NewInt(150), VotesAgainst: new(big.Int), EligibleStake: big.NewInt(300)}
	assert.Equal(t, Pending, k.Decide(tally))
	tally.VotesFor = big.NewInt(151)
	assert.Equal(t, Kicked, k.Decide(tally))
	tally.VotesFor = big.NewInt(100)
	tally.VotesAgainst = big.NewInt(150)
	assert.Equal(t, Dismissed, k.Decide(tally))
	assert.Equal(t, "dismissed", Dismissed.String())

	assert.Equal(t, big.NewInt(99), k.SlashAmount(big.NewInt(999)))
}

func TestJoinPolicies(t *testing.T) {
	maxJoin, err := NewJoin(Config{Name: MaxOperatorsJoin, Param: big.NewInt(2)})
	require.NoError(t, err)
	assert.NoError(t, maxJoin.OnJoin(&JoinRequest{StakerCount: 1}))
	assert.True(t, reverts.Is(maxJoin.OnJoin(&JoinRequest{StakerCount: 2}), reverts.PolicyRejection))

	only, err := NewJoin(Config{Name: OperatorPoolOnly})
	require.NoError(t, err)
	assert.NoError(t, only.OnJoin(&JoinRequest{IsOperatorPool: true}))
	assert.Equal(t, "only_operator_pools", reverts.Reason(only.OnJoin(&JoinRequest{})))
}
