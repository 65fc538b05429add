// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package sponsorship

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vechain/incentives/builtin/policy"
	"github.com/vechain/incentives/builtin/token"
	"github.com/vechain/incentives/state"
	"github.com/vechain/incentives/thor"
)

const t0 = uint64(1_000_000)

var (
	tokenAddr       = thor.BytesToAddress([]byte("token"))
	sponsorshipAddr = thor.BytesToAddress([]byte("sponsorship"))
	owner           = thor.BytesToAddress([]byte("owner"))
	sponsor         = thor.BytesToAddress([]byte("sponsor"))
	alice           = thor.BytesToAddress([]byte("alice"))
	bob             = thor.BytesToAddress([]byte("bob"))
	carol           = thor.BytesToAddress([]byte("carol"))
	dave            = thor.BytesToAddress([]byte("dave"))
)

type listenerCall struct {
	name     string
	amount   *big.Int
	earnings *big.Int
}

type fakeListener struct {
	calls []listenerCall
}

func (l *fakeListener) OnSlash(_ uint64, _ thor.Address, amount *big.Int) error {
	l.calls = append(l.calls, listenerCall{name: "slash", amount: amount})
	return nil
}

func (l *fakeListener) OnKick(_ uint64, _ thor.Address, returned, earnings *big.Int) error {
	l.calls = append(l.calls, listenerCall{name: "kick", amount: returned, earnings: earnings})
	return nil
}

type fakeDirectory struct {
	pools map[thor.Address]*fakeListener
}

func (d *fakeDirectory) IsOperatorPool(addr thor.Address) bool {
	_, ok := d.pools[addr]
	return ok
}

func (d *fakeDirectory) StakeListener(addr thor.Address) StakeListener {
	if l, ok := d.pools[addr]; ok {
		return l
	}
	return nil
}

type testEnv struct {
	st    *state.State
	token *token.Token
	dir   *fakeDirectory
	sp    *Sponsorship
}

func defaultConfig() *Config {
	return &Config{
		Owner:            owner,
		MinimumStake:     big.NewInt(10),
		MinOperatorCount: 1,
		Policies: policy.Configs{
			Allocation: policy.Config{Name: policy.StakeWeighted, Param: big.NewInt(1)},
			Leave:      policy.Config{Name: policy.DefaultLeave, Param: big.NewInt(0)},
			Kick:       policy.Config{Name: policy.AdminKick, Param: big.NewInt(10)},
		},
	}
}

// newTestEnv creates a sponsorship at t0 and mints every participant 1m tokens.
func newTestEnv(t *testing.T, cfg *Config) *testEnv {
	st := state.NewMem()
	tk := newTestToken(t, st)
	dir := &fakeDirectory{pools: make(map[thor.Address]*fakeListener)}
	sp, err := New(t0, sponsorshipAddr, st, tk, dir, cfg)
	require.NoError(t, err)
	tk.Register(sponsorshipAddr, sp)
	return &testEnv{st: st, token: tk, dir: dir, sp: sp}
}

func newTestToken(t *testing.T, st *state.State) *token.Token {
	tk := token.New(tokenAddr, st)
	for _, addr := range []thor.Address{sponsor, alice, bob, carol, dave, owner} {
		require.NoError(t, tk.Mint(0, addr, big.NewInt(1_000_000)))
	}
	return tk
}

func (e *testEnv) balance(t *testing.T, addr thor.Address) int64 {
	bal, err := e.token.BalanceOf(addr)
	require.NoError(t, err)
	return bal.Int64()
}

func (e *testEnv) allocationOf(t *testing.T, now uint64, addr thor.Address) int64 {
	v, err := e.sp.AllocationOf(now, addr)
	require.NoError(t, err)
	return v.Int64()
}
