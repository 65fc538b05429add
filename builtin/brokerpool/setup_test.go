// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package brokerpool

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vechain/incentives/builtin/policy"
	"github.com/vechain/incentives/builtin/sponsorship"
	"github.com/vechain/incentives/builtin/token"
	"github.com/vechain/incentives/state"
	"github.com/vechain/incentives/thor"
)

const t0 = uint64(1_000_000)

var (
	tokenAddr = thor.BytesToAddress([]byte("token"))
	poolAddr  = thor.BytesToAddress([]byte("pool"))
	spAddr    = thor.BytesToAddress([]byte("sponsorship"))
	spAddr2   = thor.BytesToAddress([]byte("sponsorship-2"))
	owner     = thor.BytesToAddress([]byte("owner"))
	sponsor   = thor.BytesToAddress([]byte("sponsor"))
	operator  = thor.BytesToAddress([]byte("operator"))
	alice     = thor.BytesToAddress([]byte("alice"))
	bob       = thor.BytesToAddress([]byte("bob"))
)

func ether(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1e18))
}

func bigString(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("bad number " + s)
	}
	return v
}

// registry wires sponsorships and pools to each other the way the engine does.
type registry struct {
	sps   map[thor.Address]*sponsorship.Sponsorship
	pools map[thor.Address]*Pool
}

func (r *registry) Sponsorship(addr thor.Address) (Sponsorship, bool) {
	sp, ok := r.sps[addr]
	if !ok {
		return nil, false
	}
	return sp, true
}

func (r *registry) IsOperatorPool(addr thor.Address) bool {
	_, ok := r.pools[addr]
	return ok
}

func (r *registry) StakeListener(addr thor.Address) sponsorship.StakeListener {
	if p, ok := r.pools[addr]; ok {
		return p
	}
	return nil
}

type testEnv struct {
	st    *state.State
	token *token.Token
	reg   *registry
	pool  *Pool
}

func defaultConfig() *Config {
	return &Config{
		Operator:        operator,
		MaxQueueSeconds: 3600,
	}
}

func newTestEnv(t *testing.T, cfg *Config) *testEnv {
	st := state.NewMem()
	tk := token.New(tokenAddr, st)
	for _, addr := range []thor.Address{sponsor, operator, alice, bob} {
		require.NoError(t, tk.Mint(0, addr, ether(1_000_000)))
	}
	reg := &registry{
		sps:   make(map[thor.Address]*sponsorship.Sponsorship),
		pools: make(map[thor.Address]*Pool),
	}
	pool, err := New(poolAddr, st, tk, reg, cfg)
	require.NoError(t, err)
	reg.pools[poolAddr] = pool
	tk.Register(poolAddr, pool)
	return &testEnv{st: st, token: tk, reg: reg, pool: pool}
}

// addSponsorship creates a sponsorship paying one token per second, funded with funds.
func (e *testEnv) addSponsorship(t *testing.T, addr thor.Address, funds *big.Int) *sponsorship.Sponsorship {
	sp, err := sponsorship.New(t0, addr, e.st, e.token, e.reg, &sponsorship.Config{
		Owner:            owner,
		MinimumStake:     big.NewInt(1),
		MinOperatorCount: 1,
		Policies: policy.Configs{
			Allocation: policy.Config{Name: policy.StakeWeighted, Param: ether(1)},
			Leave:      policy.Config{Name: policy.DefaultLeave, Param: big.NewInt(0)},
			Kick:       policy.Config{Name: policy.AdminKick, Param: big.NewInt(10)},
		},
	})
	require.NoError(t, err)
	e.reg.sps[addr] = sp
	e.token.Register(addr, sp)
	if funds.Sign() > 0 {
		require.NoError(t, sp.Sponsor(t0, sponsor, funds))
	}
	return sp
}

func (e *testEnv) balance(t *testing.T, addr thor.Address) *big.Int {
	bal, err := e.token.BalanceOf(addr)
	require.NoError(t, err)
	return new(big.Int).Set(bal)
}

func (e *testEnv) shares(t *testing.T, addr thor.Address) *big.Int {
	v, err := e.pool.SharesOf(addr)
	require.NoError(t, err)
	return v
}

func (e *testEnv) invest(t *testing.T, who thor.Address, amount *big.Int) {
	_, err := e.pool.Invest(t0, who, amount)
	require.NoError(t, err)
}
