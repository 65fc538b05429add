// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package engine

import (
	"github.com/vechain/incentives/builtin"
	"github.com/vechain/incentives/builtin/brokerpool"
	"github.com/vechain/incentives/builtin/solidity"
	"github.com/vechain/incentives/builtin/sponsorship"
	"github.com/vechain/incentives/state"
	"github.com/vechain/incentives/thor"
)

var (
	slotNonce        = thor.Slot("nonce")
	slotSponsorships = thor.Slot("sponsorships")
	slotPools        = thor.Slot("pools")
)

// factory derives contract addresses from its own address and a nonce, and records what it created.
type factory struct {
	sctx         *solidity.Context
	nonce        *solidity.Raw[uint64]
	sponsorships *solidity.AddressSet
	pools        *solidity.AddressSet
}

func newFactory(st *state.State) *factory {
	sctx := solidity.NewContext(builtin.FactoryAddress, st)
	return &factory{
		sctx:         sctx,
		nonce:        solidity.NewRaw[uint64](sctx, slotNonce),
		sponsorships: solidity.NewAddressSet(sctx, slotSponsorships),
		pools:        solidity.NewAddressSet(sctx, slotPools),
	}
}

// next reserves a fresh address and records it in set.
func (f *factory) next(set *solidity.AddressSet) (thor.Address, error) {
	nonce, err := f.nonce.Get()
	if err != nil {
		return thor.Address{}, err
	}
	if err := f.nonce.Set(nonce + 1); err != nil {
		return thor.Address{}, err
	}
	addr := thor.CreateContractAddress(builtin.FactoryAddress, nonce)
	if _, err := set.Add(addr); err != nil {
		return thor.Address{}, err
	}
	return addr, nil
}

// directory routes lookups between the contracts of an engine.
type directory struct {
	e *Engine
}

var (
	_ sponsorship.Directory = (*directory)(nil)
	_ brokerpool.Registry   = (*directory)(nil)
)

func (d *directory) IsOperatorPool(addr thor.Address) bool {
	_, ok := d.e.pools[addr]
	return ok
}

func (d *directory) StakeListener(addr thor.Address) sponsorship.StakeListener {
	if p, ok := d.e.pools[addr]; ok {
		return p
	}
	return nil
}

func (d *directory) Sponsorship(addr thor.Address) (brokerpool.Sponsorship, bool) {
	sp, ok := d.e.sponsorships[addr]
	if !ok {
		return nil, false
	}
	return sp, true
}
