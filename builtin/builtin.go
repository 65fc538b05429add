// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package builtin holds the well-known addresses of the built-in contracts.
package builtin

import (
	"github.com/vechain/incentives/builtin/token"
	"github.com/vechain/incentives/state"
	"github.com/vechain/incentives/thor"
)

// Built-in contract addresses.
var (
	TokenAddress   = thor.BytesToAddress([]byte("Token"))
	FactoryAddress = thor.BytesToAddress([]byte("Factory"))
)

// Token binds the staking token to state.
func Token(st *state.State) *token.Token {
	return token.New(TokenAddress, st)
}
