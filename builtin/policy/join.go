// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package policy

import (
	"github.com/vechain/incentives/builtin/reverts"
	"github.com/vechain/incentives/thor"
)

// JoinRequest describes a staker about to open a position.
type JoinRequest struct {
	Staker         thor.Address
	StakerCount    uint64 // stakers before the join
	IsOperatorPool bool
}

// Join decides who may open a position.
type Join interface {
	OnJoin(req *JoinRequest) error
}

type maxOperators struct {
	max uint64
}

func (j *maxOperators) OnJoin(req *JoinRequest) error {
	if req.StakerCount >= j.max {
		return reverts.New(reverts.PolicyRejection, "max_operators_reached")
	}
	return nil
}

type operatorPoolOnly struct{}

func (operatorPoolOnly) OnJoin(req *JoinRequest) error {
	if !req.IsOperatorPool {
		return reverts.New(reverts.PolicyRejection, "only_operator_pools")
	}
	return nil
}
