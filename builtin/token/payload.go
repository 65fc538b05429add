// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package token

import (
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/vechain/incentives/builtin/reverts"
	"github.com/vechain/incentives/thor"
)

// Action tells a receiver what to do with the tokens it was sent.
type Action uint8

const (
	ActionNone Action = iota
	ActionSponsor
	ActionStakeFor
	ActionInvest
)

func (a Action) String() string {
	switch a {
	case ActionSponsor:
		return "sponsor"
	case ActionStakeFor:
		return "stakeFor"
	case ActionInvest:
		return "invest"
	default:
		return "none"
	}
}

// Payload is the data attached to TransferAndNotify.
type Payload struct {
	Action Action
	Target thor.Address
}

func EncodePayload(action Action, target thor.Address) []byte {
	data, _ := rlp.EncodeToBytes(&Payload{Action: action, Target: target})
	return data
}

// DecodePayload decodes the data of a transfer. Empty data decodes to ActionNone,
// leaving the receiver to apply its default action.
func DecodePayload(data []byte) (*Payload, error) {
	var p Payload
	if len(data) == 0 {
		return &p, nil
	}
	if err := rlp.DecodeBytes(data, &p); err != nil {
		return nil, reverts.New(reverts.InvalidArgument, "malformed_payload")
	}
	return &p, nil
}
