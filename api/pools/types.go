// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pools

import (
	"github.com/ethereum/go-ethereum/common/math"

	"github.com/vechain/incentives/thor"
)

type Config struct {
	MinOperatorStakePercent   uint64 `json:"minOperatorStakePercent"`
	MaintenanceMarginPercent  uint64 `json:"maintenanceMarginPercent"`
	OperatorSharePercent      uint64 `json:"operatorSharePercent"`
	MaxDivertPercent          uint64 `json:"maxDivertPercent"`
	MaxQueueSeconds           uint64 `json:"maxQueueSeconds"`
	StalenessThresholdPercent uint64 `json:"stalenessThresholdPercent"`
	StalenessFeePercent       uint64 `json:"stalenessFeePercent"`
	MaxSponsorships           uint64 `json:"maxSponsorships"`
}

type Stake struct {
	Sponsorship thor.Address          `json:"sponsorship"`
	Staked      *math.HexOrDecimal256 `json:"staked"`
}

// Pool is an operator pool as seen at the time of the request.
type Pool struct {
	Address          thor.Address          `json:"address"`
	Operator         thor.Address          `json:"operator"`
	Config           Config                `json:"config"`
	TotalSupply      *math.HexOrDecimal256 `json:"totalSupply"`
	OperatorShares   *math.HexOrDecimal256 `json:"operatorShares"`
	Liquid           *math.HexOrDecimal256 `json:"liquid"`
	ApproximateValue *math.HexOrDecimal256 `json:"approximateValue"`
	RealValue        *math.HexOrDecimal256 `json:"realValue,omitempty"`
	QueueLength      uint64                `json:"queueLength"`
	Stakes           []*Stake              `json:"stakes"`
}

type Delegator struct {
	Address thor.Address          `json:"address"`
	Shares  *math.HexOrDecimal256 `json:"shares"`
	Value   *math.HexOrDecimal256 `json:"value"`
}

type QueueEntry struct {
	Delegator   thor.Address          `json:"delegator"`
	PoolShares  *math.HexOrDecimal256 `json:"poolShares"`
	RequestedAt uint64                `json:"requestedAt"`
}
