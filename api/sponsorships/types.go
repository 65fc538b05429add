// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package sponsorships

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common/math"

	"github.com/vechain/incentives/builtin/policy"
	"github.com/vechain/incentives/builtin/sponsorship"
	"github.com/vechain/incentives/thor"
)

type Policy struct {
	Name  string                `json:"name"`
	Param *math.HexOrDecimal256 `json:"param,omitempty"`
}

type Policies struct {
	Allocation *Policy  `json:"allocation"`
	Leave      *Policy  `json:"leave,omitempty"`
	Kick       *Policy  `json:"kick,omitempty"`
	Join       []Policy `json:"join"`
}

type Totals struct {
	Sponsored *math.HexOrDecimal256 `json:"sponsored"`
	Forfeited *math.HexOrDecimal256 `json:"forfeited"`
	StakedIn  *math.HexOrDecimal256 `json:"stakedIn"`
	Returned  *math.HexOrDecimal256 `json:"returned"`
	PaidOut   *math.HexOrDecimal256 `json:"paidOut"`
}

// Sponsorship is a sponsorship as seen at the time of the request.
type Sponsorship struct {
	Address          thor.Address          `json:"address"`
	Owner            thor.Address          `json:"owner"`
	MinimumStake     *math.HexOrDecimal256 `json:"minimumStake"`
	MinOperatorCount uint64                `json:"minOperatorCount"`
	Policies         Policies              `json:"policies"`
	Running          bool                  `json:"running"`
	Balance          *math.HexOrDecimal256 `json:"balance"`
	TotalStaked      *math.HexOrDecimal256 `json:"totalStaked"`
	StakerCount      uint64                `json:"stakerCount"`
	Insolvent        bool                  `json:"insolvent"`
	InsolventSince   uint64                `json:"insolventSince,omitempty"`
	Totals           Totals                `json:"totals"`
}

type Staker struct {
	Address    thor.Address          `json:"address"`
	Stake      *math.HexOrDecimal256 `json:"stake"`
	JoinedAt   uint64                `json:"joinedAt"`
	Allocation *math.HexOrDecimal256 `json:"allocation"`
}

type Flag struct {
	Target        thor.Address          `json:"target"`
	Flagger       thor.Address          `json:"flagger"`
	FlaggedAt     uint64                `json:"flaggedAt"`
	VotesFor      *math.HexOrDecimal256 `json:"votesFor"`
	VotesAgainst  *math.HexOrDecimal256 `json:"votesAgainst"`
	EligibleStake *math.HexOrDecimal256 `json:"eligibleStake"`
}

func hex(v *big.Int) *math.HexOrDecimal256 {
	return (*math.HexOrDecimal256)(v)
}

func convertPolicy(c policy.Config) *Policy {
	if c.IsEmpty() {
		return nil
	}
	return &Policy{Name: c.Name, Param: hex(c.Param)}
}

func convertSponsorship(sp *sponsorship.Sponsorship, g *policy.Globals, t *sponsorship.Totals, running bool) *Sponsorship {
	cfg := sp.Config()
	out := &Sponsorship{
		Address:          sp.Address(),
		Owner:            cfg.Owner,
		MinimumStake:     hex(cfg.MinimumStake),
		MinOperatorCount: cfg.MinOperatorCount,
		Policies: Policies{
			Allocation: convertPolicy(cfg.Policies.Allocation),
			Leave:      convertPolicy(cfg.Policies.Leave),
			Kick:       convertPolicy(cfg.Policies.Kick),
			Join:       make([]Policy, 0, len(cfg.Policies.Join)),
		},
		Running:        running,
		Balance:        hex(g.Balance),
		TotalStaked:    hex(g.TotalStaked),
		StakerCount:    g.StakerCount,
		Insolvent:      g.Insolvent,
		InsolventSince: g.InsolventSince,
		Totals: Totals{
			Sponsored: hex(t.Sponsored),
			Forfeited: hex(t.Forfeited),
			StakedIn:  hex(t.StakedIn),
			Returned:  hex(t.Returned),
			PaidOut:   hex(t.PaidOut),
		},
	}
	for _, j := range cfg.Policies.Join {
		out.Policies.Join = append(out.Policies.Join, *convertPolicy(j))
	}
	return out
}
