// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package sponsorships

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/incentives/api/utils"
	"github.com/vechain/incentives/builtin/sponsorship"
	"github.com/vechain/incentives/engine"
	"github.com/vechain/incentives/thor"
)

type Sponsorships struct {
	engine *engine.Engine
}

func New(e *engine.Engine) *Sponsorships {
	return &Sponsorships{e}
}

func (s *Sponsorships) lookup(r *http.Request) (*sponsorship.Sponsorship, error) {
	addr, err := utils.AddressVar(r, "address")
	if err != nil {
		return nil, err
	}
	sp, err := s.engine.Sponsorship(addr)
	if err != nil {
		return nil, utils.NotFound(errors.New("sponsorship not found"))
	}
	return sp, nil
}

func (s *Sponsorships) handleList(w http.ResponseWriter, _ *http.Request) error {
	var addrs []thor.Address
	if err := s.engine.View(func(uint64) (err error) {
		addrs, err = s.engine.Sponsorships()
		return
	}); err != nil {
		return err
	}
	if addrs == nil {
		addrs = []thor.Address{}
	}
	return utils.WriteJSON(w, addrs)
}

func (s *Sponsorships) handleGet(w http.ResponseWriter, r *http.Request) error {
	var out *Sponsorship
	if err := s.engine.View(func(now uint64) error {
		sp, err := s.lookup(r)
		if err != nil {
			return err
		}
		g, err := sp.Globals(now)
		if err != nil {
			return err
		}
		totals, err := sp.Totals()
		if err != nil {
			return err
		}
		running, err := sp.IsRunning()
		if err != nil {
			return err
		}
		out = convertSponsorship(sp, g, totals, running)
		return nil
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, out)
}

func (s *Sponsorships) staker(now uint64, sp *sponsorship.Sponsorship, addr thor.Address) (*Staker, error) {
	p, err := sp.Position(addr)
	if err != nil {
		return nil, err
	}
	alloc, err := sp.AllocationOf(now, addr)
	if err != nil {
		return nil, err
	}
	return &Staker{Address: addr, Stake: hex(p.Stake), JoinedAt: p.JoinedAt, Allocation: hex(alloc)}, nil
}

func (s *Sponsorships) handleStakers(w http.ResponseWriter, r *http.Request) error {
	out := []*Staker{}
	if err := s.engine.View(func(now uint64) error {
		sp, err := s.lookup(r)
		if err != nil {
			return err
		}
		addrs, err := sp.Stakers()
		if err != nil {
			return err
		}
		for _, addr := range addrs {
			st, err := s.staker(now, sp, addr)
			if err != nil {
				return err
			}
			out = append(out, st)
		}
		return nil
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, out)
}

func (s *Sponsorships) handleStaker(w http.ResponseWriter, r *http.Request) error {
	staker, err := utils.AddressVar(r, "staker")
	if err != nil {
		return err
	}
	var out *Staker
	if err := s.engine.View(func(now uint64) error {
		sp, err := s.lookup(r)
		if err != nil {
			return err
		}
		out, err = s.staker(now, sp, staker)
		return err
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, out)
}

func (s *Sponsorships) handleFlag(w http.ResponseWriter, r *http.Request) error {
	target, err := utils.AddressVar(r, "target")
	if err != nil {
		return err
	}
	var out *Flag
	if err := s.engine.View(func(uint64) error {
		sp, err := s.lookup(r)
		if err != nil {
			return err
		}
		f, err := sp.FlagOf(target)
		if err != nil {
			return err
		}
		if f.IsEmpty() {
			return utils.NotFound(errors.New("no open flag"))
		}
		out = &Flag{
			Target:        target,
			Flagger:       f.Flagger,
			FlaggedAt:     f.FlaggedAt,
			VotesFor:      hex(f.VotesFor),
			VotesAgainst:  hex(f.VotesAgainst),
			EligibleStake: hex(f.EligibleStake),
		}
		return nil
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, out)
}

func (s *Sponsorships) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodGet).
		Name("sponsorships_list").
		HandlerFunc(utils.WrapHandlerFunc(s.handleList))
	sub.Path("/{address}").
		Methods(http.MethodGet).
		Name("sponsorships_get").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGet))
	sub.Path("/{address}/stakers").
		Methods(http.MethodGet).
		Name("sponsorships_stakers").
		HandlerFunc(utils.WrapHandlerFunc(s.handleStakers))
	sub.Path("/{address}/stakers/{staker}").
		Methods(http.MethodGet).
		Name("sponsorships_get_staker").
		HandlerFunc(utils.WrapHandlerFunc(s.handleStaker))
	sub.Path("/{address}/flags/{target}").
		Methods(http.MethodGet).
		Name("sponsorships_get_flag").
		HandlerFunc(utils.WrapHandlerFunc(s.handleFlag))
}
