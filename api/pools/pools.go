// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pools

import (
	"math/big"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/incentives/api/utils"
	"github.com/vechain/incentives/builtin/brokerpool"
	"github.com/vechain/incentives/engine"
	"github.com/vechain/incentives/thor"
)

type Pools struct {
	engine *engine.Engine
}

func New(e *engine.Engine) *Pools {
	return &Pools{e}
}

func hex(v *big.Int) *math.HexOrDecimal256 {
	return (*math.HexOrDecimal256)(v)
}

func (p *Pools) lookup(r *http.Request) (*brokerpool.Pool, error) {
	addr, err := utils.AddressVar(r, "address")
	if err != nil {
		return nil, err
	}
	pool, err := p.engine.Pool(addr)
	if err != nil {
		return nil, utils.NotFound(errors.New("pool not found"))
	}
	return pool, nil
}

func (p *Pools) handleList(w http.ResponseWriter, _ *http.Request) error {
	var addrs []thor.Address
	if err := p.engine.View(func(uint64) (err error) {
		addrs, err = p.engine.Pools()
		return
	}); err != nil {
		return err
	}
	if addrs == nil {
		addrs = []thor.Address{}
	}
	return utils.WriteJSON(w, addrs)
}

// handleGet reports the pool. With real=true it also sums the live value of every stake.
func (p *Pools) handleGet(w http.ResponseWriter, r *http.Request) error {
	withReal := false
	if s := r.URL.Query().Get("real"); s != "" {
		v, err := strconv.ParseBool(s)
		if err != nil {
			return utils.BadRequest(errors.WithMessage(err, "real"))
		}
		withReal = v
	}

	var out *Pool
	if err := p.engine.View(func(now uint64) error {
		pool, err := p.lookup(r)
		if err != nil {
			return err
		}
		out, err = convertPool(now, pool, withReal)
		return err
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, out)
}

func convertPool(now uint64, pool *brokerpool.Pool, withReal bool) (*Pool, error) {
	cfg := pool.Config()
	operator, supply, err := pool.OperatorFraction()
	if err != nil {
		return nil, err
	}
	liquid, err := pool.Liquid()
	if err != nil {
		return nil, err
	}
	approx, err := pool.ApproximateValue()
	if err != nil {
		return nil, err
	}
	n, err := pool.QueueLength()
	if err != nil {
		return nil, err
	}
	out := &Pool{
		Address:  pool.Address(),
		Operator: cfg.Operator,
		Config: Config{
			MinOperatorStakePercent:   cfg.MinOperatorStakePercent,
			MaintenanceMarginPercent:  cfg.MaintenanceMarginPercent,
			OperatorSharePercent:      cfg.OperatorSharePercent,
			MaxDivertPercent:          cfg.MaxDivertPercent,
			MaxQueueSeconds:           cfg.MaxQueueSeconds,
			StalenessThresholdPercent: cfg.StalenessThresholdPercent,
			StalenessFeePercent:       cfg.StalenessFeePercent,
			MaxSponsorships:           cfg.MaxSponsorships,
		},
		TotalSupply:      hex(supply),
		OperatorShares:   hex(operator),
		Liquid:           hex(liquid),
		ApproximateValue: hex(approx),
		QueueLength:      n,
		Stakes:           []*Stake{},
	}
	if withReal {
		v, err := pool.RealValue(now)
		if err != nil {
			return nil, err
		}
		out.RealValue = hex(v)
	}
	sps, err := pool.StakedInto()
	if err != nil {
		return nil, err
	}
	for _, sp := range sps {
		staked, err := pool.StakedIn(sp)
		if err != nil {
			return nil, err
		}
		out.Stakes = append(out.Stakes, &Stake{Sponsorship: sp, Staked: hex(staked)})
	}
	return out, nil
}

func (p *Pools) handleDelegator(w http.ResponseWriter, r *http.Request) error {
	delegator, err := utils.AddressVar(r, "delegator")
	if err != nil {
		return err
	}
	var out *Delegator
	if err := p.engine.View(func(uint64) error {
		pool, err := p.lookup(r)
		if err != nil {
			return err
		}
		shares, err := pool.SharesOf(delegator)
		if err != nil {
			return err
		}
		value, err := pool.ValueOf(shares)
		if err != nil {
			return err
		}
		out = &Delegator{Address: delegator, Shares: hex(shares), Value: hex(value)}
		return nil
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, out)
}

func (p *Pools) handleQueue(w http.ResponseWriter, r *http.Request) error {
	out := []*QueueEntry{}
	if err := p.engine.View(func(uint64) error {
		pool, err := p.lookup(r)
		if err != nil {
			return err
		}
		entries, err := pool.Queue()
		if err != nil {
			return err
		}
		for _, e := range entries {
			out = append(out, &QueueEntry{
				Delegator:   e.Delegator,
				PoolShares:  hex(e.PoolShares),
				RequestedAt: e.RequestedAt,
			})
		}
		return nil
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, out)
}

func (p *Pools) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodGet).
		Name("pools_list").
		HandlerFunc(utils.WrapHandlerFunc(p.handleList))
	sub.Path("/{address}").
		Methods(http.MethodGet).
		Name("pools_get").
		HandlerFunc(utils.WrapHandlerFunc(p.handleGet))
	sub.Path("/{address}/delegators/{delegator}").
		Methods(http.MethodGet).
		Name("pools_get_delegator").
		HandlerFunc(utils.WrapHandlerFunc(p.handleDelegator))
	sub.Path("/{address}/queue").
		Methods(http.MethodGet).
		Name("pools_queue").
		HandlerFunc(utils.WrapHandlerFunc(p.handleQueue))
}
