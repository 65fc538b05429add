// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"io"
	"os"

	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/incentives/engine"
)

func inspectAction(ctx *cli.Context) error {
	initLogger(ctx)

	path := ctx.String(stateFlag.Name)
	if path == "" {
		return errors.Errorf("missing --%v", stateFlag.Name)
	}
	db, err := openStateDB(path, true)
	if err != nil {
		return err
	}
	defer db.Close()

	e, err := engine.Open(db, engine.WithClock(engine.NewManualClock(ctx.Uint64(atFlag.Name))))
	if err != nil {
		return err
	}
	return dump(os.Stdout, e)
}

type sponsorshipDump struct {
	Address string
	Config  any
	Globals any
	Totals  any
	Stakers map[string]any
	Running bool
}

type poolDump struct {
	Address     string
	Config      any
	Supply      string
	Operator    string
	Liquid      string
	Approximate string
	Stakes      map[string]string
	Queue       any
}

var dumpConfig = spew.ConfigState{Indent: "  ", DisablePointerAddresses: true, DisableCapacities: true, SortKeys: true}

// dump writes a readable tree of every contract in e.
func dump(w io.Writer, e *engine.Engine) error {
	return e.View(func(now uint64) error {
		sps, err := e.Sponsorships()
		if err != nil {
			return err
		}
		for _, addr := range sps {
			sp, err := e.Sponsorship(addr)
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
			d := sponsorshipDump{
				Address: addr.String(),
				Config:  sp.Config(),
				Globals: g,
				Totals:  totals,
				Stakers: make(map[string]any),
				Running: running,
			}
			stakers, err := sp.Stakers()
			if err != nil {
				return err
			}
			for _, s := range stakers {
				p, err := sp.Position(s)
				if err != nil {
					return err
				}
				d.Stakers[s.String()] = p
			}
			dumpConfig.Fdump(w, d)
		}

		pools, err := e.Pools()
		if err != nil {
			return err
		}
		for _, addr := range pools {
			p, err := e.Pool(addr)
			if err != nil {
				return err
			}
			operator, supply, err := p.OperatorFraction()
			if err != nil {
				return err
			}
			liquid, err := p.Liquid()
			if err != nil {
				return err
			}
			approx, err := p.ApproximateValue()
			if err != nil {
				return err
			}
			queue, err := p.Queue()
			if err != nil {
				return err
			}
			d := poolDump{
				Address:     addr.String(),
				Config:      p.Config(),
				Supply:      supply.String(),
				Operator:    operator.String(),
				Liquid:      liquid.String(),
				Approximate: approx.String(),
				Stakes:      make(map[string]string),
				Queue:       queue,
			}
			staked, err := p.StakedInto()
			if err != nil {
				return err
			}
			for _, s := range staked {
				v, err := p.StakedIn(s)
				if err != nil {
					return err
				}
				d.Stakes[s.String()] = v.String()
			}
			dumpConfig.Fdump(w, d)
		}
		return nil
	})
}
