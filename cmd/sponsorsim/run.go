// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"gopkg.in/cheggaaa/pb.v1"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/incentives/engine"
	"github.com/vechain/incentives/eventdb"
	"github.com/vechain/incentives/scenario"
	"github.com/vechain/incentives/state"
)

type outcome struct {
	res   *scenario.Result
	runID string
}

func runAction(ctx *cli.Context) error {
	initLogger(ctx)

	if ctx.NArg() == 0 {
		return errors.New("no scenario given")
	}
	scenarios := make([]*scenario.Scenario, 0, ctx.NArg())
	for _, f := range ctx.Args() {
		sc, err := scenario.Load(f)
		if err != nil {
			return err
		}
		scenarios = append(scenarios, sc)
	}

	dataDir := makeDataDir(ctx)
	if dataDir != "" {
		stateCacheMB = normalizeCacheSize(ctx.Int(cacheFlag.Name), min(ctx.Int(parallelFlag.Name), len(scenarios)))
	}
	edb, err := openEventDB(ctx)
	if err != nil {
		return err
	}
	if edb != nil {
		defer func() { logger.Info("closing event database..."); edb.Close() }()
	}

	var bar *pb.ProgressBar
	if len(scenarios) > 1 && !ctx.GlobalBool(jsonLogsFlag.Name) && isatty.IsTerminal(os.Stdout.Fd()) {
		bar = pb.New(len(scenarios)).SetMaxWidth(90).Start()
		defer func() { bar.NotPrint = true }()
	}

	g, gctx := errgroup.WithContext(handleExitSignal())
	g.SetLimit(max(1, ctx.Int(parallelFlag.Name)))
	outcomes := make([]outcome, len(scenarios))
	for i, sc := range scenarios {
		g.Go(func() error {
			o, err := runScenario(gctx, sc, dataDir, edb)
			if err != nil {
				return err
			}
			outcomes[i] = *o
			if bar != nil {
				bar.Increment()
			}
			return nil
		})
	}
	err = g.Wait()
	if bar != nil {
		bar.Finish()
	}

	for _, o := range outcomes {
		if o.res == nil {
			continue
		}
		fmt.Printf("%-24v steps %4d  reverts %3d  events %5d  elapsed %8ds  took %v",
			o.res.Name, o.res.Steps, o.res.Reverts, o.res.Events, o.res.Elapsed, o.res.Duration)
		if o.runID != "" {
			fmt.Printf("  run %v", o.runID)
		}
		fmt.Println()
	}
	return err
}

// runScenario plays sc on its own state. With a data dir the final state is stored under the
// scenario name, on top of what an earlier run left there.
func runScenario(ctx context.Context, sc *scenario.Scenario, dataDir string, edb *eventdb.EventDB) (*outcome, error) {
	var (
		st    = state.NewMem()
		sinks []engine.Sink
		o     outcome
	)
	if dataDir != "" {
		db, err := openStateDB(filepath.Join(dataDir, sc.Name), false)
		if err != nil {
			return nil, err
		}
		defer db.Close()
		st = state.New(db)
		defer func() {
			if o.res == nil {
				return
			}
			bulk := db.Bulk()
			if err := st.Commit(bulk); err != nil {
				logger.Error("failed to commit state", "scenario", sc.Name, "err", err)
				return
			}
			if err := bulk.Write(); err != nil {
				logger.Error("failed to write state", "scenario", sc.Name, "err", err)
			}
		}()
	}
	if edb != nil {
		o.runID = eventdb.NewRunID()
		sinks = append(sinks, edb.WithRun(o.runID))
	}

	res, _, err := scenario.Play(ctx, sc, st, sinks...)
	if err != nil {
		return nil, err
	}
	o.res = res
	return &o, nil
}
