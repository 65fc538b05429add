// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"fmt"
	"os"

	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/incentives/log"
)

var (
	version   string
	gitCommit string
	gitTag    string
	logger    = log.WithContext("pkg", "sponsorsim")
)

func fullVersion() string {
	versionMeta := "release"
	if gitTag == "" {
		versionMeta = "dev"
	}
	return fmt.Sprintf("%s-%s-%s", version, gitCommit, versionMeta)
}

func main() {
	app := cli.App{
		Version:   fullVersion(),
		Name:      "sponsorsim",
		Usage:     "Simulator for sponsorships and operator pools",
		Copyright: "2025 VeChain Foundation <https://vechain.org/>",
		Flags: []cli.Flag{
			verbosityFlag,
			jsonLogsFlag,
		},
		Commands: []cli.Command{
			{
				Name:      "run",
				Usage:     "run scenario files",
				ArgsUsage: "<scenario.yaml>...",
				Flags: []cli.Flag{
					dataDirFlag,
					eventDBFlag,
					parallelFlag,
					cacheFlag,
				},
				Action: runAction,
			},
			{
				Name:      "serve",
				Usage:     "serve a state over HTTP, after running the given scenarios into it",
				ArgsUsage: "[scenario.yaml]...",
				Flags: []cli.Flag{
					stateFlag,
					eventDBFlag,
					cacheFlag,
					apiAddrFlag,
					apiCorsFlag,
					apiTimeoutFlag,
					apiEventsLimitFlag,
					apiLogsEnabledFlag,
					apiSlowQueriesThresholdFlag,
					apiLog5xxErrorsFlag,
					pprofFlag,
					enableMetricsFlag,
					scenarioDelayFlag,
					wallClockFlag,
				},
				Action: serveAction,
			},
			{
				Name:  "inspect",
				Usage: "dump the contracts of a stored state",
				Flags: []cli.Flag{
					stateFlag,
					atFlag,
				},
				Action: inspectAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
