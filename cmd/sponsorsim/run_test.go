// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/incentives/engine"
	"github.com/vechain/incentives/eventdb"
	"github.com/vechain/incentives/scenario"
)

func TestRunScenarioPersists(t *testing.T) {
	dataDir := t.TempDir()
	edb, err := eventdb.New(filepath.Join(dataDir, "events.db"), eventdb.NewRunID())
	require.NoError(t, err)
	defer edb.Close()

	sc, err := scenario.Load("../../scenario/testdata/queue.yaml")
	require.NoError(t, err)
	o, err := runScenario(context.Background(), sc, dataDir, edb)
	require.NoError(t, err)
	assert.Equal(t, "queue", o.res.Name)
	assert.NotEmpty(t, o.runID)

	evs, err := edb.Filter(context.Background(), &eventdb.Filter{RunID: o.runID})
	require.NoError(t, err)
	assert.Len(t, evs, o.res.Events)

	db, err := openStateDB(filepath.Join(dataDir, "queue"), true)
	require.NoError(t, err)
	defer db.Close()
	e, err := engine.Open(db)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, dump(&buf, e))
	out := buf.String()
	assert.Contains(t, out, "sponsorshipDump")
	assert.Contains(t, out, "poolDump")
	assert.Contains(t, out, scenario.Account("operator").String())
}

func TestRunScenarioFailure(t *testing.T) {
	sc, err := scenario.Parse([]byte("accounts: {alice: 1}\nsteps: [{op: check, expect: {account: alice, balance: 2}}]\n"))
	require.NoError(t, err)
	sc.Name = "broken"

	dataDir := t.TempDir()
	_, err = runScenario(context.Background(), sc, dataDir, nil)
	assert.Error(t, err)

	// nothing was committed
	db, err := openStateDB(filepath.Join(dataDir, "broken"), true)
	require.NoError(t, err)
	defer db.Close()
	e, err := engine.Open(db)
	require.NoError(t, err)
	require.NoError(t, e.View(func(uint64) error {
		bal, err := e.Token().BalanceOf(scenario.Account("alice"))
		require.NoError(t, err)
		assert.Equal(t, 0, bal.Sign())
		return nil
	}))
}

func TestNormalizeCacheSize(t *testing.T) {
	assert.Equal(t, 16, normalizeCacheSize(1, 4))
	// a cache that cannot fit is floored, not zeroed
	assert.Equal(t, 16, normalizeCacheSize(1<<40, 1<<20))
	got := normalizeCacheSize(64, 1)
	assert.True(t, got >= 16 && got <= 64, "got %d", got)
}
