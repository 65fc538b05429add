// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package eventdb_test

import (
	"context"
	"math/big"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/incentives/builtin/events"
	"github.com/vechain/incentives/eventdb"
	"github.com/vechain/incentives/state"
	"github.com/vechain/incentives/thor"
)

var (
	sp    = thor.BytesToAddress([]byte("sponsorship"))
	pool  = thor.BytesToAddress([]byte("pool"))
	alice = thor.BytesToAddress([]byte("alice"))
)

func sampleEvents() []*state.Event {
	var evs []*state.Event
	for i := 0; i < 10; i++ {
		evs = append(evs, &state.Event{
			Emitter: sp,
			Name:    events.StakeJoined,
			Time:    uint64(100 + i),
			Account: alice,
			Amount:  big.NewInt(int64(i)),
			Extra:   big.NewInt(int64(i * 2)),
		})
	}
	evs = append(evs, &state.Event{Emitter: pool, Name: events.Invested, Time: 200, Account: alice, Amount: big.NewInt(7)})
	return evs
}

func TestEventDB(t *testing.T) {
	runID := eventdb.NewRunID()
	db, err := eventdb.NewMem(runID)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Write(sampleEvents()))
	require.NoError(t, db.Write(nil))

	all, err := db.Filter(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, all, 11)
	assert.Equal(t, runID, all[0].RunID)
	assert.Equal(t, big.NewInt(18), all[9].Extra)
	assert.Nil(t, all[10].Extra)

	got, err := db.Filter(context.Background(), &eventdb.Filter{
		Emitter: &sp,
		Range:   &eventdb.Range{From: 102, To: 105},
		Order:   eventdb.DESC,
		Options: &eventdb.Options{Offset: 0, Limit: 3},
	})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, uint64(105), got[0].Time)
	assert.Equal(t, uint64(103), got[2].Time)

	got, err = db.Filter(context.Background(), &eventdb.Filter{Names: []string{events.Invested, events.Kicked}})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, pool, got[0].Emitter)
	assert.Equal(t, big.NewInt(7), got[0].Amount)

	got, err = db.Filter(context.Background(), &eventdb.Filter{RunID: "other"})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRunsShareFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.db")

	first, err := eventdb.New(path, "run-1")
	require.NoError(t, err)
	require.NoError(t, first.Write(sampleEvents()[:2]))
	require.NoError(t, first.Close())

	second, err := eventdb.New(path, "run-2")
	require.NoError(t, err)
	defer second.Close()
	require.NoError(t, second.Write(sampleEvents()[:3]))

	runs, err := second.Runs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"run-1", "run-2"}, runs)

	got, err := second.Filter(context.Background(), &eventdb.Filter{RunID: "run-2", Account: &alice})
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestCanceledQuery(t *testing.T) {
	db, err := eventdb.NewMem("run")
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.Write(sampleEvents()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = db.Filter(ctx, nil)
	assert.Error(t, err)
}

func TestWithRun(t *testing.T) {
	db, err := eventdb.NewMem("base")
	require.NoError(t, err)
	defer db.Close()

	other := db.WithRun("other")
	assert.Equal(t, "other", other.RunID())
	require.NoError(t, other.Write(sampleEvents()[:1]))
	require.NoError(t, other.Close())

	// the shared database is still usable
	require.NoError(t, db.Write(sampleEvents()[:2]))
	runs, err := db.Runs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"other", "base"}, runs)
}
