// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package eventdb indexes the events of engine runs in sqlite.
package eventdb

import (
	"context"
	"database/sql"
	"math/big"
	"strings"

	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/pborman/uuid"
	"github.com/pkg/errors"

	"github.com/vechain/incentives/state"
	"github.com/vechain/incentives/thor"
)

// NewRunID returns a fresh identifier for a run.
func NewRunID() string {
	return uuid.New()
}

// EventDB stores events, each stamped with the run that produced it.
type EventDB struct {
	path          string
	db            *sql.DB
	runID         string
	driverVersion string
	borrowed      bool
}

// New creates or opens an event db at path. Events written through it are stamped with runID.
func New(path string, runID string) (edb *EventDB, err error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if edb == nil {
			db.Close()
		}
	}()
	// every connection to :memory: is a different database
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(eventTableSchema); err != nil {
		return nil, errors.Wrap(err, "create schema")
	}
	driverVer, _, _ := sqlite3.Version()
	return &EventDB{
		path:          path,
		db:            db,
		runID:         runID,
		driverVersion: driverVer,
	}, nil
}

// NewMem creates an event db in ram.
func NewMem(runID string) (*EventDB, error) {
	return New(":memory:", runID)
}

// WithRun returns a handle on the same database that stamps events with runID.
// Closing it leaves the database open.
func (db *EventDB) WithRun(runID string) *EventDB {
	return &EventDB{
		path:          db.path,
		db:            db.db,
		runID:         runID,
		driverVersion: db.driverVersion,
		borrowed:      true,
	}
}

func (db *EventDB) Close() error {
	if db.borrowed {
		return nil
	}
	return db.db.Close()
}

func (db *EventDB) Path() string {
	return db.path
}

func (db *EventDB) RunID() string {
	return db.runID
}

// Write stores evs in one transaction.
func (db *EventDB) Write(evs []*state.Event) error {
	if len(evs) == 0 {
		return nil
	}
	tx, err := db.db.Begin()
	if err != nil {
		return err
	}
	for _, ev := range evs {
		if _, err := tx.Exec("INSERT INTO event(runID, emitter, name, time, account, party, amount, extra) VALUES (?, ?, ?, ?, ?, ?, ?, ?);",
			db.runID,
			ev.Emitter.Bytes(),
			ev.Name,
			ev.Time,
			ev.Account.Bytes(),
			ev.Party.Bytes(),
			numberValue(ev.Amount),
			numberValue(ev.Extra),
		); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// Filter returns the events matching filter, ordered by emission.
func (db *EventDB) Filter(ctx context.Context, filter *Filter) ([]*Event, error) {
	if filter == nil {
		return db.query(ctx, "SELECT * FROM event ORDER BY seq ASC")
	}
	var args []any
	stmt := "SELECT * FROM event WHERE 1"
	if filter.RunID != "" {
		args = append(args, filter.RunID)
		stmt += " AND runID = ? "
	}
	if filter.Emitter != nil {
		args = append(args, filter.Emitter.Bytes())
		stmt += " AND emitter = ? "
	}
	if filter.Account != nil {
		args = append(args, filter.Account.Bytes())
		stmt += " AND account = ? "
	}
	if len(filter.Names) > 0 {
		stmt += " AND name IN (" + strings.TrimSuffix(strings.Repeat("?,", len(filter.Names)), ",") + ") "
		for _, n := range filter.Names {
			args = append(args, n)
		}
	}
	if filter.Range != nil {
		args = append(args, filter.Range.From)
		stmt += " AND time >= ? "
		if filter.Range.To >= filter.Range.From {
			args = append(args, filter.Range.To)
			stmt += " AND time <= ? "
		}
	}
	if filter.Order == DESC {
		stmt += " ORDER BY seq DESC "
	} else {
		stmt += " ORDER BY seq ASC "
	}
	if filter.Options != nil {
		stmt += " LIMIT ?, ? "
		args = append(args, filter.Options.Offset, filter.Options.Limit)
	}
	return db.query(ctx, stmt, args...)
}

// Runs lists the run ids with stored events, oldest first.
func (db *EventDB) Runs(ctx context.Context) ([]string, error) {
	rows, err := db.db.QueryContext(ctx, "SELECT runID FROM event GROUP BY runID ORDER BY MIN(seq)")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var runs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		runs = append(runs, id)
	}
	return runs, rows.Err()
}

func (db *EventDB) query(ctx context.Context, stmt string, args ...any) ([]*Event, error) {
	rows, err := db.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var evs []*Event
	for rows.Next() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		var (
			seq     uint64
			runID   string
			emitter []byte
			name    string
			time    uint64
			account []byte
			party   []byte
			amount  sql.NullString
			extra   sql.NullString
		)
		if err := rows.Scan(&seq, &runID, &emitter, &name, &time, &account, &party, &amount, &extra); err != nil {
			return nil, err
		}
		ev := &Event{
			Seq:     seq,
			RunID:   runID,
			Emitter: thor.BytesToAddress(emitter),
			Name:    name,
			Time:    time,
			Account: thor.BytesToAddress(account),
			Party:   thor.BytesToAddress(party),
			Amount:  parseNumber(amount),
			Extra:   parseNumber(extra),
		}
		if ev.Amount == nil {
			ev.Amount = new(big.Int)
		}
		evs = append(evs, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return evs, nil
}

func numberValue(n *big.Int) any {
	if n == nil {
		return nil
	}
	return n.String()
}

func parseNumber(s sql.NullString) *big.Int {
	if !s.Valid {
		return nil
	}
	n, ok := new(big.Int).SetString(s.String, 10)
	if !ok {
		return nil
	}
	return n
}
