// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package events

import (
	"fmt"
	"math"
	"net/http"

	ethmath "github.com/ethereum/go-ethereum/common/math"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/incentives/api/utils"
	"github.com/vechain/incentives/eventdb"
	"github.com/vechain/incentives/thor"
)

// FilteredEvent is a stored event with amounts in hex.
type FilteredEvent struct {
	Seq     uint64                   `json:"seq"`
	RunID   string                   `json:"runID"`
	Emitter thor.Address             `json:"emitter"`
	Name    string                   `json:"name"`
	Time    uint64                   `json:"time"`
	Account thor.Address             `json:"account"`
	Party   *thor.Address            `json:"party,omitempty"`
	Amount  *ethmath.HexOrDecimal256 `json:"amount"`
	Extra   *ethmath.HexOrDecimal256 `json:"extra,omitempty"`
}

func convertEvent(e *eventdb.Event) *FilteredEvent {
	fe := &FilteredEvent{
		Seq:     e.Seq,
		RunID:   e.RunID,
		Emitter: e.Emitter,
		Name:    e.Name,
		Time:    e.Time,
		Account: e.Account,
		Amount:  (*ethmath.HexOrDecimal256)(e.Amount),
		Extra:   (*ethmath.HexOrDecimal256)(e.Extra),
	}
	if !e.Party.IsZero() {
		party := e.Party
		fe.Party = &party
	}
	return fe
}

type Events struct {
	db    *eventdb.EventDB
	limit uint64
}

func New(db *eventdb.EventDB, limit uint64) *Events {
	return &Events{db, limit}
}

func (e *Events) handleFilter(w http.ResponseWriter, req *http.Request) error {
	var filter eventdb.Filter
	if err := utils.ParseJSON(req.Body, &filter); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	if filter.Options != nil && filter.Options.Limit > e.limit {
		return utils.Forbidden(fmt.Errorf("options.limit exceeds the maximum allowed value of %d", e.limit))
	}
	if filter.Options != nil && filter.Options.Offset > math.MaxInt64 {
		return utils.BadRequest(fmt.Errorf("options.offset exceeds the maximum allowed value of %d", int64(math.MaxInt64)))
	}
	if filter.Range != nil && filter.Range.To != 0 && filter.Range.From > filter.Range.To {
		return utils.BadRequest(errors.New("range.to must be greater than or equal to range.from"))
	}
	if filter.Order != "" && filter.Order != eventdb.ASC && filter.Order != eventdb.DESC {
		return utils.BadRequest(fmt.Errorf("order must be %q or %q", eventdb.ASC, eventdb.DESC))
	}
	if filter.Options == nil {
		filter.Options = &eventdb.Options{Limit: e.limit}
	}

	evs, err := e.db.Filter(req.Context(), &filter)
	if err != nil {
		return err
	}
	out := make([]*FilteredEvent, 0, len(evs))
	for _, ev := range evs {
		out = append(out, convertEvent(ev))
	}
	return utils.WriteJSON(w, out)
}

func (e *Events) handleRuns(w http.ResponseWriter, req *http.Request) error {
	runs, err := e.db.Runs(req.Context())
	if err != nil {
		return err
	}
	if runs == nil {
		runs = []string{}
	}
	return utils.WriteJSON(w, runs)
}

func (e *Events) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodPost).
		Name("events_filter").
		HandlerFunc(utils.WrapHandlerFunc(e.handleFilter))
	sub.Path("/runs").
		Methods(http.MethodGet).
		Name("events_runs").
		HandlerFunc(utils.WrapHandlerFunc(e.handleRuns))
}
