// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions

import (
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	ethmath "github.com/ethereum/go-ethereum/common/math"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/vechain/incentives/api/utils"
	"github.com/vechain/incentives/log"
	"github.com/vechain/incentives/metrics"
	"github.com/vechain/incentives/state"
	"github.com/vechain/incentives/thor"
)

const (
	backlogSize  = 256
	pingPeriod   = 30 * time.Second
	writeTimeout = 10 * time.Second
)

var (
	logger          = log.WithContext("pkg", "subscriptions")
	metricActiveSub = metrics.LazyLoadGauge("api_active_subscriptions_count")
)

// EventMessage is an engine event as pushed to subscribers.
type EventMessage struct {
	Emitter thor.Address             `json:"emitter"`
	Name    string                   `json:"name"`
	Time    uint64                   `json:"time"`
	Account thor.Address             `json:"account"`
	Party   *thor.Address            `json:"party,omitempty"`
	Amount  *ethmath.HexOrDecimal256 `json:"amount"`
	Extra   *ethmath.HexOrDecimal256 `json:"extra,omitempty"`
}

func newEventMessage(ev *state.Event) *EventMessage {
	msg := &EventMessage{
		Emitter: ev.Emitter,
		Name:    ev.Name,
		Time:    ev.Time,
		Account: ev.Account,
		Amount:  (*ethmath.HexOrDecimal256)(ev.Amount),
		Extra:   (*ethmath.HexOrDecimal256)(ev.Extra),
	}
	if !ev.Party.IsZero() {
		party := ev.Party
		msg.Party = &party
	}
	return msg
}

// EventFilter selects events. Empty fields match everything.
type EventFilter struct {
	Emitter *thor.Address
	Account *thor.Address
	Names   []string
}

func (f *EventFilter) match(ev *state.Event) bool {
	if f.Emitter != nil && *f.Emitter != ev.Emitter {
		return false
	}
	if f.Account != nil && *f.Account != ev.Account && *f.Account != ev.Party {
		return false
	}
	return len(f.Names) == 0 || slices.Contains(f.Names, ev.Name)
}

type subscriber struct {
	filter *EventFilter
	ch     chan *state.Event
	lagged chan struct{} // closed once the backlog overflowed
}

// Subscriptions pushes engine events to websocket clients. It is an engine sink, so it must be
// registered with the engine before calls are made.
type Subscriptions struct {
	upgrader websocket.Upgrader
	mu       sync.Mutex
	subs     map[*subscriber]struct{}
	done     chan struct{}
	wg       sync.WaitGroup
}

// New accepts websocket handshakes from allowed origins. "*" allows any.
func New(allowedOrigins []string) *Subscriptions {
	return &Subscriptions{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				for _, allowed := range allowedOrigins {
					if allowed == "*" || strings.EqualFold(allowed, origin) {
						return true
					}
				}
				return false
			},
		},
		subs: make(map[*subscriber]struct{}),
		done: make(chan struct{}),
	}
}

// Write hands evs to every matching subscriber without blocking. A subscriber
// that falls backlogSize events behind is disconnected.
func (s *Subscriptions) Write(evs []*state.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for sub := range s.subs {
		for _, ev := range evs {
			if sub.filter.match(ev) && !sub.push(ev) {
				close(sub.lagged)
				delete(s.subs, sub)
				break
			}
		}
	}
	return nil
}

func (sub *subscriber) push(ev *state.Event) bool {
	select {
	case sub.ch <- ev:
		return true
	default:
		return false
	}
}

func (s *Subscriptions) subscribe(filter *EventFilter) *subscriber {
	sub := &subscriber{
		filter: filter,
		ch:     make(chan *state.Event, backlogSize),
		lagged: make(chan struct{}),
	}
	s.mu.Lock()
	s.subs[sub] = struct{}{}
	s.mu.Unlock()
	metricActiveSub().Add(1)
	return sub
}

func (s *Subscriptions) unsubscribe(sub *subscriber) {
	s.mu.Lock()
	delete(s.subs, sub)
	s.mu.Unlock()
	metricActiveSub().Add(-1)
}

func parseFilter(req *http.Request) (*EventFilter, error) {
	query := req.URL.Query()
	var filter EventFilter
	for _, field := range []struct {
		name string
		dst  **thor.Address
	}{{"emitter", &filter.Emitter}, {"account", &filter.Account}} {
		v := query.Get(field.name)
		if v == "" {
			continue
		}
		addr, err := thor.ParseAddress(v)
		if err != nil {
			return nil, utils.BadRequest(errors.WithMessage(err, field.name))
		}
		*field.dst = addr
	}
	if names := query.Get("names"); names != "" {
		filter.Names = strings.Split(names, ",")
	}
	return &filter, nil
}

func (s *Subscriptions) handleSubscribeEvents(w http.ResponseWriter, req *http.Request) error {
	filter, err := parseFilter(req)
	if err != nil {
		return err
	}
	// subscribed before the handshake completes, so nothing is missed once the client sees it
	sub := s.subscribe(filter)
	defer s.unsubscribe(sub)

	conn, err := s.upgrader.Upgrade(w, req, nil)
	if err != nil {
		// the upgrader has already replied
		logger.Debug("websocket upgrade failed", "err", err)
		return nil
	}
	s.wg.Add(1)
	defer s.wg.Done()
	defer conn.Close()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case ev := <-sub.ch:
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteJSON(newEventMessage(ev)); err != nil {
				return nil
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return nil
			}
		case <-sub.lagged:
			closeConn(conn, websocket.ClosePolicyViolation, "subscriber too slow")
			return nil
		case <-s.done:
			closeConn(conn, websocket.CloseGoingAway, "server shutting down")
			return nil
		case <-closed:
			return nil
		}
	}
}

func closeConn(conn *websocket.Conn, code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeTimeout))
}

// Close disconnects every subscriber and waits for their handlers to return.
// Hijacked connections are not tracked by the http server, so this must be called on shutdown.
func (s *Subscriptions) Close() {
	close(s.done)
	s.wg.Wait()
}

func (s *Subscriptions) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/events").
		Methods(http.MethodGet).
		Name("subscriptions_events").
		HandlerFunc(utils.WrapHandlerFunc(s.handleSubscribeEvents))
}
