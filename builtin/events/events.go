// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package events names every event emitted by the built-in contracts.
package events

import (
	"github.com/vechain/incentives/state"
)

// Sponsorship events.
const (
	StakeJoined       = "StakeJoined"
	StakeIncreased    = "StakeIncreased"
	StakeDecreased    = "StakeDecreased"
	StakeLeft         = "StakeLeft"
	Sponsored         = "Sponsored"
	EarningsWithdrawn = "EarningsWithdrawn"
	InsolvencyStarted = "InsolvencyStarted"
	InsolvencyEnded   = "InsolvencyEnded"
	Flagged           = "Flagged"
	Voted             = "Voted"
	FlagDismissed     = "FlagDismissed"
	Kicked            = "Kicked"
	Slashed           = "Slashed"
)

// Operator pool events.
const (
	Invested                = "Invested"
	QueueEntryCreated       = "QueueEntryCreated"
	QueueEntryFulfilled     = "QueueEntryFulfilled"
	QueueEntryForceResolved = "QueueEntryForceResolved"
	OperatorFee             = "OperatorFee"
	MarginDiversion         = "MarginDiversion"
	LossAbsorbed            = "LossAbsorbed"
	StalenessFee            = "StalenessFee"
)

// Token events.
const (
	Transfer = "Transfer"
	Mint     = "Mint"
)

var all = []string{
	StakeJoined, StakeIncreased, StakeDecreased, StakeLeft, Sponsored, EarningsWithdrawn,
	InsolvencyStarted, InsolvencyEnded, Flagged, Voted, FlagDismissed, Kicked, Slashed,
	Invested, QueueEntryCreated, QueueEntryFulfilled, QueueEntryForceResolved,
	OperatorFee, MarginDiversion, LossAbsorbed, StalenessFee,
	Transfer, Mint,
}

// All returns every known event name.
func All() []string {
	return append([]string(nil), all...)
}

// Filter returns the events with the given name, in emission order.
func Filter(evs []*state.Event, name string) []*state.Event {
	var out []*state.Event
	for _, ev := range evs {
		if ev.Name == name {
			out = append(out, ev)
		}
	}
	return out
}

// Names returns the names of the given events, in emission order.
func Names(evs []*state.Event) []string {
	out := make([]string, 0, len(evs))
	for _, ev := range evs {
		out = append(out, ev.Name)
	}
	return out
}
