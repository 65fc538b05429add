// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package state manages token balances, contract storage and emitted events.
// It follows the flow as bellow:
//
//	         o
//	         |
//	[ revertable state ]
//	         |
//	  [ stacked map ] -> [ journal ] -> [ commit ] -> [ kv store ]
//	         |
//	     [ lru cache ]
//	         |
//	  [ read-only kv ]
//
// Every mutating call of a built-in contract runs between NewCheckpoint and
// either success or RevertTo, so a failed call leaves no trace, including
// the events it emitted.
package state
