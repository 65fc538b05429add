// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reverts

import (
	"errors"
	"fmt"
)

// Kind classifies why a call was rejected.
type Kind uint8

const (
	Configuration Kind = iota + 1
	PolicyRejection
	InsufficientFunds
	AccessDenied
	InvalidArgument
)

func (k Kind) String() string {
	switch k {
	case Configuration:
		return "configuration"
	case PolicyRejection:
		return "policy rejection"
	case InsufficientFunds:
		return "insufficient funds"
	case AccessDenied:
		return "access denied"
	case InvalidArgument:
		return "invalid argument"
	default:
		return "unknown"
	}
}

// ErrRevert is a rejection of a call. The whole call is rolled back when it is returned.
type ErrRevert struct {
	Kind   Kind
	Reason string // machine readable, e.g. "penalty_period_too_long"
}

func New(kind Kind, reason string) *ErrRevert {
	return &ErrRevert{
		Kind:   kind,
		Reason: reason,
	}
}

func Newf(kind Kind, format string, args ...any) *ErrRevert {
	return New(kind, fmt.Sprintf(format, args...))
}

func (e *ErrRevert) Error() string {
	return e.Kind.String() + ": " + e.Reason
}

func IsRevertErr(err any) bool {
	if err == nil {
		return false
	}
	e, ok := err.(error)
	if !ok {
		return false
	}
	var ve *ErrRevert
	return errors.As(e, &ve)
}

// Is reports whether err is a revert of the given kind.
func Is(err error, kind Kind) bool {
	var ve *ErrRevert
	if errors.As(err, &ve) {
		return ve.Kind == kind
	}
	return false
}

// Reason returns the reason of a revert, or an empty string.
func Reason(err error) string {
	var ve *ErrRevert
	if errors.As(err, &ve) {
		return ve.Reason
	}
	return ""
}
