// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package scenario

import (
	"math/big"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Amount is a token quantity written as an integer, optionally with a decimal exponent
// such as 800e18 or 1.5e18.
type Amount struct {
	*big.Int
}

// ParseAmount parses the notation accepted by Amount.
func ParseAmount(s string) (*big.Int, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), "_", "")
	mantissa, exp := s, 0
	if i := strings.IndexAny(s, "eE"); i >= 0 {
		e, err := strconv.Atoi(s[i+1:])
		if err != nil {
			return nil, errors.Errorf("invalid exponent in %q", s)
		}
		mantissa, exp = s[:i], e
	}
	if i := strings.IndexByte(mantissa, '.'); i >= 0 {
		frac := mantissa[i+1:]
		mantissa = mantissa[:i] + frac
		exp -= len(frac)
	}
	if exp < 0 {
		return nil, errors.Errorf("%q is not a whole amount", s)
	}
	v, ok := new(big.Int).SetString(mantissa, 10)
	if !ok {
		return nil, errors.Errorf("invalid amount %q", s)
	}
	if v.Sign() < 0 {
		return nil, errors.Errorf("negative amount %q", s)
	}
	return v.Mul(v, new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(exp)), nil)), nil
}

func (a *Amount) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.ScalarNode {
		return errors.Errorf("line %d: amount must be a scalar", n.Line)
	}
	v, err := ParseAmount(n.Value)
	if err != nil {
		return errors.Wrapf(err, "line %d", n.Line)
	}
	a.Int = v
	return nil
}

// Value returns the amount, zero when unset.
func (a Amount) Value() *big.Int {
	if a.Int == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(a.Int)
}

func (a Amount) IsSet() bool {
	return a.Int != nil
}
