// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"math/big"
	"strings"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTerminalHandler(t *testing.T) {
	out := new(bytes.Buffer)
	l := NewLogger(NewTerminalHandler(out, false))

	l.Info("staked", "amount", big.NewInt(1000), "rate", uint256.NewInt(18))
	line := out.String()
	assert.True(t, strings.HasPrefix(line, "INFO ["))
	assert.Contains(t, line, "staked")
	assert.Contains(t, line, "amount=1000")
	assert.Contains(t, line, "rate=18")
	assert.True(t, strings.HasSuffix(line, "\n"))
}

func TestTerminalHandlerLevel(t *testing.T) {
	out := new(bytes.Buffer)
	var lvl slog.LevelVar
	lvl.Set(slog.LevelWarn)
	l := NewLogger(NewTerminalHandlerWithLevel(out, &lvl, false))

	l.Info("hidden")
	assert.Empty(t, out.String())
	l.Warn("shown", "k", "v")
	assert.Contains(t, out.String(), "shown")
}

func TestTerminalHandlerWithAttrs(t *testing.T) {
	out := new(bytes.Buffer)
	l := NewLogger(NewTerminalHandler(out, false)).With("pkg", "sponsorship")
	l.Debug("settled")
	assert.Contains(t, out.String(), "pkg=sponsorship")
}

func TestJSONHandler(t *testing.T) {
	out := new(bytes.Buffer)
	l := NewLogger(JSONHandler(out))
	l.Error("reverted", "amount", big.NewInt(-5))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &rec))
	assert.Equal(t, "error", rec["lvl"])
	assert.Equal(t, "reverted", rec["msg"])
	assert.Equal(t, "-5", rec["amount"])
}

func TestOddArguments(t *testing.T) {
	out := new(bytes.Buffer)
	l := NewLogger(NewTerminalHandler(out, false))
	l.Info("odd", "lonely")
	assert.Contains(t, out.String(), errorKey)
}

func TestWithContextResolvesRoot(t *testing.T) {
	pkgLogger := WithContext("pkg", "test")

	out := new(bytes.Buffer)
	prev := Root()
	SetDefault(NewLogger(NewTerminalHandler(out, false)))
	defer SetDefault(prev)

	pkgLogger.Info("late root")
	assert.Contains(t, out.String(), "pkg=test")
}

func TestTerminalHandlerNilAmount(t *testing.T) {
	out := new(bytes.Buffer)
	var amount *big.Int
	NewLogger(NewTerminalHandler(out, false)).Info("paid", "amount", amount)
	assert.Contains(t, out.String(), "amount=<nil>")
}

func TestTerminalHandlerChainedAttrs(t *testing.T) {
	out := new(bytes.Buffer)
	base := NewLogger(NewTerminalHandler(out, false)).With("pkg", "engine")
	base.With("op", "stake").Info("exec")
	base.Info("commit")

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "pkg=engine op=stake")
	assert.NotContains(t, lines[1], "op=stake")
}
