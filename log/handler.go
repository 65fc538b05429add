// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package log

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/holiman/uint256"
)

const (
	timeFormat     = "2006-01-02T15:04:05-0700"
	termTimeFormat = "01-02|15:04:05.000"
	termMsgJust    = 40
)

var levelColors = map[slog.Level]int{
	LevelCrit:       35,
	slog.LevelError: 31,
	slog.LevelWarn:  33,
	slog.LevelInfo:  32,
	slog.LevelDebug: 36,
	LevelTrace:      34,
}

type discardHandler struct{}

// DiscardHandler drops every record.
func DiscardHandler() slog.Handler {
	return discardHandler{}
}

func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (h discardHandler) WithGroup(string) slog.Handler           { return h }
func (h discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return h }

// TerminalHandler writes one human readable line per record:
//
//	INFO [05-16|20:58:45.000] staker joined                  sponsorship=0x7567…ffed amount=1000
//
// Handlers derived through WithAttrs share the writer and its lock.
type TerminalHandler struct {
	mu       *sync.Mutex
	wr       io.Writer
	lvl      *slog.LevelVar
	useColor bool
	prefix   []byte // rendered attrs added by WithAttrs
}

// NewTerminalHandler logs at every level.
func NewTerminalHandler(wr io.Writer, useColor bool) *TerminalHandler {
	var level slog.LevelVar
	level.Set(levelMaxVerbosity)
	return NewTerminalHandlerWithLevel(wr, &level, useColor)
}

// NewTerminalHandlerWithLevel logs records at lvl or above. lvl may be changed while logging.
func NewTerminalHandlerWithLevel(wr io.Writer, lvl *slog.LevelVar, useColor bool) *TerminalHandler {
	return &TerminalHandler{
		mu:       new(sync.Mutex),
		wr:       wr,
		lvl:      lvl,
		useColor: useColor,
	}
}

func (h *TerminalHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.lvl.Level()
}

func (h *TerminalHandler) WithGroup(string) slog.Handler {
	panic("not implemented")
}

func (h *TerminalHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	var b bytes.Buffer
	b.Write(h.prefix)
	for _, attr := range attrs {
		h.writeAttr(&b, attr)
	}
	clone := *h
	clone.prefix = b.Bytes()
	return &clone
}

func (h *TerminalHandler) Handle(_ context.Context, r slog.Record) error {
	var b bytes.Buffer
	lvl := LevelAlignedString(r.Level)
	if h.useColor {
		fmt.Fprintf(&b, "\x1b[%dm%s\x1b[0m", levelColors[r.Level], lvl)
	} else {
		b.WriteString(lvl)
	}
	b.WriteString("[")
	b.WriteString(r.Time.Format(termTimeFormat))
	b.WriteString("] ")
	b.WriteString(r.Message)

	if (len(h.prefix) > 0 || r.NumAttrs() > 0) && len(r.Message) < termMsgJust {
		b.WriteString(strings.Repeat(" ", termMsgJust-len(r.Message)))
	}
	b.Write(h.prefix)
	r.Attrs(func(attr slog.Attr) bool {
		h.writeAttr(&b, attr)
		return true
	})
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.wr.Write(b.Bytes())
	return err
}

func (h *TerminalHandler) writeAttr(b *bytes.Buffer, attr slog.Attr) {
	attr = replaceAttr(attr, true)
	b.WriteByte(' ')
	if h.useColor {
		color := 36
		if attr.Key == errorKey {
			color = 31
		}
		fmt.Fprintf(b, "\x1b[%dm%s\x1b[0m=", color, attr.Key)
	} else {
		b.WriteString(attr.Key)
		b.WriteByte('=')
	}
	b.WriteString(attr.Value.String())
}

type leveler struct{ minLevel *slog.LevelVar }

func (l *leveler) Level() slog.Level {
	return l.minLevel.Level()
}

// JSONHandler logs every level as one JSON object per line.
func JSONHandler(wr io.Writer) slog.Handler {
	var level slog.LevelVar
	level.Set(levelMaxVerbosity)
	return JSONHandlerWithLevel(wr, &level)
}

// JSONHandlerWithLevel logs records at level or above as JSON.
func JSONHandlerWithLevel(wr io.Writer, level *slog.LevelVar) slog.Handler {
	return slog.NewJSONHandler(wr, &slog.HandlerOptions{
		ReplaceAttr: func(_ []string, attr slog.Attr) slog.Attr { return replaceAttr(attr, false) },
		Level:       &leveler{level},
	})
}

// replaceAttr renames the builtin keys to t and lvl, and prints amounts in decimal.
func replaceAttr(attr slog.Attr, text bool) slog.Attr {
	switch attr.Key {
	case slog.TimeKey:
		if attr.Value.Kind() == slog.KindTime {
			if text {
				return slog.String("t", attr.Value.Time().Format(timeFormat))
			}
			return slog.Attr{Key: "t", Value: attr.Value}
		}
	case slog.LevelKey:
		if l, ok := attr.Value.Any().(slog.Level); ok {
			return slog.String("lvl", LevelString(l))
		}
	}

	switch v := attr.Value.Any().(type) {
	case time.Time:
		if text {
			return slog.String(attr.Key, v.Format(timeFormat))
		}
	case *big.Int:
		return slog.String(attr.Key, nilOr(v == nil, v.String))
	case *uint256.Int:
		return slog.String(attr.Key, nilOr(v == nil, v.Dec))
	case fmt.Stringer:
		isNil := v == nil || (reflect.ValueOf(v).Kind() == reflect.Pointer && reflect.ValueOf(v).IsNil())
		return slog.String(attr.Key, nilOr(isNil, v.String))
	}
	return attr
}

func nilOr(isNil bool, str func() string) string {
	if isNil {
		return "<nil>"
	}
	return str()
}
