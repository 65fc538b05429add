// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stackedmap_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vechain/incentives/stackedmap"
)

type result struct {
	v  string
	ok bool
}

func get(sm *stackedmap.StackedMap[string, string], key string) result {
	v, ok, _ := sm.Get(key)
	return result{v, ok}
}

func TestStackedMap(t *testing.T) {
	assert := assert.New(t)
	src := make(map[string]string)
	src["foo"] = "bar"

	sm := stackedmap.New(func(key string) (string, bool, error) {
		v, r := src[key]
		return v, r, nil
	})

	tests := []struct {
		f         func()
		depth     int
		putKey    string
		putValue  string
		getKey    string
		getReturn result
	}{
		{func() {}, 1, "", "", "foo", result{"bar", true}},
		{func() { sm.Push() }, 2, "foo", "baz", "foo", result{"baz", true}},
		{func() {}, 2, "foo", "baz1", "foo", result{"baz1", true}},
		{func() { sm.Push() }, 3, "foo", "qux", "foo", result{"qux", true}},
		{func() { sm.Pop() }, 2, "", "", "foo", result{"baz1", true}},
		{func() { sm.Pop() }, 1, "", "", "foo", result{"bar", true}},
		{func() { sm.Push(); sm.Push() }, 3, "", "", "", result{}},
		{func() { sm.PopTo(1) }, 1, "", "", "foo", result{"bar", true}},
	}

	for _, test := range tests {
		test.f()
		assert.Equal(test.depth, sm.Depth())
		if test.putKey != "" {
			sm.Put(test.putKey, test.putValue)
		}
		if test.getKey != "" {
			assert.Equal(test.getReturn, get(sm, test.getKey))
		}
	}
}

func TestStackedMapJournal(t *testing.T) {
	sm := stackedmap.New(func(key string) (string, bool, error) {
		return "", false, nil
	})

	sm.Put("a", "1")
	rev := sm.Push()
	sm.Put("a", "2")
	sm.Put("b", "3")
	assert.Len(t, sm.Journal(), 3)

	sm.PopTo(rev)
	journal := sm.Journal()
	assert.Len(t, journal, 1)
	assert.Equal(t, "a", journal[0].Key)
	assert.Equal(t, "1", journal[0].Value)

	assert.Equal(t, result{"1", true}, get(sm, "a"))
	assert.Equal(t, result{"", false}, get(sm, "b"))
}
