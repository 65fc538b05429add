// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package solidity

import (
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/incentives/state"
	"github.com/vechain/incentives/thor"
)

type testStruct struct {
	Field1 uint64
	Amount *big.Int
	Addr1  thor.Address
}

func newTestContext() *Context {
	return NewContext(thor.Address{1}, state.NewMem())
}

func TestMapping(t *testing.T) {
	ctx := newTestContext()
	m := NewMapping[thor.Address, *testStruct](ctx, thor.Bytes32{1})
	key := thor.Address{0xaa}

	// empty slot decodes to an allocated zero value
	v, err := m.Get(key)
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, uint64(0), v.Field1)

	has, err := m.Has(key)
	require.NoError(t, err)
	assert.False(t, has)

	want := &testStruct{Field1: 7, Amount: big.NewInt(1000), Addr1: thor.Address{2}}
	require.NoError(t, m.Set(key, want))

	got, err := m.Get(key)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	m.Delete(key)
	has, err = m.Has(key)
	require.NoError(t, err)
	assert.False(t, has)
}

func TestMappingIndexKeysAreDistinct(t *testing.T) {
	ctx := newTestContext()
	m := NewMapping[Index, uint64](ctx, thor.Bytes32{2})
	require.NoError(t, m.Set(Index(1), 10))
	require.NoError(t, m.Set(Index(2), 20))

	v1, _ := m.Get(Index(1))
	v2, _ := m.Get(Index(2))
	v3, _ := m.Get(Index(3))
	assert.Equal(t, uint64(10), v1)
	assert.Equal(t, uint64(20), v2)
	assert.Equal(t, uint64(0), v3)
}

func TestUint256(t *testing.T) {
	u := NewUint256(newTestContext(), thor.Bytes32{3})

	v, err := u.Get()
	require.NoError(t, err)
	assert.Equal(t, 0, v.Sign())

	require.NoError(t, u.Add(big.NewInt(100)))
	require.NoError(t, u.Sub(big.NewInt(40)))
	v, _ = u.Get()
	assert.Equal(t, big.NewInt(60), v)

	assert.Error(t, u.Sub(big.NewInt(61)))
	assert.Error(t, u.Set(new(big.Int).Lsh(big.NewInt(1), 256)))
}

func TestAtomic(t *testing.T) {
	ctx := newTestContext()
	raw := NewRaw[uint64](ctx, thor.Bytes32{4})
	require.NoError(t, raw.Set(1))

	err := ctx.Atomic(func() error {
		if err := raw.Set(2); err != nil {
			return err
		}
		ctx.Emit("Changed", 10, thor.Address{}, big.NewInt(2), nil)
		return errors.New("rejected")
	})
	assert.EqualError(t, err, "rejected")

	v, _ := raw.Get()
	assert.Equal(t, uint64(1), v)
	assert.Equal(t, 0, ctx.State().EventCount())

	require.NoError(t, ctx.Atomic(func() error {
		ctx.Emit("Changed", 11, thor.Address{}, nil, nil)
		return raw.Set(3)
	}))
	v, _ = raw.Get()
	assert.Equal(t, uint64(3), v)
	events := ctx.State().Events()
	require.Len(t, events, 1)
	assert.Equal(t, 0, events[0].Amount.Sign())
	assert.Equal(t, ctx.Address(), events[0].Emitter)
}

func TestAtomicPanicReverts(t *testing.T) {
	ctx := newTestContext()
	raw := NewRaw[uint64](ctx, thor.Bytes32{5})

	assert.Panics(t, func() {
		_ = ctx.Atomic(func() error {
			_ = raw.Set(9)
			panic("boom")
		})
	})
	v, _ := raw.Get()
	assert.Equal(t, uint64(0), v)
}

func TestAtomicNested(t *testing.T) {
	ctx := newTestContext()
	raw := NewRaw[uint64](ctx, thor.Bytes32{6})

	require.NoError(t, ctx.Atomic(func() error {
		_ = raw.Set(1)
		_ = ctx.Atomic(func() error {
			_ = raw.Set(2)
			return errors.New("inner")
		})
		return nil
	}))
	v, _ := raw.Get()
	assert.Equal(t, uint64(1), v)
}

func TestAddressSet(t *testing.T) {
	set := NewAddressSet(newTestContext(), thor.Bytes32{7})
	a, b, c := thor.Address{0xa}, thor.Address{0xb}, thor.Address{0xc}

	for _, addr := range []thor.Address{a, b, c} {
		added, err := set.Add(addr)
		require.NoError(t, err)
		assert.True(t, added)
	}
	added, err := set.Add(b)
	require.NoError(t, err)
	assert.False(t, added)

	removed, err := set.Remove(a)
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = set.Remove(a)
	require.NoError(t, err)
	assert.False(t, removed)

	n, _ := set.Len()
	assert.Equal(t, uint64(2), n)
	all, err := set.All()
	require.NoError(t, err)
	assert.ElementsMatch(t, []thor.Address{b, c}, all)

	ok, _ := set.Contains(c)
	assert.True(t, ok)
	ok, _ = set.Contains(a)
	assert.False(t, ok)
}
