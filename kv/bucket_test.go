// Copyright (c) 2019 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

var errNotFound = errors.New("not found")

type mapStore map[string][]byte

func (m mapStore) Get(key []byte) ([]byte, error) {
	if v, ok := m[string(key)]; ok {
		return v, nil
	}
	return nil, errNotFound
}

func (m mapStore) Has(key []byte) (bool, error) {
	_, ok := m[string(key)]
	return ok, nil
}

func (m mapStore) IsNotFound(err error) bool { return errors.Is(err, errNotFound) }

func (m mapStore) Put(key, val []byte) error {
	m[string(key)] = val
	return nil
}

func (m mapStore) Delete(key []byte) error {
	delete(m, string(key))
	return nil
}

func TestBucket(t *testing.T) {
	store := mapStore{}
	b := Bucket("s.")

	assert.NoError(t, b.NewPutter(store).Put([]byte("k"), []byte("v")))
	assert.Equal(t, []byte("v"), store["s.k"])

	v, err := b.NewGetter(store).Get([]byte("k"))
	assert.NoError(t, err)
	assert.Equal(t, []byte("v"), v)

	_, err = b.NewGetter(store).Get([]byte("x"))
	assert.True(t, b.NewGetter(store).IsNotFound(err))

	assert.NoError(t, b.NewPutter(store).Delete([]byte("k")))
	has, err := b.NewGetter(store).Has([]byte("k"))
	assert.NoError(t, err)
	assert.False(t, has)
}

func TestBucketRange(t *testing.T) {
	r := Bucket("ab").Range()
	assert.Equal(t, []byte("ab"), r.Start)
	assert.Equal(t, []byte("ac"), r.Limit)

	r = Bucket(string([]byte{0x01, 0xff})).Range()
	assert.Equal(t, []byte{0x02}, r.Limit)

	r = Bucket(string([]byte{0xff})).Range()
	assert.Nil(t, r.Limit)
}
