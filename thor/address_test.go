// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package thor

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAddress(t *testing.T) {
	addr, err := ParseAddress("0x7567d83b7b8d80addcb281a71d54fc7b3364ffed")
	assert.NoError(t, err)
	assert.Equal(t, "0x7567d83b7b8d80addcb281a71d54fc7b3364ffed", addr.String())

	_, err = ParseAddress("7567d83b7b8d80addcb281a71d54fc7b3364ffed")
	assert.NoError(t, err)

	_, err = ParseAddress("1x7567d83b7b8d80addcb281a71d54fc7b3364ffed")
	assert.EqualError(t, err, "invalid prefix")

	_, err = ParseAddress("0x7567")
	assert.EqualError(t, err, "invalid length")
}

func TestAddressJSON(t *testing.T) {
	addr := BytesToAddress([]byte("sponsor"))

	data, err := json.Marshal(&addr)
	assert.NoError(t, err)

	var decoded Address
	assert.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, addr, decoded)
}

func TestCreateContractAddress(t *testing.T) {
	creator := BytesToAddress([]byte("factory"))

	a0 := CreateContractAddress(creator, 0)
	a1 := CreateContractAddress(creator, 1)

	assert.NotEqual(t, a0, a1)
	assert.Equal(t, a0, CreateContractAddress(creator, 0))
	assert.False(t, a0.IsZero())
}

func TestBlake2b(t *testing.T) {
	assert.Equal(t, Blake2b([]byte("ab")), Blake2b([]byte("a"), []byte("b")))
	assert.False(t, Blake2b([]byte("a")).IsZero())
}

func TestSlot(t *testing.T) {
	s := Slot("config")
	assert.Equal(t, BytesToBytes32([]byte("config")), s)
	assert.NotEqual(t, s, Slot("globals"))
	assert.Equal(t, Blake2b([]byte("k"), s.Bytes()), s.Child([]byte("k")))
	assert.NotEqual(t, s.Child([]byte("a")), s.Child([]byte("b")))
}
