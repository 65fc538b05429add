// Copyright (c) 2019 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv

// Bucket provides logical bucket for kv store.
type Bucket string

// NewGetter creates a bucket getter from the source getter.
func (b Bucket) NewGetter(src Getter) Getter {
	return &bucketGetter{b, src}
}

// NewPutter creates a bucket putter from the source putter.
func (b Bucket) NewPutter(dst Putter) Putter {
	return &bucketPutter{b, dst}
}

// Key returns the key prefixed with the bucket name.
func (b Bucket) Key(key []byte) []byte {
	return append([]byte(b), key...)
}

// Range returns the key range covering the whole bucket.
func (b Bucket) Range() Range {
	limit := []byte(b)
	for i := len(limit) - 1; i >= 0; i-- {
		if limit[i] < 0xff {
			limit = append([]byte{}, limit[:i+1]...)
			limit[i]++
			return Range{Start: []byte(b), Limit: limit}
		}
	}
	return Range{Start: []byte(b)}
}

type bucketGetter struct {
	bucket Bucket
	src    Getter
}

func (g *bucketGetter) Get(key []byte) ([]byte, error) { return g.src.Get(g.bucket.Key(key)) }
func (g *bucketGetter) Has(key []byte) (bool, error)   { return g.src.Has(g.bucket.Key(key)) }
func (g *bucketGetter) IsNotFound(err error) bool      { return g.src.IsNotFound(err) }

type bucketPutter struct {
	bucket Bucket
	dst    Putter
}

func (p *bucketPutter) Put(key, val []byte) error { return p.dst.Put(p.bucket.Key(key), val) }
func (p *bucketPutter) Delete(key []byte) error   { return p.dst.Delete(p.bucket.Key(key)) }
