/*
Copyright 2025 ProvaDB Inc. All rights reserved.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package mtree

import (
	"bytes"
)

// ReaderSpec describes an ordered scan. An empty SeekKey starts at the first
// key (ascending) or the last one (descending). An empty EndKey leaves the
// scan unbounded on the far side. Prefix restricts the scan to keys carrying
// that prefix.
type ReaderSpec struct {
	SeekKey       []byte
	EndKey        []byte
	Prefix        []byte
	InclusiveSeek bool
	InclusiveEnd  bool
	DescOrder     bool
}

// Reader iterates a tree in key order. It operates on the immutable tree it
// was opened on and remains valid after later batches are applied.
type Reader struct {
	seekKey       []byte
	endKey        []byte
	prefix        []byte
	inclusiveSeek bool
	inclusiveEnd  bool
	descOrder     bool
	stack         []*node
	closed        bool
}

func (t *Tree) NewReader(spec ReaderSpec) (*Reader, error) {
	r := &Reader{
		seekKey:       cp(spec.SeekKey),
		endKey:        cp(spec.EndKey),
		prefix:        cp(spec.Prefix),
		inclusiveSeek: spec.InclusiveSeek,
		inclusiveEnd:  spec.InclusiveEnd,
		descOrder:     spec.DescOrder,
	}

	n := t.root
	for n != nil {
		if r.descOrder {
			if len(r.seekKey) == 0 {
				r.stack = append(r.stack, n)
				n = n.right
				continue
			}

			c := bytes.Compare(n.key, r.seekKey)
			if c < 0 || (c == 0 && r.inclusiveSeek) {
				r.stack = append(r.stack, n)
				n = n.right
			} else {
				n = n.left
			}
			continue
		}

		c := bytes.Compare(n.key, r.seekKey)
		if c > 0 || (c == 0 && r.inclusiveSeek) {
			r.stack = append(r.stack, n)
			n = n.left
		} else {
			n = n.right
		}
	}

	return r, nil
}

// Read returns the next entry in scan order, or ErrNoMoreEntries once the
// range, prefix region or tree is exhausted.
func (r *Reader) Read() (key []byte, value []byte, err error) {
	if r.closed {
		return nil, nil, ErrAlreadyClosed
	}

	for {
		if len(r.stack) == 0 {
			return nil, nil, ErrNoMoreEntries
		}

		n := r.stack[len(r.stack)-1]
		r.stack = r.stack[:len(r.stack)-1]

		if r.descOrder {
			m := n.left
			for m != nil {
				r.stack = append(r.stack, m)
				m = m.right
			}
		} else {
			m := n.right
			for m != nil {
				r.stack = append(r.stack, m)
				m = m.left
			}
		}

		if len(r.endKey) > 0 {
			c := bytes.Compare(n.key, r.endKey)

			if !r.descOrder && (c > 0 || (c == 0 && !r.inclusiveEnd)) {
				return nil, nil, ErrNoMoreEntries
			}

			if r.descOrder && (c < 0 || (c == 0 && !r.inclusiveEnd)) {
				return nil, nil, ErrNoMoreEntries
			}
		}

		if len(r.prefix) == 0 {
			return cp(n.key), cp(n.value), nil
		}

		if len(n.key) >= len(r.prefix) {
			keyPrefix := n.key[:len(r.prefix)]

			if bytes.Equal(r.prefix, keyPrefix) {
				return cp(n.key), cp(n.value), nil
			}

			// terminate scan if prefix won't match
			if !r.descOrder && bytes.Compare(r.prefix, keyPrefix) < 0 {
				return nil, nil, ErrNoMoreEntries
			}

			if r.descOrder && bytes.Compare(r.prefix, keyPrefix) > 0 {
				return nil, nil, ErrNoMoreEntries
			}

			continue
		}

		// key shorter than the prefix: it may still precede the prefix
		// region, in which case the scan goes on
		if !r.descOrder && bytes.Compare(n.key, r.prefix) > 0 {
			return nil, nil, ErrNoMoreEntries
		}

		if r.descOrder && bytes.Compare(n.key, r.prefix) < 0 {
			return nil, nil, ErrNoMoreEntries
		}
	}
}

func (r *Reader) Close() error {
	if r.closed {
		return ErrAlreadyClosed
	}

	r.closed = true
	r.stack = nil

	return nil
}
