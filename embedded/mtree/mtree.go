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

// Package mtree implements an in-memory Merkle treap: an ordered key-value
// tree where every node carries a sha256 digest covering its entry and both
// subtrees, so the root digest commits to the full content of the tree.
//
// Node priorities are derived from the key bytes, which makes the tree shape
// a pure function of the stored key set: two trees holding the same entries
// have the same root digest no matter the order of the operations that
// produced them.
//
// Trees are immutable. Apply returns a new tree sharing unmodified subtrees
// with the original (path copying), so any *Tree value is a stable snapshot
// safe for concurrent reads.
package mtree

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/provadb/provadb/embedded"
)

var (
	ErrIllegalArguments    = embedded.ErrIllegalArguments
	ErrAlreadyClosed       = embedded.ErrAlreadyClosed
	ErrKeyNotFound         = embedded.ErrKeyNotFound
	ErrNoMoreEntries       = embedded.ErrNoMoreEntries
	ErrNoEntriesProvided   = errors.New("no entries provided")
	ErrUnsortedBatch       = errors.New("batch keys are not in ascending order")
	ErrDuplicateKeyInBatch = errors.New("duplicated key in batch")
)

const LeafPrefix = byte(0)
const NodePrefix = byte(1)

var emptyDigest = sha256.Sum256(nil)

// KVOp is a single operation inside an atomic batch: a put of Key to Value,
// or, when Delete is set, the removal of Key.
type KVOp struct {
	Key    []byte
	Value  []byte
	Delete bool
}

type node struct {
	key    []byte
	value  []byte
	prio   uint64
	kvd    [sha256.Size]byte
	digest [sha256.Size]byte
	left   *node
	right  *node
}

// Tree is an immutable ordered key-value tree with a content-addressed root.
type Tree struct {
	root    *node
	entries uint64
}

// New returns an empty tree.
func New() *Tree {
	return &Tree{}
}

// Entries returns the number of live entries.
func (t *Tree) Entries() uint64 {
	return t.entries
}

// Root returns the digest committing to the current content of the tree.
// The root of an empty tree is the sha256 of an empty input.
func (t *Tree) Root() [sha256.Size]byte {
	if t.root == nil {
		return emptyDigest
	}
	return t.root.digest
}

// Get returns a copy of the value stored under key.
func (t *Tree) Get(key []byte) ([]byte, error) {
	if len(key) == 0 {
		return nil, fmt.Errorf("%w: empty key", ErrIllegalArguments)
	}

	n := t.root
	for n != nil {
		c := bytes.Compare(key, n.key)
		if c == 0 {
			return cp(n.value), nil
		}
		if c < 0 {
			n = n.left
		} else {
			n = n.right
		}
	}

	return nil, ErrKeyNotFound
}

// Apply atomically applies a batch of operations and returns the resulting
// tree. Keys must be presented in strictly ascending order. The receiver is
// never modified: on any error the previous content remains intact.
func (t *Tree) Apply(ops []KVOp) (*Tree, error) {
	if len(ops) == 0 {
		return nil, ErrNoEntriesProvided
	}

	root := t.root
	entries := t.entries

	var lastKey []byte

	for i, op := range ops {
		if len(op.Key) == 0 {
			return nil, fmt.Errorf("%w: empty key", ErrIllegalArguments)
		}

		if i > 0 {
			c := bytes.Compare(lastKey, op.Key)
			if c == 0 {
				return nil, ErrDuplicateKeyInBatch
			}
			if c > 0 {
				return nil, ErrUnsortedBatch
			}
		}
		lastKey = op.Key

		if op.Delete {
			nr, err := del(root, op.Key)
			if err != nil {
				return nil, err
			}
			root = nr
			entries--
			continue
		}

		nr, replaced := put(root, op.Key, op.Value)
		root = nr
		if !replaced {
			entries++
		}
	}

	return &Tree{root: root, entries: entries}, nil
}

func cp(s []byte) []byte {
	if len(s) == 0 {
		return nil
	}

	c := make([]byte, len(s))
	copy(c, s)

	return c
}

func kvDigest(key, value []byte) [sha256.Size]byte {
	h := sha256.New()

	var b [5]byte
	b[0] = LeafPrefix
	binary.BigEndian.PutUint32(b[1:], uint32(len(key)))

	h.Write(b[:])
	h.Write(key)
	h.Write(value)

	var d [sha256.Size]byte
	copy(d[:], h.Sum(nil))
	return d
}

func nodeDigest(kvd, ld, rd [sha256.Size]byte) [sha256.Size]byte {
	b := [1 + 3*sha256.Size]byte{NodePrefix}
	copy(b[1:], kvd[:])
	copy(b[1+sha256.Size:], ld[:])
	copy(b[1+2*sha256.Size:], rd[:])
	return sha256.Sum256(b[:])
}

// prioOf derives the heap priority of a node from its key, detaching the
// tree shape from operation history.
func prioOf(key []byte) uint64 {
	d := sha256.Sum256(key)
	return binary.BigEndian.Uint64(d[:8])
}

func newNode(key, value []byte) *node {
	n := &node{
		key:   cp(key),
		value: cp(value),
		prio:  prioOf(key),
		kvd:   kvDigest(key, value),
	}
	update(n)
	return n
}

func (n *node) clone() *node {
	c := *n
	return &c
}

func digestOf(n *node) [sha256.Size]byte {
	if n == nil {
		return emptyDigest
	}
	return n.digest
}

func update(n *node) {
	n.digest = nodeDigest(n.kvd, digestOf(n.left), digestOf(n.right))
}

// higherPrio is the strict total order used for the heap property. Keys are
// unique, so the key comparison settles priority collisions.
func higherPrio(a, b *node) bool {
	if a.prio != b.prio {
		return a.prio > b.prio
	}
	return bytes.Compare(a.key, b.key) < 0
}

func rotateRight(n *node) *node {
	l := n.left.clone()
	n.left = l.right
	l.right = n
	update(n)
	update(l)
	return l
}

func rotateLeft(n *node) *node {
	r := n.right.clone()
	n.right = r.left
	r.left = n
	update(n)
	update(r)
	return r
}

func put(n *node, key, value []byte) (*node, bool) {
	if n == nil {
		return newNode(key, value), false
	}

	c := bytes.Compare(key, n.key)

	nn := n.clone()

	switch {
	case c < 0:
		l, replaced := put(n.left, key, value)
		nn.left = l
		update(nn)
		if higherPrio(nn.left, nn) {
			return rotateRight(nn), replaced
		}
		return nn, replaced
	case c > 0:
		r, replaced := put(n.right, key, value)
		nn.right = r
		update(nn)
		if higherPrio(nn.right, nn) {
			return rotateLeft(nn), replaced
		}
		return nn, replaced
	default:
		nn.value = cp(value)
		nn.kvd = kvDigest(nn.key, nn.value)
		update(nn)
		return nn, true
	}
}

func del(n *node, key []byte) (*node, error) {
	if n == nil {
		return nil, ErrKeyNotFound
	}

	c := bytes.Compare(key, n.key)

	if c < 0 {
		l, err := del(n.left, key)
		if err != nil {
			return nil, err
		}
		nn := n.clone()
		nn.left = l
		update(nn)
		return nn, nil
	}

	if c > 0 {
		r, err := del(n.right, key)
		if err != nil {
			return nil, err
		}
		nn := n.clone()
		nn.right = r
		update(nn)
		return nn, nil
	}

	return merge(n.left, n.right), nil
}

// merge joins two trees where every key of a precedes every key of b.
func merge(a, b *node) *node {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}

	if higherPrio(a, b) {
		nn := a.clone()
		nn.right = merge(a.right, b)
		update(nn)
		return nn
	}

	nn := b.clone()
	nn.left = merge(a, b.left)
	update(nn)
	return nn
}
