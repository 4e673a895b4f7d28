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
	"crypto/sha256"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEmptyTree(t *testing.T) {
	tree := New()

	require.Equal(t, uint64(0), tree.Entries())
	require.Equal(t, sha256.Sum256(nil), tree.Root())

	_, err := tree.Get([]byte("missing"))
	require.ErrorIs(t, err, ErrKeyNotFound)

	_, err = tree.Get(nil)
	require.ErrorIs(t, err, ErrIllegalArguments)
}

func TestApplyAndGet(t *testing.T) {
	tree := New()

	ops := make([]KVOp, 10)
	for i := 0; i < 10; i++ {
		ops[i] = KVOp{
			Key:   []byte(fmt.Sprintf("key_%03d", i)),
			Value: []byte(fmt.Sprintf("val_%03d", i)),
		}
	}

	tree1, err := tree.Apply(ops)
	require.NoError(t, err)
	require.Equal(t, uint64(10), tree1.Entries())

	for i := 0; i < 10; i++ {
		v, err := tree1.Get([]byte(fmt.Sprintf("key_%03d", i)))
		require.NoError(t, err)
		require.Equal(t, []byte(fmt.Sprintf("val_%03d", i)), v)
	}

	// replacing a value must not grow the entry count
	tree2, err := tree1.Apply([]KVOp{{Key: []byte("key_003"), Value: []byte("replaced")}})
	require.NoError(t, err)
	require.Equal(t, uint64(10), tree2.Entries())

	v, err := tree2.Get([]byte("key_003"))
	require.NoError(t, err)
	require.Equal(t, []byte("replaced"), v)

	// deletion
	tree3, err := tree2.Apply([]KVOp{{Key: []byte("key_003"), Delete: true}})
	require.NoError(t, err)
	require.Equal(t, uint64(9), tree3.Entries())

	_, err = tree3.Get([]byte("key_003"))
	require.ErrorIs(t, err, ErrKeyNotFound)
}

func TestApplyValidations(t *testing.T) {
	tree := New()

	_, err := tree.Apply(nil)
	require.ErrorIs(t, err, ErrNoEntriesProvided)

	_, err = tree.Apply([]KVOp{{Key: nil, Value: []byte("v")}})
	require.ErrorIs(t, err, ErrIllegalArguments)

	_, err = tree.Apply([]KVOp{
		{Key: []byte("b"), Value: []byte("v")},
		{Key: []byte("a"), Value: []byte("v")},
	})
	require.ErrorIs(t, err, ErrUnsortedBatch)

	_, err = tree.Apply([]KVOp{
		{Key: []byte("a"), Value: []byte("v1")},
		{Key: []byte("a"), Value: []byte("v2")},
	})
	require.ErrorIs(t, err, ErrDuplicateKeyInBatch)

	_, err = tree.Apply([]KVOp{{Key: []byte("missing"), Delete: true}})
	require.ErrorIs(t, err, ErrKeyNotFound)
}

func TestApplyIsAllOrNothing(t *testing.T) {
	tree, err := New().Apply([]KVOp{
		{Key: []byte("a"), Value: []byte("1")},
		{Key: []byte("b"), Value: []byte("2")},
	})
	require.NoError(t, err)

	root := tree.Root()

	// second op fails, the first must not leak into the original tree
	_, err = tree.Apply([]KVOp{
		{Key: []byte("c"), Value: []byte("3")},
		{Key: []byte("z"), Delete: true},
	})
	require.ErrorIs(t, err, ErrKeyNotFound)

	require.Equal(t, root, tree.Root())
	require.Equal(t, uint64(2), tree.Entries())

	_, err = tree.Get([]byte("c"))
	require.ErrorIs(t, err, ErrKeyNotFound)
}

func TestRootDependsOnContentOnly(t *testing.T) {
	// same final content reached through different histories
	t1, err := New().Apply([]KVOp{
		{Key: []byte("a"), Value: []byte("1")},
		{Key: []byte("b"), Value: []byte("2")},
		{Key: []byte("c"), Value: []byte("3")},
		{Key: []byte("d"), Value: []byte("4")},
	})
	require.NoError(t, err)

	t2, err := New().Apply([]KVOp{
		{Key: []byte("b"), Value: []byte("2")},
		{Key: []byte("d"), Value: []byte("4")},
	})
	require.NoError(t, err)
	t2, err = t2.Apply([]KVOp{
		{Key: []byte("a"), Value: []byte("old")},
		{Key: []byte("c"), Value: []byte("3")},
	})
	require.NoError(t, err)
	t2, err = t2.Apply([]KVOp{
		{Key: []byte("a"), Value: []byte("1")},
		{Key: []byte("x"), Value: []byte("tmp")},
	})
	require.NoError(t, err)
	t2, err = t2.Apply([]KVOp{{Key: []byte("x"), Delete: true}})
	require.NoError(t, err)

	require.Equal(t, t1.Entries(), t2.Entries())
	require.Equal(t, t1.Root(), t2.Root())

	// different content, different root
	t3, err := t1.Apply([]KVOp{{Key: []byte("a"), Value: []byte("other")}})
	require.NoError(t, err)
	require.NotEqual(t, t1.Root(), t3.Root())
}

func TestTreeSnapshotsAreImmutable(t *testing.T) {
	t1, err := New().Apply([]KVOp{
		{Key: []byte("k1"), Value: []byte("v1")},
		{Key: []byte("k2"), Value: []byte("v2")},
	})
	require.NoError(t, err)

	root1 := t1.Root()

	t2, err := t1.Apply([]KVOp{
		{Key: []byte("k1"), Value: []byte("v1-bis")},
		{Key: []byte("k3"), Value: []byte("v3")},
	})
	require.NoError(t, err)

	require.Equal(t, root1, t1.Root())
	require.Equal(t, uint64(2), t1.Entries())

	v, err := t1.Get([]byte("k1"))
	require.NoError(t, err)
	require.Equal(t, []byte("v1"), v)

	_, err = t1.Get([]byte("k3"))
	require.ErrorIs(t, err, ErrKeyNotFound)

	v, err = t2.Get([]byte("k1"))
	require.NoError(t, err)
	require.Equal(t, []byte("v1-bis"), v)
}

func TestReturnedSlicesAreCopies(t *testing.T) {
	tree, err := New().Apply([]KVOp{{Key: []byte("k"), Value: []byte("value")}})
	require.NoError(t, err)

	v, err := tree.Get([]byte("k"))
	require.NoError(t, err)

	v[0] = 'X'

	v2, err := tree.Get([]byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte("value"), v2)
}

func TestInsertionOrderDoesNotAffectRoot(t *testing.T) {
	const n = 512

	keys := make([][]byte, n)
	for i := 0; i < n; i++ {
		keys[i] = []byte(fmt.Sprintf("key_%05d", i))
	}

	sorted := make([]KVOp, n)
	for i, k := range keys {
		sorted[i] = KVOp{Key: k, Value: k}
	}

	bulk, err := New().Apply(sorted)
	require.NoError(t, err)
	require.Equal(t, uint64(n), bulk.Entries())

	seed := rand.New(rand.NewSource(1))
	shuffled := New()
	for _, i := range seed.Perm(n) {
		shuffled, err = shuffled.Apply([]KVOp{{Key: keys[i], Value: keys[i]}})
		require.NoError(t, err)
	}

	require.Equal(t, bulk.Root(), shuffled.Root())
	require.Equal(t, bulk.Entries(), shuffled.Entries())
}
