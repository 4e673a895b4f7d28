/*
Copyright 2025 ProvaDB Authors

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

package docstore

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPathsOverlap(t *testing.T) {
	require.True(t, pathsOverlap("a", "a"))
	require.True(t, pathsOverlap("a", "a.b"))
	require.True(t, pathsOverlap("a.b", "a"))
	require.True(t, pathsOverlap("a.b.c", "a.b"))

	require.False(t, pathsOverlap("a", "ab"))
	require.False(t, pathsOverlap("ab", "a"))
	require.False(t, pathsOverlap("a.b", "a.c"))
	require.False(t, pathsOverlap("a", "b"))
}

func TestIndexTouchedByMask(t *testing.T) {
	index := &Index{
		Name:   "by_city",
		Fields: []IndexField{{Path: "address.city"}},
	}

	require.True(t, indexTouchedByMask(index, []string{"address.city"}))
	require.True(t, indexTouchedByMask(index, []string{"address"}))
	require.True(t, indexTouchedByMask(index, []string{"address.city.part"}))
	require.True(t, indexTouchedByMask(index, []string{"name", "address"}))

	require.False(t, indexTouchedByMask(index, []string{"name"}))
	require.False(t, indexTouchedByMask(index, []string{"address_line"}))
	require.False(t, indexTouchedByMask(index, nil))
}

func indexerTestCollection() *Collection {
	return &Collection{
		ID:   CollectionID{Block: 1},
		Name: "people",
		Indexes: []*Index{
			{ID: 0, Name: "by_name", Fields: []IndexField{{Path: "name"}}},
			{ID: 1, Name: "by_age", Fields: []IndexField{{Path: "age"}}},
		},
	}
}

func TestDocumentAddOps(t *testing.T) {
	prefix := []byte("p.")
	collection := indexerTestCollection()

	docID := DocumentID{Collection: collection.ID, Entry: DocumentEntryID{Block: 2, Ordinal: 1}}

	doc := map[string]interface{}{"name": "bill"}

	body, err := EncodeDocumentBody(doc)
	require.NoError(t, err)

	env := NewEnvelope(docID, Address{1}, TxID{1}, body)

	ops, err := documentAddOps(prefix, collection, docID, env, doc)
	require.NoError(t, err)

	// One envelope write plus one entry for by_name. The document has no
	// age, so it does not participate in by_age.
	require.Len(t, ops, 2)

	require.Equal(t, documentKey(prefix, docID), ops[0].Key)
	require.Equal(t, env.Bytes(), ops[0].Value)
	require.False(t, ops[0].Delete)

	fk, ok, err := extractFieldKey(doc, collection.Indexes[0].Fields)
	require.NoError(t, err)
	require.True(t, ok)

	require.Equal(t, indexEntryKey(prefix, collection.ID, 0, fk, docID.Entry), ops[1].Key)
	require.Empty(t, ops[1].Value)
	require.False(t, ops[1].Delete)
}

func TestDocumentUpdateOps(t *testing.T) {
	prefix := []byte("p.")
	collection := indexerTestCollection()

	docID := DocumentID{Collection: collection.ID, Entry: DocumentEntryID{Block: 2}}

	oldDoc := map[string]interface{}{"name": "bill", "age": int64(25)}
	newDoc := map[string]interface{}{"name": "bill", "age": int64(26)}

	body, err := EncodeDocumentBody(newDoc)
	require.NoError(t, err)

	env := NewEnvelope(docID, Address{1}, TxID{2}, body)

	t.Run("changed field moves its index entry", func(t *testing.T) {
		ops, err := documentUpdateOps(prefix, collection, docID, env, oldDoc, newDoc, []string{"age"})
		require.NoError(t, err)

		// Envelope write, delete of the old age entry, put of the new one.
		// by_name is skipped entirely because the mask cannot touch it.
		require.Len(t, ops, 3)

		oldFK, _, err := extractFieldKey(oldDoc, collection.Indexes[1].Fields)
		require.NoError(t, err)
		newFK, _, err := extractFieldKey(newDoc, collection.Indexes[1].Fields)
		require.NoError(t, err)

		require.Equal(t, indexEntryKey(prefix, collection.ID, 1, oldFK, docID.Entry), ops[1].Key)
		require.True(t, ops[1].Delete)

		require.Equal(t, indexEntryKey(prefix, collection.ID, 1, newFK, docID.Entry), ops[2].Key)
		require.False(t, ops[2].Delete)
	})

	t.Run("masked but unchanged field costs nothing", func(t *testing.T) {
		ops, err := documentUpdateOps(prefix, collection, docID, env, oldDoc, oldDoc, []string{"age", "name"})
		require.NoError(t, err)
		require.Len(t, ops, 1)
	})

	t.Run("field dropped by the update deletes its entry", func(t *testing.T) {
		dropped := map[string]interface{}{"name": "bill"}

		ops, err := documentUpdateOps(prefix, collection, docID, env, oldDoc, dropped, []string{"age"})
		require.NoError(t, err)
		require.Len(t, ops, 2)
		require.True(t, ops[1].Delete)
	})

	t.Run("field appearing with the update adds an entry", func(t *testing.T) {
		before := map[string]interface{}{"name": "bill"}

		ops, err := documentUpdateOps(prefix, collection, docID, env, before, newDoc, []string{"age"})
		require.NoError(t, err)
		require.Len(t, ops, 2)
		require.False(t, ops[1].Delete)
	})
}

func TestDocumentDeleteOps(t *testing.T) {
	prefix := []byte("p.")
	collection := indexerTestCollection()

	docID := DocumentID{Collection: collection.ID, Entry: DocumentEntryID{Block: 3}}

	doc := map[string]interface{}{"name": "mike", "age": int64(40)}

	ops, err := documentDeleteOps(prefix, collection, docID, doc)
	require.NoError(t, err)

	require.Len(t, ops, 3)

	for _, op := range ops {
		require.True(t, op.Delete)
	}

	require.Equal(t, documentKey(prefix, docID), ops[0].Key)
}
