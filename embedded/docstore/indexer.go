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
	"bytes"
	"strings"

	"github.com/provadb/provadb/embedded/mtree"
)

// documentAddOps emits the write set of a new document: the envelope under
// the document key plus one index entry per index the document participates
// in.
func documentAddOps(prefix []byte, collection *Collection, docID DocumentID, env *Envelope, doc map[string]interface{}) ([]mtree.KVOp, error) {
	ops := []mtree.KVOp{
		{Key: documentKey(prefix, docID), Value: env.Bytes()},
	}

	for _, index := range collection.Indexes {
		fk, ok, err := extractFieldKey(doc, index.Fields)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		ops = append(ops, mtree.KVOp{
			Key: indexEntryKey(prefix, collection.ID, index.ID, fk, docID.Entry),
		})
	}

	return ops, nil
}

// documentUpdateOps emits the write set of an updated document. Indexes
// whose fields cannot have changed under the mask are skipped without
// extracting anything, and an index whose field key is unchanged costs no
// write either.
func documentUpdateOps(prefix []byte, collection *Collection, docID DocumentID, env *Envelope, oldDoc, newDoc map[string]interface{}, mask []string) ([]mtree.KVOp, error) {
	ops := []mtree.KVOp{
		{Key: documentKey(prefix, docID), Value: env.Bytes()},
	}

	for _, index := range collection.Indexes {
		if !indexTouchedByMask(index, mask) {
			continue
		}

		oldFK, oldOK, err := extractFieldKey(oldDoc, index.Fields)
		if err != nil {
			return nil, err
		}

		newFK, newOK, err := extractFieldKey(newDoc, index.Fields)
		if err != nil {
			return nil, err
		}

		if oldOK && newOK && bytes.Equal(oldFK, newFK) {
			continue
		}

		if oldOK {
			ops = append(ops, mtree.KVOp{
				Key:    indexEntryKey(prefix, collection.ID, index.ID, oldFK, docID.Entry),
				Delete: true,
			})
		}

		if newOK {
			ops = append(ops, mtree.KVOp{
				Key: indexEntryKey(prefix, collection.ID, index.ID, newFK, docID.Entry),
			})
		}
	}

	return ops, nil
}

// documentDeleteOps emits the write set removing a document and all of its
// index entries.
func documentDeleteOps(prefix []byte, collection *Collection, docID DocumentID, doc map[string]interface{}) ([]mtree.KVOp, error) {
	ops := []mtree.KVOp{
		{Key: documentKey(prefix, docID), Delete: true},
	}

	for _, index := range collection.Indexes {
		fk, ok, err := extractFieldKey(doc, index.Fields)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		ops = append(ops, mtree.KVOp{
			Key:    indexEntryKey(prefix, collection.ID, index.ID, fk, docID.Entry),
			Delete: true,
		})
	}

	return ops, nil
}

// indexTouchedByMask reports whether an update restricted to the masked
// paths can change the field key of the index. It holds when any masked
// path and any index field are equal or one is a dotted prefix of the
// other: masking "address" can change "address.city", and masking
// "address.city" can change an index on "address".
func indexTouchedByMask(index *Index, mask []string) bool {
	for _, field := range index.Fields {
		for _, path := range mask {
			if pathsOverlap(field.Path, path) {
				return true
			}
		}
	}
	return false
}

func pathsOverlap(a, b string) bool {
	if a == b {
		return true
	}
	return strings.HasPrefix(a, b+".") || strings.HasPrefix(b, a+".")
}
