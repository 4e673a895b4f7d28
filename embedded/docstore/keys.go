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
	"encoding/binary"
	"fmt"
)

// Key space regions. Every key written by the engine starts with the
// engine prefix followed by one of these mappings, so entries of different
// kinds never interleave in a scan.
const (
	// DatabasePrefix maps a database address to its catalog record.
	DatabasePrefix = "D."

	// CollectionPrefix maps a collection id to its catalog record.
	CollectionPrefix = "C."

	// DocumentPrefix maps a document id to its envelope.
	DocumentPrefix = "R."

	// IndexEntryPrefix maps (collection, index, field key, entry) to an
	// empty value. Index entries carry all information in the key itself.
	IndexEntryPrefix = "S."

	// OwnerPrefix maps (owner, block, order) to a database address, so the
	// databases of one owner can be listed with a single prefix scan.
	OwnerPrefix = "O."
)

func mapKey(prefix []byte, mapping string, encValues ...[]byte) []byte {
	mkeyLen := len(prefix) + len(mapping)
	for _, ev := range encValues {
		mkeyLen += len(ev)
	}

	mkey := make([]byte, mkeyLen)

	off := copy(mkey, prefix)
	off += copy(mkey[off:], mapping)
	for _, ev := range encValues {
		off += copy(mkey[off:], ev)
	}

	return mkey
}

func databaseKey(prefix []byte, addr Address) []byte {
	return mapKey(prefix, DatabasePrefix, addr[:])
}

func collectionKey(prefix []byte, id CollectionID) []byte {
	return mapKey(prefix, CollectionPrefix, id.Bytes())
}

func documentKey(prefix []byte, id DocumentID) []byte {
	return mapKey(prefix, DocumentPrefix, id.Collection.Bytes(), id.Entry.Bytes())
}

func indexEntryKey(prefix []byte, collectionID CollectionID, indexID IndexID, fieldKey FieldKey, entryID DocumentEntryID) []byte {
	return mapKey(prefix, IndexEntryPrefix, collectionID.Bytes(), indexID.Bytes(), fieldKey, entryID.Bytes())
}

func ownerKey(prefix []byte, owner Address, block uint64, order uint32) []byte {
	var pos [12]byte
	binary.BigEndian.PutUint64(pos[:], block)
	binary.BigEndian.PutUint32(pos[8:], order)

	return mapKey(prefix, OwnerPrefix, owner[:], pos[:])
}

func hasRegion(prefix, key []byte, mapping string) bool {
	if len(key) < len(prefix)+len(mapping) {
		return false
	}

	return bytes.HasPrefix(key, prefix) && bytes.HasPrefix(key[len(prefix):], []byte(mapping))
}

func decodeDocumentKey(prefix, key []byte) (DocumentID, error) {
	if !hasRegion(prefix, key, DocumentPrefix) {
		return DocumentID{}, fmt.Errorf("%w: not a document key", ErrCorruptedKey)
	}

	enc := key[len(prefix)+len(DocumentPrefix):]
	if len(enc) != DocumentIDLen {
		return DocumentID{}, fmt.Errorf("%w: unexpected document key length %d", ErrCorruptedKey, len(key))
	}

	collectionID, err := CollectionIDFromBytes(enc[:CollectionIDLen])
	if err != nil {
		return DocumentID{}, err
	}

	entryID, err := DocumentEntryIDFromBytes(enc[CollectionIDLen:])
	if err != nil {
		return DocumentID{}, err
	}

	return DocumentID{Collection: collectionID, Entry: entryID}, nil
}

// decodeIndexEntryKey splits an index entry key into its components. The
// field key is variable length, so it is recovered as whatever sits between
// the fixed-width head and the fixed-width entry id tail.
func decodeIndexEntryKey(prefix, key []byte) (CollectionID, IndexID, FieldKey, DocumentEntryID, error) {
	if !hasRegion(prefix, key, IndexEntryPrefix) {
		return CollectionID{}, 0, nil, DocumentEntryID{}, fmt.Errorf("%w: not an index entry key", ErrCorruptedKey)
	}

	enc := key[len(prefix)+len(IndexEntryPrefix):]
	if len(enc) < CollectionIDLen+IndexIDLen+DocumentEntryIDLen {
		return CollectionID{}, 0, nil, DocumentEntryID{}, fmt.Errorf("%w: index entry key too short", ErrCorruptedKey)
	}

	collectionID, err := CollectionIDFromBytes(enc[:CollectionIDLen])
	if err != nil {
		return CollectionID{}, 0, nil, DocumentEntryID{}, err
	}

	indexID := IndexID(binary.BigEndian.Uint16(enc[CollectionIDLen:]))

	fieldKey := FieldKey(enc[CollectionIDLen+IndexIDLen : len(enc)-DocumentEntryIDLen])

	entryID, err := DocumentEntryIDFromBytes(enc[len(enc)-DocumentEntryIDLen:])
	if err != nil {
		return CollectionID{}, 0, nil, DocumentEntryID{}, err
	}

	return collectionID, indexID, fieldKey, entryID, nil
}
