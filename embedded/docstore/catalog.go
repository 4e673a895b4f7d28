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
	"fmt"
	"math"

	"github.com/vmihailenco/msgpack/v5"
)

const (
	// MaxNumberOfFieldsInIndex limits how many fields one index may combine.
	MaxNumberOfFieldsInIndex = 8

	// MaxNumberOfIndexesInCollection keeps index ids well inside the uint16
	// space and bounds the write amplification of a single document.
	MaxNumberOfIndexesInCollection = 256
)

// IndexField is one field of an index: a dotted path into the document and
// the ordering direction of the field within the index.
type IndexField struct {
	Path       string `msgpack:"path"`
	Descending bool   `msgpack:"descending"`
}

// Index describes a secondary index of a collection. The index set of a
// collection is fixed at collection creation, so ids are dense ordinals.
type Index struct {
	ID     IndexID      `msgpack:"id"`
	Name   string       `msgpack:"name"`
	Fields []IndexField `msgpack:"fields"`
}

// Collection groups documents that share a set of indexes.
type Collection struct {
	ID              CollectionID `msgpack:"id"`
	DatabaseAddress Address      `msgpack:"database_address"`
	Name            string       `msgpack:"name"`
	Indexes         []*Index     `msgpack:"indexes"`
}

// Database is the catalog record of one database: its owner, its
// collections and the ids of the transactions that changed its structure.
type Database struct {
	Address     Address       `msgpack:"address"`
	Owner       Address       `msgpack:"owner"`
	Description string        `msgpack:"description"`
	TxHistory   []TxID        `msgpack:"tx_history"`
	Collections []*Collection `msgpack:"collections"`
}

func validateCollectionSpecs(specs []CollectionSpec) error {
	if len(specs) > math.MaxUint16 {
		return fmt.Errorf("%w: too many collections in one mutation", ErrIllegalArguments)
	}

	names := make(map[string]struct{}, len(specs))

	for _, spec := range specs {
		if spec.Name == "" {
			return fmt.Errorf("%w: empty collection name", ErrIllegalArguments)
		}

		if _, exists := names[spec.Name]; exists {
			return fmt.Errorf("%w: '%s'", ErrCollectionAlreadyExists, spec.Name)
		}
		names[spec.Name] = struct{}{}

		err := validateIndexSpecs(spec.Indexes)
		if err != nil {
			return err
		}
	}

	return nil
}

func validateIndexSpecs(specs []IndexSpec) error {
	if len(specs) > MaxNumberOfIndexesInCollection {
		return ErrMaxNumberOfIndexesExceeded
	}

	names := make(map[string]struct{}, len(specs))

	for _, spec := range specs {
		if spec.Name == "" {
			return fmt.Errorf("%w: empty index name", ErrIllegalArguments)
		}

		if _, exists := names[spec.Name]; exists {
			return fmt.Errorf("%w: '%s'", ErrIndexAlreadyExists, spec.Name)
		}
		names[spec.Name] = struct{}{}

		if len(spec.Fields) == 0 {
			return fmt.Errorf("%w: index '%s' has no fields", ErrIllegalArguments, spec.Name)
		}

		if len(spec.Fields) > MaxNumberOfFieldsInIndex {
			return ErrMaxNumberOfFieldsInIndexExceeded
		}

		paths := make(map[string]struct{}, len(spec.Fields))

		for _, field := range spec.Fields {
			if field.Path == "" {
				return fmt.Errorf("%w: index '%s' has an empty field path", ErrIllegalArguments, spec.Name)
			}

			if _, exists := paths[field.Path]; exists {
				return fmt.Errorf("%w: duplicated field '%s' in index '%s'", ErrIllegalArguments, field.Path, spec.Name)
			}
			paths[field.Path] = struct{}{}
		}
	}

	return nil
}

func newCollection(spec CollectionSpec, id CollectionID, dbAddr Address) *Collection {
	collection := &Collection{
		ID:              id,
		DatabaseAddress: dbAddr,
		Name:            spec.Name,
	}

	for i, indexSpec := range spec.Indexes {
		collection.Indexes = append(collection.Indexes, &Index{
			ID:     IndexID(i),
			Name:   indexSpec.Name,
			Fields: indexSpec.Fields,
		})
	}

	return collection
}

func newDatabase(addr, owner Address, description string, txID TxID, specs []CollectionSpec, block uint64, order uint32) (*Database, error) {
	err := validateCollectionSpecs(specs)
	if err != nil {
		return nil, err
	}

	db := &Database{
		Address:     addr,
		Owner:       owner,
		Description: description,
		TxHistory:   []TxID{txID},
	}

	for i, spec := range specs {
		id := CollectionID{Block: block, Order: order, Ordinal: uint16(i)}
		db.Collections = append(db.Collections, newCollection(spec, id, addr))
	}

	return db, nil
}

// addCollections extends the database with new collections. Collection ids
// restart their ordinal at zero for every mutation, which is unambiguous
// because the (block, order) pair already identifies the mutation.
func (db *Database) addCollections(specs []CollectionSpec, txID TxID, block uint64, order uint32) ([]*Collection, error) {
	err := validateCollectionSpecs(specs)
	if err != nil {
		return nil, err
	}

	for _, spec := range specs {
		if _, exists := db.collection(spec.Name); exists {
			return nil, fmt.Errorf("%w: '%s'", ErrCollectionAlreadyExists, spec.Name)
		}
	}

	added := make([]*Collection, 0, len(specs))

	for i, spec := range specs {
		id := CollectionID{Block: block, Order: order, Ordinal: uint16(i)}

		collection := newCollection(spec, id, db.Address)
		db.Collections = append(db.Collections, collection)
		added = append(added, collection)
	}

	db.TxHistory = append(db.TxHistory, txID)

	return added, nil
}

func (db *Database) collection(name string) (*Collection, bool) {
	for _, collection := range db.Collections {
		if collection.Name == name {
			return collection, true
		}
	}
	return nil, false
}

func encodeDatabase(db *Database) ([]byte, error) {
	return msgpack.Marshal(db)
}

func decodeDatabase(b []byte) (*Database, error) {
	var db Database

	err := msgpack.Unmarshal(b, &db)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptedRecord, err)
	}

	return &db, nil
}

func encodeCollection(collection *Collection) ([]byte, error) {
	return msgpack.Marshal(collection)
}

func decodeCollection(b []byte) (*Collection, error) {
	var collection Collection

	err := msgpack.Unmarshal(b, &collection)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptedRecord, err)
	}

	return &collection, nil
}
