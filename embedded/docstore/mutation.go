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
)

// Action is the kind of change a database mutation carries.
type Action int

const (
	ActionCreateDatabase Action = iota
	ActionAddCollection
	ActionAddDocument
	ActionUpdateDocument
	ActionDeleteDocument
)

func (a Action) String() string {
	switch a {
	case ActionCreateDatabase:
		return "create_database"
	case ActionAddCollection:
		return "add_collection"
	case ActionAddDocument:
		return "add_document"
	case ActionUpdateDocument:
		return "update_document"
	case ActionDeleteDocument:
		return "delete_document"
	default:
		return fmt.Sprintf("unknown_action_%d", int(a))
	}
}

// CollectionSpec describes a collection to create. The index set is fixed
// at creation time.
type CollectionSpec struct {
	Name    string
	Indexes []IndexSpec
}

// IndexSpec describes one index of a collection to create.
type IndexSpec struct {
	Name   string
	Fields []IndexField
}

// DocumentMutation addresses one collection and carries the document
// payloads of an add, update or delete. Adds use Bodies only. Updates pair
// IDs, Bodies and Masks position by position. Deletes use IDs only.
type DocumentMutation struct {
	CollectionName string

	Bodies [][]byte
	IDs    []DocumentID
	Masks  [][]string
}

// DatabaseMutation is the unit of change of the engine. Everything it
// describes is applied as a single atomic batch or not at all.
type DatabaseMutation struct {
	Action Action

	Sender Address
	Nonce  uint64
	TxID   TxID

	DatabaseAddress Address

	Description string
	Collections []CollectionSpec

	Documents []DocumentMutation
}

// Validate checks the shape of the mutation against its action. Catalog
// level validation, such as name clashes, happens while the mutation is
// applied.
func (m *DatabaseMutation) Validate() error {
	if m == nil {
		return fmt.Errorf("%w: nil mutation", ErrIllegalArguments)
	}

	switch m.Action {
	case ActionCreateDatabase:
		if len(m.Documents) > 0 {
			return fmt.Errorf("%w: database creation does not carry documents", ErrIllegalArguments)
		}

	case ActionAddCollection:
		if len(m.Collections) == 0 {
			return fmt.Errorf("%w: no collections provided", ErrIllegalArguments)
		}
		if len(m.Documents) > 0 {
			return fmt.Errorf("%w: collection creation does not carry documents", ErrIllegalArguments)
		}

	case ActionAddDocument, ActionUpdateDocument, ActionDeleteDocument:
		if len(m.Collections) > 0 {
			return fmt.Errorf("%w: document mutations do not carry collection specs", ErrIllegalArguments)
		}
		if len(m.Documents) == 0 {
			return fmt.Errorf("%w: no documents provided", ErrIllegalArguments)
		}

		total := 0

		for _, docs := range m.Documents {
			if docs.CollectionName == "" {
				return fmt.Errorf("%w: empty collection name", ErrIllegalArguments)
			}

			switch m.Action {
			case ActionAddDocument:
				if len(docs.Bodies) == 0 {
					return fmt.Errorf("%w: no document bodies provided", ErrIllegalArguments)
				}
				if len(docs.IDs) > 0 || len(docs.Masks) > 0 {
					return fmt.Errorf("%w: document addition carries bodies only", ErrIllegalArguments)
				}
				total += len(docs.Bodies)

			case ActionUpdateDocument:
				if len(docs.IDs) == 0 {
					return fmt.Errorf("%w: no document ids provided", ErrIllegalArguments)
				}
				if len(docs.Bodies) != len(docs.IDs) || len(docs.Masks) != len(docs.IDs) {
					return fmt.Errorf("%w: ids, bodies and masks must pair up", ErrIllegalArguments)
				}
				total += len(docs.IDs)

			case ActionDeleteDocument:
				if len(docs.IDs) == 0 {
					return fmt.Errorf("%w: no document ids provided", ErrIllegalArguments)
				}
				if len(docs.Bodies) > 0 || len(docs.Masks) > 0 {
					return fmt.Errorf("%w: document deletion carries ids only", ErrIllegalArguments)
				}
				total += len(docs.IDs)
			}
		}

		if total > math.MaxUint16 {
			return fmt.Errorf("%w: too many documents in one mutation", ErrIllegalArguments)
		}

	default:
		return fmt.Errorf("%w: unknown action %d", ErrIllegalArguments, int(m.Action))
	}

	return nil
}
