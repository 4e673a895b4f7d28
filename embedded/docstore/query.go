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
	"context"
	"errors"
	"fmt"

	"github.com/provadb/provadb/embedded/mtree"
	"github.com/provadb/provadb/embedded/store"
)

type ComparisonOperator int

const (
	EQ ComparisonOperator = iota
	LT
	LE
	GT
	GE
)

func (op ComparisonOperator) String() string {
	switch op {
	case EQ:
		return "="
	case LT:
		return "<"
	case LE:
		return "<="
	case GT:
		return ">"
	case GE:
		return ">="
	default:
		return fmt.Sprintf("unknown_operator_%d", int(op))
	}
}

func ParseComparisonOperator(s string) (ComparisonOperator, error) {
	switch s {
	case "=", "==":
		return EQ, nil
	case "<":
		return LT, nil
	case "<=":
		return LE, nil
	case ">":
		return GT, nil
	case ">=":
		return GE, nil
	default:
		return 0, fmt.Errorf("%w: '%s'", ErrUnsupportedOperator, s)
	}
}

// FieldComparison filters documents by comparing one field against a value.
type FieldComparison struct {
	Field string
	Op    ComparisonOperator
	Value interface{}
}

// Query selects documents of a collection. Multiple filters are combined
// with AND and require a matching composite index. No filters means a full
// collection scan. Limit zero asks for the engine's scan max limit.
type Query struct {
	Filters []FieldComparison
	Limit   int
}

// Document is a query or lookup result.
type Document struct {
	ID    DocumentID
	Owner Address
	TxID  TxID
	Body  []byte
}

// scanRange is a planned query: one contiguous key range over either the
// index entry region or the document region of a collection.
type scanRange struct {
	start          []byte
	end            []byte
	inclusiveStart bool
	inclusiveEnd   bool

	// primary scans read envelopes directly instead of index entries.
	primary bool
}

func planQuery(prefix []byte, collection *Collection, filters []FieldComparison) (*scanRange, error) {
	if len(filters) == 0 {
		return &scanRange{
			start:          documentKey(prefix, DocumentID{Collection: collection.ID, Entry: MinDocumentEntryID}),
			end:            documentKey(prefix, DocumentID{Collection: collection.ID, Entry: MaxDocumentEntryID}),
			inclusiveStart: true,
			primary:        true,
		}, nil
	}

	for _, filter := range filters {
		if filter.Field == "" {
			return nil, fmt.Errorf("%w: empty field name", ErrInvalidFilter)
		}
	}

	if len(filters) == 1 {
		return planSingleFilter(prefix, collection, filters[0])
	}

	return planCompositeFilter(prefix, collection, filters)
}

// planSingleFilter picks the first index, in declaration order, whose
// leading field is the filtered one. Range operators additionally need the
// leading field to be ascending, since a byte range over complemented
// encodings would select the wrong half of the key space.
func planSingleFilter(prefix []byte, collection *Collection, filter FieldComparison) (*scanRange, error) {
	covered := false

	for _, index := range collection.Indexes {
		if index.Fields[0].Path != filter.Field {
			continue
		}
		covered = true

		if filter.Op != EQ && index.Fields[0].Descending {
			continue
		}

		probe, err := AppendFieldValue(nil, filter.Value, index.Fields[0].Descending)
		if err != nil {
			return nil, err
		}

		return rangeForOperator(prefix, collection.ID, index.ID, filter.Op, probe), nil
	}

	if covered {
		return nil, fmt.Errorf("%w: range scan on a descending field", ErrUnsupportedOperator)
	}

	return nil, fmt.Errorf("%w: field '%s'", ErrIndexNotFound, filter.Field)
}

// planCompositeFilter requires equality on every field and an index whose
// leading fields are exactly the filtered ones. The probe concatenates the
// encoded values in index declaration order.
func planCompositeFilter(prefix []byte, collection *Collection, filters []FieldComparison) (*scanRange, error) {
	byField := make(map[string]FieldComparison, len(filters))

	for _, filter := range filters {
		if filter.Op != EQ {
			return nil, fmt.Errorf("%w: composite filters support equality only", ErrUnsupportedOperator)
		}

		if _, exists := byField[filter.Field]; exists {
			return nil, fmt.Errorf("%w: duplicated field '%s'", ErrInvalidFilter, filter.Field)
		}
		byField[filter.Field] = filter
	}

	for _, index := range collection.Indexes {
		if len(index.Fields) < len(filters) {
			continue
		}

		matches := true
		for i := 0; i < len(filters); i++ {
			if _, ok := byField[index.Fields[i].Path]; !ok {
				matches = false
				break
			}
		}
		if !matches {
			continue
		}

		var probe []byte
		var err error

		for i := 0; i < len(filters); i++ {
			field := index.Fields[i]

			probe, err = AppendFieldValue(probe, byField[field.Path].Value, field.Descending)
			if err != nil {
				return nil, err
			}
		}

		return rangeForOperator(prefix, collection.ID, index.ID, EQ, probe), nil
	}

	return nil, fmt.Errorf("%w: no composite index over the filtered fields", ErrIndexNotFound)
}

// rangeForOperator builds the scan bounds of one operator. The entry id
// sentinels extend the probe to the smallest and largest keys sharing it,
// and the start of the next index id fences open-ended scans.
func rangeForOperator(prefix []byte, collectionID CollectionID, indexID IndexID, op ComparisonOperator, probe []byte) *scanRange {
	indexStart := indexEntryKey(prefix, collectionID, indexID, nil, MinDocumentEntryID)
	nextIndexStart := indexEntryKey(prefix, collectionID, indexID+1, nil, MinDocumentEntryID)

	probeMin := indexEntryKey(prefix, collectionID, indexID, probe, MinDocumentEntryID)
	probeMax := indexEntryKey(prefix, collectionID, indexID, probe, MaxDocumentEntryID)

	switch op {
	case LT:
		return &scanRange{start: indexStart, inclusiveStart: true, end: probeMin}
	case LE:
		return &scanRange{start: indexStart, inclusiveStart: true, end: probeMax, inclusiveEnd: true}
	case GT:
		return &scanRange{start: probeMax, end: nextIndexStart}
	case GE:
		return &scanRange{start: probeMin, inclusiveStart: true, end: nextIndexStart}
	default:
		return &scanRange{start: probeMin, inclusiveStart: true, end: probeMax, inclusiveEnd: true}
	}
}

// runScan reads a planned range out of one snapshot. Index entries are
// resolved to their envelopes with point lookups against the same snapshot.
// An index entry whose document is gone is logged and skipped rather than
// failing the whole query.
func (e *Engine) runScan(ctx context.Context, snap *store.Snapshot, collection *Collection, r *scanRange, limit int) ([]Document, int, error) {
	reader, err := snap.NewReader(mtree.ReaderSpec{
		SeekKey:       r.start,
		EndKey:        r.end,
		InclusiveSeek: r.inclusiveStart,
		InclusiveEnd:  r.inclusiveEnd,
	})
	if err != nil {
		return nil, 0, err
	}
	defer reader.Close()

	var docs []Document
	scanned := 0

	for len(docs) < limit {
		if err := ctx.Err(); err != nil {
			return nil, scanned, err
		}

		key, value, err := reader.Read()
		if errors.Is(err, mtree.ErrNoMoreEntries) {
			break
		}
		if err != nil {
			return nil, scanned, err
		}

		scanned++

		if r.primary {
			docID, err := decodeDocumentKey(e.prefix, key)
			if err != nil {
				return nil, scanned, err
			}

			doc, err := envelopeToDocument(docID, value)
			if err != nil {
				return nil, scanned, err
			}

			docs = append(docs, *doc)
			continue
		}

		_, _, _, entryID, err := decodeIndexEntryKey(e.prefix, key)
		if err != nil {
			return nil, scanned, err
		}

		docID := DocumentID{Collection: collection.ID, Entry: entryID}

		envBytes, err := snap.Get(documentKey(e.prefix, docID))
		if errors.Is(err, mtree.ErrKeyNotFound) {
			e.logger.Warningf("document %s referenced by an index entry was not found, skipping", docID.Base64())
			continue
		}
		if err != nil {
			return nil, scanned, err
		}

		doc, err := envelopeToDocument(docID, envBytes)
		if err != nil {
			return nil, scanned, err
		}

		docs = append(docs, *doc)
	}

	return docs, scanned, nil
}

func envelopeToDocument(docID DocumentID, envBytes []byte) (*Document, error) {
	env, err := ParseEnvelope(envBytes)
	if err != nil {
		return nil, err
	}

	storedID, err := env.DocumentID()
	if err != nil || storedID != docID {
		return nil, fmt.Errorf("%w: document id mismatch", ErrCorruptedEnvelope)
	}

	owner, err := env.Owner()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptedEnvelope, err)
	}

	txID, err := env.TxID()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptedEnvelope, err)
	}

	body, err := env.Body()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptedEnvelope, err)
	}

	return &Document{ID: docID, Owner: owner, TxID: txID, Body: body}, nil
}
