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

// Package docstore implements a decentralized document database on top of
// an authenticated key-value store. Databases belong to an owner address
// and group collections of schemaless documents. Every mutation is applied
// as one atomic batch, queries run as ordered range scans over secondary
// index entries, and any stored document can be proven against the store
// root with an inclusion proof.
package docstore

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/provadb/provadb/embedded/logger"
	"github.com/provadb/provadb/embedded/mtree"
	"github.com/provadb/provadb/embedded/store"
)

type Engine struct {
	store *store.Store

	prefix []byte

	scanMaxLimit int

	logger    logger.Logger
	metricsID string

	// mutex serializes mutations. Reads are served from snapshots and do
	// not take it.
	mutex sync.Mutex
}

func NewEngine(st *store.Store, opts *Options) (*Engine, error) {
	if st == nil {
		return nil, ErrIllegalArguments
	}

	err := opts.Validate()
	if err != nil {
		return nil, err
	}

	e := &Engine{
		store:        st,
		prefix:       make([]byte, len(opts.prefix)),
		scanMaxLimit: opts.scanMaxLimit,
		logger:       opts.logger,
		metricsID:    st.Path(),
	}
	copy(e.prefix, opts.prefix)

	return e, nil
}

// MutationResult reports what a mutation changed: the address of the
// affected database, the collections it created and the ids of the
// documents it wrote or deleted.
type MutationResult struct {
	DatabaseAddress Address
	TxID            TxID
	Collections     []*Collection
	DocumentIDs     []DocumentID
}

// ApplyMutation validates and applies one database mutation at the given
// position of the mutation log. All writes of the mutation reach the store
// as a single batch, so a failing mutation leaves no trace.
func (e *Engine) ApplyMutation(ctx context.Context, m *DatabaseMutation, block uint64, order uint32) (*MutationResult, error) {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	result, err := e.applyMutation(ctx, m, block, order)
	if err != nil {
		if m != nil {
			metricsMutationErrors.WithLabelValues(e.metricsID, m.Action.String()).Inc()
		}
		return nil, err
	}

	metricsMutations.WithLabelValues(e.metricsID, m.Action.String()).Inc()

	return result, nil
}

func (e *Engine) applyMutation(ctx context.Context, m *DatabaseMutation, block uint64, order uint32) (*MutationResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	err := m.Validate()
	if err != nil {
		return nil, err
	}

	switch m.Action {
	case ActionCreateDatabase:
		return e.createDatabase(m, block, order)
	case ActionAddCollection:
		return e.addCollections(m, block, order)
	case ActionAddDocument:
		return e.addDocuments(m, block, order)
	case ActionUpdateDocument:
		return e.updateDocuments(m, block, order)
	case ActionDeleteDocument:
		return e.deleteDocuments(m, block, order)
	default:
		return nil, fmt.Errorf("%w: unknown action %d", ErrIllegalArguments, int(m.Action))
	}
}

func (e *Engine) createDatabase(m *DatabaseMutation, block uint64, order uint32) (*MutationResult, error) {
	addr := NewDatabaseAddress(m.Sender, m.Nonce)

	if m.DatabaseAddress != (Address{}) && m.DatabaseAddress != addr {
		return nil, fmt.Errorf("%w: database address does not match its derivation", ErrIllegalArguments)
	}

	_, err := e.store.Get(databaseKey(e.prefix, addr))
	if err == nil {
		return nil, fmt.Errorf("%w: '%s'", ErrDatabaseAlreadyExists, addr.Hex())
	}
	if !errors.Is(err, ErrKeyNotFound) {
		return nil, err
	}

	db, err := newDatabase(addr, m.Sender, m.Description, m.TxID, m.Collections, block, order)
	if err != nil {
		return nil, err
	}

	encDB, err := encodeDatabase(db)
	if err != nil {
		return nil, err
	}

	ops := []mtree.KVOp{
		{Key: databaseKey(e.prefix, addr), Value: encDB},
		{Key: ownerKey(e.prefix, m.Sender, block, order), Value: addr[:]},
	}

	for _, collection := range db.Collections {
		encCollection, err := encodeCollection(collection)
		if err != nil {
			return nil, err
		}

		ops = append(ops, mtree.KVOp{Key: collectionKey(e.prefix, collection.ID), Value: encCollection})
	}

	err = e.apply(ops)
	if err != nil {
		return nil, err
	}

	e.logger.Infof("database %s created by %s with %d collections", addr.Hex(), m.Sender.Hex(), len(db.Collections))

	return &MutationResult{DatabaseAddress: addr, TxID: m.TxID, Collections: db.Collections}, nil
}

func (e *Engine) addCollections(m *DatabaseMutation, block uint64, order uint32) (*MutationResult, error) {
	db, err := e.loadDatabase(e.store, m.DatabaseAddress)
	if err != nil {
		return nil, err
	}

	if db.Owner != m.Sender {
		return nil, fmt.Errorf("%w: sender is not the database owner", ErrAccessDenied)
	}

	added, err := db.addCollections(m.Collections, m.TxID, block, order)
	if err != nil {
		return nil, err
	}

	encDB, err := encodeDatabase(db)
	if err != nil {
		return nil, err
	}

	ops := []mtree.KVOp{
		{Key: databaseKey(e.prefix, db.Address), Value: encDB},
	}

	for _, collection := range added {
		encCollection, err := encodeCollection(collection)
		if err != nil {
			return nil, err
		}

		ops = append(ops, mtree.KVOp{Key: collectionKey(e.prefix, collection.ID), Value: encCollection})
	}

	err = e.apply(ops)
	if err != nil {
		return nil, err
	}

	e.logger.Infof("%d collections added to database %s", len(added), db.Address.Hex())

	return &MutationResult{DatabaseAddress: db.Address, TxID: m.TxID, Collections: added}, nil
}

func (e *Engine) addDocuments(m *DatabaseMutation, block uint64, order uint32) (*MutationResult, error) {
	db, err := e.loadDatabase(e.store, m.DatabaseAddress)
	if err != nil {
		return nil, err
	}

	if db.Owner != m.Sender {
		return nil, fmt.Errorf("%w: sender is not the database owner", ErrAccessDenied)
	}

	var ops []mtree.KVOp
	var docIDs []DocumentID

	// The ordinal runs over all documents of the mutation, so every
	// document gets a distinct entry id.
	ordinal := uint16(0)

	for _, docs := range m.Documents {
		collection, ok := db.collection(docs.CollectionName)
		if !ok {
			return nil, fmt.Errorf("%w: '%s'", ErrCollectionNotFound, docs.CollectionName)
		}

		for _, body := range docs.Bodies {
			doc, err := DecodeDocumentBody(body)
			if err != nil {
				return nil, err
			}

			docID := DocumentID{
				Collection: collection.ID,
				Entry:      DocumentEntryID{Block: block, Order: order, Ordinal: ordinal},
			}
			ordinal++

			env := NewEnvelope(docID, m.Sender, m.TxID, body)

			docOps, err := documentAddOps(e.prefix, collection, docID, env, doc)
			if err != nil {
				return nil, err
			}

			ops = append(ops, docOps...)
			docIDs = append(docIDs, docID)
		}
	}

	err = e.apply(ops)
	if err != nil {
		return nil, err
	}

	return &MutationResult{DatabaseAddress: db.Address, TxID: m.TxID, DocumentIDs: docIDs}, nil
}

func (e *Engine) updateDocuments(m *DatabaseMutation, block uint64, order uint32) (*MutationResult, error) {
	db, err := e.loadDatabase(e.store, m.DatabaseAddress)
	if err != nil {
		return nil, err
	}

	if db.Owner != m.Sender {
		return nil, fmt.Errorf("%w: sender is not the database owner", ErrAccessDenied)
	}

	var ops []mtree.KVOp
	var docIDs []DocumentID

	for _, docs := range m.Documents {
		collection, ok := db.collection(docs.CollectionName)
		if !ok {
			return nil, fmt.Errorf("%w: '%s'", ErrCollectionNotFound, docs.CollectionName)
		}

		for i, docID := range docs.IDs {
			if docID.Collection != collection.ID {
				return nil, fmt.Errorf("%w: document id does not belong to collection '%s'", ErrIllegalArguments, docs.CollectionName)
			}

			env, err := e.loadEnvelope(docID)
			if err != nil {
				return nil, err
			}

			owner, err := env.Owner()
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrCorruptedEnvelope, err)
			}

			if owner != m.Sender {
				return nil, fmt.Errorf("%w: sender is not the document owner", ErrAccessDenied)
			}

			oldBody, err := env.Body()
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrCorruptedEnvelope, err)
			}

			oldDoc, err := DecodeDocumentBody(oldBody)
			if err != nil {
				return nil, err
			}

			update, err := DecodeDocumentBody(docs.Bodies[i])
			if err != nil {
				return nil, err
			}

			merged := applyMask(oldDoc, update, docs.Masks[i])

			mergedBody, err := EncodeDocumentBody(merged)
			if err != nil {
				return nil, err
			}

			// The update keeps the original owner and records the new
			// transaction id.
			newEnv := NewEnvelope(docID, owner, m.TxID, mergedBody)

			docOps, err := documentUpdateOps(e.prefix, collection, docID, newEnv, oldDoc, merged, docs.Masks[i])
			if err != nil {
				return nil, err
			}

			ops = append(ops, docOps...)
			docIDs = append(docIDs, docID)
		}
	}

	err = e.apply(ops)
	if err != nil {
		return nil, err
	}

	return &MutationResult{DatabaseAddress: db.Address, TxID: m.TxID, DocumentIDs: docIDs}, nil
}

func (e *Engine) deleteDocuments(m *DatabaseMutation, block uint64, order uint32) (*MutationResult, error) {
	db, err := e.loadDatabase(e.store, m.DatabaseAddress)
	if err != nil {
		return nil, err
	}

	if db.Owner != m.Sender {
		return nil, fmt.Errorf("%w: sender is not the database owner", ErrAccessDenied)
	}

	var ops []mtree.KVOp
	var docIDs []DocumentID

	for _, docs := range m.Documents {
		collection, ok := db.collection(docs.CollectionName)
		if !ok {
			return nil, fmt.Errorf("%w: '%s'", ErrCollectionNotFound, docs.CollectionName)
		}

		for _, docID := range docs.IDs {
			if docID.Collection != collection.ID {
				return nil, fmt.Errorf("%w: document id does not belong to collection '%s'", ErrIllegalArguments, docs.CollectionName)
			}

			env, err := e.loadEnvelope(docID)
			if err != nil {
				return nil, err
			}

			owner, err := env.Owner()
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrCorruptedEnvelope, err)
			}

			if owner != m.Sender {
				return nil, fmt.Errorf("%w: sender is not the document owner", ErrAccessDenied)
			}

			body, err := env.Body()
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrCorruptedEnvelope, err)
			}

			doc, err := DecodeDocumentBody(body)
			if err != nil {
				return nil, err
			}

			docOps, err := documentDeleteOps(e.prefix, collection, docID, doc)
			if err != nil {
				return nil, err
			}

			ops = append(ops, docOps...)
			docIDs = append(docIDs, docID)
		}
	}

	err = e.apply(ops)
	if err != nil {
		return nil, err
	}

	return &MutationResult{DatabaseAddress: db.Address, TxID: m.TxID, DocumentIDs: docIDs}, nil
}

// apply sorts the write set by key and hands it to the store as one batch.
func (e *Engine) apply(ops []mtree.KVOp) error {
	sort.Slice(ops, func(i, j int) bool {
		return bytes.Compare(ops[i].Key, ops[j].Key) < 0
	})

	err := e.store.Apply(ops)
	if err != nil {
		return err
	}

	for _, op := range ops {
		switch {
		case hasRegion(e.prefix, op.Key, DocumentPrefix):
			metricsDocumentsWritten.WithLabelValues(e.metricsID).Inc()
		case hasRegion(e.prefix, op.Key, IndexEntryPrefix):
			if op.Delete {
				metricsIndexEntries.WithLabelValues(e.metricsID, "delete").Inc()
			} else {
				metricsIndexEntries.WithLabelValues(e.metricsID, "put").Inc()
			}
		}
	}

	return nil
}

type pointReader interface {
	Get(key []byte) ([]byte, error)
}

func (e *Engine) loadDatabase(r pointReader, addr Address) (*Database, error) {
	encDB, err := r.Get(databaseKey(e.prefix, addr))
	if errors.Is(err, ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: '%s'", ErrDatabaseNotFound, addr.Hex())
	}
	if err != nil {
		return nil, err
	}

	return decodeDatabase(encDB)
}

func (e *Engine) loadEnvelope(docID DocumentID) (*Envelope, error) {
	envBytes, err := e.store.Get(documentKey(e.prefix, docID))
	if errors.Is(err, ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: '%s'", ErrDocumentNotFound, docID.Base64())
	}
	if err != nil {
		return nil, err
	}

	return ParseEnvelope(envBytes)
}

func (e *Engine) GetDatabase(ctx context.Context, addr Address) (*Database, error) {
	snap, err := e.store.Snapshot()
	if err != nil {
		return nil, err
	}

	return e.loadDatabase(snap, addr)
}

func (e *Engine) GetCollection(ctx context.Context, addr Address, name string) (*Collection, error) {
	db, err := e.GetDatabase(ctx, addr)
	if err != nil {
		return nil, err
	}

	collection, ok := db.collection(name)
	if !ok {
		return nil, fmt.Errorf("%w: '%s'", ErrCollectionNotFound, name)
	}

	return collection, nil
}

func (e *Engine) GetCollectionByID(ctx context.Context, id CollectionID) (*Collection, error) {
	snap, err := e.store.Snapshot()
	if err != nil {
		return nil, err
	}

	encCollection, err := snap.Get(collectionKey(e.prefix, id))
	if errors.Is(err, ErrKeyNotFound) {
		return nil, ErrCollectionNotFound
	}
	if err != nil {
		return nil, err
	}

	return decodeCollection(encCollection)
}

// ListDatabasesByOwner returns the databases created by an owner, sorted
// by creation position in the mutation log.
func (e *Engine) ListDatabasesByOwner(ctx context.Context, owner Address) ([]*Database, error) {
	snap, err := e.store.Snapshot()
	if err != nil {
		return nil, err
	}

	scanPrefix := mapKey(e.prefix, OwnerPrefix, owner[:])

	reader, err := snap.NewReader(mtree.ReaderSpec{
		SeekKey:       scanPrefix,
		Prefix:        scanPrefix,
		InclusiveSeek: true,
	})
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	var dbs []*Database

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		_, value, err := reader.Read()
		if errors.Is(err, mtree.ErrNoMoreEntries) {
			break
		}
		if err != nil {
			return nil, err
		}

		if len(value) != AddressLen {
			return nil, fmt.Errorf("%w: unexpected owner entry value", ErrCorruptedRecord)
		}

		var addr Address
		copy(addr[:], value)

		db, err := e.loadDatabase(snap, addr)
		if err != nil {
			return nil, err
		}

		dbs = append(dbs, db)
	}

	return dbs, nil
}

func (e *Engine) GetDocument(ctx context.Context, docID DocumentID) (*Document, error) {
	snap, err := e.store.Snapshot()
	if err != nil {
		return nil, err
	}

	envBytes, err := snap.Get(documentKey(e.prefix, docID))
	if errors.Is(err, ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: '%s'", ErrDocumentNotFound, docID.Base64())
	}
	if err != nil {
		return nil, err
	}

	return envelopeToDocument(docID, envBytes)
}

// DocumentProof carries everything needed to verify a document offline:
// the stored key and envelope, the inclusion proof and the root it proves
// against. All of it is taken from a single snapshot.
type DocumentProof struct {
	Key   []byte
	Value []byte
	Proof *mtree.InclusionProof
	Root  [sha256.Size]byte
}

func (e *Engine) DocumentProof(ctx context.Context, docID DocumentID) (*DocumentProof, error) {
	snap, err := e.store.Snapshot()
	if err != nil {
		return nil, err
	}

	key := documentKey(e.prefix, docID)

	envBytes, err := snap.Get(key)
	if errors.Is(err, ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: '%s'", ErrDocumentNotFound, docID.Base64())
	}
	if err != nil {
		return nil, err
	}

	proof, err := snap.InclusionProofOf(key)
	if err != nil {
		return nil, err
	}

	return &DocumentProof{
		Key:   key,
		Value: envBytes,
		Proof: proof,
		Root:  snap.Root(),
	}, nil
}

// VerifyDocumentProof recomputes the root from the proof and compares it
// to the claimed one.
func VerifyDocumentProof(p *DocumentProof) bool {
	if p == nil {
		return false
	}
	return mtree.VerifyInclusion(p.Proof, p.Key, p.Value, p.Root)
}

// RunQuery plans and executes a structured query over one collection. The
// documents, the index entries and the catalog records all come from the
// same snapshot, so results are consistent even while mutations land.
func (e *Engine) RunQuery(ctx context.Context, addr Address, collectionName string, q *Query) ([]Document, error) {
	if q == nil {
		return nil, fmt.Errorf("%w: nil query", ErrIllegalArguments)
	}

	limit := q.Limit
	if limit < 0 {
		return nil, fmt.Errorf("%w: negative limit", ErrIllegalArguments)
	}
	if limit == 0 {
		limit = e.scanMaxLimit
	}
	if limit > e.scanMaxLimit {
		return nil, fmt.Errorf("%w: limit %d exceeds %d", ErrMaxScanLimitExceeded, limit, e.scanMaxLimit)
	}

	snap, err := e.store.Snapshot()
	if err != nil {
		return nil, err
	}

	db, err := e.loadDatabase(snap, addr)
	if err != nil {
		return nil, err
	}

	collection, ok := db.collection(collectionName)
	if !ok {
		return nil, fmt.Errorf("%w: '%s'", ErrCollectionNotFound, collectionName)
	}

	r, err := planQuery(e.prefix, collection, q.Filters)
	if err != nil {
		return nil, err
	}

	start := time.Now()

	docs, scanned, err := e.runScan(ctx, snap, collection, r, limit)
	if err != nil {
		return nil, err
	}

	metricsQueries.WithLabelValues(e.metricsID).Inc()
	metricsQueryDuration.WithLabelValues(e.metricsID).Observe(time.Since(start).Seconds())
	metricsQueryScannedEntries.WithLabelValues(e.metricsID).Observe(float64(scanned))

	e.logger.Debugf("query on %s '%s' returned %d documents, %d entries scanned",
		addr.Hex(), collectionName, len(docs), scanned)

	return docs, nil
}

// Root returns the current store root. Two nodes holding the same content
// report the same root, no matter how they got there.
func (e *Engine) Root() [sha256.Size]byte {
	return e.store.Root()
}
