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

// Package store persists a Merkle treap in a bbolt file. Batches are written
// in a single bbolt transaction and swapped into the in-memory tree as a
// unit, so a batch is either fully visible or not at all, both live and
// across restarts. Tree shape does not depend on operation history, hence a
// reopened store reports the same root it had when it was closed.
package store

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/provadb/provadb/embedded/logger"
	"github.com/provadb/provadb/embedded/mtree"
)

const dataFileName = "data.db"
const manifestFileName = "manifest.json"

var kvBucket = []byte("kv")

// Store is a durable, Merkle-authenticated ordered key-value store.
type Store struct {
	dir      string
	db       *bolt.DB
	manifest *Manifest

	readOnly bool
	logger   logger.Logger

	mutex  sync.RWMutex
	tree   *mtree.Tree
	closed bool
}

// Open initializes a store directory or loads an existing one. The current
// tree is rebuilt from the bbolt file by one ascending iteration.
func Open(dir string, opts *Options) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: empty directory", ErrIllegalArguments)
	}

	err := opts.Validate()
	if err != nil {
		return nil, err
	}

	finfo, err := os.Stat(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		if opts.readOnly {
			return nil, fmt.Errorf("%w: store does not exist at %s", ErrReadOnly, dir)
		}
		err = os.MkdirAll(dir, opts.fileMode)
		if err != nil {
			return nil, err
		}
	} else if !finfo.IsDir() {
		return nil, ErrPathIsNotADirectory
	}

	manifestPath := filepath.Join(dir, manifestFileName)

	manifest, err := loadManifest(manifestPath)
	if errors.Is(err, os.ErrNotExist) {
		if opts.readOnly {
			return nil, fmt.Errorf("%w: store was not initialized at %s", ErrReadOnly, dir)
		}

		manifest = newManifest()

		err = manifest.save(manifestPath)
		if err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}

	bopts := *bolt.DefaultOptions
	bopts.Timeout = time.Second
	bopts.NoSync = !opts.syncWrites
	bopts.ReadOnly = opts.readOnly

	db, err := bolt.Open(filepath.Join(dir, dataFileName), opts.fileMode, &bopts)
	if err != nil {
		return nil, err
	}

	if !opts.readOnly {
		err = db.Update(func(tx *bolt.Tx) error {
			_, err := tx.CreateBucketIfNotExists(kvBucket)
			return err
		})
		if err != nil {
			db.Close()
			return nil, err
		}
	}

	tree := mtree.New()

	err = db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(kvBucket)
		if b == nil {
			return nil
		}

		var ops []mtree.KVOp

		cur := b.Cursor()
		for k, v := cur.First(); k != nil; k, v = cur.Next() {
			ops = append(ops, mtree.KVOp{Key: k, Value: v})
		}

		if len(ops) == 0 {
			return nil
		}

		rebuilt, err := tree.Apply(ops)
		if err != nil {
			return err
		}
		tree = rebuilt

		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	s := &Store{
		dir:      dir,
		db:       db,
		manifest: manifest,
		readOnly: opts.readOnly,
		logger:   opts.logger,
		tree:     tree,
	}

	metricsEntries.WithLabelValues(s.dir).Set(float64(tree.Entries()))

	s.logger.Infof("store opened at %s: %d entries, root %x", dir, tree.Entries(), tree.Root())

	return s, nil
}

// Apply writes a batch of operations as one atomic unit. Keys must be in
// strictly ascending order. The batch becomes visible to readers only after
// it is fully durable.
func (s *Store) Apply(ops []mtree.KVOp) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.closed {
		return ErrAlreadyClosed
	}

	if s.readOnly {
		return ErrReadOnly
	}

	start := time.Now()

	// the tree validates the batch and materializes the new state without
	// touching the current one
	tree, err := s.tree.Apply(ops)
	if err != nil {
		return err
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(kvBucket)

		for _, op := range ops {
			if op.Delete {
				err := b.Delete(op.Key)
				if err != nil {
					return err
				}
				continue
			}

			err := b.Put(op.Key, op.Value)
			if err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return err
	}

	s.tree = tree

	metricsAppliedBatches.WithLabelValues(s.dir).Inc()
	metricsAppliedOps.WithLabelValues(s.dir).Add(float64(len(ops)))
	metricsEntries.WithLabelValues(s.dir).Set(float64(tree.Entries()))
	metricsApplyDuration.WithLabelValues(s.dir).Observe(time.Since(start).Seconds())

	return nil
}

func (s *Store) currentTree() (*mtree.Tree, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if s.closed {
		return nil, ErrAlreadyClosed
	}

	return s.tree, nil
}

// Get returns the value stored under key as of the current root.
func (s *Store) Get(key []byte) ([]byte, error) {
	tree, err := s.currentTree()
	if err != nil {
		return nil, err
	}

	return tree.Get(key)
}

// NewReader opens an ordered scan over the current root. The reader is not
// affected by batches applied after it was opened.
func (s *Store) NewReader(spec mtree.ReaderSpec) (*mtree.Reader, error) {
	tree, err := s.currentTree()
	if err != nil {
		return nil, err
	}

	return tree.NewReader(spec)
}

// Snapshot returns a stable read handle over the current root.
func (s *Store) Snapshot() (*Snapshot, error) {
	tree, err := s.currentTree()
	if err != nil {
		return nil, err
	}

	return &Snapshot{tree: tree}, nil
}

// InclusionProofOf proves key's membership against the current root.
func (s *Store) InclusionProofOf(key []byte) (*mtree.InclusionProof, error) {
	tree, err := s.currentTree()
	if err != nil {
		return nil, err
	}

	return tree.InclusionProofOf(key)
}

// Root returns the digest committing to the full store content.
func (s *Store) Root() [sha256.Size]byte {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.tree.Root()
}

// Entries returns the number of live entries.
func (s *Store) Entries() uint64 {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.tree.Entries()
}

// Manifest returns the identity record written when the store directory was
// initialized.
func (s *Store) Manifest() Manifest {
	return *s.manifest
}

// Path returns the store directory.
func (s *Store) Path() string {
	return s.dir
}

// IsClosed returns whether the store was closed.
func (s *Store) IsClosed() bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.closed
}

func (s *Store) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.closed {
		return ErrAlreadyClosed
	}

	s.closed = true

	s.logger.Infof("store closed at %s: %d entries, root %x", s.dir, s.tree.Entries(), s.tree.Root())

	return s.db.Close()
}
