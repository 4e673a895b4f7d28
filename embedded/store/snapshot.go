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

package store

import (
	"crypto/sha256"

	"github.com/provadb/provadb/embedded/mtree"
)

// Snapshot is a stable read handle pinned to one root. Reads, scans and
// proofs taken from the same snapshot are mutually consistent even while new
// batches are being applied to the store.
type Snapshot struct {
	tree *mtree.Tree
}

func (s *Snapshot) Get(key []byte) ([]byte, error) {
	return s.tree.Get(key)
}

func (s *Snapshot) NewReader(spec mtree.ReaderSpec) (*mtree.Reader, error) {
	return s.tree.NewReader(spec)
}

func (s *Snapshot) InclusionProofOf(key []byte) (*mtree.InclusionProof, error) {
	return s.tree.InclusionProofOf(key)
}

func (s *Snapshot) Root() [sha256.Size]byte {
	return s.tree.Root()
}

func (s *Snapshot) Entries() uint64 {
	return s.tree.Entries()
}
