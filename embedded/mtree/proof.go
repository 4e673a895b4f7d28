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
	"bytes"
	"crypto/sha256"
	"fmt"
)

// ProofTerm carries what the verifier needs to rebuild one ancestor digest:
// the ancestor's own entry digest, the digest of the subtree hanging off its
// other side, and on which side the proved entry lives.
type ProofTerm struct {
	KV      [sha256.Size]byte
	Sibling [sha256.Size]byte
	Left    bool
}

// InclusionProof proves that a key-value entry belongs to a tree with a given
// root digest. Left and Right are the child digests of the node holding the
// entry; Terms walk the ancestor path bottom-up to the root.
type InclusionProof struct {
	Left  [sha256.Size]byte
	Right [sha256.Size]byte
	Terms []ProofTerm
}

// InclusionProofOf builds the inclusion proof for key against the tree root.
func (t *Tree) InclusionProofOf(key []byte) (*InclusionProof, error) {
	if len(key) == 0 {
		return nil, fmt.Errorf("%w: empty key", ErrIllegalArguments)
	}

	type pathStep struct {
		n    *node
		left bool
	}

	var path []pathStep

	n := t.root
	for n != nil {
		c := bytes.Compare(key, n.key)
		if c == 0 {
			break
		}
		if c < 0 {
			path = append(path, pathStep{n: n, left: true})
			n = n.left
		} else {
			path = append(path, pathStep{n: n, left: false})
			n = n.right
		}
	}

	if n == nil {
		return nil, ErrKeyNotFound
	}

	proof := &InclusionProof{
		Left:  digestOf(n.left),
		Right: digestOf(n.right),
		Terms: make([]ProofTerm, 0, len(path)),
	}

	for i := len(path) - 1; i >= 0; i-- {
		step := path[i]

		term := ProofTerm{KV: step.n.kvd, Left: step.left}
		if step.left {
			term.Sibling = digestOf(step.n.right)
		} else {
			term.Sibling = digestOf(step.n.left)
		}

		proof.Terms = append(proof.Terms, term)
	}

	return proof, nil
}

// VerifyInclusion recomputes the root digest from the proof and the claimed
// key-value entry and compares it to root.
func VerifyInclusion(proof *InclusionProof, key, value []byte, root [sha256.Size]byte) bool {
	if proof == nil || len(key) == 0 {
		return false
	}

	calc := nodeDigest(kvDigest(key, value), proof.Left, proof.Right)

	for _, term := range proof.Terms {
		if term.Left {
			calc = nodeDigest(term.KV, calc, term.Sibling)
		} else {
			calc = nodeDigest(term.KV, term.Sibling, calc)
		}
	}

	return calc == root
}
