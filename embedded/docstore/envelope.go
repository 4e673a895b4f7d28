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
	"encoding/binary"
	"fmt"
)

const envelopeVersion byte = 1

const (
	envFlagDocumentID byte = 1 << iota
	envFlagOwner
	envFlagTxID
	envFlagBody
)

// Envelope is the stored form of a document. Alongside the body it carries
// the document id, the owner and the id of the last transaction that wrote
// it, so a single inclusion proof covers all of them at once.
type Envelope struct {
	flags byte

	docID DocumentID
	owner Address
	txID  TxID
	body  []byte
}

func NewEnvelope(docID DocumentID, owner Address, txID TxID, body []byte) *Envelope {
	return &Envelope{
		flags: envFlagDocumentID | envFlagOwner | envFlagTxID | envFlagBody,
		docID: docID,
		owner: owner,
		txID:  txID,
		body:  body,
	}
}

func (e *Envelope) DocumentID() (DocumentID, error) {
	if e.flags&envFlagDocumentID == 0 {
		return DocumentID{}, fmt.Errorf("%w: document id", ErrFieldNotSet)
	}
	return e.docID, nil
}

func (e *Envelope) Owner() (Address, error) {
	if e.flags&envFlagOwner == 0 {
		return Address{}, fmt.Errorf("%w: owner", ErrFieldNotSet)
	}
	return e.owner, nil
}

func (e *Envelope) TxID() (TxID, error) {
	if e.flags&envFlagTxID == 0 {
		return TxID{}, fmt.Errorf("%w: transaction id", ErrFieldNotSet)
	}
	return e.txID, nil
}

func (e *Envelope) Body() ([]byte, error) {
	if e.flags&envFlagBody == 0 {
		return nil, fmt.Errorf("%w: body", ErrFieldNotSet)
	}
	return e.body, nil
}

// Bytes serializes the envelope. Fields are written in a fixed order, so
// the same envelope always yields the same bytes.
func (e *Envelope) Bytes() []byte {
	size := 2
	if e.flags&envFlagDocumentID != 0 {
		size += DocumentIDLen
	}
	if e.flags&envFlagOwner != 0 {
		size += AddressLen
	}
	if e.flags&envFlagTxID != 0 {
		size += TxIDLen
	}
	if e.flags&envFlagBody != 0 {
		size += 4 + len(e.body)
	}

	b := make([]byte, size)
	b[0] = envelopeVersion
	b[1] = e.flags
	off := 2

	if e.flags&envFlagDocumentID != 0 {
		off += copy(b[off:], e.docID.Bytes())
	}
	if e.flags&envFlagOwner != 0 {
		off += copy(b[off:], e.owner[:])
	}
	if e.flags&envFlagTxID != 0 {
		off += copy(b[off:], e.txID[:])
	}
	if e.flags&envFlagBody != 0 {
		binary.BigEndian.PutUint32(b[off:], uint32(len(e.body)))
		off += 4
		copy(b[off:], e.body)
	}

	return b
}

func ParseEnvelope(b []byte) (*Envelope, error) {
	if len(b) < 2 {
		return nil, fmt.Errorf("%w: too short", ErrCorruptedEnvelope)
	}

	if b[0] != envelopeVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorruptedEnvelope, b[0])
	}

	e := &Envelope{flags: b[1]}
	off := 2

	if e.flags&envFlagDocumentID != 0 {
		if len(b) < off+DocumentIDLen {
			return nil, fmt.Errorf("%w: truncated document id", ErrCorruptedEnvelope)
		}

		docID, err := DocumentIDFromBytes(b[off : off+DocumentIDLen])
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptedEnvelope, err)
		}

		e.docID = docID
		off += DocumentIDLen
	}

	if e.flags&envFlagOwner != 0 {
		if len(b) < off+AddressLen {
			return nil, fmt.Errorf("%w: truncated owner", ErrCorruptedEnvelope)
		}

		copy(e.owner[:], b[off:])
		off += AddressLen
	}

	if e.flags&envFlagTxID != 0 {
		if len(b) < off+TxIDLen {
			return nil, fmt.Errorf("%w: truncated transaction id", ErrCorruptedEnvelope)
		}

		copy(e.txID[:], b[off:])
		off += TxIDLen
	}

	if e.flags&envFlagBody != 0 {
		if len(b) < off+4 {
			return nil, fmt.Errorf("%w: truncated body length", ErrCorruptedEnvelope)
		}

		bodyLen := int(binary.BigEndian.Uint32(b[off:]))
		off += 4

		if len(b) < off+bodyLen {
			return nil, fmt.Errorf("%w: truncated body", ErrCorruptedEnvelope)
		}

		e.body = make([]byte, bodyLen)
		copy(e.body, b[off:off+bodyLen])
		off += bodyLen
	}

	if off != len(b) {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrCorruptedEnvelope, len(b)-off)
	}

	return e, nil
}
