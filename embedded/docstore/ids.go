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
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/crypto/sha3"
)

const (
	// AddressLen is the size of owner and database addresses.
	AddressLen = 20

	// TxIDLen is the size of a transaction id.
	TxIDLen = 32

	// CollectionIDLen is the size of an encoded collection id.
	CollectionIDLen = 14

	// DocumentEntryIDLen is the size of an encoded document entry id.
	DocumentEntryIDLen = 14

	// DocumentIDLen is the size of an encoded document id.
	DocumentIDLen = CollectionIDLen + DocumentEntryIDLen

	// IndexIDLen is the size of an encoded index id.
	IndexIDLen = 2
)

// Address identifies an account or a database.
type Address [AddressLen]byte

// NewDatabaseAddress derives the address of a database from its creator
// and the creator's transaction nonce. The derivation is deterministic,
// so every node computes the same address for the same creation.
func NewDatabaseAddress(owner Address, nonce uint64) Address {
	h := sha3.NewLegacyKeccak256()
	h.Write(owner[:])

	var encNonce [8]byte
	binary.BigEndian.PutUint64(encNonce[:], nonce)
	h.Write(encNonce[:])

	sum := h.Sum(nil)

	var addr Address
	copy(addr[:], sum[len(sum)-AddressLen:])
	return addr
}

func AddressFromHex(s string) (Address, error) {
	s = strings.TrimPrefix(s, "0x")

	b, err := hex.DecodeString(s)
	if err != nil {
		return Address{}, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}

	if len(b) != AddressLen {
		return Address{}, fmt.Errorf("%w: unexpected length %d", ErrInvalidAddress, len(b))
	}

	var addr Address
	copy(addr[:], b)
	return addr, nil
}

func (a Address) Hex() string {
	return "0x" + hex.EncodeToString(a[:])
}

func (a *Address) EncodeMsgpack(enc *msgpack.Encoder) error {
	return enc.EncodeBytes(a[:])
}

func (a *Address) DecodeMsgpack(dec *msgpack.Decoder) error {
	b, err := dec.DecodeBytes()
	if err != nil {
		return err
	}

	if len(b) != AddressLen {
		return fmt.Errorf("%w: unexpected address length %d", ErrCorruptedRecord, len(b))
	}

	copy(a[:], b)
	return nil
}

// TxID identifies the transaction a mutation was carried by.
type TxID [TxIDLen]byte

func TxIDFromHex(s string) (TxID, error) {
	s = strings.TrimPrefix(s, "0x")

	b, err := hex.DecodeString(s)
	if err != nil {
		return TxID{}, fmt.Errorf("%w: %v", ErrInvalidTransactionID, err)
	}

	if len(b) != TxIDLen {
		return TxID{}, fmt.Errorf("%w: unexpected length %d", ErrInvalidTransactionID, len(b))
	}

	var txID TxID
	copy(txID[:], b)
	return txID, nil
}

func (t TxID) Hex() string {
	return hex.EncodeToString(t[:])
}

func (t *TxID) EncodeMsgpack(enc *msgpack.Encoder) error {
	return enc.EncodeBytes(t[:])
}

func (t *TxID) DecodeMsgpack(dec *msgpack.Decoder) error {
	b, err := dec.DecodeBytes()
	if err != nil {
		return err
	}

	if len(b) != TxIDLen {
		return fmt.Errorf("%w: unexpected transaction id length %d", ErrCorruptedRecord, len(b))
	}

	copy(t[:], b)
	return nil
}

// CollectionID identifies a collection by the position of the mutation
// that created it: the block, the order of the mutation within the block
// and the ordinal of the collection within the mutation.
type CollectionID struct {
	Block   uint64
	Order   uint32
	Ordinal uint16
}

func (id CollectionID) Bytes() []byte {
	b := make([]byte, CollectionIDLen)
	binary.BigEndian.PutUint64(b, id.Block)
	binary.BigEndian.PutUint32(b[8:], id.Order)
	binary.BigEndian.PutUint16(b[12:], id.Ordinal)
	return b
}

func CollectionIDFromBytes(b []byte) (CollectionID, error) {
	if len(b) != CollectionIDLen {
		return CollectionID{}, fmt.Errorf("%w: unexpected collection id length %d", ErrCorruptedKey, len(b))
	}

	return CollectionID{
		Block:   binary.BigEndian.Uint64(b),
		Order:   binary.BigEndian.Uint32(b[8:]),
		Ordinal: binary.BigEndian.Uint16(b[12:]),
	}, nil
}

func (id CollectionID) String() string {
	return fmt.Sprintf("%d.%d.%d", id.Block, id.Order, id.Ordinal)
}

func (id *CollectionID) EncodeMsgpack(enc *msgpack.Encoder) error {
	return enc.EncodeBytes(id.Bytes())
}

func (id *CollectionID) DecodeMsgpack(dec *msgpack.Decoder) error {
	b, err := dec.DecodeBytes()
	if err != nil {
		return err
	}

	decoded, err := CollectionIDFromBytes(b)
	if err != nil {
		return fmt.Errorf("%w: unexpected collection id length %d", ErrCorruptedRecord, len(b))
	}

	*id = decoded
	return nil
}

// DocumentEntryID identifies a document within its collection by the
// position of the mutation that created it.
type DocumentEntryID struct {
	Block   uint64
	Order   uint32
	Ordinal uint16
}

// MinDocumentEntryID and MaxDocumentEntryID delimit the encoded entry id
// space. They are used as range sentinels when building scan bounds.
var (
	MinDocumentEntryID = DocumentEntryID{}

	MaxDocumentEntryID = DocumentEntryID{
		Block:   math.MaxUint64,
		Order:   math.MaxUint32,
		Ordinal: math.MaxUint16,
	}
)

func (id DocumentEntryID) Bytes() []byte {
	b := make([]byte, DocumentEntryIDLen)
	binary.BigEndian.PutUint64(b, id.Block)
	binary.BigEndian.PutUint32(b[8:], id.Order)
	binary.BigEndian.PutUint16(b[12:], id.Ordinal)
	return b
}

func DocumentEntryIDFromBytes(b []byte) (DocumentEntryID, error) {
	if len(b) != DocumentEntryIDLen {
		return DocumentEntryID{}, fmt.Errorf("%w: unexpected document entry id length %d", ErrCorruptedKey, len(b))
	}

	return DocumentEntryID{
		Block:   binary.BigEndian.Uint64(b),
		Order:   binary.BigEndian.Uint32(b[8:]),
		Ordinal: binary.BigEndian.Uint16(b[12:]),
	}, nil
}

// DocumentID is the globally unique identifier of a document. It embeds
// the id of the collection that holds the document, so the document key
// can be reconstructed from the id alone.
type DocumentID struct {
	Collection CollectionID
	Entry      DocumentEntryID
}

func (id DocumentID) Bytes() []byte {
	b := make([]byte, 0, DocumentIDLen)
	b = append(b, id.Collection.Bytes()...)
	b = append(b, id.Entry.Bytes()...)
	return b
}

func DocumentIDFromBytes(b []byte) (DocumentID, error) {
	if len(b) != DocumentIDLen {
		return DocumentID{}, fmt.Errorf("%w: unexpected document id length %d", ErrInvalidDocumentID, len(b))
	}

	collectionID, err := CollectionIDFromBytes(b[:CollectionIDLen])
	if err != nil {
		return DocumentID{}, err
	}

	entryID, err := DocumentEntryIDFromBytes(b[CollectionIDLen:])
	if err != nil {
		return DocumentID{}, err
	}

	return DocumentID{Collection: collectionID, Entry: entryID}, nil
}

func (id DocumentID) Base64() string {
	return base64.StdEncoding.EncodeToString(id.Bytes())
}

func DocumentIDFromBase64(s string) (DocumentID, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return DocumentID{}, fmt.Errorf("%w: %v", ErrInvalidDocumentID, err)
	}

	return DocumentIDFromBytes(b)
}

// IndexID is the ordinal of an index within its collection.
type IndexID uint16

func (id IndexID) Bytes() []byte {
	b := make([]byte, IndexIDLen)
	binary.BigEndian.PutUint16(b, uint16(id))
	return b
}
