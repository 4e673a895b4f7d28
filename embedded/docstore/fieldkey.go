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
	"math"
)

// FieldKey is the order-preserving encoding of the indexed field values of
// a document. Comparing two field keys byte-wise is equivalent to comparing
// the underlying values field by field.
type FieldKey []byte

// Type tags. The tag is the first byte of every encoded value, so values
// of different types never interleave: absent < bool < int < float < string.
const (
	fieldTagAbsent byte = 0x00
	fieldTagBool   byte = 0x01
	fieldTagInt    byte = 0x02
	fieldTagFloat  byte = 0x03
	fieldTagString byte = 0x04
)

// AppendFieldValue appends the order-preserving encoding of a single value.
// A descending field is encoded with every byte complemented, which reverses
// its ordering while keeping the encoding prefix-free.
//
// Integers are encoded as big-endian with the sign bit flipped. Floats are
// encoded from their IEEE 754 bits: negative values are fully complemented,
// positive values get the sign bit set. Strings escape inner zero bytes as
// 0x00 0xFF and close with a 0x00 0x00 terminator, so no encoded string is
// a proper prefix of another.
func AppendFieldValue(b []byte, value interface{}, descending bool) ([]byte, error) {
	normalized, err := normalizeFieldValue(value)
	if err != nil {
		return nil, err
	}

	start := len(b)

	switch v := normalized.(type) {
	case nil:
		b = append(b, fieldTagAbsent)

	case bool:
		if v {
			b = append(b, fieldTagBool, 1)
		} else {
			b = append(b, fieldTagBool, 0)
		}

	case int64:
		var enc [8]byte
		binary.BigEndian.PutUint64(enc[:], uint64(v)^(1<<63))

		b = append(b, fieldTagInt)
		b = append(b, enc[:]...)

	case float64:
		bits := math.Float64bits(v)
		if bits&(1<<63) != 0 {
			bits = ^bits
		} else {
			bits |= 1 << 63
		}

		var enc [8]byte
		binary.BigEndian.PutUint64(enc[:], bits)

		b = append(b, fieldTagFloat)
		b = append(b, enc[:]...)

	case string:
		b = append(b, fieldTagString)
		for i := 0; i < len(v); i++ {
			if v[i] == 0x00 {
				b = append(b, 0x00, 0xFF)
			} else {
				b = append(b, v[i])
			}
		}
		b = append(b, 0x00, 0x00)
	}

	if descending {
		for i := start; i < len(b); i++ {
			b[i] = ^b[i]
		}
	}

	return b, nil
}

// normalizeFieldValue reduces the integer and float families to int64 and
// float64, so values decoded from different sources compare consistently.
func normalizeFieldValue(value interface{}) (interface{}, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case bool:
		return v, nil
	case int:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case uint:
		return normalizeFieldValue(uint64(v))
	case uint8:
		return int64(v), nil
	case uint16:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case uint64:
		if v > math.MaxInt64 {
			return nil, fmt.Errorf("%w: unsigned value out of range", ErrUnsupportedValueType)
		}
		return int64(v), nil
	case float32:
		return float64(v), nil
	case float64:
		return v, nil
	case string:
		return v, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedValueType, value)
	}
}

func isIndexableValue(value interface{}) bool {
	switch value.(type) {
	case nil, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64,
		string:
		return true
	default:
		return false
	}
}

// extractFieldKey builds the field key of a document for one index. A field
// whose path does not resolve, or resolves to a non-scalar value, is encoded
// with the absent tag. ok is false when no field resolves at all, in which
// case the document does not participate in the index. An explicit null
// counts as resolved.
func extractFieldKey(doc map[string]interface{}, fields []IndexField) (FieldKey, bool, error) {
	fk := make(FieldKey, 0, len(fields)*9)

	resolved := false

	for _, field := range fields {
		value, found := lookupField(doc, field.Path)
		if found && !isIndexableValue(value) {
			found = false
		}

		if found {
			resolved = true
		} else {
			value = nil
		}

		var err error
		fk, err = AppendFieldValue(fk, value, field.Descending)
		if err != nil {
			return nil, false, err
		}
	}

	if !resolved {
		return nil, false, nil
	}

	return fk, true, nil
}

// ExtractFieldKey decodes a document body and builds its field key for the
// given index fields.
func ExtractFieldKey(body []byte, fields []IndexField) (FieldKey, bool, error) {
	doc, err := DecodeDocumentBody(body)
	if err != nil {
		return nil, false, err
	}

	return extractFieldKey(doc, fields)
}
