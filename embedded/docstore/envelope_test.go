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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnvelopeRoundTrip(t *testing.T) {
	docID := DocumentID{
		Collection: CollectionID{Block: 1, Order: 2, Ordinal: 3},
		Entry:      DocumentEntryID{Block: 4, Order: 5, Ordinal: 6},
	}
	owner := Address{0xAA, 0xBB}
	txID := TxID{0x01, 0x02}
	body := []byte("not quite msgpack but the envelope does not care")

	env := NewEnvelope(docID, owner, txID, body)

	parsed, err := ParseEnvelope(env.Bytes())
	require.NoError(t, err)

	gotID, err := parsed.DocumentID()
	require.NoError(t, err)
	require.Equal(t, docID, gotID)

	gotOwner, err := parsed.Owner()
	require.NoError(t, err)
	require.Equal(t, owner, gotOwner)

	gotTxID, err := parsed.TxID()
	require.NoError(t, err)
	require.Equal(t, txID, gotTxID)

	gotBody, err := parsed.Body()
	require.NoError(t, err)
	require.Equal(t, body, gotBody)

	// Serialization is deterministic.
	require.Equal(t, env.Bytes(), parsed.Bytes())
}

func TestEnvelopeEmptyBody(t *testing.T) {
	env := NewEnvelope(DocumentID{}, Address{}, TxID{}, nil)

	parsed, err := ParseEnvelope(env.Bytes())
	require.NoError(t, err)

	body, err := parsed.Body()
	require.NoError(t, err)
	require.Empty(t, body)
}

func TestEnvelopeUnsetFields(t *testing.T) {
	parsed, err := ParseEnvelope([]byte{envelopeVersion, 0})
	require.NoError(t, err)

	_, err = parsed.DocumentID()
	require.ErrorIs(t, err, ErrFieldNotSet)

	_, err = parsed.Owner()
	require.ErrorIs(t, err, ErrFieldNotSet)

	_, err = parsed.TxID()
	require.ErrorIs(t, err, ErrFieldNotSet)

	_, err = parsed.Body()
	require.ErrorIs(t, err, ErrFieldNotSet)

	require.Equal(t, []byte{envelopeVersion, 0}, parsed.Bytes())
}

func TestParseEnvelopeCorruption(t *testing.T) {
	env := NewEnvelope(DocumentID{}, Address{1}, TxID{2}, []byte("body"))
	full := env.Bytes()

	t.Run("too short", func(t *testing.T) {
		_, err := ParseEnvelope(nil)
		require.ErrorIs(t, err, ErrCorruptedEnvelope)

		_, err = ParseEnvelope([]byte{envelopeVersion})
		require.ErrorIs(t, err, ErrCorruptedEnvelope)
	})

	t.Run("unsupported version", func(t *testing.T) {
		corrupted := append([]byte{}, full...)
		corrupted[0] = 99

		_, err := ParseEnvelope(corrupted)
		require.ErrorIs(t, err, ErrCorruptedEnvelope)
	})

	t.Run("truncated at every length", func(t *testing.T) {
		for i := 2; i < len(full); i++ {
			_, err := ParseEnvelope(full[:i])
			require.ErrorIs(t, err, ErrCorruptedEnvelope, "length %d", i)
		}
	})

	t.Run("trailing bytes", func(t *testing.T) {
		corrupted := append(append([]byte{}, full...), 0xFF)

		_, err := ParseEnvelope(corrupted)
		require.ErrorIs(t, err, ErrCorruptedEnvelope)
	})
}
