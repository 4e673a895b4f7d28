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
	"bytes"
	"fmt"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

// EncodeDocumentBody serializes a document as a msgpack map. Map keys are
// sorted while encoding, so the same document always yields the same bytes
// on every node. Re-encoding a merged document must be deterministic or
// replicas would disagree on the stored bytes and thus on the root.
func EncodeDocumentBody(doc map[string]interface{}) ([]byte, error) {
	var buf bytes.Buffer

	enc := msgpack.NewEncoder(&buf)
	enc.SetSortMapKeys(true)

	err := enc.Encode(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocumentBody, err)
	}

	return buf.Bytes(), nil
}

func DecodeDocumentBody(b []byte) (map[string]interface{}, error) {
	var doc map[string]interface{}

	err := msgpack.Unmarshal(b, &doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocumentBody, err)
	}

	if doc == nil {
		doc = map[string]interface{}{}
	}

	return doc, nil
}

// lookupField resolves a dotted path against a document. Intermediate
// segments must be maps for the path to resolve.
func lookupField(doc map[string]interface{}, path string) (interface{}, bool) {
	segments := strings.Split(path, ".")

	var value interface{} = doc

	for _, segment := range segments {
		m, ok := value.(map[string]interface{})
		if !ok {
			return nil, false
		}

		value, ok = m[segment]
		if !ok {
			return nil, false
		}
	}

	return value, true
}

// setField writes a value at a dotted path, creating intermediate maps as
// needed. A non-map intermediate value is replaced by a map.
func setField(doc map[string]interface{}, path string, value interface{}) {
	segments := strings.Split(path, ".")

	m := doc

	for _, segment := range segments[:len(segments)-1] {
		inner, ok := m[segment].(map[string]interface{})
		if !ok {
			inner = map[string]interface{}{}
			m[segment] = inner
		}
		m = inner
	}

	m[segments[len(segments)-1]] = value
}

// deleteField removes the value at a dotted path. Paths that do not
// resolve are left untouched.
func deleteField(doc map[string]interface{}, path string) {
	segments := strings.Split(path, ".")

	m := doc

	for _, segment := range segments[:len(segments)-1] {
		inner, ok := m[segment].(map[string]interface{})
		if !ok {
			return
		}
		m = inner
	}

	delete(m, segments[len(segments)-1])
}

// applyMask merges an update into the current document. Only the paths
// listed in the mask change: a masked path present in the update is set,
// a masked path absent from the update is deleted, everything else keeps
// its current value. Neither input document is modified.
func applyMask(current, update map[string]interface{}, mask []string) map[string]interface{} {
	merged := copyDocument(current)

	for _, path := range mask {
		value, ok := lookupField(update, path)
		if ok {
			setField(merged, path, value)
		} else {
			deleteField(merged, path)
		}
	}

	return merged
}

func copyDocument(doc map[string]interface{}) map[string]interface{} {
	c := make(map[string]interface{}, len(doc))
	for k, v := range doc {
		c[k] = copyValue(v)
	}
	return c
}

func copyValue(value interface{}) interface{} {
	switch v := value.(type) {
	case map[string]interface{}:
		return copyDocument(v)
	case []interface{}:
		c := make([]interface{}, len(v))
		for i, e := range v {
			c[i] = copyValue(e)
		}
		return c
	default:
		return value
	}
}
