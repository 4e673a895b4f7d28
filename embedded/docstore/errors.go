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
	"errors"
	"fmt"

	"github.com/provadb/provadb/embedded"
)

var ErrIllegalArguments = embedded.ErrIllegalArguments
var ErrAlreadyClosed = embedded.ErrAlreadyClosed
var ErrKeyNotFound = embedded.ErrKeyNotFound
var ErrNoMoreEntries = embedded.ErrNoMoreEntries
var ErrInvalidOptions = fmt.Errorf("%w: invalid options", ErrIllegalArguments)

var ErrDatabaseNotFound = errors.New("database not found")
var ErrCollectionNotFound = errors.New("collection not found")
var ErrDocumentNotFound = errors.New("document not found")
var ErrIndexNotFound = errors.New("no index covers the filtered fields")

var ErrDatabaseAlreadyExists = errors.New("database already exists")
var ErrCollectionAlreadyExists = errors.New("collection already exists")
var ErrIndexAlreadyExists = errors.New("index already exists")

var ErrAccessDenied = errors.New("access denied")

var ErrInvalidFilter = errors.New("invalid filter")
var ErrUnsupportedOperator = fmt.Errorf("%w: unsupported comparison operator", ErrInvalidFilter)
var ErrMaxScanLimitExceeded = errors.New("max scan limit exceeded")

var ErrUnsupportedValueType = errors.New("unsupported field value type")
var ErrInvalidDocumentBody = errors.New("invalid document body")
var ErrInvalidDocumentID = errors.New("invalid document id")
var ErrInvalidAddress = errors.New("invalid address")
var ErrInvalidTransactionID = errors.New("invalid transaction id")

var ErrCorruptedKey = errors.New("corrupted key")
var ErrCorruptedEnvelope = errors.New("corrupted document envelope")
var ErrCorruptedRecord = errors.New("corrupted catalog record")
var ErrFieldNotSet = errors.New("envelope field not set")

var ErrMaxNumberOfFieldsInIndexExceeded = fmt.Errorf("number of fields in index exceeded, the maximum is %d", MaxNumberOfFieldsInIndex)
var ErrMaxNumberOfIndexesExceeded = fmt.Errorf("number of indexes in collection exceeded, the maximum is %d", MaxNumberOfIndexesInCollection)
