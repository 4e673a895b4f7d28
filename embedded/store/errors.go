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
	"errors"
	"fmt"

	"github.com/provadb/provadb/embedded"
	"github.com/provadb/provadb/embedded/mtree"
)

var (
	ErrIllegalArguments          = embedded.ErrIllegalArguments
	ErrInvalidOptions            = fmt.Errorf("%w: invalid options", ErrIllegalArguments)
	ErrAlreadyClosed             = embedded.ErrAlreadyClosed
	ErrKeyNotFound               = embedded.ErrKeyNotFound
	ErrNoMoreEntries             = embedded.ErrNoMoreEntries
	ErrNoEntriesProvided         = mtree.ErrNoEntriesProvided
	ErrReadOnly                  = errors.New("store is read-only")
	ErrPathIsNotADirectory       = errors.New("path is not a directory")
	ErrCorruptedManifest         = errors.New("manifest is corrupted")
	ErrIncompatibleFormatVersion = errors.New("incompatible format version")
)
