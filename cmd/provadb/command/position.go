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

package command

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"
)

const positionFileName = "position.json"

// positionLog hands out the block numbers an external mutation log would
// assign. The next block is persisted next to the store so positions never
// repeat across runs.
type positionLog struct {
	path string
	next uint64
}

type positionRecord struct {
	NextBlock uint64 `json:"next_block"`
}

func openPositionLog(dir string) (*positionLog, error) {
	path := filepath.Join(dir, positionFileName)

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &positionLog{path: path, next: 1}, nil
	}
	if err != nil {
		return nil, err
	}

	var rec positionRecord

	err = json.Unmarshal(data, &rec)
	if err != nil {
		return nil, fmt.Errorf("corrupted position file %s: %v", path, err)
	}

	if rec.NextBlock == 0 {
		return nil, fmt.Errorf("corrupted position file %s: next block is zero", path)
	}

	return &positionLog{path: path, next: rec.NextBlock}, nil
}

// advance returns the current block number and durably moves past it.
func (l *positionLog) advance() (uint64, error) {
	block := l.next

	data, err := json.MarshalIndent(positionRecord{NextBlock: block + 1}, "", "  ")
	if err != nil {
		return 0, err
	}

	err = atomic.WriteFile(l.path, bytes.NewReader(data))
	if err != nil {
		return 0, err
	}

	l.next = block + 1

	return block, nil
}
