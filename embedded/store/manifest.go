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
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/natefinch/atomic"
)

const currentFormatVersion = 1

// Manifest identifies a store instance on disk. It is written once when the
// store directory is initialized and validated on every later open.
type Manifest struct {
	InstanceID    string    `json:"instance_id"`
	FormatVersion int       `json:"format_version"`
	CreatedAt     time.Time `json:"created_at"`
}

func newManifest() *Manifest {
	return &Manifest{
		InstanceID:    uuid.NewString(),
		FormatVersion: currentFormatVersion,
		CreatedAt:     time.Now().UTC(),
	}
}

func loadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var m Manifest

	err = json.Unmarshal(data, &m)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptedManifest, err)
	}

	if m.InstanceID == "" {
		return nil, fmt.Errorf("%w: missing instance id", ErrCorruptedManifest)
	}

	if m.FormatVersion != currentFormatVersion {
		return nil, fmt.Errorf("%w: found version %d, supported version %d",
			ErrIncompatibleFormatVersion, m.FormatVersion, currentFormatVersion)
	}

	return &m, nil
}

func (m *Manifest) save(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}

	return atomic.WriteFile(path, bytes.NewReader(data))
}
