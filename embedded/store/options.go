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
	"fmt"
	"os"

	"github.com/provadb/provadb/embedded/logger"
)

const DefaultFileMode = os.FileMode(0755)

type Options struct {
	readOnly   bool
	syncWrites bool
	fileMode   os.FileMode

	logger logger.Logger
}

func DefaultOptions() *Options {
	return &Options{
		readOnly:   false,
		syncWrites: true,
		fileMode:   DefaultFileMode,

		logger: logger.NewSimpleLogger("provadb-store", os.Stderr),
	}
}

func (opts *Options) Validate() error {
	if opts == nil {
		return fmt.Errorf("%w: nil options", ErrInvalidOptions)
	}

	if opts.logger == nil {
		return fmt.Errorf("%w: nil logger", ErrInvalidOptions)
	}

	return nil
}

func (opts *Options) WithReadOnly(readOnly bool) *Options {
	opts.readOnly = readOnly
	return opts
}

func (opts *Options) WithSyncWrites(syncWrites bool) *Options {
	opts.syncWrites = syncWrites
	return opts
}

func (opts *Options) WithFileMode(fileMode os.FileMode) *Options {
	opts.fileMode = fileMode
	return opts
}

func (opts *Options) WithLogger(l logger.Logger) *Options {
	opts.logger = l
	return opts
}
