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
	"fmt"
	"os"

	"github.com/provadb/provadb/embedded/logger"
)

// DefaultScanMaxLimit is the maximum number of documents a single query
// may request unless the engine is configured otherwise.
const DefaultScanMaxLimit = 1000

type Options struct {
	prefix []byte

	scanMaxLimit int

	logger logger.Logger
}

func DefaultOptions() *Options {
	return &Options{
		scanMaxLimit: DefaultScanMaxLimit,
		logger:       logger.NewSimpleLogger("provadb-docstore", os.Stderr),
	}
}

func (opts *Options) Validate() error {
	if opts == nil {
		return fmt.Errorf("%w: nil options", ErrInvalidOptions)
	}

	if opts.scanMaxLimit <= 0 {
		return fmt.Errorf("%w: invalid scan max limit", ErrInvalidOptions)
	}

	if opts.logger == nil {
		return fmt.Errorf("%w: invalid logger", ErrInvalidOptions)
	}

	return nil
}

// WithPrefix sets the byte prefix prepended to every key written by the
// engine, so multiple engines can share one backing store.
func (opts *Options) WithPrefix(prefix []byte) *Options {
	opts.prefix = prefix
	return opts
}

func (opts *Options) WithScanMaxLimit(scanMaxLimit int) *Options {
	opts.scanMaxLimit = scanMaxLimit
	return opts
}

func (opts *Options) WithLogger(logger logger.Logger) *Options {
	opts.logger = logger
	return opts
}
