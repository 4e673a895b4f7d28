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
	"fmt"
	"math/rand"
	"os"
	"sync/atomic"
	"time"

	"github.com/jaswdr/faker"
	"github.com/rs/xid"
	"github.com/schollz/progressbar/v2"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/provadb/provadb/embedded/docstore"
)

func (cl *commandline) benchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Measure write and query throughput on a fresh database",
		Long: `Measure write and query throughput on a fresh database.

Creates a throwaway database keyed to the current log position, fills
it with generated person documents, then runs concurrent equality
queries against the age index and reports both rates.`,
		Example: `  provadb bench --docs 10000 --queries 5000 --readers 8`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			docs, err := cmd.Flags().GetInt("docs")
			if err != nil {
				return err
			}
			queries, err := cmd.Flags().GetInt("queries")
			if err != nil {
				return err
			}
			readers, err := cmd.Flags().GetInt("readers")
			if err != nil {
				return err
			}

			if docs <= 0 || queries <= 0 || readers <= 0 {
				return fmt.Errorf("docs, queries and readers must all be positive")
			}

			if err := cl.open(false); err != nil {
				return err
			}
			defer cl.close()

			return cl.bench(cmd, docs, queries, readers)
		},
	}

	cmd.Flags().Int("docs", 5000, "documents to insert")
	cmd.Flags().Int("queries", 2000, "queries to run")
	cmd.Flags().Int("readers", 4, "concurrent query workers")

	return cmd
}

func (cl *commandline) bench(cmd *cobra.Command, docs, queries, readers int) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	runID := xid.New().String()

	block, err := cl.mlog.advance()
	if err != nil {
		return err
	}

	// The block number doubles as the nonce, so every run lands on its
	// own database address.
	mutation := &docstore.DatabaseMutation{
		Action:      docstore.ActionCreateDatabase,
		Sender:      cl.owner,
		Nonce:       block,
		TxID:        mutationTxID(cl.owner, block, 0),
		Description: "bench run " + runID,
		Collections: []docstore.CollectionSpec{
			{
				Name: "people",
				Indexes: []docstore.IndexSpec{
					{Name: "by_age", Fields: []docstore.IndexField{{Path: "age"}}},
				},
			},
		},
	}

	result, err := cl.engine.ApplyMutation(ctx, mutation, block, 0)
	if err != nil {
		return err
	}

	address := result.DatabaseAddress

	fmt.Fprintf(out, "bench %s on database %s\n", runID, address.Hex())
	fmt.Fprintf(os.Stderr, "Writing %d documents\n", docs)

	generator := faker.New()
	bar := progressbar.New(docs)
	writeStart := time.Now()

	remaining := docs
	for remaining > 0 {
		batch := seedBatchSize
		if remaining < batch {
			batch = remaining
		}

		bodies := make([][]byte, 0, batch)

		for i := 0; i < batch; i++ {
			body, err := docstore.EncodeDocumentBody(seedDocument(generator))
			if err != nil {
				return err
			}
			bodies = append(bodies, body)
		}

		wblock, err := cl.mlog.advance()
		if err != nil {
			return err
		}

		m := &docstore.DatabaseMutation{
			Action:          docstore.ActionAddDocument,
			Sender:          cl.owner,
			TxID:            mutationTxID(cl.owner, wblock, 0),
			DatabaseAddress: address,
			Documents: []docstore.DocumentMutation{
				{CollectionName: "people", Bodies: bodies},
			},
		}

		if _, err := cl.engine.ApplyMutation(ctx, m, wblock, 0); err != nil {
			return err
		}

		if err := bar.Add(batch); err != nil {
			return err
		}

		remaining -= batch
	}

	writeElapsed := time.Since(writeStart)
	fmt.Fprintln(os.Stderr)
	fmt.Fprintf(os.Stderr, "Running %d queries across %d reader(s)\n", queries, readers)

	var matched int64

	queryStart := time.Now()
	g, gctx := errgroup.WithContext(ctx)

	perReader := queries / readers
	extra := queries % readers

	for r := 0; r < readers; r++ {
		n := perReader
		if r < extra {
			n++
		}
		seed := int64(r + 1)

		g.Go(func() error {
			rnd := rand.New(rand.NewSource(seed))

			for i := 0; i < n; i++ {
				age := int64(rnd.Intn(73) + 18)

				found, err := cl.engine.RunQuery(gctx, address, "people", &docstore.Query{
					Filters: []docstore.FieldComparison{
						{Field: "age", Op: docstore.EQ, Value: age},
					},
				})
				if err != nil {
					return err
				}

				atomic.AddInt64(&matched, int64(len(found)))
			}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	queryElapsed := time.Since(queryStart)

	fmt.Fprintf(out, "writes:  %d documents in %v (%.0f docs/s)\n",
		docs, writeElapsed.Round(time.Millisecond), float64(docs)/writeElapsed.Seconds())
	fmt.Fprintf(out, "queries: %d in %v (%.0f queries/s, %d total matches)\n",
		queries, queryElapsed.Round(time.Millisecond), float64(queries)/queryElapsed.Seconds(), matched)

	return nil
}
