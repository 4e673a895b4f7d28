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
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/jaswdr/faker"
	"github.com/schollz/progressbar/v2"
	"github.com/spf13/cobra"

	"github.com/provadb/provadb/embedded/docstore"
)

const seedBatchSize = 100

func (cl *commandline) seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed [n]",
		Short: "Populate a database with generated documents",
		Long: `Populate a database with generated documents.

Creates the database described by the schema file if it does not exist
yet, then inserts n generated person documents into each of its
collections. Without a schema file a demo people database is used.`,
		Example: `  provadb seed
  provadb seed 1000 --schema ./mydb.hujson`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n := 100

			if len(args) == 1 {
				parsed, err := strconv.Atoi(args[0])
				if err != nil || parsed <= 0 {
					return fmt.Errorf("invalid document count '%s'", args[0])
				}
				n = parsed
			}

			schemaPath, err := cmd.Flags().GetString("schema")
			if err != nil {
				return err
			}

			schema := defaultSeedSchema()

			if schemaPath != "" {
				data, err := os.ReadFile(schemaPath)
				if err != nil {
					return err
				}

				schema, err = parseSeedSchema(data)
				if err != nil {
					return err
				}
			}

			if err := cl.open(false); err != nil {
				return err
			}
			defer cl.close()

			return cl.seed(cmd, schema, n)
		},
	}

	cmd.Flags().String("schema", "", "HuJSON file describing the database to seed")

	return cmd
}

func (cl *commandline) seed(cmd *cobra.Command, schema *seedSchema, n int) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	owner := cl.owner

	if schema.Owner != "" {
		parsed, err := docstore.AddressFromHex(schema.Owner)
		if err != nil {
			return err
		}
		owner = parsed
	}

	address, err := cl.ensureDatabase(ctx, out, owner, schema)
	if err != nil {
		return err
	}

	db, err := cl.engine.GetDatabase(ctx, address)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Seeding %d documents into %d collection(s) of %s\n",
		n, len(db.Collections), address.Hex())

	bar := progressbar.New(n * len(db.Collections))

	generator := faker.New()
	inserted := 0

	for _, collection := range db.Collections {
		remaining := n

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

			block, err := cl.mlog.advance()
			if err != nil {
				return err
			}

			mutation := &docstore.DatabaseMutation{
				Action:          docstore.ActionAddDocument,
				Sender:          owner,
				TxID:            mutationTxID(owner, block, 0),
				DatabaseAddress: address,
				Documents: []docstore.DocumentMutation{
					{CollectionName: collection.Name, Bodies: bodies},
				},
			}

			if _, err := cl.engine.ApplyMutation(ctx, mutation, block, 0); err != nil {
				return err
			}

			if err := bar.Add(batch); err != nil {
				return err
			}

			inserted += batch
			remaining -= batch
		}
	}

	fmt.Fprintln(os.Stderr)
	fmt.Fprintf(out, "inserted %d documents into %s\n", inserted, address.Hex())

	root := cl.engine.Root()
	fmt.Fprintf(out, "root: %x\n", root[:])

	return nil
}

// ensureDatabase creates the database of the schema when it does not exist
// yet. A database that already exists is reused as is, so repeated seed
// runs keep appending documents.
func (cl *commandline) ensureDatabase(ctx context.Context, out io.Writer, owner docstore.Address, schema *seedSchema) (docstore.Address, error) {
	address := docstore.NewDatabaseAddress(owner, schema.Nonce)

	_, err := cl.engine.GetDatabase(ctx, address)
	if err == nil {
		return address, nil
	}
	if !errors.Is(err, docstore.ErrDatabaseNotFound) {
		return docstore.Address{}, err
	}

	block, err := cl.mlog.advance()
	if err != nil {
		return docstore.Address{}, err
	}

	mutation := &docstore.DatabaseMutation{
		Action:      docstore.ActionCreateDatabase,
		Sender:      owner,
		Nonce:       schema.Nonce,
		TxID:        mutationTxID(owner, block, 0),
		Description: schema.Description,
		Collections: schema.collectionSpecs(),
	}

	result, err := cl.engine.ApplyMutation(ctx, mutation, block, 0)
	if err != nil {
		return docstore.Address{}, err
	}

	fmt.Fprintf(out, "created database %s with %d collection(s)\n",
		result.DatabaseAddress.Hex(), len(result.Collections))

	return result.DatabaseAddress, nil
}

func seedDocument(generator faker.Faker) map[string]interface{} {
	person := generator.Person()
	address := generator.Address()
	company := generator.Company()

	return map[string]interface{}{
		"name":    person.Name(),
		"age":     int64(generator.IntBetween(18, 90)),
		"address": map[string]interface{}{"city": address.City()},
		"company": company.Name(),
	}
}
