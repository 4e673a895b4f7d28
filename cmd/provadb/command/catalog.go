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
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/provadb/provadb/embedded/docstore"
)

func (cl *commandline) catalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Show databases, collections and indexes",
		Long: `Show databases, collections and indexes.

Without --database, lists every database of the configured owner. With
--database, shows the collections and indexes of that database.`,
		Example: `  provadb catalog
  provadb catalog --database 0x8ff06a2b5ad7e3c9d6ab5e01c8b25f40a320e475`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			database, err := cmd.Flags().GetString("database")
			if err != nil {
				return err
			}

			if err := cl.open(true); err != nil {
				return err
			}
			defer cl.close()

			if database == "" {
				return cl.listDatabases(cmd)
			}

			address, err := docstore.AddressFromHex(database)
			if err != nil {
				return err
			}

			return cl.showDatabase(cmd, address)
		},
	}

	cmd.Flags().String("database", "", "database address to inspect (hex)")

	return cmd
}

func (cl *commandline) listDatabases(cmd *cobra.Command) error {
	databases, err := cl.engine.ListDatabasesByOwner(cmd.Context(), cl.owner)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	if len(databases) == 0 {
		fmt.Fprintf(out, "no databases owned by %s\n", cl.owner.Hex())
		return nil
	}

	table := newCatalogTable(out, []string{"ADDRESS", "DESCRIPTION", "COLLECTIONS", "MUTATIONS"})

	for _, db := range databases {
		table.Append([]string{
			db.Address.Hex(),
			db.Description,
			strconv.Itoa(len(db.Collections)),
			strconv.Itoa(len(db.TxHistory)),
		})
	}

	table.Render()

	return nil
}

func (cl *commandline) showDatabase(cmd *cobra.Command, address docstore.Address) error {
	db, err := cl.engine.GetDatabase(cmd.Context(), address)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "database:    %s\n", db.Address.Hex())
	fmt.Fprintf(out, "owner:       %s\n", db.Owner.Hex())
	if db.Description != "" {
		fmt.Fprintf(out, "description: %s\n", db.Description)
	}
	fmt.Fprintf(out, "mutations:   %d (last tx %s)\n\n",
		len(db.TxHistory), db.TxHistory[len(db.TxHistory)-1].Hex())

	table := newCatalogTable(out, []string{"COLLECTION", "ID", "INDEX", "FIELDS"})

	for _, collection := range db.Collections {
		if len(collection.Indexes) == 0 {
			table.Append([]string{collection.Name, collection.ID.String(), "", ""})
			continue
		}

		for i, index := range collection.Indexes {
			name, id := "", ""
			if i == 0 {
				name, id = collection.Name, collection.ID.String()
			}

			table.Append([]string{name, id, index.Name, formatIndexFields(index.Fields)})
		}
	}

	table.Render()

	return nil
}

func newCatalogTable(out io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(out)
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)
	// addresses and tx hashes must stay on one line to be copy-pasteable
	table.SetAutoWrapText(false)
	return table
}

// formatIndexFields renders index fields the way schema files declare
// them, with a leading '-' on descending fields.
func formatIndexFields(fields []docstore.IndexField) string {
	parts := make([]string, 0, len(fields))

	for _, field := range fields {
		if field.Descending {
			parts = append(parts, "-"+field.Path)
			continue
		}

		parts = append(parts, field.Path)
	}

	return strings.Join(parts, ", ")
}
