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
	"encoding/json"
	"fmt"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/provadb/provadb/embedded/docstore"
)

func (cl *commandline) queryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query [filter expression]",
		Short: "Run a structured query over one collection",
		Long: `Run a structured query over one collection.

The filter expression has the form <field> <op> <value>, with multiple
comparisons joined by 'and'. Operators: = == < <= > >=. String values
take quotes, numbers and booleans are bare, null matches documents that
store an explicit null. Filtered fields must be covered by an index of
the collection. No expression lists the whole collection.`,
		Example: `  provadb query --database 0x8ff0... --collection people
  provadb query --database 0x8ff0... --collection people "age >= 30"
  provadb query --database 0x8ff0... --collection people "address.city == 'rome' and age > 21" --limit 10`,
		RunE: func(cmd *cobra.Command, args []string) error {
			database, err := cmd.Flags().GetString("database")
			if err != nil {
				return err
			}
			collection, err := cmd.Flags().GetString("collection")
			if err != nil {
				return err
			}
			limit, err := cmd.Flags().GetInt("limit")
			if err != nil {
				return err
			}

			address, err := docstore.AddressFromHex(database)
			if err != nil {
				return err
			}

			filters, err := parseFilters(strings.Join(args, " "))
			if err != nil {
				return err
			}

			if err := cl.open(true); err != nil {
				return err
			}
			defer cl.close()

			return cl.runQuery(cmd, address, collection, &docstore.Query{Filters: filters, Limit: limit})
		},
	}

	cmd.Flags().String("database", "", "database address (hex)")
	cmd.Flags().String("collection", "", "collection name")
	cmd.Flags().Int("limit", 0, "maximum number of documents (0 uses the engine limit)")

	if err := cmd.MarkFlagRequired("database"); err != nil {
		quitToStdErr(err)
	}
	if err := cmd.MarkFlagRequired("collection"); err != nil {
		quitToStdErr(err)
	}

	return cmd
}

func (cl *commandline) runQuery(cmd *cobra.Command, address docstore.Address, collection string, q *docstore.Query) error {
	docs, err := cl.engine.RunQuery(cmd.Context(), address, collection, q)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	if len(docs) == 0 {
		fmt.Fprintln(out, "no documents matched")
		return nil
	}

	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"ID", "OWNER", "TX", "BODY"})
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)

	for _, doc := range docs {
		body, err := renderDocumentBody(doc.Body)
		if err != nil {
			return err
		}

		table.Append([]string{doc.ID.Base64(), doc.Owner.Hex(), doc.TxID.Hex(), body})
	}

	table.Render()
	fmt.Fprintf(out, "%d document(s)\n", len(docs))

	return nil
}

// renderDocumentBody turns a stored body back into compact JSON.
func renderDocumentBody(body []byte) (string, error) {
	doc, err := docstore.DecodeDocumentBody(body)
	if err != nil {
		return "", err
	}

	rendered, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}

	return string(rendered), nil
}
