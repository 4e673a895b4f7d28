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

	"github.com/spf13/cobra"

	"github.com/provadb/provadb/embedded/docstore"
)

func (cl *commandline) getCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "get <document id>",
		Short:   "Fetch one document by id",
		Example: `  provadb get AAAAAAAAAAMAAAAAAAD/TmV2ZXJtb3Jl`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			docID, err := docstore.DocumentIDFromBase64(args[0])
			if err != nil {
				return err
			}

			if err := cl.open(true); err != nil {
				return err
			}
			defer cl.close()

			doc, err := cl.engine.GetDocument(cmd.Context(), docID)
			if err != nil {
				return err
			}

			return printDocument(cmd, doc)
		},
	}

	return cmd
}

func printDocument(cmd *cobra.Command, doc *docstore.Document) error {
	decoded, err := docstore.DecodeDocumentBody(doc.Body)
	if err != nil {
		return err
	}

	body, err := json.MarshalIndent(decoded, "", "  ")
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "id:    %s\n", doc.ID.Base64())
	fmt.Fprintf(out, "owner: %s\n", doc.Owner.Hex())
	fmt.Fprintf(out, "tx:    %s\n", doc.TxID.Hex())
	fmt.Fprintf(out, "%s\n", body)

	return nil
}
