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

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/provadb/provadb/embedded/docstore"
)

func (cl *commandline) verifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify <document id>",
		Short: "Prove a document is included under the current root",
		Long: `Prove a document is included under the current root.

Fetches the stored document together with an inclusion proof, then
recomputes the root from the proof alone and compares. A failure means
the store contents do not match the root it advertises.`,
		Example: `  provadb verify AAAAAAAAAAMAAAAAAAD/TmV2ZXJtb3Jl`,
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

			return cl.verifyDocument(cmd, docID)
		},
	}

	return cmd
}

func (cl *commandline) verifyDocument(cmd *cobra.Command, docID docstore.DocumentID) error {
	proof, err := cl.engine.DocumentProof(cmd.Context(), docID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "document: %s\n", docID.Base64())
	fmt.Fprintf(out, "root:     %x\n", proof.Root[:])
	fmt.Fprintf(out, "proof:    %d step(s)\n", len(proof.Proof.Terms))

	if !docstore.VerifyDocumentProof(proof) {
		printfColorW(out, color.FgRed, "FAIL: proof does not reproduce the root\n")
		return fmt.Errorf("proof verification failed for document %s", docID.Base64())
	}

	printfColorW(out, color.FgGreen, "PASS: document is included under the root\n")

	return nil
}

func printfColorW(w io.Writer, attr color.Attribute, format string, args ...interface{}) {
	_, _ = color.New(attr).Fprintf(w, format, args...)
}
