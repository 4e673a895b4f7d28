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
	"time"

	"github.com/spf13/cobra"
)

func (cl *commandline) statusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show store identity, current root and log position",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cl.open(true); err != nil {
				return err
			}
			defer cl.close()

			return cl.printStatus(cmd)
		},
	}

	return cmd
}

func (cl *commandline) printStatus(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()
	manifest := cl.store.Manifest()
	root := cl.store.Root()

	fmt.Fprintf(out, "path:       %s\n", cl.store.Path())
	fmt.Fprintf(out, "instance:   %s\n", manifest.InstanceID)
	fmt.Fprintf(out, "format:     v%d (created %s)\n",
		manifest.FormatVersion, manifest.CreatedAt.Format(time.RFC3339))
	fmt.Fprintf(out, "entries:    %d\n", cl.store.Entries())
	fmt.Fprintf(out, "root:       %x\n", root[:])
	fmt.Fprintf(out, "next block: %d\n", cl.mlog.next)

	return nil
}
