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
	"os"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/provadb/provadb/embedded/docstore"
)

func (cl *commandline) consoleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "console",
		Short: "Interactive read-only console",
		Long: `Interactive read-only console.

Opens the store read-only and keeps it open across commands, so every
lookup runs against the same process. Type help inside the console for
the command list.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cl.open(true); err != nil {
				return err
			}
			defer cl.close()

			newConsole(cl, cmd).run()

			return nil
		},
	}

	return cmd
}

type consoleCommand struct {
	name  string
	short string
	args  []string
	run   func(args []string) error
}

type console struct {
	cl  *commandline
	cmd *cobra.Command

	database    docstore.Address
	hasDatabase bool

	commands    []*consoleCommand
	commandsMap map[string]*consoleCommand
	helpMessage string
}

func newConsole(cl *commandline, cmd *cobra.Command) *console {
	cs := &console{cl: cl, cmd: cmd}

	cs.register(&consoleCommand{"use", "select the database for query and catalog", []string{"address"}, cs.use})
	cs.register(&consoleCommand{"catalog", "show the selected database, or list all owned ones", nil, cs.catalog})
	cs.register(&consoleCommand{"query", "query a collection of the selected database", []string{"collection"}, cs.query})
	cs.register(&consoleCommand{"get", "fetch a document by id", []string{"id"}, cs.get})
	cs.register(&consoleCommand{"verify", "check the inclusion proof of a document", []string{"id"}, cs.verify})
	cs.register(&consoleCommand{"status", "show store identity, root and log position", nil, cs.status})

	cs.helpInit()

	return cs
}

func (cs *console) register(cmd *consoleCommand) {
	if cs.commandsMap == nil {
		cs.commandsMap = make(map[string]*consoleCommand)
	}

	cs.commands = append(cs.commands, cmd)
	cs.commandsMap[cmd.name] = cmd
}

func (cs *console) helpInit() {
	namelen := 0
	for _, cmd := range cs.commands {
		if len(cmd.name) > namelen {
			namelen = len(cmd.name)
		}
	}

	str := strings.Builder{}
	for _, cmd := range cs.commands {
		str.WriteString(padRight(cmd.name, namelen+2))
		str.WriteString(cmd.short)
		if len(cmd.args) > 0 {
			str.WriteString("  args: " + strings.Join(cmd.args, ","))
		}
		str.WriteString("\n")
	}
	str.WriteString(padRight("exit", namelen+2))
	str.WriteString("leave the console\n")

	cs.helpMessage = str.String()
}

func (cs *console) completer(line string) (c []string) {
	c = make([]string, 0)
	for _, cmd := range cs.commands {
		if strings.HasPrefix(cmd.name, line) {
			c = append(c, cmd.name)
		}
	}
	return c
}

func (cs *console) run() {
	l := liner.NewLiner()
	l.SetCompleter(cs.completer)
	defer l.Close()

	for {
		line, err := l.Prompt("provadb> ")
		if err == liner.ErrPromptAborted {
			continue
		}
		if err == io.EOF {
			fmt.Fprintln(cs.cmd.OutOrStdout())
			return
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return
		}

		l.AppendHistory(line)

		tokens := strings.Fields(line)
		if len(tokens) == 0 {
			continue
		}

		switch tokens[0] {
		case "exit", "quit":
			return
		case "help", "--help", "-h":
			fmt.Fprint(cs.cmd.OutOrStdout(), cs.helpMessage)
			continue
		}

		cmd, ok := cs.commandsMap[tokens[0]]
		if !ok {
			fmt.Fprintf(cs.cmd.OutOrStdout(), "ERROR: unknown command '%s', run help for usage\n", tokens[0])
			continue
		}

		if len(tokens[1:]) < len(cmd.args) {
			fmt.Fprintf(cs.cmd.OutOrStdout(), "ERROR: %s needs %d argument(s): %s\n",
				cmd.name, len(cmd.args), strings.Join(cmd.args, ","))
			continue
		}

		if err := cmd.run(tokens[1:]); err != nil {
			fmt.Fprintf(cs.cmd.OutOrStdout(), "ERROR: %s\n", err)
		}
	}
}

func (cs *console) use(args []string) error {
	address, err := docstore.AddressFromHex(args[0])
	if err != nil {
		return err
	}

	if _, err := cs.cl.engine.GetDatabase(cs.cmd.Context(), address); err != nil {
		return err
	}

	cs.database = address
	cs.hasDatabase = true

	fmt.Fprintf(cs.cmd.OutOrStdout(), "now using %s\n", address.Hex())

	return nil
}

func (cs *console) catalog(args []string) error {
	if !cs.hasDatabase {
		return cs.cl.listDatabases(cs.cmd)
	}

	return cs.cl.showDatabase(cs.cmd, cs.database)
}

func (cs *console) query(args []string) error {
	if !cs.hasDatabase {
		return fmt.Errorf("no database selected, run use first")
	}

	filters, err := parseFilters(strings.Join(args[1:], " "))
	if err != nil {
		return err
	}

	return cs.cl.runQuery(cs.cmd, cs.database, args[0], &docstore.Query{Filters: filters})
}

func (cs *console) get(args []string) error {
	docID, err := docstore.DocumentIDFromBase64(args[0])
	if err != nil {
		return err
	}

	doc, err := cs.cl.engine.GetDocument(cs.cmd.Context(), docID)
	if err != nil {
		return err
	}

	return printDocument(cs.cmd, doc)
}

func (cs *console) verify(args []string) error {
	docID, err := docstore.DocumentIDFromBase64(args[0])
	if err != nil {
		return err
	}

	return cs.cl.verifyDocument(cs.cmd, docID)
}

func (cs *console) status(args []string) error {
	return cs.cl.printStatus(cs.cmd)
}

func padRight(s string, length int) string {
	for len(s) < length {
		s += " "
	}
	return s
}
