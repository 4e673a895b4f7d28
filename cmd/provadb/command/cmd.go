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

// Package command implements the provadb operator tool. It embeds the
// document engine directly and stands in for the external mutation log by
// assigning block numbers from a local position counter.
package command

import (
	"crypto/sha256"
	"encoding/binary"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/provadb/provadb/embedded/docstore"
	"github.com/provadb/provadb/embedded/logger"
	"github.com/provadb/provadb/embedded/store"
)

// DefaultOwner is the sender address used when none is configured. It is a
// development identity, not a derived database address.
const DefaultOwner = "0x0000000000000000000000000000000000000001"

type commandline struct {
	dir   string
	owner docstore.Address

	logger logger.Logger
	store  *store.Store
	engine *docstore.Engine
	mlog   *positionLog
}

func NewCmd() *cobra.Command {
	cl := &commandline{}

	cmd := &cobra.Command{
		Use:   "provadb",
		Short: "ProvaDB document store operator tool",
		Long: `ProvaDB document store operator tool.

Owns a local store directory and applies mutations to it directly,
standing in for the external mutation log. Block numbers come from a
position counter persisted next to the store.

Environment variables:
  PROVADB_DIR=./data
  PROVADB_OWNER=` + DefaultOwner + `
  PROVADB_LOG_LEVEL=info`,
		SilenceUsage:      true,
		DisableAutoGenTag: true,
	}

	cobra.OnInitialize(initConfig)

	cmd.PersistentFlags().String("dir", "./data", "store directory")
	cmd.PersistentFlags().String("owner", DefaultOwner, "owner address used as mutation sender (hex)")

	if err := viper.BindPFlag("dir", cmd.PersistentFlags().Lookup("dir")); err != nil {
		quitToStdErr(err)
	}
	if err := viper.BindPFlag("owner", cmd.PersistentFlags().Lookup("owner")); err != nil {
		quitToStdErr(err)
	}

	cmd.AddCommand(
		cl.seedCmd(),
		cl.catalogCmd(),
		cl.queryCmd(),
		cl.getCmd(),
		cl.statusCmd(),
		cl.verifyCmd(),
		cl.benchCmd(),
		cl.consoleCmd(),
	)

	return cmd
}

func initConfig() {
	_ = godotenv.Load(".env")

	viper.SetEnvPrefix("provadb")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// open wires the store, the engine and the position counter from the
// configured directory. Read-only commands leave the position log untouched.
func (cl *commandline) open(readOnly bool) error {
	cl.dir = viper.GetString("dir")

	owner, err := docstore.AddressFromHex(viper.GetString("owner"))
	if err != nil {
		return err
	}
	cl.owner = owner

	cl.logger = logger.NewSimpleLogger("provadb", os.Stderr)

	st, err := store.Open(cl.dir, store.DefaultOptions().
		WithReadOnly(readOnly).
		WithLogger(cl.logger))
	if err != nil {
		return err
	}

	engine, err := docstore.NewEngine(st, docstore.DefaultOptions().WithLogger(cl.logger))
	if err != nil {
		st.Close()
		return err
	}

	mlog, err := openPositionLog(cl.dir)
	if err != nil {
		st.Close()
		return err
	}

	cl.store = st
	cl.engine = engine
	cl.mlog = mlog

	return nil
}

func (cl *commandline) close() {
	if cl.store != nil {
		cl.store.Close()
		cl.store = nil
	}
}

// mutationTxID derives a transaction id from the sender and the log
// position, so replaying the same positions yields the same ids.
func mutationTxID(sender docstore.Address, block uint64, order uint32) docstore.TxID {
	var buf [docstore.AddressLen + 12]byte

	copy(buf[:], sender[:])
	binary.BigEndian.PutUint64(buf[docstore.AddressLen:], block)
	binary.BigEndian.PutUint32(buf[docstore.AddressLen+8:], order)

	return docstore.TxID(sha256.Sum256(buf[:]))
}

func quitToStdErr(err error) {
	cobra.CheckErr(err)
}
