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
	"bytes"
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"
)

var addressPattern = regexp.MustCompile(`0x[0-9a-f]{40}`)

func runCommand(t *testing.T, args ...string) string {
	t.Helper()

	buf := new(bytes.Buffer)

	cmd := NewCmd()
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)

	require.NoError(t, cmd.Execute())

	return buf.String()
}

func TestCommandsEndToEnd(t *testing.T) {
	dir := t.TempDir()

	out := runCommand(t, "seed", "5", "--dir", dir)
	require.Contains(t, out, "created database")
	require.Contains(t, out, "inserted 5 documents")

	address := addressPattern.FindString(out)
	require.NotEmpty(t, address)

	out = runCommand(t, "catalog", "--dir", dir)
	require.Contains(t, out, address)

	out = runCommand(t, "catalog", "--dir", dir, "--database", address)
	require.Contains(t, out, "people")
	require.Contains(t, out, "by_city_age")
	require.Contains(t, out, "address.city, age")

	out = runCommand(t, "query", "--dir", dir, "--database", address, "--collection", "people")
	require.Contains(t, out, "5 document(s)")

	out = runCommand(t, "status", "--dir", dir)
	require.Contains(t, out, "entries:")
	require.Contains(t, out, "root:")

	out = runCommand(t, "seed", "3", "--dir", dir)
	require.NotContains(t, out, "created database")
	require.Contains(t, out, "inserted 3 documents")

	out = runCommand(t, "query", "--dir", dir, "--database", address, "--collection", "people")
	require.Contains(t, out, "8 document(s)")
}

func TestQueryRejectsBadFilter(t *testing.T) {
	dir := t.TempDir()

	runCommand(t, "seed", "1", "--dir", dir)

	buf := new(bytes.Buffer)
	cmd := NewCmd()
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"query", "--dir", dir,
		"--database", "0x0000000000000000000000000000000000000123",
		"--collection", "people", "age !! 3"})

	require.Error(t, cmd.Execute())
}
