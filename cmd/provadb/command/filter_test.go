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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/provadb/provadb/embedded/docstore"
)

func TestParseFilters(t *testing.T) {
	t.Run("empty expression means no filters", func(t *testing.T) {
		filters, err := parseFilters("")
		require.NoError(t, err)
		require.Nil(t, filters)

		filters, err = parseFilters("   ")
		require.NoError(t, err)
		require.Nil(t, filters)
	})

	t.Run("single comparison", func(t *testing.T) {
		filters, err := parseFilters("age >= 30")
		require.NoError(t, err)
		require.Equal(t, []docstore.FieldComparison{
			{Field: "age", Op: docstore.GE, Value: int64(30)},
		}, filters)
	})

	t.Run("comparisons joined with and", func(t *testing.T) {
		filters, err := parseFilters("address.city == 'rome' and age > 21")
		require.NoError(t, err)
		require.Equal(t, []docstore.FieldComparison{
			{Field: "address.city", Op: docstore.EQ, Value: "rome"},
			{Field: "age", Op: docstore.GT, Value: int64(21)},
		}, filters)
	})

	t.Run("and is case insensitive", func(t *testing.T) {
		filters, err := parseFilters("a = 1 AND b = 2")
		require.NoError(t, err)
		require.Len(t, filters, 2)
	})

	t.Run("value types", func(t *testing.T) {
		for _, tc := range []struct {
			token string
			want  interface{}
		}{
			{"42", int64(42)},
			{"-7", int64(-7)},
			{"3.14", float64(3.14)},
			{"true", true},
			{"false", false},
			{"null", nil},
			{"'quoted string'", "quoted string"},
			{`"double quoted"`, "double quoted"},
			{"bare", "bare"},
		} {
			filters, err := parseFilters("field = " + tc.token)
			require.NoError(t, err)
			require.Len(t, filters, 1)
			require.Equal(t, tc.want, filters[0].Value, "token %q", tc.token)
		}
	})

	t.Run("unsupported operator", func(t *testing.T) {
		_, err := parseFilters("age != 30")
		require.ErrorIs(t, err, docstore.ErrUnsupportedOperator)
	})

	t.Run("incomplete comparison", func(t *testing.T) {
		_, err := parseFilters("age >=")
		require.Error(t, err)
		require.Contains(t, err.Error(), "incomplete filter")
	})

	t.Run("missing and between comparisons", func(t *testing.T) {
		_, err := parseFilters("a = 1 b = 2")
		require.Error(t, err)
		require.Contains(t, err.Error(), "expected 'and'")
	})

	t.Run("dangling and", func(t *testing.T) {
		_, err := parseFilters("a = 1 and")
		require.Error(t, err)
		require.Contains(t, err.Error(), "dangling 'and'")
	})
}
