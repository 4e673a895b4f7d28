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
	"strconv"
	"strings"

	"github.com/provadb/provadb/embedded/docstore"
)

// parseFilters parses a filter expression of the form
//
//	field OP value [and field OP value ...]
//
// where OP is one of =, ==, <, <=, >, >=. Values parse as bool, int or
// float when they look like one, as null for the literal null, and as a
// string otherwise; quotes force a string and may enclose spaces. An
// empty expression means an unfiltered scan.
func parseFilters(expr string) ([]docstore.FieldComparison, error) {
	tokens := splitFilterTokens(expr)
	if len(tokens) == 0 {
		return nil, nil
	}

	var filters []docstore.FieldComparison

	for len(tokens) > 0 {
		if len(tokens) < 3 {
			return nil, fmt.Errorf("incomplete filter near '%s'", strings.Join(tokens, " "))
		}

		op, err := docstore.ParseComparisonOperator(tokens[1])
		if err != nil {
			return nil, err
		}

		filters = append(filters, docstore.FieldComparison{
			Field: tokens[0],
			Op:    op,
			Value: parseFilterValue(tokens[2]),
		})
		tokens = tokens[3:]

		if len(tokens) == 0 {
			break
		}

		if !strings.EqualFold(tokens[0], "and") {
			return nil, fmt.Errorf("expected 'and' near '%s'", tokens[0])
		}
		tokens = tokens[1:]

		if len(tokens) == 0 {
			return nil, fmt.Errorf("dangling 'and'")
		}
	}

	return filters, nil
}

// splitFilterTokens splits on whitespace, keeping quoted runs together.
// Quotes stay in the token so parseFilterValue can tell them apart from
// bare words.
func splitFilterTokens(expr string) []string {
	var tokens []string
	var b strings.Builder
	var quote byte

	flush := func() {
		if b.Len() > 0 {
			tokens = append(tokens, b.String())
			b.Reset()
		}
	}

	for i := 0; i < len(expr); i++ {
		c := expr[i]

		switch {
		case quote != 0:
			b.WriteByte(c)
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
			b.WriteByte(c)
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			flush()
		default:
			b.WriteByte(c)
		}
	}
	flush()

	return tokens
}

func parseFilterValue(token string) interface{} {
	if len(token) >= 2 {
		if (token[0] == '\'' && token[len(token)-1] == '\'') ||
			(token[0] == '"' && token[len(token)-1] == '"') {
			return token[1 : len(token)-1]
		}
	}

	switch token {
	case "null":
		return nil
	case "true":
		return true
	case "false":
		return false
	}

	if i, err := strconv.ParseInt(token, 10, 64); err == nil {
		return i
	}

	if f, err := strconv.ParseFloat(token, 64); err == nil {
		return f
	}

	return token
}
