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

	"github.com/tailscale/hujson"

	"github.com/provadb/provadb/embedded/docstore"
)

// seedSchema describes the database the seed command creates. The file
// format is HuJSON, so comments and trailing commas are allowed. Index
// fields are dotted paths; a leading '-' marks a descending field.
type seedSchema struct {
	Owner       string           `json:"owner"`
	Nonce       uint64           `json:"nonce"`
	Description string           `json:"description"`
	Collections []seedCollection `json:"collections"`
}

type seedCollection struct {
	Name    string      `json:"name"`
	Indexes []seedIndex `json:"indexes"`
}

type seedIndex struct {
	Name   string   `json:"name"`
	Fields []string `json:"fields"`
}

func parseSeedSchema(data []byte) (*seedSchema, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return nil, fmt.Errorf("invalid schema file: %v", err)
	}

	var schema seedSchema

	err = json.Unmarshal(standardized, &schema)
	if err != nil {
		return nil, fmt.Errorf("invalid schema file: %v", err)
	}

	if schema.Nonce == 0 {
		schema.Nonce = 1
	}

	if len(schema.Collections) == 0 {
		return nil, fmt.Errorf("schema declares no collections")
	}

	for _, collection := range schema.Collections {
		if collection.Name == "" {
			return nil, fmt.Errorf("schema declares a collection without a name")
		}

		for _, index := range collection.Indexes {
			if len(index.Fields) == 0 {
				return nil, fmt.Errorf("index '%s' declares no fields", index.Name)
			}
		}
	}

	return &schema, nil
}

func (s *seedSchema) collectionSpecs() []docstore.CollectionSpec {
	specs := make([]docstore.CollectionSpec, 0, len(s.Collections))

	for _, collection := range s.Collections {
		spec := docstore.CollectionSpec{Name: collection.Name}

		for _, index := range collection.Indexes {
			fields := make([]docstore.IndexField, 0, len(index.Fields))

			for _, path := range index.Fields {
				descending := strings.HasPrefix(path, "-")

				fields = append(fields, docstore.IndexField{
					Path:       strings.TrimPrefix(path, "-"),
					Descending: descending,
				})
			}

			spec.Indexes = append(spec.Indexes, docstore.IndexSpec{Name: index.Name, Fields: fields})
		}

		specs = append(specs, spec)
	}

	return specs
}

// defaultSeedSchema is the demo database used when no schema file is given:
// one people collection indexed by name, age and city+age.
func defaultSeedSchema() *seedSchema {
	return &seedSchema{
		Nonce:       1,
		Description: "provadb demo database",
		Collections: []seedCollection{
			{
				Name: "people",
				Indexes: []seedIndex{
					{Name: "by_name", Fields: []string{"name"}},
					{Name: "by_age", Fields: []string{"age"}},
					{Name: "by_city_age", Fields: []string{"address.city", "age"}},
				},
			},
		},
	}
}
