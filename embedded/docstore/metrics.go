/*
Copyright 2025 ProvaDB Authors

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

package docstore

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var metricsMutations = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "provadb_engine_mutations_total",
	Help: "Number of applied database mutations per action",
}, []string{"id", "action"})

var metricsMutationErrors = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "provadb_engine_mutation_errors_total",
	Help: "Number of rejected database mutations per action",
}, []string{"id", "action"})

var metricsDocumentsWritten = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "provadb_engine_documents_written_total",
	Help: "Number of document envelopes written or deleted",
}, []string{"id"})

var metricsIndexEntries = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "provadb_engine_index_entries_total",
	Help: "Number of index entries written or deleted",
}, []string{"id", "op"})

var metricsQueries = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "provadb_engine_queries_total",
	Help: "Number of executed queries",
}, []string{"id"})

var metricsQueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "provadb_engine_query_duration_seconds",
	Help:    "Query execution time",
	Buckets: prometheus.DefBuckets,
}, []string{"id"})

var metricsQueryScannedEntries = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "provadb_engine_query_scanned_entries",
	Help:    "Number of entries read from the store per query",
	Buckets: prometheus.ExponentialBuckets(1, 4, 8),
}, []string{"id"})
