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

package store

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var metricsAppliedBatches = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "provadb_store_applied_batches_total",
	Help: "Number of atomic batches applied to the store since the process was started",
}, []string{"id"})

var metricsAppliedOps = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "provadb_store_applied_ops_total",
	Help: "Number of key operations applied to the store since the process was started",
}, []string{"id"})

var metricsEntries = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Name: "provadb_store_entries",
	Help: "Number of live entries in the store",
}, []string{"id"})

var metricsApplyDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "provadb_store_apply_duration_seconds",
	Help:    "Duration of atomic batch application, tree update and disk write included",
	Buckets: prometheus.DefBuckets,
}, []string{"id"})
