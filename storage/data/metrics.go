// Copyright 2025 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package data

import (
	"context"
	"time"

	"github.com/gorse-io/hybrid/dataset"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OperationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "hybrid",
		Subsystem: "database",
		Name:      "operation_seconds",
	}, []string{"operation"})
	OperationErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hybrid",
		Subsystem: "database",
		Name:      "operation_errors_total",
	}, []string{"operation"})
	InsertedRecommendations = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "hybrid",
		Subsystem: "database",
		Name:      "inserted_recommendations_total",
	})
)

// Instrument records latency and errors of data store calls.
func Instrument(database Database) Database {
	return &instrumented{Database: database}
}

type instrumented struct {
	Database
}

func observe(operation string, start time.Time, err error) {
	OperationSeconds.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	if err != nil {
		OperationErrors.WithLabelValues(operation).Inc()
	}
}

func (db *instrumented) Ping(ctx context.Context) (err error) {
	defer func(start time.Time) { observe("ping", start, err) }(time.Now())
	return db.Database.Ping(ctx)
}

func (db *instrumented) GetInteractions(ctx context.Context) (interactions []dataset.Interaction, err error) {
	defer func(start time.Time) { observe("get_interactions", start, err) }(time.Now())
	return db.Database.GetInteractions(ctx)
}

func (db *instrumented) GetItemTags(ctx context.Context) (catalog dataset.TagCatalog, err error) {
	defer func(start time.Time) { observe("get_item_tags", start, err) }(time.Now())
	return db.Database.GetItemTags(ctx)
}

func (db *instrumented) ClearRecommendations(ctx context.Context) (err error) {
	defer func(start time.Time) { observe("clear_recommendations", start, err) }(time.Now())
	return db.Database.ClearRecommendations(ctx)
}

func (db *instrumented) BatchInsertRecommendations(ctx context.Context, recommendations []Recommendation) (err error) {
	defer func(start time.Time) { observe("batch_insert_recommendations", start, err) }(time.Now())
	if err = db.Database.BatchInsertRecommendations(ctx, recommendations); err == nil {
		InsertedRecommendations.Add(float64(len(recommendations)))
	}
	return
}
