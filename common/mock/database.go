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

package mock

import (
	"context"
	"sync"

	"github.com/gorse-io/hybrid/dataset"
	"github.com/gorse-io/hybrid/storage/data"
	"github.com/juju/errors"
	"github.com/samber/lo"
)

// Database is an in-memory data store. It records the calls made to the
// recommendation writer and can be told to fail them.
type Database struct {
	mu              sync.Mutex
	interactions    []dataset.Interaction
	catalog         dataset.TagCatalog
	recommendations map[string]map[string]float64

	ClearCalls  int
	InsertCalls [][]data.Recommendation

	// PingError is returned by Ping.
	PingError error
	// FailInsertAt makes the n-th insert call (counted from 1) fail.
	FailInsertAt int
}

func NewDatabase() *Database {
	return &Database{
		catalog:         make(dataset.TagCatalog),
		recommendations: make(map[string]map[string]float64),
	}
}

func (db *Database) Init() error {
	return nil
}

func (db *Database) Ping(_ context.Context) error {
	return db.PingError
}

func (db *Database) Close() error {
	return nil
}

func (db *Database) GetInteractions(_ context.Context) ([]dataset.Interaction, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return lo.Map(db.interactions, func(interaction dataset.Interaction, _ int) dataset.Interaction {
		tags := db.catalog.Tags(interaction.ItemId)
		if tags == nil {
			tags = []string{}
		}
		interaction.Tags = tags
		return interaction
	}), nil
}

func (db *Database) GetItemTags(_ context.Context) (dataset.TagCatalog, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	catalog := make(dataset.TagCatalog, len(db.catalog))
	for itemId, tags := range db.catalog {
		catalog[itemId] = append([]string{}, tags...)
	}
	return catalog, nil
}

func (db *Database) ClearRecommendations(_ context.Context) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.ClearCalls++
	db.recommendations = make(map[string]map[string]float64)
	return nil
}

func (db *Database) BatchInsertRecommendations(_ context.Context, recommendations []data.Recommendation) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.InsertCalls = append(db.InsertCalls, append([]data.Recommendation{}, recommendations...))
	if db.FailInsertAt == len(db.InsertCalls) {
		return errors.New("insert failed")
	}
	for _, recommendation := range recommendations {
		if _, ok := db.recommendations[recommendation.UserId]; !ok {
			db.recommendations[recommendation.UserId] = make(map[string]float64)
		}
		db.recommendations[recommendation.UserId][recommendation.ItemId] = recommendation.Score
	}
	return nil
}

func (db *Database) GetRecommendations(_ context.Context, userId string) ([]data.Recommendation, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	var recommendations []data.Recommendation
	for itemId, score := range db.recommendations[userId] {
		recommendations = append(recommendations, data.Recommendation{UserId: userId, ItemId: itemId, Score: score})
	}
	data.SortRecommendations(recommendations)
	return recommendations, nil
}

// AllRecommendations returns every stored recommendation sorted by user.
func (db *Database) AllRecommendations() []data.Recommendation {
	db.mu.Lock()
	defer db.mu.Unlock()
	var recommendations []data.Recommendation
	for userId, items := range db.recommendations {
		for itemId, score := range items {
			recommendations = append(recommendations, data.Recommendation{UserId: userId, ItemId: itemId, Score: score})
		}
	}
	data.SortRecommendations(recommendations)
	return recommendations
}

func (db *Database) BatchInsertItems(_ context.Context, catalog dataset.TagCatalog) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	for itemId, tags := range catalog {
		db.catalog[itemId] = dataset.NormalizeTags(tags)
	}
	return nil
}

func (db *Database) BatchInsertInteractions(_ context.Context, interactions []dataset.Interaction) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, interaction := range interactions {
		if _, ok := db.catalog[interaction.ItemId]; !ok {
			db.catalog[interaction.ItemId] = dataset.NormalizeTags(interaction.Tags)
		}
		interaction.Tags = nil
		db.interactions = append(db.interactions, interaction)
	}
	return nil
}
