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

	"github.com/gorse-io/hybrid/dataset"
	"github.com/juju/errors"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/samber/lo"
)

// Neo4j reads ratings from a property graph:
//
//	(:User)-[:CREATED]->(:Review {rating})-[:REVIEWED]->(:Post)-[:HAS_TAG]->(:Tag {name})
//
// and stores recommendations as (:User)-[:RECOMMENDED {score}]->(:Post).
type Neo4j struct {
	driver neo4j.DriverWithContext
}

const (
	neo4jGetInteractions = `
MATCH (u:User)-[:CREATED]->(r:Review)-[:REVIEWED]->(p:Post)
OPTIONAL MATCH (p)-[:HAS_TAG]->(t:Tag)
RETURN toString(u.id) AS user_id, toString(p.id) AS item_id, r.rating AS rating, collect(t.name) AS tags`
	neo4jGetItemTags = `
MATCH (p:Post)
OPTIONAL MATCH (p)-[:HAS_TAG]->(t:Tag)
RETURN toString(p.id) AS item_id, collect(t.name) AS tags`
	neo4jClearRecommendations = `
MATCH (:User)-[r:RECOMMENDED]->(:Post)
DELETE r`
	neo4jInsertRecommendations = `
UNWIND $batch AS row
MATCH (u:User {id: row.user_id}), (p:Post {id: row.item_id})
MERGE (u)-[r:RECOMMENDED]->(p)
SET r.score = row.score`
	neo4jGetRecommendations = `
MATCH (u:User)-[r:RECOMMENDED]->(p:Post)
WHERE toString(u.id) = $user_id
RETURN toString(p.id) AS item_id, r.score AS score
ORDER BY score DESC, item_id`
	neo4jInsertItems = `
UNWIND $batch AS row
MERGE (p:Post {id: row.item_id})
WITH p, row
UNWIND row.tags AS name
MERGE (t:Tag {name: name})
MERGE (p)-[:HAS_TAG]->(t)`
	neo4jInsertInteractions = `
UNWIND $batch AS row
MERGE (u:User {id: row.user_id})
MERGE (p:Post {id: row.item_id})
CREATE (u)-[:CREATED]->(:Review {rating: row.rating})-[:REVIEWED]->(p)`
)

func (db *Neo4j) Init() error {
	return nil
}

func (db *Neo4j) Ping(ctx context.Context) error {
	return errors.Trace(db.driver.VerifyConnectivity(ctx))
}

func (db *Neo4j) Close() error {
	return db.driver.Close(context.Background())
}

func (db *Neo4j) GetInteractions(ctx context.Context) ([]dataset.Interaction, error) {
	var interactions []dataset.Interaction
	err := db.read(ctx, neo4jGetInteractions, nil, func(record *neo4j.Record) error {
		if interaction, ok := interactionFromRecord(record); ok {
			interactions = append(interactions, interaction)
		}
		return nil
	})
	return interactions, errors.Trace(err)
}

func (db *Neo4j) GetItemTags(ctx context.Context) (dataset.TagCatalog, error) {
	catalog := make(dataset.TagCatalog)
	err := db.read(ctx, neo4jGetItemTags, nil, func(record *neo4j.Record) error {
		if itemId := recordString(record, "item_id"); itemId != "" {
			catalog.Add(itemId, recordStrings(record, "tags")...)
		}
		return nil
	})
	return catalog, errors.Trace(err)
}

// interactionFromRecord decodes a rated review. Reviews without a user, an
// item or a numeric rating are not interactions.
func interactionFromRecord(record *neo4j.Record) (dataset.Interaction, bool) {
	userId := recordString(record, "user_id")
	itemId := recordString(record, "item_id")
	if userId == "" || itemId == "" {
		return dataset.Interaction{}, false
	}
	rating, ok := recordFloat(record, "rating")
	if !ok {
		return dataset.Interaction{}, false
	}
	return dataset.Interaction{
		UserId: userId,
		ItemId: itemId,
		Rating: rating,
		Tags:   dataset.NormalizeTags(recordStrings(record, "tags")),
	}, true
}

func (db *Neo4j) ClearRecommendations(ctx context.Context) error {
	return db.write(ctx, neo4jClearRecommendations, nil)
}

func (db *Neo4j) BatchInsertRecommendations(ctx context.Context, recommendations []Recommendation) error {
	if len(recommendations) == 0 {
		return nil
	}
	batch := lo.Map(recommendations, func(recommendation Recommendation, _ int) any {
		return map[string]any{
			"user_id": recommendation.UserId,
			"item_id": recommendation.ItemId,
			"score":   recommendation.Score,
		}
	})
	return db.write(ctx, neo4jInsertRecommendations, map[string]any{"batch": batch})
}

func (db *Neo4j) GetRecommendations(ctx context.Context, userId string) ([]Recommendation, error) {
	var recommendations []Recommendation
	err := db.read(ctx, neo4jGetRecommendations, map[string]any{"user_id": userId}, func(record *neo4j.Record) error {
		score, _ := recordFloat(record, "score")
		recommendations = append(recommendations, Recommendation{
			UserId: userId,
			ItemId: recordString(record, "item_id"),
			Score:  score,
		})
		return nil
	})
	return recommendations, errors.Trace(err)
}

func (db *Neo4j) BatchInsertItems(ctx context.Context, catalog dataset.TagCatalog) error {
	if len(catalog) == 0 {
		return nil
	}
	batch := make([]any, 0, len(catalog))
	for itemId, tags := range catalog {
		batch = append(batch, map[string]any{
			"item_id": itemId,
			"tags":    lo.ToAnySlice(dataset.NormalizeTags(tags)),
		})
	}
	return db.write(ctx, neo4jInsertItems, map[string]any{"batch": batch})
}

func (db *Neo4j) BatchInsertInteractions(ctx context.Context, interactions []dataset.Interaction) error {
	if len(interactions) == 0 {
		return nil
	}
	if err := db.BatchInsertItems(ctx, dataset.CatalogFromInteractions(interactions)); err != nil {
		return errors.Trace(err)
	}
	batch := lo.Map(interactions, func(interaction dataset.Interaction, _ int) any {
		return map[string]any{
			"user_id": interaction.UserId,
			"item_id": interaction.ItemId,
			"rating":  interaction.Rating,
		}
	})
	return db.write(ctx, neo4jInsertInteractions, map[string]any{"batch": batch})
}

func (db *Neo4j) read(ctx context.Context, query string, params map[string]any, handle func(*neo4j.Record) error) error {
	session := db.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)
	result, err := session.Run(ctx, query, params)
	if err != nil {
		return errors.Trace(err)
	}
	for result.Next(ctx) {
		if err = handle(result.Record()); err != nil {
			return errors.Trace(err)
		}
	}
	return errors.Trace(result.Err())
}

func (db *Neo4j) write(ctx context.Context, query string, params map[string]any) error {
	session := db.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)
	result, err := session.Run(ctx, query, params)
	if err != nil {
		return errors.Trace(err)
	}
	_, err = result.Consume(ctx)
	return errors.Trace(err)
}

func recordString(record *neo4j.Record, key string) string {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return ""
	}
	if str, ok := val.(string); ok {
		return str
	}
	return ""
}

func recordFloat(record *neo4j.Record, key string) (float64, bool) {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return 0, false
	}
	switch v := val.(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	}
	return 0, false
}

// recordStrings drops null and non-string elements.
func recordStrings(record *neo4j.Record, key string) []string {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return []string{}
	}
	slice, ok := val.([]any)
	if !ok {
		return []string{}
	}
	result := make([]string, 0, len(slice))
	for _, v := range slice {
		if str, ok := v.(string); ok {
			result = append(result, str)
		}
	}
	return result
}
