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
	"sort"

	"github.com/gorse-io/hybrid/dataset"
	"github.com/gorse-io/hybrid/storage"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoItem struct {
	ItemId string   `bson:"_id"`
	Tags   []string `bson:"tags"`
}

type mongoRating struct {
	Seq    int64   `bson:"seq"`
	UserId string  `bson:"user_id"`
	ItemId string  `bson:"item_id"`
	Rating float64 `bson:"rating"`
}

// MongoDB is the data storage based on MongoDB.
type MongoDB struct {
	storage.TablePrefix
	client *mongo.Client
	dbName string
}

// Init collections and indices in MongoDB.
func (db *MongoDB) Init() error {
	ctx := context.Background()
	d := db.client.Database(db.dbName)
	// list collections
	collections, err := d.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return errors.Trace(err)
	}
	// create collections
	for _, name := range []string{db.ItemsTable(), db.RatingsTable(), db.RecommendationsTable()} {
		if !lo.Contains(collections, name) {
			if err = d.CreateCollection(ctx, name); err != nil {
				return errors.Trace(err)
			}
		}
	}
	// create index
	_, err = d.Collection(db.RatingsTable()).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{"seq", 1}},
	})
	if err != nil {
		return errors.Trace(err)
	}
	_, err = d.Collection(db.RecommendationsTable()).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{"user_id", 1}, {"item_id", 1}},
		Options: options.Index().SetUnique(true),
	})
	return errors.Trace(err)
}

func (db *MongoDB) Ping(ctx context.Context) error {
	return errors.Trace(db.client.Ping(ctx, nil))
}

// Close connection to MongoDB.
func (db *MongoDB) Close() error {
	return db.client.Disconnect(context.Background())
}

func (db *MongoDB) GetInteractions(ctx context.Context) ([]dataset.Interaction, error) {
	catalog, err := db.GetItemTags(ctx)
	if err != nil {
		return nil, errors.Trace(err)
	}
	c := db.client.Database(db.dbName).Collection(db.RatingsTable())
	r, err := c.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{"seq", 1}}))
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer r.Close(ctx)
	var interactions []dataset.Interaction
	for r.Next(ctx) {
		var rating mongoRating
		if err = r.Decode(&rating); err != nil {
			return nil, errors.Trace(err)
		}
		tags := catalog.Tags(rating.ItemId)
		if tags == nil {
			tags = []string{}
		}
		interactions = append(interactions, dataset.Interaction{
			UserId: rating.UserId,
			ItemId: rating.ItemId,
			Rating: rating.Rating,
			Tags:   tags,
		})
	}
	return interactions, errors.Trace(r.Err())
}

func (db *MongoDB) GetItemTags(ctx context.Context) (dataset.TagCatalog, error) {
	c := db.client.Database(db.dbName).Collection(db.ItemsTable())
	r, err := c.Find(ctx, bson.M{})
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer r.Close(ctx)
	catalog := make(dataset.TagCatalog)
	for r.Next(ctx) {
		var item mongoItem
		if err = r.Decode(&item); err != nil {
			return nil, errors.Trace(err)
		}
		catalog.Add(item.ItemId, item.Tags...)
	}
	return catalog, errors.Trace(r.Err())
}

func (db *MongoDB) ClearRecommendations(ctx context.Context) error {
	c := db.client.Database(db.dbName).Collection(db.RecommendationsTable())
	_, err := c.DeleteMany(ctx, bson.M{})
	return errors.Trace(err)
}

func (db *MongoDB) BatchInsertRecommendations(ctx context.Context, recommendations []Recommendation) error {
	if len(recommendations) == 0 {
		return nil
	}
	c := db.client.Database(db.dbName).Collection(db.RecommendationsTable())
	var models []mongo.WriteModel
	for _, recommendation := range recommendations {
		models = append(models, mongo.NewUpdateOneModel().
			SetUpsert(true).
			SetFilter(bson.M{
				"user_id": bson.M{"$eq": recommendation.UserId},
				"item_id": bson.M{"$eq": recommendation.ItemId},
			}).
			SetUpdate(bson.M{"$set": bson.M{"score": recommendation.Score}}))
	}
	_, err := c.BulkWrite(ctx, models)
	return errors.Trace(err)
}

func (db *MongoDB) GetRecommendations(ctx context.Context, userId string) ([]Recommendation, error) {
	c := db.client.Database(db.dbName).Collection(db.RecommendationsTable())
	opt := options.Find().SetSort(bson.D{{"score", -1}, {"item_id", 1}})
	r, err := c.Find(ctx, bson.M{"user_id": bson.M{"$eq": userId}}, opt)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer r.Close(ctx)
	var recommendations []Recommendation
	for r.Next(ctx) {
		var recommendation Recommendation
		if err = r.Decode(&recommendation); err != nil {
			return nil, errors.Trace(err)
		}
		recommendations = append(recommendations, recommendation)
	}
	return recommendations, errors.Trace(r.Err())
}

func (db *MongoDB) BatchInsertItems(ctx context.Context, catalog dataset.TagCatalog) error {
	if len(catalog) == 0 {
		return nil
	}
	c := db.client.Database(db.dbName).Collection(db.ItemsTable())
	itemIds := lo.Keys(catalog)
	sort.Strings(itemIds)
	var models []mongo.WriteModel
	for _, itemId := range itemIds {
		models = append(models, mongo.NewUpdateOneModel().
			SetUpsert(true).
			SetFilter(bson.M{"_id": bson.M{"$eq": itemId}}).
			SetUpdate(bson.M{"$set": bson.M{"tags": dataset.NormalizeTags(catalog[itemId])}}))
	}
	_, err := c.BulkWrite(ctx, models)
	return errors.Trace(err)
}

func (db *MongoDB) BatchInsertInteractions(ctx context.Context, interactions []dataset.Interaction) error {
	if len(interactions) == 0 {
		return nil
	}
	d := db.client.Database(db.dbName)
	// insert missing items
	catalog := dataset.CatalogFromInteractions(interactions)
	var models []mongo.WriteModel
	for _, itemId := range lo.Keys(catalog) {
		models = append(models, mongo.NewUpdateOneModel().
			SetUpsert(true).
			SetFilter(bson.M{"_id": bson.M{"$eq": itemId}}).
			SetUpdate(bson.M{"$setOnInsert": bson.M{"tags": catalog[itemId]}}))
	}
	if _, err := d.Collection(db.ItemsTable()).BulkWrite(ctx, models); err != nil {
		return errors.Trace(err)
	}
	// continue the sequence of ratings
	c := d.Collection(db.RatingsTable())
	var seq int64
	var last mongoRating
	err := c.FindOne(ctx, bson.M{}, options.FindOne().SetSort(bson.D{{"seq", -1}})).Decode(&last)
	if err == nil {
		seq = last.Seq + 1
	} else if !errors.Is(err, mongo.ErrNoDocuments) {
		return errors.Trace(err)
	}
	documents := make([]any, len(interactions))
	for i, interaction := range interactions {
		documents[i] = mongoRating{
			Seq:    seq + int64(i),
			UserId: interaction.UserId,
			ItemId: interaction.ItemId,
			Rating: interaction.Rating,
		}
	}
	_, err = c.InsertMany(ctx, documents)
	return errors.Trace(err)
}
