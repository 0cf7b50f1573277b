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
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	"github.com/gorse-io/hybrid/dataset"
	"github.com/gorse-io/hybrid/storage"
	"github.com/juju/errors"
	_ "github.com/lib/pq"
	"github.com/samber/lo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	_ "modernc.org/sqlite"
)

type SQLDriver int

const (
	MySQL SQLDriver = iota
	Postgres
	SQLite
)

type SQLItem struct {
	ItemId string `gorm:"column:item_id;type:varchar(256) not null;primaryKey"`
	Tags   string `gorm:"column:tags;type:json not null"`
}

type SQLRating struct {
	Id     int64   `gorm:"column:id;primaryKey;autoIncrement"`
	UserId string  `gorm:"column:user_id;type:varchar(256) not null;index:ratings_user_id"`
	ItemId string  `gorm:"column:item_id;type:varchar(256) not null;index:ratings_item_id"`
	Rating float64 `gorm:"column:rating;not null"`
}

type SQLRecommendation struct {
	UserId string  `gorm:"column:user_id;type:varchar(256) not null;primaryKey"`
	ItemId string  `gorm:"column:item_id;type:varchar(256) not null;primaryKey"`
	Score  float64 `gorm:"column:score;not null"`
}

// SQLDatabase stores ratings, item tags and recommendations in MySQL,
// Postgres or SQLite.
type SQLDatabase struct {
	storage.TablePrefix
	gormDB *gorm.DB
	client *sql.DB
	driver SQLDriver
}

func (d *SQLDatabase) Init() error {
	db := d.gormDB
	if d.driver == MySQL {
		db = db.Set("gorm:table_options", "ENGINE=InnoDB")
	}
	if err := db.AutoMigrate(&SQLItem{}, &SQLRating{}, &SQLRecommendation{}); err != nil {
		return errors.Trace(err)
	}
	return nil
}

func (d *SQLDatabase) Ping(ctx context.Context) error {
	return errors.Trace(d.client.PingContext(ctx))
}

func (d *SQLDatabase) Close() error {
	return d.client.Close()
}

func (d *SQLDatabase) GetInteractions(ctx context.Context) ([]dataset.Interaction, error) {
	rows, err := d.gormDB.WithContext(ctx).
		Table(d.RatingsTable()+" AS r").
		Select("r.user_id, r.item_id, r.rating, i.tags").
		Joins("LEFT JOIN " + d.ItemsTable() + " AS i ON r.item_id = i.item_id").
		Order("r.id").
		Rows()
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer rows.Close()
	var interactions []dataset.Interaction
	for rows.Next() {
		var (
			interaction dataset.Interaction
			tags        sql.NullString
		)
		if err = rows.Scan(&interaction.UserId, &interaction.ItemId, &interaction.Rating, &tags); err != nil {
			return nil, errors.Trace(err)
		}
		if interaction.Tags, err = decodeTags(tags); err != nil {
			return nil, errors.Trace(err)
		}
		interactions = append(interactions, interaction)
	}
	return interactions, errors.Trace(rows.Err())
}

func (d *SQLDatabase) GetItemTags(ctx context.Context) (dataset.TagCatalog, error) {
	rows, err := d.gormDB.WithContext(ctx).Table(d.ItemsTable()).Select("item_id, tags").Rows()
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer rows.Close()
	catalog := make(dataset.TagCatalog)
	for rows.Next() {
		var (
			itemId string
			tags   sql.NullString
		)
		if err = rows.Scan(&itemId, &tags); err != nil {
			return nil, errors.Trace(err)
		}
		decoded, err := decodeTags(tags)
		if err != nil {
			return nil, errors.Trace(err)
		}
		catalog.Add(itemId, decoded...)
	}
	return catalog, errors.Trace(rows.Err())
}

func (d *SQLDatabase) ClearRecommendations(ctx context.Context) error {
	_, err := d.client.ExecContext(ctx, "DELETE FROM "+d.RecommendationsTable())
	return errors.Trace(err)
}

func (d *SQLDatabase) BatchInsertRecommendations(ctx context.Context, recommendations []Recommendation) error {
	recommendations = dedupRecommendations(recommendations)
	if len(recommendations) == 0 {
		return nil
	}
	builder := strings.Builder{}
	builder.WriteString(fmt.Sprintf("INSERT INTO %s(user_id, item_id, score) VALUES ", d.RecommendationsTable()))
	var args []any
	for i, recommendation := range recommendations {
		if d.driver == Postgres {
			builder.WriteString(fmt.Sprintf("($%d,$%d,$%d)", len(args)+1, len(args)+2, len(args)+3))
		} else {
			builder.WriteString("(?,?,?)")
		}
		if i+1 < len(recommendations) {
			builder.WriteString(",")
		}
		args = append(args, recommendation.UserId, recommendation.ItemId, recommendation.Score)
	}
	if d.driver == MySQL {
		builder.WriteString(" ON DUPLICATE KEY UPDATE score = VALUES(score)")
	} else {
		builder.WriteString(" ON CONFLICT (user_id, item_id) DO UPDATE SET score = EXCLUDED.score")
	}
	_, err := d.client.ExecContext(ctx, builder.String(), args...)
	return errors.Trace(err)
}

func (d *SQLDatabase) GetRecommendations(ctx context.Context, userId string) ([]Recommendation, error) {
	var rows []SQLRecommendation
	if err := d.gormDB.WithContext(ctx).
		Where("user_id = ?", userId).
		Order("score DESC, item_id").
		Find(&rows).Error; err != nil {
		return nil, errors.Trace(err)
	}
	return lo.Map(rows, func(row SQLRecommendation, _ int) Recommendation {
		return Recommendation{UserId: row.UserId, ItemId: row.ItemId, Score: row.Score}
	}), nil
}

func (d *SQLDatabase) BatchInsertItems(ctx context.Context, catalog dataset.TagCatalog) error {
	if len(catalog) == 0 {
		return nil
	}
	itemIds := lo.Keys(catalog)
	sort.Strings(itemIds)
	builder := strings.Builder{}
	builder.WriteString(fmt.Sprintf("INSERT INTO %s(item_id, tags) VALUES ", d.ItemsTable()))
	var args []any
	for i, itemId := range itemIds {
		tags, err := json.Marshal(dataset.NormalizeTags(catalog[itemId]))
		if err != nil {
			return errors.Trace(err)
		}
		if d.driver == Postgres {
			builder.WriteString(fmt.Sprintf("($%d,$%d)", len(args)+1, len(args)+2))
		} else {
			builder.WriteString("(?,?)")
		}
		if i+1 < len(itemIds) {
			builder.WriteString(",")
		}
		args = append(args, itemId, string(tags))
	}
	if d.driver == MySQL {
		builder.WriteString(" ON DUPLICATE KEY UPDATE tags = VALUES(tags)")
	} else {
		builder.WriteString(" ON CONFLICT (item_id) DO UPDATE SET tags = EXCLUDED.tags")
	}
	_, err := d.client.ExecContext(ctx, builder.String(), args...)
	return errors.Trace(err)
}

// BatchInsertInteractions appends ratings. Rated items missing from the items
// table are created with the tags carried by the interactions.
func (d *SQLDatabase) BatchInsertInteractions(ctx context.Context, interactions []dataset.Interaction) error {
	if len(interactions) == 0 {
		return nil
	}
	catalog := dataset.CatalogFromInteractions(interactions)
	items := make([]SQLItem, 0, len(catalog))
	for _, itemId := range lo.Keys(catalog) {
		tags, err := json.Marshal(catalog[itemId])
		if err != nil {
			return errors.Trace(err)
		}
		items = append(items, SQLItem{ItemId: itemId, Tags: string(tags)})
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].ItemId < items[j].ItemId
	})
	ratings := lo.Map(interactions, func(interaction dataset.Interaction, _ int) SQLRating {
		return SQLRating{UserId: interaction.UserId, ItemId: interaction.ItemId, Rating: interaction.Rating}
	})
	return d.gormDB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&items).Error; err != nil {
			return errors.Trace(err)
		}
		return errors.Trace(tx.Create(&ratings).Error)
	})
}

func decodeTags(raw sql.NullString) ([]string, error) {
	if !raw.Valid || raw.String == "" {
		return []string{}, nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(raw.String), &tags); err != nil {
		return nil, errors.Trace(err)
	}
	return dataset.NormalizeTags(tags), nil
}

// dedupRecommendations keeps the last recommendation of each (user, item).
func dedupRecommendations(recommendations []Recommendation) []Recommendation {
	type key struct{ userId, itemId string }
	last := make(map[key]int, len(recommendations))
	for i, recommendation := range recommendations {
		last[key{recommendation.UserId, recommendation.ItemId}] = i
	}
	if len(last) == len(recommendations) {
		return recommendations
	}
	return lo.Filter(recommendations, func(recommendation Recommendation, i int) bool {
		return last[key{recommendation.UserId, recommendation.ItemId}] == i
	})
}
