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
	"time"

	"github.com/XSAM/otelsql"
	"github.com/gorse-io/hybrid/base/log"
	"github.com/gorse-io/hybrid/dataset"
	"github.com/gorse-io/hybrid/storage"
	"github.com/juju/errors"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"
	"go.opentelemetry.io/contrib/instrumentation/go.mongodb.org/mongo-driver/mongo/otelmongo"
	semconv "go.opentelemetry.io/otel/semconv/v1.12.0"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"moul.io/zapgorm2"
)

var ErrNoDatabase = errors.NotAssignedf("database")

// Recommendation is a scored item recommended to a user.
type Recommendation struct {
	UserId string  `bson:"user_id" json:"user_id"`
	ItemId string  `bson:"item_id" json:"item_id"`
	Score  float64 `bson:"score" json:"score"`
}

// SortRecommendations sorts recommendations by user, then by score in
// descending order, then by item.
func SortRecommendations(recommendations []Recommendation) {
	sort.SliceStable(recommendations, func(i, j int) bool {
		if recommendations[i].UserId != recommendations[j].UserId {
			return recommendations[i].UserId < recommendations[j].UserId
		}
		if recommendations[i].Score != recommendations[j].Score {
			return recommendations[i].Score > recommendations[j].Score
		}
		return recommendations[i].ItemId < recommendations[j].ItemId
	})
}

type Database interface {
	Init() error
	Ping(ctx context.Context) error
	Close() error
	// GetInteractions returns every rating with the tags of the rated item.
	GetInteractions(ctx context.Context) ([]dataset.Interaction, error)
	// GetItemTags returns tags of all items, rated or not.
	GetItemTags(ctx context.Context) (dataset.TagCatalog, error)
	// ClearRecommendations removes all stored recommendations.
	ClearRecommendations(ctx context.Context) error
	// BatchInsertRecommendations upserts recommendations keyed by (user, item).
	BatchInsertRecommendations(ctx context.Context, recommendations []Recommendation) error
	GetRecommendations(ctx context.Context, userId string) ([]Recommendation, error)
	BatchInsertItems(ctx context.Context, catalog dataset.TagCatalog) error
	BatchInsertInteractions(ctx context.Context, interactions []dataset.Interaction) error
}

// Open a connection to a database.
func Open(path string, opts ...storage.Option) (Database, error) {
	var err error
	opt := storage.NewOptions(opts...)
	if storage.HasPrefix(path, storage.Neo4jPrefix, storage.Neo4jSecurePrefix, storage.Neo4jSelfSignedPrefix,
		storage.BoltPrefix, storage.BoltSecurePrefix) {
		database := new(Neo4j)
		if database.driver, err = neo4j.NewDriverWithContext(path,
			neo4j.BasicAuth(opt.Username, opt.Password, "")); err != nil {
			return nil, errors.Trace(err)
		}
		return database, nil
	} else if storage.HasPrefix(path, storage.MySQLPrefix) {
		name := path[len(storage.MySQLPrefix):]
		// append parameters
		if name, err = storage.AppendMySQLParams(name, map[string]string{
			"sql_mode":  "'ONLY_FULL_GROUP_BY,STRICT_TRANS_TABLES,ERROR_FOR_DIVISION_BY_ZERO,NO_ENGINE_SUBSTITUTION'",
			"parseTime": "true",
		}); err != nil {
			return nil, errors.Trace(err)
		}
		// connect to database
		database := new(SQLDatabase)
		database.driver = MySQL
		database.TablePrefix = storage.TablePrefix(opt.TablePrefix)
		if database.client, err = otelsql.Open("mysql", name,
			otelsql.WithAttributes(semconv.DBSystemMySQL),
			otelsql.WithSpanOptions(otelsql.SpanOptions{DisableErrSkip: true}),
		); err != nil {
			return nil, errors.Trace(err)
		}
		storage.ApplySQLPool(database.client, opt)
		database.gormDB, err = gorm.Open(mysql.New(mysql.Config{Conn: database.client}), storage.NewGORMConfig(opt.TablePrefix))
		if err != nil {
			return nil, errors.Trace(err)
		}
		return database, nil
	} else if storage.HasPrefix(path, storage.PostgresPrefix, storage.PostgreSQLPrefix) {
		database := new(SQLDatabase)
		database.driver = Postgres
		database.TablePrefix = storage.TablePrefix(opt.TablePrefix)
		if database.client, err = otelsql.Open("postgres", path,
			otelsql.WithAttributes(semconv.DBSystemPostgreSQL),
			otelsql.WithSpanOptions(otelsql.SpanOptions{DisableErrSkip: true}),
		); err != nil {
			return nil, errors.Trace(err)
		}
		storage.ApplySQLPool(database.client, opt)
		database.gormDB, err = gorm.Open(postgres.New(postgres.Config{Conn: database.client}), storage.NewGORMConfig(opt.TablePrefix))
		if err != nil {
			return nil, errors.Trace(err)
		}
		return database, nil
	} else if storage.HasPrefix(path, storage.MongoPrefix, storage.MongoSrvPrefix) {
		// connect to database
		database := new(MongoDB)
		opts := options.Client()
		opts.Monitor = otelmongo.NewMonitor()
		opts.ApplyURI(path)
		if database.client, err = mongo.Connect(context.Background(), opts); err != nil {
			return nil, errors.Trace(err)
		}
		// parse DSN and extract database name
		if cs, err := connstring.ParseAndValidate(path); err != nil {
			return nil, errors.Trace(err)
		} else {
			database.dbName = cs.Database
			database.TablePrefix = storage.TablePrefix(opt.TablePrefix)
		}
		return database, nil
	} else if storage.HasPrefix(path, storage.SQLitePrefix) {
		// append parameters
		if path, err = storage.AppendURLParams(path, []lo.Tuple2[string, string]{
			{"_pragma", "busy_timeout(10000)"},
			{"_pragma", "journal_mode(wal)"},
		}); err != nil {
			return nil, errors.Trace(err)
		}
		// connect to database
		name := path[len(storage.SQLitePrefix):]
		database := new(SQLDatabase)
		database.driver = SQLite
		database.TablePrefix = storage.TablePrefix(opt.TablePrefix)
		if database.client, err = otelsql.Open("sqlite", name,
			otelsql.WithAttributes(semconv.DBSystemSqlite),
			otelsql.WithSpanOptions(otelsql.SpanOptions{DisableErrSkip: true}),
		); err != nil {
			return nil, errors.Trace(err)
		}
		storage.ApplySQLPool(database.client, opt)
		gormConfig := storage.NewGORMConfig(opt.TablePrefix)
		gormConfig.Logger = &zapgorm2.Logger{
			ZapLogger:                 log.Logger(),
			LogLevel:                  logger.Warn,
			SlowThreshold:             10 * time.Second,
			SkipCallerLookup:          false,
			IgnoreRecordNotFoundError: false,
		}
		database.gormDB, err = gorm.Open(sqlite.Dialector{Conn: database.client}, gormConfig)
		if err != nil {
			return nil, errors.Trace(err)
		}
		return database, nil
	}
	return nil, errors.Errorf("Unknown database: %s", path)
}
