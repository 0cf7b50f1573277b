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

package cache

import (
	"context"

	"github.com/gorse-io/hybrid/storage"
	"github.com/gorse-io/hybrid/storage/data"
	"github.com/juju/errors"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
)

const (
	// Recommend is the prefix of the sorted set holding recommendations of a user.
	//  Recommend/<user_id>
	Recommend = "recommend"

	LastUpdateRecommendTime = "last_update_recommend_time"
)

var ErrNoDatabase = errors.NotAssignedf("cache database")

// Key creates key for cache. Empty field will be ignored.
func Key(keys ...string) string {
	if len(keys) == 0 {
		return ""
	}
	var builder []byte
	builder = append(builder, keys[0]...)
	for _, key := range keys[1:] {
		if key != "" {
			builder = append(builder, '/')
			builder = append(builder, key...)
		}
	}
	return string(builder)
}

// Database mirrors recommendations into a store serving them to clients.
type Database interface {
	Init() error
	Ping(ctx context.Context) error
	Close() error
	// SetRecommendations replaces the recommendations of a user.
	SetRecommendations(ctx context.Context, userId string, recommendations []data.Recommendation) error
	// GetRecommendations returns the top n recommendations of a user. A negative
	// n returns all of them.
	GetRecommendations(ctx context.Context, userId string, n int) ([]data.Recommendation, error)
	// ClearRecommendations removes recommendations of all users.
	ClearRecommendations(ctx context.Context) error
	SetString(ctx context.Context, name, value string) error
	GetString(ctx context.Context, name string) (string, error)
}

// Open a connection to a database. An empty path disables the cache.
func Open(path, tablePrefix string) (Database, error) {
	if path == "" {
		return NoDatabase{}, nil
	}
	if storage.HasPrefix(path, storage.RedisPrefix, storage.RedissPrefix) {
		opt, err := redis.ParseURL(path)
		if err != nil {
			return nil, errors.Trace(err)
		}
		database := new(Redis)
		database.client = redis.NewClient(opt)
		database.TablePrefix = storage.TablePrefix(tablePrefix)
		if err = redisotel.InstrumentTracing(database.client); err != nil {
			return nil, errors.Trace(err)
		}
		return database, nil
	}
	return nil, errors.Errorf("Unknown database: %s", path)
}
