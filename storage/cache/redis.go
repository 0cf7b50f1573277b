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
	"github.com/redis/go-redis/v9"
)

// Redis cache storage.
type Redis struct {
	storage.TablePrefix
	client *redis.Client
}

// Init nothing.
func (r *Redis) Init() error {
	return nil
}

func (r *Redis) Ping(ctx context.Context) error {
	return errors.Trace(r.client.Ping(ctx).Err())
}

// Close redis connection.
func (r *Redis) Close() error {
	return r.client.Close()
}

// SetRecommendations set scores in sorted set and clear previous scores.
func (r *Redis) SetRecommendations(ctx context.Context, userId string, recommendations []data.Recommendation) error {
	key := r.Key(Key(Recommend, userId))
	members := make([]redis.Z, 0, len(recommendations))
	for _, recommendation := range recommendations {
		members = append(members, redis.Z{Member: recommendation.ItemId, Score: recommendation.Score})
	}
	pipeline := r.client.Pipeline()
	pipeline.Del(ctx, key)
	if len(members) > 0 {
		pipeline.ZAdd(ctx, key, members...)
	}
	_, err := pipeline.Exec(ctx)
	return errors.Trace(err)
}

func (r *Redis) GetRecommendations(ctx context.Context, userId string, n int) ([]data.Recommendation, error) {
	if n == 0 {
		return []data.Recommendation{}, nil
	}
	stop := int64(n - 1)
	if n < 0 {
		stop = -1
	}
	members, err := r.client.ZRevRangeWithScores(ctx, r.Key(Key(Recommend, userId)), 0, stop).Result()
	if err != nil {
		return nil, errors.Trace(err)
	}
	recommendations := make([]data.Recommendation, 0, len(members))
	for _, member := range members {
		recommendations = append(recommendations, data.Recommendation{
			UserId: userId,
			ItemId: member.Member.(string),
			Score:  member.Score,
		})
	}
	return recommendations, nil
}

func (r *Redis) ClearRecommendations(ctx context.Context) error {
	iter := r.client.Scan(ctx, 0, r.Key(Key(Recommend, "*")), 1000).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return errors.Trace(err)
	}
	if len(keys) == 0 {
		return nil
	}
	return errors.Trace(r.client.Del(ctx, keys...).Err())
}

func (r *Redis) SetString(ctx context.Context, name, value string) error {
	return errors.Trace(r.client.Set(ctx, r.Key(name), value, 0).Err())
}

func (r *Redis) GetString(ctx context.Context, name string) (string, error) {
	val, err := r.client.Get(ctx, r.Key(name)).Result()
	if err == redis.Nil {
		return "", errors.Annotate(errors.NotFoundf("key"), name)
	}
	return val, errors.Trace(err)
}
