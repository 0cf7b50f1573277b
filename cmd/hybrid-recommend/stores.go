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

package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gorse-io/hybrid/base/log"
	"github.com/gorse-io/hybrid/config"
	"github.com/gorse-io/hybrid/storage"
	"github.com/gorse-io/hybrid/storage/cache"
	"github.com/gorse-io/hybrid/storage/data"
	"github.com/gorse-io/hybrid/storage/meta"
	"github.com/juju/errors"
	"github.com/olekukonko/tablewriter"
	"go.uber.org/zap"
)

// OpenDataStore connects the data store and checks connectivity with
// exponential backoff. The returned store records metrics.
func OpenDataStore(ctx context.Context, conf *config.DatabaseConfig) (data.Database, error) {
	dataClient, err := data.Open(conf.DataStore,
		storage.WithCredentials(conf.Username, conf.Password),
		storage.WithTablePrefix(conf.TablePrefix))
	if err != nil {
		return nil, errors.Trace(err)
	}
	_, err = backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, dataClient.Ping(ctx)
	},
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(uint(conf.ConnectRetries)),
		backoff.WithNotify(func(err error, duration time.Duration) {
			log.Logger().Warn("failed to ping data store, retry",
				zap.Error(err), zap.Duration("backoff", duration))
		}))
	if err != nil {
		_ = dataClient.Close()
		return nil, errors.Annotate(err, "failed to ping data store")
	}
	if err = dataClient.Init(); err != nil {
		_ = dataClient.Close()
		return nil, errors.Trace(err)
	}
	log.Logger().Info("connect data store", zap.String("database", log.RedactDBURL(conf.DataStore)))
	return data.Instrument(dataClient), nil
}

// OpenCacheStore connects the cache store. An empty path disables the cache.
func OpenCacheStore(conf *config.DatabaseConfig) (cache.Database, error) {
	cacheClient, err := cache.Open(conf.CacheStore, conf.TablePrefix)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if conf.CacheStore == "" {
		return cacheClient, nil
	}
	if err = cacheClient.Init(); err != nil {
		_ = cacheClient.Close()
		return nil, errors.Trace(err)
	}
	log.Logger().Info("connect cache store", zap.String("database", log.RedactDBURL(conf.CacheStore)))
	return cacheClient, nil
}

// OpenMetaStore connects the meta store. It returns nil if no meta store is configured.
func OpenMetaStore(conf *config.DatabaseConfig) (meta.Database, error) {
	if conf.MetaStore == "" {
		return nil, nil
	}
	metaClient, err := meta.Open(conf.MetaStore)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if err = metaClient.Init(); err != nil {
		_ = metaClient.Close()
		return nil, errors.Trace(err)
	}
	return metaClient, nil
}

// PrintRecommendations renders recommendations as a table.
func PrintRecommendations(w io.Writer, recommendations []data.Recommendation) error {
	table := tablewriter.NewWriter(w)
	table.Header("user", "item", "score")
	for _, recommendation := range recommendations {
		if err := table.Append([]string{
			recommendation.UserId,
			recommendation.ItemId,
			fmt.Sprintf("%.4f", recommendation.Score),
		}); err != nil {
			return errors.Trace(err)
		}
	}
	return errors.Trace(table.Render())
}
