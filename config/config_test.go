// Copyright 2020 gorse Project Authors
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

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig(t *testing.T) {
	config, err := LoadConfig("config.toml")
	assert.NoError(t, err)

	// [database]
	assert.Equal(t, "neo4j://localhost:7687", config.Database.DataStore)
	assert.Equal(t, "neo4j", config.Database.Username)
	assert.Equal(t, "degustator", config.Database.Password)
	assert.Empty(t, config.Database.CacheStore)
	assert.Empty(t, config.Database.MetaStore)
	assert.Equal(t, 1000, config.Database.BatchSize)
	assert.Equal(t, 3, config.Database.ConnectRetries)
	// [recommend]
	assert.Equal(t, 10, config.Recommend.TopK)
	assert.Equal(t, 0.7, config.Recommend.CollaborativeWeight)
	assert.Equal(t, 0.3, config.Recommend.ContentWeight)
	assert.Equal(t, 3.0, config.Recommend.NeutralScore)
	assert.Equal(t, DuplicateMean, config.Recommend.DuplicatePolicy)
	assert.Equal(t, 4, config.Recommend.Jobs)
	// [cf]
	assert.Equal(t, 20, config.CF.MaxRank)
	assert.Equal(t, int64(42), config.CF.RandomState)
	assert.Equal(t, 10, config.CF.Oversamples)
	assert.Equal(t, 5, config.CF.PowerIterations)
	assert.Equal(t, SolverRandomized, config.CF.Solver)
}

func TestSetDefault(t *testing.T) {
	config, err := LoadConfig("")
	assert.NoError(t, err)
	assert.Equal(t, GetDefaultConfig(), config)
}

func TestBindEnv(t *testing.T) {
	t.Setenv("NEO4J_URI", "bolt://graph:7687")
	t.Setenv("NEO4J_USERNAME", "alice")
	t.Setenv("NEO4J_PASSWORD", "secret")
	t.Setenv("HYBRID_CACHE_STORE", "redis://localhost:6379/0")
	t.Setenv("HYBRID_BATCH_SIZE", "500")
	config, err := LoadConfig("")
	assert.NoError(t, err)
	assert.Equal(t, "bolt://graph:7687", config.Database.DataStore)
	assert.Equal(t, "alice", config.Database.Username)
	assert.Equal(t, "secret", config.Database.Password)
	assert.Equal(t, "redis://localhost:6379/0", config.Database.CacheStore)
	assert.Equal(t, 500, config.Database.BatchSize)

	// the specific variable takes precedence over the Neo4j one
	t.Setenv("HYBRID_DATA_STORE", "sqlite://hybrid.db")
	config, err = LoadConfig("")
	assert.NoError(t, err)
	assert.Equal(t, "sqlite://hybrid.db", config.Database.DataStore)
}

func TestLoadConfigInvalid(t *testing.T) {
	write := func(text string) string {
		path := filepath.Join(t.TempDir(), "config.toml")
		assert.NoError(t, os.WriteFile(path, []byte(text), 0644))
		return path
	}
	_, err := LoadConfig(write("[database]\ndata_store = \"cassandra://localhost\"\n"))
	assert.Error(t, err)
	_, err = LoadConfig(write("[database]\ncache_store = \"memcached://localhost\"\n"))
	assert.Error(t, err)
	_, err = LoadConfig(write("[recommend]\nduplicate_policy = \"first\"\n"))
	assert.Error(t, err)
	_, err = LoadConfig(write("[recommend]\ntop_k = 0\n"))
	assert.Error(t, err)
	_, err = LoadConfig(write("[recommend]\ncollaborative_weight = 0.0\ncontent_weight = 0.0\n"))
	assert.Error(t, err)
	_, err = LoadConfig(write("[cf]\nsolver = \"lanczos\"\n"))
	assert.Error(t, err)
	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
