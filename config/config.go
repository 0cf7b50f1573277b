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
	"github.com/gorse-io/hybrid/dataset"
	"github.com/juju/errors"
	"github.com/spf13/viper"
)

const (
	DuplicateMean  = dataset.DuplicateMean
	DuplicateLast  = dataset.DuplicateLast
	DuplicateError = dataset.DuplicateError

	SolverRandomized = "randomized"
	SolverExact      = "exact"
)

// Config is the configuration for the recommendation job.
type Config struct {
	Database  DatabaseConfig  `mapstructure:"database"`
	Recommend RecommendConfig `mapstructure:"recommend"`
	CF        CFConfig        `mapstructure:"cf"`
}

// DatabaseConfig is the configuration for the stores.
type DatabaseConfig struct {
	DataStore      string `mapstructure:"data_store" validate:"required,data_store"`
	Username       string `mapstructure:"username"`
	Password       string `mapstructure:"password"`
	CacheStore     string `mapstructure:"cache_store" validate:"omitempty,cache_store"`
	MetaStore      string `mapstructure:"meta_store" validate:"omitempty,meta_store"`
	TablePrefix    string `mapstructure:"table_prefix"`
	BatchSize      int    `mapstructure:"batch_size" validate:"gt=0"`
	ConnectRetries int    `mapstructure:"connect_retries" validate:"gte=1"`
}

// RecommendConfig is the configuration for hybrid ranking.
type RecommendConfig struct {
	TopK                int     `mapstructure:"top_k" validate:"gt=0"`
	CollaborativeWeight float64 `mapstructure:"collaborative_weight" validate:"gte=0"`
	ContentWeight       float64 `mapstructure:"content_weight" validate:"gte=0"`
	NeutralScore        float64 `mapstructure:"neutral_score"`
	DuplicatePolicy     string  `mapstructure:"duplicate_policy" validate:"oneof=mean last error"`
	Jobs                int     `mapstructure:"jobs" validate:"gt=0"`
}

// CFConfig is the configuration for the truncated SVD.
type CFConfig struct {
	MaxRank         int    `mapstructure:"max_rank" validate:"gt=0"`
	RandomState     int64  `mapstructure:"random_state"`
	Oversamples     int    `mapstructure:"oversamples" validate:"gte=0"`
	PowerIterations int    `mapstructure:"power_iterations" validate:"gte=0"`
	Solver          string `mapstructure:"solver" validate:"oneof=randomized exact"`
}

func GetDefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			DataStore:      "neo4j://localhost:7687",
			Username:       "neo4j",
			BatchSize:      1000,
			ConnectRetries: 3,
		},
		Recommend: RecommendConfig{
			TopK:                10,
			CollaborativeWeight: 0.7,
			ContentWeight:       0.3,
			NeutralScore:        3.0,
			DuplicatePolicy:     DuplicateMean,
			Jobs:                1,
		},
		CF: CFConfig{
			MaxRank:         20,
			RandomState:     42,
			Oversamples:     10,
			PowerIterations: 5,
			Solver:          SolverRandomized,
		},
	}
}

func setDefault(v *viper.Viper) {
	defaultConfig := GetDefaultConfig()
	// [database]
	v.SetDefault("database.data_store", defaultConfig.Database.DataStore)
	v.SetDefault("database.username", defaultConfig.Database.Username)
	v.SetDefault("database.password", defaultConfig.Database.Password)
	v.SetDefault("database.cache_store", defaultConfig.Database.CacheStore)
	v.SetDefault("database.meta_store", defaultConfig.Database.MetaStore)
	v.SetDefault("database.table_prefix", defaultConfig.Database.TablePrefix)
	v.SetDefault("database.batch_size", defaultConfig.Database.BatchSize)
	v.SetDefault("database.connect_retries", defaultConfig.Database.ConnectRetries)
	// [recommend]
	v.SetDefault("recommend.top_k", defaultConfig.Recommend.TopK)
	v.SetDefault("recommend.collaborative_weight", defaultConfig.Recommend.CollaborativeWeight)
	v.SetDefault("recommend.content_weight", defaultConfig.Recommend.ContentWeight)
	v.SetDefault("recommend.neutral_score", defaultConfig.Recommend.NeutralScore)
	v.SetDefault("recommend.duplicate_policy", defaultConfig.Recommend.DuplicatePolicy)
	v.SetDefault("recommend.jobs", defaultConfig.Recommend.Jobs)
	// [cf]
	v.SetDefault("cf.max_rank", defaultConfig.CF.MaxRank)
	v.SetDefault("cf.random_state", defaultConfig.CF.RandomState)
	v.SetDefault("cf.oversamples", defaultConfig.CF.Oversamples)
	v.SetDefault("cf.power_iterations", defaultConfig.CF.PowerIterations)
	v.SetDefault("cf.solver", defaultConfig.CF.Solver)
}

type configBinding struct {
	key  string
	envs []string
}

var bindings = []configBinding{
	{"database.data_store", []string{"HYBRID_DATA_STORE", "NEO4J_URI"}},
	{"database.username", []string{"HYBRID_DATA_USERNAME", "NEO4J_USERNAME"}},
	{"database.password", []string{"HYBRID_DATA_PASSWORD", "NEO4J_PASSWORD"}},
	{"database.cache_store", []string{"HYBRID_CACHE_STORE"}},
	{"database.meta_store", []string{"HYBRID_META_STORE"}},
	{"database.table_prefix", []string{"HYBRID_TABLE_PREFIX"}},
	{"database.batch_size", []string{"HYBRID_BATCH_SIZE"}},
	{"recommend.jobs", []string{"HYBRID_JOBS"}},
}

// LoadConfig loads configuration from defaults, an optional TOML file and
// environment variables, in increasing precedence.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefault(v)

	// bind environment bindings
	for _, binding := range bindings {
		if err := v.BindEnv(append([]string{binding.key}, binding.envs...)...); err != nil {
			return nil, errors.Trace(err)
		}
	}

	// load config file
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Trace(err)
		}
	}

	// unmarshal config file
	var conf Config
	if err := v.Unmarshal(&conf); err != nil {
		return nil, errors.Trace(err)
	}

	// validate config file
	if err := conf.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	return &conf, nil
}
