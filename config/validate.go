// Copyright 2021 gorse Project Authors
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
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorse-io/hybrid/storage"
	"github.com/juju/errors"
	"github.com/samber/lo"
)

var (
	dataStorePrefixes = []string{
		storage.Neo4jPrefix, storage.Neo4jSecurePrefix, storage.Neo4jSelfSignedPrefix,
		storage.BoltPrefix, storage.BoltSecurePrefix,
		storage.MySQLPrefix, storage.PostgresPrefix, storage.PostgreSQLPrefix, storage.SQLitePrefix,
		storage.MongoPrefix, storage.MongoSrvPrefix,
	}
	cacheStorePrefixes = []string{storage.RedisPrefix, storage.RedissPrefix}
	metaStorePrefixes  = []string{storage.SQLitePrefix}
)

func hasPrefix(prefixes []string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		value := fl.Field().String()
		return lo.SomeBy(prefixes, func(prefix string) bool {
			return strings.HasPrefix(value, prefix)
		})
	}
}

// Validate checks field constraints and store URL schemes.
func (config *Config) Validate() error {
	validate := validator.New()
	if err := validate.RegisterValidation("data_store", hasPrefix(dataStorePrefixes)); err != nil {
		return errors.Trace(err)
	}
	if err := validate.RegisterValidation("cache_store", hasPrefix(cacheStorePrefixes)); err != nil {
		return errors.Trace(err)
	}
	if err := validate.RegisterValidation("meta_store", hasPrefix(metaStorePrefixes)); err != nil {
		return errors.Trace(err)
	}
	if err := validate.Struct(config); err != nil {
		return errors.Trace(err)
	}
	if config.Recommend.CollaborativeWeight+config.Recommend.ContentWeight == 0 {
		return errors.NotValidf("recommend weights (both zero)")
	}
	return nil
}
