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

package storage

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	_ "modernc.org/sqlite"
)

func TestNewOptions(t *testing.T) {
	opt := NewOptions(
		WithCredentials("neo4j", "secret"),
		WithTablePrefix("hybrid_"),
		WithMaxOpenConns(8),
		WithMaxIdleConns(4),
		WithConnMaxLifetime(time.Minute),
	)
	assert.Equal(t, Options{
		Username:        "neo4j",
		Password:        "secret",
		TablePrefix:     "hybrid_",
		MaxOpenConns:    8,
		MaxIdleConns:    4,
		ConnMaxLifetime: time.Minute,
	}, opt)
	assert.Equal(t, Options{}, NewOptions())
}

func TestApplySQLPool(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	assert.NoError(t, err)
	defer db.Close()
	ApplySQLPool(db, NewOptions(WithMaxOpenConns(3)))
	assert.Equal(t, 3, db.Stats().MaxOpenConnections)
}
