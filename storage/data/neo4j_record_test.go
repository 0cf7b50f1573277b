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
	"testing"

	"github.com/gorse-io/hybrid/dataset"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
)

func newRecord(kv ...any) *neo4j.Record {
	record := &neo4j.Record{}
	for i := 0; i+1 < len(kv); i += 2 {
		record.Keys = append(record.Keys, kv[i].(string))
		record.Values = append(record.Values, kv[i+1])
	}
	return record
}

func TestRecordString(t *testing.T) {
	record := newRecord("id", "7", "null", nil, "number", int64(7))
	assert.Equal(t, "7", recordString(record, "id"))
	assert.Empty(t, recordString(record, "null"))
	assert.Empty(t, recordString(record, "number"))
	assert.Empty(t, recordString(record, "missing"))
}

func TestRecordFloat(t *testing.T) {
	record := newRecord("float", 4.5, "int", int64(3), "null", nil, "text", "5")
	value, ok := recordFloat(record, "float")
	assert.True(t, ok)
	assert.Equal(t, 4.5, value)
	value, ok = recordFloat(record, "int")
	assert.True(t, ok)
	assert.Equal(t, 3.0, value)
	_, ok = recordFloat(record, "null")
	assert.False(t, ok)
	_, ok = recordFloat(record, "text")
	assert.False(t, ok)
	_, ok = recordFloat(record, "missing")
	assert.False(t, ok)
}

func TestRecordStrings(t *testing.T) {
	record := newRecord("tags", []any{"x", nil, int64(1), "y"}, "null", nil, "text", "x")
	assert.Equal(t, []string{"x", "y"}, recordStrings(record, "tags"))
	assert.NotNil(t, recordStrings(record, "null"))
	assert.Empty(t, recordStrings(record, "null"))
	assert.Empty(t, recordStrings(record, "text"))
	assert.Empty(t, recordStrings(record, "missing"))
}

func TestInteractionFromRecord(t *testing.T) {
	interaction, ok := interactionFromRecord(newRecord(
		"user_id", "1", "item_id", "10", "rating", int64(4), "tags", []any{"y", "x", nil}))
	assert.True(t, ok)
	assert.Equal(t, dataset.Interaction{UserId: "1", ItemId: "10", Rating: 4, Tags: []string{"x", "y"}}, interaction)

	interaction, ok = interactionFromRecord(newRecord(
		"user_id", "1", "item_id", "10", "rating", 2.5, "tags", []any{}))
	assert.True(t, ok)
	assert.Equal(t, 2.5, interaction.Rating)
	assert.Empty(t, interaction.Tags)

	// null ids
	_, ok = interactionFromRecord(newRecord("user_id", nil, "item_id", "10", "rating", 4.0, "tags", []any{}))
	assert.False(t, ok)
	_, ok = interactionFromRecord(newRecord("user_id", "1", "item_id", nil, "rating", 4.0, "tags", []any{}))
	assert.False(t, ok)
	// unrated review
	_, ok = interactionFromRecord(newRecord("user_id", "1", "item_id", "10", "rating", nil, "tags", []any{}))
	assert.False(t, ok)
}
