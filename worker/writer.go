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

package worker

import (
	"context"

	"github.com/gorse-io/hybrid/base/log"
	"github.com/gorse-io/hybrid/base/progress"
	"github.com/gorse-io/hybrid/storage/data"
	"github.com/juju/errors"
	"go.uber.org/zap"
)

// Writer replaces stored recommendations: it clears the store and inserts the
// new recommendations in chunks.
type Writer struct {
	database  data.Database
	batchSize int
}

func NewWriter(database data.Database, batchSize int) *Writer {
	return &Writer{database: database, batchSize: batchSize}
}

// Write clears stored recommendations and inserts recommendations. It returns
// the number of recommendations inserted. There is no retry or rollback: if an
// insert fails, recommendations cleared before stay lost.
func (w *Writer) Write(ctx context.Context, recommendations []data.Recommendation) (int, error) {
	if err := w.database.ClearRecommendations(ctx); err != nil {
		return 0, errors.Annotate(err, "failed to clear recommendations")
	}
	log.Logger().Info("cleared recommendations")

	_, span := progress.Start(ctx, "Write", len(recommendations))
	defer span.End()
	var saved int
	for _, chunk := range Chunks(recommendations, w.batchSize) {
		if err := w.database.BatchInsertRecommendations(ctx, chunk); err != nil {
			span.Fail(err)
			return saved, errors.Annotatef(err, "failed to save recommendations (%d/%d saved)", saved, len(recommendations))
		}
		saved += len(chunk)
		span.Add(len(chunk))
		log.Logger().Info("saved recommendations",
			zap.Int("saved", saved),
			zap.Int("total", len(recommendations)))
	}
	return saved, nil
}

// Chunks splits recommendations grouped by user into chunks of at most
// batchSize. A user is never split across chunks, and a user with more than
// batchSize recommendations gets a chunk on its own.
func Chunks(recommendations []data.Recommendation, batchSize int) [][]data.Recommendation {
	var chunks [][]data.Recommendation
	for begin := 0; begin < len(recommendations); {
		end := begin
		for end < len(recommendations) {
			next := userEnd(recommendations, end)
			if next-begin > batchSize && end > begin {
				break
			}
			end = next
		}
		chunks = append(chunks, recommendations[begin:end])
		begin = end
	}
	return chunks
}

// userEnd returns the end of the run of recommendations of the user at begin.
func userEnd(recommendations []data.Recommendation, begin int) int {
	end := begin + 1
	for end < len(recommendations) && recommendations[end].UserId == recommendations[begin].UserId {
		end++
	}
	return end
}
