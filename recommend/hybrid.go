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

package recommend

import (
	"context"

	"github.com/gorse-io/hybrid/base/log"
	"github.com/gorse-io/hybrid/base/progress"
	"github.com/gorse-io/hybrid/common/heap"
	"github.com/gorse-io/hybrid/common/parallel"
	"github.com/gorse-io/hybrid/config"
	"github.com/gorse-io/hybrid/dataset"
	"github.com/gorse-io/hybrid/model/cf"
	"github.com/gorse-io/hybrid/model/content"
	"github.com/gorse-io/hybrid/storage/data"
	"github.com/juju/errors"
	"go.uber.org/zap"
)

// Weights of the collaborative and the content score in a blend.
type Weights struct {
	Collaborative float64
	Content       float64
}

// Blend combines a collaborative and a content score.
func (w Weights) Blend(collaborative, content float64) float64 {
	return w.Collaborative*collaborative + w.Content*content
}

// HybridRanker ranks unrated items of every user by a blend of the predicted
// rating and the content score, and keeps the top k.
type HybridRanker struct {
	topK    int
	jobs    int
	weights Weights
	scorer  content.Scorer
}

func NewHybridRanker(cfg config.RecommendConfig) *HybridRanker {
	return &HybridRanker{
		topK: cfg.TopK,
		jobs: cfg.Jobs,
		weights: Weights{
			Collaborative: cfg.CollaborativeWeight,
			Content:       cfg.ContentWeight,
		},
		scorer: content.Scorer{Neutral: cfg.NeutralScore},
	}
}

// Weights returns the blend weights for a prediction. The content score takes
// all the weight if the collaborative model was not fitted.
func (r *HybridRanker) Weights(prediction *cf.Prediction) Weights {
	if !prediction.Fitted {
		return Weights{Collaborative: 0, Content: 1}
	}
	return r.weights
}

// Rank returns recommendations for every user of the matrix, grouped by user
// in index order and sorted by score within a user. Equal scores are ordered
// by item id.
func (r *HybridRanker) Rank(
	ctx context.Context,
	matrix *dataset.RatingMatrix,
	prediction *cf.Prediction,
	profiles map[string]content.Profile,
	catalog dataset.TagCatalog,
) ([]data.Recommendation, error) {
	nUsers, nItems := matrix.Shape()
	if rows, cols := prediction.Ratings.Dims(); rows != nUsers || cols != nItems {
		return nil, errors.NotValidf("prediction of shape (%d, %d) for matrix of shape (%d, %d)", rows, cols, nUsers, nItems)
	}
	weights := r.Weights(prediction)
	log.Logger().Info("ranking recommendation",
		zap.Int("n_users", nUsers),
		zap.Int("n_items", nItems),
		zap.Int("n_jobs", r.jobs),
		zap.Float64("collaborative_weight", weights.Collaborative),
		zap.Float64("content_weight", weights.Content))

	// item tags are looked up once
	itemIds := matrix.ItemIndex.Strings()
	itemTags := make([][]string, nItems)
	for i, itemId := range itemIds {
		itemTags[i] = catalog.Tags(itemId)
	}
	userIds := matrix.UserIndex.Strings()

	_, span := progress.Start(ctx, "Rank", nUsers)
	defer span.End()
	results := make([][]data.Recommendation, nUsers)
	err := parallel.Parallel(ctx, nUsers, r.jobs, func(_, u int) error {
		profile := profiles[userIds[u]]
		filter := heap.NewTopKFilter[int, float64](r.topK)
		for i := 0; i < nItems; i++ {
			if matrix.IsObserved(u, i) {
				continue
			}
			score := weights.Blend(prediction.Predict(u, i), r.scorer.Score(profile, itemTags[i]))
			filter.Push(i, score)
		}
		elems := filter.PopAll()
		recommendations := make([]data.Recommendation, len(elems))
		for j, elem := range elems {
			recommendations[j] = data.Recommendation{
				UserId: userIds[u],
				ItemId: itemIds[elem.Value],
				Score:  elem.Weight,
			}
		}
		results[u] = recommendations
		span.Add(1)
		return nil
	})
	if err != nil {
		span.Fail(err)
		return nil, errors.Trace(err)
	}

	var total int
	for _, recommendations := range results {
		total += len(recommendations)
	}
	recommendations := make([]data.Recommendation, 0, total)
	for _, userRecommendations := range results {
		recommendations = append(recommendations, userRecommendations...)
	}
	return recommendations, nil
}
