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
	"fmt"
	"math/rand"
	"testing"

	"github.com/gorse-io/hybrid/config"
	"github.com/gorse-io/hybrid/dataset"
	"github.com/gorse-io/hybrid/model/cf"
	"github.com/gorse-io/hybrid/model/content"
	"github.com/gorse-io/hybrid/storage/data"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	matrix     *dataset.RatingMatrix
	prediction *cf.Prediction
	profiles   map[string]content.Profile
	catalog    dataset.TagCatalog
}

func newFixture(t *testing.T, interactions []dataset.Interaction, fit bool) *fixture {
	matrix, err := dataset.BuildRatingMatrix(interactions, dataset.DuplicateMean)
	require.NoError(t, err)
	var prediction *cf.Prediction
	if fit {
		prediction = cf.NewTruncatedSVD(config.GetDefaultConfig().CF).Fit(context.Background(), matrix.Centered(), matrix.Means)
	} else {
		nUsers, nItems := matrix.Shape()
		prediction = cf.Fallback(nUsers, nItems, matrix.Means)
	}
	return &fixture{
		matrix:     matrix,
		prediction: prediction,
		profiles:   content.BuildProfiles(interactions),
		catalog:    dataset.CatalogFromInteractions(interactions),
	}
}

func (f *fixture) rank(t *testing.T, cfg config.RecommendConfig) []data.Recommendation {
	recommendations, err := NewHybridRanker(cfg).Rank(context.Background(), f.matrix, f.prediction, f.profiles, f.catalog)
	require.NoError(t, err)
	return recommendations
}

func randomInteractions(nUsers, nItems int, density float64, seed int64) []dataset.Interaction {
	rng := rand.New(rand.NewSource(seed))
	tags := []string{"go", "rust", "python", "java"}
	var interactions []dataset.Interaction
	for u := 0; u < nUsers; u++ {
		for i := 0; i < nItems; i++ {
			if rng.Float64() < density {
				interactions = append(interactions, dataset.Interaction{
					UserId: fmt.Sprintf("user_%03d", u),
					ItemId: fmt.Sprintf("item_%03d", i),
					Rating: float64(rng.Intn(5) + 1),
					Tags:   []string{tags[i%len(tags)], tags[(i/len(tags))%len(tags)]},
				})
			}
		}
	}
	return interactions
}

func TestWeights(t *testing.T) {
	ranker := NewHybridRanker(config.GetDefaultConfig().Recommend)
	assert.Equal(t, Weights{Collaborative: 0.7, Content: 0.3}, ranker.Weights(&cf.Prediction{Fitted: true}))
	assert.Equal(t, Weights{Collaborative: 0, Content: 1}, ranker.Weights(&cf.Prediction{}))
	assert.Equal(t, 0.7*4+0.3*5, Weights{Collaborative: 0.7, Content: 0.3}.Blend(4, 5))
}

func TestRankExcludesRatedItems(t *testing.T) {
	interactions := randomInteractions(30, 40, 0.3, 0)
	f := newFixture(t, interactions, true)
	recommendations := f.rank(t, config.GetDefaultConfig().Recommend)
	assert.NotEmpty(t, recommendations)

	rated := lo.SliceToMap(interactions, func(interaction dataset.Interaction) (lo.Tuple2[string, string], struct{}) {
		return lo.Tuple2[string, string]{A: interaction.UserId, B: interaction.ItemId}, struct{}{}
	})
	for _, recommendation := range recommendations {
		assert.NotContains(t, rated, lo.Tuple2[string, string]{A: recommendation.UserId, B: recommendation.ItemId})
	}
	counts := lo.CountValuesBy(recommendations, func(recommendation data.Recommendation) string {
		return recommendation.UserId
	})
	for _, count := range counts {
		assert.LessOrEqual(t, count, 10)
	}
}

func TestRankTopK(t *testing.T) {
	interactions := []dataset.Interaction{{UserId: "alice", ItemId: "item_00", Rating: 4}}
	for i := 1; i < 16; i++ {
		interactions = append(interactions, dataset.Interaction{UserId: "bob", ItemId: fmt.Sprintf("item_%02d", i), Rating: float64(i%5 + 1)})
	}
	f := newFixture(t, interactions, true)
	recommendations := f.rank(t, config.GetDefaultConfig().Recommend)
	alice := lo.Filter(recommendations, func(recommendation data.Recommendation, _ int) bool {
		return recommendation.UserId == "alice"
	})
	bob := lo.Filter(recommendations, func(recommendation data.Recommendation, _ int) bool {
		return recommendation.UserId == "bob"
	})
	assert.Len(t, alice, 10)
	assert.Len(t, bob, 1)
	assert.Equal(t, "item_00", bob[0].ItemId)
	for i := 1; i < len(alice); i++ {
		assert.GreaterOrEqual(t, alice[i-1].Score, alice[i].Score)
	}
	// users come in index order
	assert.Equal(t, "alice", recommendations[0].UserId)
	assert.Equal(t, "bob", recommendations[len(recommendations)-1].UserId)
}

func TestRankTieBreak(t *testing.T) {
	interactions := []dataset.Interaction{
		{UserId: "u", ItemId: "a", Rating: 4},
		{UserId: "v", ItemId: "e", Rating: 4},
		{UserId: "v", ItemId: "c", Rating: 4},
		{UserId: "v", ItemId: "d", Rating: 4},
		{UserId: "v", ItemId: "b", Rating: 4},
	}
	f := newFixture(t, interactions, false)
	recommendations := f.rank(t, config.GetDefaultConfig().Recommend)
	assert.Equal(t, []data.Recommendation{
		{UserId: "u", ItemId: "b", Score: 3},
		{UserId: "u", ItemId: "c", Score: 3},
		{UserId: "u", ItemId: "d", Score: 3},
		{UserId: "u", ItemId: "e", Score: 3},
		{UserId: "v", ItemId: "a", Score: 3},
	}, recommendations)
}

func TestRankFallbackUsesContentOnly(t *testing.T) {
	interactions := []dataset.Interaction{
		{UserId: "u", ItemId: "a", Rating: 5, Tags: []string{"x"}},
		{UserId: "u", ItemId: "b", Rating: 3, Tags: []string{"y"}},
		{UserId: "v", ItemId: "c", Rating: 1, Tags: []string{"x"}},
		{UserId: "v", ItemId: "d", Rating: 2},
	}
	f := newFixture(t, interactions, false)
	recommendations := f.rank(t, config.GetDefaultConfig().Recommend)
	assert.Equal(t, []data.Recommendation{
		{UserId: "u", ItemId: "c", Score: 5},
		{UserId: "u", ItemId: "d", Score: 3},
		{UserId: "v", ItemId: "b", Score: 3},
		{UserId: "v", ItemId: "a", Score: 1},
	}, recommendations)
	for _, recommendation := range recommendations {
		assert.Equal(t, f.profiles[recommendation.UserId].Score(f.catalog.Tags(recommendation.ItemId)), recommendation.Score)
	}
}

func TestRankSingleItem(t *testing.T) {
	interactions := []dataset.Interaction{
		{UserId: "u", ItemId: "a", Rating: 5, Tags: []string{"x"}},
		{UserId: "v", ItemId: "a", Rating: 3},
	}
	f := newFixture(t, interactions, true)
	assert.False(t, f.prediction.Fitted)
	// unrated catalog items outside the matrix are never candidates
	f.catalog.Add("b", "x")
	recommendations := f.rank(t, config.GetDefaultConfig().Recommend)
	assert.Empty(t, recommendations)
}

func TestRankBlend(t *testing.T) {
	interactions := randomInteractions(20, 25, 0.4, 1)
	f := newFixture(t, interactions, true)
	require.True(t, f.prediction.Fitted)
	recommendations := f.rank(t, config.GetDefaultConfig().Recommend)
	for _, recommendation := range recommendations {
		u, ok := f.matrix.UserIndex.Index(recommendation.UserId)
		require.True(t, ok)
		i, ok := f.matrix.ItemIndex.Index(recommendation.ItemId)
		require.True(t, ok)
		expected := 0.7*f.prediction.Predict(u, i) + 0.3*f.profiles[recommendation.UserId].Score(f.catalog.Tags(recommendation.ItemId))
		assert.InDelta(t, expected, recommendation.Score, 1e-12)
	}
}

func TestRankParallel(t *testing.T) {
	interactions := randomInteractions(50, 60, 0.2, 2)
	f := newFixture(t, interactions, true)
	cfg := config.GetDefaultConfig().Recommend
	sequential := f.rank(t, cfg)
	cfg.Jobs = 4
	parallel := f.rank(t, cfg)
	assert.Equal(t, sequential, parallel)
}

func TestRankShapeMismatch(t *testing.T) {
	f := newFixture(t, randomInteractions(5, 5, 0.5, 3), true)
	_, err := NewHybridRanker(config.GetDefaultConfig().Recommend).
		Rank(context.Background(), f.matrix, cf.Fallback(1, 1, []float64{0}), f.profiles, f.catalog)
	assert.True(t, errors.Is(err, errors.NotValid))
}
