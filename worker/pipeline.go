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
	"strconv"
	"time"

	"github.com/gorse-io/hybrid/base/log"
	"github.com/gorse-io/hybrid/base/progress"
	"github.com/gorse-io/hybrid/config"
	"github.com/gorse-io/hybrid/dataset"
	"github.com/gorse-io/hybrid/model/cf"
	"github.com/gorse-io/hybrid/model/content"
	"github.com/gorse-io/hybrid/recommend"
	"github.com/gorse-io/hybrid/storage/cache"
	"github.com/gorse-io/hybrid/storage/data"
	"github.com/gorse-io/hybrid/storage/meta"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// RunName is the name of recommendation runs in the meta store.
const RunName = "recommend"

const (
	StepFetch   = "fetch"
	StepMatrix  = "matrix"
	StepFit     = "fit"
	StepProfile = "profile"
	StepRank    = "rank"
	StepWrite   = "write"
	StepCache   = "cache"
)

var steps = []string{StepFetch, StepMatrix, StepFit, StepProfile, StepRank, StepWrite, StepCache}

// Pipeline fetches interactions, computes hybrid recommendations and replaces
// the stored recommendations. CacheClient and MetaClient are optional.
type Pipeline struct {
	Config      *config.Config
	DataClient  data.Database
	CacheClient cache.Database
	MetaClient  meta.Database
	// DryRun computes recommendations without writing them.
	DryRun bool
}

// Result summarizes a run.
type Result struct {
	Interactions    int
	Users           int
	Items           int
	Rank            int
	Fitted          bool
	Recommendations []data.Recommendation
	Saved           int
}

// Run runs the pipeline once. An empty dataset is not an error: nothing is
// computed and nothing is written.
func (p *Pipeline) Run(ctx context.Context) (result *Result, err error) {
	startTime := time.Now()
	ctx, span := progress.Start(ctx, "Recommend", len(steps))
	p.startRun()
	defer func() {
		if err != nil {
			span.Fail(err)
		} else {
			span.End()
		}
		p.finishRun(result, err)
	}()
	result = new(Result)

	// fetch interactions and tags
	var (
		interactions []dataset.Interaction
		catalog      dataset.TagCatalog
	)
	if err = p.step(ctx, span, StepFetch, func() error {
		if interactions, err = p.DataClient.GetInteractions(ctx); err != nil {
			return errors.Annotate(err, "failed to fetch interactions")
		}
		if len(interactions) == 0 {
			return nil
		}
		if catalog, err = p.DataClient.GetItemTags(ctx); err != nil {
			return errors.Annotate(err, "failed to fetch item tags")
		}
		catalog = mergeCatalog(catalog, interactions)
		return nil
	}); err != nil {
		return nil, err
	}
	result.Interactions = len(interactions)
	InteractionsTotal.Set(float64(len(interactions)))
	if len(interactions) == 0 {
		log.Logger().Warn("no interactions found, skip recommendation")
		return result, nil
	}

	// build rating matrix
	var matrix *dataset.RatingMatrix
	if err = p.step(ctx, span, StepMatrix, func() error {
		matrix, err = dataset.BuildRatingMatrix(interactions, p.Config.Recommend.DuplicatePolicy)
		return errors.Annotate(err, "failed to build rating matrix")
	}); err != nil {
		return nil, err
	}
	result.Users, result.Items = matrix.Shape()
	UsersTotal.Set(float64(result.Users))
	ItemsTotal.Set(float64(result.Items))
	log.Logger().Info("built rating matrix",
		zap.Int("n_interactions", len(interactions)),
		zap.Int("n_users", result.Users),
		zap.Int("n_items", result.Items),
		zap.Int("n_observed", matrix.CountObserved()))

	// fit collaborative filtering
	var prediction *cf.Prediction
	_ = p.step(ctx, span, StepFit, func() error {
		prediction = cf.NewTruncatedSVD(p.Config.CF).Fit(ctx, matrix.Centered(), matrix.Means)
		return nil
	})
	result.Rank, result.Fitted = prediction.Rank, prediction.Fitted
	CollaborativeFilteringRank.Set(float64(prediction.Rank))

	// build tag profiles
	var profiles map[string]content.Profile
	_ = p.step(ctx, span, StepProfile, func() error {
		profiles = content.BuildProfiles(interactions)
		return nil
	})

	// rank candidates
	if err = p.step(ctx, span, StepRank, func() error {
		result.Recommendations, err = recommend.NewHybridRanker(p.Config.Recommend).
			Rank(ctx, matrix, prediction, profiles, catalog)
		return errors.Annotate(err, "failed to rank recommendations")
	}); err != nil {
		return nil, err
	}
	RecommendationsTotal.Set(float64(len(result.Recommendations)))
	if p.DryRun {
		log.Logger().Info("dry run, skip writing recommendations",
			zap.Int("n_recommendations", len(result.Recommendations)))
		return result, nil
	}

	// replace stored recommendations
	if err = p.step(ctx, span, StepWrite, func() error {
		result.Saved, err = NewWriter(p.DataClient, p.Config.Database.BatchSize).Write(ctx, result.Recommendations)
		return err
	}); err != nil {
		return nil, err
	}

	// mirror to cache
	if err = p.step(ctx, span, StepCache, func() error {
		return p.updateCache(ctx, result.Recommendations)
	}); err != nil {
		return nil, err
	}

	RecommendTotalSeconds.Set(time.Since(startTime).Seconds())
	log.Logger().Info("complete recommendation",
		zap.Int("n_recommendations", len(result.Recommendations)),
		zap.Int("n_saved", result.Saved),
		zap.Duration("used_time", time.Since(startTime)))
	return result, nil
}

func (p *Pipeline) step(ctx context.Context, parent *progress.Span, name string, f func() error) error {
	startTime := time.Now()
	_, span := progress.Start(ctx, name, 1)
	err := f()
	RecommendStepSecondsVec.WithLabelValues(name).Set(time.Since(startTime).Seconds())
	if err != nil {
		span.Fail(err)
		return err
	}
	span.End()
	parent.Add(1)
	if p.MetaClient != nil {
		if err := p.MetaClient.UpdateRun(RunName, lo.IndexOf(steps, name)+1); err != nil {
			log.Logger().Error("failed to update run", zap.Error(err))
		}
	}
	log.Logger().Debug("complete step", zap.String("step", name), zap.Duration("used_time", time.Since(startTime)))
	return nil
}

// updateCache replaces cached recommendations with recommendations grouped by user.
func (p *Pipeline) updateCache(ctx context.Context, recommendations []data.Recommendation) error {
	if !cacheEnabled(p.CacheClient) {
		return nil
	}
	if err := p.CacheClient.ClearRecommendations(ctx); err != nil {
		return errors.Annotate(err, "failed to clear cached recommendations")
	}
	for _, chunk := range Chunks(recommendations, 1) {
		if err := p.CacheClient.SetRecommendations(ctx, chunk[0].UserId, chunk); err != nil {
			return errors.Annotate(err, "failed to cache recommendations")
		}
	}
	if err := p.CacheClient.SetString(ctx, cache.LastUpdateRecommendTime, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return errors.Annotate(err, "failed to cache update time")
	}
	return nil
}

func cacheEnabled(database cache.Database) bool {
	if database == nil {
		return false
	}
	_, ok := database.(cache.NoDatabase)
	return !ok
}

func (p *Pipeline) startRun() {
	if p.MetaClient == nil {
		return
	}
	if err := p.MetaClient.StartRun(RunName, len(steps)); err != nil {
		log.Logger().Error("failed to start run", zap.Error(err))
	}
}

func (p *Pipeline) finishRun(result *Result, err error) {
	if p.MetaClient == nil {
		return
	}
	if err := p.MetaClient.FinishRun(RunName, err); err != nil {
		log.Logger().Error("failed to finish run", zap.Error(err))
	}
	if err != nil || result == nil || p.DryRun {
		return
	}
	if err := p.MetaClient.Put(meta.LastRunTime, time.Now().UTC().Format(time.RFC3339)); err != nil {
		log.Logger().Error("failed to save last run time", zap.Error(err))
	}
	if err := p.MetaClient.Put(meta.LastRunRecommendations, strconv.Itoa(result.Saved)); err != nil {
		log.Logger().Error("failed to save last run recommendations", zap.Error(err))
	}
}

// mergeCatalog adds tags carried by interactions to the catalog so that every
// rated item is covered.
func mergeCatalog(catalog dataset.TagCatalog, interactions []dataset.Interaction) dataset.TagCatalog {
	if catalog == nil {
		catalog = make(dataset.TagCatalog)
	}
	for _, interaction := range interactions {
		catalog.Add(interaction.ItemId, interaction.Tags...)
	}
	return catalog
}
