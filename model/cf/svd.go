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

package cf

import (
	"context"
	"math"

	"github.com/gorse-io/hybrid/base"
	"github.com/gorse-io/hybrid/base/log"
	"github.com/gorse-io/hybrid/base/progress"
	"github.com/gorse-io/hybrid/config"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
)

// Prediction is the output of the collaborative filtering engine.
type Prediction struct {
	// LowRank is the reconstruction of the centered matrix.
	LowRank *mat.Dense
	// Ratings is LowRank with user means added back to each row.
	Ratings *mat.Dense
	// Fitted is false if the decomposition was skipped.
	Fitted bool
	// Rank is the number of components kept in the reconstruction.
	Rank int
}

// Predict returns the predicted rating of user u on item i.
func (p *Prediction) Predict(u, i int) float64 {
	return p.Ratings.At(u, i)
}

// TruncatedSVD approximates a centered rating matrix by its leading singular
// components. The randomized solver follows Halko et al. (2011): a seeded
// Gaussian sketch, power iterations with QR re-orthonormalization and an
// exact SVD of the projected matrix.
type TruncatedSVD struct {
	maxRank         int
	randomState     int64
	oversamples     int
	powerIterations int
	solver          string
}

func NewTruncatedSVD(cfg config.CFConfig) *TruncatedSVD {
	return &TruncatedSVD{
		maxRank:         cfg.MaxRank,
		randomState:     cfg.RandomState,
		oversamples:     cfg.Oversamples,
		powerIterations: cfg.PowerIterations,
		solver:          cfg.Solver,
	}
}

// Rank returns the number of components used for a matrix with nItems columns.
func (svd *TruncatedSVD) Rank(nItems int) int {
	return max(1, min(svd.maxRank, nItems-1))
}

// Fit decomposes the centered matrix and reconstructs predicted ratings. It
// never fails: with fewer than two items or on numeric failure it returns the
// fallback prediction.
func (svd *TruncatedSVD) Fit(ctx context.Context, centered *mat.Dense, means []float64) *Prediction {
	nUsers, nItems := centered.Dims()
	if nItems < 2 {
		log.Logger().Info("skip truncated svd since there are less than two items",
			zap.Int("n_users", nUsers), zap.Int("n_items", nItems))
		return Fallback(nUsers, nItems, means)
	}
	k := svd.Rank(nItems)
	_, span := progress.Start(ctx, "TruncatedSVD.Fit", 1)
	defer span.End()

	var (
		u, v   *mat.Dense
		values []float64
		ok     bool
	)
	if svd.solver == config.SolverExact {
		u, values, v, ok = exactSVD(centered)
	} else {
		u, values, v, ok = svd.randomizedSVD(centered, k)
	}
	if !ok {
		log.Logger().Warn("truncated svd did not converge, use fallback",
			zap.Int("n_users", nUsers), zap.Int("n_items", nItems), zap.Int("rank", k))
		return Fallback(nUsers, nItems, means)
	}

	// U[:, :r] diag(S[:r]) V[:, :r]^T
	r := min(k, len(values))
	us := mat.DenseCopyOf(u.Slice(0, nUsers, 0, r))
	for j := 0; j < r; j++ {
		for i := 0; i < nUsers; i++ {
			us.Set(i, j, us.At(i, j)*values[j])
		}
	}
	lowRank := mat.NewDense(nUsers, nItems, nil)
	lowRank.Mul(us, v.Slice(0, nItems, 0, r).T())
	if !isFinite(lowRank) {
		log.Logger().Warn("truncated svd produced non-finite values, use fallback",
			zap.Int("n_users", nUsers), zap.Int("n_items", nItems), zap.Int("rank", r))
		return Fallback(nUsers, nItems, means)
	}

	span.Add(1)
	log.Logger().Info("fit truncated svd complete",
		zap.Int("n_users", nUsers), zap.Int("n_items", nItems), zap.Int("rank", r),
		zap.String("solver", svd.solver))
	return &Prediction{
		LowRank: lowRank,
		Ratings: addMeans(lowRank, means),
		Fitted:  true,
		Rank:    r,
	}
}

func (svd *TruncatedSVD) randomizedSVD(a *mat.Dense, k int) (*mat.Dense, []float64, *mat.Dense, bool) {
	m, n := a.Dims()
	l := min(k+svd.oversamples, m, n)
	rng := base.NewRandomGenerator(svd.randomState)
	omega := mat.NewDense(n, l, nil)
	for i := 0; i < n; i++ {
		omega.SetRow(i, rng.NormalVector64(l, 0, 1))
	}

	y := mat.NewDense(m, l, nil)
	y.Mul(a, omega)
	q := orthonormalize(y)
	for i := 0; i < svd.powerIterations; i++ {
		z := mat.NewDense(n, l, nil)
		z.Mul(a.T(), q)
		y.Mul(a, orthonormalize(z))
		q = orthonormalize(y)
	}

	b := mat.NewDense(l, n, nil)
	b.Mul(q.T(), a)
	ub, values, v, ok := exactSVD(b)
	if !ok {
		return nil, nil, nil, false
	}
	u := mat.NewDense(m, len(values), nil)
	u.Mul(q, ub)
	return u, values, v, true
}

func exactSVD(a mat.Matrix) (*mat.Dense, []float64, *mat.Dense, bool) {
	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDThin); !ok {
		return nil, nil, nil, false
	}
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	return &u, svd.Values(nil), &v, true
}

// orthonormalize returns an orthonormal basis of the column space of a
// tall matrix.
func orthonormalize(a *mat.Dense) *mat.Dense {
	m, n := a.Dims()
	var qr mat.QR
	qr.Factorize(a)
	var q mat.Dense
	qr.QTo(&q)
	return mat.DenseCopyOf(q.Slice(0, m, 0, n))
}

func addMeans(lowRank *mat.Dense, means []float64) *mat.Dense {
	ratings := mat.DenseCopyOf(lowRank)
	rows, cols := ratings.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			ratings.Set(i, j, ratings.At(i, j)+means[i])
		}
	}
	return ratings
}

func isFinite(a *mat.Dense) bool {
	raw := a.RawMatrix()
	for i := 0; i < raw.Rows; i++ {
		for _, x := range raw.Data[i*raw.Stride : i*raw.Stride+raw.Cols] {
			if math.IsNaN(x) || math.IsInf(x, 0) {
				return false
			}
		}
	}
	return true
}

// Fallback returns a prediction without collaborative signal: the low-rank
// part is zero and predicted ratings are the user means.
func Fallback(nUsers, nItems int, means []float64) *Prediction {
	lowRank := mat.NewDense(nUsers, nItems, nil)
	return &Prediction{
		LowRank: lowRank,
		Ratings: addMeans(lowRank, means),
	}
}
