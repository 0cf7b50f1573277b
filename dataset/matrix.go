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

package dataset

import (
	"math"
	"sort"

	"github.com/bits-and-blooms/bitset"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"gonum.org/v1/gonum/mat"
)

const (
	DuplicateMean  = "mean"
	DuplicateLast  = "last"
	DuplicateError = "error"
)

var (
	ErrEmptyDataset         = errors.ConstError("empty dataset")
	ErrDuplicateInteraction = errors.ConstError("duplicate interaction")
)

// RatingMatrix is a dense users × items matrix of ratings. Missing cells are
// tracked by the Observed mask since zero is a valid rating.
type RatingMatrix struct {
	UserIndex *Dict
	ItemIndex *Dict
	Ratings   *mat.Dense
	Observed  []*bitset.BitSet
	Means     []float64
}

// BuildRatingMatrix pivots interactions into a rating matrix. Users and items
// are indexed in lexicographic order. Duplicated (user, item) pairs are
// resolved by policy: averaged, last one wins, or rejected.
func BuildRatingMatrix(interactions []Interaction, policy string) (*RatingMatrix, error) {
	if len(interactions) == 0 {
		return nil, errors.Trace(ErrEmptyDataset)
	}
	if policy == "" {
		policy = DuplicateMean
	}
	if policy != DuplicateMean && policy != DuplicateLast && policy != DuplicateError {
		return nil, errors.NotValidf("duplicate policy %q", policy)
	}
	for _, interaction := range interactions {
		if math.IsNaN(interaction.Rating) || math.IsInf(interaction.Rating, 0) {
			return nil, errors.NotValidf("rating %v of user %v on item %v",
				interaction.Rating, interaction.UserId, interaction.ItemId)
		}
	}

	userIds := lo.Uniq(lo.Map(interactions, func(interaction Interaction, _ int) string {
		return interaction.UserId
	}))
	itemIds := lo.Uniq(lo.Map(interactions, func(interaction Interaction, _ int) string {
		return interaction.ItemId
	}))
	sort.Strings(userIds)
	sort.Strings(itemIds)
	m := &RatingMatrix{
		UserIndex: NewDict(),
		ItemIndex: NewDict(),
		Ratings:   mat.NewDense(len(userIds), len(itemIds), nil),
		Observed:  make([]*bitset.BitSet, len(userIds)),
		Means:     make([]float64, len(userIds)),
	}
	for _, userId := range userIds {
		m.UserIndex.Add(userId)
	}
	for _, itemId := range itemIds {
		m.ItemIndex.Add(itemId)
	}
	for i := range m.Observed {
		m.Observed[i] = bitset.New(uint(len(itemIds)))
	}

	counts := make(map[[2]int]int)
	for _, interaction := range interactions {
		u, _ := m.UserIndex.Index(interaction.UserId)
		i, _ := m.ItemIndex.Index(interaction.ItemId)
		if !m.Observed[u].Test(uint(i)) {
			m.Observed[u].Set(uint(i))
			m.Ratings.Set(u, i, interaction.Rating)
			continue
		}
		switch policy {
		case DuplicateError:
			return nil, errors.Annotatef(ErrDuplicateInteraction, "user %v item %v",
				interaction.UserId, interaction.ItemId)
		case DuplicateLast:
			m.Ratings.Set(u, i, interaction.Rating)
		case DuplicateMean:
			key := [2]int{u, i}
			if counts[key] == 0 {
				counts[key] = 1
			}
			counts[key]++
			m.Ratings.Set(u, i, m.Ratings.At(u, i)+interaction.Rating)
		}
	}
	for key, count := range counts {
		m.Ratings.Set(key[0], key[1], m.Ratings.At(key[0], key[1])/float64(count))
	}

	for u := range m.Means {
		var sum float64
		for i, ok := m.Observed[u].NextSet(0); ok; i, ok = m.Observed[u].NextSet(i + 1) {
			sum += m.Ratings.At(u, int(i))
		}
		if n := m.Observed[u].Count(); n > 0 {
			m.Means[u] = sum / float64(n)
		}
	}
	return m, nil
}

// Shape returns the number of users and items.
func (m *RatingMatrix) Shape() (users, items int) {
	return m.UserIndex.Count(), m.ItemIndex.Count()
}

func (m *RatingMatrix) IsObserved(u, i int) bool {
	return m.Observed[u].Test(uint(i))
}

// CountObserved returns the number of observed cells.
func (m *RatingMatrix) CountObserved() int {
	var n uint
	for _, row := range m.Observed {
		n += row.Count()
	}
	return int(n)
}

// Centered returns a new matrix holding observed ratings minus the user mean.
// Missing cells are zero.
func (m *RatingMatrix) Centered() *mat.Dense {
	users, items := m.Shape()
	centered := mat.NewDense(users, items, nil)
	for u := 0; u < users; u++ {
		for i, ok := m.Observed[u].NextSet(0); ok; i, ok = m.Observed[u].NextSet(i + 1) {
			centered.Set(u, int(i), m.Ratings.At(u, int(i))-m.Means[u])
		}
	}
	return centered
}
