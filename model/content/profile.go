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

package content

import (
	"sort"

	"github.com/gorse-io/hybrid/dataset"
	"github.com/samber/lo"
)

// NeutralScore is returned when a profile says nothing about a candidate.
const NeutralScore = 3.0

// Profile maps tags to the average rating a user gave to items with the tag.
type Profile map[string]float64

// BuildProfiles builds a tag profile for every user in interactions. Ratings
// are collected per tag first and reduced to means afterwards. A rating
// counts toward every tag of the rated item.
func BuildProfiles(interactions []dataset.Interaction) map[string]Profile {
	ratings := make(map[string]map[string][]float64)
	for _, interaction := range interactions {
		tags, ok := ratings[interaction.UserId]
		if !ok {
			tags = make(map[string][]float64)
			ratings[interaction.UserId] = tags
		}
		for _, tag := range dataset.NormalizeTags(interaction.Tags) {
			tags[tag] = append(tags[tag], interaction.Rating)
		}
	}

	profiles := make(map[string]Profile, len(ratings))
	for userId, tags := range ratings {
		profile := make(Profile, len(tags))
		for tag, values := range tags {
			profile[tag] = lo.Sum(values) / float64(len(values))
		}
		profiles[userId] = profile
	}
	return profiles
}

// Scorer scores candidates with a fixed neutral score.
type Scorer struct {
	Neutral float64
}

// Score returns the mean profile value over the tags of a candidate, or the
// neutral score if no tag of the candidate is in the profile.
func (s Scorer) Score(profile Profile, tags []string) float64 {
	if len(tags) == 0 || len(profile) == 0 {
		return s.Neutral
	}
	tags = dataset.NormalizeTags(tags)
	var (
		sum   float64
		count int
	)
	for _, tag := range tags {
		if value, ok := profile[tag]; ok {
			sum += value
			count++
		}
	}
	if count == 0 {
		return s.Neutral
	}
	return sum / float64(count)
}

// Score scores a candidate with the default neutral score.
func (p Profile) Score(tags []string) float64 {
	return Scorer{Neutral: NeutralScore}.Score(p, tags)
}

// Tags returns the tags of the profile in sorted order.
func (p Profile) Tags() []string {
	tags := lo.Keys(p)
	sort.Strings(tags)
	return tags
}
