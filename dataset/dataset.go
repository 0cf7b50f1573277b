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
	"sort"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
)

// Interaction is a rating given by a user to an item, together with the tags
// of the rated item.
type Interaction struct {
	UserId string
	ItemId string
	Rating float64
	Tags   []string
}

// TagCatalog maps every known item to its tags, including unrated items.
type TagCatalog map[string][]string

// Tags returns the tags of an item. Unknown items have no tags.
func (c TagCatalog) Tags(itemId string) []string {
	return c[itemId]
}

// Add merges tags into the entry of an item and keeps it normalized.
func (c TagCatalog) Add(itemId string, tags ...string) {
	c[itemId] = NormalizeTags(append(c[itemId], tags...))
}

// NormalizeTags drops blank tags, removes duplicates and sorts the rest. The
// result is never nil.
func NormalizeTags(tags []string) []string {
	set := mapset.NewThreadUnsafeSet[string]()
	for _, tag := range tags {
		if strings.TrimSpace(tag) == "" {
			continue
		}
		set.Add(tag)
	}
	normalized := set.ToSlice()
	sort.Strings(normalized)
	return normalized
}

// CatalogFromInteractions builds a catalog from the tags carried by
// interactions. It is used by stores that cannot list items on their own.
func CatalogFromInteractions(interactions []Interaction) TagCatalog {
	catalog := make(TagCatalog)
	for _, interaction := range interactions {
		catalog.Add(interaction.ItemId, interaction.Tags...)
	}
	return catalog
}
