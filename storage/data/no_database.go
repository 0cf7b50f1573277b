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
	"context"

	"github.com/gorse-io/hybrid/dataset"
)

// NoDatabase means that no database used.
type NoDatabase struct{}

func (NoDatabase) Init() error {
	return ErrNoDatabase
}

func (NoDatabase) Ping(_ context.Context) error {
	return ErrNoDatabase
}

func (NoDatabase) Close() error {
	return ErrNoDatabase
}

func (NoDatabase) GetInteractions(_ context.Context) ([]dataset.Interaction, error) {
	return nil, ErrNoDatabase
}

func (NoDatabase) GetItemTags(_ context.Context) (dataset.TagCatalog, error) {
	return nil, ErrNoDatabase
}

func (NoDatabase) ClearRecommendations(_ context.Context) error {
	return ErrNoDatabase
}

func (NoDatabase) BatchInsertRecommendations(_ context.Context, _ []Recommendation) error {
	return ErrNoDatabase
}

func (NoDatabase) GetRecommendations(_ context.Context, _ string) ([]Recommendation, error) {
	return nil, ErrNoDatabase
}

func (NoDatabase) BatchInsertItems(_ context.Context, _ dataset.TagCatalog) error {
	return ErrNoDatabase
}

func (NoDatabase) BatchInsertInteractions(_ context.Context, _ []dataset.Interaction) error {
	return ErrNoDatabase
}
