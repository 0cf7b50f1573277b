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

package cache

import (
	"context"

	"github.com/gorse-io/hybrid/storage/data"
)

// NoDatabase means no database used for cache.
type NoDatabase struct{}

func (NoDatabase) Init() error {
	return ErrNoDatabase
}

func (NoDatabase) Ping(_ context.Context) error {
	return ErrNoDatabase
}

// Close method of NoDatabase returns ErrNoDatabase.
func (NoDatabase) Close() error {
	return ErrNoDatabase
}

func (NoDatabase) SetRecommendations(_ context.Context, _ string, _ []data.Recommendation) error {
	return ErrNoDatabase
}

func (NoDatabase) GetRecommendations(_ context.Context, _ string, _ int) ([]data.Recommendation, error) {
	return nil, ErrNoDatabase
}

func (NoDatabase) ClearRecommendations(_ context.Context) error {
	return ErrNoDatabase
}

func (NoDatabase) SetString(_ context.Context, _, _ string) error {
	return ErrNoDatabase
}

func (NoDatabase) GetString(_ context.Context, _ string) (string, error) {
	return "", ErrNoDatabase
}
