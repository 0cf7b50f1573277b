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
	"os"

	"github.com/gorse-io/hybrid/dataset"
	"github.com/stretchr/testify/suite"
)

func env(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

type baseTestSuite struct {
	suite.Suite
	Database Database
}

func (suite *baseTestSuite) TearDownTest() {
	suite.NoError(suite.Database.Close())
}

func (suite *baseTestSuite) seed(ctx context.Context) {
	suite.NoError(suite.Database.BatchInsertItems(ctx, dataset.TagCatalog{
		"A": {"x"},
		"B": {"y", "", "y"},
		"C": {"x"},
		"D": {},
	}))
	suite.NoError(suite.Database.BatchInsertInteractions(ctx, []dataset.Interaction{
		{UserId: "U", ItemId: "A", Rating: 5},
		{UserId: "U", ItemId: "B", Rating: 3},
		{UserId: "V", ItemId: "A", Rating: 4},
		{UserId: "V", ItemId: "E", Rating: 2, Tags: []string{"z"}},
	}))
}

func (suite *baseTestSuite) TestInteractions() {
	ctx := context.Background()
	interactions, err := suite.Database.GetInteractions(ctx)
	suite.NoError(err)
	suite.Empty(interactions)

	suite.seed(ctx)
	interactions, err = suite.Database.GetInteractions(ctx)
	suite.NoError(err)
	suite.ElementsMatch([]dataset.Interaction{
		{UserId: "U", ItemId: "A", Rating: 5, Tags: []string{"x"}},
		{UserId: "U", ItemId: "B", Rating: 3, Tags: []string{"y"}},
		{UserId: "V", ItemId: "A", Rating: 4, Tags: []string{"x"}},
		{UserId: "V", ItemId: "E", Rating: 2, Tags: []string{"z"}},
	}, interactions)
}

func (suite *baseTestSuite) TestItemTags() {
	ctx := context.Background()
	suite.seed(ctx)
	catalog, err := suite.Database.GetItemTags(ctx)
	suite.NoError(err)
	suite.Equal(dataset.TagCatalog{
		"A": {"x"},
		"B": {"y"},
		"C": {"x"},
		"D": {},
		"E": {"z"},
	}, catalog)

	// tags are replaced
	suite.NoError(suite.Database.BatchInsertItems(ctx, dataset.TagCatalog{"A": {"w", "x"}}))
	catalog, err = suite.Database.GetItemTags(ctx)
	suite.NoError(err)
	suite.Equal([]string{"w", "x"}, catalog.Tags("A"))
}

func (suite *baseTestSuite) TestRecommendations() {
	ctx := context.Background()
	suite.seed(ctx)
	suite.NoError(suite.Database.BatchInsertRecommendations(ctx, nil))
	suite.NoError(suite.Database.BatchInsertRecommendations(ctx, []Recommendation{
		{UserId: "U", ItemId: "C", Score: 4.5},
		{UserId: "U", ItemId: "D", Score: 3.5},
		{UserId: "V", ItemId: "B", Score: 3},
	}))
	recommendations, err := suite.Database.GetRecommendations(ctx, "U")
	suite.NoError(err)
	suite.Equal([]Recommendation{
		{UserId: "U", ItemId: "C", Score: 4.5},
		{UserId: "U", ItemId: "D", Score: 3.5},
	}, recommendations)

	// upsert by (user, item)
	suite.NoError(suite.Database.BatchInsertRecommendations(ctx, []Recommendation{
		{UserId: "U", ItemId: "D", Score: 5},
	}))
	recommendations, err = suite.Database.GetRecommendations(ctx, "U")
	suite.NoError(err)
	suite.Equal([]Recommendation{
		{UserId: "U", ItemId: "D", Score: 5},
		{UserId: "U", ItemId: "C", Score: 4.5},
	}, recommendations)

	// clear all
	suite.NoError(suite.Database.ClearRecommendations(ctx))
	for _, userId := range []string{"U", "V"} {
		recommendations, err = suite.Database.GetRecommendations(ctx, userId)
		suite.NoError(err)
		suite.Empty(recommendations)
	}
}

func (suite *baseTestSuite) TestPing() {
	suite.NoError(suite.Database.Ping(context.Background()))
}
