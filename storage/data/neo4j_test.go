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
	"testing"

	"github.com/gorse-io/hybrid/storage"
	"github.com/stretchr/testify/suite"
)

// The suite wipes the graph, so it only runs against a dedicated server.
var neo4jUri = env("NEO4J_TEST_URI", "")

type Neo4jTestSuite struct {
	baseTestSuite
}

func (suite *Neo4jTestSuite) SetupTest() {
	var err error
	suite.Database, err = Open(neo4jUri, storage.WithCredentials(
		env("NEO4J_TEST_USERNAME", "neo4j"),
		env("NEO4J_TEST_PASSWORD", "password")))
	suite.NoError(err)
	suite.NoError(suite.Database.Init())
	suite.NoError(suite.Database.(*Neo4j).write(context.Background(), "MATCH (n) DETACH DELETE n", nil))
}

func TestNeo4j(t *testing.T) {
	if neo4jUri == "" {
		t.Skip("NEO4J_TEST_URI is not set")
	}
	suite.Run(t, new(Neo4jTestSuite))
}
