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

package meta

import (
	"github.com/juju/errors"
	"github.com/stretchr/testify/suite"
)

type baseTestSuite struct {
	suite.Suite
	Database
}

func (suite *baseTestSuite) TestRuns() {
	_, err := suite.Database.GetRun("recommend")
	suite.True(errors.Is(err, errors.NotFound), err)
	err = suite.Database.UpdateRun("recommend", 1)
	suite.True(errors.Is(err, errors.NotFound), err)

	// start a run
	suite.NoError(suite.Database.StartRun("recommend", 5))
	suite.NoError(suite.Database.UpdateRun("recommend", 2))
	run, err := suite.Database.GetRun("recommend")
	suite.NoError(err)
	suite.Equal("recommend", run.Name)
	suite.Equal(StatusRunning, run.Status)
	suite.Equal(2, run.Current)
	suite.Equal(5, run.Total)
	suite.False(run.StartTime.IsZero())
	suite.True(run.EndTime.IsZero())

	// complete the run
	suite.NoError(suite.Database.FinishRun("recommend", nil))
	run, err = suite.Database.GetRun("recommend")
	suite.NoError(err)
	suite.Equal(StatusComplete, run.Status)
	suite.Equal(5, run.Current)
	suite.False(run.EndTime.IsZero())

	// a restarted run that fails
	suite.NoError(suite.Database.StartRun("recommend", 3))
	suite.NoError(suite.Database.FinishRun("recommend", errors.New("write failed")))
	run, err = suite.Database.GetRun("recommend")
	suite.NoError(err)
	suite.Equal(StatusFailed, run.Status)
	suite.Equal("write failed", run.Error)
	suite.Equal(0, run.Current)
	suite.Equal(3, run.Total)
}

func (suite *baseTestSuite) TestKeyValues() {
	err := suite.Database.Put("key1", "value1")
	suite.NoError(err)
	err = suite.Database.Put("key2", "value2")
	suite.NoError(err)
	err = suite.Database.Put("key2", "value3")
	suite.NoError(err)

	value, err := suite.Database.Get("key1")
	suite.NoError(err)
	suite.Equal("value1", *value)

	value, err = suite.Database.Get("key2")
	suite.NoError(err)
	suite.Equal("value3", *value)

	// Test non-existing key
	value, err = suite.Database.Get("non-existing-key")
	suite.NoError(err)
	suite.Nil(value)
}
