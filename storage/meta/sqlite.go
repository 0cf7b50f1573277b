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
	"database/sql"
	"time"

	"github.com/juju/errors"
	_ "modernc.org/sqlite"
)

type SQLite struct {
	db *sql.DB
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) Init() error {
	// Create tables
	if _, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS runs (
	name TEXT PRIMARY KEY,
	status TEXT,
	error TEXT,
	current INTEGER,
	total INTEGER,
	start_time TIMESTAMP,
	end_time TIMESTAMP,
	update_time TIMESTAMP
);`); err != nil {
		return errors.Trace(err)
	}
	if _, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS key_values (
	key TEXT PRIMARY KEY,
	value TEXT
);`); err != nil {
		return errors.Trace(err)
	}
	return nil
}

func (s *SQLite) StartRun(name string, total int) error {
	now := time.Now().UTC()
	_, err := s.db.Exec(`
INSERT INTO runs (name, status, error, current, total, start_time, end_time, update_time)
VALUES (?, ?, '', 0, ?, ?, NULL, ?)
ON CONFLICT(name) DO UPDATE SET
	status = excluded.status,
	error = excluded.error,
	current = excluded.current,
	total = excluded.total,
	start_time = excluded.start_time,
	end_time = excluded.end_time,
	update_time = excluded.update_time
`, name, StatusRunning, total, now, now)
	return errors.Trace(err)
}

func (s *SQLite) UpdateRun(name string, current int) error {
	result, err := s.db.Exec(`
UPDATE runs SET current = ?, update_time = ? WHERE name = ?
`, current, time.Now().UTC(), name)
	if err != nil {
		return errors.Trace(err)
	}
	return checkAffected(result, name)
}

func (s *SQLite) FinishRun(name string, runErr error) error {
	now := time.Now().UTC()
	var (
		result sql.Result
		err    error
	)
	if runErr != nil {
		result, err = s.db.Exec(`
UPDATE runs SET status = ?, error = ?, end_time = ?, update_time = ? WHERE name = ?
`, StatusFailed, runErr.Error(), now, now, name)
	} else {
		result, err = s.db.Exec(`
UPDATE runs SET status = ?, current = total, end_time = ?, update_time = ? WHERE name = ?
`, StatusComplete, now, now, name)
	}
	if err != nil {
		return errors.Trace(err)
	}
	return checkAffected(result, name)
}

func (s *SQLite) GetRun(name string) (*Run, error) {
	var (
		run     Run
		endTime sql.NullTime
	)
	err := s.db.QueryRow(`
SELECT name, status, error, current, total, start_time, end_time, update_time FROM runs WHERE name = ?
`, name).Scan(&run.Name, &run.Status, &run.Error, &run.Current, &run.Total, &run.StartTime, &endTime, &run.UpdateTime)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.NotFoundf("run %v", name)
		}
		return nil, errors.Trace(err)
	}
	if endTime.Valid {
		run.EndTime = endTime.Time
	}
	return &run, nil
}

func (s *SQLite) Put(key, value string) error {
	_, err := s.db.Exec(`
INSERT INTO key_values (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value
`, key, value)
	return errors.Trace(err)
}

func (s *SQLite) Get(key string) (*string, error) {
	var value string
	err := s.db.QueryRow(`
SELECT value FROM key_values WHERE key = ?
`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // key not found
		}
		return nil, errors.Trace(err)
	}
	return &value, nil
}

func checkAffected(result sql.Result, name string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return errors.Trace(err)
	}
	if affected == 0 {
		return errors.NotFoundf("run %v", name)
	}
	return nil
}
