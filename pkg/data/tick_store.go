/*
 * Copyright (C) 2019-Present Pivotal Software, Inc. All rights reserved.
 *
 * This program and the accompanying materials are made available under the terms
 * of the Apache License, Version 2.0 (the "License”); you may not use this file
 * except in compliance with the License. You may obtain a copy of the License at:
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software distributed
 * under the License is distributed on an "AS IS" BASIS, WITHOUT WARRANTIES OR
 * CONDITIONS OF ANY KIND, either express or implied. See the License for the
 * specific language governing permissions and limitations under the License.
 */

// Package data archives every tick of the current session so the
// display layer can query beyond the 20/50 display windows. The
// database lives at ":memory:" by default; nothing survives the
// process.
package data

import (
	"fmt"
	"sync"

	"github.com/bvinc/go-sqlite-lite/sqlite3"

	"scalesim/pkg/model"
)

type TickSummary struct {
	Ticks          int            `json:"ticks"`
	PeakRequests   int            `json:"peak_requests"`
	MaxPods        int            `json:"max_pods"`
	AvgCPU         float64        `json:"avg_cpu"`
	EntriesByLevel map[string]int `json:"entries_by_level"`
}

type TickStore interface {
	RecordTick(sample model.MetricSample, entries []model.LogEntry) error
	Summary() (TickSummary, error)
	Purge() error
	Close() error
}

type tickStore struct {
	// sqlite connections are not safe for concurrent use; the engine
	// writes while HTTP handlers read summaries.
	mu   sync.Mutex
	conn *sqlite3.Conn
}

func NewTickStore(conn *sqlite3.Conn) TickStore {
	err := conn.Exec(Schema)
	if err != nil {
		panic(fmt.Errorf("could not apply scalesim schema: %s", err.Error()))
	}

	return &tickStore{
		conn: conn,
	}
}

func (ts *tickStore) RecordTick(sample model.MetricSample, entries []model.LogEntry) error {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	return ts.conn.WithTx(func() error {
		tickStmt, err := ts.conn.Prepare(`insert into ticks(
										   recorded
										 , requests
										 , cache_hits
										 , cache_misses
										 , pods
										 , cpu_usage
										 , response_time
										 , active_users)
										values (?, ?, ?, ?, ?, ?, ?, ?);`)
		if err != nil {
			return err
		}
		defer tickStmt.Close()

		err = tickStmt.Exec(
			sample.Timestamp,
			sample.Requests,
			sample.CacheHits,
			sample.CacheMisses,
			sample.Pods,
			sample.CPUUsage,
			sample.ResponseTime,
			sample.ActiveUsers,
		)
		if err != nil {
			return err
		}

		tickId := ts.conn.LastInsertRowID()

		entryStmt, err := ts.conn.Prepare(`insert into log_entries(recorded, level, component, message, tick_id)
										  values (?, ?, ?, ?, ?);`)
		if err != nil {
			return err
		}
		defer entryStmt.Close()

		for _, entry := range entries {
			err = entryStmt.Exec(
				entry.Timestamp,
				string(entry.Level),
				string(entry.Component),
				entry.Message,
				tickId,
			)
			if err != nil {
				return err
			}
		}

		return nil
	})
}

func (ts *tickStore) Summary() (TickSummary, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	summary := TickSummary{
		EntriesByLevel: make(map[string]int),
	}

	summaryStmt, err := ts.conn.Prepare(SummaryQuery)
	if err != nil {
		return summary, err
	}
	defer summaryStmt.Close()

	hasRow, err := summaryStmt.Step()
	if err != nil {
		return summary, err
	}
	if hasRow {
		err = summaryStmt.Scan(&summary.Ticks, &summary.PeakRequests, &summary.MaxPods, &summary.AvgCPU)
		if err != nil {
			return summary, err
		}
	}

	tallyStmt, err := ts.conn.Prepare(LevelTallyQuery)
	if err != nil {
		return summary, err
	}
	defer tallyStmt.Close()

	for {
		hasRow, err := tallyStmt.Step()
		if err != nil {
			return summary, err
		}
		if !hasRow {
			break
		}

		var level string
		var count int
		err = tallyStmt.Scan(&level, &count)
		if err != nil {
			return summary, err
		}
		summary.EntriesByLevel[level] = count
	}

	return summary, nil
}

func (ts *tickStore) Purge() error {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	return ts.conn.WithTx(func() error {
		if err := ts.conn.Exec(`delete from log_entries;`); err != nil {
			return err
		}
		return ts.conn.Exec(`delete from ticks;`)
	})
}

func (ts *tickStore) Close() error {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	return ts.conn.Close()
}
