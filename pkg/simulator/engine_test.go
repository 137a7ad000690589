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

package simulator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sclevine/spec"
	"github.com/sclevine/spec/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"scalesim/pkg/model"
)

func TestEngine(t *testing.T) {
	spec.Run(t, "Engine spec", testEngine, spec.Report(report.Terminal{}))
}

func testEngine(t *testing.T, describe spec.G, it spec.S) {
	var (
		subject Engine
		clock   clockwork.FakeClock
		cfg     Config
	)

	// advanceTick moves the fake clock past one tick interval, waiting
	// for the engine to arm its timer first.
	advanceTick := func() {
		clock.BlockUntil(1)
		clock.Advance(cfg.TickInterval)
	}

	it.Before(func() {
		clock = clockwork.NewFakeClockAt(time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC))
		cfg = DefaultConfig()
		subject = NewEngine(context.Background(), cfg, Deps{
			Clock: clock,
			Draw:  FixedDraw(0),
		})
	})

	it.After(func() {
		subject.Shutdown()
	})

	describe("NewEngine()", func() {
		it("starts stopped at the baseline", func() {
			snap := subject.Snapshot()

			assert.False(t, snap.Running)
			assert.Equal(t, model.DefaultBaselineLoad, snap.CurrentLoad)
			assert.Equal(t, model.DefaultPods, snap.Pods)
			assert.Empty(t, snap.Metrics)
			assert.Empty(t, snap.Logs)
		})

		it("does not tick before Start()", func() {
			snap := subject.Snapshot()
			assert.Empty(t, snap.Metrics)
		})
	})

	describe("Start()", func() {
		it.Before(func() {
			subject.Start()
		})

		it("reports the simulation as running", func() {
			assert.True(t, subject.Snapshot().Running)
		})

		it("generates one sample per interval", func() {
			advanceTick()

			require.Eventually(t, func() bool {
				return len(subject.Snapshot().Metrics) == 1
			}, time.Second, time.Millisecond)

			advanceTick()

			require.Eventually(t, func() bool {
				return len(subject.Snapshot().Metrics) == 2
			}, time.Second, time.Millisecond)
		})

		it("is a no-op when already running", func() {
			subject.Start()

			advanceTick()

			require.Eventually(t, func() bool {
				return len(subject.Snapshot().Metrics) == 1
			}, time.Second, time.Millisecond)

			assert.True(t, subject.Snapshot().Running)
		})
	})

	describe("Stop()", func() {
		it.Before(func() {
			subject.Start()
			advanceTick()

			require.Eventually(t, func() bool {
				return len(subject.Snapshot().Metrics) == 1
			}, time.Second, time.Millisecond)

			subject.Stop()
		})

		it("reports the simulation as stopped", func() {
			assert.False(t, subject.Snapshot().Running)
		})

		it("halts the tick generator but keeps history", func() {
			clock.Advance(10 * cfg.TickInterval)

			snap := subject.Snapshot()
			assert.Len(t, snap.Metrics, 1)
		})

		it("is a no-op when already stopped", func() {
			subject.Stop()

			assert.False(t, subject.Snapshot().Running)
		})
	})

	describe("SimulateSpike()", func() {
		it.Before(func() {
			subject.SimulateSpike()
		})

		it("raises the load immediately", func() {
			assert.Equal(t, cfg.SpikeLoad, subject.Snapshot().CurrentLoad)
		})

		it("settles at the post-spike load after the revert delay", func() {
			clock.BlockUntil(1)
			clock.Advance(cfg.SpikeRevertDelay)

			require.Eventually(t, func() bool {
				return subject.Snapshot().CurrentLoad == cfg.PostSpikeLoad
			}, time.Second, time.Millisecond)
		})

		it("works while the simulation is stopped", func() {
			assert.False(t, subject.Snapshot().Running)
			assert.Equal(t, cfg.SpikeLoad, subject.Snapshot().CurrentLoad)
		})

		it("supersedes the pending revert on a second spike", func() {
			clock.BlockUntil(1)
			clock.Advance(cfg.SpikeRevertDelay - time.Second)

			subject.SimulateSpike()

			clock.BlockUntil(1)
			clock.Advance(time.Second)

			// The original revert moment passes without effect.
			assert.Equal(t, cfg.SpikeLoad, subject.Snapshot().CurrentLoad)

			clock.Advance(cfg.SpikeRevertDelay)

			require.Eventually(t, func() bool {
				return subject.Snapshot().CurrentLoad == cfg.PostSpikeLoad
			}, time.Second, time.Millisecond)
		})
	})

	describe("Reset()", func() {
		it.Before(func() {
			subject.Start()
			advanceTick()

			require.Eventually(t, func() bool {
				return len(subject.Snapshot().Metrics) == 1
			}, time.Second, time.Millisecond)

			subject.SimulateSpike()
			subject.Reset()
		})

		it("stops the simulation", func() {
			assert.False(t, subject.Snapshot().Running)
		})

		it("restores the baseline and clears history", func() {
			snap := subject.Snapshot()

			assert.Equal(t, model.DefaultBaselineLoad, snap.CurrentLoad)
			assert.Equal(t, model.DefaultPods, snap.Pods)
			assert.Empty(t, snap.Metrics)
			assert.Empty(t, snap.Logs)
		})

		it("cancels the pending spike revert", func() {
			clock.Advance(2 * cfg.SpikeRevertDelay)

			assert.Equal(t, model.DefaultBaselineLoad, subject.Snapshot().CurrentLoad)
		})
	})

	describe("with a recorder", func() {
		var recorder *MockRecorder

		it.Before(func() {
			subject.Shutdown()

			recorder = new(MockRecorder)
			subject = NewEngine(context.Background(), cfg, Deps{
				Clock:    clock,
				Draw:     FixedDraw(0),
				Recorder: recorder,
			})
		})

		it("hands every tick to the recorder", func() {
			recorder.On("RecordTick", mock.Anything, mock.Anything).Return(nil)

			subject.Start()
			advanceTick()

			require.Eventually(t, func() bool {
				return len(subject.Snapshot().Metrics) == 1
			}, time.Second, time.Millisecond)

			recorder.AssertCalled(t, "RecordTick", mock.Anything, mock.Anything)
		})

		it("keeps ticking when the recorder fails", func() {
			recorder.On("RecordTick", mock.Anything, mock.Anything).Return(errors.New("archive on fire"))

			subject.Start()
			advanceTick()

			require.Eventually(t, func() bool {
				return len(subject.Snapshot().Metrics) == 1
			}, time.Second, time.Millisecond)

			advanceTick()

			require.Eventually(t, func() bool {
				return len(subject.Snapshot().Metrics) == 2
			}, time.Second, time.Millisecond)
		})

		it("purges the archive on Reset()", func() {
			recorder.On("Purge").Return(nil)

			subject.Reset()

			recorder.AssertCalled(t, "Purge")
		})
	})

	describe("with an observer", func() {
		var (
			mu   sync.Mutex
			seen []model.LogEntry
		)

		it.Before(func() {
			subject.Shutdown()

			seen = nil
			subject = NewEngine(context.Background(), cfg, Deps{
				Clock: clock,
				Draw:  FixedDraw(0),
				Observer: func(entry model.LogEntry) {
					mu.Lock()
					defer mu.Unlock()
					seen = append(seen, entry)
				},
			})
		})

		it("sees each derived entry", func() {
			subject.Start()
			advanceTick()

			require.Eventually(t, func() bool {
				mu.Lock()
				defer mu.Unlock()
				return len(seen) == 1
			}, time.Second, time.Millisecond)

			mu.Lock()
			defer mu.Unlock()
			assert.Equal(t, model.LevelWarn, seen[0].Level)
			assert.Equal(t, model.ComponentK8s, seen[0].Component)
		})
	})

	describe("Shutdown()", func() {
		it("makes further control actions harmless", func() {
			subject.Shutdown()

			subject.Start()
			subject.Stop()
			subject.Reset()
			subject.SimulateSpike()
			subject.Snapshot()
		})
	})
}
