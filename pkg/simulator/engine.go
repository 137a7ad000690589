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
	"math/rand"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/looplab/fsm"
	"go.uber.org/zap"

	"scalesim/pkg/model"
	"scalesim/pkg/telemetry"
)

const (
	StateStopped = "STOPPED"
	StateRunning = "RUNNING"
)

// Engine is the single mutating boundary around the simulation state.
// Control actions may be called from any goroutine; they are serialized
// onto the engine's run loop, which is the only execution context that
// ever touches the state.
type Engine interface {
	Start()
	Stop()
	Reset()
	SimulateSpike()
	Snapshot() model.Snapshot
	Shutdown()
}

// TickRecorder receives every generated sample and its derived entries.
// A recorder failure never stops the simulation.
type TickRecorder interface {
	RecordTick(sample model.MetricSample, entries []model.LogEntry) error
	Purge() error
}

// EntryObserver sees each derived log entry as it is produced. It runs
// on the engine's loop and must not block.
type EntryObserver func(entry model.LogEntry)

type Config struct {
	TickInterval     time.Duration
	BaselineLoad     int
	SpikeLoad        int
	PostSpikeLoad    int
	SpikeRevertDelay time.Duration
	MetricsWindow    int
	LogsWindow       int
}

func DefaultConfig() Config {
	return Config{
		TickInterval:     time.Second,
		BaselineLoad:     model.DefaultBaselineLoad,
		SpikeLoad:        3000000,
		PostSpikeLoad:    800000,
		SpikeRevertDelay: 15 * time.Second,
		MetricsWindow:    model.MetricsWindowLength,
		LogsWindow:       model.LogsWindowLength,
	}
}

// Deps carries the engine's collaborators. Zero values are usable:
// real clock, no-op logger, time-seeded random draws, no recorder,
// no telemetry, no observer.
type Deps struct {
	Clock    clockwork.Clock
	Logger   *zap.SugaredLogger
	Recorder TickRecorder
	Metrics  *telemetry.EngineMetrics
	Observer EntryObserver
	Draw     func() float64
}

type engine struct {
	cfg      Config
	clock    clockwork.Clock
	logger   *zap.SugaredLogger
	recorder TickRecorder
	metrics  *telemetry.EngineMetrics
	observer EntryObserver
	draw     func() float64

	lifecycle *fsm.FSM
	state     *model.SimulationState

	// Handles to the two scheduled units of work. Both are created,
	// fired and cancelled on the run loop only.
	tickTimer   clockwork.Timer
	revertTimer clockwork.Timer

	cmds     chan func()
	ctx      context.Context
	shutdown context.CancelFunc
}

func NewEngine(ctx context.Context, cfg Config, deps Deps) Engine {
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop().Sugar()
	}
	if deps.Draw == nil {
		rng := rand.New(rand.NewSource(deps.Clock.Now().UnixNano()))
		deps.Draw = rng.Float64
	}

	runCtx, cancel := context.WithCancel(ctx)

	e := &engine{
		cfg:      cfg,
		clock:    deps.Clock,
		logger:   deps.Logger,
		recorder: deps.Recorder,
		metrics:  deps.Metrics,
		observer: deps.Observer,
		draw:     deps.Draw,
		state:    model.NewSimulationState(cfg.BaselineLoad, cfg.MetricsWindow, cfg.LogsWindow),
		cmds:     make(chan func()),
		ctx:      runCtx,
		shutdown: cancel,
	}

	e.lifecycle = fsm.NewFSM(
		StateStopped,
		fsm.Events{
			{Name: "start", Src: []string{StateStopped}, Dst: StateRunning},
			{Name: "stop", Src: []string{StateRunning}, Dst: StateStopped},
			{Name: "reset", Src: []string{StateRunning, StateStopped}, Dst: StateStopped},
		},
		fsm.Callbacks{},
	)

	e.metrics.ObserveLoad(cfg.BaselineLoad)

	go e.run()

	return e
}

// run is the engine's only execution context. Commands, tick fires and
// the spike revert all land here one at a time, so the state needs no
// locks and a cancelled timer can never be heard from again.
func (e *engine) run() {
	for {
		var tickCh, revertCh <-chan time.Time
		if e.tickTimer != nil {
			tickCh = e.tickTimer.Chan()
		}
		if e.revertTimer != nil {
			revertCh = e.revertTimer.Chan()
		}

		select {
		case <-e.ctx.Done():
			e.disarmTick()
			e.disarmRevert()
			return
		case cmd := <-e.cmds:
			cmd()
		case <-tickCh:
			e.handleTick()
		case <-revertCh:
			e.handleRevert()
		}
	}
}

// do runs action on the engine loop and waits for it to complete.
// After shutdown it returns without running the action.
func (e *engine) do(action func()) {
	done := make(chan struct{})

	select {
	case e.cmds <- func() {
		action()
		close(done)
	}:
	case <-e.ctx.Done():
		return
	}

	select {
	case <-done:
	case <-e.ctx.Done():
	}
}

func (e *engine) Start() {
	e.do(func() {
		if err := e.lifecycle.Event("start"); err != nil {
			return // already running
		}

		e.metrics.ObserveControl("start")
		e.tickTimer = e.clock.NewTimer(e.cfg.TickInterval)
		e.logger.Infow("simulation started", "tick_interval", e.cfg.TickInterval)
	})
}

func (e *engine) Stop() {
	e.do(func() {
		if err := e.lifecycle.Event("stop"); err != nil {
			return // not running
		}

		e.metrics.ObserveControl("stop")
		e.disarmTick()
		e.logger.Infow("simulation stopped")
	})
}

func (e *engine) Reset() {
	e.do(func() {
		_ = e.lifecycle.Event("reset")
		e.disarmTick()
		e.disarmRevert()
		e.state.Reset()

		if e.recorder != nil {
			if err := e.recorder.Purge(); err != nil {
				e.logger.Warnw("could not purge tick archive", "error", err)
			}
		}

		e.metrics.ObserveControl("reset")
		e.metrics.ObserveLoad(e.state.CurrentLoad)
		e.logger.Infow("simulation reset", "current_load", e.state.CurrentLoad)
	})
}

func (e *engine) SimulateSpike() {
	e.do(func() {
		// A later spike supersedes the pending revert of an earlier one.
		e.disarmRevert()

		e.state.CurrentLoad = e.cfg.SpikeLoad
		e.revertTimer = e.clock.NewTimer(e.cfg.SpikeRevertDelay)

		e.metrics.ObserveControl("spike")
		e.metrics.ObserveLoad(e.state.CurrentLoad)
		e.logger.Infow("traffic spike injected",
			"current_load", e.state.CurrentLoad,
			"revert_after", e.cfg.SpikeRevertDelay,
		)
	})
}

func (e *engine) Snapshot() model.Snapshot {
	var snap model.Snapshot
	e.do(func() {
		snap = model.Snapshot{
			Running:     e.lifecycle.Is(StateRunning),
			CurrentLoad: e.state.CurrentLoad,
			Pods:        e.state.Pods,
			Metrics:     e.state.Metrics.Snapshot(),
			Logs:        e.state.Logs.Snapshot(),
		}
	})
	return snap
}

func (e *engine) Shutdown() {
	e.shutdown()
}

func (e *engine) handleTick() {
	if !e.lifecycle.Is(StateRunning) {
		return
	}

	sample, entries := e.state.Tick(e.draw(), e.clock.Now())

	e.metrics.ObserveTick(sample, entries)
	if e.recorder != nil {
		if err := e.recorder.RecordTick(sample, entries); err != nil {
			e.logger.Warnw("tick archive rejected sample", "error", err)
		}
	}
	if e.observer != nil {
		for _, entry := range entries {
			e.observer(entry)
		}
	}

	e.tickTimer.Reset(e.cfg.TickInterval)
}

func (e *engine) handleRevert() {
	e.revertTimer = nil
	e.state.CurrentLoad = e.cfg.PostSpikeLoad
	e.metrics.ObserveLoad(e.state.CurrentLoad)
	e.logger.Infow("spike reverted", "current_load", e.state.CurrentLoad)
}

func (e *engine) disarmTick() {
	if e.tickTimer != nil {
		e.tickTimer.Stop()
		e.tickTimer = nil
	}
}

func (e *engine) disarmRevert() {
	if e.revertTimer != nil {
		e.revertTimer.Stop()
		e.revertTimer = nil
	}
}
