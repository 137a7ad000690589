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

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"os"
	"os/signal"
	"syscall"

	"github.com/bvinc/go-sqlite-lite/sqlite3"
	"github.com/jonboulle/clockwork"
	"github.com/logrusorgru/aurora"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"scalesim/pkg/config"
	"scalesim/pkg/data"
	"scalesim/pkg/model"
	"scalesim/pkg/serve"
	"scalesim/pkg/simulator"
	"scalesim/pkg/telemetry"
)

var (
	au         = aurora.NewAurora(true)
	configPath = flag.String("config", "", "Path to a YAML config file; defaults apply when empty")
	listen     = flag.String("listen", "", "Listen address, overrides the config file")
	seed       = flag.Int64("seed", 0, "Seed for the per-tick random draw; 0 seeds from the clock")
	autostart  = flag.Bool("autostart", false, "Start the simulation immediately instead of waiting for POST /api/start")
	tailLogs   = flag.Bool("tailLogs", true, "Echo simulated dashboard log entries to stdout")
)

func main() {
	flag.Parse()

	logger := newLogger(os.Stderr, zap.InfoLevel)
	defer logger.Sync()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("could not load configuration: %s", err.Error())
	}
	if level, err := zapcore.ParseLevel(cfg.LogLevel); err == nil && level != zap.InfoLevel {
		logger = newLogger(os.Stderr, level)
	}
	if *listen != "" {
		cfg.ListenAddress = *listen
	}

	conn, err := sqlite3.Open(cfg.ArchivePath)
	if err != nil {
		logger.Fatalf("could not open tick archive at %s: %s", cfg.ArchivePath, err.Error())
	}
	store := data.NewTickStore(conn)
	defer store.Close()

	registry := prometheus.NewRegistry()
	metrics := telemetry.NewEngineMetrics(registry)

	clock := clockwork.NewRealClock()
	drawSeed := *seed
	if drawSeed == 0 {
		drawSeed = clock.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(drawSeed))

	var observer simulator.EntryObserver
	if *tailLogs {
		observer = tailObserver
	}

	engine := simulator.NewEngine(context.Background(), simulator.Config{
		TickInterval:     cfg.TickInterval.Std(),
		BaselineLoad:     cfg.BaselineLoad,
		SpikeLoad:        cfg.SpikeLoad,
		PostSpikeLoad:    cfg.PostSpikeLoad,
		SpikeRevertDelay: cfg.SpikeRevertDelay.Std(),
		MetricsWindow:    cfg.MetricsWindow,
		LogsWindow:       cfg.LogsWindow,
	}, simulator.Deps{
		Clock:    clock,
		Logger:   logger,
		Recorder: store,
		Metrics:  metrics,
		Observer: observer,
		Draw:     rng.Float64,
	})
	defer engine.Shutdown()

	if *autostart {
		engine.Start()
	}

	server := &serve.DashboardServer{
		Addr:     cfg.ListenAddress,
		Engine:   engine,
		Store:    store,
		Gatherer: registry,
		Logger:   logger,
	}
	server.Serve()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs

	server.Shutdown()
}

func tailObserver(entry model.LogEntry) {
	var level aurora.Value
	switch entry.Level {
	case model.LevelCritical:
		level = au.BgRed(string(entry.Level)).Bold()
	case model.LevelError:
		level = au.Red(string(entry.Level))
	case model.LevelWarn:
		level = au.Brown(string(entry.Level))
	default:
		level = au.Green(string(entry.Level))
	}

	fmt.Printf("%s  %-18s %-7s %s\n", entry.Timestamp, level, entry.Component, entry.Message)
}

func newLogger(sink io.Writer, level zapcore.Level) *zap.SugaredLogger {
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.AddSync(sink),
		level,
	)

	return zap.New(core).Named("scalesim").Sugar()
}
