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

package serve

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"scalesim/pkg/data"
	"scalesim/pkg/simulator"
)

type DashboardServer struct {
	Addr     string
	Engine   simulator.Engine
	Store    data.TickStore
	Gatherer prometheus.Gatherer
	Logger   *zap.SugaredLogger

	srv *http.Server
}

func (ds *DashboardServer) Serve() {
	ds.srv = &http.Server{
		Addr:    ds.Addr,
		Handler: ds.Handler(),
	}

	go func() {
		ds.Logger.Infof("Listening on %s ...", ds.Addr)
		err := ds.srv.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			ds.Logger.Fatalf("serve error: %s", err.Error())
		}
	}()
}

// Handler builds the full route tree. Split out from Serve so tests can
// drive it without a listening socket.
func (ds *DashboardServer) Handler() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.NoCache)
	router.Use(middleware.Logger)

	router.Mount("/debug", middleware.Profiler())

	router.Get("/api/snapshot", ds.SnapshotHandler)
	router.Get("/api/metrics", ds.MetricsHandler)
	router.Get("/api/logs", ds.LogsHandler)
	router.Get("/api/summary", ds.SummaryHandler)

	router.Post("/api/start", ds.controlHandler("start", ds.Engine.Start))
	router.Post("/api/stop", ds.controlHandler("stop", ds.Engine.Stop))
	router.Post("/api/reset", ds.controlHandler("reset", ds.Engine.Reset))
	router.Post("/api/spike", ds.controlHandler("spike", ds.Engine.SimulateSpike))

	if ds.Gatherer != nil {
		router.Method("GET", "/metrics", promhttp.HandlerFor(ds.Gatherer, promhttp.HandlerOpts{}))
	}

	return router
}

func (ds *DashboardServer) Shutdown() {
	ds.Logger.Info("Shutting down ...")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := ds.srv.Shutdown(ctx)
	if err != nil {
		ds.Logger.Fatalf("shutdown error: %s", err.Error())
	}

	ds.Logger.Info("Done.")
}
