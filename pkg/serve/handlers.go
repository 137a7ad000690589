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
	"encoding/json"
	"net/http"

	"scalesim/pkg/model"
)

type controlResponse struct {
	Running     bool `json:"running"`
	CurrentLoad int  `json:"current_load"`
	Pods        int  `json:"pods"`
}

type metricsResponse struct {
	Metrics []model.MetricSample `json:"metrics"`
}

type logsResponse struct {
	Logs []model.LogEntry `json:"logs"`
}

func (ds *DashboardServer) SnapshotHandler(w http.ResponseWriter, r *http.Request) {
	ds.writeJSON(w, http.StatusOK, ds.Engine.Snapshot())
}

func (ds *DashboardServer) MetricsHandler(w http.ResponseWriter, r *http.Request) {
	snap := ds.Engine.Snapshot()
	ds.writeJSON(w, http.StatusOK, metricsResponse{Metrics: snap.Metrics})
}

func (ds *DashboardServer) LogsHandler(w http.ResponseWriter, r *http.Request) {
	snap := ds.Engine.Snapshot()
	ds.writeJSON(w, http.StatusOK, logsResponse{Logs: snap.Logs})
}

func (ds *DashboardServer) SummaryHandler(w http.ResponseWriter, r *http.Request) {
	if ds.Store == nil {
		http.Error(w, "tick archive unavailable", http.StatusServiceUnavailable)
		return
	}

	summary, err := ds.Store.Summary()
	if err != nil {
		ds.Logger.Errorw("could not summarize tick archive", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	ds.writeJSON(w, http.StatusOK, summary)
}

// controlHandler wraps a synchronous engine action. By the time the
// action returns the engine has applied it, so the echoed snapshot
// already reflects the new state.
func (ds *DashboardServer) controlHandler(name string, action func()) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		action()

		snap := ds.Engine.Snapshot()
		ds.Logger.Infow("control action applied",
			"action", name,
			"running", snap.Running,
			"current_load", snap.CurrentLoad,
		)

		ds.writeJSON(w, http.StatusAccepted, controlResponse{
			Running:     snap.Running,
			CurrentLoad: snap.CurrentLoad,
			Pods:        snap.Pods,
		})
	}
}

func (ds *DashboardServer) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(body)
	if err != nil {
		ds.Logger.Errorw("could not encode response", "error", err)
	}
}
