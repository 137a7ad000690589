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

package model

const (
	DefaultBaselineLoad     = 150000
	DefaultPods             = 50
	DefaultCacheHitBaseline = 92.0

	MetricsWindowLength = 20
	LogsWindowLength    = 50
)

// SimulationState is the only mutable state of the simulation. It is
// owned by a single execution context; nothing here is safe for
// concurrent use and nothing needs to be.
type SimulationState struct {
	CurrentLoad      int
	Pods             int
	CacheHitBaseline float64
	Metrics          *SampleWindow
	Logs             *LogWindow

	baselineLoad int
}

func NewSimulationState(baselineLoad, metricsWindow, logsWindow int) *SimulationState {
	return &SimulationState{
		CurrentLoad:      baselineLoad,
		Pods:             DefaultPods,
		CacheHitBaseline: DefaultCacheHitBaseline,
		Metrics:          NewSampleWindow(metricsWindow),
		Logs:             NewLogWindow(logsWindow),
		baselineLoad:     baselineLoad,
	}
}

// Reset restores the defaults given at creation and clears both
// windows wholesale. Individual entries are never destroyed.
func (s *SimulationState) Reset() {
	s.CurrentLoad = s.baselineLoad
	s.Pods = DefaultPods
	s.CacheHitBaseline = DefaultCacheHitBaseline
	s.Metrics.Clear()
	s.Logs.Clear()
}
