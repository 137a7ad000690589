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

// Package telemetry instruments the simulator itself. The fabricated
// samples stay authoritative in the model windows; these series only
// describe what the engine did.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"

	"scalesim/pkg/model"
)

const namespace = "scalesim"

// EngineMetrics holds the Prometheus series for one engine. A nil
// *EngineMetrics is valid and records nothing, so the engine can run
// uninstrumented.
type EngineMetrics struct {
	TicksTotal          prometheus.Counter
	ControlActionsTotal *prometheus.CounterVec
	LogEntriesTotal     *prometheus.CounterVec

	CurrentLoad  prometheus.Gauge
	Pods         prometheus.Gauge
	CPUUsage     prometheus.Gauge
	ResponseTime prometheus.Gauge
}

func NewEngineMetrics(reg prometheus.Registerer) *EngineMetrics {
	m := &EngineMetrics{
		TicksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Number of simulation ticks generated.",
		}),
		ControlActionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "control_actions_total",
			Help:      "Control actions applied, by action.",
		}, []string{"action"}),
		LogEntriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "log_entries_total",
			Help:      "Derived log entries, by level and component.",
		}, []string{"level", "component"}),
		CurrentLoad: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "current_load",
			Help:      "Target requests/sec baseline driving the tick generator.",
		}),
		Pods: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pods",
			Help:      "Replica count of the most recent sample.",
		}),
		CPUUsage: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cpu_usage_percent",
			Help:      "CPU usage of the most recent sample.",
		}),
		ResponseTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "response_time_millis",
			Help:      "Response time of the most recent sample.",
		}),
	}

	reg.MustRegister(
		m.TicksTotal,
		m.ControlActionsTotal,
		m.LogEntriesTotal,
		m.CurrentLoad,
		m.Pods,
		m.CPUUsage,
		m.ResponseTime,
	)

	return m
}

func (m *EngineMetrics) ObserveTick(sample model.MetricSample, entries []model.LogEntry) {
	if m == nil {
		return
	}

	m.TicksTotal.Inc()
	m.Pods.Set(float64(sample.Pods))
	m.CPUUsage.Set(float64(sample.CPUUsage))
	m.ResponseTime.Set(float64(sample.ResponseTime))

	for _, entry := range entries {
		m.LogEntriesTotal.WithLabelValues(string(entry.Level), string(entry.Component)).Inc()
	}
}

func (m *EngineMetrics) ObserveControl(action string) {
	if m == nil {
		return
	}
	m.ControlActionsTotal.WithLabelValues(action).Inc()
}

func (m *EngineMetrics) ObserveLoad(load int) {
	if m == nil {
		return
	}
	m.CurrentLoad.Set(float64(load))
}
