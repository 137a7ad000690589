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

package telemetry

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sclevine/spec"
	"github.com/sclevine/spec/report"
	"github.com/stretchr/testify/assert"

	"scalesim/pkg/model"
)

func TestEngineMetrics(t *testing.T) {
	spec.Run(t, "EngineMetrics spec", testEngineMetrics, spec.Report(report.Terminal{}))
}

func testEngineMetrics(t *testing.T, describe spec.G, it spec.S) {
	var subject *EngineMetrics

	it.Before(func() {
		subject = NewEngineMetrics(prometheus.NewRegistry())
	})

	describe("ObserveTick()", func() {
		it.Before(func() {
			subject.ObserveTick(model.MetricSample{
				Pods:         1000,
				CPUUsage:     95,
				ResponseTime: 1093,
			}, []model.LogEntry{
				{Level: model.LevelWarn, Component: model.ComponentK8s},
				{Level: model.LevelWarn, Component: model.ComponentCache},
			})
		})

		it("counts the tick", func() {
			assert.Equal(t, 1.0, testutil.ToFloat64(subject.TicksTotal))
		})

		it("gauges the latest sample", func() {
			assert.Equal(t, 1000.0, testutil.ToFloat64(subject.Pods))
			assert.Equal(t, 95.0, testutil.ToFloat64(subject.CPUUsage))
			assert.Equal(t, 1093.0, testutil.ToFloat64(subject.ResponseTime))
		})

		it("counts entries by level and component", func() {
			assert.Equal(t, 1.0, testutil.ToFloat64(subject.LogEntriesTotal.WithLabelValues("WARN", "K8S")))
			assert.Equal(t, 1.0, testutil.ToFloat64(subject.LogEntriesTotal.WithLabelValues("WARN", "CACHE")))
		})
	})

	describe("ObserveControl()", func() {
		it("counts by action", func() {
			subject.ObserveControl("spike")
			subject.ObserveControl("spike")

			assert.Equal(t, 2.0, testutil.ToFloat64(subject.ControlActionsTotal.WithLabelValues("spike")))
		})
	})

	describe("ObserveLoad()", func() {
		it("gauges the target load", func() {
			subject.ObserveLoad(3000000)

			assert.Equal(t, 3000000.0, testutil.ToFloat64(subject.CurrentLoad))
		})
	})

	describe("a nil receiver", func() {
		it("records nothing and does not panic", func() {
			var none *EngineMetrics

			none.ObserveTick(model.MetricSample{}, nil)
			none.ObserveControl("start")
			none.ObserveLoad(1)
		})
	})
}
