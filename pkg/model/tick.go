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

import (
	"fmt"
	"math"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	requestJitter   = 50000
	requestsPerPod  = 3000
	minPods         = 50
	maxPods         = 2500
	minCacheHitRate = 88.0
	maxCPUPercent   = 95.0

	baseLatencyMillis = 45.0
	loadFactorDivisor = 200000.0
	usersPerRequest   = 3.5

	highCPUPercent     = 80
	degradedHitRate    = 90.0
	slowResponseMillis = 150
	lbReportRequests   = 500000
	surgeRequests      = 2000000
	usersPerCrore      = 10000000.0
)

// printer renders large counts the way the dashboard shows them.
var printer = message.NewPrinter(language.AmericanEnglish)

// Tick derives the next metric sample and any log entries from the
// current state plus a single random draw in [0,1). The clamps on hit
// rate, pods and CPU apply on every tick so the sample never leaves its
// documented ranges, however extreme CurrentLoad becomes. The order of
// floor operations is deliberate: cacheMisses is floored from
// (requests - cacheHits), which makes hits + misses equal
// floor(requests) exactly.
//
// Side effects: the sample and entries are recorded into the windows,
// and Pods is updated for the next tick's scaling comparison.
func (s *SimulationState) Tick(draw float64, now time.Time) (MetricSample, []LogEntry) {
	requests := float64(s.CurrentLoad) + draw*requestJitter
	hitRate := math.Max(minCacheHitRate, s.CacheHitBaseline-(float64(s.CurrentLoad)/1000000)*5)
	cacheHits := math.Floor(requests * hitRate / 100)
	cacheMisses := math.Floor(requests - cacheHits)

	targetPods := int(math.Ceil(requests / requestsPerPod))
	newPods := clampPods(targetPods)

	cpuUsage := math.Min(maxCPUPercent, requests/float64(newPods*requestsPerPod)*100)
	responseTime := baseLatencyMillis * math.Max(1, requests/loadFactorDivisor) * (2.5 - hitRate/100)
	activeUsers := math.Floor(requests / usersPerRequest)

	sample := MetricSample{
		Timestamp:    now.Format(TimestampLayout),
		Requests:     int(math.Floor(requests)),
		CacheHits:    int(cacheHits),
		CacheMisses:  int(cacheMisses),
		Pods:         newPods,
		CPUUsage:     int(cpuUsage),
		ResponseTime: int(responseTime),
		ActiveUsers:  int(activeUsers),
	}

	entries := deriveLogEntries(sample, hitRate, s.Pods)

	s.Pods = newPods
	s.Metrics.Record(sample)
	s.Logs.Record(entries...)

	return sample, entries
}

func clampPods(target int) int {
	if target < minPods {
		return minPods
	}
	if target > maxPods {
		return maxPods
	}
	return target
}

// deriveLogEntries evaluates the threshold conditions against the
// freshly computed sample. Each condition is independent; several may
// fire in the same tick.
func deriveLogEntries(sample MetricSample, hitRate float64, previousPods int) []LogEntry {
	entries := make([]LogEntry, 0, 6)

	if sample.Pods != previousPods {
		level := LevelInfo
		direction := "up"
		if sample.Pods < previousPods {
			level = LevelWarn
			direction = "down"
		}
		entries = append(entries, LogEntry{
			Timestamp: sample.Timestamp,
			Level:     level,
			Component: ComponentK8s,
			Message:   printer.Sprintf("Scaling %s: %d pods (was %d)", direction, sample.Pods, previousPods),
		})
	}

	if sample.CPUUsage > highCPUPercent {
		entries = append(entries, LogEntry{
			Timestamp: sample.Timestamp,
			Level:     LevelWarn,
			Component: ComponentK8s,
			Message:   fmt.Sprintf("Pod CPU usage at %d%%", sample.CPUUsage),
		})
	}

	if hitRate < degradedHitRate {
		entries = append(entries, LogEntry{
			Timestamp: sample.Timestamp,
			Level:     LevelWarn,
			Component: ComponentCache,
			Message:   fmt.Sprintf("Cache hit rate dropped to %.1f%%", hitRate),
		})
	}

	if sample.ResponseTime > slowResponseMillis {
		entries = append(entries, LogEntry{
			Timestamp: sample.Timestamp,
			Level:     LevelError,
			Component: ComponentAPI,
			Message:   fmt.Sprintf("Response time degraded: %dms", sample.ResponseTime),
		})
	}

	if sample.Requests > lbReportRequests {
		entries = append(entries, LogEntry{
			Timestamp: sample.Timestamp,
			Level:     LevelInfo,
			Component: ComponentLB,
			Message:   printer.Sprintf("Distributing %d req/s across %d pods", sample.Requests, sample.Pods),
		})
	}

	if sample.Requests > surgeRequests {
		entries = append(entries, LogEntry{
			Timestamp: sample.Timestamp,
			Level:     LevelCritical,
			Component: ComponentInfra,
			Message:   fmt.Sprintf("Traffic surge: %.1f crore concurrent users", float64(sample.ActiveUsers)/usersPerCrore),
		})
	}

	return entries
}
