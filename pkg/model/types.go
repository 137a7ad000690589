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

type LogLevel string

const (
	LevelInfo     LogLevel = "INFO"
	LevelWarn     LogLevel = "WARN"
	LevelError    LogLevel = "ERROR"
	LevelCritical LogLevel = "CRITICAL"
)

type Component string

const (
	ComponentAPI   Component = "API"
	ComponentCache Component = "CACHE"
	ComponentK8s   Component = "K8S"
	ComponentLB    Component = "LB"
	ComponentInfra Component = "INFRA"
)

// TimestampLayout is the display precision of every timestamp the
// simulation emits.
const TimestampLayout = "15:04:05"

// MetricSample is one fabricated observation of the cluster. It is
// immutable once created.
type MetricSample struct {
	Timestamp    string `json:"timestamp"`
	Requests     int    `json:"requests"`
	CacheHits    int    `json:"cache_hits"`
	CacheMisses  int    `json:"cache_misses"`
	Pods         int    `json:"pods"`
	CPUUsage     int    `json:"cpu_usage"`
	ResponseTime int    `json:"response_time"`
	ActiveUsers  int    `json:"active_users"`
}

// LogEntry is one derived log line. It is immutable once created.
type LogEntry struct {
	Timestamp string    `json:"timestamp"`
	Level     LogLevel  `json:"level"`
	Component Component `json:"component"`
	Message   string    `json:"message"`
}

// Snapshot is the read-only view handed to the display layer after
// each tick: metrics in chronological order, logs newest first.
type Snapshot struct {
	Running     bool           `json:"running"`
	CurrentLoad int            `json:"current_load"`
	Pods        int            `json:"pods"`
	Metrics     []MetricSample `json:"metrics"`
	Logs        []LogEntry     `json:"logs"`
}
