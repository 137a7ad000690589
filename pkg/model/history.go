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

// SampleWindow is a bounded, append-only sequence of metric samples in
// chronological order. When the window is full the oldest sample is
// evicted first.
type SampleWindow struct {
	length  int
	samples []MetricSample
}

func NewSampleWindow(length int) *SampleWindow {
	return &SampleWindow{
		length:  length,
		samples: make([]MetricSample, 0, length),
	}
}

func (w *SampleWindow) Record(sample MetricSample) {
	w.samples = append(w.samples, sample)
	if len(w.samples) > w.length {
		w.samples = w.samples[len(w.samples)-w.length:]
	}
}

func (w *SampleWindow) Count() int {
	return len(w.samples)
}

// Snapshot returns a copy; the window keeps sole ownership of its
// backing array.
func (w *SampleWindow) Snapshot() []MetricSample {
	out := make([]MetricSample, len(w.samples))
	copy(out, w.samples)
	return out
}

func (w *SampleWindow) Clear() {
	w.samples = w.samples[:0]
}

// LogWindow is a bounded sequence of log entries held newest-first.
// Each tick's entries are prepended as a block, preserving the order
// they were derived in, and the combined list is truncated.
type LogWindow struct {
	length  int
	entries []LogEntry
}

func NewLogWindow(length int) *LogWindow {
	return &LogWindow{
		length:  length,
		entries: make([]LogEntry, 0, length),
	}
}

func (w *LogWindow) Record(entries ...LogEntry) {
	if len(entries) == 0 {
		return
	}

	combined := make([]LogEntry, 0, len(entries)+len(w.entries))
	combined = append(combined, entries...)
	combined = append(combined, w.entries...)
	if len(combined) > w.length {
		combined = combined[:w.length]
	}
	w.entries = combined
}

func (w *LogWindow) Count() int {
	return len(w.entries)
}

func (w *LogWindow) Snapshot() []LogEntry {
	out := make([]LogEntry, len(w.entries))
	copy(out, w.entries)
	return out
}

func (w *LogWindow) Clear() {
	w.entries = w.entries[:0]
}
