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
	"github.com/stretchr/testify/mock"

	"scalesim/pkg/model"
)

type MockRecorder struct {
	mock.Mock
}

func (mr *MockRecorder) RecordTick(sample model.MetricSample, entries []model.LogEntry) error {
	args := mr.Called(sample, entries)
	return args.Error(0)
}

func (mr *MockRecorder) Purge() error {
	args := mr.Called()
	return args.Error(0)
}

// FixedDraw returns a draw source that always yields the same value.
func FixedDraw(value float64) func() float64 {
	return func() float64 {
		return value
	}
}
