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

package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"scalesim/pkg/model"
)

// Duration parses YAML values like "1s" or "15s".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %s", raw, err.Error())
	}

	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

type Config struct {
	ListenAddress    string   `yaml:"listen_address"`
	TickInterval     Duration `yaml:"tick_interval"`
	BaselineLoad     int      `yaml:"baseline_load"`
	SpikeLoad        int      `yaml:"spike_load"`
	PostSpikeLoad    int      `yaml:"post_spike_load"`
	SpikeRevertDelay Duration `yaml:"spike_revert_delay"`
	MetricsWindow    int      `yaml:"metrics_window"`
	LogsWindow       int      `yaml:"logs_window"`
	ArchivePath      string   `yaml:"archive_path"`
	LogLevel         string   `yaml:"log_level"`
}

func Defaults() Config {
	return Config{
		ListenAddress:    "0.0.0.0:3000",
		TickInterval:     Duration(time.Second),
		BaselineLoad:     model.DefaultBaselineLoad,
		SpikeLoad:        3000000,
		PostSpikeLoad:    800000,
		SpikeRevertDelay: Duration(15 * time.Second),
		MetricsWindow:    model.MetricsWindowLength,
		LogsWindow:       model.LogsWindowLength,
		ArchivePath:      ":memory:",
		LogLevel:         "info",
	}
}

// Load reads path over the defaults. An empty path means defaults only.
func Load(path string) (Config, error) {
	cfg := Defaults()

	if path != "" {
		contents, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("could not read config %s: %s", path, err.Error())
		}

		err = yaml.Unmarshal(contents, &cfg)
		if err != nil {
			return cfg, fmt.Errorf("could not parse config %s: %s", path, err.Error())
		}
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if c.ListenAddress == "" {
		return fmt.Errorf("listen_address must not be empty")
	}
	if c.TickInterval.Std() <= 0 {
		return fmt.Errorf("tick_interval must be positive, got %s", c.TickInterval.Std())
	}
	if c.BaselineLoad <= 0 {
		return fmt.Errorf("baseline_load must be positive, got %d", c.BaselineLoad)
	}
	if c.SpikeLoad <= 0 {
		return fmt.Errorf("spike_load must be positive, got %d", c.SpikeLoad)
	}
	if c.PostSpikeLoad <= 0 {
		return fmt.Errorf("post_spike_load must be positive, got %d", c.PostSpikeLoad)
	}
	if c.SpikeRevertDelay.Std() <= 0 {
		return fmt.Errorf("spike_revert_delay must be positive, got %s", c.SpikeRevertDelay.Std())
	}
	if c.MetricsWindow <= 0 {
		return fmt.Errorf("metrics_window must be positive, got %d", c.MetricsWindow)
	}
	if c.LogsWindow <= 0 {
		return fmt.Errorf("logs_window must be positive, got %d", c.LogsWindow)
	}
	if c.ArchivePath == "" {
		return fmt.Errorf("archive_path must not be empty")
	}

	return nil
}
