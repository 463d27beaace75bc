/*
 * Copyright 2025 The RuleGo Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package types

import (
	"fmt"
)

// Error policy names
const (
	// ErrorPolicyStop aborts the run on the first per-event error
	ErrorPolicyStop = "stop"
	// ErrorPolicySkip drops the failing event, logs it and keeps going
	ErrorPolicySkip = "skip"
)

// Default configuration values
const (
	DefaultMaxSubqueryDepth = 8
	DefaultTriggerCount     = 1
	DefaultMetricsNamespace = "streamdiff"
	DefaultLogLevel         = "info"
)

// Config 引擎配置
type Config struct {
	// MaxSubqueryDepth bounds how deeply subqueries may nest
	MaxSubqueryDepth int `json:"maxSubqueryDepth" mapstructure:"max_subquery_depth"`
	// DefaultTriggerCount is the Counting(n) used by GroupBy nodes without a trigger
	DefaultTriggerCount int `json:"defaultTriggerCount" mapstructure:"default_trigger_count"`
	// ErrorPolicy is one of "stop" or "skip"
	ErrorPolicy string `json:"errorPolicy" mapstructure:"error_policy"`
	// LogLevel is one of debug, info, warn, error, off
	LogLevel string `json:"logLevel" mapstructure:"log_level"`
	// MetricsNamespace prefixes exported Prometheus metric names
	MetricsNamespace string `json:"metricsNamespace" mapstructure:"metrics_namespace"`
}

// NewConfig creates the default configuration
func NewConfig() Config {
	return Config{
		MaxSubqueryDepth:    DefaultMaxSubqueryDepth,
		DefaultTriggerCount: DefaultTriggerCount,
		ErrorPolicy:         ErrorPolicyStop,
		LogLevel:            DefaultLogLevel,
		MetricsNamespace:    DefaultMetricsNamespace,
	}
}

// Validate checks the configuration values
func (c Config) Validate() error {
	if c.MaxSubqueryDepth < 1 {
		return fmt.Errorf("maxSubqueryDepth must be positive, got %d", c.MaxSubqueryDepth)
	}
	if c.DefaultTriggerCount < 1 {
		return fmt.Errorf("defaultTriggerCount must be positive, got %d", c.DefaultTriggerCount)
	}
	switch c.ErrorPolicy {
	case ErrorPolicyStop, ErrorPolicySkip:
	default:
		return fmt.Errorf("unknown error policy %q", c.ErrorPolicy)
	}
	return nil
}
