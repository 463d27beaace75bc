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

// Package config loads types.Config from an optional file and the environment.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/rulego/streamdiff/types"
)

// DefaultEnvPrefix 环境变量前缀，例如 STREAMDIFF_MAX_SUBQUERY_DEPTH
const DefaultEnvPrefix = "STREAMDIFF"

// keys 与 types.Config 的 mapstructure 标签一致
var keys = []string{
	"max_subquery_depth",
	"default_trigger_count",
	"error_policy",
	"log_level",
	"metrics_namespace",
}

// Load 按 默认值 < 配置文件 < 环境变量 的优先级填充 cfg。
// cfg 的当前值作为默认值；path 为空时不读文件，文件格式由扩展名决定(yaml/json/toml)。
func Load(prefix, path string, cfg *types.Config) error {
	if cfg == nil {
		return errors.New("config target is nil")
	}
	if prefix == "" {
		prefix = DefaultEnvPrefix
	}

	v := viper.New()
	v.SetDefault("max_subquery_depth", cfg.MaxSubqueryDepth)
	v.SetDefault("default_trigger_count", cfg.DefaultTriggerCount)
	v.SetDefault("error_policy", cfg.ErrorPolicy)
	v.SetDefault("log_level", cfg.LogLevel)
	v.SetDefault("metrics_namespace", cfg.MetricsNamespace)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", path, err)
		}
	}

	v.SetEnvPrefix(strings.TrimSuffix(strings.ToUpper(prefix), "_"))
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return fmt.Errorf("bind env for %s: %w", key, err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg.Validate()
}
