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

package streamdiff

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/rulego/streamdiff/config"
	"github.com/rulego/streamdiff/functions"
	"github.com/rulego/streamdiff/source"
	"github.com/rulego/streamdiff/trigger"
	"github.com/rulego/streamdiff/types"
)

// WithConfig 使用完整配置替换默认配置
func WithConfig(cfg types.Config) Option {
	return func(e *Engine) {
		e.config = cfg
	}
}

// WithConfigFile 从配置文件和 prefix 开头的环境变量加载配置，
// 加载失败时 Prepare 返回该错误。path 为空时只读环境变量。
func WithConfigFile(prefix, path string) Option {
	return func(e *Engine) {
		if err := config.Load(prefix, path, &e.config); err != nil && e.optionErr == nil {
			e.optionErr = err
		}
	}
}

// WithMaxSubqueryDepth 设置子查询最大嵌套深度
func WithMaxSubqueryDepth(depth int) Option {
	return func(e *Engine) {
		e.config.MaxSubqueryDepth = depth
	}
}

// WithDefaultTrigger 设置未指定触发器的 GroupBy 使用的 Counting(n)
func WithDefaultTrigger(n int) Option {
	return func(e *Engine) {
		e.config.DefaultTriggerCount = n
	}
}

// WithErrorPolicy 设置错误策略: types.ErrorPolicyStop 或 types.ErrorPolicySkip
func WithErrorPolicy(policy string) Option {
	return func(e *Engine) {
		e.config.ErrorPolicy = policy
	}
}

// WithMetricsRegisterer 把驱动统计注册到 Prometheus
//
// 示例:
//
//	engine := streamdiff.New(WithMetricsRegisterer(prometheus.DefaultRegisterer))
func WithMetricsRegisterer(registerer prometheus.Registerer) Option {
	return func(e *Engine) {
		e.registerer = registerer
	}
}

// WithMetricsNamespace 设置 Prometheus 指标前缀
func WithMetricsNamespace(namespace string) Option {
	return func(e *Engine) {
		e.config.MetricsNamespace = namespace
	}
}

// WithCatalog 使用已有的源目录
func WithCatalog(catalog *source.Catalog) Option {
	return func(e *Engine) {
		if catalog != nil {
			e.catalog = catalog
		}
	}
}

// WithFunctions 使用独立的函数注册表代替全局注册表
func WithFunctions(registry *functions.FunctionRegistry) Option {
	return func(e *Engine) {
		e.functions = registry
	}
}

// WithClock 设置 Delay 触发器使用的时钟
func WithClock(clock trigger.Clock) Option {
	return func(e *Engine) {
		e.clock = clock
	}
}
