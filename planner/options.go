/*
 * Copyright 2024 The RuleGo Authors.
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

package planner

import (
	"github.com/rulego/streamdiff/functions"
	"github.com/rulego/streamdiff/trigger"
	"github.com/rulego/streamdiff/types"
)

// Options 构建参数
type Options struct {
	// MaxSubqueryDepth 子查询最大嵌套深度
	MaxSubqueryDepth int
	// DefaultTriggerCount GroupBy 未指定触发器时使用 Counting(n)
	DefaultTriggerCount int
	// Functions Call 表达式使用的函数注册表，nil 使用全局注册表
	Functions *functions.FunctionRegistry
	// Clock Delay 触发器的时钟，nil 使用 time.Now
	Clock trigger.Clock
}

// DefaultOptions 默认构建参数
func DefaultOptions() Options {
	return OptionsFromConfig(types.NewConfig())
}

// OptionsFromConfig 从配置创建构建参数
func OptionsFromConfig(cfg types.Config) Options {
	return Options{
		MaxSubqueryDepth:    cfg.MaxSubqueryDepth,
		DefaultTriggerCount: cfg.DefaultTriggerCount,
	}
}

func (o Options) withDefaults() Options {
	if o.MaxSubqueryDepth <= 0 {
		o.MaxSubqueryDepth = types.DefaultMaxSubqueryDepth
	}
	if o.DefaultTriggerCount <= 0 {
		o.DefaultTriggerCount = types.DefaultTriggerCount
	}
	if o.Functions == nil {
		o.Functions = functions.Default()
	}
	return o
}
