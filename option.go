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
	"io"
	"strings"

	"github.com/rulego/streamdiff/logger"
)

// Option 表示对引擎默认行为的修改配置
type Option func(*Engine)

// WithLogger 设置自定义日志记录器。
// 只有驱动会写日志，算子和表达式求值不写日志。
//
// 示例:
//
//	customLogger := logger.NewLogger(logger.DEBUG, os.Stderr)
//	engine := streamdiff.New(WithLogger(customLogger))
func WithLogger(log logger.Logger) Option {
	return func(e *Engine) {
		e.logger = log
	}
}

// WithLogLevel 设置日志级别，作用于当前日志记录器或之后创建的默认记录器
//
// 示例:
//
//	engine := streamdiff.New(WithLogLevel(logger.DEBUG))
func WithLogLevel(level logger.Level) Option {
	return func(e *Engine) {
		e.config.LogLevel = strings.ToLower(level.String())
		if e.logger != nil {
			e.logger.SetLevel(level)
		}
	}
}

// WithLogOutput 把日志写到 output，例如文件或 os.Stderr
func WithLogOutput(output io.Writer, level logger.Level) Option {
	return func(e *Engine) {
		e.config.LogLevel = strings.ToLower(level.String())
		e.logger = logger.NewLogger(level, output)
	}
}

// WithDiscardLog 禁用所有日志输出
func WithDiscardLog() Option {
	return func(e *Engine) {
		e.config.LogLevel = "off"
		e.logger = logger.NewDiscardLogger()
	}
}
