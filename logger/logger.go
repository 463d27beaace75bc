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

// Package logger is the levelled logger of the execution driver.
// Operators, expressions and the planner never log; they return errors.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Level 日志级别
type Level int32

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
	// OFF 关闭日志
	OFF
)

func (l Level) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	case OFF:
		return "OFF"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel 解析配置中的级别名称，不区分大小写
func ParseLevel(name string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return DEBUG, nil
	case "info", "":
		return INFO, nil
	case "warn", "warning":
		return WARN, nil
	case "error":
		return ERROR, nil
	case "off", "none":
		return OFF, nil
	default:
		return INFO, fmt.Errorf("unknown log level %q", name)
	}
}

// Logger printf 风格的分级日志接口
type Logger interface {
	Debug(format string, args ...interface{})
	Info(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Error(format string, args ...interface{})
	SetLevel(level Level)
}

// defaultLogger 输出 "[时间] [级别] 消息" 格式的日志
type defaultLogger struct {
	level  atomic.Int32
	logger *log.Logger
}

// NewLogger 创建写到 output 的日志器，例如 os.Stdout 或文件
func NewLogger(level Level, output io.Writer) Logger {
	l := &defaultLogger{logger: log.New(output, "", 0)}
	l.level.Store(int32(level))
	return l
}

func (l *defaultLogger) Debug(format string, args ...interface{}) { l.log(DEBUG, format, args...) }
func (l *defaultLogger) Info(format string, args ...interface{})  { l.log(INFO, format, args...) }
func (l *defaultLogger) Warn(format string, args ...interface{})  { l.log(WARN, format, args...) }
func (l *defaultLogger) Error(format string, args ...interface{}) { l.log(ERROR, format, args...) }

func (l *defaultLogger) SetLevel(level Level) {
	l.level.Store(int32(level))
}

func (l *defaultLogger) log(level Level, format string, args ...interface{}) {
	current := Level(l.level.Load())
	if current == OFF || level < current {
		return
	}
	timestamp := time.Now().Format("2006-01-02 15:04:05.000")
	l.logger.Printf("[%s] [%s] %s", timestamp, level, fmt.Sprintf(format, args...))
}

// discardLogger 丢弃所有日志
type discardLogger struct{}

// NewDiscardLogger 创建不输出任何内容的日志器
func NewDiscardLogger() Logger {
	return discardLogger{}
}

func (discardLogger) Debug(string, ...interface{}) {}
func (discardLogger) Info(string, ...interface{})  {}
func (discardLogger) Warn(string, ...interface{})  {}
func (discardLogger) Error(string, ...interface{}) {}
func (discardLogger) SetLevel(Level)               {}

// prefixLogger 在每条消息前加上固定前缀
type prefixLogger struct {
	Logger
	prefix string
}

// WithPrefix 返回给每条消息加上 "[prefix] " 的日志器，级别设置作用于 l
func WithPrefix(l Logger, prefix string) Logger {
	if prefix == "" {
		return l
	}
	return &prefixLogger{Logger: l, prefix: "[" + strings.ReplaceAll(prefix, "%", "%%") + "] "}
}

func (p *prefixLogger) Debug(format string, args ...interface{}) {
	p.Logger.Debug(p.prefix+format, args...)
}

func (p *prefixLogger) Info(format string, args ...interface{}) {
	p.Logger.Info(p.prefix+format, args...)
}

func (p *prefixLogger) Warn(format string, args ...interface{}) {
	p.Logger.Warn(p.prefix+format, args...)
}

func (p *prefixLogger) Error(format string, args ...interface{}) {
	p.Logger.Error(p.prefix+format, args...)
}

var (
	mu              sync.RWMutex
	defaultInstance = NewLogger(INFO, os.Stdout)
)

// SetDefault 设置全局默认日志器
func SetDefault(l Logger) {
	mu.Lock()
	defer mu.Unlock()
	defaultInstance = l
}

// GetDefault 获取全局默认日志器
func GetDefault() Logger {
	mu.RLock()
	defer mu.RUnlock()
	return defaultInstance
}

func Debug(format string, args ...interface{}) { GetDefault().Debug(format, args...) }
func Info(format string, args ...interface{})  { GetDefault().Info(format, args...) }
func Warn(format string, args ...interface{})  { GetDefault().Warn(format, args...) }
func Error(format string, args ...interface{}) { GetDefault().Error(format, args...) }
