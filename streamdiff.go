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
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/rulego/streamdiff/functions"
	"github.com/rulego/streamdiff/logger"
	"github.com/rulego/streamdiff/plan"
	"github.com/rulego/streamdiff/planner"
	"github.com/rulego/streamdiff/source"
	"github.com/rulego/streamdiff/stream"
	"github.com/rulego/streamdiff/trigger"
	"github.com/rulego/streamdiff/types"
)

// ErrNotPrepared 在 Prepare 之前调用执行方法时返回
var ErrNotPrepared = errors.New("no plan prepared")

// Engine 是增量流式执行引擎的入口。
// 它持有源目录和配置，把物理计划构建成 Pipeline 并驱动执行。
//
// 使用示例:
//
//	engine := streamdiff.New(streamdiff.WithErrorPolicy(types.ErrorPolicySkip))
//	_ = engine.RegisterRecords("people", []string{"name", "age"}, records...)
//	err := engine.Prepare(&plan.Filter{
//		Input:     &plan.Source{Name: "people"},
//		Predicate: plan.Gt(plan.Col("age"), plan.Lit(30)),
//	})
//	engine.AddSink(source.FuncSink(func(rec types.Record) error {
//		fmt.Println(rec)
//		return nil
//	}))
//	err = engine.Run(ctx)
type Engine struct {
	config     types.Config
	catalog    *source.Catalog
	functions  *functions.FunctionRegistry
	logger     logger.Logger
	registerer prometheus.Registerer
	clock      trigger.Clock

	// optionErr 记录选项应用过程中的错误，在 Prepare 时返回
	optionErr error

	node     plan.Node
	pipeline *planner.Pipeline
	stream   *stream.Stream
	sinks    []source.Sink
}

// New 创建引擎，选项按顺序应用
func New(options ...Option) *Engine {
	e := &Engine{
		config:  types.NewConfig(),
		catalog: source.NewCatalog(),
	}
	for _, option := range options {
		option(e)
	}
	if e.logger == nil {
		level, err := logger.ParseLevel(e.config.LogLevel)
		if err != nil && e.optionErr == nil {
			e.optionErr = err
		}
		e.logger = logger.NewLogger(level, os.Stdout)
	}
	return e
}

// Config 当前生效的配置
func (e *Engine) Config() types.Config {
	return e.config
}

// Catalog 源目录
func (e *Engine) Catalog() *source.Catalog {
	return e.catalog
}

// RegisterSource 注册一个源，fields 为不带限定符的字段名
func (e *Engine) RegisterSource(name string, fields []string, factory source.Factory) error {
	return e.catalog.Register(name, types.NewSchema(fields...), factory)
}

// RegisterRecords 注册一个每次打开都重放 records 的内存源
func (e *Engine) RegisterRecords(name string, fields []string, records ...types.Record) error {
	return e.catalog.RegisterRecords(name, types.NewSchema(fields...), records...)
}

// Prepare 校验并构建计划。再次调用会替换之前的计划，已添加的 sink 保留。
func (e *Engine) Prepare(node plan.Node) error {
	if e.optionErr != nil {
		return e.optionErr
	}
	if err := e.config.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	opts := planner.OptionsFromConfig(e.config)
	opts.Functions = e.functions
	opts.Clock = e.clock
	p, err := planner.Build(node, e.catalog, opts)
	if err != nil {
		return err
	}
	s, err := stream.New(p, e.catalog, stream.Options{
		ErrorPolicy:      e.config.ErrorPolicy,
		Logger:           e.logger,
		Registerer:       e.registerer,
		MetricsNamespace: e.config.MetricsNamespace,
	})
	if err != nil {
		return err
	}
	for _, sink := range e.sinks {
		s.AddSink(sink)
	}

	if e.stream != nil {
		_ = e.stream.Close()
	}
	e.node, e.pipeline, e.stream = node, p, s
	e.logger.Debug("prepared plan\n%s", plan.Explain(node))
	return nil
}

// Explain 返回已准备计划的树形描述
func (e *Engine) Explain() string {
	if e.node == nil {
		return ""
	}
	return plan.Explain(e.node)
}

// Schema 输出记录的字段
func (e *Engine) Schema() types.Schema {
	if e.pipeline == nil {
		return types.Schema{}
	}
	return e.pipeline.Schema()
}

// AddSink 添加结果接收者，Prepare 之前或之后调用都可以
func (e *Engine) AddSink(sink source.Sink) {
	e.sinks = append(e.sinks, sink)
	if e.stream != nil {
		e.stream.AddSink(sink)
	}
}

// AddSinkFunc 是 AddSink(source.FuncSink(fn)) 的简写
func (e *Engine) AddSinkFunc(fn func(rec types.Record) error) {
	e.AddSink(source.FuncSink(fn))
}

// Run 读完所有源并在最后刷新
func (e *Engine) Run(ctx context.Context) error {
	if e.stream == nil {
		return ErrNotPrepared
	}
	return e.stream.Run(ctx)
}

// Insert 推入一条插入事件，values 为 Go 原生值
func (e *Engine) Insert(sourceName string, values ...interface{}) error {
	rec, err := source.Insert(values...)
	if err != nil {
		return err
	}
	return e.Process(sourceName, rec)
}

// Retract 推入一条撤回事件，values 为 Go 原生值
func (e *Engine) Retract(sourceName string, values ...interface{}) error {
	rec, err := source.Retract(values...)
	if err != nil {
		return err
	}
	return e.Process(sourceName, rec)
}

// Process 推入一条事件
func (e *Engine) Process(sourceName string, rec types.Record) error {
	if e.stream == nil {
		return ErrNotPrepared
	}
	return e.stream.Process(sourceName, rec)
}

// Flush 刷新所有算子中保留的状态
func (e *Engine) Flush() error {
	if e.stream == nil {
		return ErrNotPrepared
	}
	return e.stream.Flush()
}

// Stream 底层驱动，Prepare 之前为 nil
func (e *Engine) Stream() *stream.Stream {
	return e.stream
}

// GetStats 获取统计信息
func (e *Engine) GetStats() map[string]int64 {
	if e.stream != nil {
		return e.stream.Stats()
	}
	return make(map[string]int64)
}

// GetDetailedStats 获取详细统计信息
func (e *Engine) GetDetailedStats() map[string]interface{} {
	if e.stream != nil {
		return e.stream.DetailedStats()
	}
	return make(map[string]interface{})
}

// Stop 释放指标等资源，之后需要重新 Prepare
func (e *Engine) Stop() {
	if e.stream != nil {
		_ = e.stream.Close()
		e.stream = nil
		e.pipeline = nil
	}
}
