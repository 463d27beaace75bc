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

package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/rulego/streamdiff/logger"
	"github.com/rulego/streamdiff/planner"
	"github.com/rulego/streamdiff/source"
	"github.com/rulego/streamdiff/types"
)

// Options 驱动参数
type Options struct {
	// ErrorPolicy types.ErrorPolicyStop 或 types.ErrorPolicySkip，空值为 stop
	ErrorPolicy string
	// Logger nil 使用 logger.GetDefault()
	Logger logger.Logger
	// Registerer 非 nil 时注册 Prometheus 指标
	Registerer prometheus.Registerer
	// MetricsNamespace Prometheus 指标前缀
	MetricsNamespace string
	// Variables 计划求值时的外层变量，一般为 nil
	Variables *types.VariableContext
}

// Stream 执行驱动：从源读取事件，按顺序推入 Pipeline，把输出同步交给所有 sink。
// Process、Flush 和 Run 互斥执行，算子状态不会被并发访问。
type Stream struct {
	id       string
	pipeline *planner.Pipeline
	catalog  *source.Catalog
	policy   string
	vars     *types.VariableContext
	logger   logger.Logger
	stats    *StatsCollector

	registerer prometheus.Registerer
	collector  *PrometheusCollector

	mu       sync.Mutex
	sinksMux sync.RWMutex
	sinks    []source.Sink
}

// New 创建驱动。catalog 用于 Run 时打开源，只使用 Process 时可以为 nil。
func New(pipeline *planner.Pipeline, catalog *source.Catalog, opts Options) (*Stream, error) {
	if pipeline == nil {
		return nil, errors.New("stream requires a pipeline")
	}
	policy := opts.ErrorPolicy
	if policy == "" {
		policy = types.ErrorPolicyStop
	}
	if policy != types.ErrorPolicyStop && policy != types.ErrorPolicySkip {
		return nil, fmt.Errorf("unknown error policy %q", policy)
	}
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate stream id: %w", err)
	}
	log := opts.Logger
	if log == nil {
		log = logger.GetDefault()
	}

	s := &Stream{
		id:       id.String(),
		pipeline: pipeline,
		catalog:  catalog,
		policy:   policy,
		vars:     opts.Variables,
		logger:   logger.WithPrefix(log, "stream "+id.String()),
		stats:    NewStatsCollector(),
	}
	if opts.Registerer != nil {
		s.collector = NewPrometheusCollector(opts.MetricsNamespace, s.id, s.stats)
		if err := opts.Registerer.Register(s.collector); err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
		s.registerer = opts.Registerer
	}
	return s, nil
}

// ID 流的唯一标识 (UUIDv7)
func (s *Stream) ID() string {
	return s.id
}

// Schema 输出记录的字段
func (s *Stream) Schema() types.Schema {
	return s.pipeline.Schema()
}

// AddSink 添加结果接收者，按添加顺序依次调用
func (s *Stream) AddSink(sink source.Sink) {
	s.sinksMux.Lock()
	defer s.sinksMux.Unlock()
	s.sinks = append(s.sinks, sink)
}

// Stats 计数快照
func (s *Stream) Stats() map[string]int64 {
	return s.stats.GetBasicStats()
}

// DetailedStats 计数和比率
func (s *Stream) DetailedStats() map[string]interface{} {
	return s.stats.GetDetailedStats()
}

// Process 推入一条源事件并把输出交给 sink。
// skip 策略下求值失败的事件被记录并丢弃，返回 nil。
func (s *Stream) Process(sourceName string, rec types.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.process(sourceName, rec)
}

func (s *Stream) process(sourceName string, rec types.Record) error {
	s.stats.IncrementInput()
	out, err := s.pipeline.Push(s.vars, sourceName, rec)
	if err != nil {
		if s.policy == types.ErrorPolicySkip && !errors.Is(err, types.ErrPlanConstruction) {
			s.stats.IncrementDropped()
			s.logger.Warn("skip event %s from %s: %v", rec, sourceName, err)
			return nil
		}
		return fmt.Errorf("process event %s from %s: %w", rec, sourceName, err)
	}
	return s.emit(out)
}

// Flush 流结束时刷新所有算子
func (s *Stream) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flush()
}

func (s *Stream) flush() error {
	out, err := s.pipeline.Flush(s.vars)
	if err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	s.stats.IncrementFlush()
	s.logger.Debug("flushed %d record(s)", len(out))
	return s.emit(out)
}

func (s *Stream) emit(out []types.Record) error {
	if len(out) == 0 {
		return nil
	}
	s.sinksMux.RLock()
	sinks := s.sinks
	s.sinksMux.RUnlock()
	for _, rec := range out {
		s.stats.IncrementOutput(rec.IsRetraction())
		for _, sink := range sinks {
			if err := sink.Emit(rec); err != nil {
				return fmt.Errorf("sink: %w", err)
			}
		}
	}
	return nil
}

// Run 打开计划的所有源，轮流从每个源读取一条事件，同一个源内的顺序保持不变。
// 所有源读完后刷新一次。ctx 取消时立即返回，不刷新。
func (s *Stream) Run(ctx context.Context) error {
	if s.catalog == nil {
		return errors.New("stream has no catalog to open sources from")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	type reader struct {
		name string
		src  source.Source
	}
	var active []reader
	defer func() {
		for _, r := range active {
			if err := r.src.Close(); err != nil {
				s.logger.Warn("close source %s: %v", r.name, err)
			}
		}
	}()
	for _, name := range s.pipeline.Sources() {
		src, err := s.catalog.Open(name)
		if err != nil {
			return err
		}
		active = append(active, reader{name: name, src: src})
	}
	s.logger.Info("started, sources %v", s.pipeline.Sources())

	for len(active) > 0 {
		for i := 0; i < len(active); {
			r := active[i]
			rec, err := r.src.Next(ctx)
			if errors.Is(err, io.EOF) {
				s.logger.Debug("source %s exhausted", r.name)
				if err := r.src.Close(); err != nil {
					s.logger.Warn("close source %s: %v", r.name, err)
				}
				active = append(active[:i], active[i+1:]...)
				continue
			}
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					s.logger.Info("stopped: %v", ctxErr)
					return ctxErr
				}
				return fmt.Errorf("read source %s: %w", r.name, err)
			}
			if err := s.process(r.name, rec); err != nil {
				s.logger.Error("%v", err)
				return err
			}
			i++
		}
	}

	if err := s.flush(); err != nil {
		return err
	}
	s.logger.Info("finished, %d event(s) in, %d record(s) out", s.stats.GetInputCount(), s.stats.GetOutputCount())
	return nil
}

// Close 注销 Prometheus 指标
func (s *Stream) Close() error {
	if s.registerer != nil && s.collector != nil {
		s.registerer.Unregister(s.collector)
		s.collector = nil
	}
	return nil
}
