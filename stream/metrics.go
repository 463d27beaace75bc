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
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

// Statistics field constants
const (
	InputCount      = "input_count"
	OutputCount     = "output_count"
	RetractionCount = "retraction_count"
	DroppedCount    = "dropped_count"
	FlushCount      = "flush_count"
)

// Detailed statistics field constants
const (
	BasicStats       = "basic_stats"
	DropRate         = "drop_rate"
	RetractionRate   = "retraction_rate"
	AmplificationAvg = "amplification_avg"
	HealthLevel      = "health_level"
)

// Health level constants
const (
	HealthLevelCritical = "CRITICAL"
	HealthLevelWarning  = "WARNING"
	HealthLevelChurn    = "HIGH_CHURN"
	HealthLevelOptimal  = "OPTIMAL"
)

// AssessHealthLevel 根据失败率和输出中撤回的比例评估运行状态
func AssessHealthLevel(dropRate, retractionRate float64) string {
	switch {
	case dropRate > 50:
		return HealthLevelCritical
	case dropRate > 20:
		return HealthLevelWarning
	case retractionRate > 45:
		return HealthLevelChurn
	default:
		return HealthLevelOptimal
	}
}

// StatsCollector 线程安全的驱动统计
type StatsCollector struct {
	inputCount      int64
	outputCount     int64
	retractionCount int64
	droppedCount    int64
	flushCount      int64
}

func NewStatsCollector() *StatsCollector {
	return &StatsCollector{}
}

// IncrementInput 记录一条源事件
func (sc *StatsCollector) IncrementInput() {
	atomic.AddInt64(&sc.inputCount, 1)
}

// IncrementOutput 记录一条输出，撤回单独计数
func (sc *StatsCollector) IncrementOutput(retraction bool) {
	atomic.AddInt64(&sc.outputCount, 1)
	if retraction {
		atomic.AddInt64(&sc.retractionCount, 1)
	}
}

// IncrementDropped 记录一条被跳过的失败事件
func (sc *StatsCollector) IncrementDropped() {
	atomic.AddInt64(&sc.droppedCount, 1)
}

func (sc *StatsCollector) IncrementFlush() {
	atomic.AddInt64(&sc.flushCount, 1)
}

func (sc *StatsCollector) GetInputCount() int64 {
	return atomic.LoadInt64(&sc.inputCount)
}

func (sc *StatsCollector) GetOutputCount() int64 {
	return atomic.LoadInt64(&sc.outputCount)
}

func (sc *StatsCollector) GetRetractionCount() int64 {
	return atomic.LoadInt64(&sc.retractionCount)
}

func (sc *StatsCollector) GetDroppedCount() int64 {
	return atomic.LoadInt64(&sc.droppedCount)
}

func (sc *StatsCollector) GetFlushCount() int64 {
	return atomic.LoadInt64(&sc.flushCount)
}

func (sc *StatsCollector) Reset() {
	atomic.StoreInt64(&sc.inputCount, 0)
	atomic.StoreInt64(&sc.outputCount, 0)
	atomic.StoreInt64(&sc.retractionCount, 0)
	atomic.StoreInt64(&sc.droppedCount, 0)
	atomic.StoreInt64(&sc.flushCount, 0)
}

// GetBasicStats 返回计数快照
func (sc *StatsCollector) GetBasicStats() map[string]int64 {
	return map[string]int64{
		InputCount:      sc.GetInputCount(),
		OutputCount:     sc.GetOutputCount(),
		RetractionCount: sc.GetRetractionCount(),
		DroppedCount:    sc.GetDroppedCount(),
		FlushCount:      sc.GetFlushCount(),
	}
}

// GetDetailedStats 在计数快照上计算比率
func (sc *StatsCollector) GetDetailedStats() map[string]interface{} {
	basic := sc.GetBasicStats()
	var dropRate, retractionRate, amplification float64
	if in := basic[InputCount]; in > 0 {
		dropRate = float64(basic[DroppedCount]) / float64(in) * 100
		amplification = float64(basic[OutputCount]) / float64(in)
	}
	if out := basic[OutputCount]; out > 0 {
		retractionRate = float64(basic[RetractionCount]) / float64(out) * 100
	}
	return map[string]interface{}{
		BasicStats:       basic,
		DropRate:         dropRate,
		RetractionRate:   retractionRate,
		AmplificationAvg: amplification,
		HealthLevel:      AssessHealthLevel(dropRate, retractionRate),
	}
}

var _ prometheus.Collector = (*PrometheusCollector)(nil)

// PrometheusCollector 把 StatsCollector 的计数导出为 Prometheus counter，
// 每个流一个实例，通过 stream 标签区分
type PrometheusCollector struct {
	stats       *StatsCollector
	inputs      *prometheus.Desc
	outputs     *prometheus.Desc
	retractions *prometheus.Desc
	dropped     *prometheus.Desc
	flushes     *prometheus.Desc
}

// NewPrometheusCollector 创建导出器，namespace 为空时不加前缀
func NewPrometheusCollector(namespace, streamID string, stats *StatsCollector) *PrometheusCollector {
	labels := prometheus.Labels{"stream": streamID}
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "stream", name), help, nil, labels)
	}
	return &PrometheusCollector{
		stats:       stats,
		inputs:      desc("input_events_total", "Source events pushed into the pipeline"),
		outputs:     desc("output_records_total", "Records emitted to sinks, retractions included"),
		retractions: desc("output_retractions_total", "Retraction records emitted to sinks"),
		dropped:     desc("dropped_events_total", "Events skipped after an evaluation error"),
		flushes:     desc("flushes_total", "End of stream flushes"),
	}
}

func (c *PrometheusCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.inputs
	ch <- c.outputs
	ch <- c.retractions
	ch <- c.dropped
	ch <- c.flushes
}

func (c *PrometheusCollector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(c.inputs, prometheus.CounterValue, float64(c.stats.GetInputCount()))
	ch <- prometheus.MustNewConstMetric(c.outputs, prometheus.CounterValue, float64(c.stats.GetOutputCount()))
	ch <- prometheus.MustNewConstMetric(c.retractions, prometheus.CounterValue, float64(c.stats.GetRetractionCount()))
	ch <- prometheus.MustNewConstMetric(c.dropped, prometheus.CounterValue, float64(c.stats.GetDroppedCount()))
	ch <- prometheus.MustNewConstMetric(c.flushes, prometheus.CounterValue, float64(c.stats.GetFlushCount()))
}
