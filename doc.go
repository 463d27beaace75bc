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

/*
Package streamdiff 是一个增量流式 SQL 执行内核。

输入和输出都是差分流：每条记录要么是插入，要么是撤回(retraction)。
过滤、映射、分组聚合和等值连接都按单条记录增量维护结果，
上游撤回一条记录时，下游会撤回由它导出的结果。

# 核心特性

• 撤回流 - 每条记录带有插入/撤回标记，聚合结果更新时先撤回旧值再插入新值
• 物理计划 - Source、Filter、Map、GroupBy、Join 五种节点，由 planner 构建成 Pipeline
• 触发器 - Counting(n)、Delay(d)、EndOfStream 控制 GroupBy 何时输出
• 子查询 - 标量子查询和 EXISTS，每条外层记录重新执行内层计划
• 表达式 - 比较、算术、三值逻辑、函数调用以及 expr-lang 表达式

# 入门示例

	engine := streamdiff.New(streamdiff.WithDiscardLog())
	_ = engine.RegisterRecords("people", []string{"name", "age"})

	err := engine.Prepare(&plan.GroupBy{
		Input:      &plan.Source{Name: "people"},
		Aggregates: []plan.Aggregate{{Func: aggregator.Count, Name: "n"}},
		Trigger:    trigger.CountingSpec(1),
	})

	engine.AddSinkFunc(func(rec types.Record) error {
		fmt.Println(rec) // +(1), 然后 -(1) +(2) ...
		return nil
	})
	_ = engine.Insert("people", "amy", 40)
	_ = engine.Insert("people", "bob", 25)

Run 会从源目录打开计划中的所有源，轮流读取，读完后刷新。
*/
package streamdiff
