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
Package stream drives a planner.Pipeline.

A Stream pulls insert/retract events from the sources of a catalog, pushes them one at a
time through the pipeline and hands every emitted record to its sinks before the next event
is read. Sources are interleaved round-robin; events of one source keep their order.

# Usage

	p, _ := planner.Build(node, catalog, planner.DefaultOptions())
	s, _ := stream.New(p, catalog, stream.Options{ErrorPolicy: types.ErrorPolicySkip})
	s.AddSink(source.FuncSink(func(rec types.Record) error {
		fmt.Println(rec)
		return nil
	}))
	err := s.Run(ctx)

Push-style feeding uses Process and Flush instead of Run.

# Error policy

With "stop" the first failing event ends Run and is returned. With "skip" the event is
logged at WARN, counted as dropped and processing continues. Operators only commit state
for records they evaluated completely, so a skipped event leaves no trace in that operator.

# Metrics

Stats returns the input, output, retraction, dropped and flush counters. When Options.Registerer
is set they are also exported through a prometheus.Collector labelled with the stream id.
*/
package stream
