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

package types

// UndoLog records how to revert the state changes made since Begin.
// Recording is a no-op outside of Begin/Commit, so state owners can call Record unconditionally.
type UndoLog struct {
	active bool
	undo   []func()
}

// Begin starts recording, dropping anything recorded before
func (l *UndoLog) Begin() {
	l.clear()
	l.active = true
}

// Active reports whether changes are being recorded
func (l *UndoLog) Active() bool {
	return l.active
}

// Record adds the inverse of a change that was just applied
func (l *UndoLog) Record(undo func()) {
	if l.active {
		l.undo = append(l.undo, undo)
	}
}

// Commit keeps the changes and stops recording
func (l *UndoLog) Commit() {
	l.clear()
	l.active = false
}

// Rollback reverts the recorded changes, newest first, and stops recording
func (l *UndoLog) Rollback() {
	l.active = false
	for i := len(l.undo) - 1; i >= 0; i-- {
		l.undo[i]()
	}
	l.clear()
}

func (l *UndoLog) clear() {
	for i := range l.undo {
		l.undo[i] = nil
	}
	l.undo = l.undo[:0]
}
