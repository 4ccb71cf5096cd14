// Copyright 2019 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package peg

import (
	"fmt"

	"github.com/salikh/pegleft/grammar"
)

// Bindings holds the named item values of one matched alternative,
// keyed by the NamedItem.Bind name used in the grammar source.
type Bindings map[string]interface{}

// ActionFunc computes the semantic value of a matched alternative. seq
// holds the ordered values of every item in the alternative except Cut,
// lookaheads, and separator values discarded by Separated — the same
// sequence the default action (spec.md §4.3) would use, given to custom
// actions too since most host-language action bodies index it
// positionally as well as by name.
//
// The action text carried in grammar.Alt.Action is opaque host-language
// source (§4.1): this evaluator cannot execute it directly, since doing
// so is the code generator's job, explicitly out of scope (§1). Callers
// that need non-default semantics for a grammar register an ActionFunc
// against the exact *grammar.Alt it replaces.
type ActionFunc func(b Bindings, seq []interface{}) (interface{}, error)

// ActionTable maps grammar alternatives to the Go closures that replace
// their opaque action text. It is keyed by *grammar.Alt identity rather
// than by (rule, index), since action-bearing alternatives can appear
// nested inside Group/Optional/etc. sub-expressions that have no rule
// name of their own.
type ActionTable struct {
	funcs map[*grammar.Alt]ActionFunc
}

func NewActionTable() *ActionTable {
	return &ActionTable{funcs: make(map[*grammar.Alt]ActionFunc)}
}

// Set registers fn as the action for alt, overriding both its opaque
// action text (if any) and the default action it would otherwise get.
func (t *ActionTable) Set(alt *grammar.Alt, fn ActionFunc) {
	t.funcs[alt] = fn
}

func (t *ActionTable) lookup(alt *grammar.Alt) (ActionFunc, bool) {
	if t == nil {
		return nil, false
	}
	fn, ok := t.funcs[alt]
	return fn, ok
}

// defaultAction implements spec.md §4.3's default action: a single item
// in the alternative yields its own value; more than one yields the
// ordered sequence.
func defaultAction(seq []interface{}) interface{} {
	if len(seq) == 1 {
		return seq[0]
	}
	return seq
}

func (m *Machine) applyAction(alt *grammar.Alt, b Bindings, seq []interface{}) (interface{}, error) {
	if fn, ok := m.actions.lookup(alt); ok {
		return fn(b, seq)
	}
	if alt.HasAction {
		return nil, fmt.Errorf("no ActionFunc registered for alternative with action %q; "+
			"register one via ActionTable.Set before calling Parse", alt.Action)
	}
	return defaultAction(seq), nil
}
