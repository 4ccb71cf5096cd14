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

// Package peg is the memoizing PEG evaluator (spec.md §4.3, component
// D): a deterministic, position-indexed recursive-descent machine with
// full support for left recursion via seed-growing.
//
// Grammar must already have been run through analyze.Validate so that
// Nullable/LeftRecursive/Leader/Memoize are populated; Machine reads
// those flags but never computes them itself.
package peg

import (
	"fmt"

	log "github.com/golang/glog"
	"github.com/google/uuid"

	"github.com/salikh/pegleft/analyze"
	"github.com/salikh/pegleft/grammar"
	"github.com/salikh/pegleft/token"
)

// Machine evaluates one Grammar against one token.Stream. A Machine
// owns its memo table exclusively and is not safe for concurrent use;
// the underlying Grammar, being immutable after analysis, may be shared
// read-only across many Machines each parsing a different stream
// (spec.md §5).
type Machine struct {
	g       *grammar.Grammar
	stream  token.Stream
	actions *ActionTable
	groups  map[string][]string // leader rule name -> SCC member names
	groupOf map[string]string   // rule name -> its leader's name, for any LeftRecursive rule

	memo     map[memoKey]*memoEntry
	furthest *furthestReach
	err      error
}

type memoKey struct {
	rule string
	pos  int
}

type memoEntry struct {
	ok         bool
	value      interface{}
	endPos     int
	inProgress bool
}

// NewMachine creates a Machine over an analyzed grammar and a token
// stream. actions may be nil if the grammar uses only default actions.
func NewMachine(g *grammar.Grammar, stream token.Stream, actions *ActionTable) *Machine {
	groups := analyze.Groups(g)
	groupOf := make(map[string]string)
	for leader, members := range groups {
		for _, m := range members {
			groupOf[m] = leader
		}
	}
	return &Machine{
		g:        g,
		stream:   stream,
		actions:  actions,
		groups:   groups,
		groupOf:  groupOf,
		memo:     make(map[memoKey]*memoEntry),
		furthest: newFurthestReach(),
	}
}

// Parse runs the grammar's start rule against the token stream from
// position 0. A successful parse need not consume the entire stream by
// itself — grammars that require that reference the ENDMARKER token
// explicitly (spec.md §6's own sample grammars all do), the same way a
// generated parser's entry rule would.
func (m *Machine) Parse() (interface{}, error) {
	id := uuid.New()
	startRule, err := m.g.StartRuleName()
	if err != nil {
		return nil, err
	}
	log.V(1).Infof("parse %s: begin at rule %q", id, startRule)
	value, _, ok := m.evalRule(startRule, 0)
	if m.err != nil {
		log.V(1).Infof("parse %s: aborted on action error: %v", id, m.err)
		return nil, m.err
	}
	if !ok {
		log.V(1).Infof("parse %s: failed, furthest reach %d", id, m.furthest.pos)
		return nil, m.furthest.toError()
	}
	log.V(1).Infof("parse %s: success", id)
	return value, nil
}

// evalRule implements rule invocation (spec.md §4.3, "Rule invocation").
func (m *Machine) evalRule(name string, pos int) (value interface{}, newPos int, ok bool) {
	if m.err != nil {
		return nil, pos, false
	}
	key := memoKey{name, pos}
	rule, found := m.g.Rule(name)
	if !found {
		log.Exitf("internal error: evalRule called for undefined rule %q", name)
	}

	if entry, seen := m.memo[key]; seen {
		if entry.inProgress {
			switch {
			case rule.Leader:
				// Left-recursive reentry at the leader: return the
				// seed grown so far.
				return entry.value, entry.endPos, entry.ok
			case rule.LeftRecursive:
				// Non-leader member of the SCC: conservative Fail,
				// per spec.md §4.3 step 1.
				return nil, pos, false
			default:
				log.Exitf("internal error: UnexpectedLeftRecursion(%s) at position %d; "+
					"the grammar analyzer failed to detect a left-recursive cycle", name, pos)
			}
		}
		if entry.ok {
			return entry.value, entry.endPos, true
		}
		return nil, pos, false
	}

	if !rule.Leader {
		// Mark in-progress so that a genuine left-recursive reentry
		// (whether this rule is a non-leader SCC member, or an
		// analyzer bug) is detected by the branch above.
		m.memo[key] = &memoEntry{inProgress: true, endPos: pos}
		value, newPos, ok = m.evalRhs(rule.Rhs, pos)
		if m.err != nil {
			return nil, pos, false
		}
		entry := &memoEntry{ok: ok, value: value, endPos: newPos}
		if !ok {
			entry.endPos = pos
		}
		m.memo[key] = entry
		if !ok {
			return nil, pos, false
		}
		return value, newPos, true
	}

	// Seed-growing protocol (spec.md §4.3 step 2).
	m.memo[key] = &memoEntry{ok: false, endPos: pos, inProgress: true}
	bestOk := false
	var bestValue interface{}
	bestEnd := pos
	for {
		val, end, ok := m.evalRhs(rule.Rhs, pos)
		if m.err != nil {
			return nil, pos, false
		}
		if !ok || (bestOk && end <= bestEnd) {
			break
		}
		bestOk, bestValue, bestEnd = true, val, end
		m.memo[key] = &memoEntry{ok: true, value: val, endPos: end, inProgress: true}
		m.invalidateGroup(name, pos)
	}
	if !bestOk {
		m.memo[key] = &memoEntry{ok: false, endPos: pos}
		return nil, pos, false
	}
	m.memo[key] = &memoEntry{ok: true, value: bestValue, endPos: bestEnd}
	return bestValue, bestEnd, true
}

// invalidateGroup clears memo entries made stale by a grown seed, for
// every rule sharing name's strongly connected component (spec.md
// §4.3 step 2, and the memory note in §5). The leader keeps its own
// entry at p — evalRule overwrites it directly with the new seed — so
// only positions strictly greater than p are cleared for it. Non-leader
// members, though, can have memoized a *completed* Fail at p itself:
// reentering the leader while its seed was still failing causes a
// non-leader member called at the leader's own start position to fail
// and cache that failure permanently (evalRule's non-leader branch).
// That cached failure must be discarded too whenever the seed grows,
// or the member never re-examines position p against the new seed and
// indirect left recursion can never grow past the first iteration.
func (m *Machine) invalidateGroup(name string, p int) {
	leader, ok := m.groupOf[name]
	if !ok {
		return
	}
	for _, member := range m.groups[leader] {
		threshold := p
		if member != leader {
			threshold = p - 1
		}
		for key := range m.memo {
			if key.rule == member && key.pos > threshold {
				delete(m.memo, key)
			}
		}
	}
}

// evalRhs implements alternation (spec.md §4.3, "Alternation").
func (m *Machine) evalRhs(rhs *grammar.Rhs, pos int) (interface{}, int, bool) {
	for _, alt := range rhs.Alts {
		value, newPos, ok, cutCrossed := m.evalAlt(alt, pos)
		if m.err != nil {
			return nil, pos, false
		}
		if ok {
			return value, newPos, true
		}
		if cutCrossed {
			// A cut was crossed in this alternative before it failed:
			// the whole alternation fails without trying siblings.
			break
		}
	}
	return nil, pos, false
}

// evalAlt implements sequencing (spec.md §4.3, "Sequencing") and action
// evaluation.
func (m *Machine) evalAlt(alt *grammar.Alt, pos int) (value interface{}, newPos int, ok bool, cutCrossed bool) {
	cur := pos
	bindings := make(Bindings)
	var seq []interface{}
	for _, ni := range alt.Items {
		val, end, matched := m.evalItem(ni.Item, cur)
		if m.err != nil {
			return nil, pos, false, cutCrossed
		}
		if ni.Item.Kind == grammar.KindCut {
			cutCrossed = true
		}
		if !matched {
			return nil, pos, false, cutCrossed
		}
		cur = end
		if !isDiscarded(ni.Item.Kind) {
			seq = append(seq, val)
			if ni.Bind != "" {
				bindings[ni.Bind] = val
			}
		}
	}
	result, err := m.applyAction(alt, bindings, seq)
	if err != nil {
		m.err = fmt.Errorf("action error: %w", err)
		return nil, pos, false, cutCrossed
	}
	return result, cur, true, cutCrossed
}

// isDiscarded reports whether an item's value is excluded from the
// default action's ordered sequence (spec.md §4.3): Cut and the two
// lookaheads never contribute a value.
func isDiscarded(k grammar.ItemKind) bool {
	switch k {
	case grammar.KindCut, grammar.KindPositiveLookahead, grammar.KindNegativeLookahead:
		return true
	default:
		return false
	}
}

// evalItem dispatches on item kind. It returns (value, newPos, true) on
// Match, or (nil, pos, false) on Fail — always restoring pos to its
// value before the item began, per spec.md §8 invariant 2.
func (m *Machine) evalItem(it *grammar.Item, pos int) (interface{}, int, bool) {
	if m.err != nil {
		return nil, pos, false
	}
	switch it.Kind {
	case grammar.KindRuleRef:
		return m.evalRule(it.Name, pos)

	case grammar.KindTokenRef:
		tok, ok := m.stream.TokenAt(pos)
		if !ok || tok.Kind != it.Name {
			m.furthest.record(pos, it.Name)
			return nil, pos, false
		}
		return tok, pos + 1, true

	case grammar.KindStringLit:
		tok, ok := m.stream.TokenAt(pos)
		if !ok || tok.Text != it.Text {
			m.furthest.record(pos, fmt.Sprintf("%q", it.Text))
			return nil, pos, false
		}
		return tok, pos + 1, true

	case grammar.KindGroup:
		return m.evalRhs(it.Sub, pos)

	case grammar.KindOptional:
		value, end, ok := m.evalRhs(it.Sub, pos)
		if !ok {
			return nil, pos, true
		}
		return value, end, true

	case grammar.KindZeroOrMore:
		return m.evalRepeat(it.Sub, pos, 0)

	case grammar.KindOneOrMore:
		return m.evalRepeat(it.Sub, pos, 1)

	case grammar.KindSeparated:
		return m.evalSeparated(it.Sep, it.Sub, pos)

	case grammar.KindPositiveLookahead:
		_, _, ok := m.evalRhs(it.Sub, pos)
		if m.err != nil {
			return nil, pos, false
		}
		if !ok {
			return nil, pos, false
		}
		return nil, pos, true

	case grammar.KindNegativeLookahead:
		_, _, ok := m.evalRhs(it.Sub, pos)
		if m.err != nil {
			return nil, pos, false
		}
		if ok {
			return nil, pos, false
		}
		return nil, pos, true

	case grammar.KindCut:
		return nil, pos, true

	default:
		log.Exitf("internal error: unhandled ItemKind %v in evaluator", it.Kind)
		return nil, pos, false
	}
}

// evalRepeat implements ZeroOrMore/OneOrMore: greedy, longest match,
// never backtracking into a shorter one (spec.md §4.3, "Repetition").
func (m *Machine) evalRepeat(rhs *grammar.Rhs, pos int, min int) (interface{}, int, bool) {
	var values []interface{}
	cur := pos
	for {
		value, end, ok := m.evalRhs(rhs, cur)
		if m.err != nil {
			return nil, pos, false
		}
		if !ok || end == cur {
			// A Fail stops the loop; so does a nullable zero-width
			// match, which would otherwise repeat forever.
			break
		}
		values = append(values, value)
		cur = end
	}
	if len(values) < min {
		return nil, pos, false
	}
	return values, cur, true
}

// evalSeparated implements Separated(s, e): e, then zero or more (s e),
// with separator values discarded from the result (spec.md §4.3).
func (m *Machine) evalSeparated(sep, elem *grammar.Rhs, pos int) (interface{}, int, bool) {
	first, cur, ok := m.evalRhs(elem, pos)
	if m.err != nil {
		return nil, pos, false
	}
	if !ok {
		return nil, pos, false
	}
	values := []interface{}{first}
	for {
		_, afterSep, sepOk := m.evalRhs(sep, cur)
		if m.err != nil {
			return nil, pos, false
		}
		if !sepOk {
			break
		}
		value, afterElem, elemOk := m.evalRhs(elem, afterSep)
		if m.err != nil {
			return nil, pos, false
		}
		if !elemOk {
			break
		}
		values = append(values, value)
		cur = afterElem
	}
	return values, cur, true
}
