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
	"reflect"
	"strings"
	"testing"

	"github.com/salikh/pegleft/analyze"
	"github.com/salikh/pegleft/grammar"
	"github.com/salikh/pegleft/metaparser"
	"github.com/salikh/pegleft/token"
)

// fixedStream is a trivial token.Stream backed by a fixed slice of
// already-split words, classifying all-digit words as NUMBER and
// everything else as NAME. It exists purely so these tests exercise the narrow
// token.Stream contract without pulling in package exampletoken.
type fixedStream struct {
	toks []token.Token
}

func newFixedStream(words ...string) *fixedStream {
	var toks []token.Token
	for i, w := range words {
		kind := "NAME"
		if isAllDigits(w) {
			kind = "NUMBER"
		}
		toks = append(toks, token.Token{Kind: kind, Text: w, Span: token.Span{Start: i, End: i + 1}})
	}
	return &fixedStream{toks: toks}
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func (s *fixedStream) TokenAt(pos int) (token.Token, bool) {
	if pos < 0 {
		return token.Token{}, false
	}
	if pos >= len(s.toks) {
		return token.Token{Kind: token.EOFKind}, true
	}
	return s.toks[pos], true
}

func mustAnalyze(t *testing.T, src string) *grammar.Grammar {
	t.Helper()
	g, err := metaparser.Parse(src)
	if err != nil {
		t.Fatalf("Parse(%q) failed: %v", src, err)
	}
	if err := analyze.Validate(g); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	return g
}

func TestSimpleMatch(t *testing.T) {
	g := mustAnalyze(t, `start: NUMBER ENDMARKER`)
	stream := newFixedStream("42")
	m := NewMachine(g, stream, nil)
	value, err := m.Parse()
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	seq, ok := value.([]interface{})
	if !ok || len(seq) != 2 {
		t.Fatalf("value = %#v, want a 2-element sequence", value)
	}
	numTok := seq[0].(token.Token)
	if numTok.Text != "42" {
		t.Errorf("first item text = %q, want %q", numTok.Text, "42")
	}
}

// A tiny AST for the left-associative addition scenarios, built by
// registering ActionFuncs against the grammar's own *grammar.Alt nodes
// — what a generated parser's action code would do.
type addNode struct {
	left, right interface{}
}

func TestDirectLeftRecursionIsLeftAssociative(t *testing.T) {
	g := mustAnalyze(t, `
start: e ENDMARKER
e: left=e '+' right=NUMBER | NUMBER
`)
	eRule, _ := g.Rule("e")
	actions := NewActionTable()
	addAlt := eRule.Rhs.Alts[0]
	actions.Set(addAlt, func(b Bindings, seq []interface{}) (interface{}, error) {
		return addNode{left: b["left"], right: b["right"]}, nil
	})
	stream := newFixedStream("1", "+", "2", "+", "3")
	m := NewMachine(g, stream, actions)
	value, err := m.Parse()
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	seq := value.([]interface{})
	root, ok := seq[0].(addNode)
	if !ok {
		t.Fatalf("root = %#v, want addNode", seq[0])
	}
	outerLeft, ok := root.left.(addNode)
	if !ok {
		t.Fatalf("root.left = %#v, want addNode (left-associative ((1+2)+3))", root.left)
	}
	innerLeft := outerLeft.left.(token.Token)
	if innerLeft.Text != "1" {
		t.Errorf("innermost left = %q, want %q", innerLeft.Text, "1")
	}
	if outerLeft.right.(token.Token).Text != "2" {
		t.Errorf("outerLeft.right = %v, want 2", outerLeft.right)
	}
	if root.right.(token.Token).Text != "3" {
		t.Errorf("root.right = %v, want 3", root.right)
	}
}

func TestIndirectLeftRecursion(t *testing.T) {
	g := mustAnalyze(t, `
start: a ENDMARKER
a: b 'x' | NUMBER
b: a 'y'
`)
	stream := newFixedStream("1", "y", "x")
	m := NewMachine(g, stream, nil)
	_, err := m.Parse()
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	a, _ := g.Rule("a")
	if !a.LeftRecursive || !a.Leader {
		t.Fatalf("rule a should be the leader of an indirect left-recursion cycle")
	}
}

func TestCutBlocksBacktracking(t *testing.T) {
	g := mustAnalyze(t, `start: '(' ~ NAME ')' | NAME`)
	// "( 42 )" where 42 is classified NUMBER, not NAME: the '(' commits
	// via cut, and the second alternative (bare NAME) must not be tried.
	stream := newFixedStream("(", "42", ")")
	m := NewMachine(g, stream, nil)
	_, err := m.Parse()
	if err == nil {
		t.Fatal("expected a SyntaxError")
	}
	if _, ok := err.(*SyntaxError); !ok {
		t.Fatalf("err = %v (%T), want *SyntaxError", err, err)
	}
}

func TestCutDoesNotBlockWhenNotCrossed(t *testing.T) {
	g := mustAnalyze(t, `start: '(' ~ NAME ')' | NAME`)
	stream := newFixedStream("foo")
	m := NewMachine(g, stream, nil)
	_, err := m.Parse()
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
}

func TestSeparatedList(t *testing.T) {
	g := mustAnalyze(t, `start: ','.NUMBER+ ENDMARKER`)
	stream := newFixedStream("1", ",", "2", ",", "3")
	m := NewMachine(g, stream, nil)
	value, err := m.Parse()
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	seq := value.([]interface{})
	list := seq[0].([]interface{})
	if len(list) != 3 {
		t.Fatalf("separated list = %#v, want 3 elements (separators discarded)", list)
	}
	for i, want := range []string{"1", "2", "3"} {
		got := list[i].(token.Token).Text
		if got != want {
			t.Errorf("element %d = %q, want %q", i, got, want)
		}
	}
}

func TestOptionalThenMandatory(t *testing.T) {
	g := mustAnalyze(t, `start: 'a'? 'a' ENDMARKER`)

	// 'a'? is possessive: it greedily commits to matching 'a' whenever
	// the next token is 'a', the same way ZeroOrMore/OneOrMore never
	// backtrack into a shorter match (spec.md §4.3, "Repetition"). On a
	// single "a", the optional consumes it and the mandatory 'a' that
	// follows has nothing left to match, so the parse fails; see
	// DESIGN.md's Open Questions for why this is the correct possessive
	// reading rather than the CFG-style "try without" fallback.
	stream := newFixedStream("a")
	m := NewMachine(g, stream, nil)
	if _, err := m.Parse(); err == nil {
		t.Fatal(`Parse("a") succeeded, want SyntaxError: possessive 'a'? leaves nothing for the mandatory 'a'`)
	}

	stream = newFixedStream("a", "a")
	m = NewMachine(g, stream, nil)
	if _, err := m.Parse(); err != nil {
		t.Errorf(`Parse("a a") failed: %v`, err)
	}
}

func TestLookaheadDoesNotConsume(t *testing.T) {
	g := mustAnalyze(t, `start: &NUMBER NUMBER ENDMARKER`)
	stream := newFixedStream("7")
	m := NewMachine(g, stream, nil)
	if _, err := m.Parse(); err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
}

func TestNegativeLookaheadRejectsMatch(t *testing.T) {
	g := mustAnalyze(t, `start: !NUMBER NAME ENDMARKER`)
	stream := newFixedStream("7")
	m := NewMachine(g, stream, nil)
	if _, err := m.Parse(); err == nil {
		t.Fatal("expected a SyntaxError: !NUMBER should reject a leading NUMBER")
	}
}

func TestSyntaxErrorReportsFurthestReach(t *testing.T) {
	g := mustAnalyze(t, `start: NUMBER NAME ENDMARKER`)
	stream := newFixedStream("1", "2")
	m := NewMachine(g, stream, nil)
	_, err := m.Parse()
	se, ok := err.(*SyntaxError)
	if !ok {
		t.Fatalf("err = %v (%T), want *SyntaxError", err, err)
	}
	if se.Pos != 1 {
		t.Fatalf("SyntaxError.Pos = %d, want 1 (furthest reach)", se.Pos)
	}
}

func TestActionErrorAbortsParse(t *testing.T) {
	g := mustAnalyze(t, `start: NUMBER ENDMARKER`)
	rule, _ := g.Rule("start")
	actions := NewActionTable()
	actions.Set(rule.Rhs.Alts[0], func(b Bindings, seq []interface{}) (interface{}, error) {
		return nil, fmt.Errorf("boom")
	})
	stream := newFixedStream("1")
	m := NewMachine(g, stream, actions)
	_, err := m.Parse()
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("err = %v, want an error wrapping the action's own error", err)
	}
}

func TestDeterministic(t *testing.T) {
	g := mustAnalyze(t, `
start: e ENDMARKER
e: e '+' NUMBER | NUMBER
`)
	words := []string{"1", "+", "2", "+", "3"}
	var results []interface{}
	for i := 0; i < 3; i++ {
		stream := newFixedStream(words...)
		m := NewMachine(g, stream, nil)
		value, err := m.Parse()
		if err != nil {
			t.Fatalf("Parse failed on run %d: %v", i, err)
		}
		results = append(results, value)
	}
	for i := 1; i < len(results); i++ {
		if !reflect.DeepEqual(results[0], results[i]) {
			t.Fatalf("parse is not deterministic: run 0 = %#v, run %d = %#v", results[0], i, results[i])
		}
	}
}
