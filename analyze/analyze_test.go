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

package analyze

import (
	"testing"

	"github.com/salikh/pegleft/grammar"
	"github.com/salikh/pegleft/metaparser"
)

func mustParse(t *testing.T, src string) *grammar.Grammar {
	t.Helper()
	g, err := metaparser.Parse(src)
	if err != nil {
		t.Fatalf("Parse(%q) failed: %v", src, err)
	}
	return g
}

func TestDirectLeftRecursionLeader(t *testing.T) {
	g := mustParse(t, `
start: e ENDMARKER
e: e '+' NUMBER | NUMBER
`)
	if err := Validate(g); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	e, _ := g.Rule("e")
	if !e.LeftRecursive || !e.Leader {
		t.Fatalf("rule e: LeftRecursive=%v Leader=%v, want both true", e.LeftRecursive, e.Leader)
	}
	start, _ := g.Rule("start")
	if start.LeftRecursive {
		t.Fatalf("rule start should not be left-recursive")
	}
}

func TestIndirectLeftRecursionLeaderIsLexicographicallyLeast(t *testing.T) {
	g := mustParse(t, `
start: a ENDMARKER
a: b 'x' | NUMBER
b: a 'y'
`)
	if err := Validate(g); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	a, _ := g.Rule("a")
	b, _ := g.Rule("b")
	if !a.LeftRecursive || !b.LeftRecursive {
		t.Fatalf("a and b should both be left-recursive: a=%v b=%v", a.LeftRecursive, b.LeftRecursive)
	}
	if !a.Leader || b.Leader {
		t.Fatalf("leader should be %q (lexicographically least), got a.Leader=%v b.Leader=%v", "a", a.Leader, b.Leader)
	}
}

func TestNoLeftRecursion(t *testing.T) {
	g := mustParse(t, `start: NUMBER ENDMARKER`)
	if err := Validate(g); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	start, _ := g.Rule("start")
	if start.LeftRecursive || start.Leader {
		t.Fatalf("rule start should not be flagged left-recursive")
	}
}

func TestNullabilityThroughOptional(t *testing.T) {
	g := mustParse(t, `
start: maybe NUMBER
maybe: 'x'?
`)
	if err := Validate(g); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	maybe, _ := g.Rule("maybe")
	if !maybe.Nullable {
		t.Fatalf("rule maybe should be nullable")
	}
	start, _ := g.Rule("start")
	if start.Nullable {
		t.Fatalf("rule start should not be nullable (NUMBER is mandatory)")
	}
}

func TestUndefinedRuleIsReported(t *testing.T) {
	g := mustParse(t, `start: missing NUMBER`)
	err := Validate(g)
	if err == nil {
		t.Fatal("expected an UndefinedRule error")
	}
	errs := grammar.AsErrors(err)
	found := false
	for _, e := range errs {
		if e.Kind == grammar.ErrUndefinedRule {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected an UndefinedRule error, got %v", errs)
	}
}

func TestNoStartRuleIsReported(t *testing.T) {
	g := mustParse(t, `foo: NUMBER`)
	err := Validate(g)
	if err == nil {
		t.Fatal("expected a NoStartRule error")
	}
	errs := grammar.AsErrors(err)
	found := false
	for _, e := range errs {
		if e.Kind == grammar.ErrNoStartRule {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a NoStartRule error, got %v", errs)
	}
}
