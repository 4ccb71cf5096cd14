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

// Package analyze implements the grammar analyzer (spec.md §4.2,
// component C): reference resolution, nullability as a least fixed
// point, and left-recursion detection via strongly connected components
// of the left-call graph, with deterministic leader election.
//
// The ordered sets and stacks the three passes need are backed by
// github.com/emirpasic/gods, the way github.com/npillmayer/gorgo reaches
// for gods containers in its own grammar/graph processing, rather than
// hand-rolled map[string]bool bookkeeping.
package analyze

import (
	"fmt"
	"sort"

	log "github.com/golang/glog"
	"github.com/emirpasic/gods/sets/hashset"
	"github.com/emirpasic/gods/stacks/linkedliststack"

	"github.com/salikh/pegleft/grammar"
)

// Validate runs all three analyzer passes over g, mutating its rules'
// Nullable, LeftRecursive, Leader and Memoize flags in place, and
// returns the aggregate of every grammar-time error found (spec.md §7:
// "the analyzer should aggregate multiple UndefinedRules in one pass
// before halting" is generalized here to every grammar-time error kind
// the analyzer itself can detect).
func Validate(g *grammar.Grammar) error {
	var errs grammar.Errors
	errs = append(errs, resolveReferences(g)...)
	if _, err := g.StartRuleName(); err != nil {
		errs = append(errs, grammar.AsErrors(err)...)
	}
	if len(errs) > 0 {
		// Nullability and left-recursion analysis assume every RuleRef
		// resolves; do not run them over a grammar already known broken.
		return errs
	}
	computeNullability(g)
	computeLeftRecursion(g)
	return nil
}

func resolveReferences(g *grammar.Grammar) grammar.Errors {
	var errs grammar.Errors
	for _, rule := range g.Rules() {
		walkItems(rule.Rhs, func(it *grammar.Item) {
			if it.Kind == grammar.KindRuleRef {
				if _, ok := g.Rule(it.Name); !ok {
					errs = append(errs, grammar.NewError(grammar.ErrUndefinedRule, rule.Name, -1,
						fmt.Sprintf("reference to undefined rule %q", it.Name)))
				}
			}
		})
	}
	return errs
}

// walkItems calls fn for every Item transitively reachable from rhs,
// including nested Sub/Sep sub-expressions.
func walkItems(rhs *grammar.Rhs, fn func(*grammar.Item)) {
	if rhs == nil {
		return
	}
	for _, alt := range rhs.Alts {
		for _, ni := range alt.Items {
			fn(ni.Item)
			walkItems(ni.Item.Sub, fn)
			walkItems(ni.Item.Sep, fn)
		}
	}
}

// computeNullability runs the least-fixed-point computation of spec.md
// §4.2(b): start with every rule non-nullable and repeatedly mark rules
// nullable until a pass adds nothing new. Terminates in at most
// |rules| iterations since Nullable only ever flips false→true.
func computeNullability(g *grammar.Grammar) {
	nullable := hashset.New()
	for {
		changed := false
		for _, rule := range g.Rules() {
			if nullable.Contains(rule.Name) {
				continue
			}
			if rhsNullable(g, rule.Rhs, nullable) {
				nullable.Add(rule.Name)
				changed = true
			}
		}
		if !changed {
			break
		}
	}
	for _, rule := range g.Rules() {
		rule.Nullable = nullable.Contains(rule.Name)
	}
}

func rhsNullable(g *grammar.Grammar, rhs *grammar.Rhs, nullable *hashset.Set) bool {
	for _, alt := range rhs.Alts {
		if altNullable(g, alt, nullable) {
			return true
		}
	}
	return false
}

func altNullable(g *grammar.Grammar, alt *grammar.Alt, nullable *hashset.Set) bool {
	for _, ni := range alt.Items {
		if !itemNullable(g, ni.Item, nullable) {
			return false
		}
	}
	return true
}

func itemNullable(g *grammar.Grammar, it *grammar.Item, nullable *hashset.Set) bool {
	switch it.Kind {
	case grammar.KindStringLit, grammar.KindTokenRef:
		return false
	case grammar.KindRuleRef:
		return nullable.Contains(it.Name)
	case grammar.KindOptional, grammar.KindZeroOrMore, grammar.KindPositiveLookahead, grammar.KindNegativeLookahead, grammar.KindCut:
		return true
	case grammar.KindOneOrMore:
		return rhsNullable(g, it.Sub, nullable)
	case grammar.KindSeparated:
		return rhsNullable(g, it.Sub, nullable)
	case grammar.KindGroup:
		return rhsNullable(g, it.Sub, nullable)
	default:
		log.Exitf("internal error: unhandled ItemKind %v in nullability analysis", it.Kind)
		return false
	}
}

// computeLeftRecursion builds the left-call graph (spec.md §4.2(c)),
// finds its strongly connected components with Tarjan's algorithm, and
// marks LeftRecursive/Leader/Memoize on the affected rules.
func computeLeftRecursion(g *grammar.Grammar) {
	for leader, scc := range nonTrivialSCCs(g) {
		for _, name := range scc {
			rule, _ := g.Rule(name)
			rule.LeftRecursive = true
			rule.Memoize = true
			if name == leader {
				rule.Leader = true
			}
		}
		log.V(1).Infof("left-recursive SCC %v, leader %q", scc, leader)
	}
}

// Groups computes, for every left-recursion leader, the full set of rule
// names sharing its strongly connected component (the leader included).
// Package peg uses this to know which rules' memo entries to invalidate
// together during seed-growing (spec.md §4.3 step 2: "invalidate memo
// entries for all positions > p for every rule in the same SCC").
// Validate must have been run first so rule.Nullable is populated.
func Groups(g *grammar.Grammar) map[string][]string {
	return nonTrivialSCCs(g)
}

// nonTrivialSCCs returns, keyed by leader name, every strongly connected
// component of the left-call graph that is left-recursive: either a
// multi-rule cycle, or a single rule with a direct self-loop.
func nonTrivialSCCs(g *grammar.Grammar) map[string][]string {
	graph := leftCallGraph(g)
	sccs := tarjanSCCs(g.RuleNames(), graph)
	groups := make(map[string][]string)
	for _, scc := range sccs {
		selfLoop := len(scc) == 1 && contains(graph[scc[0]], scc[0])
		if len(scc) <= 1 && !selfLoop {
			continue
		}
		groups[leastName(scc)] = scc
	}
	return groups
}

// leftCallGraph returns, for every rule name, the set of rule names it
// left-calls: A left-calls B if some alternative of A begins with a
// sequence of nullable items, possibly none, ending on RuleRef(B), where
// lookaheads propagate the left-call relationship into their operand
// without being "consuming" themselves.
func leftCallGraph(g *grammar.Grammar) map[string][]string {
	graph := make(map[string][]string)
	for _, rule := range g.Rules() {
		set := hashset.New()
		for _, alt := range rule.Rhs.Alts {
			collectLeftCalls(g, alt.Items, set)
		}
		names := make([]string, 0, set.Size())
		for _, v := range set.Values() {
			names = append(names, v.(string))
		}
		sort.Strings(names)
		graph[rule.Name] = names
	}
	return graph
}

func collectLeftCalls(g *grammar.Grammar, items []*grammar.NamedItem, out *hashset.Set) {
	for _, ni := range items {
		it := ni.Item
		switch it.Kind {
		case grammar.KindRuleRef:
			out.Add(it.Name)
		case grammar.KindGroup, grammar.KindOptional, grammar.KindZeroOrMore, grammar.KindOneOrMore, grammar.KindSeparated:
			for _, alt := range it.Sub.Alts {
				collectLeftCalls(g, alt.Items, out)
			}
		case grammar.KindPositiveLookahead, grammar.KindNegativeLookahead:
			// Lookaheads consume no input and propagate the left-call
			// relationship into their operand (spec.md §4.2(c)), but are
			// not themselves a left-call target.
			for _, alt := range it.Sub.Alts {
				collectLeftCalls(g, alt.Items, out)
			}
		case grammar.KindStringLit, grammar.KindTokenRef, grammar.KindCut:
			// Terminal or no-op: contributes no left-call of its own.
		default:
			log.Exitf("internal error: unhandled ItemKind %v in left-call analysis", it.Kind)
		}
		if !isNullableItem(g, it) {
			return
		}
	}
}

// isNullableItem reports whether it can match the empty input, using the
// rule-level Nullable flags already computed by computeNullability
// (which always runs before computeLeftRecursion in Validate).
func isNullableItem(g *grammar.Grammar, it *grammar.Item) bool {
	switch it.Kind {
	case grammar.KindStringLit, grammar.KindTokenRef:
		return false
	case grammar.KindRuleRef:
		rule, _ := g.Rule(it.Name)
		return rule.Nullable
	case grammar.KindOptional, grammar.KindZeroOrMore, grammar.KindPositiveLookahead, grammar.KindNegativeLookahead, grammar.KindCut:
		return true
	case grammar.KindOneOrMore, grammar.KindSeparated, grammar.KindGroup:
		for _, alt := range it.Sub.Alts {
			allNullable := true
			for _, ni := range alt.Items {
				if !isNullableItem(g, ni.Item) {
					allNullable = false
					break
				}
			}
			if allNullable {
				return true
			}
		}
		return false
	default:
		log.Exitf("internal error: unhandled ItemKind %v in left-call analysis", it.Kind)
		return false
	}
}

func contains(s []string, v string) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

func leastName(names []string) string {
	least := names[0]
	for _, n := range names[1:] {
		if n < least {
			least = n
		}
	}
	return least
}

// tarjanSCCs computes the strongly connected components of the directed
// graph given by edges, in the style of the teacher's own stack-based
// traversal idiom (NodeStack in parser/parser.go), using
// linkedliststack.Stack in place of a hand-rolled []*Node slice.
func tarjanSCCs(nodes []string, edges map[string][]string) [][]string {
	index := make(map[string]int)
	lowlink := make(map[string]int)
	onStack := make(map[string]bool)
	stack := linkedliststack.New()
	var sccs [][]string
	counter := 0

	var strongConnect func(v string)
	strongConnect = func(v string) {
		index[v] = counter
		lowlink[v] = counter
		counter++
		stack.Push(v)
		onStack[v] = true

		for _, w := range edges[v] {
			if _, seen := index[w]; !seen {
				strongConnect(w)
				if lowlink[w] < lowlink[v] {
					lowlink[v] = lowlink[w]
				}
			} else if onStack[w] {
				if index[w] < lowlink[v] {
					lowlink[v] = index[w]
				}
			}
		}

		if lowlink[v] == index[v] {
			var scc []string
			for {
				top, _ := stack.Pop()
				name := top.(string)
				onStack[name] = false
				scc = append(scc, name)
				if name == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for _, v := range nodes {
		if _, seen := index[v]; !seen {
			strongConnect(v)
		}
	}
	return sccs
}
