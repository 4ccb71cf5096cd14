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

// Package grammar holds the typed, immutable-after-analysis tree that is
// shared between the meta-grammar parser, the analyzer, and the PEG
// evaluator: Grammar, Rule, Rhs, Alt, NamedItem and Item.
//
// The collection of rules preserves insertion order (required so that code
// generation downstream is deterministic); it is backed by a
// linkedhashmap.Map rather than a plain map plus a parallel slice of names,
// the way github.com/npillmayer/gorgo reaches for ordered maps elsewhere in
// the pack.
package grammar

import (
	"fmt"
	"strings"

	"github.com/emirpasic/gods/maps/linkedhashmap"
)

// Grammar is an ordered collection of Rules indexed by unique name, plus
// optional metadata directives. Insertion order is preserved to drive
// deterministic code emission.
type Grammar struct {
	// Source is the verbatim grammar source text, kept for error reporting
	// and for the round-trip property (spec.md §8).
	Source string

	rules      *linkedhashmap.Map
	directives map[string]string
}

// New creates an empty Grammar over the given source text.
func New(source string) *Grammar {
	return &Grammar{
		Source:     source,
		rules:      linkedhashmap.New(),
		directives: make(map[string]string),
	}
}

// AddRule inserts a rule, preserving insertion order. It returns a
// DuplicateRuleName error if a rule of the same name is already present.
func (g *Grammar) AddRule(r *Rule) error {
	if _, ok := g.rules.Get(r.Name); ok {
		return NewError(ErrDuplicateRuleName, r.Name, -1, fmt.Sprintf("rule %q is defined more than once", r.Name))
	}
	g.rules.Put(r.Name, r)
	return nil
}

// Rule looks up a rule by name.
func (g *Grammar) Rule(name string) (*Rule, bool) {
	v, ok := g.rules.Get(name)
	if !ok {
		return nil, false
	}
	return v.(*Rule), true
}

// RuleNames returns the rule names in their original definition order.
func (g *Grammar) RuleNames() []string {
	keys := g.rules.Keys()
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = k.(string)
	}
	return names
}

// Rules returns the rules in their original definition order.
func (g *Grammar) Rules() []*Rule {
	names := g.RuleNames()
	rules := make([]*Rule, len(names))
	for i, name := range names {
		rule, _ := g.Rule(name)
		rules[i] = rule
	}
	return rules
}

// NumRules returns the number of rules defined in the grammar.
func (g *Grammar) NumRules() int {
	return g.rules.Size()
}

// SetDirective records a metadirective (e.g. `@start "expr"`).
func (g *Grammar) SetDirective(key, value string) {
	g.directives[key] = value
}

// Directive returns a metadirective value, if present.
func (g *Grammar) Directive(key string) (string, bool) {
	v, ok := g.directives[key]
	return v, ok
}

// StartRuleName resolves the entry rule: the grammar must either have
// a "start" metadirective, or a rule literally named "start". It is an
// error for neither or for the metadirective to reference an undefined
// rule (spec.md §3 invariant 2).
func (g *Grammar) StartRuleName() (string, error) {
	if name, ok := g.Directive("start"); ok {
		if _, ok := g.Rule(name); !ok {
			return "", NewError(ErrUndefinedRule, name, -1,
				fmt.Sprintf("@start names undefined rule %q", name))
		}
		return name, nil
	}
	if _, ok := g.Rule("start"); ok {
		return "start", nil
	}
	return "", NewError(ErrNoStartRule, "", -1,
		"grammar has no @start directive and no rule named \"start\"")
}

// Rule represents one grammar rule: name, optional host-language return
// type (opaque, carried verbatim), right-hand side, and the flags computed
// by the analyzer.
type Rule struct {
	Name       string
	ReturnType string // opaque to the core; "" if absent
	Rhs        *Rhs

	// Flags, set only by the analyzer (package analyze); zero until then.
	Leader        bool // head of a left-recursion cycle; installs seed-growing
	LeftRecursive bool // participates in some left-recursion cycle
	Nullable      bool // can match the empty input
	Memoize       bool // memoization required; always true for leaders
}

// Rhs is an ordered, non-empty sequence of alternatives.
type Rhs struct {
	Alts []*Alt
}

// Alt is one alternative: an ordered, non-empty sequence of named items,
// an optional action, and the index of a cut operator if present.
type Alt struct {
	Items []*NamedItem
	// Action is the opaque host-language action expression. HasAction
	// distinguishes an explicitly empty action body ("{}") from an absent
	// one, for which spec.md §4.2 synthesizes a default action.
	Action    string
	HasAction bool
	// CutIndex is the position of a Cut item within Items, or -1 if none.
	CutIndex int
}

// NamedItem optionally binds an item's value into the action's scope.
type NamedItem struct {
	Bind string // "" if unbound
	Item *Item
}

// ItemKind discriminates the tagged variants of Item. The set is closed:
// the constants below are the only variants. Go does not check switches
// for exhaustiveness, so an unrecognized variant is not a compile-time
// error; the switches over Kind in analyze and peg end in a default case
// that stops the program (log.Exitf) when one is met at run time.
type ItemKind int

const (
	KindRuleRef ItemKind = iota
	KindTokenRef
	KindStringLit
	KindGroup
	KindOptional
	KindZeroOrMore
	KindOneOrMore
	KindSeparated
	KindPositiveLookahead
	KindNegativeLookahead
	KindCut
)

func (k ItemKind) String() string {
	switch k {
	case KindRuleRef:
		return "RuleRef"
	case KindTokenRef:
		return "TokenRef"
	case KindStringLit:
		return "StringLit"
	case KindGroup:
		return "Group"
	case KindOptional:
		return "Optional"
	case KindZeroOrMore:
		return "ZeroOrMore"
	case KindOneOrMore:
		return "OneOrMore"
	case KindSeparated:
		return "Separated"
	case KindPositiveLookahead:
		return "PositiveLookahead"
	case KindNegativeLookahead:
		return "NegativeLookahead"
	case KindCut:
		return "Cut"
	default:
		return fmt.Sprintf("ItemKind(%d)", int(k))
	}
}

// Item is the tagged variant described in spec.md §3. Only the field(s)
// relevant to Kind are meaningful; this mirrors the teacher's Term struct
// in parser2/parser2.go, generalized with an explicit discriminator so
// that a StringLit("") is not mistaken for an unset field.
type Item struct {
	Kind ItemKind
	// Name holds the RuleRef rule name or the TokenRef token kind.
	Name string
	// Text holds the StringLit text.
	Text string
	// Sub holds the operand of Group, Optional, ZeroOrMore, OneOrMore,
	// PositiveLookahead and NegativeLookahead.
	Sub *Rhs
	// Sep holds the separator sub-expression of Separated; Sub holds the
	// repeated element.
	Sep *Rhs
}

func RuleRef(name string) *Item      { return &Item{Kind: KindRuleRef, Name: name} }
func TokenRef(kind string) *Item     { return &Item{Kind: KindTokenRef, Name: kind} }
func StringLit(text string) *Item    { return &Item{Kind: KindStringLit, Text: text} }
func Group(rhs *Rhs) *Item           { return &Item{Kind: KindGroup, Sub: rhs} }
func Optional(rhs *Rhs) *Item        { return &Item{Kind: KindOptional, Sub: rhs} }
func ZeroOrMore(rhs *Rhs) *Item      { return &Item{Kind: KindZeroOrMore, Sub: rhs} }
func OneOrMore(rhs *Rhs) *Item       { return &Item{Kind: KindOneOrMore, Sub: rhs} }
func Separated(sep, rhs *Rhs) *Item  { return &Item{Kind: KindSeparated, Sep: sep, Sub: rhs} }
func PositiveLookahead(rhs *Rhs) *Item {
	return &Item{Kind: KindPositiveLookahead, Sub: rhs}
}
func NegativeLookahead(rhs *Rhs) *Item {
	return &Item{Kind: KindNegativeLookahead, Sub: rhs}
}
func CutItem() *Item { return &Item{Kind: KindCut} }

// String renders a debug form, in the spirit of parser2.Term.String.
func (it *Item) String() string {
	if it == nil {
		return "(nil)"
	}
	switch it.Kind {
	case KindRuleRef:
		return it.Name
	case KindTokenRef:
		return it.Name
	case KindStringLit:
		return fmt.Sprintf("%q", it.Text)
	case KindGroup:
		return "(" + it.Sub.String() + ")"
	case KindOptional:
		return "[" + it.Sub.String() + "]?"
	case KindZeroOrMore:
		return "(" + it.Sub.String() + ")*"
	case KindOneOrMore:
		return "(" + it.Sub.String() + ")+"
	case KindSeparated:
		return "(" + it.Sub.String() + ")." + it.Sep.String() + "+"
	case KindPositiveLookahead:
		return "&(" + it.Sub.String() + ")"
	case KindNegativeLookahead:
		return "!(" + it.Sub.String() + ")"
	case KindCut:
		return "~"
	default:
		return "<invalid item>"
	}
}

func (ni *NamedItem) String() string {
	if ni.Bind == "" {
		return ni.Item.String()
	}
	return ni.Bind + "=" + ni.Item.String()
}

func (a *Alt) String() string {
	parts := make([]string, len(a.Items))
	for i, it := range a.Items {
		parts[i] = it.String()
	}
	s := strings.Join(parts, " ")
	if a.HasAction {
		s += " { " + a.Action + " }"
	}
	return s
}

func (r *Rhs) String() string {
	if r == nil {
		return ""
	}
	parts := make([]string, len(r.Alts))
	for i, alt := range r.Alts {
		parts[i] = alt.String()
	}
	return strings.Join(parts, " | ")
}

func (rule *Rule) String() string {
	flags := []string{}
	if rule.Leader {
		flags = append(flags, "leader")
	}
	if rule.LeftRecursive {
		flags = append(flags, "left_recursive")
	}
	if rule.Nullable {
		flags = append(flags, "nullable")
	}
	if rule.Memoize {
		flags = append(flags, "memoize")
	}
	ty := ""
	if rule.ReturnType != "" {
		ty = "[" + rule.ReturnType + "]"
	}
	flagStr := ""
	if len(flags) > 0 {
		flagStr = " :" + strings.Join(flags, ",")
	}
	return fmt.Sprintf("%s%s: %s%s", rule.Name, ty, rule.Rhs.String(), flagStr)
}

func (g *Grammar) String() string {
	var b strings.Builder
	for _, name := range g.RuleNames() {
		rule, _ := g.Rule(name)
		b.WriteString(rule.String())
		b.WriteString("\n")
	}
	return b.String()
}
