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

package grammar

import (
	"fmt"
	"sort"
	"strings"
)

// Render is the trivial pretty-printer referenced by the round-trip
// property in spec.md §8: it does not preserve whitespace, comment
// placement or "|"-prefix formatting. It writes the operand of every
// optional, repetition, separated-repetition and lookahead item in
// parentheses, so re-parsing its output wraps each such operand in an
// extra Group item: the result denotes the same language, but is
// structurally identical to the original only for grammars that contain
// none of those items.
func Render(g *Grammar) string {
	var b strings.Builder
	for _, key := range sortedDirectives(g.directives) {
		b.WriteString(fmt.Sprintf("@%s %q\n", key, g.directives[key]))
	}
	for _, name := range g.RuleNames() {
		rule, _ := g.Rule(name)
		b.WriteString(renderRule(rule))
		b.WriteString("\n")
	}
	return b.String()
}

// sortedDirectives returns the directive keys in sorted order, so that
// Render's output does not depend on map iteration order.
func sortedDirectives(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func renderRule(r *Rule) string {
	var b strings.Builder
	b.WriteString(r.Name)
	if r.ReturnType != "" {
		b.WriteString("[" + r.ReturnType + "]")
	}
	b.WriteString(": ")
	for i, alt := range r.Rhs.Alts {
		if i > 0 {
			b.WriteString("\n  | ")
		}
		b.WriteString(renderAlt(alt))
	}
	return b.String()
}

func renderAlt(a *Alt) string {
	parts := make([]string, len(a.Items))
	for i, ni := range a.Items {
		parts[i] = renderNamedItem(ni)
	}
	s := strings.Join(parts, " ")
	if a.HasAction {
		s += " { " + a.Action + " }"
	}
	return s
}

func renderNamedItem(ni *NamedItem) string {
	s := renderItem(ni.Item)
	if ni.Bind != "" {
		return ni.Bind + "=" + s
	}
	return s
}

func renderItem(it *Item) string {
	switch it.Kind {
	case KindRuleRef, KindTokenRef:
		return it.Name
	case KindStringLit:
		return fmt.Sprintf("%q", it.Text)
	case KindGroup:
		return "(" + renderRhs(it.Sub) + ")"
	case KindOptional:
		return "(" + renderRhs(it.Sub) + ")?"
	case KindZeroOrMore:
		return "(" + renderRhs(it.Sub) + ")*"
	case KindOneOrMore:
		return "(" + renderRhs(it.Sub) + ")+"
	case KindSeparated:
		return "(" + renderRhs(it.Sep) + ").(" + renderRhs(it.Sub) + ")+"
	case KindPositiveLookahead:
		return "&(" + renderRhs(it.Sub) + ")"
	case KindNegativeLookahead:
		return "!(" + renderRhs(it.Sub) + ")"
	case KindCut:
		return "~"
	default:
		return "?"
	}
}

func renderRhs(r *Rhs) string {
	parts := make([]string, len(r.Alts))
	for i, alt := range r.Alts {
		parts[i] = renderAlt(alt)
	}
	return strings.Join(parts, " | ")
}
