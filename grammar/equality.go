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

	"github.com/cnf/structhash"
)

// flatRule is a plain, hashable projection of Rule: structhash walks
// exported fields via reflection, and Grammar itself holds its rules in a
// linkedhashmap.Map, which does not have a stable field layout to hash.
type flatRule struct {
	Name          string
	ReturnType    string
	Rhs           *Rhs
	Leader        bool
	LeftRecursive bool
	Nullable      bool
	Memoize       bool
}

func (g *Grammar) flatten() []flatRule {
	names := g.RuleNames()
	flat := make([]flatRule, len(names))
	for i, name := range names {
		r, _ := g.Rule(name)
		flat[i] = flatRule{
			Name:          r.Name,
			ReturnType:    r.ReturnType,
			Rhs:           r.Rhs,
			Leader:        r.Leader,
			LeftRecursive: r.LeftRecursive,
			Nullable:      r.Nullable,
			Memoize:       r.Memoize,
		}
	}
	return flat
}

// StructuralHash computes a content hash of the grammar's rule order,
// right-hand sides and analyzer flags, ignoring Source text and
// metadirectives. Two grammars with the same StructuralHash have the same
// rules in the sense of spec.md §4.1 ("equal trees denote equal grammars"), which is exactly
// what the round-trip property (spec.md §8) needs to check: pretty-print,
// re-parse, and compare hashes instead of hand-rolling a deep-equal walk.
func (g *Grammar) StructuralHash() (string, error) {
	hash, err := structhash.Hash(g.flatten(), 1)
	if err != nil {
		return "", fmt.Errorf("hashing grammar: %w", err)
	}
	return hash, nil
}

// StructurallyEqual reports whether two grammars have identical rule
// structure and flags.
func StructurallyEqual(a, b *Grammar) (bool, error) {
	ha, err := a.StructuralHash()
	if err != nil {
		return false, err
	}
	hb, err := b.StructuralHash()
	if err != nil {
		return false, err
	}
	return ha == hb, nil
}
