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
	"sort"
	"strings"

	"github.com/dekarrin/rosed"
)

// SyntaxError is the single outward-visible parse-time failure (spec.md
// §7): it carries the furthest position reached by any attempted item
// during the parse and, where known, the set of things that were
// expected there — the traditional PEG error-reporting heuristic.
// Internal Fail is pure control flow within package peg and never
// escapes as a SyntaxError or any other error.
type SyntaxError struct {
	Pos      int
	Expected []string
}

func (e *SyntaxError) Error() string {
	sort.Strings(e.Expected)
	var msg string
	if len(e.Expected) == 0 {
		msg = fmt.Sprintf("syntax error at token position %d", e.Pos)
	} else {
		msg = fmt.Sprintf("syntax error at token position %d: expected one of %s",
			e.Pos, strings.Join(e.Expected, ", "))
	}
	return rosed.Edit(msg).Wrap(100).String()
}

type furthestReach struct {
	pos      int
	expected map[string]bool
}

func newFurthestReach() *furthestReach {
	return &furthestReach{pos: -1, expected: make(map[string]bool)}
}

func (f *furthestReach) record(pos int, expected string) {
	if pos > f.pos {
		f.pos = pos
		f.expected = map[string]bool{expected: true}
		return
	}
	if pos == f.pos {
		f.expected[expected] = true
	}
}

func (f *furthestReach) toError() *SyntaxError {
	pos := f.pos
	if pos < 0 {
		pos = 0
	}
	expected := make([]string, 0, len(f.expected))
	for e := range f.expected {
		expected = append(expected, e)
	}
	return &SyntaxError{Pos: pos, Expected: expected}
}
