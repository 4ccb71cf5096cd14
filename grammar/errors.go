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

import "strings"

// ErrKind enumerates the grammar-time error populations of spec.md §7.
// Parse-time failures (Fail/SyntaxError) are a distinct, unrelated
// population defined in package peg.
type ErrKind string

const (
	ErrLex                   ErrKind = "LexError"
	ErrParse                 ErrKind = "ParseError"
	ErrUndefinedRule         ErrKind = "UndefinedRule"
	ErrDuplicateRuleName     ErrKind = "DuplicateRuleName"
	ErrDuplicateBindingInAlt ErrKind = "DuplicateBindingInAlt"
	ErrCutAtAlternativeStart ErrKind = "CutAtAlternativeStart"
	ErrNoStartRule           ErrKind = "NoStartRule"
	ErrMalformedAction       ErrKind = "MalformedAction"
)

// Error is a single grammar-time error, carrying enough context (the rule
// it was found in, and a source offset when known) to report a useful
// location to the user.
type Error struct {
	Kind    ErrKind
	Rule    string
	Pos     int // byte offset into Grammar.Source, or -1 if not applicable
	Message string
}

func NewError(kind ErrKind, rule string, pos int, message string) *Error {
	return &Error{Kind: kind, Rule: rule, Pos: pos, Message: message}
}

func (e *Error) Error() string {
	if e.Rule != "" {
		return string(e.Kind) + " in rule " + e.Rule + ": " + e.Message
	}
	return string(e.Kind) + ": " + e.Message
}

// Errors aggregates multiple grammar-time errors. Propagation policy
// (spec.md §7) requires the analyzer to collect every UndefinedRule (and,
// here, every other grammar-time error kind) found in one pass before
// halting, rather than stopping at the first.
type Errors []*Error

func (es Errors) Error() string {
	parts := make([]string, len(es))
	for i, e := range es {
		parts[i] = e.Error()
	}
	return strings.Join(parts, "\n")
}

// AsErrors unwraps an error produced by this package back into its
// aggregate form, if it has one. A single *Error is returned as a
// one-element Errors.
func AsErrors(err error) Errors {
	if err == nil {
		return nil
	}
	switch e := err.(type) {
	case Errors:
		return e
	case *Error:
		return Errors{e}
	default:
		return Errors{{Kind: ErrParse, Message: err.Error(), Pos: -1}}
	}
}
