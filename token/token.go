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

// Package token defines the narrow contract between the PEG evaluator
// (package peg) and whatever tokenizer feeds it (component E of spec.md).
// The core only ever depends on this interface; it never depends on a
// specific tokenizer implementation. Package exampletoken provides one
// concrete implementation for testing.
package token

// Span carries opaque positional information through to semantic actions.
// The evaluator never interprets Span itself; it is round-tripped from
// Stream into action Bindings.
type Span struct {
	Start, End int
}

// EOFKind is the symbolic kind of the distinguished end-of-stream token
// returned once TokenAt runs past the last real token.
const EOFKind = "ENDMARKER"

// Token is one lexical unit: Kind is compared against TokenRef items, Text
// is compared against StringLit items, and Span is opaque positional data
// carried into actions.
type Token struct {
	Kind string
	Text string
	Span Span
}

// Stream is a random-access, non-destructive view over a token sequence.
// Positions are indices, not byte offsets; the same position may be
// queried many times as the evaluator backtracks and re-enters rules
// during seed growth, so implementations must be side-effect free.
type Stream interface {
	// TokenAt returns the token at the given position, and whether pos
	// names a real token. Once pos is past the last token, TokenAt
	// returns the EOF token (Kind == EOFKind) and ok == true: EOF is
	// itself a real, repeatable token, not an error condition. Only a
	// negative pos is invalid.
	TokenAt(pos int) (tok Token, ok bool)
}
