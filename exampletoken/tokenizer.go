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

// Package exampletoken is a reference token.Stream implementation built
// on github.com/timtadh/lexmachine, recognizing the NUMBER, NAME and
// ENDMARKER kinds used throughout spec.md §8's concrete scenarios. It
// exists so package peg can be exercised end-to-end in tests without
// depending on whatever real tokenizer a generated parser ships with
// (out of scope per §1) — the adapter shape (Lexer, Scanner, Action
// closures producing *lexmachine.Token) follows
// github.com/npillmayer/gorgo's lr/scanner/lexmach package.
package exampletoken

import (
	"fmt"

	log "github.com/golang/glog"
	"github.com/timtadh/lexmachine"
	"github.com/timtadh/lexmachine/machines"

	"github.com/salikh/pegleft/token"
)

const (
	tokNumber = iota
	tokName
)

var kindNames = map[int]string{
	tokNumber: "NUMBER",
	tokName:   "NAME",
}

func makeToken(id int) lexmachine.Action {
	return func(s *lexmachine.Scanner, m *machines.Match) (interface{}, error) {
		return s.Token(id, string(m.Bytes), m), nil
	}
}

func skip(s *lexmachine.Scanner, m *machines.Match) (interface{}, error) {
	return nil, nil
}

func newLexer() (*lexmachine.Lexer, error) {
	lx := lexmachine.NewLexer()
	lx.Add([]byte(`( |\t|\n|\r)+`), skip)
	lx.Add([]byte(`[0-9]+`), makeToken(tokNumber))
	lx.Add([]byte(`[A-Za-z_][A-Za-z0-9_]*`), makeToken(tokName))
	// Every other ASCII punctuation or symbol character scans through
	// as its own single-rune NAME token, so StringLit items like '+'
	// or '(' can still be matched by text without a dedicated literal
	// rule per operator (spec.md §4.4 only requires Token.Text to
	// compare against StringLit, not a distinct Kind per punctuation).
	lx.Add([]byte(`.`), makeToken(tokName))
	if err := lx.Compile(); err != nil {
		return nil, fmt.Errorf("compiling lexmachine DFA: %w", err)
	}
	return lx, nil
}

// Tokenize scans the full input up front into a Stream, since
// token.Stream requires non-destructive random access (spec.md §4.4)
// that a live lexmachine.Scanner, which only moves forward, cannot
// itself provide.
func Tokenize(input string) (token.Stream, error) {
	lx, err := newLexer()
	if err != nil {
		return nil, err
	}
	scanner, err := lx.Scanner([]byte(input))
	if err != nil {
		return nil, fmt.Errorf("creating scanner: %w", err)
	}
	var toks []token.Token
	for {
		tok, err, eof := scanner.Next()
		if err != nil {
			if ui, ok := err.(*machines.UnconsumedInput); ok {
				log.V(1).Infof("exampletoken: skipping unconsumed input at %d", ui.StartLine)
				scanner.TC = ui.FailTC
				continue
			}
			return nil, fmt.Errorf("scanning: %w", err)
		}
		if eof {
			break
		}
		lmTok, ok := tok.(*lexmachine.Token)
		if !ok {
			log.Exitf("internal error: lexmachine scanner returned a non-Token value %T", tok)
		}
		if lmTok == nil {
			// A Skip action (whitespace).
			continue
		}
		toks = append(toks, token.Token{
			Kind: kindNames[lmTok.Type.(int)],
			Text: string(lmTok.Lexeme),
			Span: token.Span{Start: lmTok.StartColumn, End: lmTok.EndColumn},
		})
	}
	return &Stream{toks: toks}, nil
}

// Stream is the concrete token.Stream this package produces: a fixed
// slice with positions past the end mapping to a repeated EOF token.
type Stream struct {
	toks []token.Token
}

func (s *Stream) TokenAt(pos int) (token.Token, bool) {
	if pos < 0 {
		return token.Token{}, false
	}
	if pos >= len(s.toks) {
		return token.Token{Kind: token.EOFKind}, true
	}
	return s.toks[pos], true
}
