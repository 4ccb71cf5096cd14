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

package exampletoken

import (
	"testing"

	"github.com/salikh/pegleft/token"
)

func TestTokenizeNumbersAndNames(t *testing.T) {
	stream, err := Tokenize("1 + 2 + 3")
	if err != nil {
		t.Fatalf("Tokenize failed: %v", err)
	}
	want := []token.Token{
		{Kind: "NUMBER", Text: "1"},
		{Kind: "NAME", Text: "+"},
		{Kind: "NUMBER", Text: "2"},
		{Kind: "NAME", Text: "+"},
		{Kind: "NUMBER", Text: "3"},
	}
	var firstRead token.Token
	for i, w := range want {
		got, ok := stream.TokenAt(i)
		if !ok || got.Kind != w.Kind || got.Text != w.Text {
			t.Errorf("token %d = %+v, want kind=%q text=%q", i, got, w.Kind, w.Text)
		}
		if i == 0 {
			firstRead = got
		}
	}
	eof, ok := stream.TokenAt(len(want))
	if !ok || eof.Kind != token.EOFKind {
		t.Errorf("token past end = %+v, ok=%v, want EOF", eof, ok)
	}
	// Random access: revisiting an earlier position yields the same
	// token again without disturbing later positions (spec.md §4.4).
	again, _ := stream.TokenAt(0)
	if again != firstRead {
		t.Errorf("re-reading position 0 = %+v, want %+v", again, firstRead)
	}
}

func TestTokenizeIdentifiers(t *testing.T) {
	stream, err := Tokenize("foo_bar baz2")
	if err != nil {
		t.Fatalf("Tokenize failed: %v", err)
	}
	first, _ := stream.TokenAt(0)
	second, _ := stream.TokenAt(1)
	if first.Kind != "NAME" || first.Text != "foo_bar" {
		t.Errorf("first = %+v", first)
	}
	if second.Kind != "NAME" || second.Text != "baz2" {
		t.Errorf("second = %+v", second)
	}
}
