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

// Package metaparser is the bootstrap recognizer for grammar source text
// (spec.md §4.5, §6): a hand-written recursive-descent parser, in the
// style of parser.New/parser.createRule from the teacher's bootstrap
// compiler, that builds a grammar.Grammar value directly rather than an
// intermediate parse tree — the teacher's own bootstrap grammar compiler
// (parser/parser.go) takes the same shortcut, compiling grammar source
// straight into rule handlers without a CST stage. Once a Grammar value
// for the meta-grammar itself exists, later parses of grammar source can
// be done by running that Grammar through package peg instead (§4.5's
// self-hosting property); this package is what produces that first
// Grammar value.
package metaparser

import (
	"fmt"

	log "github.com/golang/glog"

	"github.com/salikh/pegleft/grammar"
	"github.com/salikh/pegleft/lexer"
)

// Parse reads grammar source text and returns the Grammar model it
// describes, or an aggregate of every LexError, ParseError,
// DuplicateRuleName, DuplicateBindingInAlt and CutAtAlternativeStart
// found. A malformed action body (unbalanced braces or an unterminated
// quote) is reported as a LexError or ParseError carrying the lexer's
// message; Parse never produces the MalformedAction kind.
func Parse(source string) (*grammar.Grammar, error) {
	p := &parser{lx: lexer.New(source), g: grammar.New(source)}
	p.run()
	if len(p.errs) > 0 {
		return nil, p.errs
	}
	return p.g, nil
}

type parser struct {
	lx   *lexer.Lexer
	g    *grammar.Grammar
	errs grammar.Errors
}

func (p *parser) errorf(kind grammar.ErrKind, rule string, pos int, format string, args ...interface{}) {
	p.errs = append(p.errs, grammar.NewError(kind, rule, pos, fmt.Sprintf(format, args...)))
}

func (p *parser) run() {
	for {
		tok, err := p.lx.Peek()
		if err != nil {
			p.errorf(grammar.ErrLex, "", 0, "%s", err.Error())
			return
		}
		switch tok.Kind {
		case lexer.EOF:
			return
		case lexer.At:
			p.parseMetadirective()
		case lexer.Name:
			p.parseRule()
		default:
			p.errorf(grammar.ErrParse, "", tok.Pos, "unexpected token %v at top level", tok.Kind)
			p.lx.Next()
		}
		if len(p.errs) > 50 {
			// Runaway error count: the lexer is almost certainly out of
			// sync with the grammar. Stop aggregating and bail out.
			return
		}
	}
}

func (p *parser) expect(kind lexer.Kind) (lexer.Token, error) {
	tok, err := p.lx.Next()
	if err != nil {
		return tok, err
	}
	if tok.Kind != kind {
		return tok, fmt.Errorf("at offset %d: expected %v, got %v %q", tok.Pos, kind, tok.Kind, tok.Text)
	}
	return tok, nil
}

func (p *parser) parseMetadirective() {
	atTok, _ := p.lx.Next() // '@'
	name, err := p.expect(lexer.Name)
	if err != nil {
		p.errorf(grammar.ErrParse, "", atTok.Pos, "%s", err.Error())
		return
	}
	val, err := p.expect(lexer.String)
	if err != nil {
		p.errorf(grammar.ErrParse, "", atTok.Pos, "%s", err.Error())
		return
	}
	p.g.SetDirective(name.Text, val.Text)
}

func (p *parser) parseRule() {
	name, _ := p.lx.Next()
	returnType := ""
	if tok, _ := p.lx.Peek(); tok.Kind == lexer.LBracket {
		p.lx.Next()
		typTok, err := p.expect(lexer.Name)
		if err != nil {
			p.errorf(grammar.ErrParse, name.Text, name.Pos, "%s", err.Error())
			return
		}
		returnType = typTok.Text
		if _, err := p.expect(lexer.RBracket); err != nil {
			p.errorf(grammar.ErrParse, name.Text, name.Pos, "%s", err.Error())
			return
		}
	}
	if _, err := p.expect(lexer.Colon); err != nil {
		p.errorf(grammar.ErrParse, name.Text, name.Pos, "%s", err.Error())
		return
	}
	rhs, err := p.parseRhs(name.Text)
	if err != nil {
		p.errorf(grammar.ErrParse, name.Text, name.Pos, "%s", err.Error())
		return
	}
	rule := &grammar.Rule{Name: name.Text, ReturnType: returnType, Rhs: rhs}
	if err := p.g.AddRule(rule); err != nil {
		p.errs = append(p.errs, grammar.AsErrors(err)...)
	}
}

// parseRhs parses rhs := '|'? alt ('|' alt)*, stopping when the next
// token cannot start another alternative: EOF, '@', or a new rule
// definition (Name at column 0 immediately followed by '[' or ':').
func (p *parser) parseRhs(ruleName string) (*grammar.Rhs, error) {
	if tok, _ := p.lx.Peek(); tok.Kind == lexer.Pipe {
		p.lx.Next()
	}
	var alts []*grammar.Alt
	for {
		alt, err := p.parseAlt(ruleName)
		if err != nil {
			return nil, err
		}
		alts = append(alts, alt)
		tok, err := p.lx.Peek()
		if err != nil {
			return nil, err
		}
		if tok.Kind != lexer.Pipe {
			break
		}
		p.lx.Next()
	}
	return &grammar.Rhs{Alts: alts}, nil
}

// atRuleOrFileEnd reports whether the next token is EOF or a '@'
// metadirective, points at which an alt sequence must stop even without
// an explicit terminator, since newlines do not terminate rules. The
// start of a new rule header is detected separately by
// looksLikeRuleHeader.
func (p *parser) atRuleOrFileEnd() (bool, error) {
	tok, err := p.lx.Peek()
	if err != nil {
		return false, err
	}
	if tok.Kind == lexer.EOF || tok.Kind == lexer.At {
		return true, nil
	}
	return false, nil
}

func (p *parser) parseAlt(ruleName string) (*grammar.Alt, error) {
	var items []*grammar.NamedItem
	cutIndex := -1
	for {
		stop, err := p.atRuleOrFileEnd()
		if err != nil {
			return nil, err
		}
		if stop {
			break
		}
		tok, err := p.lx.Peek()
		if err != nil {
			return nil, err
		}
		if tok.Kind == lexer.Pipe || tok.Kind == lexer.Action || tok.Kind == lexer.RParen || tok.Kind == lexer.RBracket {
			break
		}
		if tok.Kind == lexer.Name {
			// Could be the start of the next top-level rule
			// (NAME ':' or NAME '['), which is not part of this alt.
			if p.looksLikeRuleHeader() {
				break
			}
		}
		ni, err := p.parseNamedItem(ruleName)
		if err != nil {
			return nil, err
		}
		if ni.Item.Kind == grammar.KindCut {
			if len(items) == 0 {
				p.errorf(grammar.ErrCutAtAlternativeStart, ruleName, tok.Pos,
					"cut '~' may not appear as the first item of an alternative")
			} else if cutIndex == -1 {
				cutIndex = len(items)
			}
		}
		items = append(items, ni)
	}
	if len(items) == 0 {
		tok, _ := p.lx.Peek()
		return nil, fmt.Errorf("at offset %d: empty alternative in rule %s", tok.Pos, ruleName)
	}
	alt := &grammar.Alt{Items: items, CutIndex: cutIndex}
	if tok, _ := p.lx.Peek(); tok.Kind == lexer.Action {
		actionTok, _ := p.lx.Next()
		alt.Action = actionTok.Text
		alt.HasAction = true
	}
	seen := make(map[string]bool)
	for _, ni := range items {
		if ni.Bind == "" {
			continue
		}
		if seen[ni.Bind] {
			p.errorf(grammar.ErrDuplicateBindingInAlt, ruleName, -1,
				fmt.Sprintf("binding name %q used more than once in one alternative", ni.Bind))
		}
		seen[ni.Bind] = true
	}
	return alt, nil
}

// looksLikeRuleHeader reports whether the current NAME starts at column
// 0 and is followed by ':' or '[', which together mark a rule header
// rather than an item reference (a NAME followed by an optional '[...]'
// inside an alternative is not at column 0).
func (p *parser) looksLikeRuleHeader() bool {
	cur, err := p.lx.Peek()
	if err != nil || cur.Col != 0 {
		return false
	}
	next, err := p.lx.PeekAt(1)
	if err != nil {
		return false
	}
	return next.Kind == lexer.Colon || next.Kind == lexer.LBracket
}

func (p *parser) parseNamedItem(ruleName string) (*grammar.NamedItem, error) {
	bind := ""
	if tok, _ := p.lx.Peek(); tok.Kind == lexer.Name && p.looksLikeBinding() {
		nameTok, _ := p.lx.Next()
		p.lx.Next() // '='
		bind = nameTok.Text
	}
	item, err := p.parseItem(ruleName)
	if err != nil {
		return nil, err
	}
	return &grammar.NamedItem{Bind: bind, Item: item}, nil
}

func (p *parser) looksLikeBinding() bool {
	next, err := p.lx.PeekAt(1)
	if err != nil {
		return false
	}
	return next.Kind == lexer.Equals
}

// parseItem parses item := atom suffix?
func (p *parser) parseItem(ruleName string) (*grammar.Item, error) {
	atom, err := p.parseAtom(ruleName)
	if err != nil {
		return nil, err
	}
	tok, err := p.lx.Peek()
	if err != nil {
		return nil, err
	}
	switch tok.Kind {
	case lexer.Question:
		p.lx.Next()
		return grammar.Optional(wrap(atom)), nil
	case lexer.Star:
		p.lx.Next()
		return grammar.ZeroOrMore(wrap(atom)), nil
	case lexer.Plus:
		p.lx.Next()
		return grammar.OneOrMore(wrap(atom)), nil
	case lexer.Dot:
		// atom '.' elem '+': atom (already parsed) is the separator,
		// elem is the repeated element (spec.md §6 suffix production).
		p.lx.Next()
		elem, err := p.parseAtom(ruleName)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.Plus); err != nil {
			return nil, err
		}
		return grammar.Separated(wrap(atom), wrap(elem)), nil
	default:
		return atom, nil
	}
}

// wrap lifts a bare Item into a single-alternative, single-item Rhs, the
// form Sub/Sep slots expect.
func wrap(it *grammar.Item) *grammar.Rhs {
	return &grammar.Rhs{Alts: []*grammar.Alt{{Items: []*grammar.NamedItem{{Item: it}}, CutIndex: -1}}}
}

// parseAtom parses atom := NAME | STRING | '(' rhs ')' | '[' rhs ']' |
// '&' atom | '!' atom | '~'
func (p *parser) parseAtom(ruleName string) (*grammar.Item, error) {
	tok, err := p.lx.Next()
	if err != nil {
		return nil, err
	}
	switch tok.Kind {
	case lexer.Name:
		if isTokenKindName(tok.Text) {
			return grammar.TokenRef(tok.Text), nil
		}
		return grammar.RuleRef(tok.Text), nil
	case lexer.String:
		return grammar.StringLit(tok.Text), nil
	case lexer.LParen:
		rhs, err := p.parseRhs(ruleName)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.RParen); err != nil {
			return nil, err
		}
		return grammar.Group(rhs), nil
	case lexer.LBracket:
		rhs, err := p.parseRhs(ruleName)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.RBracket); err != nil {
			return nil, err
		}
		return grammar.Optional(rhs), nil
	case lexer.Amp:
		inner, err := p.parseAtom(ruleName)
		if err != nil {
			return nil, err
		}
		return grammar.PositiveLookahead(wrap(inner)), nil
	case lexer.Bang:
		inner, err := p.parseAtom(ruleName)
		if err != nil {
			return nil, err
		}
		return grammar.NegativeLookahead(wrap(inner)), nil
	case lexer.Tilde:
		return grammar.CutItem(), nil
	default:
		log.V(1).Infof("unexpected atom token %v %q at offset %d", tok.Kind, tok.Text, tok.Pos)
		return nil, fmt.Errorf("at offset %d: expected an item, got %v", tok.Pos, tok.Kind)
	}
}

// isTokenKindName applies the meta-grammar's own convention (seen
// throughout spec.md §8's scenarios): a bare, all-uppercase identifier
// names a lexical token kind, anything else names a rule.
func isTokenKindName(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		if r >= 'a' && r <= 'z' {
			return false
		}
	}
	return true
}
