// Package lexer tokenizes source text into a stream of comment/block
// tokens with positional ranges. It knows nothing about any host
// language's grammar beyond where its comments start and end, and it
// is deliberately not a parser: no ASTs are built here.
package lexer

import (
	"strings"
	"unicode"

	"go.lsp.dev/protocol"

	"github.com/lexcodex/espxls/espxerr"
	"github.com/lexcodex/espxls/interact"
)

// Lex tokenizes src using the comment delimiters registered for ext,
// detecting interact codes in each comment body via reg.
func Lex(src, ext string, reg *interact.Registry) (*TokenVec, error) {
	delims, ok := Lookup(ext)
	if !ok {
		return nil, espxerr.ErrUnknownExtension
	}
	s := &scanner{
		src:    []rune(src),
		delims: delims,
		reg:    reg,
	}
	return s.run(), nil
}

type scanner struct {
	src    []rune
	delims Delims
	reg    *interact.Registry

	pos  int
	line uint32
	char uint32

	buf    strings.Builder
	tokens []Token
	comIdx []int
}

func (s *scanner) run() *TokenVec {
	for s.pos < len(s.src) {
		if s.tryComment() {
			continue
		}
		if s.tryBlankRun() {
			continue
		}
		s.appendToBuf()
	}
	s.flushBlock()
	s.tokens = append(s.tokens, Token{Kind: KindEnd})
	return &TokenVec{Tokens: s.tokens, CommentIndex: s.comIdx}
}

func (s *scanner) position() protocol.Position {
	return protocol.Position{Line: s.line, Character: s.char}
}

// advance consumes the rune at pos, updating line/character tracking.
// It does not append to any buffer; callers decide where the rune
// goes.
func (s *scanner) advance() rune {
	r := s.src[s.pos]
	s.pos++
	if r == '\n' {
		s.line++
		s.char = 0
	} else {
		s.char++
	}
	return r
}

func (s *scanner) appendToBuf() {
	r := s.advance()
	s.buf.WriteRune(r)
}

func (s *scanner) flushBlock() {
	if s.buf.Len() == 0 {
		return
	}
	s.tokens = append(s.tokens, Token{Kind: KindBlock, Text: s.buf.String()})
	s.buf.Reset()
}

// atBeginningOf reports whether the text at pos begins delim. A
// single-character delimiter matches unconditionally; a
// multi-character delimiter additionally requires whitespace (or end
// of input) immediately after it, so that a run like "//..." glued to
// non-space text is not taken for a comment start.
func (s *scanner) atBeginningOf(delim string) bool {
	pr := []rune(delim)
	if s.pos+len(pr) > len(s.src) {
		return false
	}
	for i, r := range pr {
		if s.src[s.pos+i] != r {
			return false
		}
	}
	if len(pr) == 1 {
		return true
	}
	if next := s.pos + len(pr); next < len(s.src) {
		return unicode.IsSpace(s.src[next])
	}
	return true
}

func (s *scanner) tryComment() bool {
	if s.delims.Multiline != nil && s.atBeginningOf(s.delims.Multiline.Start) {
		s.scanMultiline(*s.delims.Multiline)
		return true
	}
	if s.delims.Singleline != "" && s.atBeginningOf(s.delims.Singleline) {
		s.scanSingleline(s.delims.Singleline)
		return true
	}
	return false
}

func (s *scanner) scanSingleline(delim string) {
	s.flushBlock()
	s.emitDelim(delim)
	start := s.position()
	var body strings.Builder
	for s.pos < len(s.src) && s.src[s.pos] != '\n' {
		body.WriteRune(s.advance())
	}
	end := s.position()
	s.emitComment(body.String(), protocol.Range{Start: start, End: end})
}

func (s *scanner) scanMultiline(d MultilineDelim) {
	s.flushBlock()
	s.emitDelim(d.Start)
	start := s.position()
	var body strings.Builder
	for s.pos < len(s.src) && !s.atBeginningOf(d.End) {
		body.WriteRune(s.advance())
	}
	end := s.position()
	s.emitComment(body.String(), protocol.Range{Start: start, End: end})
	if s.pos < len(s.src) {
		s.emitDelim(d.End)
	}
}

func (s *scanner) emitDelim(text string) {
	for range []rune(text) {
		s.advance()
	}
	s.tokens = append(s.tokens, Token{Kind: KindCommentStr, Text: text})
}

func (s *scanner) emitComment(body string, rng protocol.Range) {
	s.comIdx = append(s.comIdx, len(s.tokens))
	s.tokens = append(s.tokens, Token{
		Kind: KindComment,
		Comment: ParsedComment{
			Interact: s.reg.TryGetInteract(body),
			Content:  body,
			Range:    rng,
		},
	})
}

// tryBlankRun implements the blank-line boundary rule: a newline
// immediately followed by another newline consumes the whole run and
// flushes everything accumulated so far (including the consumed
// newlines) as a single Block token, so downstream chunking sees a
// clean boundary at blank lines.
func (s *scanner) tryBlankRun() bool {
	if s.src[s.pos] != '\n' || s.pos+1 >= len(s.src) || s.src[s.pos+1] != '\n' {
		return false
	}
	for s.pos < len(s.src) && s.src[s.pos] == '\n' {
		s.buf.WriteRune(s.advance())
	}
	s.flushBlock()
	return true
}
