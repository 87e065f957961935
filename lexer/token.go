package lexer

import "go.lsp.dev/protocol"

// Kind enumerates the token sum type: CommentStr, Comment, Block,
// End.
type Kind int

const (
	KindCommentStr Kind = iota
	KindComment
	KindBlock
	KindEnd
)

func (k Kind) String() string {
	switch k {
	case KindCommentStr:
		return "CommentStr"
	case KindComment:
		return "Comment"
	case KindBlock:
		return "Block"
	case KindEnd:
		return "End"
	default:
		return "Unknown"
	}
}

// ParsedComment is the payload of a Comment token. Interact is nil when
// the comment body doesn't start with a recognized command+scope pair.
// Range covers the comment body only, excluding delimiter characters.
type ParsedComment struct {
	Interact *uint8
	Content  string
	Range    protocol.Range
}

// Token is the sum type produced by the lexer. Text carries the literal
// delimiter text for KindCommentStr and the literal span for KindBlock;
// it is unused for KindComment (see Comment) and KindEnd.
type Token struct {
	Kind    Kind
	Text    string
	Comment ParsedComment
}

// TokenVec is an ordered token stream plus a sorted index of every
// Comment token's position within Tokens, so higher layers don't have
// to rescan for interact codes.
type TokenVec struct {
	Tokens       []Token
	CommentIndex []int
}

// Comments returns the ParsedComment payload of every Comment token, in
// source order.
func (v *TokenVec) Comments() []ParsedComment {
	out := make([]ParsedComment, 0, len(v.CommentIndex))
	for _, idx := range v.CommentIndex {
		out = append(out, v.Tokens[idx].Comment)
	}
	return out
}

// Projection reproduces the exact source text the TokenVec was lexed
// from: CommentStr emits its delimiter text, Comment emits its content,
// Block emits its span, and End emits nothing. Used by the lexer's
// round-trip test property.
func (v *TokenVec) Projection() string {
	var out []byte
	for _, tok := range v.Tokens {
		switch tok.Kind {
		case KindCommentStr, KindBlock:
			out = append(out, tok.Text...)
		case KindComment:
			out = append(out, tok.Comment.Content...)
		case KindEnd:
		}
	}
	return string(out)
}

// BlockText concatenates every Block token's text in order, the
// input to the persistence layer's 25-line chunking.
func (v *TokenVec) BlockText() string {
	var out []byte
	for _, tok := range v.Tokens {
		if tok.Kind == KindBlock {
			out = append(out, tok.Text...)
		}
	}
	return string(out)
}
