package lspserver

import (
	"go.lsp.dev/protocol"

	"github.com/lexcodex/espxls/lexer"
)

// commentAtPosition finds the Comment token whose range contains
// pos, the cursor lookup both Hover and the interact-code "activate"
// affordance need.
func commentAtPosition(tv *lexer.TokenVec, pos protocol.Position) (lexer.ParsedComment, bool) {
	for _, c := range tv.Comments() {
		if rangeContains(c.Range, pos) {
			return c, true
		}
	}
	return lexer.ParsedComment{}, false
}

// rangeContains reports whether pos falls within rng. Both ends are
// inclusive, so a cursor sitting just after a comment's last character
// still counts as inside it.
func rangeContains(rng protocol.Range, pos protocol.Position) bool {
	if pos.Line < rng.Start.Line || pos.Line > rng.End.Line {
		return false
	}
	if pos.Line == rng.Start.Line && pos.Character < rng.Start.Character {
		return false
	}
	if pos.Line == rng.End.Line && pos.Character > rng.End.Character {
		return false
	}
	return true
}
