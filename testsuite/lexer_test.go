package testsuite

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lexcodex/espxls/interact"
	"github.com/lexcodex/espxls/lexer"
)

// TestSingleLinePromptInRust lexes a single-line Rust comment
// carrying a Prompt|Global interact code.
func TestSingleLinePromptInRust(t *testing.T) {
	reg := interact.NewRegistry()
	src := "// @_What is 2+2?\nfn x(){}\n"

	tokens, err := lexer.Lex(src, "rs", reg)
	require.NoError(t, err)
	require.Equal(t, src, tokens.Projection())

	comments := tokens.Comments()
	require.Len(t, comments, 1)
	require.NotNil(t, comments[0].Interact)

	cmd, scope, err := reg.InterractTuple(*comments[0].Interact)
	require.NoError(t, err)
	require.Equal(t, interact.CommandPrompt, cmd)
	require.Equal(t, interact.ScopeGlobal, scope)
	require.Equal(t, uint32(0), comments[0].Range.Start.Line)
	require.Equal(t, uint32(2), comments[0].Range.Start.Character)
}

// TestMultilineCommentInC checks that a C block comment produces the CommentStr, Comment, CommentStr, Block, End token
// sequence with exact delimiter text preserved.
func TestMultilineCommentInC(t *testing.T) {
	reg := interact.NewRegistry()
	src := "/* @_hello */\nint main(){}\n"

	tokens, err := lexer.Lex(src, "c", reg)
	require.NoError(t, err)
	require.Equal(t, src, tokens.Projection())

	var kinds []lexer.Kind
	for _, tok := range tokens.Tokens {
		kinds = append(kinds, tok.Kind)
	}
	require.Equal(t, []lexer.Kind{
		lexer.KindCommentStr,
		lexer.KindComment,
		lexer.KindCommentStr,
		lexer.KindBlock,
		lexer.KindEnd,
	}, kinds)

	comments := tokens.Comments()
	require.Len(t, comments, 1)
	require.Equal(t, uint32(0), comments[0].Range.Start.Line)
	require.Equal(t, uint32(2), comments[0].Range.Start.Character)
	require.Equal(t, uint32(0), comments[0].Range.End.Line)
	require.Equal(t, uint32(11), comments[0].Range.End.Character)
}

// TestLexerRoundTripsArbitraryText checks that concatenating the
// textual projection of the tokens reproduces the input exactly,
// across a handful of representative inputs.
func TestLexerRoundTripsArbitraryText(t *testing.T) {
	reg := interact.NewRegistry()
	cases := []struct {
		src string
		ext string
	}{
		{"fn x() {}\n// a trailing comment\n", "rs"},
		{"no comments here at all\n", "go"},
		{"/* one */ code /* two */\n", "c"},
		{"", "rs"},
	}
	for _, c := range cases {
		tokens, err := lexer.Lex(c.src, c.ext, reg)
		require.NoError(t, err)
		require.Equal(t, c.src, tokens.Projection())
	}
}

func TestLexerUnknownExtension(t *testing.T) {
	reg := interact.NewRegistry()
	_, err := lexer.Lex("anything", "notarealext", reg)
	require.Error(t, err)
}
