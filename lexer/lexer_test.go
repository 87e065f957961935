package lexer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lexcodex/espxls/interact"
)

func TestLexRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		ext  string
		src  string
	}{
		{"rust prompt", "rs", "// @_What is 2+2?\nfn x(){}\n"},
		{"c multiline", "c", "/* @_hello */\nint main(){}\n"},
		{"python push", "py", "# +bcontext\nbody text\n"},
		{"blank lines", "go", "package x\n\nfunc y() {}\n\n\nfunc z() {}\n"},
		{"no comments", "go", "package x\nfunc y() {}\n"},
		{"unterminated multiline", "c", "int x;\n/* never closes"},
	}
	reg := interact.NewRegistry()
	_, err := reg.RegisterScope('b')
	require.NoError(t, err)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			vec, err := Lex(tc.src, tc.ext, reg)
			require.NoError(t, err)
			require.Equal(t, tc.src, vec.Projection())
		})
	}
}

func TestLexUnknownExtension(t *testing.T) {
	reg := interact.NewRegistry()
	_, err := Lex("whatever", "nope", reg)
	require.Error(t, err)
}

func TestLexRangesAreMonotonic(t *testing.T) {
	reg := interact.NewRegistry()
	src := "// first\ncode();\n// second\nmore();\n"
	vec, err := Lex(src, "go", reg)
	require.NoError(t, err)

	var last struct{ line, char uint32 }
	for _, c := range vec.Comments() {
		start := c.Range.Start
		require.True(t, start.Line > last.line || (start.Line == last.line && start.Character >= last.char))
		last.line, last.char = c.Range.End.Line, c.Range.End.Character
	}
}

func TestLexCommentStrCountMatchesFormula(t *testing.T) {
	reg := interact.NewRegistry()
	src := "// one\n// two\n/* three */\ncode();\n"
	vec, err := Lex(src, "go", reg)
	require.NoError(t, err)

	var singleline, multiline, commentStr int
	for _, tok := range vec.Tokens {
		if tok.Kind == KindCommentStr {
			commentStr++
		}
	}
	// two singleline comments ("// one", "// two"), one multiline ("/* three */")
	singleline = 2
	multiline = 1
	require.Equal(t, singleline+2*multiline, commentStr)
}

func TestLexDetectsInteractCode(t *testing.T) {
	reg := interact.NewRegistry()
	_, err := reg.RegisterScope('b')
	require.NoError(t, err)
	vec, err := Lex("// +bpush this\nfn x(){}\n", "rs", reg)
	require.NoError(t, err)
	comments := vec.Comments()
	require.Len(t, comments, 1)
	require.NotNil(t, comments[0].Interact)
	cmd, scope, err := reg.InterractTuple(*comments[0].Interact)
	require.NoError(t, err)
	require.Equal(t, interact.CommandPush, cmd)
	scopeChar, ok := reg.ScopeChar(scope)
	require.True(t, ok)
	require.Equal(t, 'b', scopeChar)
}

func TestLexPlainCommentHasNoInteractCode(t *testing.T) {
	reg := interact.NewRegistry()
	vec, err := Lex("// just a note\nfn x(){}\n", "rs", reg)
	require.NoError(t, err)
	comments := vec.Comments()
	require.Len(t, comments, 1)
	require.Nil(t, comments[0].Interact)
}

func TestLexBlankLineBoundarySplitsBlocks(t *testing.T) {
	reg := interact.NewRegistry()
	src := "a\n\nb\n"
	vec, err := Lex(src, "go", reg)
	require.NoError(t, err)
	var blocks []string
	for _, tok := range vec.Tokens {
		if tok.Kind == KindBlock {
			blocks = append(blocks, tok.Text)
		}
	}
	require.Equal(t, []string{"a\n\n", "b\n"}, blocks)
}

func TestCommentIndexAddressesCommentTokens(t *testing.T) {
	reg := interact.NewRegistry()
	vec, err := Lex("// note\ncode();\n", "go", reg)
	require.NoError(t, err)
	for _, idx := range vec.CommentIndex {
		require.Equal(t, KindComment, vec.Tokens[idx].Kind)
	}
}

func TestSingleCharDelimiterMatchesMidToken(t *testing.T) {
	reg := interact.NewRegistry()
	vec, err := Lex("x# note\n", "py", reg)
	require.NoError(t, err)
	comments := vec.Comments()
	require.Len(t, comments, 1)
	require.Equal(t, " note", comments[0].Content)
	require.Equal(t, "x# note\n", vec.Projection())
}

func TestMultiCharDelimiterNeedsTrailingWhitespace(t *testing.T) {
	reg := interact.NewRegistry()
	vec, err := Lex("//glued\nfn x(){}\n", "rs", reg)
	require.NoError(t, err)
	require.Empty(t, vec.Comments())
	require.Equal(t, "//glued\nfn x(){}\n", vec.Projection())
}
