package lexer

import "sync"

// MultilineDelim pairs the opening and closing sequences of a
// multi-line comment.
type MultilineDelim struct {
	Start string
	End   string
}

// Delims describes the comment syntax for one file extension. Multiline
// is nil for languages without block comments.
type Delims struct {
	Singleline string
	Multiline  *MultilineDelim
}

var (
	tableMu sync.RWMutex

	// extensionTable is the per-extension lookup table. Unknown
	// extensions are a fatal configuration error for the file being
	// lexed.
	extensionTable = map[string]Delims{
		"go":   {Singleline: "//", Multiline: &MultilineDelim{"/*", "*/"}},
		"rs":   {Singleline: "//", Multiline: &MultilineDelim{"/*", "*/"}},
		"c":    {Singleline: "//", Multiline: &MultilineDelim{"/*", "*/"}},
		"h":    {Singleline: "//", Multiline: &MultilineDelim{"/*", "*/"}},
		"cc":   {Singleline: "//", Multiline: &MultilineDelim{"/*", "*/"}},
		"cpp":  {Singleline: "//", Multiline: &MultilineDelim{"/*", "*/"}},
		"hpp":  {Singleline: "//", Multiline: &MultilineDelim{"/*", "*/"}},
		"java": {Singleline: "//", Multiline: &MultilineDelim{"/*", "*/"}},
		"js":   {Singleline: "//", Multiline: &MultilineDelim{"/*", "*/"}},
		"jsx":  {Singleline: "//", Multiline: &MultilineDelim{"/*", "*/"}},
		"ts":   {Singleline: "//", Multiline: &MultilineDelim{"/*", "*/"}},
		"tsx":  {Singleline: "//", Multiline: &MultilineDelim{"/*", "*/"}},
		"zig":  {Singleline: "//"},
		"py":   {Singleline: "#"},
		"rb":   {Singleline: "#"},
		"sh":   {Singleline: "#"},
		"bash": {Singleline: "#"},
		"toml": {Singleline: "#"},
		"yaml": {Singleline: "#"},
		"yml":  {Singleline: "#"},
		"html": {Multiline: &MultilineDelim{"<!--", "-->"}},
		"xml":  {Multiline: &MultilineDelim{"<!--", "-->"}},
		"lua":  {Singleline: "--", Multiline: &MultilineDelim{"--[[", "]]"}},
		"sql":  {Singleline: "--"},
	}
)

// Lookup returns the comment delimiters registered for ext, without the
// leading dot (e.g. "rs", "py").
func Lookup(ext string) (Delims, bool) {
	tableMu.RLock()
	defer tableMu.RUnlock()
	d, ok := extensionTable[ext]
	return d, ok
}

// RegisterExtension adds or overrides the delimiters for ext. Used by
// configuration loading to extend language coverage at startup.
func RegisterExtension(ext string, d Delims) {
	tableMu.Lock()
	defer tableMu.Unlock()
	extensionTable[ext] = d
}
