package lspserver

import "strings"

// extFromURI returns the file extension (without the leading dot) a
// document URI ends with, the lookup key lexer.Lex wants.
func extFromURI(uri string) string {
	i := strings.LastIndex(uri, ".")
	if i < 0 || i == len(uri)-1 {
		return ""
	}
	return uri[i+1:]
}
