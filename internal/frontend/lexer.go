package frontend

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// Lexer tokenizes the .fir textual assembly format: a stateful, ordered
// rule list with keywords folded into Ident, covering the small symbol
// set .fir programs need (String tokens are lexed, but no grammar
// production uses them; no nested comment forms).
var Lexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		{"Comment", `--[^\n]*`, nil},
		{"String", `"(\\.|[^"])*"`, nil},
		{"Ident", `[a-zA-Z_][a-zA-Z0-9_]*`, nil},
		{"Float", `[0-9]+\.[0-9]+`, nil},
		{"Integer", `[0-9]+`, nil},
		{"Arrow", `<-|->`, nil},
		{"Punctuation", `[{}\[\]():,=*]`, nil},
		{"Whitespace", `[ \t\r\n]+`, nil},
	},
})
