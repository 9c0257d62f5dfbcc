package ini

import "fmt"

// TokenKind identifies what a Token represents. It doubles as the
// tokenizer's scanning state.
type TokenKind uint8

const (
	TokenNone TokenKind = iota
	TokenSection
	TokenOption
	TokenComment
	TokenFinished
)

// String returns the lower-case name of the kind.
func (k TokenKind) String() string {
	switch k {
	case TokenNone:
		return "none"
	case TokenSection:
		return "section"
	case TokenOption:
		return "option"
	case TokenComment:
		return "comment"
	case TokenFinished:
		return "finished"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Token is one lexical unit of a configuration file.
//
// Value holds the captured text with leading whitespace removed. It is
// always empty for comment and finished tokens.
type Token struct {
	Kind  TokenKind
	Value string
	Line  int
}
