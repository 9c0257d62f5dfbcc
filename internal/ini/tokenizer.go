package ini

import (
	"bufio"
	"errors"
	"fmt"
	"io"
)

const (
	// initialTokenBuffer is the starting capacity of the value buffer.
	initialTokenBuffer = 16

	// MaxTokenSize is the largest value a single token may capture.
	MaxTokenSize = 64 << 10
)

// Tokenizer reads a configuration stream one token at a time.
//
// The value buffer is reused between calls and doubles in capacity when full,
// keeping parsing linear in the size of the input regardless of line length.
//
// A Tokenizer is not safe for concurrent use.
type Tokenizer struct {
	r        *bufio.Reader
	buf      []byte
	line     int
	overflow bool
	finished bool
}

// NewTokenizer returns a Tokenizer reading from r.
func NewTokenizer(r io.Reader) *Tokenizer {
	return &Tokenizer{
		r:    bufio.NewReader(r),
		buf:  make([]byte, 0, initialTokenBuffer),
		line: 1,
	}
}

// Next returns the next token in the stream.
//
// Once the end of the stream is reached every call returns a TokenFinished
// token. A token whose value would exceed MaxTokenSize is consumed up to its
// terminator and reported as ErrTokenTooLong; the following call resumes with
// the next token. Read failures other than io.EOF are wrapped in ErrRead.
func (t *Tokenizer) Next() (Token, error) {
	if t.finished {
		return Token{Kind: TokenFinished, Line: t.line}, nil
	}

	t.buf = t.buf[:0]
	t.overflow = false
	kind := TokenNone
	start := t.line

	for {
		c, err := t.r.ReadByte()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				return Token{}, fmt.Errorf("%w: line %d: %w", ErrRead, t.line, err)
			}
			t.finished = true
			if kind == TokenNone {
				return Token{Kind: TokenFinished, Line: t.line}, nil
			}
			// A last line without a trailing newline still counts.
			return t.emit(kind, start)
		}

		if c == '\n' {
			t.line++
		}

		switch kind {
		case TokenNone:
			if isWhitespace(c) {
				continue
			}
			start = t.line
			switch c {
			case '[', '!':
				kind = TokenSection
				continue
			case '#':
				kind = TokenComment
				continue
			default:
				kind = TokenOption
			}
		case TokenSection:
			if c == ']' || c == '\n' {
				return t.emit(kind, start)
			}
		case TokenOption, TokenComment:
			if c == '\n' {
				return t.emit(kind, start)
			}
		}

		if kind == TokenComment {
			continue
		}
		if len(t.buf) == 0 && isWhitespace(c) {
			continue
		}
		t.append(c)
	}
}

// append adds c to the value buffer, doubling its capacity when full.
func (t *Tokenizer) append(c byte) {
	if t.overflow {
		return
	}
	if len(t.buf) >= MaxTokenSize {
		t.overflow = true
		return
	}
	if len(t.buf) == cap(t.buf) {
		grown := make([]byte, len(t.buf), 2*cap(t.buf))
		copy(grown, t.buf)
		t.buf = grown
	}
	t.buf = append(t.buf, c)
}

// emit builds the token for the value captured so far.
func (t *Tokenizer) emit(kind TokenKind, line int) (Token, error) {
	if t.overflow {
		return Token{Kind: kind, Line: line}, fmt.Errorf("%w: %s on line %d", ErrTokenTooLong, kind, line)
	}
	if kind == TokenComment {
		return Token{Kind: kind, Line: line}, nil
	}

	value := t.buf
	if n := len(value); n > 0 && value[n-1] == '\r' {
		value = value[:n-1]
	}
	return Token{Kind: kind, Value: string(value), Line: line}, nil
}

func isWhitespace(c byte) bool {
	return c == ' ' || c == '\n' || c == '\r' || c == '\t' || c == 0
}
