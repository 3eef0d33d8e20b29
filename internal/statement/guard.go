package statement

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/koustreak/askdb/internal/database"
	"github.com/koustreak/askdb/internal/errs"
)

var (
	ErrMultipleStatements = errors.New("multiple statements are not allowed")
	ErrLeadingComment     = errors.New("statement must not start with a comment")
	ErrClassMismatch      = errors.New("leading keyword does not match statement class")
)

// Guard performs a lexical boundary check on statements that passed
// Classify. It does not parse SQL, but it follows the quoting and comment
// rules of one dialect:
//
//   - MySQL: strings honour backslash escapes, backticks quote identifiers,
//     '#' and "-- " start line comments, and the body of /*! */ is code.
//   - PostgreSQL: strings are standard-conforming unless written E'...',
//     $tag$ bodies are literals, and block comments nest.
type Guard struct {
	dialect database.Dialect
}

// NewGuard returns a Guard for statements sent to a source of dialect d.
func NewGuard(d database.Dialect) *Guard { return &Guard{dialect: d} }

// Check rejects text when it contains more than one statement, starts with
// a comment, or its leading keyword is not exactly one of the keywords of
// class. Failures carry ErrKindRejected.
func (g *Guard) Check(text string, class Class) error {
	text = strings.TrimSpace(text)

	if startsWithComment(text) {
		return errs.Wrap(errs.ErrKindRejected, "statement rejected", ErrLeadingComment)
	}

	word := leadingWord(text)
	if class == Rejected || keywordClass(word) != class {
		return errs.Wrap(errs.ErrKindRejected,
			fmt.Sprintf("statement rejected: %q is not a %s keyword", word, class), ErrClassMismatch)
	}

	if end, ok := g.firstTerminator(text); ok && g.hasCode(text[end+1:]) {
		return errs.Wrap(errs.ErrKindRejected, "statement rejected", ErrMultipleStatements)
	}

	return nil
}

func startsWithComment(s string) bool {
	return strings.HasPrefix(s, "--") || strings.HasPrefix(s, "#") || strings.HasPrefix(s, "/*")
}

func leadingWord(s string) string {
	end := strings.IndexFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && r != '_'
	})
	if end < 0 {
		end = len(s)
	}
	return strings.ToLower(s[:end])
}

// scanState tracks where the lexer is inside the text.
type scanState int

const (
	stCode scanState = iota
	stSingle
	stDouble
	stBacktick
	stLineComment
	stBlockComment
)

// firstTerminator returns the byte offset of the first ';' outside quotes
// and comments.
func (g *Guard) firstTerminator(s string) (int, bool) {
	idx := -1
	g.scan(s, func(i int, b byte) bool {
		if b == ';' {
			idx = i
			return false
		}
		return true
	})
	return idx, idx >= 0
}

// hasCode reports whether s contains anything besides whitespace and
// comments.
func (g *Guard) hasCode(s string) bool {
	found := false
	g.scan(s, func(_ int, b byte) bool {
		if !unicode.IsSpace(rune(b)) {
			found = true
			return false
		}
		return true
	})
	return found
}

// scan calls fn for every byte that is in code state (outside quotes and
// comments), including the opening byte of a literal. It stops when fn
// returns false.
func (g *Guard) scan(s string, fn func(i int, b byte) bool) {
	mysql := g.dialect == database.DialectMySQL

	state := stCode
	escapes := false // backslash escapes the next byte in the open string
	depth := 0       // block comment nesting
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch state {
		case stCode:
			switch {
			case c == '\'':
				state = stSingle
				escapes = mysql || isEscapeString(s, i)
			case c == '"':
				state = stDouble
				escapes = mysql
			case c == '`' && mysql:
				state = stBacktick
			case c == '$' && !mysql:
				if end, ok := dollarQuoted(s, i); ok {
					if !fn(i, c) {
						return
					}
					i = end - 1
					continue
				}
			case c == '#' && mysql:
				state = stLineComment
				continue
			case c == '-' && i+1 < len(s) && s[i+1] == '-':
				// MySQL needs whitespace after "--"; "1--1" is arithmetic.
				if mysql && i+2 < len(s) && s[i+2] > ' ' {
					break
				}
				state = stLineComment
				i++
				continue
			case c == '/' && i+1 < len(s) && s[i+1] == '*':
				if mysql && i+2 < len(s) && s[i+2] == '!' {
					i += 2
					continue
				}
				state = stBlockComment
				depth = 1
				i++
				continue
			}
			if !fn(i, c) {
				return
			}
		case stSingle, stDouble:
			quote := byte('\'')
			if state == stDouble {
				quote = '"'
			}
			switch {
			case c == '\\' && escapes:
				i++
			case c == quote && i+1 < len(s) && s[i+1] == quote:
				i++
			case c == quote:
				state = stCode
			}
		case stBacktick:
			if c == '`' {
				state = stCode
			}
		case stLineComment:
			if c == '\n' {
				state = stCode
			}
		case stBlockComment:
			switch {
			case c == '*' && i+1 < len(s) && s[i+1] == '/':
				i++
				depth--
				if depth == 0 || mysql {
					state = stCode
				}
			case c == '/' && i+1 < len(s) && s[i+1] == '*' && !mysql:
				i++
				depth++
			}
		}
	}
}

// isEscapeString reports whether the quote at s[i] opens a PostgreSQL
// E'...' literal.
func isEscapeString(s string, i int) bool {
	if i == 0 || (s[i-1] != 'e' && s[i-1] != 'E') {
		return false
	}
	return i == 1 || !isIdentByte(s[i-2])
}

// dollarQuoted matches a PostgreSQL $tag$...$tag$ literal starting at s[i]
// and returns the offset just past it. An unterminated body runs to the end
// of s. A '$' inside an identifier or before a digit ($1) is not a quote.
func dollarQuoted(s string, i int) (int, bool) {
	if i > 0 && isIdentByte(s[i-1]) {
		return 0, false
	}

	j := i + 1
	if j < len(s) && (isLetter(s[j]) || s[j] == '_') {
		for j < len(s) && (isLetter(s[j]) || isDigit(s[j]) || s[j] == '_') {
			j++
		}
	}
	if j >= len(s) || s[j] != '$' {
		return 0, false
	}

	delim := s[i : j+1]
	end := strings.Index(s[j+1:], delim)
	if end < 0 {
		return len(s), true
	}
	return j + 1 + end + len(delim), true
}

func isLetter(b byte) bool { return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= 0x80 }
func isDigit(b byte) bool  { return b >= '0' && b <= '9' }

func isIdentByte(b byte) bool {
	return isLetter(b) || isDigit(b) || b == '_' || b == '$'
}
