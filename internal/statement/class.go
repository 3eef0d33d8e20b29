// Package statement classifies generated SQL by its leading keyword and
// checks statement boundaries before execution.
package statement

import (
	"fmt"
	"strings"
)

// Class is the safety category of a statement.
type Class int

const (
	Rejected Class = iota // not on the allow-list; never executed
	ReadOnly              // SELECT, SHOW, DESCRIBE
	Mutating              // INSERT, UPDATE, DELETE
)

func (c Class) String() string {
	switch c {
	case ReadOnly:
		return "read_only"
	case Mutating:
		return "mutating"
	default:
		return "rejected"
	}
}

// MarshalText encodes the class by name.
func (c Class) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText decodes a class name produced by MarshalText.
func (c *Class) UnmarshalText(b []byte) error {
	switch string(b) {
	case "read_only":
		*c = ReadOnly
	case "mutating":
		*c = Mutating
	case "rejected":
		*c = Rejected
	default:
		return fmt.Errorf("unknown statement class %q", b)
	}
	return nil
}

var readOnlyKeywords = []string{"select", "show", "describe"}

var mutatingKeywords = []string{"insert", "update", "delete"}

// Classify returns the class of text by case-insensitive prefix match on the
// trimmed text. Matching is by prefix, not by whole word.
func Classify(text string) Class {
	lower := strings.ToLower(strings.TrimSpace(text))
	if lower == "" {
		return Rejected
	}
	for _, kw := range readOnlyKeywords {
		if strings.HasPrefix(lower, kw) {
			return ReadOnly
		}
	}
	for _, kw := range mutatingKeywords {
		if strings.HasPrefix(lower, kw) {
			return Mutating
		}
	}
	return Rejected
}

// keywordClass returns the class of an exact leading keyword.
func keywordClass(word string) Class {
	for _, kw := range readOnlyKeywords {
		if word == kw {
			return ReadOnly
		}
	}
	for _, kw := range mutatingKeywords {
		if word == kw {
			return Mutating
		}
	}
	return Rejected
}
