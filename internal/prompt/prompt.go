// Package prompt turns a schema snapshot into the instruction text sent to
// the generation backend.
package prompt

import (
	"fmt"
	"strings"

	"github.com/koustreak/askdb/internal/schema"
)

// Instruction is the closing line of every prompt. Generation relies on it
// to get bare SQL back.
const Instruction = "Only return the SQL query. Do NOT use markdown, backticks, or explanations."

const role = "You are an expert SQL generator! Convert natural language into SQL queries."

// Example is a fixed natural-language / SQL pair shown to the model.
type Example struct {
	Question string
	SQL      string
}

// examples covers a count, a full select, a filtered select, an insert and
// an update.
var examples = [...]Example{
	{"How many users signed up?", "SELECT COUNT(*) FROM signup;"},
	{"Show all login details", "SELECT * FROM login;"},
	{"Get names from signup2 where age > 18", "SELECT name FROM signup2 WHERE age > 18;"},
	{"Insert a new user named Alex with age 25", "INSERT INTO users (name, age) VALUES ('Alex', 25);"},
	{"Update age to 30 for user Alex", "UPDATE users SET age = 30 WHERE name = 'Alex';"},
}

// Examples returns a copy of the pairs every prompt includes.
func Examples() []Example {
	out := make([]Example, len(examples))
	copy(out, examples[:])
	return out
}

// Prompt is the full instruction text for one request.
type Prompt struct {
	source string
	text   string
}

// Source returns the data source name the prompt was built for.
func (p Prompt) Source() string { return p.source }

// String returns the prompt text.
func (p Prompt) String() string { return p.text }

// Build renders the prompt for snap. Same snapshot in, same text out.
func Build(snap *schema.Snapshot) Prompt {
	var b strings.Builder

	b.WriteString(role)
	b.WriteString("\nUse the following schema for the ")
	b.WriteString(snap.Source)
	b.WriteString(" database:\n\n")
	b.WriteString(snap.String())
	b.WriteString("\n\nExamples:\n")
	for i, ex := range examples {
		fmt.Fprintf(&b, "%d. \"%s\" → %s\n", i+1, ex.Question, ex.SQL)
	}
	b.WriteString("\n")
	b.WriteString(Instruction)

	return Prompt{source: snap.Source, text: b.String()}
}

