package prompt_test

import (
	"strings"
	"testing"

	"github.com/koustreak/askdb/internal/prompt"
	"github.com/koustreak/askdb/internal/schema"
	"github.com/stretchr/testify/assert"
)

func snapshot() *schema.Snapshot {
	return &schema.Snapshot{
		Source: "shop",
		Tables: []schema.TableDescriptor{
			{Name: "login", Columns: []string{"id", "email"}},
			{Name: "signup", Columns: []string{"id", "name", "age"}},
		},
	}
}

func TestBuild_Deterministic(t *testing.T) {
	a := prompt.Build(snapshot())
	b := prompt.Build(snapshot())
	assert.Equal(t, a.String(), b.String())
	assert.Equal(t, "shop", a.Source())
}

func TestBuild_Content(t *testing.T) {
	text := prompt.Build(snapshot()).String()

	assert.True(t, strings.HasPrefix(text, "You are an expert SQL generator!"))
	assert.Contains(t, text, "Use the following schema for the shop database:")
	assert.Contains(t, text, "**login**: id, email\n**signup**: id, name, age")
	assert.True(t, strings.HasSuffix(text, prompt.Instruction))

	for i, ex := range prompt.Examples() {
		assert.Contains(t, text, ex.SQL, "example %d", i+1)
	}
	assert.Contains(t, text, `1. "How many users signed up?" → SELECT COUNT(*) FROM signup;`)
	assert.Contains(t, text, `5. "Update age to 30 for user Alex" → UPDATE users SET age = 30 WHERE name = 'Alex';`)
}

func TestBuild_ExampleKinds(t *testing.T) {
	var prefixes []string
	for _, ex := range prompt.Examples() {
		prefixes = append(prefixes, strings.Fields(ex.SQL)[0])
	}
	assert.Equal(t, []string{"SELECT", "SELECT", "SELECT", "INSERT", "UPDATE"}, prefixes)
}

func TestBuild_ExamplesCannotBeEdited(t *testing.T) {
	before := prompt.Build(snapshot()).String()

	ex := prompt.Examples()
	ex[0].SQL = "DROP TABLE signup;"

	assert.Len(t, prompt.Examples(), 5)
	assert.Equal(t, before, prompt.Build(snapshot()).String())
	assert.NotContains(t, before, "DROP TABLE")
}

func TestBuild_SchemaChangesPrompt(t *testing.T) {
	snap := snapshot()
	before := prompt.Build(snap).String()

	snap.Tables[1].Columns = append(snap.Tables[1].Columns, "city")
	after := prompt.Build(snap).String()

	assert.NotEqual(t, before, after)
	assert.Contains(t, after, "**signup**: id, name, age, city")
}
