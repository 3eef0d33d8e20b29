package schema

import "strings"

// TableDescriptor names a table and its columns in ordinal order.
type TableDescriptor struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
}

// Snapshot is the structure of one data source at request time. It is built
// fresh for every request and never cached.
type Snapshot struct {
	Source string            `json:"source"`
	Tables []TableDescriptor `json:"tables"`
}

// Table returns the descriptor for name, if present.
func (s *Snapshot) Table(name string) (TableDescriptor, bool) {
	for _, t := range s.Tables {
		if t.Name == name {
			return t, true
		}
	}
	return TableDescriptor{}, false
}

// Lines serializes the snapshot one table per line as "**table**: col1, col2",
// keeping source order.
func (s *Snapshot) Lines() []string {
	lines := make([]string, 0, len(s.Tables))
	for _, t := range s.Tables {
		lines = append(lines, "**"+t.Name+"**: "+strings.Join(t.Columns, ", "))
	}
	return lines
}

// String joins Lines with newlines.
func (s *Snapshot) String() string {
	return strings.Join(s.Lines(), "\n")
}
