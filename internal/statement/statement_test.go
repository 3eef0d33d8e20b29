package statement_test

import (
	"encoding/json"
	"testing"

	"github.com/koustreak/askdb/internal/database"
	"github.com/koustreak/askdb/internal/errs"
	"github.com/koustreak/askdb/internal/statement"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		text string
		want statement.Class
	}{
		{"SELECT COUNT(*) FROM signup;", statement.ReadOnly},
		{"  select * from login", statement.ReadOnly},
		{"SeLeCt 1", statement.ReadOnly},
		{"SHOW TABLES", statement.ReadOnly},
		{"describe users", statement.ReadOnly},
		{"selectx", statement.ReadOnly},
		{"INSERT INTO users (name, age) VALUES ('Alex', 25);", statement.Mutating},
		{"update users set age = 30", statement.Mutating},
		{"\n\tDELETE FROM users WHERE id = 1", statement.Mutating},
		{"DROP TABLE x", statement.Rejected},
		{"TRUNCATE users", statement.Rejected},
		{"", statement.Rejected},
		{"   ", statement.Rejected},
		{"wat", statement.Rejected},
		{"```sql\nSELECT 1\n```", statement.Rejected},
		{"-- comment\nSELECT 1", statement.Rejected},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, statement.Classify(tt.text))
		})
	}
}

func TestClass_JSON(t *testing.T) {
	b, err := json.Marshal(map[string]statement.Class{"class": statement.Mutating})
	require.NoError(t, err)
	assert.JSONEq(t, `{"class":"mutating"}`, string(b))

	var c statement.Class
	require.NoError(t, c.UnmarshalText([]byte("read_only")))
	assert.Equal(t, statement.ReadOnly, c)
	assert.Error(t, c.UnmarshalText([]byte("bogus")))
}

func TestGuard_Accepts(t *testing.T) {
	mysql, pg := database.DialectMySQL, database.DialectPostgres
	both := []database.Dialect{mysql, pg}

	tests := []struct {
		text     string
		class    statement.Class
		dialects []database.Dialect
	}{
		{"SELECT 1", statement.ReadOnly, both},
		{"SELECT 1;", statement.ReadOnly, both},
		{"SELECT 1;  \n", statement.ReadOnly, both},
		{"SELECT 1; -- trailing note", statement.ReadOnly, both},
		{"SELECT 1; /* done */", statement.ReadOnly, both},
		{"SELECT 'a;b' FROM t;", statement.ReadOnly, both},
		{`SELECT "x;y", 'it''s; fine' FROM t`, statement.ReadOnly, both},
		{"SELECT 1 -- note; DROP TABLE t\n", statement.ReadOnly, both},
		{"SELECT /* ; */ 1", statement.ReadOnly, both},
		{"SHOW TABLES;", statement.ReadOnly, both},
		{"UPDATE users SET age = 30 WHERE name = 'Alex';", statement.Mutating, both},

		{`SELECT 'esc\'; still' FROM t`, statement.ReadOnly, []database.Dialect{mysql}},
		{"SELECT `we;ird` FROM t", statement.ReadOnly, []database.Dialect{mysql}},
		{"SELECT 1 # note; DROP TABLE t", statement.ReadOnly, []database.Dialect{mysql}},
		{`DELETE FROM t WHERE a = 'x\'; DROP TABLE t; --'`, statement.Mutating, []database.Dialect{mysql}},

		{`SELECT 'back\slash' FROM t;`, statement.ReadOnly, []database.Dialect{pg}},
		{`SELECT E'it\'s; fine' FROM t`, statement.ReadOnly, []database.Dialect{pg}},
		{"SELECT $$a;b$$ FROM t", statement.ReadOnly, []database.Dialect{pg}},
		{"SELECT $fn$ it's; $fn$ FROM t;", statement.ReadOnly, []database.Dialect{pg}},
		{"SELECT a$b FROM t WHERE id = $1;", statement.ReadOnly, []database.Dialect{pg}},
		{"SELECT /* outer /* inner ; */ still ; */ 1", statement.ReadOnly, []database.Dialect{pg}},
		{"SELECT 1--1; DROP TABLE t", statement.ReadOnly, []database.Dialect{pg}},
	}

	for _, tt := range tests {
		for _, d := range tt.dialects {
			t.Run(d.String()+"/"+tt.text, func(t *testing.T) {
				assert.NoError(t, statement.NewGuard(d).Check(tt.text, tt.class))
			})
		}
	}
}

func TestGuard_Rejects(t *testing.T) {
	mysql, pg := database.DialectMySQL, database.DialectPostgres
	both := []database.Dialect{mysql, pg}

	tests := []struct {
		name     string
		text     string
		class    statement.Class
		dialects []database.Dialect
		want     error
	}{
		{"stacked", "SELECT 1; DROP TABLE users", statement.ReadOnly, both, statement.ErrMultipleStatements},
		{"stacked mutating", "DELETE FROM a; DELETE FROM b;", statement.Mutating, both, statement.ErrMultipleStatements},
		{"stacked after comment", "SELECT 1; /* x */ DELETE FROM t", statement.ReadOnly, both, statement.ErrMultipleStatements},
		{"leading line comment", "-- hi\nSELECT 1", statement.ReadOnly, both, statement.ErrLeadingComment},
		{"leading block comment", "/* hi */ SELECT 1", statement.ReadOnly, both, statement.ErrLeadingComment},
		{"prefix only", "selectx", statement.ReadOnly, both, statement.ErrClassMismatch},
		{"class mismatch", "SELECT 1", statement.Mutating, both, statement.ErrClassMismatch},
		{"rejected class", "DROP TABLE x", statement.Rejected, both, statement.ErrClassMismatch},

		{"double dash without space", "SELECT 1--1; DROP TABLE t", statement.ReadOnly, []database.Dialect{mysql}, statement.ErrMultipleStatements},
		{"executable comment", "SELECT 1; /*! DROP TABLE t */", statement.ReadOnly, []database.Dialect{mysql}, statement.ErrMultipleStatements},

		{"backslash ends standard string", `DELETE FROM t WHERE a = 'x\'; DROP TABLE t; --'`, statement.Mutating, []database.Dialect{pg}, statement.ErrMultipleStatements},
		{"quote inside dollar body", "UPDATE t SET a = $$'$$; DROP TABLE t; --", statement.Mutating, []database.Dialect{pg}, statement.ErrMultipleStatements},
		{"hash is an operator", "SELECT 1 # 2; DROP TABLE t", statement.ReadOnly, []database.Dialect{pg}, statement.ErrMultipleStatements},
		{"dollars inside identifier", "SELECT a$$; DROP TABLE t; --$$", statement.ReadOnly, []database.Dialect{pg}, statement.ErrMultipleStatements},
		{"nested comment closed", "SELECT /* a /* b */ */ 1; DROP TABLE t", statement.ReadOnly, []database.Dialect{pg}, statement.ErrMultipleStatements},
	}

	for _, tt := range tests {
		for _, d := range tt.dialects {
			t.Run(d.String()+"/"+tt.name, func(t *testing.T) {
				err := statement.NewGuard(d).Check(tt.text, tt.class)
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.want)
				assert.True(t, errs.IsRejected(err))
			})
		}
	}
}
