package gateway_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/koustreak/askdb/internal/database"
	"github.com/koustreak/askdb/internal/database/dbtest"
	"github.com/koustreak/askdb/internal/errs"
	"github.com/koustreak/askdb/internal/gateway"
	"github.com/koustreak/askdb/internal/statement"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countSource() *dbtest.Source {
	return &dbtest.Source{QueryFunc: func(string, []any) (*dbtest.Result, error) {
		return &dbtest.Result{Columns: []string{"COUNT(*)"}, Rows: [][]any{{int64(42)}}}, nil
	}}
}

func TestExecute_ReadOnly(t *testing.T) {
	src := countSource()
	gw := gateway.New(gateway.Options{Strict: true})

	res, err := gw.Execute(context.Background(), src, "SELECT COUNT(*) FROM signup;", statement.ReadOnly)
	require.NoError(t, err)

	assert.Equal(t, gateway.KindRowset, res.Kind)
	assert.Equal(t, []string{"COUNT(*)"}, res.Rowset.Columns)
	assert.Equal(t, [][]any{{int64(42)}}, res.Rowset.Rows)
	_, timed := res.Duration()
	assert.True(t, timed)
	assert.Equal(t, []string{"SELECT COUNT(*) FROM signup;"}, src.Queries)
	assert.Empty(t, src.Execs)
}

func TestExecute_ZeroRowsKeepsColumns(t *testing.T) {
	src := &dbtest.Source{QueryFunc: func(string, []any) (*dbtest.Result, error) {
		return &dbtest.Result{Columns: []string{"id", "name"}}, nil
	}}

	res, err := gateway.New(gateway.Options{}).Execute(context.Background(), src, "SELECT id, name FROM signup WHERE 1=0", statement.ReadOnly)
	require.NoError(t, err)

	assert.Equal(t, gateway.KindRowset, res.Kind)
	assert.Equal(t, []string{"id", "name"}, res.Rowset.Columns)
	assert.Equal(t, 0, res.Rowset.Len())
}

func TestExecute_SyntheticColumn(t *testing.T) {
	src := &dbtest.Source{}

	res, err := gateway.New(gateway.Options{}).Execute(context.Background(), src, "SHOW WARNINGS", statement.ReadOnly)
	require.NoError(t, err)
	assert.Equal(t, []string{gateway.SyntheticColumn}, res.Rowset.Columns)
	assert.Equal(t, 0, res.Rowset.Len())
}

func TestExecute_Mutating(t *testing.T) {
	src := &dbtest.Source{ExecFunc: func(string) (int64, error) { return 3, nil }}

	res, err := gateway.New(gateway.Options{Strict: true}).Execute(context.Background(), src,
		"UPDATE users SET age = 30 WHERE name = 'Alex';", statement.Mutating)
	require.NoError(t, err)

	assert.Equal(t, gateway.KindAcknowledgement, res.Kind)
	assert.Equal(t, gateway.AcknowledgedMessage, res.Message)
	assert.Equal(t, int64(3), res.RowsAffected)
	_, timed := res.Duration()
	assert.True(t, timed)
	assert.Equal(t, 1, src.Commits)
	assert.Zero(t, src.Rollbacks)
	assert.Empty(t, src.Queries)
}

func TestExecute_MutatingFailureRollsBack(t *testing.T) {
	src := &dbtest.Source{ExecFunc: func(string) (int64, error) {
		return 0, errors.New("Duplicate entry 'Alex' for key 'name'")
	}}

	res, err := gateway.New(gateway.Options{}).Execute(context.Background(), src,
		"INSERT INTO users (name, age) VALUES ('Alex', 25);", statement.Mutating)

	assert.Nil(t, res)
	assert.True(t, errs.IsExecution(err))
	assert.Contains(t, errs.Display(err), "Duplicate entry 'Alex' for key 'name'")
	assert.Equal(t, 1, src.Rollbacks)
	assert.Zero(t, src.Commits)
}

func TestExecute_CommitFailure(t *testing.T) {
	src := &dbtest.Source{CommitErr: errors.New("lock wait timeout")}

	_, err := gateway.New(gateway.Options{}).Execute(context.Background(), src, "DELETE FROM users WHERE id = 1", statement.Mutating)
	assert.True(t, errs.IsExecution(err))
}

func TestExecute_QueryFailure(t *testing.T) {
	src := &dbtest.Source{QueryFunc: func(string, []any) (*dbtest.Result, error) {
		return nil, errors.New("Table 'shop.nope' doesn't exist")
	}}

	res, err := gateway.New(gateway.Options{}).Execute(context.Background(), src, "SELECT * FROM nope", statement.ReadOnly)
	assert.Nil(t, res)
	assert.True(t, errs.IsExecution(err))
	assert.Contains(t, errs.Display(err), "Table 'shop.nope' doesn't exist")
}

func TestExecute_RejectedNeverTouchesSource(t *testing.T) {
	for _, stmt := range []string{"DROP TABLE x", "", "wat"} {
		t.Run(stmt, func(t *testing.T) {
			src := countSource()
			class := statement.Classify(stmt)
			require.Equal(t, statement.Rejected, class)

			res, err := gateway.New(gateway.Options{Strict: true}).Execute(context.Background(), src, stmt, class)
			require.NoError(t, err)

			assert.Equal(t, gateway.KindRejected, res.Kind)
			assert.Equal(t, gateway.RejectedMessage, res.Message)
			_, timed := res.Duration()
			assert.False(t, timed)
			assert.Zero(t, src.Executions())
		})
	}
}

func TestExecute_StrictBoundaryCheck(t *testing.T) {
	src := countSource()
	stmt := "SELECT 1; DROP TABLE users"

	res, err := gateway.New(gateway.Options{Strict: true}).Execute(context.Background(), src, stmt, statement.ReadOnly)
	require.NoError(t, err)
	assert.Equal(t, gateway.KindRejected, res.Kind)
	assert.Contains(t, res.Message, "multiple statements")
	assert.Zero(t, src.Executions())

	res, err = gateway.New(gateway.Options{}).Execute(context.Background(), src, stmt, statement.ReadOnly)
	require.NoError(t, err)
	assert.Equal(t, gateway.KindRowset, res.Kind)
	assert.Equal(t, 1, src.Executions())
}

func TestExecute_BoundaryCheckFollowsSourceDialect(t *testing.T) {
	stmt := `DELETE FROM t WHERE a = 'x\'; DROP TABLE t; --'`

	pg := &dbtest.Source{SQLDialect: database.DialectPostgres}
	res, err := gateway.New(gateway.Options{Strict: true}).Execute(context.Background(), pg, stmt, statement.Mutating)
	require.NoError(t, err)
	assert.Equal(t, gateway.KindRejected, res.Kind)
	assert.Zero(t, pg.Executions())

	my := &dbtest.Source{SQLDialect: database.DialectMySQL}
	res, err = gateway.New(gateway.Options{Strict: true}).Execute(context.Background(), my, stmt, statement.Mutating)
	require.NoError(t, err)
	assert.Equal(t, gateway.KindAcknowledgement, res.Kind)
	assert.Equal(t, []string{stmt}, my.Execs)
}

func TestResult_JSON(t *testing.T) {
	src := &dbtest.Source{QueryFunc: func(string, []any) (*dbtest.Result, error) {
		return &dbtest.Result{Columns: []string{"id"}}, nil
	}}
	res, err := gateway.New(gateway.Options{}).Execute(context.Background(), src, "SELECT id FROM t", statement.ReadOnly)
	require.NoError(t, err)

	b, err := json.Marshal(res)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, "rowset", got["kind"])
	assert.Equal(t, []any{"id"}, got["columns"])
	assert.Equal(t, []any{}, got["rows"])
	assert.Contains(t, got, "elapsed_seconds")

	rejected, err := json.Marshal(&gateway.Result{Kind: gateway.KindRejected, Message: gateway.RejectedMessage})
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"rejected","message":"`+gateway.RejectedMessage+`"}`, string(rejected))
}
