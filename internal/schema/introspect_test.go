package schema_test

import (
	"context"
	"errors"
	"testing"

	"github.com/koustreak/askdb/internal/database/dbtest"
	"github.com/koustreak/askdb/internal/errs"
	"github.com/koustreak/askdb/internal/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func shopSource() *dbtest.Source {
	return &dbtest.Source{
		DB:     "shop",
		Tables: []string{"login", "signup"},
		Columns: map[string][]string{
			"login":  {"id", "email"},
			"signup": {"id", "name", "age"},
		},
	}
}

func TestFetch(t *testing.T) {
	snap, err := schema.NewProvider(nil).Fetch(context.Background(), shopSource())
	require.NoError(t, err)

	assert.Equal(t, "shop", snap.Source)
	assert.Equal(t, []schema.TableDescriptor{
		{Name: "login", Columns: []string{"id", "email"}},
		{Name: "signup", Columns: []string{"id", "name", "age"}},
	}, snap.Tables)
	assert.Equal(t, "**login**: id, email\n**signup**: id, name, age", snap.String())
}

func TestFetch_EmptyDatabase(t *testing.T) {
	snap, err := schema.NewProvider(nil).Fetch(context.Background(), &dbtest.Source{DB: "empty"})
	require.NoError(t, err)
	assert.Empty(t, snap.Tables)
	assert.Equal(t, "", snap.String())
}

func TestFetch_AllOrNothing(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*dbtest.Source)
	}{
		{"list tables fails", func(s *dbtest.Source) { s.ListTablesErr = errors.New("connection reset") }},
		{"one table fails", func(s *dbtest.Source) {
			s.ColumnErrs = map[string]error{"signup": errors.New("permission denied")}
		}},
		{"one table has no columns", func(s *dbtest.Source) { s.Columns["signup"] = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := shopSource()
			tt.mutate(src)

			snap, err := schema.NewProvider(nil).Fetch(context.Background(), src)
			assert.Nil(t, snap)
			assert.True(t, errs.IsSourceUnavailable(err))
		})
	}
}

func TestSnapshot_Table(t *testing.T) {
	snap, err := schema.NewProvider(nil).Fetch(context.Background(), shopSource())
	require.NoError(t, err)

	td, ok := snap.Table("signup")
	assert.True(t, ok)
	assert.Equal(t, []string{"id", "name", "age"}, td.Columns)

	_, ok = snap.Table("ghost")
	assert.False(t, ok)
}
