package postgres

import (
	"math/big"
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumericText(t *testing.T) {
	tests := []struct {
		name string
		n    pgtype.Numeric
		want any
	}{
		{"scaled", pgtype.Numeric{Int: big.NewInt(275000), Exp: -4, Valid: true}, "27.5000"},
		{"fraction", pgtype.Numeric{Int: big.NewInt(-5), Exp: -3, Valid: true}, "-0.005"},
		{"integer", pgtype.Numeric{Int: big.NewInt(42), Valid: true}, "42"},
		{"positive exponent", pgtype.Numeric{Int: big.NewInt(12), Exp: 2, Valid: true}, "1200"},
		{"zero", pgtype.Numeric{Int: big.NewInt(0), Exp: 3, Valid: true}, "0"},
		{"nan", pgtype.Numeric{NaN: true, Valid: true}, "NaN"},
		{"infinity", pgtype.Numeric{InfinityModifier: pgtype.NegativeInfinity, Valid: true}, "-Infinity"},
		{"null", pgtype.Numeric{}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, numericText(tt.n))
		})
	}
}

func TestPlain_DecodedValues(t *testing.T) {
	m := pgtype.NewMap()

	var avg any
	require.NoError(t, m.Scan(pgtype.NumericOID, pgtype.TextFormatCode, []byte("27.5000"), &avg))
	assert.Equal(t, "27.5000", plain(avg))

	var id any
	require.NoError(t, m.Scan(pgtype.UUIDOID, pgtype.TextFormatCode, []byte("3f2504e0-4f89-11d3-9a0c-0305e82c3301"), &id))
	assert.Equal(t, "3f2504e0-4f89-11d3-9a0c-0305e82c3301", plain(id))

	assert.Equal(t, int64(7), plain(int64(7)))
	assert.Equal(t, "Alex", plain("Alex"))
}
