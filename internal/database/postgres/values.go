package postgres

import (
	"math/big"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// plain converts values pgx decodes into *any for types with no native Go
// form. Other pgtype values (interval, time, ranges) are left to the
// driver.Valuer handling in database.ScanRowset.
func plain(v any) any {
	switch t := v.(type) {
	case pgtype.Numeric:
		return numericText(t)
	case [16]byte:
		return uuid.UUID(t).String()
	default:
		return v
	}
}

// numericText renders a numeric in plain decimal notation, keeping its scale.
func numericText(n pgtype.Numeric) any {
	if !n.Valid {
		return nil
	}
	if n.NaN {
		return "NaN"
	}
	switch n.InfinityModifier {
	case pgtype.Infinity:
		return "Infinity"
	case pgtype.NegativeInfinity:
		return "-Infinity"
	}
	if n.Int == nil {
		return "0"
	}

	sign := ""
	if n.Int.Sign() < 0 {
		sign = "-"
	}
	digits := new(big.Int).Abs(n.Int).String()

	if n.Exp >= 0 {
		if n.Int.Sign() == 0 {
			return "0"
		}
		return sign + digits + strings.Repeat("0", int(n.Exp))
	}

	scale := int(-n.Exp)
	if len(digits) <= scale {
		digits = strings.Repeat("0", scale-len(digits)+1) + digits
	}
	return sign + digits[:len(digits)-scale] + "." + digits[len(digits)-scale:]
}
