package common

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/onflow/cadence"
)

// Amount is an unsigned fixed-point token amount with 8 decimals (Cadence UFix64).
// The zero value is 0.0.
type Amount uint64

func AmountFromString(s string) (Amount, error) {
	v, err := cadence.NewUFix64(s)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return Amount(v), nil
}

func AmountFromCadence(v cadence.Value) (Amount, error) {
	u, ok := v.(cadence.UFix64)
	if !ok {
		return 0, fmt.Errorf("unable to parse Amount from cadence value: %v", v)
	}
	return Amount(u), nil
}

func (a Amount) Cadence() cadence.UFix64 {
	return cadence.UFix64(a)
}

func (a Amount) String() string {
	return cadence.UFix64(a).String()
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("amount must be a decimal string: %w", err)
	}
	v, err := AmountFromString(s)
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// Stored as a signed integer, the largest integer type all supported databases have.
func (a Amount) Value() (driver.Value, error) {
	return int64(a), nil
}

func (a *Amount) Scan(value interface{}) error {
	var i sql.NullInt64
	if err := i.Scan(value); err != nil {
		return fmt.Errorf("failed to unmarshal Amount value: %w", err)
	}
	*a = Amount(i.Int64)
	return nil
}
