package common

import (
	sql "database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/onflow/cadence"
)

// Note (latenssi): flow IDs are actually uint64s so we are not supporting as many IDs as flow,
// 									but to my knowledge int64 is the largest MySQL can store.
// 									For reference:
//									https://www.reddit.com/r/golang/comments/7eycli/why_is_there_no_sqlnulluint64/

// FlowID is a nullable NFT identifier. A mint record has no FlowID until the
// token id was read from the issuing contract.
type FlowID sql.NullInt64

func FlowIDFromUint64(u uint64) FlowID {
	return FlowID{Int64: int64(u), Valid: true}
}

func (i FlowID) Uint64() uint64 {
	return uint64(i.Int64)
}

func (i FlowID) EqualTo(j FlowID) bool {
	return (!i.Valid && !j.Valid) || i.Valid && j.Valid && i.Int64 == j.Int64
}

func (i FlowID) Value() (driver.Value, error) {
	if !i.Valid {
		return nil, nil
	}
	return i.Int64, nil
}

func (i *FlowID) Scan(value interface{}) error {
	temp := sql.NullInt64(*i)
	err := temp.Scan(value)
	if err != nil {
		return err
	}
	*i = FlowID(temp)
	return nil
}

func (i FlowID) MarshalJSON() ([]byte, error) {
	if i.Valid {
		return json.Marshal(i.Int64)
	} else {
		return json.Marshal(nil)
	}
}

func (i *FlowID) UnmarshalJSON(data []byte) error {
	temp, err := FlowIDFromString(string(data))
	if err != nil {
		return err
	}
	*i = temp
	return nil
}

func (i FlowID) String() string {
	if !i.Valid {
		return "null"
	}
	return fmt.Sprint(i.Int64)
}

func FlowIDFromString(s string) (FlowID, error) {
	if s == "" || s == "null" {
		return FlowID{Int64: 0, Valid: false}, nil
	}
	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return FlowID{Int64: 0, Valid: false}, err
	}
	return FlowID{Int64: i, Valid: true}, nil
}

func FlowIDFromCadence(v cadence.Value) (FlowID, error) {
	u, ok := v.(cadence.UInt64)
	if !ok {
		return FlowID{}, fmt.Errorf("unable to parse FlowID from cadence value: %v", v)
	}
	return FlowIDFromUint64(uint64(u)), nil
}
