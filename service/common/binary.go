package common

import (
	"database/sql/driver"
	"encoding/hex"
	"fmt"
)

type BinaryValue []byte

func (b BinaryValue) IsEmpty() bool {
	return len(b) == 0
}

func (b BinaryValue) String() string {
	return hex.EncodeToString(b)
}

func (b BinaryValue) Value() (driver.Value, error) {
	return []byte(b), nil
}

func (b *BinaryValue) Scan(value interface{}) error {
	if value == nil {
		*b = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("failed to unmarshal BinaryValue value: %v", value)
	}
	*b = append((*b)[:0], bytes...)
	return nil
}

func (b BinaryValue) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("\"%s\"", hex.EncodeToString(b))), nil
}
