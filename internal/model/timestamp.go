package model

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// Layouts used for OTP timestamps. Rows are always written with microseconds
// but rows written by older builds only carry whole seconds.
const (
	TimestampLayout        = "2006-01-02 15:04:05.000000"
	TimestampLayoutSeconds = "2006-01-02 15:04:05"
)

// Timestamp is a UTC time stored as text. Both layouts sort lexicographically
// in time order, so range predicates work directly in SQL.
//
// A value that can't be parsed scans without error but with Valid set to
// false. Callers must treat such a timestamp as already expired.
type Timestamp struct {
	Time  time.Time
	Valid bool
}

func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.UTC(), Valid: true}
}

// ParseTimestamp tries the fractional layout first and falls back to whole seconds
func ParseTimestamp(s string) (time.Time, error) {
	t, err := time.ParseInLocation(TimestampLayout, s, time.UTC)
	if err == nil {
		return t, nil
	}

	t, err = time.ParseInLocation(TimestampLayoutSeconds, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("unparsable timestamp %q", s)
	}

	return t, nil
}

// GormDataType makes gorm create a text column on every dialect
func (Timestamp) GormDataType() string {
	return "string"
}

// Value implements the driver.Valuer interface.
func (t Timestamp) Value() (driver.Value, error) {
	if !t.Valid {
		return nil, nil
	}

	return t.Time.UTC().Format(TimestampLayout), nil
}

// Scan implements the sql.Scanner interface.
func (t *Timestamp) Scan(value interface{}) error {
	*t = Timestamp{}

	var str string
	switch v := value.(type) {
	case nil:
		return nil
	case time.Time:
		*t = NewTimestamp(v)
		return nil
	case string:
		str = v
	case []byte:
		str = string(v)
	default:
		return nil
	}

	parsed, err := ParseTimestamp(str)
	if err != nil {
		return nil
	}

	*t = Timestamp{Time: parsed, Valid: true}
	return nil
}

// After reports whether t is a valid time strictly after u
func (t Timestamp) After(u time.Time) bool {
	return t.Valid && t.Time.After(u)
}

func (t Timestamp) String() string {
	if !t.Valid {
		return "invalid"
	}

	return t.Time.Format(TimestampLayout)
}
