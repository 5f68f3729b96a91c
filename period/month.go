// Package period provides the calendar-month value used for charge, payment
// and allocation months.
package period

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"time"
)

const layout = "2006-01"

// ErrInvalidMonth is returned when a value cannot be read as YYYY-MM.
var ErrInvalidMonth = errors.New("invalid month")

// Month is a calendar month. The zero value means "unset".
type Month struct {
	year  int
	month time.Month
}

// New returns the month for year and m, normalising overflowing months.
func New(year int, m time.Month) Month {
	return Of(time.Date(year, m, 1, 0, 0, 0, 0, time.UTC))
}

// Of returns the month containing t, in t's location.
func Of(t time.Time) Month {
	return Month{year: t.Year(), month: t.Month()}
}

// Parse reads a "YYYY-MM" string.
func Parse(s string) (Month, error) {
	t, err := time.Parse(layout, s)
	if err != nil {
		return Month{}, fmt.Errorf("%w: %q", ErrInvalidMonth, s)
	}
	return Of(t), nil
}

// MustParse is Parse for constants in tests and fixtures.
func MustParse(s string) Month {
	m, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return m
}

func (m Month) Year() int         { return m.year }
func (m Month) Month() time.Month { return m.month }
func (m Month) IsZero() bool      { return m.year == 0 && m.month == 0 }

// Start is midnight UTC on the first day of the month.
func (m Month) Start() time.Time {
	return time.Date(m.year, m.month, 1, 0, 0, 0, 0, time.UTC)
}

// DaysIn is the number of days in the month.
func (m Month) DaysIn() int {
	return time.Date(m.year, m.month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func (m Month) AddMonths(n int) Month {
	return Of(m.Start().AddDate(0, n, 0))
}

// MonthsSince returns m - other in whole months; negative when m is earlier.
func (m Month) MonthsSince(other Month) int {
	return (m.year-other.year)*12 + int(m.month) - int(other.month)
}

func (m Month) Before(other Month) bool { return m.MonthsSince(other) < 0 }
func (m Month) After(other Month) bool  { return m.MonthsSince(other) > 0 }

func (m Month) String() string {
	if m.IsZero() {
		return ""
	}
	return fmt.Sprintf("%04d-%02d", m.year, int(m.month))
}

// Range lists every month from..to inclusive. It is empty when from is after to.
func Range(from, to Month) []Month {
	n := to.MonthsSince(from)
	if n < 0 {
		return nil
	}
	months := make([]Month, 0, n+1)
	for i := 0; i <= n; i++ {
		months = append(months, from.AddMonths(i))
	}
	return months
}

func (m Month) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Month) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*m = Month{}
		return nil
	}
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Value stores the month as "YYYY-MM" so that string order is date order.
func (m Month) Value() (driver.Value, error) {
	if m.IsZero() {
		return nil, nil
	}
	return m.String(), nil
}

func (m *Month) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		*m = Month{}
		return nil
	case string:
		return m.UnmarshalText([]byte(v))
	case []byte:
		return m.UnmarshalText(v)
	case time.Time:
		*m = Of(v)
		return nil
	default:
		return fmt.Errorf("%w: unsupported type %T", ErrInvalidMonth, value)
	}
}

// GormDataType keeps gorm from treating Month as an embedded struct.
func (Month) GormDataType() string {
	return "string"
}
