package domain

import (
	"fmt"
	"time"
)

// Period is a calendar month used as a grouping key. It is derived from a
// timestamp on demand and never stored on a ticket.
type Period struct {
	Year  int
	Month time.Month
}

// PeriodOf returns the month containing ts, in ts's own location.
func PeriodOf(ts time.Time) Period {
	return Period{Year: ts.Year(), Month: ts.Month()}
}

// ParsePeriod parses the YYYY-MM form produced by String.
func ParsePeriod(s string) (Period, error) {
	ts, err := time.Parse("2006-01", s)
	if err != nil {
		return Period{}, fmt.Errorf("parse period %q: %w", s, err)
	}
	return PeriodOf(ts), nil
}

// Next returns the following month.
func (p Period) Next() Period {
	if p.Month == time.December {
		return Period{Year: p.Year + 1, Month: time.January}
	}
	return Period{Year: p.Year, Month: p.Month + 1}
}

// Before reports whether p is strictly earlier than other.
func (p Period) Before(other Period) bool {
	if p.Year != other.Year {
		return p.Year < other.Year
	}
	return p.Month < other.Month
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// MarshalText renders the period as YYYY-MM so it can key JSON objects.
func (p Period) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText is the inverse of MarshalText.
func (p *Period) UnmarshalText(b []byte) error {
	parsed, err := ParsePeriod(string(b))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
