// Package period resolves dates into the (month, year) buckets used for all
// ledger grouping and builds sliding windows of buckets for trend charts.
package period

import (
	"fmt"
	"time"

	"github.com/MrJamesThe3rd/ledgerly/internal/apperror"
)

// Month is a calendar month bucket. Month is 1-12.
type Month struct {
	Month int `json:"month"`
	Year  int `json:"year"`
}

// Of returns the bucket containing t, evaluated in UTC.
func Of(t time.Time) Month {
	t = t.UTC()
	return Month{Month: int(t.Month()), Year: t.Year()}
}

func New(month, year int) (Month, error) {
	m := Month{Month: month, Year: year}
	if err := m.Validate(); err != nil {
		return Month{}, err
	}

	return m, nil
}

func (m Month) Validate() error {
	if m.Month < 1 || m.Month > 12 {
		return apperror.InvalidArgument("month must be between 1 and 12, got %d", m.Month)
	}

	return nil
}

func (m Month) Prev() Month {
	if m.Month == 1 {
		return Month{Month: 12, Year: m.Year - 1}
	}

	return Month{Month: m.Month - 1, Year: m.Year}
}

func (m Month) Next() Month {
	if m.Month == 12 {
		return Month{Month: 1, Year: m.Year + 1}
	}

	return Month{Month: m.Month + 1, Year: m.Year}
}

// Before reports whether m is chronologically earlier than o.
func (m Month) Before(o Month) bool {
	if m.Year != o.Year {
		return m.Year < o.Year
	}

	return m.Month < o.Month
}

// Label formats the bucket as short month name and four digit year, e.g. "Sep 2023".
func (m Month) Label() string {
	return fmt.Sprintf("%s %04d", time.Month(m.Month).String()[:3], m.Year)
}

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, m.Month)
}

// Bucket is one element of a trend window.
type Bucket struct {
	Month
	Label string `json:"label"`
}

// Window returns n consecutive buckets ending at (month, year), oldest first.
// n <= 0 yields an empty window.
func Window(month, year, n int) ([]Bucket, error) {
	end, err := New(month, year)
	if err != nil {
		return nil, err
	}

	if n <= 0 {
		return []Bucket{}, nil
	}

	buckets := make([]Bucket, n)

	cur := end
	for i := n - 1; i >= 0; i-- {
		buckets[i] = Bucket{Month: cur, Label: cur.Label()}
		cur = cur.Prev()
	}

	return buckets, nil
}
