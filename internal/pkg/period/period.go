package period

import (
	"fmt"
	"time"
)

const layout = "2006-01"

// Period is a calendar month, the key unit for payroll and leave ledgers.
type Period struct {
	Year  int
	Month time.Month
}

func New(year int, month time.Month) Period {
	return Period{Year: year, Month: month}
}

// Parse parses a "YYYY-MM" string.
func Parse(s string) (Period, error) {
	t, err := time.Parse(layout, s)
	if err != nil {
		return Period{}, fmt.Errorf("invalid period %q: expected YYYY-MM", s)
	}
	return Period{Year: t.Year(), Month: t.Month()}, nil
}

// Of returns the period that contains t.
func Of(t time.Time) Period {
	return Period{Year: t.Year(), Month: t.Month()}
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

func (p Period) IsZero() bool {
	return p.Year == 0 && p.Month == 0
}

// Start returns the first day of the month at 00:00 in loc.
func (p Period) Start(loc *time.Location) time.Time {
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, loc)
}

// End returns the last day of the month at 00:00 in loc.
func (p Period) End(loc *time.Location) time.Time {
	return p.Start(loc).AddDate(0, 1, -1)
}

// DaysIn returns the number of calendar days in the month.
func (p Period) DaysIn() int {
	return p.End(time.UTC).Day()
}

func (p Period) Before(q Period) bool {
	if p.Year != q.Year {
		return p.Year < q.Year
	}
	return p.Month < q.Month
}

func (p Period) Previous() Period {
	return Of(p.Start(time.UTC).AddDate(0, -1, 0))
}

func (p Period) Next() Period {
	return Of(p.Start(time.UTC).AddDate(0, 1, 0))
}

// Days returns every calendar date of the month, in order.
func (p Period) Days(loc *time.Location) []time.Time {
	n := p.DaysIn()
	days := make([]time.Time, 0, n)
	start := p.Start(loc)
	for i := 0; i < n; i++ {
		days = append(days, start.AddDate(0, 0, i))
	}
	return days
}

// DateOnly truncates t to midnight in its own location.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// SameDate reports whether a and b fall on the same calendar date.
func SameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// DateKey formats t as "YYYY-MM-DD", used as a map key for calendars.
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

func (p Period) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Period) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
