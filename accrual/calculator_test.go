package accrual

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beesaferoot/rentledger/models"
	"github.com/beesaferoot/rentledger/period"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestCumulative_BeforeLeaseMonth(t *testing.T) {
	p := Params{
		MonthlyRent:    dec(20000),
		LeaseStart:     date(2024, time.May, 10),
		OpeningBalance: dec(5000),
	}

	for _, target := range []string{"2024-04", "2023-12", "2020-01"} {
		res := Cumulative(p, period.MustParse(target))
		assert.True(t, res.NotYetDue, target)
		assert.True(t, res.Expected.IsZero(), target)
	}
}

func TestFirstMonthCharge(t *testing.T) {
	t.Run("not prorated equals rent", func(t *testing.T) {
		p := Params{MonthlyRent: dec(25000), LeaseStart: date(2024, time.March, 17)}
		assert.True(t, FirstMonthCharge(p).Equal(dec(25000)))
	})

	t.Run("prorated on the 21st of a 30-day month", func(t *testing.T) {
		p := Params{MonthlyRent: dec(30000), LeaseStart: date(2024, time.June, 21), IsProrated: true}
		assert.True(t, FirstMonthCharge(p).Equal(dec(10000)), FirstMonthCharge(p).String())
	})

	t.Run("prorated counts the start day", func(t *testing.T) {
		p := Params{MonthlyRent: dec(31000), LeaseStart: date(2024, time.January, 1), IsProrated: true}
		assert.True(t, FirstMonthCharge(p).Equal(dec(31000)))

		p.LeaseStart = date(2024, time.January, 31)
		assert.True(t, FirstMonthCharge(p).Equal(dec(1000)))
	})

	t.Run("override wins over proration", func(t *testing.T) {
		p := Params{
			MonthlyRent:        dec(30000),
			LeaseStart:         date(2024, time.June, 21),
			IsProrated:         true,
			FirstMonthOverride: decimal.NewNullDecimal(dec(7500)),
		}
		assert.True(t, FirstMonthCharge(p).Equal(dec(7500)))
	})

	t.Run("zero override is still an override", func(t *testing.T) {
		p := Params{MonthlyRent: dec(30000), LeaseStart: date(2024, time.June, 1), FirstMonthOverride: decimal.NewNullDecimal(decimal.Zero)}
		assert.True(t, FirstMonthCharge(p).IsZero())
	})
}

func TestFullMonthsElapsed(t *testing.T) {
	lease := period.MustParse("2024-01")
	assert.Equal(t, 0, FullMonthsElapsed(lease, period.MustParse("2023-11")))
	assert.Equal(t, 0, FullMonthsElapsed(lease, period.MustParse("2024-01")))
	assert.Equal(t, 1, FullMonthsElapsed(lease, period.MustParse("2024-02")))
	assert.Equal(t, 12, FullMonthsElapsed(lease, period.MustParse("2025-01")))
}

func TestCumulative_OverrideScenario(t *testing.T) {
	p := Params{
		MonthlyRent:        dec(20000),
		LeaseStart:         date(2024, time.August, 5),
		OpeningBalance:     dec(5000),
		FirstMonthOverride: decimal.NewNullDecimal(dec(8000)),
	}

	res := Cumulative(p, period.MustParse("2024-09"))
	require.False(t, res.NotYetDue)
	assert.Equal(t, 1, res.FullMonths)
	assert.True(t, res.Expected.Equal(dec(33000)), res.Expected.String())
}

func TestCumulative_Monotonic(t *testing.T) {
	p := Params{
		MonthlyRent: dec(12000),
		LeaseStart:  date(2023, time.February, 14),
		IsProrated:  true,
	}

	prev := decimal.Zero
	for _, m := range period.Range(period.MustParse("2022-10"), period.MustParse("2025-06")) {
		cur := Cumulative(p, m).Expected
		assert.True(t, cur.GreaterThanOrEqual(prev), "%s: %s < %s", m, cur, prev)
		prev = cur
	}
}

func TestCumulative_Defaults(t *testing.T) {
	t.Run("zero rent", func(t *testing.T) {
		p := Params{LeaseStart: date(2024, time.January, 15), IsProrated: true}
		res := Cumulative(p, period.MustParse("2024-06"))
		assert.True(t, res.Expected.IsZero())
	})

	t.Run("negative rent treated as zero", func(t *testing.T) {
		p := Params{MonthlyRent: dec(-500), LeaseStart: date(2024, time.January, 1)}
		res := Cumulative(p, period.MustParse("2024-03"))
		assert.True(t, res.Expected.IsZero())
	})

	t.Run("missing lease start bills the target month only", func(t *testing.T) {
		p := Params{MonthlyRent: dec(15000), OpeningBalance: dec(2000)}
		res := Cumulative(p, period.MustParse("2024-03"))
		assert.False(t, res.NotYetDue)
		assert.Equal(t, 0, res.FullMonths)
		assert.True(t, res.Expected.Equal(dec(17000)))
	})
}

func TestRentSchedule(t *testing.T) {
	p := Params{
		MonthlyRent:        dec(20000),
		LeaseStart:         date(2024, time.October, 20),
		IsProrated:         true,
		FirstMonthOverride: decimal.NewNullDecimal(dec(9000)),
	}

	schedule := RentSchedule(p, period.MustParse("2025-01"))
	require.Len(t, schedule, 4)
	assert.Equal(t, "2024-10", schedule[0].Month.String())
	assert.True(t, schedule[0].Amount.Equal(dec(9000)))
	for _, c := range schedule[1:] {
		assert.True(t, c.Amount.Equal(dec(20000)))
	}

	p.FirstMonthOverride = decimal.NullDecimal{}
	schedule = RentSchedule(p, period.MustParse("2024-10"))
	require.Len(t, schedule, 1)
	assert.True(t, schedule[0].Amount.Equal(dec(20000)))

	assert.Empty(t, RentSchedule(Params{MonthlyRent: dec(1)}, period.MustParse("2024-10")))
	assert.Empty(t, RentSchedule(p, period.MustParse("2024-09")))
}

func TestParamsFromTenant(t *testing.T) {
	start := date(2024, time.February, 1)
	tenant := models.Tenant{
		RentAmount:     dec(18000),
		LeaseStart:     &start,
		OpeningBalance: dec(300),
		IsProrated:     true,
	}
	p := ParamsFromTenant(tenant)
	assert.True(t, p.MonthlyRent.Equal(dec(18000)))
	assert.Equal(t, start, p.LeaseStart)
	assert.True(t, p.IsProrated)

	tenant.LeaseStart = nil
	assert.True(t, ParamsFromTenant(tenant).LeaseStart.IsZero())
}
