package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/beesaferoot/rentledger/models"
	"github.com/beesaferoot/rentledger/period"
)

func total(month string, v int64) monthTotal {
	return monthTotal{Month: period.MustParse(month), Total: decimal.NewFromInt(v)}
}

func TestPlanAllocations(t *testing.T) {
	cases := []struct {
		name    string
		amount  int64
		month   string
		charged []monthTotal
		applied []monthTotal
		want    map[string]int64
		credit  int64
	}{
		{
			name:    "fills oldest first",
			amount:  15000,
			month:   "2024-03",
			charged: []monthTotal{total("2024-02", 10000), total("2024-01", 10000)},
			want:    map[string]int64{"2024-01": 10000, "2024-02": 5000},
		},
		{
			name:    "partially paid month",
			amount:  6000,
			month:   "2024-02",
			charged: []monthTotal{total("2024-01", 10000), total("2024-02", 10000)},
			applied: []monthTotal{total("2024-01", 7000)},
			want:    map[string]int64{"2024-01": 3000, "2024-02": 3000},
		},
		{
			name:    "credit after last charge",
			amount:  12000,
			month:   "2024-01",
			charged: []monthTotal{total("2024-01", 10000)},
			want:    map[string]int64{"2024-01": 10000, "2024-02": 2000},
			credit:  2000,
		},
		{
			name:    "credit in a later payment month",
			amount:  5000,
			month:   "2024-06",
			charged: []monthTotal{total("2024-01", 10000)},
			applied: []monthTotal{total("2024-01", 10000)},
			want:    map[string]int64{"2024-06": 5000},
			credit:  5000,
		},
		{
			name:   "no charges",
			amount: 3000,
			month:  "2024-04",
			want:   map[string]int64{"2024-04": 3000},
			credit: 3000,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			payment := models.Payment{ID: 9, Amount: decimal.NewFromInt(tc.amount), PaymentMonth: period.MustParse(tc.month)}
			allocs, credit := planAllocations(payment, tc.charged, tc.applied)

			got := map[string]int64{}
			sum := decimal.Zero
			for _, a := range allocs {
				assert.Equal(t, uint(9), a.PaymentID)
				got[a.AppliedMonth.String()] += a.Amount.IntPart()
				sum = sum.Add(a.Amount)
			}
			assert.Equal(t, tc.want, got)
			assert.True(t, sum.Equal(payment.Amount))
			assert.True(t, credit.Equal(decimal.NewFromInt(tc.credit)), credit.String())
		})
	}
}
