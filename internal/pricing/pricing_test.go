package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sehaty/sehaty-backend/internal/domain"
)

func TestTotal(t *testing.T) {
	tests := []struct {
		name      string
		pct       float64
		fees      []domain.FeeLine
		wantTotal int64
		wantLines int
		wantErr   error
	}{
		{
			name:      "five percent fee",
			pct:       0.05,
			fees:      []domain.FeeLine{{Label: "consultation", Amount: 6000}},
			wantTotal: 6300,
			wantLines: 2,
		},
		{
			name: "multiple lines",
			pct:  0.05,
			fees: []domain.FeeLine{
				{Label: "visit", Amount: 4000},
				{Label: "transport", Amount: 500},
			},
			wantTotal: 4725,
			wantLines: 3,
		},
		{
			name:      "rounding half up",
			pct:       0.05,
			fees:      []domain.FeeLine{{Label: "lab panel", Amount: 4510}},
			wantTotal: 4736, // 225.5 rounds to 226
			wantLines: 2,
		},
		{
			name:      "zero percent adds no line",
			pct:       0,
			fees:      []domain.FeeLine{{Label: "delivery", Amount: 8500}},
			wantTotal: 8500,
			wantLines: 1,
		},
		{
			name:    "empty fees",
			pct:     0.05,
			fees:    nil,
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name:    "non-positive line",
			pct:     0.05,
			fees:    []domain.FeeLine{{Label: "visit", Amount: 0}},
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name:    "negative line",
			pct:     0.05,
			fees:    []domain.FeeLine{{Label: "visit", Amount: -100}},
			wantErr: domain.ErrInvalidAmount,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			calc := NewCalculator(tc.pct)
			lines, total, err := calc.Total(tc.fees)

			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantTotal, total)
			assert.Len(t, lines, tc.wantLines)
		})
	}
}

func TestTotal_ServiceFeeLineLast(t *testing.T) {
	calc := NewCalculator(0.1)
	lines, _, err := calc.Total([]domain.FeeLine{{Label: "consultation", Amount: 1000}})
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, ServiceFeeLabel, lines[1].Label)
	assert.Equal(t, int64(100), lines[1].Amount)
}
