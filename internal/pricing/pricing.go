package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/sehaty/sehaty-backend/internal/domain"
)

const ServiceFeeLabel = "service fee"

// Calculator totals a booking's fee lines and appends the platform service
// fee, a configured percentage of the subtotal rounded half-up to the nearest
// minor unit.
type Calculator struct {
	serviceFeePct decimal.Decimal
}

func NewCalculator(serviceFeePct float64) *Calculator {
	return &Calculator{serviceFeePct: decimal.NewFromFloat(serviceFeePct)}
}

func (c *Calculator) Total(fees []domain.FeeLine) ([]domain.FeeLine, int64, error) {
	var subtotal int64
	for _, f := range fees {
		if f.Amount <= 0 {
			return nil, 0, fmt.Errorf("Total: fee %q: %w", f.Label, domain.ErrInvalidAmount)
		}
		subtotal += f.Amount
	}
	if subtotal <= 0 {
		return nil, 0, fmt.Errorf("Total: %w", domain.ErrInvalidAmount)
	}

	serviceFee := decimal.NewFromInt(subtotal).
		Mul(c.serviceFeePct).
		Round(0).
		IntPart()

	lines := make([]domain.FeeLine, 0, len(fees)+1)
	lines = append(lines, fees...)
	if serviceFee > 0 {
		lines = append(lines, domain.FeeLine{Label: ServiceFeeLabel, Amount: serviceFee})
	}

	return lines, subtotal + serviceFee, nil
}
