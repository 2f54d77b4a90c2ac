package service

import (
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/rentledger/payment-engine/internal/domain"
	"github.com/rentledger/payment-engine/internal/logger"
	customError "github.com/rentledger/payment-engine/pkg/errors"
	"github.com/rentledger/payment-engine/pkg/money"
)

// FeeCalculator computes late and processing fees. Both fees are
// fixed + amount * percentage / 100, rounded half away from zero to cents.
type FeeCalculator struct {
	logger *slog.Logger
}

func NewFeeCalculator(log *slog.Logger) *FeeCalculator {
	return &FeeCalculator{logger: logger.OrDiscard(log)}
}

// ComputeLateFee returns the fee owed for a payment daysLate days past due.
// A payment inside the rule's grace period owes nothing. A missing or
// inactive rule means no late fee.
func (c *FeeCalculator) ComputeLateFee(rule *domain.LateFeeRule, amount decimal.Decimal, daysLate int) decimal.Decimal {
	if rule == nil || !rule.IsActive {
		c.logger.Debug("late fee is zero",
			slog.Any("error", customError.WrapConfiguration("no active late fee rule")))
		return decimal.Zero
	}
	if daysLate <= 0 || daysLate < rule.GracePeriodDays {
		return decimal.Zero
	}
	return money.FixedPlusPercent(rule.FixedAmount, rule.Percentage, amount)
}

// ComputeProcessingFee returns the method's fee for amount. A missing or
// inactive method means no processing fee.
func (c *FeeCalculator) ComputeProcessingFee(method *domain.PaymentMethod, amount decimal.Decimal) decimal.Decimal {
	if method == nil || !method.IsActive {
		c.logger.Debug("processing fee is zero",
			slog.Any("error", customError.WrapConfiguration("no active payment method")))
		return decimal.Zero
	}
	return money.FixedPlusPercent(method.ProcessingFeeFixed, method.ProcessingFeePercentage, amount)
}
