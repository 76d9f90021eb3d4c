package storage

import (
	"github.com/quantix/backtest/models"
	"github.com/quantix/backtest/plugin"
	"github.com/shopspring/decimal"
)

var _ plugin.CostModel = (*PercentCostModel)(nil)

// PercentCostModel computes transaction costs as fixed percentages of
// trade value, using decimal arithmetic so repeated accumulation across
// a long backtest does not drift the way float64 summation would.
// Borrowing costs default to zero, matching the contract's documented
// default.
type PercentCostModel struct {
	commissionRate  decimal.Decimal
	stampTaxRate    decimal.Decimal // typically charged on sells only
	transferFeeRate decimal.Decimal
	minCommission   decimal.Decimal
}

// NewPercentCostModel builds a PercentCostModel. Rates are fractions
// (0.0003 for 3 bps), minCommission is a flat floor applied after the
// percentage commission is computed.
func NewPercentCostModel(commissionRate, stampTaxRate, transferFeeRate, minCommission float64) *PercentCostModel {
	return &PercentCostModel{
		commissionRate:  decimal.NewFromFloat(commissionRate),
		stampTaxRate:    decimal.NewFromFloat(stampTaxRate),
		transferFeeRate: decimal.NewFromFloat(transferFeeRate),
		minCommission:   decimal.NewFromFloat(minCommission),
	}
}

func (m *PercentCostModel) commission(value decimal.Decimal) decimal.Decimal {
	c := value.Mul(m.commissionRate)
	if c.LessThan(m.minCommission) {
		return m.minCommission
	}
	return c
}

func (m *PercentCostModel) GetBuyCost(_ models.Datetime, _ models.Stock, price, num float64) models.CostRecord {
	value := decimal.NewFromFloat(price).Mul(decimal.NewFromFloat(num))
	commission := m.commission(value)
	transfer := value.Mul(m.transferFeeRate)
	total := commission.Add(transfer)

	return models.CostRecord{
		Commission:  toFloat(commission),
		TransferFee: toFloat(transfer),
		Total:       toFloat(total),
	}
}

func (m *PercentCostModel) GetSellCost(_ models.Datetime, _ models.Stock, price, num float64) models.CostRecord {
	value := decimal.NewFromFloat(price).Mul(decimal.NewFromFloat(num))
	commission := m.commission(value)
	transfer := value.Mul(m.transferFeeRate)
	stampTax := value.Mul(m.stampTaxRate)
	total := commission.Add(transfer).Add(stampTax)

	return models.CostRecord{
		Commission:  toFloat(commission),
		StampTax:    toFloat(stampTax),
		TransferFee: toFloat(transfer),
		Total:       toFloat(total),
	}
}

func (m *PercentCostModel) GetBorrowCashCost(_ models.Datetime, _ float64) models.CostRecord {
	return models.CostRecord{}
}

func (m *PercentCostModel) GetReturnCashCost(_ models.Datetime, _, _, _ float64) models.CostRecord {
	return models.CostRecord{}
}

func (m *PercentCostModel) GetBorrowStockCost(_ models.Datetime, _ models.Stock, _, _ float64) models.CostRecord {
	return models.CostRecord{}
}

func (m *PercentCostModel) GetReturnStockCost(_ models.Datetime, _ models.Stock, _, _ float64) models.CostRecord {
	return models.CostRecord{}
}

func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
