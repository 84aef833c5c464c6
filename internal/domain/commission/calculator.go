package commission

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Breakdown 予約総額の配分結果（すべて最小通貨単位）
type Breakdown struct {
	GrossAmount        int64
	HostShare          int64
	PlatformCommission int64
	TaxOnCommission    int64
	NetCommission      int64
}

// Calculator 手数料計算機
// 率はパーセンテージ（例: 20 は 20%）で保持する
type Calculator struct {
	commissionRate decimal.Decimal
	taxRate        decimal.Decimal
}

// NewCalculator 新しいCalculatorを作成
func NewCalculator(commissionRate, taxRate decimal.Decimal) (*Calculator, error) {
	if commissionRate.IsNegative() || commissionRate.GreaterThan(hundred) {
		return nil, ErrInvalidRate
	}
	if taxRate.IsNegative() || taxRate.GreaterThan(hundred) {
		return nil, ErrInvalidRate
	}
	return &Calculator{
		commissionRate: commissionRate,
		taxRate:        taxRate,
	}, nil
}

// CommissionRate 手数料率（%）を返す
func (c *Calculator) CommissionRate() decimal.Decimal {
	return c.commissionRate
}

// TaxRate 手数料に対する税率（%）を返す
func (c *Calculator) TaxRate() decimal.Decimal {
	return c.taxRate
}

// Calculate 総額から配分を計算する
// 手数料は正確な値から一度だけ丸め、純手数料は保存する手数料額から一度だけ丸める
// 税額は両者の差とし、net == platform × (1 − 税率) を保存値どうしで満たす
func (c *Calculator) Calculate(gross int64) (Breakdown, error) {
	if gross <= 0 {
		return Breakdown{}, ErrInvalidGrossAmount
	}

	platform := roundHalfUp(decimal.NewFromInt(gross).Mul(c.commissionRate).Div(hundred))
	netRatio := hundred.Sub(c.taxRate).Div(hundred)
	net := roundHalfUp(decimal.NewFromInt(platform).Mul(netRatio))

	return Breakdown{
		GrossAmount:        gross,
		HostShare:          gross - platform,
		PlatformCommission: platform,
		TaxOnCommission:    platform - net,
		NetCommission:      net,
	}, nil
}

// roundHalfUp 非負の値を整数へ四捨五入する
func roundHalfUp(d decimal.Decimal) int64 {
	// decimal.Round は0から遠い方向への丸めなので非負値では四捨五入と一致する
	return d.Round(0).IntPart()
}
