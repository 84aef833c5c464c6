package commission

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculator_Calculate(t *testing.T) {
	calc, err := NewCalculator(decimal.NewFromInt(20), decimal.NewFromInt(18))
	require.NoError(t, err)

	tests := []struct {
		name  string
		gross int64
		want  Breakdown
	}{
		{
			name:  "正常系: 切りの良い金額",
			gross: 10000,
			want: Breakdown{
				GrossAmount:        10000,
				HostShare:          8000,
				PlatformCommission: 2000,
				TaxOnCommission:    360,
				NetCommission:      1640,
			},
		},
		{
			name:  "正常系: 端数のある金額",
			gross: 9999,
			want: Breakdown{
				GrossAmount:        9999,
				HostShare:          7999,
				PlatformCommission: 2000,
				TaxOnCommission:    360,
				NetCommission:      1640,
			},
		},
		{
			// 2.6 → 3、純手数料は 3 × 0.82 = 2.46 → 2、税額は差の 1
			name:  "正常系: 純手数料は保存する手数料額から求める",
			gross: 13,
			want: Breakdown{
				GrossAmount:        13,
				HostShare:          10,
				PlatformCommission: 3,
				TaxOnCommission:    1,
				NetCommission:      2,
			},
		},
		{
			name:  "正常系: E2Eシナリオの金額",
			gross: 5000,
			want: Breakdown{
				GrossAmount:        5000,
				HostShare:          4000,
				PlatformCommission: 1000,
				TaxOnCommission:    180,
				NetCommission:      820,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := calc.Calculate(tt.gross)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got.GrossAmount, got.HostShare+got.PlatformCommission)
			assert.Equal(t, got.PlatformCommission-got.TaxOnCommission, got.NetCommission)
			assert.Equal(t, expectedNet(got.PlatformCommission, calc.TaxRate()), got.NetCommission)
		})
	}
}

// expectedNet 保存された手数料額に (1 − 税率) を掛けて四捨五入した値
func expectedNet(platform int64, taxRate decimal.Decimal) int64 {
	ratio := decimal.NewFromInt(100).Sub(taxRate).Div(decimal.NewFromInt(100))
	return decimal.NewFromInt(platform).Mul(ratio).Round(0).IntPart()
}

func TestCalculator_Calculate_NetInvariant(t *testing.T) {
	calc, err := NewCalculator(decimal.NewFromInt(20), decimal.NewFromInt(18))
	require.NoError(t, err)

	for gross := int64(1); gross <= 2000; gross++ {
		got, err := calc.Calculate(gross)
		require.NoError(t, err)
		require.Equal(t, expectedNet(got.PlatformCommission, calc.TaxRate()), got.NetCommission, "gross=%d", gross)
		require.Equal(t, got.PlatformCommission, got.TaxOnCommission+got.NetCommission, "gross=%d", gross)
		require.GreaterOrEqual(t, got.TaxOnCommission, int64(0), "gross=%d", gross)
	}
}

func TestCalculator_Calculate_HalfUp(t *testing.T) {
	// 12.5% × 4 = 0.5 → 1
	calc, err := NewCalculator(decimal.RequireFromString("12.5"), decimal.Zero)
	require.NoError(t, err)

	got, err := calc.Calculate(4)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.PlatformCommission)
	assert.Equal(t, int64(3), got.HostShare)
}

func TestCalculator_Calculate_InvalidGross(t *testing.T) {
	calc, err := NewCalculator(decimal.NewFromInt(20), decimal.NewFromInt(18))
	require.NoError(t, err)

	_, err = calc.Calculate(0)
	assert.ErrorIs(t, err, ErrInvalidGrossAmount)
	_, err = calc.Calculate(-100)
	assert.ErrorIs(t, err, ErrInvalidGrossAmount)
}

func TestNewCalculator_InvalidRate(t *testing.T) {
	tests := []struct {
		name string
		rate decimal.Decimal
		tax  decimal.Decimal
	}{
		{"異常系: 負の手数料率", decimal.NewFromInt(-1), decimal.NewFromInt(18)},
		{"異常系: 100%超の手数料率", decimal.NewFromInt(101), decimal.NewFromInt(18)},
		{"異常系: 負の税率", decimal.NewFromInt(20), decimal.NewFromInt(-5)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCalculator(tt.rate, tt.tax)
			assert.ErrorIs(t, err, ErrInvalidRate)
		})
	}
}
