// Package pricing рассчитывает стоимость заявки на продажу пластика.
package pricing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mmeshcher/kleanloop/internal/model"
)

var (
	// ErrUnknownMaterial возвращается для материала вне таблицы цен.
	ErrUnknownMaterial = errors.New("unknown material")
	// ErrNonPositiveWeight возвращается, если вес не больше нуля.
	ErrNonPositiveWeight = errors.New("weight must be positive")
	// ErrMultiplierBelowOne возвращается, если множитель уровня меньше единицы.
	ErrMultiplierBelowOne = errors.New("tier multiplier must be at least 1")
)

// ServiceFee фиксированная комиссия за каждую заявку.
var ServiceFee = decimal.NewFromInt(5)

var pointsPerKg = decimal.NewFromInt(10)

// MaterialPrice описывает диапазон цен за килограмм материала.
type MaterialPrice struct {
	Material model.Material
	Name     string
	Min      decimal.Decimal
	Max      decimal.Decimal
	Avg      decimal.Decimal
}

var priceTable = []MaterialPrice{
	{Material: model.MaterialPET, Name: "PET Bottles", Min: decimal.NewFromInt(8), Max: decimal.NewFromInt(15), Avg: decimal.NewFromInt(12)},
	{Material: model.MaterialHDPE, Name: "HDPE Plastic", Min: decimal.NewFromInt(5), Max: decimal.NewFromInt(10), Avg: decimal.NewFromInt(8)},
	{Material: model.MaterialLDPE, Name: "LDPE/PP Film", Min: decimal.Zero, Max: decimal.NewFromInt(3), Avg: decimal.RequireFromString("1.5")},
	{Material: model.MaterialPP, Name: "PP Plastic", Min: decimal.NewFromInt(2), Max: decimal.NewFromInt(6), Avg: decimal.NewFromInt(4)},
	{Material: model.MaterialMixed, Name: "Mixed Plastic", Min: decimal.Zero, Max: decimal.Zero, Avg: decimal.Zero},
}

// Breakdown содержит детализацию цены заявки.
type Breakdown struct {
	PricePerKg decimal.Decimal
	BasePrice  decimal.Decimal
	TierBonus  decimal.Decimal
	ServiceFee decimal.Decimal
	Total      decimal.Decimal
}

// Materials возвращает копию таблицы цен.
func Materials() []MaterialPrice {
	res := make([]MaterialPrice, len(priceTable))
	copy(res, priceTable)
	return res
}

// AveragePricePerKg возвращает среднюю цену за килограмм материала.
func AveragePricePerKg(m model.Material) (decimal.Decimal, error) {
	for _, p := range priceTable {
		if p.Material == m {
			return p.Avg, nil
		}
	}
	return decimal.Zero, fmt.Errorf("%w: %q", ErrUnknownMaterial, m)
}

// Calculate рассчитывает цену заявки. Одна и та же функция используется для предварительной
// оценки и для сохраняемой заявки, поэтому результаты совпадают.
func Calculate(m model.Material, weight, multiplier decimal.Decimal) (Breakdown, error) {
	if !weight.IsPositive() {
		return Breakdown{}, ErrNonPositiveWeight
	}
	if multiplier.LessThan(decimal.NewFromInt(1)) {
		return Breakdown{}, ErrMultiplierBelowOne
	}

	avg, err := AveragePricePerKg(m)
	if err != nil {
		return Breakdown{}, err
	}

	base := avg.Mul(weight)
	bonus := base.Mul(multiplier.Sub(decimal.NewFromInt(1)))
	total := base.Add(bonus).Sub(ServiceFee)
	if total.IsNegative() {
		total = decimal.Zero
	}

	return Breakdown{
		PricePerKg: avg,
		BasePrice:  base,
		TierBonus:  bonus,
		ServiceFee: ServiceFee,
		Total:      total,
	}, nil
}

// PointsForWeight возвращает баллы репутации за заявку: floor(weight * 10).
func PointsForWeight(weight decimal.Decimal) int64 {
	if !weight.IsPositive() {
		return 0
	}
	return weight.Mul(pointsPerKg).Floor().IntPart()
}
