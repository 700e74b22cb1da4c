// Package credit содержит каталог пакетов пластиковых кредитов.
package credit

import (
	"errors"

	"github.com/shopspring/decimal"
)

// CustomPackageID идентификатор пакета с произвольным объёмом.
const CustomPackageID = "custom"

var (
	// ErrUnknownPackage возвращается для идентификатора вне каталога.
	ErrUnknownPackage = errors.New("unknown credit package")
	// ErrInvalidAmount возвращается для непозитивного объёма произвольного пакета.
	ErrInvalidAmount = errors.New("credit amount must be positive")
)

var customPricePerCredit = decimal.NewFromInt(25)

// Package описывает пакет кредитов.
type Package struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Amount         int64           `json:"amount"`
	PricePerCredit decimal.Decimal `json:"price_per_credit"`
	Savings        decimal.Decimal `json:"savings"`
	Popular        bool            `json:"popular"`
}

// TotalPrice возвращает amount * price-per-credit.
func (p Package) TotalPrice() decimal.Decimal {
	return p.PricePerCredit.Mul(decimal.NewFromInt(p.Amount))
}

var packages = []Package{
	{ID: "100kg", Name: "100 kg Package", Amount: 100, PricePerCredit: decimal.NewFromInt(25)},
	{ID: "500kg", Name: "500 kg Package", Amount: 500, PricePerCredit: decimal.NewFromInt(22), Savings: decimal.NewFromInt(1500), Popular: true},
	{ID: "1000kg", Name: "1000 kg Package", Amount: 1000, PricePerCredit: decimal.NewFromInt(20), Savings: decimal.NewFromInt(5000)},
}

// Packages возвращает фиксированные пакеты каталога.
func Packages() []Package {
	res := make([]Package, len(packages))
	copy(res, packages)
	return res
}

// Resolve возвращает пакет по идентификатору; для custom используется customAmount.
func Resolve(id string, customAmount int64) (Package, error) {
	if id == CustomPackageID {
		if customAmount <= 0 {
			return Package{}, ErrInvalidAmount
		}
		return Package{
			ID:             CustomPackageID,
			Name:           "Custom Package",
			Amount:         customAmount,
			PricePerCredit: customPricePerCredit,
		}, nil
	}

	for _, p := range packages {
		if p.ID == id {
			return p, nil
		}
	}
	return Package{}, ErrUnknownPackage
}

// CostBreakdown раскладывает цену одного кредита на статьи расходов.
type CostBreakdown struct {
	Logistics       decimal.Decimal `json:"logistics"`
	HouseholdReward decimal.Decimal `json:"household_reward"`
	Sorting         decimal.Decimal `json:"sorting"`
	Disposal        decimal.Decimal `json:"disposal"`
	Admin           decimal.Decimal `json:"admin"`
	Margin          decimal.Decimal `json:"margin"`
}

// Breakdown возвращает раскладку цены; маржа равна остатку после фиксированных статей.
func Breakdown(pricePerCredit decimal.Decimal) CostBreakdown {
	return CostBreakdown{
		Logistics:       decimal.NewFromInt(8),
		HouseholdReward: decimal.NewFromInt(3),
		Sorting:         decimal.NewFromInt(2),
		Disposal:        decimal.NewFromInt(2),
		Admin:           decimal.NewFromInt(3),
		Margin:          pricePerCredit.Sub(decimal.NewFromInt(18)),
	}
}
