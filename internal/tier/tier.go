// Package tier сопоставляет баллы репутации уровням пользователя.
package tier

import (
	"github.com/shopspring/decimal"

	"github.com/mmeshcher/kleanloop/internal/model"
)

// Info описывает диапазон баллов уровня и его параметры.
type Info struct {
	Tier       model.Tier
	Name       string
	MinPoints  int64
	MaxPoints  *int64
	MinWeight  decimal.Decimal
	Multiplier decimal.Decimal
	Priority   string
}

// BonusPercent возвращает надбавку уровня в процентах, например 25 для множителя 1.25.
func (i Info) BonusPercent() decimal.Decimal {
	return i.Multiplier.Sub(decimal.NewFromInt(1)).Mul(decimal.NewFromInt(100))
}

func maxPoints(v int64) *int64 { return &v }

// ladder упорядочен по возрастанию MinPoints, диапазоны смежные и не пересекаются.
var ladder = []Info{
	{
		Tier:       model.TierBronze,
		Name:       "Bronze",
		MinPoints:  0,
		MaxPoints:  maxPoints(499),
		MinWeight:  decimal.NewFromInt(5),
		Multiplier: decimal.NewFromInt(1),
		Priority:   "Normal",
	},
	{
		Tier:       model.TierSilver,
		Name:       "Silver",
		MinPoints:  500,
		MaxPoints:  maxPoints(1999),
		MinWeight:  decimal.NewFromInt(3),
		Multiplier: decimal.RequireFromString("1.1"),
		Priority:   "High",
	},
	{
		Tier:       model.TierGold,
		Name:       "Gold",
		MinPoints:  2000,
		MaxPoints:  maxPoints(4999),
		MinWeight:  decimal.NewFromInt(2),
		Multiplier: decimal.RequireFromString("1.25"),
		Priority:   "Highest",
	},
	{
		Tier:       model.TierPlatinum,
		Name:       "Platinum",
		MinPoints:  5000,
		MinWeight:  decimal.NewFromInt(1),
		Multiplier: decimal.RequireFromString("1.5"),
		Priority:   "VIP",
	},
}

var corporate = Info{
	Tier:       model.TierCorporate,
	Name:       "Corporate",
	MinPoints:  0,
	MinWeight:  decimal.Zero,
	Multiplier: decimal.NewFromInt(1),
	Priority:   "Corporate",
}

// Ladder возвращает уровни персональных аккаунтов по возрастанию.
func Ladder() []Info {
	res := make([]Info, len(ladder))
	copy(res, ladder)
	return res
}

// Resolve возвращает наивысший уровень, чей порог не превышает points.
// Отрицательные баллы относятся к нижнему уровню.
func Resolve(points int64) Info {
	res := ladder[0]
	for _, t := range ladder[1:] {
		if points >= t.MinPoints {
			res = t
		}
	}
	return res
}

// ForAccount возвращает уровень с учётом типа аккаунта: корпоративные закреплены за уровнем corporate.
func ForAccount(kind model.AccountKind, points int64) Info {
	if kind == model.AccountCorporate {
		return corporate
	}
	return Resolve(points)
}

// Lookup возвращает описание уровня по имени.
func Lookup(t model.Tier) (Info, bool) {
	if t == model.TierCorporate {
		return corporate, true
	}
	for _, i := range ladder {
		if i.Tier == t {
			return i, true
		}
	}
	return Info{}, false
}

// Progress возвращает прогресс внутри текущего уровня в процентах [0, 100].
func Progress(points int64) float64 {
	cur := Resolve(points)
	if cur.MaxPoints == nil {
		return 100
	}

	p := float64(points-cur.MinPoints) / float64(*cur.MaxPoints-cur.MinPoints) * 100
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	}
	return p
}

// Next возвращает следующий уровень лестницы.
func Next(t model.Tier) (Info, bool) {
	for i, info := range ladder {
		if info.Tier == t && i+1 < len(ladder) {
			return ladder[i+1], true
		}
	}
	return Info{}, false
}

// PointsToNext возвращает число баллов до следующего уровня, 0 для верхнего.
func PointsToNext(points int64) int64 {
	next, ok := Next(Resolve(points).Tier)
	if !ok {
		return 0
	}
	if diff := next.MinPoints - points; diff > 0 {
		return diff
	}
	return 0
}

// Rank возвращает порядковый номер уровня в лестнице, -1 для уровней вне неё.
func Rank(t model.Tier) int {
	for i, info := range ladder {
		if info.Tier == t {
			return i
		}
	}
	return -1
}

// Less сообщает, ниже ли уровень a уровня b.
func Less(a, b model.Tier) bool {
	return Rank(a) < Rank(b)
}
