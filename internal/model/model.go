// Package model содержит доменные сущности маркетплейса вторсырья KleanLoop.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountKind описывает тип учётной записи.
type AccountKind string

const (
	AccountPersonal  AccountKind = "personal"
	AccountCorporate AccountKind = "corporate"
)

// Valid сообщает, является ли значение известным типом учётной записи.
func (k AccountKind) Valid() bool {
	return k == AccountPersonal || k == AccountCorporate
}

// Tier описывает уровень репутации пользователя.
type Tier string

const (
	TierBronze    Tier = "bronze"
	TierSilver    Tier = "silver"
	TierGold      Tier = "gold"
	TierPlatinum  Tier = "platinum"
	TierCorporate Tier = "corporate"
)

// Material описывает тип пластика в заявке на продажу.
type Material string

const (
	MaterialPET   Material = "PET"
	MaterialHDPE  Material = "HDPE"
	MaterialLDPE  Material = "LDPE"
	MaterialPP    Material = "PP"
	MaterialMixed Material = "mixed"
)

// Valid сообщает, входит ли материал в фиксированный перечень.
func (m Material) Valid() bool {
	switch m {
	case MaterialPET, MaterialHDPE, MaterialLDPE, MaterialPP, MaterialMixed:
		return true
	}
	return false
}

// TransactionStatus описывает состояние заявки на продажу.
type TransactionStatus string

const (
	StatusPending   TransactionStatus = "pending"
	StatusCompleted TransactionStatus = "completed"
	StatusCancelled TransactionStatus = "cancelled"
)

// Valid сообщает, является ли значение известным статусом.
func (s TransactionStatus) Valid() bool {
	return s == StatusPending || s == StatusCompleted || s == StatusCancelled
}

// Category описывает категорию уведомления.
type Category string

const (
	CategoryPickup Category = "pickup"
	CategoryReward Category = "reward"
	CategorySystem Category = "system"
)

// Valid сообщает, является ли значение известной категорией.
func (c Category) Valid() bool {
	return c == CategoryPickup || c == CategoryReward || c == CategorySystem
}

// User представляет зарегистрированного пользователя маркетплейса.
type User struct {
	ID           int64
	Email        string
	PasswordHash []byte
	Name         string
	Kind         AccountKind
	CompanyName  *string
	Points       int64
	Tier         Tier
	CreatedAt    time.Time
}

// Suspended сообщает, заблокирована ли учётная запись из-за отрицательного баланса баллов.
func (u *User) Suspended() bool {
	return u.Points < 0
}

// Transaction описывает заявку на продажу пластика.
type Transaction struct {
	ID         int64
	UserID     int64
	Material   Material
	Weight     decimal.Decimal
	PricePerKg decimal.Decimal
	BasePrice  decimal.Decimal
	TierBonus  decimal.Decimal
	ServiceFee decimal.Decimal
	Total      decimal.Decimal
	Status     TransactionStatus
	PhotoRef   string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Credit описывает покупку пластиковых кредитов корпоративным клиентом.
type Credit struct {
	ID             int64
	UserID         int64
	PackageID      string
	Amount         int64
	PricePerCredit decimal.Decimal
	TotalPrice     decimal.Decimal
	CertificateRef string
	CreatedAt      time.Time
}

// Notification описывает уведомление пользователя.
type Notification struct {
	ID          int64
	UserID      int64
	Title       string
	Description string
	Category    Category
	IsRead      bool
	CreatedAt   time.Time
}

// UserStats содержит агрегаты по завершённым продажам и покупкам кредитов.
type UserStats struct {
	TotalSales    int64
	TotalKg       decimal.Decimal
	TotalEarnings decimal.Decimal
	TotalCredits  int64
}
