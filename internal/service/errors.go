package service

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mmeshcher/kleanloop/internal/model"
)

// Виды ошибок бизнес-логики. Ни одна из них не повторяется автоматически.
var (
	// ErrValidation некорректные входные данные: вес, материал, пакет, отсутствующее обязательное поле.
	ErrValidation = errors.New("validation failed")
	// ErrForbidden операция недоступна для типа аккаунта или вызывающий не владелец записи.
	ErrForbidden = errors.New("operation not permitted")
	// ErrNotFound неизвестный идентификатор заявки, пользователя или уведомления.
	ErrNotFound = errors.New("not found")
	// ErrStateConflict переход запрошен для заявки не в статусе pending.
	ErrStateConflict = errors.New("transaction is not pending")
	// ErrSuspended аккаунт заблокирован из-за отрицательного баланса баллов.
	ErrSuspended = errors.New("account suspended")
	// ErrInvalidCredentials неверный email или пароль.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNotificationFailed уведомление не удалось сохранить после фиксации перехода.
	ErrNotificationFailed = errors.New("notification emission failed")
)

// StateConflictError содержит текущий статус заявки для диагностики.
type StateConflictError struct {
	TransactionID int64
	Status        model.TransactionStatus
}

func (e *StateConflictError) Error() string {
	return fmt.Sprintf("transaction %d is %s, not pending", e.TransactionID, e.Status)
}

func (e *StateConflictError) Unwrap() error {
	return ErrStateConflict
}

// SuspensionError сообщает, что операция остановлена блокировкой аккаунта.
type SuspensionError struct {
	UserID int64
	// pending означает, что блокировка вызвана текущей операцией и ещё не записана.
	pending bool
	// delta изменение баллов, которое увело бы баланс в минус.
	delta int64
}

func (e *SuspensionError) Error() string {
	return fmt.Sprintf("account %d is suspended: reputation points below zero", e.UserID)
}

func (e *SuspensionError) Unwrap() error {
	return ErrSuspended
}

// MinWeightError сообщает, что вес заявки меньше минимального для уровня пользователя.
type MinWeightError struct {
	Tier      model.Tier
	MinWeight decimal.Decimal
	Weight    decimal.Decimal
}

func (e *MinWeightError) Error() string {
	return fmt.Sprintf("minimum weight for tier %s is %s kg, got %s kg", e.Tier, e.MinWeight, e.Weight)
}

func (e *MinWeightError) Unwrap() error {
	return ErrValidation
}

// errBalanceChanged баланс изменился между откатом операции и записью блокировки.
var errBalanceChanged = errors.New("balance changed before suspension")

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
