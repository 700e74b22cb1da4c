// Package validation содержит функции валидации входных данных.
package validation

import (
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const (
	minPasswordLen = 6
	maxNameLen     = 100
	maxPhotoRefLen = 512
)

// maxWeight верхняя граница веса одной заявки, кг.
var maxWeight = decimal.NewFromInt(10000)

// IsValidEmail проверяет, что строка является одиночным адресом без отображаемого имени.
func IsValidEmail(email string) bool {
	if email == "" || strings.TrimSpace(email) != email {
		return false
	}
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return false
	}
	return addr.Address == email
}

// IsValidPassword проверяет минимальную длину пароля.
func IsValidPassword(password string) bool {
	return utf8.RuneCountInString(password) >= minPasswordLen
}

// IsValidName проверяет, что имя непустое и не слишком длинное.
func IsValidName(name string) bool {
	name = strings.TrimSpace(name)
	return name != "" && utf8.RuneCountInString(name) <= maxNameLen
}

// IsValidPhotoRef проверяет ссылку на фотографию: непустая, без пробелов и управляющих символов.
func IsValidPhotoRef(ref string) bool {
	if ref == "" || len(ref) > maxPhotoRefLen {
		return false
	}
	for _, r := range ref {
		if r <= ' ' || r == 0x7f {
			return false
		}
	}
	return true
}

// IsValidWeight проверяет, что вес положителен и не превышает разумного предела.
func IsValidWeight(weight decimal.Decimal) bool {
	return weight.IsPositive() && weight.LessThanOrEqual(maxWeight)
}
