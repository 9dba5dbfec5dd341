// Package taxid реализует валидацию бразильских налоговых идентификаторов:
// CPF (физические лица, 11 цифр) и CNPJ (юридические лица, 14 цифр).
// Проверка выполняется до отправки данных в платёжный шлюз.
package taxid

import (
	"errors"
	"strings"
)

// Kind тип налогового идентификатора.
type Kind string

const (
	// CPF идентификатор физического лица.
	CPF Kind = "cpf"
	// CNPJ идентификатор юридического лица.
	CNPJ Kind = "cnpj"
)

// ErrInvalid возвращается, когда строка не является корректным CPF или CNPJ.
var ErrInvalid = errors.New("invalid tax id")

// Normalize удаляет из строки всё, кроме цифр.
func Normalize(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Validate нормализует строку и определяет тип идентификатора по длине.
// Возвращает нормализованное значение и тип либо ErrInvalid.
func Validate(s string) (string, Kind, error) {
	digits := Normalize(s)
	switch len(digits) {
	case 11:
		if !IsValidCPF(digits) {
			return "", "", ErrInvalid
		}
		return digits, CPF, nil
	case 14:
		if !IsValidCNPJ(digits) {
			return "", "", ErrInvalid
		}
		return digits, CNPJ, nil
	default:
		return "", "", ErrInvalid
	}
}

// IsValidCPF проверяет контрольные цифры CPF.
// Ожидает уже нормализованную строку из 11 цифр.
func IsValidCPF(digits string) bool {
	if len(digits) != 11 || allSame(digits) {
		return false
	}
	d := toInts(digits)
	if d == nil {
		return false
	}

	sum := 0
	for i := 0; i < 9; i++ {
		sum += d[i] * (10 - i)
	}
	if checkDigitCPF(sum) != d[9] {
		return false
	}

	sum = 0
	for i := 0; i < 10; i++ {
		sum += d[i] * (11 - i)
	}
	return checkDigitCPF(sum) == d[10]
}

// IsValidCNPJ проверяет контрольные цифры CNPJ.
// Ожидает уже нормализованную строку из 14 цифр.
func IsValidCNPJ(digits string) bool {
	if len(digits) != 14 || allSame(digits) {
		return false
	}
	d := toInts(digits)
	if d == nil {
		return false
	}

	firstWeights := []int{5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	sum := 0
	for i, w := range firstWeights {
		sum += d[i] * w
	}
	if checkDigitCNPJ(sum) != d[12] {
		return false
	}

	secondWeights := []int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	sum = 0
	for i, w := range secondWeights {
		sum += d[i] * w
	}
	return checkDigitCNPJ(sum) == d[13]
}

func checkDigitCPF(sum int) int {
	r := sum * 10 % 11
	if r == 10 {
		return 0
	}
	return r
}

func checkDigitCNPJ(sum int) int {
	r := sum % 11
	if r < 2 {
		return 0
	}
	return 11 - r
}

func allSame(s string) bool {
	for i := 1; i < len(s); i++ {
		if s[i] != s[0] {
			return false
		}
	}
	return true
}

func toInts(s string) []int {
	res := make([]int, len(s))
	for i, r := range s {
		if r < '0' || r > '9' {
			return nil
		}
		res[i] = int(r - '0')
	}
	return res
}
