// Package phone нормализует телефонные номера к международному виду,
// требуемому шлюзом сообщений. Нормализация — предусловие вызова шлюза
// и выполняется на нашей стороне.
package phone

import "strings"

const countryCode = "972"

// Normalize приводит номер к международному формату: отбрасывает всё,
// кроме цифр, заменяет ведущий местный "0" на код страны, а номер без
// кода страны дополняет им.
func Normalize(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if digits == "" {
		return ""
	}

	switch {
	case strings.HasPrefix(digits, "0"):
		return countryCode + digits[1:]
	case strings.HasPrefix(digits, countryCode):
		return digits
	default:
		return countryCode + digits
	}
}
