// Package validation содержит проверки пользовательского ввода.
package validation

// IsValidUsername проверяет, что логин состоит из 3–20 символов:
// латинских букв, цифр и подчёркивания.
func IsValidUsername(username string) bool {
	if len(username) < 3 || len(username) > 20 {
		return false
	}
	for _, c := range username {
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '_':
		default:
			return false
		}
	}
	return true
}

// IsValidPhone проверяет телефонный номер: 8–15 цифр, допускается
// ведущий «+».
func IsValidPhone(phone string) bool {
	if phone == "" {
		return false
	}
	digits := 0
	for i, c := range phone {
		if c == '+' && i == 0 {
			continue
		}
		if c < '0' || c > '9' {
			return false
		}
		digits++
	}
	return digits >= 8 && digits <= 15
}

// IsValidInviteCode проверяет формат пригласительного кода: ровно 6 цифр.
func IsValidInviteCode(code string) bool {
	if len(code) != 6 {
		return false
	}
	for _, c := range code {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
