// Package validation проверяет учётные данные и поля профиля до обращения к хранилищу.
package validation

import (
	"fmt"
	"net/mail"
	"net/url"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	MinPasswordLength    = 8
	MaxPasswordLength    = 72
	MaxDisplayNameLength = 100
	MaxEmailLength       = 254
	MaxBioLength         = 1000
	MaxAvatarURLLength   = 2048
)

// NormalizeEmail приводит email к каноническому виду для поиска и хранения.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail проверяет формат email. Допускается только голый адрес, без имени в угловых скобках.
func ValidateEmail(email string) error {
	email = NormalizeEmail(email)
	if email == "" {
		return fmt.Errorf("email обязателен")
	}
	if len(email) > MaxEmailLength {
		return fmt.Errorf("email должен быть не длиннее %d символов", MaxEmailLength)
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return fmt.Errorf("некорректный формат email")
	}

	domain := email[strings.LastIndex(email, "@")+1:]
	if !strings.Contains(domain, ".") {
		return fmt.Errorf("доменная часть email должна содержать точку")
	}

	return nil
}

// ValidatePassword проверяет длину пароля и наличие букв и цифр.
// Верхняя граница совпадает с пределом bcrypt.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("пароль должен быть не менее %d символов", MinPasswordLength)
	}
	if len(password) > MaxPasswordLength {
		return fmt.Errorf("пароль должен быть не длиннее %d байт", MaxPasswordLength)
	}

	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}

	if !hasLetter || !hasDigit {
		return fmt.Errorf("пароль должен содержать буквы и цифры")
	}

	return nil
}

// ValidateDisplayName проверяет отображаемое имя владельца.
func ValidateDisplayName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("имя не может быть пустым")
	}
	if utf8.RuneCountInString(name) > MaxDisplayNameLength {
		return fmt.Errorf("имя должно быть не длиннее %d символов", MaxDisplayNameLength)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return fmt.Errorf("имя содержит недопустимые символы")
		}
	}
	return nil
}

// ValidateBio проверяет описание профиля. Пустое описание допустимо.
func ValidateBio(bio string) error {
	if utf8.RuneCountInString(bio) > MaxBioLength {
		return fmt.Errorf("описание должно быть не длиннее %d символов", MaxBioLength)
	}
	return nil
}

// ValidateAvatarURL принимает пустую строку или абсолютный http(s) адрес.
func ValidateAvatarURL(raw string) error {
	if raw == "" {
		return nil
	}
	if len(raw) > MaxAvatarURLLength {
		return fmt.Errorf("адрес аватара должен быть не длиннее %d символов", MaxAvatarURLLength)
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("адрес аватара должен быть http(s) ссылкой")
	}
	return nil
}
