package service

import (
	"auth-session-server/internal/model"
	"errors"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var emailPattern = regexp.MustCompile(`^[a-z0-9._%+-]+@[a-z0-9.-]+\.[a-z]{2,}$`)

const passwordSpecials = "@$!%*?&_"

func normalizeRegisterInput(input model.RegisterInput) model.RegisterInput {
	input.Lastname = strings.TrimSpace(input.Lastname)
	input.Firstname = strings.TrimSpace(input.Firstname)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.Username = strings.TrimSpace(input.Username)
	return input
}

func validateRegisterInput(input model.RegisterInput) error {
	validation := &model.ValidationError{}

	if utf8.RuneCountInString(input.Lastname) < 3 {
		validation.Add("lastname", "фамилия должна содержать минимум 3 символа")
	}
	if utf8.RuneCountInString(input.Firstname) < 3 {
		validation.Add("firstname", "имя должно содержать минимум 3 символа")
	}
	if input.Email == "" {
		validation.Add("email", "email обязателен")
	} else if !emailPattern.MatchString(input.Email) {
		validation.Add("email", "email должен быть валидным адресом")
	}

	usernameLen := utf8.RuneCountInString(input.Username)
	if usernameLen < 3 || usernameLen > 30 {
		validation.Add("username", "имя пользователя должно содержать от 3 до 30 символов")
	}

	if err := validatePassword(input.Password); err != nil {
		validation.Add("password", err.Error())
	}

	return validation.OrNil()
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return errors.New("пароль должен содержать минимум 8 символов")
	}
	if len(password) > 128 {
		return errors.New("пароль не может быть длиннее 128 символов")
	}

	var upperCount, lowerCount, digitCount, specialCount int

	for _, c := range password {
		switch {
		case c > unicode.MaxASCII:
			return errors.New("пароль может содержать только латинские буквы, цифры и символы " + passwordSpecials)
		case unicode.IsUpper(c):
			upperCount++
		case unicode.IsLower(c):
			lowerCount++
		case unicode.IsDigit(c):
			digitCount++
		case strings.ContainsRune(passwordSpecials, c):
			specialCount++
		default:
			return errors.New("пароль содержит недопустимый символ")
		}
	}

	if upperCount == 0 || lowerCount == 0 {
		return errors.New("пароль должен содержать буквы в разных регистрах")
	}
	if digitCount < 1 {
		return errors.New("пароль должен содержать хотя бы одну цифру")
	}
	if specialCount < 1 {
		return errors.New("пароль должен содержать хотя бы один специальный символ " + passwordSpecials)
	}

	return nil
}
