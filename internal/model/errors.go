package model

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrUnauthorized : неверная пара email/пароль, без уточнения причины
	ErrUnauthorized = errors.New("неверный email или пароль")

	// ErrConflict : пользователь с таким email или username уже существует
	ErrConflict = errors.New("пользователь уже существует")

	// ErrRejected : токен отклонен, причина в RejectedError
	ErrRejected = errors.New("токен отклонен")

	// ErrStoreUnavailable : Redis недоступен или не ответил вовремя
	ErrStoreUnavailable = errors.New("хранилище токенов недоступно")

	// ErrTokenIssuanceFailed : сессию установить не удалось
	ErrTokenIssuanceFailed = errors.New("ошибка выдачи токенов")

	// ErrWhitelistWriteFailed : токен подписан, но не записан в whitelist, клиенту не отдается
	ErrWhitelistWriteFailed = fmt.Errorf("%w: не удалось записать токен в whitelist", ErrTokenIssuanceFailed)
)

type RejectReason string

const (
	ReasonNoToken                  RejectReason = "NoToken"
	ReasonNoRefreshToken           RejectReason = "NoRefreshToken"
	ReasonInvalidSignatureOrExpiry RejectReason = "InvalidSignatureOrExpiry"
	ReasonInvalidRefreshToken      RejectReason = "InvalidRefreshToken"
	ReasonBlacklisted              RejectReason = "Blacklisted"
	ReasonNotWhitelisted           RejectReason = "NotWhitelisted"
	ReasonPrincipalGone            RejectReason = "PrincipalGone"
)

// RejectedError несет внутреннюю причину отказа.
// Наружу причина не отдается, только логируется
type RejectedError struct {
	Reason RejectReason
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("%s: %s", ErrRejected.Error(), e.Reason)
}

func (e *RejectedError) Unwrap() error { return ErrRejected }

func Rejected(reason RejectReason) error {
	return &RejectedError{Reason: reason}
}

// ReasonOf возвращает причину отказа или пустую строку
func ReasonOf(err error) RejectReason {
	var rejected *RejectedError
	if errors.As(err, &rejected) {
		return rejected.Reason
	}
	return ""
}

// ValidationError : ошибки валидации по полям
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "ошибка валидации: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, exists := e.Fields[field]; !exists {
		e.Fields[field] = message
	}
}

// OrNil возвращает nil, если ошибок нет
func (e *ValidationError) OrNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}
