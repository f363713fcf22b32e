package handler

import (
	"auth-session-server/internal/model"
	"auth-session-server/internal/model/requestresponse"
	"auth-session-server/internal/util"
	"errors"
	"log"
	"net/http"
	"sort"
)

const (
	unauthorizedMessage = "Неверный email или пароль"
	rejectedMessage     = "Вы не авторизованы для доступа к этому ресурсу"
	forbiddenMessage    = "Доступ запрещён"
	internalMessage     = "внутренняя ошибка сервера"
)

func sendErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	util.WriteJSON(w, statusCode, requestresponse.ErrorResponse{
		Error: requestresponse.ErrorDetail{
			Code: statusCode,
			Text: message,
		},
	})
}

func sendValidationError(w http.ResponseWriter, validation *model.ValidationError) {
	fields := make([]string, 0, len(validation.Fields))
	for field := range validation.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	items := make([]requestresponse.ValidationErrorItem, 0, len(fields))
	for _, field := range fields {
		items = append(items, requestresponse.ValidationErrorItem{Field: field, ErrorMessage: validation.Fields[field]})
	}

	util.WriteJSON(w, http.StatusBadRequest, requestresponse.ErrorResponse{
		Error: requestresponse.ErrorDetail{
			Code: http.StatusBadRequest,
			Text: "ошибка валидации",
		},
		ValidationErrors: items,
	})
}

// writeServiceError переводит ошибки сервиса в HTTP статусы.
// unavailableStatus зависит от места в цепочке: 401 при проверке токена, 500 при выдаче
func writeServiceError(w http.ResponseWriter, err error, unavailableStatus int) {
	var validation *model.ValidationError
	switch {
	case errors.As(err, &validation):
		sendValidationError(w, validation)
	case errors.Is(err, model.ErrUnauthorized):
		sendErrorResponse(w, http.StatusUnauthorized, unauthorizedMessage)
	case errors.Is(err, model.ErrRejected):
		log.Printf("запрос отклонен: %s", model.ReasonOf(err))
		sendErrorResponse(w, http.StatusUnauthorized, rejectedMessage)
	case errors.Is(err, model.ErrConflict):
		sendErrorResponse(w, http.StatusConflict, "пользователь с таким email или именем уже существует")
	case errors.Is(err, model.ErrStoreUnavailable):
		log.Printf("хранилище недоступно: %v", err)
		if unavailableStatus == http.StatusUnauthorized {
			sendErrorResponse(w, http.StatusUnauthorized, rejectedMessage)
			return
		}
		sendErrorResponse(w, unavailableStatus, internalMessage)
	case errors.Is(err, model.ErrTokenIssuanceFailed):
		log.Printf("ошибка выдачи токенов: %v", err)
		sendErrorResponse(w, http.StatusInternalServerError, internalMessage)
	default:
		log.Printf("неизвестная ошибка: %v", err)
		sendErrorResponse(w, http.StatusInternalServerError, internalMessage)
	}
}
