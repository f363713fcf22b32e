package requestresponse

// ErrorDetail : детальная информация об ошибке
type ErrorDetail struct {
	Code int    `json:"code" example:"400"`
	Text string `json:"text" example:"некорректный JSON"`
}

// ValidationErrorItem : ошибка валидации одного поля
type ValidationErrorItem struct {
	Field        string `json:"field" example:"email"`
	ErrorMessage string `json:"errorMessage" example:"email обязателен"`
}

// ErrorResponse : стандартная структура ошибки
type ErrorResponse struct {
	Error            ErrorDetail           `json:"error"`
	ValidationErrors []ValidationErrorItem `json:"validationErrors,omitempty"`
}
