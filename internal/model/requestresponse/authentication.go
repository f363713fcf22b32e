package requestresponse

// LoginRequest : тело запроса на аутентификацию
type LoginRequest struct {
	Email    string `json:"email" example:"user@example.com"`
	Password string `json:"password" example:"P@ssw0rd123"`
}

// RegisterRequest : тело запроса регистрации
type RegisterRequest struct {
	Lastname  string `json:"lastname" example:"Ivanov"`
	Firstname string `json:"firstname" example:"Ivan"`
	Email     string `json:"email" example:"user@example.com"`
	Username  string `json:"username" example:"ivan42"`
	Password  string `json:"password" example:"P@ssw0rd123"`
}

// AuthResponse : ответ на login, register, refresh и logout.
// Сами токены передаются только в cookie
type AuthResponse struct {
	Success bool   `json:"success" example:"true"`
	Message string `json:"message" example:"Пользователь успешно вошел"`
}

// CurrentUserResponse : информация о текущем пользователе
type CurrentUserResponse struct {
	Response struct {
		ID       int64  `json:"id" example:"1"`
		Username string `json:"username" example:"ivan42"`
		Role     string `json:"role" example:"user"`
	} `json:"response"`
}
