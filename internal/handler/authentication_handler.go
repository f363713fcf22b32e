package handler

import (
	"auth-session-server/internal/model"
	"auth-session-server/internal/model/requestresponse"
	"auth-session-server/internal/ports"
	"auth-session-server/internal/security"
	"auth-session-server/internal/util"
	"encoding/json"
	"net/http"
)

type AuthenticationHandler struct {
	ports.AuthenticationService
	cookies CookieSettings
}

func NewAuthenticationHandler(authenticationService ports.AuthenticationService, cookies CookieSettings) *AuthenticationHandler {
	return &AuthenticationHandler{
		authenticationService,
		cookies,
	}
}

// Login godoc
// @Summary Аутентификация пользователя
// @Description Проверяет email и пароль, выдает access и refresh токены в cookie
// @Tags Authentication
// @Accept json
// @Produce json
// @Param body body requestresponse.LoginRequest true "Тело запроса"
// @Success 200 {object} requestresponse.AuthResponse
// @Failure 400 {object} requestresponse.ErrorResponse "Некорректный JSON или пустые поля"
// @Failure 401 {object} requestresponse.ErrorResponse "Неверный email или пароль"
// @Failure 500 {object} requestresponse.ErrorResponse "Внутренняя ошибка сервера"
// @Router /api/auth/login [post]
func (h *AuthenticationHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req requestresponse.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendErrorResponse(w, http.StatusBadRequest, "некорректный JSON")
		return
	}

	pair, err := h.AuthenticationService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, err, http.StatusInternalServerError)
		return
	}

	h.cookies.setSession(w, pair)
	util.WriteJSON(w, http.StatusOK, requestresponse.AuthResponse{
		Success: true,
		Message: "Пользователь успешно вошел",
	})
}

// Register godoc
// @Summary Регистрация пользователя
// @Description Создает пользователя с ролью user и сразу выдает токены в cookie
// @Tags Authentication
// @Accept json
// @Produce json
// @Param body body requestresponse.RegisterRequest true "Тело запроса"
// @Success 201 {object} requestresponse.AuthResponse
// @Failure 400 {object} requestresponse.ErrorResponse "Ошибка валидации"
// @Failure 409 {object} requestresponse.ErrorResponse "Пользователь уже существует"
// @Failure 500 {object} requestresponse.ErrorResponse "Внутренняя ошибка сервера"
// @Router /api/auth/register [post]
func (h *AuthenticationHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req requestresponse.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendErrorResponse(w, http.StatusBadRequest, "некорректный JSON")
		return
	}

	pair, err := h.AuthenticationService.Register(r.Context(), model.RegisterInput{
		Lastname:  req.Lastname,
		Firstname: req.Firstname,
		Email:     req.Email,
		Username:  req.Username,
		Password:  req.Password,
	})
	if err != nil {
		writeServiceError(w, err, http.StatusInternalServerError)
		return
	}

	h.cookies.setSession(w, pair)
	util.WriteJSON(w, http.StatusCreated, requestresponse.AuthResponse{
		Success: true,
		Message: "Пользователь успешно зарегистрирован",
	})
}

// RefreshToken godoc
// @Summary Обновление access токена
// @Description Если access токен из cookie действителен, ничего не меняется. Иначе по refresh токену выдается новый access токен
// @Tags Authentication
// @Produce json
// @Success 200 {object} requestresponse.AuthResponse
// @Failure 401 {object} requestresponse.ErrorResponse "Токен отклонен"
// @Failure 500 {object} requestresponse.ErrorResponse "Внутренняя ошибка сервера"
// @Router /api/auth/refresh [post]
func (h *AuthenticationHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	result, err := h.AuthenticationService.RefreshAccess(
		r.Context(),
		cookieValue(r, AccessCookieName),
		cookieValue(r, RefreshCookieName),
	)
	if err != nil {
		writeServiceError(w, err, http.StatusUnauthorized)
		return
	}

	if result.Access == nil {
		util.WriteJSON(w, http.StatusOK, requestresponse.AuthResponse{
			Success: true,
			Message: "Access токен действителен",
		})
		return
	}

	h.cookies.setAccess(w, result.Access)
	if result.Refresh != nil {
		h.cookies.setRefresh(w, result.Refresh)
	}
	util.WriteJSON(w, http.StatusOK, requestresponse.AuthResponse{
		Success: true,
		Message: "Access токен обновлен",
	})
}

// Logout godoc
// @Summary Завершение сессии
// @Description Отзывает предъявленные токены и очищает cookie. Повторный вызов не является ошибкой
// @Tags Authentication
// @Produce json
// @Success 200 {object} requestresponse.AuthResponse
// @Failure 500 {object} requestresponse.ErrorResponse
// @Router /api/auth/logout [delete]
func (h *AuthenticationHandler) Logout(w http.ResponseWriter, r *http.Request) {
	err := h.AuthenticationService.Logout(
		r.Context(),
		accessTokenFromRequest(r),
		cookieValue(r, RefreshCookieName),
	)

	h.cookies.clear(w)
	if err != nil {
		writeServiceError(w, err, http.StatusInternalServerError)
		return
	}

	util.WriteJSON(w, http.StatusOK, requestresponse.AuthResponse{
		Success: true,
		Message: "Пользователь вышел",
	})
}

// GetCurrentUser godoc
// @Summary Текущий пользователь
// @Description Возвращает id, имя и роль авторизованного пользователя
// @Tags Authentication
// @Produce json
// @Success 200 {object} requestresponse.CurrentUserResponse
// @Failure 401 {object} requestresponse.ErrorResponse
// @Failure 403 {object} requestresponse.ErrorResponse
// @Router /api/auth/me [get]
func (h *AuthenticationHandler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	auth, err := security.GetAuthFromContext(r.Context())
	if err != nil {
		sendErrorResponse(w, http.StatusUnauthorized, rejectedMessage)
		return
	}

	if r.Method == http.MethodHead {
		w.WriteHeader(http.StatusOK)
		return
	}

	resp := requestresponse.CurrentUserResponse{}
	resp.Response.ID = auth.PrincipalID
	resp.Response.Username = auth.Username
	resp.Response.Role = auth.Role

	util.WriteJSON(w, http.StatusOK, resp)
}

// GetCurrentUserHead godoc
// @Summary Проверка авторизации
// @Tags Authentication
// @Success 200
// @Failure 401 {object} requestresponse.ErrorResponse
// @Router /api/auth/me [head]
func (h *AuthenticationHandler) GetCurrentUserHead(w http.ResponseWriter, r *http.Request) {
	h.GetCurrentUser(w, r)
}
