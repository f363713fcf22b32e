package model

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID           int64     `db:"id" json:"id"`
	Lastname     string    `db:"lastname" json:"lastname"`
	Firstname    string    `db:"firstname" json:"firstname"`
	Email        string    `db:"email" json:"email"`
	Username     string    `db:"username" json:"username"`
	PasswordHash string    `db:"password" json:"-"`
	Role         string    `db:"role" json:"role"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// RegisterInput : данные для регистрации нового пользователя
type RegisterInput struct {
	Lastname  string
	Firstname string
	Email     string
	Username  string
	Password  string
}
