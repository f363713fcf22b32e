package repository

import (
	"auth-session-server/config"
	"auth-session-server/internal/model"
	"auth-session-server/internal/util"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const uniqueViolation = "23505"

// роль пользователя берется из user_role, по умолчанию 'user'
const selectUser = `
	SELECT u.id, u.lastname, u.firstname, u.email, u.username, u.password, u.created_at, u.updated_at,
		COALESCE((
			SELECT r.name FROM user_role ur
			JOIN role r ON r.id = ur.role_id
			WHERE ur.user_id = u.id
			ORDER BY r.id
			LIMIT 1
		), 'user') AS role
	FROM app_user u
`

type UserRepository struct {
	*config.Database
}

func NewUserRepository(database *config.Database) *UserRepository {
	return &UserRepository{database}
}

// FindByID : ищет пользователя по id, nil если не найден
func (r *UserRepository) FindByID(ctx context.Context, id int64) (*model.User, error) {
	return r.findOne(ctx, selectUser+`WHERE u.id = $1`, id)
}

// FindByEmail : ищет пользователя по email, nil если не найден
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, selectUser+`WHERE u.email = $1`, email)
}

func (r *UserRepository) findOne(ctx context.Context, query string, arg interface{}) (*model.User, error) {
	var user model.User
	err := sqlx.GetContext(ctx, r.DB, &user, query, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, util.LogError("[UserRepo] не удалось найти пользователя в БД", err)
	}
	return &user, nil
}

// CreateUser : сохраняет нового пользователя и назначает ему роль в одной транзакции
func (r *UserRepository) CreateUser(ctx context.Context, user *model.User, roleName string) (*model.User, error) {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return nil, util.LogError("[UserRepo] не удалось начать транзакцию", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `
	INSERT INTO app_user (lastname, firstname, email, username, password)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING id, created_at, updated_at
	`

	created := *user
	err = tx.QueryRowxContext(ctx, query, user.Lastname, user.Firstname, user.Email, user.Username, user.PasswordHash).
		Scan(&created.ID, &created.CreatedAt, &created.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, fmt.Errorf("[UserRepo] %w", model.ErrConflict)
		}
		return nil, util.LogError("[UserRepo] ошибка вставки данных в БД", err)
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO role (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, roleName); err != nil {
		return nil, util.LogError("[UserRepo] не удалось создать роль", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO user_role (user_id, role_id)
		SELECT $1, r.id FROM role r WHERE r.name = $2
	`, created.ID, roleName)
	if err != nil {
		return nil, util.LogError("[UserRepo] не удалось назначить роль", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, util.LogError("[UserRepo] не удалось зафиксировать транзакцию", err)
	}

	created.Role = roleName
	return &created, nil
}
