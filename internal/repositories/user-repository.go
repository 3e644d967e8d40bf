package repositories

import (
	"context"
	"errors"
	"fmt"

	"maintenance-desk/internal/entities"
	"maintenance-desk/pkg/constants"
	apperrors "maintenance-desk/pkg/errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepositoryInterface interface {
	FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.User, error)
	FindByUsername(ctx context.Context, username string) (*entities.User, error)
	ListByRole(ctx context.Context, role constants.Role) ([]entities.User, error)
}

type UserRepository struct {
	storage *pgxpool.Pool
}

func NewUserRepository(storage *pgxpool.Pool) UserRepositoryInterface {
	return &UserRepository{storage: storage}
}

const userColumns = "id, username, password_hash, full_name, role, shop_id, telegram_id, created_at"

func scanUser(row pgx.Row) (*entities.User, error) {
	var (
		user entities.User
		role string
	)
	err := row.Scan(&user.ID, &user.Username, &user.PasswordHash, &user.FullName,
		&role, &user.ShopID, &user.TelegramID, &user.CreatedAt)
	if err != nil {
		return nil, err
	}
	user.Role = constants.Role(role)
	return &user, nil
}

func (r *UserRepository) FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(pick(r.storage, tx).QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения пользователя %d: %w", id, err)
	}
	return user, nil
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*entities.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`

	user, err := scanUser(r.storage.QueryRow(ctx, query, username))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения пользователя %q: %w", username, err)
	}
	return user, nil
}

func (r *UserRepository) ListByRole(ctx context.Context, role constants.Role) ([]entities.User, error) {
	query, args, err := sq.Select(userColumns).
		From("users").
		Where(sq.Eq{"role": string(role)}).
		OrderBy("full_name ASC", "id ASC").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка построения запроса: %w", err)
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения пользователей: %w", err)
	}
	defer rows.Close()

	users := make([]entities.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования пользователя: %w", err)
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}
