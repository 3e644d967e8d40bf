package seeders

import (
	"context"
	"fmt"
	"log"

	"maintenance-desk/pkg/utils"

	"github.com/jackc/pgx/v5/pgxpool"
)

func seedUsers(ctx context.Context, db *pgxpool.Pool) error {
	log.Println("  - Наполнение таблицы 'users'...")

	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO users (username, password_hash, full_name, role, shop_id)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (username) DO NOTHING`

	created := 0
	for _, u := range usersData {
		hash, err := utils.HashPassword(u.Password)
		if err != nil {
			return fmt.Errorf("не удалось захешировать пароль для '%s': %w", u.Username, err)
		}
		tag, err := tx.Exec(ctx, query, u.Username, hash, u.FullName, string(u.Role), u.ShopID)
		if err != nil {
			return fmt.Errorf("ошибка создания пользователя '%s': %w", u.Username, err)
		}
		created += int(tag.RowsAffected())
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}
	log.Printf("  - Создано пользователей: %d (пропущено существующих: %d)", created, len(usersData)-created)
	return nil
}
