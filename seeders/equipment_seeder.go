package seeders

import (
	"context"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
)

func seedEquipment(ctx context.Context, db *pgxpool.Pool) error {
	log.Println("  - Наполнение таблицы 'equipment'...")

	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO equipment (name, code, shop_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (code) DO NOTHING`

	for _, e := range equipmentData {
		if _, err := tx.Exec(ctx, query, e.Name, e.Code, e.ShopID); err != nil {
			return fmt.Errorf("ошибка добавления оборудования '%s': %w", e.Code, err)
		}
	}

	return tx.Commit(ctx)
}
