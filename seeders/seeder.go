package seeders

import (
	"context"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
)

// SeedUsers создаёт пользователей по умолчанию. Повторный запуск ничего не меняет.
func SeedUsers(ctx context.Context, db *pgxpool.Pool) error {
	log.Println("▶️  Запуск создания пользователей по умолчанию...")
	if err := seedUsers(ctx, db); err != nil {
		return err
	}
	log.Println("✅ Пользователи созданы!")
	return nil
}

// SeedEquipment наполняет справочник оборудования.
func SeedEquipment(ctx context.Context, db *pgxpool.Pool) error {
	log.Println("▶️  Запуск наполнения справочника оборудования...")
	if err := seedEquipment(ctx, db); err != nil {
		return err
	}
	log.Println("✅ Справочник оборудования заполнен!")
	return nil
}
