package main

import (
	"context"
	"flag"
	"log"

	"maintenance-desk/pkg/config"
	"maintenance-desk/pkg/database/migrations"
	"maintenance-desk/pkg/database/postgresql"
	"maintenance-desk/seeders"
)

func main() {
	log.Println("======================================================")
	log.Println("       🌱 СИСТЕМА СИДЕРОВ (Наполнение БД)           ")
	log.Println("======================================================")

	runUsers := flag.Bool("users", false, "Создать пользователей по умолчанию (worker, admin, master)")
	runEquipment := flag.Bool("equipment", false, "Наполнить справочник оборудования")
	runAll := flag.Bool("all", false, "Запустить все сидеры (эквивалентно -users -equipment)")

	flag.Parse()

	if !*runUsers && !*runEquipment && !*runAll {
		log.Println("❌ Не выбран ни один сидер для запуска.")
		log.Println("")
		log.Println("Доступные флаги:")
		flag.PrintDefaults()
		log.Println("")
		log.Println("Примеры использования:")
		log.Println("  go run ./seeders/cmd/seed -users")
		log.Println("  go run ./seeders/cmd/seed -all")
		log.Println("======================================================")
		return
	}

	ctx := context.Background()
	cfg := config.New()
	dbPool, err := postgresql.ConnectDB(ctx, cfg.Postgres.DSN)
	if err != nil {
		log.Fatalf("❌ Не удалось подключиться к БД: %v", err)
	}
	defer dbPool.Close()

	if err := migrations.Up(ctx, dbPool); err != nil {
		log.Fatalf("❌ Ошибка применения миграций: %v", err)
	}

	if *runAll || *runUsers {
		if err := seeders.SeedUsers(ctx, dbPool); err != nil {
			log.Fatalf("❌ Ошибка создания пользователей: %v", err)
		}
		log.Println("======================================================")
	}

	if *runAll || *runEquipment {
		if err := seeders.SeedEquipment(ctx, dbPool); err != nil {
			log.Fatalf("❌ Ошибка наполнения оборудования: %v", err)
		}
		log.Println("======================================================")
	}

	log.Println("✅ Все указанные операции сидирования успешно завершены.")
}
