// Печатает bcrypt-хеш пароля для ручного обновления users.password_hash.
package main

import (
	"flag"
	"fmt"
	"log"

	"maintenance-desk/pkg/utils"
)

func main() {
	password := flag.String("password", "", "пароль, для которого нужен хеш")
	flag.Parse()

	if *password == "" {
		log.Fatal("укажите пароль: go run ./seeders/cmd/hashpass -password <пароль>")
	}

	hashedPassword, err := utils.HashPassword(*password)
	if err != nil {
		log.Fatalf("Ошибка при генерации хеша: %v", err)
	}

	fmt.Println(hashedPassword)
}
