package seeders

import "maintenance-desk/pkg/constants"

type userSeed struct {
	Username string
	Password string
	FullName string
	Role     constants.Role
	ShopID   int64
}

var usersData = []userSeed{
	{Username: "worker", Password: "password", FullName: "Иван Рабочий", Role: constants.RoleWorker, ShopID: 1},
	{Username: "admin", Password: "admin", FullName: "Главный Диспетчер", Role: constants.RoleDispatcher, ShopID: 1},
	{Username: "master", Password: "master", FullName: "Петр Мастер", Role: constants.RoleMaster, ShopID: 1},
	{Username: "master2", Password: "master", FullName: "Сергей Наладчик", Role: constants.RoleMaster, ShopID: 1},
}

type equipmentSeed struct {
	Name   string
	Code   string
	ShopID int64
}

var equipmentData = []equipmentSeed{
	{Name: "Пресс гидравлический П-200", Code: "PR-200", ShopID: 1},
	{Name: "Станок токарный 16К20", Code: "TK-16K20", ShopID: 1},
	{Name: "Конвейер ленточный КЛ-1", Code: "KL-1", ShopID: 1},
	{Name: "Насос центробежный Н-3", Code: "N-3", ShopID: 2},
	{Name: "Компрессор винтовой КВ-7", Code: "KV-7", ShopID: 2},
}
