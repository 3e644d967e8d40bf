package dto

import "github.com/aarondl/null/v8"

// EmployeeDTO — мастер с текущей нагрузкой.
type EmployeeDTO struct {
	ID          uint64      `json:"id"`
	Username    string      `json:"username"`
	FullName    string      `json:"full_name"`
	ShopID      null.Uint64 `json:"shop_id"`
	ActiveTasks int         `json:"active_tasks"`
	IsAvailable bool        `json:"is_available"`
}
