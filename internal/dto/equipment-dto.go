package dto

import "github.com/aarondl/null/v8"

type EquipmentDTO struct {
	ID     uint64      `json:"id"`
	Name   string      `json:"name"`
	Code   string      `json:"code"`
	ShopID null.Uint64 `json:"shop_id"`
}
