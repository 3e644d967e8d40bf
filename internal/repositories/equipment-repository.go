package repositories

import (
	"context"
	"errors"
	"fmt"

	"maintenance-desk/internal/entities"
	apperrors "maintenance-desk/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type EquipmentRepositoryInterface interface {
	FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Equipment, error)
	List(ctx context.Context) ([]entities.Equipment, error)
}

type EquipmentRepository struct {
	storage *pgxpool.Pool
}

func NewEquipmentRepository(storage *pgxpool.Pool) EquipmentRepositoryInterface {
	return &EquipmentRepository{storage: storage}
}

func (r *EquipmentRepository) FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Equipment, error) {
	query := `SELECT id, name, code, shop_id, created_at FROM equipment WHERE id = $1`

	var eq entities.Equipment
	err := pick(r.storage, tx).QueryRow(ctx, query, id).Scan(&eq.ID, &eq.Name, &eq.Code, &eq.ShopID, &eq.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения оборудования %d: %w", id, err)
	}
	return &eq, nil
}

func (r *EquipmentRepository) List(ctx context.Context) ([]entities.Equipment, error) {
	query := `SELECT id, name, code, shop_id, created_at FROM equipment ORDER BY name, id`

	rows, err := r.storage.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения оборудования: %w", err)
	}
	defer rows.Close()

	items := make([]entities.Equipment, 0)
	for rows.Next() {
		var eq entities.Equipment
		if err := rows.Scan(&eq.ID, &eq.Name, &eq.Code, &eq.ShopID, &eq.CreatedAt); err != nil {
			return nil, fmt.Errorf("ошибка сканирования оборудования: %w", err)
		}
		items = append(items, eq)
	}
	return items, rows.Err()
}
