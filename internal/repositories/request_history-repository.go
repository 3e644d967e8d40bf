package repositories

import (
	"context"
	"fmt"

	"maintenance-desk/internal/entities"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RequestHistoryRepositoryInterface interface {
	CreateInTx(ctx context.Context, tx pgx.Tx, history *entities.RequestHistory) error
	ListByRequest(ctx context.Context, requestID uint64) ([]entities.RequestHistory, error)
}

type RequestHistoryRepository struct {
	storage *pgxpool.Pool
}

func NewRequestHistoryRepository(storage *pgxpool.Pool) RequestHistoryRepositoryInterface {
	return &RequestHistoryRepository{storage: storage}
}

func (r *RequestHistoryRepository) CreateInTx(ctx context.Context, tx pgx.Tx, history *entities.RequestHistory) error {
	query := `
		INSERT INTO request_history (request_id, old_status, new_status, technician_id, source, actor)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := pick(r.storage, tx).QueryRow(ctx, query,
		history.RequestID, history.OldStatus, history.NewStatus,
		history.TechnicianID, history.Source, history.Actor,
	).Scan(&history.ID, &history.CreatedAt)
	if err != nil {
		return fmt.Errorf("ошибка записи истории заявки %d: %w", history.RequestID, err)
	}
	return nil
}

func (r *RequestHistoryRepository) ListByRequest(ctx context.Context, requestID uint64) ([]entities.RequestHistory, error) {
	query := `
		SELECT id, request_id, old_status, new_status, technician_id, source, actor, created_at
		FROM request_history WHERE request_id = $1 ORDER BY created_at ASC, id ASC`

	rows, err := r.storage.Query(ctx, query, requestID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения истории заявки %d: %w", requestID, err)
	}
	defer rows.Close()

	items := make([]entities.RequestHistory, 0)
	for rows.Next() {
		var h entities.RequestHistory
		if err := rows.Scan(&h.ID, &h.RequestID, &h.OldStatus, &h.NewStatus,
			&h.TechnicianID, &h.Source, &h.Actor, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("ошибка сканирования истории: %w", err)
		}
		items = append(items, h)
	}
	return items, rows.Err()
}
