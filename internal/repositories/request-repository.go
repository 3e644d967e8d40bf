package repositories

import (
	"context"
	"errors"
	"fmt"

	"maintenance-desk/internal/dto"
	"maintenance-desk/internal/entities"
	db "maintenance-desk/internal/infrastructure/bd"
	"maintenance-desk/pkg/constants"
	apperrors "maintenance-desk/pkg/errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/aarondl/null/v8"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RequestFilter struct {
	AuthorID     null.Uint64
	TechnicianID null.Uint64
	Status       string
	Limit        uint64
	Offset       uint64
}

type RequestRepositoryInterface interface {
	Create(ctx context.Context, tx pgx.Tx, request *entities.Request) (uint64, error)
	FindForUpdate(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Request, error)
	UpdateAssignment(ctx context.Context, tx pgx.Tx, id uint64, status constants.RequestStatus, technicianID null.Uint64) error
	FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*dto.RequestResponseDTO, error)
	List(ctx context.Context, filter RequestFilter) ([]dto.RequestResponseDTO, error)
	CountActive(ctx context.Context, technicianID uint64) (int, error)
	CountActiveByTechnicians(ctx context.Context, technicianIDs []uint64) (map[uint64]int, error)
}

type RequestRepository struct {
	storage *pgxpool.Pool
}

func NewRequestRepository(storage *pgxpool.Pool) RequestRepositoryInterface {
	return &RequestRepository{storage: storage}
}

var requestListAllowed = map[string]string{
	"user_id":       "r.user_id",
	"technician_id": "r.technician_id",
	"status":        "r.status",
	"created_at":    "r.created_at",
	"id":            "r.id",
}

func requestViewBuilder() sq.SelectBuilder {
	return sq.Select(
		"r.id", "r.description", "r.photo_path", "r.status", "r.created_at",
		"r.user_id", "author.full_name",
		"r.technician_id", "tech.full_name",
		"r.device_id", "eq.name",
	).
		From("requests r").
		Join("users author ON author.id = r.user_id").
		LeftJoin("users tech ON tech.id = r.technician_id").
		LeftJoin("equipment eq ON eq.id = r.device_id").
		PlaceholderFormat(sq.Dollar)
}

func scanRequestView(row pgx.Row) (*dto.RequestResponseDTO, error) {
	var (
		item   dto.RequestResponseDTO
		status string
	)
	err := row.Scan(
		&item.ID, &item.Description, &item.PhotoPath, &status, &item.CreatedAt,
		&item.UserID, &item.AuthorName,
		&item.TechnicianID, &item.TechnicianName,
		&item.DeviceID, &item.DeviceName,
	)
	if err != nil {
		return nil, err
	}
	item.Status = constants.RequestStatus(status)
	item.StatusLabel = item.Status.Label()
	return &item, nil
}

func (r *RequestRepository) Create(ctx context.Context, tx pgx.Tx, request *entities.Request) (uint64, error) {
	query := `
		INSERT INTO requests (description, photo_path, status, user_id, technician_id, device_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`

	err := pick(r.storage, tx).QueryRow(ctx, query,
		request.Description, request.PhotoPath, string(request.Status),
		request.UserID, request.TechnicianID, request.DeviceID,
	).Scan(&request.ID, &request.CreatedAt, &request.UpdatedAt)
	if err != nil {
		return 0, fmt.Errorf("ошибка создания заявки: %w", err)
	}
	return request.ID, nil
}

// FindForUpdate блокирует строку заявки до конца транзакции.
func (r *RequestRepository) FindForUpdate(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Request, error) {
	query := `
		SELECT id, description, photo_path, status, created_at, updated_at, user_id, technician_id, device_id
		FROM requests WHERE id = $1 FOR UPDATE`

	var (
		request entities.Request
		status  string
	)
	err := pick(r.storage, tx).QueryRow(ctx, query, id).Scan(
		&request.ID, &request.Description, &request.PhotoPath, &status,
		&request.CreatedAt, &request.UpdatedAt, &request.UserID,
		&request.TechnicianID, &request.DeviceID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения заявки %d: %w", id, err)
	}
	request.Status = constants.RequestStatus(status)
	return &request, nil
}

func (r *RequestRepository) UpdateAssignment(ctx context.Context, tx pgx.Tx, id uint64, status constants.RequestStatus, technicianID null.Uint64) error {
	query := `UPDATE requests SET status = $1, technician_id = $2, updated_at = NOW() WHERE id = $3`

	tag, err := pick(r.storage, tx).Exec(ctx, query, string(status), technicianID, id)
	if err != nil {
		return fmt.Errorf("ошибка обновления заявки %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *RequestRepository) FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*dto.RequestResponseDTO, error) {
	query, args, err := requestViewBuilder().Where(sq.Eq{"r.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка построения запроса: %w", err)
	}

	item, err := scanRequestView(pick(r.storage, tx).QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка сканирования заявки: %w", err)
	}
	return item, nil
}

// List всегда сортирует от новых к старым.
func (r *RequestRepository) List(ctx context.Context, filter RequestFilter) ([]dto.RequestResponseDTO, error) {
	params := db.ListParams{
		Filter: map[string]interface{}{},
		Sort:   []db.SortField{{Field: "created_at", Desc: true}, {Field: "id", Desc: true}},
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}
	if filter.AuthorID.Valid {
		params.Filter["user_id"] = filter.AuthorID.Uint64
	}
	if filter.TechnicianID.Valid {
		params.Filter["technician_id"] = filter.TechnicianID.Uint64
	}
	if filter.Status != "" {
		params.Filter["status"] = filter.Status
	}

	query, args, err := db.ApplyListParams(requestViewBuilder(), params, requestListAllowed).ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка построения запроса: %w", err)
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка заявок: %w", err)
	}
	defer rows.Close()

	items := make([]dto.RequestResponseDTO, 0)
	for rows.Next() {
		item, err := scanRequestView(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования заявки: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// CountActive — число заявок мастера в статусе "In Progress".
func (r *RequestRepository) CountActive(ctx context.Context, technicianID uint64) (int, error) {
	counts, err := r.CountActiveByTechnicians(ctx, []uint64{technicianID})
	if err != nil {
		return 0, err
	}
	return counts[technicianID], nil
}

func (r *RequestRepository) CountActiveByTechnicians(ctx context.Context, technicianIDs []uint64) (map[uint64]int, error) {
	counts := make(map[uint64]int, len(technicianIDs))
	if len(technicianIDs) == 0 {
		return counts, nil
	}

	query, args, err := sq.Select("technician_id", "COUNT(*)").
		From("requests").
		Where(sq.Eq{"technician_id": technicianIDs, "status": string(constants.StatusInProgress)}).
		GroupBy("technician_id").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка построения запроса: %w", err)
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка подсчета нагрузки мастеров: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id    uint64
			count int
		)
		if err := rows.Scan(&id, &count); err != nil {
			return nil, fmt.Errorf("ошибка сканирования нагрузки: %w", err)
		}
		counts[id] = count
	}
	return counts, rows.Err()
}
