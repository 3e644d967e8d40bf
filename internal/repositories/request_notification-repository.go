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

type NotificationRepositoryInterface interface {
	Upsert(ctx context.Context, n *entities.RequestNotification) error
	FindByRequestID(ctx context.Context, requestID uint64) (*entities.RequestNotification, error)
	UpdateAnnotation(ctx context.Context, requestID uint64, annotation string, sequence uint64) error
}

type NotificationRepository struct {
	storage *pgxpool.Pool
}

func NewNotificationRepository(storage *pgxpool.Pool) NotificationRepositoryInterface {
	return &NotificationRepository{storage: storage}
}

func (r *NotificationRepository) Upsert(ctx context.Context, n *entities.RequestNotification) error {
	query := `
		INSERT INTO request_notifications (request_id, chat_id, message_id, original_text, annotation, has_photo, sequence)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (request_id) DO UPDATE SET
			chat_id = EXCLUDED.chat_id,
			message_id = EXCLUDED.message_id,
			original_text = EXCLUDED.original_text,
			annotation = EXCLUDED.annotation,
			has_photo = EXCLUDED.has_photo,
			sequence = EXCLUDED.sequence,
			updated_at = NOW()
		RETURNING updated_at`

	err := r.storage.QueryRow(ctx, query,
		n.RequestID, n.ChatID, n.MessageID, n.OriginalText, n.Annotation, n.HasPhoto, n.Sequence,
	).Scan(&n.UpdatedAt)
	if err != nil {
		return fmt.Errorf("ошибка сохранения уведомления по заявке %d: %w", n.RequestID, err)
	}
	return nil
}

func (r *NotificationRepository) FindByRequestID(ctx context.Context, requestID uint64) (*entities.RequestNotification, error) {
	query := `
		SELECT request_id, chat_id, message_id, original_text, annotation, has_photo, sequence, updated_at
		FROM request_notifications WHERE request_id = $1`

	var n entities.RequestNotification
	err := r.storage.QueryRow(ctx, query, requestID).Scan(
		&n.RequestID, &n.ChatID, &n.MessageID, &n.OriginalText, &n.Annotation, &n.HasPhoto, &n.Sequence, &n.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения уведомления по заявке %d: %w", requestID, err)
	}
	return &n, nil
}

// UpdateAnnotation сохраняет приписку и номер показанной записи истории.
func (r *NotificationRepository) UpdateAnnotation(ctx context.Context, requestID uint64, annotation string, sequence uint64) error {
	query := `UPDATE request_notifications SET annotation = $1, sequence = $2, updated_at = NOW() WHERE request_id = $3`

	tag, err := r.storage.Exec(ctx, query, annotation, sequence, requestID)
	if err != nil {
		return fmt.Errorf("ошибка обновления уведомления по заявке %d: %w", requestID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
