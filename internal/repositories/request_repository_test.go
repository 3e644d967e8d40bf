package repositories

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"maintenance-desk/internal/entities"
	"maintenance-desk/pkg/constants"
	"maintenance-desk/pkg/database/migrations"
	apperrors "maintenance-desk/pkg/errors"

	"github.com/aarondl/null/v8"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testPool *pgxpool.Pool

// TestMain подключает тестовую БД из TEST_DATABASE_URL и применяет миграции.
// Без переменной интеграционные тесты пропускаются.
func TestMain(m *testing.M) {
	if dsn := os.Getenv("TEST_DATABASE_URL"); dsn != "" {
		var err error
		testPool, err = pgxpool.New(context.Background(), dsn)
		if err != nil {
			log.Fatalf("Не удалось подключиться к тестовой БД: %v", err)
		}
		if err := migrations.Up(context.Background(), testPool); err != nil {
			log.Fatalf("Не удалось применить схему БД: %v", err)
		}
	}

	code := m.Run()
	if testPool != nil {
		testPool.Close()
	}
	os.Exit(code)
}

func requireDB(t *testing.T) {
	t.Helper()
	if testPool == nil {
		t.Skip("TEST_DATABASE_URL не задан")
	}
}

// cleanupTables очищает таблицы для обеспечения изоляции тестов.
func cleanupTables(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	_, err := pool.Exec(context.Background(), `TRUNCATE TABLE request_notifications, request_history, requests, equipment, users RESTART IDENTITY CASCADE;`)
	require.NoError(t, err, "Не удалось очистить таблицы")
}

type seeded struct {
	workerID, masterID, dispatcherID, deviceID uint64
}

func seedData(t *testing.T, pool *pgxpool.Pool) (s seeded) {
	t.Helper()
	ctx := context.Background()
	insertUser := `INSERT INTO users (username, password_hash, full_name, role, shop_id) VALUES ($1, 'x', $2, $3, 1) RETURNING id`

	require.NoError(t, pool.QueryRow(ctx, insertUser, "worker", "Иван Рабочий", "worker").Scan(&s.workerID))
	require.NoError(t, pool.QueryRow(ctx, insertUser, "master", "Петр Мастер", "master").Scan(&s.masterID))
	require.NoError(t, pool.QueryRow(ctx, insertUser, "admin", "Главный Диспетчер", "dispatcher").Scan(&s.dispatcherID))
	require.NoError(t, pool.QueryRow(ctx, `INSERT INTO equipment (name, code, shop_id) VALUES ('Пресс', 'PR-01', 1) RETURNING id`).Scan(&s.deviceID))
	return
}

func TestRequestRepository_Integration_CreateAndFind(t *testing.T) {
	requireDB(t)
	cleanupTables(t, testPool)
	s := seedData(t, testPool)
	repo := NewRequestRepository(testPool)
	ctx := context.Background()

	req := &entities.Request{
		Description: "Leaking valve",
		Status:      constants.StatusNew,
		UserID:      s.workerID,
		DeviceID:    null.Uint64From(s.deviceID),
	}
	id, err := repo.Create(ctx, nil, req)
	require.NoError(t, err)
	assert.NotZero(t, id)
	assert.False(t, req.CreatedAt.IsZero())

	view, err := repo.FindByID(ctx, nil, id)
	require.NoError(t, err)
	assert.Equal(t, constants.StatusNew, view.Status)
	assert.Equal(t, "Новая", view.StatusLabel)
	assert.Equal(t, "Иван Рабочий", view.AuthorName)
	assert.False(t, view.TechnicianID.Valid)
	assert.Equal(t, "Пресс", view.DeviceName.String)

	_, err = repo.FindByID(ctx, nil, 9999)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestRequestRepository_Integration_ListNewestFirstAndFilters(t *testing.T) {
	requireDB(t)
	cleanupTables(t, testPool)
	s := seedData(t, testPool)
	repo := NewRequestRepository(testPool)
	ctx := context.Background()

	var ids []uint64
	for i, author := range []uint64{s.workerID, s.dispatcherID, s.workerID} {
		id, err := repo.Create(ctx, nil, &entities.Request{Description: "заявка", Status: constants.StatusNew, UserID: author})
		require.NoError(t, err)
		_, err = testPool.Exec(ctx, `UPDATE requests SET created_at = $1 WHERE id = $2`,
			time.Date(2024, 1, 1+i, 0, 0, 0, 0, time.UTC), id)
		require.NoError(t, err)
		ids = append(ids, id)
	}

	all, err := repo.List(ctx, RequestFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []uint64{ids[2], ids[1], ids[0]}, []uint64{all[0].ID, all[1].ID, all[2].ID})

	own, err := repo.List(ctx, RequestFilter{AuthorID: null.Uint64From(s.workerID)})
	require.NoError(t, err)
	require.Len(t, own, 2)
	assert.Equal(t, ids[2], own[0].ID)
	for _, item := range own {
		assert.Equal(t, s.workerID, item.UserID)
	}
}

func TestRequestRepository_Integration_AssignmentAndLoad(t *testing.T) {
	requireDB(t)
	cleanupTables(t, testPool)
	s := seedData(t, testPool)
	repo := NewRequestRepository(testPool)
	txManager := NewTxManager(testPool)
	ctx := context.Background()

	id, err := repo.Create(ctx, nil, &entities.Request{Description: "Leaking valve", Status: constants.StatusNew, UserID: s.workerID})
	require.NoError(t, err)

	err = txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		current, err := repo.FindForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		assert.Equal(t, constants.StatusNew, current.Status)
		return repo.UpdateAssignment(ctx, tx, id, constants.StatusInProgress, null.Uint64From(s.masterID))
	})
	require.NoError(t, err)

	load, err := repo.CountActive(ctx, s.masterID)
	require.NoError(t, err)
	assert.Equal(t, 1, load)

	counts, err := repo.CountActiveByTechnicians(ctx, []uint64{s.masterID, s.workerID})
	require.NoError(t, err)
	assert.Equal(t, 1, counts[s.masterID])
	assert.Equal(t, 0, counts[s.workerID])

	assert.ErrorIs(t, repo.UpdateAssignment(ctx, nil, 9999, constants.StatusDenied, null.Uint64{}), apperrors.ErrNotFound)
}

func TestRequestRepository_Integration_RejectsInvalidState(t *testing.T) {
	requireDB(t)
	cleanupTables(t, testPool)
	s := seedData(t, testPool)
	repo := NewRequestRepository(testPool)
	ctx := context.Background()

	id, err := repo.Create(ctx, nil, &entities.Request{Description: "x", Status: constants.StatusNew, UserID: s.workerID})
	require.NoError(t, err)

	assert.Error(t, repo.UpdateAssignment(ctx, nil, id, constants.RequestStatus("Processed"), null.Uint64From(s.masterID)))
	assert.Error(t, repo.UpdateAssignment(ctx, nil, id, constants.StatusAssigned, null.Uint64{}))

	_, err = testPool.Exec(ctx, `UPDATE requests SET user_id = $1 WHERE id = $2`, s.dispatcherID, id)
	assert.Error(t, err)
}

func TestNotificationRepository_Integration(t *testing.T) {
	requireDB(t)
	cleanupTables(t, testPool)
	s := seedData(t, testPool)
	ctx := context.Background()

	id, err := NewRequestRepository(testPool).Create(ctx, nil, &entities.Request{Description: "x", Status: constants.StatusNew, UserID: s.workerID})
	require.NoError(t, err)

	repo := NewNotificationRepository(testPool)
	require.NoError(t, repo.Upsert(ctx, &entities.RequestNotification{RequestID: id, ChatID: -100, MessageID: 5, OriginalText: "текст", Sequence: 1}))
	n, err := repo.FindByRequestID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), n.Sequence)

	require.NoError(t, repo.UpdateAnnotation(ctx, id, "\n\n❌ Отклонена", 7))

	n, err = repo.FindByRequestID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "текст\n\n❌ Отклонена", n.Text())
	assert.Equal(t, uint64(7), n.Sequence)

	_, err = repo.FindByRequestID(ctx, 9999)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestUserRepository_Integration(t *testing.T) {
	requireDB(t)
	cleanupTables(t, testPool)
	s := seedData(t, testPool)
	repo := NewUserRepository(testPool)
	ctx := context.Background()

	masters, err := repo.ListByRole(ctx, constants.RoleMaster)
	require.NoError(t, err)
	require.Len(t, masters, 1)
	assert.Equal(t, s.masterID, masters[0].ID)

	u, err := repo.FindByUsername(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, constants.RoleDispatcher, u.Role)

	_, err = repo.FindByID(ctx, nil, 9999)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
