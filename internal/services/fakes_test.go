package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"maintenance-desk/internal/dto"
	"maintenance-desk/internal/entities"
	"maintenance-desk/internal/repositories"
	"maintenance-desk/pkg/constants"
	apperrors "maintenance-desk/pkg/errors"
	"maintenance-desk/pkg/eventbus"

	"github.com/aarondl/null/v8"
	"github.com/jackc/pgx/v5"
)

// memStore — хранилище в памяти с откатом при ошибке в транзакции.
type memStore struct {
	mu        sync.Mutex
	users     map[uint64]entities.User
	equipment map[uint64]entities.Equipment
	requests  map[uint64]entities.Request
	history   []entities.RequestHistory
	nextID    uint64
	clock     time.Time

	failHistory error
}

func newMemStore() *memStore {
	return &memStore{
		users:     map[uint64]entities.User{},
		equipment: map[uint64]entities.Equipment{},
		requests:  map[uint64]entities.Request{},
		clock:     time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC),
	}
}

func (m *memStore) addUser(id uint64, username, fullName string, role constants.Role) {
	m.users[id] = entities.User{ID: id, Username: username, FullName: fullName, Role: role, ShopID: null.Uint64From(1)}
}

func (m *memStore) view(r entities.Request) *dto.RequestResponseDTO {
	item := &dto.RequestResponseDTO{
		ID:           r.ID,
		Description:  r.Description,
		PhotoPath:    r.PhotoPath,
		Status:       r.Status,
		StatusLabel:  r.Status.Label(),
		CreatedAt:    r.CreatedAt,
		UserID:       r.UserID,
		AuthorName:   m.users[r.UserID].FullName,
		TechnicianID: r.TechnicianID,
		DeviceID:     r.DeviceID,
	}
	if r.TechnicianID.Valid {
		item.TechnicianName = null.StringFrom(m.users[r.TechnicianID.Uint64].FullName)
	}
	if r.DeviceID.Valid {
		item.DeviceName = null.StringFrom(m.equipment[r.DeviceID.Uint64].Name)
	}
	return item
}

type fakeTxManager struct{ store *memStore }

func (f fakeTxManager) RunInTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error {
	f.store.mu.Lock()
	requests := make(map[uint64]entities.Request, len(f.store.requests))
	for k, v := range f.store.requests {
		requests[k] = v
	}
	historyLen := len(f.store.history)
	f.store.mu.Unlock()

	if err := fn(nil); err != nil {
		f.store.mu.Lock()
		f.store.requests = requests
		f.store.history = f.store.history[:historyLen]
		f.store.mu.Unlock()
		return err
	}
	return nil
}

type fakeRequestRepo struct{ store *memStore }

func (f fakeRequestRepo) Create(_ context.Context, _ pgx.Tx, request *entities.Request) (uint64, error) {
	m := f.store
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	m.clock = m.clock.Add(time.Minute)
	request.ID = m.nextID
	request.CreatedAt = m.clock
	request.UpdatedAt = m.clock
	m.requests[request.ID] = *request
	return request.ID, nil
}

func (f fakeRequestRepo) FindForUpdate(_ context.Context, _ pgx.Tx, id uint64) (*entities.Request, error) {
	m := f.store
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &r, nil
}

func (f fakeRequestRepo) UpdateAssignment(_ context.Context, _ pgx.Tx, id uint64, status constants.RequestStatus, technicianID null.Uint64) error {
	m := f.store
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	if !status.Valid() {
		return fmt.Errorf("check constraint violated: %s", status)
	}
	r.Status = status
	r.TechnicianID = technicianID
	m.requests[id] = r
	return nil
}

func (f fakeRequestRepo) FindByID(_ context.Context, _ pgx.Tx, id uint64) (*dto.RequestResponseDTO, error) {
	m := f.store
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return m.view(r), nil
}

func (f fakeRequestRepo) List(_ context.Context, filter repositories.RequestFilter) ([]dto.RequestResponseDTO, error) {
	m := f.store
	m.mu.Lock()
	defer m.mu.Unlock()

	items := make([]dto.RequestResponseDTO, 0)
	for _, r := range m.requests {
		if filter.AuthorID.Valid && r.UserID != filter.AuthorID.Uint64 {
			continue
		}
		if filter.TechnicianID.Valid && (!r.TechnicianID.Valid || r.TechnicianID.Uint64 != filter.TechnicianID.Uint64) {
			continue
		}
		if filter.Status != "" && string(r.Status) != filter.Status {
			continue
		}
		items = append(items, *m.view(r))
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		}
		return items[i].ID > items[j].ID
	})
	return items, nil
}

func (f fakeRequestRepo) CountActive(ctx context.Context, technicianID uint64) (int, error) {
	counts, err := f.CountActiveByTechnicians(ctx, []uint64{technicianID})
	return counts[technicianID], err
}

func (f fakeRequestRepo) CountActiveByTechnicians(_ context.Context, ids []uint64) (map[uint64]int, error) {
	m := f.store
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := map[uint64]int{}
	for _, r := range m.requests {
		if r.Status != constants.StatusInProgress || !r.TechnicianID.Valid {
			continue
		}
		for _, id := range ids {
			if id == r.TechnicianID.Uint64 {
				counts[id]++
			}
		}
	}
	return counts, nil
}

type fakeUserRepo struct{ store *memStore }

func (f fakeUserRepo) FindByID(_ context.Context, _ pgx.Tx, id uint64) (*entities.User, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	u, ok := f.store.users[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &u, nil
}

func (f fakeUserRepo) FindByUsername(_ context.Context, username string) (*entities.User, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	for _, u := range f.store.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (f fakeUserRepo) ListByRole(_ context.Context, role constants.Role) ([]entities.User, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	users := make([]entities.User, 0)
	for _, u := range f.store.users {
		if u.Role == role {
			users = append(users, u)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

type fakeEquipmentRepo struct{ store *memStore }

func (f fakeEquipmentRepo) FindByID(_ context.Context, _ pgx.Tx, id uint64) (*entities.Equipment, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	eq, ok := f.store.equipment[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &eq, nil
}

func (f fakeEquipmentRepo) List(_ context.Context) ([]entities.Equipment, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	items := make([]entities.Equipment, 0)
	for _, eq := range f.store.equipment {
		items = append(items, eq)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

type fakeHistoryRepo struct{ store *memStore }

func (f fakeHistoryRepo) CreateInTx(_ context.Context, _ pgx.Tx, h *entities.RequestHistory) error {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	if f.store.failHistory != nil {
		return f.store.failHistory
	}
	h.ID = uint64(len(f.store.history) + 1)
	h.CreatedAt = f.store.clock
	f.store.history = append(f.store.history, *h)
	return nil
}

func (f fakeHistoryRepo) ListByRequest(_ context.Context, requestID uint64) ([]entities.RequestHistory, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	items := make([]entities.RequestHistory, 0)
	for _, h := range f.store.history {
		if h.RequestID == requestID {
			items = append(items, h)
		}
	}
	return items, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []eventbus.Event
}

func (p *recordingPublisher) Publish(_ context.Context, event eventbus.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *recordingPublisher) named(name string) []eventbus.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []eventbus.Event
	for _, e := range p.events {
		if e.Name() == name {
			out = append(out, e)
		}
	}
	return out
}

type fakeStorage struct {
	mu      sync.Mutex
	saved   []string
	deleted []string
}

func (s *fakeStorage) Save(_ context.Context, file io.Reader, _ int64, originalFileName, _ string, prefix string) (string, error) {
	if _, err := io.Copy(io.Discard, file); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	path := fmt.Sprintf("%s/%d-%s", prefix, len(s.saved)+1, originalFileName)
	s.saved = append(s.saved, path)
	return path, nil
}

func (s *fakeStorage) Open(_ context.Context, _ string) (io.ReadCloser, error) {
	return nil, errors.New("не используется")
}

func (s *fakeStorage) Delete(_ context.Context, filePath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, filePath)
	return nil
}

func entitiesEquipment(id uint64, name, code string) entities.Equipment {
	return entities.Equipment{ID: id, Name: name, Code: code, ShopID: null.Uint64From(1)}
}
