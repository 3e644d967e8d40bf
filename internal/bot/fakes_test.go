package bot

import (
	"bytes"
	"context"
	"io"
	"sync"
	"time"

	"maintenance-desk/internal/dto"
	"maintenance-desk/internal/entities"
	"maintenance-desk/pkg/constants"
	apperrors "maintenance-desk/pkg/errors"
	"maintenance-desk/pkg/telegram"

	"github.com/aarondl/null/v8"
)

type tgCall struct {
	Method    string
	ChatID    int64
	MessageID int64
	Text      string
	Keyboard  [][]telegram.InlineKeyboardButton
	ShowAlert bool
}

// fakeTelegram записывает все вызовы API.
type fakeTelegram struct {
	mu        sync.Mutex
	calls     []tgCall
	nextID    int64
	sendErr   error
	sendDelay time.Duration
}

func keyboardOf(options []telegram.MessageOption) [][]telegram.InlineKeyboardButton {
	return telegram.KeyboardOf(options...)
}

func (f *fakeTelegram) record(c tgCall) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
}

func (f *fakeTelegram) byMethod(method string) []tgCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []tgCall
	for _, c := range f.calls {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeTelegram) SendMessage(_ context.Context, chatID int64, text string, options ...telegram.MessageOption) (*telegram.Message, error) {
	if f.sendDelay > 0 {
		time.Sleep(f.sendDelay)
	}
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	f.record(tgCall{Method: "sendMessage", ChatID: chatID, Text: text, Keyboard: keyboardOf(options)})
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	return &telegram.Message{MessageID: f.nextID, Chat: telegram.Chat{ID: chatID}, Text: text}, nil
}

func (f *fakeTelegram) SendPhoto(_ context.Context, chatID int64, photo io.Reader, _ string, caption string, options ...telegram.MessageOption) (*telegram.Message, error) {
	if _, err := io.Copy(io.Discard, photo); err != nil {
		return nil, err
	}
	f.record(tgCall{Method: "sendPhoto", ChatID: chatID, Text: caption, Keyboard: keyboardOf(options)})
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	return &telegram.Message{MessageID: f.nextID, Chat: telegram.Chat{ID: chatID}, Caption: caption, Photo: []telegram.PhotoSize{{FileID: "x"}}}, nil
}

func (f *fakeTelegram) EditMessageText(_ context.Context, chatID, messageID int64, text string, options ...telegram.MessageOption) error {
	f.record(tgCall{Method: "editMessageText", ChatID: chatID, MessageID: messageID, Text: text, Keyboard: keyboardOf(options)})
	return nil
}

func (f *fakeTelegram) EditMessageCaption(_ context.Context, chatID, messageID int64, caption string, options ...telegram.MessageOption) error {
	f.record(tgCall{Method: "editMessageCaption", ChatID: chatID, MessageID: messageID, Text: caption, Keyboard: keyboardOf(options)})
	return nil
}

func (f *fakeTelegram) EditMessageReplyMarkup(_ context.Context, chatID, messageID int64, options ...telegram.MessageOption) error {
	f.record(tgCall{Method: "editMessageReplyMarkup", ChatID: chatID, MessageID: messageID, Keyboard: keyboardOf(options)})
	return nil
}

func (f *fakeTelegram) AnswerCallbackQuery(_ context.Context, _ string, text string, showAlert bool) error {
	f.record(tgCall{Method: "answerCallbackQuery", Text: text, ShowAlert: showAlert})
	return nil
}

func (f *fakeTelegram) GetUpdates(ctx context.Context, _ int64, _ time.Duration) ([]telegram.Update, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (f *fakeTelegram) SetWebhook(context.Context, string, string) error { return nil }
func (f *fakeTelegram) DeleteWebhook(context.Context) error              { return nil }

type assignCall struct {
	RequestID    uint64
	TechnicianID uint64
}

// fakeRequests — упрощённый движок заявок без проверок переходов.
type fakeRequests struct {
	mu        sync.Mutex
	requests  map[uint64]*dto.RequestResponseDTO
	masters   []dto.EmployeeDTO
	load      map[uint64]int
	assigned  []assignCall
	statusSet []constants.RequestStatus
}

func newFakeRequests() *fakeRequests {
	return &fakeRequests{
		requests: map[uint64]*dto.RequestResponseDTO{
			5: {ID: 5, Description: "Leaking valve", Status: constants.StatusNew, UserID: 1, AuthorName: "Иван Рабочий"},
		},
		masters: []dto.EmployeeDTO{
			{ID: 3, FullName: "Петр Мастер", IsAvailable: true},
			{ID: 4, FullName: "Сергей Мастер", ActiveTasks: 1},
		},
		load: map[uint64]int{4: 1},
	}
}

func (f *fakeRequests) get(id uint64) (*dto.RequestResponseDTO, error) {
	r, ok := f.requests[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("Заявка #%d не найдена", id)
	}
	return r, nil
}

func (f *fakeRequests) CreateRequest(context.Context, dto.CreateRequestDTO, *dto.FileUpload, dto.Actor) (*dto.RequestResponseDTO, error) {
	return nil, apperrors.NewBadRequestError("не поддерживается")
}

func (f *fakeRequests) AssignTechnician(_ context.Context, requestID, technicianID uint64, _ dto.Actor) (*dto.RequestResponseDTO, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, err := f.get(requestID)
	if err != nil {
		return nil, err
	}
	f.assigned = append(f.assigned, assignCall{requestID, technicianID})
	r.Status = constants.StatusAssigned
	r.TechnicianID = null.Uint64From(technicianID)
	for _, m := range f.masters {
		if m.ID == technicianID {
			r.TechnicianName = null.StringFrom(m.FullName)
		}
	}
	copied := *r
	return &copied, nil
}

func (f *fakeRequests) SetStatus(_ context.Context, requestID uint64, status constants.RequestStatus, _ dto.Actor) (*dto.RequestResponseDTO, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, err := f.get(requestID)
	if err != nil {
		return nil, err
	}
	f.statusSet = append(f.statusSet, status)
	r.Status = status
	copied := *r
	return &copied, nil
}

func (f *fakeRequests) StartWork(ctx context.Context, id uint64, actor dto.Actor) (*dto.RequestResponseDTO, error) {
	return f.SetStatus(ctx, id, constants.StatusInProgress, actor)
}

func (f *fakeRequests) Complete(ctx context.Context, id uint64, actor dto.Actor) (*dto.RequestResponseDTO, error) {
	return f.SetStatus(ctx, id, constants.StatusCompleted, actor)
}

func (f *fakeRequests) Deny(ctx context.Context, id uint64, actor dto.Actor) (*dto.RequestResponseDTO, error) {
	return f.SetStatus(ctx, id, constants.StatusDenied, actor)
}

func (f *fakeRequests) GetRequests(context.Context, dto.RequestListQuery) ([]dto.RequestResponseDTO, error) {
	return nil, nil
}

func (f *fakeRequests) FindRequest(_ context.Context, id uint64) (*dto.RequestResponseDTO, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, err := f.get(id)
	if err != nil {
		return nil, err
	}
	copied := *r
	return &copied, nil
}

func (f *fakeRequests) GetHistory(context.Context, uint64) ([]dto.RequestHistoryDTO, error) {
	return nil, nil
}

func (f *fakeRequests) ActiveLoad(_ context.Context, technicianID uint64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.load[technicianID], nil
}

func (f *fakeRequests) GetEmployees(context.Context) ([]dto.EmployeeDTO, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]dto.EmployeeDTO(nil), f.masters...), nil
}

type fakeNotifications struct {
	mu      sync.Mutex
	records map[uint64]entities.RequestNotification
}

func newFakeNotifications() *fakeNotifications {
	return &fakeNotifications{records: map[uint64]entities.RequestNotification{}}
}

func (f *fakeNotifications) Upsert(_ context.Context, n *entities.RequestNotification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[n.RequestID] = *n
	return nil
}

func (f *fakeNotifications) FindByRequestID(_ context.Context, requestID uint64) (*entities.RequestNotification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.records[requestID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &n, nil
}

func (f *fakeNotifications) UpdateAnnotation(_ context.Context, requestID uint64, annotation string, sequence uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.records[requestID]
	if !ok {
		return apperrors.ErrNotFound
	}
	n.Annotation = annotation
	n.Sequence = sequence
	f.records[requestID] = n
	return nil
}

type fakeStorage struct {
	files map[string][]byte
}

func (s *fakeStorage) Save(context.Context, io.Reader, int64, string, string, string) (string, error) {
	return "", apperrors.ErrBadRequest
}

func (s *fakeStorage) Open(_ context.Context, p string) (io.ReadCloser, error) {
	data, ok := s.files[p]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *fakeStorage) Delete(context.Context, string) error { return nil }
