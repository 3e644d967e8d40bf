package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"maintenance-desk/internal/dto"
	"maintenance-desk/internal/entities"
	"maintenance-desk/internal/events"
	"maintenance-desk/internal/repositories"
	"maintenance-desk/pkg/constants"
	apperrors "maintenance-desk/pkg/errors"
	"maintenance-desk/pkg/eventbus"
	"maintenance-desk/pkg/filestorage"
	"maintenance-desk/pkg/utils"

	"github.com/aarondl/null/v8"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type EventPublisher interface {
	Publish(ctx context.Context, event eventbus.Event)
}

type RequestServiceInterface interface {
	CreateRequest(ctx context.Context, data dto.CreateRequestDTO, photo *dto.FileUpload, actor dto.Actor) (*dto.RequestResponseDTO, error)
	AssignTechnician(ctx context.Context, requestID, technicianID uint64, actor dto.Actor) (*dto.RequestResponseDTO, error)
	SetStatus(ctx context.Context, requestID uint64, status constants.RequestStatus, actor dto.Actor) (*dto.RequestResponseDTO, error)
	StartWork(ctx context.Context, requestID uint64, actor dto.Actor) (*dto.RequestResponseDTO, error)
	Complete(ctx context.Context, requestID uint64, actor dto.Actor) (*dto.RequestResponseDTO, error)
	Deny(ctx context.Context, requestID uint64, actor dto.Actor) (*dto.RequestResponseDTO, error)

	GetRequests(ctx context.Context, query dto.RequestListQuery) ([]dto.RequestResponseDTO, error)
	FindRequest(ctx context.Context, requestID uint64) (*dto.RequestResponseDTO, error)
	GetHistory(ctx context.Context, requestID uint64) ([]dto.RequestHistoryDTO, error)

	ActiveLoad(ctx context.Context, technicianID uint64) (int, error)
	GetEmployees(ctx context.Context) ([]dto.EmployeeDTO, error)
}

type RequestServiceOptions struct {
	// StrictTransitions включает проверку переходов по графу статусов.
	StrictTransitions bool
}

// RequestService — единственный путь изменения заявок и для REST, и для бота.
type RequestService struct {
	txManager     repositories.TxManagerInterface
	requestRepo   repositories.RequestRepositoryInterface
	userRepo      repositories.UserRepositoryInterface
	equipmentRepo repositories.EquipmentRepositoryInterface
	historyRepo   repositories.RequestHistoryRepositoryInterface
	storage       filestorage.FileStorageInterface
	publisher     EventPublisher
	options       RequestServiceOptions
	logger        *zap.Logger
}

func NewRequestService(
	txManager repositories.TxManagerInterface,
	requestRepo repositories.RequestRepositoryInterface,
	userRepo repositories.UserRepositoryInterface,
	equipmentRepo repositories.EquipmentRepositoryInterface,
	historyRepo repositories.RequestHistoryRepositoryInterface,
	storage filestorage.FileStorageInterface,
	publisher EventPublisher,
	options RequestServiceOptions,
	logger *zap.Logger,
) *RequestService {
	return &RequestService{
		txManager:     txManager,
		requestRepo:   requestRepo,
		userRepo:      userRepo,
		equipmentRepo: equipmentRepo,
		historyRepo:   historyRepo,
		storage:       storage,
		publisher:     publisher,
		options:       options,
		logger:        logger,
	}
}

func (s *RequestService) CreateRequest(ctx context.Context, data dto.CreateRequestDTO, photo *dto.FileUpload, actor dto.Actor) (*dto.RequestResponseDTO, error) {
	description := strings.TrimSpace(data.Description)
	if description == "" || !data.UserID.Valid || data.UserID.Uint64 == 0 {
		return nil, apperrors.NewInvalidInputError("Missing required fields")
	}

	author, err := s.userRepo.FindByID(ctx, nil, data.UserID.Uint64)
	if err != nil {
		return nil, notFoundOr(err, "Пользователь #%d не найден", data.UserID.Uint64)
	}
	if data.DeviceID.Valid {
		if _, err := s.equipmentRepo.FindByID(ctx, nil, data.DeviceID.Uint64); err != nil {
			return nil, notFoundOr(err, "Оборудование #%d не найдено", data.DeviceID.Uint64)
		}
	}

	photoPath, err := s.savePhoto(ctx, photo)
	if err != nil {
		return nil, err
	}

	request := &entities.Request{
		Description: description,
		PhotoPath:   photoPath,
		Status:      constants.StatusNew,
		UserID:      author.ID,
		DeviceID:    data.DeviceID,
	}
	if actor.Name == "" {
		actor.Name = author.FullName
	}

	var (
		created *dto.RequestResponseDTO
		history entities.RequestHistory
	)
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		id, err := s.requestRepo.Create(ctx, tx, request)
		if err != nil {
			return err
		}
		history = entities.RequestHistory{
			RequestID: id,
			NewStatus: string(constants.StatusNew),
			Source:    string(actor.Source),
			Actor:     null.StringFrom(actor.Name),
		}
		if err := s.historyRepo.CreateInTx(ctx, tx, &history); err != nil {
			return err
		}
		created, err = s.requestRepo.FindByID(ctx, tx, id)
		return err
	})
	if err != nil {
		if photoPath.Valid {
			if delErr := s.storage.Delete(ctx, photoPath.String); delErr != nil {
				s.logger.Warn("Не удалось удалить фото после отката", zap.String("path", photoPath.String), zap.Error(delErr))
			}
		}
		return nil, fmt.Errorf("не удалось создать заявку: %w", err)
	}

	s.logger.Info("Создана заявка",
		zap.Uint64("requestID", created.ID),
		zap.Uint64("userID", created.UserID),
		zap.String("source", string(actor.Source)),
	)

	s.publisher.Publish(ctx, events.RequestCreatedEvent{
		EventID:  uuid.NewString(),
		Sequence: history.ID,
		Request:  *created,
		Actor:    actor,
	})
	return created, nil
}

func (s *RequestService) savePhoto(ctx context.Context, photo *dto.FileUpload) (null.String, error) {
	if photo == nil || photo.Reader == nil {
		return null.String{}, nil
	}

	contentType := photo.ContentType
	if rs, ok := photo.Reader.(io.ReadSeeker); ok {
		detected, err := utils.ValidatePhoto(rs, photo.Size, constants.MaxPhotoSize)
		if err != nil {
			return null.String{}, apperrors.NewInvalidInputError("%s", err.Error())
		}
		contentType = detected
	}

	path, err := s.storage.Save(ctx, photo.Reader, photo.Size, photo.FileName, contentType, constants.UploadContextRequestPhoto.String())
	if err != nil {
		return null.String{}, fmt.Errorf("не удалось сохранить фото: %w", err)
	}
	return null.StringFrom(path), nil
}

// AssignTechnician не проверяет нагрузку мастера: предупреждать о занятости
// должен тот, кто строит меню выбора.
func (s *RequestService) AssignTechnician(ctx context.Context, requestID, technicianID uint64, actor dto.Actor) (*dto.RequestResponseDTO, error) {
	return s.mutate(ctx, requestID, actor, func(tx pgx.Tx, current *entities.Request) (constants.RequestStatus, null.Uint64, error) {
		technician, err := s.userRepo.FindByID(ctx, tx, technicianID)
		if err != nil {
			return "", null.Uint64{}, notFoundOr(err, "Мастер #%d не найден", technicianID)
		}
		if !technician.IsMaster() {
			return "", null.Uint64{}, apperrors.NewBadRequestError("Пользователь #%d не является мастером", technicianID)
		}
		if err := s.checkTransition(current.Status, constants.StatusAssigned); err != nil {
			return "", null.Uint64{}, err
		}
		return constants.StatusAssigned, null.Uint64From(technician.ID), nil
	})
}

// SetStatus принимает любой статус из закрытого набора. Легальность перехода
// проверяется только в строгом режиме.
func (s *RequestService) SetStatus(ctx context.Context, requestID uint64, status constants.RequestStatus, actor dto.Actor) (*dto.RequestResponseDTO, error) {
	if !status.Valid() {
		return nil, apperrors.NewBadRequestError("Недопустимый статус: %q", string(status))
	}

	return s.mutate(ctx, requestID, actor, func(_ pgx.Tx, current *entities.Request) (constants.RequestStatus, null.Uint64, error) {
		if err := s.checkTransition(current.Status, status); err != nil {
			return "", null.Uint64{}, err
		}

		technicianID := current.TechnicianID
		if status == constants.StatusNew {
			technicianID = null.Uint64{}
		}
		if status.RequiresTechnician() && !technicianID.Valid {
			return "", null.Uint64{}, apperrors.NewBadRequestError("Нельзя перевести заявку #%d в статус «%s» без назначенного мастера", requestID, status.Label())
		}
		return status, technicianID, nil
	})
}

func (s *RequestService) StartWork(ctx context.Context, requestID uint64, actor dto.Actor) (*dto.RequestResponseDTO, error) {
	return s.SetStatus(ctx, requestID, constants.StatusInProgress, actor)
}

func (s *RequestService) Complete(ctx context.Context, requestID uint64, actor dto.Actor) (*dto.RequestResponseDTO, error) {
	return s.SetStatus(ctx, requestID, constants.StatusCompleted, actor)
}

func (s *RequestService) Deny(ctx context.Context, requestID uint64, actor dto.Actor) (*dto.RequestResponseDTO, error) {
	return s.SetStatus(ctx, requestID, constants.StatusDenied, actor)
}

// Повторная отправка того же статуса разрешена и в строгом режиме.
func (s *RequestService) checkTransition(from, to constants.RequestStatus) error {
	if !s.options.StrictTransitions || from == to {
		return nil
	}
	if !constants.CanTransition(from, to) {
		return apperrors.NewBadRequestError("Переход из статуса «%s» в «%s» запрещён", from.Label(), to.Label())
	}
	return nil
}

type decideFunc func(tx pgx.Tx, current *entities.Request) (constants.RequestStatus, null.Uint64, error)

// mutate — одна единица работы: блокировка строки, изменение, запись истории.
// События публикуются только после коммита.
func (s *RequestService) mutate(ctx context.Context, requestID uint64, actor dto.Actor, decide decideFunc) (*dto.RequestResponseDTO, error) {
	var (
		oldStatus constants.RequestStatus
		updated   *dto.RequestResponseDTO
		history   entities.RequestHistory
	)
	actor = s.resolveActor(ctx, actor)

	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		current, err := s.requestRepo.FindForUpdate(ctx, tx, requestID)
		if err != nil {
			return notFoundOr(err, "Заявка #%d не найдена", requestID)
		}
		oldStatus = current.Status

		newStatus, technicianID, err := decide(tx, current)
		if err != nil {
			return err
		}

		if err := s.requestRepo.UpdateAssignment(ctx, tx, requestID, newStatus, technicianID); err != nil {
			return err
		}
		history = entities.RequestHistory{
			RequestID:    requestID,
			OldStatus:    null.StringFrom(string(oldStatus)),
			NewStatus:    string(newStatus),
			TechnicianID: technicianID,
			Source:       string(actor.Source),
			Actor:        null.NewString(actor.Name, actor.Name != ""),
		}
		if err := s.historyRepo.CreateInTx(ctx, tx, &history); err != nil {
			return err
		}

		updated, err = s.requestRepo.FindByID(ctx, tx, requestID)
		return err
	})
	if err != nil {
		var httpErr *apperrors.HttpError
		if errors.As(err, &httpErr) {
			return nil, err
		}
		return nil, fmt.Errorf("не удалось обновить заявку %d: %w", requestID, err)
	}

	s.logger.Info("Статус заявки изменён",
		zap.Uint64("requestID", requestID),
		zap.String("from", string(oldStatus)),
		zap.String("to", string(updated.Status)),
		zap.String("source", string(actor.Source)),
	)

	s.publisher.Publish(ctx, events.RequestStatusChangedEvent{
		EventID:   uuid.NewString(),
		Sequence:  history.ID,
		Request:   *updated,
		OldStatus: oldStatus,
		Actor:     actor,
	})

	if updated.Status == constants.StatusCompleted && oldStatus != constants.StatusCompleted && updated.TechnicianID.Valid {
		s.publisher.Publish(ctx, events.TechnicianFreedEvent{
			EventID:        uuid.NewString(),
			RequestID:      updated.ID,
			TechnicianID:   updated.TechnicianID.Uint64,
			TechnicianName: updated.TechnicianName.String,
		})
	}

	return updated, nil
}

// resolveActor подставляет ФИО пользователя из токена, если имя не передано.
func (s *RequestService) resolveActor(ctx context.Context, actor dto.Actor) dto.Actor {
	if actor.Name != "" || !actor.UserID.Valid {
		return actor
	}
	if user, err := s.userRepo.FindByID(ctx, nil, actor.UserID.Uint64); err == nil {
		actor.Name = user.FullName
	}
	return actor
}

// GetRequests: worker видит свои заявки, master — назначенные ему, остальные — все.
// Если роль не передана, берётся роль пользователя; неизвестный пользователь видит всё.
func (s *RequestService) GetRequests(ctx context.Context, query dto.RequestListQuery) ([]dto.RequestResponseDTO, error) {
	role := constants.Role(query.Role)
	if query.Role == "" && query.UserID.Valid {
		user, err := s.userRepo.FindByID(ctx, nil, query.UserID.Uint64)
		switch {
		case err == nil:
			role = user.Role
		case !errors.Is(err, apperrors.ErrNotFound):
			return nil, err
		}
	}

	filter := repositories.RequestFilter{Limit: query.Limit, Offset: query.Offset}
	if query.Status != "" {
		status, ok := constants.ParseStatus(query.Status)
		if !ok {
			return nil, apperrors.NewBadRequestError("Недопустимый статус: %q", query.Status)
		}
		filter.Status = string(status)
	}

	switch role {
	case constants.RoleWorker:
		if !query.UserID.Valid {
			return nil, apperrors.NewBadRequestError("Для роли %s требуется user_id", role)
		}
		filter.AuthorID = query.UserID
	case constants.RoleMaster:
		if !query.UserID.Valid {
			return nil, apperrors.NewBadRequestError("Для роли %s требуется user_id", role)
		}
		filter.TechnicianID = query.UserID
	}

	return s.requestRepo.List(ctx, filter)
}

func (s *RequestService) FindRequest(ctx context.Context, requestID uint64) (*dto.RequestResponseDTO, error) {
	request, err := s.requestRepo.FindByID(ctx, nil, requestID)
	if err != nil {
		return nil, notFoundOr(err, "Заявка #%d не найдена", requestID)
	}
	return request, nil
}

func (s *RequestService) GetHistory(ctx context.Context, requestID uint64) ([]dto.RequestHistoryDTO, error) {
	if _, err := s.FindRequest(ctx, requestID); err != nil {
		return nil, err
	}

	items, err := s.historyRepo.ListByRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	result := make([]dto.RequestHistoryDTO, 0, len(items))
	for _, h := range items {
		result = append(result, dto.RequestHistoryDTO{
			ID:           h.ID,
			OldStatus:    h.OldStatus,
			NewStatus:    h.NewStatus,
			TechnicianID: h.TechnicianID,
			Source:       h.Source,
			Actor:        h.Actor,
			CreatedAt:    h.CreatedAt,
		})
	}
	return result, nil
}

// ActiveLoad — число заявок мастера в статусе "In Progress".
func (s *RequestService) ActiveLoad(ctx context.Context, technicianID uint64) (int, error) {
	return s.requestRepo.CountActive(ctx, technicianID)
}

func (s *RequestService) GetEmployees(ctx context.Context) ([]dto.EmployeeDTO, error) {
	masters, err := s.userRepo.ListByRole(ctx, constants.RoleMaster)
	if err != nil {
		return nil, err
	}

	ids := make([]uint64, 0, len(masters))
	for _, m := range masters {
		ids = append(ids, m.ID)
	}
	counts, err := s.requestRepo.CountActiveByTechnicians(ctx, ids)
	if err != nil {
		return nil, err
	}

	result := make([]dto.EmployeeDTO, 0, len(masters))
	for _, m := range masters {
		active := counts[m.ID]
		result = append(result, dto.EmployeeDTO{
			ID:          m.ID,
			Username:    m.Username,
			FullName:    m.FullName,
			ShopID:      m.ShopID,
			ActiveTasks: active,
			IsAvailable: active == 0,
		})
	}
	return result, nil
}

func notFoundOr(err error, format string, args ...interface{}) error {
	if errors.Is(err, apperrors.ErrNotFound) {
		return apperrors.NewNotFoundError(format, args...)
	}
	return err
}
