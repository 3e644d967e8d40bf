// pkg/constants/constants.go
package constants

//============== ROLES ==============

type Role string

const (
	RoleWorker     Role = "worker"
	RoleDispatcher Role = "dispatcher"
	RoleMaster     Role = "master"
)

func (r Role) Valid() bool {
	return r == RoleWorker || r == RoleDispatcher || r == RoleMaster
}

//============== SOURCES ==============

// Source — откуда пришло изменение заявки.
type Source string

const (
	SourceAPI      Source = "api"
	SourceTelegram Source = "telegram"
	SourceSystem   Source = "system"
)

//============== CACHE KEYS ==============

const (
	// Формат: tg_callback:<callback_id>
	CacheKeyTelegramCallback = "tg_callback:%s"
	// Формат: tg_update:<update_id>
	CacheKeyTelegramUpdate = "tg_update:%d"
)

//============== UPLOADS ==============

type UploadContext string

const (
	UploadContextRequestPhoto UploadContext = "request_photo"
)

func (uc UploadContext) String() string {
	return string(uc)
}

const MaxPhotoSize int64 = 10 << 20
