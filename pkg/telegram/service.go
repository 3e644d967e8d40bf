// Файл: pkg/telegram/service.go
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const DefaultAPIURL = "https://api.telegram.org"

type ServiceInterface interface {
	SendMessage(ctx context.Context, chatID int64, text string, options ...MessageOption) (*Message, error)
	SendPhoto(ctx context.Context, chatID int64, photo io.Reader, fileName, caption string, options ...MessageOption) (*Message, error)

	EditMessageText(ctx context.Context, chatID, messageID int64, text string, options ...MessageOption) error
	EditMessageCaption(ctx context.Context, chatID, messageID int64, caption string, options ...MessageOption) error
	EditMessageReplyMarkup(ctx context.Context, chatID, messageID int64, options ...MessageOption) error

	AnswerCallbackQuery(ctx context.Context, callbackQueryID, text string, showAlert bool) error

	GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error)
	SetWebhook(ctx context.Context, url, secretToken string) error
	DeleteWebhook(ctx context.Context) error
}

type Service struct {
	botToken   string
	apiURL     string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewService(botToken, apiURL string, logger *zap.Logger) *Service {
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	return &Service{
		botToken:   botToken,
		apiURL:     strings.TrimRight(apiURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     logger,
	}
}

// APIError — ответ Telegram с ok=false.
type APIError struct {
	Method      string
	Code        int
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram API ошибка (%s): код %d, описание: %s", e.Method, e.Code, e.Description)
}

// IsNotModified — Telegram отклоняет правку, не меняющую сообщение.
func IsNotModified(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && strings.Contains(apiErr.Description, "message is not modified")
}

// --- ОСНОВНЫЕ СТРУКТУРЫ ЗАПРОСОВ ---

type messageOptions struct {
	ReplyMarkup *inlineKeyboardMarkup
}

type MessageOption func(*messageOptions)

func WithKeyboard(rows [][]InlineKeyboardButton) MessageOption {
	return func(o *messageOptions) {
		if len(rows) > 0 {
			o.ReplyMarkup = &inlineKeyboardMarkup{InlineKeyboard: rows}
		}
	}
}

// KeyboardOf возвращает клавиатуру, заданную опциями, или nil.
func KeyboardOf(options ...MessageOption) [][]InlineKeyboardButton {
	o := applyOptions(options)
	if o.ReplyMarkup == nil {
		return nil
	}
	return o.ReplyMarkup.InlineKeyboard
}

func applyOptions(options []MessageOption) messageOptions {
	var o messageOptions
	for _, opt := range options {
		opt(&o)
	}
	return o
}

type sendMessageRequest struct {
	ChatID      int64                 `json:"chat_id"`
	Text        string                `json:"text"`
	ReplyMarkup *inlineKeyboardMarkup `json:"reply_markup,omitempty"`
}

type editMessageTextRequest struct {
	ChatID      int64                 `json:"chat_id"`
	MessageID   int64                 `json:"message_id"`
	Text        string                `json:"text"`
	ReplyMarkup *inlineKeyboardMarkup `json:"reply_markup,omitempty"`
}

type editMessageCaptionRequest struct {
	ChatID      int64                 `json:"chat_id"`
	MessageID   int64                 `json:"message_id"`
	Caption     string                `json:"caption"`
	ReplyMarkup *inlineKeyboardMarkup `json:"reply_markup,omitempty"`
}

// Пустая клавиатура в editMessageReplyMarkup убирает кнопки.
type editMessageReplyMarkupRequest struct {
	ChatID      int64                `json:"chat_id"`
	MessageID   int64                `json:"message_id"`
	ReplyMarkup inlineKeyboardMarkup `json:"reply_markup"`
}

type callbackQueryRequest struct {
	CallbackQueryID string `json:"callback_query_id"`
	Text            string `json:"text,omitempty"`
	ShowAlert       bool   `json:"show_alert,omitempty"`
}

type getUpdatesRequest struct {
	Offset         int64    `json:"offset,omitempty"`
	Timeout        int      `json:"timeout"`
	AllowedUpdates []string `json:"allowed_updates"`
}

type setWebhookRequest struct {
	URL            string   `json:"url"`
	AllowedUpdates []string `json:"allowed_updates"`
	SecretToken    string   `json:"secret_token,omitempty"`
}

var allowedUpdates = []string{"message", "callback_query"}

// SecretTokenHeader — заголовок с секретом вебхука во входящих запросах.
const SecretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

// --- МЕТОДЫ ---

func (s *Service) SendMessage(ctx context.Context, chatID int64, text string, options ...MessageOption) (*Message, error) {
	o := applyOptions(options)
	reqPayload := &sendMessageRequest{
		ChatID:      chatID,
		Text:        text,
		ReplyMarkup: o.ReplyMarkup,
	}

	var msg Message
	if err := s.sendRequest(ctx, "sendMessage", reqPayload, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// SendPhoto загружает фото multipart-запросом.
func (s *Service) SendPhoto(ctx context.Context, chatID int64, photo io.Reader, fileName, caption string, options ...MessageOption) (*Message, error) {
	o := applyOptions(options)

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	fields := map[string]string{
		"chat_id": fmt.Sprintf("%d", chatID),
		"caption": caption,
	}
	if o.ReplyMarkup != nil {
		markup, err := json.Marshal(o.ReplyMarkup)
		if err != nil {
			return nil, fmt.Errorf("ошибка сериализации клавиатуры: %w", err)
		}
		fields["reply_markup"] = string(markup)
	}
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return nil, fmt.Errorf("ошибка формирования запроса: %w", err)
		}
	}

	part, err := writer.CreateFormFile("photo", fileName)
	if err != nil {
		return nil, fmt.Errorf("ошибка формирования запроса: %w", err)
	}
	if _, err := io.Copy(part, photo); err != nil {
		return nil, fmt.Errorf("ошибка чтения фото: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("ошибка формирования запроса: %w", err)
	}

	var msg Message
	if err := s.do(ctx, "sendPhoto", writer.FormDataContentType(), body, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (s *Service) EditMessageText(ctx context.Context, chatID, messageID int64, text string, options ...MessageOption) error {
	o := applyOptions(options)
	editReq := &editMessageTextRequest{
		ChatID:      chatID,
		MessageID:   messageID,
		Text:        text,
		ReplyMarkup: o.ReplyMarkup,
	}
	return ignoreNotModified(s.sendRequest(ctx, "editMessageText", editReq, nil))
}

func (s *Service) EditMessageCaption(ctx context.Context, chatID, messageID int64, caption string, options ...MessageOption) error {
	o := applyOptions(options)
	editReq := &editMessageCaptionRequest{
		ChatID:      chatID,
		MessageID:   messageID,
		Caption:     caption,
		ReplyMarkup: o.ReplyMarkup,
	}
	return ignoreNotModified(s.sendRequest(ctx, "editMessageCaption", editReq, nil))
}

func (s *Service) EditMessageReplyMarkup(ctx context.Context, chatID, messageID int64, options ...MessageOption) error {
	o := applyOptions(options)
	editReq := &editMessageReplyMarkupRequest{
		ChatID:      chatID,
		MessageID:   messageID,
		ReplyMarkup: inlineKeyboardMarkup{InlineKeyboard: [][]InlineKeyboardButton{}},
	}
	if o.ReplyMarkup != nil {
		editReq.ReplyMarkup = *o.ReplyMarkup
	}
	return ignoreNotModified(s.sendRequest(ctx, "editMessageReplyMarkup", editReq, nil))
}

// Ответ на callback-кнопку. showAlert показывает модальное окно вместо всплывающей подсказки.
func (s *Service) AnswerCallbackQuery(ctx context.Context, callbackQueryID, text string, showAlert bool) error {
	if callbackQueryID == "" {
		return fmt.Errorf("callbackQueryID не может быть пустым")
	}

	reqPayload := callbackQueryRequest{
		CallbackQueryID: callbackQueryID,
		Text:            text,
		ShowAlert:       showAlert,
	}
	return s.sendRequest(ctx, "answerCallbackQuery", reqPayload, nil)
}

// GetUpdates — long polling. timeout должен быть меньше таймаута HTTP-клиента.
func (s *Service) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error) {
	reqPayload := getUpdatesRequest{
		Offset:         offset,
		Timeout:        int(timeout.Seconds()),
		AllowedUpdates: allowedUpdates,
	}

	var updates []Update
	if err := s.sendRequest(ctx, "getUpdates", reqPayload, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}

// SetWebhook регистрирует вебхук. Непустой secretToken Telegram будет
// присылать в заголовке SecretTokenHeader.
func (s *Service) SetWebhook(ctx context.Context, url, secretToken string) error {
	return s.sendRequest(ctx, "setWebhook", setWebhookRequest{URL: url, AllowedUpdates: allowedUpdates, SecretToken: secretToken}, nil)
}

func (s *Service) DeleteWebhook(ctx context.Context) error {
	return s.sendRequest(ctx, "deleteWebhook", struct{}{}, nil)
}

// --- ВСПОМОГАТЕЛЬНЫЕ ФУНКЦИИ ---

func ignoreNotModified(err error) error {
	if IsNotModified(err) {
		return nil
	}
	return err
}

func (s *Service) sendRequest(ctx context.Context, methodName string, payload interface{}, result interface{}) error {
	reqBody, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("ошибка сериализации JSON: %w", err)
	}
	return s.do(ctx, methodName, "application/json", bytes.NewReader(reqBody), result)
}

func (s *Service) do(ctx context.Context, methodName, contentType string, body io.Reader, result interface{}) error {
	if s.botToken == "" {
		return fmt.Errorf("токен Telegram-бота не установлен")
	}

	apiURL := fmt.Sprintf("%s/bot%s/%s", s.apiURL, s.botToken, methodName)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, body)
	if err != nil {
		return fmt.Errorf("ошибка создания запроса: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ошибка отправки запроса в Telegram (%s): %w", methodName, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("ошибка чтения ответа Telegram: %w", err)
	}

	s.logger.Debug("telegram", zap.String("method", methodName), zap.ByteString("response", respBody))

	// Telegram возвращает JSON с полем ok и при ошибочных HTTP-кодах
	var telegramResp struct {
		OK          bool            `json:"ok"`
		Description string          `json:"description,omitempty"`
		ErrorCode   int             `json:"error_code,omitempty"`
		Result      json.RawMessage `json:"result,omitempty"`
	}

	if err := json.Unmarshal(respBody, &telegramResp); err != nil {
		return fmt.Errorf("ошибка декодирования ответа Telegram API (HTTP %d): %w", resp.StatusCode, err)
	}

	if !telegramResp.OK {
		return &APIError{Method: methodName, Code: telegramResp.ErrorCode, Description: telegramResp.Description}
	}

	if result != nil && len(telegramResp.Result) > 0 {
		if err := json.Unmarshal(telegramResp.Result, result); err != nil {
			return fmt.Errorf("ошибка декодирования результата %s: %w", methodName, err)
		}
	}

	return nil
}
