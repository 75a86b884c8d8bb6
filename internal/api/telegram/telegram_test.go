package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"yolo-bot/internal/domain/entity"
	"yolo-bot/internal/infrastructure/storage"
)

const testToken = "123:test-token"

// fakeAPI минимальный Bot API: getMe, sendMessage, getFile, (delete|set)Webhook и раздача файлов.
type fakeAPI struct {
	mu       sync.Mutex
	requests []apiCall
	server   *httptest.Server
}

type apiCall struct {
	Method string
	Form   map[string]string
}

func newFakeAPI(t *testing.T) *fakeAPI {
	f := &fakeAPI{}
	f.server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeAPI) serve(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/file/bot"+testToken+"/") {
		if strings.HasSuffix(r.URL.Path, "missing.jpg") {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("jpeg-bytes"))
		return
	}

	_ = r.ParseForm()
	method := strings.TrimPrefix(r.URL.Path, "/bot"+testToken+"/")
	form := make(map[string]string)
	for k := range r.PostForm {
		form[k] = r.PostForm.Get(k)
	}

	f.mu.Lock()
	f.requests = append(f.requests, apiCall{Method: method, Form: form})
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch method {
	case "getMe":
		fmt.Fprint(w, `{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"yolo","username":"yolo_bot"}}`)
	case "sendMessage":
		fmt.Fprint(w, `{"ok":true,"result":{"message_id":100,"date":0,"chat":{"id":42,"type":"private"}}}`)
	case "getFile":
		path := "photos/file_1.jpg"
		if form["file_id"] == "gone" {
			path = "photos/missing.jpg"
		}
		fmt.Fprintf(w, `{"ok":true,"result":{"file_id":%q,"file_unique_id":"u","file_path":%q}}`, form["file_id"], path)
	case "deleteWebhook", "setWebhook":
		fmt.Fprint(w, `{"ok":true,"result":true}`)
	default:
		fmt.Fprint(w, `{"ok":false,"error_code":404,"description":"Not Found"}`)
	}
}

func (f *fakeAPI) calls(method string) []apiCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []apiCall
	for _, c := range f.requests {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeAPI) newBot(t *testing.T) *Bot {
	bot, err := NewBot(Config{
		Token:        testToken,
		APIEndpoint:  f.server.URL + "/bot%s/%s",
		FileEndpoint: f.server.URL + "/file/bot%s/%s",
	}, zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)
	return bot
}

func TestBot_SendText(t *testing.T) {
	api := newFakeAPI(t)
	bot := api.newBot(t)

	require.NoError(t, bot.SendText(context.Background(), 42, "Please send me a photo.", 0))
	require.NoError(t, bot.SendText(context.Background(), 42, "Detected objects:\ncat: 1", 7))

	sent := api.calls("sendMessage")
	require.Len(t, sent, 2)
	require.Equal(t, "42", sent[0].Form["chat_id"])
	require.Equal(t, "Please send me a photo.", sent[0].Form["text"])
	require.Empty(t, sent[0].Form["reply_to_message_id"])
	require.Equal(t, "7", sent[1].Form["reply_to_message_id"])
}

func TestBot_DownloadFile(t *testing.T) {
	api := newFakeAPI(t)
	bot := api.newBot(t)

	file, err := bot.DownloadFile(context.Background(), "f1")
	require.NoError(t, err)
	require.Equal(t, "photos/file_1.jpg", file.Path)
	require.Equal(t, "jpeg-bytes", string(file.Data))

	_, err = bot.DownloadFile(context.Background(), "gone")
	require.Error(t, err)
}

func TestBot_RegisterWebhook(t *testing.T) {
	api := newFakeAPI(t)
	bot := api.newBot(t)

	require.NoError(t, bot.RegisterWebhook("https://bot.example.com/"))

	require.Len(t, api.calls("deleteWebhook"), 1)
	set := api.calls("setWebhook")
	require.Len(t, set, 1)
	require.Equal(t, "https://bot.example.com/"+testToken+"/", set[0].Form["url"])
}

func TestNewBot_InvalidToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"ok":false,"error_code":401,"description":"Unauthorized"}`)
	}))
	defer server.Close()

	_, err := NewBot(Config{Token: "bad", APIEndpoint: server.URL + "/bot%s/%s"}, zaptest.NewLogger(t).Sugar())
	require.Error(t, err)
}

func TestWebhookURL(t *testing.T) {
	require.Equal(t, "https://a.b/tok/", WebhookURL("https://a.b", "tok"))
	require.Equal(t, "https://a.b/tok/", WebhookURL("https://a.b/", "tok"))
}

func TestEventFromUpdate(t *testing.T) {
	_, ok := EventFromUpdate(tgbotapi.Update{UpdateID: 1})
	require.False(t, ok)

	event, ok := EventFromUpdate(tgbotapi.Update{
		UpdateID: 2,
		Message: &tgbotapi.Message{
			MessageID: 9,
			Chat:      &tgbotapi.Chat{ID: 42},
			Photo: []tgbotapi.PhotoSize{
				{FileID: "small", Width: 90, Height: 60, FileSize: 1000},
				{FileID: "big", Width: 1280, Height: 853, FileSize: 90000},
			},
		},
	})
	require.True(t, ok)
	require.Equal(t, int64(42), event.ChatID)
	require.Equal(t, 9, event.MessageID)
	require.Equal(t, entity.EventPhoto, event.Kind())
	best, _ := event.LargestPhoto()
	require.Equal(t, "big", best.FileID)
}

// recordingHandler запоминает события и контекст, с которым его вызвали.
type recordingHandler struct {
	mu     sync.Mutex
	events []entity.ChatEvent
	ctxErr error
}

func (h *recordingHandler) Handle(ctx context.Context, event entity.ChatEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, event)
	h.ctxErr = ctx.Err()
}

type failingDedup struct{}

func (failingDedup) FirstSeen(ctx context.Context, updateID int) (bool, error) {
	return false, errors.New("redis down")
}

func newWebhookServer(t *testing.T, handler *recordingHandler, dedup *storage.MemoryDeduplicator) *echo.Echo {
	e := echo.New()
	NewWebhook(testToken, handler, dedup, zaptest.NewLogger(t).Sugar()).RegisterRoutes(e)
	return e
}

func postUpdate(e *echo.Echo, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

const photoUpdate = `{"update_id":10,"message":{"message_id":5,"date":0,"chat":{"id":42,"type":"private"},"photo":[{"file_id":"f1","file_unique_id":"u1","width":90,"height":90}]}}`

func TestWebhook_Index(t *testing.T) {
	e := newWebhookServer(t, &recordingHandler{}, storage.NewMemoryDeduplicator(time.Minute))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Ok", rec.Body.String())
}

func TestWebhook_Update(t *testing.T) {
	handler := &recordingHandler{}
	e := newWebhookServer(t, handler, storage.NewMemoryDeduplicator(time.Minute))

	rec := postUpdate(e, "/"+testToken+"/", photoUpdate)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Ok", rec.Body.String())

	require.Len(t, handler.events, 1)
	require.Equal(t, int64(42), handler.events[0].ChatID)
	require.Equal(t, "f1", handler.events[0].Photos[0].FileID)
	require.NoError(t, handler.ctxErr)
}

func TestWebhook_DuplicateUpdate(t *testing.T) {
	handler := &recordingHandler{}
	e := newWebhookServer(t, handler, storage.NewMemoryDeduplicator(time.Minute))

	for i := 0; i < 3; i++ {
		rec := postUpdate(e, "/"+testToken+"/", photoUpdate)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	require.Len(t, handler.events, 1)
}

func TestWebhook_BadBodyStillOk(t *testing.T) {
	handler := &recordingHandler{}
	e := newWebhookServer(t, handler, storage.NewMemoryDeduplicator(time.Minute))

	rec := postUpdate(e, "/"+testToken+"/", "{not json")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Ok", rec.Body.String())

	rec = postUpdate(e, "/"+testToken+"/", `{"update_id":11,"edited_message":{"message_id":1,"date":0,"chat":{"id":1,"type":"private"}}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, handler.events)
}

func TestWebhook_WrongToken(t *testing.T) {
	handler := &recordingHandler{}
	e := newWebhookServer(t, handler, storage.NewMemoryDeduplicator(time.Minute))

	rec := postUpdate(e, "/other-token/", photoUpdate)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Empty(t, handler.events)
}

func TestWebhook_DedupFailureStillHandles(t *testing.T) {
	handler := &recordingHandler{}
	e := echo.New()
	NewWebhook(testToken, handler, failingDedup{}, zaptest.NewLogger(t).Sugar()).RegisterRoutes(e)

	rec := postUpdate(e, "/"+testToken+"/", photoUpdate)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, handler.events, 1)
}

func TestWebhook_CancelledRequestDoesNotCancelHandler(t *testing.T) {
	handler := &recordingHandler{}
	e := newWebhookServer(t, handler, storage.NewMemoryDeduplicator(time.Minute))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/"+testToken+"/", strings.NewReader(photoUpdate)).WithContext(ctx)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Len(t, handler.events, 1)
	require.NoError(t, handler.ctxErr)
}
