package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"yolo-bot/internal/domain/entity"
	"yolo-bot/internal/infrastructure/storage"
)

type sentMessage struct {
	ChatID  int64
	Text    string
	ReplyTo int
}

// fakeChat записывает отправленные сообщения и отдаёт заранее заданные файлы.
type fakeChat struct {
	mu          sync.Mutex
	sent        []sentMessage
	files       map[string]*entity.RemoteFile
	downloadErr error
	downloads   int
}

func newFakeChat() *fakeChat {
	return &fakeChat{files: make(map[string]*entity.RemoteFile)}
}

func (c *fakeChat) SendText(ctx context.Context, chatID int64, text string, replyTo int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, sentMessage{ChatID: chatID, Text: text, ReplyTo: replyTo})
	return nil
}

func (c *fakeChat) DownloadFile(ctx context.Context, fileID string) (*entity.RemoteFile, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.downloads++
	if c.downloadErr != nil {
		return nil, c.downloadErr
	}
	f, ok := c.files[fileID]
	if !ok {
		return nil, errors.New("file not found")
	}
	return f, nil
}

func (c *fakeChat) messages() []sentMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]sentMessage(nil), c.sent...)
}

func (c *fakeChat) last(chatID int64) sentMessage {
	msgs := c.messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].ChatID == chatID {
			return msgs[i]
		}
	}
	return sentMessage{}
}

// fakeDetector возвращает исход, вычисленный по ключу, и запоминает,
// было ли изображение уже загружено в момент вызова.
type fakeDetector struct {
	mu       sync.Mutex
	blobs    *storage.MemoryBlobStore
	outcome  func(key string) entity.DetectionOutcome
	keys     []string
	uploaded []bool
}

func (d *fakeDetector) Predict(ctx context.Context, blobKey string) entity.DetectionOutcome {
	_, exists := d.blobs.Object(blobKey)
	d.mu.Lock()
	d.keys = append(d.keys, blobKey)
	d.uploaded = append(d.uploaded, exists)
	d.mu.Unlock()
	return d.outcome(blobKey)
}

func (d *fakeDetector) calls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.keys)
}

type failingBlobStore struct {
	*storage.MemoryBlobStore
	err error
}

func (s *failingBlobStore) Put(ctx context.Context, key string, data []byte) error {
	return s.err
}

type failingDocumentStore struct{}

func (failingDocumentStore) InsertOne(ctx context.Context, summary *entity.PredictionSummary) (string, error) {
	return "", errors.New("replica set unavailable")
}

// fakeModel пишет результаты так же, как yolov5 detect.py с --save-txt.
type fakeModel struct {
	mu      sync.Mutex
	labels  string // содержимое файла разметки; если пусто, файл не пишется
	noImage bool
	err     error
	params  []entity.DetectParams
}

func (m *fakeModel) Detect(ctx context.Context, params entity.DetectParams) error {
	m.mu.Lock()
	m.params = append(m.params, params)
	m.mu.Unlock()

	if m.err != nil {
		return m.err
	}

	out := filepath.Join(params.Project, params.Name)
	if err := os.MkdirAll(filepath.Join(out, "labels"), 0o755); err != nil {
		return err
	}

	name := filepath.Base(params.Source)
	if !m.noImage {
		src, err := os.ReadFile(params.Source)
		if err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(out, name), append([]byte("annotated:"), src...), 0o644); err != nil {
			return err
		}
	}

	if m.labels != "" {
		stem := strings.TrimSuffix(name, filepath.Ext(name))
		return os.WriteFile(filepath.Join(out, "labels", stem+".txt"), []byte(m.labels), 0o644)
	}
	return nil
}
