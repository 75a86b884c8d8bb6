package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"yolo-bot/internal/domain/entity"
	"yolo-bot/internal/domain/port"
)

// Config параметры подключения к MongoDB
type Config struct {
	URI            string
	Database       string
	Collection     string
	ConnectTimeout time.Duration
}

// DocumentStore хранит итоги предсказаний в коллекции MongoDB
type DocumentStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// Connect подключается к MongoDB и проверяет соединение
func Connect(ctx context.Context, cfg Config) (*DocumentStore, error) {
	timeout := cfg.ConnectTimeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetServerSelectionTimeout(timeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	return &DocumentStore{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.Collection),
	}, nil
}

// InsertOne вставляет документ и возвращает _id в виде строки
func (s *DocumentStore) InsertOne(ctx context.Context, summary *entity.PredictionSummary) (string, error) {
	res, err := s.collection.InsertOne(ctx, summary)
	if err != nil {
		return "", fmt.Errorf("insert into %s: %w", s.collection.Name(), err)
	}
	return idString(res.InsertedID), nil
}

// Close закрывает соединение
func (s *DocumentStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// idString превращает _id, выданный драйвером, в обычную строку
func idString(id interface{}) string {
	switch v := id.(type) {
	case primitive.ObjectID:
		return v.Hex()
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

var _ port.DocumentStore = (*DocumentStore)(nil)
