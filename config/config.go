package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Драйверы хранилища документов
const (
	DocStoreMongo  = "mongo"
	DocStoreSQLite = "sqlite"
	DocStoreMemory = "memory" // Только для локальной отладки, документы живут до рестарта
)

// S3 доступ к блоб-хранилищу
type S3 struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

// Log настройки логгера
type Log struct {
	Level  string
	Format string
}

// Bot конфигурация процесса Telegram-бота
type Bot struct {
	TelegramToken  string
	TelegramAppURL string // Пусто: long polling вместо webhook
	Addr           string

	S3 S3

	DetectorURL     string
	DetectorTimeout time.Duration

	RedisAddr     string // Пусто: дедупликация в памяти
	RedisPassword string
	RedisDB       int
	DedupTTL      time.Duration

	Log Log
}

// Detector конфигурация сервиса детекции
type Detector struct {
	Addr       string
	StagingDir string

	S3 S3

	DocStore        string
	MongoURI        string
	MongoDatabase   string
	MongoCollection string
	SQLitePath      string

	ModelRuntime string
	YoloDir      string
	PythonBin    string
	Weights      string
	Data         string
	ONNX         string

	Log Log
}

// LoadBot читает конфигурацию бота из окружения и .env
func LoadBot() (*Bot, error) {
	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()

	cfg := &Bot{
		TelegramToken:  os.Getenv("TELEGRAM_TOKEN"),
		TelegramAppURL: os.Getenv("TELEGRAM_APP_URL"),
		Addr:           getEnv("BOT_ADDR", ":8443"),

		S3: loadS3("S3_BUCKET_NAME"),

		DetectorURL:     getEnv("EC2_URL", "http://localhost:8081"),
		DetectorTimeout: getEnvDuration("DETECTOR_TIMEOUT", 2*time.Minute),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		DedupTTL:      getEnvDuration("UPDATE_DEDUP_TTL", 10*time.Minute),

		Log: loadLog(),
	}

	if err := checkRequired(
		envVar{"TELEGRAM_TOKEN", cfg.TelegramToken},
		envVar{"S3_BUCKET_NAME", cfg.S3.Bucket},
	); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadDetector читает конфигурацию сервиса детекции
func LoadDetector() (*Detector, error) {
	_ = godotenv.Load()

	cfg := &Detector{
		Addr:       getEnv("DETECTOR_ADDR", ":8081"),
		StagingDir: getEnv("STAGING_DIR", "/tmp/predictions"),

		S3: loadS3("BUCKET_NAME"),

		DocStore:        getEnv("DOCSTORE_DRIVER", DocStoreMongo),
		MongoURI:        getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase:   getEnv("MONGO_DATABASE", "yolov5"),
		MongoCollection: getEnv("MONGO_COLLECTION", "detections"),
		SQLitePath:      getEnv("SQLITE_PATH", "detections.db"),

		ModelRuntime: getEnv("MODEL_RUNTIME", "exec"),
		YoloDir:      getEnv("YOLO_DIR", "yolov5"),
		PythonBin:    getEnv("PYTHON_BIN", "python"),
		Weights:      getEnv("YOLO_WEIGHTS", "yolov5s.pt"),
		Data:         getEnv("YOLO_DATA", "data/coco128.yaml"),
		ONNX:         getEnv("YOLO_ONNX", "yolov5s.onnx"),

		Log: loadLog(),
	}

	if err := checkRequired(envVar{"BUCKET_NAME", cfg.S3.Bucket}); err != nil {
		return nil, err
	}
	switch cfg.DocStore {
	case DocStoreMongo, DocStoreSQLite, DocStoreMemory:
	default:
		return nil, fmt.Errorf("DOCSTORE_DRIVER: unknown driver %q", cfg.DocStore)
	}

	return cfg, nil
}

func loadS3(bucketVar string) S3 {
	return S3{
		Bucket:          os.Getenv(bucketVar),
		Region:          getEnv("S3_REGION", "us-east-1"),
		Endpoint:        os.Getenv("S3_ENDPOINT"),
		AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
		SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
	}
}

func loadLog() Log {
	return Log{
		Level:  getEnv("LOG_LEVEL", "info"),
		Format: getEnv("LOG_FORMAT", "json"),
	}
}

type envVar struct {
	name  string
	value string
}

func checkRequired(vars ...envVar) error {
	for _, v := range vars {
		if v.value == "" {
			return fmt.Errorf("%s is required", v.name)
		}
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
