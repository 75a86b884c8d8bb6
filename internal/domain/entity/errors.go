package entity

import "errors"

var (
	// ErrTransport ошибка транспорта чата (скачивание или отправка)
	ErrTransport = errors.New("chat transport error")
	// ErrStorage ошибка блоб-хранилища
	ErrStorage = errors.New("blob storage error")
	// ErrInferenceUnavailable сервис детекции недоступен или ответил не 2xx
	ErrInferenceUnavailable = errors.New("inference unavailable")
	// ErrInference модель не отработала
	ErrInference = errors.New("model runtime error")
	// ErrResultNotFound модель не оставила результата. Это не сбой, а отдельный исход.
	ErrResultNotFound = errors.New("prediction result not found")
	// ErrMalformedLabel битая строка в файле разметки
	ErrMalformedLabel = errors.New("malformed label")
	// ErrPersistence ошибка записи в хранилище документов
	ErrPersistence = errors.New("document store error")
	// ErrInvalidKey ключ не указывает на файл
	ErrInvalidKey = errors.New("invalid blob key")
	// ErrBlobNotFound объекта с таким ключом нет
	ErrBlobNotFound = errors.New("blob not found")
)
