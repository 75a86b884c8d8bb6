package entity

// PredictionSummary итог одного запроса детекции. После создания не меняется,
// записывается в хранилище документов один раз.
type PredictionSummary struct {
	ID               string           `json:"_id,omitempty" bson:"_id,omitempty"` // Идентификатор, выданный хранилищем
	PredictionID     string           `json:"prediction_id" bson:"prediction_id"`
	OriginalImgPath  string           `json:"original_img_path" bson:"original_img_path"`
	PredictedImgPath string           `json:"predicted_img_path" bson:"predicted_img_path"`
	Labels           []DetectionLabel `json:"labels" bson:"labels"`
	Time             float64          `json:"time" bson:"time"` // unix-время в секундах
}

// DetectParams параметры запуска модели
type DetectParams struct {
	Weights string // Веса модели
	Data    string // yaml с именами классов
	Source  string // Путь к исходному изображению
	Project string // Каталог для результатов
	Name    string // Подкаталог внутри Project (id предсказания)
	SaveTxt bool   // Писать файл разметки для каждого изображения
}

// OutcomeStatus исход запроса к сервису детекции
type OutcomeStatus int

const (
	OutcomeFailure OutcomeStatus = iota
	OutcomeSuccess
	OutcomeNotFound
)

// DetectionOutcome результат вызова сервиса детекции: успех, "не найдено" или ошибка.
type DetectionOutcome struct {
	Status  OutcomeStatus
	Summary *PredictionSummary
	Reason  string
}

// Success оборачивает успешный результат.
func Success(summary *PredictionSummary) DetectionOutcome {
	return DetectionOutcome{Status: OutcomeSuccess, Summary: summary}
}

// NotFound сервис не нашёл результата предсказания.
func NotFound(reason string) DetectionOutcome {
	return DetectionOutcome{Status: OutcomeNotFound, Reason: reason}
}

// Failure сервис недоступен или ответил ошибкой.
func Failure(reason string) DetectionOutcome {
	return DetectionOutcome{Status: OutcomeFailure, Reason: reason}
}

// HasLabels true, если есть хотя бы один найденный объект.
func (o DetectionOutcome) HasLabels() bool {
	return o.Status == OutcomeSuccess && o.Summary != nil && len(o.Summary.Labels) > 0
}
