package entity

// PredictionStage этап обработки запроса детекции
type PredictionStage string

const (
	StageReceived    PredictionStage = "received"
	StageDownloading PredictionStage = "downloading"
	StageDetecting   PredictionStage = "detecting"
	StageUploading   PredictionStage = "uploading"
	StageParsing     PredictionStage = "parsing"
	StagePersisting  PredictionStage = "persisting"
	StageResponded   PredictionStage = "responded"
	StageFailed      PredictionStage = "failed"
)

// Terminal true для конечных состояний.
func (s PredictionStage) Terminal() bool {
	return s == StageResponded || s == StageFailed
}
