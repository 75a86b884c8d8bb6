package predict

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"yolo-bot/internal/domain/entity"
)

type stubPredictor struct {
	summary *entity.PredictionSummary
	err     error
	keys    []string
	ctxErr  error
}

func (p *stubPredictor) Predict(ctx context.Context, blobKey string) (*entity.PredictionSummary, error) {
	p.keys = append(p.keys, blobKey)
	p.ctxErr = ctx.Err()
	return p.summary, p.err
}

func serve(t *testing.T, p Predictor, method, target string) *httptest.ResponseRecorder {
	e := echo.New()
	NewHandler(p, zaptest.NewLogger(t).Sugar()).RegisterRoutes(e)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestPredict_Success(t *testing.T) {
	p := &stubPredictor{summary: &entity.PredictionSummary{
		ID:               "1",
		PredictionID:     "abc",
		OriginalImgPath:  "predictions/cat.jpg",
		PredictedImgPath: "predictions/abc/cat.jpg",
		Labels:           []entity.DetectionLabel{{Class: "cat", CX: 0.5, CY: 0.5, Width: 0.1, Height: 0.2}},
		Time:             1700000000.5,
	}}

	rec := serve(t, p, http.MethodPost, "/predict?imgName=predictions/cat.jpg")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []string{"predictions/cat.jpg"}, p.keys)

	var got entity.PredictionSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, *p.summary, got)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	require.Contains(t, raw, "_id")
	require.Contains(t, raw, "prediction_id")
}

func TestPredict_Errors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", fmt.Errorf("%w: no label file", entity.ErrResultNotFound), http.StatusNotFound},
		{"invalid key", fmt.Errorf("%w: %q", entity.ErrInvalidKey, "/"), http.StatusBadRequest},
		{"storage", fmt.Errorf("%w: download", entity.ErrStorage), http.StatusInternalServerError},
		{"inference", fmt.Errorf("%w: exit 1", entity.ErrInference), http.StatusInternalServerError},
		{"malformed", fmt.Errorf("%w: line 2", entity.ErrMalformedLabel), http.StatusInternalServerError},
		{"persistence", fmt.Errorf("%w: timeout", entity.ErrPersistence), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := serve(t, &stubPredictor{err: tc.err}, http.MethodPost, "/predict?imgName=predictions/a.jpg")
			require.Equal(t, tc.status, rec.Code)
			require.Equal(t, tc.err.Error(), rec.Body.String())
		})
	}
}

func TestPredict_MissingImgName(t *testing.T) {
	p := &stubPredictor{}
	rec := serve(t, p, http.MethodPost, "/predict")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Empty(t, p.keys)
}

func TestHealth(t *testing.T) {
	rec := serve(t, &stubPredictor{}, http.MethodGet, "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestPredict_CallerCancelDoesNotReachDetection(t *testing.T) {
	p := &stubPredictor{summary: &entity.PredictionSummary{PredictionID: "abc"}}
	e := echo.New()
	NewHandler(p, zaptest.NewLogger(t).Sugar()).RegisterRoutes(e)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/predict?imgName=predictions/cat.jpg", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, []string{"predictions/cat.jpg"}, p.keys)
	require.NoError(t, p.ctxErr)
	require.Equal(t, http.StatusOK, rec.Code)
}
