package server

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/tabfit/chart"
	"github.com/YuminosukeSato/tabfit/pkg/log"
	"github.com/YuminosukeSato/tabfit/session"
)

const scenarioCSV = "a,b,c,target\n1,2,x,10\n3,NA,y,20\nNA,6,x,30\n"

func newTestServer(t *testing.T, opts ...Option) *Server {
	t.Helper()
	logger, _ := log.NewTestLogger(log.LevelDebug)
	opts = append([]Option{WithLogger(logger), WithChartSize(chart.Size{WidthIn: 3, HeightIn: 2})}, opts...)
	return New(session.New(session.WithLogger(logger)), opts...)
}

func do(t *testing.T, h http.Handler, method, target string, body []byte, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func doJSON(t *testing.T, h http.Handler, method, target string, v any) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return do(t, h, method, target, b, "application/json")
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func upload(t *testing.T, s *Server) {
	t.Helper()
	rec := do(t, s, http.MethodPost, "/api/dataset", []byte(scenarioCSV), "text/csv")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/healthz", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, false, body["has_data"])
	assert.NotEmpty(t, rec.Header().Get("Content-Type"))
}

func TestBeforeUpload(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/api/correlation?target=target", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())

	rec = do(t, s, http.MethodGet, "/api/grouped-average?target=target&group=c", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())

	rec = do(t, s, http.MethodGet, "/api/columns", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"numeric":[],"categorical":[]}`, rec.Body.String())

	rec = do(t, s, http.MethodGet, "/api/dataset", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, msgNoUpload, decode(t, rec)["error"])

	rec = doJSON(t, s, http.MethodPost, "/api/train", map[string]any{"features": []string{"a"}, "target": "target"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, decode(t, rec)["error"], msgTrainFailed)

	rec = doJSON(t, s, http.MethodPost, "/api/predict", map[string]string{"input": "1"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/model", nil, "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestUploadRawBody(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/dataset", []byte(scenarioCSV), "text/csv")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	body := decode(t, rec)
	assert.EqualValues(t, 3, body["rows"])
	assert.EqualValues(t, 4, body["columns"])
	assert.EqualValues(t, 2, body["missing_before"])
	assert.EqualValues(t, 0, body["missing_after"])
	assert.Equal(t, "csv", body["source"])
	assert.NotEmpty(t, body["dataset_id"])

	rec = do(t, s, http.MethodGet, "/api/columns", nil, "")
	assert.JSONEq(t, `{"numeric":["a","b","target"],"categorical":["c"]}`, rec.Body.String())
}

func TestUploadMultipart(t *testing.T) {
	s := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "houses.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte(scenarioCSV))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	rec := do(t, s, http.MethodPost, "/api/dataset", buf.Bytes(), mw.FormDataContentType())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.EqualValues(t, 3, decode(t, rec)["rows"])
}

func TestUploadErrors(t *testing.T) {
	t.Run("missing file part", func(t *testing.T) {
		s := newTestServer(t)
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		require.NoError(t, mw.WriteField("note", "nothing here"))
		require.NoError(t, mw.Close())

		rec := do(t, s, http.MethodPost, "/api/dataset", buf.Bytes(), mw.FormDataContentType())
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, msgNoUpload, decode(t, rec)["error"])
	})

	t.Run("unknown format", func(t *testing.T) {
		s := newTestServer(t)
		rec := do(t, s, http.MethodPost, "/api/dataset?format=parquet", []byte(scenarioCSV), "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.True(t, strings.HasPrefix(decode(t, rec)["error"].(string), msgUploadFailed))
	})

	t.Run("malformed csv keeps previous dataset", func(t *testing.T) {
		s := newTestServer(t)
		upload(t, s)
		rec := do(t, s, http.MethodPost, "/api/dataset", []byte("a,b\n1,2,3\n"), "text/csv")
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec = do(t, s, http.MethodGet, "/api/dataset", nil, "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.EqualValues(t, 3, decode(t, rec)["rows"])
	})

	t.Run("too large", func(t *testing.T) {
		s := newTestServer(t, WithMaxUploadBytes(16))
		rec := do(t, s, http.MethodPost, "/api/dataset", []byte(scenarioCSV), "text/csv")
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	})
}

func TestAnalysisEndpoints(t *testing.T) {
	s := newTestServer(t)
	upload(t, s)

	rec := do(t, s, http.MethodGet, "/api/grouped-average?target=target&group=c", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var groups []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &groups))
	require.Len(t, groups, 2)
	assert.Equal(t, "x", groups[0]["group"])
	assert.InDelta(t, 20.0, groups[0]["mean"], 1e-9)

	rec = do(t, s, http.MethodGet, "/api/correlation?target=target", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var corrs []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &corrs))
	assert.NotEmpty(t, corrs)

	rec = do(t, s, http.MethodGet, "/api/correlation?target=c", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	for _, path := range []string{
		"/api/charts/grouped-average.png?target=target&group=c",
		"/api/charts/correlation.png?target=target",
		"/api/charts/correlation.png",
	} {
		rec = do(t, s, http.MethodGet, path, nil, "")
		require.Equal(t, http.StatusOK, rec.Code, path)
		assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
		assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")), path)
	}
}

func TestTrainAndPredict(t *testing.T) {
	s := newTestServer(t)
	upload(t, s)

	rec := doJSON(t, s, http.MethodPost, "/api/train", map[string]any{
		"features": []string{"a", "b", "c"},
		"target":   "target",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.True(t, strings.HasPrefix(body["score"].(string), "R² Score: "))
	assert.EqualValues(t, 3, body["rows"])
	assert.Len(t, body["coefficients"], 4)

	rec = do(t, s, http.MethodGet, "/api/model", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, body["id"], decode(t, rec)["id"])

	rec = doJSON(t, s, http.MethodPost, "/api/predict", map[string]string{"input": "2,4,x"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	pred := decode(t, rec)
	y, ok := pred["prediction"].(float64)
	require.True(t, ok)
	assert.False(t, math.IsNaN(y) || math.IsInf(y, 0))
	assert.True(t, strings.HasPrefix(pred["text"].(string), "Prediction: "))

	rec = doJSON(t, s, http.MethodPost, "/api/predict", map[string]string{"input": "2,4"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.True(t, strings.HasPrefix(decode(t, rec)["error"].(string), msgInputMismatch))

	rec = doJSON(t, s, http.MethodPost, "/api/predict", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTrainRejected(t *testing.T) {
	s := newTestServer(t)
	upload(t, s)

	tests := []struct {
		name   string
		body   []byte
		status int
	}{
		{name: "invalid json", body: []byte("{"), status: http.StatusBadRequest},
		{name: "no features", body: []byte(`{"features":[],"target":"target"}`), status: http.StatusBadRequest},
		{name: "blank feature", body: []byte(`{"features":[""],"target":"target"}`), status: http.StatusBadRequest},
		{name: "no target", body: []byte(`{"features":["a"]}`), status: http.StatusBadRequest},
		{name: "unknown column", body: []byte(`{"features":["zzz"],"target":"target"}`), status: http.StatusBadRequest},
		{name: "target among features", body: []byte(`{"features":["a","target"],"target":"target"}`), status: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, "/api/train", tt.body, "application/json")
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Contains(t, decode(t, rec)["error"], msgTrainFailed)
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	upload(t, s)
	rec := doJSON(t, s, http.MethodPost, "/api/train", map[string]any{"features": []string{"a", "b", "c"}, "target": "target"})
	require.Equal(t, http.StatusOK, rec.Code)
	doJSON(t, s, http.MethodPost, "/api/predict", map[string]string{"input": "2,4"})

	rec = do(t, s, http.MethodGet, "/metrics", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "tabfit_dataset_rows 3")
	assert.Contains(t, body, "tabfit_dataset_missing_cells 2")
	assert.Contains(t, body, `tabfit_trainings_total{result="ok"} 1`)
	assert.Contains(t, body, `tabfit_predictions_total{result="error"} 1`)
	assert.Contains(t, body, `tabfit_http_requests_total{method="POST",route="/api/train",status="200"} 1`)
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, WithRateLimit(0.001, 1))

	rec := do(t, s, http.MethodPost, "/api/dataset", []byte(scenarioCSV), "text/csv")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/dataset", []byte(scenarioCSV), "text/csv")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))

	// 読み取り系は制限しない
	rec = do(t, s, http.MethodGet, "/api/columns", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestListenAndServeStops(t *testing.T) {
	s := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx, "127.0.0.1:0") }()
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop")
	}
}
