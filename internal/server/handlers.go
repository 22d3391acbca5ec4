package server

import (
	"bytes"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/render"
	"gonum.org/v1/plot"

	"github.com/YuminosukeSato/tabfit/chart"
	"github.com/YuminosukeSato/tabfit/dataset"
	"github.com/YuminosukeSato/tabfit/pipeline"
	"github.com/YuminosukeSato/tabfit/pkg/errors"
	"github.com/YuminosukeSato/tabfit/session"
)

// User facing prefixes.
const (
	msgUploadFailed  = "Error processing file"
	msgNoUpload      = "No file uploaded yet."
	msgTrainFailed   = "training error"
	msgInputMismatch = "Errors - inputs don't match the dataset"
)

type healthResponse struct {
	Status   string `json:"status"`
	HasData  bool   `json:"has_data"`
	HasModel bool   `json:"has_model"`
}

// handleHealth handles GET /healthz.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	st := s.sess.Snapshot()
	render.JSON(w, r, healthResponse{Status: "ok", HasData: st.HasData(), HasModel: st.HasModel()})
}

// handleUpload handles POST /api/dataset.
// The body is either a multipart form with a "file" part or the raw file.
// The format comes from ?format=, then the file extension, then CSV.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)

	var (
		body     io.Reader = r.Body
		fileName string
	)
	if isMultipart(r) {
		if err := r.ParseMultipartForm(s.maxUpload); err != nil {
			s.renderError(w, r, errors.NewParseError("upload", 0, "invalid multipart form", err), msgUploadFailed)
			return
		}
		f, header, err := r.FormFile("file")
		if err != nil {
			if errors.Is(err, http.ErrMissingFile) {
				_ = render.Render(w, r, &errResponse{HTTPStatus: http.StatusBadRequest, Message: msgNoUpload})
				return
			}
			s.renderError(w, r, errors.NewParseError("upload", 0, "read form file", err), msgUploadFailed)
			return
		}
		defer f.Close()
		body, fileName = f, header.Filename
	}

	name := r.URL.Query().Get("format")
	if name == "" {
		name = filepath.Ext(fileName)
	}
	format, err := dataset.ParseFormat(name)
	if err != nil {
		s.renderError(w, r, err, msgUploadFailed)
		return
	}

	summary, err := s.sess.Load(r.Context(), body, format)
	if err != nil {
		s.renderError(w, r, err, msgUploadFailed)
		return
	}
	s.metrics.datasetRows.Set(float64(summary.Rows))
	s.metrics.datasetMissing.Set(float64(summary.MissingBefore))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, summary)
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/")
}

// handleSummary handles GET /api/dataset.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, ok := s.sess.Summary()
	if !ok {
		_ = render.Render(w, r, &errResponse{HTTPStatus: http.StatusNotFound, Message: msgNoUpload})
		return
	}
	render.JSON(w, r, summary)
}

type columnsResponse struct {
	Numeric     []string `json:"numeric"`
	Categorical []string `json:"categorical"`
}

// handleColumns handles GET /api/columns.
func (s *Server) handleColumns(w http.ResponseWriter, r *http.Request) {
	spec := s.sess.Columns()
	render.JSON(w, r, columnsResponse{
		Numeric:     nonNil(spec.Numeric),
		Categorical: nonNil(spec.Categorical),
	})
}

// handleGroupedAverage handles GET /api/grouped-average?target=&group=.
func (s *Server) handleGroupedAverage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	out, err := s.sess.GroupedAverage(q.Get("target"), q.Get("group"))
	if err != nil {
		s.renderError(w, r, err, "")
		return
	}
	render.JSON(w, r, out)
}

// handleCorrelation handles GET /api/correlation?target=.
func (s *Server) handleCorrelation(w http.ResponseWriter, r *http.Request) {
	out, err := s.sess.Correlation(r.URL.Query().Get("target"))
	if err != nil {
		s.renderError(w, r, err, "")
		return
	}
	render.JSON(w, r, out)
}

// handleGroupedAverageChart handles GET /api/charts/grouped-average.png.
func (s *Server) handleGroupedAverageChart(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	target, group := q.Get("target"), q.Get("group")
	series, err := s.sess.GroupedAverage(target, group)
	if err != nil {
		s.renderError(w, r, err, "")
		return
	}
	p, err := chart.GroupedAverage(series, target, group)
	s.writeChart(w, r, p, err)
}

// handleCorrelationChart handles GET /api/charts/correlation.png.
func (s *Server) handleCorrelationChart(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Query().Get("target")
	series, err := s.sess.Correlation(target)
	if err != nil {
		s.renderError(w, r, err, "")
		return
	}
	p, err := chart.Correlation(series, target)
	s.writeChart(w, r, p, err)
}

func (s *Server) writeChart(w http.ResponseWriter, r *http.Request, p *plot.Plot, err error) {
	if err != nil {
		s.renderError(w, r, err, "")
		return
	}
	var buf bytes.Buffer
	if err := chart.WritePNG(&buf, p, s.chartSize); err != nil {
		s.renderError(w, r, err, "")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	_, _ = buf.WriteTo(w)
}

type trainResponse struct {
	pipeline.FitReport
	Score        string                 `json:"score"`
	Intercept    float64                `json:"intercept"`
	Coefficients []pipeline.Coefficient `json:"coefficients"`
}

// handleTrain handles POST /api/train.
func (s *Server) handleTrain(w http.ResponseWriter, r *http.Request) {
	var req pipeline.TrainRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		s.renderError(w, r, errors.NewParseError("request", 0, "invalid JSON body", err), msgTrainFailed)
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.renderError(w, r, err, msgTrainFailed)
		return
	}

	report, err := s.sess.Train(r.Context(), req)
	s.metrics.trainings.WithLabelValues(result(err)).Inc()
	if err != nil {
		s.renderError(w, r, err, msgTrainFailed)
		return
	}
	s.metrics.modelR2.Set(report.R2)
	render.JSON(w, r, s.modelResponse(report))
}

func (s *Server) modelResponse(report pipeline.FitReport) trainResponse {
	resp := trainResponse{FitReport: report, Score: session.FormatScore(report.R2)}
	if p := s.sess.Model(); p != nil && p.ID() == report.ID {
		resp.Intercept = p.Intercept()
		resp.Coefficients = p.Coefficients()
	}
	return resp
}

// handleModel handles GET /api/model.
func (s *Server) handleModel(w http.ResponseWriter, r *http.Request) {
	p := s.sess.Model()
	if p == nil {
		s.renderError(w, r, errors.NewStateError("Model", "model"), "")
		return
	}
	render.JSON(w, r, s.modelResponse(p.Report()))
}

type predictRequest struct {
	Input string `json:"input" validate:"required"`
}

type predictResponse struct {
	Prediction float64 `json:"prediction"`
	Text       string  `json:"text"`
}

// handlePredict handles POST /api/predict with {"input": "v1,v2,..."}.
func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	var req predictRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		s.renderError(w, r, errors.NewParseError("request", 0, "invalid JSON body", err), "")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.renderError(w, r, err, "Enter inputs")
		return
	}

	y, err := s.sess.Predict(req.Input)
	s.metrics.predictions.WithLabelValues(result(err)).Inc()
	if err != nil {
		prefix := ""
		switch errors.KindOf(err) {
		case errors.KindShape, errors.KindSchema:
			prefix = msgInputMismatch
		}
		s.renderError(w, r, err, prefix)
		return
	}
	render.JSON(w, r, predictResponse{Prediction: y, Text: session.FormatPrediction(y)})
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
