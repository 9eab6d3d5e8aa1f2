package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alfredoptarigan/interview-analyzer/internal/apperror"
	"alfredoptarigan/interview-analyzer/internal/models"
	"alfredoptarigan/interview-analyzer/internal/repositories"
	"alfredoptarigan/interview-analyzer/internal/services"
)

type stubPipeline struct {
	signals *models.SignalsResponse
	err     error
}

func (s *stubPipeline) ScoreProfile(profile *models.CandidateProfile) (*models.CandidateProfile, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := *profile
	candidate := *profile.Candidat
	candidate.AnalyseCompetences = []models.SkillScore{{Skill: "Go", Score: 0.9}}
	out.Candidat = &candidate
	return &out, nil
}

func (s *stubPipeline) AnalyzeSignals(ctx context.Context, req *models.AnalysisRequest) (*models.SignalsResponse, error) {
	return s.signals, s.err
}

func (s *stubPipeline) AnalyzeInterview(ctx context.Context, req *models.AnalysisRequest) (*models.InterviewReport, error) {
	return nil, s.err
}

type stubQueue struct {
	submitted []*models.AnalysisRequest
	id        uuid.UUID
	status    *models.AnalysisStatusResponse
	err       error
}

func (s *stubQueue) Submit(ctx context.Context, req *models.AnalysisRequest) (uuid.UUID, error) {
	if s.err != nil {
		return uuid.Nil, s.err
	}
	s.submitted = append(s.submitted, req)
	return s.id, nil
}

func (s *stubQueue) GetStatus(ctx context.Context, id uuid.UUID) (*models.AnalysisStatusResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.status, nil
}

var _ services.JobQueue = (*stubQueue)(nil)

const validAnalysis = `{
	"conversation_history": [{"role": "user", "content": "I love Go"}],
	"job_description_text": "Go developer"
}`

func setupApp(p services.Pipeline, q services.JobQueue) *fiber.App {
	app := fiber.New()
	Register(app.Group("/api/v1"),
		NewScoreHandler(p, 1024, nil),
		NewAnalysisHandler(q, p, nil),
		NewStatusHandler(q),
	)
	return app
}

func do(t *testing.T, app *fiber.App, req *http.Request) (int, map[string]any) {
	t.Helper()
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body), string(raw))
	return resp.StatusCode, body
}

func jsonRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestHandleScoreCV(t *testing.T) {
	app := setupApp(&stubPipeline{}, &stubQueue{})

	status, body := do(t, app, jsonRequest(http.MethodPost, "/api/v1/score-cv",
		`{"candidat": {"compétences": {"hard_skills": ["Go"]}, "nom": "Ada"}}`))

	assert.Equal(t, fiber.StatusOK, status)
	candidat := body["candidat"].(map[string]any)
	assert.Equal(t, "Ada", candidat["nom"])
	scores := candidat["analyse_competences"].([]any)
	require.Len(t, scores, 1)
	assert.Equal(t, "Go", scores[0].(map[string]any)["skill"])
}

func TestHandleScoreCV_Multipart(t *testing.T) {
	app := setupApp(&stubPipeline{}, &stubQueue{})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("profile", "cv.json")
	require.NoError(t, err)
	_, err = fw.Write([]byte(`{"candidat": {"compétences": {"hard_skills": ["Go"]}}}`))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/score-cv", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	status, body := do(t, app, req)

	assert.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, body, "candidat")
}

func TestHandleScoreCV_InvalidProfile(t *testing.T) {
	app := setupApp(&stubPipeline{}, &stubQueue{})

	tests := []struct {
		name string
		body string
	}{
		{name: "malformed json", body: `{"candidat":`},
		{name: "missing candidat", body: `{"nom": "Ada"}`},
		{name: "skills not strings", body: `{"candidat": {"compétences": {"hard_skills": [1]}}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := do(t, app, jsonRequest(http.MethodPost, "/api/v1/score-cv", tt.body))

			assert.Equal(t, fiber.StatusBadRequest, status)
			assert.Equal(t, string(apperror.KindInvalidInput), body["kind"])
		})
	}
}

func TestHandleTriggerAnalysis(t *testing.T) {
	id := uuid.New()
	queue := &stubQueue{id: id}
	app := setupApp(&stubPipeline{}, queue)

	status, body := do(t, app, jsonRequest(http.MethodPost, "/api/v1/trigger-analysis", validAnalysis))

	assert.Equal(t, fiber.StatusAccepted, status)
	assert.Equal(t, id.String(), body["task_id"])
	require.Len(t, queue.submitted, 1)
	assert.Equal(t, "Go developer", queue.submitted[0].JobDescriptionText)
}

func TestHandleTriggerAnalysis_Errors(t *testing.T) {
	status, _ := do(t, setupApp(&stubPipeline{}, &stubQueue{}),
		jsonRequest(http.MethodPost, "/api/v1/trigger-analysis", `{"conversation_history": [{"role": "system", "content": "x"}], "job_description_text": "Go"}`))
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, body := do(t, setupApp(&stubPipeline{}, &stubQueue{err: errors.New("db down")}),
		jsonRequest(http.MethodPost, "/api/v1/trigger-analysis", validAnalysis))
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, "Failed to create analysis job", body["error"])
}

func TestHandleAnalyze(t *testing.T) {
	signals := &models.SignalsResponse{
		Analysis: &models.StructuredAnalysis{OverallSimilarityScore: 0.8},
		Feedback: []string{"tip"},
	}
	app := setupApp(&stubPipeline{signals: signals}, &stubQueue{})

	status, body := do(t, app, jsonRequest(http.MethodPost, "/api/v1/analyze", validAnalysis))

	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, 0.8, body["analysis"].(map[string]any)["overall_similarity_score"])
	assert.Equal(t, []any{"tip"}, body["feedback"])
}

func TestHandleAnalyze_ErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "inference", err: apperror.ModelInference("classify", errors.New("timeout")), want: fiber.StatusBadGateway},
		{name: "index", err: apperror.IndexUnavailable("search", "down", nil), want: fiber.StatusServiceUnavailable},
		{name: "input", err: apperror.InvalidInput("analyze", "bad"), want: fiber.StatusBadRequest},
		{name: "untyped", err: errors.New("boom"), want: fiber.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := setupApp(&stubPipeline{err: tt.err}, &stubQueue{})

			status, body := do(t, app, jsonRequest(http.MethodPost, "/api/v1/analyze", validAnalysis))

			assert.Equal(t, tt.want, status)
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestHandleGetStatus(t *testing.T) {
	report := "fine"
	queue := &stubQueue{status: &models.AnalysisStatusResponse{
		Status: models.StatusSuccess,
		Result: &models.InterviewReport{Report: report, Feedback: []string{}},
	}}
	app := setupApp(&stubPipeline{}, queue)

	status, body := do(t, app, httptest.NewRequest(http.MethodGet, "/api/v1/analysis-status/"+uuid.NewString(), nil))

	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, models.StatusSuccess, body["status"])
	assert.Equal(t, report, body["result"].(map[string]any)["report"])
	assert.NotContains(t, body, "error")
}

func TestHandleGetStatus_Errors(t *testing.T) {
	app := setupApp(&stubPipeline{}, &stubQueue{err: repositories.ErrJobNotFound})

	status, _ := do(t, app, httptest.NewRequest(http.MethodGet, "/api/v1/analysis-status/not-a-uuid", nil))
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, body := do(t, app, httptest.NewRequest(http.MethodGet, "/api/v1/analysis-status/"+uuid.NewString(), nil))
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "Task not found", body["error"])
}

func TestHealth(t *testing.T) {
	status, body := do(t, setupApp(&stubPipeline{}, &stubQueue{}), httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "healthy", body["status"])
}
