package questionnaire

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/mindcheck/backend/internal/model/chat"
	"github.com/zhouzirui/mindcheck/backend/internal/model/prediction"
	questionnaireModel "github.com/zhouzirui/mindcheck/backend/internal/model/questionnaire"
	questionnaireService "github.com/zhouzirui/mindcheck/backend/internal/service/questionnaire"
)

type stubPredictor struct {
	finalErr error
}

func (s stubPredictor) Predict(context.Context, string) (prediction.TweetPrediction, error) {
	return prediction.TweetPrediction{Depression: prediction.NotDepressedLabel, Confidence: 0.2}, nil
}

func (s stubPredictor) StoreDemographics(context.Context, string, questionnaireModel.Responses) (prediction.DemographicPrediction, error) {
	return prediction.DemographicPrediction{ConfidencePercentage: 12.5}, nil
}

func (s stubPredictor) FinalPrediction(context.Context, string) (prediction.FinalPrediction, error) {
	if s.finalErr != nil {
		return prediction.FinalPrediction{}, s.finalErr
	}
	return prediction.FinalPrediction{FinalPrediction: prediction.NotDepressedLabel, WeightedScore: 0.17}, nil
}

var answers = []string{"25", "Female", "Student", "3", "0", "4", "0", "Low", "Moderate", "Undergrad", "No", "8", "2", "Yes"}

func setupRouter(p questionnaireService.Predictor) *chi.Mux {
	svc := questionnaireService.NewService(p, questionnaireService.Config{})
	r := chi.NewRouter()
	New(svc).RegisterRoutes(r)
	return r
}

func do(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func startSession(t *testing.T, r http.Handler) chat.Session {
	t.Helper()
	resp := do(t, r, http.MethodPost, "/sessions", map[string]string{"handle": "alice"})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	var session chat.Session
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &session))
	return session
}

func TestListQuestions(t *testing.T) {
	r := setupRouter(stubPredictor{})
	resp := do(t, r, http.MethodGet, "/questions", nil)
	require.Equal(t, http.StatusOK, resp.Code)

	var views []questionView
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &views))
	require.Len(t, views, 14)
	assert.Equal(t, "age", views[0].Key)
	require.NotNil(t, views[0].Max)
	assert.Equal(t, 120.0, *views[0].Max)
	assert.Equal(t, []string{"male", "female"}, views[1].Choices)
}

func TestStartSession(t *testing.T) {
	r := setupRouter(stubPredictor{})
	session := startSession(t, r)

	assert.Equal(t, "alice", session.Handle)
	assert.Equal(t, chat.StatusQuestioning, session.Status)
	assert.Equal(t, "What is your age?", session.Prompt)
	assert.NotEmpty(t, session.Messages)
}

func TestStartSessionRejectsBadInput(t *testing.T) {
	r := setupRouter(stubPredictor{})

	resp := do(t, r, http.MethodPost, "/sessions", map[string]string{"handle": "  "})
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = do(t, r, http.MethodPost, "/sessions", nil)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestSubmitAnswerValidationError(t *testing.T) {
	r := setupRouter(stubPredictor{})
	session := startSession(t, r)

	resp := do(t, r, http.MethodPost, "/sessions/"+session.ID+"/answers", map[string]string{"answer": "200"})
	require.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	assert.JSONEq(t, `{"error":"Please enter a valid age (1-119)","key":"age"}`, resp.Body.String())

	resp = do(t, r, http.MethodGet, "/sessions/"+session.ID, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var current chat.Session
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &current))
	assert.Equal(t, 0, current.Index)
}

func TestSubmitAnswersToCompletion(t *testing.T) {
	r := setupRouter(stubPredictor{})
	session := startSession(t, r)

	var current chat.Session
	for _, answer := range answers {
		resp := do(t, r, http.MethodPost, "/sessions/"+session.ID+"/answers", map[string]string{"answer": answer})
		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &current))
	}
	assert.Equal(t, chat.StatusCompleted, current.Status)
	assert.Len(t, current.Responses, 14)

	resp := do(t, r, http.MethodPost, "/sessions/"+session.ID+"/answers", map[string]string{"answer": "yes"})
	assert.Equal(t, http.StatusConflict, resp.Code)

	resp = do(t, r, http.MethodGet, "/sessions/"+session.ID+"/transcript", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var transcript struct {
		Messages []chat.Message `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &transcript))
	assert.Equal(t, len(current.Messages), len(transcript.Messages))
}

func TestSubmitAnswerPipelineFailure(t *testing.T) {
	r := setupRouter(stubPredictor{finalErr: errors.New("no demographics")})
	session := startSession(t, r)

	var resp *httptest.ResponseRecorder
	for _, answer := range answers {
		resp = do(t, r, http.MethodPost, "/sessions/"+session.ID+"/answers", map[string]string{"answer": answer})
	}
	require.Equal(t, http.StatusBadGateway, resp.Code)

	var body struct {
		Stage   string       `json:"stage"`
		Session chat.Session `json:"session"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, "final_prediction", body.Stage)
	assert.Equal(t, chat.StatusFailed, body.Session.Status)
}

func TestUnknownSession(t *testing.T) {
	r := setupRouter(stubPredictor{})

	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodGet, "/sessions/missing", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodGet, "/sessions/missing/transcript", nil).Code)
	resp := do(t, r, http.MethodPost, "/sessions/missing/answers", map[string]string{"answer": "25"})
	assert.Equal(t, http.StatusNotFound, resp.Code)
}
