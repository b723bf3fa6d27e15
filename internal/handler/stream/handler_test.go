package stream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/zhouzirui/mindcheck/backend/internal/model/chat"
	"github.com/zhouzirui/mindcheck/backend/internal/model/prediction"
	questionnaireModel "github.com/zhouzirui/mindcheck/backend/internal/model/questionnaire"
	questionnaireService "github.com/zhouzirui/mindcheck/backend/internal/service/questionnaire"
)

type stubPredictor struct{}

func (stubPredictor) Predict(context.Context, string) (prediction.TweetPrediction, error) {
	return prediction.TweetPrediction{Depression: prediction.DepressedLabel, Confidence: 0.9}, nil
}

func (stubPredictor) StoreDemographics(context.Context, string, questionnaireModel.Responses) (prediction.DemographicPrediction, error) {
	return prediction.DemographicPrediction{DepressionDemographic: 1, ConfidencePercentage: 80}, nil
}

func (stubPredictor) FinalPrediction(context.Context, string) (prediction.FinalPrediction, error) {
	return prediction.FinalPrediction{FinalPrediction: prediction.DepressedLabel, WeightedScore: 0.86}, nil
}

var answers = []string{"25", "Female", "Student", "3", "0", "4", "0", "Low", "Moderate", "Undergrad", "No", "8", "2", "Yes"}

func setup(t *testing.T) (*questionnaireService.Service, http.Handler, chat.Session) {
	t.Helper()
	svc := questionnaireService.NewService(stubPredictor{}, questionnaireService.Config{SubscriberBuffer: 64})
	session, err := svc.Start(context.Background(), "alice")
	require.NoError(t, err)

	r := chi.NewRouter()
	New(svc).RegisterRoutes(r)
	return svc, r, session
}

func TestStreamUnknownSession(t *testing.T) {
	_, r, _ := setup(t)

	req := httptest.NewRequest(http.MethodGet, "/sessions/missing/stream", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestStreamReplaysFinishedSession(t *testing.T) {
	defer goleak.VerifyNone(t)

	svc, r, session := setup(t)
	for _, answer := range answers {
		_, err := svc.Submit(context.Background(), session.ID, answer)
		require.NoError(t, err)
	}
	transcript, err := svc.LoadTranscript(context.Background(), session.ID)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/sessions/"+session.ID+"/stream", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	body := resp.Body.String()
	assert.Equal(t, "text/event-stream", resp.Header().Get("Content-Type"))
	assert.Equal(t, len(transcript), strings.Count(body, "event: message\n"))
	assert.Contains(t, body, "id: "+transcript[0].ID+"\n")
	assert.True(t, strings.HasSuffix(body, "event: end\ndata: {\"sessionId\":\""+session.ID+"\",\"status\":\"completed\",\"finished\":true}\n\n"))
}

func TestStreamForwardsLiveEntries(t *testing.T) {
	defer goleak.VerifyNone(t)

	svc, r, session := setup(t)

	req := httptest.NewRequest(http.MethodGet, "/sessions/"+session.ID+"/stream", nil)
	resp := httptest.NewRecorder()
	done := make(chan struct{})
	go func() {
		defer close(done)
		r.ServeHTTP(resp, req)
	}()

	for _, answer := range answers {
		_, err := svc.Submit(context.Background(), session.ID, answer)
		require.NoError(t, err)
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("stream did not end after the session completed")
	}

	transcript, err := svc.LoadTranscript(context.Background(), session.ID)
	require.NoError(t, err)
	body := resp.Body.String()
	assert.Equal(t, len(transcript), strings.Count(body, "event: message\n"))
	assert.Contains(t, body, "Final Combined Analysis")
	assert.Contains(t, body, "event: end\n")
}

func TestStreamStopsWhenClientLeaves(t *testing.T) {
	defer goleak.VerifyNone(t)

	_, r, session := setup(t)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/sessions/"+session.ID+"/stream", nil).WithContext(ctx)
	resp := httptest.NewRecorder()
	done := make(chan struct{})
	go func() {
		defer close(done)
		r.ServeHTTP(resp, req)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("stream kept running after the client left")
	}
	assert.NotContains(t, resp.Body.String(), "event: end")
}
