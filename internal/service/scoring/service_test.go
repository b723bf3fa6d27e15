package scoring

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/mindcheck/backend/internal/analysis/demographic"
	analysis "github.com/zhouzirui/mindcheck/backend/internal/analysis/sentiment"
	"github.com/zhouzirui/mindcheck/backend/internal/model/prediction"
	"github.com/zhouzirui/mindcheck/backend/internal/model/questionnaire"
	sentimentService "github.com/zhouzirui/mindcheck/backend/internal/service/sentiment"
)

type fixedClassifier struct {
	confidence float64
}

func (f fixedClassifier) Classify(_ context.Context, posts []string) sentimentService.Result {
	return sentimentService.Result{
		Decision: analysis.Decision{
			Label:      analysis.LabelFor(f.confidence),
			Confidence: f.confidence,
			Scored:     len(posts),
		},
		Source: "test",
	}
}

const fixture = `
users:
  alice:
    - "I feel hopeless"
    - "can't sleep again"
  "@Bob":
    - "great day"
`

func responses() questionnaire.Responses {
	return questionnaire.Responses{
		"age":                questionnaire.NumberValue(25),
		"gender":             questionnaire.StringValue("female"),
		"profession":         questionnaire.StringValue("student"),
		"academic_pressure":  questionnaire.NumberValue(3),
		"work_pressure":      questionnaire.NumberValue(0),
		"study_satisfaction": questionnaire.NumberValue(4),
		"job_satisfaction":   questionnaire.NumberValue(0),
		"sleep_duration":     questionnaire.StringValue("low"),
		"dietary_habits":     questionnaire.StringValue("moderate"),
		"degree":             questionnaire.StringValue("undergrad"),
		"suicidal_thoughts":  questionnaire.StringValue("no"),
		"work_study_hours":   questionnaire.NumberValue(8),
		"financial_stress":   questionnaire.NumberValue(2),
		"family_history":     questionnaire.StringValue("yes"),
	}
}

func newService(t *testing.T, confidence float64) *Service {
	t.Helper()
	posts, err := ParseFixturePosts([]byte(fixture))
	require.NoError(t, err)
	return NewService(posts, fixedClassifier{confidence: confidence})
}

func TestFixturePostsNormalizesNames(t *testing.T) {
	posts, err := ParseFixturePosts([]byte(fixture))
	require.NoError(t, err)

	got, err := posts.Posts(context.Background(), "BOB")
	require.NoError(t, err)
	assert.Equal(t, []string{"great day"}, got)

	got, err = posts.Posts(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestParseFixturePostsRejectsBadYAML(t *testing.T) {
	_, err := ParseFixturePosts([]byte("users: [unterminated"))
	assert.Error(t, err)
}

func TestPredict(t *testing.T) {
	svc := newService(t, 0.8)

	result, err := svc.Predict(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, prediction.DepressedLabel, result.Depression)
	assert.Equal(t, 0.8, result.Confidence)

	_, err = svc.Predict(context.Background(), " ")
	assert.ErrorIs(t, err, ErrUsernameRequired)

	_, err = svc.Predict(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrNoPosts)
}

func TestStoreDemographics(t *testing.T) {
	svc := newService(t, 0.8)

	expected, err := demographic.Predict(responses())
	require.NoError(t, err)

	result, err := svc.StoreDemographics(context.Background(), "alice", responses())
	require.NoError(t, err)
	assert.Equal(t, expected.Class, result.DepressionDemographic)
	assert.Equal(t, expected.ConfidencePercentage(), result.ConfidencePercentage)
	assert.Equal(t, "Data stored successfully", result.Message)

	partial := responses()
	delete(partial, "degree")
	_, err = svc.StoreDemographics(context.Background(), "carol", partial)
	var missing *demographic.MissingFieldError
	assert.ErrorAs(t, err, &missing)
}

func TestFinalPredictionWeighting(t *testing.T) {
	svc := newService(t, 0.8)
	ctx := context.Background()

	_, err := svc.FinalPrediction(ctx, "alice")
	assert.ErrorIs(t, err, ErrNoTweetAnalysis)

	_, err = svc.Predict(ctx, "alice")
	require.NoError(t, err)
	_, err = svc.FinalPrediction(ctx, "alice")
	assert.ErrorIs(t, err, ErrNoDemographicsData)

	_, err = svc.StoreDemographics(ctx, "alice", responses())
	require.NoError(t, err)

	final, err := svc.FinalPrediction(ctx, "alice")
	require.NoError(t, err)

	demo, err := demographic.Predict(responses())
	require.NoError(t, err)
	assert.InDelta(t, 0.6*0.8+0.4*demo.Probability, final.WeightedScore, 1e-12)
	assert.Equal(t, 0.8, final.TweetScore)
	assert.InDelta(t, demo.Probability, final.DemographicScore, 1e-12)

	want := prediction.NotDepressedLabel
	if final.WeightedScore > 0.5 {
		want = prediction.DepressedLabel
	}
	assert.Equal(t, want, final.FinalPrediction)
}

func TestFinalPredictionWithZeroTweetScore(t *testing.T) {
	svc := newService(t, 0)
	ctx := context.Background()

	// 0.4·p never exceeds 0.5.
	_, err := svc.Predict(ctx, "alice")
	require.NoError(t, err)
	_, err = svc.StoreDemographics(ctx, "alice", responses())
	require.NoError(t, err)

	final, err := svc.FinalPrediction(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, prediction.NotDepressedLabel, final.FinalPrediction)
}
