package questionnaire

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zhouzirui/mindcheck/backend/internal/model/chat"
	"github.com/zhouzirui/mindcheck/backend/internal/model/prediction"
)

func TestConfidenceBar(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "[--------------------] 0.0%"},
		{50, "[##########----------] 50.0%"},
		{100, "[####################] 100.0%"},
		{61.2, "[############--------] 61.2%"},
		{140, "[####################] 140.0%"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, confidenceBar(tt.in))
	}
}

func TestTweetCard(t *testing.T) {
	card := tweetCard(prediction.TweetPrediction{Depression: prediction.DepressedLabel, Confidence: 0.812})
	assert.Equal(t, chat.CardTweet, card.Kind)
	assert.True(t, card.Indicated)
	assert.Equal(t, 81.2, card.Percentage)
	assert.Equal(t, "Weight: 60% of final score", card.Weighting)

	card = tweetCard(prediction.TweetPrediction{Depression: prediction.NotDepressedLabel, Confidence: 0.3})
	assert.False(t, card.Indicated)
	assert.Equal(t, "Our analysis of your tweets doesn't suggest signs of depression.", card.Summary)
}

func TestDemographicCardUsesPercentageAsIs(t *testing.T) {
	card := demographicCard(prediction.DemographicPrediction{DepressionDemographic: 1, ConfidencePercentage: 67.25})
	assert.True(t, card.Indicated)
	assert.Equal(t, 67.25, card.Percentage)
	assert.Equal(t, "Weight: 40% of final score", card.Weighting)
	assert.Empty(t, card.Advice)
}

func TestFinalCard(t *testing.T) {
	card := finalCard(prediction.FinalPrediction{FinalPrediction: prediction.DepressedLabel, WeightedScore: 0.6123})
	assert.True(t, card.Indicated)
	assert.Equal(t, 61.2, card.Percentage)
	assert.Empty(t, card.Weighting)
	assert.True(t, strings.HasPrefix(card.Advice, "Recommendation: Consider reaching out"))
}

func TestRenderCard(t *testing.T) {
	text := renderCard(finalCard(prediction.FinalPrediction{FinalPrediction: prediction.NotDepressedLabel, WeightedScore: 0.25}))
	lines := strings.Split(text, "\n")

	assert.Equal(t, "Final Combined Analysis", lines[0])
	assert.Equal(t, "Overall Depression Risk Score", lines[2])
	assert.Equal(t, "[#####---------------] 25.0%", lines[3])
	assert.Equal(t, "No significant indicators", lines[4])
	assert.Contains(t, lines[5], "Maintain healthy habits")
}

func TestRunStagesStopsAtFirstFailure(t *testing.T) {
	var ran []Stage
	boom := errors.New("boom")
	stages := []stage{
		{name: StageStoreDemographics, run: func(context.Context, *analysisRun) error {
			ran = append(ran, StageStoreDemographics)
			return boom
		}},
		{name: StageFinalPrediction, run: func(context.Context, *analysisRun) error {
			ran = append(ran, StageFinalPrediction)
			return nil
		}},
	}

	err := runStages(context.Background(), stages, &analysisRun{})
	var callErr *ExternalCallError
	assert.ErrorAs(t, err, &callErr)
	assert.Equal(t, StageStoreDemographics, callErr.Stage)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []Stage{StageStoreDemographics}, ran)
}

func TestFeedDeliversUntilClosed(t *testing.T) {
	f := newFeed(2)
	updates, cancel := f.subscribe()
	defer cancel()

	f.publish(chat.Message{ID: "1"})
	f.publish(chat.Message{ID: "2"})
	f.publish(chat.Message{ID: "3"})
	f.close()

	var ids []string
	for msg := range updates {
		ids = append(ids, msg.ID)
	}
	assert.Equal(t, []string{"1", "2"}, ids)

	late, lateCancel := f.subscribe()
	defer lateCancel()
	_, open := <-late
	assert.False(t, open)
}
