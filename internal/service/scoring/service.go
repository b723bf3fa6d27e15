package scoring

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/zhouzirui/mindcheck/backend/internal/analysis/demographic"
	"github.com/zhouzirui/mindcheck/backend/internal/model/prediction"
	"github.com/zhouzirui/mindcheck/backend/internal/model/questionnaire"
	sentimentService "github.com/zhouzirui/mindcheck/backend/internal/service/sentiment"
)

const (
	tweetWeight       = 0.6
	demographicWeight = 0.4
	finalThreshold    = 0.5
)

var (
	ErrUsernameRequired   = errors.New("username is required")
	ErrNoPosts            = errors.New("no posts found for this user")
	ErrNoTweetAnalysis    = errors.New("no tweet analysis found for this user")
	ErrNoDemographicsData = errors.New("no demographic data found for this user")
)

// Classifier 判断一组帖子的抑郁倾向。
type Classifier interface {
	Classify(ctx context.Context, posts []string) sentimentService.Result
}

// Service 是参考预测服务：帖子评分、问卷评分与加权合成。
type Service struct {
	posts      PostSource
	classifier Classifier
	store      *memoryStore
}

// NewService 创建参考预测服务，分数只保存在内存中。
func NewService(posts PostSource, classifier Classifier) *Service {
	return &Service{
		posts:      posts,
		classifier: classifier,
		store:      newMemoryStore(),
	}
}

// Predict 对账号的帖子评分并记录分数。
func (s *Service) Predict(ctx context.Context, username string) (prediction.TweetPrediction, error) {
	username = normalizeUsername(username)
	if username == "" {
		return prediction.TweetPrediction{}, ErrUsernameRequired
	}

	posts, err := s.posts.Posts(ctx, username)
	if err != nil {
		return prediction.TweetPrediction{}, fmt.Errorf("fetch posts for %s: %w", username, err)
	}
	if len(posts) == 0 {
		log.Printf("[predictor] no posts for @%s", username)
		return prediction.TweetPrediction{}, ErrNoPosts
	}

	result := s.classifier.Classify(ctx, posts)
	if result.Decision.Scored == 0 {
		return prediction.TweetPrediction{}, ErrNoPosts
	}

	s.store.putTweetScore(username, result.Decision.Confidence)
	log.Printf("[predictor] @%s posts=%d result=%s confidence=%.2f source=%s",
		username, result.Decision.Scored, result.Decision.Label, result.Decision.Confidence, result.Source)

	return prediction.TweetPrediction{
		Username:   username,
		Depression: string(result.Decision.Label),
		Confidence: result.Decision.Confidence,
	}, nil
}

// StoreDemographics 对问卷评分并记录答案。
func (s *Service) StoreDemographics(_ context.Context, username string, responses questionnaire.Responses) (prediction.DemographicPrediction, error) {
	username = normalizeUsername(username)
	if username == "" {
		return prediction.DemographicPrediction{}, ErrUsernameRequired
	}

	result, err := demographic.Predict(responses)
	if err != nil {
		return prediction.DemographicPrediction{}, err
	}

	s.store.putDemographics(username, responses)
	log.Printf("[predictor] @%s demographic class=%d confidence=%.2f%%", username, result.Class, result.ConfidencePercentage())

	return prediction.DemographicPrediction{
		DepressionDemographic: result.Class,
		ConfidencePercentage:  result.ConfidencePercentage(),
		Message:               "Data stored successfully",
	}, nil
}

// FinalPrediction 按 60/40 合成帖子分数与问卷概率。
func (s *Service) FinalPrediction(_ context.Context, username string) (prediction.FinalPrediction, error) {
	username = normalizeUsername(username)
	if username == "" {
		return prediction.FinalPrediction{}, ErrUsernameRequired
	}

	tweetScore, ok := s.store.tweetScore(username)
	if !ok {
		return prediction.FinalPrediction{}, ErrNoTweetAnalysis
	}

	responses, ok := s.store.demographicsFor(username)
	if !ok {
		return prediction.FinalPrediction{}, ErrNoDemographicsData
	}

	result, err := demographic.Predict(responses)
	if err != nil {
		return prediction.FinalPrediction{}, fmt.Errorf("rescore demographics for %s: %w", username, err)
	}

	weighted := tweetWeight*tweetScore + demographicWeight*result.Probability
	label := prediction.NotDepressedLabel
	if weighted > finalThreshold {
		label = prediction.DepressedLabel
	}

	return prediction.FinalPrediction{
		Username:         username,
		FinalPrediction:  label,
		WeightedScore:    weighted,
		TweetScore:       tweetScore,
		DemographicScore: result.Probability,
		Message:          "Weighted prediction calculated successfully",
	}, nil
}
