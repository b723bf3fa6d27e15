package sentiment

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	analysis "github.com/zhouzirui/mindcheck/backend/internal/analysis/sentiment"
)

type fakeChatModel struct {
	reply string
	err   error
	seen  []*schema.Message
}

func (f *fakeChatModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	f.seen = input
	if f.err != nil {
		return nil, f.err
	}
	return schema.AssistantMessage(f.reply, nil), nil
}

func (f *fakeChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := f.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

var posts = []string{"I feel hopeless and alone", "can't sleep again"}

func TestClassifyWithoutModelUsesLexicon(t *testing.T) {
	svc, err := NewService(context.Background(), nil, Config{Enabled: true})
	require.NoError(t, err)
	assert.False(t, svc.Enabled())

	result := svc.Classify(context.Background(), posts)
	assert.Equal(t, "lexicon", result.Source)
	assert.Equal(t, analysis.Analyze(posts), result.Decision)
}

func TestClassifyUsesModelOutput(t *testing.T) {
	fake := &fakeChatModel{reply: "Sure: {\"confidence\": 0.82, \"reason\": \"persistent hopelessness\"}"}
	svc, err := NewService(context.Background(), fake, Config{Enabled: true})
	require.NoError(t, err)
	require.True(t, svc.Enabled())

	result := svc.Classify(context.Background(), posts)
	assert.Equal(t, "llm", result.Source)
	assert.Equal(t, analysis.Depressed, result.Decision.Label)
	assert.InDelta(t, 0.82, result.Decision.Confidence, 1e-9)
	assert.Equal(t, "persistent hopelessness", result.Reason)

	require.Len(t, fake.seen, 2)
	assert.Contains(t, fake.seen[1].Content, "1. I feel hopeless and alone\n2. can't sleep again")
}

func TestClassifyFallsBackOnModelFailure(t *testing.T) {
	tests := []struct {
		name  string
		model *fakeChatModel
	}{
		{"invoke error", &fakeChatModel{err: errors.New("rate limited")}},
		{"no json", &fakeChatModel{reply: "I cannot help with that"}},
		{"out of range", &fakeChatModel{reply: `{"confidence": 7}`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := NewService(context.Background(), tt.model, Config{Enabled: true})
			require.NoError(t, err)

			result := svc.Classify(context.Background(), posts)
			assert.Equal(t, "lexicon", result.Source)
		})
	}
}

func TestClassifyLimitsPosts(t *testing.T) {
	svc, err := NewService(context.Background(), nil, Config{MaxPosts: 1})
	require.NoError(t, err)

	result := svc.Classify(context.Background(), []string{"hopeless", "hopeless", "hopeless"})
	assert.Equal(t, 1, result.Decision.Scored)
}
