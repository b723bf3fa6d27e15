package sentiment

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	analysis "github.com/zhouzirui/mindcheck/backend/internal/analysis/sentiment"
)

// Config 控制帖子情感分析服务的行为。
type Config struct {
	Enabled  bool
	MaxPosts int
}

// Result 是一组帖子的分析结论。
type Result struct {
	Decision analysis.Decision
	Source   string
	Reason   string
}

// Service 使用大模型判断帖子的抑郁倾向，并在必要时回退到词典规则。
type Service struct {
	enabled    bool
	classifier compose.Runnable[map[string]any, *schema.Message]
	fallback   func(posts []string) analysis.Decision
	maxPosts   int
}

// NewService 创建情感分析服务。chatModel 为空时只使用词典规则。
func NewService(ctx context.Context, chatModel model.BaseChatModel, cfg Config) (*Service, error) {
	maxPosts := cfg.MaxPosts
	if maxPosts <= 0 {
		maxPosts = 100
	}

	svc := &Service{
		enabled:  cfg.Enabled && chatModel != nil,
		fallback: analysis.Analyze,
		maxPosts: maxPosts,
	}

	if !svc.enabled {
		return svc, nil
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(sentimentSystemPrompt),
		schema.UserMessage(sentimentUserPrompt),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile sentiment classifier chain: %w", err)
	}

	svc.classifier = runnable
	return svc, nil
}

// Enabled 返回大模型分类是否启用。
func (s *Service) Enabled() bool {
	return s != nil && s.enabled && s.classifier != nil
}

// Classify 分析最多 MaxPosts 条帖子。
func (s *Service) Classify(ctx context.Context, posts []string) Result {
	posts = s.limit(posts)
	if !s.Enabled() {
		return s.fallbackResult(posts)
	}

	input := map[string]any{
		"count": len(posts),
		"posts": formatPosts(posts),
	}

	msg, err := s.classifier.Invoke(ctx, input)
	if err != nil {
		log.Printf("[sentiment] classifier invoke failed, use fallback: %v", err)
		return s.fallbackResult(posts)
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return s.fallbackResult(posts)
	}

	payload, err := parseClassifierOutput(msg.Content)
	if err != nil {
		log.Printf("[sentiment] classifier output parse failed, use fallback: %v", err)
		return s.fallbackResult(posts)
	}
	if payload.Confidence < 0 || payload.Confidence > 1 {
		log.Printf("[sentiment] classifier confidence %.3f out of range, use fallback", payload.Confidence)
		return s.fallbackResult(posts)
	}

	return Result{
		Decision: analysis.Decision{
			Label:      analysis.LabelFor(payload.Confidence),
			Confidence: payload.Confidence,
			Scored:     len(posts),
		},
		Source: "llm",
		Reason: strings.TrimSpace(payload.Reason),
	}
}

func (s *Service) limit(posts []string) []string {
	limit := 100
	if s != nil && s.maxPosts > 0 {
		limit = s.maxPosts
	}
	if len(posts) > limit {
		return posts[:limit]
	}
	return posts
}

func (s *Service) fallbackResult(posts []string) Result {
	fallback := analysis.Analyze
	if s != nil && s.fallback != nil {
		fallback = s.fallback
	}
	return Result{Decision: fallback(posts), Source: "lexicon", Reason: "fallback"}
}

// parseClassifierOutput 解析大模型返回的 JSON。
func parseClassifierOutput(content string) (*classifierPayload, error) {
	trimmed := strings.TrimSpace(content)
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start == -1 || end == -1 || end <= start {
		return nil, fmt.Errorf("missing json object")
	}

	payload := &classifierPayload{}
	if err := json.Unmarshal([]byte(trimmed[start:end+1]), payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func formatPosts(posts []string) string {
	var builder strings.Builder
	n := 0
	for _, post := range posts {
		post = strings.TrimSpace(post)
		if post == "" {
			continue
		}
		n++
		if n > 1 {
			builder.WriteString("\n")
		}
		fmt.Fprintf(&builder, "%d. %s", n, strings.ReplaceAll(post, "\n", " "))
	}
	if n == 0 {
		return "(no posts)"
	}
	return builder.String()
}

type classifierPayload struct {
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
}

const sentimentSystemPrompt = "You screen social media posts for signs of depression. Read every post and estimate the probability that the author is experiencing depression.\nReturn only one JSON object with the fields confidence (a number between 0 and 1) and reason (one short sentence). Do not output any other text."

const sentimentUserPrompt = "The user published {count} recent posts:\n{posts}\n\nRespond with the JSON object."
