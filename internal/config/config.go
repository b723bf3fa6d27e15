package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server        ServerConfig
	Predictor     PredictorConfig
	Questionnaire QuestionnaireConfig
	CORS          CORSConfig
	Reference     ReferenceConfig
	AI            AIConfig
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	server, err := loadServerConfig("PORT", "8080")
	if err != nil {
		return nil, err
	}

	predictor, err := loadPredictorConfig()
	if err != nil {
		return nil, err
	}

	questionnaire, err := loadQuestionnaireConfig()
	if err != nil {
		return nil, err
	}

	reference, err := loadReferenceConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:        server,
		Predictor:     predictor,
		Questionnaire: questionnaire,
		CORS:          loadCORSConfig(),
		Reference:     reference,
		AI:            ai,
	}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr string
}

// loadServerConfig 解析服务器监听地址。
func loadServerConfig(key, defaultPort string) (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv(key))
	if port == "" {
		port = defaultPort
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8080" 或 "127.0.0.1:8080"。
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid %s value: %q", key, port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// PredictorConfig 描述外部预测服务的地址与超时。
type PredictorConfig struct {
	BaseURL string
	Timeout time.Duration
}

func loadPredictorConfig() (PredictorConfig, error) {
	timeout := 30 * time.Second
	seconds, err := parseOptionalIntEnv("PREDICTOR_TIMEOUT")
	if err != nil {
		return PredictorConfig{}, err
	}
	if seconds != nil {
		if *seconds <= 0 {
			return PredictorConfig{}, fmt.Errorf("invalid PREDICTOR_TIMEOUT value %q: must be positive", strconv.Itoa(*seconds))
		}
		timeout = time.Duration(*seconds) * time.Second
	}

	return PredictorConfig{
		BaseURL: strings.TrimRight(getEnvOrDefault("PREDICTOR_BASE_URL", "http://127.0.0.1:5000"), "/"),
		Timeout: timeout,
	}, nil
}

// QuestionnaireConfig 控制问答节奏与推送缓冲。
type QuestionnaireConfig struct {
	PromptDelay      time.Duration
	SubscriberBuffer int
}

func loadQuestionnaireConfig() (QuestionnaireConfig, error) {
	cfg := QuestionnaireConfig{
		PromptDelay:      500 * time.Millisecond,
		SubscriberBuffer: 32,
	}

	delay, err := parseOptionalIntEnv("QUESTION_PROMPT_DELAY_MS")
	if err != nil {
		return QuestionnaireConfig{}, err
	}
	if delay != nil {
		if *delay < 0 {
			cfg.PromptDelay = 0
		} else {
			cfg.PromptDelay = time.Duration(*delay) * time.Millisecond
		}
	}

	buffer, err := parseOptionalIntEnv("TRANSCRIPT_SUBSCRIBER_BUFFER")
	if err != nil {
		return QuestionnaireConfig{}, err
	}
	if buffer != nil && *buffer > 0 {
		cfg.SubscriberBuffer = *buffer
	}

	return cfg, nil
}

// CORSConfig 描述允许跨域访问的来源。
type CORSConfig struct {
	AllowedOrigins []string
}

func loadCORSConfig() CORSConfig {
	raw := getEnvOrDefault("CORS_ALLOWED_ORIGINS", "*")
	origins := make([]string, 0, 4)
	for _, origin := range strings.Split(raw, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		origins = append(origins, "*")
	}
	return CORSConfig{AllowedOrigins: origins}
}

// ReferenceConfig 描述本地参考预测服务。
type ReferenceConfig struct {
	Server    ServerConfig
	PostsFile string
	MaxPosts  int
}

func loadReferenceConfig() (ReferenceConfig, error) {
	server, err := loadServerConfig("PREDICTOR_PORT", "5000")
	if err != nil {
		return ReferenceConfig{}, err
	}

	maxPosts := 100
	if override, err := parseOptionalIntEnv("PREDICTOR_MAX_POSTS"); err != nil {
		return ReferenceConfig{}, err
	} else if override != nil {
		if *override < 1 {
			maxPosts = 1
		} else {
			maxPosts = *override
		}
	}

	return ReferenceConfig{
		Server:    server,
		PostsFile: strings.TrimSpace(os.Getenv("PREDICTOR_POSTS_FILE")),
		MaxPosts:  maxPosts,
	}, nil
}

// AIConfig 描述大模型相关配置。
type AIConfig struct {
	APIKey              string
	AccessKey           string
	SecretKey           string
	Model               string
	BaseURL             string
	Region              string
	Temperature         *float64
	TopP                *float64
	MaxTokens           *int
	SentimentLLMEnabled bool
}

// Enabled 表示是否提供了必需的密钥。
func (c AIConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel 使用配置创建一个模型实例。
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("Ark 凭证或模型配置缺失，至少提供 ARK_API_KEY + Model 或 AK/SK 组合")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	var topP *float32
	if c.TopP != nil {
		val := float32(*c.TopP)
		topP = &val
	}

	var maxTokens *int
	if c.MaxTokens != nil {
		val := *c.MaxTokens
		maxTokens = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		TopP:        topP,
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadAIConfig() (AIConfig, error) {
	temperature, err := parseOptionalFloatEnv("ARK_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	topP, err := parseOptionalFloatEnv("ARK_TOP_P")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("ARK_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	sentimentEnabled, err := parseBoolEnv("AI_SENTIMENT_LLM_ENABLED", true)
	if err != nil {
		return AIConfig{}, err
	}

	return AIConfig{
		APIKey:              strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey:           strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:           strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:               strings.TrimSpace(os.Getenv("Model")),
		BaseURL:             getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:              getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Temperature:         temperature,
		TopP:                topP,
		MaxTokens:           maxTokens,
		SentimentLLMEnabled: sentimentEnabled,
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
