package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "PREDICTOR_BASE_URL", "PREDICTOR_TIMEOUT", "QUESTION_PROMPT_DELAY_MS",
		"TRANSCRIPT_SUBSCRIBER_BUFFER", "CORS_ALLOWED_ORIGINS", "PREDICTOR_PORT",
		"PREDICTOR_POSTS_FILE", "PREDICTOR_MAX_POSTS", "ARK_API_KEY", "ARK_ACCESS_KEY",
		"ARK_SECRET_KEY", "Model", "ARK_TEMPERATURE", "ARK_TOP_P", "ARK_MAX_TOKENS",
		"AI_SENTIMENT_LLM_ENABLED",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "http://127.0.0.1:5000", cfg.Predictor.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Predictor.Timeout)
	assert.Equal(t, 500*time.Millisecond, cfg.Questionnaire.PromptDelay)
	assert.Equal(t, 32, cfg.Questionnaire.SubscriberBuffer)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, ":5000", cfg.Reference.Server.Addr)
	assert.Equal(t, 100, cfg.Reference.MaxPosts)
	assert.False(t, cfg.AI.Enabled())
	assert.True(t, cfg.AI.SentimentLLMEnabled)
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "127.0.0.1:9000")
	t.Setenv("PREDICTOR_BASE_URL", "http://predictor:5000/")
	t.Setenv("PREDICTOR_TIMEOUT", "5")
	t.Setenv("QUESTION_PROMPT_DELAY_MS", "0")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://localhost:3000, https://app.example.com")
	t.Setenv("PREDICTOR_MAX_POSTS", "20")
	t.Setenv("ARK_API_KEY", "key")
	t.Setenv("Model", "doubao")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	assert.Equal(t, "http://predictor:5000", cfg.Predictor.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Predictor.Timeout)
	assert.Zero(t, cfg.Questionnaire.PromptDelay)
	assert.Equal(t, []string{"http://localhost:3000", "https://app.example.com"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 20, cfg.Reference.MaxPosts)
	assert.True(t, cfg.AI.Enabled())
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"PORT":                     "80 80",
		"PREDICTOR_TIMEOUT":        "soon",
		"QUESTION_PROMPT_DELAY_MS": "fast",
		"ARK_TEMPERATURE":          "warm",
		"AI_SENTIMENT_LLM_ENABLED": "maybe",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, value)

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), key)
		})
	}
}
