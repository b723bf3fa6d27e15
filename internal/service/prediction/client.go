package prediction

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	model "github.com/zhouzirui/mindcheck/backend/internal/model/prediction"
	"github.com/zhouzirui/mindcheck/backend/internal/model/questionnaire"
)

const (
	pathPredict           = "/predict"
	pathStoreDemographics = "/store_demographics"
	pathFinalPrediction   = "/final_prediction"

	maxResponseBytes = 1 << 20
)

// ErrMalformedResponse marks a 2xx response whose body could not be understood.
var ErrMalformedResponse = errors.New("malformed prediction response")

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Path    string
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("prediction service %s returned %d", e.Path, e.Code)
	}
	return fmt.Sprintf("prediction service %s returned %d: %s", e.Path, e.Code, e.Message)
}

// Config describes how to reach the prediction service.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client talks JSON over HTTP to the external prediction service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a client. A nil httpClient gets one with cfg.Timeout.
func NewClient(cfg Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: httpClient,
	}
}

// Predict requests the post-based analysis for a handle.
func (c *Client) Predict(ctx context.Context, username string) (model.TweetPrediction, error) {
	var payload struct {
		Username   string   `json:"username"`
		Depression *string  `json:"depression"`
		Confidence *float64 `json:"confidence"`
	}
	if err := c.post(ctx, pathPredict, model.UsernameRequest{Username: username}, &payload); err != nil {
		return model.TweetPrediction{}, err
	}
	if payload.Depression == nil || *payload.Depression == "" || payload.Confidence == nil {
		return model.TweetPrediction{}, fmt.Errorf("%s: %w: missing depression or confidence", pathPredict, ErrMalformedResponse)
	}
	if !within(*payload.Confidence, 0, 1) {
		return model.TweetPrediction{}, fmt.Errorf("%s: %w: confidence %v outside [0,1]", pathPredict, ErrMalformedResponse, *payload.Confidence)
	}

	return model.TweetPrediction{
		Username:   payload.Username,
		Depression: *payload.Depression,
		Confidence: *payload.Confidence,
	}, nil
}

// StoreDemographics submits the answers and returns the demographic classification.
func (c *Client) StoreDemographics(ctx context.Context, username string, responses questionnaire.Responses) (model.DemographicPrediction, error) {
	var payload struct {
		DepressionDemographic *int     `json:"depression_demographic"`
		ConfidencePercentage  *float64 `json:"confidence_percentage"`
		Message               string   `json:"message"`
	}
	body := model.DemographicsRequest{Username: username, Responses: responses}
	if err := c.post(ctx, pathStoreDemographics, body, &payload); err != nil {
		return model.DemographicPrediction{}, err
	}
	if payload.DepressionDemographic == nil {
		return model.DemographicPrediction{}, fmt.Errorf("%s: %w: missing depression_demographic", pathStoreDemographics, ErrMalformedResponse)
	}
	if class := *payload.DepressionDemographic; class != 0 && class != 1 {
		return model.DemographicPrediction{}, fmt.Errorf("%s: %w: depression_demographic %d not 0 or 1", pathStoreDemographics, ErrMalformedResponse, class)
	}
	if pct := payload.ConfidencePercentage; pct != nil && !within(*pct, 0, 100) {
		return model.DemographicPrediction{}, fmt.Errorf("%s: %w: confidence_percentage %v outside [0,100]", pathStoreDemographics, ErrMalformedResponse, *pct)
	}

	result := model.DemographicPrediction{
		DepressionDemographic: *payload.DepressionDemographic,
		Message:               payload.Message,
	}
	if payload.ConfidencePercentage != nil {
		result.ConfidencePercentage = *payload.ConfidencePercentage
	}
	return result, nil
}

// FinalPrediction requests the weighted combination of both analyses.
func (c *Client) FinalPrediction(ctx context.Context, username string) (model.FinalPrediction, error) {
	var payload struct {
		model.FinalPrediction
		WeightedScore *float64 `json:"weighted_score"`
	}
	if err := c.post(ctx, pathFinalPrediction, model.UsernameRequest{Username: username}, &payload); err != nil {
		return model.FinalPrediction{}, err
	}
	if payload.FinalPrediction.FinalPrediction == "" || payload.WeightedScore == nil {
		return model.FinalPrediction{}, fmt.Errorf("%s: %w: missing final_prediction or weighted_score", pathFinalPrediction, ErrMalformedResponse)
	}
	if !within(*payload.WeightedScore, 0, 1) {
		return model.FinalPrediction{}, fmt.Errorf("%s: %w: weighted_score %v outside [0,1]", pathFinalPrediction, ErrMalformedResponse, *payload.WeightedScore)
	}

	result := payload.FinalPrediction
	result.WeightedScore = *payload.WeightedScore
	return result, nil
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("create %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("[prediction] POST %s failed: %v", path, err)
		return fmt.Errorf("POST %s: %w", path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read %s response: %w", path, err)
	}

	log.Printf("[prediction] POST %s status=%d bytes=%d elapsed=%s", path, resp.StatusCode, len(respBody), time.Since(started).Round(time.Millisecond))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr model.ErrorResponse
		_ = json.Unmarshal(respBody, &apiErr)
		return &StatusError{Path: path, Code: resp.StatusCode, Message: apiErr.Error}
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("%s: %w: %v", path, ErrMalformedResponse, err)
	}
	return nil
}

// within reports whether v lies in the closed range [lo, hi].
func within(v, lo, hi float64) bool {
	return v >= lo && v <= hi
}
