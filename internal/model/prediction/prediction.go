package prediction

import (
	"encoding/json"

	"github.com/zhouzirui/mindcheck/backend/internal/model/questionnaire"
)

// DepressedLabel is the label the prediction service uses for a positive result.
const DepressedLabel = "Depressed"

// NotDepressedLabel is the negative counterpart of DepressedLabel.
const NotDepressedLabel = "Not Depressed"

// UsernameRequest is the body of /predict and /final_prediction.
type UsernameRequest struct {
	Username string `json:"username"`
}

// DemographicsRequest is the body of /store_demographics: the username plus
// every answer flattened at the top level.
type DemographicsRequest struct {
	Username  string
	Responses questionnaire.Responses
}

// MarshalJSON flattens the answers next to the username.
func (r DemographicsRequest) MarshalJSON() ([]byte, error) {
	body := make(map[string]any, len(r.Responses)+1)
	for key, value := range r.Responses {
		body[key] = value
	}
	body["username"] = r.Username
	return json.Marshal(body)
}

// TweetPrediction is the /predict response.
type TweetPrediction struct {
	Username   string  `json:"username,omitempty"`
	Depression string  `json:"depression"`
	Confidence float64 `json:"confidence"`
}

// Depressed reports whether the post analysis flagged depression indicators.
func (p TweetPrediction) Depressed() bool {
	return p.Depression == DepressedLabel
}

// DemographicPrediction is the /store_demographics response.
type DemographicPrediction struct {
	DepressionDemographic int     `json:"depression_demographic"`
	ConfidencePercentage  float64 `json:"confidence_percentage"`
	Message               string  `json:"message,omitempty"`
}

// Depressed reports whether the demographic model predicted class 1.
func (p DemographicPrediction) Depressed() bool {
	return p.DepressionDemographic == 1
}

// FinalPrediction is the /final_prediction response.
type FinalPrediction struct {
	Username         string  `json:"username,omitempty"`
	FinalPrediction  string  `json:"final_prediction"`
	WeightedScore    float64 `json:"weighted_score"`
	TweetScore       float64 `json:"tweet_score,omitempty"`
	DemographicScore float64 `json:"demographic_score,omitempty"`
	Message          string  `json:"message,omitempty"`
}

// Depressed reports whether the weighted result crossed the threshold.
func (p FinalPrediction) Depressed() bool {
	return p.FinalPrediction == DepressedLabel
}

// ErrorResponse is the error body both services return on non-2xx responses.
type ErrorResponse struct {
	Error string `json:"error"`
}
