package questionnaire

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidHandle   = errors.New("handle is required")
	ErrEmptyAnswer     = errors.New("answer is empty")
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionBusy     = errors.New("session is waiting for a previous step")
	ErrSessionClosed   = errors.New("session is closed")
	ErrComplete        = errors.New("all questions already answered")
)

// ValidationError rejects an answer without changing session state.
type ValidationError struct {
	Key     string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid answer for %s: %s", e.Key, e.Message)
}

// Stage names one collaborator call.
type Stage string

const (
	StagePredict           Stage = "predict"
	StageStoreDemographics Stage = "store_demographics"
	StageFinalPrediction   Stage = "final_prediction"
)

// ExternalCallError wraps a failed collaborator call with the stage it belongs to.
type ExternalCallError struct {
	Stage Stage
	Err   error
}

func (e *ExternalCallError) Error() string {
	return fmt.Sprintf("%s call failed: %v", e.Stage, e.Err)
}

func (e *ExternalCallError) Unwrap() error {
	return e.Err
}
