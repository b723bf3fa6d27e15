package chat

import (
	"time"

	"github.com/zhouzirui/mindcheck/backend/internal/model/questionnaire"
)

// Status is the lifecycle position of a questionnaire session.
type Status string

const (
	StatusAnalyzing   Status = "analyzing"
	StatusQuestioning Status = "questioning"
	StatusCompleted   Status = "completed"
	StatusFailed      Status = "failed"
)

// Terminal reports whether no further answers are accepted.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Session is a point-in-time view of a questionnaire conversation.
type Session struct {
	ID        string                  `json:"id"`
	Handle    string                  `json:"handle"`
	Index     int                     `json:"index"`
	Total     int                     `json:"total"`
	Status    Status                  `json:"status"`
	Responses questionnaire.Responses `json:"responses"`
	Prompt    string                  `json:"prompt,omitempty"`
	CreatedAt time.Time               `json:"createdAt"`
	UpdatedAt time.Time               `json:"updatedAt"`
	Messages  []Message               `json:"messages,omitempty"`
}
