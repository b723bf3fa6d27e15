package chat

import "time"

// Origin tells whether a transcript entry was produced by the questionnaire or typed by the user.
type Origin string

const (
	OriginPrompt Origin = "prompt"
	OriginUser   Origin = "user"
)

// CardKind identifies which analysis a result card renders.
type CardKind string

const (
	CardTweet       CardKind = "tweet"
	CardDemographic CardKind = "demographic"
	CardFinal       CardKind = "final"
)

// Card is the structured form of an analysis result shown in the transcript.
type Card struct {
	Kind       CardKind `json:"kind"`
	Title      string   `json:"title"`
	Summary    string   `json:"summary"`
	Label      string   `json:"label"`
	Percentage float64  `json:"percentage"`
	Indicated  bool     `json:"indicated"`
	Weighting  string   `json:"weighting,omitempty"`
	Advice     string   `json:"advice,omitempty"`
}

// Message is one append-only transcript entry.
type Message struct {
	ID        string    `json:"id"`
	SessionID string    `json:"sessionId"`
	Origin    Origin    `json:"origin"`
	Content   string    `json:"content"`
	Card      *Card     `json:"card,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
