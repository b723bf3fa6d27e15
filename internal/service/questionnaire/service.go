package questionnaire

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zhouzirui/mindcheck/backend/internal/model/chat"
	"github.com/zhouzirui/mindcheck/backend/internal/model/prediction"
	"github.com/zhouzirui/mindcheck/backend/internal/model/questionnaire"
)

// Predictor is the external analysis service.
type Predictor interface {
	Predict(ctx context.Context, username string) (prediction.TweetPrediction, error)
	StoreDemographics(ctx context.Context, username string, responses questionnaire.Responses) (prediction.DemographicPrediction, error)
	FinalPrediction(ctx context.Context, username string) (prediction.FinalPrediction, error)
}

// Config tunes the conversational pacing.
type Config struct {
	// PromptDelay separates an accepted answer from the next prompt.
	PromptDelay time.Duration
	// SubscriberBuffer is the per-subscriber transcript buffer.
	SubscriberBuffer int
}

// Service owns questionnaire sessions and drives them against the Predictor.
type Service struct {
	predictor Predictor
	cfg       Config
	questions []questionnaire.Question

	mu       sync.RWMutex
	sessions map[string]*session
}

// NewService wires a session registry to the prediction collaborator.
func NewService(predictor Predictor, cfg Config) *Service {
	return &Service{
		predictor: predictor,
		cfg:       cfg,
		questions: questionnaire.Catalog(),
		sessions:  make(map[string]*session),
	}
}

// Questions returns the question catalogue the sessions walk through.
func (s *Service) Questions() []questionnaire.Question {
	return questionnaire.Catalog()
}

// Start opens a session for handle and runs the primary analysis. A failed
// analysis is not fatal: the session moves on to the first question either way.
func (s *Service) Start(ctx context.Context, rawHandle string) (chat.Session, error) {
	handle := normalizeHandle(rawHandle)
	if handle == "" {
		return chat.Session{}, ErrInvalidHandle
	}

	now := time.Now().UTC()
	sess := &session{
		id:        uuid.NewString(),
		handle:    handle,
		ctrl:      NewController(s.questions),
		status:    chat.StatusAnalyzing,
		createdAt: now,
		updatedAt: now,
		messages:  make([]chat.Message, 0, 2*len(s.questions)+8),
		feed:      newFeed(s.cfg.SubscriberBuffer),
	}

	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()

	log.Printf("[questionnaire] session=%s started for @%s", sess.id, handle)
	sess.appendPrompt(analyzingMessage(handle))

	result, err := s.predictor.Predict(ctx, handle)
	if err != nil {
		callErr := &ExternalCallError{Stage: StagePredict, Err: err}
		log.Printf("[questionnaire] session=%s %v, continuing with demographic questions", sess.id, callErr)
		sess.appendPrompt(msgPredictFallback)
	} else {
		log.Printf("[questionnaire] session=%s primary analysis=%s confidence=%.3f", sess.id, result.Depression, result.Confidence)
		sess.appendCard(tweetCard(result))
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.appendLocked(chat.OriginPrompt, msgIntro, nil)
	sess.askLocked()
	sess.status = chat.StatusQuestioning
	return sess.snapshotLocked(), nil
}

// Submit answers the active question. A rejected answer returns a
// *ValidationError and leaves the session untouched apart from the error
// prompt. The last accepted answer triggers the closing calls; their failure
// is returned as *ExternalCallError and ends the session.
func (s *Service) Submit(ctx context.Context, sessionID, raw string) (chat.Session, error) {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return chat.Session{}, err
	}

	answer := strings.TrimSpace(raw)

	sess.mu.Lock()
	if err := sess.acceptingLocked(); err != nil {
		snap := sess.snapshotLocked()
		sess.mu.Unlock()
		return snap, err
	}
	if answer == "" {
		snap := sess.snapshotLocked()
		sess.mu.Unlock()
		return snap, ErrEmptyAnswer
	}

	if _, err := sess.ctrl.Submit(answer); err != nil {
		var validationErr *ValidationError
		if errors.As(err, &validationErr) {
			sess.appendLocked(chat.OriginPrompt, validationErr.Message, nil)
		}
		snap := sess.snapshotLocked()
		sess.mu.Unlock()
		return snap, err
	}
	sess.appendLocked(chat.OriginUser, answer, nil)

	if !sess.ctrl.IsComplete() {
		sess.waiting = true
		sess.mu.Unlock()

		s.pause(ctx)

		sess.mu.Lock()
		defer sess.mu.Unlock()
		sess.waiting = false
		sess.askLocked()
		return sess.snapshotLocked(), nil
	}

	sess.status = chat.StatusAnalyzing
	sess.appendLocked(chat.OriginPrompt, msgProcessing, nil)
	run := &analysisRun{username: sess.handle, responses: sess.ctrl.Responses()}
	sess.mu.Unlock()

	// The closing calls outlive the caller's request so that a dropped
	// connection cannot leave the session half analysed.
	pipelineErr := runStages(context.WithoutCancel(ctx), closingStages(s.predictor), run)

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if pipelineErr != nil {
		log.Printf("[questionnaire] session=%s analysis failed: %v", sess.id, pipelineErr)
		sess.appendLocked(chat.OriginPrompt, msgPipelineFailed, nil)
		sess.status = chat.StatusFailed
	} else {
		log.Printf("[questionnaire] session=%s completed final=%s weighted=%.3f", sess.id, run.final.FinalPrediction, run.final.WeightedScore)
		sess.appendCardLocked(demographicCard(run.demographic))
		sess.appendCardLocked(finalCard(run.final))
		sess.appendLocked(chat.OriginPrompt, msgDisclaimer, nil)
		sess.status = chat.StatusCompleted
	}
	sess.feed.close()

	return sess.snapshotLocked(), pipelineErr
}

// GetSession returns the current state of a session.
func (s *Service) GetSession(_ context.Context, sessionID string) (chat.Session, error) {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return chat.Session{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.snapshotLocked(), nil
}

// LoadTranscript returns the transcript entries of a session.
func (s *Service) LoadTranscript(_ context.Context, sessionID string) ([]chat.Message, error) {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.transcriptLocked(), nil
}

// Subscribe returns the transcript so far plus a channel of later entries.
// The channel is closed once the session reaches a terminal state or cancel
// is called.
func (s *Service) Subscribe(_ context.Context, sessionID string) ([]chat.Message, <-chan chat.Message, func(), error) {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, nil, nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	backlog := sess.transcriptLocked()
	updates, cancel := sess.feed.subscribe()
	return backlog, updates, cancel, nil
}

func (s *Service) lookup(sessionID string) (*session, error) {
	if sessionID == "" {
		return nil, ErrSessionNotFound
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

func (s *Service) pause(ctx context.Context) {
	if s.cfg.PromptDelay <= 0 {
		return
	}

	timer := time.NewTimer(s.cfg.PromptDelay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// normalizeHandle trims whitespace and one leading "@".
func normalizeHandle(raw string) string {
	handle := strings.TrimSpace(raw)
	handle = strings.TrimPrefix(handle, "@")
	return strings.TrimSpace(handle)
}

type session struct {
	mu sync.Mutex

	id        string
	handle    string
	ctrl      *Controller
	status    chat.Status
	waiting   bool
	messages  []chat.Message
	createdAt time.Time
	updatedAt time.Time
	feed      *feed
}

func (s *session) acceptingLocked() error {
	if s.status.Terminal() {
		return ErrSessionClosed
	}
	if s.status == chat.StatusAnalyzing || s.waiting {
		return ErrSessionBusy
	}
	return nil
}

func (s *session) appendLocked(origin chat.Origin, content string, card *chat.Card) {
	msg := chat.Message{
		ID:        uuid.NewString(),
		SessionID: s.id,
		Origin:    origin,
		Content:   content,
		Card:      card,
		CreatedAt: time.Now().UTC(),
	}
	s.messages = append(s.messages, msg)
	s.updatedAt = msg.CreatedAt
	s.feed.publish(msg)
}

func (s *session) appendPrompt(content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendLocked(chat.OriginPrompt, content, nil)
}

func (s *session) appendCard(card chat.Card) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendCardLocked(card)
}

func (s *session) appendCardLocked(card chat.Card) {
	s.appendLocked(chat.OriginPrompt, renderCard(card), &card)
}

func (s *session) askLocked() {
	if q, ok := s.ctrl.Current(); ok {
		s.appendLocked(chat.OriginPrompt, q.Prompt, nil)
	}
}

func (s *session) transcriptLocked() []chat.Message {
	copied := make([]chat.Message, len(s.messages))
	copy(copied, s.messages)
	return copied
}

func (s *session) snapshotLocked() chat.Session {
	snap := chat.Session{
		ID:        s.id,
		Handle:    s.handle,
		Index:     s.ctrl.Index(),
		Total:     s.ctrl.Len(),
		Status:    s.status,
		Responses: s.ctrl.Responses(),
		CreatedAt: s.createdAt,
		UpdatedAt: s.updatedAt,
		Messages:  s.transcriptLocked(),
	}
	if s.status == chat.StatusQuestioning && !s.waiting {
		if q, ok := s.ctrl.Current(); ok {
			snap.Prompt = q.Prompt
		}
	}
	return snap
}
