package stream

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/mindcheck/backend/internal/model/chat"
	questionnaireService "github.com/zhouzirui/mindcheck/backend/internal/service/questionnaire"
	"github.com/zhouzirui/mindcheck/backend/pkg/utils"
)

const defaultHeartbeat = 15 * time.Second

// Handler streams session transcripts via Server-Sent Events
type Handler struct {
	svc       *questionnaireService.Service
	heartbeat time.Duration
}

// New creates a new stream handler
func New(svc *questionnaireService.Service) *Handler {
	return &Handler{svc: svc, heartbeat: defaultHeartbeat}
}

// RegisterRoutes mounts the transcript stream under r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/sessions/{sessionID}/stream", h.HandleStream)
}

// EndEvent is the payload of the closing "end" event.
type EndEvent struct {
	SessionID string      `json:"sessionId"`
	Status    chat.Status `json:"status"`
	Finished  bool        `json:"finished"`
}

// HandleStream replays the transcript, then forwards live entries until the
// session reaches a terminal state or the client goes away.
func (h *Handler) HandleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	ctx := r.Context()
	sessionID := chi.URLParam(r, "sessionID")

	backlog, updates, cancel, err := h.svc.Subscribe(ctx, sessionID)
	if err != nil {
		if errors.Is(err, questionnaireService.ErrSessionNotFound) {
			utils.RespondError(w, http.StatusNotFound, err.Error())
			return
		}
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer cancel()

	utils.SetupSSEHeaders(w)
	log.Printf("[stream] opening transcript stream for session=%s backlog=%d", sessionID, len(backlog))

	for _, msg := range backlog {
		if err := utils.SendSSEEvent(w, flusher, "message", msg.ID, msg); err != nil {
			log.Printf("[stream] session=%s write failed: %v", sessionID, err)
			return
		}
	}

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("[stream] client left session=%s", sessionID)
			return
		case msg, open := <-updates:
			if !open {
				h.sendEnd(w, flusher, sessionID)
				return
			}
			if err := utils.SendSSEEvent(w, flusher, "message", msg.ID, msg); err != nil {
				log.Printf("[stream] session=%s write failed: %v", sessionID, err)
				return
			}
		case <-ticker.C:
			if err := utils.SendSSEComment(w, flusher, "heartbeat"); err != nil {
				return
			}
		}
	}
}

func (h *Handler) sendEnd(w http.ResponseWriter, flusher http.Flusher, sessionID string) {
	snapshot, err := h.svc.GetSession(context.Background(), sessionID)
	if err != nil {
		log.Printf("[stream] session=%s vanished before end: %v", sessionID, err)
		return
	}
	if err := utils.SendSSEEvent(w, flusher, "end", "", EndEvent{
		SessionID: sessionID,
		Status:    snapshot.Status,
		Finished:  snapshot.Status.Terminal(),
	}); err != nil {
		log.Printf("[stream] session=%s end write failed: %v", sessionID, err)
		return
	}
	log.Printf("[stream] closed transcript stream for session=%s status=%s", sessionID, snapshot.Status)
}
