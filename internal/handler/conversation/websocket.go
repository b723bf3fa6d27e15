package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/zhouzirui/mindcheck/backend/internal/model/chat"
	questionnaireService "github.com/zhouzirui/mindcheck/backend/internal/service/questionnaire"
)

const (
	defaultReadTimeout = 60 * time.Second
	writeTimeout       = 10 * time.Second
	pingInterval       = 54 * time.Second
)

// Handler WebSocket问卷会话处理器
type Handler struct {
	svc         *questionnaireService.Service
	upgrader    websocket.Upgrader
	readTimeout time.Duration
}

// New 创建WebSocket处理器
func New(svc *questionnaireService.Service) *Handler {
	return &Handler{
		svc:         svc,
		readTimeout: defaultReadTimeout,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes 注册WebSocket路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws", h.handleWebSocket)
}

type inboundMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// StartMessage 开始会话
type StartMessage struct {
	Handle string `json:"handle"`
}

// AnswerMessage 回答当前题目
type AnswerMessage struct {
	Text string `json:"text"`
}

type outgoingMessage struct {
	Type      string      `json:"type"`
	SessionID string      `json:"sessionId,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// StateView 是推送给客户端的会话状态，不含完整记录。
type StateView struct {
	Status    chat.Status `json:"status"`
	Index     int         `json:"index"`
	Total     int         `json:"total"`
	Prompt    string      `json:"prompt,omitempty"`
	Completed bool        `json:"completed"`
}

// connection 串行化对同一个连接的写操作。
type connection struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *connection) writeJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteJSON(v)
}

func (c *connection) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout))
}

type connectionState struct {
	sessionID   string
	unsubscribe func()
	forwarder   sync.WaitGroup
}

func (s *connectionState) detach() {
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
	s.forwarder.Wait()
}

// handleWebSocket 处理WebSocket连接
func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ws] upgrade failed: %v", err)
		return
	}
	conn := &connection{conn: ws}
	defer ws.Close()

	ctx, cancel := context.WithCancel(r.Context())

	state := &connectionState{}
	defer state.detach()

	_ = ws.SetReadDeadline(time.Now().Add(h.readTimeout))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(h.readTimeout))
	})

	var pinger sync.WaitGroup
	pinger.Add(1)
	go func() {
		defer pinger.Done()
		h.pingLoop(ctx, conn)
	}()
	defer pinger.Wait()
	defer cancel()

	log.Printf("[ws] new connection from %s", r.RemoteAddr)
	h.sendInfo(conn, "", map[string]any{"type": "connected", "questions": len(h.svc.Questions())})

	for {
		var msg inboundMessage
		if err := ws.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Printf("[ws] read error: %v", err)
			}
			return
		}

		h.handleMessage(ctx, conn, state, &msg)

		// 分析调用可能超过读超时，处理完再续期。
		_ = ws.SetReadDeadline(time.Now().Add(h.readTimeout))
	}
}

func (h *Handler) handleMessage(ctx context.Context, conn *connection, state *connectionState, msg *inboundMessage) {
	switch msg.Type {
	case "start":
		h.handleStart(ctx, conn, state, msg.Data)
	case "answer":
		h.handleAnswer(ctx, conn, state, msg.Data)
	default:
		h.sendError(conn, state.sessionID, "unknown message type", "")
	}
}

func (h *Handler) handleStart(ctx context.Context, conn *connection, state *connectionState, raw json.RawMessage) {
	var payload StartMessage
	if err := json.Unmarshal(raw, &payload); err != nil {
		h.sendError(conn, state.sessionID, "invalid start payload", "")
		return
	}

	state.detach()

	session, err := h.svc.Start(ctx, payload.Handle)
	if err != nil {
		h.sendError(conn, "", err.Error(), "")
		return
	}
	state.sessionID = session.ID
	log.Printf("[ws] session=%s attached", session.ID)

	backlog, updates, unsubscribe, err := h.svc.Subscribe(ctx, session.ID)
	if err != nil {
		h.sendError(conn, session.ID, err.Error(), "")
		return
	}
	state.unsubscribe = unsubscribe

	for _, entry := range backlog {
		h.sendMessage(conn, entry)
	}

	state.forwarder.Add(1)
	go func() {
		defer state.forwarder.Done()
		h.forward(ctx, conn, updates)
	}()

	h.sendState(conn, session)
}

func (h *Handler) handleAnswer(ctx context.Context, conn *connection, state *connectionState, raw json.RawMessage) {
	if state.sessionID == "" {
		h.sendError(conn, "", "no active session, send a start message first", "")
		return
	}

	var payload AnswerMessage
	if err := json.Unmarshal(raw, &payload); err != nil {
		h.sendError(conn, state.sessionID, "invalid answer payload", "")
		return
	}

	session, err := h.svc.Submit(ctx, state.sessionID, payload.Text)
	if err != nil {
		var validationErr *questionnaireService.ValidationError
		if errors.As(err, &validationErr) {
			h.sendError(conn, state.sessionID, validationErr.Message, validationErr.Key)
			return
		}
		h.sendError(conn, state.sessionID, err.Error(), "")
		if session.ID == "" {
			return
		}
	}

	h.sendState(conn, session)
}

// forward 将新的记录推送给客户端，直到订阅结束。
func (h *Handler) forward(ctx context.Context, conn *connection, updates <-chan chat.Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case entry, open := <-updates:
			if !open {
				return
			}
			h.sendMessage(conn, entry)
		}
	}
}

func (h *Handler) sendMessage(conn *connection, entry chat.Message) {
	msg := outgoingMessage{
		Type:      "message",
		SessionID: entry.SessionID,
		Data:      entry,
		Timestamp: time.Now().Unix(),
	}
	if err := conn.writeJSON(msg); err != nil {
		log.Printf("[ws] write message failed: %v", err)
	}
}

func (h *Handler) sendState(conn *connection, session chat.Session) {
	msg := outgoingMessage{
		Type:      "state",
		SessionID: session.ID,
		Data: StateView{
			Status:    session.Status,
			Index:     session.Index,
			Total:     session.Total,
			Prompt:    session.Prompt,
			Completed: session.Status.Terminal(),
		},
		Timestamp: time.Now().Unix(),
	}
	if err := conn.writeJSON(msg); err != nil {
		log.Printf("[ws] write state failed: %v", err)
	}
}

func (h *Handler) sendInfo(conn *connection, sessionID string, data map[string]any) {
	msg := outgoingMessage{
		Type:      "result",
		SessionID: sessionID,
		Data:      data,
		Timestamp: time.Now().Unix(),
	}
	if err := conn.writeJSON(msg); err != nil {
		log.Printf("[ws] write info failed: %v", err)
	}
}

func (h *Handler) sendError(conn *connection, sessionID, message, key string) {
	data := map[string]string{"message": message}
	if key != "" {
		data["key"] = key
	}
	msg := outgoingMessage{
		Type:      "error",
		SessionID: sessionID,
		Data:      data,
		Timestamp: time.Now().Unix(),
	}
	if err := conn.writeJSON(msg); err != nil {
		log.Printf("[ws] write error failed: %v", err)
	}
}

// pingLoop 定期发送ping消息
func (h *Handler) pingLoop(ctx context.Context, conn *connection) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.ping(); err != nil {
				return
			}
		}
	}
}
