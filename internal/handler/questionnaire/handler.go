package questionnaire

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	questionnaireModel "github.com/zhouzirui/mindcheck/backend/internal/model/questionnaire"
	questionnaireService "github.com/zhouzirui/mindcheck/backend/internal/service/questionnaire"
	"github.com/zhouzirui/mindcheck/backend/pkg/utils"
)

// Handler 问卷会话的HTTP处理器
type Handler struct {
	svc *questionnaireService.Service
}

// New 创建问卷处理器
func New(svc *questionnaireService.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes 注册问卷相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/questions", h.handleListQuestions)
	r.Post("/sessions", h.handleStartSession)
	r.Get("/sessions/{sessionID}", h.handleGetSession)
	r.Get("/sessions/{sessionID}/transcript", h.handleTranscript)
	r.Post("/sessions/{sessionID}/answers", h.handleSubmitAnswer)
}

// questionView 是对外暴露的题目描述
type questionView struct {
	Key          string   `json:"key"`
	Prompt       string   `json:"prompt"`
	ErrorMessage string   `json:"errorMessage"`
	Kind         string   `json:"kind"`
	Min          *float64 `json:"min,omitempty"`
	Max          *float64 `json:"max,omitempty"`
	Choices      []string `json:"choices,omitempty"`
}

func newQuestionView(q questionnaireModel.Question) questionView {
	view := questionView{
		Key:          q.Key,
		Prompt:       q.Prompt,
		ErrorMessage: q.ErrorMessage,
		Kind:         string(q.Kind),
	}
	if q.Kind == questionnaireModel.KindNumeric {
		lo, hi := q.Min, q.Max
		view.Min, view.Max = &lo, &hi
	} else {
		view.Choices = append([]string(nil), q.Choices...)
	}
	return view
}

// handleListQuestions 返回题目列表
func (h *Handler) handleListQuestions(w http.ResponseWriter, r *http.Request) {
	questions := h.svc.Questions()
	views := make([]questionView, 0, len(questions))
	for _, q := range questions {
		views = append(views, newQuestionView(q))
	}
	utils.RespondJSON(w, http.StatusOK, views)
}

// handleStartSession 创建会话并执行首轮分析
func (h *Handler) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Handle string `json:"handle"`
	}

	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := h.svc.Start(r.Context(), payload.Handle)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusCreated, session)
}

// handleGetSession 查询会话状态
func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.svc.GetSession(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, session)
}

// handleTranscript 返回会话的完整记录
func (h *Handler) handleTranscript(w http.ResponseWriter, r *http.Request) {
	messages, err := h.svc.LoadTranscript(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]any{"messages": messages})
}

// handleSubmitAnswer 提交当前题目的回答
func (h *Handler) handleSubmitAnswer(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Answer string `json:"answer"`
	}

	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := h.svc.Submit(r.Context(), chi.URLParam(r, "sessionID"), payload.Answer)
	if err != nil {
		var callErr *questionnaireService.ExternalCallError
		if errors.As(err, &callErr) {
			utils.RespondJSON(w, http.StatusBadGateway, map[string]any{
				"error":   callErr.Error(),
				"stage":   callErr.Stage,
				"session": session,
			})
			return
		}
		respondServiceError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, session)
}

// respondServiceError 将服务层错误映射为HTTP状态码
func respondServiceError(w http.ResponseWriter, err error) {
	var validationErr *questionnaireService.ValidationError
	switch {
	case errors.As(err, &validationErr):
		utils.RespondJSON(w, http.StatusUnprocessableEntity, map[string]string{
			"error": validationErr.Message,
			"key":   validationErr.Key,
		})
	case errors.Is(err, questionnaireService.ErrInvalidHandle),
		errors.Is(err, questionnaireService.ErrEmptyAnswer):
		utils.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, questionnaireService.ErrSessionNotFound):
		utils.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, questionnaireService.ErrSessionBusy),
		errors.Is(err, questionnaireService.ErrSessionClosed),
		errors.Is(err, questionnaireService.ErrComplete):
		utils.RespondError(w, http.StatusConflict, err.Error())
	default:
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
	}
}
