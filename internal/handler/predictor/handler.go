package predictor

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/mindcheck/backend/internal/analysis/demographic"
	"github.com/zhouzirui/mindcheck/backend/internal/model/prediction"
	"github.com/zhouzirui/mindcheck/backend/internal/model/questionnaire"
	"github.com/zhouzirui/mindcheck/backend/internal/service/scoring"
	"github.com/zhouzirui/mindcheck/backend/pkg/utils"
)

// Handler 参考预测服务的HTTP处理器
type Handler struct {
	svc *scoring.Service
}

// New 创建参考预测处理器
func New(svc *scoring.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes 注册预测相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.handleHome)
	r.Post("/predict", h.handlePredict)
	r.Post("/store_demographics", h.handleStoreDemographics)
	r.Post("/final_prediction", h.handleFinalPrediction)
}

func (h *Handler) handleHome(w http.ResponseWriter, _ *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]string{"message": "Welcome to the mindcheck prediction API!"})
}

// handlePredict 对账号帖子评分
func (h *Handler) handlePredict(w http.ResponseWriter, r *http.Request) {
	var payload prediction.UsernameRequest
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.svc.Predict(r.Context(), payload.Username)
	if err != nil {
		respondScoringError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, result)
}

// handleStoreDemographics 记录问卷并返回问卷评分
func (h *Handler) handleStoreDemographics(w http.ResponseWriter, r *http.Request) {
	var fields map[string]json.RawMessage
	if err := utils.DecodeJSON(r, &fields); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var username string
	if raw, ok := fields["username"]; ok {
		if err := json.Unmarshal(raw, &username); err != nil {
			utils.RespondError(w, http.StatusBadRequest, "username must be a string")
			return
		}
	}
	delete(fields, "username")

	responses := make(questionnaire.Responses, len(fields))
	for key, raw := range fields {
		var value questionnaire.Value
		if err := json.Unmarshal(raw, &value); err != nil {
			utils.RespondError(w, http.StatusBadRequest, "invalid value for field: "+key)
			return
		}
		responses[key] = value
	}

	result, err := h.svc.StoreDemographics(r.Context(), username, responses)
	if err != nil {
		respondScoringError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, result)
}

// handleFinalPrediction 返回加权后的最终结果
func (h *Handler) handleFinalPrediction(w http.ResponseWriter, r *http.Request) {
	var payload prediction.UsernameRequest
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.svc.FinalPrediction(r.Context(), payload.Username)
	if err != nil {
		respondScoringError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, result)
}

// respondScoringError 将评分错误映射为HTTP状态码，错误文本沿用对外约定。
func respondScoringError(w http.ResponseWriter, err error) {
	var missing *demographic.MissingFieldError
	var invalid *demographic.InvalidFieldError
	switch {
	case errors.Is(err, scoring.ErrUsernameRequired):
		utils.RespondError(w, http.StatusBadRequest, "Username is required")
	case errors.As(err, &missing):
		utils.RespondError(w, http.StatusBadRequest, missing.Error())
	case errors.As(err, &invalid):
		utils.RespondError(w, http.StatusBadRequest, invalid.Error())
	case errors.Is(err, scoring.ErrNoPosts):
		utils.RespondError(w, http.StatusNotFound, "No posts found for this user")
	case errors.Is(err, scoring.ErrNoTweetAnalysis):
		utils.RespondError(w, http.StatusNotFound, "No tweet analysis found for this user")
	case errors.Is(err, scoring.ErrNoDemographicsData):
		utils.RespondError(w, http.StatusNotFound, "No demographic data found for this user")
	default:
		log.Printf("[predictor] request failed: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, strings.TrimSpace(err.Error()))
	}
}
