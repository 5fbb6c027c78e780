package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"docchat/internal/app"
	"docchat/internal/transport/http/response"
)

type AnalysisHandler struct {
	analysisService *app.AnalysisService
}

type GenerateQARequest struct {
	NumQuestions int `json:"num_questions"`
	SamplingRequest
}

type ResearchRequest struct {
	SessionID string `json:"session_id" binding:"required"`
	Query     string `json:"query"`
	SamplingRequest
}

type TranslateRequest struct {
	SessionID      string `json:"session_id" binding:"required"`
	TargetLanguage string `json:"target_language"`
	SamplingRequest
}

func NewAnalysisHandler(analysisService *app.AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{analysisService: analysisService}
}

// GenerateQA accepts an empty body, which asks for the default question count.
func (h *AnalysisHandler) GenerateQA(c *gin.Context) {
	var req GenerateQARequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, http.StatusBadRequest, "invalid request payload")
		return
	}

	content, err := h.analysisService.GenerateQA(c.Request.Context(), app.QAInput{
		SessionID:    c.Param("id"),
		NumQuestions: req.NumQuestions,
		Sampling:     req.sampling(),
	})
	if err != nil {
		writeError(c, err, "generate Q&A failed")
		return
	}
	response.OK(c, gin.H{"qa_content": content})
}

func (h *AnalysisHandler) Research(c *gin.Context) {
	var req ResearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request payload")
		return
	}

	analysis, err := h.analysisService.Research(c.Request.Context(), app.ResearchInput{
		SessionID: req.SessionID,
		Query:     req.Query,
		Sampling:  req.sampling(),
	})
	if err != nil {
		writeError(c, err, "research failed")
		return
	}
	response.OK(c, gin.H{"analysis": analysis})
}

func (h *AnalysisHandler) Translate(c *gin.Context) {
	var req TranslateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request payload")
		return
	}

	translation, err := h.analysisService.Translate(c.Request.Context(), app.TranslateInput{
		SessionID:      req.SessionID,
		TargetLanguage: req.TargetLanguage,
		Sampling:       req.sampling(),
	})
	if err != nil {
		writeError(c, err, "translate failed")
		return
	}
	response.OK(c, gin.H{"translation": translation})
}
