package handler

import (
	"github.com/gin-gonic/gin"

	"docchat/internal/ai"
	"docchat/internal/transport/http/response"
)

type ModelHandler struct{}

func NewModelHandler() *ModelHandler {
	return &ModelHandler{}
}

func (h *ModelHandler) List(c *gin.Context) {
	response.OK(c, gin.H{"models": ai.AvailableModels()})
}
