package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"docchat/internal/app"
	"docchat/internal/transport/http/response"
)

type SessionHandler struct {
	chatService *app.ChatService
}

type CreateSessionRequest struct {
	Title string `json:"title" binding:"max=128"`
	Mode  string `json:"mode"`
}

func NewSessionHandler(chatService *app.ChatService) *SessionHandler {
	return &SessionHandler{chatService: chatService}
}

// Create accepts an empty body and falls back to the defaults.
func (h *SessionHandler) Create(c *gin.Context) {
	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, http.StatusBadRequest, "invalid request payload")
		return
	}

	session, err := h.chatService.CreateSession(c.Request.Context(), app.CreateSessionInput{
		Title: req.Title,
		Mode:  req.Mode,
	})
	if err != nil {
		writeError(c, err, "create session failed")
		return
	}
	response.OK(c, session)
}

func (h *SessionHandler) List(c *gin.Context) {
	sessions, err := h.chatService.ListSessions(c.Request.Context())
	if err != nil {
		writeError(c, err, "list sessions failed")
		return
	}
	response.OK(c, gin.H{"sessions": sessions})
}

func (h *SessionHandler) Get(c *gin.Context) {
	session, err := h.chatService.GetSession(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err, "get session failed")
		return
	}
	response.OK(c, session)
}

func (h *SessionHandler) Messages(c *gin.Context) {
	messages, err := h.chatService.ListMessages(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err, "list messages failed")
		return
	}
	response.OK(c, gin.H{"messages": messages})
}
