package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"docchat/internal/app"
	"docchat/internal/pkg/log"
	"docchat/internal/transport/http/middleware"
	"docchat/internal/transport/http/response"
)

// SamplingRequest holds the optional per-call overrides accepted by every
// gateway-bound endpoint.
type SamplingRequest struct {
	Model       string   `json:"model"`
	Temperature *float64 `json:"temperature"`
	MaxTokens   *int     `json:"max_tokens"`
}

func (r SamplingRequest) sampling() app.Sampling {
	return app.Sampling{Model: r.Model, Temperature: r.Temperature, MaxTokens: r.MaxTokens}
}

type ChatRequest struct {
	Message string `json:"message"`
	SamplingRequest
}

type ChatHandler struct {
	chatService *app.ChatService
	upgrader    websocket.Upgrader
	limiter     *middleware.IPRateLimiter
}

// wsFrame is one server message on the chat websocket.
type wsFrame struct {
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
	Detail  string `json:"detail,omitempty"`
}

// NewChatHandler builds the chat endpoints. A non-nil limiter is charged
// once per websocket turn on top of the upgrade request.
func NewChatHandler(chatService *app.ChatService, allowedOrigins []string, limiter *middleware.IPRateLimiter) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		limiter:     limiter,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return middleware.OriginAllowed(allowedOrigins, r.Header.Get("Origin"))
			},
		},
	}
}

func (h *ChatHandler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request payload")
		return
	}

	reply, err := h.chatService.Chat(c.Request.Context(), app.ChatInput{
		SessionID: c.Param("id"),
		Message:   req.Message,
		Sampling:  req.sampling(),
	})
	if err != nil {
		writeError(c, err, "chat failed")
		return
	}
	response.OK(c, gin.H{"response": reply})
}

// Stream answers over server-sent events. Errors raised before the first
// increment are plain JSON responses; later ones arrive as an error event.
func (h *ChatHandler) Stream(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request payload")
		return
	}

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		response.Error(c, http.StatusInternalServerError, "stream not supported")
		return
	}

	started := false
	start := func() {
		c.Header("Content-Type", "text/event-stream")
		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")
		c.Header("X-Accel-Buffering", "no")
		c.Status(http.StatusOK)
		started = true
	}

	full, err := h.chatService.StreamChat(c.Request.Context(), app.ChatInput{
		SessionID: c.Param("id"),
		Message:   req.Message,
		Sampling:  req.sampling(),
	}, func(chunk string) error {
		if !started {
			start()
		}
		if err := writeSSE(c.Writer, "", gin.H{"content": chunk}); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	})
	if err != nil {
		if !started {
			writeError(c, err, "stream chat failed")
			return
		}
		_, detail := statusOf(err, "stream chat failed")
		log.Warnw("chat stream ended with error", "session_id", c.Param("id"), "error", err)
		_ = writeSSE(c.Writer, "error", gin.H{"detail": detail})
		flusher.Flush()
		return
	}

	if !started {
		start()
	}
	_ = writeSSE(c.Writer, "done", gin.H{"response": full})
	flusher.Flush()
}

// StreamWS runs chat turns over a websocket. Each client text message is a
// ChatRequest; the server answers with chunk frames followed by a done or
// error frame, and keeps the connection open for the next turn.
func (h *ChatHandler) StreamWS(c *gin.Context) {
	sessionID := c.Param("id")
	if _, err := h.chatService.GetSession(c.Request.Context(), sessionID); err != nil {
		writeError(c, err, "get session failed")
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("websocket upgrade failed", err)
		return
	}
	defer conn.Close()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warnw("websocket read failed", "session_id", sessionID, "error", err)
			}
			return
		}

		if h.limiter != nil && !h.limiter.GetLimiter(c.ClientIP()).Allow() {
			if err := conn.WriteJSON(wsFrame{Type: "error", Detail: "rate limit exceeded"}); err != nil {
				return
			}
			continue
		}

		var req ChatRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			if err := conn.WriteJSON(wsFrame{Type: "error", Detail: "invalid request payload"}); err != nil {
				return
			}
			continue
		}

		full, err := h.chatService.StreamChat(c.Request.Context(), app.ChatInput{
			SessionID: sessionID,
			Message:   req.Message,
			Sampling:  req.sampling(),
		}, func(chunk string) error {
			return conn.WriteJSON(wsFrame{Type: "chunk", Content: chunk})
		})

		frame := wsFrame{Type: "done", Content: full}
		if err != nil {
			_, detail := statusOf(err, "stream chat failed")
			frame = wsFrame{Type: "error", Detail: detail}
		}
		if err := conn.WriteJSON(frame); err != nil {
			return
		}
	}
}

func writeSSE(w io.Writer, event string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if event != "" {
		if _, err := fmt.Fprintf(w, "event: %s\n", event); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", data)
	return err
}
