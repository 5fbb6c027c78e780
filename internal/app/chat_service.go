package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"docchat/internal/ai"
	"docchat/internal/model"
	"docchat/internal/pkg/log"
	"docchat/internal/prompt"
)

const (
	DefaultSessionTitle = "New Chat"
	SessionListLimit    = 50
	MessageListLimit    = 100
)

type ChatService struct {
	sessions     SessionStore
	messages     MessageStore
	documents    DocumentStore
	gateway      Gateway
	historyCache HistoryCache
	defaultModel string
}

// NewChatService wires the session and chat operations. historyCache may be nil.
func NewChatService(
	sessions SessionStore,
	messages MessageStore,
	documents DocumentStore,
	gateway Gateway,
	historyCache HistoryCache,
	defaultModel string,
) *ChatService {
	if defaultModel == "" {
		defaultModel = ai.DefaultModel
	}
	return &ChatService{
		sessions:     sessions,
		messages:     messages,
		documents:    documents,
		gateway:      gateway,
		historyCache: historyCache,
		defaultModel: defaultModel,
	}
}

type CreateSessionInput struct {
	Title string
	Mode  string
}

type ChatInput struct {
	SessionID string
	Message   string
	Sampling
}

func (s *ChatService) CreateSession(ctx context.Context, input CreateSessionInput) (*model.Session, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		title = DefaultSessionTitle
	}
	mode := strings.TrimSpace(input.Mode)
	if mode == "" {
		mode = model.ModeGeneral
	}
	if !model.ValidMode(mode) {
		return nil, ErrInvalidMode
	}

	now := time.Now().UTC()
	session := &model.Session{
		PublicID:  uuid.NewString(),
		Title:     title,
		Mode:      mode,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// ListSessions returns the most recently active sessions.
func (s *ChatService) ListSessions(ctx context.Context) ([]model.Session, error) {
	return s.sessions.List(ctx, SessionListLimit)
}

func (s *ChatService) GetSession(ctx context.Context, sessionID string) (*model.Session, error) {
	return findSession(ctx, s.sessions, sessionID)
}

// ListMessages returns the first MessageListLimit messages of a session,
// oldest first, served from the history cache when possible.
func (s *ChatService) ListMessages(ctx context.Context, sessionID string) ([]model.Message, error) {
	if _, err := findSession(ctx, s.sessions, sessionID); err != nil {
		return nil, err
	}

	if s.historyCache != nil {
		cached, hit, err := s.historyCache.GetHistory(ctx, sessionID)
		if err != nil {
			log.Warnw("read history cache failed", "session_id", sessionID, "error", err)
		} else if hit {
			return cached, nil
		}
	}

	messages, err := s.messages.ListBySessionID(ctx, sessionID, MessageListLimit)
	if err != nil {
		return nil, err
	}
	if s.historyCache != nil {
		if err := s.historyCache.SetHistory(ctx, sessionID, messages); err != nil {
			log.Warnw("write history cache failed", "session_id", sessionID, "error", err)
		}
	}
	return messages, nil
}

// Chat appends the user message, asks the gateway for a reply over the
// recent history and stores the reply. A gateway failure leaves the user
// message in place.
func (s *ChatService) Chat(ctx context.Context, input ChatInput) (string, error) {
	req, session, err := s.prepareTurn(ctx, input)
	if err != nil {
		return "", err
	}

	reply, err := s.gateway.Complete(ctx, req)
	if err != nil {
		log.Errorw("chat completion failed", "session_id", session.PublicID, "model", req.Model, "error", err)
		return "", fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	if err := s.appendMessage(ctx, session.PublicID, model.RoleAssistant, reply, datatypes.JSONMap{"model": req.Model}); err != nil {
		return "", err
	}
	return reply, nil
}

// StreamChat is Chat with the reply delivered increment by increment to
// onChunk. The assistant message is stored once the stream has finished. An
// onChunk error stops the stream and is returned as is.
func (s *ChatService) StreamChat(ctx context.Context, input ChatInput, onChunk func(string) error) (string, error) {
	req, session, err := s.prepareTurn(ctx, input)
	if err != nil {
		return "", err
	}

	stream, err := s.gateway.Stream(ctx, req)
	if err != nil {
		log.Errorw("chat stream failed", "session_id", session.PublicID, "model", req.Model, "error", err)
		return "", fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	defer stream.Close()

	var full strings.Builder
	for stream.Next() {
		text := stream.Text()
		full.WriteString(text)
		if err := onChunk(text); err != nil {
			return "", err
		}
	}
	if err := stream.Err(); err != nil {
		log.Errorw("chat stream interrupted", "session_id", session.PublicID, "error", err)
		return "", fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	reply := full.String()
	if err := s.appendMessage(ctx, session.PublicID, model.RoleAssistant, reply, datatypes.JSONMap{"model": req.Model, "streamed": true}); err != nil {
		return "", err
	}
	return reply, nil
}

func (s *ChatService) prepareTurn(ctx context.Context, input ChatInput) (ai.CompletionRequest, *model.Session, error) {
	session, err := findSession(ctx, s.sessions, input.SessionID)
	if err != nil {
		return ai.CompletionRequest{}, nil, err
	}
	content := strings.TrimSpace(input.Message)
	if content == "" {
		return ai.CompletionRequest{}, nil, ErrEmptyMessage
	}
	if err := input.Sampling.validate(); err != nil {
		return ai.CompletionRequest{}, nil, err
	}

	if err := s.appendMessage(ctx, session.PublicID, model.RoleUser, content, datatypes.JSONMap{}); err != nil {
		return ai.CompletionRequest{}, nil, err
	}
	history, err := s.messages.ListRecentBySessionID(ctx, session.PublicID, prompt.HistoryWindow)
	if err != nil {
		return ai.CompletionRequest{}, nil, err
	}

	var doc *model.Document
	if session.Mode == model.ModePDF {
		doc, err = s.documents.LatestBySessionID(ctx, session.PublicID)
		if err != nil {
			return ai.CompletionRequest{}, nil, err
		}
	}

	params := prompt.Defaults(prompt.OpChat).Override(input.Temperature, input.MaxTokens)
	return ai.CompletionRequest{
		Model:       s.resolveModel(input.Model),
		Messages:    prompt.ChatMessages(session.Mode, doc, history),
		Temperature: params.Temperature,
		MaxTokens:   params.MaxTokens,
	}, session, nil
}

func (s *ChatService) appendMessage(ctx context.Context, sessionID, role, content string, metadata datatypes.JSONMap) error {
	now := time.Now().UTC()
	message := &model.Message{
		PublicID:  uuid.NewString(),
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		Metadata:  metadata,
		CreatedAt: now,
	}
	if err := s.messages.Create(ctx, message); err != nil {
		return err
	}
	if s.historyCache != nil {
		if err := s.historyCache.Invalidate(ctx, sessionID); err != nil {
			log.Warnw("invalidate history cache failed", "session_id", sessionID, "error", err)
		}
	}
	return s.sessions.Update(ctx, sessionID, map[string]interface{}{"updated_at": now})
}

func (s *ChatService) resolveModel(requested string) string {
	if m := strings.TrimSpace(requested); m != "" {
		return m
	}
	return s.defaultModel
}

func findSession(ctx context.Context, sessions SessionStore, sessionID string) (*model.Session, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, ErrSessionNotFound
	}
	session, err := sessions.GetByPublicID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	return session, nil
}
