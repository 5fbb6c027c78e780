package app

import (
	"context"
	"fmt"
	"strings"

	"docchat/internal/ai"
	"docchat/internal/model"
	"docchat/internal/pkg/log"
	"docchat/internal/prompt"
)

const maxQuestionCount = 50

// AnalysisService runs the one-shot document operations. Results are
// returned to the caller and not stored as messages.
type AnalysisService struct {
	sessions     SessionStore
	documents    DocumentStore
	gateway      Gateway
	defaultModel string
}

func NewAnalysisService(sessions SessionStore, documents DocumentStore, gateway Gateway, defaultModel string) *AnalysisService {
	if defaultModel == "" {
		defaultModel = ai.DefaultModel
	}
	return &AnalysisService{
		sessions:     sessions,
		documents:    documents,
		gateway:      gateway,
		defaultModel: defaultModel,
	}
}

type QAInput struct {
	SessionID    string
	NumQuestions int
	Sampling
}

type ResearchInput struct {
	SessionID string
	Query     string
	Sampling
}

type TranslateInput struct {
	SessionID      string
	TargetLanguage string
	Sampling
}

// GenerateQA asks for NumQuestions question/answer pairs; zero means
// prompt.DefaultQuestionCount.
func (s *AnalysisService) GenerateQA(ctx context.Context, input QAInput) (string, error) {
	session, err := findSession(ctx, s.sessions, input.SessionID)
	if err != nil {
		return "", err
	}
	n := input.NumQuestions
	if n == 0 {
		n = prompt.DefaultQuestionCount
	}
	if n < 0 || n > maxQuestionCount {
		return "", ErrQuestionCount
	}
	doc, err := s.loadDocument(ctx, session, input.Sampling)
	if err != nil {
		return "", err
	}
	return s.run(ctx, prompt.OpQA, input.SessionID, prompt.QAMessages(doc.Chunks, n), input.Sampling)
}

func (s *AnalysisService) Research(ctx context.Context, input ResearchInput) (string, error) {
	session, err := findSession(ctx, s.sessions, input.SessionID)
	if err != nil {
		return "", err
	}
	query := strings.TrimSpace(input.Query)
	if query == "" {
		return "", ErrEmptyQuery
	}
	doc, err := s.loadDocument(ctx, session, input.Sampling)
	if err != nil {
		return "", err
	}
	return s.run(ctx, prompt.OpResearch, input.SessionID, prompt.ResearchMessages(doc.Chunks, query), input.Sampling)
}

func (s *AnalysisService) Translate(ctx context.Context, input TranslateInput) (string, error) {
	session, err := findSession(ctx, s.sessions, input.SessionID)
	if err != nil {
		return "", err
	}
	language := strings.TrimSpace(input.TargetLanguage)
	if language == "" {
		return "", ErrEmptyLanguage
	}
	doc, err := s.loadDocument(ctx, session, input.Sampling)
	if err != nil {
		return "", err
	}
	return s.run(ctx, prompt.OpTranslate, input.SessionID, prompt.TranslateMessages(doc.Chunks, language), input.Sampling)
}

// loadDocument runs after the session lookup and payload checks, so an
// unknown session reports ErrSessionNotFound whatever else is wrong.
func (s *AnalysisService) loadDocument(ctx context.Context, session *model.Session, sampling Sampling) (*model.Document, error) {
	if err := sampling.validate(); err != nil {
		return nil, err
	}
	doc, err := s.documents.LatestBySessionID(ctx, session.PublicID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrNoDocument
	}
	return doc, nil
}

func (s *AnalysisService) run(ctx context.Context, op prompt.Operation, sessionID string, messages []ai.ChatMessage, sampling Sampling) (string, error) {
	params := prompt.Defaults(op).Override(sampling.Temperature, sampling.MaxTokens)
	modelID := strings.TrimSpace(sampling.Model)
	if modelID == "" {
		modelID = s.defaultModel
	}

	text, err := s.gateway.Complete(ctx, ai.CompletionRequest{
		Model:       modelID,
		Messages:    messages,
		Temperature: params.Temperature,
		MaxTokens:   params.MaxTokens,
	})
	if err != nil {
		log.Errorw("document operation failed", "operation", op, "session_id", sessionID, "model", modelID, "error", err)
		return "", fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	return text, nil
}
