// Package prompt turns document chunks and conversation history into the
// message list sent to the completion gateway.
//
// Chunk selection is positional: every operation takes the first K chunks of
// the document, or all of them when there are fewer than K.
package prompt

import (
	"fmt"
	"strings"

	"docchat/internal/ai"
	"docchat/internal/model"
)

type Operation string

const (
	OpChat      Operation = "chat"
	OpQA        Operation = "qa"
	OpResearch  Operation = "research"
	OpTranslate Operation = "translate"
)

const (
	ChatChunkLimit      = 5
	QAChunkLimit        = 10
	ResearchChunkLimit  = 15
	TranslateChunkLimit = 10

	// HistoryWindow is how many trailing messages accompany a chat turn.
	HistoryWindow = 10

	DefaultQuestionCount = 5
)

const (
	assistantPersona = "You are BalochAI, a helpful and knowledgeable AI assistant. Provide clear, accurate, and helpful responses."
	documentChat     = "You are a helpful AI assistant. Answer questions based on this document context:\n\n%s"
	qaInstruction    = "Generate %d important questions and their answers from the following document. Format each as Q: question\nA: answer\n\n"
	analystPersona   = "You are a research analyst. Provide detailed analysis, key insights, and summaries based on the document."
	researchRequest  = "Document content:\n%s\n\nResearch query: %s"
	translateRequest = "Translate the following document to %s. Maintain the structure and meaning."
)

// Params are the sampling settings for one gateway call. MaxTokens of zero
// leaves the choice to the gateway client.
type Params struct {
	Temperature float64
	MaxTokens   int
}

// Defaults returns the sampling defaults of op.
func Defaults(op Operation) Params {
	switch op {
	case OpQA:
		return Params{Temperature: 0.7, MaxTokens: 3000}
	case OpResearch:
		return Params{Temperature: 0.5, MaxTokens: 3000}
	case OpTranslate:
		return Params{Temperature: 0.3, MaxTokens: 4000}
	default:
		return Params{Temperature: 0.7}
	}
}

// Override replaces the fields the caller set explicitly. A max_tokens of zero
// counts as unset and keeps the operation default.
func (p Params) Override(temperature *float64, maxTokens *int) Params {
	if temperature != nil {
		p.Temperature = *temperature
	}
	if maxTokens != nil && *maxTokens > 0 {
		p.MaxTokens = *maxTokens
	}
	return p
}

// ChunkLimit is K for op.
func ChunkLimit(op Operation) int {
	switch op {
	case OpChat:
		return ChatChunkLimit
	case OpQA:
		return QAChunkLimit
	case OpResearch:
		return ResearchChunkLimit
	case OpTranslate:
		return TranslateChunkLimit
	}
	return 0
}

// SelectChunks returns the first min(k, len(chunks)) chunks.
func SelectChunks(chunks []string, k int) []string {
	if k < 0 {
		k = 0
	}
	if len(chunks) < k {
		k = len(chunks)
	}
	return chunks[:k]
}

// Context joins the first k chunks with blank lines.
func Context(chunks []string, k int) string {
	return strings.Join(SelectChunks(chunks, k), "\n\n")
}

// ChatMessages builds a chat turn. history is the conversation so far, oldest
// first, and already contains the new user message; only its last
// HistoryWindow entries are sent. In general mode doc is ignored. In pdf mode
// a nil doc means no document was found and no system message is sent.
func ChatMessages(mode string, doc *model.Document, history []model.Message) []ai.ChatMessage {
	if len(history) > HistoryWindow {
		history = history[len(history)-HistoryWindow:]
	}
	out := make([]ai.ChatMessage, 0, len(history)+1)

	switch {
	case mode == model.ModePDF && doc != nil:
		out = append(out, ai.ChatMessage{
			Role:    model.RoleSystem,
			Content: fmt.Sprintf(documentChat, Context(doc.Chunks, ChunkLimit(OpChat))),
		})
	case mode != model.ModePDF:
		out = append(out, ai.ChatMessage{Role: model.RoleSystem, Content: assistantPersona})
	}

	for _, m := range history {
		out = append(out, ai.ChatMessage{Role: m.Role, Content: m.Content})
	}
	return out
}

// QAMessages asks for n question/answer pairs over the first ChunkLimit(OpQA)
// chunks.
func QAMessages(chunks []string, n int) []ai.ChatMessage {
	if n <= 0 {
		n = DefaultQuestionCount
	}
	return []ai.ChatMessage{
		{Role: model.RoleSystem, Content: fmt.Sprintf(qaInstruction, n)},
		{Role: model.RoleUser, Content: Context(chunks, ChunkLimit(OpQA))},
	}
}

func ResearchMessages(chunks []string, query string) []ai.ChatMessage {
	return []ai.ChatMessage{
		{Role: model.RoleSystem, Content: analystPersona},
		{Role: model.RoleUser, Content: fmt.Sprintf(researchRequest, Context(chunks, ChunkLimit(OpResearch)), query)},
	}
}

func TranslateMessages(chunks []string, language string) []ai.ChatMessage {
	return []ai.ChatMessage{
		{Role: model.RoleSystem, Content: fmt.Sprintf(translateRequest, language)},
		{Role: model.RoleUser, Content: Context(chunks, ChunkLimit(OpTranslate))},
	}
}
