package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"docchat/internal/ai"
	"docchat/internal/app"
	"docchat/internal/pkg/pdfextract"
	"docchat/internal/pkg/textsplit"
	"docchat/internal/repository/memstore"
	"docchat/internal/transport/http/handler"
)

type stubGateway struct {
	mu        sync.Mutex
	reply     string
	err       error
	streamRaw string
	streams   int
}

func (g *stubGateway) Complete(context.Context, ai.CompletionRequest) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.reply, g.err
}

func (g *stubGateway) Stream(context.Context, ai.CompletionRequest) (*ai.Stream, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.streams++
	if g.err != nil {
		return nil, g.err
	}
	return ai.NewStream(io.NopCloser(strings.NewReader(g.streamRaw))), nil
}

type discardFiles struct{}

func (discardFiles) Save(_ context.Context, name string, _ []byte) (string, error) {
	return "uploads/" + name, nil
}

type fixedExtractor struct{ text string }

func (e fixedExtractor) Extract(context.Context, []byte) (pdfextract.Result, error) {
	return pdfextract.Result{Text: e.text, Pages: 2}, nil
}

type testServer struct {
	engine  *gin.Engine
	gateway *stubGateway
}

func newTestServer(t *testing.T, opts Options) *testServer {
	t.Helper()
	mem := memstore.New()
	gw := &stubGateway{reply: "Hello back"}
	svc := Services{
		Chat:      app.NewChatService(mem.Sessions(), mem.Messages(), mem.Documents(), gw, nil, "test-model"),
		Documents: app.NewDocumentService(mem.Sessions(), mem.Documents(), discardFiles{}, fixedExtractor{text: strings.Repeat("lorem ipsum ", 200)}, textsplit.Default(), nil),
		Analysis:  app.NewAnalysisService(mem.Sessions(), mem.Documents(), gw, "test-model"),
	}
	opts.GinMode = gin.TestMode
	if opts.ServiceName == "" {
		opts.ServiceName = "ChatPDF"
	}
	if opts.CORSOrigins == nil {
		opts.CORSOrigins = []string{"*"}
	}
	return &testServer{engine: NewEngine(svc, opts), gateway: gw}
}

func (s *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) createSession(t *testing.T) string {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/sessions", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("create session status = %d body=%s", rec.Code, rec.Body.String())
	}
	var session struct {
		ID    string `json:"id"`
		Title string `json:"title"`
		Mode  string `json:"mode"`
	}
	decode(t, rec, &session)
	if session.ID == "" || session.Title != "New Chat" || session.Mode != "general" {
		t.Fatalf("unexpected session %+v", session)
	}
	return session.ID
}

func (s *testServer) upload(t *testing.T, sessionID, filename string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file failed: %v", err)
	}
	_, _ = part.Write([]byte("%PDF-1.4 fake"))
	_ = w.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+sessionID+"/upload", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode body %q failed: %v", rec.Body.String(), err)
	}
}

func detailOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Detail string `json:"detail"`
	}
	decode(t, rec, &body)
	return body.Detail
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, Options{HealthChecks: map[string]handler.HealthCheck{
		"store": func(context.Context) error { return nil },
	}})
	rec := s.do(t, http.MethodGet, "/api/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]interface{}
	decode(t, rec, &body)
	if body["status"] != "healthy" || body["service"] != "ChatPDF" {
		t.Errorf("unexpected body %v", body)
	}

	degraded := newTestServer(t, Options{HealthChecks: map[string]handler.HealthCheck{
		"redis": func(context.Context) error { return errors.New("connection refused") },
	}})
	rec = degraded.do(t, http.MethodGet, "/api/health", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestModels(t *testing.T) {
	s := newTestServer(t, Options{})
	rec := s.do(t, http.MethodGet, "/api/models", "")
	var body struct {
		Models []ai.ModelInfo `json:"models"`
	}
	decode(t, rec, &body)
	if len(body.Models) != 5 || body.Models[0].ID != ai.DefaultModel {
		t.Errorf("unexpected models %+v", body.Models)
	}
}

func TestSessionsAndChat(t *testing.T) {
	s := newTestServer(t, Options{})
	id := s.createSession(t)

	rec := s.do(t, http.MethodGet, "/api/sessions", "")
	var list struct {
		Sessions []map[string]interface{} `json:"sessions"`
	}
	decode(t, rec, &list)
	if len(list.Sessions) != 1 || list.Sessions[0]["id"] != id {
		t.Errorf("unexpected sessions %+v", list.Sessions)
	}

	rec = s.do(t, http.MethodGet, "/api/sessions/missing", "")
	if rec.Code != http.StatusNotFound || detailOf(t, rec) != "Session not found" {
		t.Errorf("missing session: status=%d body=%s", rec.Code, rec.Body.String())
	}

	rec = s.do(t, http.MethodPost, "/api/sessions/"+id+"/chat", `{"message":"Hello"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("chat status = %d body=%s", rec.Code, rec.Body.String())
	}
	var chat struct {
		Response string `json:"response"`
	}
	decode(t, rec, &chat)
	if chat.Response != "Hello back" {
		t.Errorf("response = %q", chat.Response)
	}

	rec = s.do(t, http.MethodGet, "/api/sessions/"+id+"/messages", "")
	var history struct {
		Messages []struct {
			Role      string `json:"role"`
			Content   string `json:"content"`
			Timestamp string `json:"timestamp"`
		} `json:"messages"`
	}
	decode(t, rec, &history)
	if len(history.Messages) != 2 || history.Messages[0].Role != "user" || history.Messages[1].Content != "Hello back" {
		t.Errorf("unexpected history %+v", history.Messages)
	}
	if history.Messages[0].Timestamp == "" {
		t.Errorf("message timestamp missing")
	}
}

func TestChatErrors(t *testing.T) {
	s := newTestServer(t, Options{})
	id := s.createSession(t)

	cases := []struct {
		name   string
		path   string
		body   string
		status int
	}{
		{"malformed body", "/api/sessions/" + id + "/chat", `{"message":`, http.StatusBadRequest},
		{"empty message", "/api/sessions/" + id + "/chat", `{"message":"   "}`, http.StatusBadRequest},
		{"bad temperature", "/api/sessions/" + id + "/chat", `{"message":"hi","temperature":3}`, http.StatusBadRequest},
		{"unknown session", "/api/sessions/nope/chat", `{"message":"hi"}`, http.StatusNotFound},
		{"unknown session with empty message", "/api/sessions/nope/chat", `{"message":""}`, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, tc.path, tc.body)
			if rec.Code != tc.status {
				t.Errorf("status = %d, want %d (body=%s)", rec.Code, tc.status, rec.Body.String())
			}
			if detailOf(t, rec) == "" {
				t.Errorf("expected a detail message")
			}
		})
	}

	s.gateway.err = &ai.GatewayError{StatusCode: http.StatusUnauthorized, Message: "No auth credentials found"}
	rec := s.do(t, http.MethodPost, "/api/sessions/"+id+"/chat", `{"message":"hi"}`)
	if rec.Code != http.StatusInternalServerError || !strings.Contains(detailOf(t, rec), "No auth credentials found") {
		t.Errorf("upstream failure: status=%d body=%s", rec.Code, rec.Body.String())
	}
}

func TestUploadAndDocumentOperations(t *testing.T) {
	s := newTestServer(t, Options{MaxUpload: 1 << 20})
	id := s.createSession(t)

	rec := s.do(t, http.MethodPost, "/api/sessions/"+id+"/generate-qa", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("generate-qa without document: status = %d", rec.Code)
	}

	rec = s.upload(t, id, "notes.txt")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("non-pdf upload: status = %d", rec.Code)
	}

	rec = s.upload(t, id, "paper.PDF")
	if rec.Code != http.StatusOK {
		t.Fatalf("upload status = %d body=%s", rec.Code, rec.Body.String())
	}
	var uploaded struct {
		Message  string              `json:"message"`
		Document app.DocumentSummary `json:"document"`
	}
	decode(t, rec, &uploaded)
	if uploaded.Message != "PDF uploaded successfully" || uploaded.Document.Pages != 2 || uploaded.Document.Chunks < 2 {
		t.Errorf("unexpected upload response %+v", uploaded)
	}

	rec = s.do(t, http.MethodGet, "/api/sessions/"+id, "")
	var session struct {
		Mode string `json:"mode"`
	}
	decode(t, rec, &session)
	if session.Mode != "pdf" {
		t.Errorf("mode = %q, want pdf", session.Mode)
	}

	s.gateway.reply = "Q: one\nA: two"
	rec = s.do(t, http.MethodPost, "/api/sessions/"+id+"/generate-qa", `{"num_questions":3}`)
	var qa struct {
		Content string `json:"qa_content"`
	}
	decode(t, rec, &qa)
	if rec.Code != http.StatusOK || qa.Content != "Q: one\nA: two" {
		t.Errorf("generate-qa: status=%d body=%s", rec.Code, rec.Body.String())
	}

	s.gateway.reply = "findings"
	rec = s.do(t, http.MethodPost, "/api/research", `{"session_id":"`+id+`","query":"methods"}`)
	var research struct {
		Analysis string `json:"analysis"`
	}
	decode(t, rec, &research)
	if research.Analysis != "findings" {
		t.Errorf("research: status=%d body=%s", rec.Code, rec.Body.String())
	}

	s.gateway.reply = "bonjour"
	rec = s.do(t, http.MethodPost, "/api/translate", `{"session_id":"`+id+`","target_language":"French"}`)
	var translated struct {
		Translation string `json:"translation"`
	}
	decode(t, rec, &translated)
	if translated.Translation != "bonjour" {
		t.Errorf("translate: status=%d body=%s", rec.Code, rec.Body.String())
	}

	rec = s.do(t, http.MethodPost, "/api/translate", `{"target_language":"French"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("translate without session_id: status = %d", rec.Code)
	}
	rec = s.do(t, http.MethodPost, "/api/research", `{"session_id":"nope","query":"x"}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("research unknown session: status = %d", rec.Code)
	}
	rec = s.do(t, http.MethodPost, "/api/research", `{"session_id":"nope","query":""}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("research unknown session with empty query: status = %d", rec.Code)
	}
}

func TestUploadTooLarge(t *testing.T) {
	s := newTestServer(t, Options{MaxUpload: 64})
	id := s.createSession(t)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, _ := w.CreateFormFile("file", "big.pdf")
	_, _ = part.Write(bytes.Repeat([]byte("x"), 4096))
	_ = w.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+id+"/upload", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)
	if rec.Code != http.StatusRequestEntityTooLarge && rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want a rejection", rec.Code)
	}
}

const streamBody = "data: {\"choices\":[{\"delta\":{\"content\":\"a\"}}]}\n\n" +
	"data: {\"choices\":[{\"delta\":{\"content\":\"b\"}}]}\n\n" +
	"data: [DONE]\n\n"

func TestChatStream(t *testing.T) {
	s := newTestServer(t, Options{})
	s.gateway.streamRaw = streamBody
	id := s.createSession(t)

	rec := s.do(t, http.MethodPost, "/api/sessions/"+id+"/chat/stream", `{"message":"hi"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("content type = %q", ct)
	}
	body := rec.Body.String()
	for _, want := range []string{`data: {"content":"a"}`, `data: {"content":"b"}`, "event: done", `{"response":"ab"}`} {
		if !strings.Contains(body, want) {
			t.Errorf("stream body missing %q:\n%s", want, body)
		}
	}

	rec = s.do(t, http.MethodPost, "/api/sessions/nope/chat/stream", `{"message":"hi"}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown session: status = %d", rec.Code)
	}
}

func TestChatWebsocket(t *testing.T) {
	s := newTestServer(t, Options{})
	s.gateway.streamRaw = streamBody
	id := s.createSession(t)

	srv := httptest.NewServer(s.engine)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/sessions/" + id + "/chat/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	if err := conn.WriteJSON(map[string]string{"message": "hi"}); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	type frame struct {
		Type    string `json:"type"`
		Content string `json:"content"`
		Detail  string `json:"detail"`
	}
	var chunks []string
	for {
		var f frame
		if err := conn.ReadJSON(&f); err != nil {
			t.Fatalf("read failed: %v", err)
		}
		if f.Type == "chunk" {
			chunks = append(chunks, f.Content)
			continue
		}
		if f.Type != "done" || f.Content != "ab" {
			t.Errorf("unexpected final frame %+v", f)
		}
		break
	}
	if strings.Join(chunks, ",") != "a,b" {
		t.Errorf("chunks = %v", chunks)
	}

	if err := conn.WriteJSON(map[string]string{"message": ""}); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	var f frame
	if err := conn.ReadJSON(&f); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if f.Type != "error" || f.Detail == "" {
		t.Errorf("expected an error frame, got %+v", f)
	}
}

func TestChatWebsocketRateLimitsEachTurn(t *testing.T) {
	// One token pays for the upgrade and one for the first turn.
	s := newTestServer(t, Options{RatePerSecond: 0.001, RateBurst: 2})
	s.gateway.streamRaw = streamBody
	id := s.createSession(t)

	srv := httptest.NewServer(s.engine)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/sessions/" + id + "/chat/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	type frame struct {
		Type   string `json:"type"`
		Detail string `json:"detail"`
	}
	finalFrame := func(message string) frame {
		if err := conn.WriteJSON(map[string]string{"message": message}); err != nil {
			t.Fatalf("write failed: %v", err)
		}
		for {
			var f frame
			if err := conn.ReadJSON(&f); err != nil {
				t.Fatalf("read failed: %v", err)
			}
			if f.Type != "chunk" {
				return f
			}
		}
	}

	if f := finalFrame("one"); f.Type != "done" {
		t.Fatalf("first turn: %+v", f)
	}
	if f := finalFrame("two"); f.Type != "error" || f.Detail != "rate limit exceeded" {
		t.Errorf("second turn: %+v", f)
	}
	s.gateway.mu.Lock()
	defer s.gateway.mu.Unlock()
	if s.gateway.streams != 1 {
		t.Errorf("gateway streamed %d times", s.gateway.streams)
	}
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, Options{RatePerSecond: 0.001, RateBurst: 1})
	id := s.createSession(t)

	first := s.do(t, http.MethodPost, "/api/sessions/"+id+"/chat", `{"message":"one"}`)
	second := s.do(t, http.MethodPost, "/api/sessions/"+id+"/chat", `{"message":"two"}`)
	if first.Code != http.StatusOK || second.Code != http.StatusTooManyRequests {
		t.Errorf("statuses = %d, %d", first.Code, second.Code)
	}

	// Non-gateway routes are not limited.
	if rec := s.do(t, http.MethodGet, "/api/sessions", ""); rec.Code != http.StatusOK {
		t.Errorf("list sessions status = %d", rec.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t, Options{CORSOrigins: []string{"http://localhost:3000"}})
	req := httptest.NewRequest(http.MethodOptions, "/api/sessions", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("allow origin = %q", got)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, Options{})
	s.do(t, http.MethodGet, "/api/models", "")
	rec := s.do(t, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "http_requests_total") {
		t.Errorf("metrics status=%d", rec.Code)
	}
}
