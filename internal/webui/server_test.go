package webui

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"doppel/internal/chat"
	"doppel/internal/gateway"
	"doppel/internal/journal"
	"doppel/internal/llm"
	"doppel/internal/persona"
)

type cannedAdapter struct {
	text string
	err  error
}

func (a *cannedAdapter) Reply(context.Context, []chat.Message, []chat.ToolSpec) (string, []chat.ToolCall, error) {
	return a.text, nil, a.err
}

func testServer(adapter chat.Adapter) *Server {
	return &Server{
		gw: gateway.New(""),
		session: &gateway.Session{
			Service:  chat.NewService(adapter, "persona"),
			Journal:  journal.New(),
			Persona:  &persona.Profile{Name: "Kay"},
			Provider: llm.ProviderOpenAI,
			Model:    "gpt-4o-mini",
		},
		port: 8080,
	}
}

func TestHandleChat(t *testing.T) {
	s := testServer(&cannedAdapter{text: "I have ten years of experience."})

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"message":"experience?"}`))
	rec := httptest.NewRecorder()
	s.handleChat(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	var resp ChatResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if resp.Reply != "I have ten years of experience." || resp.Error != "" {
		t.Fatalf("unexpected response %#v", resp)
	}
}

func TestHandleChatGenerationFailureDegradesToApology(t *testing.T) {
	s := testServer(&cannedAdapter{err: errors.New("backend down")})

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"message":"hi"}`))
	rec := httptest.NewRecorder()
	s.handleChat(rec, req)

	var resp ChatResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if resp.Reply != chat.Apology {
		t.Fatalf("expected apology reply, got %q", resp.Reply)
	}
	if resp.Error == "" {
		t.Fatal("expected error marker in response")
	}
}

func TestHandleChatRejectsGet(t *testing.T) {
	s := testServer(&cannedAdapter{text: "x"})
	rec := httptest.NewRecorder()
	s.handleChat(rec, httptest.NewRequest(http.MethodGet, "/api/chat", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("unexpected status %d", rec.Code)
	}
}

func TestHandleStatus(t *testing.T) {
	s := testServer(&cannedAdapter{text: "x"})
	rec := httptest.NewRecorder()
	s.handleStatus(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))

	var status map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&status); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if status["persona"] != "Kay" || status["model"] != "gpt-4o-mini" {
		t.Fatalf("unexpected status payload: %#v", status)
	}
}
