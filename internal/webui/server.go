// Package webui exposes the twin over HTTP: a small JSON API plus an
// embedded single-page chat client.
package webui

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"sync"
	"time"

	"doppel/internal/chat"
	"doppel/internal/gateway"
	"doppel/internal/onboarding"
)

//go:embed static
var staticFiles embed.FS

// Server hosts the web chat surface. One chat session is shared behind a
// mutex; turns are strictly sequential.
type Server struct {
	gw      *gateway.Gateway
	session *gateway.Session
	mu      sync.Mutex
	port    int
}

func NewServer(gw *gateway.Gateway, port int) *Server {
	if port == 0 {
		port = 8080
	}
	return &Server{
		gw:   gw,
		port: port,
	}
}

// Start initializes the session and serves until ctx is canceled.
func (s *Server) Start(ctx context.Context) error {
	session, err := s.gw.InitService(ctx)
	if err != nil {
		return fmt.Errorf("failed to init session for webui: %w", err)
	}
	s.session = session

	mux := http.NewServeMux()
	mux.HandleFunc("/api/chat", s.handleChat)
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/events", s.handleEvents)
	mux.HandleFunc("/api/settings", s.handleSettings)

	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		return fmt.Errorf("failed to load static files: %w", err)
	}
	mux.Handle("/", http.FileServer(http.FS(staticFS)))

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: mux,
	}

	go func() {
		<-ctx.Done()
		log.Println("[WebUI] Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Printf("[WebUI] Serving chat for %s on http://localhost:%d", session.Persona.Name, s.port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("webui server error: %w", err)
	}
	return nil
}

type ChatRequest struct {
	Message string `json:"message"`
}

type ChatResponse struct {
	Reply string `json:"reply"`
	Error string `json:"error,omitempty"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	// One turn at a time against the shared session.
	s.mu.Lock()
	defer s.mu.Unlock()

	turnCtx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
	defer cancel()

	reply, err := s.session.Service.Send(turnCtx, req.Message)

	resp := ChatResponse{Reply: reply}
	if err != nil {
		var genErr *chat.GenerationError
		if errors.As(err, &genErr) {
			log.Printf("[WebUI] %v", genErr)
			resp.Reply = chat.Apology
			resp.Error = "generation failed"
		} else {
			resp.Error = err.Error()
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	status := map[string]interface{}{
		"status":   "online",
		"persona":  s.session.Persona.Name,
		"provider": string(s.session.Provider),
		"model":    s.session.Model,
		"events":   s.session.Journal.Len(),
		"time":     time.Now().Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(status)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.session.Journal.Entries())
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	configPath := s.gw.ConfigPath
	if configPath == "" {
		configPath = onboarding.DefaultPath
	}

	switch r.Method {
	case http.MethodGet:
		cfg, err := onboarding.LoadFromFile(configPath)
		if err != nil {
			// Return an empty config if it doesn't exist yet
			cfg = &onboarding.Config{}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(cfg)

	case http.MethodPost:
		var cfg onboarding.Config
		if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if err := cfg.SaveToFile(configPath); err != nil {
			http.Error(w, "Failed to save config", http.StatusInternalServerError)
			return
		}
		s.gw.LoadConfig()

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"success"}`))

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
