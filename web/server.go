package web

import (
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/JasonLovesDoggo/Flow/capture"
	"github.com/JasonLovesDoggo/Flow/hotkey"
	"github.com/JasonLovesDoggo/Flow/storage"
)

//go:embed static/*
var staticFiles embed.FS

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// StatusFunc reports the current capture status for /api/status.
type StatusFunc func() capture.Status

// Server exposes the diagnostics dashboard and live event stream.
type Server struct {
	db     *storage.DB
	status StatusFunc
	port   int
	hub    *Hub
}

// NewServer creates a new web server
func NewServer(db *storage.DB, status StatusFunc, port int) *Server {
	hub := NewHub()
	go hub.Run()

	return &Server{
		db:     db,
		status: status,
		port:   port,
		hub:    hub,
	}
}

// Start starts the web server
func (s *Server) Start() error {
	mux := http.NewServeMux()

	// API endpoints
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/activations", s.handleActivations)
	mux.HandleFunc("/api/diagnostics", s.handleDiagnostics)
	mux.HandleFunc("/api/stats", s.handleStats)
	mux.HandleFunc("/ws", s.handleWebSocket)

	// Static files
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		return fmt.Errorf("failed to load static files: %w", err)
	}
	mux.Handle("/", http.FileServer(http.FS(staticFS)))

	addr := fmt.Sprintf(":%d", s.port)
	slog.Info("Starting web server", "port", s.port, "url", fmt.Sprintf("http://localhost:%d", s.port))

	return http.ListenAndServe(addr, mux)
}

// BroadcastTrigger broadcasts an emitted trigger to all connected clients
func (s *Server) BroadcastTrigger(t hotkey.Trigger, hotkeyLabel string) {
	s.hub.BroadcastMessage(Message{
		Type: MessageTypeTrigger,
		Data: TriggerMessage{Trigger: t.String(), Hotkey: hotkeyLabel},
	})
}

// BroadcastDiagnostic broadcasts a capture health event to all connected clients
func (s *Server) BroadcastDiagnostic(d capture.Diagnostic) {
	s.hub.BroadcastMessage(Message{
		Type: MessageTypeDiagnostic,
		Data: DiagnosticMessage{
			Kind:      string(d.Kind),
			Outcome:   d.Outcome,
			Detail:    d.Detail,
			Timestamp: d.Time.Format("2006-01-02T15:04:05Z"),
		},
	})
}

// handleWebSocket handles WebSocket connections
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Failed to upgrade WebSocket connection", "error", err)
		return
	}

	client := &Client{
		hub:  s.hub,
		conn: conn,
		send: make(chan []byte, 256),
	}

	client.hub.register <- client

	// Start client goroutines
	go client.writePump()
	go client.readPump()
}
