// Package diagnostics exposes the reader's exported state mirror over
// HTTP for external pollers: a net/http ServeMux with one handler per
// endpoint and a small writeJSON/writeError pair.
package diagnostics

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/char5742/inputreader/internal/logger"
	"github.com/char5742/inputreader/internal/reader"
)

// Source is the subset of *reader.Reader diagnostics reads from,
// kept as an interface so tests can serve a fake snapshot.
type Source interface {
	GetCurrentVirtualKey() (keyCode, scanCode int32)
	GetCurrentInputConfiguration() reader.InputConfiguration
	GetCurrentKeyCodeState(deviceID int32, keyCode int32) int32
	GetCurrentScanCodeState(deviceID int32, scanCode int32) int32
}

// Server is a small read-only HTTP front end onto a Reader's exported
// state, used for troubleshooting a running daemon without attaching a
// debugger.
type Server struct {
	src    Source
	log    *logger.Logger
	server *http.Server
	port   int
}

// New builds a Server bound to port, not yet listening.
func New(src Source, port int) *Server {
	s := &Server{src: src, log: logger.New("diagnostics"), port: port}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /state/virtual-key", s.handleVirtualKey)
	mux.HandleFunc("GET /state/input-configuration", s.handleConfiguration)
	mux.HandleFunc("GET /state/key", s.handleKeyState)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	s.server = &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	return s
}

// ListenAndServe blocks serving HTTP until the server is shut down.
func (s *Server) ListenAndServe() error {
	s.log.Infof("diagnostics server listening on :%d", s.port)
	err := s.server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleVirtualKey(w http.ResponseWriter, r *http.Request) {
	keyCode, scanCode := s.src.GetCurrentVirtualKey()
	writeJSON(w, http.StatusOK, map[string]int32{
		"key_code":  keyCode,
		"scan_code": scanCode,
	})
}

func (s *Server) handleConfiguration(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.src.GetCurrentInputConfiguration())
}

func (s *Server) handleKeyState(w http.ResponseWriter, r *http.Request) {
	var q struct {
		DeviceID int32 `json:"device_id"`
		KeyCode  int32 `json:"key_code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		writeError(w, http.StatusBadRequest, "could not parse request")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int32{
		"state": s.src.GetCurrentKeyCodeState(q.DeviceID, q.KeyCode),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
