package websocket

import (
	"encoding/json"
	"sync"

	"tempnote-be/internal/dto"
	"tempnote-be/internal/pkg/logger"
	"tempnote-be/internal/view"
)

const (
	FrameNotes    = "notes"
	FrameNote     = "note"
	FrameState    = "state"
	FrameToast    = "toast"
	FrameRedirect = "redirect"
)

type Frame struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Session is the presenter of one websocket view. It never blocks: frames
// that do not fit in the outbound queue are dropped.
type Session struct {
	mu     sync.Mutex
	send   chan []byte
	closed bool
	logger logger.ILogger
}

func NewSession(buffer int, log logger.ILogger) *Session {
	return &Session{
		send:   make(chan []byte, buffer),
		logger: log,
	}
}

func (s *Session) Outbound() <-chan []byte {
	return s.send
}

func (s *Session) emit(frameType string, data interface{}) {
	payload, err := json.Marshal(Frame{Type: frameType, Data: data})
	if err != nil {
		s.logger.Error("Session", "Failed to encode frame", map[string]interface{}{"type": frameType, "error": err})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.send <- payload:
	default:
		s.logger.Warn("Session", "Send buffer full, dropping frame", map[string]interface{}{"type": frameType})
	}
}

func (s *Session) Notify(toast view.Toast) {
	s.emit(FrameToast, toast)
}

func (s *Session) Navigate(path string) {
	s.emit(FrameRedirect, path)
}

func (s *Session) RenderNotes(notes []*dto.NoteResponse) {
	s.emit(FrameNotes, notes)
}

func (s *Session) RenderState(state view.DetailState) {
	s.emit(FrameState, state)
}

func (s *Session) RenderNote(note *dto.NoteResponse) {
	s.emit(FrameNote, note)
}

// Close ends the outbound stream. Later frames are discarded.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.send)
}
