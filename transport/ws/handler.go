package ws

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	voiceagent "github.com/hupe1980/voiceagent"
	"github.com/hupe1980/voiceagent/core"
	"github.com/hupe1980/voiceagent/logging"
	"github.com/hupe1980/voiceagent/memory"
)

// Processor runs turns and applies feedback. *voiceagent.VoiceAgent
// implements it.
type Processor interface {
	ProcessTurn(ctx context.Context, req voiceagent.TurnRequest) (*core.TurnState, error)
	SubmitFeedback(ctx context.Context, tenantID, agentID string, fb core.Feedback) (memory.Outcome, error)
}

var _ Processor = (*voiceagent.VoiceAgent)(nil)

// Options configures a Handler.
type Options struct {
	TenantID string
	AgentID  string
	// Persona is used for every turn on this handler. Required.
	Persona *core.AgentConfig
	// Transcriber turns audio frames into utterances. Optional.
	Transcriber core.Transcriber
	// AllowedOrigins restricts browser origins; empty allows any origin.
	AllowedOrigins []string
	// ReadLimit bounds inbound frame size in bytes.
	ReadLimit int64
	// WriteTimeout bounds each outbound frame.
	WriteTimeout time.Duration
	Logger       logging.Logger
}

// Handler upgrades HTTP requests to websocket sessions.
type Handler struct {
	proc     Processor
	opts     Options
	upgrader websocket.Upgrader
	logger   logging.Logger

	mu     sync.Mutex
	conns  map[*websocket.Conn]struct{}
	wg     sync.WaitGroup
	closed bool
}

// NewHandler creates a Handler serving proc.
func NewHandler(proc Processor, optFns ...func(o *Options)) *Handler {
	opts := Options{
		TenantID:     "default",
		AgentID:      "assistant",
		ReadLimit:    4 << 20,
		WriteTimeout: 10 * time.Second,
		Logger:       logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	h := &Handler{
		proc:   proc,
		opts:   opts,
		logger: logging.OrNoOp(opts.Logger),
		conns:  make(map[*websocket.Conn]struct{}),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	if len(h.opts.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	for _, o := range h.opts.AllowedOrigins {
		if strings.EqualFold(o, origin) {
			return true
		}
	}
	return false
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws.upgrade_failed", "error", err.Error())
		return
	}
	if !h.track(conn) {
		_ = conn.Close()
		return
	}
	defer h.untrack(conn)

	h.serve(r.Context(), conn, r.URL.Query().Get("session_id"))
}

func (h *Handler) serve(ctx context.Context, conn *websocket.Conn, sessionID string) {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	conn.SetReadLimit(h.opts.ReadLimit)
	h.logger.Info("ws.connected", "session_id", sessionID)
	defer h.logger.Info("ws.disconnected", "session_id", sessionID)

	for {
		var in Inbound
		if err := conn.ReadJSON(&in); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) && !errors.Is(err, net.ErrClosed) {
				h.logger.Debug("ws.read_failed", "session_id", sessionID, "error", err.Error())
			}
			return
		}
		if in.SessionID == "" {
			in.SessionID = sessionID
		}

		out := h.handle(ctx, in)
		_ = conn.SetWriteDeadline(time.Now().Add(h.opts.WriteTimeout))
		if err := conn.WriteJSON(out); err != nil {
			h.logger.Warn("ws.write_failed", "session_id", sessionID, "error", err.Error())
			return
		}
	}
}

func (h *Handler) handle(ctx context.Context, in Inbound) Outbound {
	switch in.Type {
	case TypePing:
		return Outbound{Type: TypePong, ID: in.ID}
	case TypeTurn:
		return h.turn(ctx, in)
	case TypeFeedback:
		return h.feedback(ctx, in)
	default:
		return errorFrame(in.ID, "unknown frame type "+in.Type)
	}
}

func (h *Handler) turn(ctx context.Context, in Inbound) Outbound {
	utterance := in.Utterance
	if strings.TrimSpace(utterance) == "" && len(in.Audio) > 0 {
		if h.opts.Transcriber == nil {
			return errorFrame(in.ID, "audio frames are not supported")
		}
		text, err := h.opts.Transcriber.Transcribe(ctx, in.Audio, in.MimeType)
		if err != nil {
			h.logger.Warn("ws.transcription_failed", "session_id", in.SessionID, "error", err.Error())
			return errorFrame(in.ID, "transcription failed")
		}
		utterance = text
	}

	req := voiceagent.TurnRequest{
		TenantID:  h.opts.TenantID,
		AgentID:   h.opts.AgentID,
		SessionID: in.SessionID,
		Config:    h.opts.Persona,
		Utterance: utterance,
		Feedback:  in.Feedback,
	}
	s, _ := h.proc.ProcessTurn(ctx, req)
	return responseFrame(in.ID, s)
}

func (h *Handler) feedback(ctx context.Context, in Inbound) Outbound {
	if in.Feedback == nil {
		return errorFrame(in.ID, "feedback frame without feedback")
	}
	fb := *in.Feedback
	if fb.SessionID == "" {
		fb.SessionID = in.SessionID
	}
	if _, err := h.proc.SubmitFeedback(ctx, h.opts.TenantID, h.opts.AgentID, fb); err != nil {
		// Partial application still updates the session; report it as a warning.
		return Outbound{Type: TypeAck, ID: in.ID, SessionID: fb.SessionID, Warnings: []string{err.Error()}}
	}
	return Outbound{Type: TypeAck, ID: in.ID, SessionID: fb.SessionID}
}

func (h *Handler) track(conn *websocket.Conn) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.conns[conn] = struct{}{}
	h.wg.Add(1)
	return true
}

func (h *Handler) untrack(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.conns, conn)
	h.mu.Unlock()
	_ = conn.Close()
	h.wg.Done()
}

// Close closes every open connection and waits for their sessions to end.
// The handler rejects new connections afterwards.
func (h *Handler) Close() error {
	h.mu.Lock()
	h.closed = true
	for conn := range h.conns {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(time.Second))
		_ = conn.Close()
	}
	h.mu.Unlock()
	h.wg.Wait()
	return nil
}
