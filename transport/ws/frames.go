package ws

import "github.com/hupe1980/voiceagent/core"

// Frame types.
const (
	TypeTurn     = "turn"
	TypeFeedback = "feedback"
	TypePing     = "ping"
	TypeResponse = "response"
	TypeAck      = "ack"
	TypePong     = "pong"
	TypeError    = "error"
)

// Inbound is a client frame.
type Inbound struct {
	Type      string `json:"type"`
	ID        string `json:"id,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	Utterance string `json:"utterance,omitempty"`
	// Audio is base64 in JSON.
	Audio    []byte         `json:"audio,omitempty"`
	MimeType string         `json:"mime_type,omitempty"`
	Feedback *core.Feedback `json:"feedback,omitempty"`
}

// Outbound is a server frame.
type Outbound struct {
	Type       string   `json:"type"`
	ID         string   `json:"id,omitempty"`
	TurnID     string   `json:"turn_id,omitempty"`
	SessionID  string   `json:"session_id,omitempty"`
	Utterance  string   `json:"utterance,omitempty"`
	Text       string   `json:"text,omitempty"`
	Audio      []byte   `json:"audio,omitempty"`
	Status     string   `json:"status,omitempty"`
	Degraded   bool     `json:"degraded,omitempty"`
	Warnings   []string `json:"warnings,omitempty"`
	Error      string   `json:"error,omitempty"`
	ErrorKind  string   `json:"error_kind,omitempty"`
	TokensUsed int      `json:"tokens_used,omitempty"`
}

func responseFrame(id string, s *core.TurnState) Outbound {
	out := Outbound{
		Type:       TypeResponse,
		ID:         id,
		TurnID:     s.ID,
		SessionID:  s.SessionID,
		Utterance:  s.Utterance,
		Text:       s.Response,
		Audio:      s.Audio,
		Status:     s.Status.String(),
		Degraded:   s.Degraded,
		TokensUsed: s.TokensUsed,
	}
	for _, w := range s.Warnings {
		out.Warnings = append(out.Warnings, w.Error())
	}
	if s.Err != nil {
		out.Error = s.Err.Message
		out.ErrorKind = s.Err.Kind.String()
	}
	return out
}

func errorFrame(id, msg string) Outbound {
	return Outbound{Type: TypeError, ID: id, Error: msg}
}
