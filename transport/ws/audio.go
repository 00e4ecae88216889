package ws

import (
	"context"
	"errors"
	"net/http"

	"github.com/hupe1980/voiceagent/artifact"
)

// ClipSource returns retained turn audio. *voiceagent.VoiceAgent implements it.
type ClipSource interface {
	Clip(ctx context.Context, sessionID, turnID string) ([]byte, error)
}

// AudioHandler serves synthesized clips over plain HTTP:
//
//	GET <path>?session_id=...&turn_id=...
type AudioHandler struct {
	src      ClipSource
	mimeType string
}

// NewAudioHandler creates an AudioHandler. mimeType defaults to audio/mpeg.
func NewAudioHandler(src ClipSource, mimeType string) *AudioHandler {
	if mimeType == "" {
		mimeType = "audio/mpeg"
	}
	return &AudioHandler{src: src, mimeType: mimeType}
}

// ServeHTTP implements http.Handler.
func (h *AudioHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	sessionID, turnID := q.Get("session_id"), q.Get("turn_id")
	if sessionID == "" || turnID == "" {
		http.Error(w, "session_id and turn_id are required", http.StatusBadRequest)
		return
	}

	clip, err := h.src.Clip(r.Context(), sessionID, turnID)
	if errors.Is(err, artifact.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", h.mimeType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(clip)
}
