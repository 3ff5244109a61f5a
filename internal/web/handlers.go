package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/chaz8081/turntable-remote/internal/rig"
)

// SetRequest is the body of the setter endpoints. Value is the raw text the
// user typed; validation happens in the controller.
type SetRequest struct {
	Value string `json:"value"`
}

// SetResponse reports the outcome of a setter call.
type SetResponse struct {
	Result string `json:"result"`
	Error  string `json:"error,omitempty"`
}

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	remote Remote
}

// NewHandlers creates handlers driving remote.
func NewHandlers(remote Remote) *Handlers {
	return &Handlers{remote: remote}
}

// HandleState returns the current snapshot as JSON.
func (h *Handlers) HandleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.remote.Snapshot())
}

// setter adapts one of the Remote setters to an endpoint.
func (h *Handlers) setter(set func(Remote, string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SetRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<10)).Decode(&req); err != nil {
			http.Error(w, "invalid JSON", http.StatusBadRequest)
			return
		}

		err := set(h.remote, req.Value)
		if errors.Is(err, rig.ErrStopped) {
			http.Error(w, "controller stopped", http.StatusServiceUnavailable)
			return
		}
		resp := SetResponse{Result: rig.ResultOf(err).String()}
		status := http.StatusOK
		if err != nil {
			resp.Error = err.Error()
			status = http.StatusUnprocessableEntity
			slog.Debug("[WEB] rejected", "path", r.URL.Path, "value", req.Value, "error", err)
		}
		writeJSON(w, status, resp)
	}
}

// HandleToggle flips the camera state.
func (h *Handlers) HandleToggle(w http.ResponseWriter, r *http.Request) {
	state, err := h.remote.ToggleCameraState()
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, map[string]rig.CameraState{"cameraState": state})
}

// HandleRescan restarts discovery. It answers 409 when a link is already
// being established or is up.
func (h *Handlers) HandleRescan(w http.ResponseWriter, r *http.Request) {
	if !h.remote.Rescan() {
		writeJSON(w, http.StatusConflict, map[string]bool{"started": false})
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]bool{"started": true})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("[WEB] encode response", "error", err)
	}
}
