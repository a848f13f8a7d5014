package handlers

import "net/http"

// Health is the liveness probe.
// GET /healthz
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
