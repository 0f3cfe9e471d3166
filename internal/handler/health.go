package handler

import "net/http"

// HandleRoot is the liveness probe.
//
// HTTP: GET /
func HandleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "Backend is running"})
}
