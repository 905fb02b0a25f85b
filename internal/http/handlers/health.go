package handlers

import "net/http"

// Health answers liveness checks.
func Health(w http.ResponseWriter, _ *http.Request) {
	writeStatus(w, "activo")
}
