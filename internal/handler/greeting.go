package handler

import "net/http"

// Greeting handles GET /api/greeting, an unauthenticated liveness probe for
// the frontend.
func Greeting(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "service up"})
}
