package http

import (
	"net/http"

	"github.com/gorilla/mux"
)

// NewRouter mounts the websocket endpoint, the read-only API and the health check.
func NewRouter(ws *WSHandler, api *APIHandler) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	r.HandleFunc("/ws", ws.ServeWS).Methods(http.MethodGet)

	v := r.PathPrefix("/api").Subrouter()
	v.Use(corsMiddleware)
	v.HandleFunc("/rooms/{code}", api.GetRoom).Methods(http.MethodGet, http.MethodOptions)
	v.HandleFunc("/avatars", api.Avatars).Methods(http.MethodGet, http.MethodOptions)
	v.HandleFunc("/categories", api.Categories).Methods(http.MethodGet, http.MethodOptions)
	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
