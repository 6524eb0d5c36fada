// Package api assembles the HTTP surface: versioned chat routes plus the
// health endpoint.
package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"conversadb/pkg/api/handlers"
	"conversadb/pkg/chat"
	"conversadb/pkg/live"
)

// Handler builds the router for the chat API. hub may be nil, in which case
// the /v1/ws endpoint reports the stream as disabled.
func Handler(svc *chat.Service, hub *live.Hub) http.Handler {
	handlers.Init(svc, hub)

	r := mux.NewRouter()
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}).Methods(http.MethodGet)

	v1 := r.PathPrefix("/v1").Subrouter()
	handlers.RegisterUsers(v1)
	handlers.RegisterConversations(v1)
	handlers.RegisterMessages(v1)
	handlers.RegisterWS(v1)
	return r
}
