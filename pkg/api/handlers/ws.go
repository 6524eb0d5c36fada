package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"conversadb/pkg/logger"
	"conversadb/pkg/telemetry"
	"conversadb/pkg/utils"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin was already vetted by the security middleware's CORS check.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// RegisterWS registers the event stream endpoint.
func RegisterWS(r *mux.Router) {
	r.HandleFunc("/ws", serveWS).Methods(http.MethodGet)
}

// serveWS handles GET /ws?user=<id>, upgrading to a websocket that receives
// JSON events for every mutation visible to that user.
func serveWS(w http.ResponseWriter, r *http.Request) {
	if hub == nil {
		utils.JSONError(w, http.StatusNotImplemented, "event stream disabled")
		return
	}
	userID := r.URL.Query().Get("user")
	if userID == "" {
		userID = requester(r)
	}
	if userID == "" {
		utils.JSONError(w, http.StatusBadRequest, "user query parameter is required")
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("ws_upgrade_failed", "err", err.Error())
		return
	}
	hub.Register(userID, conn)
	telemetry.SetWSUsers(hub.ConnectedUsers())
}
