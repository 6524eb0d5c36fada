package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"conversadb/pkg/telemetry"
	"conversadb/pkg/utils"
)

// RegisterMessages registers message-scoped routes. Listing and search live
// under /conversations since messages are always read in that scope.
func RegisterMessages(r *mux.Router) {
	r.HandleFunc("/messages", sendMessage).Methods(http.MethodPost)
	r.HandleFunc("/messages/{id}", deleteMessage).Methods(http.MethodDelete)
	r.HandleFunc("/messages/{id}/reactions", toggleReaction).Methods(http.MethodPost)
	r.HandleFunc("/messages/{id}/receipt", messageReceipt).Methods(http.MethodGet)
}

// sendMessage handles POST /messages. The sender must be a participant;
// reply_to_message_id, when set, must name a message in the same
// conversation.
func sendMessage(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ConversationID   string `json:"conversation_id"`
		SenderID         string `json:"sender_id"`
		Body             string `json:"body"`
		ReplyToMessageID string `json:"reply_to_message_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	id, err := svc.SendMessage(body.ConversationID, body.SenderID, body.Body, body.ReplyToMessageID)
	telemetry.CountOp("message_send", err)
	if err != nil {
		writeErr(w, err)
		return
	}
	utils.JSONWrite(w, http.StatusCreated, map[string]string{"message_id": id})
}

// deleteMessage handles DELETE /messages/{id}. Only the sender may delete;
// the acting user comes from X-User-ID. The record is kept as a tombstone
// so reply quotes and ordering survive.
func deleteMessage(w http.ResponseWriter, r *http.Request) {
	err := svc.SoftDelete(mux.Vars(r)["id"], requester(r))
	telemetry.CountOp("message_delete", err)
	if err != nil {
		writeErr(w, err)
		return
	}
	utils.JSONWrite(w, http.StatusOK, map[string]string{"status": "ok"})
}

// toggleReaction handles POST /messages/{id}/reactions with body
// {"user_id": "...", "emoji": "..."}. A second identical call removes the
// reaction.
func toggleReaction(w http.ResponseWriter, r *http.Request) {
	var body struct {
		UserID string `json:"user_id"`
		Emoji  string `json:"emoji"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	err := svc.ToggleReaction(mux.Vars(r)["id"], body.UserID, body.Emoji)
	telemetry.CountOp("message_reaction", err)
	if err != nil {
		writeErr(w, err)
		return
	}
	utils.JSONWrite(w, http.StatusOK, map[string]string{"status": "ok"})
}

// messageReceipt handles GET /messages/{id}/receipt and reports whether any
// participant other than the sender has read past the message.
func messageReceipt(w http.ResponseWriter, r *http.Request) {
	read, err := svc.IsReadBy(mux.Vars(r)["id"])
	if err != nil {
		writeErr(w, err)
		return
	}
	utils.JSONWrite(w, http.StatusOK, map[string]bool{"read": read})
}
