package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"conversadb/pkg/chat"
	"conversadb/pkg/telemetry"
	"conversadb/pkg/utils"
)

// RegisterConversations registers conversation routes, including the
// conversation-scoped message, read and typing endpoints.
func RegisterConversations(r *mux.Router) {
	r.HandleFunc("/conversations/direct", createDirect).Methods(http.MethodPost)
	r.HandleFunc("/conversations/group", createGroup).Methods(http.MethodPost)
	r.HandleFunc("/conversations", listConversations).Methods(http.MethodGet)
	r.HandleFunc("/conversations/{id}", getConversation).Methods(http.MethodGet)
	r.HandleFunc("/conversations/{id}/pin", setPinned).Methods(http.MethodPut)
	r.HandleFunc("/conversations/{id}/messages", listConversationMessages).Methods(http.MethodGet)
	r.HandleFunc("/conversations/{id}/messages/search", searchConversationMessages).Methods(http.MethodGet)
	r.HandleFunc("/conversations/{id}/read", markRead).Methods(http.MethodPost)
	r.HandleFunc("/conversations/{id}/typing", setTyping).Methods(http.MethodPost)
	r.HandleFunc("/conversations/{id}/typing", listTyping).Methods(http.MethodGet)
}

// createDirect handles POST /conversations/direct. The existing direct
// conversation between the pair is returned when one exists; "created"
// reports whether a new one was made.
func createDirect(w http.ResponseWriter, r *http.Request) {
	var body struct {
		UserA string `json:"user_a"`
		UserB string `json:"user_b"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	id, created, err := svc.FindOrCreateDirect(body.UserA, body.UserB)
	telemetry.CountOp("conversation_direct", err)
	if err != nil {
		writeErr(w, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	utils.JSONWrite(w, status, map[string]any{"conversation_id": id, "created": created})
}

// createGroup handles POST /conversations/group. The creator is always a
// participant; a group needs at least three distinct members.
func createGroup(w http.ResponseWriter, r *http.Request) {
	var body struct {
		CreatorID string   `json:"creator_id"`
		MemberIDs []string `json:"member_ids"`
		Name      string   `json:"name"`
		ImageURL  string   `json:"image_url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	id, err := svc.CreateGroup(body.CreatorID, body.MemberIDs, body.Name, body.ImageURL)
	telemetry.CountOp("conversation_group", err)
	if err != nil {
		writeErr(w, err)
		return
	}
	utils.JSONWrite(w, http.StatusCreated, map[string]string{"conversation_id": id})
}

// listConversations handles GET /conversations?user=<id>, newest activity
// first with unread counts for that user.
func listConversations(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user")
	if userID == "" {
		userID = requester(r)
	}
	if userID == "" {
		utils.JSONError(w, http.StatusBadRequest, "user query parameter is required")
		return
	}
	convs, err := svc.ListConversations(userID)
	if err != nil {
		writeErr(w, err)
		return
	}
	utils.JSONWrite(w, http.StatusOK, map[string]any{"conversations": convs})
}

func getConversation(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	c, err := svc.GetConversation(id)
	if err != nil {
		writeErr(w, err)
		return
	}
	// viewer-specific unread count when the caller identifies itself
	if viewer := r.URL.Query().Get("user"); viewer != "" {
		if n, err := svc.UnreadCountFor(id, viewer); err == nil {
			c.UnreadCount = n
		}
	}
	utils.JSONWrite(w, http.StatusOK, c)
}

// setPinned handles PUT /conversations/{id}/pin with body
// {"message_id": "..."}. An empty message_id clears the pin. The acting
// participant comes from X-User-ID.
func setPinned(w http.ResponseWriter, r *http.Request) {
	var body struct {
		MessageID string `json:"message_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	err := svc.SetPinned(mux.Vars(r)["id"], body.MessageID, requester(r))
	telemetry.CountOp("conversation_pin", err)
	if err != nil {
		writeErr(w, err)
		return
	}
	utils.JSONWrite(w, http.StatusOK, map[string]string{"status": "ok"})
}

// listConversationMessages handles GET /conversations/{id}/messages with an
// optional limit keeping the most recent messages. Order is oldest first.
func listConversationMessages(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if limStr := r.URL.Query().Get("limit"); limStr != "" {
		if n, err := strconv.Atoi(limStr); err == nil && n > 0 {
			limit = n
		}
	}
	msgs, err := svc.ListMessages(mux.Vars(r)["id"], limit)
	if err != nil {
		writeErr(w, err)
		return
	}
	utils.JSONWrite(w, http.StatusOK, map[string]any{"messages": msgs})
}

// searchConversationMessages handles GET /conversations/{id}/messages/search?q=...
// Results are newest first; deleted messages never match.
func searchConversationMessages(w http.ResponseWriter, r *http.Request) {
	msgs, err := svc.SearchMessages(mux.Vars(r)["id"], r.URL.Query().Get("q"))
	if err != nil {
		writeErr(w, err)
		return
	}
	utils.JSONWrite(w, http.StatusOK, map[string]any{"messages": msgs})
}

// markRead handles POST /conversations/{id}/read with body {"user_id": "..."}.
func markRead(w http.ResponseWriter, r *http.Request) {
	var body struct {
		UserID string `json:"user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	err := svc.MarkRead(mux.Vars(r)["id"], body.UserID)
	telemetry.CountOp("conversation_read", err)
	if err != nil {
		writeErr(w, err)
		return
	}
	utils.JSONWrite(w, http.StatusOK, map[string]string{"status": "ok"})
}

// setTyping handles POST /conversations/{id}/typing with body
// {"user_id": "...", "is_typing": bool}.
func setTyping(w http.ResponseWriter, r *http.Request) {
	var body struct {
		UserID   string `json:"user_id"`
		IsTyping bool   `json:"is_typing"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	err := svc.SetTyping(mux.Vars(r)["id"], body.UserID, body.IsTyping)
	telemetry.CountOp("typing_set", err)
	if err != nil {
		writeErr(w, err)
		return
	}
	utils.JSONWrite(w, http.StatusOK, map[string]string{"status": "ok"})
}

// listTyping handles GET /conversations/{id}/typing?exclude=<userID> and
// returns currently-typing users plus a display phrase.
func listTyping(w http.ResponseWriter, r *http.Request) {
	exclude := r.URL.Query().Get("exclude")
	if exclude == "" {
		exclude = requester(r)
	}
	typists, err := svc.ActiveTypists(mux.Vars(r)["id"], exclude)
	if err != nil {
		writeErr(w, err)
		return
	}
	utils.JSONWrite(w, http.StatusOK, map[string]any{
		"typists": typists,
		"phrase":  chat.TypingPhrase(typists),
	})
}
