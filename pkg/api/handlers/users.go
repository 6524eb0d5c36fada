package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"conversadb/pkg/telemetry"
	"conversadb/pkg/utils"
)

// RegisterUsers registers all user-related HTTP routes to the provided router.
func RegisterUsers(r *mux.Router) {
	r.HandleFunc("/users/sync", syncUser).Methods(http.MethodPost)
	r.HandleFunc("/users/search", searchUsers).Methods(http.MethodGet)
	r.HandleFunc("/users", listUsers).Methods(http.MethodGet)
	r.HandleFunc("/users/{id}", getUser).Methods(http.MethodGet)
	r.HandleFunc("/users/{id}/presence", setPresence).Methods(http.MethodPut)
}

// syncUser handles POST /users/sync. It upserts the profile keyed by the
// identity provider's external_id and returns the stored record.
func syncUser(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ExternalID string `json:"external_id"`
		Name       string `json:"name"`
		Email      string `json:"email"`
		AvatarURL  string `json:"avatar_url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	u, err := svc.UpsertUser(body.ExternalID, body.Name, body.Email, body.AvatarURL)
	telemetry.CountOp("user_sync", err)
	if err != nil {
		writeErr(w, err)
		return
	}
	utils.JSONWrite(w, http.StatusOK, u)
}

// setPresence handles PUT /users/{id}/presence with body {"is_online": bool}.
func setPresence(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var body struct {
		IsOnline bool `json:"is_online"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	err := svc.SetOnlineStatus(id, body.IsOnline)
	telemetry.CountOp("user_presence", err)
	if err != nil {
		writeErr(w, err)
		return
	}
	utils.JSONWrite(w, http.StatusOK, map[string]string{"status": "ok"})
}

// listUsers handles GET /users. When X-User-ID is present that user is
// excluded, matching the contact-list view.
func listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := svc.ListUsers()
	if err != nil {
		writeErr(w, err)
		return
	}
	if me := requester(r); me != "" {
		filtered := users[:0]
		for _, u := range users {
			if u.ID != me {
				filtered = append(filtered, u)
			}
		}
		users = filtered
	}
	utils.JSONWrite(w, http.StatusOK, map[string]any{"users": users})
}

// searchUsers handles GET /users/search?q=... with a case-insensitive name
// match. An empty query returns everyone except the requester.
func searchUsers(w http.ResponseWriter, r *http.Request) {
	users, err := svc.SearchUsers(r.URL.Query().Get("q"), requester(r))
	if err != nil {
		writeErr(w, err)
		return
	}
	utils.JSONWrite(w, http.StatusOK, map[string]any{"users": users})
}

func getUser(w http.ResponseWriter, r *http.Request) {
	u, err := svc.GetUser(mux.Vars(r)["id"])
	if err != nil {
		writeErr(w, err)
		return
	}
	utils.JSONWrite(w, http.StatusOK, u)
}
