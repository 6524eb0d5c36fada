package models

// User maps to the user keyspace. Profiles are created and updated by the
// external identity provider's webhook; presence fields are mutated on
// session start/end. Users are never deleted.
type User struct {
	ID         string `json:"id"`
	ExternalID string `json:"external_id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	AvatarURL  string `json:"avatar_url,omitempty"`
	IsOnline   bool   `json:"is_online"`
	// LastSeenAt and CreatedAt are Unix milliseconds.
	LastSeenAt int64 `json:"last_seen_at"`
	CreatedAt  int64 `json:"created_at"`
}
