package models

// Conversation is a direct (2-party) or group (N-party) thread. The
// lastMessage* fields are a denormalized cache of the most recent message,
// maintained in the same atomic batch as message inserts so conversation
// lists render without a join.
type Conversation struct {
	ID              string   `json:"id"`
	ParticipantIDs  []string `json:"participant_ids"`
	IsGroup         bool     `json:"is_group"`
	GroupName       string   `json:"group_name,omitempty"`
	GroupImageURL   string   `json:"group_image_url,omitempty"`
	CreatedBy       string   `json:"created_by"`
	PinnedMessageID string   `json:"pinned_message_id,omitempty"`

	LastMessagePreview  string `json:"last_message_preview,omitempty"`
	// LastMessageAt is Unix milliseconds; zero when no message was sent yet.
	LastMessageAt       int64  `json:"last_message_at,omitempty"`
	LastMessageSenderID string `json:"last_message_sender_id,omitempty"`

	CreatedAt int64 `json:"created_at"`
}

// HasParticipant reports whether userID is a member of the conversation.
func (c *Conversation) HasParticipant(userID string) bool {
	for _, id := range c.ParticipantIDs {
		if id == userID {
			return true
		}
	}
	return false
}
