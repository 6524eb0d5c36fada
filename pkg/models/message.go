package models

// Reaction aggregates all users who reacted to a message with one emoji.
// UserIDs is never empty: the entry is dropped when the last user removes
// their reaction.
type Reaction struct {
	Emoji   string   `json:"emoji"`
	UserIDs []string `json:"user_ids"`
}

// Message belongs to exactly one conversation. Rows are never hard-deleted;
// soft delete sets Deleted and clears Body so replies and ordering keep
// their referential integrity.
type Message struct {
	ID               string     `json:"id"`
	ConversationID   string     `json:"conversation_id"`
	SenderID         string     `json:"sender_id"`
	Body             string     `json:"body"`
	Deleted          bool       `json:"deleted"`
	ReplyToMessageID string     `json:"reply_to_message_id,omitempty"`
	Reactions        []Reaction `json:"reactions"`
	IsPinned         bool       `json:"is_pinned"`
	CreatedAt        int64      `json:"created_at"`
}

// ReactionIndex returns the position of the entry for emoji, or -1.
func (m *Message) ReactionIndex(emoji string) int {
	for i, r := range m.Reactions {
		if r.Emoji == emoji {
			return i
		}
	}
	return -1
}
