package models

// TypingStatus is an ephemeral per-(conversation,user) flag. Rows are never
// actively expired; readers treat anything older than the staleness window
// as not typing.
type TypingStatus struct {
	ConversationID string `json:"conversation_id"`
	UserID         string `json:"user_id"`
	IsTyping       bool   `json:"is_typing"`
	UpdatedAt      int64  `json:"updated_at"`
}
