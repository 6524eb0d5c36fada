package models

// ReadReceipt is a per-(conversation,user) watermark: messages created at or
// before LastReadAt count as read. Upserted on every mark-read.
type ReadReceipt struct {
	ConversationID    string `json:"conversation_id"`
	UserID            string `json:"user_id"`
	LastReadAt        int64  `json:"last_read_at"`
	LastReadMessageID string `json:"last_read_message_id,omitempty"`
}
