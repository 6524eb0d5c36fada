package models

// Read models returned by list/search operations. Stores hold only foreign
// keys; these join in profile data at query time.

// EnrichedConversation is a conversation plus participant profiles and the
// caller's unread count. OtherUser is set for direct conversations only.
type EnrichedConversation struct {
	Conversation
	Participants []User `json:"participants"`
	OtherUser    *User  `json:"other_user,omitempty"`
	UnreadCount  int    `json:"unread_count"`
}

// EnrichedMessage is a message plus sender profile and, when the message is
// a reply and the replied-to message still resolves, its body and sender
// name for the quote preview.
type EnrichedMessage struct {
	Message
	SenderName      string `json:"sender_name"`
	SenderAvatarURL string `json:"sender_avatar_url,omitempty"`
	ReplyToBody     string `json:"reply_to_body,omitempty"`
	ReplyToSender   string `json:"reply_to_sender,omitempty"`
}

// TypingUser is one active typist in a conversation.
type TypingUser struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
}
