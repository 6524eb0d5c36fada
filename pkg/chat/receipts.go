package chat

import (
	"fmt"

	"conversadb/pkg/models"
	"conversadb/pkg/store"
)

// MarkRead upserts the user's read watermark for the conversation to now,
// recording the newest message id at call time when one exists.
func (s *Service) MarkRead(convID, userID string) error {
	unlock := s.locks.Lock("receipt:" + convID + ":" + userID)
	defer unlock()

	if _, err := store.GetConversation(convID); err != nil {
		if err == store.ErrNotFound {
			return fmt.Errorf("conversation %s: %w", convID, ErrNotFound)
		}
		return storeErr("mark read", err)
	}

	r := models.ReadReceipt{
		ConversationID: convID,
		UserID:         userID,
		LastReadAt:     s.nowMilli(),
	}
	if latest, err := store.LatestMessage(convID); err == nil {
		r.LastReadMessageID = latest.ID
	}
	if err := store.SaveReceipt(r); err != nil {
		return storeErr("mark read", err)
	}
	if c, err := store.GetConversation(convID); err == nil {
		s.notify(c.ParticipantIDs, Event{Type: "conversation.read", ConversationID: convID, Data: userID})
	}
	return nil
}

// UnreadCountFor counts messages the user has not read. Without a receipt
// every message from someone else is unread; with one, only messages
// created strictly after the watermark count; a message created at exactly
// lastReadAt is read.
func (s *Service) UnreadCountFor(convID, userID string) (int, error) {
	msgs, err := store.ListMessages(convID, 0)
	if err != nil {
		return 0, storeErr("unread count", err)
	}
	r, err := store.GetReceipt(convID, userID)
	if err != nil && err != store.ErrNotFound {
		return 0, storeErr("unread count", err)
	}
	hasReceipt := err == nil

	n := 0
	for _, m := range msgs {
		if m.SenderID == userID {
			continue
		}
		if hasReceipt && m.CreatedAt <= r.LastReadAt {
			continue
		}
		n++
	}
	return n, nil
}

// IsReadBy reports whether any participant other than the message's sender
// has a read watermark at or past the message's creation time. Drives the
// sent/read checkmark on the sender's own messages.
func (s *Service) IsReadBy(messageID string) (bool, error) {
	m, err := store.GetMessage(messageID)
	if err == store.ErrNotFound {
		return false, fmt.Errorf("message %s: %w", messageID, ErrNotFound)
	}
	if err != nil {
		return false, storeErr("is read by", err)
	}
	receipts, err := store.ListReceipts(m.ConversationID)
	if err != nil {
		return false, storeErr("is read by", err)
	}
	for _, r := range receipts {
		if r.UserID == m.SenderID {
			continue
		}
		if r.LastReadAt >= m.CreatedAt {
			return true, nil
		}
	}
	return false, nil
}
