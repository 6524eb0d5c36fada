package chat

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"conversadb/pkg/logger"
	"conversadb/pkg/models"
	"conversadb/pkg/store"
	"conversadb/pkg/utils"
)

const (
	previewLen      = 60
	deletedPreview  = "Message deleted"
	minSearchLength = 2
)

// SendMessage inserts a message and refreshes the owning conversation's
// last-message cache in the same atomic unit. The sender must be a
// participant; the body must be non-empty after trimming.
func (s *Service) SendMessage(convID, senderID, body, replyToID string) (string, error) {
	if strings.TrimSpace(body) == "" {
		return "", fmt.Errorf("%w: message body is empty", ErrValidation)
	}

	unlock := s.locks.Lock("conv:" + convID)
	defer unlock()

	c, err := store.GetConversation(convID)
	if err == store.ErrNotFound {
		return "", fmt.Errorf("conversation %s: %w", convID, ErrNotFound)
	}
	if err != nil {
		return "", storeErr("send message", err)
	}
	if !c.HasParticipant(senderID) {
		return "", fmt.Errorf("sender %s is not a participant: %w", senderID, ErrUnauthorized)
	}
	if replyToID != "" {
		parent, err := store.GetMessage(replyToID)
		if err == store.ErrNotFound {
			return "", fmt.Errorf("%w: reply target does not exist", ErrValidation)
		}
		if err != nil {
			return "", storeErr("send message", err)
		}
		if parent.ConversationID != convID {
			return "", fmt.Errorf("%w: reply target belongs to another conversation", ErrValidation)
		}
	}

	now := s.nowMilli()
	m := models.Message{
		ID:               utils.NewID(),
		ConversationID:   convID,
		SenderID:         senderID,
		Body:             body,
		Deleted:          false,
		ReplyToMessageID: replyToID,
		Reactions:        []models.Reaction{},
		IsPinned:         false,
		CreatedAt:        now,
	}
	c.LastMessagePreview = preview(body)
	c.LastMessageAt = now
	c.LastMessageSenderID = senderID

	if err := store.AppendMessage(m, c); err != nil {
		return "", storeErr("send message", err)
	}
	logger.Info("message_sent", "conversation", convID, "message", m.ID, "sender", senderID)
	s.notify(c.ParticipantIDs, Event{Type: "message.new", ConversationID: convID, Data: m.ID})
	return m.ID, nil
}

// preview returns the first 60 characters of body for the conversation
// list cache.
func preview(body string) string {
	r := []rune(body)
	if len(r) > previewLen {
		r = r[:previewLen]
	}
	return string(r)
}

// SoftDelete marks a message deleted and clears its body; the row stays so
// replies and ordering keep their references. Only the original sender may
// delete. When the requester is also the conversation's cached last sender,
// the cached preview is rewritten to a tombstone sentinel. The rewrite keys
// on sender identity alone and does not recompute the true last non-deleted
// message.
func (s *Service) SoftDelete(messageID, requesterID string) error {
	m, err := store.GetMessage(messageID)
	if err == store.ErrNotFound {
		return fmt.Errorf("message %s: %w", messageID, ErrNotFound)
	}
	if err != nil {
		return storeErr("delete message", err)
	}

	unlock := s.locks.Lock("conv:" + m.ConversationID)
	defer unlock()

	// reload under the lock; a concurrent toggle may have rewritten it
	m, err = store.GetMessage(messageID)
	if err != nil {
		if err == store.ErrNotFound {
			return fmt.Errorf("message %s: %w", messageID, ErrNotFound)
		}
		return storeErr("delete message", err)
	}
	if m.SenderID != requesterID {
		return fmt.Errorf("only the sender may delete a message: %w", ErrUnauthorized)
	}
	m.Deleted = true
	m.Body = ""

	c, err := store.GetConversation(m.ConversationID)
	if err == nil && c.LastMessageSenderID == requesterID && c.LastMessagePreview != "" {
		c.LastMessagePreview = deletedPreview
		if err := store.UpdateMessageAndConversation(m, c); err != nil {
			return storeErr("delete message", err)
		}
	} else {
		if err := store.UpdateMessage(m); err != nil {
			return storeErr("delete message", err)
		}
	}
	logger.Info("message_deleted", "conversation", m.ConversationID, "message", messageID)
	if c.ID != "" {
		s.notify(c.ParticipantIDs, Event{Type: "message.deleted", ConversationID: m.ConversationID, Data: messageID})
	}
	return nil
}

// ToggleReaction flips userID's reaction with emoji on the message: present
// is removed (dropping the entry when it empties), absent is added. Two
// toggles by the same user and emoji return the list to its prior state.
func (s *Service) ToggleReaction(messageID, userID, emoji string) error {
	m, err := store.GetMessage(messageID)
	if err == store.ErrNotFound {
		return fmt.Errorf("message %s: %w", messageID, ErrNotFound)
	}
	if err != nil {
		return storeErr("toggle reaction", err)
	}

	unlock := s.locks.Lock("conv:" + m.ConversationID)
	defer unlock()

	m, err = store.GetMessage(messageID)
	if err != nil {
		if err == store.ErrNotFound {
			return fmt.Errorf("message %s: %w", messageID, ErrNotFound)
		}
		return storeErr("toggle reaction", err)
	}

	idx := m.ReactionIndex(emoji)
	if idx >= 0 {
		entry := m.Reactions[idx]
		pos := -1
		for i, id := range entry.UserIDs {
			if id == userID {
				pos = i
				break
			}
		}
		if pos >= 0 {
			entry.UserIDs = append(entry.UserIDs[:pos], entry.UserIDs[pos+1:]...)
			if len(entry.UserIDs) == 0 {
				m.Reactions = append(m.Reactions[:idx], m.Reactions[idx+1:]...)
			} else {
				m.Reactions[idx] = entry
			}
		} else {
			entry.UserIDs = append(entry.UserIDs, userID)
			m.Reactions[idx] = entry
		}
	} else {
		m.Reactions = append(m.Reactions, models.Reaction{Emoji: emoji, UserIDs: []string{userID}})
	}

	if err := store.UpdateMessage(m); err != nil {
		return storeErr("toggle reaction", err)
	}
	if c, err := store.GetConversation(m.ConversationID); err == nil {
		s.notify(c.ParticipantIDs, Event{Type: "message.reaction", ConversationID: m.ConversationID, Data: messageID})
	}
	return nil
}

// ListMessages returns the conversation's messages oldest first, enriched
// with sender profiles and reply previews. When limit > 0 only the most
// recent limit messages are returned.
func (s *Service) ListMessages(convID string, limit int) ([]models.EnrichedMessage, error) {
	msgs, err := store.ListMessages(convID, limit)
	if err != nil {
		return nil, storeErr("list messages", err)
	}
	out := make([]models.EnrichedMessage, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, s.enrichMessage(m))
	}
	return out, nil
}

func (s *Service) enrichMessage(m models.Message) models.EnrichedMessage {
	sender := userOrUnknown(m.SenderID)
	e := models.EnrichedMessage{
		Message:         m,
		SenderName:      sender.Name,
		SenderAvatarURL: sender.AvatarURL,
	}
	if m.ReplyToMessageID != "" {
		if parent, err := store.GetMessage(m.ReplyToMessageID); err == nil {
			// a deleted parent yields an empty body; the client renders the
			// degraded quote
			e.ReplyToBody = parent.Body
			e.ReplyToSender = userOrUnknown(parent.SenderID).Name
		}
	}
	return e
}

// SearchMessages matches non-deleted message bodies by case-insensitive
// substring, newest first. Queries shorter than two characters after
// trimming return nothing.
func (s *Service) SearchMessages(convID, query string) ([]models.EnrichedMessage, error) {
	if utf8.RuneCountInString(strings.TrimSpace(query)) < minSearchLength {
		return []models.EnrichedMessage{}, nil
	}
	msgs, err := store.ListMessages(convID, 0)
	if err != nil {
		return nil, storeErr("search messages", err)
	}
	// Only the length gate trims; matching uses the query as given, so
	// surrounding whitespace narrows the match.
	q := strings.ToLower(query)
	out := make([]models.EnrichedMessage, 0)
	for _, m := range msgs {
		if m.Deleted {
			continue
		}
		if strings.Contains(strings.ToLower(m.Body), q) {
			out = append(out, s.enrichMessage(m))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt > out[j].CreatedAt
	})
	return out, nil
}
