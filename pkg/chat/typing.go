package chat

import (
	"fmt"

	"conversadb/pkg/models"
	"conversadb/pkg/store"
)

// typingWindowMillis is how long a typing row stays live after its last
// update. Rows are never expired in place; readers filter.
const typingWindowMillis = 3000

// SetTyping upserts the user's typing flag for the conversation. Clients
// re-assert while composing and clear on send or blur; the tracker runs no
// timers of its own.
func (s *Service) SetTyping(convID, userID string, isTyping bool) error {
	if _, err := store.GetConversation(convID); err != nil {
		if err == store.ErrNotFound {
			return fmt.Errorf("conversation %s: %w", convID, ErrNotFound)
		}
		return storeErr("set typing", err)
	}
	t := models.TypingStatus{
		ConversationID: convID,
		UserID:         userID,
		IsTyping:       isTyping,
		UpdatedAt:      s.nowMilli(),
	}
	if err := store.SaveTyping(t); err != nil {
		return storeErr("set typing", err)
	}
	if c, err := store.GetConversation(convID); err == nil {
		s.notify(c.ParticipantIDs, Event{Type: "typing", ConversationID: convID, Data: userID})
	}
	return nil
}

// ActiveTypists returns everyone currently typing in the conversation other
// than excludeUserID: flag set and updated within the last three seconds.
func (s *Service) ActiveTypists(convID, excludeUserID string) ([]models.TypingUser, error) {
	rows, err := store.ListTyping(convID)
	if err != nil {
		return nil, storeErr("active typists", err)
	}
	cutoff := s.nowMilli() - typingWindowMillis
	out := make([]models.TypingUser, 0)
	for _, t := range rows {
		if t.UserID == excludeUserID || !t.IsTyping || t.UpdatedAt <= cutoff {
			continue
		}
		out = append(out, models.TypingUser{
			UserID: t.UserID,
			Name:   userOrUnknown(t.UserID).Name,
		})
	}
	return out, nil
}

// TypingPhrase composes the indicator text for a set of active typists.
func TypingPhrase(typists []models.TypingUser) string {
	switch len(typists) {
	case 0:
		return ""
	case 1:
		return typists[0].Name + " is typing…"
	case 2:
		return typists[0].Name + " and " + typists[1].Name + " are typing…"
	default:
		return "Several people are typing…"
	}
}
