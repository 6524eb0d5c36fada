package chat

import (
	"fmt"
	"sort"
	"strings"

	"conversadb/pkg/logger"
	"conversadb/pkg/models"
	"conversadb/pkg/store"
	"conversadb/pkg/utils"
)

// FindOrCreateDirect returns the 1-on-1 conversation between the two users,
// creating it when absent. Two concurrent calls for the same pair serialize
// on the sorted-pair key, so exactly one conversation ever exists per
// unordered pair.
func (s *Service) FindOrCreateDirect(userA, userB string) (string, bool, error) {
	if userA == "" || userB == "" {
		return "", false, fmt.Errorf("%w: both user ids required", ErrValidation)
	}
	if userA == userB {
		return "", false, fmt.Errorf("%w: cannot start a conversation with yourself", ErrValidation)
	}
	pair := store.PairKey(userA, userB)
	unlock := s.locks.Lock("direct:" + pair)
	defer unlock()

	id, err := store.GetDirectConversationID(userA, userB)
	if err == nil {
		return id, false, nil
	}
	if err != store.ErrNotFound {
		return "", false, storeErr("find direct conversation", err)
	}

	c := models.Conversation{
		ID:             utils.NewID(),
		ParticipantIDs: []string{userA, userB},
		IsGroup:        false,
		CreatedBy:      userA,
		CreatedAt:      s.nowMilli(),
	}
	if err := store.CreateConversation(c); err != nil {
		return "", false, storeErr("create direct conversation", err)
	}
	logger.Info("conversation_created", "conversation", c.ID, "direct", true)
	s.notify(c.ParticipantIDs, Event{Type: "conversation.new", ConversationID: c.ID})
	return c.ID, true, nil
}

// CreateGroup creates a group conversation. The creator is always a
// participant; members must name at least two other users.
func (s *Service) CreateGroup(creator string, members []string, name, imageURL string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("%w: group name required", ErrValidation)
	}
	participants := []string{creator}
	seen := map[string]struct{}{creator: {}}
	for _, m := range members {
		if _, ok := seen[m]; ok || m == "" {
			continue
		}
		seen[m] = struct{}{}
		participants = append(participants, m)
	}
	if len(participants) < 3 {
		return "", fmt.Errorf("%w: a group needs at least two members besides the creator", ErrValidation)
	}

	c := models.Conversation{
		ID:             utils.NewID(),
		ParticipantIDs: participants,
		IsGroup:        true,
		GroupName:      name,
		GroupImageURL:  imageURL,
		CreatedBy:      creator,
		CreatedAt:      s.nowMilli(),
	}
	if err := store.CreateConversation(c); err != nil {
		return "", storeErr("create group conversation", err)
	}
	logger.Info("conversation_created", "conversation", c.ID, "group", name)
	s.notify(participants, Event{Type: "conversation.new", ConversationID: c.ID})
	return c.ID, nil
}

// ListConversations returns every conversation the user belongs to,
// enriched with participant profiles and the user's unread count, newest
// activity first.
func (s *Service) ListConversations(userID string) ([]models.EnrichedConversation, error) {
	convs, err := store.ListConversationsForUser(userID)
	if err != nil {
		return nil, storeErr("list conversations", err)
	}
	out := make([]models.EnrichedConversation, 0, len(convs))
	for _, c := range convs {
		e, err := s.enrichConversation(c, userID)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return activityTime(out[i].Conversation) > activityTime(out[j].Conversation)
	})
	return out, nil
}

func activityTime(c models.Conversation) int64 {
	if c.LastMessageAt != 0 {
		return c.LastMessageAt
	}
	return c.CreatedAt
}

func (s *Service) enrichConversation(c models.Conversation, viewerID string) (models.EnrichedConversation, error) {
	e := models.EnrichedConversation{Conversation: c}
	e.Participants = make([]models.User, 0, len(c.ParticipantIDs))
	for _, id := range c.ParticipantIDs {
		u, err := store.GetUser(id)
		if err != nil {
			// participant profile not synced yet; skip rather than fail the list
			continue
		}
		e.Participants = append(e.Participants, u)
		if !c.IsGroup && id != viewerID {
			other := u
			e.OtherUser = &other
		}
	}
	n, err := s.UnreadCountFor(c.ID, viewerID)
	if err != nil {
		return e, err
	}
	e.UnreadCount = n
	return e, nil
}

// GetConversation returns one conversation with participant profiles, or
// ErrNotFound.
func (s *Service) GetConversation(id string) (models.EnrichedConversation, error) {
	c, err := store.GetConversation(id)
	if err == store.ErrNotFound {
		return models.EnrichedConversation{}, fmt.Errorf("conversation %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return models.EnrichedConversation{}, storeErr("get conversation", err)
	}
	e := models.EnrichedConversation{Conversation: c}
	for _, pid := range c.ParticipantIDs {
		if u, err := store.GetUser(pid); err == nil {
			e.Participants = append(e.Participants, u)
		}
	}
	return e, nil
}

// SetPinned pins messageID in the conversation, or clears the pin when
// messageID is empty. Any participant may pin; a pin referencing a message
// from another conversation is recorded but flagged in the logs as a
// data-integrity warning.
func (s *Service) SetPinned(convID, messageID, requesterID string) error {
	unlock := s.locks.Lock("conv:" + convID)
	defer unlock()

	c, err := store.GetConversation(convID)
	if err == store.ErrNotFound {
		return fmt.Errorf("conversation %s: %w", convID, ErrNotFound)
	}
	if err != nil {
		return storeErr("set pinned", err)
	}
	if !c.HasParticipant(requesterID) {
		return fmt.Errorf("user %s is not a participant: %w", requesterID, ErrUnauthorized)
	}
	if messageID != "" {
		if m, err := store.GetMessage(messageID); err == nil && m.ConversationID != convID {
			logger.Warn("pin_message_foreign", "conversation", convID, "message", messageID, "owner", m.ConversationID)
		}
	}
	c.PinnedMessageID = messageID
	if err := store.UpdateConversation(c); err != nil {
		return storeErr("set pinned", err)
	}
	s.notify(c.ParticipantIDs, Event{Type: "conversation.pinned", ConversationID: convID, Data: messageID})
	return nil
}
